package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ahump20/lone-star-legends-championship-sub006/internal/analysis"
	"github.com/ahump20/lone-star-legends-championship-sub006/internal/cohort"
	"github.com/ahump20/lone-star-legends-championship-sub006/internal/types"
	urfave "github.com/urfave/cli/v2"
)

var (
	inputFlag = &urfave.StringFlag{
		Name:    "input",
		Aliases: []string{"i"},
		Usage:   "Score request JSON file, - for stdin",
		Value:   "-",
	}

	explainFlag = &urfave.BoolFlag{
		Name:  "explain",
		Usage: "Print intermediate values instead of the score envelope",
	}

	scoreCmd = &urfave.Command{
		Name:  "score",
		Usage: "Score one athlete from a request document",
		Flags: []urfave.Flag{inputFlag, explainFlag},
		Action: func(c *urfave.Context) error {
			req, err := readRequest(c)
			if err != nil {
				return err
			}

			provider, err := loadProvider(c)
			if err != nil {
				return err
			}
			analyzer := analysis.NewAnalyzer(provider, analysis.WithLogger(slog.Default()))

			ctx := c.Context
			if ctx == nil {
				ctx = context.Background()
			}

			if c.Bool(explainFlag.Name) {
				traces, err := analyzer.Explain(ctx, req)
				if err != nil {
					return fmt.Errorf("explaining %s: %w", req.AthleteID, err)
				}
				return encode(c, traces)
			}

			resp, err := analyzer.Score(ctx, req)
			if err != nil {
				return fmt.Errorf("scoring %s: %w", req.AthleteID, err)
			}
			return encode(c, resp)
		},
	}

	dimensionsCmd = &urfave.Command{
		Name:  "dimensions",
		Usage: "List the trait dimensions",
		Action: func(c *urfave.Context) error {
			return encode(c, types.DimensionsResponse{
				Version:    analysis.Version,
				Dimensions: analysis.Dimensions(),
			})
		},
	}

	cohortsCmd = &urfave.Command{
		Name:  "cohorts",
		Usage: "List known cohorts",
		Action: func(c *urfave.Context) error {
			provider, err := loadProvider(c)
			if err != nil {
				return err
			}
			return encode(c, types.CohortsResponse{
				Default: cohort.DefaultKey,
				Cohorts: provider.Keys(),
			})
		},
	}

	calibrationCmd = &urfave.Command{
		Name:  "calibration",
		Usage: "Print score anchors and calibration constants",
		Action: func(c *urfave.Context) error {
			return encode(c, analysis.DefaultParams().Calibration(analysis.ReliabilityMetrics{}))
		},
	}

	seedCheckCmd = &urfave.Command{
		Name:      "seed-check",
		Usage:     "Validate a cohort seed file",
		ArgsUsage: "<path>",
		Action: func(c *urfave.Context) error {
			path := c.Args().First()
			if path == "" {
				return fmt.Errorf("seed file path is required")
			}

			seed, err := cohort.LoadSeedFile(path)
			if err != nil {
				return err
			}

			type summary struct {
				Key       string   `json:"key"`
				Features  int      `json:"features"`
				Overrides []string `json:"overrides,omitempty"`
			}
			out := make([]summary, 0, len(seed))
			for _, key := range seed.Keys() {
				entry := seed[key]
				s := summary{Key: key, Features: len(entry.Baselines)}
				for dim := range entry.Overrides {
					s.Overrides = append(s.Overrides, dim)
				}
				sort.Strings(s.Overrides)
				out = append(out, s)
			}
			slog.Debug("seed file valid", "path", path, "cohorts", len(out))
			return encode(c, map[string]any{"path": path, "valid": true, "cohorts": out})
		},
	}
)

func readRequest(c *urfave.Context) (analysis.Request, error) {
	var r io.Reader = c.App.Reader
	if path := c.String(inputFlag.Name); path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return analysis.Request{}, fmt.Errorf("opening request: %w", err)
		}
		defer f.Close()
		r = f
	}
	if r == nil {
		r = os.Stdin
	}

	sr, err := types.DecodeScoreRequest(r)
	if err != nil {
		appErr := types.ValidationError(err)
		if len(appErr.Fields) == 0 {
			return analysis.Request{}, appErr
		}
		fields := make([]string, 0, len(appErr.Fields))
		for f, msg := range appErr.Fields {
			fields = append(fields, f+" "+msg)
		}
		sort.Strings(fields)
		return analysis.Request{}, fmt.Errorf("invalid request: %s", strings.Join(fields, "; "))
	}
	return sr.ToRequest(time.Now())
}

func loadProvider(c *urfave.Context) (*cohort.Provider, error) {
	seed := cohort.DefaultSeed()
	if path := c.String(seedFlag.Name); path != "" {
		fileSeed, err := cohort.LoadSeedFile(path)
		if err != nil {
			return nil, err
		}
		seed = seed.Merge(fileSeed)
	}
	return cohort.NewProvider(seed, nil, cohort.WithLogger(slog.Default())), nil
}
