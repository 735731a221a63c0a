// Command traitctl scores athletes offline and inspects cohort seeds.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/ahump20/lone-star-legends-championship-sub006/internal/analysis"
	urfave "github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	version = "v0.0.1-default"
	commit  = ""

	debugFlag = &urfave.BoolFlag{
		Name:  "debug",
		Usage: "Prints verbose logs (optional, default: false)",
	}

	formatFlag = &urfave.StringFlag{
		Name:    "format",
		Aliases: []string{"o"},
		Usage:   "Output format [json, yaml]",
		Value:   formatJSON,
	}

	seedFlag = &urfave.StringFlag{
		Name:    "seed",
		Usage:   "YAML or JSON cohort seed file layered over the built-in seed",
		EnvVars: []string{"TRAIT_COHORT_SEED_FILE"},
	}
)

func main() {
	initLogging(os.Stderr, false)

	if err := newApp().Run(os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func newApp() *urfave.App {
	return &urfave.App{
		Name:            "traitctl",
		Version:         fmt.Sprintf("%s (%s, engine %s)", version, commit, analysis.Version),
		Compiled:        time.Now(),
		HideHelpCommand: true,
		Usage:           "Offline athlete trait scoring",
		Flags: []urfave.Flag{
			debugFlag,
			formatFlag,
			seedFlag,
		},
		Commands: []*urfave.Command{
			scoreCmd,
			dimensionsCmd,
			cohortsCmd,
			calibrationCmd,
			seedCheckCmd,
		},
		Before: func(c *urfave.Context) error {
			if c.Bool(debugFlag.Name) {
				initLogging(c.App.ErrWriter, true)
			}
			switch f := c.String(formatFlag.Name); f {
			case formatJSON, formatYAML, "yml":
				return nil
			default:
				return fmt.Errorf("unsupported output format %q", f)
			}
		},
	}
}

func initLogging(w io.Writer, debug bool) {
	if w == nil {
		w = os.Stderr
	}
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(h))
}

// encode writes v in the selected format. YAML output keeps the JSON field
// names and order.
func encode(c *urfave.Context, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}

	if f := c.String(formatFlag.Name); f != formatYAML && f != "yml" {
		_, err = fmt.Fprintln(c.App.Writer, string(data))
		return err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return fmt.Errorf("converting output to yaml: %w", err)
	}
	blockStyle(&node)

	enc := yaml.NewEncoder(c.App.Writer)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return err
	}
	return enc.Close()
}

func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, child := range n.Content {
		blockStyle(child)
	}
}
