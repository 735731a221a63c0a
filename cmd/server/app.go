package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahump20/lone-star-legends-championship-sub006/internal/analysis"
	"github.com/ahump20/lone-star-legends-championship-sub006/internal/cache"
	"github.com/ahump20/lone-star-legends-championship-sub006/internal/cohort"
	"github.com/ahump20/lone-star-legends-championship-sub006/internal/config"
	"github.com/ahump20/lone-star-legends-championship-sub006/internal/database"
	apperrors "github.com/ahump20/lone-star-legends-championship-sub006/internal/errors"
	"github.com/ahump20/lone-star-legends-championship-sub006/internal/middleware"
	"github.com/ahump20/lone-star-legends-championship-sub006/internal/monitoring"
	"github.com/ahump20/lone-star-legends-championship-sub006/internal/ratelimit"
)

const (
	memorySampleInterval = 30 * time.Second
	purgeInterval        = time.Hour
)

// app owns every long-lived dependency of the server.
type app struct {
	cfg    *config.Config
	logger *monitoring.Logger

	metrics *monitoring.Metrics
	memory  *monitoring.MemoryMonitor

	analyzer    *analysis.Analyzer
	provider    *cohort.Provider
	reliability analysis.ReliabilityMetrics

	cohortCache   *cache.Cache
	responseCache *cache.Cache
	redis         *ratelimit.RedisClient
	db            *database.DB
	sqlite        *cohort.SQLiteStore
	limiter       *ratelimit.RateLimiter
	compression   *middleware.CompressionMiddleware
}

// newApp builds the dependency graph. Redis and SQLite are optional: when
// either is unreachable the service keeps scoring from the seed.
func newApp(ctx context.Context, cfg *config.Config, logger *monitoring.Logger) (*app, error) {
	seed := cohort.DefaultSeed()
	if cfg.Cohort.SeedFile != "" {
		fileSeed, err := cohort.LoadSeedFile(cfg.Cohort.SeedFile)
		if err != nil {
			return nil, apperrors.NewConfigurationError("invalid cohort seed file", err)
		}
		seed = seed.Merge(fileSeed)
		logger.Info("Loaded cohort seed file", "path", cfg.Cohort.SeedFile, "cohorts", len(fileSeed))
	}

	a := &app{
		cfg:         cfg,
		logger:      logger,
		metrics:     monitoring.NewMetrics(monitoring.NewPrometheus()),
		reliability: cfg.ReliabilityMetrics(),
		cohortCache: cache.NewCache(cfg.Cohort.TTL),
	}
	a.memory = monitoring.NewMemoryMonitor(memorySampleInterval, a.metrics, logger)

	stores := []cohort.Store{cohort.NewMemoryStore(a.cohortCache)}

	redisClient, err := ratelimit.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Warn("Redis unavailable, continuing without it", "error", err)
	}
	a.redis = redisClient
	if redisClient.IsEnabled() {
		stores = append(stores, cohort.NewRedisStore(redisClient.GetClient(), logger.Logger))
	}

	if cfg.Storage.SQLitePath != "" {
		db, err := database.Open(cfg.Storage.SQLitePath)
		if err != nil {
			logger.Error("SQLite cohort store unavailable", "path", cfg.Storage.SQLitePath, "error", err)
		} else {
			a.db = db
			a.sqlite = cohort.NewSQLiteStore(db)
			stores = append(stores, a.sqlite)
		}
	}

	a.provider = cohort.NewProvider(seed, cohort.NewTiered(cfg.Cohort.TTL, stores...),
		cohort.WithTTL(cfg.Cohort.TTL),
		cohort.WithLogger(logger.Logger),
		cohort.WithMetrics(a.metrics),
	)
	a.analyzer = analysis.NewAnalyzer(a.provider,
		analysis.WithParams(cfg.EngineParams()),
		analysis.WithLogger(logger.Logger),
	)

	if cfg.Cache.Enabled {
		a.responseCache = cache.NewCache(cfg.Cache.TTL)
	}
	if cfg.Compression.Enabled {
		cc := middleware.DefaultCompressionConfig()
		cc.MinSize = cfg.Compression.MinSize
		cc.CompressionLevel = cfg.Compression.Level
		a.compression = middleware.NewCompressionMiddleware(cc)
	}
	if cfg.RateLimit.Enabled {
		a.limiter = ratelimit.NewRateLimiter(redisClient, ratelimit.Config{
			IPLimitPerMin:   cfg.RateLimit.PerMinute,
			BurstMultiplier: cfg.RateLimit.BurstMultiplier,
		}, a.metrics)
	}

	return a, nil
}

// start launches background workers that stop with ctx.
func (a *app) start(ctx context.Context) {
	go a.memory.Run(ctx)

	if a.cfg.Cohort.Warm {
		go func() {
			if err := a.provider.Warm(ctx); err != nil {
				a.logger.Warn("Cohort warm-up incomplete", "error", err)
			}
		}()
	}

	if a.sqlite != nil {
		go a.purgeLoop(ctx)
	}
}

func (a *app) purgeLoop(ctx context.Context) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.sqlite.Purge(ctx)
			if err != nil {
				a.logger.Warn("Failed to purge expired cohort tables", "error", err)
				continue
			}
			if n > 0 {
				a.logger.SystemLogger("cohort_purge", "removed expired cohort tables")
			}
		}
	}
}

// Close releases every resource in reverse order of creation.
func (a *app) Close() {
	if a.limiter != nil {
		a.limiter.Close()
	}
	if a.responseCache != nil {
		a.responseCache.Close()
	}
	if a.db != nil {
		apperrors.SafeClose(a.db, "sqlite")
	}
	if a.redis != nil {
		apperrors.SafeClose(a.redis, "redis")
	}
	a.cohortCache.Close()
	slog.Debug("Resources released")
}
