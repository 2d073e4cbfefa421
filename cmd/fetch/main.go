package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"attendance-monitoring/internal/cache"
	"attendance-monitoring/internal/config"
	"attendance-monitoring/internal/metrics"
	"attendance-monitoring/internal/persist"
	"attendance-monitoring/internal/seqta"
	"attendance-monitoring/internal/store"
)

// fetch downloads one attendance window and persists it through the dual
// sink as the attendance_records table.
func main() {
	dateFlag := flag.String("date", "", "window start date (YYYY-MM-DD, default today)")
	outputDir := flag.String("output-dir", "", "override the configured output directory")
	dumpRaw := flag.Bool("dump-raw", false, "dump the decoded payload to attendance_data.json")
	noCacheWrite := flag.Bool("no-cache-write", false, "do not populate the attendance cache")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := newLogger(cfg.Env)
	defer logger.Sync()

	startDate, err := resolveStartDate(*dateFlag)
	if err != nil {
		logger.Fatal("invalid -date", zap.Error(err))
	}

	client := seqta.New(cfg.APIBaseURL, cfg.APIUsername, cfg.SEQTAPassword, logger.Named("seqta"))
	client.DumpRaw = *dumpRaw || cfg.DumpRaw

	ctx := context.Background()
	cacheStore := newCacheStore(ctx, cfg, *noCacheWrite, logger)

	records, err := cacheStore.GetOrFetch(ctx, startDate, client.Fetch)
	if err != nil {
		logger.Fatal("fetch attendance window", zap.Error(err))
	}

	outDir := cfg.OutputDir
	if *outputDir != "" {
		outDir = *outputDir
	}
	if err := persist.Write(records, outDir, "attendance_records", "attendance_records", logger); err != nil {
		logger.Fatal("persist attendance records", zap.Error(err))
	}

	if cfg.PushGatewayURL != "" {
		if err := metrics.Push(cfg.PushGatewayURL, "attendance_fetch"); err != nil {
			logger.Warn("metrics push failed", zap.Error(err))
		}
	}
}

func newLogger(env string) *zap.Logger {
	var logger *zap.Logger
	if env == "production" || env == "prod" {
		logger, _ = zap.NewProduction()
	} else {
		logger, _ = zap.NewDevelopment()
	}
	return logger.With(zap.String("run_id", uuid.NewString()))
}

func resolveStartDate(flagValue string) (time.Time, error) {
	if flagValue == "" {
		t := time.Now().UTC()
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01-02", flagValue)
}

func newCacheStore(ctx context.Context, cfg config.App, disableWrite bool, logger *zap.Logger) cache.Store {
	if cfg.CacheBackend == "redis" {
		client := store.NewRedis(cfg.RedisAddr)
		if store.RedisHealthy(ctx, client) {
			s := cache.NewRedisStore(client, logger.Named("cache"))
			s.DisableWrite = disableWrite
			return s
		}
		logger.Warn("redis unreachable, falling back to file cache", zap.String("addr", cfg.RedisAddr))
	}

	dir, err := cache.DefaultDir()
	if err != nil {
		logger.Fatal("resolve cache directory", zap.Error(err))
	}
	fs, err := cache.NewFileStore(dir, logger.Named("cache"))
	if err != nil {
		logger.Fatal("create cache directory", zap.Error(err))
	}
	fs.DisableWrite = disableWrite
	return fs
}
