package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"attendance-monitoring/internal/cache"
	"attendance-monitoring/internal/config"
	"attendance-monitoring/internal/drive"
	"attendance-monitoring/internal/metrics"
	"attendance-monitoring/internal/persist"
	"attendance-monitoring/internal/reconcile"
	"attendance-monitoring/internal/refdata"
	"attendance-monitoring/internal/seqta"
	"attendance-monitoring/internal/store"
)

// reconcile runs the end-to-end pipeline and prints the worklist of
// unresolved, unapproved absences.
func main() {
	storeFlag := flag.String("store", "local", "reference table store: local, drive or postgres")
	save := flag.Bool("save", false, "persist the worklist through the dual sink")
	outputDir := flag.String("output-dir", "", "override the configured output directory")
	previewRows := flag.Int("preview", 20, "worklist rows to print")
	listDrive := flag.Bool("list-drive", false, "list Drive files visible to the service account and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := newLogger(cfg.Env)
	defer logger.Sync()

	ctx := context.Background()

	if *listDrive {
		// Operator aid: an empty listing means the exports have not been
		// shared with the service account.
		dc, err := drive.New(ctx, cfg.DriveCredentialsFile, logger.Named("drive"))
		if err != nil {
			logger.Fatal("build drive client", zap.Error(err))
		}
		files, err := dc.Files(ctx)
		if err != nil {
			logger.Fatal("list drive files", zap.Error(err))
		}
		for id, name := range files {
			fmt.Printf("%s\t%s\n", id, name)
		}
		return
	}

	client := seqta.New(cfg.APIBaseURL, cfg.APIUsername, cfg.SEQTAPassword, logger.Named("seqta"))
	client.DumpRaw = cfg.DumpRaw
	cacheStore := newCacheStore(ctx, cfg, false, logger)

	provider, cleanup, err := newProvider(ctx, refdata.StoreKind(*storeFlag), cfg, logger)
	if err != nil {
		logger.Fatal("build reference table provider", zap.Error(err))
	}
	defer cleanup()

	engine := reconcile.New(cacheStore, client.Fetch, provider, logger.Named("reconcile"))
	rows, err := engine.Reconcile(ctx)
	if err != nil {
		logger.Fatal("reconcile", zap.Error(err))
	}
	reconcile.SortWorklist(rows)
	persist.Preview(os.Stdout, rows, *previewRows)

	if *save {
		outDir := cfg.OutputDir
		if *outputDir != "" {
			outDir = *outputDir
		}
		if err := persist.Write(rows, outDir, "absence_worklist", "absence_worklist", logger); err != nil {
			logger.Fatal("persist worklist", zap.Error(err))
		}
	}

	if cfg.PushGatewayURL != "" {
		if err := metrics.Push(cfg.PushGatewayURL, "attendance_reconcile"); err != nil {
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

// newProvider builds the reference table provider for the chosen store kind
// along with a cleanup for any connection it opened.
func newProvider(ctx context.Context, kind refdata.StoreKind, cfg config.App, logger *zap.Logger) (refdata.Provider, func(), error) {
	refCfg := refdata.Config{Log: logger.Named("refdata")}
	cleanup := func() {}

	switch kind {
	case refdata.StoreLocal:
		refCfg.LocalRoot = cfg.ReferenceRoot
	case refdata.StoreDrive:
		dc, err := drive.New(ctx, cfg.DriveCredentialsFile, logger.Named("drive"))
		if err != nil {
			return nil, cleanup, err
		}
		refCfg.Drive = dc
	case refdata.StorePostgres:
		db, err := store.NewPostgres(cfg.PostgresURL)
		if err != nil {
			return nil, cleanup, err
		}
		refCfg.DB = db
		cleanup = func() { db.Close() }
	}

	provider, err := refdata.ForStore(kind, refCfg)
	return provider, cleanup, err
}
