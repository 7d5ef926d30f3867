package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/odyssey-erp/vouchergrid/internal/app"
	jobmetrics "github.com/odyssey-erp/vouchergrid/internal/jobs"
	"github.com/odyssey-erp/vouchergrid/internal/lookup"
	"github.com/odyssey-erp/vouchergrid/internal/masterdata"
	"github.com/odyssey-erp/vouchergrid/internal/platform/cache"
	"github.com/odyssey-erp/vouchergrid/internal/platform/db"
	"github.com/odyssey-erp/vouchergrid/internal/prefs"
	"github.com/odyssey-erp/vouchergrid/jobs"
)

func main() {
	_ = godotenv.Load()

	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	master := masterdata.NewPostgresRepository(pool)
	var source lookup.Source = masterdata.AsSource(master)
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, warmup runs uncached", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		source = lookup.NewCachedSource(source, redisClient, 5*time.Minute, logger)
	}

	remote := prefs.NewRemoteStore(pool)
	metrics := jobmetrics.NewMetrics(nil)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskPrefPush, Handler: jobs.NewPrefPushHandler(remote, metrics, logger)},
			{Type: jobs.TaskLookupWarm, Handler: jobs.NewLookupWarmHandler(source, metrics, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/30 * * * *", Task: jobs.NewLookupWarmTask(), Options: []asynq.Option{asynq.MaxRetry(1)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
