package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/vouchergrid/internal/app"
	"github.com/odyssey-erp/vouchergrid/internal/documents"
	"github.com/odyssey-erp/vouchergrid/internal/engine"
	"github.com/odyssey-erp/vouchergrid/internal/lookup"
	"github.com/odyssey-erp/vouchergrid/internal/masterdata"
	"github.com/odyssey-erp/vouchergrid/internal/observability"
	"github.com/odyssey-erp/vouchergrid/internal/platform/cache"
	"github.com/odyssey-erp/vouchergrid/internal/platform/db"
	"github.com/odyssey-erp/vouchergrid/internal/prefs"
	"github.com/odyssey-erp/vouchergrid/internal/schema"
	"github.com/odyssey-erp/vouchergrid/internal/shared"
	"github.com/odyssey-erp/vouchergrid/internal/voucher"
	"github.com/odyssey-erp/vouchergrid/internal/workflow"
	"github.com/odyssey-erp/vouchergrid/jobs"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		return err
	}
	defer pool.Close()

	master := masterdata.NewPostgresRepository(pool)
	if cfg.SeedMasterData {
		if err := masterdata.Seed(ctx, master); err != nil {
			logger.Warn("seed master data", slog.Any("error", err))
		}
	}

	var source lookup.Source = masterdata.AsSource(master)
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, lookup cache disabled", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		source = lookup.NewCachedSource(source, redisClient, 5*time.Minute, logger)
	}

	svc := documents.NewService(
		documents.NewPostgresRepository(pool),
		shared.NewApprovalRecorder(pool, logger),
		logger,
	).WithAudit(shared.NewAuditLogger(pool))

	overrides, err := schema.LoadOverrides(cfg.SchemaOverrides)
	if err != nil {
		logger.Error("load schema overrides", slog.Any("error", err))
		return err
	}

	local, err := prefs.OpenLocal(cfg.PrefsPath)
	if err != nil {
		logger.Error("open preference store", slog.Any("error", err))
		return err
	}
	defer func() {
		if err := local.Close(); err != nil {
			logger.Warn("close preference store", slog.Any("error", err))
		}
	}()
	remote := prefs.NewRemoteStore(pool)

	metrics := observability.NewMetrics()

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Warn("job client unavailable", slog.Any("error", err))
		jobClient = nil
	} else {
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
	}
	var push prefs.PushFunc
	if jobClient != nil {
		push = func(vt voucher.VoucherType, bag prefs.Bag) error {
			pushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_, err := jobClient.EnqueuePrefPush(pushCtx, jobs.PrefPushPayload{VoucherType: vt, Bag: bag})
			if err != nil {
				metrics.PrefPushes.WithLabelValues("failure").Inc()
				return err
			}
			metrics.PrefPushes.WithLabelValues("success").Inc()
			return nil
		}
	}
	saver := prefs.NewSaver(local, push, logger, cfg.PrefPushDelay)

	perms := workflow.Permissions{Save: true, Submit: true, Approve: true, Reject: true, Post: true}
	registry := engine.NewRegistry(func(ctx context.Context, vt voucher.VoucherType, id uuid.UUID) (*engine.Engine, error) {
		doc, err := svc.Load(ctx, vt, id)
		if err != nil {
			return nil, err
		}
		return engine.New(ctx, engine.Options{
			Document:       doc,
			Overrides:      overrides,
			Source:         source,
			Master:         master,
			Endpoint:       svc,
			Perms:          perms,
			Prefs:          saver,
			RemotePrefs:    remote,
			Logger:         logger,
			LookupDebounce: cfg.LookupDebounce,
			StaleDrops:     metrics.StaleLookupDrops,
			OnWorkflow: func(action workflow.Action, err error) {
				outcome := "success"
				if err != nil {
					outcome = "failure"
				}
				metrics.WorkflowTransitions.WithLabelValues(string(action), outcome).Inc()
			},
		})
	})

	handler := engine.NewHandler(logger, registry, master, saver, remote)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		EngineHandler: handler,
		JobHandler:    jobs.NewHandler(inspector, logger),
		Metrics:       metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
	return nil
}
