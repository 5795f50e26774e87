package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-backoffice/internal/api"
	"github.com/odyssey-erp/odyssey-backoffice/internal/app"
	"github.com/odyssey-erp/odyssey-backoffice/internal/auth"
	"github.com/odyssey-erp/odyssey-backoffice/internal/claimorders"
	"github.com/odyssey-erp/odyssey-backoffice/internal/implementation"
	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata"
	masterdatashared "github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/shared"
	"github.com/odyssey-erp/odyssey-backoffice/internal/observability"
	"github.com/odyssey-erp/odyssey-backoffice/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-backoffice/internal/platform/db"
	"github.com/odyssey-erp/odyssey-backoffice/internal/querycache"
	"github.com/odyssey-erp/odyssey-backoffice/internal/shared"
	"github.com/odyssey-erp/odyssey-backoffice/internal/view"
	"github.com/odyssey-erp/odyssey-backoffice/jobs"
	"github.com/odyssey-erp/odyssey-backoffice/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	if len(os.Args) > 1 {
		code := runCommand(ctx, cfg, logger, os.Stdout, os.Args[1:])
		stop()
		os.Exit(code)
	}

	if err := db.Migrate(ctx, cfg.PGDSN); err != nil {
		logger.Error("migrate", slog.Any("error", err))
		os.Exit(1)
	}
	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	client := api.NewClient(cfg.APIBaseURL, cfg.APITimeout, api.WithObserver(metrics))
	resourceCache := querycache.New(redisClient, cfg.CacheTTL,
		querycache.WithObserver(metrics),
		querycache.WithPrefix("backoffice:qc"),
		querycache.WithLoadTimeout(cfg.APITimeout),
	)

	sessionManager := shared.NewSessionManager(redisClient, "backoffice_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	engine, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}
	pages := view.NewPages(engine, csrfManager, logger)

	authHandler := auth.NewHandler(logger, auth.NewService(client, logger), pages, sessionManager)
	masterDataHandler := masterdata.NewHandler(logger, client, resourceCache, pages, cfg.APIPageSize)

	reportClient := report.NewClient(cfg.GotenbergURL)
	reportHandler := report.NewHandler(reportClient, logger)

	claimRepo := claimorders.NewRepository(client, resourceCache)
	claimService := claimorders.NewService(claimRepo, resourceCache, logger)
	claimHandler := claimorders.NewHandler(claimService, engine, pages, reportClient, logger, cfg.APIPageSize)

	drafts := implementation.NewPgDraftStore(dbpool)
	records := masterdatashared.NewService(implementation.NewRecords(client, resourceCache), resourceCache, logger)
	autosaver := implementation.NewAutosaver(drafts, cfg.AutosaveQuiet, logger)
	defer autosaver.Close()
	implementationHandler := implementation.NewHandler(
		implementation.NewService(records, drafts, logger),
		autosaver,
		pages,
		logger,
		cfg.APIPageSize,
	)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:                logger,
		Config:                cfg,
		Pages:                 pages,
		SessionManager:        sessionManager,
		CSRFManager:           csrfManager,
		Metrics:               metrics,
		AuthHandler:           authHandler,
		MasterDataHandler:     masterDataHandler,
		ClaimOrderHandler:     claimHandler,
		ImplementationHandler: implementationHandler,
		ReportHandler:         reportHandler,
		JobHandler:            jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("api", cfg.APIBaseURL))
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
}
