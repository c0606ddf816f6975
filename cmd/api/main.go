package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/procureflow/procureflow-backend/api/routes"
	"github.com/procureflow/procureflow-backend/internal/audit"
	"github.com/procureflow/procureflow-backend/internal/goodsreceipt"
	"github.com/procureflow/procureflow-backend/internal/numbering"
	"github.com/procureflow/procureflow-backend/internal/payments"
	"github.com/procureflow/procureflow-backend/internal/purchaseorders"
	"github.com/procureflow/procureflow-backend/internal/replenishments"
	"github.com/procureflow/procureflow-backend/internal/requests"
	"github.com/procureflow/procureflow-backend/internal/roles"
	"github.com/procureflow/procureflow-backend/pkg/config"
	"github.com/procureflow/procureflow-backend/pkg/db"
	"github.com/procureflow/procureflow-backend/pkg/logger"
	"github.com/procureflow/procureflow-backend/pkg/metrics"
	"github.com/procureflow/procureflow-backend/pkg/migrate"
	"github.com/procureflow/procureflow-backend/pkg/outbox"
	"github.com/procureflow/procureflow-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	workflowMetrics := metrics.NewWorkflowMetrics(registry)

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	rolesResolver, err := roles.NewResolver(roles.NewRepository(dbClient.DB()))
	if err != nil {
		fatal(logg, "failed to create role resolver", err)
	}
	auditService, err := audit.NewService(audit.NewRepository(dbClient.DB()))
	if err != nil {
		fatal(logg, "failed to create audit service", err)
	}
	numberingService, err := numbering.NewService(dbClient.DB())
	if err != nil {
		fatal(logg, "failed to create numbering service", err)
	}

	requestService, err := requests.NewService(
		dbClient,
		requests.NewRepository(dbClient.DB()),
		rolesResolver,
		auditService,
		numberingService,
		outboxService,
		workflowMetrics,
	)
	if err != nil {
		fatal(logg, "failed to create request service", err)
	}

	replenishmentService, err := replenishments.NewService(
		dbClient,
		replenishments.NewRepository(dbClient.DB()),
		rolesResolver,
		auditService,
		outboxService,
		workflowMetrics,
	)
	if err != nil {
		fatal(logg, "failed to create replenishment service", err)
	}

	purchaseOrderRepo := purchaseorders.NewRepository(dbClient.DB())
	purchaseOrderService, err := purchaseorders.NewService(
		dbClient,
		purchaseOrderRepo,
		requestService,
		rolesResolver,
		auditService,
		numberingService,
		outboxService,
		workflowMetrics,
	)
	if err != nil {
		fatal(logg, "failed to create purchase order service", err)
	}

	goodsReceiptService, err := goodsreceipt.NewService(
		dbClient,
		goodsreceipt.NewRepository(dbClient.DB()),
		purchaseOrderRepo,
		requestService,
		rolesResolver,
		auditService,
		numberingService,
		outboxService,
		workflowMetrics,
	)
	if err != nil {
		fatal(logg, "failed to create goods receipt service", err)
	}

	paymentService, err := payments.NewService(
		dbClient,
		payments.NewRepository(dbClient.DB()),
		purchaseOrderRepo,
		requestService,
		goodsReceiptService,
		rolesResolver,
		auditService,
		outboxService,
		workflowMetrics,
	)
	if err != nil {
		fatal(logg, "failed to create payment service", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			logg,
			dbClient,
			redisClient,
			registry,
			requestService,
			replenishmentService,
			purchaseOrderService,
			goodsReceiptService,
			paymentService,
			auditService,
		),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "error during server shutdown", err)
		}
	}
}

func fatal(logg *logger.Logger, msg string, err error) {
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}
