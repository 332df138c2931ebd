// Command web runs the hotspot voucher service: the HTTP API, the websocket
// event hub and the background expiry sweeper.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"hotspotcli/internal/bandwidth"
	"hotspotcli/internal/config"
	"hotspotcli/internal/credentials"
	"hotspotcli/internal/exporter"
	"hotspotcli/internal/infrastructure"
	"hotspotcli/internal/render"
	"hotspotcli/internal/services"
	"hotspotcli/internal/store"
	"hotspotcli/internal/subscription"
	transporthttp "hotspotcli/internal/transport/http"
	"hotspotcli/internal/voucher"
	ws "hotspotcli/internal/websocket"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	logger.Info("starting hotspot voucher service",
		slog.String("version", version),
		slog.Int("port", cfg.Server.Port),
	)

	providers, err := infrastructure.InitializeOTel(nil, logger)
	if err != nil {
		return fmt.Errorf("initialize otel: %w", err)
	}

	var metrics *infrastructure.BusinessMetrics
	if providers.Meter != nil {
		metrics, err = infrastructure.CreateBusinessMetrics(providers.Meter)
		if err != nil {
			return fmt.Errorf("create metrics: %w", err)
		}
	}

	db, err := store.Open(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	st := store.New(db, cfg.Voucher.MaxSequence)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := st.SeedTemplates(ctx, render.DefaultTemplates()); err != nil {
		return fmt.Errorf("seed templates: %w", err)
	}

	catalog := bandwidth.DefaultCatalog()
	generator := credentials.NewGenerator(st, cfg.Voucher.PasswordLength)
	ledger := voucher.NewLedger(st, generator, cfg.Voucher.MaxBatchSize, logger)
	engine := render.NewEngine(catalog, logger)
	machine := subscription.NewMachine(st, subscription.DefaultPlans(), logger)

	hub := ws.NewHub(logger)
	hub.Start()
	defer hub.Shutdown()

	voucherService := services.NewVoucherService(ledger, exporter.NewVoucherExporter(logger), hub, metrics, logger)
	configService := services.NewConfigService(st, engine, catalog, metrics, logger)
	subscriptionService := services.NewSubscriptionService(machine, hub, metrics, logger)
	healthService := services.NewHealthService(version, db, hub, logger)

	router := transporthttp.NewRouter(transporthttp.RouterDeps{
		Config:       cfg,
		Logger:       logger,
		Metrics:      metrics,
		MetricsHTTP:  providers.PrometheusHTTP,
		Vouchers:     voucherService,
		Configs:      configService,
		Subscription: subscriptionService,
		Health:       healthService,
		Hub:          hub,
	})

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if cfg.Sweep.Enabled {
		g.Go(func() error {
			// The service sweep records metrics and broadcasts on its own.
			sweeper := voucher.NewSweeper(voucherService, cfg.Sweep.Interval, logger, nil)
			if err := sweeper.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("expiry sweeper: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("otel shutdown", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("shutdown complete")
	return nil
}
