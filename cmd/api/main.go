package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/loussodesigns/opts/api/routes"
	"github.com/loussodesigns/opts/internal/artifacts"
	"github.com/loussodesigns/opts/internal/customers"
	"github.com/loussodesigns/opts/internal/fulfillment"
	"github.com/loussodesigns/opts/internal/milestones"
	"github.com/loussodesigns/opts/internal/orders"
	"github.com/loussodesigns/opts/internal/registration"
	"github.com/loussodesigns/opts/pkg/config"
	"github.com/loussodesigns/opts/pkg/db"
	"github.com/loussodesigns/opts/pkg/logger"
	"github.com/loussodesigns/opts/pkg/mailer"
	"github.com/loussodesigns/opts/pkg/metrics"
	"github.com/loussodesigns/opts/pkg/migrate"
	"github.com/loussodesigns/opts/pkg/qrcode"
	"github.com/loussodesigns/opts/pkg/redis"
	"github.com/loussodesigns/opts/pkg/storage/local"
	"github.com/loussodesigns/opts/pkg/workorder"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "opts-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "opts-api",
		Environment: cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx := context.Background()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	requireResource(ctx, logg, "dev migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		requireResource(ctx, logg, "redis", err)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(ctx, "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(ctx, "redis not configured; registration throttling disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	fulfillmentMetrics := metrics.NewFulfillmentMetrics(registry)

	files, err := local.New(cfg.Artifacts.RootDir, cfg.Artifacts.WebPrefix)
	requireResource(ctx, logg, "artifact store", err)

	codes, err := qrcode.NewGenerator(files, qrcode.DefaultSize)
	requireResource(ctx, logg, "qr generator", err)

	mail, err := mailer.New(cfg.Mail, cfg.App.BaseURL)
	requireResource(ctx, logg, "mailer", err)

	customerService, err := customers.NewService(customers.ServiceParams{DB: dbClient, Mailer: mail, Logger: logg})
	requireResource(ctx, logg, "customer service", err)

	ordersService, err := orders.NewService(dbClient, files, logg)
	requireResource(ctx, logg, "orders service", err)

	writer, err := orders.NewWriter(dbClient, logg, fulfillmentMetrics)
	requireResource(ctx, logg, "order writer", err)

	milestonesService, err := milestones.NewService(dbClient, logg)
	requireResource(ctx, logg, "milestones service", err)

	pipeline, err := artifacts.NewPipeline(artifacts.Params{
		BaseURL:  cfg.App.BaseURL,
		Codes:    codes,
		Renderer: workorder.NewRenderer(cfg.Artifacts.Brand),
		Store:    files,
		Recorder: ordersService,
		Failures: fulfillmentMetrics,
		Logger:   logg,
	})
	requireResource(ctx, logg, "artifact pipeline", err)

	registrationManager, err := registration.NewManager(registration.Params{
		DB:       dbClient,
		Mailer:   mail,
		Password: cfg.Password,
		Logger:   logg,
		Failures: fulfillmentMetrics,
	})
	requireResource(ctx, logg, "registration manager", err)

	fulfillmentService, err := fulfillment.NewService(fulfillment.Params{
		Writer:    writer,
		Resolver:  customers.NewResolver(),
		Artifacts: pipeline,
		Tokens:    registrationManager,
		Customers: customerService,
		Metrics:   fulfillmentMetrics,
		Logger:    logg,
	})
	requireResource(ctx, logg, "fulfillment service", err)

	addr := ":" + cfg.App.Port
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			fulfillmentService,
			ordersService,
			milestonesService,
			registrationManager,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logg.Info(serverCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	}()

	<-stop
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(serverCtx, "graceful shutdown failed", err)
	}
	logg.Info(serverCtx, "api server stopped")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}
