package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	_ "github.com/lib/pq"

	"github.com/DanielHu2018/PoolParty/internal/config"
	"github.com/DanielHu2018/PoolParty/internal/dispatch"
	"github.com/DanielHu2018/PoolParty/internal/eta"
	"github.com/DanielHu2018/PoolParty/internal/geo"
	httpapi "github.com/DanielHu2018/PoolParty/internal/http"
	"github.com/DanielHu2018/PoolParty/internal/ingest"
	"github.com/DanielHu2018/PoolParty/internal/logging"
	"github.com/DanielHu2018/PoolParty/internal/payments"
	"github.com/DanielHu2018/PoolParty/internal/storage"
)

func main() {
	cfg, err := config.LoadServerConfig()
	logger := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if cfg.PGDSN != "" && cfg.RunMigrations {
		if err := runMigrations(cfg.PGDSN); err != nil {
			logger.Error("migration failed", "error", err)
		} else {
			logger.Info("migrations applied")
		}
	}

	geocoder := geo.NewGeocodeGateway(cfg.MapboxToken, cfg.ORSKey)
	applyGeocodeOverrides(geocoder, cfg)
	router := geo.NewRouteGateway(cfg.MapboxToken, cfg.ORSKey)
	applyRouteOverrides(router, cfg)

	etaCfg := eta.DefaultConfig()
	etaCfg.AvgSpeedMPH = cfg.AvgSpeedMPH
	etaCfg.FlagThresholdSeconds = cfg.ETAFlagThreshold
	etaCfg.AdjustTriggerSeconds = cfg.AdjustTrigger
	etaCfg.AdjustDurationRatio = cfg.AdjustDurationRatio
	etaCfg.AdjustMaxMiles = cfg.AdjustMaxMiles
	etaCfg.AdjustFactor = cfg.AdjustFactor
	etaCfg.Limits = geo.PlausibilityLimits{
		MaxDurationSeconds: cfg.MaxRouteDuration,
		MaxDistanceRatio:   cfg.MaxDistanceRatio,
		MaxDurationRatio:   cfg.MaxDurationRatio,
	}
	etaCfg.Cost = eta.CostConfig{MPG: cfg.CostMPG, PricePerGallon: cfg.CostPricePerGallon}
	etaSvc := eta.NewService(geocoder, router, etaCfg)

	var store storage.PoolStore
	if cfg.PGDSN != "" {
		ps, err := storage.NewPostgresStore(cfg.PGDSN)
		if err != nil {
			logger.Error("postgres unavailable, falling back to memory store", "error", err)
		} else {
			store = ps
		}
	}
	if store == nil {
		store = storage.NewMemoryStore()
	}

	var locator geo.Locator
	if cfg.RedisAddr != "" {
		locator = geo.NewRedisLocator(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisGeoKey)
	} else {
		locator = geo.NewIndex()
	}

	var producer *ingest.KafkaProducer
	if len(cfg.KafkaBrokers) > 0 {
		producer = ingest.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
	}

	wsreg := dispatch.NewWSRegistry()
	var webhook *dispatch.WebhookNotifier
	if cfg.NotifyWebhook != "" {
		webhook = dispatch.NewWebhookNotifier(cfg.NotifyWebhook)
	}
	notifier := dispatch.NewPushNotifier(wsreg, webhook)

	pay := payments.NewStripeClient()

	srv := httpapi.NewServer(logger, store, etaSvc, locator, producer, wsreg, notifier, pay)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("poolparty listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}

func runMigrations(dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	b, err := os.ReadFile(filepath.Join("migrations", "001_create_pools.sql"))
	if err != nil {
		return err
	}
	_, err = db.Exec(string(b))
	return err
}

func applyGeocodeOverrides(g *geo.GeocodeGateway, cfg config.ServerConfig) {
	if cfg.MapboxGeocodeEndpoint != "" {
		g.MapboxEndpoint = cfg.MapboxGeocodeEndpoint
	}
	if cfg.ORSGeocodeEndpoint != "" {
		g.ORSEndpoint = cfg.ORSGeocodeEndpoint
	}
	if cfg.NominatimEndpoint != "" {
		g.NominatimEndpoint = cfg.NominatimEndpoint
	}
}

func applyRouteOverrides(r *geo.RouteGateway, cfg config.ServerConfig) {
	if cfg.MapboxDirectionsEndpoint != "" {
		r.MapboxEndpoint = cfg.MapboxDirectionsEndpoint
	}
	if cfg.ORSDirectionsEndpoint != "" {
		r.ORSEndpoint = cfg.ORSDirectionsEndpoint
	}
	if cfg.OSRMEndpoint != "" {
		r.OSRMEndpoint = cfg.OSRMEndpoint
	}
}
