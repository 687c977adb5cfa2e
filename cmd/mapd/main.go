package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"

	"github.com/Singularity-v/MAP/internal/adapters/bundle"
	"github.com/Singularity-v/MAP/internal/adapters/device"
	"github.com/Singularity-v/MAP/internal/adapters/feed"
	"github.com/Singularity-v/MAP/internal/adapters/http"
	natsadapter "github.com/Singularity-v/MAP/internal/adapters/nats"
	"github.com/Singularity-v/MAP/internal/adapters/valkey"
	"github.com/Singularity-v/MAP/internal/core/domain"
	"github.com/Singularity-v/MAP/internal/core/ports"
	"github.com/Singularity-v/MAP/internal/core/usecases"
	"github.com/Singularity-v/MAP/internal/pkg/config"
	"github.com/Singularity-v/MAP/internal/pkg/logging"
	"github.com/Singularity-v/MAP/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("mapd")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Static dataset
	dataset := bundle.Metro()
	if cfg.Geodata.Path != "" {
		if dataset, err = bundle.FromFile(cfg.Geodata.Path); err != nil {
			log.Fatalf("geodata: %v", err)
		}
	}
	store, err := usecases.LoadGeodata(dataset)
	if err != nil {
		log.Fatalf("geodata: %v", err)
	}
	slog.Info("static sites loaded", "count", store.Len())

	// NATS (optional): frame fan-out and the remote location provider
	var (
		publisher ports.FramePublisher
		natsConn  *nats.Conn
	)
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer pub.Close()
			publisher = pub
		}

		natsConn, err = natsadapter.Connect(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats conn unavailable", "error", err)
		} else {
			defer natsConn.Drain()
		}
	}

	// Cache (optional)
	var (
		cache     ports.CacheService
		readiness http.Pinger
	)
	if cfg.Valkey.Enabled {
		c, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.Prefix)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			defer c.Close()
			cache, readiness = c, c
		}
	}

	// Location provider
	var provider ports.LocationProvider
	switch cfg.Location.Provider {
	case "nats":
		if natsConn == nil {
			log.Fatalf("location provider nats: no NATS connection")
		}
		provider = natsadapter.NewLocationClient(natsConn, cfg.Location.NATSSubject, cfg.Location.Timeout)
	default:
		provider = staticDevice(cfg.Location)
	}

	// Use cases
	poller := usecases.NewLiveFeedPoller(feed.NewClient(cfg.Feed.URL, cfg.Feed.Timeout), publisher)
	locator := usecases.NewLocationMachine(provider)
	session := usecases.NewMapSession(usecases.SessionConfig{
		Viewport: domain.Viewport{
			Center:  domain.GeoPoint{Lat: cfg.Viewport.CenterLat, Lng: cfg.Viewport.CenterLng},
			SpanLat: cfg.Viewport.SpanLat,
			SpanLng: cfg.Viewport.SpanLng,
		},
		DriftThreshold: cfg.Viewport.DriftThreshold,
		User: domain.UserMarker{
			Position: domain.GeoPoint{Lat: cfg.Viewport.CenterLat, Lng: cfg.Viewport.CenterLng},
			Label:    cfg.Marker.Label,
			Address:  cfg.Marker.Address,
		},
		RefreshInterval: cfg.Feed.RefreshInterval,
	}, store, poller, locator, publisher)

	sessionDone := make(chan struct{})
	go func() {
		defer close(sessionDone)
		if err := session.Run(ctx); err != nil {
			slog.Error("map session stopped", "error", err)
		}
	}()

	deps := &http.Dependencies{
		Session: session,
		Sites:   usecases.NewSiteService(session, cache),
		Geodata: store,
		Feed:    poller,
		NATS:    natsConn,
		Cache:   readiness,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024,
		AppName:      "mapd",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, If-None-Match",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	cancel()
	<-sessionDone
	locator.Wait()

	slog.Info("server stopped")
}

func staticDevice(cfg config.LocationConfig) *device.Static {
	return &device.Static{
		Position:   domain.GeoPoint{Lat: cfg.StaticLat, Lng: cfg.StaticLng},
		Permission: domain.Permission(cfg.StaticPermission),
		NoDevice:   !cfg.StaticDevice,
	}
}
