// Command devicesim answers mapd location requests over NATS with a fixed
// position, standing in for a phone during development.
package main

import (
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Singularity-v/MAP/internal/adapters/device"
	natsadapter "github.com/Singularity-v/MAP/internal/adapters/nats"
	"github.com/Singularity-v/MAP/internal/core/domain"
	"github.com/Singularity-v/MAP/internal/pkg/config"
	"github.com/Singularity-v/MAP/internal/pkg/logging"
)

func main() {
	cfg, err := config.Load("mapd-devicesim")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	conn, err := natsadapter.Connect(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer conn.Drain()

	dev := &device.Static{
		Position:   domain.GeoPoint{Lat: cfg.Location.StaticLat, Lng: cfg.Location.StaticLng},
		Permission: domain.Permission(cfg.Location.StaticPermission),
		NoDevice:   !cfg.Location.StaticDevice,
	}

	responder, err := natsadapter.NewResponder(conn, cfg.Location.NATSSubject, dev)
	if err != nil {
		log.Fatalf("responder: %v", err)
	}
	defer responder.Close()

	slog.Info("device simulator answering",
		"subject", cfg.Location.NATSSubject,
		"permission", dev.Permission,
		"lat", dev.Position.Lat,
		"lng", dev.Position.Lng,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutting down device simulator", "signal", sig.String())
}
