package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/Singularity-v/MAP/internal/core/usecases"
)

// Pinger is a backing service that can report its health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Session *usecases.MapSession
	Sites   *usecases.SiteService
	Geodata *usecases.GeodataStore
	Feed    *usecases.LiveFeedPoller
	NATS    *nats.Conn // optional, relays live snapshots to WebSocket clients
	Cache   Pinger     // optional
}
