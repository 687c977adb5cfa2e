package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Singularity-v/MAP/internal/core/domain"
)

// Subjects the map core publishes on.
const (
	SubjectFrame        = "map.frame"
	SubjectLiveSnapshot = "map.live.snapshot"
)

// Publisher implements ports.FramePublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := Connect(url)
	if err != nil {
		return nil, err
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Ensure streams exist. Only the latest frame and snapshot matter to a
	// late subscriber.
	streams := []nats.StreamConfig{
		{
			Name:              "MAP_FRAMES",
			Subjects:          []string{SubjectFrame},
			Retention:         nats.LimitsPolicy,
			MaxMsgsPerSubject: 1,
			MaxAge:            1 * time.Hour,
			Storage:           nats.MemoryStorage,
		},
		{
			Name:              "MAP_LIVE",
			Subjects:          []string{"map.live.>"},
			Retention:         nats.LimitsPolicy,
			MaxMsgsPerSubject: 1,
			MaxAge:            24 * time.Hour,
			Storage:           nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist, try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishFrame publishes a frame. Subscribers order frames by Seq.
func (p *Publisher) PublishFrame(ctx context.Context, f *domain.Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectFrame, data, nats.Context(ctx))
	return err
}

// PublishLiveSnapshot publishes a freshly decoded live feed snapshot.
func (p *Publisher) PublishLiveSnapshot(ctx context.Context, snap *domain.LiveSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectLiveSnapshot, data, nats.Context(ctx))
	return err
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// Connect opens a plain NATS connection that keeps reconnecting.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}
