package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/Singularity-v/MAP/internal/adapters/nats"
	"github.com/Singularity-v/MAP/internal/core/domain"
	"github.com/Singularity-v/MAP/internal/pkg/metrics"
)

const (
	wsPingInterval   = 30 * time.Second
	wsRequestTimeout = 5 * time.Second
	wsFrameBuffer    = 4
)

// wsMessage is sent from client to drive the map.
//
//	{"action":"drift","drift":{"center":{"lat":25.04,"lng":121.57},"span_lat":0.02,"span_lng":0.01}}
//	{"action":"recenter"}
//	{"action":"refresh"}
//	{"action":"subscribe","channel":"live"}
type wsMessage struct {
	Action  string        `json:"action"`
	Drift   *DriftRequest `json:"drift,omitempty"`
	Channel string        `json:"channel,omitempty"`
}

// wsEnvelope is every message sent to the client.
type wsEnvelope struct {
	Type     string `json:"type"` // frame | live | ack | error
	Action   string `json:"action,omitempty"`
	Accepted *bool  `json:"accepted,omitempty"`
	Error    string `json:"error,omitempty"`
	Data     any    `json:"data,omitempty"`
}

// WebSocketHandler returns a handler that pushes every new frame to the
// client and accepts drift and recenter commands. A slow client only ever
// misses intermediate frames; it always ends up on the latest one.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		clientID := uuid.NewString()
		log := slog.Default().With("client_id", clientID, "remote", c.RemoteAddr().String())
		log.Info("ws client connected")
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		var mu sync.Mutex
		writeJSON := func(v any) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		frames := make(chan domain.Frame, wsFrameBuffer)
		cancel := deps.Session.Subscribe(func(f domain.Frame) {
			for {
				select {
				case frames <- f:
					return
				default:
				}
				// full: drop the oldest and retry
				select {
				case <-frames:
				default:
				}
			}
		})
		defer cancel()

		done := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			pushFrames(deps, c, &mu, writeJSON, frames, done)
		}()
		defer wg.Wait()
		defer close(done)

		var live *nats.Subscription
		defer func() {
			if live != nil {
				_ = live.Unsubscribe()
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(wsEnvelope{Type: "error", Error: "invalid JSON"})
				continue
			}

			switch m.Action {
			case "drift":
				if m.Drift == nil {
					_ = writeJSON(wsEnvelope{Type: "error", Action: m.Action, Error: "missing drift"})
					continue
				}
				if err := validate.Struct(m.Drift); err != nil {
					_ = writeJSON(wsEnvelope{Type: "error", Action: m.Action, Error: validationMessage(err)})
					continue
				}
				ctx, cancel := context.WithTimeout(context.Background(), wsRequestTimeout)
				accepted, err := deps.Session.Drift(ctx, m.Drift.event())
				cancel()
				if err != nil {
					_ = writeJSON(wsEnvelope{Type: "error", Action: m.Action, Error: err.Error()})
					continue
				}
				_ = writeJSON(wsEnvelope{Type: "ack", Action: m.Action, Accepted: &accepted})

			case "recenter":
				ctx, cancel := context.WithTimeout(context.Background(), wsRequestTimeout)
				err := deps.Session.Recenter(ctx)
				cancel()
				accepted := err == nil
				env := wsEnvelope{Type: "ack", Action: m.Action, Accepted: &accepted}
				if err != nil && !errors.Is(err, domain.ErrAcquisitionInFlight) {
					env = wsEnvelope{Type: "error", Action: m.Action, Error: err.Error()}
				}
				_ = writeJSON(env)

			case "refresh":
				ctx, cancel := context.WithTimeout(context.Background(), wsRequestTimeout)
				err := deps.Session.RefreshFeed(ctx)
				cancel()
				if err != nil {
					_ = writeJSON(wsEnvelope{Type: "error", Action: m.Action, Error: err.Error()})
					continue
				}
				accepted := true
				_ = writeJSON(wsEnvelope{Type: "ack", Action: m.Action, Accepted: &accepted})

			case "subscribe":
				if m.Channel != "live" {
					_ = writeJSON(wsEnvelope{Type: "error", Action: m.Action, Error: "unknown channel: " + m.Channel})
					continue
				}
				if deps.NATS == nil {
					_ = writeJSON(wsEnvelope{Type: "error", Action: m.Action, Error: "live relay not configured"})
					continue
				}
				if live != nil {
					continue
				}
				live, err = deps.NATS.Subscribe(natsadapter.SubjectLiveSnapshot, func(msg *nats.Msg) {
					_ = writeJSON(wsEnvelope{Type: "live", Data: json.RawMessage(msg.Data)})
				})
				if err != nil {
					_ = writeJSON(wsEnvelope{Type: "error", Action: m.Action, Error: "subscribe failed: " + err.Error()})
					continue
				}
				accepted := true
				_ = writeJSON(wsEnvelope{Type: "ack", Action: m.Action, Accepted: &accepted})

			case "unsubscribe":
				if live != nil {
					_ = live.Unsubscribe()
					live = nil
				}
				accepted := true
				_ = writeJSON(wsEnvelope{Type: "ack", Action: m.Action, Accepted: &accepted})

			default:
				_ = writeJSON(wsEnvelope{Type: "error", Error: "unknown action: " + m.Action})
			}
		}

		log.Info("ws client disconnected")
	}
}

// pushFrames writes the current frame, then every queued one, and keeps the
// connection alive with pings.
func pushFrames(deps *Dependencies, c *websocket.Conn, mu *sync.Mutex, writeJSON func(any) error, frames <-chan domain.Frame, done <-chan struct{}) {
	if err := writeJSON(wsEnvelope{Type: "frame", Data: deps.Session.Frame()}); err != nil {
		return
	}

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case f := <-frames:
			if err := writeJSON(wsEnvelope{Type: "frame", Data: f}); err != nil {
				return
			}
		case <-ticker.C:
			mu.Lock()
			err := c.WriteMessage(websocket.PingMessage, nil)
			mu.Unlock()
			if err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
