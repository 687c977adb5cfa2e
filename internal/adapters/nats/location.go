package natsadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Singularity-v/MAP/internal/core/domain"
	"github.com/Singularity-v/MAP/internal/core/ports"
)

// Error codes carried in location replies.
const (
	codeUnsupported = "unsupported"
	codeUnavailable = "unavailable"
)

// locationReply is the body of a reply on <subject>.permission and
// <subject>.current.
type locationReply struct {
	Permission domain.Permission `json:"permission,omitempty"`
	Lat        *float64          `json:"lat,omitempty"`
	Lng        *float64          `json:"lng,omitempty"`
	Code       string            `json:"code,omitempty"`
	Error      string            `json:"error,omitempty"`
}

func permissionSubject(base string) string { return base + ".permission" }
func positionSubject(base string) string   { return base + ".current" }

// LocationClient implements ports.LocationProvider by asking a device agent
// over NATS request/reply.
type LocationClient struct {
	conn    *nats.Conn
	subject string
	timeout time.Duration
}

// NewLocationClient creates a client for the device agent listening on subject.
func NewLocationClient(conn *nats.Conn, subject string, timeout time.Duration) *LocationClient {
	return &LocationClient{conn: conn, subject: subject, timeout: timeout}
}

// RequestPermission asks the device agent for location permission.
func (c *LocationClient) RequestPermission(ctx context.Context) (domain.Permission, error) {
	r, err := c.request(ctx, permissionSubject(c.subject))
	if err != nil {
		return "", err
	}
	switch r.Permission {
	case domain.PermissionGranted, domain.PermissionDenied:
		return r.Permission, nil
	default:
		return "", fmt.Errorf("%w: unknown permission %q", domain.ErrLocationUnavailable, r.Permission)
	}
}

// CurrentPosition asks the device agent for a one-shot fix.
func (c *LocationClient) CurrentPosition(ctx context.Context) (domain.GeoPoint, error) {
	r, err := c.request(ctx, positionSubject(c.subject))
	if err != nil {
		return domain.GeoPoint{}, err
	}
	if r.Lat == nil || r.Lng == nil {
		return domain.GeoPoint{}, fmt.Errorf("%w: reply without coordinates", domain.ErrLocationUnavailable)
	}
	return domain.GeoPoint{Lat: *r.Lat, Lng: *r.Lng}, nil
}

func (c *LocationClient) request(ctx context.Context, subject string) (*locationReply, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg, err := c.conn.RequestWithContext(ctx, subject, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrLocationUnavailable, subject, err)
	}
	return decodeReply(msg.Data)
}

func decodeReply(data []byte) (*locationReply, error) {
	var r locationReply
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: decode reply: %w", domain.ErrLocationUnavailable, err)
	}
	switch r.Code {
	case "":
		return &r, nil
	case codeUnsupported:
		return nil, fmt.Errorf("%w: %s", domain.ErrLocationUnsupported, r.Error)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrLocationUnavailable, r.Error)
	}
}

// Responder answers location requests on behalf of a device, typically one
// backed by device.Static.
type Responder struct {
	provider ports.LocationProvider
	subs     []*nats.Subscription
}

// NewResponder subscribes provider to the request subjects under subject.
func NewResponder(conn *nats.Conn, subject string, provider ports.LocationProvider) (*Responder, error) {
	r := &Responder{provider: provider}

	handlers := map[string]func(context.Context) locationReply{
		permissionSubject(subject): r.permission,
		positionSubject(subject):   r.position,
	}
	for subj, handle := range handlers {
		sub, err := conn.Subscribe(subj, func(msg *nats.Msg) {
			data, _ := json.Marshal(handle(context.Background()))
			_ = msg.Respond(data)
		})
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("subscribe %s: %w", subj, err)
		}
		r.subs = append(r.subs, sub)
	}
	return r, nil
}

func (r *Responder) permission(ctx context.Context) locationReply {
	perm, err := r.provider.RequestPermission(ctx)
	if err != nil {
		return errorReply(err)
	}
	return locationReply{Permission: perm}
}

func (r *Responder) position(ctx context.Context) locationReply {
	pos, err := r.provider.CurrentPosition(ctx)
	if err != nil {
		return errorReply(err)
	}
	return locationReply{Lat: &pos.Lat, Lng: &pos.Lng}
}

func errorReply(err error) locationReply {
	code := codeUnavailable
	if errors.Is(err, domain.ErrLocationUnsupported) {
		code = codeUnsupported
	}
	return locationReply{Code: code, Error: err.Error()}
}

// Close unsubscribes.
func (r *Responder) Close() {
	for _, sub := range r.subs {
		_ = sub.Unsubscribe()
	}
}
