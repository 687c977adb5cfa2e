package http

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/Singularity-v/MAP/internal/core/domain"
	"github.com/Singularity-v/MAP/internal/core/usecases"
)

var validate = validator.New()

// FrameHandler returns the latest frame. The frame sequence number doubles as
// its ETag.
func FrameHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		frame := deps.Session.Frame()

		etag := `"` + strconv.FormatUint(frame.Seq, 10) + `"`
		c.Set(fiber.HeaderETag, etag)
		if c.Get(fiber.HeaderIfNoneMatch) == etag {
			return c.SendStatus(fiber.StatusNotModified)
		}
		return c.JSON(frame)
	}
}

// ViewportResponse is the body of GET /v1/viewport.
type ViewportResponse struct {
	Viewport     domain.Viewport `json:"viewport"`
	Bounds       domain.Bounds   `json:"bounds"`
	ShowRecenter bool            `json:"show_recenter"`
}

// ViewportHandler returns the authoritative map region.
func ViewportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		frame := deps.Session.Frame()
		return c.JSON(ViewportResponse{
			Viewport:     frame.Viewport,
			Bounds:       frame.Viewport.Bounds(),
			ShowRecenter: frame.ShowRecenter,
		})
	}
}

// DriftRequest is a region reported by the render surface after a pan or zoom.
type DriftRequest struct {
	Center struct {
		Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
		Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
	} `json:"center"`
	SpanLat float64 `json:"span_lat" validate:"gt=0,lte=180"`
	SpanLng float64 `json:"span_lng" validate:"gt=0,lte=360"`
}

func (r DriftRequest) event() domain.DriftEvent {
	return domain.DriftEvent{
		Center:  domain.GeoPoint{Lat: r.Center.Lat, Lng: r.Center.Lng},
		SpanLat: r.SpanLat,
		SpanLng: r.SpanLng,
	}
}

// DriftResponse reports whether the region was taken as a user pan.
type DriftResponse struct {
	Accepted     bool            `json:"accepted"`
	Viewport     domain.Viewport `json:"viewport"`
	ShowRecenter bool            `json:"show_recenter"`
}

// DriftHandler feeds a region change into the viewport controller.
func DriftHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req DriftRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return errBadRequest(c, validationMessage(err))
		}

		accepted, err := deps.Session.Drift(c.UserContext(), req.event())
		if err != nil {
			return sessionError(c, err)
		}

		frame := deps.Session.Frame()
		return c.JSON(DriftResponse{
			Accepted:     accepted,
			Viewport:     frame.Viewport,
			ShowRecenter: frame.ShowRecenter,
		})
	}
}

// MarkersHandler returns the render markers in z-order. With ?visible=true
// only markers inside the current viewport are returned.
func MarkersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !c.QueryBool("visible", false) {
			return c.JSON(deps.Session.Frame().Markers)
		}
		markers, err := deps.Sites.Visible(c.UserContext())
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(markers)
	}
}

// NearbySitesHandler finds static and live sites around a point.
func NearbySitesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
		lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
		if errLat != nil || errLng != nil {
			return errBadRequest(c, "lat and lng are required")
		}

		radius := c.QueryFloat("radius", 500)
		if radius <= 0 || radius > 5000 {
			return errBadRequest(c, "radius must be between 0 and 5000 meters")
		}
		limit := c.QueryInt("limit", 20)

		center := domain.GeoPoint{Lat: lat, Lng: lng}
		if !center.Valid() {
			return errBadRequest(c, "lat/lng out of range")
		}

		sites, err := deps.Sites.Nearby(c.UserContext(), center, radius, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(sites)
	}
}

// StaticSitesHandler lists the bundled points of interest.
func StaticSitesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sites := deps.Geodata.Sites()
		pg := parsePagination(c, len(sites))
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page(sites, pg), Pagination: pg})
	}
}

// LiveSitesHandler lists the sites of the last good live snapshot.
func LiveSitesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sites := deps.Feed.Snapshot().Sites
		pg := parsePagination(c, len(sites))
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page(sites, pg), Pagination: pg})
	}
}

// LocationResponse is the body of GET /v1/location.
type LocationResponse struct {
	domain.LocationStatus
	User domain.RenderMarker `json:"user"`
}

// LocationHandler returns the acquisition state and the user marker.
func LocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		frame := deps.Session.Frame()
		return c.JSON(LocationResponse{
			LocationStatus: frame.Location,
			User:           frame.Markers[0],
		})
	}
}

// RecenterHandler is the manual recenter control. Acquisition continues in
// the background; clients follow it through frames.
func RecenterHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := deps.Session.Recenter(c.UserContext())
		if errors.Is(err, domain.ErrAcquisitionInFlight) {
			return errConflict(c, err.Error())
		}
		if err != nil {
			return sessionError(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "locating"})
	}
}

// FeedStatusHandler describes the live snapshot on the map.
func FeedStatusHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Session.Frame().Feed)
	}
}

// FeedRefreshHandler polls the live feed now.
func FeedRefreshHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := deps.Session.RefreshFeed(c.UserContext())

		var fe *domain.FetchError
		if errors.As(err, &fe) {
			LoggerFromCtx(c.UserContext()).Warn("manual feed refresh failed", "url", fe.URL, "status", fe.Status, "error", fe.Err)
			return errFeedUnavailable(c, err.Error())
		}
		if err != nil {
			return errInternal(c, err.Error())
		}

		snap := deps.Feed.Snapshot()
		return c.JSON(domain.FeedStatus{
			UpdatedAt: snap.FetchedAt,
			Sites:     len(snap.Sites),
			Dropped:   snap.Dropped,
		})
	}
}

func sessionError(c *fiber.Ctx, err error) error {
	if errors.Is(err, usecases.ErrSessionClosed) {
		return errUnavailable(c, err.Error())
	}
	return errInternal(c, err.Error())
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	return fe.Namespace() + " fails " + fe.Tag() + " " + fe.Param()
}
