package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/Singularity-v/MAP/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to the map session.
// Field names follow the JSON tags of the domain types.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	viewportType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Viewport",
		Fields: graphql.Fields{
			"center":   &graphql.Field{Type: geoPointType},
			"span_lat": &graphql.Field{Type: graphql.Float, Resolve: field(func(v domain.Viewport) any { return v.SpanLat })},
			"span_lng": &graphql.Field{Type: graphql.Float, Resolve: field(func(v domain.Viewport) any { return v.SpanLng })},
			"anchored": &graphql.Field{Type: graphql.Boolean},
		},
	})

	pieSliceType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PieSlice",
		Fields: graphql.Fields{
			"label": &graphql.Field{Type: graphql.String},
			"share": &graphql.Field{Type: graphql.Float},
			"color": &graphql.Field{Type: graphql.String},
		},
	})

	pieChartType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PieChart",
		Fields: graphql.Fields{
			"ratio":        &graphql.Field{Type: graphql.Float},
			"radius":       &graphql.Field{Type: graphql.Int},
			"inner_radius": &graphql.Field{Type: graphql.Int, Resolve: field(func(p *domain.PieChart) any { return p.InnerRadius })},
			"slices":       &graphql.Field{Type: graphql.NewList(pieSliceType)},
		},
	})

	markerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Marker",
		Fields: graphql.Fields{
			"key":      &graphql.Field{Type: graphql.String},
			"kind":     &graphql.Field{Type: graphql.String},
			"position": &graphql.Field{Type: geoPointType},
			"title":    &graphql.Field{Type: graphql.String},
			"subtitle": &graphql.Field{Type: graphql.String},
			"icon":     &graphql.Field{Type: graphql.String, Resolve: field(func(m domain.RenderMarker) any { return m.Visual.Icon.Name })},
			"ratio":    &graphql.Field{Type: graphql.Float, Resolve: field(func(m domain.RenderMarker) any { return m.Visual.Ratio })},
			"chart":    &graphql.Field{Type: pieChartType, Resolve: field(func(m domain.RenderMarker) any { return m.Visual.Chart })},
		},
	})

	nearbyType := graphql.NewObject(graphql.ObjectConfig{
		Name: "NearbySite",
		Fields: graphql.Fields{
			"marker":          &graphql.Field{Type: markerType},
			"distance_meters": &graphql.Field{Type: graphql.Float},
		},
	})

	noticeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Notice",
		Fields: graphql.Fields{
			"id":      &graphql.Field{Type: graphql.String},
			"kind":    &graphql.Field{Type: graphql.String},
			"message": &graphql.Field{Type: graphql.String},
		},
	})

	locationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Location",
		Fields: graphql.Fields{
			"state":  &graphql.Field{Type: graphql.String},
			"notice": &graphql.Field{Type: noticeType},
		},
	})

	feedType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Feed",
		Fields: graphql.Fields{
			"updated_at": &graphql.Field{Type: graphql.DateTime, Resolve: field(func(f domain.FeedStatus) any { return f.UpdatedAt })},
			"sites":      &graphql.Field{Type: graphql.Int},
			"dropped":    &graphql.Field{Type: graphql.Int},
			"last_error": &graphql.Field{Type: graphql.String, Resolve: field(func(f domain.FeedStatus) any { return f.LastError })},
			"notice":     &graphql.Field{Type: noticeType, Resolve: field(func(f domain.FeedStatus) any {
				if f.Notice == nil {
					return nil
				}
				return f.Notice
			})},
		},
	})

	frameType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Frame",
		Fields: graphql.Fields{
			"seq":           &graphql.Field{Type: graphql.Int},
			"viewport":      &graphql.Field{Type: viewportType},
			"markers":       &graphql.Field{Type: graphql.NewList(markerType)},
			"location":      &graphql.Field{Type: locationType},
			"show_recenter": &graphql.Field{Type: graphql.Boolean, Resolve: field(func(f domain.Frame) any { return f.ShowRecenter })},
			"feed":          &graphql.Field{Type: feedType},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"frame": &graphql.Field{
				Type:        frameType,
				Description: "The latest render frame",
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return deps.Session.Frame(), nil
				},
			},
			"markers": &graphql.Field{
				Type:        graphql.NewList(markerType),
				Description: "Render markers in z-order",
				Args: graphql.FieldConfigArgument{
					"visible": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					if visible, _ := p.Args["visible"].(bool); visible {
						return deps.Sites.Visible(p.Context)
					}
					return deps.Session.Frame().Markers, nil
				},
			},
			"nearbySites": &graphql.Field{
				Type:        graphql.NewList(nearbyType),
				Description: "Static and live sites near a point, closest first",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lng":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 500.0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					center := domain.GeoPoint{Lat: p.Args["lat"].(float64), Lng: p.Args["lng"].(float64)}
					return deps.Sites.Nearby(p.Context, center, p.Args["radius"].(float64), p.Args["limit"].(int))
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"recenter": &graphql.Field{
				Type:        graphql.Boolean,
				Description: "Re-acquire the device location; false if one is already running",
				Resolve: func(p graphql.ResolveParams) (any, error) {
					err := deps.Session.Recenter(p.Context)
					if errors.Is(err, domain.ErrAcquisitionInFlight) {
						return false, nil
					}
					return err == nil, err
				},
			},
			"drift": &graphql.Field{
				Type:        graphql.Boolean,
				Description: "Report a region change; true if taken as a user pan",
				Args: graphql.FieldConfigArgument{
					"lat":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lng":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"span_lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"span_lng": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					var req DriftRequest
					req.Center.Lat = p.Args["lat"].(float64)
					req.Center.Lng = p.Args["lng"].(float64)
					req.SpanLat = p.Args["span_lat"].(float64)
					req.SpanLng = p.Args["span_lng"].(float64)
					if err := validate.Struct(req); err != nil {
						return nil, errors.New(validationMessage(err))
					}
					return deps.Session.Drift(p.Context, req.event())
				},
			},
			"refreshFeed": &graphql.Field{
				Type:        feedType,
				Description: "Poll the live feed now",
				Resolve: func(p graphql.ResolveParams) (any, error) {
					if err := deps.Session.RefreshFeed(p.Context); err != nil {
						return nil, err
					}
					snap := deps.Feed.Snapshot()
					return domain.FeedStatus{UpdatedAt: snap.FetchedAt, Sites: len(snap.Sites), Dropped: snap.Dropped}, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// field adapts a typed accessor to a resolver for fields whose GraphQL name
// does not match the Go field name.
func field[T any](get func(T) any) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		src, ok := p.Source.(T)
		if !ok {
			return nil, nil
		}
		return get(src), nil
	}
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string         `json:"query"`
		OperationName string         `json:"operationName"`
		Variables     map[string]any `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
