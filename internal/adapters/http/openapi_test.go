package http_test

import (
	"context"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/Singularity-v/MAP/api"
)

func loadSpec(t *testing.T) *openapi3.T {
	t.Helper()
	loader := &openapi3.Loader{IsExternalRefsAllowed: false}
	spec, err := loader.LoadFromData(api.OpenAPI)
	if err != nil {
		t.Fatalf("failed to parse OpenAPI document: %v", err)
	}
	return spec
}

// TestOpenAPISpec validates the embedded OpenAPI document.
func TestOpenAPISpec(t *testing.T) {
	spec := loadSpec(t)

	if err := spec.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI validation failed: %v", err)
	}

	for _, schema := range []string{"Frame", "Viewport", "RenderMarker", "LiveSite", "StaticSite", "APIError", "Pagination"} {
		if spec.Components.Schemas[schema] == nil {
			t.Errorf("expected schema %s not found", schema)
		}
	}

	if spec.Info.Version != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %q", spec.Info.Version)
	}
}

// TestOpenAPICoversRoutes checks every registered REST route is documented.
func TestOpenAPICoversRoutes(t *testing.T) {
	spec := loadSpec(t)
	app := setupApp(t, newRig(t))

	for _, r := range app.GetRoutes(true) {
		if !strings.HasPrefix(r.Path, "/v1/") && r.Path != "/graphql" {
			continue
		}
		if r.Method == "HEAD" || r.Method == "OPTIONS" {
			continue
		}
		item := spec.Paths.Find(r.Path)
		if item == nil {
			t.Errorf("route %s %s not documented", r.Method, r.Path)
			continue
		}
		if item.GetOperation(r.Method) == nil {
			t.Errorf("route %s %s has no documented operation", r.Method, r.Path)
		}
	}
}
