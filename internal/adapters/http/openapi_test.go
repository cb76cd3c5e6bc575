package http_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
)

// findOpenAPISpec locates api/openapi.yaml by walking up from the test directory.
func findOpenAPISpec(t *testing.T) string {
	dir, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		candidate := filepath.Join(dir, "api", "openapi.yaml")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		dir = filepath.Dir(dir)
	}
	t.Fatalf("could not find api/openapi.yaml")
	return ""
}

func loadSpec(t *testing.T) *openapi3.T {
	t.Helper()
	data, err := os.ReadFile(findOpenAPISpec(t))
	if err != nil {
		t.Fatalf("failed to read openapi.yaml: %v", err)
	}
	loader := &openapi3.Loader{IsExternalRefsAllowed: false}
	spec, err := loader.LoadFromData(data)
	if err != nil {
		t.Fatalf("failed to parse OpenAPI spec: %v", err)
	}
	return spec
}

// TestOpenAPISpec validates the document and checks it covers every route.
func TestOpenAPISpec(t *testing.T) {
	spec := loadSpec(t)

	if err := spec.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI spec validation failed: %v", err)
	}

	expectedPaths := []string{
		"/v1/health",
		"/v1/ready",
		"/v1/geocode",
		"/v1/sessions",
		"/v1/sessions/{id}",
		"/v1/sessions/{id}/map/events",
		"/v1/sessions/{id}/viewport/center",
		"/v1/sessions/{id}/viewport/bounds",
		"/v1/sessions/{id}/search/input",
		"/v1/sessions/{id}/search",
		"/v1/sessions/{id}/search/select",
		"/v1/sessions/{id}/transform",
		"/v1/sessions/{id}/route",
		"/v1/sessions/{id}/route/segments",
		"/v1/sessions/{id}/route/download/{handle}",
		"/graphql",
	}
	for _, path := range expectedPaths {
		if item := spec.Paths.Find(path); item == nil {
			t.Errorf("expected path %s not found in spec", path)
		}
	}

	expectedSchemas := []string{
		"APIError",
		"GeoPoint",
		"Bounds",
		"Viewport",
		"MapEvent",
		"SearchCandidate",
		"SearchResult",
		"DrawingElement",
		"SubmitRequest",
		"RouteArtifact",
		"PipelineStatus",
		"Session",
		"SessionEvent",
	}
	for _, schema := range expectedSchemas {
		if spec.Components.Schemas[schema] == nil {
			t.Errorf("expected schema %s not found", schema)
		}
	}

	t.Logf("OpenAPI spec valid: %d paths, %d schemas", len(spec.Paths.Map()), len(spec.Components.Schemas))
}

// TestOpenAPIInfo verifies spec metadata.
func TestOpenAPIInfo(t *testing.T) {
	spec := loadSpec(t)

	if spec.Info.Title != "SketchRoute API" {
		t.Errorf("expected title 'SketchRoute API', got %q", spec.Info.Title)
	}
	if spec.Info.Version != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %q", spec.Info.Version)
	}
}

// TestOpenAPIDownloadDocumentsGone checks that revoked handles are documented.
func TestOpenAPIDownloadDocumentsGone(t *testing.T) {
	spec := loadSpec(t)

	item := spec.Paths.Find("/v1/sessions/{id}/route/download/{handle}")
	if item == nil || item.Get == nil {
		t.Fatal("download operation missing")
	}
	if item.Get.Responses.Status(410) == nil {
		t.Error("expected a 410 response for revoked handles")
	}
	if item.Get.Responses.Status(404) == nil {
		t.Error("expected a 404 response for unknown handles")
	}

	route := spec.Paths.Find("/v1/sessions/{id}/route")
	if route == nil || route.Post == nil {
		t.Fatal("submit route operation missing")
	}
	if route.Post.Responses.Status(200) == nil {
		t.Error("expected a 200 response for empty drawings")
	}
	if route.Post.Responses.Status(422) != nil {
		t.Error("submit route should not document a 422 response")
	}
}
