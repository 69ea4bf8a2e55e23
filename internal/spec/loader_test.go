package spec

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSpecFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoad_BlocksFileURL(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "file:///etc/hosts")
	if err == nil {
		t.Fatalf("expected error for file:// URL")
	}
	var se *SpecError
	if !errors.As(err, &se) {
		t.Fatalf("expected SpecError, got %T", err)
	}
	if se.Code != InputError {
		t.Fatalf("expected InputError, got %v", se.Code)
	}
	if !strings.Contains(se.Message, "blocked") {
		t.Fatalf("unexpected message: %s", se.Message)
	}
}

func TestLoad_UnsupportedScheme(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "ftp://example.com/spec.yaml")
	var se *SpecError
	if !errors.As(err, &se) || se.Code != InputError {
		t.Fatalf("expected InputError, got %v (%T)", err, err)
	}
}

func TestLoad_EmptyInput(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "  ")
	var se *SpecError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, InputError, se.Code)
}

func TestLoad_NetworkError(t *testing.T) {
	t.Parallel()
	// Unused port to provoke a quick network failure.
	url := "http://127.0.0.1:1/spec.yaml"
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := Load(ctx, url, WithHTTPTimeout(200*time.Millisecond), WithMaxRetries(1), WithBackoffBase(10*time.Millisecond))
	var se *SpecError
	if !errors.As(err, &se) || se.Code != NetworkError {
		t.Fatalf("expected NetworkError, got %v (%T)", err, err)
	}
}

func TestLoad_V3_InvalidSpec_Strict(t *testing.T) {
	t.Parallel()
	path := writeSpecFile(t, "bad.yaml", `openapi: 3.0.0
info:
  title: Bad
  version: "1.0.0"
paths:
  "/pet":
    get:
      responses: {}
`)

	_, err := Load(context.Background(), path, WithStrictValidation(true))
	if err == nil {
		t.Fatalf("expected validation error for incomplete responses")
	}
	var se *SpecError
	if !errors.As(err, &se) {
		t.Fatalf("expected SpecError, got %T", err)
	}
	if se.Code != ValidationError && se.Code != ParseError {
		t.Fatalf("expected ValidationError/ParseError, got %v", se.Code)
	}
	if se.Location == "" {
		t.Fatalf("expected location to be set")
	}
}

func TestLoad_V3_InvalidSpec_Permissive(t *testing.T) {
	t.Parallel()
	path := writeSpecFile(t, "bad.yaml", `openapi: 3.0.0
info:
  title: Bad
  version: "1.0.0"
paths:
  "/pet":
    get:
      operationId: PetController_list
      responses: {}
`)

	doc, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, doc.Paths["/pet"])
	assert.Equal(t, "PetController_list", doc.Paths["/pet"].Get.OperationID)
}

func TestLoad_V2_Conversion_Success(t *testing.T) {
	t.Parallel()
	path := writeSpecFile(t, "swagger.yaml", `swagger: "2.0"
info:
  title: Sample
  version: "1.0.0"
consumes:
  - application/json
paths:
  "/user":
    post:
      operationId: UserController_create
      parameters:
        - in: body
          name: body
          required: true
          schema:
            $ref: '#/definitions/CreateUserDto'
      responses:
        "201":
          description: created
definitions:
  CreateUserDto:
    type: object
    required: [username]
    properties:
      username:
        type: string
`)

	doc, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(doc.OpenAPI, "3."), "expected OpenAPI v3, got %q", doc.OpenAPI)

	routes, err := Assemble(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, []string{"CreateUserDto"}, routes[0].Trait)
	assert.Equal(t, FieldDescriptor{Type: "string", Required: true}, routes[0].Interface["username"])
}

func TestLoad_V2_Conversion_Failure(t *testing.T) {
	t.Parallel()
	path := writeSpecFile(t, "swagger-bad.yaml", `swagger: "2.0"
paths: {}
`)

	_, err := Load(context.Background(), path, WithStrictValidation(true))
	if err == nil {
		t.Fatalf("expected conversion error")
	}
	var se *SpecError
	if !errors.As(err, &se) {
		t.Fatalf("expected SpecError, got %T", err)
	}
	if se.Code != ConversionError && se.Code != ValidationError && se.Code != ParseError {
		t.Fatalf("expected ConversionError/ValidationError/ParseError, got %v", se.Code)
	}
}

func TestLoad_UnknownVersion(t *testing.T) {
	t.Parallel()
	path := writeSpecFile(t, "plain.yaml", `title: not a spec`)

	_, err := Load(context.Background(), path)
	var se *SpecError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, ParseError, se.Code)
}

func TestLoad_RemoteRetriesTransientFailure(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"openapi":"3.0.0","info":{"title":"Remote","version":"1"},"paths":{}}`))
	}))
	defer srv.Close()

	doc, err := Load(context.Background(), srv.URL+"/api-json",
		WithMaxRetries(2), WithBackoffBase(5*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, "Remote", doc.Info.Title)
	assert.Equal(t, int32(2), hits.Load())
}

func TestLoad_RemoteClientError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := Load(context.Background(), srv.URL+"/missing", WithHTTPClient(srv.Client()))
	var se *SpecError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, NetworkError, se.Code)
	assert.Contains(t, se.Message, "http 404")
}

type countingTransport struct {
	calls atomic.Int32
	next  http.RoundTripper
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.calls.Add(1)
	return c.next.RoundTrip(r)
}

func TestLoad_RemoteCustomClient(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	rt := &countingTransport{next: srv.Client().Transport}
	_, err := Load(context.Background(), srv.URL+"/api-json", WithHTTPClient(&http.Client{Transport: rt}))
	var se *SpecError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, NetworkError, se.Code)
	assert.Contains(t, se.Message, "http 503")
	// The provided client does not retry.
	assert.Equal(t, int32(1), rt.calls.Load())
	assert.Equal(t, int32(1), hits.Load())
}
