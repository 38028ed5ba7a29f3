package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GriffinCanCode/fileserver/internal/infrastructure/config"
	"github.com/GriffinCanCode/fileserver/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/fileserver/internal/infrastructure/server"
	"github.com/GriffinCanCode/fileserver/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/fileserver/internal/shared/id"
	"github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "s3cret"

func startServer(t *testing.T) (string, string) {
	t.Helper()

	cfg := config.Default()
	cfg.Files.BaseDir = t.TempDir()
	cfg.Files.APIKey = testToken
	cfg.Files.Environment = "test"
	cfg.Logging.Level = "error"
	cfg.RateLimit.Enabled = false

	srv, err := server.NewServer(cfg)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Close()
	})
	return ts.URL, srv.Root()
}

func TestHealth(t *testing.T) {
	url, _ := startServer(t)
	c := New(url, Options{})

	health, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "test", health.Environment)
	assert.NotEmpty(t, health.Timestamp)
}

func TestValidateToken(t *testing.T) {
	url, _ := startServer(t)
	ctx := context.Background()

	msg, err := New(url, Options{Token: testToken}).ValidateToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "API Key validated successfully", msg)

	_, err = New(url, Options{Token: "wrong"}).ValidateToken(ctx)
	require.Error(t, err)
	assert.Equal(t, errors.CodeUnauthorized, errors.GetCode(err))

	_, err = New(url, Options{}).ValidateToken(ctx)
	assert.Equal(t, errors.CodeUnauthorized, errors.GetCode(err))
}

func TestDirectoryLifecycle(t *testing.T) {
	url, root := startServer(t)
	c := New(url, Options{Token: testToken})
	ctx := context.Background()

	location, err := c.CreateDir(ctx, "albums")
	require.NoError(t, err)
	assert.Equal(t, "/albums", location)

	_, err = c.CreateDir(ctx, "albums")
	assert.Equal(t, errors.CodeAlreadyExists, errors.GetCode(err))

	require.NoError(t, os.WriteFile(filepath.Join(root, "albums", "cover art.txt"), []byte("hello"), 0o644))

	entries, err := c.List(ctx, "albums")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "cover art.txt", entries[0].Name)
	assert.Equal(t, "/albums/cover art.txt", entries[0].Path)

	content, err := c.Get(ctx, "albums/cover art.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), content.Data)
	assert.Equal(t, int64(5), content.Length)
	assert.Equal(t, "cover art.txt", content.Name)
	assert.Contains(t, content.MimeType, "text/plain")

	_, err = c.Delete(ctx, "albums")
	assert.Equal(t, errors.CodeInternal, errors.GetCode(err))

	msg, err := c.Delete(ctx, "albums/cover art.txt")
	require.NoError(t, err)
	assert.Equal(t, "File albums/cover art.txt deleted successfully", msg)

	msg, err = c.Delete(ctx, "albums")
	require.NoError(t, err)
	assert.Equal(t, "Folder albums deleted successfully", msg)

	_, err = c.List(ctx, "albums")
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestListRejectsFiles(t *testing.T) {
	url, root := startServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "data.bin"), []byte{0, 1, 2}, 0o644))

	_, err := New(url, Options{}).List(context.Background(), "data.bin")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestListEmptyRoot(t *testing.T) {
	url, _ := startServer(t)

	entries, err := New(url, Options{}).List(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestMutationsOutsideRoot(t *testing.T) {
	url, _ := startServer(t)
	c := New(url, Options{Token: testToken})
	ctx := context.Background()

	_, err := c.CreateDir(ctx, "../escape")
	assert.Equal(t, errors.CodeForbidden, errors.GetCode(err))

	_, err = c.Delete(ctx, "")
	assert.Equal(t, errors.CodeForbidden, errors.GetCode(err))

	_, err = c.Upload(ctx, "../escape", "x.txt", strings.NewReader("x"))
	assert.Equal(t, errors.CodeForbidden, errors.GetCode(err))
}

func TestUpload(t *testing.T) {
	url, root := startServer(t)
	ctx := context.Background()

	uploaded, err := New(url, Options{Token: testToken}).Upload(ctx, "drop/box", "note.md", strings.NewReader("# hi"))
	require.NoError(t, err)
	assert.Equal(t, "note.md", uploaded.Name)
	assert.Equal(t, "/drop/box/note.md", uploaded.Path)
	assert.Equal(t, int64(4), uploaded.Size)

	data, err := os.ReadFile(filepath.Join(root, "drop", "box", "note.md"))
	require.NoError(t, err)
	assert.Equal(t, "# hi", string(data))

	_, err = New(url, Options{}).Upload(ctx, "", "anon.txt", strings.NewReader("x"))
	assert.Equal(t, errors.CodeUnauthorized, errors.GetCode(err))
}

func TestSearch(t *testing.T) {
	url, root := startServer(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "pkg"), 0o755))
	for _, name := range []string{"src/main.go", "src/pkg/util.go", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644))
	}
	c := New(url, Options{})
	ctx := context.Background()

	result, err := c.Search(ctx, "", "*.go", 0)
	require.NoError(t, err)
	assert.Len(t, result.Entries, 2)
	assert.False(t, result.Truncated)

	result, err = c.Search(ctx, "src", "*.go", 1)
	require.NoError(t, err)
	assert.Len(t, result.Entries, 1)
	assert.True(t, result.Truncated)

	_, err = c.Search(ctx, "", "", 0)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestTraceHeadersForwarded(t *testing.T) {
	var seen atomic.Value
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.Header.Get(tracing.HeaderTraceID))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":200,"content":{"status":"ok"}}`))
	}))
	defer ts.Close()

	traceID := id.NewTraceID()
	ctx := tracing.WithTrace(context.Background(), traceID, id.NewSpanID())

	_, err := New(ts.URL, Options{}).Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, traceID.String(), seen.Load())
}

func TestRetriesReadsOnUnavailable(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":503,"error":"busy","files":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":200,"files":[]}`))
	}))
	defer ts.Close()

	entries, err := New(ts.URL, Options{RetryCount: 3}).List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, int32(3), calls.Load())
}

func TestMutationsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":503,"message":"busy"}`))
	}))
	defer ts.Close()

	_, err := New(ts.URL, Options{RetryCount: 3}).CreateDir(context.Background(), "a")
	assert.Equal(t, errors.CodeUnavailable, errors.GetCode(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestBreakerOpensOnServerFailures(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	breaker := resilience.New("test", resilience.Settings{
		Timeout:      time.Minute,
		ReadyToTrip:  func(c resilience.Counts) bool { return c.ConsecutiveFailures >= 2 },
		IsSuccessful: serverHealthy,
	})
	c := New(ts.URL, Options{Breaker: breaker})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := c.Health(ctx)
		assert.Equal(t, errors.CodeUnavailable, errors.GetCode(err))
	}
	assert.Equal(t, resilience.StateOpen, c.BreakerState())

	_, err := c.Health(ctx)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestNotFoundDoesNotTripBreaker(t *testing.T) {
	url, _ := startServer(t)
	breaker := resilience.New("test", resilience.Settings{
		ReadyToTrip:  func(c resilience.Counts) bool { return c.ConsecutiveFailures >= 1 },
		IsSuccessful: serverHealthy,
	})
	c := New(url, Options{Breaker: breaker})

	for i := 0; i < 3; i++ {
		_, err := c.Get(context.Background(), "missing.txt")
		assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	}
	assert.Equal(t, resilience.StateClosed, c.BreakerState())
}

func TestBrowseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "/api/v1/browse"},
		{"/", "/api/v1/browse"},
		{"a/b.txt", "/api/v1/browse/a/b.txt"},
		{"/a b/c#d", "/api/v1/browse/a%20b/c%23d"},
		{`dir\file`, "/api/v1/browse/dir/file"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, browseURL(tt.in), tt.in)
	}
}

func TestContentTypeOfListing(t *testing.T) {
	url, _ := startServer(t)
	content, err := New(url, Options{}).Get(context.Background(), "")
	require.NoError(t, err)
	assert.Contains(t, content.MimeType, "application/json")
}
