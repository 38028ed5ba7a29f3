package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/GriffinCanCode/fileserver/internal/api/middleware"
	"github.com/GriffinCanCode/fileserver/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/fileserver/internal/providers/auth"
	"github.com/GriffinCanCode/fileserver/internal/providers/filesystem"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "s3cret"

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Status    int                    `json:"status"`
	Message   string                 `json:"message"`
	Error     string                 `json:"error"`
	Files     []filesystem.FileEntry `json:"files"`
	Truncated bool                   `json:"truncated"`
	Content   map[string]any         `json:"content"`
}

func setupRouter(t *testing.T, secret string) (*gin.Engine, string) {
	t.Helper()
	root := t.TempDir()

	files, err := filesystem.NewProvider(root, filesystem.Options{SearchMaxResults: 50})
	require.NoError(t, err)

	gate := auth.NewGate(secret, "")
	handlers := NewHandlers(files, gate, Info{Environment: "test", FilesDirectory: root}, nil)

	router := gin.New()
	RegisterRoutes(router, handlers, middleware.RequireToken(gate, nil, nil))
	return router, files.Root()
}

func do(router http.Handler, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestRoot(t *testing.T) {
	router, _ := setupRouter(t, testToken)

	w := do(router, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, http.StatusOK, body.Status)
	assert.Equal(t, MsgWelcome, body.Message)
}

func TestHealth(t *testing.T) {
	router, _ := setupRouter(t, testToken)

	w := do(router, http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "ok", body.Content["status"])
	assert.Equal(t, "test", body.Content["environment"])
	assert.NotEmpty(t, body.Content["filesDirectory"])

	ts, ok := body.Content["timestamp"].(string)
	require.True(t, ok)
	_, err := time.Parse(time.RFC3339, ts)
	assert.NoError(t, err)
}

func TestValidateToken(t *testing.T) {
	tests := []struct {
		name        string
		secret      string
		header      string
		wantStatus  int
		wantMessage string
	}{
		{"valid", testToken, "Bearer " + testToken, http.StatusOK, MsgKeyValid},
		{"no header", testToken, "", http.StatusUnauthorized, auth.MsgNoHeader},
		{"empty token", testToken, "Bearer ", http.StatusUnauthorized, auth.MsgNoToken},
		{"wrong token", testToken, "Bearer nope", http.StatusUnauthorized, auth.MsgInvalidToken},
		{"padded token", testToken, "Bearer  " + testToken, http.StatusUnauthorized, auth.MsgInvalidToken},
		{"token with trailing tab", testToken, "Bearer " + testToken + "\t", http.StatusUnauthorized, auth.MsgInvalidToken},
		{"server without key", "", "Bearer anything", http.StatusInternalServerError, auth.MsgMisconfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := setupRouter(t, tt.secret)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/validate", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decode(t, w)
			assert.Equal(t, tt.wantStatus, body.Status)
			assert.Equal(t, tt.wantMessage, body.Message)
		})
	}
}

func TestValidateTokenIsIdempotent(t *testing.T) {
	router, _ := setupRouter(t, testToken)

	for i := 0; i < 3; i++ {
		w := do(router, http.MethodPost, "/api/v1/auth/validate", testToken)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestCreateDir(t *testing.T) {
	router, root := setupRouter(t, testToken)

	w := do(router, http.MethodPost, "/api/v1/createdir?path=photos", testToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, MsgFolderCreated, body.Content["message"])
	assert.Equal(t, "/photos", body.Content["location"])
	assert.DirExists(t, filepath.Join(root, "photos"))

	w = do(router, http.MethodPost, "/api/v1/createdir?path=photos", testToken)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, MsgFolderExists, decode(t, w).Message)
}

func TestCreateDirRejections(t *testing.T) {
	router, _ := setupRouter(t, testToken)

	tests := []struct {
		name       string
		target     string
		token      string
		wantStatus int
	}{
		{"no token", "/api/v1/createdir?path=a", "", http.StatusUnauthorized},
		{"wrong token", "/api/v1/createdir?path=a", "wrong", http.StatusUnauthorized},
		{"escape", "/api/v1/createdir?path=../outside", testToken, http.StatusForbidden},
		{"root", "/api/v1/createdir?path=", testToken, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodPost, tt.target, tt.token)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantStatus, decode(t, w).Status)
		})
	}
}

func TestCreateDirNestedThenConflict(t *testing.T) {
	router, root := setupRouter(t, testToken)

	w := do(router, http.MethodPost, "/api/v1/createdir?path=a/b", testToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "/a/b", decode(t, w).Content["location"])
	assert.DirExists(t, filepath.Join(root, "a", "b"))

	w = do(router, http.MethodPost, "/api/v1/createdir?path=a/b", testToken)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, MsgFolderExists, decode(t, w).Message)
}

func TestCreateDirWithoutServerKey(t *testing.T) {
	router, _ := setupRouter(t, "")

	w := do(router, http.MethodPost, "/api/v1/createdir?path=a", "anything")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, middleware.MsgMisconfig, decode(t, w).Message)
}

func TestDelete(t *testing.T) {
	router, root := setupRouter(t, testToken)
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("hi"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "empty"), 0o755))

	w := do(router, http.MethodPost, "/api/v1/delete?path=notes.txt", testToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "File notes.txt deleted successfully", decode(t, w).Message)
	assert.NoFileExists(t, filepath.Join(root, "notes.txt"))

	w = do(router, http.MethodPost, "/api/v1/delete?path=empty", testToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Folder empty deleted successfully", decode(t, w).Message)

	w = do(router, http.MethodPost, "/api/v1/delete?path=notes.txt", testToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, MsgNotExist, decode(t, w).Message)
}

func TestDeleteReportsCleanedPath(t *testing.T) {
	router, root := setupRouter(t, testToken)
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hi"), 0o644))

	w := do(router, http.MethodPost, "/api/v1/delete?path=docs/../a.txt", testToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "File a.txt deleted successfully", decode(t, w).Message)
}

func uploadRequest(t *testing.T, target, token string, files map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		part, err := writer.CreateFormFile(UploadField, name)
		require.NoError(t, err)
		_, err = part.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestUpload(t *testing.T) {
	router, root := setupRouter(t, testToken)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "/api/v1/upload?path=inbox/2024", testToken, map[string]string{
		"a.txt": "alpha",
		"b.txt": "be",
	}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, "2 file(s) uploaded successfully", body.Message)
	require.Len(t, body.Files, 2)
	assert.Equal(t, "/inbox/2024/a.txt", body.Files[0].Path)
	require.NotNil(t, body.Files[0].Size)
	assert.Equal(t, int64(5), *body.Files[0].Size)

	data, err := os.ReadFile(filepath.Join(root, "inbox", "2024", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "be", string(data))
}

func TestUploadRejections(t *testing.T) {
	router, root := setupRouter(t, testToken)
	require.NoError(t, os.Mkdir(filepath.Join(root, "taken"), 0o755))
	one := map[string]string{"x.txt": "x"}

	tests := []struct {
		name       string
		target     string
		token      string
		files      map[string]string
		wantStatus int
	}{
		{"no token", "/api/v1/upload?path=", "", one, http.StatusUnauthorized},
		{"no files", "/api/v1/upload?path=", testToken, map[string]string{}, http.StatusBadRequest},
		{"escape", "/api/v1/upload?path=../outside", testToken, one, http.StatusForbidden},
		{"directory in the way", "/api/v1/upload?path=", testToken, map[string]string{"taken": "x"}, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, uploadRequest(t, tt.target, tt.token, tt.files))
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
	assert.NoFileExists(t, filepath.Join(filepath.Dir(root), "outside", "x.txt"))
}

func TestDeleteRejections(t *testing.T) {
	router, root := setupRouter(t, testToken)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "full", "inner"), 0o755))

	tests := []struct {
		name       string
		target     string
		wantStatus int
	}{
		{"non-empty directory", "/api/v1/delete?path=full", http.StatusInternalServerError},
		{"escape", "/api/v1/delete?path=../../etc/passwd", http.StatusForbidden},
		{"root", "/api/v1/delete?path=", http.StatusForbidden},
		{"root dot", "/api/v1/delete?path=.", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodPost, tt.target, testToken)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
	assert.DirExists(t, filepath.Join(root, "full", "inner"))
}

func TestBrowseListing(t *testing.T) {
	router, root := setupRouter(t, testToken)

	w := do(router, http.MethodGet, "/api/v1/browse", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.NotNil(t, body.Files)
	assert.Empty(t, body.Files)

	require.NoError(t, os.Mkdir(filepath.Join(root, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "a.md"), []byte("# a"), 0o644))

	w = do(router, http.MethodGet, "/api/v1/browse/docs", "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	require.Len(t, body.Files, 1)

	entry := body.Files[0]
	assert.Equal(t, "a.md", entry.Name)
	assert.Equal(t, filesystem.KindFile, entry.Type)
	assert.Equal(t, "/docs/a.md", entry.Path)
	require.NotNil(t, entry.Size)
	assert.Equal(t, int64(3), *entry.Size)
	require.NotNil(t, entry.Extension)
	assert.Equal(t, ".md", *entry.Extension)
}

func TestBrowseFile(t *testing.T) {
	router, root := setupRouter(t, testToken)
	data := strings.Repeat("x", 4096)
	require.NoError(t, os.WriteFile(filepath.Join(root, "big.txt"), []byte(data), 0o644))

	w := do(router, http.MethodGet, "/api/v1/browse/big.txt", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))
	assert.Equal(t, strconv.Itoa(len(data)), w.Header().Get("Content-Length"))
	assert.Equal(t, data, w.Body.String())
}

func TestBrowseNotFound(t *testing.T) {
	router, _ := setupRouter(t, testToken)

	for _, target := range []string{
		"/api/v1/browse/missing.txt",
		"/api/v1/browse/../../etc/passwd",
		"/api/v1/browse/%2e%2e/%2e%2e/etc/passwd",
	} {
		t.Run(target, func(t *testing.T) {
			w := do(router, http.MethodGet, target, "")
			assert.Equal(t, http.StatusNotFound, w.Code)
			body := decode(t, w)
			assert.Equal(t, MsgNotFound, body.Error)
			assert.NotNil(t, body.Files)
			assert.Empty(t, body.Files)
		})
	}
}

func TestSearch(t *testing.T) {
	router, root := setupRouter(t, testToken)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b"), 0o755))
	for _, name := range []string{"one.go", "a/two.go", "a/b/three.go", "a/readme.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("package x"), 0o644))
	}

	w := do(router, http.MethodGet, "/api/v1/search?q=*.go", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Len(t, body.Files, 3)
	assert.False(t, body.Truncated)

	w = do(router, http.MethodGet, "/api/v1/search?path=a&q=*.go&limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Len(t, body.Files, 1)
	assert.True(t, body.Truncated)
}

func TestSearchRejections(t *testing.T) {
	router, _ := setupRouter(t, testToken)

	tests := []struct {
		name       string
		target     string
		wantStatus int
	}{
		{"missing pattern", "/api/v1/search", http.StatusBadRequest},
		{"bad pattern", "/api/v1/search?q=%5B", http.StatusBadRequest},
		{"bad limit", "/api/v1/search?q=*&limit=zero", http.StatusBadRequest},
		{"negative limit", "/api/v1/search?q=*&limit=-3", http.StatusBadRequest},
		{"missing dir", "/api/v1/search?path=nope&q=*", http.StatusNotFound},
		{"escape", "/api/v1/search?path=../..&q=*", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodGet, tt.target, "")
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.NotNil(t, decode(t, w).Files)
		})
	}
}

func TestSummarize(t *testing.T) {
	metrics := monitoring.NewMetrics()
	metrics.RecordHTTPRequest("GET", "/", "200", 100*time.Millisecond, 0, 10)
	metrics.RecordHTTPRequest("GET", "/", "404", 300*time.Millisecond, 0, 10)

	summary := Summarize(metrics, time.Now())
	assert.Equal(t, int64(2), summary.TotalRequests)
	assert.Equal(t, int64(1), summary.TotalErrors)
	assert.InDelta(t, 200.0, summary.AverageLatencyMs, 0.001)
	assert.InDelta(t, 0.5, summary.ErrorRate, 0.001)
	assert.GreaterOrEqual(t, summary.UptimeSeconds, 0.0)
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(monitoring.NewMetrics(), time.Now())
	assert.Zero(t, summary.TotalRequests)
	assert.Zero(t, summary.AverageLatencyMs)
	assert.Zero(t, summary.ErrorRate)
}
