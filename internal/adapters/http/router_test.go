package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestRouter(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("lander_exports_total 1\n"))
	})
	handler := NewExportHandler(&fakeExporter{out: okOutput()}, 0, nil)
	server := httptest.NewServer(NewRouter(handler, metrics, zaptest.NewLogger(t)))
	defer server.Close()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
		needle string
	}{
		{name: "health", method: http.MethodGet, path: "/healthz", want: http.StatusOK, needle: `"status":"ok"`},
		{name: "metrics", method: http.MethodGet, path: "/metrics", want: http.StatusOK, needle: "lander_exports_total"},
		{name: "export", method: http.MethodPost, path: "/export", body: validBody, want: http.StatusOK, needle: "PK-archive"},
		{name: "export needs post", method: http.MethodGet, path: "/export", want: http.StatusMethodNotAllowed},
		{name: "unknown", method: http.MethodGet, path: "/nope", want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, server.URL+tt.path, strings.NewReader(tt.body))
			assert.NoError(t, err)
			resp, err := server.Client().Do(req)
			if !assert.NoError(t, err) {
				return
			}
			defer resp.Body.Close()

			assert.Equal(t, tt.want, resp.StatusCode)
			if tt.needle != "" {
				body, err := io.ReadAll(resp.Body)
				assert.NoError(t, err)
				assert.Contains(t, string(body), tt.needle)
			}
		})
	}
}

func TestRouterWithoutMetrics(t *testing.T) {
	rec := httptest.NewRecorder()
	NewRouter(http.NotFoundHandler(), nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
