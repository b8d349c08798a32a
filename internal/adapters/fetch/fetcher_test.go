package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAssetServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/uploads/a.png", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, defaultUserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	})
	mux.HandleFunc("/big.bin", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchSameOriginReference(t *testing.T) {
	srv := newAssetServer(t)
	f, err := NewHTTPFetcher(Config{BaseURL: srv.URL + "/editor/"}, srv.Client())
	require.NoError(t, err)

	asset, err := f.Fetch(context.Background(), "/uploads/a.png")
	require.NoError(t, err)

	assert.Equal(t, "png-bytes", string(asset.Body))
	assert.Equal(t, "image/png", asset.ContentType)
	assert.Equal(t, srv.URL+"/uploads/a.png", asset.URL)
}

func TestFetchRemoteReference(t *testing.T) {
	srv := newAssetServer(t)
	f, err := NewHTTPFetcher(Config{}, srv.Client())
	require.NoError(t, err)

	asset, err := f.Fetch(context.Background(), srv.URL+"/uploads/a.png")
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(asset.Body))
}

func TestFetchErrors(t *testing.T) {
	srv := newAssetServer(t)

	tests := []struct {
		name    string
		cfg     Config
		ref     string
		wantErr error
		wantMsg string
	}{
		{name: "not found", cfg: Config{BaseURL: srv.URL}, ref: "/uploads/missing.png", wantMsg: "status 404"},
		{name: "too large", cfg: Config{BaseURL: srv.URL, MaxAssetBytes: 10}, ref: "/big.bin", wantErr: ErrTooLarge},
		{name: "no base url", cfg: Config{}, ref: "/uploads/a.png", wantErr: ErrNoBaseURL},
		{name: "blob", cfg: Config{BaseURL: srv.URL}, ref: "blob:https://editor/1", wantErr: ErrUnsupportedRef},
		{name: "other scheme", cfg: Config{BaseURL: srv.URL}, ref: "ftp://example.com/a.png", wantErr: ErrUnsupportedRef},
		{name: "data url", cfg: Config{BaseURL: srv.URL}, ref: "data:text/plain,hi", wantErr: ErrUnsupportedRef},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewHTTPFetcher(tt.cfg, srv.Client())
			require.NoError(t, err)

			_, err = f.Fetch(context.Background(), tt.ref)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestNewHTTPFetcherRejectsBadBaseURL(t *testing.T) {
	_, err := NewHTTPFetcher(Config{BaseURL: "ftp://example.com"}, nil)
	assert.Error(t, err)
}

func TestResolveProtocolRelative(t *testing.T) {
	f, err := NewHTTPFetcher(Config{BaseURL: "http://editor.local"}, nil)
	require.NoError(t, err)

	got, err := f.resolve("//cdn.example.com/a.png")
	require.NoError(t, err)
	assert.Equal(t, "http://cdn.example.com/a.png", got)

	f, err = NewHTTPFetcher(Config{}, nil)
	require.NoError(t, err)
	got, err = f.resolve("//cdn.example.com/a.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.png", got)
}
