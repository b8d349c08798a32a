package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/3-lines-studio/lander/internal/core"
)

const (
	defaultUserAgent     = "Lander-Exporter/1.0"
	defaultMaxAssetBytes = 50 << 20
)

var (
	ErrTooLarge       = errors.New("asset exceeds size limit")
	ErrNoBaseURL      = errors.New("same-origin reference without a base url")
	ErrUnsupportedRef = errors.New("unsupported reference")
)

type Config struct {
	// BaseURL resolves same-origin references such as /uploads/a.png.
	BaseURL       string
	UserAgent     string
	MaxAssetBytes int64
}

func (c Config) WithDefaults() Config {
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.MaxAssetBytes <= 0 {
		c.MaxAssetBytes = defaultMaxAssetBytes
	}
	return c
}

// HTTPFetcher retrieves same-origin and remote asset references. Timeouts
// come from the caller's context.
type HTTPFetcher struct {
	cfg    Config
	base   *url.URL
	client *http.Client
}

func NewHTTPFetcher(cfg Config, client *http.Client) (*HTTPFetcher, error) {
	cfg = cfg.WithDefaults()
	if client == nil {
		client = &http.Client{}
	}

	f := &HTTPFetcher{cfg: cfg, client: client}
	if cfg.BaseURL != "" {
		base, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		if base.Scheme != "http" && base.Scheme != "https" {
			return nil, fmt.Errorf("base url must be http or https: %s", cfg.BaseURL)
		}
		f.base = base
	}
	return f, nil
}

func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) (core.FetchedAsset, error) {
	target, err := f.resolve(ref)
	if err != nil {
		return core.FetchedAsset{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return core.FetchedAsset{}, err
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return core.FetchedAsset{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return core.FetchedAsset{}, fmt.Errorf("GET %s: status %d", target, resp.StatusCode)
	}

	if resp.ContentLength > f.cfg.MaxAssetBytes {
		return core.FetchedAsset{}, fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxAssetBytes+1))
	if err != nil {
		return core.FetchedAsset{}, fmt.Errorf("read %s: %w", target, err)
	}
	if int64(len(body)) > f.cfg.MaxAssetBytes {
		return core.FetchedAsset{}, ErrTooLarge
	}

	return core.FetchedAsset{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		URL:         target,
	}, nil
}

func (f *HTTPFetcher) resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "//") {
		scheme := "https"
		if f.base != nil {
			scheme = f.base.Scheme
		}
		return scheme + ":" + ref, nil
	}
	if core.IsRemoteURL(ref) {
		return ref, nil
	}
	if strings.Contains(ref, "://") || core.IsDataURL(ref) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedRef, core.Truncate(ref, 80))
	}
	if f.base == nil {
		return "", ErrNoBaseURL
	}

	rel, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse reference: %w", err)
	}
	return f.base.ResolveReference(rel).String(), nil
}
