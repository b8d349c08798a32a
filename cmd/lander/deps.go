package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/3-lines-studio/lander"
	"github.com/3-lines-studio/lander/internal/adapters/archive"
	"github.com/3-lines-studio/lander/internal/adapters/browser"
	"github.com/3-lines-studio/lander/internal/adapters/fetch"
	"github.com/3-lines-studio/lander/internal/adapters/process"
	"github.com/3-lines-studio/lander/internal/config"
	"github.com/3-lines-studio/lander/internal/usecase"
)

type wiring struct {
	deps    usecase.ExportDeps
	cleanup []func() error
}

func (w *wiring) Close() {
	for i := len(w.cleanup) - 1; i >= 0; i-- {
		_ = w.cleanup[i]()
	}
}

// wire builds the export collaborators from configuration. Rendering
// surfaces that are not configured stay nil and are skipped by the
// fallback chain.
func wire(cfg *config.Config, logger *zap.Logger) (*wiring, error) {
	w := &wiring{}
	w.deps.Logger = logger

	fetcher, err := fetch.NewHTTPFetcher(fetch.Config{
		BaseURL:       cfg.Export.BaseURL,
		MaxAssetBytes: cfg.Export.MaxAssetBytes,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("configure fetcher: %w", err)
	}
	w.deps.Fetcher = fetcher

	w.deps.Archive = archive.NewZipWriter(archive.Config{MaxBytes: cfg.Export.MaxArchiveBytes})

	switch {
	case cfg.Render.ServiceURL != "":
		renderer, err := process.NewRenderer(cfg.Render.ServiceURL)
		if err != nil {
			return nil, fmt.Errorf("configure render service: %w", err)
		}
		w.deps.Render = renderer
	case len(cfg.Render.Command) > 0:
		renderer, err := process.NewRendererFromCommand(cfg.Render.Command, nil)
		if err != nil {
			return nil, fmt.Errorf("start render service: %w", err)
		}
		w.deps.Render = renderer
		w.cleanup = append(w.cleanup, renderer.Stop)
	}

	if cfg.Browser.PreviewURL != "" || cfg.Browser.RemoteURL != "" {
		surface := browser.New(browser.Config{
			PreviewURL:   cfg.Browser.PreviewURL,
			RemoteURL:    cfg.Browser.RemoteURL,
			RootSelector: cfg.Browser.RootSelector,
			Logger:       logger,
		})
		w.deps.Live = surface
		w.cleanup = append(w.cleanup, surface.Close)
	}

	return w, nil
}

func exportConfig(cfg *config.Config) usecase.ExportConfig {
	return usecase.ExportConfig{
		AppVersion:     cfg.App.Version,
		FetchTimeout:   cfg.Export.FetchTimeout,
		LiveTimeout:    cfg.Export.LiveTimeout,
		RenderTimeout:  cfg.Export.RenderTimeout,
		ArchiveTimeout: cfg.Export.ArchiveTimeout,
		Concurrency:    cfg.Export.Concurrency,
		PathPrefixes:   cfg.Export.PathPrefixes,
	}
}

func landerConfig(cfg *config.Config) lander.Config {
	ec := exportConfig(cfg)
	return lander.Config{
		AppVersion:     ec.AppVersion,
		FetchTimeout:   ec.FetchTimeout,
		LiveTimeout:    ec.LiveTimeout,
		RenderTimeout:  ec.RenderTimeout,
		ArchiveTimeout: ec.ArchiveTimeout,
		Concurrency:    ec.Concurrency,
		PathPrefixes:   ec.PathPrefixes,
		BaseURL:        cfg.Export.BaseURL,
	}
}

func (w *wiring) options() []lander.Option {
	opts := []lander.Option{
		lander.WithLogger(w.deps.Logger),
		lander.WithFetcher(w.deps.Fetcher),
		lander.WithArchiveWriter(w.deps.Archive),
	}
	if w.deps.Render != nil {
		opts = append(opts, lander.WithRenderService(w.deps.Render))
	}
	if w.deps.Live != nil {
		opts = append(opts, lander.WithLiveSurface(w.deps.Live))
	}
	return opts
}
