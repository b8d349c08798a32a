package lander

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/3-lines-studio/lander/internal/adapters/archive"
	"github.com/3-lines-studio/lander/internal/adapters/fetch"
	"github.com/3-lines-studio/lander/internal/core"
	"github.com/3-lines-studio/lander/internal/usecase"
)

type Project = core.ProjectDocument

type ProjectMeta = core.ProjectMeta

type Settings = core.Settings

type Section = core.Section

type AssetRecord = core.AssetRecord

type AssetMeta = core.AssetMeta

type BackgroundSpec = core.BackgroundSpec

type StoresTable = core.StoresTable

type UIHints = core.UIHints

type Report = core.ExportReport

type Warning = core.ExportWarning

type Manifest = core.ManifestRecord

type RenderedPage = core.RenderedPage

type FetchedAsset = core.FetchedAsset

type ArchiveEntry = core.ArchiveEntry

type Fetcher = usecase.Fetcher

type LiveSurface = usecase.LiveSurface

type RenderService = usecase.RenderService

type ArchiveWriter = usecase.ArchiveWriter

type Metrics = usecase.Metrics

type Config struct {
	AppVersion     string
	FetchTimeout   time.Duration
	LiveTimeout    time.Duration
	RenderTimeout  time.Duration
	ArchiveTimeout time.Duration
	Concurrency    int
	PathPrefixes   []string
	// BaseURL resolves same-origin references when no Fetcher is given.
	BaseURL string
}

func DefaultConfig() Config {
	return Config{
		AppVersion:     "dev",
		FetchTimeout:   8 * time.Second,
		LiveTimeout:    10 * time.Second,
		RenderTimeout:  10 * time.Second,
		ArchiveTimeout: 30 * time.Second,
		Concurrency:    4,
		PathPrefixes:   usecase.DefaultPathPrefixes,
	}
}

type Option func(*usecase.ExportDeps)

func WithFetcher(f Fetcher) Option {
	return func(d *usecase.ExportDeps) { d.Fetcher = f }
}

func WithLiveSurface(l LiveSurface) Option {
	return func(d *usecase.ExportDeps) { d.Live = l }
}

func WithRenderService(r RenderService) Option {
	return func(d *usecase.ExportDeps) { d.Render = r }
}

func WithArchiveWriter(w ArchiveWriter) Option {
	return func(d *usecase.ExportDeps) { d.Archive = w }
}

func WithLogger(l *zap.Logger) Option {
	return func(d *usecase.ExportDeps) { d.Logger = l }
}

func WithMetrics(m Metrics) Option {
	return func(d *usecase.ExportDeps) { d.Metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(d *usecase.ExportDeps) { d.Clock = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(d *usecase.ExportDeps) { d.NewID = newID }
}

type Result struct {
	Archive []byte
	Report  Report
}

type Exporter struct {
	service *usecase.ExportService
}

// New builds an Exporter. Without options it fetches over HTTP and writes
// deflate archives; rendering surfaces must be supplied explicitly.
func New(cfg Config, opts ...Option) (*Exporter, error) {
	var deps usecase.ExportDeps
	for _, opt := range opts {
		opt(&deps)
	}
	if deps.Fetcher == nil {
		fetcher, err := fetch.NewHTTPFetcher(fetch.Config{BaseURL: cfg.BaseURL}, nil)
		if err != nil {
			return nil, err
		}
		deps.Fetcher = fetcher
	}
	if deps.Archive == nil {
		deps.Archive = archive.NewZipWriter(archive.Config{})
	}

	return &Exporter{
		service: usecase.NewExportService(usecase.ExportConfig{
			AppVersion:     cfg.AppVersion,
			FetchTimeout:   cfg.FetchTimeout,
			LiveTimeout:    cfg.LiveTimeout,
			RenderTimeout:  cfg.RenderTimeout,
			ArchiveTimeout: cfg.ArchiveTimeout,
			Concurrency:    cfg.Concurrency,
			PathPrefixes:   cfg.PathPrefixes,
		}, deps),
	}, nil
}

// Export compiles project into a bundle archive. The error is non-nil only
// for invalid input or when not even the emergency archive could be built.
func (e *Exporter) Export(ctx context.Context, project *Project, hints UIHints) (Result, error) {
	out := e.service.Export(ctx, usecase.ExportInput{Project: project, Hints: hints})
	return Result{Archive: out.Archive, Report: out.Report}, out.Error
}

// Address computes the content address of a payload.
func Address(content []byte, filename, mimeType string) AssetMeta {
	return core.Address(content, filename, mimeType)
}

func ParseManifest(data []byte) (*Manifest, error) {
	return core.ParseManifest(data)
}
