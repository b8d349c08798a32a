package usecase

import (
	"context"
	"time"

	"github.com/3-lines-studio/lander/internal/core"
)

// Fetcher retrieves same-origin or remote references. Implementations
// must honour ctx cancellation so a timed-out fetch aborts the request.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (core.FetchedAsset, error)
}

// LiveSurface returns the editor preview's already-materialized document.
type LiveSurface interface {
	Snapshot(ctx context.Context, hints core.UIHints) (core.RenderedPage, error)
}

// RenderService renders a project server-side.
type RenderService interface {
	Render(ctx context.Context, project *core.ProjectDocument, hints core.UIHints) (core.RenderedPage, error)
}

type ArchiveWriter interface {
	Write(ctx context.Context, entries []core.ArchiveEntry) ([]byte, error)
}

type Metrics interface {
	ObserveFetch(d time.Duration, ok bool)
	ObserveExport(report core.ExportReport, d time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) ObserveFetch(time.Duration, bool)                {}
func (nopMetrics) ObserveExport(core.ExportReport, time.Duration) {}
