package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3-lines-studio/lander/internal/core"
)

func TestObserveExport(t *testing.T) {
	p := New(prometheus.NewRegistry())

	p.ObserveExport(core.ExportReport{DistGenerated: true}, 200*time.Millisecond)
	p.ObserveExport(core.ExportReport{
		DistGenerated: true,
		AssetFailures: 1,
		Warnings: []core.ExportWarning{
			{Type: core.WarningAsset},
			{Type: core.WarningAsset},
			{Type: core.WarningOther},
		},
	}, time.Second)
	p.ObserveExport(core.ExportReport{Minimal: true}, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(p.ExportsTotal.WithLabelValues("full")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.ExportsTotal.WithLabelValues("degraded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.ExportsTotal.WithLabelValues("minimal")))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.ExportWarningsTotal.WithLabelValues("asset")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.ExportWarningsTotal.WithLabelValues("other")))
	assert.Equal(t, 1, testutil.CollectAndCount(p.ExportDurationSeconds))
}

func TestObserveFetch(t *testing.T) {
	p := New(nil)

	p.ObserveFetch(30*time.Millisecond, true)
	p.ObserveFetch(2*time.Second, false)
	p.ObserveFetch(time.Millisecond, false)

	assert.Equal(t, 2, testutil.CollectAndCount(p.AssetFetchSeconds))
}

func TestHandlerExposesCollectors(t *testing.T) {
	p := New(nil)
	p.ObserveExport(core.ExportReport{DistGenerated: true}, time.Second)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `lander_exports_total{outcome="full"} 1`)
	assert.Contains(t, rec.Body.String(), "lander_export_duration_seconds_count 1")
}
