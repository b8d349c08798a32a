package lander_test

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/3-lines-studio/lander"
	"github.com/3-lines-studio/lander/internal/adapters/archive"
)

const pixel = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

type staticRender struct {
	page lander.RenderedPage
}

func (r staticRender) Render(context.Context, *lander.Project, lander.UIHints) (lander.RenderedPage, error) {
	return r.page, nil
}

func testProject() *lander.Project {
	return &lander.Project{
		Meta:     lander.ProjectMeta{Name: "Launch"},
		Settings: lander.Settings{Title: "Launch day"},
		Sections: []lander.Section{
			{ID: "s1", Type: "hero", Data: map[string]any{"image": pixel}},
		},
		Assets: map[string]lander.AssetRecord{
			"hero": {Filename: "hero.png", Data: pixel},
		},
	}
}

func TestExport(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	exporter, err := lander.New(lander.DefaultConfig(),
		lander.WithLogger(zaptest.NewLogger(t)),
		lander.WithRenderService(staticRender{page: lander.RenderedPage{
			HTML: `<section data-section-type="hero"><img src="` + pixel + `"></section>`,
		}}),
		lander.WithClock(func() time.Time { return at }),
		lander.WithIDGenerator(func() string { return "fixed" }),
	)
	require.NoError(t, err)

	result, err := exporter.Export(context.Background(), testProject(), lander.UIHints{})
	require.NoError(t, err)

	assert.Equal(t, "fixed", result.Report.ExportID)
	assert.True(t, result.Report.DistGenerated)
	assert.Empty(t, result.Report.Warnings)

	files, err := archive.ReadEntries(result.Archive)
	require.NoError(t, err)

	manifest, err := lander.ParseManifest(files["manifest.json"])
	require.NoError(t, err)
	assert.True(t, manifest.Verify(files["project.json"]))
	assert.Equal(t, "2024-05-01T09:30:00Z", manifest.ExportedAt)

	path := lander.Address(mustDecode(t), "hero.png", "").Path
	assert.Contains(t, files, path)
	assert.Contains(t, files, "dist/"+path)

	page := string(files["dist/index.html"])
	assert.Contains(t, page, "<title>Launch day</title>")
	assert.Contains(t, page, `src="`+path+`"`)
}

func TestExportWithoutRenderingSurfaces(t *testing.T) {
	exporter, err := lander.New(lander.DefaultConfig(), lander.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	result, err := exporter.Export(context.Background(), testProject(), lander.UIHints{})
	require.NoError(t, err)

	assert.False(t, result.Report.DistGenerated)
	assert.Equal(t, 1, result.Report.AssetCount)
	require.NotEmpty(t, result.Report.Warnings)
	assert.Equal(t, "degraded", result.Report.Outcome())

	files, err := archive.ReadEntries(result.Archive)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.ToLower(string(files["dist/index.html"])), "<!doctype html>"))
	assert.Contains(t, files, "dist/README.txt")
}

func TestExportRejectsNilProject(t *testing.T) {
	exporter, err := lander.New(lander.DefaultConfig())
	require.NoError(t, err)

	_, err = exporter.Export(context.Background(), nil, lander.UIHints{})
	assert.Error(t, err)
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	cfg := lander.DefaultConfig()
	cfg.BaseURL = "ftp://builder.example.com"

	_, err := lander.New(cfg)
	assert.Error(t, err)
}

func mustDecode(t *testing.T) []byte {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(pixel, "data:image/png;base64,"))
	require.NoError(t, err)
	return data
}
