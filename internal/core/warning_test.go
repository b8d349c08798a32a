package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWarningsTruncateLongFields(t *testing.T) {
	var w Warnings
	w.Add(ExportWarning{
		Type:    WarningAsset,
		Message: "asset unavailable",
		URL:     "https://cdn.example.com/" + strings.Repeat("a", 500),
		Detail:  strings.Repeat("x", 1000),
	})

	items := w.List()
	assert.Len(t, items, 1)
	assert.Len(t, items[0].URL, maxURLLen)
	assert.Len(t, items[0].Detail, maxDetailLen)
	assert.True(t, strings.HasSuffix(items[0].Detail, "..."))
}

func TestWarningsCount(t *testing.T) {
	var w Warnings
	w.Add(AssetWarning("a1", "could not decode", errors.New("bad padding")))
	w.Merge([]ExportWarning{
		{Type: WarningDist, Message: "render failed"},
		{Type: WarningAsset, Message: "fetch failed", AssetID: "a2"},
	})

	assert.Equal(t, 3, w.Len())
	assert.Equal(t, 2, w.Count(WarningAsset))
	assert.Equal(t, 1, w.Count(WarningDist))
	assert.Equal(t, 0, w.Count(WarningOther))
	assert.Equal(t, "bad padding", w.List()[0].Detail)
}

func TestWarningsListIsACopy(t *testing.T) {
	var w Warnings
	w.Add(ExportWarning{Type: WarningOther, Message: "first"})

	items := w.List()
	items[0].Message = "changed"

	assert.Equal(t, "first", w.List()[0].Message)
}

func TestExportWarningString(t *testing.T) {
	w := ExportWarning{Type: WarningAsset, Message: "fetch failed", AssetID: "a1", URL: "/uploads/x.png", Detail: "404"}
	assert.Equal(t, "[asset] fetch failed (asset a1) </uploads/x.png>: 404", w.String())
}
