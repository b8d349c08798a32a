package core

import "fmt"

type WarningType string

const (
	WarningAsset WarningType = "asset"
	WarningDist  WarningType = "dist"
	WarningOther WarningType = "other"
)

const (
	maxDetailLen = 300
	maxURLLen    = 200
)

type ExportWarning struct {
	Type    WarningType `json:"type"`
	Message string      `json:"message"`
	AssetID string      `json:"assetId,omitempty"`
	URL     string      `json:"url,omitempty"`
	Detail  string      `json:"detail,omitempty"`
}

func (w ExportWarning) String() string {
	s := fmt.Sprintf("[%s] %s", w.Type, w.Message)
	if w.AssetID != "" {
		s += " (asset " + w.AssetID + ")"
	}
	if w.URL != "" {
		s += " <" + w.URL + ">"
	}
	if w.Detail != "" {
		s += ": " + w.Detail
	}
	return s
}

// Warnings accumulates diagnostics for one export run. It is not safe for
// concurrent use; concurrent stages collect locally and merge afterwards.
type Warnings struct {
	items []ExportWarning
}

func (w *Warnings) Add(warning ExportWarning) {
	warning.URL = Truncate(warning.URL, maxURLLen)
	warning.Detail = Truncate(warning.Detail, maxDetailLen)
	w.items = append(w.items, warning)
}

func (w *Warnings) Merge(items []ExportWarning) {
	for _, item := range items {
		w.Add(item)
	}
}

func (w *Warnings) List() []ExportWarning {
	out := make([]ExportWarning, len(w.items))
	copy(out, w.items)
	return out
}

func (w *Warnings) Len() int {
	return len(w.items)
}

func (w *Warnings) Count(t WarningType) int {
	n := 0
	for _, item := range w.items {
		if item.Type == t {
			n++
		}
	}
	return n
}

func AssetWarning(assetID, message string, err error) ExportWarning {
	warning := ExportWarning{Type: WarningAsset, Message: message, AssetID: assetID}
	if err != nil {
		warning.Detail = err.Error()
	}
	return warning
}
