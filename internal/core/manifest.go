package core

import (
	"encoding/json"
	"time"
)

const SchemaVersion = 1

type ManifestRecord struct {
	SchemaVersion int    `json:"schemaVersion"`
	AppVersion    string `json:"appVersion"`
	ExportedAt    string `json:"exportedAt"`
	AssetCount    int    `json:"assetCount"`
	SectionCount  int    `json:"sectionCount"`
	Hash          string `json:"hash"`
}

// NewManifest digests the serialized project JSON so a consumer can verify
// project.json was not altered after export.
func NewManifest(projectJSON []byte, appVersion string, assetCount, sectionCount int, exportedAt time.Time) ManifestRecord {
	return ManifestRecord{
		SchemaVersion: SchemaVersion,
		AppVersion:    appVersion,
		ExportedAt:    exportedAt.UTC().Format(time.RFC3339),
		AssetCount:    assetCount,
		SectionCount:  sectionCount,
		Hash:          HashContent(projectJSON),
	}
}

func ParseManifest(data []byte) (*ManifestRecord, error) {
	var m ManifestRecord
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Verify reports whether projectJSON is the snapshot the manifest was
// produced for.
func (m *ManifestRecord) Verify(projectJSON []byte) bool {
	return m != nil && m.Hash == HashContent(projectJSON)
}

type ExportReport struct {
	ExportID      string          `json:"exportId"`
	JSONSize      int             `json:"jsonSize"`
	AssetCount    int             `json:"assetCount"`
	AssetFailures int             `json:"assetFailures"`
	StoredFiles   int             `json:"storedFiles"`
	HTMLSize      int             `json:"htmlSize"`
	CSSSize       int             `json:"cssSize"`
	JSSize        int             `json:"jsSize"`
	ArchiveSize   int             `json:"archiveSize"`
	DistGenerated bool            `json:"distGenerated"`
	Minimal       bool            `json:"minimal"`
	DurationMS    int64           `json:"durationMs"`
	Warnings      []ExportWarning `json:"warnings"`
}

func (r ExportReport) Outcome() string {
	switch {
	case r.Minimal:
		return "minimal"
	case !r.DistGenerated || r.AssetFailures > 0:
		return "degraded"
	default:
		return "full"
	}
}
