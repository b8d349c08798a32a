package fs

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/3-lines-studio/lander/internal/core"
)

// ProjectLoader reads project documents and UI hints stored as JSON or
// YAML, chosen by file extension.
type ProjectLoader struct {
	fs FileSystem
}

func NewProjectLoader(fs FileSystem) *ProjectLoader {
	return &ProjectLoader{fs: fs}
}

func (l *ProjectLoader) LoadProject(path string) (*core.ProjectDocument, error) {
	var project core.ProjectDocument
	if err := l.decode(path, &project); err != nil {
		return nil, err
	}
	if project.Assets == nil {
		project.Assets = map[string]core.AssetRecord{}
	}
	return &project, nil
}

func (l *ProjectLoader) LoadHints(path string) (core.UIHints, error) {
	var hints core.UIHints
	if path == "" {
		return hints, nil
	}
	err := l.decode(path, &hints)
	return hints, err
}

// LoadSnapshot reads a project.json written by a previous export. Asset
// metadata is turned back into records whose data is the bundled file,
// embedded, so the project can be exported again without the editor.
func (l *ProjectLoader) LoadSnapshot(path string) (*core.ProjectDocument, error) {
	data, err := l.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	var metas []core.AssetMeta
	if raw, ok := fields["assets"]; ok {
		if err := json.Unmarshal(raw, &metas); err != nil {
			return nil, fmt.Errorf("parse %s assets: %w", path, err)
		}
	}
	delete(fields, "assets")
	delete(fields, "schemaVersion")

	rest, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	var project core.ProjectDocument
	if err := json.Unmarshal(rest, &project); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	project.Assets = make(map[string]core.AssetRecord, len(metas))
	for _, meta := range metas {
		if !l.fs.FileExists(meta.Path) {
			return nil, fmt.Errorf("bundle is missing %s for asset %s", meta.Path, meta.ID)
		}
		content, err := l.fs.ReadFile(meta.Path)
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", meta.ID, err)
		}
		project.Assets[meta.ID] = core.AssetRecord{
			Filename: meta.Filename,
			Data:     "data:" + meta.MimeType + ";base64," + base64.StdEncoding.EncodeToString(content),
		}
	}
	return &project, nil
}

// WriteArchive writes the bundle to path, creating parent directories.
func (l *ProjectLoader) WriteArchive(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := l.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return l.fs.WriteFile(path, data, 0o644)
}

func (l *ProjectLoader) decode(path string, target any) error {
	data, err := l.fs.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yamlToJSON(data)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// yamlToJSON re-encodes YAML as JSON so the json struct tags stay the
// single source of field names.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}
