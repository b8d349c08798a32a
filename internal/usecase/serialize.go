package usecase

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/3-lines-studio/lander/internal/core"
)

type SerializeInput struct {
	Project *core.ProjectDocument
	Assets  []core.AssetMeta
}

type SerializeOutput struct {
	JSON  []byte
	Error error
}

type Serializer struct{}

func NewSerializer() *Serializer {
	return &Serializer{}
}

// Serialize builds the portable snapshot. It works on a deep copy, so the
// caller's project is never touched.
func (s *Serializer) Serialize(in SerializeInput) SerializeOutput {
	if in.Project == nil {
		return SerializeOutput{Error: fmt.Errorf("project is required")}
	}

	raw, err := json.Marshal(in.Project)
	if err != nil {
		return SerializeOutput{Error: fmt.Errorf("encode project: %w", err)}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var tree map[string]any
	if err := dec.Decode(&tree); err != nil {
		return SerializeOutput{Error: fmt.Errorf("clone project: %w", err)}
	}

	delete(tree, "assets")
	cleaned := dropUndefined(normalizePaths(stripEmbedded(tree), "")).(map[string]any)

	assets := in.Assets
	if assets == nil {
		assets = []core.AssetMeta{}
	}
	cleaned["assets"] = assets
	cleaned["schemaVersion"] = core.SchemaVersion

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cleaned); err != nil {
		return SerializeOutput{Error: fmt.Errorf("encode snapshot: %w", err)}
	}
	return SerializeOutput{JSON: buf.Bytes()}
}

// stripEmbedded blanks every inline data URL.
func stripEmbedded(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			val[k] = stripEmbedded(child)
		}
		return val
	case []any:
		for i, child := range val {
			val[i] = stripEmbedded(child)
		}
		return val
	case string:
		if core.IsDataURL(val) {
			return ""
		}
		return val
	default:
		return val
	}
}

// normalizePaths converts backslashes to forward slashes in string values
// held under path-like keys. key is the key v was found under.
func normalizePaths(v any, key string) any {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			val[k] = normalizePaths(child, k)
		}
		return val
	case []any:
		for i, child := range val {
			val[i] = normalizePaths(child, key)
		}
		return val
	case string:
		if core.IsPathKey(key) {
			return core.NormalizeSlashes(val)
		}
		return val
	default:
		return val
	}
}

// dropUndefined removes nil map entries at every depth. Nil array elements
// are kept so positions stay stable.
func dropUndefined(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			if child == nil {
				delete(val, k)
				continue
			}
			val[k] = dropUndefined(child)
		}
		return val
	case []any:
		for i, child := range val {
			val[i] = dropUndefined(child)
		}
		return val
	default:
		return val
	}
}
