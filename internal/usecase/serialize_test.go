package usecase

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3-lines-studio/lander/internal/core"
)

func TestSerializeBuildsPortableSnapshot(t *testing.T) {
	project := sampleProject()
	project.Assets = map[string]core.AssetRecord{"a1": {Filename: "hero.png", Data: pngDataURL}}
	project.Sections[0].Data = map[string]any{
		"image":     pngDataURL,
		"imagePath": "uploads\\2024\\hero.png",
		"caption":   "C:\\not\\a\\path",
		"cta":       nil,
		"items":     []any{"a", nil, map[string]any{"posterSrc": "media\\p.jpg", "gone": nil}},
		"count":     json.Number("12345678901234567890"),
	}
	metas := []core.AssetMeta{core.Address(pixelBytes(t), "hero.png", "")}

	out := NewSerializer().Serialize(SerializeInput{Project: project, Assets: metas})
	require.NoError(t, out.Error)

	var snap map[string]any
	dec := json.NewDecoder(bytesReader(out.JSON))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&snap))

	assert.Equal(t, json.Number("1"), snap["schemaVersion"])
	assets := snap["assets"].([]any)
	require.Len(t, assets, 1)
	assert.Equal(t, metas[0].Path, assets[0].(map[string]any)["path"])

	data := snap["sections"].([]any)[0].(map[string]any)["data"].(map[string]any)
	assert.Equal(t, "", data["image"])
	assert.Equal(t, "uploads/2024/hero.png", data["imagePath"])
	assert.Equal(t, "C:\\not\\a\\path", data["caption"])
	assert.NotContains(t, data, "cta")
	assert.Equal(t, json.Number("12345678901234567890"), data["count"])

	items := data["items"].([]any)
	require.Len(t, items, 3)
	assert.Nil(t, items[1])
	nested := items[2].(map[string]any)
	assert.Equal(t, "media/p.jpg", nested["posterSrc"])
	assert.NotContains(t, nested, "gone")

	assert.NotContains(t, string(out.JSON), "data:image")
}

func TestSerializeDoesNotMutateProject(t *testing.T) {
	project := sampleProject()
	project.Assets = map[string]core.AssetRecord{"a1": {Data: pngDataURL}}
	project.Sections[0].Data = map[string]any{"image": pngDataURL, "src": "a\\b.png"}

	out := NewSerializer().Serialize(SerializeInput{Project: project})
	require.NoError(t, out.Error)

	assert.Equal(t, pngDataURL, project.Sections[0].Data["image"])
	assert.Equal(t, "a\\b.png", project.Sections[0].Data["src"])
	assert.Equal(t, pngDataURL, project.Assets["a1"].Data)
	assert.Contains(t, string(out.JSON), `"assets": []`)
}

func TestSerializeIsDeterministic(t *testing.T) {
	project := sampleProject()
	project.Sections[0].Data = map[string]any{"b": "2", "a": "1", "html": "<b>&</b>"}

	first := NewSerializer().Serialize(SerializeInput{Project: project})
	second := NewSerializer().Serialize(SerializeInput{Project: project})

	assert.Equal(t, first.JSON, second.JSON)
	assert.Contains(t, string(first.JSON), `"html": "<b>&</b>"`)
}

func TestSerializeRequiresProject(t *testing.T) {
	assert.Error(t, NewSerializer().Serialize(SerializeInput{}).Error)
}
