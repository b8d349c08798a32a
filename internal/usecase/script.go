package usecase

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/3-lines-studio/lander/internal/core"
)

const DefaultStorePageSize = 12

var (
	//go:embed store_runtime.js
	storeRuntimeSource   string
	StoreRuntimeTemplate = template.Must(template.New("store-runtime").Parse(storeRuntimeSource))
)

type storeRuntimeData struct {
	Palette       string
	DataID        string
	MountSelector string
	PageSize      int
}

type ScriptInput struct {
	Stores   *core.NormalizedStores
	PageSize int
}

type ScriptOutput struct {
	Script string
	Error  error
}

type ScriptGenerator struct{}

func NewScriptGenerator() *ScriptGenerator {
	return &ScriptGenerator{}
}

// Generate returns the store runtime, or an empty script when the project
// has no store table. The script depends only on the data island.
func (g *ScriptGenerator) Generate(in ScriptInput) ScriptOutput {
	if in.Stores == nil {
		return ScriptOutput{}
	}

	pageSize := in.PageSize
	if pageSize <= 0 {
		pageSize = DefaultStorePageSize
	}

	palette, err := json.Marshal(core.LabelPalette)
	if err != nil {
		return ScriptOutput{Error: fmt.Errorf("encode palette: %w", err)}
	}
	dataID, _ := json.Marshal(StoresDataID)
	mount, _ := json.Marshal("[" + StoresMountKey + "]")

	var buf bytes.Buffer
	err = StoreRuntimeTemplate.Execute(&buf, storeRuntimeData{
		Palette:       string(palette),
		DataID:        string(dataID),
		MountSelector: string(mount),
		PageSize:      pageSize,
	})
	if err != nil {
		return ScriptOutput{Error: fmt.Errorf("render store runtime: %w", err)}
	}
	return ScriptOutput{Script: buf.String()}
}
