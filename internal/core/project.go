package core

type ProjectDocument struct {
	Meta          ProjectMeta            `json:"meta"`
	Settings      Settings               `json:"settings"`
	PageBaseStyle map[string]any         `json:"pageBaseStyle,omitempty"`
	Sections      []Section              `json:"sections"`
	Assets        map[string]AssetRecord `json:"assets"`
	StoresTable   *StoresTable           `json:"storesTable,omitempty"`
}

type ProjectMeta struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

type Settings struct {
	Title       string                    `json:"title,omitempty"`
	Description string                    `json:"description,omitempty"`
	Lang        string                    `json:"lang,omitempty"`
	Favicon     string                    `json:"favicon,omitempty"`
	Backgrounds map[string]BackgroundSpec `json:"backgrounds,omitempty"`
	Extra       map[string]any            `json:"extra,omitempty"`
}

type Section struct {
	ID     string         `json:"id"`
	Type   string         `json:"type"`
	Hidden bool           `json:"hidden,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
}

// AssetRecord holds either an inline data URL, a same-origin path or a
// remote URL in Data.
type AssetRecord struct {
	Filename string `json:"filename"`
	Data     string `json:"data"`
}

type UIHints struct {
	Viewport   string         `json:"viewport,omitempty"`
	PreviewURL string         `json:"previewUrl,omitempty"`
	Locale     string         `json:"locale,omitempty"`
	Extra      map[string]any `json:"extra,omitempty"`
}

const (
	SlotPage = "page"
	SlotHero = "hero"
)

const SectionTypeStores = "stores"

func (p *ProjectDocument) HasStores() bool {
	return p != nil && p.StoresTable != nil && len(p.StoresTable.Rows) > 0
}

// VisibleSections returns the sections that are not hidden, in order.
func (p *ProjectDocument) VisibleSections() []Section {
	visible := make([]Section, 0, len(p.Sections))
	for _, s := range p.Sections {
		if !s.Hidden {
			visible = append(visible, s)
		}
	}
	return visible
}

func (p *ProjectDocument) PageTitle() string {
	if p.Settings.Title != "" {
		return p.Settings.Title
	}
	if p.Meta.Name != "" {
		return p.Meta.Name
	}
	return "Landing page"
}
