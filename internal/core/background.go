package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type BackgroundType string

const (
	BackgroundSolid    BackgroundType = "solid"
	BackgroundGradient BackgroundType = "gradient"
	BackgroundImage    BackgroundType = "image"
	BackgroundVideo    BackgroundType = "video"
	BackgroundPreset   BackgroundType = "preset"
)

type Overlay struct {
	Color   string  `json:"color,omitempty"`
	Opacity float64 `json:"opacity,omitempty"`
}

type BackgroundSpec struct {
	Type          BackgroundType `json:"type"`
	Color         string         `json:"color,omitempty"`
	From          string         `json:"from,omitempty"`
	To            string         `json:"to,omitempty"`
	Angle         float64        `json:"angle,omitempty"`
	CSS           string         `json:"css,omitempty"`
	AssetID       string         `json:"assetId,omitempty"`
	PosterAssetID string         `json:"posterAssetId,omitempty"`
	Fit           string         `json:"fit,omitempty"`
	Position      string         `json:"position,omitempty"`
	Preset        string         `json:"preset,omitempty"`
	Overlay       *Overlay       `json:"overlay,omitempty"`
}

// BackgroundLayer is the concrete, static rendition of a BackgroundSpec.
type BackgroundLayer struct {
	Style        string
	VideoSrc     string
	PosterSrc    string
	VideoFit     string
	OverlayStyle string
}

func (l BackgroundLayer) IsVideo() bool {
	return l.VideoSrc != ""
}

var presets = map[string]BackgroundSpec{
	"sunset":   {Type: BackgroundGradient, From: "#ff7e5f", To: "#feb47b", Angle: 135},
	"ocean":    {Type: BackgroundGradient, From: "#2193b0", To: "#6dd5ed", Angle: 160},
	"midnight": {Type: BackgroundGradient, From: "#232526", To: "#414345", Angle: 180},
	"mint":     {Type: BackgroundGradient, From: "#d4fc79", To: "#96e6a1", Angle: 120},
	"paper":    {Type: BackgroundSolid, Color: "#f7f5f0"},
	"ink":      {Type: BackgroundSolid, Color: "#111827"},
}

var (
	safeCSSValue = regexp.MustCompile(`^[#a-zA-Z0-9(),.%\s-]+$`)
	gradientCSS  = regexp.MustCompile(`^(repeating-)?(linear|radial|conic)-gradient\([#a-zA-Z0-9(),.%\s-]+\)$`)
)

// AssetLookup maps an asset id to its bundle path.
type AssetLookup func(assetID string) (string, bool)

// ResolveBackground turns spec into a layer. ok is false when the spec
// paints nothing. A non-nil warning means part of the spec was dropped.
func ResolveBackground(spec BackgroundSpec, lookup AssetLookup) (layer BackgroundLayer, ok bool, warning *ExportWarning) {
	if spec.Type == BackgroundPreset {
		preset, found := presets[strings.ToLower(spec.Preset)]
		if !found {
			return BackgroundLayer{}, false, &ExportWarning{
				Type:    WarningOther,
				Message: fmt.Sprintf("unknown background preset %q", spec.Preset),
			}
		}
		preset.Overlay = spec.Overlay
		spec = preset
	}

	var style strings.Builder
	base := cssColor(spec.Color)
	if base != "" {
		fmt.Fprintf(&style, "background-color:%s;", base)
	}

	switch spec.Type {
	case BackgroundSolid:
		if base == "" {
			return BackgroundLayer{}, false, nil
		}

	case BackgroundGradient:
		gradient := gradientValue(spec)
		if gradient == "" {
			return BackgroundLayer{}, false, &ExportWarning{Type: WarningOther, Message: "invalid gradient background"}
		}
		fmt.Fprintf(&style, "background-image:%s;", gradient)

	case BackgroundImage:
		src, found := lookup(spec.AssetID)
		if !found {
			warning = &ExportWarning{Type: WarningAsset, Message: "background image asset unavailable", AssetID: spec.AssetID}
			if base == "" {
				return BackgroundLayer{}, false, warning
			}
			break
		}
		fmt.Fprintf(&style, "background-image:url('%s');background-size:%s;background-position:%s;background-repeat:%s;",
			src, backgroundSize(spec.Fit), cssPosition(spec.Position), backgroundRepeat(spec.Fit))

	case BackgroundVideo:
		src, found := lookup(spec.AssetID)
		if !found {
			warning = &ExportWarning{Type: WarningAsset, Message: "background video asset unavailable", AssetID: spec.AssetID}
			if base == "" {
				return BackgroundLayer{}, false, warning
			}
			break
		}
		layer.VideoSrc = src
		layer.VideoFit = objectFit(spec.Fit)
		if spec.PosterAssetID != "" {
			if poster, found := lookup(spec.PosterAssetID); found {
				layer.PosterSrc = poster
			}
		}

	default:
		return BackgroundLayer{}, false, nil
	}

	layer.Style = style.String()
	layer.OverlayStyle = overlayStyle(spec.Overlay)
	return layer, true, warning
}

func gradientValue(spec BackgroundSpec) string {
	if css := strings.TrimSpace(spec.CSS); css != "" {
		if gradientCSS.MatchString(css) {
			return css
		}
		return ""
	}
	from, to := cssColor(spec.From), cssColor(spec.To)
	if from == "" || to == "" {
		return ""
	}
	angle := spec.Angle
	if angle == 0 {
		angle = 180
	}
	return fmt.Sprintf("linear-gradient(%sdeg, %s, %s)", strconv.FormatFloat(angle, 'f', -1, 64), from, to)
}

func overlayStyle(o *Overlay) string {
	if o == nil || o.Opacity <= 0 {
		return ""
	}
	color := cssColor(o.Color)
	if color == "" {
		color = "#000"
	}
	opacity := o.Opacity
	if opacity > 1 {
		opacity = 1
	}
	return fmt.Sprintf("background-color:%s;opacity:%s;", color, strconv.FormatFloat(opacity, 'f', -1, 64))
}

func cssColor(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || !safeCSSValue.MatchString(v) {
		return ""
	}
	return v
}

func cssPosition(v string) string {
	if v = cssColor(v); v != "" {
		return v
	}
	return "center"
}

func backgroundSize(fit string) string {
	switch strings.ToLower(fit) {
	case "contain":
		return "contain"
	case "fill":
		return "100% 100%"
	case "none", "tile":
		return "auto"
	default:
		return "cover"
	}
}

func backgroundRepeat(fit string) string {
	if strings.EqualFold(fit, "tile") {
		return "repeat"
	}
	return "no-repeat"
}

func objectFit(fit string) string {
	switch strings.ToLower(fit) {
	case "contain", "fill", "none":
		return strings.ToLower(fit)
	default:
		return "cover"
	}
}
