package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var unitlessProperties = map[string]bool{
	"line-height": true,
	"font-weight": true,
	"opacity":     true,
	"z-index":     true,
	"flex":        true,
	"flex-grow":   true,
	"flex-shrink": true,
	"order":       true,
}

// LayerCSS styles the wrappers produced by background-layer injection.
const LayerCSS = `.lp-bg-host{position:relative;isolation:isolate;}
.lp-bg-layer{position:absolute;inset:0;z-index:0;overflow:hidden;pointer-events:none;}
body>.lp-bg-layer{position:fixed;}
.lp-bg-video{position:absolute;inset:0;width:100%;height:100%;}
.lp-bg-overlay{position:absolute;inset:0;}
.lp-bg-content{position:relative;z-index:1;}
`

// BaseStyleCSS renders pageBaseStyle as a body rule. Keys are emitted in
// sorted order so the stylesheet is stable across exports.
func BaseStyleCSS(style map[string]any) string {
	if len(style) == 0 {
		return ""
	}

	keys := make([]string, 0, len(style))
	for k := range style {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var decls []string
	for _, k := range keys {
		prop := kebabCase(k)
		value := cssValue(prop, style[k])
		if prop == "" || value == "" {
			continue
		}
		decls = append(decls, prop+":"+value+";")
	}
	if len(decls) == 0 {
		return ""
	}
	return "body{" + strings.Join(decls, "") + "}\n"
}

func kebabCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			if i > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r + ('a' - 'A'))
		case r == '-' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		default:
			return ""
		}
	}
	return b.String()
}

func cssValue(prop string, v any) string {
	switch val := v.(type) {
	case string:
		val = strings.TrimSpace(val)
		if strings.ContainsAny(val, ";{}<>") {
			return ""
		}
		return val
	case float64:
		return numericCSS(prop, val)
	case int:
		return numericCSS(prop, float64(val))
	case bool, nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

func numericCSS(prop string, n float64) string {
	s := strconv.FormatFloat(n, 'f', -1, 64)
	if unitlessProperties[prop] || n == 0 {
		return s
	}
	return s + "px"
}
