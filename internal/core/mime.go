package core

import (
	"path"
	"strings"
)

var contentTypes = map[string]string{
	".css":   "text/css",
	".js":    "application/javascript",
	".json":  "application/json",
	".csv":   "text/csv",
	".txt":   "text/plain",
	".pdf":   "application/pdf",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".webp":  "image/webp",
	".avif":  "image/avif",
	".svg":   "image/svg+xml",
	".ico":   "image/x-icon",
	".mp4":   "video/mp4",
	".webm":  "video/webm",
	".ogv":   "video/ogg",
	".mov":   "video/quicktime",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".ttf":   "font/ttf",
	".otf":   "font/otf",
	".eot":   "application/vnd.ms-fontobject",
}

// subtypeExtensions maps MIME subtypes whose name is not a usable file
// extension.
var subtypeExtensions = map[string]string{
	"jpeg":                   "jpg",
	"svg+xml":                "svg",
	"x-icon":                 "ico",
	"vnd.microsoft.icon":     "ico",
	"quicktime":              "mov",
	"ogg":                    "ogv",
	"javascript":             "js",
	"plain":                  "txt",
	"octet-stream":           "bin",
	"vnd.ms-fontobject":      "eot",
	"x-font-ttf":             "ttf",
	"x-font-otf":             "otf",
	"font-woff":              "woff",
	"x-font-woff":            "woff",
	"font-woff2":             "woff2",
	"vnd.openxmlformats-officedocument.spreadsheetml.sheet": "xlsx",
}

var fontMimeAliases = map[string]bool{
	"application/vnd.ms-fontobject": true,
	"application/font-woff":         true,
	"application/font-woff2":        true,
	"application/x-font-woff":       true,
	"application/x-font-ttf":        true,
	"application/x-font-otf":        true,
}

// IsAssetExtension reports whether name ends with an extension the bundle
// stores as an asset. Used to tell asset links from navigation links.
func IsAssetExtension(name string) bool {
	ext := strings.ToLower(path.Ext(cleanURLPath(name)))
	if ext == "" || ext == ".js" || ext == ".css" {
		return false
	}
	_, ok := contentTypes[ext]
	return ok
}

func KindForMime(mimeType string) AssetKind {
	mimeType = baseMime(mimeType)
	if fontMimeAliases[mimeType] {
		return KindFont
	}
	primary, _, _ := strings.Cut(mimeType, "/")
	switch primary {
	case "image":
		return KindImage
	case "video":
		return KindVideo
	case "font":
		return KindFont
	default:
		return KindData
	}
}

func ExtensionForMime(mimeType string) string {
	mimeType = baseMime(mimeType)
	_, subtype, ok := strings.Cut(mimeType, "/")
	if !ok || subtype == "" {
		return ""
	}
	if ext, ok := subtypeExtensions[subtype]; ok {
		return ext
	}
	if strings.ContainsAny(subtype, "+.") {
		return ""
	}
	return subtype
}

func baseMime(mimeType string) string {
	mimeType, _, _ = strings.Cut(mimeType, ";")
	return strings.ToLower(strings.TrimSpace(mimeType))
}

func cleanURLPath(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	return name
}
