package core

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/gabriel-vasile/mimetype"
)

type AssetKind string

const (
	KindImage AssetKind = "image"
	KindVideo AssetKind = "video"
	KindFont  AssetKind = "font"
	KindData  AssetKind = "data"
)

const AssetsDir = "assets"

func (k AssetKind) Folder() string {
	switch k {
	case KindImage:
		return "images"
	case KindVideo:
		return "videos"
	case KindFont:
		return "fonts"
	default:
		return "data"
	}
}

// AssetMeta describes one content-addressed asset. Path is relative to the
// bundle root, e.g. assets/images/<sha256>.png.
type AssetMeta struct {
	ID       string    `json:"id"`
	Filename string    `json:"filename"`
	Path     string    `json:"path"`
	Kind     AssetKind `json:"kind"`
	MimeType string    `json:"mimeType"`
	Size     int64     `json:"size"`
	Hash     string    `json:"hash"`
}

func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Address names content by its SHA-256 digest. Kind, MIME type and
// extension come from sniffing the bytes alone, so byte-identical payloads
// always share a path. filename is kept as metadata; mimeType is the
// caller's label and never affects the address.
func Address(content []byte, filename, mimeType string) AssetMeta {
	hash := HashContent(content)
	resolvedMime, ext := classify(content)
	kind := KindForMime(resolvedMime)

	return AssetMeta{
		Filename: filename,
		Path:     AssetsDir + "/" + kind.Folder() + "/" + hash + "." + ext,
		Kind:     kind,
		MimeType: resolvedMime,
		Size:     int64(len(content)),
		Hash:     hash,
	}
}

// classify falls back to text/plain (.txt) or application/octet-stream
// (.bin) for payloads without a recognizable signature.
func classify(content []byte) (string, string) {
	sniffed := mimetype.Detect(content)
	resolved := baseMime(sniffed.String())
	if resolved == "" {
		resolved = "application/octet-stream"
	}

	ext := ""
	if sniffedExt := sniffed.Extension(); len(sniffedExt) > 1 {
		ext = sniffedExt[1:]
	}
	if ext == "" {
		ext = ExtensionForMime(resolved)
	}
	if ext == "" {
		ext = "bin"
	}
	return resolved, ext
}
