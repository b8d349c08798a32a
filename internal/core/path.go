package core

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// IsPathKey reports whether a snapshot field holds a path-like value whose
// separators must be normalized.
func IsPathKey(key string) bool {
	k := strings.ToLower(key)
	return strings.HasSuffix(k, "path") || strings.HasSuffix(k, "src") || strings.HasSuffix(k, "url")
}

func NormalizeSlashes(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

func ValidateArchivePath(p string) error {
	if p == "" {
		return fmt.Errorf("path cannot be empty")
	}

	if strings.HasPrefix(p, "/") {
		return fmt.Errorf("path must be relative: %s", p)
	}

	if strings.Contains(p, "\\") {
		return fmt.Errorf("path must use forward slashes: %s", p)
	}

	for _, segment := range strings.Split(p, "/") {
		if segment == ".." || segment == "." || segment == "" {
			return fmt.Errorf("path contains an invalid segment: %s", p)
		}
	}

	return nil
}

func DistPath(p string) string {
	return "dist/" + p
}

// IsBundlePath reports whether ref already points into the exported asset
// tree, i.e. it was rewritten by an earlier pass.
func IsBundlePath(ref string) bool {
	ref = strings.TrimPrefix(ref, "./")
	return strings.HasPrefix(ref, AssetsDir+"/")
}

func IsRemoteURL(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "//")
}

func IsRootRelative(ref string) bool {
	return strings.HasPrefix(ref, "/") && !strings.HasPrefix(ref, "//")
}

// IsNonAssetRef reports references that never name a fetchable asset.
func IsNonAssetRef(ref string) bool {
	lower := strings.ToLower(strings.TrimSpace(ref))
	if lower == "" || strings.HasPrefix(lower, "#") {
		return true
	}
	for _, scheme := range []string{"mailto:", "tel:", "javascript:", "about:", "sms:"} {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	return false
}

// Basename returns the last path segment of ref without query or fragment,
// percent-decoded when possible.
func Basename(ref string) string {
	p := cleanURLPath(ref)
	if u, err := url.Parse(p); err == nil && u.Path != "" {
		p = u.Path
	}
	base := path.Base(p)
	if base == "." || base == "/" {
		return ""
	}
	if unescaped, err := url.PathUnescape(base); err == nil {
		return unescaped
	}
	return base
}
