package core

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

var ErrNotDataURL = errors.New("not a data URL")

type DataURL struct {
	MimeType string
	Data     []byte
}

func IsDataURL(s string) bool {
	s = strings.TrimSpace(s)
	return len(s) >= 5 && strings.EqualFold(s[:5], "data:")
}

// ParseDataURL decodes data:[<mediatype>][;base64],<payload>. Both base64
// and percent-encoded text payloads are accepted.
func ParseDataURL(s string) (DataURL, error) {
	s = strings.TrimSpace(s)
	if !IsDataURL(s) {
		return DataURL{}, ErrNotDataURL
	}

	header, payload, ok := strings.Cut(s[5:], ",")
	if !ok {
		return DataURL{}, fmt.Errorf("data URL has no payload separator")
	}

	params := strings.Split(header, ";")
	mimeType := strings.ToLower(strings.TrimSpace(params[0]))
	isBase64 := false
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}
	if mimeType == "" {
		mimeType = "text/plain"
	}

	if isBase64 {
		data, err := decodeBase64(payload)
		if err != nil {
			return DataURL{}, fmt.Errorf("decode base64 payload: %w", err)
		}
		return DataURL{MimeType: mimeType, Data: data}, nil
	}

	text, err := url.PathUnescape(payload)
	if err != nil {
		return DataURL{}, fmt.Errorf("decode text payload: %w", err)
	}
	return DataURL{MimeType: mimeType, Data: []byte(text)}, nil
}

func decodeBase64(payload string) ([]byte, error) {
	payload = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, payload)
	if unescaped, err := url.PathUnescape(payload); err == nil {
		payload = unescaped
	}

	var lastErr error
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		data, err := enc.DecodeString(payload)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// Truncate shortens diagnostics so warnings never carry whole payloads.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut, suffix := max-3, "..."
	if max <= 3 {
		cut, suffix = max, ""
	}
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + suffix
}
