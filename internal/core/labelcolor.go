package core

import (
	"hash/fnv"
	"strings"
)

type LabelColor struct {
	Background string `json:"bg"`
	Text       string `json:"fg"`
}

// LabelPalette is shared verbatim with the store runtime script; the script
// hashes labels the same way, so colors never depend on shared state.
var LabelPalette = []LabelColor{
	{Background: "#e0f2fe", Text: "#075985"},
	{Background: "#dcfce7", Text: "#166534"},
	{Background: "#fef9c3", Text: "#854d0e"},
	{Background: "#fee2e2", Text: "#991b1b"},
	{Background: "#ede9fe", Text: "#5b21b6"},
	{Background: "#fce7f3", Text: "#9d174d"},
	{Background: "#ffedd5", Text: "#9a3412"},
	{Background: "#ccfbf1", Text: "#115e59"},
	{Background: "#e0e7ff", Text: "#3730a3"},
	{Background: "#f3f4f6", Text: "#1f2937"},
}

// NormalizeLabel lowercases ASCII letters and collapses ASCII whitespace.
// Other runes pass through unchanged so the store runtime can reproduce the
// result exactly.
func NormalizeLabel(name string) string {
	b := []byte(name)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return strings.Join(strings.FieldsFunc(string(b), isASCIISpace), " ")
}

func isASCIISpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// LabelHash is 32-bit FNV-1a over the UTF-8 bytes of the normalized label.
func LabelHash(name string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(NormalizeLabel(name)))
	return h.Sum32()
}

func ColorForLabel(name string) LabelColor {
	return LabelPalette[LabelHash(name)%uint32(len(LabelPalette))]
}
