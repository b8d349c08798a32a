package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabelHash(t *testing.T) {
	tests := []struct {
		label string
		want  uint32
	}{
		{"", 2166136261},
		{"vegan", 2725795186},
		{"  Vegan ", 2725795186},
		{"open late", 2230810807},
		{"Open   Late", 2230810807},
		{"café", 2821410889},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, LabelHash(tt.label))
		})
	}
}

// Values computed by the store runtime's labelHash under node.
func TestLabelHashMatchesStoreRuntime(t *testing.T) {
	tests := []struct {
		name  string
		label string
		want  uint32
	}{
		{"greek capitals", "\u039f\u0394\u039f\u03a3", 1871788520},
		{"dotted capital i", "\u0130stanbul", 2478284176},
		{"byte order mark", "a\ufeffb", 3092430971},
		{"next line", "a\u0085b", 4286860877},
		{"ascii folding", "Drive-Thru", 993047279},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LabelHash(tt.label))
		})
	}
}

func TestColorForLabelIsStable(t *testing.T) {
	assert.Equal(t, LabelPalette[6], ColorForLabel("Vegan"))
	assert.Equal(t, LabelPalette[7], ColorForLabel("open late"))
	assert.Equal(t, LabelPalette[9], ColorForLabel("drive-thru"))
	assert.Equal(t, ColorForLabel("Drive-Thru"), ColorForLabel("drive-thru"))
}

func TestNormalizeLabelFoldsOnlyASCII(t *testing.T) {
	assert.Equal(t, "open late", NormalizeLabel(" Open\t\nLATE "))
	assert.Equal(t, "\u0130stanbul", NormalizeLabel("\u0130stanbul"))
	assert.Equal(t, "a\u00a0b", NormalizeLabel("a\u00a0b"))
}
