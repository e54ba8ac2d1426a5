package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercases and strips accents",
			input:    "GASOLINA MAGNA añejo Café",
			expected: "gasolina magna anejo cafe",
		},
		{
			name:     "punctuation becomes separator",
			input:    "TORNILLOS 1/4\", CAJA-X100",
			expected: "tornillos 1 4 caja x100",
		},
		{
			name:     "collapses repeated whitespace",
			input:    "  PAPELERIA   OFICINA\t\tCENTRAL ",
			expected: "papeleria oficina central",
		},
		{
			name:     "only punctuation normalizes to empty",
			input:    "---...///",
			expected: "",
		},
		{
			name:     "digits survive",
			input:    "RENTA OFICINA 2026",
			expected: "renta oficina 2026",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Normalize(tc.input))
		})
	}
}

func TestNormalizeAll(t *testing.T) {
	got := NormalizeAll([]string{"GASOLINA MAGNA", "---", "40 LITROS"})
	assert.Equal(t, "gasolina magna 40 litros", got)

	assert.Equal(t, "", NormalizeAll(nil))
	assert.Equal(t, "", NormalizeAll([]string{"", "..."}))
}
