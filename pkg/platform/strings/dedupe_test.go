package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{"nil slice", nil, nil},
		{"empty slice", []string{}, []string{}},
		{"trims whitespace", []string{" 100.64.0.0/10 ", "10.0.0.0/8 "}, []string{"100.64.0.0/10", "10.0.0.0/8"}},
		{"drops empties", []string{"roll", "", "  ", "ip"}, []string{"roll", "ip"}},
		{"dedupes preserving order", []string{"roll", "ip", "roll", "device"}, []string{"roll", "ip", "device"}},
		{"preserves case", []string{"Roll", "roll"}, []string{"Roll", "roll"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}

func TestDedupeAndTrimLower(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{"nil slice", nil, nil},
		{"lowercases and dedupes", []string{"Roll", "roll", "ROLL"}, []string{"roll"}},
		{"trims and lowercases", []string{"  IP ", "device", "Ip"}, []string{"ip", "device"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrimLower(tt.input))
		})
	}
}
