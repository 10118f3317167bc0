package domain

import (
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var sizeTokenExpr = regexp.MustCompile(`\d+\.?\d*`)

// SizeSpec is a width x height pair in arbitrary units.
type SizeSpec struct {
	Width  float64
	Height float64
	// Tokens keeps the numeric text as it appeared, used for fuzzy matching.
	Tokens []string
}

// NewSizeSpec builds a spec from two numeric tokens.
func NewSizeSpec(width, height string) (SizeSpec, error) {
	w, err := strconv.ParseFloat(width, 64)
	if err != nil {
		return SizeSpec{}, fmt.Errorf("parse width %q: %w", width, err)
	}
	h, err := strconv.ParseFloat(height, 64)
	if err != nil {
		return SizeSpec{}, fmt.Errorf("parse height %q: %w", height, err)
	}
	return SizeSpec{Width: w, Height: h, Tokens: []string{width, height}}, nil
}

// ParseSizeSpec reads "WxH" (comma decimals allowed, surrounding spaces ignored).
func ParseSizeSpec(raw string) Field[SizeSpec] {
	text := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	parts := strings.Split(strings.ToLower(text), "x")
	if len(parts) < 2 {
		return Malformed[SizeSpec](fmt.Sprintf("size %q has no x separator", raw))
	}
	spec, err := NewSizeSpec(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
	if err != nil {
		return Malformed[SizeSpec](err.Error())
	}
	return Ok(spec)
}

// Smaller returns min(width, height).
func (s SizeSpec) Smaller() float64 {
	return math.Min(s.Width, s.Height)
}

// String renders the spec as WxH using the original tokens.
func (s SizeSpec) String() string {
	if len(s.Tokens) >= 2 {
		return s.Tokens[0] + "x" + s.Tokens[1]
	}
	return strconv.FormatFloat(s.Width, 'f', -1, 64) + "x" + strconv.FormatFloat(s.Height, 'f', -1, 64)
}

// SizeTokens extracts every numeric token from text.
func SizeTokens(text string) []string {
	return sizeTokenExpr.FindAllString(text, -1)
}

// FileNameSizeTokens extracts numeric tokens from the first word of a file
// name with its extension stripped, e.g. "12x8 kitchen.png" -> [12 8].
func FileNameSizeTokens(name string) []string {
	return SizeTokens(fileNameSizeWord(name))
}

// fileNameSizeWord is the first word of a file name with its extension stripped.
func fileNameSizeWord(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	word, _, _ := strings.Cut(strings.TrimSpace(stem), " ")
	return word
}

// SameSize compares token multisets, so "12x8" equals "8x12".
func SameSize(a, b []string) bool {
	if len(a) == 0 || len(a) != len(b) {
		return false
	}
	x := slices.Clone(a)
	y := slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}
