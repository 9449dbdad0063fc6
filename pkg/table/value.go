package table

import (
	"math"
	"strconv"
	"strings"

	"github.com/Ramsey-B/clover/pkg/models"
)

type Kind int

const (
	KindMissing Kind = iota
	KindNumber
	KindText
)

// Value is one coerced cell. Raw always holds the trimmed source text.
type Value struct {
	Kind Kind
	Num  float64
	Raw  string
}

var missingTokens = map[string]struct{}{
	"":     {},
	"na":   {},
	"NA":   {},
	"N/A":  {},
	"nan":  {},
	"NaN":  {},
	"None": {},
	"null": {},
	"NULL": {},
}

// IsMissingToken reports whether s is one of the placeholder tokens treated as an empty cell.
func IsMissingToken(s string) bool {
	_, ok := missingTokens[strings.TrimSpace(s)]
	return ok
}

// ParseNumber parses text leniently: whitespace is stripped and the given
// decimal separator is normalised to '.'. Non-finite results are rejected.
func ParseNumber(text string, decimal rune) (float64, bool) {
	raw := strings.TrimSpace(text)
	if raw == "" || IsMissingToken(raw) {
		return 0, false
	}
	if decimal != 0 && decimal != '.' {
		raw = strings.ReplaceAll(raw, string(decimal), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Coerce turns a raw cell into a number when it parses, a missing value for
// placeholder tokens, and leaves everything else as text.
func Coerce(raw string, decimal rune) Value {
	trimmed := strings.TrimSpace(raw)
	if IsMissingToken(trimmed) {
		return Value{Kind: KindMissing, Raw: trimmed}
	}
	if f, ok := ParseNumber(trimmed, decimal); ok {
		return Value{Kind: KindNumber, Num: f, Raw: trimmed}
	}
	return Value{Kind: KindText, Raw: trimmed}
}

func Missing() Value {
	return Value{Kind: KindMissing}
}

func (v Value) IsMissing() bool {
	return v.Kind == KindMissing
}

// Number returns the numeric view of the cell; text and missing cells are missing numbers.
func (v Value) Number() models.Number {
	if v.Kind != KindNumber {
		return models.MissingNumber()
	}
	return models.NewNumber(v.Num)
}

// Text returns the source text, or "" for missing cells.
func (v Value) Text() string {
	if v.Kind == KindMissing {
		return ""
	}
	return v.Raw
}

// Key canonicalises the cell for joins: integral numbers lose any decimal
// suffix so "12" and "12,0" meet on the same key.
func (v Value) Key() string {
	switch v.Kind {
	case KindNumber:
		if v.Num == math.Trunc(v.Num) && math.Abs(v.Num) < 1<<53 {
			return strconv.FormatInt(int64(v.Num), 10)
		}
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindText:
		return v.Raw
	default:
		return ""
	}
}
