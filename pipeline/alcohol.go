package pipeline

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// AlcoholLevel is one of the three canonical alcohol consumption labels.
type AlcoholLevel string

const (
	AlcoholLow    AlcoholLevel = "Low"
	AlcoholMedium AlcoholLevel = "Medium"
	AlcoholHigh   AlcoholLevel = "High"
)

func (a AlcoholLevel) String() string { return string(a) }

// AlcoholLevels returns the canonical labels in ordinal order.
func AlcoholLevels() []AlcoholLevel {
	return []AlcoholLevel{AlcoholLow, AlcoholMedium, AlcoholHigh}
}

// alcoholSynonyms is keyed by case-folded label.
var alcoholSynonyms = map[string]AlcoholLevel{
	"low":    AlcoholLow,
	"medium": AlcoholMedium,
	"high":   AlcoholHigh,
	"bajo":   AlcoholLow,
	"medio":  AlcoholMedium,
	"alto":   AlcoholHigh,
}

// NormalizeAlcohol maps an English or Spanish label to its canonical form.
func NormalizeAlcohol(label string) (AlcoholLevel, bool) {
	// a Caser must not be shared between goroutines
	key := cases.Fold().String(norm.NFC.String(strings.TrimSpace(label)))
	level, ok := alcoholSynonyms[key]
	return level, ok
}

// ParseAlcohol validates a raw alcohol field value.
func ParseAlcohol(value any) (AlcoholLevel, error) {
	label, ok := value.(string)
	if !ok {
		return "", fieldError(InvalidCategory, FieldAlcohol, value)
	}
	level, ok := NormalizeAlcohol(label)
	if !ok {
		return "", fieldError(InvalidCategory, FieldAlcohol, label)
	}
	return level, nil
}
