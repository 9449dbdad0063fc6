package consolidate

import (
	"math"

	"github.com/Ramsey-B/clover/pkg/codes"
)

// Severity weights per victim.
const (
	WeightKilled       = 100
	WeightHospitalized = 30
	WeightLightInjury  = 10
)

// SeverityScore weighs the victim counts of one accident.
func SeverityScore(killed, hospitalized, lightInjured int) int {
	return WeightKilled*killed + WeightHospitalized*hospitalized + WeightLightInjury*lightInjured
}

type severityBin struct {
	lower  float64
	en, fr string
}

// severityBins are right-open: a score equal to a lower bound belongs to that bin.
var severityBins = []severityBin{
	{0, "Property damage only", "Matériel uniquement"},
	{10, "Minor", "Léger"},
	{50, "Serious", "Grave"},
	{200, "Very serious", "Très grave"},
}

// SeverityCategory bins a score. Negative scores have no category.
func SeverityCategory(score int, locale codes.Locale) string {
	label := ""
	s := float64(score)
	for i, b := range severityBins {
		upper := math.Inf(1)
		if i+1 < len(severityBins) {
			upper = severityBins[i+1].lower
		}
		if s >= b.lower && s < upper {
			label = b.en
			if locale == codes.LocaleFR {
				label = b.fr
			}
			break
		}
	}
	return label
}

// SeverityCategories returns the category labels from least to most severe.
func SeverityCategories(locale codes.Locale) []string {
	out := make([]string, len(severityBins))
	for i, b := range severityBins {
		out[i] = b.en
		if locale == codes.LocaleFR {
			out[i] = b.fr
		}
	}
	return out
}
