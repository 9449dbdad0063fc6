package analytics

import (
	"fmt"
	"sort"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Group is the aggregate of one value of a breakdown dimension.
type Group struct {
	Label             string  `json:"label"`
	Accidents         int     `json:"accidents"`
	Killed            int     `json:"killed"`
	Hospitalized      int     `json:"hospitalized"`
	MeanSeverityScore float64 `json:"mean_severity_score"`
}

type dimension func(a *models.ConsolidatedAccident) string

var dimensions = map[string]dimension{
	"dep":               func(a *models.ConsolidatedAccident) string { return a.Dep },
	"lum":               func(a *models.ConsolidatedAccident) string { return a.LumDesc },
	"atm":               func(a *models.ConsolidatedAccident) string { return a.AtmDesc },
	"surf":              func(a *models.ConsolidatedAccident) string { return a.SurfDesc },
	"col":               func(a *models.ConsolidatedAccident) string { return a.ColDesc },
	"catr":              func(a *models.ConsolidatedAccident) string { return a.CatrDesc },
	"agg":               func(a *models.ConsolidatedAccident) string { return a.AggDesc },
	"prof":              func(a *models.ConsolidatedAccident) string { return a.ProfDesc },
	"plan":              func(a *models.ConsolidatedAccident) string { return a.PlanDesc },
	"saison":            func(a *models.ConsolidatedAccident) string { return a.Season },
	"mois":              func(a *models.ConsolidatedAccident) string { return a.MonthName },
	"nom_jour":          func(a *models.ConsolidatedAccident) string { return a.DayName },
	"est_weekend":       func(a *models.ConsolidatedAccident) string { return fmt.Sprint(a.Weekend) },
	"periode_journee":   func(a *models.ConsolidatedAccident) string { return a.TimeOfDay },
	"categorie_gravite": func(a *models.ConsolidatedAccident) string { return a.SeverityCategory },
}

// Dimensions lists the supported breakdown dimensions.
func Dimensions() []string {
	out := make([]string, 0, len(dimensions))
	for d := range dimensions {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// ErrUnknownDimension is returned by Breakdown for unsupported dimensions.
type ErrUnknownDimension struct {
	Dimension string
}

func (e ErrUnknownDimension) Error() string {
	return fmt.Sprintf("unknown breakdown dimension '%s'", e.Dimension)
}

// Breakdown groups accidents by a dimension. Groups are ordered by accident
// count, then by label. A limit of 0 returns every group. Rows with an empty
// value are skipped.
func Breakdown(accidents []models.ConsolidatedAccident, name string, limit int) ([]Group, error) {
	dim, ok := dimensions[name]
	if !ok {
		return nil, ErrUnknownDimension{Dimension: name}
	}

	type acc struct {
		group    Group
		scoreSum int
	}
	groups := map[string]*acc{}
	for i := range accidents {
		a := &accidents[i]
		label := dim(a)
		if label == "" {
			continue
		}
		g, ok := groups[label]
		if !ok {
			g = &acc{group: Group{Label: label}}
			groups[label] = g
		}
		g.group.Accidents++
		g.group.Killed += a.Killed
		g.group.Hospitalized += a.Hospitalized
		g.scoreSum += a.SeverityScore
	}

	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		g.group.MeanSeverityScore = round(float64(g.scoreSum)/float64(g.group.Accidents), 2)
		out = append(out, g.group)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Accidents != out[j].Accidents {
			return out[i].Accidents > out[j].Accidents
		}
		return out[i].Label < out[j].Label
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Bucket is a labelled count.
type Bucket struct {
	Label string `json:"label" yaml:"label"`
	Count int    `json:"count" yaml:"count"`
}

// AgeDistribution counts persons per age bucket, in the order of labels.
// Persons without a bucket are counted under "unknown".
func AgeDistribution(persons []models.Person, labels []string) []Bucket {
	counts := make(map[string]int, len(labels))
	unknown := 0
	for _, p := range persons {
		if p.AgeBucket == "" {
			unknown++
			continue
		}
		counts[p.AgeBucket]++
	}

	out := make([]Bucket, 0, len(labels)+1)
	for _, l := range labels {
		out = append(out, Bucket{Label: l, Count: counts[l]})
	}
	if unknown > 0 {
		out = append(out, Bucket{Label: "unknown", Count: unknown})
	}
	return out
}
