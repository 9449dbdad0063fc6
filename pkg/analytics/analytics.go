// Package analytics computes the read-side aggregates served over the API:
// KPIs, group breakdowns, location hotspots and the hour by weekday heatmap.
package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/Gobusters/ectolinq"
	"github.com/Ramsey-B/clover/pkg/models"
)

// Metropolitan France bounds used to discard misplaced coordinates.
const (
	MinLat  = 41.0
	MaxLat  = 52.0
	MinLong = -5.0
	MaxLong = 10.0
)

// Filter narrows the accident set. Zero values disable a criterion.
type Filter struct {
	From        models.Date
	To          models.Date
	Departments []string
	// ExcludeFatal drops accidents with at least one death; the other
	// exclusions drop accidents with at least one victim of that kind.
	ExcludeFatal        bool
	ExcludeHospitalized bool
	ExcludeLightInjury  bool
	// Metropolitan drops rows whose coordinates fall outside mainland bounds.
	// Rows without coordinates are kept.
	Metropolitan bool
}

func (f Filter) match(a models.ConsolidatedAccident) bool {
	if f.From.Valid && (!a.Date.Valid || a.Date.Time.Before(f.From.Time)) {
		return false
	}
	if f.To.Valid && (!a.Date.Valid || a.Date.Time.After(f.To.Time)) {
		return false
	}
	if len(f.Departments) > 0 && !ectolinq.Contains(f.Departments, a.Dep) {
		return false
	}
	if f.ExcludeFatal && a.Fatal == 1 {
		return false
	}
	if f.ExcludeHospitalized && a.Hospitalized > 0 {
		return false
	}
	if f.ExcludeLightInjury && a.LightInjured > 0 {
		return false
	}
	if f.Metropolitan {
		if a.Lat.Valid && (a.Lat.Value < MinLat || a.Lat.Value > MaxLat) {
			return false
		}
		if a.Long.Valid && (a.Long.Value < MinLong || a.Long.Value > MaxLong) {
			return false
		}
	}
	return true
}

// Apply returns the accidents matching the filter, in input order.
func (f Filter) Apply(accidents []models.ConsolidatedAccident) []models.ConsolidatedAccident {
	return ectolinq.Filter(accidents, f.match)
}

// Key identifies the filter for caching.
func (f Filter) Key() string {
	deps := append([]string(nil), f.Departments...)
	sort.Strings(deps)
	return fmt.Sprintf("from=%s|to=%s|dep=%v|xf=%t|xh=%t|xl=%t|metro=%t",
		f.From, f.To, deps, f.ExcludeFatal, f.ExcludeHospitalized, f.ExcludeLightInjury, f.Metropolitan)
}

type KPIs struct {
	Accidents         int     `json:"accidents" yaml:"accidents"`
	FatalAccidents    int     `json:"fatal_accidents" yaml:"fatal_accidents"`
	Killed            int     `json:"killed" yaml:"killed"`
	Hospitalized      int     `json:"hospitalized" yaml:"hospitalized"`
	LightInjured      int     `json:"light_injured" yaml:"light_injured"`
	Persons           int     `json:"persons" yaml:"persons"`
	Vehicles          int     `json:"vehicles" yaml:"vehicles"`
	FatalityRate      float64 `json:"fatality_rate" yaml:"fatality_rate"`
	MeanSeverityScore float64 `json:"mean_severity_score" yaml:"mean_severity_score"`
}

func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// ComputeKPIs sums the headline figures of an accident set.
func ComputeKPIs(accidents []models.ConsolidatedAccident) KPIs {
	k := KPIs{Accidents: len(accidents)}
	scoreSum := 0
	for _, a := range accidents {
		k.FatalAccidents += a.Fatal
		k.Killed += a.Killed
		k.Hospitalized += a.Hospitalized
		k.LightInjured += a.LightInjured
		k.Persons += a.Persons
		k.Vehicles += a.Vehicles
		scoreSum += a.SeverityScore
	}
	if k.Accidents > 0 {
		k.FatalityRate = round(float64(k.FatalAccidents)/float64(k.Accidents), 4)
		k.MeanSeverityScore = round(float64(scoreSum)/float64(k.Accidents), 2)
	}
	return k
}
