package analytics

import (
	"sort"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Hotspot is a cell of the 3-decimal latitude/longitude grid.
type Hotspot struct {
	Lat               float64 `json:"lat"`
	Long              float64 `json:"long"`
	Accidents         int     `json:"accidents"`
	Killed            int     `json:"killed"`
	Hospitalized      int     `json:"hospitalized"`
	MeanSeverityScore float64 `json:"mean_severity_score"`
	Dep               string  `json:"dep"`
	Com               string  `json:"com"`
}

// Hotspots groups geolocated accidents inside metropolitan bounds by rounded
// coordinates and returns the busiest cells first.
func Hotspots(accidents []models.ConsolidatedAccident, limit int) []Hotspot {
	type cell struct {
		lat, long float64
	}
	type acc struct {
		spot     Hotspot
		scoreSum int
	}

	cells := map[cell]*acc{}
	for _, a := range accidents {
		if !a.Lat.Valid || !a.Long.Valid {
			continue
		}
		if a.Lat.Value < MinLat || a.Lat.Value > MaxLat || a.Long.Value < MinLong || a.Long.Value > MaxLong {
			continue
		}

		key := cell{lat: round(a.Lat.Value, 3), long: round(a.Long.Value, 3)}
		h, ok := cells[key]
		if !ok {
			h = &acc{spot: Hotspot{Lat: key.lat, Long: key.long, Dep: a.Dep, Com: a.Com}}
			cells[key] = h
		}
		h.spot.Accidents++
		h.spot.Killed += a.Killed
		h.spot.Hospitalized += a.Hospitalized
		h.scoreSum += a.SeverityScore
	}

	out := make([]Hotspot, 0, len(cells))
	for _, h := range cells {
		h.spot.MeanSeverityScore = round(float64(h.scoreSum)/float64(h.spot.Accidents), 2)
		out = append(out, h.spot)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Accidents != out[j].Accidents {
			return out[i].Accidents > out[j].Accidents
		}
		if out[i].Lat != out[j].Lat {
			return out[i].Lat < out[j].Lat
		}
		return out[i].Long < out[j].Long
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Heatmap holds accident counts and mean severity per hour (rows) and weekday
// (columns, 0=Monday).
type Heatmap struct {
	Counts            [24][7]int     `json:"counts"`
	MeanSeverityScore [24][7]float64 `json:"mean_severity_score"`
}

// HourWeekday builds the heatmap. Accidents without an hour or a date are skipped.
func HourWeekday(accidents []models.ConsolidatedAccident) Heatmap {
	var h Heatmap
	var sums [24][7]int
	for _, a := range accidents {
		hour, ok := a.Hour.Int()
		if !ok || hour < 0 || hour > 23 {
			continue
		}
		day, ok := a.Weekday.Int()
		if !ok || day < 0 || day > 6 {
			continue
		}
		h.Counts[hour][day]++
		sums[hour][day] += a.SeverityScore
	}

	for hour := range h.Counts {
		for day := range h.Counts[hour] {
			if c := h.Counts[hour][day]; c > 0 {
				h.MeanSeverityScore[hour][day] = round(float64(sums[hour][day])/float64(c), 2)
			}
		}
	}
	return h
}
