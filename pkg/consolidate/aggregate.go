package consolidate

import (
	"math"
	"sort"

	"github.com/Ramsey-B/clover/pkg/codes"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/table"
)

type ageBin struct {
	lower, upper float64
	label        string
}

var ageBins = []ageBin{
	{0, 18, "0-17"},
	{18, 25, "18-24"},
	{25, 35, "25-34"},
	{35, 45, "35-44"},
	{45, 55, "45-54"},
	{55, 65, "55-64"},
	{65, 75, "65-74"},
	{75, 150, "75+"},
}

// AgeBuckets returns the age bucket labels in ascending order.
func AgeBuckets() []string {
	out := make([]string, len(ageBins))
	for i, b := range ageBins {
		out[i] = b.label
	}
	return out
}

// AgeBucket assigns an age to its bucket. Missing or out of range ages have no bucket.
func AgeBucket(age models.Number) string {
	if !age.Valid {
		return ""
	}
	for _, b := range ageBins {
		if age.Value >= b.lower && age.Value < b.upper {
			return b.label
		}
	}
	return ""
}

// normalizePersons turns the person table into person records. Rows without
// an accident id cannot be grouped and are skipped.
func normalizePersons(usagers *table.Table, referenceYear int) []models.Person {
	persons := make([]models.Person, 0, usagers.Len())
	for i := 0; i < usagers.Len(); i++ {
		key := usagers.Get(i, KeyColumn).Key()
		if key == "" {
			continue
		}

		age := models.MissingNumber()
		if birth := usagers.Get(i, "an_nais").Number(); birth.Valid {
			age = models.NewNumber(float64(referenceYear) - birth.Value)
		}

		persons = append(persons, models.Person{
			NumAcc:    key,
			Severity:  usagers.Get(i, "grav").Number(),
			Role:      usagers.Get(i, "catu").Number(),
			Sex:       usagers.Get(i, "sexe").Number(),
			Age:       age,
			AgeBucket: AgeBucket(age),
		})
	}
	return persons
}

func is(n models.Number, code int) bool {
	c, ok := n.Int()
	return ok && c == code
}

// aggregatePersons reduces person records to one summary per accident id.
// Only ids that have at least one person appear in the result.
func aggregatePersons(persons []models.Person) map[string]models.PersonSummary {
	type acc struct {
		summary models.PersonSummary
		males   int
		ages    []float64
	}

	groups := make(map[string]*acc)
	for _, p := range persons {
		g, ok := groups[p.NumAcc]
		if !ok {
			g = &acc{}
			groups[p.NumAcc] = g
		}

		g.summary.Persons++
		switch {
		case is(p.Severity, codes.SeverityKilled):
			g.summary.Killed++
		case is(p.Severity, codes.SeverityHospitalized):
			g.summary.Hospitalized++
		case is(p.Severity, codes.SeverityLightInjury):
			g.summary.LightInjured++
		case is(p.Severity, codes.SeverityUnharmed):
			g.summary.Unharmed++
		}
		if is(p.Role, codes.RolePedestrian) {
			g.summary.Pedestrians++
		}
		if is(p.Sex, codes.SexMale) {
			g.males++
		}
		if p.Age.Valid {
			g.ages = append(g.ages, p.Age.Value)
		}
	}

	out := make(map[string]models.PersonSummary, len(groups))
	for key, g := range groups {
		s := g.summary
		if s.Persons > 0 {
			s.MaleShare = models.NewNumber(float64(g.males) / float64(s.Persons)).Round(2).Value
		}
		if len(g.ages) > 0 {
			sum, lo, hi := 0.0, math.Inf(1), math.Inf(-1)
			for _, a := range g.ages {
				sum += a
				lo = math.Min(lo, a)
				hi = math.Max(hi, a)
			}
			s.AgeMean = models.NewNumber(sum / float64(len(g.ages))).Round(2)
			s.AgeMin = models.NewNumber(lo).Round(2)
			s.AgeMax = models.NewNumber(hi).Round(2)
		}
		out[key] = s
	}
	return out
}

// mainCategory returns the most frequent vehicle category. Ties go to the
// category encountered first. Groups without a valid category yield 0.
func mainCategory(categories []models.Number) int {
	type count struct {
		code  int
		n     int
		first int
	}

	counts := make(map[int]*count)
	for i, c := range categories {
		code, ok := c.Int()
		if !ok {
			continue
		}
		if existing, ok := counts[code]; ok {
			existing.n++
			continue
		}
		counts[code] = &count{code: code, n: 1, first: i}
	}
	if len(counts) == 0 {
		return 0
	}

	ranked := make([]*count, 0, len(counts))
	for _, c := range counts {
		ranked = append(ranked, c)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].n != ranked[j].n {
			return ranked[i].n > ranked[j].n
		}
		return ranked[i].first < ranked[j].first
	})
	return ranked[0].code
}

func involves(set codes.CodeSet, categories []models.Number) int {
	for _, c := range categories {
		if code, ok := c.Int(); ok && set.Contains(code) {
			return 1
		}
	}
	return 0
}

// aggregateVehicles reduces vehicle rows to one summary per accident id. When
// the vehicle table is empty every person accident id gets a zero summary.
func aggregateVehicles(vehicules *table.Table, persons []models.Person) map[string]models.VehicleSummary {
	if vehicules.Len() == 0 {
		out := make(map[string]models.VehicleSummary)
		for _, p := range persons {
			out[p.NumAcc] = models.VehicleSummary{}
		}
		return out
	}

	groups := make(map[string][]models.Number)
	for i := 0; i < vehicules.Len(); i++ {
		key := vehicules.Get(i, KeyColumn).Key()
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], vehicules.Get(i, "catv").Number())
	}

	out := make(map[string]models.VehicleSummary, len(groups))
	for key, categories := range groups {
		out[key] = models.VehicleSummary{
			Vehicles:         len(categories),
			MainCategory:     mainCategory(categories),
			TwoWheeler:       involves(codes.TwoWheelers, categories),
			HeavyGoods:       involves(codes.HeavyGoods, categories),
			PublicTransit:    involves(codes.PublicTransit, categories),
			PersonalMobility: involves(codes.PersonalMobility, categories),
		}
	}
	return out
}
