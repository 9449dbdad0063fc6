package consolidate

import (
	"strconv"

	"github.com/Gobusters/ectolinq"
	"github.com/Ramsey-B/clover/pkg/models"
)

// Column is one output column of the consolidated file.
type Column struct {
	Name string
	// Requires lists the source columns the value is derived from. The column
	// is omitted when any of them is absent from the joined input.
	Requires []string
	Value    func(a *models.ConsolidatedAccident) string
}

func itoa(v int) string {
	return strconv.Itoa(v)
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var outputColumns = []Column{
	{Name: "Num_Acc", Requires: []string{KeyColumn}, Value: func(a *models.ConsolidatedAccident) string { return a.NumAcc }},
	{Name: "date", Requires: []string{"an", "mois", "jour"}, Value: func(a *models.ConsolidatedAccident) string { return a.Date.String() }},
	{Name: "heure", Requires: []string{"hrmn"}, Value: func(a *models.ConsolidatedAccident) string { return a.Hour.String() }},
	{Name: "minute", Requires: []string{"hrmn"}, Value: func(a *models.ConsolidatedAccident) string { return a.Minute.String() }},
	{Name: "lat", Requires: []string{"lat"}, Value: func(a *models.ConsolidatedAccident) string { return a.Lat.String() }},
	{Name: "long", Requires: []string{"long"}, Value: func(a *models.ConsolidatedAccident) string { return a.Long.String() }},
	{Name: "dep", Requires: []string{"dep"}, Value: func(a *models.ConsolidatedAccident) string { return a.Dep }},
	{Name: "com", Requires: []string{"com"}, Value: func(a *models.ConsolidatedAccident) string { return a.Com }},
	{Name: "jour_semaine", Requires: []string{"an", "mois", "jour"}, Value: func(a *models.ConsolidatedAccident) string { return a.Weekday.String() }},
	{Name: "nom_jour", Requires: []string{"an", "mois", "jour"}, Value: func(a *models.ConsolidatedAccident) string { return a.DayName }},
	{Name: "mois_nom", Requires: []string{"an", "mois", "jour"}, Value: func(a *models.ConsolidatedAccident) string { return a.MonthName }},
	{Name: "trimestre", Requires: []string{"an", "mois", "jour"}, Value: func(a *models.ConsolidatedAccident) string { return a.Quarter.String() }},
	{Name: "est_weekend", Requires: []string{"an", "mois", "jour"}, Value: func(a *models.ConsolidatedAccident) string { return itoa(a.Weekend) }},
	{Name: "periode_journee", Requires: []string{"hrmn"}, Value: func(a *models.ConsolidatedAccident) string { return a.TimeOfDay }},
	{Name: "lum_desc", Requires: []string{"lum"}, Value: func(a *models.ConsolidatedAccident) string { return a.LumDesc }},
	{Name: "atm_desc", Requires: []string{"atm"}, Value: func(a *models.ConsolidatedAccident) string { return a.AtmDesc }},
	{Name: "surf_desc", Requires: []string{"surf"}, Value: func(a *models.ConsolidatedAccident) string { return a.SurfDesc }},
	{Name: "col_desc", Requires: []string{"col"}, Value: func(a *models.ConsolidatedAccident) string { return a.ColDesc }},
	{Name: "catr_desc", Requires: []string{"catr"}, Value: func(a *models.ConsolidatedAccident) string { return a.CatrDesc }},
	{Name: "agg_desc", Requires: []string{"agg"}, Value: func(a *models.ConsolidatedAccident) string { return a.AggDesc }},
	{Name: "vma", Requires: []string{"vma"}, Value: func(a *models.ConsolidatedAccident) string { return a.Vma.String() }},
	{Name: "nbv", Requires: []string{"nbv"}, Value: func(a *models.ConsolidatedAccident) string { return a.Nbv.String() }},
	{Name: "nb_usagers", Value: func(a *models.ConsolidatedAccident) string { return itoa(a.Persons) }},
	{Name: "nb_tues", Value: func(a *models.ConsolidatedAccident) string { return itoa(a.Killed) }},
	{Name: "nb_blesses_hospitalises", Value: func(a *models.ConsolidatedAccident) string { return itoa(a.Hospitalized) }},
	{Name: "nb_blesses_legers", Value: func(a *models.ConsolidatedAccident) string { return itoa(a.LightInjured) }},
	{Name: "nb_indemnes", Value: func(a *models.ConsolidatedAccident) string { return itoa(a.Unharmed) }},
	{Name: "nb_pietons", Value: func(a *models.ConsolidatedAccident) string { return itoa(a.Pedestrians) }},
	{Name: "age_moyen", Value: func(a *models.ConsolidatedAccident) string { return a.AgeMean.String() }},
	{Name: "pct_hommes", Value: func(a *models.ConsolidatedAccident) string { return ftoa(a.MaleShare) }},
	{Name: "nb_vehicules", Value: func(a *models.ConsolidatedAccident) string { return itoa(a.Vehicles) }},
	{Name: "implique_2roues", Value: func(a *models.ConsolidatedAccident) string { return itoa(a.TwoWheeler) }},
	{Name: "implique_pl", Value: func(a *models.ConsolidatedAccident) string { return itoa(a.HeavyGoods) }},
	{Name: "implique_tc", Value: func(a *models.ConsolidatedAccident) string { return itoa(a.PublicTransit) }},
	{Name: "implique_edp", Value: func(a *models.ConsolidatedAccident) string { return itoa(a.PersonalMobility) }},
	{Name: "score_gravite", Value: func(a *models.ConsolidatedAccident) string { return itoa(a.SeverityScore) }},
	{Name: "categorie_gravite", Value: func(a *models.ConsolidatedAccident) string { return a.SeverityCategory }},
	{Name: "accident_mortel", Value: func(a *models.ConsolidatedAccident) string { return itoa(a.Fatal) }},
}

// OutputColumns returns every output column in file order.
func OutputColumns() []Column {
	out := make([]Column, len(outputColumns))
	copy(out, outputColumns)
	return out
}

// selectColumns keeps the output columns whose source columns are all present.
func selectColumns(available map[string]bool) []Column {
	return ectolinq.Filter(outputColumns, func(c Column) bool {
		for _, req := range c.Requires {
			if !available[req] {
				return false
			}
		}
		return true
	})
}

// ColumnNames returns the names of the given columns.
func ColumnNames(columns []Column) []string {
	return ectolinq.Map(columns, func(c Column) string {
		return c.Name
	})
}

// Row renders an accident as cells for the given columns.
func Row(columns []Column, a *models.ConsolidatedAccident) []string {
	return ectolinq.Map(columns, func(c Column) string {
		return c.Value(a)
	})
}
