package consolidate

import (
	"github.com/Ramsey-B/clover/pkg/codes"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/temporal"
)

// assemble builds the consolidated row for one accident. Person and vehicle
// summaries that have no match stay at their zero value, which is the
// zero-fill for every count and flag column. Age statistics stay missing.
func assemble(row accidentRow, persons map[string]models.PersonSummary, vehicles map[string]models.VehicleSummary, locale codes.Locale) models.ConsolidatedAccident {
	date := temporal.BuildDate(row.get("an"), row.get("mois"), row.get("jour"))
	hour, minute := temporal.ParseHourMinute(row.get("hrmn"))
	cal := temporal.CalendarOf(date, locale)

	a := models.ConsolidatedAccident{
		NumAcc:    row.key,
		Date:      date,
		Hour:      hour,
		Minute:    minute,
		Lat:       row.get("lat").Number(),
		Long:      row.get("long").Number(),
		Dep:       row.get("dep").Text(),
		Com:       row.get("com").Text(),
		Weekday:   cal.Weekday,
		DayName:   cal.DayName,
		Month:     cal.Month,
		MonthName: cal.MonthName,
		Quarter:   cal.Quarter,
		Weekend:   cal.Weekend,
		Season:    cal.Season,
		TimeOfDay: temporal.TimeOfDay(hour, locale),

		LumDesc:  codes.Lighting.Label(row.get("lum").Number(), locale),
		AtmDesc:  codes.Weather.Label(row.get("atm").Number(), locale),
		SurfDesc: codes.Surface.Label(row.get("surf").Number(), locale),
		ColDesc:  codes.Collision.Label(row.get("col").Number(), locale),
		CatrDesc: codes.RoadCategory.Label(row.get("catr").Number(), locale),
		AggDesc:  codes.Agglomeration.Label(row.get("agg").Number(), locale),
		ProfDesc: codes.Profile.Label(row.get("prof").Number(), locale),
		PlanDesc: codes.Plan.Label(row.get("plan").Number(), locale),

		Vma: row.get("vma").Number(),
		Nbv: row.get("nbv").Number(),
	}

	if p, ok := persons[row.key]; ok && row.key != "" {
		a.PersonSummary = p
	}
	if v, ok := vehicles[row.key]; ok && row.key != "" {
		a.VehicleSummary = v
	}

	score(&a, locale)
	return a
}

// score recomputes the severity fields from the victim counts.
func score(a *models.ConsolidatedAccident, locale codes.Locale) {
	a.SeverityScore = SeverityScore(a.Killed, a.Hospitalized, a.LightInjured)
	a.SeverityCategory = SeverityCategory(a.SeverityScore, locale)
	a.Fatal = models.Flag(a.Killed > 0)
}
