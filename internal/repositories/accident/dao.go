package accident

import (
	"database/sql"
	"time"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/output"
)

const (
	accidentsTable = "accidents"
	runsTable      = "runs"
)

// AccidentRow represents the database row for a consolidated accident
type AccidentRow struct {
	RunID     string          `db:"run_id"`
	NumAcc    string          `db:"num_acc"`
	Date      sql.NullString  `db:"accident_date"`
	Hour      sql.NullInt64   `db:"heure"`
	Minute    sql.NullInt64   `db:"minute"`
	Lat       sql.NullFloat64 `db:"latitude"`
	Long      sql.NullFloat64 `db:"longitude"`
	Dep       sql.NullString  `db:"dep"`
	Com       sql.NullString  `db:"com"`
	Weekday   sql.NullInt64   `db:"jour_semaine"`
	DayName   sql.NullString  `db:"nom_jour"`
	Month     sql.NullInt64   `db:"mois"`
	MonthName sql.NullString  `db:"mois_nom"`
	Quarter   sql.NullInt64   `db:"trimestre"`
	Weekend   int             `db:"est_weekend"`
	Season    sql.NullString  `db:"saison"`
	TimeOfDay sql.NullString  `db:"periode_journee"`

	LumDesc  sql.NullString `db:"lum_desc"`
	AtmDesc  sql.NullString `db:"atm_desc"`
	SurfDesc sql.NullString `db:"surf_desc"`
	ColDesc  sql.NullString `db:"col_desc"`
	CatrDesc sql.NullString `db:"catr_desc"`
	AggDesc  sql.NullString `db:"agg_desc"`
	ProfDesc sql.NullString `db:"prof_desc"`
	PlanDesc sql.NullString `db:"plan_desc"`

	Vma sql.NullFloat64 `db:"vma"`
	Nbv sql.NullFloat64 `db:"nbv"`

	Persons      int             `db:"nb_usagers"`
	Killed       int             `db:"nb_tues"`
	Hospitalized int             `db:"nb_blesses_hospitalises"`
	LightInjured int             `db:"nb_blesses_legers"`
	Unharmed     int             `db:"nb_indemnes"`
	Pedestrians  int             `db:"nb_pietons"`
	AgeMean      sql.NullFloat64 `db:"age_moyen"`
	AgeMin       sql.NullFloat64 `db:"age_min"`
	AgeMax       sql.NullFloat64 `db:"age_max"`
	MaleShare    float64         `db:"pct_hommes"`

	Vehicles         int `db:"nb_vehicules"`
	MainCategory     int `db:"catv_principal"`
	TwoWheeler       int `db:"implique_2roues"`
	HeavyGoods       int `db:"implique_pl"`
	PublicTransit    int `db:"implique_tc"`
	PersonalMobility int `db:"implique_edp"`

	SeverityScore    int    `db:"score_gravite"`
	SeverityCategory string `db:"categorie_gravite"`
	Fatal            int    `db:"accident_mortel"`
}

// RunRow represents the database row for a consolidation run
type RunRow struct {
	RunID      string                         `db:"run_id"`
	Year       int                            `db:"year"`
	Locale     string                         `db:"locale"`
	StartedAt  time.Time                      `db:"started_at"`
	FinishedAt time.Time                      `db:"finished_at"`
	Accidents  int                            `db:"accidents"`
	Manifest   database.JSON[output.Manifest] `db:"manifest"`
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(n models.Number) sql.NullFloat64 {
	return sql.NullFloat64{Float64: n.Value, Valid: n.Valid}
}

func nullInt(n models.Number) sql.NullInt64 {
	v, ok := n.Int()
	return sql.NullInt64{Int64: int64(v), Valid: ok}
}

func toNumber(n sql.NullFloat64) models.Number {
	if !n.Valid {
		return models.MissingNumber()
	}
	return models.NewNumber(n.Float64)
}

func intToNumber(n sql.NullInt64) models.Number {
	if !n.Valid {
		return models.MissingNumber()
	}
	return models.NewNumber(float64(n.Int64))
}

func toDate(s sql.NullString) models.Date {
	if !s.Valid {
		return models.Date{}
	}
	t, err := time.Parse(models.DateLayout, s.String)
	if err != nil {
		return models.Date{}
	}
	return models.NewDate(t)
}

// FromAccident converts a domain model to a database row
func FromAccident(runID string, a *models.ConsolidatedAccident) *AccidentRow {
	return &AccidentRow{
		RunID:     runID,
		NumAcc:    a.NumAcc,
		Date:      nullString(a.Date.String()),
		Hour:      nullInt(a.Hour),
		Minute:    nullInt(a.Minute),
		Lat:       nullFloat(a.Lat),
		Long:      nullFloat(a.Long),
		Dep:       nullString(a.Dep),
		Com:       nullString(a.Com),
		Weekday:   nullInt(a.Weekday),
		DayName:   nullString(a.DayName),
		Month:     nullInt(a.Month),
		MonthName: nullString(a.MonthName),
		Quarter:   nullInt(a.Quarter),
		Weekend:   a.Weekend,
		Season:    nullString(a.Season),
		TimeOfDay: nullString(a.TimeOfDay),

		LumDesc:  nullString(a.LumDesc),
		AtmDesc:  nullString(a.AtmDesc),
		SurfDesc: nullString(a.SurfDesc),
		ColDesc:  nullString(a.ColDesc),
		CatrDesc: nullString(a.CatrDesc),
		AggDesc:  nullString(a.AggDesc),
		ProfDesc: nullString(a.ProfDesc),
		PlanDesc: nullString(a.PlanDesc),

		Vma: nullFloat(a.Vma),
		Nbv: nullFloat(a.Nbv),

		Persons:      a.Persons,
		Killed:       a.Killed,
		Hospitalized: a.Hospitalized,
		LightInjured: a.LightInjured,
		Unharmed:     a.Unharmed,
		Pedestrians:  a.Pedestrians,
		AgeMean:      nullFloat(a.AgeMean),
		AgeMin:       nullFloat(a.AgeMin),
		AgeMax:       nullFloat(a.AgeMax),
		MaleShare:    a.MaleShare,

		Vehicles:         a.Vehicles,
		MainCategory:     a.MainCategory,
		TwoWheeler:       a.TwoWheeler,
		HeavyGoods:       a.HeavyGoods,
		PublicTransit:    a.PublicTransit,
		PersonalMobility: a.PersonalMobility,

		SeverityScore:    a.SeverityScore,
		SeverityCategory: a.SeverityCategory,
		Fatal:            a.Fatal,
	}
}

// ToAccident converts a database row to a domain model
func ToAccident(row *AccidentRow) models.ConsolidatedAccident {
	return models.ConsolidatedAccident{
		RunID:     row.RunID,
		NumAcc:    row.NumAcc,
		Date:      toDate(row.Date),
		Hour:      intToNumber(row.Hour),
		Minute:    intToNumber(row.Minute),
		Lat:       toNumber(row.Lat),
		Long:      toNumber(row.Long),
		Dep:       row.Dep.String,
		Com:       row.Com.String,
		Weekday:   intToNumber(row.Weekday),
		DayName:   row.DayName.String,
		Month:     intToNumber(row.Month),
		MonthName: row.MonthName.String,
		Quarter:   intToNumber(row.Quarter),
		Weekend:   row.Weekend,
		Season:    row.Season.String,
		TimeOfDay: row.TimeOfDay.String,

		LumDesc:  row.LumDesc.String,
		AtmDesc:  row.AtmDesc.String,
		SurfDesc: row.SurfDesc.String,
		ColDesc:  row.ColDesc.String,
		CatrDesc: row.CatrDesc.String,
		AggDesc:  row.AggDesc.String,
		ProfDesc: row.ProfDesc.String,
		PlanDesc: row.PlanDesc.String,

		Vma: toNumber(row.Vma),
		Nbv: toNumber(row.Nbv),

		PersonSummary: models.PersonSummary{
			Persons:      row.Persons,
			Killed:       row.Killed,
			Hospitalized: row.Hospitalized,
			LightInjured: row.LightInjured,
			Unharmed:     row.Unharmed,
			Pedestrians:  row.Pedestrians,
			AgeMean:      toNumber(row.AgeMean),
			AgeMin:       toNumber(row.AgeMin),
			AgeMax:       toNumber(row.AgeMax),
			MaleShare:    row.MaleShare,
		},
		VehicleSummary: models.VehicleSummary{
			Vehicles:         row.Vehicles,
			MainCategory:     row.MainCategory,
			TwoWheeler:       row.TwoWheeler,
			HeavyGoods:       row.HeavyGoods,
			PublicTransit:    row.PublicTransit,
			PersonalMobility: row.PersonalMobility,
		},

		SeverityScore:    row.SeverityScore,
		SeverityCategory: row.SeverityCategory,
		Fatal:            row.Fatal,
	}
}

// ToAccidents converts a slice of database rows to domain models
func ToAccidents(rows []AccidentRow) []models.ConsolidatedAccident {
	accidents := make([]models.ConsolidatedAccident, len(rows))
	for i := range rows {
		accidents[i] = ToAccident(&rows[i])
	}
	return accidents
}

// FromManifest converts a run manifest to a database row
func FromManifest(m *output.Manifest) *RunRow {
	return &RunRow{
		RunID:      m.RunID,
		Year:       m.Year,
		Locale:     m.Locale,
		StartedAt:  m.StartedAt.UTC(),
		FinishedAt: m.FinishedAt.UTC(),
		Accidents:  m.Stats.Accidents,
		Manifest:   database.JSON[output.Manifest]{Data: *m},
	}
}

// ToManifest converts a database row to a run manifest
func ToManifest(row *RunRow) *output.Manifest {
	m := row.Manifest.Data
	return &m
}
