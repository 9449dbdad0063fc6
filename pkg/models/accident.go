package models

// ConsolidatedAccident is one flattened output row per accident id.
type ConsolidatedAccident struct {
	RunID  string `json:"run_id,omitempty"`
	NumAcc string `json:"Num_Acc"`

	Date      Date   `json:"date"`
	Hour      Number `json:"heure"`
	Minute    Number `json:"minute"`
	Lat       Number `json:"lat"`
	Long      Number `json:"long"`
	Dep       string `json:"dep"`
	Com       string `json:"com"`
	Weekday   Number `json:"jour_semaine"`
	DayName   string `json:"nom_jour"`
	Month     Number `json:"mois"`
	MonthName string `json:"mois_nom"`
	Quarter   Number `json:"trimestre"`
	Weekend   int    `json:"est_weekend"`
	Season    string `json:"saison"`
	TimeOfDay string `json:"periode_journee"`

	LumDesc  string `json:"lum_desc"`
	AtmDesc  string `json:"atm_desc"`
	SurfDesc string `json:"surf_desc"`
	ColDesc  string `json:"col_desc"`
	CatrDesc string `json:"catr_desc"`
	AggDesc  string `json:"agg_desc"`
	ProfDesc string `json:"prof_desc"`
	PlanDesc string `json:"plan_desc"`

	Vma Number `json:"vma"`
	Nbv Number `json:"nbv"`

	PersonSummary
	VehicleSummary

	SeverityScore    int    `json:"score_gravite"`
	SeverityCategory string `json:"categorie_gravite"`
	Fatal            int    `json:"accident_mortel"`
}

// PersonSummary is the per-accident reduction of the person records.
type PersonSummary struct {
	Persons      int     `json:"nb_usagers"`
	Killed       int     `json:"nb_tues"`
	Hospitalized int     `json:"nb_blesses_hospitalises"`
	LightInjured int     `json:"nb_blesses_legers"`
	Unharmed     int     `json:"nb_indemnes"`
	Pedestrians  int     `json:"nb_pietons"`
	AgeMean      Number  `json:"age_moyen"`
	AgeMin       Number  `json:"age_min"`
	AgeMax       Number  `json:"age_max"`
	MaleShare    float64 `json:"pct_hommes"`
}

// VehicleSummary is the per-accident reduction of the vehicle records.
type VehicleSummary struct {
	Vehicles         int `json:"nb_vehicules"`
	MainCategory     int `json:"catv_principal"`
	TwoWheeler       int `json:"implique_2roues"`
	HeavyGoods       int `json:"implique_pl"`
	PublicTransit    int `json:"implique_tc"`
	PersonalMobility int `json:"implique_edp"`
}

// Person is one normalised person record.
type Person struct {
	NumAcc    string `json:"Num_Acc"`
	Severity  Number `json:"grav"`
	Role      Number `json:"catu"`
	Sex       Number `json:"sexe"`
	Age       Number `json:"age"`
	AgeBucket string `json:"tranche_age"`
}
