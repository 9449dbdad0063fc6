// Package codes holds the fixed code → label tables of the accident files.
// Tables are only read through their methods and cannot be modified after init.
package codes

import (
	"fmt"
	"sort"

	"github.com/Ramsey-B/clover/pkg/models"
)

type Locale string

const (
	LocaleEN Locale = "en"
	LocaleFR Locale = "fr"
)

// ParseLocale returns the locale for s, or an error for unknown locales.
func ParseLocale(s string) (Locale, error) {
	switch Locale(s) {
	case LocaleEN, "":
		return LocaleEN, nil
	case LocaleFR:
		return LocaleFR, nil
	default:
		return "", fmt.Errorf("unsupported label locale %q (use 'en' or 'fr')", s)
	}
}

// NotSpecified is the label for absent, missing, or unknown codes.
func NotSpecified(locale Locale) string {
	if locale == LocaleFR {
		return "Non spécifié"
	}
	return "Not specified"
}

type label struct {
	en string
	fr string
}

func (l label) in(locale Locale) string {
	if locale == LocaleFR {
		return l.fr
	}
	return l.en
}

// Table maps integer codes to labels.
type Table struct {
	name   string
	labels map[int]label
}

func newTable(name string, labels map[int]label) *Table {
	return &Table{name: name, labels: labels}
}

func (t *Table) Name() string {
	return t.name
}

// Label returns the label for code, falling back to NotSpecified.
func (t *Table) Label(code models.Number, locale Locale) string {
	c, ok := code.Int()
	if !ok {
		return NotSpecified(locale)
	}
	l, ok := t.labels[c]
	if !ok {
		return NotSpecified(locale)
	}
	return l.in(locale)
}

// Has reports whether code is documented in the table.
func (t *Table) Has(code int) bool {
	_, ok := t.labels[code]
	return ok
}

// Codes returns the documented codes in ascending order.
func (t *Table) Codes() []int {
	out := make([]int, 0, len(t.labels))
	for c := range t.labels {
		out = append(out, c)
	}
	sort.Ints(out)
	return out
}

var (
	Lighting = newTable("lum", map[int]label{
		1: {"Daylight", "Plein jour"},
		2: {"Dawn or dusk", "Crépuscule ou aube"},
		3: {"Night without street lighting", "Nuit sans éclairage public"},
		4: {"Night with street lighting off", "Nuit avec éclairage public non allumé"},
		5: {"Night with street lighting on", "Nuit avec éclairage public allumé"},
	})

	Weather = newTable("atm", map[int]label{
		1: {"Normal", "Normale"},
		2: {"Light rain", "Pluie légère"},
		3: {"Heavy rain", "Pluie forte"},
		4: {"Snow or hail", "Neige - grêle"},
		5: {"Fog or smoke", "Brouillard - fumée"},
		6: {"Strong wind or storm", "Vent fort - tempête"},
		7: {"Glare", "Temps éblouissant"},
		8: {"Overcast", "Temps couvert"},
		9: {"Other", "Autre"},
	})

	Collision = newTable("col", map[int]label{
		1: {"Two vehicles - head-on", "Deux véhicules - frontale"},
		2: {"Two vehicles - rear-end", "Deux véhicules - par l'arrière"},
		3: {"Two vehicles - side", "Deux véhicules - par le côté"},
		4: {"Three or more vehicles - chain", "Trois véhicules et plus - en chaîne"},
		5: {"Three or more vehicles - multiple collisions", "Trois véhicules et plus - collisions multiples"},
		6: {"Other collision", "Autre collision"},
		7: {"No collision", "Sans collision"},
	})

	Surface = newTable("surf", map[int]label{
		1: {"Normal", "Normale"},
		2: {"Wet", "Mouillée"},
		3: {"Puddles", "Flaques"},
		4: {"Flooded", "Inondée"},
		5: {"Snow-covered", "Enneigée"},
		6: {"Mud", "Boue"},
		7: {"Icy", "Verglacée"},
		8: {"Oil or grease", "Corps gras"},
		9: {"Other", "Autre"},
	})

	RoadCategory = newTable("catr", map[int]label{
		1: {"Motorway", "Autoroute"},
		2: {"National road", "Route nationale"},
		3: {"Departmental road", "Route départementale"},
		4: {"Communal road", "Voie communale"},
		5: {"Off public network", "Hors réseau public"},
		6: {"Parking lot", "Parc de stationnement"},
		7: {"Urban metropolitan road", "Routes de métropole urbaine"},
		9: {"Other", "Autre"},
	})

	Agglomeration = newTable("agg", map[int]label{
		1: {"Outside built-up area", "Hors agglomération"},
		2: {"Inside built-up area", "En agglomération"},
	})

	Profile = newTable("prof", map[int]label{
		1: {"Flat", "Plat"},
		2: {"Slope", "Pente"},
		3: {"Hilltop", "Sommet de côte"},
		4: {"Hill bottom", "Bas de côte"},
	})

	Plan = newTable("plan", map[int]label{
		1: {"Straight", "Partie rectiligne"},
		2: {"Left curve", "En courbe à gauche"},
		3: {"Right curve", "En courbe à droite"},
		4: {"S-bend", "En « S »"},
	})

	Severity = newTable("grav", map[int]label{
		SeverityUnharmed:     {"Unharmed", "Indemne"},
		SeverityKilled:       {"Killed", "Tué"},
		SeverityHospitalized: {"Hospitalized", "Blessé hospitalisé"},
		SeverityLightInjury:  {"Light injury", "Blessé léger"},
	})

	Role = newTable("catu", map[int]label{
		RoleDriver:             {"Driver", "Conducteur"},
		RolePassenger:          {"Passenger", "Passager"},
		RolePedestrian:         {"Pedestrian", "Piéton"},
		RolePedestrianOnWheels: {"Pedestrian on rollers or scooter", "Piéton en roller ou trottinette"},
	})

	Sex = newTable("sexe", map[int]label{
		SexMale:   {"Male", "Homme"},
		SexFemale: {"Female", "Femme"},
	})

	VehicleCategory = newTable("catv", map[int]label{
		1:  {"Bicycle", "Bicyclette"},
		2:  {"Moped <50cm3", "Cyclomoteur <50cm3"},
		3:  {"Microcar", "Voiturette"},
		7:  {"Car", "VL seul"},
		10: {"Light goods vehicle 1.5T-3.5T", "VU seul 1,5T <= PTAC <= 3,5T"},
		13: {"Heavy goods vehicle 3.5T-7.5T", "PL seul 3,5T <PTCA <= 7,5T"},
		14: {"Heavy goods vehicle >7.5T", "PL seul > 7,5T"},
		15: {"Heavy goods vehicle >3.5T with trailer", "PL > 3,5T + remorque"},
		16: {"Road tractor", "Tracteur routier seul"},
		17: {"Road tractor with semi-trailer", "Tracteur routier + semi-remorque"},
		20: {"Special vehicle", "Engin spécial"},
		21: {"Agricultural tractor", "Tracteur agricole"},
		30: {"Scooter <50cm3", "Scooter < 50 cm3"},
		31: {"Motorcycle 50-125cm3", "Motocyclette > 50 cm3 et <= 125 cm3"},
		32: {"Scooter 50-125cm3", "Scooter > 50 cm3 et <= 125 cm3"},
		33: {"Motorcycle >125cm3", "Motocyclette > 125 cm3"},
		34: {"Scooter >125cm3", "Scooter > 125 cm3"},
		35: {"Light quad <=50cm3", "Quad léger <= 50 cm3"},
		36: {"Heavy quad >50cm3", "Quad lourd > 50 cm3"},
		37: {"Bus", "Autobus"},
		38: {"Coach", "Autocar"},
		39: {"Train", "Train"},
		40: {"Tram", "Tramway"},
		50: {"Motorised personal mobility device", "EDP à moteur"},
		60: {"Non-motorised personal mobility device", "EDP sans moteur"},
		80: {"E-bike", "VAE"},
		99: {"Other", "Autre"},
	})
)

const (
	SeverityUnharmed     = 1
	SeverityKilled       = 2
	SeverityHospitalized = 3
	SeverityLightInjury  = 4

	RoleDriver             = 1
	RolePassenger          = 2
	RolePedestrian         = 3
	RolePedestrianOnWheels = 4

	SexMale   = 1
	SexFemale = 2
)

// accidentTables are decoded into "<column>_desc" on the accident-level table.
var accidentTables = []*Table{Lighting, Weather, Collision, Surface, RoadCategory, Agglomeration, Profile, Plan}

// AccidentTables returns the tables decoded at accident level, in output order.
func AccidentTables() []*Table {
	out := make([]*Table, len(accidentTables))
	copy(out, accidentTables)
	return out
}

var byColumn = map[string]*Table{
	Lighting.name:        Lighting,
	Weather.name:         Weather,
	Collision.name:       Collision,
	Surface.name:         Surface,
	RoadCategory.name:    RoadCategory,
	Agglomeration.name:   Agglomeration,
	Profile.name:         Profile,
	Plan.name:            Plan,
	Severity.name:        Severity,
	Role.name:            Role,
	Sex.name:             Sex,
	VehicleCategory.name: VehicleCategory,
}

// ByColumn returns the table decoding the given source column.
func ByColumn(column string) (*Table, bool) {
	t, ok := byColumn[column]
	return t, ok
}
