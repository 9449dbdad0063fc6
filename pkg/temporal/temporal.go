// Package temporal derives calendar and time-of-day fields for an accident.
package temporal

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Ramsey-B/clover/pkg/codes"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/table"
)

// BuildDate assembles year, zero-padded month and day into a calendar date.
// Any missing or malformed part yields a missing date.
func BuildDate(year, month, day table.Value) models.Date {
	y, ok := year.Number().Int()
	if !ok {
		return models.Date{}
	}
	m, ok := month.Number().Int()
	if !ok {
		return models.Date{}
	}
	d, ok := day.Number().Int()
	if !ok {
		return models.Date{}
	}

	t, err := time.Parse(models.DateLayout, fmt.Sprintf("%04d-%02d-%02d", y, m, d))
	if err != nil {
		return models.Date{}
	}
	return models.NewDate(t)
}

// ParseHourMinute splits the packed hour-minute field. "HH:MM" reads the
// minute from characters 3-4, the packed "HHMM" form from characters 2-3.
// Three-digit numbers lost their leading zero to numeric coercion and are
// padded back to four digits; shorter values are read as an hour only.
func ParseHourMinute(v table.Value) (hour, minute models.Number) {
	raw := strings.TrimSpace(v.Raw)
	if v.IsMissing() || table.IsMissingToken(raw) {
		return models.MissingNumber(), models.MissingNumber()
	}

	if v.Kind == table.KindNumber && len(raw) == 3 {
		if n, ok := v.Number().Int(); ok && n >= 0 && n < 1000 {
			raw = fmt.Sprintf("%04d", n)
		}
	}

	hour = numberAt(raw, 0, 2)
	if len(raw) >= 3 && raw[2] == ':' {
		minute = numberAt(raw, 3, 5)
	} else {
		minute = numberAt(raw, 2, 4)
	}
	return hour, minute
}

func numberAt(s string, from, to int) models.Number {
	if len(s) < to {
		to = len(s)
	}
	if from >= to {
		return models.MissingNumber()
	}
	n, err := strconv.Atoi(s[from:to])
	if err != nil {
		return models.MissingNumber()
	}
	return models.NewNumber(float64(n))
}

type Bucket struct {
	lower, upper int
	en, fr       string
}

// buckets are left-closed and right-open except the last, which includes 24.
var buckets = []Bucket{
	{0, 6, "Night", "Nuit"},
	{6, 9, "EarlyMorning", "Matin_tôt"},
	{9, 12, "Morning", "Matin"},
	{12, 14, "Noon", "Midi"},
	{14, 18, "Afternoon", "Après-midi"},
	{18, 21, "Evening", "Soirée"},
	{21, 24, "LateNight", "Nuit_tardive"},
}

// TimeOfDay returns the bucket label for an hour, or "" when the hour is missing or out of range.
func TimeOfDay(hour models.Number, locale codes.Locale) string {
	if !hour.Valid {
		return ""
	}
	h := hour.Value
	for i, b := range buckets {
		last := i == len(buckets)-1
		if h >= float64(b.lower) && (h < float64(b.upper) || (last && h <= float64(b.upper))) {
			if locale == codes.LocaleFR {
				return b.fr
			}
			return b.en
		}
	}
	return ""
}

// Calendar holds the fields derived from an accident date.
type Calendar struct {
	Weekday   models.Number
	DayName   string
	Month     models.Number
	MonthName string
	Quarter   models.Number
	Weekend   int
	Season    string
}

var seasons = map[time.Month][2]string{
	time.December:  {"Winter", "Hiver"},
	time.January:   {"Winter", "Hiver"},
	time.February:  {"Winter", "Hiver"},
	time.March:     {"Spring", "Printemps"},
	time.April:     {"Spring", "Printemps"},
	time.May:       {"Spring", "Printemps"},
	time.June:      {"Summer", "Été"},
	time.July:      {"Summer", "Été"},
	time.August:    {"Summer", "Été"},
	time.September: {"Autumn", "Automne"},
	time.October:   {"Autumn", "Automne"},
	time.November:  {"Autumn", "Automne"},
}

// CalendarOf derives weekday (0=Monday), names, quarter, weekend flag and season.
// A missing date leaves every field missing and the weekend flag at 0.
func CalendarOf(d models.Date, locale codes.Locale) Calendar {
	if !d.Valid {
		return Calendar{}
	}

	t := d.Time
	weekday := (int(t.Weekday()) + 6) % 7
	season := seasons[t.Month()][0]
	if locale == codes.LocaleFR {
		season = seasons[t.Month()][1]
	}

	return Calendar{
		Weekday:   models.NewNumber(float64(weekday)),
		DayName:   t.Weekday().String(),
		Month:     models.NewNumber(float64(t.Month())),
		MonthName: t.Month().String(),
		Quarter:   models.NewNumber(float64((int(t.Month())-1)/3 + 1)),
		Weekend:   models.Flag(weekday >= 5),
		Season:    season,
	}
}
