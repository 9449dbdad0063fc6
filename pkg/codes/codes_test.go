package codes

import (
	"testing"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestTableLabel(t *testing.T) {
	tests := []struct {
		name     string
		table    *Table
		code     models.Number
		locale   Locale
		expected string
	}{
		{name: "lighting daylight en", table: Lighting, code: models.NewNumber(1), locale: LocaleEN, expected: "Daylight"},
		{name: "lighting daylight fr", table: Lighting, code: models.NewNumber(1), locale: LocaleFR, expected: "Plein jour"},
		{name: "weather other", table: Weather, code: models.NewNumber(9), locale: LocaleEN, expected: "Other"},
		{name: "road category gap", table: RoadCategory, code: models.NewNumber(8), locale: LocaleEN, expected: "Not specified"},
		{name: "road category 9", table: RoadCategory, code: models.NewNumber(9), locale: LocaleFR, expected: "Autre"},
		{name: "unknown code", table: Surface, code: models.NewNumber(-1), locale: LocaleEN, expected: "Not specified"},
		{name: "missing code", table: Collision, code: models.MissingNumber(), locale: LocaleEN, expected: "Not specified"},
		{name: "missing code fr", table: Collision, code: models.MissingNumber(), locale: LocaleFR, expected: "Non spécifié"},
		{name: "fractional code", table: Agglomeration, code: models.NewNumber(1.5), locale: LocaleEN, expected: "Not specified"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, test.table.Label(test.code, test.locale))
		})
	}
}

func TestEveryDocumentedCodeDecodes(t *testing.T) {
	for _, table := range []*Table{Lighting, Weather, Collision, Surface, RoadCategory, Agglomeration, Severity, Role, Sex, VehicleCategory} {
		for _, code := range table.Codes() {
			for _, locale := range []Locale{LocaleEN, LocaleFR} {
				label := table.Label(models.NewNumber(float64(code)), locale)
				assert.NotEqual(t, NotSpecified(locale), label, "%s code %d", table.Name(), code)
				assert.NotEmpty(t, label)
			}
		}
	}
}

func TestTableSizes(t *testing.T) {
	assert.Len(t, Lighting.Codes(), 5)
	assert.Len(t, Weather.Codes(), 9)
	assert.Len(t, Collision.Codes(), 7)
	assert.Len(t, Surface.Codes(), 9)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 9}, RoadCategory.Codes())
	assert.Len(t, Agglomeration.Codes(), 2)
	assert.Len(t, VehicleCategory.Codes(), 27)
}

func TestByColumn(t *testing.T) {
	table, ok := ByColumn("catv")
	assert.True(t, ok)
	assert.Equal(t, VehicleCategory, table)

	_, ok = ByColumn("unknown")
	assert.False(t, ok)
}

func TestCodeSets(t *testing.T) {
	tests := []struct {
		set      CodeSet
		included []int
		excluded []int
	}{
		{set: TwoWheelers, included: []int{1, 2, 3, 30, 33, 36, 80}, excluded: []int{0, 4, 7, 29, 37, 79, 81}},
		{set: HeavyGoods, included: []int{13, 15, 17}, excluded: []int{12, 18}},
		{set: PublicTransit, included: []int{37, 38}, excluded: []int{36, 39, 40}},
		{set: PersonalMobility, included: []int{50, 60}, excluded: []int{51, 55, 59, 61}},
	}

	for _, test := range tests {
		t.Run(test.set.Name(), func(t *testing.T) {
			for _, code := range test.included {
				assert.True(t, test.set.Contains(code), "code %d", code)
			}
			for _, code := range test.excluded {
				assert.False(t, test.set.Contains(code), "code %d", code)
			}
		})
	}
}

func TestParseLocale(t *testing.T) {
	l, err := ParseLocale("fr")
	assert.NoError(t, err)
	assert.Equal(t, LocaleFR, l)

	l, err = ParseLocale("")
	assert.NoError(t, err)
	assert.Equal(t, LocaleEN, l)

	_, err = ParseLocale("de")
	assert.Error(t, err)
}
