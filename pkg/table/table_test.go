package table

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		kind     Kind
		expected float64
	}{
		{name: "integer", raw: "12", kind: KindNumber, expected: 12},
		{name: "comma decimal", raw: "48,8566", kind: KindNumber, expected: 48.8566},
		{name: "surrounding spaces", raw: "  7 ", kind: KindNumber, expected: 7},
		{name: "negative", raw: "-1,5", kind: KindNumber, expected: -1.5},
		{name: "text", raw: "2A", kind: KindText},
		{name: "packed time", raw: "08:30", kind: KindText},
		{name: "empty", raw: "", kind: KindMissing},
		{name: "nan token", raw: "nan", kind: KindMissing},
		{name: "None token", raw: "None", kind: KindMissing},
		{name: "infinity is text", raw: "inf", kind: KindText},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			v := Coerce(test.raw, ',')
			assert.Equal(t, test.kind, v.Kind)
			if test.kind == KindNumber {
				assert.Equal(t, test.expected, v.Num)
			}
		})
	}
}

func TestValueKey(t *testing.T) {
	assert.Equal(t, "202400000001", Coerce("202400000001", ',').Key())
	assert.Equal(t, "12", Coerce("12,0", ',').Key())
	assert.Equal(t, "2A", Coerce(" 2A ", ',').Key())
	assert.Equal(t, "", Coerce("", ',').Key())
}

func TestRead(t *testing.T) {
	input := "\ufeff\"Num_Acc\";\"lat\";\"dep\"\n" +
		"\"202400000001\";\"48,8566\";\"75\"\n" +
		"\"202400000002\";\"\";\"2A\"\n" +
		"\"202400000003\"\n"

	tbl, err := Read(strings.NewReader(input), "caract", DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"Num_Acc", "lat", "dep"}, tbl.Columns)
	assert.Equal(t, 3, tbl.Len())

	assert.Equal(t, 48.8566, tbl.Get(0, "lat").Num)
	assert.True(t, tbl.Get(1, "lat").IsMissing())
	assert.Equal(t, "2A", tbl.Get(1, "dep").Text())
	assert.True(t, tbl.Get(2, "dep").IsMissing(), "short rows are padded")
	assert.True(t, tbl.Get(0, "unknown").IsMissing())
	assert.False(t, tbl.Has("unknown"))
}

func TestReadEmptyInput(t *testing.T) {
	_, err := Read(strings.NewReader(""), "empty", DefaultOptions())
	assert.Error(t, err)
}

func TestReadHeaderOnly(t *testing.T) {
	tbl, err := Read(strings.NewReader("Num_Acc;catv\n"), "vehicules", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
	assert.True(t, tbl.Has("catv"))
}
