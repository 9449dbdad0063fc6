package models

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// Number is a float that may be missing.
type Number struct {
	Value float64
	Valid bool
}

// NewNumber returns a present Number.
func NewNumber(v float64) Number {
	return Number{Value: v, Valid: true}
}

// MissingNumber returns an absent Number.
func MissingNumber() Number {
	return Number{}
}

// Or returns the value, or def when the number is missing.
func (n Number) Or(def float64) float64 {
	if !n.Valid {
		return def
	}
	return n.Value
}

// Int returns the value as an int when it is present and integral.
func (n Number) Int() (int, bool) {
	if !n.Valid || n.Value != math.Trunc(n.Value) {
		return 0, false
	}
	return int(n.Value), true
}

// Round rounds to the given number of decimals, half away from zero.
func (n Number) Round(decimals int) Number {
	if !n.Valid {
		return n
	}
	p := math.Pow(10, float64(decimals))
	return NewNumber(math.Round(n.Value*p) / p)
}

// String formats the number without trailing zeros; missing numbers format as "".
func (n Number) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

func (n *Number) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = Number{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = NewNumber(v)
	return nil
}

const DateLayout = "2006-01-02"

// Date is a calendar day that may be missing.
type Date struct {
	Time  time.Time
	Valid bool
}

func NewDate(t time.Time) Date {
	return Date{Time: t, Valid: true}
}

func (d Date) String() string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return err
	}
	*d = NewDate(t)
	return nil
}

// Flag converts a boolean to the 0/1 integer used by the consolidated columns.
func Flag(b bool) int {
	if b {
		return 1
	}
	return 0
}
