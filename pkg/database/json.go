package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSON stores a value as JSON text. It scans from both []byte (pq) and
// string (sqlite) sources.
type JSON[T any] struct {
	Data T
}

func (p *JSON[T]) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, &p.Data)
	case string:
		return json.Unmarshal([]byte(v), &p.Data)
	case nil:
		var zero T
		p.Data = zero
		return nil
	default:
		return fmt.Errorf("JSON.Scan: expected []byte or string, got %T", src)
	}
}

func (p JSON[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(p.Data)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
