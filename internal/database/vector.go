package database

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// Vector carries a dense embedding across the database boundary. It reads and
// writes the bracketed text literal "[0.1,0.2,...]", which is both the
// pgvector wire format and a JSON array, so the same column round-trips
// through a PostgreSQL vector column and a SQLite TEXT column unchanged.
type Vector struct {
	floats []float64
}

// NewVector copies floats into a Vector. The copy keeps later mutation of the
// caller's slice from leaking into a pending INSERT.
func NewVector(floats []float64) Vector {
	cp := make([]float64, len(floats))
	copy(cp, floats)
	return Vector{floats: cp}
}

// Floats returns a copy of the components, or nil for a vector scanned from
// a NULL column.
func (v Vector) Floats() []float64 {
	if v.floats == nil {
		return nil
	}
	cp := make([]float64, len(v.floats))
	copy(cp, v.floats)
	return cp
}

// Dimension returns the component count.
func (v Vector) Dimension() int {
	return len(v.floats)
}

// Scan implements sql.Scanner for the bracketed literal, accepting string or
// []byte. NULL scans to a nil vector.
func (v *Vector) Scan(value any) error {
	if value == nil {
		v.floats = nil
		return nil
	}

	var raw string
	switch val := value.(type) {
	case string:
		raw = val
	case []byte:
		raw = string(val)
	default:
		return fmt.Errorf("cannot scan %T into Vector", value)
	}

	raw = strings.TrimSpace(raw)
	if raw == "[]" || raw == "" {
		v.floats = []float64{}
		return nil
	}

	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")

	parts := strings.Split(raw, ",")
	floats := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return fmt.Errorf("vector element %d: %w", i, err)
		}
		floats[i] = f
	}

	v.floats = floats
	return nil
}

// Value implements driver.Valuer.
func (v Vector) Value() (driver.Value, error) {
	return v.String(), nil
}

// String renders the bracketed literal. FormatFloat with -1 precision keeps
// the shortest representation that survives a parse round-trip.
func (v Vector) String() string {
	var b strings.Builder
	b.Grow(len(v.floats)*12 + 2)
	b.WriteByte('[')
	for i, f := range v.floats {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
	}
	b.WriteByte(']')
	return b.String()
}
