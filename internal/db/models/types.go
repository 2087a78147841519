// Package models contains database model definitions.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrScanSource is returned when a JSON column scan receives an unsupported
// source type from the driver.
var ErrScanSource = errors.New("unsupported scan source for JSON column")

// IDList stores a list of entity IDs as a JSON array in a single column.
type IDList []uint64

// Value implements driver.Valuer.
func (l IDList) Value() (driver.Value, error) {
	if l == nil {
		l = IDList{}
	}

	out, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshal id list: %w", err)
	}

	return string(out), nil
}

// Scan implements sql.Scanner.
func (l *IDList) Scan(src any) error {
	return scanJSON(src, l)
}

// IntList stores a list of small integers (e.g. weekday indices 0-6) as a
// JSON array in a single column.
type IntList []int

// Value implements driver.Valuer.
func (l IntList) Value() (driver.Value, error) {
	if l == nil {
		l = IntList{}
	}

	out, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshal int list: %w", err)
	}

	return string(out), nil
}

// Scan implements sql.Scanner.
func (l *IntList) Scan(src any) error {
	return scanJSON(src, l)
}

// StringList stores a list of strings (e.g. coverage warnings) as a JSON
// array in a single column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}

	out, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshal string list: %w", err)
	}

	return string(out), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	return scanJSON(src, l)
}

// JSONMap stores a free-form object (e.g. audit change sets) as JSON in a
// single column.
type JSONMap map[string]any

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		m = JSONMap{}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal json map: %w", err)
	}

	return string(out), nil
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(src any) error {
	return scanJSON(src, m)
}

func scanJSON(src, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}

		return json.Unmarshal(v, dst) //nolint:wrapcheck
	case string:
		if v == "" {
			return nil
		}

		return json.Unmarshal([]byte(v), dst) //nolint:wrapcheck
	default:
		return fmt.Errorf("%w: %T", ErrScanSource, src)
	}
}
