package domain

import (
	"bytes"
	"encoding/json"
	"math"
)

// Reading is an optional numeric metric value as recorded by the collector.
//
// Missing fields, null, strings, booleans and non-finite numbers all decode
// to an absent reading instead of failing the whole batch. Consumers must
// check Get and drop absent readings rather than treating them as zero.
type Reading struct {
	value float64
	valid bool
}

// Some returns a present reading. Non-finite values are stored as absent.
func Some(v float64) Reading {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Reading{}
	}
	return Reading{value: v, valid: true}
}

// Get returns the value and whether it is present and finite.
func (r Reading) Get() (float64, bool) {
	if !r.valid {
		return 0, false
	}
	return r.value, true
}

// IsZero reports whether the reading is absent. Used by the omitzero tag.
func (r Reading) IsZero() bool { return !r.valid }

// MarshalJSON encodes an absent reading as null.
func (r Reading) MarshalJSON() ([]byte, error) {
	if !r.valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.value)
}

// UnmarshalJSON accepts any JSON value; only finite numbers become present.
func (r *Reading) UnmarshalJSON(data []byte) error {
	*r = Reading{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] == 'n' {
		return nil
	}
	var v float64
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return nil
	}
	*r = Some(v)
	return nil
}
