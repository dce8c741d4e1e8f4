package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Measure is an optional numeric property of a [MaterialRecord].
//
// Absent and null values decode to an invalid Measure, which renders as a placeholder and never as zero.
type Measure struct {
	Value float64
	Valid bool
}

// NewMeasure returns a present Measure.
func NewMeasure(v float64) Measure {
	return Measure{Value: v, Valid: true}
}

// UnmarshalJSON accepts numbers, numeric strings, empty strings and null.
func (m *Measure) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = Measure{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*m = Measure{}
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("measure %q is not numeric: %w", s, err)
		}
		*m = NewMeasure(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = NewMeasure(v)
	return nil
}

// MarshalJSON writes null for an absent measure.
func (m Measure) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

// Format renders the value with two decimals, or placeholder when absent.
//
// Ties round away from zero (3000.125 → "3000.13"), unlike strconv's round-half-even.
func (m Measure) Format(placeholder string) string {
	if !m.Valid {
		return placeholder
	}
	r := math.Round(m.Value*100) / 100
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', 2, 64)
}

// MaterialRecord is one extracted structural element.
//
// Only Name and ElementType are always expected; every other property is optional.
type MaterialRecord struct {
	Name            string  `json:"name"`
	ElementType     string  `json:"element_type"`
	GlobalID        string  `json:"global_id,omitempty"`
	ProfileType     string  `json:"profile_type,omitempty"`
	OverallDepth    Measure `json:"overall_depth"`
	FlangeWidth     Measure `json:"flange_width"`
	Width           Measure `json:"width"`
	WebThickness    Measure `json:"web_thickness"`
	FlangeThickness Measure `json:"flange_thickness"`
	Grade           string  `json:"grade,omitempty"`
	NominalDiameter Measure `json:"nominal_diameter"`
	Length          Measure `json:"length"`
	Height          Measure `json:"height"`
}

// DisplayWidth returns the flange width, falling back to the generic width.
func (r MaterialRecord) DisplayWidth() Measure {
	if r.FlangeWidth.Valid {
		return r.FlangeWidth
	}
	return r.Width
}

// MaterialList is an ordered sequence of records in server response order.
type MaterialList []MaterialRecord

// Len returns the number of records.
func (l MaterialList) Len() int { return len(l) }

// Empty reports whether the list has no records.
func (l MaterialList) Empty() bool { return len(l) == 0 }

// Clone returns a copy that does not share the backing array.
func (l MaterialList) Clone() MaterialList {
	if l == nil {
		return nil
	}
	out := make(MaterialList, len(l))
	copy(out, l)
	return out
}
