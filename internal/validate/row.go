// Package validate parses raw CSV rows against a column map and decides
// which rows are complete enough to import.
package validate

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tradelog-dev/tradelog/internal/mapping"
	"github.com/tradelog-dev/tradelog/internal/model"
	"github.com/tradelog-dev/tradelog/internal/normalize"
)

// FieldParseError describes a non-blank cell that did not parse.
// It is recorded on the outcome, never returned.
type FieldParseError struct {
	Field model.Field
	Raw   string
}

func (e FieldParseError) Error() string {
	return fmt.Sprintf("%s could not be parsed from %q", e.Field, e.Raw)
}

// Outcome is the parse result for one row. Only fields that parsed are
// present; nothing is stored as NaN or a zero time.
type Outcome struct {
	Line     int // 1-based data row number
	Numbers  map[model.Field]float64
	Times    map[model.Field]time.Time
	Strings  map[model.Field]string
	Valid    bool
	Errors   []string
	Warnings []FieldParseError
}

// Number returns the parsed numeric value of f.
func (o Outcome) Number(f model.Field) (float64, bool) {
	v, ok := o.Numbers[f]
	return v, ok
}

// Time returns the parsed instant of f.
func (o Outcome) Time(f model.Field) (time.Time, bool) {
	v, ok := o.Times[f]
	return v, ok
}

// String returns the text value of f.
func (o Outcome) String(f model.Field) (string, bool) {
	v, ok := o.Strings[f]
	return v, ok
}

// Has reports whether f parsed.
func (o Outcome) Has(f model.Field) bool {
	switch f.Kind() {
	case model.KindNumber:
		_, ok := o.Numbers[f]
		return ok
	case model.KindTime:
		_, ok := o.Times[f]
		return ok
	default:
		_, ok := o.Strings[f]
		return ok
	}
}

// Row parses row using cm. Unmapped fields and fields whose header is not in
// the row are skipped. The row is valid when every required field parsed.
func Row(line int, row model.RawRow, cm mapping.ColumnMap) Outcome {
	o := Outcome{
		Line:    line,
		Numbers: make(map[model.Field]float64),
		Times:   make(map[model.Field]time.Time),
		Strings: make(map[model.Field]string),
	}

	for _, f := range model.Fields {
		header, ok := cm[f]
		if !ok {
			continue
		}
		raw, ok := row[header]
		if !ok {
			continue
		}

		parsed := true
		switch f.Kind() {
		case model.KindNumber:
			v := normalize.ParseCurrency(raw)
			if math.IsNaN(v) {
				parsed = false
				break
			}
			o.Numbers[f] = v
		case model.KindTime:
			t, ok := normalize.ParseDate(raw)
			if !ok {
				parsed = false
				break
			}
			o.Times[f] = t
		default:
			// Blank text is treated as absent.
			if strings.TrimSpace(raw) == "" {
				parsed = false
				break
			}
			o.Strings[f] = raw
		}

		if !parsed && !f.Required() && strings.TrimSpace(raw) != "" {
			o.Warnings = append(o.Warnings, FieldParseError{Field: f, Raw: raw})
		}
	}

	for _, f := range model.RequiredFields {
		if !o.Has(f) {
			o.Errors = append(o.Errors, fmt.Sprintf("%s is missing or invalid.", f))
		}
	}
	o.Valid = len(o.Errors) == 0
	return o
}

// Summary is the result of validating a whole file.
type Summary struct {
	Outcomes []Outcome
	Valid    int
	Total    int
}

// Invalid returns the number of rows that failed validation.
func (s Summary) Invalid() int {
	return s.Total - s.Valid
}

// ValidOutcomes returns the valid outcomes in input order.
func (s Summary) ValidOutcomes() []Outcome {
	out := make([]Outcome, 0, s.Valid)
	for _, o := range s.Outcomes {
		if o.Valid {
			out = append(out, o)
		}
	}
	return out
}

// Rows validates every row in order.
func Rows(rows []model.RawRow, cm mapping.ColumnMap) Summary {
	s := Summary{Outcomes: make([]Outcome, len(rows)), Total: len(rows)}
	for i, r := range rows {
		s.Outcomes[i] = Row(i+1, r, cm)
		if s.Outcomes[i].Valid {
			s.Valid++
		}
	}
	return s
}
