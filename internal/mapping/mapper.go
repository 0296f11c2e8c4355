// Package mapping associates source CSV headers with canonical trade fields.
package mapping

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/tradelog-dev/tradelog/internal/model"
)

// ColumnMap assigns canonical fields to source headers. A field absent from
// the map is unmapped.
type ColumnMap map[model.Field]string

// FieldMappingError lists required fields with no usable header.
type FieldMappingError struct {
	Missing []model.Field
}

func (e *FieldMappingError) Error() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	return "required fields not mapped: " + strings.Join(names, ", ")
}

// minFuzzyLen keeps short headers ("time", "type") out of fuzzy matching,
// where one edit turns one into the other.
const minFuzzyLen = 6

// Mapper guesses column maps from a synonym table.
type Mapper struct {
	table Table
	keys  []string
}

// NewMapper creates a Mapper over t. The table is copied.
func NewMapper(t Table) *Mapper {
	t = t.Clone()
	return &Mapper{table: t, keys: t.Keys()}
}

// Guess proposes a ColumnMap for headers. The result depends only on the
// headers and the table. Exact synonym matches come first, earliest header
// winning; fields still unmapped then take a header one edit away from a
// synonym.
func (m *Mapper) Guess(headers []string) ColumnMap {
	cm := make(ColumnMap)
	used := make(map[int]bool)

	for i, h := range headers {
		f, ok := m.table[NormalizeHeader(h)]
		if !ok {
			continue
		}
		if _, taken := cm[f]; taken {
			continue
		}
		cm[f] = h
		used[i] = true
	}

	for i, h := range headers {
		if used[i] {
			continue
		}
		norm := NormalizeHeader(h)
		if len(norm) < minFuzzyLen {
			continue
		}
		f, ok := m.closest(norm)
		if !ok {
			continue
		}
		if _, taken := cm[f]; taken {
			continue
		}
		cm[f] = h
		used[i] = true
	}

	return cm
}

func (m *Mapper) closest(norm string) (model.Field, bool) {
	for _, k := range m.keys {
		if len(k) < minFuzzyLen {
			continue
		}
		if levenshtein.ComputeDistance(norm, k) == 1 {
			return m.table[k], true
		}
	}
	return "", false
}

// Assign maps f to header, overriding any guess. An empty header unmaps f.
func (c ColumnMap) Assign(f model.Field, header string) error {
	if !f.Valid() {
		return fmt.Errorf("unknown field %q", f)
	}
	if header == "" {
		delete(c, f)
		return nil
	}
	c[f] = header
	return nil
}

// Missing returns the required fields that do not map to one of headers.
func (c ColumnMap) Missing(headers []string) []model.Field {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	var missing []model.Field
	for _, f := range model.RequiredFields {
		h, ok := c[f]
		if !ok || !present[h] {
			missing = append(missing, f)
		}
	}
	return missing
}

// Ready reports whether every required field maps to one of headers.
func (c ColumnMap) Ready(headers []string) bool {
	return len(c.Missing(headers)) == 0
}

// Check returns a *FieldMappingError when c is not ready for headers.
func (c ColumnMap) Check(headers []string) error {
	if missing := c.Missing(headers); len(missing) > 0 {
		return &FieldMappingError{Missing: missing}
	}
	return nil
}

// Clone returns an independent copy of c.
func (c ColumnMap) Clone() ColumnMap {
	out := make(ColumnMap, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}
