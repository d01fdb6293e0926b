// Package airport resolves free-text departure locations to canonical airport records.
package airport

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/BTreeMap/TripConcierge/internal/models"
)

//go:embed airports.yaml
var builtinTable []byte

// Entry is one row of the matching table.
type Entry struct {
	Key                  string `yaml:"key"`
	models.AirportRecord `yaml:",inline"`
}

// Table is an ordered list of airports matched by substring containment.
type Table struct {
	DefaultKey string  `yaml:"default"`
	Entries    []Entry `yaml:"airports"`
}

// LoadTable parses a YAML table and normalizes its keys.
func LoadTable(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse airport table: %w", err)
	}
	t.DefaultKey = normalize(t.DefaultKey)
	for i := range t.Entries {
		t.Entries[i].Key = normalize(t.Entries[i].Key)
		if t.Entries[i].Key == "" {
			return nil, fmt.Errorf("airport table entry %d has an empty key", i)
		}
	}
	return &t, nil
}

// BuiltinTable returns the table shipped with the binary.
func BuiltinTable() (*Table, error) {
	return LoadTable(builtinTable)
}

// Match returns the first entry whose key is contained in the input or contains it.
// Empty input never matches.
func (t *Table) Match(normalized string) (models.AirportRecord, bool) {
	if normalized == "" {
		return models.AirportRecord{}, false
	}
	for _, e := range t.Entries {
		if strings.Contains(normalized, e.Key) || strings.Contains(e.Key, normalized) {
			return e.AirportRecord, true
		}
	}
	return models.AirportRecord{}, false
}

// Default returns the designated fallback record.
func (t *Table) Default() (models.AirportRecord, bool) {
	for _, e := range t.Entries {
		if e.Key == t.DefaultKey {
			return e.AirportRecord, true
		}
	}
	return models.AirportRecord{}, false
}

// ByCode returns the first entry with the given IATA code.
func (t *Table) ByCode(code string) (models.AirportRecord, bool) {
	for _, e := range t.Entries {
		if strings.EqualFold(e.IATACode, code) {
			return e.AirportRecord, true
		}
	}
	return models.AirportRecord{}, false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
