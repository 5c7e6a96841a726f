// Package catalog provides the filter engine, recommendation matcher, and
// HTTP surface for the switch-model catalogue.
package catalog

import (
	"strings"

	pkgcatalog "github.com/switchdeck/switchdeck/pkg/catalog"
)

// Criteria is a set of optional predicates over switch records. Absent
// fields (zero strings, nil pointers) impose no constraint.
//
// Policy notes, fixed and tested rather than configurable:
//   - Vendor is a case-insensitive EXACT match.
//   - Model and Keyword are case-insensitive substring matches.
//   - Layer is an exact enum match; LayerL2L3 matches only records whose
//     layer is L2/L3, never L2-only or L3-only records.
type Criteria struct {
	Vendor    string
	Model     string
	Keyword   string
	MinPorts  *int
	MaxPorts  *int
	Layer     pkgcatalog.Layer
	PoE       *bool
	Managed   *bool
	Stackable *bool
}

// IsZero reports whether no predicate is set.
func (c Criteria) IsZero() bool {
	return c.Vendor == "" && c.Model == "" && c.Keyword == "" &&
		c.MinPorts == nil && c.MaxPorts == nil && c.Layer == "" &&
		c.PoE == nil && c.Managed == nil && c.Stackable == nil
}

// Matches reports whether the record satisfies every present predicate.
func (c Criteria) Matches(r pkgcatalog.SwitchRecord) bool {
	if c.Vendor != "" && !strings.EqualFold(r.Vendor, c.Vendor) {
		return false
	}
	if c.Model != "" && !strings.Contains(strings.ToLower(r.Model), strings.ToLower(c.Model)) {
		return false
	}
	if c.Keyword != "" && !strings.Contains(r.Haystack(), strings.ToLower(c.Keyword)) {
		return false
	}
	if c.MinPorts != nil && r.PortCount < *c.MinPorts {
		return false
	}
	if c.MaxPorts != nil && r.PortCount > *c.MaxPorts {
		return false
	}
	if c.Layer != "" && r.Layer != c.Layer {
		return false
	}
	if c.PoE != nil && r.PoESupported != *c.PoE {
		return false
	}
	if c.Managed != nil && r.Managed != *c.Managed {
		return false
	}
	if c.Stackable != nil && r.Stackable != *c.Stackable {
		return false
	}
	return true
}

// Apply returns the records satisfying the criteria, preserving the input
// order. An empty result is valid data, not an error; Apply has no side
// effects on the input.
func Apply(records []pkgcatalog.SwitchRecord, c Criteria) []pkgcatalog.SwitchRecord {
	result := make([]pkgcatalog.SwitchRecord, 0, len(records))
	for i := range records {
		if c.Matches(records[i]) {
			result = append(result, records[i])
		}
	}
	return result
}
