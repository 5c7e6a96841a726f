// Package catalog defines the switch-model catalogue: the record type, the
// validating upload parser, and the embedded built-in catalogue.
package catalog

import (
	"fmt"
	"strings"
)

// Layer classifies a switch's network layer capability.
type Layer string

const (
	LayerL2   Layer = "L2"
	LayerL3   Layer = "L3"
	LayerL2L3 Layer = "L2/L3"
)

// ParseLayer normalizes a layer string. It accepts the canonical values
// case-insensitively, plus "L2_L3" and "L2+L3" as spellings of LayerL2L3.
func ParseLayer(s string) (Layer, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "L2":
		return LayerL2, true
	case "L3":
		return LayerL3, true
	case "L2/L3", "L2_L3", "L2+L3":
		return LayerL2L3, true
	}
	return "", false
}

// SwitchRecord describes one switch model in the catalogue. Records are
// immutable once loaded and uniquely identified by (vendor, model).
type SwitchRecord struct {
	Vendor          string              `json:"vendor" yaml:"vendor"`
	Model           string              `json:"model" yaml:"model"`
	PortCount       int                 `json:"port_count" yaml:"port_count"`
	PoESupported    bool                `json:"poe_supported" yaml:"poe_supported"`
	Layer           Layer               `json:"layer" yaml:"layer"`
	Managed         bool                `json:"managed" yaml:"managed"`
	Stackable       bool                `json:"stackable" yaml:"stackable"`
	Uplink          string              `json:"uplink,omitempty" yaml:"uplink"`
	UplinkCount     int                 `json:"uplink_count,omitempty" yaml:"uplink_count"`
	PoEBudgetWatts  *int                `json:"poe_budget,omitempty" yaml:"poe_budget"`
	CLISections     map[string][]string `json:"cli_sections,omitempty" yaml:"cli_sections"`
	Troubleshooting []string            `json:"troubleshooting,omitempty" yaml:"troubleshooting"`
	Notes           string              `json:"notes,omitempty" yaml:"notes"`
}

// Key returns the case-folded (vendor, model) identity of the record.
func (r SwitchRecord) Key() string {
	return strings.ToLower(r.Vendor) + "|" + strings.ToLower(r.Model)
}

// Validate checks the record against the catalogue schema.
func (r SwitchRecord) Validate() error {
	if strings.TrimSpace(r.Vendor) == "" {
		return fmt.Errorf("vendor must not be empty")
	}
	if strings.TrimSpace(r.Model) == "" {
		return fmt.Errorf("model must not be empty")
	}
	if r.PortCount < 0 {
		return fmt.Errorf("port_count must be non-negative, got %d", r.PortCount)
	}
	if r.UplinkCount < 0 {
		return fmt.Errorf("uplink_count must be non-negative, got %d", r.UplinkCount)
	}
	if _, ok := ParseLayer(string(r.Layer)); !ok {
		return fmt.Errorf("layer must be one of L2, L3, L2/L3, got %q", r.Layer)
	}
	return nil
}

// Haystack returns the record's searchable text (vendor, model, layer,
// uplink, notes, CLI sections, and troubleshooting commands) lowercased and
// joined with spaces. Keyword filtering and recommendation scoring both
// match against this string.
func (r SwitchRecord) Haystack() string {
	parts := []string{r.Vendor, r.Model, string(r.Layer), r.Uplink, r.Notes}
	parts = append(parts, r.Troubleshooting...)
	for section, commands := range r.CLISections {
		parts = append(parts, section)
		parts = append(parts, commands...)
	}
	return strings.ToLower(strings.Join(parts, " "))
}
