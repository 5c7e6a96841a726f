package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ValidationError reports the first record that fails the upload schema.
// The whole upload is rejected; there are no partial catalogues.
type ValidationError struct {
	Index  int    // Zero-based position of the offending record.
	Field  string // Field that failed validation.
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("record %d: field %q: %s", e.Index, e.Field, e.Reason)
}

// uploadRecord is the wire form of an uploaded catalogue entry. Required
// fields are pointers so that absent keys can be told apart from zero values.
type uploadRecord struct {
	Vendor       *string `json:"vendor"`
	Model        *string `json:"model"`
	PortCount    *int    `json:"port_count"`
	PoESupported *bool   `json:"poe_supported"`
	Layer        *string `json:"layer"`
	Stackable    *bool   `json:"stackable"`

	Managed         *bool               `json:"managed"`
	Uplink          string              `json:"uplink"`
	UplinkCount     int                 `json:"uplink_count"`
	PoEBudgetWatts  *int                `json:"poe_budget"`
	CLISections     map[string][]string `json:"cli_sections"`
	Troubleshooting []string            `json:"troubleshooting"`
	Notes           string              `json:"notes"`

	// Flat aliases accepted alongside the structured fields. Lines are
	// folded into CLISections / Troubleshooting during parsing.
	CLIExample             string `json:"cli_example"`
	TroubleshootingExample string `json:"troubleshooting_example"`
}

// ParseUpload decodes a JSON array of switch records, validating each one.
// The first invalid record aborts the parse with a *ValidationError. A
// successful parse returns the records in upload order.
func ParseUpload(data []byte) ([]SwitchRecord, error) {
	var raw []uploadRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("upload is not a JSON array of records: %w", err)
	}

	records := make([]SwitchRecord, 0, len(raw))
	seen := make(map[string]int, len(raw))

	for i, u := range raw {
		rec, verr := u.toRecord(i)
		if verr != nil {
			return nil, verr
		}

		if prev, dup := seen[rec.Key()]; dup {
			return nil, &ValidationError{
				Index:  i,
				Field:  "model",
				Reason: fmt.Sprintf("duplicate of record %d (%s %s)", prev, rec.Vendor, rec.Model),
			}
		}
		seen[rec.Key()] = i

		records = append(records, rec)
	}

	return records, nil
}

// toRecord converts a wire record to a validated SwitchRecord.
func (u uploadRecord) toRecord(index int) (SwitchRecord, *ValidationError) {
	fail := func(field, reason string) (SwitchRecord, *ValidationError) {
		return SwitchRecord{}, &ValidationError{Index: index, Field: field, Reason: reason}
	}

	if u.Vendor == nil || strings.TrimSpace(*u.Vendor) == "" {
		return fail("vendor", "required")
	}
	if u.Model == nil || strings.TrimSpace(*u.Model) == "" {
		return fail("model", "required")
	}
	if u.PortCount == nil {
		return fail("port_count", "required")
	}
	if *u.PortCount < 0 {
		return fail("port_count", fmt.Sprintf("must be non-negative, got %d", *u.PortCount))
	}
	if u.PoESupported == nil {
		return fail("poe_supported", "required")
	}
	if u.Layer == nil {
		return fail("layer", "required")
	}
	layer, ok := ParseLayer(*u.Layer)
	if !ok {
		return fail("layer", fmt.Sprintf("must be one of L2, L3, L2/L3, got %q", *u.Layer))
	}
	if u.Stackable == nil {
		return fail("stackable", "required")
	}
	if u.UplinkCount < 0 {
		return fail("uplink_count", fmt.Sprintf("must be non-negative, got %d", u.UplinkCount))
	}

	// Unmanaged gear is the exception; an absent managed flag means managed.
	managed := true
	if u.Managed != nil {
		managed = *u.Managed
	}

	rec := SwitchRecord{
		Vendor:          strings.TrimSpace(*u.Vendor),
		Model:           strings.TrimSpace(*u.Model),
		PortCount:       *u.PortCount,
		PoESupported:    *u.PoESupported,
		Layer:           layer,
		Managed:         managed,
		Stackable:       *u.Stackable,
		Uplink:          u.Uplink,
		UplinkCount:     u.UplinkCount,
		PoEBudgetWatts:  u.PoEBudgetWatts,
		CLISections:     u.CLISections,
		Troubleshooting: u.Troubleshooting,
		Notes:           u.Notes,
	}

	if lines := splitLines(u.CLIExample); len(lines) > 0 {
		if rec.CLISections == nil {
			rec.CLISections = make(map[string][]string, 1)
		}
		rec.CLISections["Configuration example"] = append(rec.CLISections["Configuration example"], lines...)
	}
	if lines := splitLines(u.TroubleshootingExample); len(lines) > 0 {
		rec.Troubleshooting = append(rec.Troubleshooting, lines...)
	}

	return rec, nil
}

// splitLines splits multi-line example text into trimmed, non-empty lines.
func splitLines(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			lines = append(lines, t)
		}
	}
	return lines
}
