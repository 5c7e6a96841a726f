package testutil

import (
	"github.com/switchdeck/switchdeck/pkg/catalog"
)

// NewSwitch returns a SwitchRecord with sensible defaults, suitable for test
// fixtures. Override individual fields via options as needed.
func NewSwitch(opts ...func(*catalog.SwitchRecord)) catalog.SwitchRecord {
	r := catalog.SwitchRecord{
		Vendor:       "TestVendor",
		Model:        "TS-24",
		PortCount:    24,
		PoESupported: false,
		Layer:        catalog.LayerL2,
		Managed:      true,
		Stackable:    false,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// WithVendor sets the record's vendor.
func WithVendor(v string) func(*catalog.SwitchRecord) {
	return func(r *catalog.SwitchRecord) { r.Vendor = v }
}

// WithModel sets the record's model name.
func WithModel(m string) func(*catalog.SwitchRecord) {
	return func(r *catalog.SwitchRecord) { r.Model = m }
}

// WithPorts sets the record's port count.
func WithPorts(n int) func(*catalog.SwitchRecord) {
	return func(r *catalog.SwitchRecord) { r.PortCount = n }
}

// WithPoE sets the PoE support flag.
func WithPoE(poe bool) func(*catalog.SwitchRecord) {
	return func(r *catalog.SwitchRecord) { r.PoESupported = poe }
}

// WithLayer sets the record's layer capability.
func WithLayer(l catalog.Layer) func(*catalog.SwitchRecord) {
	return func(r *catalog.SwitchRecord) { r.Layer = l }
}

// WithManaged sets the managed flag.
func WithManaged(m bool) func(*catalog.SwitchRecord) {
	return func(r *catalog.SwitchRecord) { r.Managed = m }
}

// WithStackable sets the stackable flag.
func WithStackable(s bool) func(*catalog.SwitchRecord) {
	return func(r *catalog.SwitchRecord) { r.Stackable = s }
}

// WithNotes sets the record's notes text.
func WithNotes(n string) func(*catalog.SwitchRecord) {
	return func(r *catalog.SwitchRecord) { r.Notes = n }
}

// WithTroubleshooting sets the record's troubleshooting commands.
func WithTroubleshooting(cmds ...string) func(*catalog.SwitchRecord) {
	return func(r *catalog.SwitchRecord) { r.Troubleshooting = cmds }
}

// WithCLISection adds a named CLI snippet section.
func WithCLISection(section string, cmds ...string) func(*catalog.SwitchRecord) {
	return func(r *catalog.SwitchRecord) {
		if r.CLISections == nil {
			r.CLISections = make(map[string][]string)
		}
		r.CLISections[section] = cmds
	}
}
