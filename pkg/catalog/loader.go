package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsRawData []byte

// defaultsFile is the top-level structure of the embedded YAML.
type defaultsFile struct {
	Entries []SwitchRecord `yaml:"entries"`
}

// Defaults provides lazy-loaded access to the embedded built-in catalogue.
type Defaults struct {
	once    sync.Once
	entries []SwitchRecord
	err     error
}

// NewDefaults creates a Defaults that parses the embedded YAML on first access.
func NewDefaults() *Defaults {
	return &Defaults{}
}

// Entries returns a copy of the built-in catalogue in file order.
func (d *Defaults) Entries() ([]SwitchRecord, error) {
	d.once.Do(d.load)
	if d.err != nil {
		return nil, d.err
	}
	cp := make([]SwitchRecord, len(d.entries))
	copy(cp, d.entries)
	return cp, nil
}

// load parses and validates the embedded YAML catalogue data.
func (d *Defaults) load() {
	var f defaultsFile
	if err := yaml.Unmarshal(defaultsRawData, &f); err != nil {
		d.err = fmt.Errorf("catalog: parse defaults yaml: %w", err)
		return
	}

	seen := make(map[string]struct{}, len(f.Entries))
	for i, rec := range f.Entries {
		if err := rec.Validate(); err != nil {
			d.err = fmt.Errorf("catalog: default entry %d (%s %s): %w", i, rec.Vendor, rec.Model, err)
			return
		}
		if _, dup := seen[rec.Key()]; dup {
			d.err = fmt.Errorf("catalog: duplicate default entry %s %s", rec.Vendor, rec.Model)
			return
		}
		seen[rec.Key()] = struct{}{}
	}

	d.entries = f.Entries
}
