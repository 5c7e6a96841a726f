package catalog

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	pkgcatalog "github.com/switchdeck/switchdeck/pkg/catalog"
)

// RenderOptions controls the plain-text table output.
type RenderOptions struct {
	IncludeCLI    bool // Append CLI and troubleshooting snippets per device.
	GroupByVendor bool // Emit one table per vendor, vendors sorted.
}

var tableHeaders = []string{
	"Vendor", "Model", "Ports", "PoE", "Layer", "Managed",
	"Stackable", "Uplinks", "PoE Budget (W)", "Notes",
}

// RenderTable formats records as an aligned plain-text table. Rendering is
// read-only; filtering and ranking happen before this step.
func RenderTable(records []pkgcatalog.SwitchRecord, opts RenderOptions) string {
	if len(records) == 0 {
		return "No switches matched your criteria."
	}

	var lines []string
	if opts.GroupByVendor {
		vendorSet := make(map[string]struct{})
		for i := range records {
			vendorSet[records[i].Vendor] = struct{}{}
		}
		vendors := make([]string, 0, len(vendorSet))
		for v := range vendorSet {
			vendors = append(vendors, v)
		}
		sort.Strings(vendors)

		for _, vendor := range vendors {
			var subset []pkgcatalog.SwitchRecord
			for i := range records {
				if records[i].Vendor == vendor {
					subset = append(subset, records[i])
				}
			}
			lines = append(lines, fmt.Sprintf("== %s ==", vendor))
			lines = append(lines, renderRows(subset)...)
			if opts.IncludeCLI {
				lines = append(lines, "Configuration snippets:")
				for i := range subset {
					lines = append(lines, renderSnippets(subset[i])...)
				}
			}
		}
	} else {
		lines = append(lines, renderRows(records)...)
		if opts.IncludeCLI {
			lines = append(lines, "Configuration snippets:")
			for i := range records {
				lines = append(lines, renderSnippets(records[i])...)
			}
		}
	}

	return strings.TrimRight(strings.Join(lines, "\n"), "\n ")
}

// renderRows formats the header, separator, and one row per record with
// columns padded to the widest cell.
func renderRows(records []pkgcatalog.SwitchRecord) []string {
	rows := make([][]string, 0, len(records))
	for i := range records {
		rows = append(rows, recordRow(records[i]))
	}

	widths := make([]int, len(tableHeaders))
	for i, h := range tableHeaders {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	pad := func(row []string) string {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = cell + strings.Repeat(" ", widths[i]-len(cell))
		}
		return strings.TrimRight(strings.Join(cells, " | "), " ")
	}

	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}

	lines := []string{pad(tableHeaders), strings.Join(sep, "-+-")}
	for _, row := range rows {
		lines = append(lines, pad(row))
	}
	return lines
}

func recordRow(r pkgcatalog.SwitchRecord) []string {
	budget := "-"
	if r.PoEBudgetWatts != nil {
		budget = strconv.Itoa(*r.PoEBudgetWatts)
	}
	return []string{
		r.Vendor,
		r.Model,
		strconv.Itoa(r.PortCount),
		yesNo(r.PoESupported),
		string(r.Layer),
		yesNo(r.Managed),
		yesNo(r.Stackable),
		fmt.Sprintf("%d @ %s", r.UplinkCount, r.Uplink),
		budget,
		r.Notes,
	}
}

// renderSnippets formats a device's CLI sections (sorted by section name for
// stable output) and troubleshooting commands.
func renderSnippets(r pkgcatalog.SwitchRecord) []string {
	lines := []string{fmt.Sprintf("[%s %s]", r.Vendor, r.Model)}

	sections := make([]string, 0, len(r.CLISections))
	for section := range r.CLISections {
		sections = append(sections, section)
	}
	sort.Strings(sections)

	for _, section := range sections {
		lines = append(lines, "  "+section+":")
		for _, cmd := range r.CLISections[section] {
			lines = append(lines, "    "+cmd)
		}
	}
	if len(r.Troubleshooting) > 0 {
		lines = append(lines, "  Troubleshooting:")
		for _, cmd := range r.Troubleshooting {
			lines = append(lines, "    "+cmd)
		}
	}
	lines = append(lines, "")
	return lines
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
