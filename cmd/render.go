package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	runewidth "github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/kvpick/internal/config"
	"github.com/oakwood-commons/kvpick/internal/limiter"
	"github.com/oakwood-commons/kvpick/pkg/records"
	"github.com/oakwood-commons/kvpick/pkg/selector"
)

// maxCellWidth bounds table cells; longer text is truncated with an ellipsis.
const maxCellWidth = 48

// sessionReport is the final state of a pick session.
type sessionReport struct {
	Label     string   `json:"label,omitempty" yaml:"label,omitempty"`
	Query     string   `json:"query" yaml:"query"`
	State     string   `json:"state" yaml:"state"`
	Error     string   `json:"error,omitempty" yaml:"error,omitempty"`
	Matches   int      `json:"matches" yaml:"matches"`
	View      []string `json:"view" yaml:"view"`
	Display   string   `json:"display,omitempty" yaml:"display,omitempty"`
	Selection any      `json:"selection,omitempty" yaml:"selection,omitempty"`
}

func newSessionReport(sel *selector.Selector[records.Record], opts pickOptions) sessionReport {
	view := sel.View()
	rep := sessionReport{
		Label:   sel.Label(),
		Query:   sel.Query(),
		State:   sel.State().String(),
		Matches: len(view),
		View:    make([]string, 0, len(view)),
	}
	if err := sel.Err(); err != nil {
		rep.Error = err.Error()
	}
	for _, r := range limiter.Apply(opts.window, view) {
		rep.View = append(rep.View, sel.DisplayText(r, true))
	}
	if c, ok := sel.Selection(); ok {
		rep.Display = sel.DisplayText(c, ok)
		rep.Selection = sel.Emit(c)
	}
	return rep
}

func renderSession(w io.Writer, rep sessionReport, format string) error {
	switch format {
	case config.FormatJSON, config.FormatYAML:
		return encode(w, rep, format)
	case "", config.FormatTable:
		rows := [][2]string{
			{"label", rep.Label},
			{"query", rep.Query},
			{"state", rep.State},
			{"error", rep.Error},
			{"matches", fmt.Sprint(rep.Matches)},
			{"view", strings.Join(rep.View, "\n")},
			{"display", rep.Display},
			{"selection", formatValue(rep.Selection)},
		}
		_, err := io.WriteString(w, renderKeyValueTable(rows))
		return err
	default:
		return fmt.Errorf("invalid output format %q (use table|json|yaml)", format)
	}
}

// encode writes v as indented JSON or YAML.
func encode(w io.Writer, v any, format string) error {
	switch format {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("invalid output format %q (use json|yaml)", format)
	}
}

// renderKeyValueTable aligns keys on display width. Empty values are
// skipped; multi-line values continue under the value column.
func renderKeyValueTable(rows [][2]string) string {
	keyW := 0
	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		if w := runewidth.StringWidth(r[0]); w > keyW {
			keyW = w
		}
	}

	var b strings.Builder
	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		for i, line := range strings.Split(r[1], "\n") {
			key := ""
			if i == 0 {
				key = r[0]
			}
			b.WriteString(runewidth.FillRight(key, keyW))
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderRecordsTable renders records as columns, one per field, with a
// header row. Cells are padded on display width so wide runes line up.
func renderRecordsTable(recs []records.Record, columns []string) string {
	if len(columns) == 0 {
		columns = records.Fields(recs)
	}
	if len(columns) == 0 {
		return ""
	}

	cells := make([][]string, 0, len(recs)+1)
	cells = append(cells, append([]string(nil), columns...))
	for _, r := range recs {
		row := make([]string, len(columns))
		for i, c := range columns {
			row[i] = runewidth.Truncate(records.Format(r[c]), maxCellWidth, "…")
		}
		cells = append(cells, row)
	}

	widths := make([]int, len(columns))
	for _, row := range cells {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	for _, row := range cells {
		for i, cell := range row {
			if i == len(row)-1 {
				b.WriteString(cell)
				break
			}
			b.WriteString(runewidth.FillRight(cell, widths[i]))
			b.WriteString("  ")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// formatValue renders an emitted value on one line. Objects are printed as
// sorted key=value pairs.
func formatValue(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return records.Format(v)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + formatValue(m[k])
	}
	return strings.Join(parts, ", ")
}
