package tablediff

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/goccy/go-yaml"
)

var (
	tableHeaderFmt  = color.New(color.FgBlue, color.Bold).SprintfFunc()
	legendExpectFmt = color.New(color.FgGreen).SprintFunc()
	legendActualFmt = color.New(color.FgRed).SprintFunc()
	rowLabelFmt     = color.New(color.FgBlue, color.Bold).SprintfFunc()
	expectFieldFmt  = color.New(color.FgGreen).SprintfFunc()
	actualFieldFmt  = color.New(color.FgRed).SprintfFunc()
	pathLabelFmt    = color.New(color.FgYellow).SprintfFunc()
)

// reportEntry is one difference in the structured block. The block is
// plain YAML so CI tooling can consume it without scraping the summary
// line.
type reportEntry struct {
	Path     string          `yaml:"path"`
	Row      *int            `yaml:"row,omitempty"`
	Column   string          `yaml:"column,omitempty"`
	Expected *string         `yaml:"expected"`
	Actual   *string         `yaml:"actual"`
	Metadata *ColumnMetadata `yaml:"metadata,omitempty"`
}

// Summary returns the one-line report header: the difference count and
// the affected tables.
func (r *Result) Summary() string {
	if !r.HasDifferences() {
		return "no differences"
	}

	tables := r.diffTables()
	if len(tables) == 0 {
		return fmt.Sprintf("%d differences in table set", len(r.diffs))
	}

	return fmt.Sprintf("%d differences in %s", len(r.diffs), strings.Join(tables, ", "))
}

// Render returns the full report: the summary line followed by a YAML
// block keyed by table name. Set-level differences (table counts) render
// under the empty key, which no real table can collide with. Rendering
// is deterministic: entries appear in recording order.
func (r *Result) Render() string {
	if !r.HasDifferences() {
		return r.Summary()
	}

	doc := yaml.MapSlice{}
	index := map[string]int{}

	for _, d := range r.diffs {
		entry := toEntry(d)

		if i, ok := index[d.Table]; ok {
			doc[i].Value = append(doc[i].Value.([]reportEntry), entry)
			continue
		}

		index[d.Table] = len(doc)
		doc = append(doc, yaml.MapItem{Key: d.Table, Value: []reportEntry{entry}})
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		// Marshal of plain scalars cannot realistically fail; keep the
		// summary usable if it ever does.
		return r.Summary()
	}

	return r.Summary() + "\n" + string(out)
}

// RenderPretty returns a colorized, human-oriented rendering of the same
// differences, in diff-legend style. Color is controlled globally via
// fatih/color (disabled automatically on non-TTY output).
func (r *Result) RenderPretty() string {
	if !r.HasDifferences() {
		return r.Summary()
	}

	var b strings.Builder

	b.WriteString(r.Summary())
	b.WriteString("\n")
	b.WriteString(legendExpectFmt("- Expected\n"))
	b.WriteString(legendActualFmt("+ Actual\n"))

	currentTable := "\x00" // sentinel that differs from every table name

	for _, d := range r.diffs {
		if d.Table != currentTable {
			currentTable = d.Table

			if d.Table != "" {
				b.WriteString(tableHeaderFmt("Table: %s\n", d.Table))
			}
		}

		switch d.Kind {
		case DiffTableCount:
			b.WriteString(pathLabelFmt("table count"))
			b.WriteString("\n")
			writeValuePair(&b, d)
		case DiffMissingTable:
			b.WriteString(pathLabelFmt("missing table"))
			b.WriteString("\n")
		case DiffRowCount:
			b.WriteString(pathLabelFmt("row count"))
			b.WriteString("\n")
			writeValuePair(&b, d)
		case DiffCell:
			b.WriteString(rowLabelFmt("row #%d, %s%s\n", d.Row, d.Column, metadataSuffix(d.Metadata)))
			writeValuePair(&b, d)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func toEntry(d Difference) reportEntry {
	entry := reportEntry{
		Path:     d.Kind.String(),
		Expected: d.Expected,
		Actual:   d.Actual,
		Metadata: d.Metadata,
	}

	if d.Kind == DiffCell {
		row := d.Row
		entry.Row = &row
		entry.Column = d.Column
	}

	return entry
}

func writeValuePair(b *strings.Builder, d Difference) {
	b.WriteString(expectFieldFmt("- %s\n", renderOptional(d.Expected)))
	b.WriteString(actualFieldFmt("+ %s\n", renderOptional(d.Actual)))
}

func renderOptional(s *string) string {
	if s == nil {
		return "<null>"
	}

	return *s
}

func metadataSuffix(m *ColumnMetadata) string {
	if m == nil {
		return ""
	}

	nullability := "not null"
	if m.Nullable {
		nullability = "nullable"
	}

	return fmt.Sprintf(" (%s, %s)", m.DeclaredType, nullability)
}
