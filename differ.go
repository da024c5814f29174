package tablediff

import (
	"strconv"
	"strings"
)

// columnMode selects which columns of a table pair are compared.
type columnMode int

const (
	// columnsExpected compares exactly the expected table's columns.
	columnsExpected columnMode = iota
	// columnsSuperset compares the expected columns plus explicit extras.
	columnsSuperset
	// columnsIgnore compares the expected columns minus an ignore set.
	columnsIgnore
)

// differ walks two table sets and records every divergence into a
// Result. It never short-circuits: a truncated table still has its
// overlapping rows compared, and a mismatched row still has its
// remaining columns checked. The accumulator is threaded explicitly so
// the differ itself holds no mutable comparison state.
type differ struct {
	policies      map[string]Policy // keyed by lowercase column name
	defaultPolicy Policy
	mode          columnMode
	extra         []string
	ignore        map[string]bool // lowercase names
	metadata      MetadataProvider
}

func newDiffer(cfg *config) *differ {
	d := &differ{
		policies:      make(map[string]Policy, len(cfg.policies)),
		defaultPolicy: cfg.defaultPolicy,
		mode:          cfg.mode,
		extra:         cfg.extra,
		ignore:        make(map[string]bool, len(cfg.ignore)),
		metadata:      cfg.metadata,
	}

	for name, p := range cfg.policies {
		d.policies[strings.ToLower(name)] = p
	}

	for _, name := range cfg.ignore {
		d.ignore[strings.ToLower(name)] = true
	}

	return d
}

// compareTableSets records all differences between two sets. Traversal
// is expected-driven: tables present only in actual are not reported,
// so an assertion can validate a slice of a shared live schema.
func (d *differ) compareTableSets(res *Result, expected, actual *TableSet) {
	res.expectedTables = expected.Len()
	res.actualTables = actual.Len()

	if expected.Len() != actual.Len() {
		res.record(Difference{
			Kind:     DiffTableCount,
			Expected: countStr(expected.Len()),
			Actual:   countStr(actual.Len()),
		})
	}

	for _, expTable := range expected.Tables() {
		actTable, ok := actual.Table(expTable.Name())
		if !ok {
			res.record(Difference{
				Kind:  DiffMissingTable,
				Table: expTable.Name(),
			})

			continue
		}

		d.compareTables(res, expTable, actTable)
	}
}

// compareTables records all differences between two same-named tables.
// On a row count mismatch the overlapping row range is still compared,
// so a truncated result surfaces whatever cell mismatches remain
// determinable.
func (d *differ) compareTables(res *Result, expected, actual *Table) {
	res.expectedRows += expected.RowCount()
	res.actualRows += actual.RowCount()

	if expected.RowCount() != actual.RowCount() {
		res.record(Difference{
			Kind:     DiffRowCount,
			Table:    expected.Name(),
			Expected: countStr(expected.RowCount()),
			Actual:   countStr(actual.RowCount()),
		})
	}

	columns := d.selectColumns(expected)

	overlap := min(expected.RowCount(), actual.RowCount())
	for i := 0; i < overlap; i++ {
		d.compareRow(res, expected, actual, i, columns)
	}
}

// selectColumns resolves the column set for one table according to the
// configured mode, preserving expected-declaration order. Extra columns
// follow in the order they were given; names already present are not
// duplicated.
func (d *differ) selectColumns(expected *Table) []Column {
	switch d.mode {
	case columnsSuperset:
		columns := make([]Column, 0, len(expected.Columns())+len(d.extra))
		present := make(map[string]bool, len(expected.Columns()))

		for _, col := range expected.Columns() {
			columns = append(columns, col)
			present[col.key()] = true
		}

		for _, name := range d.extra {
			col := Column{Name: name}
			if !present[col.key()] {
				columns = append(columns, col)
				present[col.key()] = true
			}
		}

		return columns
	case columnsIgnore:
		columns := make([]Column, 0, len(expected.Columns()))

		for _, col := range expected.Columns() {
			if !d.ignore[col.key()] {
				columns = append(columns, col)
			}
		}

		return columns
	default:
		return expected.Columns()
	}
}

func (d *differ) compareRow(res *Result, expected, actual *Table, row int, columns []Column) {
	expRow := expected.Rows()[row]
	actRow := actual.Rows()[row]

	for _, col := range columns {
		policy := d.policyFor(col)

		expVal := expRow.Value(col)
		actVal := actRow.Value(col)

		if EqualValues(expVal, actVal, policy) {
			continue
		}

		diff := Difference{
			Kind:     DiffCell,
			Table:    expected.Name(),
			Row:      row,
			Column:   col.Name,
			Expected: expVal.renderPtr(),
			Actual:   actVal.renderPtr(),
		}

		if d.metadata != nil {
			if meta, ok := d.metadata.ColumnMetadata(expected.Name(), col.Name); ok {
				diff.Metadata = &meta
			}
		}

		res.record(diff)
	}
}

// policyFor resolves the policy for a column: column-specific override,
// else the configured default, else Strict.
func (d *differ) policyFor(col Column) Policy {
	if p, ok := d.policies[col.key()]; ok {
		return p
	}

	return d.defaultPolicy
}

func countStr(n int) *string {
	s := strconv.Itoa(n)
	return &s
}
