package tablediff

import (
	"fmt"
	"strings"
)

// Column identifies a table column. Identity is name-based and
// case-insensitive: fixture files and database metadata routinely
// disagree on case for the same column.
type Column struct {
	Name string
}

// key is the canonical lookup form of the column name.
func (c Column) key() string {
	return strings.ToLower(c.Name)
}

// Equal reports whether two columns name the same column.
func (c Column) Equal(other Column) bool {
	return strings.EqualFold(c.Name, other.Name)
}

// ColumnMetadata enriches rendered differences with schema facts. It is
// supplied by an optional provider; comparison never depends on it.
type ColumnMetadata struct {
	DeclaredType string `yaml:"type"`
	Nullable     bool   `yaml:"nullable"`
}

// MetadataProvider resolves column metadata for report enrichment.
// Implementations return false when nothing is known; the metadata field
// is then simply omitted from the report.
type MetadataProvider interface {
	ColumnMetadata(table, column string) (ColumnMetadata, bool)
}

// Row is an ordered mapping from columns to cell values. Lookups for a
// column the row does not carry yield the null cell, never an error.
type Row struct {
	columns []Column
	values  map[string]CellValue
}

// NewRow builds a row from ordered columns and their values. Columns
// without a corresponding value hold null.
func NewRow(columns []Column, values []CellValue) Row {
	r := Row{
		columns: columns,
		values:  make(map[string]CellValue, len(columns)),
	}

	for i, col := range columns {
		if i < len(values) {
			r.values[col.key()] = values[i]
		} else {
			r.values[col.key()] = Null()
		}
	}

	return r
}

// Value returns the cell for column, or the null cell when the row does
// not carry it.
func (r Row) Value(column Column) CellValue {
	if v, ok := r.values[column.key()]; ok {
		return v
	}

	return Null()
}

// Columns returns the row's columns in declaration order.
func (r Row) Columns() []Column {
	return r.columns
}

// Table is a named, ordered collection of columns and rows. Row order is
// significant: comparison is positional, row i against row i.
type Table struct {
	name    string
	columns []Column
	rows    []Row
}

// NewTable builds a table from ordered columns and rows.
func NewTable(name string, columns []Column, rows []Row) *Table {
	return &Table{name: name, columns: columns, rows: rows}
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// Columns returns the declared columns in order.
func (t *Table) Columns() []Column {
	return t.columns
}

// Rows returns the rows in order.
func (t *Table) Rows() []Row {
	return t.rows
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int {
	return len(t.rows)
}

// TableSet is an ordered collection of tables, unique by name. Name
// uniqueness is case-sensitive, matching how tables are looked up during
// comparison.
type TableSet struct {
	tables []*Table
	index  map[string]*Table
}

// NewTableSet builds a table set, rejecting duplicate table names.
func NewTableSet(tables ...*Table) (*TableSet, error) {
	ts := &TableSet{
		tables: tables,
		index:  make(map[string]*Table, len(tables)),
	}

	for _, t := range tables {
		if _, exists := ts.index[t.Name()]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTable, t.Name())
		}

		ts.index[t.Name()] = t
	}

	return ts, nil
}

// Tables returns the tables in declaration order.
func (ts *TableSet) Tables() []*Table {
	return ts.tables
}

// Table looks up a table by exact name.
func (ts *TableSet) Table(name string) (*Table, bool) {
	t, ok := ts.index[name]
	return t, ok
}

// Len returns the number of tables in the set.
func (ts *TableSet) Len() int {
	return len(ts.tables)
}

// SingleTableSet wraps one table as a set, for the single-table entry
// points.
func SingleTableSet(t *Table) *TableSet {
	ts, _ := NewTableSet(t)
	return ts
}
