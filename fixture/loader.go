// Package fixture loads expected data snapshots from YAML and CSV
// sources into tablediff table sets. Fixture payloads stay as close to
// their authored text form as possible; the comparison engine's coercion
// rules reconcile them against natively typed database values.
package fixture

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/shibukawa/tablediff"
)

var (
	// ErrNoTables indicates the fixture document declares no tables.
	ErrNoTables = errors.New("fixture declares no tables")
	// ErrTableNameMissing indicates a table entry without a name.
	ErrTableNameMissing = errors.New("fixture table has no name")
	// ErrColumnsMissing indicates a table entry without columns.
	ErrColumnsMissing = errors.New("fixture table has no columns")
	// ErrRowWidth indicates a row with more values than columns.
	ErrRowWidth = errors.New("fixture row has more values than columns")
	// ErrEmptyCSV indicates a CSV source without a header row.
	ErrEmptyCSV = errors.New("CSV fixture must have a header row")
	// ErrUnsupportedValue indicates a YAML value with no scalar reading.
	ErrUnsupportedValue = errors.New("unsupported fixture value")
)

// Document is a parsed YAML fixture: ordered tables plus optional
// per-column policies.
type Document struct {
	Set      *tablediff.TableSet
	Policies map[string]tablediff.Policy
}

// yamlDocument is the on-disk shape. Tables are a list, not a map, so
// declaration order survives parsing.
type yamlDocument struct {
	Tables   []yamlTable       `yaml:"tables"`
	Policies map[string]string `yaml:"policies"`
}

type yamlTable struct {
	Name    string   `yaml:"name"`
	Columns []string `yaml:"columns"`
	Rows    [][]any  `yaml:"rows"`
}

// LoadYAML parses a YAML fixture document.
//
//	tables:
//	  - name: users
//	    columns: [id, name]
//	    rows:
//	      - [1, Alice]
//	      - [2, null]
//	policies:
//	  name: caseinsensitive
func LoadYAML(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}

	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse fixture YAML: %w", err)
	}

	if len(doc.Tables) == 0 {
		return nil, ErrNoTables
	}

	tables := make([]*tablediff.Table, 0, len(doc.Tables))

	for _, tbl := range doc.Tables {
		if tbl.Name == "" {
			return nil, ErrTableNameMissing
		}

		if len(tbl.Columns) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrColumnsMissing, tbl.Name)
		}

		columns := make([]tablediff.Column, len(tbl.Columns))
		for i, name := range tbl.Columns {
			columns[i] = tablediff.Column{Name: name}
		}

		rows := make([]tablediff.Row, 0, len(tbl.Rows))

		for i, raw := range tbl.Rows {
			if len(raw) > len(columns) {
				return nil, fmt.Errorf("%w: table %s row %d", ErrRowWidth, tbl.Name, i)
			}

			cells := make([]tablediff.CellValue, len(raw))

			for j, v := range raw {
				cell, err := toCell(v)
				if err != nil {
					return nil, fmt.Errorf("table %s row %d column %s: %w", tbl.Name, i, tbl.Columns[j], err)
				}

				cells[j] = cell
			}

			rows = append(rows, tablediff.NewRow(columns, cells))
		}

		tables = append(tables, tablediff.NewTable(tbl.Name, columns, rows))
	}

	set, err := tablediff.NewTableSet(tables...)
	if err != nil {
		return nil, err
	}

	policies, err := parsePolicies(doc.Policies)
	if err != nil {
		return nil, err
	}

	return &Document{Set: set, Policies: policies}, nil
}

// LoadYAMLFile loads a YAML fixture from disk.
func LoadYAMLFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixture file: %w", err)
	}
	defer f.Close()

	return LoadYAML(f)
}

func parsePolicies(raw map[string]string) (map[string]tablediff.Policy, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	policies := make(map[string]tablediff.Policy, len(raw))

	for column, rule := range raw {
		p, err := tablediff.ParsePolicy(rule)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", column, err)
		}

		policies[column] = p
	}

	return policies, nil
}

// toCell maps a YAML scalar to a cell value. Strings stay text; the
// comparator's coercion handles typed actual values.
func toCell(v any) (tablediff.CellValue, error) {
	switch val := v.(type) {
	case nil:
		return tablediff.Null(), nil
	case string:
		return tablediff.Text(val), nil
	case bool:
		return tablediff.Boolean(val), nil
	case int:
		return tablediff.Integer(int64(val)), nil
	case int64:
		return tablediff.Integer(val), nil
	case uint64:
		return tablediff.Integer(int64(val)), nil
	case float64:
		return tablediff.Float(val), nil
	default:
		return tablediff.CellValue{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

// LoadCSV parses a CSV fixture: a header row naming the columns, then
// one record per row. Empty cells load as NULL, everything else as text.
func LoadCSV(r io.Reader, tableName string) (*tablediff.Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV fixture: %w", err)
	}

	return tableFromRecords(records, tableName)
}

// LoadTSV parses a tab-separated fixture with the same shape as CSV.
func LoadTSV(r io.Reader, tableName string) (*tablediff.Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse TSV fixture: %w", err)
	}

	return tableFromRecords(records, tableName)
}

// LoadCSVFile loads a CSV fixture, deriving the table name from the file
// name ("users.csv" loads table "users").
func LoadCSVFile(path string) (*tablediff.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixture file: %w", err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		return LoadTSV(f, name)
	}

	return LoadCSV(f, name)
}

func tableFromRecords(records [][]string, tableName string) (*tablediff.Table, error) {
	if len(records) == 0 {
		return nil, ErrEmptyCSV
	}

	header := records[0]
	columns := make([]tablediff.Column, len(header))

	for i, name := range header {
		columns[i] = tablediff.Column{Name: strings.TrimSpace(name)}
	}

	rows := make([]tablediff.Row, 0, len(records)-1)

	for _, record := range records[1:] {
		if isEmptyRecord(record) {
			continue
		}

		cells := make([]tablediff.CellValue, len(record))

		for i, field := range record {
			if field == "" {
				cells[i] = tablediff.Null()
			} else {
				cells[i] = tablediff.Text(field)
			}
		}

		rows = append(rows, tablediff.NewRow(columns, cells))
	}

	return tablediff.NewTable(tableName, columns, rows), nil
}

func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}

	return true
}
