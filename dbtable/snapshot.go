// Package dbtable materializes live database state into tablediff table
// sets. It reads already-committed rows through database/sql and
// converts driver values into typed cell values, capturing column
// metadata along the way so rendered differences can name declared
// types. Connection management, transactions and pooling stay with the
// caller.
package dbtable

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shibukawa/tablediff"
)

var (
	// ErrNoTables indicates a snapshot request without table names.
	ErrNoTables = errors.New("no tables requested")
	// ErrUnsupportedDriverValue indicates a driver value with no scalar mapping.
	ErrUnsupportedDriverValue = errors.New("unsupported driver value")
)

// binaryTypeNames lists declared types whose []byte payloads stay binary.
// Everything else a driver hands over as []byte is text in disguise.
var binaryTypeNames = map[string]bool{
	"BLOB":       true,
	"BYTEA":      true,
	"BINARY":     true,
	"VARBINARY":  true,
	"LONGBLOB":   true,
	"MEDIUMBLOB": true,
	"TINYBLOB":   true,
}

// Snapshot is a materialized read of one or more tables. It doubles as
// the metadata provider for report enrichment.
type Snapshot struct {
	set  *tablediff.TableSet
	meta map[string]tablediff.ColumnMetadata // "table\x00lowercase column"
}

// Read materializes the named tables in the order given. Each table is
// read with a plain SELECT *; row order is whatever the database
// returns, so callers that rely on positional comparison should read
// from tables with a deterministic order or order-insensitive content.
func Read(ctx context.Context, db *sql.DB, tables ...string) (*Snapshot, error) {
	if len(tables) == 0 {
		return nil, ErrNoTables
	}

	snap := &Snapshot{meta: make(map[string]tablediff.ColumnMetadata)}
	materialized := make([]*tablediff.Table, 0, len(tables))

	for _, name := range tables {
		table, err := snap.readTable(ctx, db, name)
		if err != nil {
			return nil, err
		}

		materialized = append(materialized, table)
	}

	set, err := tablediff.NewTableSet(materialized...)
	if err != nil {
		return nil, err
	}

	snap.set = set

	return snap, nil
}

// TableSet returns the materialized tables.
func (s *Snapshot) TableSet() *tablediff.TableSet {
	return s.set
}

// ColumnMetadata implements tablediff.MetadataProvider with the types
// reported by the driver. Drivers that report nothing simply leave the
// metadata out of the report.
func (s *Snapshot) ColumnMetadata(table, column string) (tablediff.ColumnMetadata, bool) {
	meta, ok := s.meta[metaKey(table, column)]
	return meta, ok
}

func metaKey(table, column string) string {
	return table + "\x00" + strings.ToLower(column)
}

func (s *Snapshot) readTable(ctx context.Context, db *sql.DB, name string) (*tablediff.Table, error) {
	rows, err := db.QueryContext(ctx, "SELECT * FROM "+name)
	if err != nil {
		return nil, fmt.Errorf("failed to query table %s: %w", name, err)
	}
	defer rows.Close()

	columnNames, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get column names: %w", err)
	}

	columns := make([]tablediff.Column, len(columnNames))
	for i, col := range columnNames {
		columns[i] = tablediff.Column{Name: col}
	}

	types, err := rows.ColumnTypes()
	if err == nil {
		s.captureMetadata(name, types)
	}

	var tableRows []tablediff.Row

	for rows.Next() {
		values := make([]any, len(columns))

		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		cells := make([]tablediff.CellValue, len(columns))

		for i, v := range values {
			cell, err := toCell(v, declaredType(types, i))
			if err != nil {
				return nil, fmt.Errorf("table %s column %s: %w", name, columnNames[i], err)
			}

			cells[i] = cell
		}

		tableRows = append(tableRows, tablediff.NewRow(columns, cells))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	return tablediff.NewTable(name, columns, tableRows), nil
}

func (s *Snapshot) captureMetadata(table string, types []*sql.ColumnType) {
	for _, ct := range types {
		declared := ct.DatabaseTypeName()
		if declared == "" {
			continue
		}

		nullable, hasNullable := ct.Nullable()

		s.meta[metaKey(table, ct.Name())] = tablediff.ColumnMetadata{
			DeclaredType: declared,
			Nullable:     nullable && hasNullable,
		}
	}
}

func declaredType(types []*sql.ColumnType, i int) string {
	if i >= len(types) || types[i] == nil {
		return ""
	}

	return strings.ToUpper(types[i].DatabaseTypeName())
}

// toCell maps one driver value to a cell value. The mapping follows what
// database/sql drivers actually produce: the six driver.Value types plus
// the []byte-for-text convention.
func toCell(v any, declared string) (tablediff.CellValue, error) {
	switch val := v.(type) {
	case nil:
		return tablediff.Null(), nil
	case int64:
		return tablediff.Integer(val), nil
	case float64:
		return tablediff.Float(val), nil
	case bool:
		return tablediff.Boolean(val), nil
	case time.Time:
		return tablediff.Temporal(val.Format("2006-01-02 15:04:05.999999999")), nil
	case string:
		return tablediff.Text(val), nil
	case []byte:
		if binaryTypeNames[declared] {
			return tablediff.Binary(val), nil
		}

		return tablediff.Text(string(val)), nil
	default:
		return tablediff.CellValue{}, fmt.Errorf("%w: %T", ErrUnsupportedDriverValue, v)
	}
}
