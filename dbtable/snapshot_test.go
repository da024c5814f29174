package dbtable

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shibukawa/tablediff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSingleTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	defer db.Close()

	rows := sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("id").OfType("INTEGER", int64(0)),
		sqlmock.NewColumn("name").OfType("VARCHAR", "").Nullable(true),
	).
		AddRow(int64(1), "Alice").
		AddRow(int64(2), nil)
	mock.ExpectQuery(`SELECT \* FROM users`).WillReturnRows(rows)

	snap, err := Read(context.Background(), db, "users")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	table, ok := snap.TableSet().Table("users")
	require.True(t, ok)
	assert.Equal(t, 2, table.RowCount())

	first := table.Rows()[0]
	assert.Equal(t, tablediff.KindInteger, first.Value(tablediff.Column{Name: "ID"}).Kind())
	assert.Equal(t, "Alice", first.Value(tablediff.Column{Name: "name"}).Render())

	second := table.Rows()[1]
	assert.True(t, second.Value(tablediff.Column{Name: "name"}).IsNull())
}

func TestReadCapturesMetadata(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	defer db.Close()

	rows := sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("id").OfType("INTEGER", int64(0)),
		sqlmock.NewColumn("email").OfType("VARCHAR", "").Nullable(true),
	).AddRow(int64(1), "a@example.com")
	mock.ExpectQuery(`SELECT \* FROM accounts`).WillReturnRows(rows)

	snap, err := Read(context.Background(), db, "accounts")
	require.NoError(t, err)

	meta, ok := snap.ColumnMetadata("accounts", "EMAIL")
	require.True(t, ok)
	assert.Equal(t, "VARCHAR", meta.DeclaredType)
	assert.True(t, meta.Nullable)

	_, ok = snap.ColumnMetadata("accounts", "missing")
	assert.False(t, ok)
}

func TestReadMultipleTablesPreservesOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	defer db.Close()

	mock.ExpectQuery(`SELECT \* FROM users`).WillReturnRows(
		sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery(`SELECT \* FROM orders`).WillReturnRows(
		sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))

	snap, err := Read(context.Background(), db, "users", "orders")
	require.NoError(t, err)

	tables := snap.TableSet().Tables()
	require.Len(t, tables, 2)
	assert.Equal(t, "users", tables[0].Name())
	assert.Equal(t, "orders", tables[1].Name())
}

func TestReadNoTables(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)

	defer db.Close()

	_, err = Read(context.Background(), db)
	assert.ErrorIs(t, err, ErrNoTables)
}

func TestReadQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	defer db.Close()

	mock.ExpectQuery(`SELECT \* FROM missing`).WillReturnError(errors.New("no such table"))

	_, err = Read(context.Background(), db, "missing")
	assert.Error(t, err)
}

func TestToCellDriverValues(t *testing.T) {
	ts := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		value    any
		declared string
		want     tablediff.ScalarKind
		rendered string
	}{
		{"null", nil, "", tablediff.KindText, ""},
		{"integer", int64(42), "INTEGER", tablediff.KindInteger, "42"},
		{"float", 1.5, "REAL", tablediff.KindFloat, "1.5"},
		{"boolean", true, "BOOLEAN", tablediff.KindBoolean, "true"},
		{"time", ts, "TIMESTAMP", tablediff.KindTemporal, "2024-01-01 10:00:00"},
		{"string", "hi", "TEXT", tablediff.KindText, "hi"},
		{"text bytes", []byte("hi"), "TEXT", tablediff.KindText, "hi"},
		{"blob bytes", []byte{1, 2, 3}, "BLOB", tablediff.KindBinary, "AQID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cell, err := toCell(tt.value, tt.declared)
			require.NoError(t, err)

			if tt.value == nil {
				assert.True(t, cell.IsNull())
				return
			}

			assert.Equal(t, tt.want, cell.Kind())
			assert.Equal(t, tt.rendered, cell.Render())
		})
	}
}

func TestToCellUnsupported(t *testing.T) {
	_, err := toCell(struct{}{}, "")
	assert.ErrorIs(t, err, ErrUnsupportedDriverValue)
}

func TestSnapshotComparesAgainstFixture(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "price"}).
		AddRow(int64(1), []byte("99.990"))
	mock.ExpectQuery(`SELECT \* FROM products`).WillReturnRows(rows)

	snap, err := Read(context.Background(), db, "products")
	require.NoError(t, err)

	columns := []tablediff.Column{{Name: "ID"}, {Name: "PRICE"}}
	expected, err := tablediff.NewTableSet(tablediff.NewTable("products", columns, []tablediff.Row{
		tablediff.NewRow(columns, []tablediff.CellValue{
			tablediff.Text("1"), tablediff.Text("99.990"),
		}),
	}))
	require.NoError(t, err)

	assert.NoError(t, tablediff.AssertEquals(expected, snap.TableSet(), tablediff.WithMetadata(snap)))
}
