package fixture

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shibukawa/tablediff"
)

func TestLoadYAML(t *testing.T) {
	src := `
tables:
  - name: users
    columns: [id, name, active]
    rows:
      - [1, Alice, true]
      - [2, null, false]
  - name: orders
    columns: [id, total]
    rows:
      - [10, "99.990"]
policies:
  name: caseinsensitive
  total: numeric
`

	doc, err := LoadYAML(strings.NewReader(src))
	assert.NoError(t, err)

	tables := doc.Set.Tables()
	assert.Equal(t, 2, len(tables))
	assert.Equal(t, "users", tables[0].Name())
	assert.Equal(t, "orders", tables[1].Name())
	assert.Equal(t, 2, tables[0].RowCount())

	row := tables[0].Rows()[1]
	assert.Equal(t, "2", row.Value(tablediff.Column{Name: "id"}).Render())
	assert.True(t, row.Value(tablediff.Column{Name: "name"}).IsNull())

	assert.Equal(t, 2, len(doc.Policies))
	assert.Equal(t, tablediff.PolicyCaseInsensitive, doc.Policies["name"].Kind)
	assert.Equal(t, tablediff.PolicyNumeric, doc.Policies["total"].Kind)
}

func TestLoadYAMLErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"no tables", "policies: {}", ErrNoTables},
		{"unnamed table", "tables:\n  - columns: [id]", ErrTableNameMissing},
		{"no columns", "tables:\n  - name: t", ErrColumnsMissing},
		{"wide row", "tables:\n  - name: t\n    columns: [id]\n    rows:\n      - [1, 2]", ErrRowWidth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadYAML(strings.NewReader(tt.src))
			assert.IsError(t, err, tt.want)
		})
	}
}

func TestLoadYAMLBadPolicy(t *testing.T) {
	src := `
tables:
  - name: t
    columns: [id]
policies:
  id: fuzzy
`

	_, err := LoadYAML(strings.NewReader(src))
	assert.IsError(t, err, tablediff.ErrUnknownPolicy)
}

func TestLoadYAMLShortRowPadsWithNull(t *testing.T) {
	src := `
tables:
  - name: t
    columns: [id, note]
    rows:
      - [1]
`

	doc, err := LoadYAML(strings.NewReader(src))
	assert.NoError(t, err)

	row := doc.Set.Tables()[0].Rows()[0]
	assert.True(t, row.Value(tablediff.Column{Name: "note"}).IsNull())
}

func TestLoadCSV(t *testing.T) {
	src := "id,name,note\n1,Alice,hello\n2,Bob,\n"

	table, err := LoadCSV(strings.NewReader(src), "users")
	assert.NoError(t, err)
	assert.Equal(t, "users", table.Name())
	assert.Equal(t, 3, len(table.Columns()))
	assert.Equal(t, 2, table.RowCount())

	second := table.Rows()[1]
	assert.Equal(t, "Bob", second.Value(tablediff.Column{Name: "name"}).Render())
	assert.True(t, second.Value(tablediff.Column{Name: "note"}).IsNull())
}

func TestLoadCSVSkipsCommentsAndBlankRows(t *testing.T) {
	src := "id,name\n# seeded by migration 42\n1,Alice\n,\n"

	table, err := LoadCSV(strings.NewReader(src), "users")
	assert.NoError(t, err)
	assert.Equal(t, 1, table.RowCount())
}

func TestLoadCSVEmpty(t *testing.T) {
	_, err := LoadCSV(strings.NewReader(""), "users")
	assert.IsError(t, err, ErrEmptyCSV)
}

func TestLoadTSV(t *testing.T) {
	src := "id\tname\n1\tAlice\n"

	table, err := LoadTSV(strings.NewReader(src), "users")
	assert.NoError(t, err)
	assert.Equal(t, 1, table.RowCount())
	assert.Equal(t, "Alice", table.Rows()[0].Value(tablediff.Column{Name: "NAME"}).Render())
}

func TestLoadCSVFileDerivesTableName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "accounts.csv")

	err := os.WriteFile(path, []byte("id\n1\n"), 0o600)
	assert.NoError(t, err)

	table, err := LoadCSVFile(path)
	assert.NoError(t, err)
	assert.Equal(t, "accounts", table.Name())
}

func TestYAMLFixtureComparesAgainstTypedActual(t *testing.T) {
	src := `
tables:
  - name: products
    columns: [id, price, in_stock]
    rows:
      - ["1", "99.990", "Y"]
`

	doc, err := LoadYAML(strings.NewReader(src))
	assert.NoError(t, err)

	columns := []tablediff.Column{{Name: "ID"}, {Name: "PRICE"}, {Name: "IN_STOCK"}}
	price, err := tablediff.DecimalString("99.99")
	assert.NoError(t, err)

	actual := tablediff.NewTable("products", columns, []tablediff.Row{
		tablediff.NewRow(columns, []tablediff.CellValue{
			tablediff.Integer(1), price, tablediff.Boolean(true),
		}),
	})

	res := tablediff.CompareTables(doc.Set.Tables()[0], actual)
	assert.False(t, res.HasDifferences())
}
