// Package cli implements the tablediff command line interface: loading
// expected fixtures, snapshotting actual state, and rendering the
// comparison report.
package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/shibukawa/tablediff"
	"github.com/shibukawa/tablediff/dbtable"
	"github.com/shibukawa/tablediff/fixture"
)

// Error definitions
var (
	ErrDifferencesFound    = errors.New("differences found")
	ErrUnsupportedFixture  = errors.New("unsupported fixture file extension")
	ErrInvalidPolicyFlag   = errors.New("invalid --policy value, expected column=rule")
	ErrDatabaseURLRequired = errors.New("--db is required when the actual side is a table list")
	ErrUnknownFormat       = errors.New("unknown output format")
)

// Context carries the global CLI options into commands.
type Context struct {
	Out     io.Writer
	Verbose bool
	Quiet   bool
}

// CompareCmd compares an expected fixture against an actual snapshot:
// either another fixture file, or live tables read through a database
// connection.
type CompareCmd struct {
	Expected string   `arg:"" help:"Expected fixture file (.yaml, .csv, .tsv)"`
	Actual   string   `arg:"" help:"Actual fixture file, or comma-separated table list with --db"`
	DB       string   `help:"Database connection string (driver://dsn or driver:dsn)" short:"d"`
	Driver   string   `help:"database/sql driver name" default:"sqlite3"`
	Ignore   []string `help:"Columns to exclude from comparison" short:"i"`
	Extra    []string `help:"Extra columns to compare beyond the expected set"`
	Policy   []string `help:"Per-column policy as column=rule (rule: strict, ignore, numeric, caseinsensitive, timestamp, notnull, regexp:<pattern>)" short:"p"`
	Format   string   `help:"Report format" enum:"yaml,pretty" default:"pretty"`
}

// Run executes the compare command.
func (cmd *CompareCmd) Run(ctx *Context) error {
	expected, policies, err := loadExpected(cmd.Expected)
	if err != nil {
		return err
	}

	actual, metadata, err := cmd.loadActual()
	if err != nil {
		return err
	}

	opts, err := cmd.buildOptions(policies, metadata)
	if err != nil {
		return err
	}

	res := tablediff.Compare(expected, actual, opts...)
	if !res.HasDifferences() {
		if !ctx.Quiet {
			fmt.Fprintln(ctx.Out, res.Summary())
		}

		return nil
	}

	switch cmd.Format {
	case "yaml":
		fmt.Fprintln(ctx.Out, res.Render())
	case "pretty":
		fmt.Fprintln(ctx.Out, res.RenderPretty())
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, cmd.Format)
	}

	return ErrDifferencesFound
}

// loadExpected loads a fixture file into a table set, with any policies
// the document declares.
func loadExpected(path string) (*tablediff.TableSet, map[string]tablediff.Policy, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		doc, err := fixture.LoadYAMLFile(path)
		if err != nil {
			return nil, nil, err
		}

		return doc.Set, doc.Policies, nil
	case ".csv", ".tsv":
		table, err := fixture.LoadCSVFile(path)
		if err != nil {
			return nil, nil, err
		}

		set, err := tablediff.NewTableSet(table)
		if err != nil {
			return nil, nil, err
		}

		return set, nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedFixture, path)
	}
}

// loadActual resolves the actual side: a fixture file when the argument
// looks like one, otherwise a table list snapshotted from --db.
func (cmd *CompareCmd) loadActual() (*tablediff.TableSet, tablediff.MetadataProvider, error) {
	if ext := strings.ToLower(filepath.Ext(cmd.Actual)); ext == ".yaml" || ext == ".yml" || ext == ".csv" || ext == ".tsv" {
		set, _, err := loadExpected(cmd.Actual)
		return set, nil, err
	}

	if cmd.DB == "" {
		return nil, nil, ErrDatabaseURLRequired
	}

	driver, dsn := splitConnection(cmd.DB, cmd.Driver)

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	tables := strings.Split(cmd.Actual, ",")
	for i := range tables {
		tables[i] = strings.TrimSpace(tables[i])
	}

	snap, err := dbtable.Read(context.Background(), db, tables...)
	if err != nil {
		return nil, nil, err
	}

	return snap.TableSet(), snap, nil
}

func (cmd *CompareCmd) buildOptions(policies map[string]tablediff.Policy, metadata tablediff.MetadataProvider) ([]tablediff.Option, error) {
	var opts []tablediff.Option

	merged := make(map[string]tablediff.Policy, len(policies)+len(cmd.Policy))
	for column, p := range policies {
		merged[column] = p
	}

	// Flag policies override fixture-declared ones.
	for _, spec := range cmd.Policy {
		column, rule, ok := strings.Cut(spec, "=")
		if !ok || column == "" {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPolicyFlag, spec)
		}

		p, err := tablediff.ParsePolicy(rule)
		if err != nil {
			return nil, err
		}

		merged[column] = p
	}

	if len(merged) > 0 {
		opts = append(opts, tablediff.WithPolicies(merged))
	}

	if len(cmd.Ignore) > 0 {
		opts = append(opts, tablediff.WithIgnoreColumns(cmd.Ignore...))
	}

	if len(cmd.Extra) > 0 {
		opts = append(opts, tablediff.WithExtraColumns(cmd.Extra...))
	}

	if metadata != nil {
		opts = append(opts, tablediff.WithMetadata(metadata))
	}

	return opts, nil
}

// splitConnection accepts either driver://dsn (sqlite3://file.db) or a
// bare DSN paired with --driver.
func splitConnection(conn, fallback string) (driver, dsn string) {
	if d, rest, ok := strings.Cut(conn, "://"); ok && !strings.Contains(d, "/") {
		return d, rest
	}

	return fallback, conn
}
