package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/shibukawa/tablediff/cli"

	_ "github.com/mattn/go-sqlite3"
)

var version = "dev"

// CLI is the top-level command tree.
var CLI struct {
	Verbose bool           `help:"Enable verbose output" short:"v"`
	Quiet   bool           `help:"Suppress output for equal snapshots" short:"q"`
	Compare cli.CompareCmd `cmd:"" help:"Compare an expected fixture against an actual snapshot"`
	Version VersionCmd     `cmd:"" help:"Show version information"`
}

// VersionCmd represents the version command
type VersionCmd struct{}

// Run executes the version command
func (cmd *VersionCmd) Run(*cli.Context) error {
	fmt.Println("tablediff " + version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI)

	appCtx := &cli.Context{
		Out:     os.Stdout,
		Verbose: CLI.Verbose,
		Quiet:   CLI.Quiet,
	}

	err := ctx.Run(appCtx)
	if err != nil {
		if errors.Is(err, cli.ErrDifferencesFound) {
			// The report has already been printed.
			os.Exit(1)
		}

		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}
