// Command atlas prepares the data files the server reads: verse text
// conversion, graph building, cross-reference enrichment and SQLite
// snapshots.
package main

import (
	"github.com/alecthomas/kong"

	"github.com/ringmast4r/project147/internal/util"
	"github.com/ringmast4r/project147/pkg/logger"
	"github.com/ringmast4r/project147/pkg/logger/console"
)

var CLI struct {
	Debug bool `help:"Enable debug logging" env:"DEBUG"`

	ConvertTexts ConvertTextsCmd `cmd:"" help:"Convert scrollmapper deuterocanonical texts to JSON"`
	BuildGraph   BuildGraphCmd   `cmd:"" help:"Build the chapter graph from cross-reference files"`
	Enrich       EnrichCmd       `cmd:"" help:"Attach KJV text to cross-references"`
	Snapshot     SnapshotCmd     `cmd:"" help:"Write a graph and its cross-references to SQLite"`
	Stats        StatsCmd        `cmd:"" help:"Print the statistics of a graph file"`
}

func main() {
	util.LoadEnv()

	ctx := kong.Parse(&CLI,
		kong.Name("atlas"),
		kong.Description("Scripture cross-reference atlas data tools"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{Debug: CLI.Debug}))

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
