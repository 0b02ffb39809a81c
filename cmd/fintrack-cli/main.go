package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"fintrack/internal/cli"
	"fintrack/internal/log"
)

func main() {
	// Logs go to stderr so command output stays pipeable.
	cfg, logger := cli.Bootstrap(log.ComponentCLI, os.Stderr)
	app := &cli.App{Config: cfg, Logger: logger, Out: os.Stdout, Err: os.Stderr}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	for _, c := range app.Commands() {
		commander.Register(c, "")
	}

	flag.Parse()
	ctx := log.NewContext(context.Background(), logger)
	os.Exit(int(commander.Execute(ctx)))
}
