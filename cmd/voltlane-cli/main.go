package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/voltlane/voltlane/cmd"
	"github.com/voltlane/voltlane/config"
	"github.com/voltlane/voltlane/version"
)

// A command registers its flags on fs and returns the function that runs it
// once the flags are parsed.
type command struct {
	usage string
	setup func(fs *flag.FlagSet) func(cfg config.Config, args []string) error
}

var commands = map[string]command{
	"render":  {"render [flags] project", renderCommand},
	"export":  {"export [flags] project", exportCommand},
	"stems":   {"stems [flags] project", stemsCommand},
	"midi":    {"midi [flags] project", midiCommand},
	"parity":  {"parity [flags] project", parityCommand},
	"demo":    {"demo [flags]", demoCommand},
	"new":     {"new [flags]", newCommand},
	"analyze": {"analyze [flags] audiofile", analyzeCommand},
	"scan":    {"scan [flags] [dir]", scanCommand},
	"info":    {"info [flags] project", infoCommand},
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}
	name, args := os.Args[1], os.Args[2:]
	switch name {
	case "-v", "version":
		fmt.Println(version.VersionOrHash)
		return
	case "-h", "help":
		printUsage()
		return
	}
	c, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n", name)
		printUsage()
		os.Exit(2)
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s %s\n", filepath.Base(os.Args[0]), c.usage)
		fs.PrintDefaults()
	}
	logLevel := fs.String("log", "", "Log level: debug, info, warn or error. Defaults to $"+cmd.LogEnv+", then warn.")
	run := c.setup(fs)
	fs.Parse(args)
	if _, err := cmd.InitLogger(*logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Warn("could not load config, using defaults", "error", err)
	}
	if err := run(cfg, fs.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Voltlane command line utility for rendering and exporting projects.\nUsage:\n")
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	slices.Sort(names)
	for _, n := range names {
		fmt.Fprintf(os.Stderr, "  %s %s\n", filepath.Base(os.Args[0]), commands[n].usage)
	}
	fmt.Fprintf(os.Stderr, "Projects are .json or .yml files; %q uses the built-in demo.\n", cmd.DemoArg)
}
