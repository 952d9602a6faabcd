// squaremesh turns 2D occupancy grids into triangle meshes using marching squares.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/squaremesh/internal/config"
	"github.com/Faultbox/squaremesh/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	err := run(os.Args[1:], os.Stdin, os.Stdout)
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	command, args := args[0], args[1:]

	var err error
	switch command {
	case "build", "b":
		err = cmdBuild(args, stdin, stdout)
	case "batch":
		err = cmdBatch(args, stdout)
	case "info":
		err = cmdInfo(args, stdin, stdout)
	case "maps", "ls":
		err = cmdMaps(args, stdout)
	case "grid":
		err = cmdGrid(args, stdin, stdout)
	case "init":
		err = cmdInit(args, stdout)
	case "help", "-h", "--help":
		printUsage(stdout)
	default:
		printUsage(os.Stderr)
		return fmt.Errorf("unknown command: %s", command)
	}

	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	return err
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `squaremesh - marching squares mesh generator

Usage:
  squaremesh <command> [options]

Commands:
  build [source] [-o file]   Mesh one grid and export it
  batch [map...]             Mesh maps from the GRF archives in parallel
  info [source]              Show grid and mesh statistics
  maps [file.grf...]         List the maps stored in GRF archives
  grid [source]              Print a source as a text grid
  init [-global]             Write the current settings to a config file

Sources (pick one):
  -grid <file.txt>   Text grid, '#' solid and '.' empty, first line on top
  -gat <file.gat>    Ragnarok Online altitude table
  -map <name>        Map read from the configured GRF archives
  -shapes            Shapes listed in the config file

Common options:
  -config <file>     Config file (default ./squaremesh.yaml)
  -debug             Enable debug logging
  -cell <size>       Cell size in world units
  -format obj|json   Output format
  -out <dir>         Output directory
  -workers <n>       Batch worker count

Examples:
  squaremesh build room.txt -o -
  squaremesh build -map prontera -format json
  squaremesh batch -workers 8 prontera izlude geffen
  squaremesh info -gat data/prontera.gat
  squaremesh grid -map izlude > izlude.txt`)
}

// newFlagSet returns a flag set for a command with the shared config flags registered.
func newFlagSet(name string) (*flag.FlagSet, *config.Flags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	return fs, config.RegisterFlags(fs)
}

// setup parses args, loads the configuration and initializes logging.
// Flags may follow positional arguments; the positionals are returned in order.
func setup(fs *flag.FlagSet, flags *config.Flags, args []string) (*config.Config, []string, error) {
	positional, err := parseArgs(fs, args)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	logger.Sugar.Debugf("Config: %+v", cfg)
	return cfg, positional, nil
}

// parseArgs parses flags anywhere in args. The flag package stops at the
// first non-flag argument, so parsing resumes after each positional until
// args run out or a "--" terminator is seen.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		if consumed := len(args) - len(rest); consumed > 0 && args[consumed-1] == "--" {
			return append(positional, rest...), nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}
