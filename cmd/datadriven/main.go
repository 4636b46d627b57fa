package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/justinj/datadriven"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
)

type config struct {
	verbose bool
	noColor bool

	stdout io.Writer
	stderr io.Writer
}

func (cfg *config) registerFlags(fs *ff.FlagSet) {
	fs.BoolVar(&cfg.verbose, 'v', "verbose", "enable verbose output")
	fs.BoolVar(&cfg.noColor, 0, "no-color", "disable colored output")
}

// logger returns the diagnostic logger for the selected verbosity.
func (cfg *config) logger() *slog.Logger {
	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cfg.stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	// Evaluators run in their own process group, so interrupts reach them
	// through ctx.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cmd := NewCommand(os.Stdout, os.Stderr)

	// Parse flags with ff for environment variable support
	err := cmd.ParseAndRun(ctx, os.Args[1:], ff.WithEnvVarPrefix("DATADRIVEN"))
	switch {
	case errors.Is(err, ff.ErrHelp):
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Command(cmd.GetSelected()))
		os.Exit(2)
	case err != nil:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// NewCommand creates the root ff.Command for the datadriven CLI.
func NewCommand(stdout, stderr io.Writer) *ff.Command {
	cfg := &config{stdout: stdout, stderr: stderr}

	fs := ff.NewFlagSet("datadriven")
	cfg.registerFlags(fs)

	return &ff.Command{
		Name:  "datadriven",
		Usage: "datadriven [FLAGS] <check|list|run> PATH...",
		Flags: fs,
		Subcommands: []*ff.Command{
			newCheckCommand(cfg, fs),
			newListCommand(cfg, fs),
			newRunCommand(cfg, fs),
		},
		Exec: func(ctx context.Context, args []string) error {
			return fmt.Errorf("missing subcommand: check, list or run")
		},
	}
}

// fixturePaths expands the command-line targets into fixture files.
// Directories are expanded through their datadriven.toml; the resulting
// paths keep the directory argument as prefix so that positions stay
// readable.
func fixturePaths(log *slog.Logger, targets []string) ([]string, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("at least one argument required")
	}

	var files []string
	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", target, err)
		}
		if !info.IsDir() {
			files = append(files, target)
			continue
		}

		cfg, err := datadriven.LoadProjectConfig(target)
		if err != nil {
			return nil, err
		}
		found, err := cfg.Files()
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", target, err)
		}
		log.Debug("expanded directory", "dir", target, "files", len(found), "pattern", cfg.Pattern, "recursive", cfg.Recursive)
		for _, f := range found {
			rel, err := filepath.Rel(cfg.Dir(), f)
			if err != nil {
				return nil, err
			}
			files = append(files, filepath.Join(target, rel))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no fixture files found in %v", targets)
	}
	return files, nil
}

// readFixture parses a fixture file or every member of a fixture archive.
func readFixture(path string) ([]*datadriven.TestFile, error) {
	if datadriven.IsArchive(path) {
		a, err := datadriven.ReadArchive(path)
		if err != nil {
			return nil, err
		}
		return a.Files, nil
	}
	f, err := datadriven.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return []*datadriven.TestFile{f}, nil
}

func (cfg *config) applyColor() {
	if cfg.noColor {
		color.NoColor = true
	}
}
