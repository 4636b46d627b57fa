package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/peterbourgon/ff/v4"
)

func newCheckCommand(cfg *config, parent *ff.FlagSet) *ff.Command {
	fs := ff.NewFlagSet("check").SetParent(parent)
	return &ff.Command{
		Name:      "check",
		Usage:     "datadriven check PATH...",
		ShortHelp: "parse fixture files and report malformed ones",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			return execCheck(cfg, args)
		},
	}
}

func execCheck(cfg *config, args []string) error {
	cfg.applyColor()
	log := cfg.logger()

	files, err := fixturePaths(log, args)
	if err != nil {
		return err
	}

	failed := 0
	for _, path := range files {
		parsed, err := readFixture(path)
		if err != nil {
			failed++
			fmt.Fprintf(cfg.stdout, "%s %v\n", color.RedString("FAIL"), err)
			continue
		}
		n := 0
		for _, f := range parsed {
			n += len(f.Cases)
		}
		fmt.Fprintf(cfg.stdout, "%s   %s (%d cases)\n", color.GreenString("ok"), path, n)
	}
	log.Debug("checked fixtures", "files", len(files), "failed", failed)

	if failed > 0 {
		return fmt.Errorf("%d of %d fixture files are malformed", failed, len(files))
	}
	return nil
}
