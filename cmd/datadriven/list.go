package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/peterbourgon/ff/v4"
	"gopkg.in/yaml.v3"
)

// caseEntry is the listed form of a test case.
type caseEntry struct {
	Pos       string `json:"pos" yaml:"pos"`
	Directive string `json:"directive" yaml:"directive"`
	Input     string `json:"input,omitempty" yaml:"input,omitempty"`
	Expected  string `json:"expected" yaml:"expected"`
}

func newListCommand(cfg *config, parent *ff.FlagSet) *ff.Command {
	var format string
	fs := ff.NewFlagSet("list").SetParent(parent)
	fs.StringVar(&format, 'f', "format", "text", "output format: text, json or yaml")
	return &ff.Command{
		Name:      "list",
		Usage:     "datadriven list [-f FORMAT] PATH...",
		ShortHelp: "print the test cases of fixture files",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			return execList(cfg, format, args)
		},
	}
}

func execList(cfg *config, format string, args []string) error {
	write, ok := listFormats[format]
	if !ok {
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}

	files, err := fixturePaths(cfg.logger(), args)
	if err != nil {
		return err
	}

	entries := []caseEntry{}
	for _, path := range files {
		parsed, err := readFixture(path)
		if err != nil {
			return err
		}
		for _, f := range parsed {
			for _, c := range f.Cases {
				entries = append(entries, caseEntry{
					Pos:       c.Pos,
					Directive: c.Directive.String(),
					Input:     c.Input,
					Expected:  c.Expected,
				})
			}
		}
	}
	return write(cfg.stdout, entries)
}

var listFormats = map[string]func(io.Writer, []caseEntry) error{
	"text": writeText,
	"json": writeJSON,
	"yaml": writeYAML,
}

func writeText(w io.Writer, entries []caseEntry) error {
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", e.Pos, e.Directive); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, entries []caseEntry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func writeYAML(w io.Writer, entries []caseEntry) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return err
	}
	return enc.Close()
}
