package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/justinj/datadriven"
	"github.com/peterbourgon/ff/v4"
)

type runConfig struct {
	prog            string
	rewrite         bool
	timeout         time.Duration
	continueOnError bool
}

func newRunCommand(cfg *config, parent *ff.FlagSet) *ff.Command {
	var rc runConfig
	fs := ff.NewFlagSet("run").SetParent(parent)
	fs.StringVar(&rc.prog, 'x', "exec", "", "evaluator program, run once per test case")
	fs.BoolVar(&rc.rewrite, 'r', "rewrite", "rewrite expected outputs with the actual ones")
	fs.DurationVar(&rc.timeout, 't', "timeout", 10*time.Second, "time limit for one evaluation")
	fs.BoolVar(&rc.continueOnError, 'c', "continue-on-error", "continue with later files after a failure")
	return &ff.Command{
		Name:      "run",
		Usage:     "datadriven run -x PROG [-r] PATH...",
		ShortHelp: "evaluate test cases with an external program",
		LongHelp: strings.Join([]string{
			"Each case runs PROG with the directive name and its canonical arguments,",
			"for example `PROG eval round=(up, even)`, and the case input on stdin.",
			"The combined stdout and stderr of PROG is the actual output. A non-zero",
			"exit status is reported on an extra last line.",
		}, " "),
		Flags: fs,
		Exec: func(ctx context.Context, args []string) error {
			return execRun(ctx, cfg, &rc, args)
		},
	}
}

func execRun(ctx context.Context, cfg *config, rc *runConfig, args []string) error {
	cfg.applyColor()
	log := cfg.logger()

	if rc.prog == "" {
		return fmt.Errorf("missing evaluator program (-x)")
	}
	prog, err := exec.LookPath(rc.prog)
	if err != nil {
		return fmt.Errorf("evaluator: %w", err)
	}

	files, err := fixturePaths(log, args)
	if err != nil {
		return err
	}

	params := datadriven.Params{
		Dir:     ".",
		Rewrite: rc.rewrite,
		Verbose: cfg.verbose,
	}
	log.Debug("running fixtures", "files", len(files), "prog", prog, "rewrite", rc.rewrite)

	// Each file gets its own TestingT so that an evaluator failure fails
	// that file, and keeps it from being rewritten.
	failed := 0
	for _, path := range files {
		ft := &testResultCapture{
			out:     cfg.stdout,
			verbose: cfg.verbose,
		}
		ev := &evaluator{ctx: ctx, prog: prog, timeout: rc.timeout, log: log, t: ft}
		datadriven.RunFilesStandalone(ft, params, ev.eval, path)
		if !ft.failed {
			continue
		}
		failed++
		if !rc.continueOnError || ctx.Err() != nil {
			break
		}
	}

	if failed > 0 {
		return fmt.Errorf("tests failed")
	}
	return nil
}

// evaluator runs an external program for each test case.
type evaluator struct {
	ctx     context.Context
	prog    string
	timeout time.Duration
	log     *slog.Logger
	t       datadriven.TestingT

	broken bool // set once the evaluator itself failed
}

func (e *evaluator) eval(c *datadriven.TestCase) string {
	if e.broken {
		return ""
	}
	argv := []string{c.Directive.Name}
	for _, a := range c.Directive.Args {
		argv = append(argv, a.String())
	}

	ctx := e.ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, e.prog, argv...)
	killProcessGroup(cmd)
	// Descendants that keep the output pipe open must not hold up Wait.
	cmd.WaitDelay = 500 * time.Millisecond
	if c.Input != "" {
		cmd.Stdin = strings.NewReader(c.Input + "\n")
	}
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	start := time.Now()
	err := cmd.Run()
	e.log.Debug("evaluated case", "pos", c.Pos, "args", argv, "duration", time.Since(start), "err", err)

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		e.broken = true
		c.Fatalf(e.t, "evaluator timed out after %s", e.timeout)
	case ctx.Err() != nil:
		e.broken = true
		c.Fatalf(e.t, "evaluator interrupted: %v", ctx.Err())
	case errors.As(err, &exitErr):
		if out.Len() > 0 && !bytes.HasSuffix(out.Bytes(), []byte("\n")) {
			out.WriteByte('\n')
		}
		fmt.Fprintf(&out, "exit status %d\n", exitErr.ExitCode())
	default:
		e.broken = true
		c.Fatalf(e.t, "evaluator: %v", err)
	}
	return out.String()
}

// testResultCapture implements TestingT to report results on a writer.
type testResultCapture struct {
	out     io.Writer
	failed  bool
	verbose bool
}

func (t *testResultCapture) Errorf(format string, args ...any) {
	t.failed = true
	fmt.Fprintf(t.out, format, args...)
	fmt.Fprintln(t.out)
}

func (t *testResultCapture) Fatal(args ...any) {
	t.failed = true
	fmt.Fprint(t.out, color.RedString("FAIL: "))
	fmt.Fprintln(t.out, args...)
	// Don't exit here like testing.T does, just mark as failed
}

func (t *testResultCapture) Fatalf(format string, args ...any) {
	t.failed = true
	fmt.Fprint(t.out, color.RedString("FAIL: "))
	fmt.Fprintf(t.out, format, args...)
	fmt.Fprintln(t.out)
}

func (t *testResultCapture) Log(args ...any) {
	if t.verbose {
		fmt.Fprintln(t.out, args...)
	}
}

func (t *testResultCapture) Logf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	switch {
	case strings.HasPrefix(msg, "--- PASS"):
		fmt.Fprintln(t.out, color.GreenString("%s", msg))
	case strings.HasPrefix(msg, "--- FAIL"):
		fmt.Fprintln(t.out, color.RedString("%s", msg))
	case strings.HasPrefix(msg, "rewrote "), strings.HasPrefix(msg, "not rewriting "), t.verbose:
		fmt.Fprintln(t.out, msg)
	}
}

func (t *testResultCapture) Failed() bool { return t.failed }

func (t *testResultCapture) Helper() {}
