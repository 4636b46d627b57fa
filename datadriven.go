package datadriven

import (
	"flag"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

const rewriteFlagName = "rewrite"

// The -rewrite flag is only defined in test binaries, and only if nothing
// else registered a flag of that name first. Rewriting honors either one.
func init() {
	if testing.Testing() && flag.Lookup(rewriteFlagName) == nil {
		flag.Bool(rewriteFlagName, false,
			"ignore the expected results and rewrite the fixture files with the actual results of this run")
	}
}

// Rewriting reports whether rewrite mode was requested for this process,
// either with the -rewrite test flag or the REWRITE environment variable.
// REWRITE set to a false value such as "0" does not count.
func Rewriting() bool {
	if f := flag.Lookup(rewriteFlagName); f != nil {
		if b, err := strconv.ParseBool(f.Value.String()); err == nil && b {
			return true
		}
	}
	v, ok := os.LookupEnv("REWRITE")
	if !ok {
		return false
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return true
}

// TestingT is the interface common to *testing.T and *testing.B.
type TestingT interface {
	Errorf(format string, args ...any)
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Log(args ...any)
	Logf(format string, args ...any)
	Failed() bool
	Helper()
}

// Params holds parameters for a call to Run.
type Params struct {
	// Dir is the directory holding the fixture files. Which files are
	// fixtures is decided by the directory's datadriven.toml, if any.
	Dir string

	// Rewrite replaces expected outputs with actual ones instead of
	// comparing them. Rewrite mode is also enabled by Rewriting.
	Rewrite bool

	// Verbose logs every passing case. Run also honors go test -v.
	Verbose bool

	// RequireUniqueNames, if true, requires that all fixture files
	// have unique base names (excluding extensions).
	RequireUniqueNames bool

	// ContinueOnError causes RunStandalone to continue with later files
	// after a file failed.
	ContinueOnError bool
}

func (p Params) rewrite() bool { return p.Rewrite || Rewriting() }

// RunTest runs the cases of the fixture file at path against eval. In
// rewrite mode the file is updated once all cases have run; otherwise every
// mismatch is reported with t.Errorf. A malformed file is fatal.
func RunTest(t TestingT, path string, eval EvalFunc) {
	t.Helper()
	verbose := false
	if _, ok := t.(*testing.T); ok {
		verbose = testing.Verbose()
	}
	runFile(t, path, Params{Verbose: verbose}, eval)
}

// Walk calls fn for every fixture file under dir, each in its own subtest
// named after the file. Use it when eval needs fresh state per file.
func Walk(t *testing.T, dir string, fn func(t *testing.T, path string)) {
	t.Helper()
	p, files := fixtureFiles(t, Params{Dir: dir})
	for _, tc := range buildTestCases(t, p, files) {
		t.Run(tc.name, func(t *testing.T) {
			fn(t, tc.file)
		})
	}
}

// Run runs the fixture files in p.Dir as subtests of t.
func Run(t *testing.T, p Params, eval EvalFunc) {
	t.Helper()
	p, files := fixtureFiles(t, p)
	runFiles(t, p, files, eval)
}

// RunFiles runs the fixture files with the given names as subtests of t.
// The files need not be in the same directory.
func RunFiles(t *testing.T, p Params, eval EvalFunc, filenames ...string) {
	t.Helper()
	runFiles(t, p, filenames, eval)
}

// RunStandalone runs the fixture files in p.Dir without using t.Run.
// This is useful for command-line tools that don't use the testing package.
func RunStandalone(t TestingT, p Params, eval EvalFunc) {
	p, files := fixtureFiles(t, p)
	runFilesStandalone(t, p, files, eval)
}

// RunFilesStandalone runs the fixture files with the given names without using t.Run.
func RunFilesStandalone(t TestingT, p Params, eval EvalFunc, filenames ...string) {
	runFilesStandalone(t, p, filenames, eval)
}

type testCase struct {
	name string
	file string
}

func buildTestCases(t TestingT, p Params, filenames []string) []testCase {
	var tests []testCase
	seen := make(map[string]bool)
	for _, filename := range filenames {
		name := filepath.Base(filename)
		if p.RequireUniqueNames {
			base := strings.TrimSuffix(name, filepath.Ext(name))
			if seen[base] {
				t.Fatalf("duplicate fixture name %q", base)
			}
			seen[base] = true
		}
		if p.Dir != "" {
			if rel, err := filepath.Rel(p.Dir, filename); err == nil && !strings.HasPrefix(rel, "..") {
				name = filepath.ToSlash(rel)
			}
		}
		tests = append(tests, testCase{name, filename})
	}
	return tests
}

// fixtureFiles lists the fixtures of p.Dir and returns p updated with the
// directory's configuration. A directory without fixtures is an error.
func fixtureFiles(t TestingT, p Params) (Params, []string) {
	t.Helper()
	cfg, err := LoadProjectConfig(p.Dir)
	if err != nil {
		t.Fatal(err)
		return p, nil
	}
	files, err := cfg.Files()
	if err != nil {
		t.Fatal(err)
		return p, nil
	}
	if len(files) == 0 {
		t.Fatalf("no fixture files found in %s", p.Dir)
		return p, nil
	}
	if cfg.UniqueNames {
		p.RequireUniqueNames = true
	}
	return p, files
}

func runFiles(t *testing.T, p Params, filenames []string, eval EvalFunc) {
	if !p.Verbose {
		p.Verbose = testing.Verbose()
	}
	for _, tc := range buildTestCases(t, p, filenames) {
		t.Run(tc.name, func(t *testing.T) {
			runFile(t, tc.file, p, eval)
		})
	}
}

func runFilesStandalone(t TestingT, p Params, filenames []string, eval EvalFunc) {
	for _, tc := range buildTestCases(t, p, filenames) {
		ft := &fileT{TestingT: t, before: t.Failed()}
		ft.Logf("=== RUN   %s", tc.name)
		runFile(ft, tc.file, p, eval)
		if ft.Failed() {
			ft.Logf("--- FAIL: %s", tc.name)
			if !p.ContinueOnError {
				return
			}
		} else {
			ft.Logf("--- PASS: %s", tc.name)
		}
	}
}

// fileT tracks the failure of a single file when several files share one
// TestingT. Failures reported directly on the shared TestingT count too,
// as long as it had not failed before the file started.
type fileT struct {
	TestingT
	failed bool
	before bool
}

func (t *fileT) Errorf(format string, args ...any) {
	t.failed = true
	t.TestingT.Errorf(format, args...)
}

func (t *fileT) Fatal(args ...any) {
	t.failed = true
	t.TestingT.Fatal(args...)
}

func (t *fileT) Fatalf(format string, args ...any) {
	t.failed = true
	t.TestingT.Fatalf(format, args...)
}

func (t *fileT) Failed() bool {
	return t.failed || (!t.before && t.TestingT.Failed())
}

// runFile runs one fixture file or archive. TestingT implementations that
// do not stop on Fatal are supported, hence the returns after each Fatal.
// A file is never rewritten if t failed while its cases were evaluated.
func runFile(t TestingT, path string, p Params, eval EvalFunc) {
	t.Helper()
	if IsArchive(path) {
		runArchive(t, path, p, eval)
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
		return
	}
	f, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
		return
	}
	failedBefore := t.Failed()
	res, ok := runTestFile(t, f, p, eval)
	if !ok || !res.Changed || skipRewrite(t, path, failedBefore) {
		return
	}
	if err := os.WriteFile(path, res.Output, info.Mode().Perm()); err != nil {
		t.Fatal(err)
		return
	}
	t.Logf("rewrote %s", path)
}

func runArchive(t TestingT, path string, p Params, eval EvalFunc) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
		return
	}
	a, err := ReadArchive(path)
	if err != nil {
		t.Fatal(err)
		return
	}
	failedBefore := t.Failed()
	changed := false
	for i, f := range a.Files {
		res, ok := runTestFile(t, f, p, eval)
		if !ok {
			return
		}
		if res.Changed {
			a.Replace(i, res.Output)
			changed = true
		}
	}
	if !changed || skipRewrite(t, path, failedBefore) {
		return
	}
	if err := os.WriteFile(path, a.Format(), info.Mode().Perm()); err != nil {
		t.Fatal(err)
		return
	}
	t.Logf("rewrote %s", path)
}

// skipRewrite reports whether t failed since failedBefore was taken, in
// which case the outputs may be partial and path is left alone.
func skipRewrite(t TestingT, path string, failedBefore bool) bool {
	if failedBefore || !t.Failed() {
		return false
	}
	t.Logf("not rewriting %s: evaluation failed", path)
	return true
}

// runTestFile evaluates the cases of f, reporting each mismatch as soon as
// it is found.
func runTestFile(t TestingT, f *TestFile, p Params, eval EvalFunc) (*Result, bool) {
	t.Helper()
	res, err := f.run(eval, p.rewrite(), func(c *TestCase, actual string, m *Mismatch) {
		switch {
		case m != nil:
			t.Errorf("%s", m)
		case p.Verbose:
			t.Logf("%s:\n%s\n%s\n----\n%s", c.Pos, c.DirectiveLine, c.Input, actual)
		}
	})
	if err != nil {
		t.Fatal(err)
		return nil, false
	}
	return res, true
}
