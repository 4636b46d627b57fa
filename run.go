package datadriven

import (
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"
)

// EvalFunc computes the actual output of a test case. Cases of one file are
// evaluated in order, so an EvalFunc may carry state from case to case.
type EvalFunc func(c *TestCase) string

// Mismatch is a case whose actual output differs from the expected output.
type Mismatch struct {
	Case   *TestCase
	Actual string
}

func (m *Mismatch) Error() string {
	c := m.Case
	return fmt.Sprintf("%s: %s\n%s\nexpected:\n%s\nfound:\n%s\ndiff (-expected +found):\n%s",
		c.Pos, c.DirectiveLine, c.Input, c.Expected, m.Actual, m.Diff())
}

// Diff returns a line diff between the expected and actual output.
func (m *Mismatch) Diff() string {
	return cmp.Diff(strings.Split(m.Case.Expected, "\n"), strings.Split(m.Actual, "\n"))
}

// Result is the outcome of running every case of a file.
type Result struct {
	// Actual holds the normalized output of each case, indexed like Cases.
	Actual []string

	// Mismatches lists failed comparisons. It is always empty in rewrite mode.
	Mismatches []*Mismatch

	// Output is the regenerated file content in rewrite mode.
	Output []byte

	// Changed reports whether Output differs from the original content.
	Changed bool
}

// Run evaluates every case of f in order. Without rewrite, each actual
// output is compared with the expected output and all mismatches are
// collected. With rewrite, nothing is compared and the file content is
// regenerated with the actual outputs.
func (f *TestFile) Run(eval EvalFunc, rewrite bool) (*Result, error) {
	return f.run(eval, rewrite, nil)
}

// run is Run with a hook called after each case, before the next one is
// evaluated. m is nil when the case passed or rewrite is on.
func (f *TestFile) run(eval EvalFunc, rewrite bool, hook func(c *TestCase, actual string, m *Mismatch)) (*Result, error) {
	res := &Result{Actual: make([]string, 0, len(f.Cases))}
	edits := make(map[int]string)
	for i, c := range f.Cases {
		actual := normalizeOutput(eval(c))
		res.Actual = append(res.Actual, actual)

		var m *Mismatch
		if actual != c.Expected {
			if rewrite {
				edits[i] = actual
			} else {
				m = &Mismatch{Case: c, Actual: actual}
				res.Mismatches = append(res.Mismatches, m)
			}
		}
		if hook != nil {
			hook(c, actual, m)
		}
	}

	if rewrite {
		out, err := f.Rewrite(edits)
		if err != nil {
			return nil, err
		}
		res.Output = out
		res.Changed = len(edits) > 0
	}
	return res, nil
}

// normalizeOutput removes the single trailing newline that the fixture
// format cannot express.
func normalizeOutput(s string) string {
	return strings.TrimSuffix(s, "\n")
}
