package datadriven

import (
	"fmt"
	"os"
	"strings"
)

const separator = "----"

// TestCase is one directive/input/output block of a fixture file.
type TestCase struct {
	Pos           string // file and line number of the directive
	Directive     Directive
	DirectiveLine string // directive line as written
	Input         string // lines between directive and separator, without the final newline
	Expected      string // output block, without the final newline

	// StartLine and EndLine are the 1-based lines of the directive and of
	// the last line belonging to the case.
	StartLine int
	EndLine   int

	index    int
	outStart int // index of the first output line
	outEnd   int // index past the last output line, closing separators included
}

// Arg returns the values of the named directive argument.
func (c *TestCase) Arg(key string) ([]string, bool) {
	return c.Directive.Lookup(key)
}

// Fatalf fails t with a message prefixed by the case position.
func (c *TestCase) Fatalf(t TestingT, format string, args ...any) {
	t.Helper()
	t.Fatalf("%s: %s", c.Pos, fmt.Sprintf(format, args...))
}

// TestFile is a parsed fixture file. Besides the cases it keeps the source
// lines and an ordered list of spans covering every line exactly once, so
// that the file can be regenerated with only the output blocks changed.
type TestFile struct {
	Name  string
	Cases []*TestCase

	lines []string // source lines, terminators included
	spans []span
}

// span is a run of source lines [start, end). It belongs to the output
// block of c, or is verbatim text when c is nil.
type span struct {
	start, end int
	c          *TestCase
}

// ReadFile reads and parses the fixture file at path.
func ReadFile(path string) (*TestFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, data)
}

// Parse parses fixture data. name is used in positions and errors.
// Errors are *ParseError.
func Parse(name string, data []byte) (*TestFile, error) {
	f := &TestFile{Name: name, lines: splitLines(string(data))}

	verbatim := 0
	for i := 0; i < len(f.lines); {
		line := trimEOL(f.lines[i])
		if isBlank(line) || strings.HasPrefix(line, "#") {
			i++
			continue
		}
		if line == separator {
			return nil, f.errorf(i, "separator without a preceding directive")
		}
		c, err := f.parseCase(i)
		if err != nil {
			return nil, err
		}
		c.index = len(f.Cases)
		f.Cases = append(f.Cases, c)
		f.spans = append(f.spans,
			span{start: verbatim, end: c.outStart},
			span{start: c.outStart, end: c.outEnd, c: c},
		)
		verbatim = c.outEnd
		i = c.outEnd
	}
	f.spans = append(f.spans, span{start: verbatim, end: len(f.lines)})
	return f, nil
}

// parseCase parses the case whose directive is on line i.
func (f *TestFile) parseCase(i int) (*TestCase, error) {
	directiveLine := trimEOL(f.lines[i])
	d, err := ParseDirective(directiveLine)
	if err != nil {
		return nil, &ParseError{File: f.Name, Line: i + 1, Err: err}
	}
	c := &TestCase{
		Pos:           fmt.Sprintf("%s:%d", f.Name, i+1),
		Directive:     d,
		DirectiveLine: directiveLine,
		StartLine:     i + 1,
	}

	j := i + 1
	for j < len(f.lines) && trimEOL(f.lines[j]) != separator {
		j++
	}
	if j == len(f.lines) {
		return nil, f.errorf(i, "missing separator")
	}
	c.Input = joinLines(f.lines[i+1 : j])
	j++

	c.outStart = j
	if j < len(f.lines) && trimEOL(f.lines[j]) == separator {
		// Double form: runs until two consecutive separator lines.
		k := j + 1
		for k+1 < len(f.lines) && !(trimEOL(f.lines[k]) == separator && trimEOL(f.lines[k+1]) == separator) {
			k++
		}
		if k+1 >= len(f.lines) {
			return nil, f.errorf(j, "missing closing ---- ---- separator")
		}
		c.Expected = joinLines(f.lines[j+1 : k])
		c.outEnd = k + 2
	} else {
		k := j
		for k < len(f.lines) && !isBlank(trimEOL(f.lines[k])) {
			k++
		}
		c.Expected = joinLines(f.lines[j:k])
		c.outEnd = k
	}
	c.EndLine = c.outEnd
	return c, nil
}

func (f *TestFile) errorf(i int, format string, args ...any) error {
	return &ParseError{File: f.Name, Line: i + 1, Err: &StructuralError{Msg: fmt.Sprintf(format, args...)}}
}

// splitLines splits s after each newline. A final line without a newline
// is kept; a trailing empty string is not.
func splitLines(s string) []string {
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func trimEOL(line string) string {
	return strings.TrimSuffix(line, "\n")
}

func joinLines(lines []string) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(trimEOL(l))
	}
	return b.String()
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}
