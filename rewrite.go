package datadriven

import (
	"bytes"
	"fmt"
	"strings"
)

// Rewrite regenerates the file with the output blocks of some cases
// replaced. edits maps a case index (its position in f.Cases) to the new
// output. Every line outside a replaced output block is copied unchanged,
// and parsing the result yields each new output as the case's Expected.
func (f *TestFile) Rewrite(edits map[int]string) ([]byte, error) {
	for i := range edits {
		if i < 0 || i >= len(f.Cases) {
			return nil, &RewriteError{Pos: f.Name, Msg: fmt.Sprintf("no test case with index %d", i)}
		}
	}

	var buf bytes.Buffer
	for _, s := range f.spans {
		out, ok := "", false
		if s.c != nil {
			out, ok = edits[s.c.index]
		}
		if !ok || out == s.c.Expected {
			for _, l := range f.lines[s.start:s.end] {
				buf.WriteString(l)
			}
			continue
		}

		block, err := formatOutput(out, f.endsAtBlank(s.end))
		if err != nil {
			return nil, &RewriteError{Pos: s.c.Pos, Msg: err.Error()}
		}
		// The separator may be the last line of a file with no final newline.
		if buf.Len() > 0 && buf.Bytes()[buf.Len()-1] != '\n' {
			buf.WriteByte('\n')
		}
		buf.WriteString(block)
	}
	return buf.Bytes(), nil
}

// endsAtBlank reports whether the line at index i would terminate a
// single-form output block.
func (f *TestFile) endsAtBlank(i int) bool {
	return i >= len(f.lines) || isBlank(trimEOL(f.lines[i]))
}

// formatOutput serializes out as an output block. The single form is used
// when out has no blank line, does not start with a separator, and the
// block is followed by a blank line or the end of the file; otherwise out
// is wrapped in double separators.
func formatOutput(out string, endsAtBlank bool) (string, error) {
	lines := strings.Split(out, "\n")
	if endsAtBlank && !needsDouble(lines) {
		if out == "" {
			return "", nil
		}
		return out + "\n", nil
	}

	for i, l := range lines {
		if l == separator && (i == len(lines)-1 || lines[i+1] == separator) {
			return "", fmt.Errorf("output line %d: %q cannot appear here inside a ---- ---- block", i+1, separator)
		}
	}
	var b strings.Builder
	b.WriteString(separator + "\n")
	if out != "" {
		b.WriteString(out)
		b.WriteByte('\n')
	}
	b.WriteString(separator + "\n" + separator + "\n")
	return b.String(), nil
}

func needsDouble(lines []string) bool {
	if len(lines) == 1 && lines[0] == "" {
		return false
	}
	if lines[0] == separator {
		return true
	}
	for _, l := range lines {
		if isBlank(l) {
			return true
		}
	}
	return false
}
