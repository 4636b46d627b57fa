package datadriven

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Arg is one named argument of a directive line. Vals is nil for a bare
// key and empty (but non-nil) for key=().
type Arg struct {
	Key  string
	Vals []string
}

// String renders the argument the way it would be written on a directive line.
func (a Arg) String() string {
	switch {
	case a.Vals == nil:
		return a.Key
	case len(a.Vals) == 1:
		return a.Key + "=" + a.Vals[0]
	default:
		return a.Key + "=(" + strings.Join(a.Vals, ", ") + ")"
	}
}

// Directive is a parsed directive line: the name of the behavior under test
// and its arguments. Args is sorted by key and keys are unique.
type Directive struct {
	Name string
	Args []Arg
}

// Lookup returns the values of the named argument.
func (d Directive) Lookup(key string) ([]string, bool) {
	i, ok := d.find(key)
	if !ok {
		return nil, false
	}
	return d.Args[i].Vals, true
}

// HasArg reports whether the directive carries the named argument.
func (d Directive) HasArg(key string) bool {
	_, ok := d.find(key)
	return ok
}

// String renders the directive in canonical form: the name followed by the
// arguments in key order. Parsing the result yields an equal Directive.
func (d Directive) String() string {
	var b strings.Builder
	b.WriteString(d.Name)
	for _, a := range d.Args {
		b.WriteByte(' ')
		b.WriteString(a.String())
	}
	return b.String()
}

func (d Directive) find(key string) (int, bool) {
	return slices.BinarySearchFunc(d.Args, key, func(a Arg, k string) int {
		return strings.Compare(a.Key, k)
	})
}

func (d *Directive) insert(a Arg) error {
	i, ok := d.find(a.Key)
	if ok {
		return &DuplicateArgumentError{Key: a.Key}
	}
	d.Args = slices.Insert(d.Args, i, a)
	return nil
}

// ParseDirective parses a directive line:
//
//	directive_line := word arg*
//	arg            := word ('=' value)?
//	value          := word | '(' list ')'
//	list           := '' | word (',' word)*
//
// Words are runs of letters, digits, '-', '_' and '.'. Spaces and tabs
// between tokens are ignored. Errors are *GrammarError or
// *DuplicateArgumentError.
func ParseDirective(line string) (Directive, error) {
	p := &argParser{line: line}
	var d Directive

	switch r := p.peek(); {
	case r == eol:
		return Directive{}, &GrammarError{Msg: "expected directive but directive line ended"}
	case !isWordRune(r):
		return Directive{}, grammarErrorf("expected directive, got %c", r)
	}
	d.Name = p.word()

	for {
		r := p.peek()
		if r == eol {
			return d, nil
		}
		if !isWordRune(r) {
			return Directive{}, grammarErrorf("expected argument name, got %c", r)
		}
		arg := Arg{Key: p.word()}
		if p.peek() == '=' {
			p.advance()
			vals, err := p.value()
			if err != nil {
				return Directive{}, err
			}
			arg.Vals = vals
		}
		if err := d.insert(arg); err != nil {
			return Directive{}, err
		}
	}
}

const eol rune = -1

// argParser is a single-pass cursor over one directive line.
type argParser struct {
	line string
	pos  int
}

// peek skips whitespace and returns the next rune without consuming it.
func (p *argParser) peek() rune {
	for p.pos < len(p.line) && (p.line[p.pos] == ' ' || p.line[p.pos] == '\t') {
		p.pos++
	}
	if p.pos >= len(p.line) {
		return eol
	}
	r, _ := utf8.DecodeRuneInString(p.line[p.pos:])
	return r
}

func (p *argParser) advance() {
	_, n := utf8.DecodeRuneInString(p.line[p.pos:])
	p.pos += n
}

func (p *argParser) word() string {
	start := p.pos
	for p.pos < len(p.line) {
		r, n := utf8.DecodeRuneInString(p.line[p.pos:])
		if !isWordRune(r) {
			break
		}
		p.pos += n
	}
	return p.line[start:p.pos]
}

// value parses what follows '=': a single word or a parenthesized list.
func (p *argParser) value() ([]string, error) {
	switch r := p.peek(); {
	case r == eol:
		return nil, errValueEnded()
	case isWordRune(r):
		return []string{p.word()}, nil
	case r != '(':
		return nil, grammarErrorf("expected argument value, got %c", r)
	}
	p.advance()

	vals := []string{}
	if p.peek() == ')' {
		p.advance()
		return vals, nil
	}
	for {
		switch r := p.peek(); {
		case r == eol:
			return nil, errValueEnded()
		case !isWordRune(r):
			return nil, grammarErrorf("expected argument value, got %c", r)
		}
		vals = append(vals, p.word())

		switch r := p.peek(); r {
		case ',':
			p.advance()
		case ')':
			p.advance()
			return vals, nil
		case eol:
			return nil, &GrammarError{Msg: "expected ',' or '', but directive line ended"}
		default:
			return nil, grammarErrorf("expected ',' or ')', got '%c'", r)
		}
	}
}

func isWordRune(r rune) bool {
	return r == '-' || r == '_' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func errValueEnded() error {
	return &GrammarError{Msg: "expected argument value but directive line ended"}
}

func grammarErrorf(format string, args ...any) error {
	return &GrammarError{Msg: fmt.Sprintf(format, args...)}
}
