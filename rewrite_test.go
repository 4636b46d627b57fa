package datadriven

import (
	"errors"
	"strings"
	"testing"
)

func mustParse(t *testing.T, data string) *TestFile {
	t.Helper()
	f, err := Parse("test", []byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return f
}

func TestRewriteNoEdits(t *testing.T) {
	inputs := []string{
		"",
		"directive\n----\nexpected\n",
		"directive\n----\nexpected\n\nd2\n----\ncontents\n\n",
		"directive\n----\nexpected\n\nd2\n----\n\n",
		"directive\ninput\n----\nexpected\n\n",
		"directive foo=bar\ninput\n----\nexpected\n\n",
		"# header\n\n\neval\n1\n----\n----\na\n\nb\n----\n----\n# trailer\n",
		"eval\n1 + 1\n----\n2",
	}
	for _, in := range inputs {
		f := mustParse(t, in)
		out, err := f.Rewrite(nil)
		if err != nil {
			t.Fatalf("Rewrite(%q): %v", in, err)
		}
		if string(out) != in {
			t.Errorf("Rewrite(%q) = %q, want input unchanged", in, out)
		}
	}
}

func TestRewrite(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		edits map[int]string
		want  string
	}{
		{
			name:  "single line",
			data:  "eval\n1 + 1\n----\n2\n",
			edits: map[int]string{0: "3"},
			want:  "eval\n1 + 1\n----\n3\n",
		},
		{
			name:  "keeps comments and spacing",
			data:  "# header\n\n\na\n----\nold\n\n# between\n\nb\nin\n----\nkeep\n\n\n# trailer\n",
			edits: map[int]string{0: "new\nlines", 1: "keep"},
			want:  "# header\n\n\na\n----\nnew\nlines\n\n# between\n\nb\nin\n----\nkeep\n\n\n# trailer\n",
		},
		{
			name:  "blank line forces double form",
			data:  "render\n----\nold\n\nnext\n----\nx\n",
			edits: map[int]string{0: "foo\n\nbar"},
			want:  "render\n----\n----\nfoo\n\nbar\n----\n----\n\nnext\n----\nx\n",
		},
		{
			name:  "double form back to single",
			data:  "render\n----\n----\nfoo\n\nbar\n----\n----\n",
			edits: map[int]string{0: "foo"},
			want:  "render\n----\nfoo\n",
		},
		{
			name:  "following directive forces double form",
			data:  "a\n----\n----\nx\n\ny\n----\n----\nb\n----\nz\n",
			edits: map[int]string{0: "flat"},
			want:  "a\n----\n----\nflat\n----\n----\nb\n----\nz\n",
		},
		{
			name:  "empty output before a directive",
			data:  "a\n----\n----\nx\n\ny\n----\n----\nb\n----\nz\n",
			edits: map[int]string{0: ""},
			want:  "a\n----\n----\n----\n----\nb\n----\nz\n",
		},
		{
			name:  "empty output",
			data:  "a\n----\nold\n\nb\n----\nz\n",
			edits: map[int]string{0: ""},
			want:  "a\n----\n\nb\n----\nz\n",
		},
		{
			name:  "output starting with a separator",
			data:  "a\n----\nold\n",
			edits: map[int]string{0: "----\nx"},
			want:  "a\n----\n----\n----\nx\n----\n----\n",
		},
		{
			name:  "empty block at end of file without newline",
			data:  "eval\n1 + 1\n----",
			edits: map[int]string{0: "2"},
			want:  "eval\n1 + 1\n----\n2\n",
		},
		{
			name:  "unchanged edit keeps original form",
			data:  "a\n----\n----\nsame\n----\n----\n",
			edits: map[int]string{0: "same"},
			want:  "a\n----\n----\nsame\n----\n----\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := mustParse(t, tt.data)
			out, err := f.Rewrite(tt.edits)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(out) != tt.want {
				t.Errorf("Rewrite() =\n%q\nwant\n%q", out, tt.want)
			}
		})
	}
}

func TestRewriteRoundTrip(t *testing.T) {
	outputs := []string{
		"",
		"x",
		"a\nb\nc",
		"foo\n\nbar",
		"trailing\n",
		"trailing blank\n\n",
		"\nleading",
		"\n",
		"  \nspaces",
		"----\nx",
		"a\n----\nb",
		"# looks like a comment",
	}
	layouts := []string{
		"d\n----\nold\n",
		"d\n----\nold\n\nnext\n----\nz\n",
		"d\n----\n----\nold\n----\n----\nnext\n----\nz\n",
		"# c\n\nd\nin\n----\n",
	}
	for _, layout := range layouts {
		for _, s := range outputs {
			f := mustParse(t, layout)
			out, err := f.Rewrite(map[int]string{0: s})
			if err != nil {
				t.Fatalf("Rewrite(%q) in %q: %v", s, layout, err)
			}
			again := mustParse(t, string(out))
			if len(again.Cases) != len(f.Cases) {
				t.Fatalf("Rewrite(%q) in %q gave %d cases, want %d:\n%s", s, layout, len(again.Cases), len(f.Cases), out)
			}
			if got := again.Cases[0].Expected; got != s {
				t.Errorf("Rewrite(%q) in %q read back as %q:\n%s", s, layout, got, out)
			}
			for i := 1; i < len(f.Cases); i++ {
				if again.Cases[i].Expected != f.Cases[i].Expected {
					t.Errorf("case %d changed from %q to %q", i, f.Cases[i].Expected, again.Cases[i].Expected)
				}
			}
		}
	}
}

func TestRewriteTrailingBlankLineUsesDoubleForm(t *testing.T) {
	f := mustParse(t, "d\n----\nold\n")
	out, err := f.Rewrite(map[int]string{0: "x\n"})
	if err != nil {
		t.Fatal(err)
	}
	if want := "d\n----\n----\nx\n\n----\n----\n"; string(out) != want {
		t.Errorf("Rewrite() = %q, want %q", out, want)
	}
}

func TestRewriteUnrepresentable(t *testing.T) {
	for _, s := range []string{"----", "a\n\n----", "x\n\n----\n----\ny"} {
		f := mustParse(t, "d\n----\nold\n")
		_, err := f.Rewrite(map[int]string{0: s})
		var re *RewriteError
		if !errors.As(err, &re) {
			t.Errorf("Rewrite(%q) error = %v, want *RewriteError", s, err)
		}
	}
}

func TestRewriteBadIndex(t *testing.T) {
	f := mustParse(t, "d\n----\nold\n")
	_, err := f.Rewrite(map[int]string{1: "x"})
	var re *RewriteError
	if !errors.As(err, &re) {
		t.Fatalf("error = %v, want *RewriteError", err)
	}
}

func TestRewriteIdempotent(t *testing.T) {
	data := "# calc\n\nlines n=3\n----\n1\n\nlines n=1 blank\n----\n----\nstale\n----\n----\nlines n=2 blank\n----\nx\n"
	eval := func(c *TestCase) string {
		vals, _ := c.Arg("n")
		var b strings.Builder
		n := int(vals[0][0] - '0')
		for i := 0; i < n; i++ {
			if c.Directive.HasArg("blank") {
				b.WriteString("\n")
			}
			b.WriteString("line\n")
		}
		return b.String()
	}

	f := mustParse(t, data)
	first, err := f.Run(eval, true)
	if err != nil {
		t.Fatal(err)
	}
	if !first.Changed {
		t.Fatal("first rewrite reported no change")
	}

	f2 := mustParse(t, string(first.Output))
	second, err := f2.Run(eval, true)
	if err != nil {
		t.Fatal(err)
	}
	if second.Changed {
		t.Error("second rewrite reported a change")
	}
	if string(second.Output) != string(first.Output) {
		t.Errorf("second rewrite differs:\n%s\nvs\n%s", second.Output, first.Output)
	}

	check, err := f2.Run(eval, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(check.Mismatches) != 0 {
		t.Errorf("rewritten file has mismatches: %v", check.Mismatches)
	}
}
