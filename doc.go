// Copyright 2024 The datadriven Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package datadriven runs table-driven tests whose cases live in plain-text
fixture files.

To invoke the tests, call [RunTest] for one file or [Run] for a directory:

	func TestEval(t *testing.T) {
		datadriven.RunTest(t, "testdata/eval", func(c *datadriven.TestCase) string {
			return eval(c.Input)
		})
	}

Each case is handed to the evaluation function, whose result is compared
with the expected output recorded in the file. Cases of a file run in order,
so the function may keep state from one case to the next.

# File format

A fixture is a sequence of cases separated by blank lines. Blank lines and
lines starting with # between cases are comments:

	# Arithmetic.
	eval
	1 + 1
	----
	2

	eval round=(up, even)
	7 / 2
	----
	4

The first line of a case is the directive: a name followed by arguments,
each written as key, key=value, key=() or key=(v1, v2, ...). Names and
values are runs of letters, digits, '-', '_' and '.'. The lines up to the
separator line "----" are the input. The expected output follows the
separator and ends at the next blank line or at the end of the file.

Output containing blank lines is wrapped in double separators; it ends at
the first pair of consecutive "----" lines:

	render
	----
	----
	foo

	bar
	----
	----

# Rewriting

With the -rewrite test flag or the REWRITE environment variable set, the
expected outputs are not checked. Instead each file is rewritten with the
actual outputs once all of its cases have run:

	REWRITE=1 go test ./...

Only changed output blocks are written; comments, inputs and spacing are
kept as they are. A file is left untouched if the test failed while its
cases were evaluated, for example through [TestCase.Fatalf]. The double separator form is chosen whenever the single
form would not read back as the same output.

# Archives

A fixture path ending in .txtar is a txtar archive whose members are
separate fixture files, reported as archive.txtar/member.

# Directories

[Run], [RunStandalone] and [Walk] find fixtures through the directory's
optional datadriven.toml:

	pattern = "*.txt"
	recursive = true
	skip = ["scratch"]
	unique_names = true

# Command-line Tool

The datadriven command checks, lists and runs fixtures, delegating
evaluation to an external program:

	datadriven check testdata/
	datadriven list -f yaml testdata/eval
	datadriven run -x ./evaluator testdata/
	datadriven run -x ./evaluator -r testdata/   # rewrite

Environment variables with the DATADRIVEN_ prefix are also supported.
*/
package datadriven
