// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package annotate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"single with newline", "a\n", []string{"a\n"}},
		{"single without newline", "a", []string{"a"}},
		{"mixed", "a\nb\nc", []string{"a\n", "b\n", "c"}},
		{"blank lines", "\n\n", []string{"\n", "\n"}},
		{"crlf kept", "a\r\nb\r\n", []string{"a\r\n", "b\r\n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitLines(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, strings.Join(got, ""))
		})
	}
}

// TestGraphLine_MatchesTextSplicing checks that the record form renders the
// same bytes as repeatedly cutting three bytes and appending a suffix.
func TestGraphLine_MatchesTextSplicing(t *testing.T) {
	originals := []string{
		"llfiID_7 [shape=box];\n",
		"llfiID_7 [shape=box];",
		"llfiID_7 [shape=box, label=\"%3 = add\"];\r\n",
		"ab",
		"",
	}
	attrs := []string{`color="red"`, `style="filled", fillcolor="yellow"`, `color="red"`}

	for _, orig := range originals {
		line := newGraphLine(orig)
		text := orig
		for _, attr := range attrs {
			line.mark(attr)
			text = dropLast(text, 3) + ", " + attr + "];\n"
			assert.Equal(t, text, line.String(), "original %q", orig)
		}
	}
}

func TestGraphLine_Unmarked(t *testing.T) {
	line := newGraphLine("llfiID_1 -> llfiID_2;\n")
	assert.False(t, line.marked())
	assert.Equal(t, "llfiID_1 -> llfiID_2;\n", line.String())
}

func TestDropLast(t *testing.T) {
	assert.Equal(t, "ab", dropLast("abcde", 3))
	assert.Equal(t, "", dropLast("abc", 3))
	assert.Equal(t, "", dropLast("a", 3))
}
