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

import "strings"

// markSuffix closes a node attribute list.
const markSuffix = "];\n"

// SplitLines splits text into lines, keeping each line's trailing newline.
// A final line without a newline is kept as is. Joining the result with ""
// reproduces text exactly.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// graphLine is one line of graph text plus the marks applied to it.
type graphLine struct {
	original string

	// head is original minus its last three bytes; set on the first mark.
	head  string
	attrs []string

	// rendered caches String().
	rendered string
}

func newGraphLine(text string) *graphLine {
	return &graphLine{original: text, rendered: text}
}

func (l *graphLine) marked() bool {
	return len(l.attrs) > 0
}

// mark appends one attribute, as if the last three bytes of the current
// text were replaced by ", <attr>];\n".
func (l *graphLine) mark(attr string) {
	if !l.marked() {
		l.head = dropLast(l.original, len(markSuffix))
	}
	l.attrs = append(l.attrs, attr)
	l.rendered = l.render()
}

func (l *graphLine) render() string {
	if !l.marked() {
		return l.original
	}
	var sb strings.Builder
	sb.WriteString(l.head)
	for _, attr := range l.attrs {
		sb.WriteString(", ")
		sb.WriteString(attr)
	}
	sb.WriteString(markSuffix)
	return sb.String()
}

func (l *graphLine) String() string {
	return l.rendered
}

// dropLast removes the last n bytes of s, or all of s when it is shorter.
func dropLast(s string, n int) string {
	if len(s) <= n {
		return ""
	}
	return s[:len(s)-n]
}
