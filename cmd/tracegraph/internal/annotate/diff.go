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
	"bytes"
	"fmt"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// RenderDiff returns a unified diff between the original and annotated graph.
//
// Annotation only rewrites lines in place, so every hunk is a run of
// consecutive changed lines with equal old and new line counts. An empty
// string means nothing changed.
func RenderDiff(result *Result, origName, newName string) (string, error) {
	if result == nil {
		return "", fmt.Errorf("result is required")
	}
	if len(result.Original) != len(result.Lines) {
		return "", fmt.Errorf("line count mismatch: %d original, %d annotated",
			len(result.Original), len(result.Lines))
	}

	hunks := buildHunks(result.Original, result.Lines)
	if len(hunks) == 0 {
		return "", nil
	}

	fd := &diff.FileDiff{
		OrigName: origName,
		NewName:  newName,
		Hunks:    hunks,
	}
	out, err := diff.PrintFileDiff(fd)
	if err != nil {
		return "", fmt.Errorf("print diff: %w", err)
	}
	return string(out), nil
}

// buildHunks groups consecutive changed lines into hunks without context.
func buildHunks(orig, annotated []string) []*diff.Hunk {
	var hunks []*diff.Hunk
	for i := 0; i < len(orig); {
		if orig[i] == annotated[i] {
			i++
			continue
		}
		start := i
		for i < len(orig) && orig[i] != annotated[i] {
			i++
		}
		hunks = append(hunks, newHunk(orig[start:i], annotated[start:i], start+1))
	}
	return hunks
}

func newHunk(oldLines, newLines []string, startLine int) *diff.Hunk {
	var body bytes.Buffer
	var origNoNewlineAt int32
	for _, l := range oldLines {
		body.WriteString("-")
		body.WriteString(l)
		if !strings.HasSuffix(l, "\n") {
			body.WriteString("\n")
			origNoNewlineAt = int32(body.Len())
		}
	}
	for _, l := range newLines {
		body.WriteString("+")
		body.WriteString(l)
		if !strings.HasSuffix(l, "\n") {
			body.WriteString("\n")
		}
	}
	return &diff.Hunk{
		OrigStartLine:   int32(startLine),
		OrigLines:       int32(len(oldLines)),
		OrigNoNewlineAt: origNoNewlineAt,
		NewStartLine:    int32(startLine),
		NewLines:        int32(len(newLines)),
		Body:            body.Bytes(),
	}
}
