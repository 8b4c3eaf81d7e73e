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
	"testing"

	"github.com/sourcegraph/go-diff/diff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/tracegraph/cmd/tracegraph/internal/faultreport"
)

func TestRenderDiff(t *testing.T) {
	orig := SplitLines(testGraph)
	lines, _ := Apply([]faultreport.FaultReport{report(7, 12)}, orig, DefaultOptions())

	out, err := RenderDiff(&Result{Original: orig, Lines: lines}, "a/graph.dot", "b/graph.dot")
	require.NoError(t, err)

	fd, err := diff.ParseFileDiff([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "a/graph.dot", fd.OrigName)
	assert.Equal(t, "b/graph.dot", fd.NewName)
	require.Len(t, fd.Hunks, 1)

	h := fd.Hunks[0]
	assert.Equal(t, int32(2), h.OrigStartLine)
	assert.Equal(t, int32(2), h.OrigLines)
	assert.Equal(t, int32(2), h.NewStartLine)
	assert.Equal(t, int32(2), h.NewLines)
	assert.Equal(t,
		"-llfiID_7 [shape=box];\n"+
			"-llfiID_12 [shape=box];\n"+
			"+llfiID_7 [shape=box, color=\"red\"];\n"+
			"+llfiID_12 [shape=box, style=\"filled\", fillcolor=\"yellow\"];\n",
		string(h.Body))
}

func TestRenderDiff_SeparateHunks(t *testing.T) {
	orig := SplitLines(testGraph)
	lines, _ := Apply([]faultreport.FaultReport{report(7, 13)}, orig, DefaultOptions())

	out, err := RenderDiff(&Result{Original: orig, Lines: lines}, "a", "b")
	require.NoError(t, err)

	fd, err := diff.ParseFileDiff([]byte(out))
	require.NoError(t, err)
	require.Len(t, fd.Hunks, 2)
	assert.Equal(t, int32(2), fd.Hunks[0].OrigStartLine)
	assert.Equal(t, int32(4), fd.Hunks[1].OrigStartLine)
}

func TestRenderDiff_NoChanges(t *testing.T) {
	orig := SplitLines(testGraph)
	out, err := RenderDiff(&Result{Original: orig, Lines: orig}, "a", "b")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRenderDiff_NoNewlineAtEOF(t *testing.T) {
	orig := SplitLines("x\nllfiID_7 [shape=box];")
	lines, _ := Apply([]faultreport.FaultReport{report(7)}, orig, DefaultOptions())

	out, err := RenderDiff(&Result{Original: orig, Lines: lines}, "a", "b")
	require.NoError(t, err)
	assert.Contains(t, out, "\\ No newline at end of file")
}

func TestRenderDiff_Invalid(t *testing.T) {
	_, err := RenderDiff(nil, "a", "b")
	assert.Error(t, err)

	_, err = RenderDiff(&Result{Original: []string{"a\n"}}, "a", "b")
	assert.Error(t, err)
}
