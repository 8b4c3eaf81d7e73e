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
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/tracegraph/cmd/tracegraph/internal/faultreport"
)

const testGraph = "digraph \"main\" {\n" +
	"llfiID_7 [shape=box];\n" +
	"llfiID_12 [shape=box];\n" +
	"llfiID_13 [shape=ellipse];\n" +
	"llfiID_7 -> llfiID_12;\n" +
	"}\n"

// report builds a fault report whose affected set is exactly affected.
func report(faultID int, affected ...int) faultreport.FaultReport {
	recs := make([]faultreport.TraceRecord, len(affected))
	for i, id := range affected {
		recs[i] = faultreport.TraceRecord{ID: id, Opcode: "add"}
	}
	r := faultreport.FaultReport{FaultID: faultID}
	if len(recs) > 0 {
		r.Diffs = []faultreport.DiffBlock{{Faulty: recs}}
	}
	return r
}

// stubParser returns fixed reports or a fixed error.
type stubParser struct {
	reports []faultreport.FaultReport
	err     error
	calls   int
}

func (s *stubParser) ParseFile(_ context.Context, _ string) ([]faultreport.FaultReport, error) {
	s.calls++
	return s.reports, s.err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// =============================================================================
// Apply
// =============================================================================

func TestApply_EndToEndExample(t *testing.T) {
	lines := SplitLines(testGraph)
	got, stats := Apply([]faultreport.FaultReport{report(7, 12)}, lines, DefaultOptions())

	want := []string{
		"digraph \"main\" {\n",
		"llfiID_7 [shape=box, color=\"red\"];\n",
		"llfiID_12 [shape=box, style=\"filled\", fillcolor=\"yellow\"];\n",
		"llfiID_13 [shape=ellipse];\n",
		"llfiID_7 -> llfiID_12;\n",
		"}\n",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 1, stats.Reports)
	assert.Equal(t, 6, stats.Lines)
	assert.Equal(t, 1, stats.InjectedMarks)
	assert.Equal(t, 1, stats.AffectedMarks)
	assert.Equal(t, 2, stats.MarkedLines)
	assert.Empty(t, stats.Unmatched)
}

func TestApply_UnmatchedLinesUnchanged(t *testing.T) {
	lines := SplitLines(testGraph)
	got, _ := Apply([]faultreport.FaultReport{report(7, 12)}, lines, DefaultOptions())

	for _, i := range []int{0, 3, 4, 5} {
		assert.Equal(t, lines[i], got[i], "line %d should be unchanged", i)
	}
}

func TestApply_FaultOnly(t *testing.T) {
	lines := []string{"llfiID_13 [shape=ellipse];\n"}
	got, _ := Apply([]faultreport.FaultReport{report(13)}, lines, DefaultOptions())

	want := lines[0][:len(lines[0])-3] + ", color=\"red\"];\n"
	assert.Equal(t, want, got[0])
}

func TestApply_AffectedOnly(t *testing.T) {
	lines := []string{"llfiID_13 [shape=ellipse];\n"}
	got, stats := Apply([]faultreport.FaultReport{report(99, 13)}, lines, DefaultOptions())

	want := lines[0][:len(lines[0])-3] + ", style=\"filled\", fillcolor=\"yellow\"];\n"
	assert.Equal(t, want, got[0])
	assert.Equal(t, []int{99}, stats.Unmatched)
}

func TestApply_FaultAndAffectedSameLine(t *testing.T) {
	lines := []string{"llfiID_7 [shape=box];\n"}
	got, stats := Apply([]faultreport.FaultReport{report(7, 7)}, lines, DefaultOptions())

	assert.Equal(t, "llfiID_7 [shape=box, color=\"red\", style=\"filled\", fillcolor=\"yellow\"];\n", got[0])
	assert.Equal(t, 1, stats.InjectedMarks)
	assert.Equal(t, 1, stats.AffectedMarks)
	assert.Equal(t, 1, stats.MarkedLines)
}

func TestApply_UnmatchedOnlyWhenNeverMatched(t *testing.T) {
	// The fault mark truncates "[shape]" so the affected check for the same
	// ID misses; the ID still has a node line.
	lines := []string{"llfiID_7 [shape]"}
	got, stats := Apply([]faultreport.FaultReport{report(7, 7)}, lines, DefaultOptions())

	assert.Equal(t, "llfiID_7 [sha, color=\"red\"];\n", got[0])
	assert.Equal(t, 1, stats.InjectedMarks)
	assert.Zero(t, stats.AffectedMarks)
	assert.Empty(t, stats.Unmatched)

	// Matched in one report, missed in a later one.
	lines = []string{"llfiID_4 [shape]\n"}
	_, stats = Apply([]faultreport.FaultReport{report(4), report(4)}, lines, DefaultOptions())
	assert.Equal(t, 1, stats.InjectedMarks)
	assert.Empty(t, stats.Unmatched)
}

func TestApply_CumulativeAcrossReports(t *testing.T) {
	lines := SplitLines(testGraph)
	reports := []faultreport.FaultReport{
		report(12),
		report(7, 12),
	}
	got, stats := Apply(reports, lines, DefaultOptions())

	// Report order decides attribute order on a shared line.
	assert.Equal(t, "llfiID_12 [shape=box, color=\"red\", style=\"filled\", fillcolor=\"yellow\"];\n", got[2])
	assert.Equal(t, "llfiID_7 [shape=box, color=\"red\"];\n", got[1])
	assert.Equal(t, 2, stats.InjectedMarks)
	assert.Equal(t, 1, stats.AffectedMarks)

	// Reversed order: affected first, then fault.
	got, _ = Apply([]faultreport.FaultReport{reports[1], reports[0]}, lines, DefaultOptions())
	assert.Equal(t, "llfiID_12 [shape=box, style=\"filled\", fillcolor=\"yellow\", color=\"red\"];\n", got[2])
}

func TestApply_SameIDInTwoAffectedSets(t *testing.T) {
	lines := []string{"llfiID_5 [shape=box];\n"}
	got, stats := Apply([]faultreport.FaultReport{report(1, 5), report(2, 5)}, lines, DefaultOptions())

	assert.Equal(t, "llfiID_5 [shape=box, style=\"filled\", fillcolor=\"yellow\", style=\"filled\", fillcolor=\"yellow\"];\n", got[0])
	assert.Equal(t, 2, stats.AffectedMarks)
	assert.Equal(t, []int{1, 2}, stats.Unmatched)
}

func TestApply_MissingIdentifierIsByteIdentical(t *testing.T) {
	lines := SplitLines(testGraph)
	got, stats := Apply([]faultreport.FaultReport{report(99)}, lines, DefaultOptions())

	assert.Equal(t, testGraph, strings.Join(got, ""))
	assert.Equal(t, []int{99}, stats.Unmatched)
	assert.Zero(t, stats.MarkedLines)
}

func TestApply_PrefixDoesNotMatchLongerID(t *testing.T) {
	lines := []string{"llfiID_11 [shape=box];\n", "llfiID_1 [shape=box];\n"}
	got, _ := Apply([]faultreport.FaultReport{report(1)}, lines, DefaultOptions())

	assert.Equal(t, lines[0], got[0])
	assert.Equal(t, "llfiID_1 [shape=box, color=\"red\"];\n", got[1])
}

func TestApply_NotIdempotent(t *testing.T) {
	reports := []faultreport.FaultReport{report(7, 12)}
	once, _ := Apply(reports, SplitLines(testGraph), DefaultOptions())
	twice, _ := Apply(reports, once, DefaultOptions())

	// A second pass cuts into the attributes appended by the first pass and
	// appends the marks again.
	assert.NotEqual(t, strings.Join(once, ""), strings.Join(twice, ""))
	assert.Equal(t, "llfiID_7 [shape=box, color=\"red\", color=\"red\"];\n", twice[1])
}

func TestApply_LastLineWithoutNewline(t *testing.T) {
	// Three bytes are always dropped, so a missing trailing newline costs a
	// character of the original attribute list.
	lines := SplitLines("llfiID_7 [shape=box];")
	got, _ := Apply([]faultreport.FaultReport{report(7)}, lines, DefaultOptions())

	assert.Equal(t, "llfiID_7 [shape=bo, color=\"red\"];\n", got[0])
}

func TestApply_CustomOptions(t *testing.T) {
	lines := []string{"node_3 [shape=box];\n", "node_4 [shape=box];\n"}
	opts := Options{NodePrefix: "node_", InjectedColor: "blue", AffectedFill: "gray"}
	got, _ := Apply([]faultreport.FaultReport{report(3, 4)}, lines, opts)

	assert.Equal(t, "node_3 [shape=box, color=\"blue\"];\n", got[0])
	assert.Equal(t, "node_4 [shape=box, style=\"filled\", fillcolor=\"gray\"];\n", got[1])
}

func TestApply_DoesNotModifyInput(t *testing.T) {
	lines := SplitLines(testGraph)
	before := append([]string(nil), lines...)
	Apply([]faultreport.FaultReport{report(7, 12)}, lines, DefaultOptions())
	assert.Equal(t, before, lines)
}

func TestApply_NoReports(t *testing.T) {
	lines := SplitLines(testGraph)
	got, stats := Apply(nil, lines, DefaultOptions())
	assert.Equal(t, lines, got)
	assert.Zero(t, stats.Reports)
	assert.Nil(t, stats.Unmatched)
}

// =============================================================================
// Annotator
// =============================================================================

func TestAnnotator_Annotate_WithParser(t *testing.T) {
	dir := t.TempDir()
	trace := writeFile(t, dir, "trace.txt", "#FaultReport\n7 @ 100\n#Diff\n-ID: 12\tOPCode: add\tValue: 1\n+ID: 12\tOPCode: add\tValue: 3\n")
	graph := writeFile(t, dir, "graph.dot", testGraph)

	a := NewAnnotator(nil, Options{}, nil)
	result, err := a.Annotate(context.Background(), trace, graph)
	require.NoError(t, err)

	want := "digraph \"main\" {\n" +
		"llfiID_7 [shape=box, color=\"red\"];\n" +
		"llfiID_12 [shape=box, style=\"filled\", fillcolor=\"yellow\"];\n" +
		"llfiID_13 [shape=ellipse];\n" +
		"llfiID_7 -> llfiID_12;\n" +
		"}\n"
	if diff := cmp.Diff(want, result.Text()); diff != "" {
		t.Errorf("Text() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, SplitLines(testGraph), result.Original)
}

func TestAnnotator_Run_Stdout(t *testing.T) {
	dir := t.TempDir()
	graph := writeFile(t, dir, "graph.dot", testGraph)
	parser := &stubParser{reports: []faultreport.FaultReport{report(99)}}

	var stdout bytes.Buffer
	a := NewAnnotator(parser, DefaultOptions(), nil)
	result, err := a.Run(context.Background(), Request{TraceFile: "ignored", GraphFile: graph}, &stdout)
	require.NoError(t, err)

	assert.Equal(t, testGraph, stdout.String())
	assert.Equal(t, []int{99}, result.Stats.Unmatched)
	assert.Equal(t, 1, parser.calls)
}

func TestAnnotator_Run_OutputFile(t *testing.T) {
	dir := t.TempDir()
	graph := writeFile(t, dir, "graph.dot", testGraph)
	out := filepath.Join(dir, "annotated.dot")
	parser := &stubParser{reports: []faultreport.FaultReport{report(7, 12)}}

	var stdout bytes.Buffer
	a := NewAnnotator(parser, DefaultOptions(), nil)
	result, err := a.Run(context.Background(), Request{TraceFile: "t", GraphFile: graph, Output: out}, &stdout)
	require.NoError(t, err)

	assert.Zero(t, stdout.Len(), "stdout must stay untouched when writing to a file")
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, result.Text(), string(data))
}

func TestAnnotator_Annotate_MissingTrace(t *testing.T) {
	dir := t.TempDir()
	graph := writeFile(t, dir, "graph.dot", testGraph)

	a := NewAnnotator(faultreport.NewParser(), DefaultOptions(), nil)
	_, err := a.Annotate(context.Background(), filepath.Join(dir, "nope.txt"), graph)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInputNotFound)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "trace file")
}

func TestAnnotator_Annotate_MissingGraph(t *testing.T) {
	a := NewAnnotator(&stubParser{}, DefaultOptions(), nil)
	_, err := a.Annotate(context.Background(), "trace", filepath.Join(t.TempDir(), "nope.dot"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInputNotFound)
	assert.Contains(t, err.Error(), "graph file")
}

func TestAnnotator_Annotate_MalformedTrace(t *testing.T) {
	dir := t.TempDir()
	trace := writeFile(t, dir, "trace.txt", "#FaultReport\nnot a header\n")
	graph := writeFile(t, dir, "graph.dot", testGraph)

	a := NewAnnotator(nil, DefaultOptions(), nil)
	_, err := a.Annotate(context.Background(), trace, graph)
	require.Error(t, err)
	assert.ErrorIs(t, err, faultreport.ErrMalformedTrace)
	assert.False(t, errors.Is(err, ErrInputNotFound))
}

func TestAnnotator_Run_NoPartialOutputOnError(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.dot")
	parser := &stubParser{err: errors.New("parser exploded")}

	var stdout bytes.Buffer
	a := NewAnnotator(parser, DefaultOptions(), nil)
	_, err := a.Run(context.Background(), Request{TraceFile: "t", GraphFile: "g", Output: out}, &stdout)
	require.Error(t, err)

	assert.Zero(t, stdout.Len())
	_, statErr := os.Stat(out)
	assert.True(t, errors.Is(statErr, fs.ErrNotExist))
}

func TestAnnotator_Annotate_CanceledContext(t *testing.T) {
	dir := t.TempDir()
	graph := writeFile(t, dir, "graph.dot", testGraph)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := NewAnnotator(&stubParser{}, DefaultOptions(), nil)
	_, err := a.Annotate(ctx, "t", graph)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassifyReadError(t *testing.T) {
	dir := t.TempDir()

	_, dirErr := os.ReadFile(dir)
	require.Error(t, dirErr)
	_, missingErr := os.Open(filepath.Join(dir, "missing"))
	require.Error(t, missingErr)
	parseErr := &faultreport.ParseError{File: "t.txt", Line: 2, Reason: "bad"}

	tests := []struct {
		name         string
		err          error
		wantNotFound bool
	}{
		{"missing file", missingErr, true},
		{"is a directory", dirErr, true},
		{"wrapped read error", fmt.Errorf("read t.txt: %w", dirErr), true},
		{"parse error", parseErr, false},
		{"canceled", context.Canceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyReadError("trace", "t.txt", tt.err)
			assert.Equal(t, tt.wantNotFound, errors.Is(got, ErrInputNotFound))
			assert.True(t, errors.Is(got, tt.err))
		})
	}
}

func TestNewAnnotator_Defaults(t *testing.T) {
	a := NewAnnotator(nil, Options{NodePrefix: "n_"}, nil)
	opts := a.Options()
	assert.Equal(t, "n_", opts.NodePrefix)
	assert.Equal(t, DefaultInjectedColor, opts.InjectedColor)
	assert.Equal(t, DefaultAffectedFill, opts.AffectedFill)
}
