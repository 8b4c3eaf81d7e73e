// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package faultreport

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleReport = "#TraceReportFile\n" +
	"#FaultReport\n" +
	"7 @ 1520\n" +
	"#Diff\n" +
	"3,4c3,4\n" +
	"-ID: 12\tOPCode: add\tValue: 0000000a\n" +
	"+ID: 12\tOPCode: add\tValue: 0000000b\n" +
	" ID: 13\tOPCode: br\tValue: 0\n" +
	"#Diff\n" +
	"+ID: 15\tOPCode: store\tValue: ff\n" +
	"\n" +
	"#FaultReport\n" +
	"20 @ 88\n"

func TestParser_Parse_Sample(t *testing.T) {
	reports, err := NewParser().Parse(context.Background(), "sample", strings.NewReader(sampleReport))
	require.NoError(t, err)
	require.Len(t, reports, 2)

	first := reports[0]
	assert.Equal(t, 7, first.FaultID)
	assert.Equal(t, int64(1520), first.FaultCycle)
	require.Len(t, first.Diffs, 2)
	assert.Equal(t, "3,4c3,4", first.Diffs[0].Range)
	assert.Equal(t, []TraceRecord{{ID: 12, Opcode: "add", Value: "0000000a"}}, first.Diffs[0].Golden)
	assert.Equal(t, []TraceRecord{{ID: 12, Opcode: "add", Value: "0000000b"}}, first.Diffs[0].Faulty)
	assert.Equal(t, []TraceRecord{{ID: 13, Opcode: "br", Value: "0"}}, first.Diffs[0].Context)
	assert.Equal(t, []int{12, 15}, first.AffectedSet())

	second := reports[1]
	assert.Equal(t, 20, second.FaultID)
	assert.Empty(t, second.Diffs)
	assert.Empty(t, second.AffectedSet())
}

func TestParser_Parse_Empty(t *testing.T) {
	reports, err := NewParser().Parse(context.Background(), "empty", strings.NewReader("#TraceReportFile\n\n"))
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestParser_Parse_Malformed(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine int
	}{
		{"bad header", "#FaultReport\nseven @ 1\n", 2},
		{"missing header at EOF", "#FaultReport\n", 2},
		{"diff outside report", "#Diff\n-ID: 1\n", 1},
		{"record without ID", "#FaultReport\n1 @ 1\n#Diff\n-OPCode: add\n", 4},
		{"non-numeric ID", "#FaultReport\n1 @ 1\n#Diff\n+ID: x\tOPCode: add\n", 4},
		{"stray content", "hello\n", 1},
		{"content before diff", "#FaultReport\n1 @ 1\n-ID: 3\n", 3},
		{"late range", "#FaultReport\n1 @ 1\n#Diff\n-ID: 3\n3c3\n", 5},
		{"unknown marker", "#FaultReport\n1 @ 1\n#Bogus\n", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser().Parse(context.Background(), "bad.txt", strings.NewReader(tt.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedTrace), "error should wrap ErrMalformedTrace: %v", err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, "bad.txt", perr.File)
			assert.Equal(t, tt.wantLine, perr.Line)
		})
	}
}

func TestParser_Parse_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewParser().Parse(ctx, "sample", strings.NewReader(sampleReport))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParser_ParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleReport), 0o644))

	reports, err := NewParser().ParseFile(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, reports, 2)
}

func TestParser_ParseFile_NotFound(t *testing.T) {
	_, err := NewParser().ParseFile(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.False(t, errors.Is(err, ErrMalformedTrace))
}

func TestParseRecord(t *testing.T) {
	rec, err := ParseRecord("ID: 42\tOPCode: load\tValue: deadbeef")
	require.NoError(t, err)
	assert.Equal(t, TraceRecord{ID: 42, Opcode: "load", Value: "deadbeef"}, rec)

	rec, err = ParseRecord("ID: 3")
	require.NoError(t, err)
	assert.Equal(t, 3, rec.ID)

	_, err = ParseRecord("OPCode: load")
	assert.Error(t, err)
}

func TestFaultReport_AffectedSet_Dedup(t *testing.T) {
	r := FaultReport{
		FaultID: 1,
		Diffs: []DiffBlock{
			{Golden: []TraceRecord{{ID: 9}, {ID: 4}}, Faulty: []TraceRecord{{ID: 9}}},
			{Faulty: []TraceRecord{{ID: 4}, {ID: 2}}, Context: []TraceRecord{{ID: 100}}},
		},
	}
	assert.Equal(t, []int{2, 4, 9}, r.AffectedSet())
}

func TestParseError_Error(t *testing.T) {
	err := &ParseError{File: "t.txt", Line: 3, Reason: "boom"}
	assert.Equal(t, "malformed trace report: t.txt:3: boom", err.Error())

	err = &ParseError{Line: 1, Reason: "boom"}
	assert.Equal(t, "malformed trace report: line 1: boom", err.Error())
}
