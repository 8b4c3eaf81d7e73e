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
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("tracegraph.faultreport")

const (
	markerReportFile  = "#TraceReportFile"
	markerFaultReport = "#FaultReport"
	markerDiff        = "#Diff"
)

var (
	// headerPattern matches "<faultID> @ <faultCycle>".
	headerPattern = regexp.MustCompile(`^(-?\d+)\s*@\s*(-?\d+)$`)

	// rangePattern matches a normal-diff range such as "3,4c3,4" or "7a8".
	rangePattern = regexp.MustCompile(`^\d+(,\d+)?[acd]\d+(,\d+)?$`)
)

// Parser reads trace-diff report files.
//
// The zero value is ready to use.
type Parser struct{}

// NewParser creates a Parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile opens path and parses every fault report in it.
//
// Open failures are returned unwrapped from the os package so callers can
// test them with errors.Is(err, fs.ErrNotExist). Syntax problems are
// returned as *ParseError.
func (p *Parser) ParseFile(ctx context.Context, path string) ([]FaultReport, error) {
	ctx, span := tracer.Start(ctx, "faultreport.ParseFile",
		trace.WithAttributes(attribute.String("faultreport.path", path)),
	)
	defer span.End()

	f, err := os.Open(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		return nil, err
	}
	defer f.Close()

	reports, err := p.parse(ctx, path, f)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("faultreport.count", len(reports)))
	return reports, nil
}

// Parse parses fault reports from r. name is only used in error messages.
func (p *Parser) Parse(ctx context.Context, name string, r io.Reader) ([]FaultReport, error) {
	return p.parse(ctx, name, r)
}

type parseState int

const (
	stateTop parseState = iota
	stateHeader
	stateReport
	stateDiff
)

func (p *Parser) parse(ctx context.Context, name string, r io.Reader) ([]FaultReport, error) {
	var (
		reports []FaultReport
		current *FaultReport
		diff    *DiffBlock
		state   = stateTop
		lineNo  int
	)

	fail := func(format string, args ...any) error {
		return &ParseError{File: name, Line: lineNo, Reason: fmt.Sprintf(format, args...)}
	}

	flushDiff := func() {
		if current != nil && diff != nil {
			current.Diffs = append(current.Diffs, *diff)
		}
		diff = nil
	}
	flushReport := func() {
		flushDiff()
		if current != nil {
			reports = append(reports, *current)
		}
		current = nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw := strings.TrimRight(scanner.Text(), "\r")
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		switch {
		case state == stateHeader:
			m := headerPattern.FindStringSubmatch(line)
			if m == nil {
				return nil, fail("expected \"<faultID> @ <cycle>\" after %s, got %q", markerFaultReport, line)
			}
			id, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, fail("invalid fault ID %q", m[1])
			}
			cycle, err := strconv.ParseInt(m[2], 10, 64)
			if err != nil {
				return nil, fail("invalid fault cycle %q", m[2])
			}
			current = &FaultReport{FaultID: id, FaultCycle: cycle}
			state = stateReport

		case line == markerFaultReport:
			flushReport()
			state = stateHeader

		case line == markerDiff:
			if current == nil {
				return nil, fail("%s outside of a fault report", markerDiff)
			}
			flushDiff()
			diff = &DiffBlock{}
			state = stateDiff

		case strings.HasPrefix(line, "#"):
			if state != stateTop && line != markerReportFile {
				return nil, fail("unexpected marker %q", line)
			}

		case state == stateDiff && rangePattern.MatchString(line):
			if diff.Range != "" || len(diff.Golden)+len(diff.Faulty)+len(diff.Context) > 0 {
				return nil, fail("diff range %q must directly follow %s", line, markerDiff)
			}
			diff.Range = line

		case state == stateDiff:
			kind, rec, err := parseRecordLine(raw)
			if err != nil {
				return nil, fail("%v", err)
			}
			switch kind {
			case '-':
				diff.Golden = append(diff.Golden, rec)
			case '+':
				diff.Faulty = append(diff.Faulty, rec)
			default:
				diff.Context = append(diff.Context, rec)
			}

		default:
			return nil, fail("unexpected content %q", line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if state == stateHeader {
		lineNo++
		return nil, fail("%s without a header at end of file", markerFaultReport)
	}
	flushReport()
	return reports, nil
}

// parseRecordLine splits a diff line into its marker and trace record.
func parseRecordLine(raw string) (byte, TraceRecord, error) {
	var kind byte = ' '
	body := raw
	if len(body) > 0 && (body[0] == '-' || body[0] == '+') {
		kind = body[0]
		body = body[1:]
	}
	rec, err := ParseRecord(body)
	return kind, rec, err
}

// ParseRecord parses one tracer record ("ID: 12\tOPCode: add\tValue: 0a").
//
// Only the ID field is required. Fields are tab separated; unknown fields
// are ignored.
func ParseRecord(s string) (TraceRecord, error) {
	var rec TraceRecord
	fields := strings.Split(strings.TrimSpace(s), "\t")
	idSeen := false
	for _, field := range fields {
		key, value, ok := strings.Cut(field, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "ID":
			id, err := strconv.Atoi(value)
			if err != nil {
				return TraceRecord{}, fmt.Errorf("invalid instruction ID %q", value)
			}
			rec.ID = id
			idSeen = true
		case "OPCode":
			rec.Opcode = value
		case "Value":
			rec.Value = value
		}
	}
	if !idSeen {
		return TraceRecord{}, fmt.Errorf("trace record %q has no ID field", strings.TrimSpace(s))
	}
	return rec, nil
}
