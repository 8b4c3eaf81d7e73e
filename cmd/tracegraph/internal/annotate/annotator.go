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
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/AleutianAI/tracegraph/cmd/tracegraph/internal/faultreport"
	"github.com/AleutianAI/tracegraph/pkg/logging"
)

// ReportParser produces the ordered fault reports of a trace file.
type ReportParser interface {
	ParseFile(ctx context.Context, path string) ([]faultreport.FaultReport, error)
}

// Annotator marks fault-injected and fault-affected nodes in a graph.
//
// # Description
//
// Reads fault reports through a ReportParser and the graph file from disk,
// applies the marks, and hands the text to an explicit output sink. It never
// touches the process-wide stdout.
//
// # Thread Safety
//
// Safe for concurrent use; every call works on its own copy of the graph.
type Annotator struct {
	parser  ReportParser
	options Options
	logger  *logging.Logger
}

// NewAnnotator creates an Annotator.
//
// # Inputs
//
//   - parser: Source of fault reports. Nil uses faultreport.NewParser().
//   - opts: Mark settings. Empty fields take the defaults.
//   - logger: Destination for diagnostics. Nil discards them.
//
// # Outputs
//
//   - *Annotator: Ready to use.
func NewAnnotator(parser ReportParser, opts Options, logger *logging.Logger) *Annotator {
	if parser == nil {
		parser = faultreport.NewParser()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Annotator{
		parser:  parser,
		options: opts.withDefaults(),
		logger:  logger,
	}
}

// Options returns the effective mark settings.
func (a *Annotator) Options() Options {
	return a.options
}

// Annotate reads both inputs and returns the annotated graph in memory.
//
// # Inputs
//
//   - ctx: Context for cancellation.
//   - traceFile: Trace-diff report path.
//   - graphFile: DOT graph path.
//
// # Outputs
//
//   - *Result: Original and annotated lines plus run statistics.
//   - error: Wraps ErrInputNotFound when a file cannot be read, or
//     faultreport.ErrMalformedTrace when the trace does not parse.
func (a *Annotator) Annotate(ctx context.Context, traceFile, graphFile string) (result *Result, err error) {
	ctx, span := startAnnotateSpan(ctx, traceFile, graphFile)
	defer span.End()

	start := time.Now()
	defer func() {
		recordAnnotateMetrics(ctx, time.Since(start), result, err)
		setAnnotateSpanResult(span, result, err)
	}()

	reports, err := a.parser.ParseFile(ctx, traceFile)
	if err != nil {
		return nil, ClassifyReadError("trace", traceFile, err)
	}
	a.logger.Debug("fault reports parsed", "trace", traceFile, "reports", len(reports))

	data, err := os.ReadFile(graphFile)
	if err != nil {
		return nil, ClassifyReadError("graph", graphFile, err)
	}
	original := SplitLines(string(data))
	a.logger.Debug("graph read", "graph", graphFile, "lines", len(original))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lines, stats := Apply(reports, original, a.options)
	for _, id := range stats.Unmatched {
		a.logger.Debug("identifier has no node line", "id", id)
	}

	return &Result{Original: original, Lines: lines, Stats: stats}, nil
}

// Run annotates and writes the result to req.Output, or to stdout when
// req.Output is empty.
func (a *Annotator) Run(ctx context.Context, req Request, stdout io.Writer) (*Result, error) {
	result, err := a.Annotate(ctx, req.TraceFile, req.GraphFile)
	if err != nil {
		return nil, err
	}
	if err := WriteOutput(result.Text(), req.Output, stdout); err != nil {
		return nil, err
	}
	a.logger.Info("graph annotated",
		"trace", req.TraceFile,
		"graph", req.GraphFile,
		"output", outputName(req.Output),
		"reports", result.Stats.Reports,
		"injected_marks", result.Stats.InjectedMarks,
		"affected_marks", result.Stats.AffectedMarks,
		"unmatched", len(result.Stats.Unmatched),
	)
	return result, nil
}

// Apply marks the graph lines for every report, in report order.
//
// # Description
//
// For each report and each line, the fault-ID check runs first and then one
// check per affected identifier. Every check looks at the line as already
// modified by earlier marks, so marks on one line stack up in encounter
// order. Identifiers without a node line are skipped and listed in
// Stats.Unmatched.
//
// # Inputs
//
//   - reports: Fault reports in file order.
//   - lines: Graph lines with their newlines. Not modified.
//   - opts: Mark settings. Empty fields take the defaults.
//
// # Outputs
//
//   - []string: Annotated lines, index-aligned with lines.
//   - Stats: Mark counts.
func Apply(reports []faultreport.FaultReport, lines []string, opts Options) ([]string, Stats) {
	opts = opts.withDefaults()
	injected := opts.injectedAttr()
	affected := opts.affectedAttr()

	graph := make([]*graphLine, len(lines))
	for i, text := range lines {
		graph[i] = newGraphLine(text)
	}

	stats := Stats{Reports: len(reports), Lines: len(lines)}
	checked := make(map[int]struct{})
	matched := make(map[int]struct{})

	for _, rep := range reports {
		ids := rep.AffectedSet()
		faultNeedle := opts.needle(rep.FaultID)
		needles := make([]string, len(ids))
		for j, id := range ids {
			needles[j] = opts.needle(id)
		}

		checked[rep.FaultID] = struct{}{}
		for _, id := range ids {
			checked[id] = struct{}{}
		}

		for _, line := range graph {
			if strings.Contains(line.String(), faultNeedle) {
				line.mark(injected)
				stats.InjectedMarks++
				matched[rep.FaultID] = struct{}{}
			}
			for j, n := range needles {
				if strings.Contains(line.String(), n) {
					line.mark(affected)
					stats.AffectedMarks++
					matched[ids[j]] = struct{}{}
				}
			}
		}
	}

	out := make([]string, len(graph))
	for i, line := range graph {
		out[i] = line.String()
		if line.marked() {
			stats.MarkedLines++
		}
	}

	// An identifier is unmatched only if no check for it hit a line.
	for id := range checked {
		if _, ok := matched[id]; !ok {
			stats.Unmatched = append(stats.Unmatched, id)
		}
	}
	sort.Ints(stats.Unmatched)
	return out, stats
}

// ClassifyReadError maps any file access failure (*fs.PathError) on an input
// to ErrInputNotFound and lets parse and context errors through unchanged.
// role names the input in the message, e.g. "trace" or "graph".
func ClassifyReadError(role, path string, err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return fmt.Errorf("%w: %s file %s: %w", ErrInputNotFound, role, path, err)
	}
	return err
}

func outputName(path string) string {
	if path == "" {
		return "stdout"
	}
	return path
}
