// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/tracegraph/cmd/tracegraph/internal/annotate"
	"github.com/AleutianAI/tracegraph/cmd/tracegraph/internal/faultreport"
	"github.com/AleutianAI/tracegraph/pkg/ux"
)

// annotateFlags holds flags local to the annotate command.
type annotateFlags struct {
	output  string
	diff    bool
	summary bool
}

func newAnnotateCmd(a *app) *cobra.Command {
	var flags annotateFlags

	cmd := &cobra.Command{
		Use:   "annotate <traceFile> <graphFile>",
		Short: "Mark injected and affected instructions in a DOT graph",
		Long: `Annotate reads every fault report in the trace file and rewrites the
matching node lines of the DOT graph:

  fault ID        ->  , color="red"
  affected IDs    ->  , style="filled", fillcolor="yellow"

Marks accumulate when several reports touch the same node. Lines that do
not name a reported instruction are copied unchanged. The annotated graph
goes to stdout unless --output is given.`,
		Example: `  # Annotate and render
  tracegraph annotate trace_report.txt program.dot > annotated.dot
  dot -Tpng annotated.dot -o annotated.png

  # Write to a file and print mark statistics
  tracegraph annotate trace_report.txt program.dot -o annotated.dot --summary

  # Review the changes as a unified diff
  tracegraph annotate trace_report.txt program.dot --diff`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAnnotate(cmd, args[0], args[1], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Write the result to this file instead of stdout")
	cmd.Flags().BoolVar(&flags.diff, "diff", false, "Emit a unified diff against the input graph instead of the graph")
	cmd.Flags().BoolVar(&flags.summary, "summary", false, "Print mark statistics to stderr")
	return cmd
}

// runAnnotate executes one annotation run.
//
// # Description
//
// Without --diff this is Annotator.Run: the annotated graph is written to
// the output file or stdout. With --diff the graph is annotated in memory
// and the unified diff is written instead.
//
// # Outputs
//
//   - error: Input, parse, or write failure. Nothing is written on error.
func (a *app) runAnnotate(cmd *cobra.Command, traceFile, graphFile string, flags annotateFlags) error {
	ctx := cmd.Context()
	an := annotate.NewAnnotator(faultreport.NewParser(), a.cfg.AnnotateOptions(), a.logger)

	var result *annotate.Result
	var err error
	if flags.diff {
		result, err = an.Annotate(ctx, traceFile, graphFile)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(filepath.Base(graphFile))
		text, err := annotate.RenderDiff(result, "a/"+name, "b/"+name)
		if err != nil {
			return err
		}
		if err := annotate.WriteOutput(text, flags.output, a.stdout); err != nil {
			return err
		}
	} else {
		result, err = an.Run(ctx, annotate.Request{
			TraceFile: traceFile,
			GraphFile: graphFile,
			Output:    flags.output,
		}, a.stdout)
		if err != nil {
			return err
		}
	}

	if flags.summary {
		return printSummary(ux.NewPrinter(a.stderr), result.Stats)
	}
	return nil
}

// printSummary writes run statistics.
func printSummary(p *ux.Printer, s annotate.Stats) error {
	fields := []ux.Field{
		{Label: "Reports", Value: strconv.Itoa(s.Reports)},
		{Label: "Graph lines", Value: strconv.Itoa(s.Lines)},
		{Label: "Injected marks", Value: strconv.Itoa(s.InjectedMarks), Tone: "injected"},
		{Label: "Affected marks", Value: strconv.Itoa(s.AffectedMarks), Tone: "affected"},
		{Label: "Lines changed", Value: strconv.Itoa(s.MarkedLines)},
	}
	if err := p.Summary("Graph annotated", fields); err != nil {
		return err
	}
	if len(s.Unmatched) == 0 {
		return nil
	}
	return p.Warn(fmt.Sprintf("%d identifier(s) have no node in the graph: %s",
		len(s.Unmatched), joinInts(s.Unmatched, ", ")))
}

func joinInts(ids []int, sep string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, sep)
}
