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
	"encoding/json"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/tracegraph/cmd/tracegraph/internal/annotate"
	"github.com/AleutianAI/tracegraph/cmd/tracegraph/internal/faultreport"
	"github.com/AleutianAI/tracegraph/pkg/ux"
)

// reportEntry is the JSON shape of one fault report.
type reportEntry struct {
	FaultID    int                     `json:"fault_id"`
	FaultCycle int64                   `json:"fault_cycle"`
	Affected   []int                   `json:"affected"`
	Diffs      []faultreport.DiffBlock `json:"diffs,omitempty"`
}

func newReportCmd(a *app) *cobra.Command {
	var jsonOutput bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "report <traceFile>",
		Short: "List the fault reports in a trace file",
		Long: `Report parses the trace file and prints one row per fault report: the
injected instruction, the cycle it fired at, and the affected set that
annotate would fill.`,
		Example: `  tracegraph report trace_report.txt
  tracegraph report trace_report.txt --json | jq '.[].affected'`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, err := faultreport.NewParser().ParseFile(cmd.Context(), args[0])
			if err != nil {
				return annotate.ClassifyReadError("trace", args[0], err)
			}
			a.logger.Info("trace parsed", "trace", args[0], "reports", len(reports))

			if jsonOutput {
				return writeReportJSON(a, reports, verbose)
			}
			return writeReportTable(ux.NewPrinter(a.stdout), reports)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Include the diff records in JSON output")
	return cmd
}

func writeReportJSON(a *app, reports []faultreport.FaultReport, verbose bool) error {
	entries := make([]reportEntry, 0, len(reports))
	for _, r := range reports {
		e := reportEntry{
			FaultID:    r.FaultID,
			FaultCycle: r.FaultCycle,
			Affected:   r.AffectedSet(),
		}
		if e.Affected == nil {
			e.Affected = []int{}
		}
		if verbose {
			e.Diffs = r.Diffs
		}
		entries = append(entries, e)
	}

	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func writeReportTable(p *ux.Printer, reports []faultreport.FaultReport) error {
	if len(reports) == 0 {
		return p.Warn("no fault reports found")
	}
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		affected := "-"
		if ids := r.AffectedSet(); len(ids) > 0 {
			affected = joinInts(ids, " ")
		}
		rows = append(rows, []string{
			strconv.Itoa(r.FaultID),
			strconv.FormatInt(r.FaultCycle, 10),
			affected,
		})
	}
	return p.Table([]string{"FAULT", "CYCLE", "AFFECTED"}, rows)
}
