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
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for annotation runs.
var (
	tracer = otel.Tracer("tracegraph.annotate")
	meter  = otel.Meter("tracegraph.annotate")
)

// Metrics for annotation runs.
var (
	annotateLatency metric.Float64Histogram
	annotateTotal   metric.Int64Counter
	marksTotal      metric.Int64Counter
	unmatchedTotal  metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		annotateLatency, err = meter.Float64Histogram(
			"annotate_duration_seconds",
			metric.WithDescription("Duration of annotation runs"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		annotateTotal, err = meter.Int64Counter(
			"annotate_runs_total",
			metric.WithDescription("Total number of annotation runs"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		marksTotal, err = meter.Int64Counter(
			"annotate_marks_total",
			metric.WithDescription("Node marks applied, by kind"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		unmatchedTotal, err = meter.Int64Counter(
			"annotate_unmatched_ids_total",
			metric.WithDescription("Identifiers with no node line in the graph"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startAnnotateSpan creates a span for one annotation run.
func startAnnotateSpan(ctx context.Context, traceFile, graphFile string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Annotator.Annotate",
		trace.WithAttributes(
			attribute.String("annotate.trace_file", traceFile),
			attribute.String("annotate.graph_file", graphFile),
		),
	)
}

// setAnnotateSpanResult sets result attributes or the error on the span.
func setAnnotateSpanResult(span trace.Span, result *Result, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	if result == nil {
		return
	}
	span.SetAttributes(
		attribute.Int("annotate.reports", result.Stats.Reports),
		attribute.Int("annotate.lines", result.Stats.Lines),
		attribute.Int("annotate.injected_marks", result.Stats.InjectedMarks),
		attribute.Int("annotate.affected_marks", result.Stats.AffectedMarks),
		attribute.Int("annotate.unmatched", len(result.Stats.Unmatched)),
	)
}

// recordAnnotateMetrics records metrics for one annotation run.
func recordAnnotateMetrics(ctx context.Context, duration time.Duration, result *Result, err error) {
	if initErr := initMetrics(); initErr != nil {
		return
	}

	success := err == nil
	attrs := metric.WithAttributes(attribute.Bool("success", success))
	annotateLatency.Record(ctx, duration.Seconds(), attrs)
	annotateTotal.Add(ctx, 1, attrs)

	if !success || result == nil {
		return
	}
	marksTotal.Add(ctx, int64(result.Stats.InjectedMarks),
		metric.WithAttributes(attribute.String("kind", "injected")))
	marksTotal.Add(ctx, int64(result.Stats.AffectedMarks),
		metric.WithAttributes(attribute.String("kind", "affected")))
	unmatchedTotal.Add(ctx, int64(len(result.Stats.Unmatched)))
}
