// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the tracegraph YAML configuration.
package config

import (
	"github.com/AleutianAI/tracegraph/cmd/tracegraph/internal/annotate"
	"github.com/AleutianAI/tracegraph/cmd/tracegraph/internal/telemetry"
)

// Config is the on-disk configuration. Every field has a default, so an
// empty or missing file is valid.
type Config struct {
	// NodePrefix precedes instruction IDs in node names, e.g. "llfiID_".
	NodePrefix string `yaml:"node_prefix" validate:"required,dotid"`

	Marks     MarksConfig     `yaml:"marks"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// MarksConfig sets the DOT colors used for node marks.
type MarksConfig struct {
	InjectedColor string `yaml:"injected_color" validate:"required,dotcolor"` // border of injected nodes
	AffectedFill  string `yaml:"affected_fill" validate:"required,dotcolor"`  // fill of affected nodes
}

// LoggingConfig controls log level, format, and the optional file sink.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `yaml:"json"`
	Dir   string `yaml:"dir,omitempty"` // optional JSON log directory
}

// TelemetryConfig selects the OpenTelemetry exporters.
type TelemetryConfig struct {
	TraceExporter  string `yaml:"trace_exporter" validate:"oneof=none stdout otlp"`
	MetricExporter string `yaml:"metric_exporter" validate:"oneof=none stdout"`
	OTLPEndpoint   string `yaml:"otlp_endpoint,omitempty" validate:"omitempty,hostname_port"`
}

// DefaultConfig returns settings that reproduce the historical output.
// Telemetry defaults honor the OTEL_* environment variables.
func DefaultConfig() Config {
	tc := telemetry.DefaultConfig()
	return Config{
		NodePrefix: annotate.DefaultNodePrefix,
		Marks: MarksConfig{
			InjectedColor: annotate.DefaultInjectedColor,
			AffectedFill:  annotate.DefaultAffectedFill,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
		Telemetry: TelemetryConfig{
			TraceExporter:  tc.TraceExporter,
			MetricExporter: tc.MetricExporter,
			OTLPEndpoint:   tc.OTLPEndpoint,
		},
	}
}

// AnnotateOptions converts the mark settings for the annotator.
func (c Config) AnnotateOptions() annotate.Options {
	return annotate.Options{
		NodePrefix:    c.NodePrefix,
		InjectedColor: c.Marks.InjectedColor,
		AffectedFill:  c.Marks.AffectedFill,
	}
}

// TelemetrySettings converts the telemetry settings, keeping the package
// defaults for anything the file does not control.
func (c Config) TelemetrySettings(version string) telemetry.Config {
	tc := telemetry.DefaultConfig()
	tc.ServiceVersion = version
	tc.TraceExporter = c.Telemetry.TraceExporter
	tc.MetricExporter = c.Telemetry.MetricExporter
	if c.Telemetry.OTLPEndpoint != "" {
		tc.OTLPEndpoint = c.Telemetry.OTLPEndpoint
	}
	return tc
}
