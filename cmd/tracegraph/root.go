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
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/tracegraph/cmd/tracegraph/config"
	"github.com/AleutianAI/tracegraph/cmd/tracegraph/internal/telemetry"
	"github.com/AleutianAI/tracegraph/pkg/logging"
)

// =============================================================================
// Application State
// =============================================================================

// app holds flag values and the resources shared by every subcommand.
//
// # Thread Safety
//
// Not safe for concurrent use. One app serves one command invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	// Persistent flags
	configPath     string
	logLevel       string
	logJSON        bool
	logDir         string
	traceExporter  string
	metricExporter string
	nodePrefix     string
	injectedColor  string
	affectedFill   string

	cfg      config.Config
	logger   *logging.Logger
	logFile  *logging.Logger // owns the log file; logger is a child of it
	runID    string
	shutdown func(context.Context) error
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout: stdout,
		stderr: stderr,
		logger: logging.Nop(),
		cfg:    config.DefaultConfig(),
	}
}

// newRootCmd builds the command tree bound to a.
func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tracegraph",
		Short: "Overlay fault-injection trace results onto a program graph",
		Long: `tracegraph reads a fault-injection trace-diff report and a Graphviz DOT
graph of the program's instructions, then marks the graph:

  - the instruction where the fault was injected gets a red border
  - every instruction whose execution diverged gets a yellow fill

Settings are read from ~/.tracegraph/tracegraph.yaml when present.
Flags override the file.`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return badArgs(err)
	})

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Config file (default ~/.tracegraph/tracegraph.yaml)")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.BoolVar(&a.logJSON, "log-json", false, "Write logs to stderr as JSON")
	pf.StringVar(&a.logDir, "log-dir", "", "Also write JSON logs to this directory")
	pf.StringVar(&a.traceExporter, "trace-exporter", "", "Span exporter: none, stdout, otlp")
	pf.StringVar(&a.metricExporter, "metric-exporter", "", "Metric exporter: none, stdout")
	pf.StringVar(&a.nodePrefix, "prefix", "", "Node name prefix before instruction IDs (default llfiID_)")
	pf.StringVar(&a.injectedColor, "injected-color", "", "Border color for injected instructions (default red)")
	pf.StringVar(&a.affectedFill, "affected-fill", "", "Fill color for affected instructions (default yellow)")

	rootCmd.AddCommand(newAnnotateCmd(a))
	rootCmd.AddCommand(newReportCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))
	return rootCmd
}

// =============================================================================
// Setup and Teardown
// =============================================================================

// setup loads configuration, applies flag overrides, and starts logging and
// telemetry. Config problems are usage errors.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return badArgs(err)
	}
	a.applyFlags(cmd, &cfg)
	if err := config.Validate(cfg); err != nil {
		return badArgs(err)
	}
	a.cfg = cfg

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return badArgs(err)
	}
	a.runID = uuid.NewString()
	a.logFile = logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Logging.Dir,
		Service: "tracegraph",
		JSON:    cfg.Logging.JSON,
		Output:  a.stderr,
	})
	a.logger = a.logFile.With("run_id", a.runID, "command", cmd.Name())

	tc := cfg.TelemetrySettings(Version)
	tc.Writer = a.stderr
	shutdown, err := telemetry.Init(cmd.Context(), tc)
	if err != nil {
		if errors.Is(err, telemetry.ErrUnknownExporter) {
			return badArgs(err)
		}
		return err
	}
	a.shutdown = shutdown

	a.logger.Debug("configuration loaded",
		"config", a.configPath,
		"prefix", cfg.NodePrefix,
		"trace_exporter", cfg.Telemetry.TraceExporter,
		"metric_exporter", cfg.Telemetry.MetricExporter,
	)
	return nil
}

// applyFlags copies explicitly set flags over the file configuration.
func (a *app) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}

	if changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}
	if changed("log-json") {
		cfg.Logging.JSON = a.logJSON
	}
	if changed("log-dir") {
		cfg.Logging.Dir = a.logDir
	}
	if changed("trace-exporter") {
		cfg.Telemetry.TraceExporter = a.traceExporter
	}
	if changed("metric-exporter") {
		cfg.Telemetry.MetricExporter = a.metricExporter
	}
	if changed("prefix") {
		cfg.NodePrefix = a.nodePrefix
	}
	if changed("injected-color") {
		cfg.Marks.InjectedColor = a.injectedColor
	}
	if changed("affected-fill") {
		cfg.Marks.AffectedFill = a.affectedFill
	}
}

// close flushes telemetry and closes log files. Safe to call when setup
// never ran.
func (a *app) close() error {
	var errs []error
	if a.shutdown != nil {
		errs = append(errs, a.shutdown(context.Background()))
		a.shutdown = nil
	}
	if a.logFile != nil {
		errs = append(errs, a.logFile.Close())
	}
	return errors.Join(errs...)
}
