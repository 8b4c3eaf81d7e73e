// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command tracegraph overlays fault-injection trace results onto a program
// graph.
//
// Usage:
//
//	tracegraph annotate trace_report.txt program.dot > annotated.dot
//	tracegraph annotate trace_report.txt program.dot -o annotated.dot --summary
//	tracegraph annotate trace_report.txt program.dot --diff
//	tracegraph report trace_report.txt --json
//	tracegraph config init
//
// Directly-injected instructions get a red border, instructions affected
// by the fault get a yellow fill. Render the result with Graphviz:
//
//	dot -Tpng annotated.dot -o annotated.png
package main

import (
	"fmt"
	"io"
	"os"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the command tree and maps the outcome to an exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	a := newApp(stdout, stderr)
	root := newRootCmd(a)
	root.SetArgs(args)

	err := root.Execute()
	if err != nil {
		a.logger.Error("command failed", "error", err.Error(), "exit_code", exitCode(err))
	}
	if closeErr := a.close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err == nil {
		return ExitSuccess
	}

	fmt.Fprintf(stderr, "tracegraph: %v\n", err)
	return exitCode(err)
}
