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
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// Exit codes for tracegraph commands.
const (
	ExitSuccess = 0 // Command completed
	ExitFailure = 1 // I/O or parse failure
	ExitBadArgs = 2 // Invalid arguments or configuration
)

// ExitError carries a specific exit code alongside the underlying error.
//
// # Example
//
//	var exitErr *ExitError
//	if errors.As(err, &exitErr) {
//	    os.Exit(exitErr.Code)
//	}
type ExitError struct {
	Code int
	Err  error
}

// Error returns the underlying error message.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit %d", e.Code)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// badArgs marks err as a usage error.
func badArgs(err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: ExitBadArgs, Err: err}
}

// exitCode returns the code for err: ExitError codes win, everything else
// is a run failure.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// exactArgs is cobra.ExactArgs with usage-error exit codes.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return badArgs(cobra.ExactArgs(n)(cmd, args))
	}
}

// rangeArgs is cobra.RangeArgs with usage-error exit codes.
func rangeArgs(min, max int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return badArgs(cobra.RangeArgs(min, max)(cmd, args))
	}
}
