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
	"errors"
	"fmt"
)

// ErrMalformedTrace is returned (wrapped) when a trace report cannot be parsed.
var ErrMalformedTrace = errors.New("malformed trace report")

// ParseError describes where and why a trace report failed to parse.
type ParseError struct {
	File   string
	Line   int
	Reason string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%s: line %d: %s", ErrMalformedTrace, e.Line, e.Reason)
	}
	return fmt.Sprintf("%s: %s:%d: %s", ErrMalformedTrace, e.File, e.Line, e.Reason)
}

// Unwrap returns the sentinel error.
func (e *ParseError) Unwrap() error {
	return ErrMalformedTrace
}
