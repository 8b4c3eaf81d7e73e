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

import "sort"

// TraceRecord is one instruction execution record emitted by the tracer:
//
//	ID: 12	OPCode: add	Value: 0000000a
type TraceRecord struct {
	ID     int    `json:"id"`
	Opcode string `json:"opcode,omitempty"`
	Value  string `json:"value,omitempty"`
}

// DiffBlock is one region where the golden and faulty traces diverge.
type DiffBlock struct {
	// Range is the optional diff range header (e.g. "3,4c3,4").
	Range string `json:"range,omitempty"`

	// Golden holds records present only in the fault-free run.
	Golden []TraceRecord `json:"golden,omitempty"`

	// Faulty holds records present only in the fault-injected run.
	Faulty []TraceRecord `json:"faulty,omitempty"`

	// Context holds unchanged records printed around the divergence.
	Context []TraceRecord `json:"context,omitempty"`
}

// FaultReport is the record of one simulated fault injection.
//
// A FaultReport is immutable once returned by the parser.
type FaultReport struct {
	// FaultID identifies the directly-injected instruction.
	FaultID int `json:"fault_id"`

	// FaultCycle is the dynamic instruction count at which the fault fired.
	FaultCycle int64 `json:"fault_cycle"`

	// Diffs are the trace divergences caused by the fault, in file order.
	Diffs []DiffBlock `json:"diffs,omitempty"`
}

// AffectedSet returns the identifiers of every instruction whose execution
// differs between the golden and faulty runs, de-duplicated and ascending.
func (r FaultReport) AffectedSet() []int {
	seen := make(map[int]struct{})
	for _, d := range r.Diffs {
		for _, rec := range d.Golden {
			seen[rec.ID] = struct{}{}
		}
		for _, rec := range d.Faulty {
			seen[rec.ID] = struct{}{}
		}
	}
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
