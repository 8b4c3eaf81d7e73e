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
	"strconv"
	"strings"
)

// Default mark settings. They reproduce the historical output byte for byte.
const (
	DefaultNodePrefix    = "llfiID_"
	DefaultInjectedColor = "red"
	DefaultAffectedFill  = "yellow"
)

// Options controls how node lines are recognized and marked.
type Options struct {
	// NodePrefix precedes the numeric instruction ID in node names.
	NodePrefix string

	// InjectedColor is the border color of directly-injected instructions.
	InjectedColor string

	// AffectedFill is the fill color of fault-affected instructions.
	AffectedFill string
}

// DefaultOptions returns the historical llfiID_/red/yellow settings.
func DefaultOptions() Options {
	return Options{
		NodePrefix:    DefaultNodePrefix,
		InjectedColor: DefaultInjectedColor,
		AffectedFill:  DefaultAffectedFill,
	}
}

// withDefaults fills empty fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.NodePrefix == "" {
		o.NodePrefix = d.NodePrefix
	}
	if o.InjectedColor == "" {
		o.InjectedColor = d.InjectedColor
	}
	if o.AffectedFill == "" {
		o.AffectedFill = d.AffectedFill
	}
	return o
}

// needle is the substring that identifies the declaration line of node id.
func (o Options) needle(id int) string {
	return o.NodePrefix + strconv.Itoa(id) + " [shape"
}

func (o Options) injectedAttr() string {
	return `color="` + o.InjectedColor + `"`
}

func (o Options) affectedAttr() string {
	return `style="filled", fillcolor="` + o.AffectedFill + `"`
}

// Stats summarizes one annotation run.
type Stats struct {
	// Reports is the number of fault reports applied.
	Reports int `json:"reports"`

	// Lines is the number of graph lines read.
	Lines int `json:"lines"`

	// InjectedMarks counts fault-ID marks applied (one per matching line).
	InjectedMarks int `json:"injected_marks"`

	// AffectedMarks counts affected-set marks applied.
	AffectedMarks int `json:"affected_marks"`

	// MarkedLines is the number of distinct lines that changed.
	MarkedLines int `json:"marked_lines"`

	// Unmatched lists identifiers with no node line, ascending, without repeats.
	Unmatched []int `json:"unmatched,omitempty"`
}

// Request names the files of one annotation run.
type Request struct {
	TraceFile string
	GraphFile string

	// Output is the destination path. Empty means the caller's stdout writer.
	Output string
}

// Result is the outcome of one annotation run.
type Result struct {
	// Original holds the graph lines as read, newlines included.
	Original []string

	// Lines holds the annotated graph lines, index-aligned with Original.
	Lines []string

	Stats Stats
}

// Text returns the annotated graph as a single string.
func (r *Result) Text() string {
	return strings.Join(r.Lines, "")
}
