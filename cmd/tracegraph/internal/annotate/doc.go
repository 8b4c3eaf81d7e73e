// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package annotate overlays fault-injection results onto a program graph.
//
// The input graph is Graphviz DOT text with one declaration per line. Node
// declarations look like:
//
//	llfiID_7 [shape=box];
//
// For every fault report, the node of the injected instruction gets a red
// border and every node in the report's affected set gets a yellow fill:
//
//	llfiID_7 [shape=box, color="red"];
//	llfiID_12 [shape=box, style="filled", fillcolor="yellow"];
//
// Marks on the same line accumulate in encounter order. Each mark drops the
// last three bytes of the line (normally "];\n") and appends the new
// attribute plus a fresh "];\n". Lines are kept as records (original head
// plus appended attributes) and rendered once, which yields the same bytes
// as editing the text in place.
//
// # Architecture
//
//	┌─────────────┐    ┌─────────────┐    ┌─────────────┐    ┌─────────────┐
//	│ trace file  │───▶│ faultreport │───▶│    Apply    │───▶│ stdout/file │
//	└─────────────┘    └─────────────┘    └─────────────┘    └─────────────┘
//	                                             ▲
//	┌─────────────┐    ┌─────────────┐           │
//	│ graph file  │───▶│ SplitLines  │───────────┘
//	└─────────────┘    └─────────────┘
//
// # Thread Safety
//
// Annotator holds no mutable state and may be shared. A single run is
// strictly sequential.
package annotate
