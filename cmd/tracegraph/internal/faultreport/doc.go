// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package faultreport parses fault-injection trace-diff reports.
//
// A report file holds one or more fault reports. Each report names the
// instruction a fault was injected into and lists the diff blocks between
// the golden and the faulty execution trace:
//
//	#FaultReport
//	7 @ 1520
//	#Diff
//	3,4c3,4
//	-ID: 12	OPCode: add	Value: 0000000a
//	+ID: 12	OPCode: add	Value: 0000000b
//
// Every instruction that shows up on a "-" or "+" line is causally affected
// by the fault. Lines starting with a space are context and are kept but
// not counted as affected.
package faultreport
