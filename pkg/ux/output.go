// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides terminal output styling for the tracegraph CLI.
//
// Output is styled only when the destination is a terminal. Pipes and files
// get plain text so downstream tools can parse it.
package ux

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"
)

// Palette, deep ocean teals plus the graph mark colors.
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7") // Highlights, success
	ColorTealPrimary = lipgloss.Color("#20B9B4") // Main brand color
	ColorTealDeep    = lipgloss.Color("#16858E") // Borders, accents
	ColorSlate       = lipgloss.Color("#2C4A54") // Muted text

	ColorInjected = lipgloss.Color("#E74C3C") // Matches the red injected border
	ColorAffected = lipgloss.Color("#F4D03F") // Matches the yellow affected fill
)

// Icon is a status glyph.
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconBullet  Icon = "•"
)

// Field is one labelled value in a summary block.
type Field struct {
	Label string
	Value string

	// Tone selects the value color: "" (default), "injected", "affected", "warning".
	Tone string
}

// =============================================================================
// Printer
// =============================================================================

// Printer writes styled or plain output to one destination.
//
// # Thread Safety
//
// Not safe for concurrent use.
type Printer struct {
	w      io.Writer
	styled bool
	styles styles
}

type styles struct {
	title    lipgloss.Style
	label    lipgloss.Style
	muted    lipgloss.Style
	injected lipgloss.Style
	affected lipgloss.Style
	warning  lipgloss.Style
	box      lipgloss.Style
	header   lipgloss.Style
	border   lipgloss.Style
}

// NewPrinter returns a Printer for w. Styling is enabled only when w is a
// terminal.
func NewPrinter(w io.Writer) *Printer {
	return newPrinter(w, IsTerminal(w))
}

func newPrinter(w io.Writer, styled bool) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:      w,
		styled: styled,
		styles: styles{
			title:    r.NewStyle().Bold(true).Foreground(ColorTealBright),
			label:    r.NewStyle().Foreground(ColorTealPrimary),
			muted:    r.NewStyle().Foreground(ColorSlate),
			injected: r.NewStyle().Bold(true).Foreground(ColorInjected),
			affected: r.NewStyle().Bold(true).Foreground(ColorAffected),
			warning:  r.NewStyle().Foreground(ColorAffected),
			box: r.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorTealDeep).
				Padding(0, 1),
			header: r.NewStyle().Bold(true).Foreground(ColorTealBright).Padding(0, 1),
			border: r.NewStyle().Foreground(ColorTealDeep),
		},
	}
}

// Styled reports whether the Printer emits ANSI styling.
func (p *Printer) Styled() bool {
	return p.styled
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Summary writes a titled block of fields.
//
// Styled output is a rounded box. Plain output is one "label: value" line
// per field under the title.
func (p *Printer) Summary(title string, fields []Field) error {
	if !p.styled {
		var b strings.Builder
		b.WriteString(title)
		b.WriteString("\n")
		for _, f := range fields {
			fmt.Fprintf(&b, "  %s: %s\n", f.Label, f.Value)
		}
		_, err := io.WriteString(p.w, b.String())
		return err
	}

	width := 0
	for _, f := range fields {
		width = max(width, len(f.Label))
	}
	lines := []string{p.styles.title.Render(string(IconSuccess) + " " + title)}
	for _, f := range fields {
		label := p.styles.label.Render(fmt.Sprintf("%-*s", width, f.Label))
		lines = append(lines, label+"  "+p.tone(f.Tone).Render(f.Value))
	}
	_, err := fmt.Fprintln(p.w, p.styles.box.Render(strings.Join(lines, "\n")))
	return err
}

// Table writes rows under headers.
//
// Styled output is a bordered table. Plain output is tab-aligned columns.
func (p *Printer) Table(headers []string, rows [][]string) error {
	if !p.styled {
		tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(headers, "\t"))
		for _, row := range rows {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		return tw.Flush()
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(p.styles.border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.styles.header
			}
			return p.styles.muted.Padding(0, 1).UnsetForeground()
		})
	_, err := fmt.Fprintln(p.w, t.String())
	return err
}

// Warn writes a warning line.
func (p *Printer) Warn(msg string) error {
	line := string(IconWarning) + " " + msg
	if p.styled {
		line = p.styles.warning.Render(line)
	}
	_, err := fmt.Fprintln(p.w, line)
	return err
}

func (p *Printer) tone(name string) lipgloss.Style {
	switch name {
	case "injected":
		return p.styles.injected
	case "affected":
		return p.styles.affected
	case "warning":
		return p.styles.warning
	default:
		return p.styles.muted.UnsetForeground()
	}
}
