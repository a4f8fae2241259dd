// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"fmt"
	"io"
	"strings"
)

// Panel shows two rows of text somewhere.
type Panel interface {
	Show(lines Lines) error
}

// ConsolePanel prints the rows to a writer whenever they change. Useful on a
// bench machine without the OLED attached.
type ConsolePanel struct {
	w    io.Writer
	last Lines
	seen bool
}

// NewConsolePanel writes to w.
func NewConsolePanel(w io.Writer) *ConsolePanel {
	return &ConsolePanel{w: w}
}

func (p *ConsolePanel) Show(lines Lines) error {
	if p.seen && lines == p.last {
		return nil
	}
	p.last, p.seen = lines, true

	glyph := string(SatelliteGlyph)
	_, err := fmt.Fprintf(p.w, "|%s|\n|%s|\n",
		strings.ReplaceAll(lines.Top, glyph, "*"),
		strings.ReplaceAll(lines.Bottom, glyph, "*"))
	return err
}

// NopPanel discards everything.
type NopPanel struct{}

func (NopPanel) Show(Lines) error { return nil }
