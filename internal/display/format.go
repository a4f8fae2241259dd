// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"fmt"
	"math"
	"strings"

	"github.com/relabs-tech/gps_telemetry/internal/gps"
)

// Columns is the number of characters per row on the 128 px wide panel.
const Columns = 16

// SatelliteGlyph stands in for the satellite icon. It is outside the font's
// printable range and the bitmap renderer draws it as an icon.
const SatelliteGlyph = '\x7f'

// Lines holds the two text rows of the panel.
type Lines struct {
	Top    string
	Bottom string
}

// Format renders the tracker state into two fixed-width rows.
func Format(s gps.State) Lines {
	if !s.HasFix {
		return Lines{
			Top:    pad("NO FIX"),
			Bottom: pad(fmt.Sprintf("SATS %d", s.Satellites)),
		}
	}

	lat, lon := "--", "--"
	if s.Current != nil {
		lat = coord(s.Current.Lat, "N", "S")
		lon = coord(s.Current.Lon, "E", "W")
	}

	return Lines{
		Top:    justify(lat, speed(s.SpeedMPS, Columns-len(lat)-1)),
		Bottom: justify(lon, fmt.Sprintf("%c%d", SatelliteGlyph, s.Satellites)),
	}
}

// SplashLines is shown once at startup, before the first tick.
func SplashLines() Lines {
	return Lines{Top: pad("GPS TELEMETRY"), Bottom: pad("Looking for sats")}
}

// ErrorLines is shown while the loop holds in the fault state.
func ErrorLines() Lines {
	return Lines{Top: pad("ERR"), Bottom: pad("")}
}

func coord(v float64, pos, neg string) string {
	suffix := pos
	if v < 0 {
		suffix = neg
	}
	return fmt.Sprintf("%.4f%s", math.Abs(v), suffix)
}

// speed formats v in at most width characters. It gives up the space before
// the unit first, then the unit, and past that clamps to a run of nines.
func speed(v float64, width int) string {
	for _, f := range []string{"%.1f m/s", "%.1fm/s", "%.1f"} {
		if s := fmt.Sprintf(f, v); len(s) <= width {
			return s
		}
	}
	if width < 2 {
		return ""
	}
	return strings.Repeat("9", width-1) + "+"
}

// justify left-aligns left and right-aligns right on one row, with at least
// one space between them. Overflow is cut from the right end.
func justify(left, right string) string {
	gap := Columns - len(left) - len(right)
	if gap < 1 {
		gap = 1
	}
	return pad(left + strings.Repeat(" ", gap) + right)
}

func pad(s string) string {
	if len(s) >= Columns {
		return s[:Columns]
	}
	return s + strings.Repeat(" ", Columns-len(s))
}
