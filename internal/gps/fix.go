// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"fmt"
	"math"
)

// Update is what a single sentence taught us. A nil field means the sentence
// did not carry it this time, never zero or false.
type Update struct {
	Kind string // "GGA", "RMC" or "" when nothing was recognised

	Satellites *int
	FixValid   *bool
	Latitude   *float64 // decimal degrees, negative south
	Longitude  *float64 // decimal degrees, negative west
	TimeOfDay  *float64 // seconds since UTC midnight
}

// Position is a latitude/longitude pair in decimal degrees.
type Position struct {
	Lat float64
	Lon float64
}

// TimedPosition is a position stamped with its UTC time of day.
type TimedPosition struct {
	Position
	TimeOfDay float64
}

// State is the tracker's best-known view of the receiver.
type State struct {
	Current     *Position
	Satellites  int
	HasFix      bool
	Previous    *TimedPosition
	SpeedMPS    float64
	LastFixTime *float64
}

// Fix represents a single combined GPS fix suitable for JSON and MQTT.
type Fix struct {
	HasFix     bool    `json:"has_fix"`
	Time       string  `json:"time,omitempty"` // e.g. "12:34:56"
	Latitude   float64 `json:"lat"`            // decimal degrees
	Longitude  float64 `json:"lon"`            // decimal degrees
	SpeedMPS   float64 `json:"speed_mps"`      // since the previous fix
	Satellites int     `json:"satellites"`
}

// Snapshot converts the tracker state into its published form.
func (s State) Snapshot() Fix {
	f := Fix{
		HasFix:     s.HasFix,
		SpeedMPS:   s.SpeedMPS,
		Satellites: s.Satellites,
	}
	if s.Current != nil {
		f.Latitude = s.Current.Lat
		f.Longitude = s.Current.Lon
	}
	if s.LastFixTime != nil {
		f.Time = clockString(*s.LastFixTime)
	}
	return f
}

func clockString(secs float64) string {
	whole := int(math.Floor(secs))
	return fmt.Sprintf("%02d:%02d:%02d", whole/3600, (whole%3600)/60, whole%60)
}
