// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

// Tracker merges parser updates into a running best-known fix.
//
// It is owned by the control loop and is not safe for concurrent use; other
// goroutines should only ever see State snapshots.
type Tracker struct {
	st State
}

// NewTracker returns a tracker with no fix and zero satellites.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Merge applies u to the tracker state and reports whether it carried a
// complete fix.
//
// The satellite count is taken whenever present, fix or not. Position and
// speed only move on a valid fix with latitude, longitude and time; anything
// less leaves the last known fix in place, and HasFix never drops back.
func (t *Tracker) Merge(u Update) bool {
	if u.Satellites != nil {
		t.st.Satellites = *u.Satellites
	}

	if u.FixValid == nil || !*u.FixValid ||
		u.Latitude == nil || u.Longitude == nil || u.TimeOfDay == nil {
		return false
	}

	cur := TimedPosition{
		Position:  Position{Lat: *u.Latitude, Lon: *u.Longitude},
		TimeOfDay: *u.TimeOfDay,
	}

	if prev := t.st.Previous; prev != nil {
		dist := Haversine(prev.Lat, prev.Lon, cur.Lat, cur.Lon)
		if dt := elapsedSeconds(prev.TimeOfDay, cur.TimeOfDay); dt > 0 {
			t.st.SpeedMPS = dist / dt
		} else {
			t.st.SpeedMPS = 0
		}
	}

	// Speed is always measured from the last fix, not averaged.
	t.st.Previous = &cur
	pos := cur.Position
	t.st.Current = &pos
	tod := cur.TimeOfDay
	t.st.LastFixTime = &tod
	t.st.HasFix = true
	return true
}

// State returns a copy of the current state.
func (t *Tracker) State() State {
	st := t.st
	if st.Current != nil {
		c := *st.Current
		st.Current = &c
	}
	if st.Previous != nil {
		p := *st.Previous
		st.Previous = &p
	}
	if st.LastFixTime != nil {
		v := *st.LastFixTime
		st.LastFixTime = &v
	}
	return st
}
