// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"github.com/golang/geo/s2"
)

// EarthRadiusMeters is the mean Earth radius used for great-circle distances.
const EarthRadiusMeters = 6371000.0

// Haversine returns the great-circle distance in metres between two points
// given in decimal degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lon1)
	b := s2.LatLngFromDegrees(lat2, lon2)
	// LatLng.Distance is the haversine formula on the unit sphere.
	return a.Distance(b).Radians() * EarthRadiusMeters
}

// elapsedSeconds returns the time between two UTC times of day, treating a
// backwards step as a midnight rollover.
func elapsedSeconds(prev, cur float64) float64 {
	dt := cur - prev
	if dt < 0 {
		dt += secondsPerDay
	}
	return dt
}
