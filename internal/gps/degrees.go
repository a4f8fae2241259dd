// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrEmptyField is returned for an empty coordinate field.
	ErrEmptyField = errors.New("gps: empty coordinate field")
	// ErrMalformedCoordinate is returned when the field is not ddmm.mmmm / dddmm.mmmm.
	ErrMalformedCoordinate = errors.New("gps: malformed coordinate")
)

// ToDecimalDegrees converts an NMEA ddmm.mmmm (latitude) or dddmm.mmmm
// (longitude) field into signed decimal degrees.
//
// Minutes are the two digits in front of the decimal point plus the
// fraction; whatever precedes them is degrees, so the degree width follows
// the field length. S and W negate the result. Values are not range checked.
func ToDecimalDegrees(field, hemisphere string) (float64, error) {
	if field == "" {
		return 0, ErrEmptyField
	}

	intPart, frac := field, ""
	if dot := strings.IndexByte(field, '.'); dot != -1 {
		intPart, frac = field[:dot], field[dot+1:]
	}
	if len(intPart) < 3 || !isDigits(intPart) || !isDigits(frac) {
		return 0, ErrMalformedCoordinate
	}

	deg, err := strconv.Atoi(intPart[:len(intPart)-2])
	if err != nil {
		return 0, ErrMalformedCoordinate
	}
	mins, err := strconv.ParseFloat(field[len(intPart)-2:], 64)
	if err != nil {
		return 0, ErrMalformedCoordinate
	}

	dec := float64(deg) + mins/60.0
	if hemisphere == "S" || hemisphere == "W" {
		dec = -dec
	}
	return dec, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
