// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"errors"
	"strconv"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
)

const secondsPerDay = 86400.0

var errMalformedSentence = errors.New("gps: malformed sentence")

// ParseSentence turns one raw NMEA line into an Update. It never fails:
// anything it does not understand, or cannot decode cleanly, yields an empty
// Update. Checksums are not verified.
func ParseSentence(line string) Update {
	u, err := parseSentence(line)
	if err != nil {
		// Partial results of a malformed sentence are discarded.
		return Update{}
	}
	return u
}

func parseSentence(line string) (Update, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return Update{}, nil
	}

	f := strings.Split(line, ",")
	// Accept GNxxx/GPxxx, etc; the kind is the last 3 chars.
	kind := f[0]
	if len(kind) > 3 {
		kind = kind[len(kind)-3:]
	}

	switch kind {
	case nmea.TypeGGA:
		return parseGGA(f)
	case nmea.TypeRMC:
		return parseRMC(f)
	default:
		return Update{}, nil
	}
}

// GGA: Global Positioning System Fix Data
//
//	0: talker+type
//	1: time (hhmmss.sss)
//	2: latitude, 3: N/S
//	4: longitude, 5: E/W
//	6: fix quality (0=invalid)
//	7: number of satellites
func parseGGA(f []string) (Update, error) {
	if len(f) < 10 {
		return Update{}, nil
	}

	sats := 0
	if s := f[7]; s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return Update{}, errMalformedSentence
		}
		sats = n
	}
	valid := f[6] != nmea.Invalid

	u := Update{Kind: nmea.TypeGGA, Satellites: &sats, FixValid: &valid}
	if valid && f[2] != "" && f[3] != "" && f[4] != "" && f[5] != "" {
		if err := u.decodeFix(f[1], f[2], f[3], f[4], f[5]); err != nil {
			return Update{}, err
		}
	}
	return u, nil
}

// RMC: Recommended Minimum Specific GNSS Data
//
//	0: talker+type
//	1: time (hhmmss.sss)
//	2: status (A=active, V=void)
//	3: latitude, 4: N/S
//	5: longitude, 6: E/W
func parseRMC(f []string) (Update, error) {
	if len(f) < 7 {
		return Update{}, nil
	}

	valid := f[2] == nmea.ValidRMC
	u := Update{Kind: nmea.TypeRMC, FixValid: &valid}
	if valid && f[3] != "" && f[4] != "" && f[5] != "" && f[6] != "" {
		if err := u.decodeFix(f[1], f[3], f[4], f[5], f[6]); err != nil {
			return Update{}, err
		}
	}
	return u, nil
}

func (u *Update) decodeFix(timeField, lat, latHemi, lon, lonHemi string) error {
	latDeg, err := ToDecimalDegrees(lat, latHemi)
	if err != nil {
		return err
	}
	lonDeg, err := ToDecimalDegrees(lon, lonHemi)
	if err != nil {
		return err
	}
	tod, ok, err := parseTimeOfDay(timeField)
	if err != nil {
		return err
	}

	u.Latitude = &latDeg
	u.Longitude = &lonDeg
	if ok {
		u.TimeOfDay = &tod
	}
	return nil
}

// parseTimeOfDay decodes hhmmss(.frac) into seconds since midnight. A field
// that does not start with six digits is simply not a time (ok=false); digits
// followed by a garbled fraction are an error.
func parseTimeOfDay(s string) (float64, bool, error) {
	if len(s) < 6 || !isDigits(s[:6]) {
		return 0, false, nil
	}
	if rest := s[6:]; rest != "" && (rest[0] != '.' || !isDigits(rest[1:])) {
		return 0, false, errMalformedSentence
	}

	hh, _ := strconv.Atoi(s[0:2])
	mm, _ := strconv.Atoi(s[2:4])
	ss, err := strconv.ParseFloat(s[4:], 64)
	if err != nil {
		return 0, false, errMalformedSentence
	}

	tod := float64(hh*3600+mm*60) + ss
	if tod >= secondsPerDay {
		return 0, false, nil
	}
	return tod, true, nil
}
