// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sim

import (
	"bytes"
	"strings"
	"testing"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gps_telemetry/internal/gps"
)

// benchConfig drives east through Munich just before midnight, so a short
// run also crosses the day rollover. Only GGA is emitted.
func benchConfig() Config {
	return Config{
		Route: Route{
			Start:      gps.Position{Lat: 48.1173, Lon: 11.5167},
			BearingDeg: 90,
			SpeedMPS:   12,
			Satellites: 8,
			StartTime:  time.Date(2026, 1, 1, 23, 59, 30, 0, time.UTC),
		},
		NoiseEvery: 5,
		Seed:       1,
	}
}

func quietConfig() Config {
	cfg := benchConfig()
	cfg.NoiseEvery = 0
	cfg.EmitRMC = true
	return cfg
}

func TestDDMM(t *testing.T) {
	tests := []struct {
		deg    float64
		digits int
		want   string
		hemi   string
	}{
		{48.1173, 2, "4807.0380", "N"},
		{-11.5167, 3, "01131.0020", "W"},
		{-33.8688, 2, "3352.1280", "S"},
		{9.99999999, 2, "1000.0000", "N"},
		{0, 3, "00000.0000", "E"},
	}
	for _, tt := range tests {
		hemiPos, hemiNeg := "N", "S"
		if tt.digits == 3 {
			hemiPos, hemiNeg = "E", "W"
		}
		got, hemi := ddmm(tt.deg, tt.digits, hemiPos, hemiNeg)
		assert.Equal(t, tt.want, got, "deg %v", tt.deg)
		assert.Equal(t, tt.hemi, hemi, "deg %v", tt.deg)
	}
}

func TestGenerator_SentencesAreValidNMEA(t *testing.T) {
	g := NewGenerator(quietConfig())
	lines := g.Next()
	require.Len(t, lines, 2)

	s, err := nmea.Parse(lines[0])
	require.NoError(t, err)
	require.Equal(t, nmea.TypeGGA, s.DataType())
	gga := s.(nmea.GGA)
	assert.InDelta(t, 48.1173, gga.Latitude, 1e-6)
	assert.InDelta(t, 11.5167, gga.Longitude, 1e-6)
	assert.Equal(t, "1", gga.FixQuality)
	assert.Equal(t, int64(8), gga.NumSatellites)

	s, err = nmea.Parse(lines[1])
	require.NoError(t, err)
	require.Equal(t, nmea.TypeRMC, s.DataType())
	rmc := s.(nmea.RMC)
	assert.Equal(t, nmea.ValidRMC, rmc.Validity)
	assert.InDelta(t, 23.3, rmc.Speed, 0.05)
	assert.Equal(t, 90.0, rmc.Course)
}

func TestGenerator_StepMatchesSpeed(t *testing.T) {
	g := NewGenerator(quietConfig())
	for n := 0; n < 5; n++ {
		a, b := g.PositionAt(n), g.PositionAt(n+1)
		assert.InDelta(t, 12.0, gps.Haversine(a.Lat, a.Lon, b.Lat, b.Lon), 1e-6)
	}
}

func TestGenerator_TrackSpeedAcrossMidnight(t *testing.T) {
	cfg := benchConfig()
	cfg.NoiseEvery = 0
	g := NewGenerator(cfg)
	tr := gps.NewTracker()

	var last []string
	for i := 0; i < 40; i++ {
		last = g.Next()
		tr.Merge(gps.ParseSentence(last[0]))
	}

	st := tr.State()
	require.True(t, st.HasFix)
	assert.Equal(t, 8, st.Satellites)
	// Coordinates go through four minute decimals, roughly 0.1 m of noise.
	assert.InDelta(t, 12.0, st.SpeedMPS, 0.5)
	require.Len(t, last, 1)
	assert.True(t, strings.HasPrefix(last[0], "$GPGGA,000009.00,"), last[0])
}

func TestGenerator_NoiseNeverProducesAFix(t *testing.T) {
	cfg := benchConfig()
	cfg.NoiseEvery = 1
	g := NewGenerator(cfg)

	for i := 0; i < 50; i++ {
		lines := g.Next()
		require.Len(t, lines, 2)
		u := gps.ParseSentence(lines[1])
		assert.False(t, u.FixValid != nil && *u.FixValid, "noise line %q", lines[1])
	}
}

func TestGenerator_NoiseCadence(t *testing.T) {
	cfg := benchConfig()
	cfg.NoiseEvery = 3
	g := NewGenerator(cfg)

	var counts []int
	for i := 0; i < 6; i++ {
		counts = append(counts, len(g.Next()))
	}
	assert.Equal(t, []int{1, 1, 2, 1, 1, 2}, counts)
	assert.Equal(t, 6, g.Epoch())
}

func TestGenerator_WriteEpochUsesCRLF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewGenerator(quietConfig()).WriteEpoch(&buf))

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "\r\n"))
	assert.True(t, strings.HasPrefix(out, "$GPGGA,235930.00,4807.0380,N,01131.0020,E,1,08,"), out)
}

func TestSource_OneEpochPerSecond(t *testing.T) {
	clock := time.Unix(1000, 0)
	src := newSource(NewGenerator(quietConfig()), func() time.Time { return clock })

	read := func() string {
		line, err := src.ReadLine()
		require.NoError(t, err)
		return string(line)
	}

	assert.True(t, strings.HasPrefix(read(), "$GPGGA,235930.00"))
	assert.True(t, strings.HasPrefix(read(), "$GPRMC,235930.00"))
	assert.Empty(t, read())

	clock = clock.Add(999 * time.Millisecond)
	assert.Empty(t, read())

	clock = clock.Add(time.Millisecond)
	assert.True(t, strings.HasPrefix(read(), "$GPGGA,235931.00"))
}
