// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sim produces a synthetic NMEA stream for bench runs without a
// receiver: a vehicle on a great circle at constant speed, one epoch per
// second, with occasional junk lines mixed in.
package sim

import (
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"time"

	nmea "github.com/adrianmo/go-nmea"

	"github.com/relabs-tech/gps_telemetry/internal/gps"
)

const knotsPerMPS = 3600.0 / 1852.0

// Route describes the simulated vehicle.
type Route struct {
	Start      gps.Position
	BearingDeg float64
	SpeedMPS   float64
	Satellites int
	StartTime  time.Time // UTC wall clock of the first epoch
}

// Config controls the generator. NoiseEvery 0 disables junk lines.
//
// EmitRMC adds an RMC after each GGA. Both carry the same time, so a tracker
// fed the pair sees zero elapsed on the second one and reports 0 m/s.
type Config struct {
	Route      Route
	EmitRMC    bool
	NoiseEvery int
	Seed       uint64
}

// Generator emits one epoch of sentences per call to Next.
type Generator struct {
	cfg   Config
	rng   *rand.Rand
	epoch int
}

func NewGenerator(cfg Config) *Generator {
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
	}
}

// Epoch is the number of epochs generated so far.
func (g *Generator) Epoch() int {
	return g.epoch
}

// PositionAt returns where the vehicle is n seconds after the start.
func (g *Generator) PositionAt(n int) gps.Position {
	r := g.cfg.Route
	return destination(r.Start, r.BearingDeg, r.SpeedMPS*float64(n))
}

// Next returns the sentences for the next second, without line terminators.
// Noise, when due, comes last.
func (g *Generator) Next() []string {
	n := g.epoch
	g.epoch++

	at := g.cfg.Route.StartTime.Add(time.Duration(n) * time.Second)
	pos := g.PositionAt(n)

	lines := []string{g.gga(at, pos)}
	if g.cfg.EmitRMC {
		lines = append(lines, g.rmc(at, pos))
	}
	if g.cfg.NoiseEvery > 0 && n%g.cfg.NoiseEvery == g.cfg.NoiseEvery-1 {
		lines = append(lines, g.noise(at, lines[0]))
	}
	return lines
}

// WriteEpoch writes the next epoch to w with CRLF terminators, as a receiver
// would.
func (g *Generator) WriteEpoch(w io.Writer) error {
	for _, line := range g.Next() {
		if _, err := io.WriteString(w, line+"\r\n"); err != nil {
			return fmt.Errorf("sim: write: %w", err)
		}
	}
	return nil
}

func (g *Generator) gga(at time.Time, pos gps.Position) string {
	lat, ns := ddmm(pos.Lat, 2, "N", "S")
	lon, ew := ddmm(pos.Lon, 3, "E", "W")
	return sentence(fmt.Sprintf("GPGGA,%s,%s,%s,%s,%s,1,%02d,0.9,545.4,M,46.9,M,,",
		clock(at), lat, ns, lon, ew, g.cfg.Route.Satellites))
}

func (g *Generator) rmc(at time.Time, pos gps.Position) string {
	lat, ns := ddmm(pos.Lat, 2, "N", "S")
	lon, ew := ddmm(pos.Lon, 3, "E", "W")
	return sentence(fmt.Sprintf("GPRMC,%s,A,%s,%s,%s,%s,%.1f,%.1f,%s,,",
		clock(at), lat, ns, lon, ew,
		g.cfg.Route.SpeedMPS*knotsPerMPS, g.cfg.Route.BearingDeg, at.Format("020106")))
}

// noise picks one kind of junk a real receiver line occasionally carries.
func (g *Generator) noise(at time.Time, valid string) string {
	switch g.rng.IntN(4) {
	case 0:
		return valid[:len(valid)/2]
	case 1:
		return sentence(fmt.Sprintf("GPRMC,%s,V,,,,,,,%s,,", clock(at), at.Format("020106")))
	case 2:
		return sentence("GPGSV,1,1,00")
	default:
		junk := make([]byte, 12)
		for i := range junk {
			junk[i] = byte(0x21 + g.rng.IntN(0x5e))
		}
		return string(junk)
	}
}

func sentence(body string) string {
	return "$" + body + "*" + nmea.Checksum(body)
}

func clock(t time.Time) string {
	return t.Format("150405") + fmt.Sprintf(".%02d", t.Nanosecond()/10_000_000)
}

// ddmm renders decimal degrees as NMEA degrees and minutes with four minute
// decimals. Minutes are rounded before splitting so 59.99999 never prints
// as 60.0000.
func ddmm(deg float64, degDigits int, pos, neg string) (string, string) {
	hemi := pos
	if deg < 0 {
		hemi = neg
		deg = -deg
	}
	totalMin := math.Round(deg*60*1e4) / 1e4
	d := math.Floor(totalMin / 60)
	m := totalMin - d*60
	return fmt.Sprintf("%0*d%07.4f", degDigits, int(d), m), hemi
}

// destination moves dist meters from start along the initial bearing on a
// sphere of gps.EarthRadiusMeters.
func destination(start gps.Position, bearingDeg, dist float64) gps.Position {
	phi1 := start.Lat * math.Pi / 180
	lambda1 := start.Lon * math.Pi / 180
	theta := bearingDeg * math.Pi / 180
	delta := dist / gps.EarthRadiusMeters

	sinPhi2 := math.Sin(phi1)*math.Cos(delta) + math.Cos(phi1)*math.Sin(delta)*math.Cos(theta)
	phi2 := math.Asin(sinPhi2)
	lambda2 := lambda1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(phi1),
		math.Cos(delta)-math.Sin(phi1)*sinPhi2,
	)

	lon := math.Mod(lambda2*180/math.Pi+540, 360) - 180
	return gps.Position{Lat: phi2 * 180 / math.Pi, Lon: lon}
}
