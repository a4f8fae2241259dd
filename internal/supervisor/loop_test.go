// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package supervisor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gps_telemetry/internal/display"
	"github.com/relabs-tech/gps_telemetry/internal/gps"
	"github.com/relabs-tech/gps_telemetry/internal/observability"
	"github.com/relabs-tech/gps_telemetry/internal/platform"
)

// scriptedSource returns one step per ReadLine: a string is a line, an error
// is a read error, a func is called (and may panic). Exhausted = no data.
type scriptedSource struct {
	steps []any
}

func (s *scriptedSource) ReadLine() ([]byte, error) {
	if len(s.steps) == 0 {
		return nil, nil
	}
	step := s.steps[0]
	s.steps = s.steps[1:]
	switch v := step.(type) {
	case string:
		return []byte(v), nil
	case error:
		return nil, v
	case func():
		v()
	}
	return nil, nil
}

type memPanel struct {
	shown   []display.Lines
	failAt  map[int]error // call index -> error
	calls   int
	panicAt int
}

func (p *memPanel) Show(lines display.Lines) error {
	p.calls++
	if p.panicAt == p.calls {
		panic("i2c bus vanished")
	}
	if err := p.failAt[p.calls]; err != nil {
		return err
	}
	p.shown = append(p.shown, lines)
	return nil
}

func (p *memPanel) last() display.Lines {
	return p.shown[len(p.shown)-1]
}

type countingWatchdog struct {
	feeds  int
	err    error
	closed bool
}

func (w *countingWatchdog) Feed() error {
	if w.err != nil {
		return w.err
	}
	w.feeds++
	return nil
}

func (w *countingWatchdog) Close() error {
	w.closed = true
	return nil
}

type memFaultLog struct {
	records []string
	err     error
}

func (f *memFaultLog) Append(at time.Time, desc string) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, desc)
	return nil
}

type recordingOutput struct {
	levels []bool
}

func (r *recordingOutput) Set(on bool) error {
	r.levels = append(r.levels, on)
	return nil
}

type recordingSink struct {
	fixes []gps.Fix
	err   error
}

func (s *recordingSink) Publish(fix gps.Fix) error {
	s.fixes = append(s.fixes, fix)
	return s.err
}

type rig struct {
	source   *scriptedSource
	panel    *memPanel
	watchdog *countingWatchdog
	faults   *memFaultLog
	led      *recordingOutput
	sink     *recordingSink
	tracker  *gps.Tracker
	sleeps   []time.Duration
	loop     *Loop
}

func newRig(t *testing.T, steps ...any) *rig {
	t.Helper()
	r := &rig{
		source:   &scriptedSource{steps: steps},
		panel:    &memPanel{failAt: map[int]error{}},
		watchdog: &countingWatchdog{},
		faults:   &memFaultLog{},
		led:      &recordingOutput{},
		sink:     &recordingSink{},
		tracker:  gps.NewTracker(),
	}
	loop, err := New(Options{
		TickInterval: 100 * time.Millisecond,
		FaultHold:    2 * time.Second,
		Now:          func() time.Time { return time.Unix(1700000000, 0) },
		Sleep:        func(d time.Duration) { r.sleeps = append(r.sleeps, d) },
	}, Peripherals{
		Source:    r.source,
		Panel:     r.panel,
		Heartbeat: platform.NewHeartbeat(r.led),
		Watchdog:  r.watchdog,
		FaultLog:  r.faults,
		Sinks:     []Sink{r.sink},
	}, r.tracker)
	require.NoError(t, err)
	r.loop = loop
	return r
}

func (r *rig) steps(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, r.loop.Step())
	}
}

const (
	ggaFirst  = "$GPGGA,123519,4807.038,N,01131.000,E,1,08,,,,,,,*"
	ggaSecond = "$GPGGA,123520,4807.038,N,01131.060,E,1,08,,,,,,,*"
	ggaNoFix  = "$GPGGA,123521,,,,,0,08,,,,,,,*"
)

func TestNew_RequiresSourceAndFaultLog(t *testing.T) {
	_, err := New(Options{}, Peripherals{FaultLog: &memFaultLog{}}, gps.NewTracker())
	assert.Error(t, err)

	_, err = New(Options{}, Peripherals{Source: &scriptedSource{}}, gps.NewTracker())
	assert.Error(t, err)

	_, err = New(Options{}, Peripherals{Source: &scriptedSource{}, FaultLog: &memFaultLog{}}, nil)
	assert.Error(t, err)

	l, err := New(Options{}, Peripherals{Source: &scriptedSource{}, FaultLog: &memFaultLog{}}, gps.NewTracker())
	require.NoError(t, err)
	assert.NoError(t, l.Step())
}

func TestLoop_NoFixBeforeFirstSentence(t *testing.T) {
	r := newRig(t)
	r.steps(t, 1)

	assert.Equal(t, "NO FIX          ", r.panel.last().Top)
	assert.Equal(t, "SATS 0          ", r.panel.last().Bottom)
	assert.Equal(t, 1, r.watchdog.feeds)
	assert.Equal(t, Running, r.loop.mode)
}

func TestLoop_EndToEndFixSpeedAndStickiness(t *testing.T) {
	r := newRig(t, ggaFirst, ggaSecond)
	r.steps(t, 2)

	top := r.panel.last().Top
	assert.True(t, strings.HasPrefix(top, "48.1173N"), "top row %q", top)
	assert.True(t, strings.HasSuffix(top, " m/s"), "top row %q", top)
	assert.Greater(t, r.tracker.State().SpeedMPS, 0.0)
	withFix := r.panel.last()

	r.source.steps = append(r.source.steps, ggaNoFix, "$GPRMC,123522,V,,,,,,,,,")
	r.steps(t, 3)

	assert.Equal(t, withFix, r.panel.last(), "fix must stay on screen after the receiver loses it")
	assert.True(t, r.tracker.State().HasFix)
	assert.Equal(t, 5, r.watchdog.feeds)
	assert.Empty(t, r.faults.records)
}

func TestLoop_SatellitesShownBeforeFix(t *testing.T) {
	r := newRig(t, "$GNGGA,000001,,,,,0,05,,,,,,,")
	r.steps(t, 1)

	assert.Equal(t, "NO FIX          ", r.panel.last().Top)
	assert.Equal(t, "SATS 5          ", r.panel.last().Bottom)
}

func TestLoop_HeartbeatBlinksWhileHealthy(t *testing.T) {
	r := newRig(t)
	r.steps(t, 4)

	assert.Equal(t, []bool{true, false, true, false}, r.led.levels)
	assert.Empty(t, r.sleeps, "Step does not sleep on a clean tick")
}

func TestLoop_PanelFaultIsContained(t *testing.T) {
	r := newRig(t, ggaFirst, ggaSecond)
	r.steps(t, 2)
	before := r.tracker.State()
	feedsBefore := r.watchdog.feeds

	r.panel.failAt[3] = errors.New("i2c: nack")
	err := r.loop.Step()

	require.Error(t, err)
	require.Len(t, r.faults.records, 1)
	assert.Contains(t, r.faults.records[0], "render")
	assert.Contains(t, r.faults.records[0], "i2c: nack")
	assert.Equal(t, feedsBefore, r.watchdog.feeds, "watchdog must not be fed on a faulting tick")
	assert.Equal(t, []time.Duration{2 * time.Second}, r.sleeps)
	assert.Equal(t, display.ErrorLines(), r.panel.last())
	// Two blinks, solid on, released.
	assert.Equal(t, []bool{true, false, true, false}, r.led.levels)
	assert.Equal(t, Running, r.loop.mode)
	assert.Equal(t, before, r.tracker.State())

	// The next tick is normal again.
	require.NoError(t, r.loop.Step())
	assert.True(t, strings.HasPrefix(r.panel.last().Top, "48.1173N"))
	assert.Len(t, r.faults.records, 1)
	assert.Equal(t, feedsBefore+1, r.watchdog.feeds)
}

func TestLoop_PanicMidTickIsAFault(t *testing.T) {
	r := newRig(t, ggaFirst, func() { panic("index out of range") })
	r.steps(t, 1)
	before := r.tracker.State()

	err := r.loop.Step()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "index out of range")
	require.Len(t, r.faults.records, 1)
	assert.Equal(t, before, r.tracker.State())
	assert.Equal(t, []bool{true, true, false}, r.led.levels)
	assert.Equal(t, Running, r.loop.mode)
}

func TestLoop_PanicInFaultScreenIsSwallowed(t *testing.T) {
	r := newRig(t)
	r.panel.failAt[1] = errors.New("first draw fails")
	r.panel.panicAt = 2 // the ERR screen

	assert.Error(t, r.loop.Step())
	assert.Len(t, r.faults.records, 1)
	assert.Equal(t, Running, r.loop.mode)
	assert.NoError(t, r.loop.Step())
}

func TestLoop_FaultLogFailureIsSwallowed(t *testing.T) {
	r := newRig(t)
	r.faults.err = errors.New("read-only filesystem")
	r.watchdog.err = errors.New("ebadf")

	err := r.loop.Step()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "watchdog")
	assert.Equal(t, []time.Duration{2 * time.Second}, r.sleeps)
	assert.Equal(t, []bool{true, true, false}, r.led.levels)
	assert.Equal(t, Running, r.loop.mode)
}

func TestLoop_ReadErrorsAreNotFaults(t *testing.T) {
	r := newRig(t, errors.New("serial: framing"), errors.New("serial: framing"), ggaFirst)
	r.steps(t, 3)

	assert.Empty(t, r.faults.records)
	assert.Equal(t, 3, r.watchdog.feeds)
	assert.True(t, r.tracker.State().HasFix)
}

func TestLoop_BadEncodingIsDropped(t *testing.T) {
	r := newRig(t, ggaFirst+"\xff\xfe")
	r.steps(t, 1)

	assert.False(t, r.tracker.State().HasFix)
	assert.Empty(t, r.faults.records)
}

func TestLoop_UnrecognisedLinesCountAsKindNone(t *testing.T) {
	r := newRig(t, "$GPGSV,3,1,11,03,03,111,00*74", ggaFirst)
	none := observability.Sentences.WithLabelValues("none")
	gga := observability.Sentences.WithLabelValues("GGA")
	beforeNone, beforeGGA := testutil.ToFloat64(none), testutil.ToFloat64(gga)

	r.steps(t, 2)

	assert.Equal(t, beforeNone+1, testutil.ToFloat64(none))
	assert.Equal(t, beforeGGA+1, testutil.ToFloat64(gga))
}

func TestLoop_CountsDroppedFragments(t *testing.T) {
	junk := strings.Repeat("x", 8192)
	r := newRig(t)
	r.loop.p.Source = gps.NewLineReader(strings.NewReader(junk + "\n" + ggaFirst + "\n"))
	before := testutil.ToFloat64(observability.LinesDropped)

	// 256 bytes per read: the fragment passes the limit well before its newline.
	r.steps(t, 40)

	assert.Equal(t, before+1, testutil.ToFloat64(observability.LinesDropped))
	assert.True(t, r.tracker.State().HasFix)
	assert.Empty(t, r.faults.records)
}

func TestLoop_SinkErrorsAreNotFaults(t *testing.T) {
	r := newRig(t, ggaFirst)
	r.sink.err = errors.New("broker down")
	r.steps(t, 2)

	require.Len(t, r.sink.fixes, 2)
	assert.True(t, r.sink.fixes[0].HasFix)
	assert.Equal(t, 8, r.sink.fixes[1].Satellites)
	assert.Empty(t, r.faults.records)
}

func TestLoop_RunSleepsBetweenTicksAndStopsOnCancel(t *testing.T) {
	r := newRig(t, ggaFirst)
	ctx, cancel := context.WithCancel(context.Background())
	r.loop.opts.Sleep = func(d time.Duration) {
		r.sleeps = append(r.sleeps, d)
		if len(r.sleeps) == 3 {
			cancel()
		}
	}

	err := r.loop.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 100 * time.Millisecond, 100 * time.Millisecond}, r.sleeps)
	assert.Equal(t, 3, r.watchdog.feeds)
	assert.True(t, r.watchdog.closed, "watchdog must be disarmed on shutdown")
}

func TestLoop_RunHoldsOnFaultInsteadOfTickSleep(t *testing.T) {
	r := newRig(t)
	r.panel.failAt[1] = errors.New("boom")
	ctx, cancel := context.WithCancel(context.Background())
	r.loop.opts.Sleep = func(d time.Duration) {
		r.sleeps = append(r.sleeps, d)
		if len(r.sleeps) == 2 {
			cancel()
		}
	}

	_ = r.loop.Run(ctx)

	assert.Equal(t, []time.Duration{2 * time.Second, 100 * time.Millisecond}, r.sleeps)
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "fault", Fault.String())
	assert.Equal(t, "mode(7)", Mode(7).String())
}
