// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	"github.com/relabs-tech/gps_telemetry/internal/display"
	"github.com/relabs-tech/gps_telemetry/internal/gps"
	"github.com/relabs-tech/gps_telemetry/internal/observability"
	"github.com/relabs-tech/gps_telemetry/internal/platform"
)

// Mode is the loop's state machine position.
type Mode int

const (
	Running Mode = iota
	Fault
)

func (m Mode) String() string {
	switch m {
	case Running:
		return "running"
	case Fault:
		return "fault"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// LineSource yields one receiver line per call without blocking. A nil line
// with a nil error means nothing complete has arrived yet.
type LineSource interface {
	ReadLine() ([]byte, error)
}

// dropCounter is implemented by sources that discard unterminated fragments.
type dropCounter interface {
	Dropped() int
}

// Sink receives the published snapshot after every successful tick.
type Sink interface {
	Publish(fix gps.Fix) error
}

// FaultRecorder persists fault records.
type FaultRecorder interface {
	Append(at time.Time, desc string) error
}

// Peripherals is everything the loop talks to. It is built once at startup
// and owned by the loop from then on.
type Peripherals struct {
	Source    LineSource
	Panel     display.Panel
	Heartbeat *platform.Heartbeat
	Watchdog  platform.Watchdog
	FaultLog  FaultRecorder
	Sinks     []Sink
}

// Options controls loop timing. Now and Sleep default to the real clock.
type Options struct {
	TickInterval time.Duration
	FaultHold    time.Duration

	Now   func() time.Time
	Sleep func(time.Duration)
}

// Loop drives read, parse, merge, render and liveness once per tick, and
// contains any fault at the tick boundary.
type Loop struct {
	opts    Options
	p       Peripherals
	tracker *gps.Tracker
	mode    Mode

	readFailing bool
	sinkFailing []bool
	dropped     int
}

// New validates the peripherals and fills in no-op stand-ins for optional
// ones.
func New(opts Options, p Peripherals, tracker *gps.Tracker) (*Loop, error) {
	if p.Source == nil {
		return nil, errors.New("supervisor: line source is required")
	}
	if p.FaultLog == nil {
		return nil, errors.New("supervisor: fault log is required")
	}
	if tracker == nil {
		return nil, errors.New("supervisor: tracker is required")
	}
	if p.Panel == nil {
		p.Panel = display.NopPanel{}
	}
	if p.Heartbeat == nil {
		p.Heartbeat = platform.NewHeartbeat(platform.NopOutput{})
	}
	if p.Watchdog == nil {
		p.Watchdog = platform.NopWatchdog{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}

	return &Loop{
		opts:        opts,
		p:           p,
		tracker:     tracker,
		sinkFailing: make([]bool, len(p.Sinks)),
	}, nil
}

// Run steps the loop until ctx is cancelled. Cancellation is only observed
// between ticks; on the way out the watchdog is disarmed.
func (l *Loop) Run(ctx context.Context) error {
	log.Printf("supervisor: loop running (tick %v, fault hold %v)", l.opts.TickInterval, l.opts.FaultHold)
	for {
		select {
		case <-ctx.Done():
			bestEffort("watchdog disarm", l.p.Watchdog.Close)
			log.Println("supervisor: loop stopped")
			return ctx.Err()
		default:
		}

		if err := l.Step(); err != nil {
			// The fault hold already paced this iteration.
			continue
		}
		l.opts.Sleep(l.opts.TickInterval)
	}
}

// Step runs one tick and, if it faults, the whole fault sequence. It returns
// the fault, or nil for a clean tick.
func (l *Loop) Step() error {
	err := l.safeTick()
	if err != nil {
		l.handleFault(err)
	}
	return err
}

// Tick performs one running iteration. Parse problems and transient read
// errors are absorbed here; anything returned is a fault.
func (l *Loop) Tick() error {
	start := l.opts.Now()
	observability.Ticks.Inc()
	defer observability.ObserveTickLatency(start)

	l.ingest()

	st := l.tracker.State()
	if err := l.p.Panel.Show(display.Format(st)); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := l.p.Heartbeat.Toggle(); err != nil {
		return fmt.Errorf("heartbeat: %w", err)
	}
	if err := l.p.Watchdog.Feed(); err != nil {
		return fmt.Errorf("watchdog: %w", err)
	}

	fix := st.Snapshot()
	observability.SetFixGauges(fix.HasFix, fix.Satellites, fix.SpeedMPS)
	l.publish(fix)
	return nil
}

func (l *Loop) ingest() {
	line, err := l.p.Source.ReadLine()
	l.countDropped()
	if err != nil {
		observability.ReadErrors.Inc()
		if !l.readFailing {
			log.Printf("supervisor: gps read error: %v", err)
		}
		l.readFailing = true
		return
	}
	if l.readFailing {
		log.Println("supervisor: gps reads recovered")
		l.readFailing = false
	}

	if line == nil {
		return
	}
	if !utf8.Valid(line) {
		observability.LinesRejected.Inc()
		return
	}
	observability.LinesRead.Inc()

	u := gps.ParseSentence(string(line))
	kind := u.Kind
	if kind == "" {
		kind = "none"
	}
	observability.Sentences.WithLabelValues(kind).Inc()

	if l.tracker.Merge(u) {
		observability.FixesMerged.Inc()
	}
}

func (l *Loop) countDropped() {
	dc, ok := l.p.Source.(dropCounter)
	if !ok {
		return
	}
	if n := dc.Dropped(); n > l.dropped {
		observability.LinesDropped.Add(float64(n - l.dropped))
		l.dropped = n
	}
}

func (l *Loop) publish(fix gps.Fix) {
	for i, s := range l.p.Sinks {
		err := s.Publish(fix)
		if err != nil {
			observability.PublishErrors.Inc()
			if !l.sinkFailing[i] {
				log.Printf("supervisor: publish: %v", err)
			}
		}
		l.sinkFailing[i] = err != nil
	}
}

// safeTick turns a panic anywhere in the tick into an ordinary fault.
func (l *Loop) safeTick() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return l.Tick()
}

// handleFault records the fault, holds the LED solid with ERR on the panel
// for the hold time, then returns to running. Tracker state is kept, and the
// watchdog is not fed from here: a hang in this path ends in a hardware reset.
func (l *Loop) handleFault(cause error) {
	l.mode = Fault
	observability.Faults.Inc()
	observability.InFault.Set(1)
	log.Printf("supervisor: fault: %v", cause)

	bestEffort("fault log", func() error {
		if err := l.p.FaultLog.Append(l.opts.Now(), cause.Error()); err != nil {
			observability.FaultLogErrors.Inc()
			return err
		}
		return nil
	})
	bestEffort("heartbeat solid", l.p.Heartbeat.Solid)
	bestEffort("error screen", func() error { return l.p.Panel.Show(display.ErrorLines()) })

	l.opts.Sleep(l.opts.FaultHold)

	bestEffort("heartbeat release", l.p.Heartbeat.Release)
	l.mode = Running
	observability.InFault.Set(0)
}

func bestEffort(what string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("supervisor: %s: panic: %v", what, r)
		}
	}()
	if err := fn(); err != nil {
		log.Printf("supervisor: %s: %v", what, err)
	}
}
