// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"sync/atomic"
	"time"

	"github.com/relabs-tech/gps_telemetry/internal/gps"
)

// Status is what the loop last published, as seen by other goroutines.
type Status struct {
	Fix      gps.Fix
	TickedAt time.Time
	Version  uint64 // bumps only when Fix changes
}

// Store hands the loop's latest snapshot to concurrent readers (web server)
// without them ever touching the tracker.
type Store struct {
	now  func() time.Time
	last atomic.Pointer[Status]
}

func NewStore() *Store {
	return &Store{now: time.Now}
}

// Publish records fix as the latest snapshot. It never fails.
func (s *Store) Publish(fix gps.Fix) error {
	next := Status{Fix: fix, TickedAt: s.now()}
	if prev := s.last.Load(); prev != nil {
		next.Version = prev.Version
		if prev.Fix != fix {
			next.Version++
		}
	} else {
		next.Version = 1
	}
	s.last.Store(&next)
	return nil
}

// Status returns the latest snapshot; ok is false before the first Publish.
func (s *Store) Status() (Status, bool) {
	p := s.last.Load()
	if p == nil {
		return Status{}, false
	}
	return *p, true
}
