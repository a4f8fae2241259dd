// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sim

import "time"

// Source feeds generated sentences to the loop one line per read, releasing a
// new epoch each simulated second of wall clock.
type Source struct {
	gen     *Generator
	now     func() time.Time
	next    time.Time
	pending []string
}

// NewSource creates a source whose first epoch is available immediately.
func NewSource(gen *Generator) *Source {
	return newSource(gen, time.Now)
}

func newSource(gen *Generator, now func() time.Time) *Source {
	return &Source{gen: gen, now: now, next: now()}
}

// ReadLine never fails; nil means the current epoch is drained and the next
// one is not due yet.
func (s *Source) ReadLine() ([]byte, error) {
	if len(s.pending) == 0 {
		if s.now().Before(s.next) {
			return nil, nil
		}
		s.pending = s.gen.Next()
		s.next = s.next.Add(time.Second)
	}
	line := s.pending[0]
	s.pending = s.pending[1:]
	return []byte(line), nil
}
