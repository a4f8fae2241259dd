// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package platform

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// FaultLog appends one "<unix_timestamp> <description>" line per fault to a
// text file. The file is opened per record so nothing is held open between
// faults.
type FaultLog struct {
	path string
}

func NewFaultLog(path string) *FaultLog {
	return &FaultLog{path: path}
}

var flatten = strings.NewReplacer("\r", " ", "\n", " ")

// Append writes a record. Callers treat failure as non-fatal.
func (l *FaultLog) Append(at time.Time, desc string) error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("fault log: open %s: %w", l.path, err)
	}
	_, werr := fmt.Fprintf(f, "%d %s\n", at.Unix(), flatten.Replace(desc))
	return errors.Join(werr, f.Close())
}
