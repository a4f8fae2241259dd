// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

//go:build linux

package platform

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// HardwareWatchdog arms a Linux watchdog device (/dev/watchdog). Once opened
// the device must be fed before the timeout or the board resets.
type HardwareWatchdog struct {
	f  *os.File
	fd int
}

// OpenHardwareWatchdog opens and arms the device with the given timeout
// (whole seconds, at least 1).
func OpenHardwareWatchdog(path string, timeout time.Duration) (*HardwareWatchdog, error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("watchdog: open %s: %w", path, err)
	}
	fd := int(f.Fd())

	secs := int(timeout.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	// Some drivers have a fixed timeout; keep going with theirs.
	if err := unix.IoctlSetPointerInt(fd, unix.WDIOC_SETTIMEOUT, secs); err != nil {
		log.Printf("watchdog: cannot set timeout %ds on %s: %v", secs, path, err)
	}
	if got, err := unix.IoctlGetInt(fd, unix.WDIOC_GETTIMEOUT); err == nil {
		log.Printf("watchdog: %s armed, timeout %ds", path, got)
	}

	return &HardwareWatchdog{f: f, fd: fd}, nil
}

func (w *HardwareWatchdog) Feed() error {
	if err := unix.IoctlSetInt(w.fd, unix.WDIOC_KEEPALIVE, 0); err != nil {
		return fmt.Errorf("watchdog: keepalive: %w", err)
	}
	return nil
}

// Close disarms the watchdog with the magic close character. Only call it on
// a deliberate shutdown.
func (w *HardwareWatchdog) Close() error {
	_, werr := w.f.Write([]byte("V"))
	return errors.Join(werr, w.f.Close())
}
