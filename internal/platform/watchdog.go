// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package platform

import "io"

// Watchdog is a timer that resets the platform unless fed in time.
type Watchdog interface {
	Feed() error
	io.Closer
}

// NopWatchdog is used when no hardware watchdog is configured.
type NopWatchdog struct{}

func (NopWatchdog) Feed() error  { return nil }
func (NopWatchdog) Close() error { return nil }
