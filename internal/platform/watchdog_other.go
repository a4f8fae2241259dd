// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

//go:build !linux

package platform

import (
	"fmt"
	"time"
)

type HardwareWatchdog struct{ NopWatchdog }

func OpenHardwareWatchdog(path string, _ time.Duration) (*HardwareWatchdog, error) {
	return nil, fmt.Errorf("watchdog: %s not supported on this platform", path)
}
