// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package platform

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// PeriphPin is a GPIO output driven through periph.
type PeriphPin struct {
	pin gpio.PinIO
}

// OpenPeriphPin looks up the pin by name (e.g. "GPIO17") and drives it low.
func OpenPeriphPin(name string) (*PeriphPin, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("heartbeat: periph host init: %w", err)
	}

	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("heartbeat: pin %q not found", name)
	}
	if err := pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("heartbeat: pin %q as output: %w", name, err)
	}
	return &PeriphPin{pin: pin}, nil
}

func (p *PeriphPin) Set(on bool) error {
	return p.pin.Out(gpio.Level(on))
}
