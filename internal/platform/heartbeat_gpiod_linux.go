// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

//go:build linux

package platform

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/warthog618/go-gpiocdev"
)

// GPIODLine is a GPIO output driven through the Linux GPIO character device.
type GPIODLine struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// OpenGPIODLine finds the named line (e.g. "GPIO17") on any gpiochip and
// requests it as an output, initially low.
func OpenGPIODLine(name string) (*GPIODLine, error) {
	chips, _ := filepath.Glob("/dev/gpiochip*")

	for _, path := range chips {
		chip, err := gpiocdev.NewChip(path)
		if err != nil {
			continue
		}
		offset, err := chip.FindLine(name)
		if err != nil {
			_ = chip.Close()
			continue
		}
		line, err := chip.RequestLine(offset, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("gps-telemetry-heartbeat"))
		if err != nil {
			_ = chip.Close()
			continue
		}
		return &GPIODLine{chip: chip, line: line}, nil
	}
	return nil, fmt.Errorf("heartbeat: gpio line %q not found (or busy)", name)
}

func (g *GPIODLine) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	return g.line.SetValue(v)
}

func (g *GPIODLine) Close() error {
	return errors.Join(g.line.Close(), g.chip.Close())
}
