// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

//go:build !linux

package platform

import "fmt"

type GPIODLine struct{}

func OpenGPIODLine(name string) (*GPIODLine, error) {
	return nil, fmt.Errorf("heartbeat: gpio character device not available on this platform (line %q)", name)
}

func (*GPIODLine) Set(bool) error { return nil }

func (*GPIODLine) Close() error { return nil }
