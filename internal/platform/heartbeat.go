// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package platform

// Output is a single binary output, typically an LED on a GPIO pin.
type Output interface {
	Set(on bool) error
}

// Heartbeat drives the liveness LED: blinking while the loop is healthy,
// solid while it holds after a fault.
type Heartbeat struct {
	out Output
	on  bool
}

// NewHeartbeat wraps out. The LED is assumed to start off.
func NewHeartbeat(out Output) *Heartbeat {
	return &Heartbeat{out: out}
}

// Toggle flips the LED.
func (h *Heartbeat) Toggle() error {
	h.on = !h.on
	return h.out.Set(h.on)
}

// Solid turns the LED on and keeps it there until Release.
func (h *Heartbeat) Solid() error {
	h.on = true
	return h.out.Set(true)
}

// Release turns the LED off.
func (h *Heartbeat) Release() error {
	h.on = false
	return h.out.Set(false)
}

// NopOutput is used when no LED is wired.
type NopOutput struct{}

func (NopOutput) Set(bool) error { return nil }
