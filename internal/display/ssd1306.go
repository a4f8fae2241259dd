// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"errors"
	"fmt"
	"image"
	"log"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"
)

// OLED drives a 128x32 SSD1306 over I2C.
type OLED struct {
	bus i2c.BusCloser
	dev *ssd1306.Dev
}

// OpenOLED initializes periph, opens the named I2C bus ("" for the default
// bus) and brings up the panel.
func OpenOLED(busName string) (*OLED, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("display: failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("display: failed to open I2C bus %q: %w", busName, err)
	}

	// 128x32 modules wire the COM pins sequentially.
	opts := ssd1306.Opts{W: Width, H: Height, Sequential: true}
	dev, err := ssd1306.NewI2C(bus, &opts)
	if err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("display: failed to initialize ssd1306: %w", err)
	}
	log.Printf("display: ssd1306 %dx%d initialized on I2C bus %q", Width, Height, busName)

	return &OLED{bus: bus, dev: dev}, nil
}

// Show pushes the rendered rows to the panel.
func (o *OLED) Show(lines Lines) error {
	if err := o.dev.Draw(o.dev.Bounds(), Draw(lines), image.Point{}); err != nil {
		return fmt.Errorf("display: draw: %w", err)
	}
	return nil
}

// Close blanks the panel and releases the bus.
func (o *OLED) Close() error {
	return errors.Join(o.dev.Halt(), o.bus.Close())
}
