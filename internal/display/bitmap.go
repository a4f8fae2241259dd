// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Panel geometry: two rows of 16 8x16 cells.
const (
	Width      = 128
	Height     = 32
	CellWidth  = 8
	CellHeight = 16
)

// satelliteIcon is an 8x16 bitmap, one byte per row, MSB is the left pixel.
var satelliteIcon = [CellHeight]byte{
	0x00,
	0x00,
	0x40,
	0xA0,
	0x52,
	0x2C,
	0x18,
	0x3C,
	0x5A,
	0x34,
	0x0A,
	0x05,
	0x02,
	0x00,
	0x00,
	0x00,
}

// Draw renders two text rows onto a fresh 128x32 one-bit bitmap. Each
// character occupies its own cell so columns line up regardless of glyph
// advance.
func Draw(lines Lines) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, Width, Height))

	face := inconsolata.Regular8x16
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: face,
	}
	ascent := face.Metrics().Ascent.Ceil()

	for row, text := range []string{lines.Top, lines.Bottom} {
		y := row * CellHeight
		for col := 0; col < len(text) && col < Columns; col++ {
			x := col * CellWidth
			switch c := text[col]; c {
			case ' ':
			case SatelliteGlyph:
				drawIcon(img, x, y)
			default:
				drawer.Dot = fixed.P(x, y+ascent)
				drawer.DrawString(string(c))
			}
		}
	}
	return img
}

func drawIcon(img *image1bit.VerticalLSB, x0, y0 int) {
	for dy, bits := range satelliteIcon {
		for dx := 0; dx < CellWidth; dx++ {
			if bits&(0x80>>dx) != 0 {
				img.SetBit(x0+dx, y0+dy, image1bit.On)
			}
		}
	}
}
