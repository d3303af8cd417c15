// SPDX-License-Identifier: Unlicense OR MIT

package vga

import (
	"image"
	"image/color"
	"io"

	"github.com/fogleman/gg"
	"github.com/juju/errors"
	"golang.org/x/image/font/basicfont"
)

// Cell size in pixels of rendered screens.
const (
	CellWidth  = 7
	CellHeight = 13
)

// palette is the default text-mode palette.
var palette = [16]color.RGBA{
	{0x00, 0x00, 0x00, 0xff},
	{0x00, 0x00, 0xaa, 0xff},
	{0x00, 0xaa, 0x00, 0xff},
	{0x00, 0xaa, 0xaa, 0xff},
	{0xaa, 0x00, 0x00, 0xff},
	{0xaa, 0x00, 0xaa, 0xff},
	{0xaa, 0x55, 0x00, 0xff},
	{0xaa, 0xaa, 0xaa, 0xff},
	{0x55, 0x55, 0x55, 0xff},
	{0x55, 0x55, 0xff, 0xff},
	{0x55, 0xff, 0x55, 0xff},
	{0x55, 0xff, 0xff, 0xff},
	{0xff, 0x55, 0x55, 0xff},
	{0xff, 0x55, 0xff, 0xff},
	{0xff, 0xff, 0x55, 0xff},
	{0xff, 0xff, 0xff, 0xff},
}

// Palette returns the palette entry of c.
func (c Color) Palette() color.RGBA {
	return palette[c&0xf]
}

// Render draws a copy of the screen. Hold the buffer while rendering it.
func Render(b *Buffer) image.Image {
	face := basicfont.Face7x13
	dc := gg.NewContext(Width*CellWidth, Height*CellHeight)
	dc.SetFontFace(face)
	for pos := 0; pos < Width*Height; pos++ {
		ch := b.At(pos)
		x := float64(pos % Width * CellWidth)
		y := float64(pos / Width * CellHeight)
		dc.SetColor(ch.Color.Background().Palette())
		dc.DrawRectangle(x, y, CellWidth, CellHeight)
		dc.Fill()
		dc.SetColor(ch.Color.Foreground().Palette())
		switch {
		case ch.ASCII == unprintable:
			dc.DrawRectangle(x+2, y+4, 3, 5)
			dc.Fill()
		case ch.ASCII > ' ' && ch.ASCII <= 0x7e:
			dc.DrawString(string(rune(ch.ASCII)), x, y+float64(face.Ascent))
		}
	}
	return dc.Image()
}

// EncodePNG renders the screen as a PNG image to w.
func EncodePNG(w io.Writer, b *Buffer) error {
	dc := gg.NewContextForImage(Render(b))
	return errors.Trace(dc.EncodePNG(w))
}
