// SPDX-License-Identifier: Unlicense OR MIT

// Package vga formats text into the 80x25 colour text-mode buffer.
//
// Buffer is the hardware layout of the screen and Cursor is the writer
// state. Neither is synchronized; the console guards the buffer with a
// lock.Region and the cursor with a lock cell.
package vga

import (
	"strings"

	"github.com/juju/errors"

	"eliasnaur.com/freestand/arch"
)

// BufferAddr is the physical address of the colour text buffer.
const BufferAddr uintptr = 0xb8000

// Screen dimensions in character cells.
const (
	Width  = 80
	Height = 25
)

// Color is one of the 16 text-mode colours.
type Color uint8

const (
	Black Color = iota
	Blue
	Green
	Cyan
	Red
	Magenta
	Brown
	LightGray
	DarkGray
	LightBlue
	LightGreen
	LightCyan
	LightRed
	Pink
	Yellow
	White
)

var colorNames = [...]string{
	"black", "blue", "green", "cyan", "red", "magenta", "brown", "light-gray",
	"dark-gray", "light-blue", "light-green", "light-cyan", "light-red", "pink", "yellow", "white",
}

func (c Color) String() string {
	if int(c) < len(colorNames) {
		return colorNames[c]
	}
	return "invalid"
}

// ParseColor returns the colour with the given name, such as
// "light-gray". Case, dashes, underscores and spaces are ignored.
func ParseColor(name string) (Color, error) {
	norm := func(s string) string {
		s = strings.ToLower(s)
		return strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
	}
	n := norm(name)
	for i, cn := range colorNames {
		if norm(cn) == n {
			return Color(i), nil
		}
	}
	return 0, errors.NotValidf("colour %q", name)
}

// ColorCode is a cell attribute: background in the high nibble,
// foreground in the low nibble.
type ColorCode uint8

// NewColorCode returns the attribute for fg on bg.
func NewColorCode(fg, bg Color) ColorCode {
	return ColorCode(bg&0xf)<<4 | ColorCode(fg&0xf)
}

func (c ColorCode) Foreground() Color { return Color(c & 0xf) }
func (c ColorCode) Background() Color { return Color(c >> 4) }

// Char is one character cell.
type Char struct {
	ASCII byte
	Color ColorCode
}

func (ch Char) cell() uint16 {
	return uint16(ch.Color)<<8 | uint16(ch.ASCII)
}

func charOf(cell uint16) Char {
	return Char{ASCII: byte(cell), Color: ColorCode(cell >> 8)}
}

// Buffer is the hardware layout of the text screen: one 16-bit cell per
// character, the character in the low byte and the attribute in the high
// byte, row after row.
type Buffer struct {
	cells [Width * Height]uint16
}

// Set stores ch at cell pos with a single 16-bit store.
func (b *Buffer) Set(pos int, ch Char) {
	arch.StoreUint16(&b.cells[pos], ch.cell())
}

// At returns the character at cell pos.
func (b *Buffer) At(pos int) Char {
	return charOf(arch.LoadUint16(&b.cells[pos]))
}

// Clear fills the screen with blanks in color.
func (b *Buffer) Clear(color ColorCode) {
	blank := Char{ASCII: ' ', Color: color}
	for i := range b.cells {
		b.Set(i, blank)
	}
}

// scroll moves every row up by one and blanks the last row.
func (b *Buffer) scroll(color ColorCode) {
	for i := 0; i < (Height-1)*Width; i++ {
		arch.StoreUint16(&b.cells[i], arch.LoadUint16(&b.cells[i+Width]))
	}
	blank := Char{ASCII: ' ', Color: color}
	for i := (Height - 1) * Width; i < Height*Width; i++ {
		b.Set(i, blank)
	}
}

// Row returns the characters of row r without trailing blanks. Empty
// cells read as blanks.
func (b *Buffer) Row(r int) string {
	var sb strings.Builder
	for col := 0; col < Width; col++ {
		ch := b.At(r*Width + col).ASCII
		if ch == 0 {
			ch = ' '
		}
		sb.WriteByte(ch)
	}
	return strings.TrimRight(sb.String(), " ")
}

// String returns the screen contents, one line per row, without trailing
// blank rows.
func (b *Buffer) String() string {
	rows := make([]string, Height)
	for r := range rows {
		rows[r] = b.Row(r)
	}
	return strings.TrimRight(strings.Join(rows, "\n"), "\n")
}
