// SPDX-License-Identifier: Unlicense OR MIT

package vga_test

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"unsafe"

	qt "github.com/frankban/quicktest"

	"eliasnaur.com/freestand/vga"
)

var white = vga.NewColorCode(vga.White, vga.Black)

func TestBufferLayout(t *testing.T) {
	c := qt.New(t)
	c.Assert(unsafe.Sizeof(vga.Buffer{}), qt.Equals, uintptr(vga.Width*vga.Height*2))

	var b vga.Buffer
	b.Set(1, vga.Char{ASCII: 'A', Color: vga.NewColorCode(vga.Yellow, vga.Blue)})
	raw := (*[vga.Width * vga.Height * 2]byte)(unsafe.Pointer(&b))
	c.Assert(raw[2], qt.Equals, byte('A'))
	c.Assert(raw[3], qt.Equals, byte(0x1e))
	c.Assert(b.At(1), qt.Equals, vga.Char{ASCII: 'A', Color: 0x1e})
}

func TestCursorWrite(t *testing.T) {
	c := qt.New(t)
	var b vga.Buffer
	b.Clear(white)
	cur := vga.NewCursor(white)

	fmt.Fprintf(vga.Screen{Cursor: &cur, Buffer: &b}, "Hello VGA!\n\nBtw, %d\n", 42)
	c.Assert(b.String(), qt.Equals, "Hello VGA!\n\nBtw, 42")
	c.Assert(cur.Position, qt.Equals, 3*vga.Width)
	c.Assert(b.At(0).Color, qt.Equals, white)
}

func TestCursorUnprintable(t *testing.T) {
	c := qt.New(t)
	var b vga.Buffer
	cur := vga.NewCursor(white)
	cur.WriteString(&b, "a\tb\x00ü")
	c.Assert(b.Row(0), qt.Equals, "a\xfeb\xfe\xfe\xfe")
}

func TestCursorWrapsLongLines(t *testing.T) {
	c := qt.New(t)
	var b vga.Buffer
	cur := vga.NewCursor(white)
	cur.WriteString(&b, strings.Repeat("x", vga.Width)+"y")
	c.Assert(b.Row(0), qt.Equals, strings.Repeat("x", vga.Width))
	c.Assert(b.Row(1), qt.Equals, "y")

	// A newline right after a full row leaves the following row blank.
	cur = vga.NewCursor(white)
	cur.WriteString(&b, strings.Repeat("z", vga.Width)+"\n")
	c.Assert(cur.Position, qt.Equals, 2*vga.Width)
}

func TestCursorScrolls(t *testing.T) {
	c := qt.New(t)
	var b vga.Buffer
	b.Clear(white)
	cur := vga.NewCursor(white)
	for i := 0; i < vga.Height+2; i++ {
		fmt.Fprintf(vga.Screen{Cursor: &cur, Buffer: &b}, "line %d\n", i)
	}
	c.Assert(b.Row(0), qt.Equals, "line 2")
	c.Assert(b.Row(vga.Height-2), qt.Equals, "line 25")
	c.Assert(b.Row(vga.Height-1), qt.Equals, "line 26")
	c.Assert(cur.Position, qt.Equals, vga.Width*vga.Height)

	fmt.Fprint(vga.Screen{Cursor: &cur, Buffer: &b}, "last")
	c.Assert(b.Row(0), qt.Equals, "line 3")
	c.Assert(b.Row(vga.Height-1), qt.Equals, "last")
	c.Assert(b.At((vga.Height-1)*vga.Width+10).Color, qt.Equals, white)
}

func TestParseColor(t *testing.T) {
	c := qt.New(t)
	for _, name := range []string{"light-gray", "LightGray", "light_gray", "Light Gray"} {
		col, err := vga.ParseColor(name)
		c.Assert(err, qt.IsNil)
		c.Assert(col, qt.Equals, vga.LightGray)
	}
	col, err := vga.ParseColor("white")
	c.Assert(err, qt.IsNil)
	c.Assert(col.String(), qt.Equals, "white")
	_, err = vga.ParseColor("mauve")
	c.Assert(err, qt.ErrorMatches, `colour "mauve" not valid`)

	code := vga.NewColorCode(vga.Pink, vga.Cyan)
	c.Assert(code.Foreground(), qt.Equals, vga.Pink)
	c.Assert(code.Background(), qt.Equals, vga.Cyan)
}

func TestEncodePNG(t *testing.T) {
	c := qt.New(t)
	var b vga.Buffer
	b.Clear(vga.NewColorCode(vga.White, vga.Blue))
	cur := vga.NewCursor(vga.NewColorCode(vga.White, vga.Blue))
	cur.WriteString(&b, "Hi")

	var out bytes.Buffer
	c.Assert(vga.EncodePNG(&out, &b), qt.IsNil)
	img, err := png.Decode(&out)
	c.Assert(err, qt.IsNil)
	c.Assert(img.Bounds().Dx(), qt.Equals, vga.Width*vga.CellWidth)
	c.Assert(img.Bounds().Dy(), qt.Equals, vga.Height*vga.CellHeight)

	r, g, bl, _ := img.At(vga.Width*vga.CellWidth-1, vga.Height*vga.CellHeight-1).RGBA()
	c.Assert([3]uint32{r >> 8, g >> 8, bl >> 8}, qt.Equals, [3]uint32{0x00, 0x00, 0xaa})
}

func TestPalette(t *testing.T) {
	c := qt.New(t)
	c.Assert(vga.Blue.Palette(), qt.Equals, color.RGBA{0x00, 0x00, 0xaa, 0xff})
	c.Assert(vga.Brown.Palette(), qt.Equals, color.RGBA{0xaa, 0x55, 0x00, 0xff})
	c.Assert(vga.White.Palette(), qt.Equals, color.RGBA{0xff, 0xff, 0xff, 0xff})
}
