// SPDX-License-Identifier: Unlicense OR MIT

package vga

// unprintable replaces bytes the writer cannot show (a small square in
// code page 437).
const unprintable = 0xfe

// Cursor is the position and colour of the next character written.
type Cursor struct {
	Position int
	Color    ColorCode
}

// NewCursor returns a cursor at the top left corner.
func NewCursor(color ColorCode) Cursor {
	return Cursor{Color: color}
}

// Put places ch at the cursor and advances it. A newline moves to
// the start of the next row. Writing past the last cell scrolls the
// screen up one row first.
func (c *Cursor) Put(b *Buffer, ch byte) {
	if c.Position >= Width*Height {
		b.scroll(c.Color)
		c.Position = (Height - 1) * Width
	}
	if ch == '\n' {
		c.Position = (c.Position/Width + 1) * Width
		return
	}
	b.Set(c.Position, Char{ASCII: ch, Color: c.Color})
	c.Position++
}

// Write writes p, substituting a square for every byte that is neither
// printable ASCII nor a newline.
func (c *Cursor) Write(b *Buffer, p []byte) {
	for _, ch := range p {
		c.Put(b, printable(ch))
	}
}

// WriteString is like Write for a string.
func (c *Cursor) WriteString(b *Buffer, s string) {
	for i := 0; i < len(s); i++ {
		c.Put(b, printable(s[i]))
	}
}

func printable(ch byte) byte {
	if ch == '\n' || 0x20 <= ch && ch <= 0x7e {
		return ch
	}
	return unprintable
}

// Screen pairs a cursor with the buffer it writes to. The caller must
// hold both for as long as the Screen is used.
type Screen struct {
	Cursor *Cursor
	Buffer *Buffer
}

// Write implements io.Writer. It never fails.
func (s Screen) Write(p []byte) (int, error) {
	s.Cursor.Write(s.Buffer, p)
	return len(p), nil
}
