package saturn

import "strings"

// Frame is a character buffer paired with a depth buffer of the same size.
// Depth holds the best inverse depth seen per cell; 0 means nothing drawn.
type Frame struct {
	Width  int
	Height int
	Glyphs []byte
	Depth  []float64
}

// NewFrame allocates a blank frame.
func NewFrame(width, height int) *Frame {
	n := width * height
	if n < 0 {
		n = 0
	}
	f := &Frame{
		Width:  width,
		Height: height,
		Glyphs: make([]byte, n),
		Depth:  make([]float64, n),
	}
	for i := range f.Glyphs {
		f.Glyphs[i] = ' '
	}
	return f
}

// Plot writes glyph at (x, y) when the cell is on-screen and ooz is strictly
// closer than what the cell already holds. It reports whether it wrote.
func (f *Frame) Plot(x, y int, ooz float64, glyph byte) bool {
	if x < 0 || x >= f.Width || y < 0 || y >= f.Height {
		return false
	}
	idx := x + y*f.Width
	if !(ooz > f.Depth[idx]) {
		return false
	}
	f.Depth[idx] = ooz
	f.Glyphs[idx] = glyph
	return true
}

// At returns the glyph at (x, y), or a blank for off-grid coordinates.
func (f *Frame) At(x, y int) byte {
	if x < 0 || x >= f.Width || y < 0 || y >= f.Height {
		return ' '
	}
	return f.Glyphs[x+y*f.Width]
}

// Rows returns the frame split into its text rows.
func (f *Frame) Rows() []string {
	rows := make([]string, f.Height)
	for y := 0; y < f.Height; y++ {
		rows[y] = string(f.Glyphs[y*f.Width : (y+1)*f.Width])
	}
	return rows
}

// String composes the buffer row-major with a line break before every row
// except the first.
func (f *Frame) String() string {
	var b strings.Builder
	b.Grow(len(f.Glyphs) + max(f.Height-1, 0))
	for y := 0; y < f.Height; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		b.Write(f.Glyphs[y*f.Width : (y+1)*f.Width])
	}
	return b.String()
}
