// Package display renders the dashboard onto the three OLED surfaces.
//
// Renderers only touch the regions that changed. Each renderer keeps
// its own cache of what is on the glass and owns its Surface: once a
// surface transaction fails the renderer is disabled for the rest of
// the process.
package display

import (
	"fmt"
	"image"
)

// Font selects a glyph size.
type Font int

// Fonts.
const (
	FontBase Font = iota
	FontSmall
	FontLarge
)

var fontSizes = [...]image.Point{
	FontBase:  {X: 8, Y: 8},
	FontSmall: {X: 12, Y: 16},
	FontLarge: {X: 16, Y: 21},
}

// Size returns the cell size of a glyph.
func (f Font) Size() image.Point {
	if f >= 0 && int(f) < len(fontSizes) {
		return fontSizes[f]
	}
	return fontSizes[FontBase]
}

// String implements fmt.Stringer.
func (f Font) String() string {
	switch f {
	case FontBase:
		return "base"
	case FontSmall:
		return "small"
	case FontLarge:
		return "large"
	}
	return fmt.Sprintf("font(%d)", int(f))
}

// Surface is a monochrome display with a local framebuffer. Drawing
// only changes the framebuffer, Flush transfers a region to the glass.
type Surface interface {
	Bounds() image.Rectangle
	Clear(r image.Rectangle) error
	DrawText(text string, at image.Point, font Font) error
	Flush(r image.Rectangle) error
	SetContrast(level int) error
	SetInvert(on bool) error
}

// Rect converts inclusive corner coordinates into an image.Rectangle.
func Rect(x0, y0, x1, y1 int) image.Rectangle {
	return image.Rect(x0, y0, x1+1, y1+1)
}
