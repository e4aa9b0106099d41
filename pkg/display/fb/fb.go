// Package fb implements display.Surface on top of a 1 bit framebuffer.
// Pixels are kept in the SSD1306 page layout and transferred to a Sink
// on Flush.
package fb

import (
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/robotalks/evdash/pkg/display"
)

// Sink receives flushed regions. *ssd1306.Dev implements it.
type Sink interface {
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
	SetContrast(level byte) error
	Invert(blackOnWhite bool) error
}

var (
	face        = basicfont.Face7x13
	glyphCell   = image.Pt(7, 13)
	glyphAscent = 11
)

// Framebuffer is a Surface drawing into memory.
type Framebuffer struct {
	lock sync.Mutex
	img  *image1bit.VerticalLSB
	sink Sink
}

// New creates a Framebuffer of size w x h flushing to sink.
func New(w, h int, sink Sink) *Framebuffer {
	return &Framebuffer{
		img:  image1bit.NewVerticalLSB(image.Rect(0, 0, w, h)),
		sink: sink,
	}
}

// Bounds implements display.Surface.
func (f *Framebuffer) Bounds() image.Rectangle {
	return f.img.Bounds()
}

// Clear implements display.Surface.
func (f *Framebuffer) Clear(r image.Rectangle) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	r = r.Intersect(f.img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			f.img.SetBit(x, y, image1bit.Off)
		}
	}
	return nil
}

// DrawText implements display.Surface. Glyphs of the 7x13 base face
// are scaled to the cell size of the font, only lit pixels are drawn.
func (f *Framebuffer) DrawText(text string, at image.Point, fnt display.Font) error {
	if text == "" {
		return nil
	}
	glyphs := Rasterize(text, fnt)
	f.lock.Lock()
	defer f.lock.Unlock()
	b := glyphs.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if glyphs.GrayAt(x, y).Y < 0x80 {
				continue
			}
			p := at.Add(image.Pt(x, y))
			if p.In(f.img.Rect) {
				f.img.SetBit(p.X, p.Y, image1bit.On)
			}
		}
	}
	return nil
}

// Rasterize renders text into a gray mask with one cell per rune.
func Rasterize(text string, fnt display.Font) *image.Gray {
	n := len([]rune(text))
	src := image.NewGray(image.Rect(0, 0, glyphCell.X*n, glyphCell.Y))
	d := font.Drawer{
		Dst:  src,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(0, glyphAscent),
	}
	d.DrawString(text)
	cell := fnt.Size()
	dst := image.NewGray(image.Rect(0, 0, cell.X*n, cell.Y))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// Flush implements display.Surface.
func (f *Framebuffer) Flush(r image.Rectangle) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	r = r.Intersect(f.img.Bounds())
	if r.Empty() {
		return nil
	}
	return f.sink.Draw(r, f.img, r.Min)
}

// SetContrast implements display.Surface.
func (f *Framebuffer) SetContrast(level int) error {
	if level < 0 {
		level = 0
	} else if level > 255 {
		level = 255
	}
	return f.sink.SetContrast(byte(level))
}

// SetInvert implements display.Surface.
func (f *Framebuffer) SetInvert(on bool) error {
	return f.sink.Invert(on)
}

// Snapshot copies the framebuffer.
func (f *Framebuffer) Snapshot() *image1bit.VerticalLSB {
	f.lock.Lock()
	defer f.lock.Unlock()
	img := image1bit.NewVerticalLSB(f.img.Bounds())
	copy(img.Pix, f.img.Pix)
	return img
}

// Discard is a Sink dropping everything.
type Discard struct{}

// Draw implements Sink.
func (Discard) Draw(image.Rectangle, image.Image, image.Point) error { return nil }

// SetContrast implements Sink.
func (Discard) SetContrast(byte) error { return nil }

// Invert implements Sink.
func (Discard) Invert(bool) error { return nil }
