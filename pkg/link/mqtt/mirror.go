package mqtt

import (
	"image"
	"sync"

	"github.com/pkg/errors"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/robotalks/evdash/pkg/link/msgs"
)

// Mirror is a framebuffer sink publishing every flush as a
// DisplayFrame to <id>/display/<surface>.
type Mirror struct {
	Publisher Publisher
	Topic     string
	Surface   string

	lock   sync.Mutex
	invert bool
}

// NewMirror creates a Mirror.
func NewMirror(p Publisher, id, surface string) *Mirror {
	return &Mirror{Publisher: p, Topic: id + "/" + TopicDisplay + surface, Surface: surface}
}

// Draw implements fb.Sink. The whole framebuffer is sent.
func (m *Mirror) Draw(_ image.Rectangle, src image.Image, _ image.Point) error {
	img, ok := src.(*image1bit.VerticalLSB)
	if !ok {
		return errors.Errorf("unsupported image %T", src)
	}
	m.lock.Lock()
	invert := m.invert
	m.lock.Unlock()
	b := img.Bounds()
	frame := &msgs.DisplayFrame{
		Surface: m.Surface,
		Width:   int32(b.Dx()),
		Height:  int32(b.Dy()),
		Invert:  invert,
		Pix:     append([]byte(nil), img.Pix...),
	}
	pkt, err := msgs.EncodeMsg(frame)
	if err != nil {
		return err
	}
	m.Publisher.Pub(m.Topic, pkt)
	return nil
}

// SetContrast implements fb.Sink.
func (m *Mirror) SetContrast(byte) error { return nil }

// Invert implements fb.Sink.
func (m *Mirror) Invert(on bool) error {
	m.lock.Lock()
	m.invert = on
	m.lock.Unlock()
	return nil
}
