package mqtt

import (
	"context"
	"io"
)

// Topic is a PacketReadWriter over a pair of topics.
type Topic struct {
	Conn     *Conn
	SubTopic string
	PubTopic string

	packetCh chan []byte
	done     chan struct{}
}

// NewTopic creates a Topic.
func NewTopic(c *Conn, sub, pub string) *Topic {
	return &Topic{Conn: c, SubTopic: sub, PubTopic: pub, packetCh: make(chan []byte, 16), done: make(chan struct{})}
}

// ReadPacket implements PacketReader.
func (t *Topic) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-t.packetCh:
		return pkt, nil
	case <-t.done:
		return nil, io.EOF
	}
}

// WritePacket implements PacketWriter.
func (t *Topic) WritePacket(pkt []byte) error {
	token := t.Conn.Pub(t.PubTopic, pkt)
	token.Wait()
	return token.Error()
}

// Run implements Runnable. Packets arriving while the reader lags
// behind are dropped.
func (t *Topic) Run(ctx context.Context) error {
	sub := t.Conn.Sub(t.SubTopic, t.handleMsg)
	<-ctx.Done()
	sub.Close()
	close(t.done)
	return ctx.Err()
}

func (t *Topic) handleMsg(_ string, payload []byte) {
	select {
	case t.packetCh <- payload:
	case <-t.done:
	default:
	}
}
