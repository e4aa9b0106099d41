package rs485

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/evdash/pkg/telemetry"
)

func TestSeq(t *testing.T) {
	require.Equal(t, Seq(2), Seq(1).Next())
	require.Equal(t, Seq(1), Seq(0xef).Next())
	require.Equal(t, Seq(1), Seq(0xff).Next())
	require.False(t, Seq(0).Valid())
	require.False(t, Seq(0xf0).Valid())
	require.True(t, NewSeq().Valid())
}

func TestPacketBytes(t *testing.T) {
	short := &Packet{Seq: 3, Code: CodeEvent | CodeIMD, Data: []byte{1, 2, 3, 4}}
	require.Equal(t, []byte{3, 0xc2, 1, 2, 3, 4}, short.Bytes())
	long := &Packet{Seq: 4, Code: CodeEvent | CodeMotor, Data: make([]byte, 7)}
	require.Equal(t, append([]byte{4, 0xf1, 7}, make([]byte, 7)...), long.Bytes())
	empty := &Packet{Seq: 5, Code: 0x03}
	require.Equal(t, []byte{5, 0x03}, empty.Bytes())
}

func feed(p *Parser, in ...byte) (last Step, packets []*Packet) {
	for _, b := range in {
		last = p.Feed(b)
		if last.Packet != nil {
			packets = append(packets, last.Packet)
		}
	}
	return
}

func syncedParser(t *testing.T, peer Seq) *Parser {
	p := &Parser{}
	require.Equal(t, Step{Reply: syncRequest, State: LinkSyncing}, p.Reset())
	st, _ := feed(p, syncAck, byte(peer))
	require.Equal(t, Step{State: LinkReady}, st)
	return p
}

func TestParser(t *testing.T) {
	motor := []byte{0xb8, 0x0b, 60, 45, 0, 0, 0}
	tests := []struct {
		name    string
		in      []byte
		last    Step
		packets []*Packet
	}{
		{
			name: "long packet",
			in:   append([]byte{5, 0xf1, 7}, motor...),
			last: Step{State: LinkReady, Packet: &Packet{Seq: 5, Code: 0x81, Data: motor}},
			packets: []*Packet{
				{Seq: 5, Code: 0x81, Data: motor},
			},
		},
		{
			name: "consecutive packets",
			in:   []byte{5, 0xc2, 1, 2, 3, 4, 6, 0x03},
			last: Step{State: LinkReady, Packet: &Packet{Seq: 6, Code: 0x03}},
			packets: []*Packet{
				{Seq: 5, Code: 0x82, Data: []byte{1, 2, 3, 4}},
				{Seq: 6, Code: 0x03},
			},
		},
		{
			name: "partial packet",
			in:   []byte{5, 0xc2, 1},
			last: Step{State: LinkReady | LinkReceiving},
		},
		{
			name: "out of sequence",
			in:   []byte{7},
			last: Step{Reply: syncRequest, State: LinkSyncing},
		},
		{
			name: "peer resyncs",
			in:   []byte{syncRequest, 9, 9, 0x01},
			last: Step{State: LinkReady, Packet: &Packet{Seq: 9, Code: 0x01}},
			packets: []*Packet{
				{Seq: 9, Code: 0x01},
			},
		},
		{
			name: "ack echo",
			in:   []byte{syncAck, 5, 5, 0x01},
			last: Step{State: LinkReady, Packet: &Packet{Seq: 5, Code: 0x01}},
			packets: []*Packet{
				{Seq: 5, Code: 0x01},
			},
		},
		{
			name: "bad ack echo",
			in:   []byte{syncAck, 6},
			last: Step{Reply: syncRequest, State: LinkSyncing},
		},
		{
			name: "length out of range",
			in:   []byte{5, 0xf1, 0x80},
			last: Step{Reply: syncRequest, State: LinkSyncing},
		},
		{
			name: "invalid sync seq",
			in:   []byte{syncRequest, 0},
			last: Step{Reply: syncRequest, State: LinkSyncing},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := syncedParser(t, 5)
			last, packets := feed(p, tc.in...)
			require.Equal(t, tc.last, last)
			require.Equal(t, tc.packets, packets)
		})
	}
}

func TestParserRequestedSync(t *testing.T) {
	p := &Parser{}
	p.Reset()
	st, _ := feed(p, syncRequest)
	require.Equal(t, LinkSyncing|LinkReceiving, st.State)
	require.True(t, st.RestartTimer())
	st, _ = feed(p, 3)
	require.Equal(t, Step{Reply: syncAck, State: LinkReady}, st)
	require.True(t, st.StopTimer())
}

func TestParserExpire(t *testing.T) {
	p := syncedParser(t, 5)
	require.Equal(t, Step{State: LinkReady}, p.Expire())
	feed(p, 5, 0xc2, 1)
	require.Equal(t, Step{Reply: syncRequest, State: LinkSyncing}, p.Expire())
	st, packets := feed(p, 2, 0xc2, 1, 2, 3, 4)
	require.Empty(t, packets)
	require.Equal(t, LinkSyncing, st.State)
}

type chanPort struct {
	readCh  chan byte
	writeCh chan byte
	once    sync.Once
	closed  chan struct{}
}

func newChanPort() *chanPort {
	return &chanPort{
		readCh:  make(chan byte, 64),
		writeCh: make(chan byte, 64),
		closed:  make(chan struct{}),
	}
}

func (c *chanPort) Read(p []byte) (int, error) {
	select {
	case b := <-c.readCh:
		p[0] = b
		return 1, nil
	case <-c.closed:
		return 0, io.EOF
	}
}

func (c *chanPort) Write(p []byte) (int, error) {
	for _, b := range p {
		c.writeCh <- b
	}
	return len(p), nil
}

func (c *chanPort) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *chanPort) send(in ...byte) {
	for _, b := range in {
		c.readCh <- b
	}
}

func (c *chanPort) recv(t *testing.T) byte {
	select {
	case b := <-c.writeCh:
		return b
	case <-time.After(time.Second):
		t.Fatal("nothing written")
	}
	return 0
}

func TestReceiver(t *testing.T) {
	port := newChanPort()
	q := telemetry.NewQueue(0)
	r := NewReceiver(port, q)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Equal(t, syncRequest, port.recv(t))
	require.True(t, Seq(port.recv(t)).Valid())
	port.send(syncAck, 3)
	require.Eventually(t, func() bool { return r.Link.State().Ready() }, time.Second, 5*time.Millisecond)

	motor := &Packet{Seq: 3, Code: CodeEvent | CodeMotor, Data: []byte{0xb8, 0x0b, 60, 45, 0, 0, 0}}
	port.send(motor.Bytes()...)
	ignored := &Packet{Seq: 4, Code: CodeEvent | 0x05, Data: []byte{1}}
	port.send(ignored.Bytes()...)
	imd := &Packet{Seq: 5, Code: CodeEvent | CodeIMD, Data: []byte{0x2c, 0x01, 0, 0}}
	port.send(imd.Bytes()...)
	require.Eventually(t, func() bool { return q.Len() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, q.Lock(time.Second))
	f, ok := q.PopLocked()
	require.True(t, ok)
	require.Equal(t, 3000, f.MotorRPM)
	require.Equal(t, 60, f.MotorTemp)
	require.True(t, f.MotorValid)
	require.False(t, f.IMDValid)
	f, ok = q.PopLocked()
	require.True(t, ok)
	require.Equal(t, 300, f.IsoR)
	require.True(t, f.MotorValid)
	require.True(t, f.IMDValid)
	q.Unlock()

	cancel()
	require.Equal(t, context.Canceled, <-done)
}
