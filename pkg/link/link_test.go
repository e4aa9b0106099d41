package link

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/evdash/pkg/link/msgs"
	"github.com/robotalks/evdash/pkg/telemetry"
	"github.com/robotalks/evdash/pkg/vehicle"
)

type packets struct {
	pkts    [][]byte
	written [][]byte
	closed  bool
}

func (p *packets) ReadPacket() ([]byte, error) {
	if len(p.pkts) == 0 {
		return nil, io.EOF
	}
	pkt := p.pkts[0]
	p.pkts = p.pkts[1:]
	return pkt, nil
}

func (p *packets) WritePacket(pkt []byte) error {
	p.written = append(p.written, pkt)
	return nil
}

func (p *packets) Close() error {
	p.closed = true
	return nil
}

func encode(t *testing.T, msg msgs.Message) []byte {
	pkt, err := msgs.EncodeMsg(msg)
	require.NoError(t, err)
	return pkt
}

func TestFrameFromMsg(t *testing.T) {
	f := FrameFromMsg(&msgs.TelemetryFrame{MotorRpm: 1200, MotorTemp: -5, MotorValid: true})
	require.Equal(t, telemetry.TypeTelemetry, f.Type)
	require.Equal(t, vehicle.RIsoMax, f.IsoR)
	require.Equal(t, -5, f.MotorTemp)
	require.NoError(t, f.Validate())

	f = FrameFromMsg(&msgs.TelemetryFrame{Type: "telemetry", ImdIsoR: 250, HasImdIsoR: true, ImdValid: true})
	require.Equal(t, 250, f.IsoR)
	require.Equal(t, f, FrameFromMsg(FrameToMsg(f)))
}

func TestPipeFeedsQueue(t *testing.T) {
	var commands []msgs.Message
	q := telemetry.NewQueue(0)
	rw := &packets{pkts: [][]byte{
		encode(t, &msgs.TelemetryFrame{Type: "telemetry", MotorRpm: 100, MotorValid: true}),
		{0xff, 0xff, 0xff},
		encode(t, &msgs.ButtonPress{Long: true}),
		encode(t, &msgs.TelemetryFrame{Type: "telemetry", MotorRpm: 200, MotorValid: true}),
	}}
	p := NewPipe(rw, q)
	p.Handler = msgs.HandleTypedMsgFunc(func(_ context.Context, msg msgs.Message, _ *msgs.Typed) error {
		commands = append(commands, msg)
		return nil
	})
	require.Equal(t, io.EOF, p.Run(context.Background()))
	require.True(t, rw.closed)
	require.Equal(t, 2, q.Len())
	require.Len(t, commands, 1)
	require.True(t, commands[0].(*msgs.ButtonPress).Long)

	require.NoError(t, q.Lock(0))
	f, ok := q.PopLocked()
	q.Unlock()
	require.True(t, ok)
	require.Equal(t, 100, f.MotorRPM)
}

func TestPipeSend(t *testing.T) {
	rw := &packets{}
	p := NewPipe(rw, nil)
	require.NoError(t, p.SendMsg(&msgs.Drive{Speed: 30}))
	require.Len(t, rw.written, 1)
	msg, typed, err := msgs.Decode(rw.written[0])
	require.NoError(t, err)
	require.True(t, typed.IsCommand())
	require.Equal(t, 30.0, msg.(*msgs.Drive).Speed)
}

func TestStateMsg(t *testing.T) {
	s := vehicle.New(0)
	s.LoadOdometer(vehicle.Odometer{Total: 120, Trip: 5})
	s.SetFaultStack([]string{"IMD ISO FAULT"})
	m := StateMsg("dash1", s)
	require.Equal(t, "dash1", m.Id)
	require.Equal(t, 120.0, m.Total)
	require.Equal(t, "WAITING_FOR_DATA", m.Status)
	require.Equal(t, []string{"IMD ISO FAULT"}, m.FaultStack)
}
