package input

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/evdash/pkg/framework"
	"github.com/robotalks/evdash/pkg/ticks"
	"github.com/robotalks/evdash/pkg/vehicle"
)

func TestPressDetector(t *testing.T) {
	testCases := []struct {
		name   string
		held   ticks.Millis
		action Action
	}{
		{"bounce", 10, ActionNone},
		{"debounce edge", 30, ActionShort},
		{"short", 200, ActionShort},
		{"just below long", 999, ActionShort},
		{"long", 1000, ActionLong},
		{"very long", 5000, ActionLong},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := NewPressDetector()
			d.Edge(true, 100)
			d.Edge(true, 105)
			d.Edge(false, 100+tc.held)
			require.Equal(t, tc.action, d.ReadAndClear())
			require.Equal(t, ActionNone, d.ReadAndClear())
		})
	}
}

func TestPressDetectorAcrossWrap(t *testing.T) {
	d := NewPressDetector()
	d.Edge(true, ticks.Millis(0xffffff00))
	d.Edge(false, ticks.Millis(0x000002f0))
	require.Equal(t, ActionLong, d.ReadAndClear())

	d.Edge(false, 10)
	require.Equal(t, ActionNone, d.ReadAndClear())
}

func TestButtonsMerge(t *testing.T) {
	a, b := NewPressDetector(), NewPressDetector()
	btns := Buttons{a, nil, b}
	require.Equal(t, ActionNone, btns.ReadAndClear())
	b.Inject(ActionLong)
	a.Inject(ActionShort)
	require.Equal(t, ActionShort, btns.ReadAndClear())
	require.Equal(t, ActionLong, btns.ReadAndClear())
	require.Equal(t, ActionNone, btns.ReadAndClear())
}

type renderCounter struct{ n int }

func (r *renderCounter) Render(ticks.Millis) error { r.n++; return nil }

type zeroer struct {
	n   int
	err error
}

func (z *zeroer) Zero() error { z.n++; return z.err }

type saver struct {
	saved []vehicle.Odometer
	state *vehicle.State
}

func (s *saver) SaveNow(context.Context) error {
	s.saved = append(s.saved, s.state.Odometer())
	return nil
}

func TestShortPressCyclesModeAndRenders(t *testing.T) {
	s := vehicle.New(0)
	r := &renderCounter{}
	c := &Controller{State: s, Odometer: r}
	require.NoError(t, c.Handle(context.Background(), ActionShort, 0))
	require.NoError(t, c.Handle(context.Background(), ActionShort, 0))
	require.Equal(t, vehicle.ModeTrip, s.UI().Mode)
	require.Equal(t, 2, r.n)
	require.NoError(t, c.Handle(context.Background(), ActionNone, 0))
	require.Equal(t, 2, r.n)
}

func TestLongPressByMode(t *testing.T) {
	s := vehicle.New(0)
	s.LoadOdometer(vehicle.Odometer{Total: 300, Trip: 42})
	z := &zeroer{}
	sv := &saver{state: s}
	r := &renderCounter{}
	c := &Controller{State: s, Pointer: z, Saver: sv, Odometer: r}
	ctx := context.Background()

	require.NoError(t, c.Handle(ctx, ActionLong, 0))
	require.Equal(t, 1, z.n)
	require.Equal(t, vehicle.ModeSpeed, s.UI().Mode)

	c.Handle(ctx, ActionShort, 0)
	require.NoError(t, c.Handle(ctx, ActionLong, 0))
	require.Equal(t, vehicle.ContrastLow, s.UI().Contrast)
	require.Equal(t, vehicle.ModeTotal, s.UI().Mode)

	c.Handle(ctx, ActionShort, 0)
	require.NoError(t, c.Handle(ctx, ActionLong, 0))
	require.Equal(t, []vehicle.Odometer{{Total: 300, Trip: 0}}, sv.saved)
	require.Equal(t, vehicle.ModeTrip, s.UI().Mode)

	c.Handle(ctx, ActionShort, 0)
	require.NoError(t, c.Handle(ctx, ActionLong, 0))
	require.Equal(t, vehicle.TempMCU, s.UI().TempSource)
	require.Equal(t, vehicle.ModeTemp, s.UI().Mode)
	require.Equal(t, 3, r.n)
}

func TestLongPressPointerFault(t *testing.T) {
	s := vehicle.New(0)
	c := &Controller{State: s, Pointer: &zeroer{err: errors.New("stall")}}
	err := c.Handle(context.Background(), ActionLong, 0)
	require.True(t, fx.IsKind(err, fx.FaultHardwareIO))
}
