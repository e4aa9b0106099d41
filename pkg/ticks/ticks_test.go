package ticks

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	testCases := []struct {
		name   string
		a, b   Millis
		expect int32
	}{
		{name: "forward", a: 1500, b: 500, expect: 1000},
		{name: "backward", a: 500, b: 1500, expect: -1000},
		{name: "across wrap", a: 100, b: math.MaxUint32 - 99, expect: 200},
		{name: "equal", a: 42, b: 42, expect: 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, Diff(tc.a, tc.b))
		})
	}
}

func TestDiffMicrosAcrossWrap(t *testing.T) {
	start := Micros(math.MaxUint32 - 999999)
	now := start + 2500000
	require.Equal(t, int32(2500000), DiffMicros(now, start))
	require.Equal(t, 2500*time.Millisecond, now.Since(start))
}

func TestPeriodic(t *testing.T) {
	clock := NewManual(math.MaxUint32 - 20)
	var p Periodic
	p.Period = 50 * time.Millisecond
	require.True(t, p.Due(clock.Millis()))
	p.Mark(clock.Millis())
	clock.Advance(49 * time.Millisecond)
	require.False(t, p.Due(clock.Millis()))
	clock.Advance(time.Millisecond)
	require.True(t, p.Due(clock.Millis()))

	np := NewPeriodic(time.Second, clock.Millis())
	require.False(t, np.Due(clock.Millis()))
	require.True(t, np.Due(clock.Millis().Add(time.Second)))
}
