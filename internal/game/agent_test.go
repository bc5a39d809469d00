package game

import (
	"math"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rallypoint/internal/geom"
)

const tickDelta = 100 * time.Millisecond

func TestNewAgentIsIdleAtOrigin(t *testing.T) {
	a := NewAgent(DefaultSpeed)
	assert.Equal(t, ModeIdle, a.Mode())
	assert.Equal(t, orb.Point{0, 0}, a.Position())
	_, ok := a.Target()
	assert.False(t, ok)
	assert.Equal(t, "0.00|0.00", a.Format())
}

func TestMoveToSetsTarget(t *testing.T) {
	a := NewAgent(DefaultSpeed)
	require.True(t, a.MoveTo(3, 4))
	assert.Equal(t, ModeMoving, a.Mode())
	target, ok := a.Target()
	require.True(t, ok)
	assert.Equal(t, orb.Point{3, 4}, target)

	// retargeting mid-move overwrites
	a.Tick(tickDelta)
	require.True(t, a.MoveTo(-1, -1))
	target, _ = a.Target()
	assert.Equal(t, orb.Point{-1, -1}, target)
}

func TestTickIsNoopUnlessMoving(t *testing.T) {
	a := NewAgentAt(orb.Point{5, 5}, DefaultSpeed)
	a.Tick(tickDelta)
	assert.Equal(t, orb.Point{5, 5}, a.Position())

	a.Stop()
	a.Tick(tickDelta)
	assert.Equal(t, orb.Point{5, 5}, a.Position())
}

func TestTickStepsBySpeedTimesDelta(t *testing.T) {
	a := NewAgent(DefaultSpeed)
	a.MoveTo(100, 0)
	a.Tick(tickDelta)
	assert.InDelta(t, 2.0, a.Position()[0], 1e-9)
	assert.InDelta(t, 0.0, a.Position()[1], 1e-9)
	assert.Equal(t, ModeMoving, a.Mode())
}

func TestConvergence(t *testing.T) {
	cases := []orb.Point{{10, 20}, {-35.5, 12.25}, {0.5, 0}, {1000, -1000}, {2, 0}}
	for _, target := range cases {
		a := NewAgent(DefaultSpeed)
		a.MoveTo(target[0], target[1])

		initial := geom.Distance(a.Position(), target)
		bound := int(math.Ceil(initial/(DefaultSpeed*tickDelta.Seconds()))) + 1

		ticks := 0
		for a.Mode() == ModeMoving && ticks <= bound {
			a.Tick(tickDelta)
			ticks++
		}
		assert.Equal(t, ModeIdle, a.Mode(), "target %v", target)
		assert.LessOrEqual(t, ticks, bound, "target %v", target)
		assert.InDelta(t, target[0], a.Position()[0], 1e-9)
		assert.InDelta(t, target[1], a.Position()[1], 1e-9)
		_, ok := a.Target()
		assert.False(t, ok)
	}
}

func TestFarTargetStillMoves(t *testing.T) {
	for _, target := range []orb.Point{{1e200, 1e200}, {-1e15, 1e15}} {
		a := NewAgent(DefaultSpeed)
		require.True(t, a.MoveTo(target[0], target[1]))

		for i := 0; i < 5; i++ {
			a.Tick(tickDelta)
		}

		assert.Equal(t, ModeMoving, a.Mode(), "target %v", target)
		assert.InDelta(t, 5*DefaultSpeed*tickDelta.Seconds(), geom.Len(a.Position()), 1e-9, "target %v", target)
		heading := geom.Normalize(a.Position())
		want := geom.Normalize(target)
		assert.InDelta(t, want[0], heading[0], 1e-9, "target %v", target)
		assert.InDelta(t, want[1], heading[1], 1e-9, "target %v", target)
	}
}

func TestNoOvershoot(t *testing.T) {
	start := orb.Point{-3, 7}
	target := orb.Point{11.3, -2.9}
	a := NewAgentAt(start, 37)
	a.MoveTo(target[0], target[1])

	path := geom.Sub(target, start)
	for i := 0; i < 100 && a.Mode() == ModeMoving; i++ {
		before := geom.Distance(a.Position(), target)
		a.Tick(tickDelta)
		after := geom.Distance(a.Position(), target)
		assert.LessOrEqual(t, after, before)

		// remaining vector never points back against the original path
		rest := geom.Sub(target, a.Position())
		assert.GreaterOrEqual(t, rest[0]*path[0]+rest[1]*path[1], -1e-9)
	}
	assert.Equal(t, ModeIdle, a.Mode())
}

func TestZeroDistanceMoveArrivesImmediately(t *testing.T) {
	a := NewAgentAt(orb.Point{4, 4}, DefaultSpeed)
	a.MoveTo(4, 4)
	a.Tick(tickDelta)
	assert.Equal(t, ModeIdle, a.Mode())
	assert.Equal(t, orb.Point{4, 4}, a.Position())
}

func TestStopIsIdempotent(t *testing.T) {
	a := NewAgent(DefaultSpeed)
	a.MoveTo(10, 10)
	a.Tick(tickDelta)
	a.Stop()

	pos := a.Position()
	assert.Equal(t, ModeDead, a.Mode())
	_, ok := a.Target()
	assert.False(t, ok)

	a.Stop()
	assert.Equal(t, ModeDead, a.Mode())
	assert.Equal(t, pos, a.Position())
}

func TestDeadAgentCannotMove(t *testing.T) {
	a := NewAgent(DefaultSpeed)
	a.Stop()
	assert.False(t, a.MoveTo(1, 1))
	assert.Equal(t, ModeDead, a.Mode())
	_, ok := a.Target()
	assert.False(t, ok)
}

func TestFormat(t *testing.T) {
	a := NewAgentAt(orb.Point{10, 20}, DefaultSpeed)
	assert.Equal(t, "10.00|20.00", a.Format())

	a = NewAgentAt(orb.Point{1.005, -3.14159}, DefaultSpeed)
	assert.Equal(t, "1.00|-3.14", a.Format())
}

func TestState(t *testing.T) {
	a := NewAgentAt(orb.Point{1, 2}, DefaultSpeed)
	st := a.State("k")
	assert.Equal(t, AgentState{Key: "k", X: 1, Y: 2, Mode: "IDLE"}, st)

	a.MoveTo(5, 6)
	st = a.State("k")
	assert.True(t, st.Moving)
	assert.Equal(t, "MOVING", st.Mode)
	assert.Equal(t, 5.0, st.TargetX)
	assert.Equal(t, 6.0, st.TargetY)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "IDLE", ModeIdle.String())
	assert.Equal(t, "MOVING", ModeMoving.String())
	assert.Equal(t, "DEAD", ModeDead.String())
	assert.Equal(t, "UNKNOWN", Mode(42).String())
}
