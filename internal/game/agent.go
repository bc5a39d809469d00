package game

import (
	"fmt"
	"time"

	"github.com/paulmach/orb"

	"rallypoint/internal/geom"
)

// Position returns the agent's current position
func (a *Agent) Position() orb.Point {
	return a.position
}

// Speed returns the agent's speed in units per second
func (a *Agent) Speed() float64 {
	return a.speed
}

// Mode returns the agent's movement state
func (a *Agent) Mode() Mode {
	return a.mode
}

// Target returns the current target. ok is false unless the agent is moving
func (a *Agent) Target() (target orb.Point, ok bool) {
	if a.mode != ModeMoving {
		return orb.Point{}, false
	}
	return a.target, true
}

// MoveTo starts moving toward (x, y), replacing any previous target.
// It reports false for a dead agent, which never moves again
func (a *Agent) MoveTo(x, y float64) bool {
	if a.mode == ModeDead {
		return false
	}
	a.target = orb.Point{x, y}
	a.mode = ModeMoving
	return true
}

// Stop kills the agent. Calling it again has no effect
func (a *Agent) Stop() {
	a.mode = ModeDead
	a.target = orb.Point{}
}

// Tick advances a moving agent by delta toward its target
func (a *Agent) Tick(delta time.Duration) {
	if a.mode != ModeMoving {
		return
	}

	trajectory := geom.Sub(a.target, a.position)
	distance := geom.Len(trajectory)
	step := geom.Scale(geom.Normalize(trajectory), a.speed*delta.Seconds())

	// Never step past the target: land on it exactly instead.
	if geom.Len(step) < distance {
		a.position = geom.Add(a.position, step)
	} else {
		a.position = geom.Add(a.position, trajectory)
	}

	// distance is measured before the update, so arrival lands one tick
	// after the snap.
	if distance < ArrivalEpsilon {
		a.mode = ModeIdle
		a.target = orb.Point{}
	}
}

// Format renders the position the way it goes on the wire
func (a *Agent) Format() string {
	return fmt.Sprintf("%.2f|%.2f", a.position[0], a.position[1])
}

// State returns the spectator view of the agent
func (a *Agent) State(key string) AgentState {
	st := AgentState{
		Key:  key,
		X:    a.position[0],
		Y:    a.position[1],
		Mode: a.mode.String(),
	}
	if target, ok := a.Target(); ok {
		st.Moving = true
		st.TargetX = target[0]
		st.TargetY = target[1]
	}
	return st
}
