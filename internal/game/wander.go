package game

import (
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/paulmach/orb"
)

// Wanderer is a demo agent that roams on its own: whenever it comes to
// rest it picks a new random target inside the wander area. It lives
// outside the World and is never owned by a session
type Wanderer struct {
	agent  *Agent
	rng    *rand.Rand
	logger *slog.Logger
}

// NewWanderer creates a wanderer at the wander spawn point
func NewWanderer(speed float64, rng *rand.Rand, logger *slog.Logger) *Wanderer {
	return &Wanderer{
		agent:  NewAgentAt(orb.Point{WanderSpawnX, WanderSpawnY}, speed),
		rng:    rng,
		logger: logger,
	}
}

// Agent returns the wanderer's agent
func (wd *Wanderer) Agent() *Agent {
	return wd.agent
}

// OnTick advances the agent and retargets it once it is idle
func (wd *Wanderer) OnTick(delta time.Duration) error {
	wd.agent.Tick(delta)

	if wd.agent.Mode() == ModeIdle {
		x := wd.rng.Float64() * WanderAreaSize
		y := wd.rng.Float64() * WanderAreaSize
		wd.agent.MoveTo(x, y)
		wd.logger.Debug("wanderer retargeted", "x", x, "y", y)
	}
	return nil
}

// State returns the wanderer's spectator view
func (wd *Wanderer) State() AgentState {
	return wd.agent.State(WanderKey)
}
