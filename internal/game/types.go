package game

import (
	"github.com/paulmach/orb"
)

// Mode is the movement state of an agent
type Mode int

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "IDLE"
	case ModeMoving:
		return "MOVING"
	case ModeDead:
		return "DEAD"
	default:
		return "UNKNOWN"
	}
}

// Agent is a single mobile entity moving toward an optional target.
// target is only meaningful while mode is ModeMoving
type Agent struct {
	position orb.Point
	target   orb.Point
	speed    float64
	mode     Mode
}

// World holds every live agent keyed by the address of the session that owns it
type World struct {
	agents map[string]*Agent
	speed  float64
}

// AgentState is the serialized view of one agent handed to spectators
type AgentState struct {
	Key     string  `msgpack:"key" json:"key"`
	Session string  `msgpack:"session,omitempty" json:"session,omitempty"`
	X       float64 `msgpack:"x" json:"x"`
	Y       float64 `msgpack:"y" json:"y"`
	Mode    string  `msgpack:"mode" json:"mode"`
	Moving  bool    `msgpack:"moving" json:"moving"`
	TargetX float64 `msgpack:"targetX,omitempty" json:"targetX,omitempty"`
	TargetY float64 `msgpack:"targetY,omitempty" json:"targetY,omitempty"`
}

// Snapshot is the world state published once per server tick
type Snapshot struct {
	Type   string       `msgpack:"type" json:"type"`
	Tick   uint64       `msgpack:"tick" json:"tick"`
	Time   int64        `msgpack:"time" json:"time"`
	Agents []AgentState `msgpack:"agents" json:"agents"`
}

// MsgTypeSnapshot tags snapshot frames on the spectator feed
const MsgTypeSnapshot = "snapshot"

// NewAgent creates an idle agent at the origin
func NewAgent(speed float64) *Agent {
	return NewAgentAt(orb.Point{0, 0}, speed)
}

// NewAgentAt creates an idle agent at the given position
func NewAgentAt(pos orb.Point, speed float64) *Agent {
	return &Agent{
		position: pos,
		speed:    speed,
		mode:     ModeIdle,
	}
}

// NewWorld creates an empty world whose agents all move at speed
func NewWorld(speed float64) *World {
	return &World{
		agents: make(map[string]*Agent),
		speed:  speed,
	}
}
