package game

// Movement constants
const (
	DefaultSpeed   = 20.0 // Distance units per second
	ArrivalEpsilon = 0.01 // Distance at which a moving agent counts as arrived
)

// Agent modes
const (
	ModeIdle Mode = iota
	ModeMoving
	ModeDead
)

// Wanderer demo constants
const (
	WanderAreaSize = 100.0
	WanderSpawnX   = 50.0
	WanderSpawnY   = 50.0
	WanderKey      = "wanderer"
)
