package game

import (
	"sort"
	"time"
)

// StartAgent returns the agent owned by key, creating an idle one at the
// origin if there is none yet
func (w *World) StartAgent(key string) *Agent {
	if agent, exists := w.agents[key]; exists && agent.mode != ModeDead {
		return agent
	}
	agent := NewAgent(w.speed)
	w.agents[key] = agent
	return agent
}

// Agent returns the agent owned by key
func (w *World) Agent(key string) (*Agent, bool) {
	agent, exists := w.agents[key]
	return agent, exists
}

// StopAgent kills the agent owned by key and frees the key
func (w *World) StopAgent(key string) {
	if agent, exists := w.agents[key]; exists {
		agent.Stop()
		delete(w.agents, key)
	}
}

// Len returns the number of registered agents
func (w *World) Len() int {
	return len(w.agents)
}

// Keys returns the registered keys in ascending order
func (w *World) Keys() []string {
	keys := make([]string, 0, len(w.agents))
	for key := range w.agents {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Each visits every agent in key order
func (w *World) Each(fn func(key string, agent *Agent)) {
	for _, key := range w.Keys() {
		fn(key, w.agents[key])
	}
}

// Tick advances every registered agent by delta. Dead agents are left in
// place; removing them is up to the caller
func (w *World) Tick(delta time.Duration) {
	w.Each(func(_ string, agent *Agent) {
		agent.Tick(delta)
	})
}
