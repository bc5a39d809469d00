package game

import "time"

// BuildSnapshot captures every agent in the world. sessions maps agent keys
// to the owning session id; extra states are appended after the world's
// agents
func (w *World) BuildSnapshot(tick uint64, now time.Time, sessions map[string]string, extra ...AgentState) Snapshot {
	snapshot := Snapshot{
		Type:   MsgTypeSnapshot,
		Tick:   tick,
		Time:   now.UnixMilli(),
		Agents: make([]AgentState, 0, len(w.agents)+len(extra)),
	}

	w.Each(func(key string, agent *Agent) {
		st := agent.State(key)
		st.Session = sessions[key]
		snapshot.Agents = append(snapshot.Agents, st)
	})
	snapshot.Agents = append(snapshot.Agents, extra...)

	return snapshot
}
