package protocol

import (
	"strings"

	"rallypoint/internal/game"
)

// Peer is another session's agent as listed in an OTHERS frame
type Peer struct {
	Addr  string
	Agent *game.Agent
}

// EncodeTick builds the TICK frame for a session's own agent
func EncodeTick(agent *game.Agent) []byte {
	return []byte(FrameTick + Separator + agent.Format())
}

// EncodeOthers builds the OTHERS frame listing peers in order. It returns
// nil when there are no peers: no frame is sent in that case
func EncodeOthers(peers []Peer) []byte {
	if len(peers) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString(FrameOthers)
	for _, peer := range peers {
		b.WriteString(Separator)
		b.WriteString(peer.Addr)
		b.WriteString(Separator)
		b.WriteString(peer.Agent.Format())
	}
	return []byte(b.String())
}
