// Package protocol implements the text datagram protocol spoken between
// clients and the server. Fields are separated by '|'.
//
// Client to server:
//
//	CONNECT          register, or keep an existing session alive
//	MOVE|<x>|<y>     move the session's agent toward (x, y)
//
// Server to client:
//
//	TICK|<x>|<y>                   the session's own agent
//	OTHERS|<addr>|<x>|<y>|...      every other live agent
//
// Coordinates are sent with two decimals
package protocol

const (
	Separator = "|"

	CmdConnect  = "CONNECT"
	CmdMove     = "MOVE"
	FrameTick   = "TICK"
	FrameOthers = "OTHERS"
)

// MaxDatagram is the largest inbound datagram read in one go. Longer
// datagrams are truncated and will fail to parse
const MaxDatagram = 1500
