package protocol

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Command is one parsed client datagram: Connect, Move or Unknown
type Command interface {
	command()
}

// Connect registers a session or refreshes an existing one
type Connect struct{}

// Move asks for the sender's agent to head to (X, Y)
type Move struct {
	X, Y float64
}

// Unknown is anything that did not parse. Raw holds the datagram text
type Unknown struct {
	Raw string
}

func (Connect) command() {}
func (Move) command()    {}
func (Unknown) command() {}

// Parse decodes a client datagram. It never fails: input that is not a
// well-formed command comes back as Unknown
func Parse(datagram []byte) Command {
	if !utf8.Valid(datagram) {
		return Unknown{Raw: strconv.Quote(string(datagram))}
	}
	text := strings.TrimRight(string(datagram), "\r\n")
	fields := strings.Split(text, Separator)

	switch fields[0] {
	case CmdConnect:
		if len(fields) == 1 {
			return Connect{}
		}
	case CmdMove:
		if len(fields) == 3 {
			x, okX := parseCoord(fields[1])
			y, okY := parseCoord(fields[2])
			if okX && okY {
				return Move{X: x, Y: y}
			}
		}
	}
	return Unknown{Raw: text}
}

// MaxCoord bounds the magnitude of MOVE coordinates so that differences
// between positions stay finite
const MaxCoord = 1e15

// parseCoord accepts plain decimal notation with an optional sign and
// exponent. Hex floats, NaN, infinities and values beyond MaxCoord are
// rejected
func parseCoord(field string) (float64, bool) {
	if field == "" || strings.Trim(field, "0123456789+-.eE") != "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil || math.IsNaN(v) || math.Abs(v) > MaxCoord {
		return 0, false
	}
	return v, true
}
