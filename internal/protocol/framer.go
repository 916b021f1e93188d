// Copyright (c) scoreboard-hub contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package protocol implements the OES scoreboard wire protocol: a
// byte-stream framer, the per-sport decoders, and the baseball half-inning
// state machine that enriches decoded baseball snapshots.
package protocol

// Frame delimiters.
const (
	STX = 0x02
	CR  = 0x0D
)

// asciiLower is the lowest byte value a body byte may carry; anything
// below it (other than CR) is control garbage that forces a resync.
const asciiLower = 0x20

// Packet type bytes, dispatched to decoders by (type, length).
const (
	TypeBasketballBaseballSoftball byte = 0x74 // 't'
	TypeFootball                   byte = 0x66 // 'f'
	TypeVolleyball                 byte = 0x76 // 'v'
	TypeLacrosseHockey              byte = 0x6C // 'l'
	TypeWrestling                   byte = 0x77 // 'w'
	TypeSoccer                      byte = 0x73 // 's'
)

var recognizedTypes = map[byte]bool{
	TypeBasketballBaseballSoftball: true,
	TypeFootball:                   true,
	TypeVolleyball:                 true,
	TypeLacrosseHockey:             true,
	TypeWrestling:                  true,
	TypeSoccer:                     true,
}

// Packet lengths used by the dispatch table in decode.go.
const (
	LenBasketball = 23
	LenBaseball   = 52
	LenSoftball   = 75
	LenLacrosse   = 47
	LenHockey     = 51
)

type frameState int

const (
	stateIdle frameState = iota
	stateGotSTX
	stateInBody
)

// Framer is the STX/type/body/CR state machine described in spec.md §4.1.
// It is stateful across Feed calls: a packet split across two arrivals is
// reassembled correctly, and any unrecognized byte resyncs at the next STX.
// A Framer is owned by exactly one source worker and is not safe for
// concurrent use.
type Framer struct {
	state  frameState
	packet []byte
}

// NewFramer returns a Framer ready to consume bytes from IDLE.
func NewFramer() *Framer {
	return &Framer{state: stateIdle}
}

// Feed consumes data and returns zero or more complete packets, in the
// order their terminating CR arrived. Each returned packet is a fresh
// slice safe to retain past the next Feed call.
func (f *Framer) Feed(data []byte) [][]byte {
	var packets [][]byte

	for _, b := range data {
		switch f.state {
		case stateIdle:
			if b == STX {
				f.packet = []byte{b}
				f.state = stateGotSTX
			}

		case stateGotSTX:
			if recognizedTypes[b] {
				f.packet = append(f.packet, b)
				f.state = stateInBody
			} else {
				f.packet = nil
				f.state = stateIdle
			}

		case stateInBody:
			switch {
			case b == CR:
				f.packet = append(f.packet, b)
				packets = append(packets, f.packet)
				f.packet = nil
				f.state = stateIdle
			case b >= asciiLower:
				f.packet = append(f.packet, b)
			default:
				f.packet = nil
				f.state = stateIdle
			}
		}
	}

	return packets
}
