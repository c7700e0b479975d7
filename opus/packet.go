// Package opus inspects Opus packets (RFC 6716 section 3) without decoding
// them. Every packet carries its own duration in the TOC byte, so a receiver
// never needs the sender's framing state.
package opus

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedPacket = errors.New("opus: malformed packet")
)

type Mode uint8

const (
	ModeSILK Mode = iota
	ModeHybrid
	ModeCELT
)

func (m Mode) String() string {
	switch m {
	case ModeSILK:
		return "silk"
	case ModeHybrid:
		return "hybrid"
	case ModeCELT:
		return "celt"
	}
	return "unknown"
}

// Max payload of a single frame and max packet duration at 48kHz.
const (
	maxFrameBytes    = 1275
	maxPacketSamples = 5760
)

// TOC is the decoded table-of-contents byte.
type TOC struct {
	Config    uint8
	Stereo    bool
	FrameCode uint8
}

func ParseTOC(b byte) TOC {
	return TOC{
		Config:    b >> 3,
		Stereo:    b&0x4 != 0,
		FrameCode: b & 0x3,
	}
}

func (t TOC) Mode() Mode {
	switch {
	case t.Config < 12:
		return ModeSILK
	case t.Config < 16:
		return ModeHybrid
	}
	return ModeCELT
}

// FrameSamples is the duration of one frame at 48kHz.
func (t TOC) FrameSamples() int {
	switch t.Mode() {
	case ModeSILK:
		// 10, 20, 40, 60ms
		return [4]int{480, 960, 1920, 2880}[t.Config&0x3]
	case ModeHybrid:
		// 10, 20ms
		return [2]int{480, 960}[t.Config&0x1]
	}
	// 2.5, 5, 10, 20ms
	return [4]int{120, 240, 480, 960}[t.Config&0x3]
}

// FrameCount returns the number of frames packed in packet.
func FrameCount(packet []byte) (int, error) {
	if len(packet) == 0 {
		return 0, fmt.Errorf("%w: empty", ErrMalformedPacket)
	}
	toc := ParseTOC(packet[0])
	switch toc.FrameCode {
	case 0:
		if len(packet)-1 > maxFrameBytes {
			return 0, fmt.Errorf("%w: frame of %d bytes", ErrMalformedPacket, len(packet)-1)
		}
		return 1, nil
	case 1:
		// Two frames of equal size.
		if (len(packet)-1)%2 != 0 {
			return 0, fmt.Errorf("%w: odd payload for two equal frames", ErrMalformedPacket)
		}
		return 2, nil
	case 2:
		if len(packet) < 2 {
			return 0, fmt.Errorf("%w: missing frame length", ErrMalformedPacket)
		}
		return 2, nil
	}
	if len(packet) < 2 {
		return 0, fmt.Errorf("%w: missing frame count", ErrMalformedPacket)
	}
	n := int(packet[1] & 0x3f)
	if n == 0 {
		return 0, fmt.Errorf("%w: zero frames", ErrMalformedPacket)
	}
	return n, nil
}

// PacketSamples recovers the number of 48kHz samples packet decodes to.
func PacketSamples(packet []byte) (int, error) {
	n, err := FrameCount(packet)
	if err != nil {
		return 0, err
	}
	samples := n * ParseTOC(packet[0]).FrameSamples()
	if samples > maxPacketSamples {
		return 0, fmt.Errorf("%w: %d samples exceeds 120ms", ErrMalformedPacket, samples)
	}
	return samples, nil
}
