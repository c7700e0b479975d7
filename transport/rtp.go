package transport

import (
	"fmt"
	"github.com/pidato/voice/opus"
	"github.com/pion/rtp"
	"sync"
)

// Opus is carried at a fixed 48kHz RTP clock (RFC 7587).
const ClockRate = 48000

// Packetizer wraps Opus packets in RTP. The timestamp advances by the
// duration recovered from each packet, never by sender-side state.
type Packetizer struct {
	PayloadType uint8
	SSRC        uint32
	Sequencer   rtp.Sequencer
	Timestamp   uint32

	started bool
}

func NewPacketizer(payloadType uint8, ssrc uint32) *Packetizer {
	return &Packetizer{
		PayloadType: payloadType,
		SSRC:        ssrc,
		Sequencer:   rtp.NewRandomSequencer(),
	}
}

func (p *Packetizer) Packetize(payload []byte) (*rtp.Packet, error) {
	samples, err := opus.PacketSamples(payload)
	if err != nil {
		return nil, err
	}
	pkt := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			Marker:         !p.started,
			PayloadType:    p.PayloadType,
			SequenceNumber: p.Sequencer.NextSequenceNumber(),
			Timestamp:      p.Timestamp,
			SSRC:           p.SSRC,
		},
		Payload: payload,
	}
	p.started = true
	p.Timestamp += uint32(samples)
	return pkt, nil
}

// RTPSender marshals each packet into RTP before passing it on.
type RTPSender struct {
	packetizer *Packetizer
	next       PacketSender
	mu         sync.Mutex
}

func NewRTPSender(p *Packetizer, next PacketSender) *RTPSender {
	return &RTPSender{packetizer: p, next: next}
}

func (s *RTPSender) Send(packet []byte) error {
	s.mu.Lock()
	pkt, err := s.packetizer.Packetize(packet)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	raw, err := pkt.Marshal()
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("rtp marshal: %w", err)
	}
	return s.next.Send(raw)
}

// Depacketizer unwraps RTP and forwards the Opus payload. Packets from a
// different SSRC are ignored once the first one has been seen. Sequence
// gaps are counted but not repaired.
type Depacketizer struct {
	next PacketHandler

	ssrc    uint32
	lastSeq uint16
	started bool
	lost    uint64
	foreign uint64
	mu      sync.Mutex
}

func NewDepacketizer(next PacketHandler) *Depacketizer {
	return &Depacketizer{next: next}
}

func (d *Depacketizer) OnPacket(raw []byte) error {
	pkt := &rtp.Packet{}
	if err := pkt.Unmarshal(raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRTP, err)
	}

	d.mu.Lock()
	if !d.started {
		d.started = true
		d.ssrc = pkt.SSRC
	} else if pkt.SSRC != d.ssrc {
		d.foreign++
		d.mu.Unlock()
		return nil
	} else if gap := pkt.SequenceNumber - d.lastSeq; gap > 1 && gap < 1<<15 {
		d.lost += uint64(gap - 1)
	}
	d.lastSeq = pkt.SequenceNumber
	d.mu.Unlock()

	return d.next.OnPacket(pkt.Payload)
}

type DepacketizerStats struct {
	SSRC    uint32
	Lost    uint64
	Foreign uint64
}

func (d *Depacketizer) Stats() DepacketizerStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DepacketizerStats{SSRC: d.ssrc, Lost: d.lost, Foreign: d.foreign}
}
