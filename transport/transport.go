// Package transport carries encoded frames between a sender and a receiver.
// Delivery itself belongs to the caller; this package only defines the
// hand-off contracts plus an RTP framing layer and an in-process loopback.
package transport

import "errors"

var (
	ErrQueueFull    = errors.New("transport: queue full")
	ErrMalformedRTP = errors.New("transport: malformed rtp packet")
)

// PacketSender accepts one encoded frame per call. Implementations must copy
// packet if they keep it: callers reuse the backing array.
type PacketSender interface {
	Send(packet []byte) error
}

// PacketHandler receives one encoded frame per call, in per-sender order.
type PacketHandler interface {
	OnPacket(packet []byte) error
}

type SenderFunc func(packet []byte) error

func (f SenderFunc) Send(packet []byte) error {
	return f(packet)
}

type HandlerFunc func(packet []byte) error

func (f HandlerFunc) OnPacket(packet []byte) error {
	return f(packet)
}
