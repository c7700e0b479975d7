package session

import (
	"github.com/pidato/voice/pcm"
)

// Trigger says why a flush is being considered.
type Trigger uint8

const (
	TriggerNone Trigger = iota
	// TriggerForce is an explicit caller request.
	TriggerForce
	// TriggerStopped fires when recording has ceased.
	TriggerStopped
	// TriggerIdle fires when input stalls with a partial frame buffered.
	TriggerIdle
)

func (t Trigger) String() string {
	switch t {
	case TriggerNone:
		return "none"
	case TriggerForce:
		return "force"
	case TriggerStopped:
		return "stopped"
	case TriggerIdle:
		return "idle"
	}
	return "unknown"
}

// BufferState of a sending session's sample buffer.
type BufferState uint8

const (
	Idle      BufferState = iota // no data
	Buffering                    // 0 < filled < min frame
	Ready                        // filled >= min frame
)

func (s BufferState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Buffering:
		return "buffering"
	case Ready:
		return "ready"
	}
	return "unknown"
}

func StateOf(filled, minFrame int) BufferState {
	switch {
	case filled <= 0:
		return Idle
	case filled < minFrame:
		return Buffering
	}
	return Ready
}

// MaybePad tops a Buffering buffer up to minFrame with silence so the next
// encode can take it. It does nothing for TriggerNone, an empty buffer, or a
// buffer that already holds a full frame, which makes it idempotent.
func MaybePad(buf *pcm.Buffer, trigger Trigger, minFrame int) (padded int, err error) {
	if trigger == TriggerNone {
		return 0, nil
	}
	filled := buf.Len()
	if StateOf(filled, minFrame) != Buffering {
		return 0, nil
	}
	padded = minFrame - filled
	if err := buf.Pad(padded); err != nil {
		return 0, err
	}
	return padded, nil
}
