package transcode

import (
	"errors"
	"fmt"
	libopus "gopkg.in/hraban/opus.v2"
)

var (
	ErrEncodeFailure = errors.New("encode failure")
	// ErrEncoderFailed is returned by every Encode after a codec error. The
	// encoder must be recreated.
	ErrEncoderFailed = fmt.Errorf("%w: encoder unusable", ErrEncodeFailure)
	ErrDecodeFailure = errors.New("decode failure")
	ErrCorrupted     = errors.New("corrupted")
)

// OpusFrame is one encoded frame and where it sits in the stream.
type OpusFrame struct {
	Seq     uint64
	Pos     uint64 // Granule position as number of samples at 48Khz sample rate.
	Samples uint16 // Number of 48Khz samples.
	Data    []byte // Opus encoded data.
}

type Application string

const (
	AppVoIP     Application = "voip"
	AppAudio    Application = "audio"
	AppLowDelay Application = "lowdelay"
)

func (a Application) opus() (libopus.Application, error) {
	switch a {
	case "", AppVoIP:
		return libopus.AppVoIP, nil
	case AppAudio:
		return libopus.AppAudio, nil
	case AppLowDelay:
		return libopus.AppRestrictedLowdelay, nil
	}
	return 0, fmt.Errorf("unknown application %q", string(a))
}

// Satisfied by *libopus.Encoder and *libopus.Decoder.
type frameEncoder interface {
	Encode(pcm []int16, data []byte) (int, error)
}

type frameDecoder interface {
	Decode(data []byte, pcm []int16) (int, error)
}
