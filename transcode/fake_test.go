package transcode

import (
	"errors"
	"github.com/pidato/voice/opus"
)

// fakeEncoder writes a minimal single-frame packet with a TOC byte that
// describes the frame size it was given.
type fakeEncoder struct {
	calls []int
	err   error
}

func tocFor(samples int) byte {
	switch samples {
	case 120:
		return 16 << 3
	case 240:
		return 17 << 3
	case 480:
		return 18 << 3
	case 960:
		return 19 << 3
	case 1920:
		return 2 << 3
	case 2880:
		return 3 << 3
	}
	return 0xff
}

func (f *fakeEncoder) Encode(pcm []int16, data []byte) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.calls = append(f.calls, len(pcm))
	data[0] = tocFor(len(pcm))
	data[1] = byte(len(f.calls))
	return 2, nil
}

type fakeDecoder struct {
	short int
	extra int
}

func (f *fakeDecoder) Decode(data []byte, pcm []int16) (int, error) {
	n, err := opus.PacketSamples(data)
	if err != nil {
		return 0, errors.New("bad packet")
	}
	for i := range pcm {
		pcm[i] = 1
	}
	return n - f.short + f.extra, nil
}
