// Package media adapts audio files to the capture and playback sides of a
// voice session. Input must already be 48kHz; multi-channel input is mixed
// down to mono.
package media

import (
	"encoding/binary"
	"fmt"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/pidato/voice/pool"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ReadFile loads a .wav or .mp3 file as mono 16-bit samples.
func ReadFile(path string) ([]int16, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return ReadWAV(path)
	case ".mp3":
		return ReadMP3(path)
	}
	return nil, fmt.Errorf("%w: file type %q", pool.ErrUnsupported, filepath.Ext(path))
}

func ReadWAV(path string) ([]int16, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%s: not a valid wav file", path)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if int(d.SampleRate) != pool.SampleRate {
		return nil, fmt.Errorf("%w: %s is %dHz, want %dHz", pool.ErrUnsupported, path, d.SampleRate, pool.SampleRate)
	}
	if d.BitDepth != 16 {
		return nil, fmt.Errorf("%w: %s is %d-bit, want 16-bit", pool.ErrUnsupported, path, d.BitDepth)
	}
	channels := int(d.NumChans)
	if channels < 1 {
		return nil, fmt.Errorf("%s: no channels", path)
	}
	frames := len(buf.Data) / channels
	out := make([]int16, frames)
	for i := range out {
		sum := 0
		for c := 0; c < channels; c++ {
			sum += buf.Data[i*channels+c]
		}
		out[i] = int16(sum / channels)
	}
	return out, nil
}

// ReadMP3 decodes an mp3. The decoder always yields 16-bit stereo.
func ReadMP3(path string) ([]int16, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if d.SampleRate() != pool.SampleRate {
		return nil, fmt.Errorf("%w: %s is %dHz, want %dHz", pool.ErrUnsupported, path, d.SampleRate(), pool.SampleRate)
	}
	raw, err := io.ReadAll(d)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return StereoToMono(raw), nil
}

// StereoToMono averages interleaved little-endian 16-bit stereo frames.
func StereoToMono(raw []byte) []int16 {
	out := make([]int16, len(raw)/4)
	for i := range out {
		l := int16(binary.LittleEndian.Uint16(raw[i*4:]))
		r := int16(binary.LittleEndian.Uint16(raw[i*4+2:]))
		out[i] = int16((int(l) + int(r)) / 2)
	}
	return out
}
