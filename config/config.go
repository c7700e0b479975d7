// Package config loads voice session settings from YAML.
package config

import (
	"fmt"
	"github.com/pidato/voice/pool"
	"github.com/pidato/voice/transcode"
	"gopkg.in/yaml.v3"
	"os"
	"time"
)

// Config is the complete set of session settings.
type Config struct {
	Audio   AudioConfig   `yaml:"audio"`
	Codec   CodecConfig   `yaml:"codec"`
	RTP     RTPConfig     `yaml:"rtp"`
	Logging LoggingConfig `yaml:"logging"`
}

// AudioConfig covers framing and buffering.
type AudioConfig struct {
	SampleRate     int           `yaml:"sample_rate"`
	Channels       int           `yaml:"channels"`
	FrameSizes     []int         `yaml:"frame_sizes"`     // samples, largest first
	MaxPtime       int           `yaml:"max_ptime"`       // ms, caps frame_sizes; 3 means 2.5ms
	BufferCapacity int           `yaml:"buffer_capacity"` // samples
	HandoffQueue   int           `yaml:"handoff_queue"`   // capture chunks
	IdleFlushTicks int           `yaml:"idle_flush_ticks"`
	TickInterval   time.Duration `yaml:"tick_interval"`
}

type CodecConfig struct {
	Application string `yaml:"application"`
	Bitrate     int    `yaml:"bitrate"`
	Complexity  int    `yaml:"complexity"`
}

type RTPConfig struct {
	PayloadType uint8  `yaml:"payload_type"`
	SSRC        uint32 `yaml:"ssrc"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() Config {
	return Config{
		Audio: AudioConfig{
			SampleRate:     pool.SampleRate,
			Channels:       pool.Channels,
			FrameSizes:     pool.FrameSizes(),
			BufferCapacity: pool.SampleRate,
			HandoffQueue:   64,
			IdleFlushTicks: 0,
			TickInterval:   20 * time.Millisecond,
		},
		Codec: CodecConfig{
			Application: string(transcode.AppVoIP),
		},
		RTP: RTPConfig{
			PayloadType: 111,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path on top of Default and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	// Fields present in the document replace defaults wholesale, lists
	// included.
	cfg.Audio.FrameSizes = nil
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if len(cfg.Audio.FrameSizes) == 0 {
		cfg.Audio.FrameSizes = pool.FrameSizes()
	}
	if err := cfg.Audio.applyMaxPtime(); err != nil {
		return nil, fmt.Errorf("config validation failed: audio config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}
	if err := c.Codec.Validate(); err != nil {
		return fmt.Errorf("codec config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	return nil
}

func (a *AudioConfig) Validate() error {
	if a.SampleRate != pool.SampleRate {
		return fmt.Errorf("sample_rate must be %d, got %d", pool.SampleRate, a.SampleRate)
	}
	if a.Channels != pool.Channels {
		return fmt.Errorf("channels must be %d, got %d", pool.Channels, a.Channels)
	}
	if err := pool.ValidateFrameSizes(a.FrameSizes); err != nil {
		return fmt.Errorf("frame_sizes: %w", err)
	}
	if a.MaxPtime != 0 {
		limit := pool.FrameSizeOf(a.MaxPtime)
		if limit == 0 || a.FrameSizes[0] > limit {
			return fmt.Errorf("frame_sizes %v exceed max_ptime %d", a.FrameSizes, a.MaxPtime)
		}
	}
	if a.BufferCapacity < a.FrameSizes[0] {
		return fmt.Errorf("buffer_capacity must be at least %d samples, got %d", a.FrameSizes[0], a.BufferCapacity)
	}
	if a.HandoffQueue < 1 {
		return fmt.Errorf("handoff_queue must be at least 1, got %d", a.HandoffQueue)
	}
	if a.IdleFlushTicks < 0 {
		return fmt.Errorf("idle_flush_ticks cannot be negative, got %d", a.IdleFlushTicks)
	}
	if a.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %v", a.TickInterval)
	}
	return nil
}

// applyMaxPtime drops frame sizes longer than max_ptime, the way an SDP
// maxptime attribute limits the packet duration a peer accepts.
func (a *AudioConfig) applyMaxPtime() error {
	if a.MaxPtime == 0 {
		return nil
	}
	limit := pool.FrameSizeOf(a.MaxPtime)
	if limit == 0 {
		return fmt.Errorf("max_ptime must be one of 3, 5, 10, 20, 40, 60, got %d", a.MaxPtime)
	}
	sizes := make([]int, 0, len(a.FrameSizes))
	for _, size := range a.FrameSizes {
		if size <= limit {
			sizes = append(sizes, size)
		}
	}
	if len(sizes) == 0 {
		return fmt.Errorf("max_ptime %d leaves no frame size in %v", a.MaxPtime, a.FrameSizes)
	}
	a.FrameSizes = sizes
	return nil
}

func (c *CodecConfig) Validate() error {
	switch transcode.Application(c.Application) {
	case transcode.AppVoIP, transcode.AppAudio, transcode.AppLowDelay:
	default:
		return fmt.Errorf("application must be voip, audio or lowdelay, got %q", c.Application)
	}
	if c.Bitrate != 0 && (c.Bitrate < 6000 || c.Bitrate > 510000) {
		return fmt.Errorf("bitrate must be 0 or between 6000 and 510000, got %d", c.Bitrate)
	}
	if c.Complexity < 0 || c.Complexity > 10 {
		return fmt.Errorf("complexity must be between 0 and 10, got %d", c.Complexity)
	}
	return nil
}

func (l *LoggingConfig) Validate() error {
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", l.Level)
	}
	switch l.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s", l.Format)
	}
	return nil
}

// EncoderOptions maps the codec and framing settings onto the encoder.
func (c *Config) EncoderOptions() transcode.EncoderOptions {
	return transcode.EncoderOptions{
		FrameSizes:  c.Audio.FrameSizes,
		Application: transcode.Application(c.Codec.Application),
		Bitrate:     c.Codec.Bitrate,
		Complexity:  c.Codec.Complexity,
	}
}
