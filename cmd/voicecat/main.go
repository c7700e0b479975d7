// Command voicecat streams an audio file through a full voice session:
// irregular capture bursts, tick-driven Opus framing, RTP over an in-process
// transport, decoding and playback into a wav file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"github.com/pidato/voice/config"
	"github.com/pidato/voice/internal/log"
	"github.com/pidato/voice/media"
	"github.com/pidato/voice/pool"
	"github.com/pidato/voice/session"
	"github.com/pidato/voice/transcode"
	"github.com/pidato/voice/transport"
	"golang.org/x/sync/errgroup"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config")
		inPath     = flag.String("in", "", "input .wav or .mp3 (48kHz)")
		outPath    = flag.String("out", "out.wav", "output .wav")
		realtime   = flag.Bool("realtime", false, "pace ticks at tick_interval instead of running flat out")
		minChunk   = flag.Int("min-chunk", 1, "smallest capture burst in samples")
		maxChunk   = flag.Int("max-chunk", 2000, "largest capture burst in samples")
		seed       = flag.Int64("seed", time.Now().UnixNano(), "burst size seed")
	)
	flag.Parse()

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "usage: voicecat -in input.wav [-out out.wav] [-config voice.yaml]")
		os.Exit(2)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = *loaded
	}
	logger := log.Init(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := options{
		in:       *inPath,
		out:      *outPath,
		realtime: *realtime,
		minChunk: *minChunk,
		maxChunk: *maxChunk,
		seed:     *seed,
	}
	if err := run(ctx, &cfg, opts); err != nil {
		logger.Error("voicecat failed", "err", err)
		os.Exit(1)
	}
}

type options struct {
	in, out            string
	realtime           bool
	minChunk, maxChunk int
	seed               int64
}

func run(ctx context.Context, cfg *config.Config, opts options) error {
	samples, err := media.ReadFile(opts.in)
	if err != nil {
		return err
	}
	sink, err := media.CreateWAV(opts.out)
	if err != nil {
		return err
	}
	defer sink.Close()

	enc, err := transcode.NewEncoder(cfg.EncoderOptions())
	if err != nil {
		return err
	}
	dec, err := transcode.NewDecoder(cfg.Audio.FrameSizes[0])
	if err != nil {
		enc.Close()
		return err
	}

	// Sized so a full second of the smallest frames never blocks.
	link := transport.NewLoopback(pool.SampleRate/pool.MinFrameSize, true)
	packetizer := transport.NewPacketizer(cfg.RTP.PayloadType, cfg.RTP.SSRC)

	sender, err := session.NewSender(enc, transport.NewRTPSender(packetizer, link), session.SenderOptions{
		Capacity:       cfg.Audio.BufferCapacity,
		QueueSize:      cfg.Audio.HandoffQueue,
		IdleFlushTicks: cfg.Audio.IdleFlushTicks,
	})
	if err != nil {
		enc.Close()
		dec.Close()
		return err
	}
	receiver := session.NewReceiver(dec, sink, session.ReceiverOptions{})
	defer receiver.Close()

	logger := log.With("input", opts.in, "samples", len(samples), "duration", pool.Duration(len(samples)))
	logger.Info("streaming")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer link.Close()
		return drive(gctx, cfg, sender, media.NewBursts(samples, opts.minChunk, opts.maxChunk, opts.seed), opts.realtime)
	})
	g.Go(func() error {
		// Releases the sender if playback fails first.
		defer link.Close()
		skip := func(err error) bool {
			return errors.Is(err, transcode.ErrDecodeFailure) || errors.Is(err, transport.ErrMalformedRTP)
		}
		return transport.Pump(gctx, link, transport.NewDepacketizer(receiver), skip)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	st := sender.Stats()
	logger.Info("done",
		"frames", st.Frames,
		"bytes", st.Bytes,
		"padded", st.Padded,
		"played", sink.Samples(),
		"dropped", receiver.Stats().Dropped,
	)
	return nil
}

// drive plays the capture device and the tick source. Each tick delivers
// roughly one tick interval worth of bursts before ticking the sender.
func drive(ctx context.Context, cfg *config.Config, sender *session.Sender, src *media.Bursts, realtime bool) error {
	if err := sender.Start(); err != nil {
		return err
	}
	perTick := int(cfg.Audio.TickInterval * pool.SampleRate / time.Second)
	if perTick < 1 {
		perTick = 1
	}

	var ticker *time.Ticker
	if realtime {
		ticker = time.NewTicker(cfg.Audio.TickInterval)
		defer ticker.Stop()
	}
	for src.Remaining() > 0 {
		for delivered := 0; delivered < perTick; {
			chunk := src.Next()
			if chunk == nil {
				break
			}
			sender.OnSamplesReady(chunk)
			delivered += len(chunk)
		}
		if err := sender.Tick(); err != nil {
			sender.Stop()
			return err
		}
		if ticker == nil {
			if err := ctx.Err(); err != nil {
				sender.Stop()
				return err
			}
			continue
		}
		select {
		case <-ctx.Done():
			sender.Stop()
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return sender.Stop()
}
