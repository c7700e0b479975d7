package transport

import (
	"context"
	"errors"
	"github.com/pidato/voice/opus"
	"io"
	"os"
)

// Pump feeds every packet from src into dst until src is exhausted or ctx is
// done. Errors for which skip returns true are dropped along with the packet;
// any other error stops the pump. A nil skip stops on every error. src is
// closed whenever Pump returns so producers blocked on it are released.
func Pump(ctx context.Context, src opus.Reader, dst PacketHandler, skip func(error) bool) error {
	defer src.Close()
	stop := context.AfterFunc(ctx, func() { src.Close() })
	defer stop()

	release, _ := src.(opus.Releaser)
	for {
		packet, err := src.ReadPacket()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				return ctx.Err()
			}
			return err
		}
		err = dst.OnPacket(packet)
		if release != nil {
			release.Release(packet)
		}
		if err != nil && (skip == nil || !skip(err)) {
			return err
		}
	}
}
