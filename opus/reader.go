package opus

import "io"

// Reader yields one self-describing packet per call. It returns io.EOF once
// the source is drained and closed.
type Reader interface {
	io.Closer

	ReadPacket() ([]byte, error)
}

// Releaser is implemented by readers that lend pooled packets. The packet
// must not be used after Release.
type Releaser interface {
	Release(packet []byte)
}
