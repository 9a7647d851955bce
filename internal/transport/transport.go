package transport

import (
	"context"
	"time"
)

// Sender delivers complete sysex frames (F0 ... F7) to a device.
type Sender interface {
	Send(ctx context.Context, frames [][]byte) error
	Close() error
}

// Receiver yields complete sysex frames sent by a device.
// Receive blocks until a frame arrives, the context ends or the transport closes.
type Receiver interface {
	Receive(ctx context.Context) ([]byte, error)
}

// Device is a two-way sysex transport, as served by the relay.
type Device interface {
	Sender
	Receiver
}

// ProgressFunc is called after each frame of a Send is written.
type ProgressFunc func(sent, total int)

func (f ProgressFunc) report(sent, total int) {
	if f != nil {
		f(sent, total)
	}
}

// receiveBuffer bounds frames queued between a driver callback and Receive.
const receiveBuffer = 64

// pause waits d or until ctx is done. A zero delay returns immediately.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
