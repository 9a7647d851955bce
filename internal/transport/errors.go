package transport

import "errors"

var (
	// ErrClosed is returned by Send and Receive after Close.
	ErrClosed = errors.New("transport closed")

	// ErrNoPort is returned when no MIDI port matches the requested device.
	ErrNoPort = errors.New("no matching MIDI port")
)
