// Package transport moves sysex frames between this host and an MC6 Mk2.
//
// Two transports implement Sender and Receiver:
//
//   - MIDIPort talks to a locally attached controller through the rtmidi
//     driver of gitlab.com/gomidi/midi/v2.
//   - RelayClient talks to an mc6-relay server over a websocket, one binary
//     message per frame, for controllers attached to another machine.
//
// Both validate every outbound frame with protocol.ParseFrame before writing
// anything and log frames at debug level through internal/logging.
//
//	port, err := transport.OpenMIDI(transport.MIDIConfig{})
//	if err != nil {
//	    return err
//	}
//	defer port.Close()
//	err = port.Send(ctx, frames)
package transport
