// Package bank models a Morningstar MC6 Mk2 bank and converts it to and from
// the device's sysex frame sequence.
//
// # Structure
//
// A Bank holds a name, twelve footswitch presets (A-L) and two expression
// pedal presets. Each preset carries up to 16 messages. Footswitch presets
// group their messages into actions (press, release, long press, ...);
// expression presets hold a flat message list.
//
// # Wire Format
//
// A bank is sent as 18 frames in fixed order:
//
//	header 1     02 02 00 00 00 00 00 00 00 00
//	header 2     01 11 00 00 00 00 00 00 00 00
//	name         01 06 00 x10, then 24 bytes of text
//	presets      12 frames, tag 01 07
//	expression   2 frames, tag 01 08
//	trailer      7E 00 <aggregate checksum> 00 x7
//
// Every message occupies a 6-byte slot:
//
//	[type, data1, data2, data3, action byte, channel-1]
//
// The action byte packs the action index with the message's toggle position:
// 2a for position 1, 2a+1 for position 2 and 2a+32 for both.
//
// # Building Messages
//
// Messages are built from typed parameters so each message type gets the
// data layout the device expects:
//
//	msg, err := bank.BuildMessage(bank.MessageMidiClock, bank.MidiClock{BPM: 128}, 1, bank.TogglePosition1)
//	// msg.Data1 == 1, msg.Data2 == 28
//
// # Decoding
//
//	result, err := bank.Decode(frames)
//	for _, w := range result.Warnings {
//	    log.Println(w)
//	}
//
// Decoding merges consecutive slots with the same action type into one
// action, so two adjacent actions of the same type encode and decode as one.
//
// # Thread Safety
//
// All functions are pure. Distinct banks may be encoded or decoded
// concurrently.
package bank
