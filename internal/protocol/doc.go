// Package protocol implements the MC6 sysex frame format.
//
// This package handles construction, validation, and text rendering of the
// framed, checksummed system-exclusive messages exchanged with Morningstar
// MC6 foot controllers. It knows nothing about banks or presets; it only
// deals in single frames and their payloads.
//
// # Frame Format
//
// Every frame has this structure:
//   - Start of sysex: 0xF0
//   - Manufacturer ID: 0x00 0x21 0x24
//   - Device ID: 0x03 for the MC6 Mk2
//   - Device version: 0x03 for the MC6 Mk2
//   - Payload: Variable length
//   - Checksum: 1 byte (XOR of all preceding bytes, masked to 7 bits)
//   - End of sysex: 0xF7
//
// # Usage Example - Construction
//
//	frame := protocol.BuildFrame([]byte{0x02, 0x02, 0, 0, 0, 0, 0, 0, 0, 0})
//	fmt.Println(protocol.FormatFrame(frame))
//
// # Usage Example - Parsing
//
//	frames, err := protocol.ParseDump(file)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, raw := range frames {
//	    f, err := protocol.ParseFrame(raw)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Printf("payload: % X\n", f.Payload)
//	}
//
// # Text Fields
//
// Names shown on the device display are fixed-width ASCII fields padded with
// spaces. EncodeText and DecodeText convert between Go strings and those
// fields without trimming, so a decoded field re-encodes byte for byte.
//
// # Error Handling
//
// Errors are returned as *CodecError values carrying an ErrorType:
//   - Frame format errors: bad prefix, terminator, or checksum
//   - Invalid checksum input: values that do not fit in a byte
//   - Codec errors raised by higher layers (too many messages, unknown types)
//
// None of these are retryable.
//
// # Thread Safety
//
// All functions are stateless and safe for concurrent use.
package protocol
