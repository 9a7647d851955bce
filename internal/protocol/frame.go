package protocol

import (
	"bytes"
	"fmt"
)

// Sysex framing constants
const (
	SysexStart = 0xF0
	SysexEnd   = 0xF7

	ManufacturerID1 = 0x00
	ManufacturerID2 = 0x21
	ManufacturerID3 = 0x24

	// HeaderSize is the prefix length: start byte, manufacturer ID, device ID and version
	HeaderSize = 6
	// TrailerSize covers the checksum byte and the end byte
	TrailerSize = 2
	// MinFrameSize is a frame with an empty payload
	MinFrameSize = HeaderSize + TrailerSize
)

// MC6 Mk2 identifiers
const (
	MC6DeviceID      = 0x03
	MC6DeviceVersion = 0x03
)

// Header identifies the target device of a frame.
type Header struct {
	DeviceID      byte
	DeviceVersion byte
}

// DefaultHeader addresses an MC6 Mk2.
var DefaultHeader = Header{DeviceID: MC6DeviceID, DeviceVersion: MC6DeviceVersion}

// Bytes returns the 6-byte wire prefix for this header.
func (h Header) Bytes() []byte {
	return []byte{SysexStart, ManufacturerID1, ManufacturerID2, ManufacturerID3, h.DeviceID, h.DeviceVersion}
}

// BuildFrame wraps a payload in a complete frame for this header.
//
// Frame Structure:
//
//	[0]     0xF0           Start of sysex
//	[1-3]   00 21 24       Manufacturer ID
//	[4]     device ID
//	[5]     device version
//	[6..N]  payload
//	[N+1]   checksum       XOR of bytes 0..N, masked to 7 bits
//	[N+2]   0xF7           End of sysex
func (h Header) BuildFrame(payload []byte) []byte {
	frame := make([]byte, 0, HeaderSize+len(payload)+TrailerSize)
	frame = append(frame, h.Bytes()...)
	frame = append(frame, payload...)
	frame = append(frame, Checksum(frame))
	return append(frame, SysexEnd)
}

// BuildFrame wraps a payload in a frame addressed to an MC6 Mk2.
func BuildFrame(payload []byte) []byte {
	return DefaultHeader.BuildFrame(payload)
}

// Frame is a validated sysex frame.
type Frame struct {
	Header   Header
	Payload  []byte
	Checksum byte
	Raw      []byte // Original frame bytes
}

// ParseFrame validates a raw frame and splits it into header and payload.
//
// Validation checks:
//   - Minimum length (header + trailer)
//   - Start byte and manufacturer ID
//   - End byte
//   - Checksum over header and payload
func ParseFrame(data []byte) (*Frame, error) {
	if len(data) < MinFrameSize {
		return nil, NewFrameFormatError(fmt.Sprintf("frame too short: %d bytes (minimum %d)", len(data), MinFrameSize))
	}

	if data[0] != SysexStart {
		return nil, NewFrameFormatError(fmt.Sprintf("invalid start byte: 0x%02X (expected 0x%02X)", data[0], SysexStart))
	}
	if data[1] != ManufacturerID1 || data[2] != ManufacturerID2 || data[3] != ManufacturerID3 {
		return nil, NewFrameFormatError(fmt.Sprintf("invalid manufacturer ID: %02X %02X %02X", data[1], data[2], data[3]))
	}

	end := data[len(data)-1]
	if end != SysexEnd {
		return nil, NewFrameFormatError(fmt.Sprintf("invalid end byte: 0x%02X (expected 0x%02X)", end, SysexEnd))
	}

	body := data[:len(data)-TrailerSize]
	got := data[len(data)-TrailerSize]
	if want := Checksum(body); got != want {
		return nil, NewFrameFormatError(fmt.Sprintf("checksum mismatch: 0x%02X (expected 0x%02X)", got, want))
	}

	return &Frame{
		Header: Header{
			DeviceID:      data[4],
			DeviceVersion: data[5],
		},
		Payload:  data[HeaderSize : len(data)-TrailerSize],
		Checksum: got,
		Raw:      data,
	}, nil
}

// ChecksumByte returns the checksum byte of a built frame (its second-to-last
// byte). It returns 0 for slices too short to be frames.
func ChecksumByte(frame []byte) byte {
	if len(frame) < TrailerSize {
		return 0
	}
	return frame[len(frame)-TrailerSize]
}

// SplitFrames splits a binary .syx stream into frames. Each frame runs from a
// 0xF0 byte to the next 0xF7 byte inclusive; bytes between frames are skipped.
func SplitFrames(data []byte) ([][]byte, error) {
	var frames [][]byte
	for len(data) > 0 {
		start := bytes.IndexByte(data, SysexStart)
		if start < 0 {
			break
		}
		end := bytes.IndexByte(data[start:], SysexEnd)
		if end < 0 {
			return nil, NewFrameFormatError(fmt.Sprintf("unterminated frame at offset %d", start))
		}
		frame := make([]byte, end+1)
		copy(frame, data[start:start+end+1])
		frames = append(frames, frame)
		data = data[start+end+1:]
	}
	return frames, nil
}

// String returns a debug representation of the frame
func (f *Frame) String() string {
	tag := "none"
	if len(f.Payload) >= 2 {
		tag = fmt.Sprintf("%02X %02X", f.Payload[0], f.Payload[1])
	}
	return fmt.Sprintf("Frame{device=0x%02X, version=0x%02X, tag=%s, payload=%d bytes, checksum=0x%02X}",
		f.Header.DeviceID, f.Header.DeviceVersion, tag, len(f.Payload), f.Checksum)
}
