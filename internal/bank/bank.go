package bank

import (
	"fmt"

	"github.com/muurk/mc6sysex/internal/protocol"
)

// FramesPerBank is the length of a complete bank dump:
// two headers, the name, presets, expression presets and the trailer.
const FramesPerBank = 2 + 1 + NumPresets + NumExpressionPresets + 1

// Fixed frame payloads
var (
	header1Payload = []byte{0x02, 0x02, 0, 0, 0, 0, 0, 0, 0, 0}
	header2Payload = []byte{0x01, 0x11, 0, 0, 0, 0, 0, 0, 0, 0}
	namePrefix     = []byte{0x01, 0x06, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
)

const (
	trailerTag  = 0x7E
	trailerSize = 10
	// aggregateSeed starts the running XOR over per-frame checksums
	aggregateSeed = 0xF0
)

// Encode renders the bank as its ordered frame sequence. Any preset error
// aborts the whole encode.
func (b *Bank) Encode() ([][]byte, error) {
	frames := make([][]byte, 0, FramesPerBank)
	frames = append(frames,
		protocol.BuildFrame(header1Payload),
		protocol.BuildFrame(header2Payload),
		protocol.BuildFrame(namePayload(b.Name)),
	)

	for i := range b.Presets {
		frame, err := b.Presets[i].Encode()
		if err != nil {
			return nil, fmt.Errorf("encode bank %q: %w", b.Name, err)
		}
		frames = append(frames, frame)
	}
	for i := range b.ExpressionPresets {
		frame, err := b.ExpressionPresets[i].Encode()
		if err != nil {
			return nil, fmt.Errorf("encode bank %q: %w", b.Name, err)
		}
		frames = append(frames, frame)
	}

	trailer := make([]byte, trailerSize)
	trailer[0] = trailerTag
	trailer[2] = AggregateChecksum(frames)
	frames = append(frames, protocol.BuildFrame(trailer))

	return frames, nil
}

// AggregateChecksum folds the checksum byte of every frame into one value,
// starting from 0xF0. The trailer carries it to detect lost or reordered frames.
func AggregateChecksum(frames [][]byte) byte {
	agg := byte(aggregateSeed)
	for _, f := range frames {
		agg ^= protocol.ChecksumByte(f)
	}
	return agg & protocol.ChecksumMask
}

func namePayload(name string) []byte {
	payload := make([]byte, 0, len(namePrefix)+protocol.LongNameWidth)
	payload = append(payload, namePrefix...)
	return append(payload, protocol.EncodeText(name, protocol.LongNameWidth)...)
}

// DecodeResult is a decoded bank plus any non-fatal findings.
type DecodeResult struct {
	Bank     *Bank
	Warnings []string
}

// Decode rebuilds a bank from its frame sequence. Every frame must pass
// protocol.ParseFrame. Header frames out of order, a trailer checksum
// mismatch and extra frames are reported as warnings; anything else that
// does not match the bank layout fails the whole decode.
func Decode(frames [][]byte) (*DecodeResult, error) {
	d := &bankDecoder{frames: frames}
	bank, err := d.decode()
	if err != nil {
		return nil, err
	}
	return &DecodeResult{Bank: bank, Warnings: d.warnings}, nil
}

type bankDecoder struct {
	frames   [][]byte
	pos      int
	warnings []string
}

func (d *bankDecoder) warnf(format string, args ...any) {
	d.warnings = append(d.warnings, fmt.Sprintf(format, args...))
}

// next returns the payload of the next frame.
func (d *bankDecoder) next(what string) ([]byte, error) {
	if d.pos >= len(d.frames) {
		return nil, protocol.NewFrameFormatError(fmt.Sprintf("stream ended after %d frames, expected %s", d.pos, what))
	}
	f, err := protocol.ParseFrame(d.frames[d.pos])
	if err != nil {
		return nil, fmt.Errorf("frame %d (%s): %w", d.pos+1, what, err)
	}
	d.pos++
	return f.Payload, nil
}

func (d *bankDecoder) decode() (*Bank, error) {
	if err := d.headers(); err != nil {
		return nil, err
	}

	payload, err := d.next("bank name")
	if err != nil {
		return nil, err
	}
	if !hasTag(payload, namePrefix[0], namePrefix[1]) || len(payload) < len(namePrefix)+protocol.LongNameWidth {
		return nil, protocol.NewFrameFormatError(fmt.Sprintf("frame %d is not a bank name frame", d.pos))
	}
	bank := &Bank{Name: protocol.DecodeText(payload[len(namePrefix) : len(namePrefix)+protocol.LongNameWidth])}

	for i := 0; i < NumPresets; i++ {
		payload, err := d.next("preset " + Letter(i))
		if err != nil {
			return nil, err
		}
		p, err := DecodePreset(payload)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", d.pos, err)
		}
		if p.ID != i {
			d.warnf("frame %d: preset ID %d in position %s", d.pos, p.ID, Letter(i))
		}
		p.ID = i
		bank.Presets[i] = *p
	}

	for i := 0; i < NumExpressionPresets; i++ {
		payload, err := d.next(fmt.Sprintf("expression preset %d", i+1))
		if err != nil {
			return nil, err
		}
		e, err := DecodeExpressionPreset(payload)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", d.pos, err)
		}
		if e.ID != i {
			d.warnf("frame %d: expression preset ID %d in position %d", d.pos, e.ID, i+1)
		}
		e.ID = i
		bank.ExpressionPresets[i] = *e
	}

	d.trailer()
	return bank, nil
}

// headers consumes the two header frames. Either order is accepted.
func (d *bankDecoder) headers() error {
	first, err := d.next("header")
	if err != nil {
		return err
	}
	second, err := d.next("header")
	if err != nil {
		return err
	}

	switch {
	case isHeader(first, header1Payload) && isHeader(second, header2Payload):
	case isHeader(first, header2Payload) && isHeader(second, header1Payload):
		d.warnf("header frames out of order")
	default:
		return protocol.NewFrameFormatError(fmt.Sprintf("expected bank header frames, got tags %s and %s", tagString(first), tagString(second)))
	}
	return nil
}

// trailer verifies the aggregate checksum if a trailer frame follows the
// expression presets.
func (d *bankDecoder) trailer() {
	if d.pos >= len(d.frames) {
		d.warnf("no trailer frame")
		return
	}

	body := d.frames[:d.pos]
	payload, err := d.next("trailer")
	if err != nil {
		d.warnf("trailer: %v", err)
		return
	}
	if len(payload) < 3 || payload[0] != trailerTag {
		d.warnf("frame %d is not a trailer (tag %s)", d.pos, tagString(payload))
		return
	}
	if want := AggregateChecksum(body); payload[2] != want {
		d.warnf("trailer checksum 0x%02X does not match frames (expected 0x%02X)", payload[2], want)
	}

	if extra := len(d.frames) - d.pos; extra > 0 {
		d.warnf("%d frame(s) after trailer ignored", extra)
	}
}

func isHeader(payload, want []byte) bool {
	return hasTag(payload, want[0], want[1])
}

func hasTag(payload []byte, a, b byte) bool {
	return len(payload) >= 2 && payload[0] == a && payload[1] == b
}

func tagString(payload []byte) string {
	if len(payload) < 2 {
		return "(none)"
	}
	return fmt.Sprintf("%02X %02X", payload[0], payload[1])
}
