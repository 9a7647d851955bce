package bank

import (
	"fmt"

	"github.com/muurk/mc6sysex/internal/protocol"
)

// Preset frame tags (payload bytes 0-1)
const (
	payloadPrefix       = 0x01
	tagPreset           = 0x07
	tagExpressionPreset = 0x08
)

// Preset payload layout
//
//	[0]        0x01
//	[1]        tag (0x07 preset, 0x08 expression preset)
//	[2]        0x00
//	[3]        preset ID
//	[4-9]      reserved, zero
//	[10-105]   16 message slots of 6 bytes
//	[106]      flags (0x08 toggle mode, 0x04 blink mode)
//	[107]      reserved, zero
//	[108-115]  name
//	[116-123]  toggle name
//	[124-147]  long name
const (
	presetHeaderSize  = 10
	slotsOffset       = presetHeaderSize
	slotsSize         = MaxMessages * SlotSize
	flagsOffset       = slotsOffset + slotsSize
	namesOffset       = flagsOffset + 2
	namesSize         = 2*protocol.ShortNameWidth + protocol.LongNameWidth
	PresetPayloadSize = namesOffset + namesSize
)

// Preset flag bits
const (
	flagToggleMode = 0x08
	flagBlinkMode  = 0x04
)

// EncodePayload renders the preset as a 148-byte frame payload.
// Messages are laid out in action order, then message order within each action.
func (p *Preset) EncodePayload() ([]byte, error) {
	count := p.MessageCount()
	if count > MaxMessages {
		return nil, protocol.NewTooManyMessagesError(count, MaxMessages).WithContext("preset " + p.Letter())
	}
	if p.ID < 0 || p.ID >= NumPresets {
		return nil, protocol.NewValidationError(fmt.Sprintf("preset ID %d out of range (0-%d)", p.ID, NumPresets-1))
	}

	payload := make([]byte, PresetPayloadSize)
	payload[0] = payloadPrefix
	payload[1] = tagPreset
	payload[3] = byte(p.ID)

	off := slotsOffset
	for ai, a := range p.Actions {
		for mi, m := range a.Messages {
			slot, err := EncodeSlot(m, a.Type)
			if err != nil {
				return nil, fmt.Errorf("preset %s action %d message %d: %w", p.Letter(), ai+1, mi+1, err)
			}
			copy(payload[off:], slot[:])
			off += SlotSize
		}
	}

	if p.ToggleMode {
		payload[flagsOffset] |= flagToggleMode
	}
	if p.BlinkMode {
		payload[flagsOffset] |= flagBlinkMode
	}

	writeNames(payload, p.Name, p.ToggleName, p.LongName)
	return payload, nil
}

// Encode renders the preset as a complete frame.
func (p *Preset) Encode() ([]byte, error) {
	payload, err := p.EncodePayload()
	if err != nil {
		return nil, err
	}
	return protocol.BuildFrame(payload), nil
}

// DecodePreset parses a preset frame payload.
//
// Consecutive slots with the same action type are merged into one Action.
// Two separate actions of the same type that were adjacent when encoded come
// back as a single action; this cannot be told apart on the wire.
func DecodePreset(payload []byte) (*Preset, error) {
	if err := checkPresetPayload(payload, tagPreset); err != nil {
		return nil, err
	}

	p := &Preset{ID: int(payload[3])}
	p.Name, p.ToggleName, p.LongName = readNames(payload)
	p.ToggleMode = payload[flagsOffset]&flagToggleMode != 0
	p.BlinkMode = payload[flagsOffset]&flagBlinkMode != 0

	var open *Action
	for i := 0; i < MaxMessages; i++ {
		slot := slotAt(payload, i)
		if isZero(slot) {
			continue
		}
		actionType, msg, err := DecodeSlot(slot)
		if err != nil {
			return nil, fmt.Errorf("preset %s slot %d: %w", Letter(p.ID), i+1, err)
		}
		if open == nil || open.Type != actionType {
			p.Actions = append(p.Actions, Action{Type: actionType})
			open = &p.Actions[len(p.Actions)-1]
		}
		open.Messages = append(open.Messages, msg)
	}

	return p, nil
}

// EncodePayload renders the expression preset as a 148-byte frame payload.
// Both flag bytes are always zero.
func (e *ExpressionPreset) EncodePayload() ([]byte, error) {
	if len(e.Messages) > MaxMessages {
		return nil, protocol.NewTooManyMessagesError(len(e.Messages), MaxMessages).WithContext(fmt.Sprintf("expression preset %d", e.ID+1))
	}
	if e.ID < 0 || e.ID >= NumExpressionPresets {
		return nil, protocol.NewValidationError(fmt.Sprintf("expression preset ID %d out of range (0-%d)", e.ID, NumExpressionPresets-1))
	}

	payload := make([]byte, PresetPayloadSize)
	payload[0] = payloadPrefix
	payload[1] = tagExpressionPreset
	payload[3] = byte(e.ID)

	for i, m := range e.Messages {
		slot, err := encodeExpressionSlot(m)
		if err != nil {
			return nil, fmt.Errorf("expression preset %d message %d: %w", e.ID+1, i+1, err)
		}
		copy(payload[slotsOffset+i*SlotSize:], slot[:])
	}

	writeNames(payload, e.Name, e.ToggleName, e.LongName)
	return payload, nil
}

// Encode renders the expression preset as a complete frame.
func (e *ExpressionPreset) Encode() ([]byte, error) {
	payload, err := e.EncodePayload()
	if err != nil {
		return nil, err
	}
	return protocol.BuildFrame(payload), nil
}

// DecodeExpressionPreset parses an expression preset frame payload. The
// action byte of each slot is ignored.
func DecodeExpressionPreset(payload []byte) (*ExpressionPreset, error) {
	if err := checkPresetPayload(payload, tagExpressionPreset); err != nil {
		return nil, err
	}

	e := &ExpressionPreset{ID: int(payload[3])}
	e.Name, e.ToggleName, e.LongName = readNames(payload)

	for i := 0; i < MaxMessages; i++ {
		slot := slotAt(payload, i)
		if isZero(slot) {
			continue
		}
		msg, err := decodeExpressionSlot(slot)
		if err != nil {
			return nil, fmt.Errorf("expression preset %d slot %d: %w", e.ID+1, i+1, err)
		}
		e.Messages = append(e.Messages, msg)
	}

	return e, nil
}

func checkPresetPayload(payload []byte, tag byte) error {
	if len(payload) < PresetPayloadSize {
		return protocol.NewFrameFormatError(fmt.Sprintf("preset payload too short: %d bytes (expected %d)", len(payload), PresetPayloadSize))
	}
	if payload[0] != payloadPrefix || payload[1] != tag {
		return protocol.NewFrameFormatError(fmt.Sprintf("unexpected frame tag %02X %02X (expected %02X %02X)", payload[0], payload[1], payloadPrefix, tag))
	}
	return nil
}

func slotAt(payload []byte, i int) []byte {
	off := slotsOffset + i*SlotSize
	return payload[off : off+SlotSize]
}

func writeNames(payload []byte, name, toggleName, longName string) {
	off := len(payload) - namesSize
	off += copy(payload[off:], protocol.EncodeText(name, protocol.ShortNameWidth))
	off += copy(payload[off:], protocol.EncodeText(toggleName, protocol.ShortNameWidth))
	copy(payload[off:], protocol.EncodeText(longName, protocol.LongNameWidth))
}

// readNames decodes the three name fields from the trailing 40 bytes.
func readNames(payload []byte) (name, toggleName, longName string) {
	n := len(payload)
	name = protocol.DecodeText(payload[n-40 : n-32])
	toggleName = protocol.DecodeText(payload[n-32 : n-24])
	longName = protocol.DecodeText(payload[n-24:])
	return name, toggleName, longName
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
