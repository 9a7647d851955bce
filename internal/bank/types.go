package bank

import (
	"fmt"
	"strings"

	"github.com/muurk/mc6sysex/internal/protocol"
)

// Device limits for the MC6 Mk2
const (
	NumPresets           = 12
	NumExpressionPresets = 2
	MaxMessages          = 16 // message slots per preset
	SlotSize             = 6  // bytes per message slot
)

// MessageTableRevision identifies the message type table below. An older
// firmware table (revision 1) numbered realtime and the device_* types
// differently; it is not supported.
const MessageTableRevision = 2

// ActionType is the trigger that fires an action's messages.
type ActionType int

const (
	ActionNoAction ActionType = iota
	ActionPress
	ActionRelease
	ActionLongPress
	ActionLongPressRelease
	ActionDoubleTap
	ActionDoubleTapRelease
	ActionLongDoubleTap
	ActionLongDoubleTapRelease
	ActionReleaseAll
	numActionTypes
)

var actionNames = [numActionTypes]string{
	"no_action",
	"press",
	"release",
	"long_press",
	"long_press_release",
	"double_tap",
	"double_tap_release",
	"long_double_tap",
	"long_double_tap_release",
	"release_all",
}

// String returns the configuration name of the action type
func (a ActionType) String() string {
	if a.Valid() {
		return actionNames[a]
	}
	return fmt.Sprintf("ActionType(%d)", int(a))
}

// Valid reports whether a is a known action type
func (a ActionType) Valid() bool {
	return a >= 0 && a < numActionTypes
}

// ParseActionType looks up an action type by configuration name.
func ParseActionType(name string) (ActionType, error) {
	for i, n := range actionNames {
		if n == name {
			return ActionType(i), nil
		}
	}
	return 0, protocol.NewUnknownEnumValueError(fmt.Sprintf("unknown action type %q (expected one of %s)",
		name, strings.Join(actionNames[:], ", ")))
}

// MessageType is the kind of output message in a slot. Device message kinds
// and expression pedal kinds share this type but are numbered on the wire
// from separate tables; MessageEmpty is index 0 in both.
type MessageType int

const (
	MessageEmpty MessageType = iota
	MessageProgramChange
	MessageControlChange
	MessageNoteOn
	MessageNoteOff
	MessageRealtime
	MessageSysex
	MessageMidiClock
	MessagePCScrollUp
	MessagePCScrollDown
	MessageDeviceBankUp
	MessageDeviceBankDown
	MessageDeviceBankChangeMode
	MessageDeviceSetBank
	MessageDeviceTogglePage
	MessageDeviceSetToggle
	MessageDeviceSetMidiThru
	MessageDeviceSelectExpressionPedalMessage
	MessageDeviceLooperMode
	MessageStrymonBankUp
	MessageStrymonBankDown
	MessageAxeFxTuner
	MessageTogglePreset
	MessageDelay
	MessageMidiClockTap

	// Expression pedal kinds
	MessageExpressionCC
	MessageCCToeDown
	MessageCCHeelDown
	MessageToeDownToggleChannel
	MessageToeDownToggleCC

	numMessageTypes
)

// Boundaries of the two wire tables
const (
	lastDeviceMessage      = MessageMidiClockTap
	firstExpressionMessage = MessageExpressionCC
)

var messageNames = [numMessageTypes]string{
	"empty",
	"program_change",
	"control_change",
	"note_on",
	"note_off",
	"realtime",
	"sysex",
	"midi_clock",
	"pc_scroll_up",
	"pc_scroll_down",
	"device_bank_up",
	"device_bank_down",
	"device_bank_change_mode",
	"device_set_bank",
	"device_toggle_page",
	"device_set_toggle",
	"device_set_midi_thru",
	"device_select_expression_pedal_message",
	"device_looper_mode",
	"strymon_bank_up",
	"strymon_bank_down",
	"axefx_tuner",
	"toggle_preset",
	"delay",
	"midi_clock_tap",
	"expression_cc",
	"cc_toe_down",
	"cc_heel_down",
	"toe_down_toggle_channel",
	"toe_down_toggle_cc",
}

// String returns the configuration name of the message type
func (m MessageType) String() string {
	if m.Valid() {
		return messageNames[m]
	}
	return fmt.Sprintf("MessageType(%d)", int(m))
}

// Valid reports whether m is a known message type
func (m MessageType) Valid() bool {
	return m >= 0 && m < numMessageTypes
}

// IsExpression reports whether m belongs to the expression pedal table
func (m MessageType) IsExpression() bool {
	return m >= firstExpressionMessage && m < numMessageTypes
}

// WireID returns the byte stored in slot position 0 for this type.
func (m MessageType) WireID() byte {
	if m.IsExpression() {
		return byte(m-firstExpressionMessage) + 1
	}
	return byte(m)
}

// ParseMessageType looks up a message type by configuration name.
func ParseMessageType(name string) (MessageType, error) {
	for i, n := range messageNames {
		if n == name {
			return MessageType(i), nil
		}
	}
	return 0, protocol.NewUnknownMessageTypeError(fmt.Sprintf("unknown message type %q", name))
}

// IsMessageTypeName reports whether name is a message type name.
func IsMessageTypeName(name string) bool {
	_, err := ParseMessageType(name)
	return err == nil
}

// deviceMessageType maps a preset slot's type byte to a MessageType.
func deviceMessageType(id byte) (MessageType, error) {
	if int(id) > int(lastDeviceMessage) {
		return 0, protocol.NewUnknownMessageTypeError(
			fmt.Sprintf("message type index %d out of range (0-%d)", id, lastDeviceMessage))
	}
	return MessageType(id), nil
}

// expressionMessageType maps an expression preset slot's type byte to a MessageType.
func expressionMessageType(id byte) (MessageType, error) {
	if id == 0 {
		return MessageEmpty, nil
	}
	count := int(numMessageTypes - firstExpressionMessage)
	if int(id) > count {
		return 0, protocol.NewUnknownMessageTypeError(
			fmt.Sprintf("expression message type index %d out of range (0-%d)", id, count))
	}
	return firstExpressionMessage + MessageType(id-1), nil
}

// ToggleMode selects which toggle state of a preset fires a message.
type ToggleMode int

const (
	TogglePosition1 ToggleMode = iota
	TogglePosition2
	ToggleBoth
)

// String returns the configuration form of the toggle mode
func (t ToggleMode) String() string {
	switch t {
	case TogglePosition1:
		return "1"
	case TogglePosition2:
		return "2"
	case ToggleBoth:
		return "both"
	default:
		return fmt.Sprintf("ToggleMode(%d)", int(t))
	}
}

// ParseToggleMode accepts "1", "2" or "both" (case-insensitive).
func ParseToggleMode(s string) (ToggleMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "1":
		return TogglePosition1, nil
	case "2":
		return TogglePosition2, nil
	case "both":
		return ToggleBoth, nil
	default:
		return 0, protocol.NewUnknownEnumValueError(fmt.Sprintf("unknown toggle position %q (expected 1, 2 or both)", s))
	}
}

// Action byte packing. Both-positions messages live in a separate range
// above the single-position encodings.
const toggleBothOffset = 32

// packActionByte combines an action index and toggle mode into one byte.
func packActionByte(a ActionType, t ToggleMode) byte {
	switch t {
	case ToggleBoth:
		return byte(2*int(a) + toggleBothOffset)
	case TogglePosition2:
		return byte(2*int(a) + 1)
	default:
		return byte(2 * int(a))
	}
}

// unpackActionByte is the inverse of packActionByte.
func unpackActionByte(b byte) (ActionType, ToggleMode, error) {
	var (
		a ActionType
		t ToggleMode
	)
	if b >= toggleBothOffset {
		a = ActionType((b - toggleBothOffset) / 2)
		t = ToggleBoth
	} else {
		a = ActionType(b / 2)
		t = TogglePosition1
		if b%2 == 1 {
			t = TogglePosition2
		}
	}
	if !a.Valid() {
		return 0, 0, protocol.NewUnknownEnumValueError(fmt.Sprintf("action byte 0x%02X decodes to action index %d", b, int(a)))
	}
	return a, t, nil
}
