package bank

import (
	"fmt"

	"github.com/muurk/mc6sysex/internal/protocol"
)

// Channel limits
const (
	MinChannel     = 1
	MaxChannel     = 16
	DefaultChannel = 1
)

// pcScrollIncrementBase is added to the slot index when a PC scroll message
// increments a counter.
const pcScrollIncrementBase = 16

// RealtimeValues are the realtime message choices in wire order.
var RealtimeValues = []string{"nothing", "start", "stop", "continue"}

// Params holds the typed parameters of a message. The concrete type must
// match the message type it is built with.
type Params interface {
	isParams()
}

// ControlChange parameters for control_change
type ControlChange struct {
	Number int `yaml:"number"`
	Value  int `yaml:"value"`
}

// Note parameters for note_on and note_off
type Note struct {
	Number   int `yaml:"number"`
	Velocity int `yaml:"velocity"`
}

// SysEx carries up to three raw data bytes
type SysEx struct {
	Bytes []int
}

// Realtime selects one of RealtimeValues
type Realtime struct {
	Value string
}

// MidiClock parameters for midi_clock
type MidiClock struct {
	BPM     int  `yaml:"bpm"`
	TapMenu bool `yaml:"tap_menu"`
}

// PCScroll parameters for pc_scroll_up and pc_scroll_down
type PCScroll struct {
	Slot       int  `yaml:"slot"`
	Increment  bool `yaml:"increment"`
	LowerLimit int  `yaml:"lower_limit"`
	UpperLimit int  `yaml:"upper_limit"`
}

// ExpressionCC parameters for expression_cc
type ExpressionCC struct {
	Number int `yaml:"number"`
	Min    int `yaml:"min"`
	Max    int `yaml:"max"`
}

// PedalCC parameters for cc_toe_down and cc_heel_down
type PedalCC struct {
	Number int `yaml:"number"`
	Value  int `yaml:"value"`
}

// ToggleChannel parameters for toe_down_toggle_channel
type ToggleChannel struct {
	Number   int `yaml:"number"`
	Channel1 int `yaml:"channel1"`
	Channel2 int `yaml:"channel2"`
}

// ToggleCC parameters for toe_down_toggle_cc
type ToggleCC struct {
	Number int `yaml:"number"`
	CC1    int `yaml:"cc_number1"`
	CC2    int `yaml:"cc_number2"`
}

// Scalar is the single value used by every other message type
type Scalar struct {
	Value int
}

// NoParams is used by message types without data (empty, midi_clock_tap)
type NoParams struct{}

func (ControlChange) isParams() {}
func (Note) isParams()          {}
func (SysEx) isParams()         {}
func (Realtime) isParams()      {}
func (MidiClock) isParams()     {}
func (PCScroll) isParams()      {}
func (ExpressionCC) isParams()  {}
func (PedalCC) isParams()       {}
func (ToggleChannel) isParams() {}
func (ToggleCC) isParams()      {}
func (Scalar) isParams()        {}
func (NoParams) isParams()      {}

// ResolveChannel applies channel precedence: an explicit message channel
// wins over the containing action's channel, which wins over the default.
// Zero means "not set".
func ResolveChannel(message, container int) int {
	if message != 0 {
		return message
	}
	if container != 0 {
		return container
	}
	return DefaultChannel
}

// BuildMessage maps typed parameters to a wire message.
//
// Data mapping by type:
//
//	control_change            data1=number, data2=value
//	note_on/note_off          data1=number, data2=velocity
//	sysex                     data1..3=bytes (missing bytes are 0)
//	realtime                  data1=index in RealtimeValues
//	midi_clock                data1=bpm/100, data2=bpm%100, data3=tap menu
//	midi_clock_tap, empty     no data
//	pc_scroll_up/down         data1=(slot-1)+16 if increment else 0, data2=lower, data3=upper
//	expression_cc             data1=number, data2=min, data3=max
//	cc_toe_down/cc_heel_down  data1=number, data2=value
//	toe_down_toggle_channel   data1=number-1, data2=channel1-1, data3=channel2-1
//	toe_down_toggle_cc        data1=number-1, data2=cc1, data3=cc2
//	everything else           data1=value
func BuildMessage(t MessageType, p Params, channel int, toggle ToggleMode) (Message, error) {
	if channel < MinChannel || channel > MaxChannel {
		return Message{}, protocol.NewValidationError(fmt.Sprintf("%s: channel %d out of range (%d-%d)", t, channel, MinChannel, MaxChannel))
	}
	if toggle != TogglePosition1 && toggle != TogglePosition2 && toggle != ToggleBoth {
		return Message{}, protocol.NewUnknownEnumValueError(fmt.Sprintf("%s: toggle mode %d", t, int(toggle)))
	}

	var data [3]int
	switch t {
	case MessageControlChange:
		cc, err := paramsAs[ControlChange](t, p)
		if err != nil {
			return Message{}, err
		}
		data = [3]int{cc.Number, cc.Value, 0}

	case MessageNoteOn, MessageNoteOff:
		n, err := paramsAs[Note](t, p)
		if err != nil {
			return Message{}, err
		}
		data = [3]int{n.Number, n.Velocity, 0}

	case MessageSysex:
		s, err := paramsAs[SysEx](t, p)
		if err != nil {
			return Message{}, err
		}
		if len(s.Bytes) > 3 {
			return Message{}, protocol.NewValidationError(fmt.Sprintf("%s: %d bytes given, at most 3 fit in a slot", t, len(s.Bytes)))
		}
		copy(data[:], s.Bytes)

	case MessageRealtime:
		r, err := paramsAs[Realtime](t, p)
		if err != nil {
			return Message{}, err
		}
		idx := -1
		for i, v := range RealtimeValues {
			if v == r.Value {
				idx = i
				break
			}
		}
		if idx < 0 {
			return Message{}, protocol.NewUnknownEnumValueError(fmt.Sprintf("%s: unknown value %q", t, r.Value))
		}
		data[0] = idx

	case MessageMidiClock:
		c, err := paramsAs[MidiClock](t, p)
		if err != nil {
			return Message{}, err
		}
		if c.BPM < 0 {
			return Message{}, protocol.NewValidationError(fmt.Sprintf("%s: negative bpm %d", t, c.BPM))
		}
		hundreds := c.BPM / 100
		data = [3]int{hundreds, c.BPM - 100*hundreds, boolByte(c.TapMenu)}

	case MessageEmpty, MessageMidiClockTap:
		if p != nil {
			if _, err := paramsAs[NoParams](t, p); err != nil {
				return Message{}, err
			}
		}

	case MessagePCScrollUp, MessagePCScrollDown:
		s, err := paramsAs[PCScroll](t, p)
		if err != nil {
			return Message{}, err
		}
		if s.Increment {
			if s.Slot < 1 {
				return Message{}, protocol.NewValidationError(fmt.Sprintf("%s: increment slot must be 1 or more, got %d", t, s.Slot))
			}
			data[0] = (s.Slot - 1) + pcScrollIncrementBase
		}
		data[1] = s.LowerLimit
		data[2] = s.UpperLimit

	case MessageExpressionCC:
		e, err := paramsAs[ExpressionCC](t, p)
		if err != nil {
			return Message{}, err
		}
		data = [3]int{e.Number, e.Min, e.Max}

	case MessageCCToeDown, MessageCCHeelDown:
		c, err := paramsAs[PedalCC](t, p)
		if err != nil {
			return Message{}, err
		}
		data = [3]int{c.Number, c.Value, 0}

	case MessageToeDownToggleChannel:
		c, err := paramsAs[ToggleChannel](t, p)
		if err != nil {
			return Message{}, err
		}
		data = [3]int{c.Number - 1, c.Channel1 - 1, c.Channel2 - 1}

	case MessageToeDownToggleCC:
		c, err := paramsAs[ToggleCC](t, p)
		if err != nil {
			return Message{}, err
		}
		data = [3]int{c.Number - 1, c.CC1, c.CC2}

	case MessageProgramChange,
		MessageDeviceBankUp,
		MessageDeviceBankDown,
		MessageDeviceBankChangeMode,
		MessageDeviceSetBank,
		MessageDeviceTogglePage,
		MessageDeviceSetToggle,
		MessageDeviceSetMidiThru,
		MessageDeviceSelectExpressionPedalMessage,
		MessageDeviceLooperMode,
		MessageStrymonBankUp,
		MessageStrymonBankDown,
		MessageAxeFxTuner,
		MessageTogglePreset,
		MessageDelay:
		s, err := paramsAs[Scalar](t, p)
		if err != nil {
			return Message{}, err
		}
		data[0] = s.Value

	default:
		return Message{}, protocol.NewUnknownMessageTypeError(fmt.Sprintf("message type %d is not in the table", int(t)))
	}

	msg := Message{Type: t, Channel: channel, Toggle: toggle}
	out := []*byte{&msg.Data1, &msg.Data2, &msg.Data3}
	for i, v := range data {
		b, err := protocol.ToByte(v)
		if err != nil {
			return Message{}, fmt.Errorf("%s data%d: %w", t, i+1, err)
		}
		*out[i] = b
	}
	return msg, nil
}

// paramsAs asserts the concrete parameter type for a message type.
func paramsAs[T Params](t MessageType, p Params) (T, error) {
	v, ok := p.(T)
	if !ok {
		var want T
		return want, protocol.NewValidationError(fmt.Sprintf("%s expects %T parameters, got %T", t, want, p))
	}
	return v, nil
}

func boolByte(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Params reconstructs typed parameters from the message's data bytes.
// It is the inverse of BuildMessage for every value BuildMessage can produce.
func (m Message) Params() (Params, error) {
	d1, d2, d3 := int(m.Data1), int(m.Data2), int(m.Data3)

	switch m.Type {
	case MessageControlChange:
		return ControlChange{Number: d1, Value: d2}, nil
	case MessageNoteOn, MessageNoteOff:
		return Note{Number: d1, Velocity: d2}, nil
	case MessageSysex:
		b := []int{d1, d2, d3}
		for len(b) > 0 && b[len(b)-1] == 0 {
			b = b[:len(b)-1]
		}
		return SysEx{Bytes: b}, nil
	case MessageRealtime:
		if d1 >= len(RealtimeValues) {
			return nil, protocol.NewUnknownEnumValueError(fmt.Sprintf("realtime index %d", d1))
		}
		return Realtime{Value: RealtimeValues[d1]}, nil
	case MessageMidiClock:
		return MidiClock{BPM: d1*100 + d2, TapMenu: d3 != 0}, nil
	case MessageEmpty, MessageMidiClockTap:
		return NoParams{}, nil
	case MessagePCScrollUp, MessagePCScrollDown:
		s := PCScroll{LowerLimit: d2, UpperLimit: d3}
		if d1 >= pcScrollIncrementBase {
			s.Increment = true
			s.Slot = d1 - pcScrollIncrementBase + 1
		}
		return s, nil
	case MessageExpressionCC:
		return ExpressionCC{Number: d1, Min: d2, Max: d3}, nil
	case MessageCCToeDown, MessageCCHeelDown:
		return PedalCC{Number: d1, Value: d2}, nil
	case MessageToeDownToggleChannel:
		return ToggleChannel{Number: d1 + 1, Channel1: d2 + 1, Channel2: d3 + 1}, nil
	case MessageToeDownToggleCC:
		return ToggleCC{Number: d1 + 1, CC1: d2, CC2: d3}, nil
	case MessageProgramChange,
		MessageDeviceBankUp,
		MessageDeviceBankDown,
		MessageDeviceBankChangeMode,
		MessageDeviceSetBank,
		MessageDeviceTogglePage,
		MessageDeviceSetToggle,
		MessageDeviceSetMidiThru,
		MessageDeviceSelectExpressionPedalMessage,
		MessageDeviceLooperMode,
		MessageStrymonBankUp,
		MessageStrymonBankDown,
		MessageAxeFxTuner,
		MessageTogglePreset,
		MessageDelay:
		return Scalar{Value: d1}, nil
	default:
		return nil, protocol.NewUnknownMessageTypeError(fmt.Sprintf("message type %d is not in the table", int(m.Type)))
	}
}

// EncodeSlot renders a preset message as its 6-byte slot:
//
//	[0]  message type index
//	[1]  data1
//	[2]  data2
//	[3]  data3
//	[4]  action byte (action index and toggle mode)
//	[5]  channel - 1
func EncodeSlot(m Message, action ActionType) ([SlotSize]byte, error) {
	var slot [SlotSize]byte
	if !action.Valid() {
		return slot, protocol.NewUnknownEnumValueError(fmt.Sprintf("action type %d", int(action)))
	}
	if !m.Type.Valid() {
		return slot, protocol.NewUnknownMessageTypeError(fmt.Sprintf("message type %d is not in the table", int(m.Type)))
	}
	if m.Type.IsExpression() {
		return slot, protocol.NewUnknownMessageTypeError(fmt.Sprintf("%s is only valid in expression presets", m.Type))
	}
	ch, err := channelByte(m)
	if err != nil {
		return slot, err
	}

	slot = [SlotSize]byte{m.Type.WireID(), m.Data1, m.Data2, m.Data3, packActionByte(action, m.Toggle), ch}
	return slot, nil
}

// DecodeSlot is the inverse of EncodeSlot.
func DecodeSlot(slot []byte) (ActionType, Message, error) {
	if len(slot) != SlotSize {
		return 0, Message{}, protocol.NewFrameFormatError(fmt.Sprintf("slot is %d bytes, want %d", len(slot), SlotSize))
	}

	t, err := deviceMessageType(slot[0])
	if err != nil {
		return 0, Message{}, err
	}
	action, toggle, err := unpackActionByte(slot[4])
	if err != nil {
		return 0, Message{}, err
	}

	return action, Message{
		Type:    t,
		Data1:   slot[1],
		Data2:   slot[2],
		Data3:   slot[3],
		Toggle:  toggle,
		Channel: int(slot[5]) + 1,
	}, nil
}

// encodeExpressionSlot renders an expression preset message. The action byte
// is always zero.
func encodeExpressionSlot(m Message) ([SlotSize]byte, error) {
	var slot [SlotSize]byte
	if !m.Type.Valid() {
		return slot, protocol.NewUnknownMessageTypeError(fmt.Sprintf("message type %d is not in the table", int(m.Type)))
	}
	if !m.Type.IsExpression() && !m.IsEmpty() {
		return slot, protocol.NewUnknownMessageTypeError(fmt.Sprintf("%s is not an expression message type", m.Type))
	}
	ch, err := channelByte(m)
	if err != nil {
		return slot, err
	}

	slot = [SlotSize]byte{m.Type.WireID(), m.Data1, m.Data2, m.Data3, 0, ch}
	return slot, nil
}

// decodeExpressionSlot is the inverse of encodeExpressionSlot.
func decodeExpressionSlot(slot []byte) (Message, error) {
	if len(slot) != SlotSize {
		return Message{}, protocol.NewFrameFormatError(fmt.Sprintf("slot is %d bytes, want %d", len(slot), SlotSize))
	}
	t, err := expressionMessageType(slot[0])
	if err != nil {
		return Message{}, err
	}
	return Message{
		Type:    t,
		Data1:   slot[1],
		Data2:   slot[2],
		Data3:   slot[3],
		Channel: int(slot[5]) + 1,
	}, nil
}

func channelByte(m Message) (byte, error) {
	if m.Channel < MinChannel || m.Channel > MaxChannel {
		return 0, protocol.NewValidationError(fmt.Sprintf("%s: channel %d out of range (%d-%d)", m.Type, m.Channel, MinChannel, MaxChannel))
	}
	return byte(m.Channel - 1), nil
}
