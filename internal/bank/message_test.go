package bank

import (
	"reflect"
	"testing"

	"github.com/muurk/mc6sysex/internal/protocol"
)

// TestBuildMessage tests the data byte layout for each parameter shape
func TestBuildMessage(t *testing.T) {
	tests := []struct {
		name    string
		msgType MessageType
		params  Params
		want    [3]byte
	}{
		{"control change", MessageControlChange, ControlChange{Number: 7, Value: 64}, [3]byte{7, 64, 0}},
		{"note on", MessageNoteOn, Note{Number: 60, Velocity: 100}, [3]byte{60, 100, 0}},
		{"sysex partial", MessageSysex, SysEx{Bytes: []int{0x12, 0x34}}, [3]byte{0x12, 0x34, 0}},
		{"realtime stop", MessageRealtime, Realtime{Value: "stop"}, [3]byte{2, 0, 0}},
		{"midi clock 128", MessageMidiClock, MidiClock{BPM: 128}, [3]byte{1, 28, 0}},
		{"midi clock tap menu", MessageMidiClock, MidiClock{BPM: 90, TapMenu: true}, [3]byte{0, 90, 1}},
		{"midi clock tap", MessageMidiClockTap, NoParams{}, [3]byte{0, 0, 0}},
		{"pc scroll increment", MessagePCScrollUp, PCScroll{Slot: 3, Increment: true, LowerLimit: 0, UpperLimit: 10}, [3]byte{18, 0, 10}},
		{"pc scroll plain", MessagePCScrollDown, PCScroll{Slot: 3, LowerLimit: 5, UpperLimit: 20}, [3]byte{0, 5, 20}},
		{"expression cc", MessageExpressionCC, ExpressionCC{Number: 11, Min: 0, Max: 127}, [3]byte{11, 0, 127}},
		{"cc toe down", MessageCCToeDown, PedalCC{Number: 80, Value: 127}, [3]byte{80, 127, 0}},
		{"toggle channel", MessageToeDownToggleChannel, ToggleChannel{Number: 2, Channel1: 1, Channel2: 16}, [3]byte{1, 0, 15}},
		{"toggle cc", MessageToeDownToggleCC, ToggleCC{Number: 3, CC1: 10, CC2: 20}, [3]byte{2, 10, 20}},
		{"program change", MessageProgramChange, Scalar{Value: 42}, [3]byte{42, 0, 0}},
		{"delay", MessageDelay, Scalar{Value: 5}, [3]byte{5, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := BuildMessage(tt.msgType, tt.params, 1, TogglePosition1)
			if err != nil {
				t.Fatalf("BuildMessage() error = %v", err)
			}
			got := [3]byte{msg.Data1, msg.Data2, msg.Data3}
			if got != tt.want {
				t.Errorf("data = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestBuildMessage_Errors tests rejected inputs
func TestBuildMessage_Errors(t *testing.T) {
	tests := []struct {
		name    string
		msgType MessageType
		params  Params
		channel int
		check   func(error) bool
	}{
		{"wrong params", MessageControlChange, Note{Number: 1}, 1, protocol.IsValidationError},
		{"unknown realtime", MessageRealtime, Realtime{Value: "pause"}, 1, protocol.IsUnknownEnumValue},
		{"value too large", MessageControlChange, ControlChange{Number: 300}, 1, protocol.IsInvalidChecksumInput},
		{"negative value", MessageProgramChange, Scalar{Value: -1}, 1, protocol.IsInvalidChecksumInput},
		{"channel zero", MessageProgramChange, Scalar{Value: 1}, 0, protocol.IsValidationError},
		{"channel 17", MessageProgramChange, Scalar{Value: 1}, 17, protocol.IsValidationError},
		{"sysex too long", MessageSysex, SysEx{Bytes: []int{1, 2, 3, 4}}, 1, protocol.IsValidationError},
		{"unknown type", MessageType(99), Scalar{Value: 1}, 1, protocol.IsUnknownMessageType},
		{"scroll increment slot zero", MessagePCScrollUp, PCScroll{Slot: 0, Increment: true}, 1, protocol.IsValidationError},
		{"scroll increment negative slot", MessagePCScrollDown, PCScroll{Slot: -2, Increment: true}, 1, protocol.IsValidationError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildMessage(tt.msgType, tt.params, tt.channel, TogglePosition1)
			if err == nil {
				t.Fatal("BuildMessage() expected error, got nil")
			}
			if !tt.check(err) {
				t.Errorf("unexpected error class: %v", err)
			}
		})
	}
}

func TestBuildMessage_ScrollWithoutIncrementIgnoresSlot(t *testing.T) {
	msg, err := BuildMessage(MessagePCScrollUp, PCScroll{Slot: 0, LowerLimit: 2, UpperLimit: 8}, 1, TogglePosition1)
	if err != nil {
		t.Fatalf("BuildMessage() error = %v", err)
	}
	if msg.Data1 != 0 {
		t.Errorf("Data1 = %d, want 0", msg.Data1)
	}
}

func TestMessageIsEmpty(t *testing.T) {
	if !(Message{Type: MessageEmpty}).IsEmpty() {
		t.Error("empty message should report IsEmpty")
	}
	if (Message{Type: MessageControlChange}).IsEmpty() {
		t.Error("control_change message should not report IsEmpty")
	}

	slot, err := encodeExpressionSlot(Message{Type: MessageEmpty, Channel: 1})
	if err != nil {
		t.Fatalf("encodeExpressionSlot(empty) error = %v", err)
	}
	if slot != ([SlotSize]byte{}) {
		t.Errorf("encodeExpressionSlot(empty) = % X, want zeros", slot)
	}
}

func TestResolveChannel(t *testing.T) {
	tests := []struct {
		message, container, want int
	}{
		{0, 0, 1},
		{0, 5, 5},
		{3, 5, 3},
		{3, 0, 3},
	}
	for _, tt := range tests {
		if got := ResolveChannel(tt.message, tt.container); got != tt.want {
			t.Errorf("ResolveChannel(%d, %d) = %d, want %d", tt.message, tt.container, got, tt.want)
		}
	}
}

// TestEncodeSlot_ControlChange checks a CC 7/64 on channel 2 lands on the wire as expected
func TestEncodeSlot_ControlChange(t *testing.T) {
	msg, err := BuildMessage(MessageControlChange, ControlChange{Number: 7, Value: 64}, 2, TogglePosition1)
	if err != nil {
		t.Fatalf("BuildMessage() error = %v", err)
	}

	slot, err := EncodeSlot(msg, ActionPress)
	if err != nil {
		t.Fatalf("EncodeSlot() error = %v", err)
	}

	want := [SlotSize]byte{2, 7, 64, 0, 2, 1}
	if slot != want {
		t.Errorf("slot = % X, want % X", slot, want)
	}
}

func TestActionBytePacking(t *testing.T) {
	tests := []struct {
		action ActionType
		toggle ToggleMode
		want   byte
	}{
		{ActionPress, TogglePosition1, 2},
		{ActionPress, TogglePosition2, 3},
		{ActionPress, ToggleBoth, 34},
		{ActionNoAction, TogglePosition1, 0},
		{ActionReleaseAll, ToggleBoth, 50},
		{ActionLongPress, TogglePosition2, 7},
	}

	for _, tt := range tests {
		got := packActionByte(tt.action, tt.toggle)
		if got != tt.want {
			t.Errorf("packActionByte(%s, %s) = %d, want %d", tt.action, tt.toggle, got, tt.want)
		}
		a, tog, err := unpackActionByte(got)
		if err != nil {
			t.Fatalf("unpackActionByte(%d) error = %v", got, err)
		}
		if a != tt.action || tog != tt.toggle {
			t.Errorf("unpackActionByte(%d) = %s/%s, want %s/%s", got, a, tog, tt.action, tt.toggle)
		}
	}

	if _, _, err := unpackActionByte(20); !protocol.IsUnknownEnumValue(err) {
		t.Errorf("unpackActionByte(20) error = %v, want unknown enum value", err)
	}
	if _, _, err := unpackActionByte(32 + 20); !protocol.IsUnknownEnumValue(err) {
		t.Errorf("unpackActionByte(52) error = %v, want unknown enum value", err)
	}
}

func TestDecodeSlot(t *testing.T) {
	action, msg, err := DecodeSlot([]byte{7, 1, 28, 0, 35, 4})
	if err != nil {
		t.Fatalf("DecodeSlot() error = %v", err)
	}
	if action != ActionPress {
		t.Errorf("action = %s, want press", action)
	}
	want := Message{Type: MessageMidiClock, Channel: 5, Toggle: ToggleBoth, Data1: 1, Data2: 28}
	if msg != want {
		t.Errorf("message = %v, want %v", msg, want)
	}

	if _, _, err := DecodeSlot([]byte{40, 0, 0, 0, 0, 0}); !protocol.IsUnknownMessageType(err) {
		t.Errorf("DecodeSlot(type 40) error = %v, want unknown message type", err)
	}
	if _, _, err := DecodeSlot([]byte{1, 2, 3}); !protocol.IsFrameFormatError(err) {
		t.Errorf("DecodeSlot(short) error = %v, want frame format error", err)
	}
}

func TestEncodeSlot_RejectsExpressionTypes(t *testing.T) {
	msg := Message{Type: MessageExpressionCC, Channel: 1}
	if _, err := EncodeSlot(msg, ActionPress); !protocol.IsUnknownMessageType(err) {
		t.Errorf("EncodeSlot(expression_cc) error = %v, want unknown message type", err)
	}

	msg = Message{Type: MessageControlChange, Channel: 1}
	if _, err := encodeExpressionSlot(msg); !protocol.IsUnknownMessageType(err) {
		t.Errorf("encodeExpressionSlot(control_change) error = %v, want unknown message type", err)
	}
}

func TestExpressionSlot_RoundTrip(t *testing.T) {
	msg, err := BuildMessage(MessageCCHeelDown, PedalCC{Number: 4, Value: 0}, 3, TogglePosition1)
	if err != nil {
		t.Fatalf("BuildMessage() error = %v", err)
	}
	slot, err := encodeExpressionSlot(msg)
	if err != nil {
		t.Fatalf("encodeExpressionSlot() error = %v", err)
	}
	if slot[0] != 3 {
		t.Errorf("wire ID = %d, want 3", slot[0])
	}
	if slot[4] != 0 {
		t.Errorf("action byte = %d, want 0", slot[4])
	}

	got, err := decodeExpressionSlot(slot[:])
	if err != nil {
		t.Fatalf("decodeExpressionSlot() error = %v", err)
	}
	if got != msg {
		t.Errorf("round trip = %v, want %v", got, msg)
	}
}

// TestMessageParams_RoundTrip checks Params() inverts BuildMessage
func TestMessageParams_RoundTrip(t *testing.T) {
	tests := []struct {
		msgType MessageType
		params  Params
	}{
		{MessageControlChange, ControlChange{Number: 7, Value: 64}},
		{MessageNoteOff, Note{Number: 60, Velocity: 0}},
		{MessageSysex, SysEx{Bytes: []int{0x41, 0x10}}},
		{MessageRealtime, Realtime{Value: "continue"}},
		{MessageMidiClock, MidiClock{BPM: 250, TapMenu: true}},
		{MessageMidiClockTap, NoParams{}},
		{MessagePCScrollUp, PCScroll{Slot: 2, Increment: true, LowerLimit: 1, UpperLimit: 9}},
		{MessagePCScrollDown, PCScroll{LowerLimit: 1, UpperLimit: 9}},
		{MessageExpressionCC, ExpressionCC{Number: 11, Min: 10, Max: 100}},
		{MessageCCToeDown, PedalCC{Number: 81, Value: 127}},
		{MessageToeDownToggleChannel, ToggleChannel{Number: 1, Channel1: 2, Channel2: 3}},
		{MessageToeDownToggleCC, ToggleCC{Number: 5, CC1: 0, CC2: 127}},
		{MessageTogglePreset, Scalar{Value: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.msgType.String(), func(t *testing.T) {
			msg, err := BuildMessage(tt.msgType, tt.params, 1, TogglePosition1)
			if err != nil {
				t.Fatalf("BuildMessage() error = %v", err)
			}
			got, err := msg.Params()
			if err != nil {
				t.Fatalf("Params() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.params) {
				t.Errorf("Params() = %#v, want %#v", got, tt.params)
			}
		})
	}
}
