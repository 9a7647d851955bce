package bankfile

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/muurk/mc6sysex/internal/bank"
	"github.com/muurk/mc6sysex/internal/protocol"
)

const sampleYAML = `
bank:
  name: Live Set
  presets:
    A:
      name: DRIVE
      toggle_name: CLEAN
      long_name: Overdrive channel
      toggle_mode: true
      actions:
        - type: press
          channel: 2
          control_change: {number: 7, value: 64}
          messages:
            - program_change: 5
              channel: 3
              toggle_position: 2
            - midi_clock: {bpm: 128, tap_menu: true}
            - note_on: {number: 60, velocity: 100, channel: 9}
              channel: 4
        - type: long_press
          messages:
            - realtime: start
              toggle_position: Both
            - sysex: [0x41, 0x10]
    C:
      name: LOOP
      blink_mode: true
      actions:
        - type: double_tap
          pc_scroll_up: {slot: 2, increment: true, lower_limit: 0, upper_limit: 10}
    expression1:
      name: VOL
      messages:
        - expression_cc: {number: 11, min: 0, max: 127}
          channel: 5
`

func TestLoad(t *testing.T) {
	b, err := Load(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if b.Name != "Live Set" {
		t.Errorf("Name = %q, want %q", b.Name, "Live Set")
	}

	a := b.Presets[0]
	if a.Name != "DRIVE" || a.ToggleName != "CLEAN" || a.LongName != "Overdrive channel" {
		t.Errorf("preset A names = %q/%q/%q", a.Name, a.ToggleName, a.LongName)
	}
	if !a.ToggleMode || a.BlinkMode {
		t.Errorf("preset A flags = toggle %v blink %v", a.ToggleMode, a.BlinkMode)
	}
	if len(a.Actions) != 2 {
		t.Fatalf("preset A has %d actions, want 2", len(a.Actions))
	}

	press := a.Actions[0]
	if press.Type != bank.ActionPress || len(press.Messages) != 4 {
		t.Fatalf("action 1 = %s with %d messages", press.Type, len(press.Messages))
	}

	tests := []struct {
		name string
		got  bank.Message
		want bank.Message
	}{
		{
			name: "inline cc takes action channel",
			got:  press.Messages[0],
			want: bank.Message{Type: bank.MessageControlChange, Channel: 2, Data1: 7, Data2: 64},
		},
		{
			name: "entry channel and toggle",
			got:  press.Messages[1],
			want: bank.Message{Type: bank.MessageProgramChange, Channel: 3, Toggle: bank.TogglePosition2, Data1: 5},
		},
		{
			name: "midi clock",
			got:  press.Messages[2],
			want: bank.Message{Type: bank.MessageMidiClock, Channel: 2, Data1: 1, Data2: 28, Data3: 1},
		},
		{
			name: "value channel wins",
			got:  press.Messages[3],
			want: bank.Message{Type: bank.MessageNoteOn, Channel: 9, Data1: 60, Data2: 100},
		},
		{
			name: "realtime both",
			got:  a.Actions[1].Messages[0],
			want: bank.Message{Type: bank.MessageRealtime, Channel: 1, Toggle: bank.ToggleBoth, Data1: 1},
		},
		{
			name: "sysex",
			got:  a.Actions[1].Messages[1],
			want: bank.Message{Type: bank.MessageSysex, Channel: 1, Data1: 0x41, Data2: 0x10},
		},
		{
			name: "pc scroll",
			got:  b.Presets[2].Actions[0].Messages[0],
			want: bank.Message{Type: bank.MessagePCScrollUp, Channel: 1, Data1: 17, Data3: 10},
		},
		{
			name: "expression cc",
			got:  b.ExpressionPresets[0].Messages[0],
			want: bank.Message{Type: bank.MessageExpressionCC, Channel: 5, Data1: 11, Data3: 127},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("message = %v, want %v", tt.got, tt.want)
			}
		})
	}

	if b.Presets[1].Name != bank.DefaultPresetName {
		t.Errorf("unlisted preset B name = %q, want default", b.Presets[1].Name)
	}
	if b.ExpressionPresets[0].Name != "VOL" || b.ExpressionPresets[0].ToggleName != bank.DefaultExpressionName {
		t.Errorf("expression1 names = %q/%q", b.ExpressionPresets[0].Name, b.ExpressionPresets[0].ToggleName)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(error) bool
	}{
		{
			name:  "empty document",
			input: "",
			check: protocol.IsValidationError,
		},
		{
			name:  "no bank",
			input: "other: 1\n",
		},
		{
			name:  "unknown preset key",
			input: "bank:\n  name: x\n  presets:\n    M:\n      name: y\n",
			check: protocol.IsValidationError,
		},
		{
			name:  "unknown action type",
			input: "bank:\n  name: x\n  presets:\n    A:\n      actions:\n        - type: triple_tap\n",
			check: protocol.IsUnknownEnumValue,
		},
		{
			name:  "action without type",
			input: "bank:\n  name: x\n  presets:\n    A:\n      actions:\n        - program_change: 1\n",
			check: protocol.IsValidationError,
		},
		{
			name:  "unknown message key",
			input: "bank:\n  name: x\n  presets:\n    A:\n      actions:\n        - type: press\n          messages:\n            - real_time: start\n",
			check: protocol.IsValidationError,
		},
		{
			name:  "unknown realtime value",
			input: "bank:\n  name: x\n  presets:\n    A:\n      actions:\n        - type: press\n          realtime: pause\n",
			check: protocol.IsUnknownEnumValue,
		},
		{
			name:  "expression type in preset",
			input: "bank:\n  name: x\n  presets:\n    A:\n      actions:\n        - type: press\n          expression_cc: {number: 1}\n",
			check: protocol.IsUnknownMessageType,
		},
		{
			name:  "preset type in expression",
			input: "bank:\n  name: x\n  presets:\n    expression2:\n      messages:\n        - program_change: 1\n",
			check: protocol.IsUnknownMessageType,
		},
		{
			name:  "channel out of range",
			input: "bank:\n  name: x\n  presets:\n    A:\n      actions:\n        - type: press\n          channel: 17\n          program_change: 1\n",
			check: protocol.IsValidationError,
		},
		{
			name:  "scalar where mapping expected",
			input: "bank:\n  name: x\n  presets:\n    A:\n      actions:\n        - type: press\n          control_change: 7\n",
			check: protocol.IsValidationError,
		},
		{
			name:  "misspelled params field",
			input: "bank:\n  name: x\n  presets:\n    A:\n      actions:\n        - type: press\n          control_change: {nubmer: 7, value: 64}\n",
			check: protocol.IsValidationError,
		},
		{
			name:  "misspelled expression params field",
			input: "bank:\n  name: x\n  presets:\n    expression1:\n      messages:\n        - expression_cc: {number: 7, minimum: 0}\n",
			check: protocol.IsValidationError,
		},
		{
			name:  "preset named twice",
			input: "bank:\n  name: x\n  presets:\n    a:\n      name: one\n    A:\n      name: two\n",
			check: protocol.IsValidationError,
		},
		{
			name:  "expression named twice",
			input: "bank:\n  name: x\n  presets:\n    expression1:\n      name: one\n    EXPRESSION1:\n      name: two\n",
			check: protocol.IsValidationError,
		},
		{
			name:  "scroll increment without slot",
			input: "bank:\n  name: x\n  presets:\n    A:\n      actions:\n        - type: press\n          pc_scroll_up: {increment: true, upper_limit: 10}\n",
			check: protocol.IsValidationError,
		},
		{
			name:  "unknown preset field",
			input: "bank:\n  name: x\n  presets:\n    A:\n      colour: red\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("Load() expected error, got nil")
			}
			if tt.check != nil && !tt.check(err) {
				t.Errorf("unexpected error class: %v", err)
			}
		})
	}
}

func TestLoad_TooManyMessagesFailsOnEncode(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("bank:\n  name: x\n  presets:\n    B:\n      actions:\n        - type: press\n          messages:\n")
	for i := 0; i < 17; i++ {
		sb.WriteString("            - program_change: 1\n")
	}

	b, err := Load(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := b.Encode(); !protocol.IsTooManyMessages(err) {
		t.Errorf("Encode() error = %v, want too many messages", err)
	}
}

func TestLoadAll(t *testing.T) {
	input := `
banks:
  - name: First
  - name: Second
    presets:
      L:
        name: LAST
`
	banks, err := LoadAll(strings.NewReader(input))
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(banks) != 2 {
		t.Fatalf("LoadAll() returned %d banks, want 2", len(banks))
	}
	if banks[0].Name != "First" || banks[1].Name != "Second" {
		t.Errorf("bank names = %q, %q", banks[0].Name, banks[1].Name)
	}
	if banks[1].Presets[11].Name != "LAST" {
		t.Errorf("preset L name = %q, want LAST", banks[1].Presets[11].Name)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.yml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	b, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if b.Name != "Live Set" {
		t.Errorf("Name = %q", b.Name)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("LoadFile() expected error for missing file")
	}
}

// TestMarshal_RoundTrip checks a decoded bank survives YAML and re-encodes
// to the same frames
func TestMarshal_RoundTrip(t *testing.T) {
	original, err := Load(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	frames, err := original.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	decoded, err := bank.Decode(frames)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	out, err := Marshal(decoded.Bank)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	for _, s := range []string{"name: Live Set", "toggle_position: both", "bpm: 128", `name: " EMPTY"`, "expression2:"} {
		if !bytes.Contains(out, []byte(s)) {
			t.Errorf("Marshal() output missing %q\n%s", s, out)
		}
	}

	reloaded, err := Load(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("Load(Marshal()) error = %v\n%s", err, out)
	}
	again, err := reloaded.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if len(again) != len(frames) {
		t.Fatalf("re-encoded %d frames, want %d", len(again), len(frames))
	}
	for i := range frames {
		if !bytes.Equal(again[i], frames[i]) {
			t.Errorf("frame %d differs\n got: % X\nwant: % X", i, again[i], frames[i])
		}
	}
}
