package bank

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/muurk/mc6sysex/internal/protocol"
)

// sampleBank returns a bank with a mix of configured and default presets
func sampleBank(t *testing.T) *Bank {
	t.Helper()
	b := NewBank("TestBank")

	b.Presets[0].Name = "DRIVE   "
	b.Presets[0].ToggleMode = true
	b.Presets[0].Actions = []Action{
		{Type: ActionPress, Messages: []Message{
			mustBuild(t, MessageControlChange, ControlChange{Number: 7, Value: 64}, 2, TogglePosition1),
			mustBuild(t, MessageProgramChange, Scalar{Value: 12}, 2, TogglePosition2),
		}},
		{Type: ActionLongPress, Messages: []Message{
			mustBuild(t, MessagePCScrollUp, PCScroll{Slot: 1, Increment: true, UpperLimit: 10}, 1, ToggleBoth),
		}},
	}

	b.Presets[11].BlinkMode = true
	b.Presets[11].Actions = []Action{
		{Type: ActionDoubleTap, Messages: []Message{
			mustBuild(t, MessageMidiClock, MidiClock{BPM: 128}, 1, TogglePosition1),
		}},
	}

	b.ExpressionPresets[0].Messages = []Message{
		mustBuild(t, MessageExpressionCC, ExpressionCC{Number: 11, Min: 0, Max: 127}, 1, TogglePosition1),
	}
	return b
}

func TestBankEncode_DefaultBank(t *testing.T) {
	frames, err := NewBank("TestBank").Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(frames) != 18 {
		t.Fatalf("Encode() returned %d frames, want 18", len(frames))
	}

	want1 := protocol.BuildFrame([]byte{0x02, 0x02, 0, 0, 0, 0, 0, 0, 0, 0})
	if !bytes.Equal(frames[0], want1) {
		t.Errorf("header 1 = % X, want % X", frames[0], want1)
	}
	want2 := protocol.BuildFrame([]byte{0x01, 0x11, 0, 0, 0, 0, 0, 0, 0, 0})
	if !bytes.Equal(frames[1], want2) {
		t.Errorf("header 2 = % X, want % X", frames[1], want2)
	}

	name, err := protocol.ParseFrame(frames[2])
	if err != nil {
		t.Fatalf("ParseFrame(name) error = %v", err)
	}
	if got := string(name.Payload[12:]); got != "TestBank                " {
		t.Errorf("bank name = %q", got)
	}

	for i, f := range frames {
		if f[0] != 0xF0 || f[len(f)-1] != 0xF7 {
			t.Errorf("frame %d is not delimited by F0/F7", i)
		}
		if _, err := protocol.ParseFrame(f); err != nil {
			t.Errorf("frame %d: %v", i, err)
		}
	}

	for i := 0; i < NumPresets; i++ {
		p, _ := protocol.ParseFrame(frames[3+i])
		if p.Payload[1] != 0x07 || p.Payload[3] != byte(i) {
			t.Errorf("preset frame %d has tag %02X id %d", i, p.Payload[1], p.Payload[3])
		}
	}
	for i := 0; i < NumExpressionPresets; i++ {
		p, _ := protocol.ParseFrame(frames[15+i])
		if p.Payload[1] != 0x08 || p.Payload[3] != byte(i) {
			t.Errorf("expression frame %d has tag %02X id %d", i, p.Payload[1], p.Payload[3])
		}
	}
}

func TestBankEncode_Trailer(t *testing.T) {
	frames, err := sampleBank(t).Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	trailer, err := protocol.ParseFrame(frames[len(frames)-1])
	if err != nil {
		t.Fatalf("ParseFrame(trailer) error = %v", err)
	}
	if trailer.Payload[0] != 0x7E || trailer.Payload[1] != 0x00 {
		t.Errorf("trailer tag = %02X %02X, want 7E 00", trailer.Payload[0], trailer.Payload[1])
	}

	agg := byte(0xF0)
	for _, f := range frames[:len(frames)-1] {
		agg ^= f[len(f)-2]
	}
	agg &= 0x7F
	if trailer.Payload[2] != agg {
		t.Errorf("aggregate checksum = 0x%02X, want 0x%02X", trailer.Payload[2], agg)
	}
	if len(trailer.Payload) != 10 {
		t.Errorf("trailer payload length = %d, want 10", len(trailer.Payload))
	}
}

func TestBankEncode_AbortsOnPresetError(t *testing.T) {
	b := NewBank("Broken")
	b.Presets[3] = presetWithMessages(t, 17)
	b.Presets[3].ID = 3

	frames, err := b.Encode()
	if err == nil {
		t.Fatal("Encode() expected error, got nil")
	}
	if frames != nil {
		t.Error("Encode() should not return partial output")
	}
	if !protocol.IsTooManyMessages(err) {
		t.Errorf("Encode() error = %v, want too many messages", err)
	}
	if !strings.Contains(err.Error(), "preset D") {
		t.Errorf("Encode() error = %q, should name preset D", err.Error())
	}
}

func TestBank_RoundTrip(t *testing.T) {
	want := sampleBank(t)
	want.Name = "TestBank                "
	for i := range want.Presets {
		want.Presets[i].Name = padName(want.Presets[i].Name, 8)
		want.Presets[i].ToggleName = padName(want.Presets[i].ToggleName, 8)
		want.Presets[i].LongName = padName(want.Presets[i].LongName, 24)
	}
	for i := range want.ExpressionPresets {
		want.ExpressionPresets[i].Name = padName(want.ExpressionPresets[i].Name, 8)
		want.ExpressionPresets[i].ToggleName = padName(want.ExpressionPresets[i].ToggleName, 8)
		want.ExpressionPresets[i].LongName = padName(want.ExpressionPresets[i].LongName, 24)
	}

	frames, err := want.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	result, err := Decode(frames)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("Decode() warnings = %v, want none", result.Warnings)
	}
	if !reflect.DeepEqual(result.Bank, want) {
		t.Errorf("round trip mismatch\n got: %+v\nwant: %+v", result.Bank, want)
	}
}

func padName(s string, width int) string {
	return string(protocol.EncodeText(s, width))
}

func TestDecode_Warnings(t *testing.T) {
	encode := func() [][]byte {
		frames, err := sampleBank(t).Encode()
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
		return frames
	}

	tests := []struct {
		name   string
		mutate func([][]byte) [][]byte
		want   string
	}{
		{
			name: "headers swapped",
			mutate: func(f [][]byte) [][]byte {
				f[0], f[1] = f[1], f[0]
				return f
			},
			want: "out of order",
		},
		{
			name: "trailer mismatch",
			mutate: func(f [][]byte) [][]byte {
				wrong := AggregateChecksum(f[:17]) ^ 0x01
				f[17] = protocol.BuildFrame([]byte{0x7E, 0x00, wrong, 0, 0, 0, 0, 0, 0, 0})
				return f
			},
			want: "trailer checksum",
		},
		{
			name: "no trailer",
			mutate: func(f [][]byte) [][]byte {
				return f[:17]
			},
			want: "no trailer",
		},
		{
			name: "extra frames",
			mutate: func(f [][]byte) [][]byte {
				return append(f, protocol.BuildFrame([]byte{0x02, 0x02}))
			},
			want: "after trailer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Decode(tt.mutate(encode()))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			found := false
			for _, w := range result.Warnings {
				if strings.Contains(w, tt.want) {
					found = true
				}
			}
			if !found {
				t.Errorf("warnings = %v, want one containing %q", result.Warnings, tt.want)
			}
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	frames, err := sampleBank(t).Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	tests := []struct {
		name   string
		frames [][]byte
	}{
		{"empty", nil},
		{"truncated", frames[:10]},
		{"missing headers", frames[2:]},
		{"preset in expression position", append(append([][]byte{}, frames[:15]...), frames[3], frames[4], frames[17])},
		{"corrupt checksum", func() [][]byte {
			f := append([][]byte{}, frames...)
			bad := append([]byte(nil), f[5]...)
			bad[20] ^= 0x01
			f[5] = bad
			return f
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Decode(tt.frames)
			if err == nil {
				t.Fatal("Decode() expected error, got nil")
			}
			if result != nil {
				t.Error("Decode() should not return a partial result")
			}
			if !protocol.IsFrameFormatError(err) {
				t.Errorf("Decode() error = %v, want frame format error", err)
			}
		})
	}
}

func TestAggregateChecksum(t *testing.T) {
	if got := AggregateChecksum(nil); got != 0x70 {
		t.Errorf("AggregateChecksum(nil) = 0x%02X, want 0x70", got)
	}
	frames := [][]byte{{0xF0, 0x11, 0xF7}, {0xF0, 0x22, 0xF7}}
	if got := AggregateChecksum(frames); got != (0xF0^0x11^0x22)&0x7F {
		t.Errorf("AggregateChecksum() = 0x%02X", got)
	}
}

func TestBankSummary(t *testing.T) {
	got := sampleBank(t).Summary()
	want := `Bank "TestBank": 2/12 presets configured, 4 messages`
	if got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}

	detailed := sampleBank(t).FormatDetailed()
	for _, s := range []string{"Preset A", "bpm=128", "slot=1 increment", "toggle=both", "Expression 1"} {
		if !strings.Contains(detailed, s) {
			t.Errorf("FormatDetailed() missing %q", s)
		}
	}
}
