package protocol

import (
	"bytes"
	"strings"
	"testing"
)

func TestFormatFrame(t *testing.T) {
	got := FormatFrame([]byte{0xF0, 0x00, 0x21, 0x24, 0x0A, 0xF7})
	if want := "F0 00 21 24 0A F7"; got != want {
		t.Errorf("FormatFrame() = %q, want %q", got, want)
	}
	if got := FormatFrame(nil); got != "" {
		t.Errorf("FormatFrame(nil) = %q, want empty", got)
	}
}

func TestParseHexLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    []byte
		wantErr bool
	}{
		{"spaces", "F0 00 21 F7", []byte{0xF0, 0x00, 0x21, 0xF7}, false},
		{"commas and lowercase", "f0,0a, 7f", []byte{0xF0, 0x0A, 0x7F}, false},
		{"prefixed", "0xF0 0x7f", []byte{0xF0, 0x7F}, false},
		{"crlf", "F0 F7\r", []byte{0xF0, 0xF7}, false},
		{"too wide", "F00", nil, true},
		{"not hex", "ZZ", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHexLine(tt.line)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseHexLine() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !IsFrameFormatError(err) {
					t.Errorf("error type = %v, want frame format error", err)
				}
				return
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("ParseHexLine() = % X, want % X", got, tt.want)
			}
		})
	}
}

func TestFormatFrames(t *testing.T) {
	frames := [][]byte{
		{0xF0, 0x00, 0x21, 0x24, 0x03, 0x03, 0x7E, 0xF7},
		{0xF0, 0x0A},
	}
	want := "F0 00 21 24 03 03 7E F7\nF0 0A"
	if got := FormatFrames(frames); got != want {
		t.Errorf("FormatFrames() = %q, want %q", got, want)
	}
}

func TestParseDump(t *testing.T) {
	built := [][]byte{
		BuildFrame([]byte{0x02, 0x02}),
		BuildFrame([]byte{0x01, 0x11}),
	}

	tests := []struct {
		name    string
		input   string
		want    [][]byte
		wantErr bool
	}{
		{
			name:  "comments and blank lines",
			input: "# captured from the controller\n\n" + FormatFrames(built) + "\n\n",
			want:  built,
		},
		{
			name:  "mixed separators",
			input: "# captured dump\nF0 00 21 24 03 03 7E F7\n\nf0,0a\n",
			want: [][]byte{
				{0xF0, 0x00, 0x21, 0x24, 0x03, 0x03, 0x7E, 0xF7},
				{0xF0, 0x0A},
			},
		},
		{
			name:    "invalid hex",
			input:   "F0 ZZ F7",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDump(strings.NewReader(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDump() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseDump() returned %d frames, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if !bytes.Equal(got[i], tt.want[i]) {
					t.Errorf("frame %d = % X, want % X", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFormatParse_RoundTrip(t *testing.T) {
	frames := [][]byte{
		BuildFrame([]byte{0x02, 0x02, 0, 0, 0, 0, 0, 0, 0, 0}),
		BuildFrame(append([]byte{0x01, 0x06, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, EncodeText("TestBank", LongNameWidth)...)),
	}

	parsed, err := ParseDump(strings.NewReader(FormatFrames(frames)))
	if err != nil {
		t.Fatalf("ParseDump() error = %v", err)
	}
	if len(parsed) != len(frames) {
		t.Fatalf("ParseDump() returned %d frames, want %d", len(parsed), len(frames))
	}
	for i := range frames {
		if !bytes.Equal(parsed[i], frames[i]) {
			t.Errorf("frame %d = % X, want % X", i, parsed[i], frames[i])
		}
	}
}

func TestParseDump_ReportsLine(t *testing.T) {
	_, err := ParseDump(strings.NewReader("F0 F7\n\nF0 XX F7\n"))
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Errorf("ParseDump() error = %v, want line 3", err)
	}
}

func TestIsBinaryDump(t *testing.T) {
	tests := []struct {
		data []byte
		want bool
	}{
		{[]byte{0xF0, 0x00}, true},
		{[]byte("F0 00 21"), false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := IsBinaryDump(tt.data); got != tt.want {
			t.Errorf("IsBinaryDump(% X) = %v, want %v", tt.data, got, tt.want)
		}
	}
}
