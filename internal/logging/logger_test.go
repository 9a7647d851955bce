package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"INFO", zapcore.InfoLevel, false},
		{"warning", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestInitialize_SilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	if err := InitializeFromEnv(); err != nil {
		t.Fatalf("InitializeFromEnv() error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("logger should be silent when MC6_LOG_LEVEL is unset")
	}
}

func TestInitialize_FromEnv(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "warn")
	if err := InitializeFromEnv(); err != nil {
		t.Fatalf("InitializeFromEnv() error = %v", err)
	}
	defer SetLogger(zap.NewNop())

	if !GetLogger().Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn should be enabled")
	}
	if GetLogger().Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
}

func TestLogFrame(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(zap.NewNop())

	LogFrame(DirectionOut, []byte{0xF0, 0x00, 0x21, 0x24, 0x03, 0x03, 0x01, 0x07, 0x05, 0xF7})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["direction"] != DirectionOut {
		t.Errorf("direction = %v, want %v", fields["direction"], DirectionOut)
	}
	if fields["tag"] != "01 07" {
		t.Errorf("tag = %v, want 01 07", fields["tag"])
	}
	if fields["hex"] != "f00021240303010705f7" {
		t.Errorf("hex = %v", fields["hex"])
	}
}

func TestLogFrame_SkippedAboveDebug(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core))
	defer SetLogger(zap.NewNop())

	LogFrame(DirectionIn, []byte{0xF0, 0xF7})
	if logs.Len() != 0 {
		t.Errorf("got %d log entries, want 0", logs.Len())
	}
}

func TestAsciiDump(t *testing.T) {
	if got := asciiDump([]byte{'A', 0x00, 'b', 0x7F}); got != "A.b." {
		t.Errorf("asciiDump() = %q, want %q", got, "A.b.")
	}
}
