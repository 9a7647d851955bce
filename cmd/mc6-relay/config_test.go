package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/muurk/mc6sysex/internal/relay"
	"github.com/muurk/mc6sysex/internal/transport"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relay.toml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func defaultSettings() serveSettings {
	return serveSettings{
		relay: relay.Config{Port: relay.DefaultPort, Path: relay.DefaultPath},
		midi:  transport.MIDIConfig{DeviceName: "Pref Port", Listen: true},
	}
}

func TestLoadServeConfig(t *testing.T) {
	path := writeConfig(t, `
host = "127.0.0.1"
port = 9000
midi_device = "Morningstar MC6MK2 MIDI 1"
advertise = true
name = "stage-left"
frame_delay_ms = 20
`)

	s := defaultSettings()
	if err := loadServeConfig(path, &s); err != nil {
		t.Fatalf("loadServeConfig() error = %v", err)
	}

	if s.relay.Host != "127.0.0.1" || s.relay.Port != 9000 {
		t.Errorf("listen = %s:%d", s.relay.Host, s.relay.Port)
	}
	if s.relay.Path != relay.DefaultPath {
		t.Errorf("Path = %q, undefined keys should keep defaults", s.relay.Path)
	}
	if !s.relay.Advertise || s.relay.InstanceName != "stage-left" {
		t.Errorf("advertise = %v, name = %q", s.relay.Advertise, s.relay.InstanceName)
	}
	if s.midi.DeviceName != "Morningstar MC6MK2 MIDI 1" || s.midi.FrameDelay != 20*time.Millisecond {
		t.Errorf("midi = %+v", s.midi)
	}
	if !s.midi.Listen {
		t.Error("Listen should stay set")
	}
}

func TestLoadServeConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", "colour = \"red\"\n", "unknown key"},
		{"bad syntax", "port = \n", "load relay config"},
		{"negative delay", "frame_delay_ms = -1\n", "frame_delay_ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := defaultSettings()
			err := loadServeConfig(writeConfig(t, tt.content), &s)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("loadServeConfig() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestApplyFlags(t *testing.T) {
	defer func(h string, p int) { host, port = h, p }(host, port)

	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flags.StringVar(&host, "host", "", "")
	flags.IntVar(&port, "port", relay.DefaultPort, "")
	if err := flags.Parse([]string{"--port", "9100"}); err != nil {
		t.Fatal(err)
	}

	s := defaultSettings()
	s.relay.Host = "10.0.0.2"
	applyFlags(flags, &s)

	if s.relay.Port != 9100 {
		t.Errorf("Port = %d, want 9100", s.relay.Port)
	}
	if s.relay.Host != "10.0.0.2" {
		t.Errorf("Host = %q, unset flags should not override", s.relay.Host)
	}
}

func TestServeSettingsValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*serveSettings)
		wantErr bool
	}{
		{"defaults", func(s *serveSettings) {}, false},
		{"cert without key", func(s *serveSettings) { s.relay.CertPath = "relay.crt" }, true},
		{"cert and key", func(s *serveSettings) { s.relay.CertPath, s.relay.KeyPath = "a", "b" }, false},
		{"bad port", func(s *serveSettings) { s.relay.Port = 70000 }, true},
		{"relative path", func(s *serveSettings) { s.relay.Path = "sysex" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := defaultSettings()
			tt.modify(&s)
			if err := s.validate(); (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
