package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"

	"github.com/muurk/mc6sysex/internal/relay"
	"github.com/muurk/mc6sysex/internal/transport"
)

// relay.toml key mapping to relay and MIDI settings.
type fileConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	Path         string `toml:"path"`
	MIDIDevice   string `toml:"midi_device"`
	Advertise    bool   `toml:"advertise"`
	Name         string `toml:"name"`
	CertFile     string `toml:"tls_cert_file"`
	KeyFile      string `toml:"tls_key_file"`
	FrameDelayMS int    `toml:"frame_delay_ms"`
}

// serveSettings is everything runServe needs before opening the device.
type serveSettings struct {
	relay relay.Config
	midi  transport.MIDIConfig
}

// loadServeConfig overlays the keys defined in a relay.toml onto s.
func loadServeConfig(path string, s *serveSettings) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load relay config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load relay config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("host") {
		s.relay.Host = strings.TrimSpace(raw.Host)
	}
	if meta.IsDefined("port") {
		s.relay.Port = raw.Port
	}
	if meta.IsDefined("path") {
		s.relay.Path = strings.TrimSpace(raw.Path)
	}
	if meta.IsDefined("midi_device") {
		s.midi.DeviceName = strings.TrimSpace(raw.MIDIDevice)
	}
	if meta.IsDefined("advertise") {
		s.relay.Advertise = raw.Advertise
	}
	if meta.IsDefined("name") {
		s.relay.InstanceName = strings.TrimSpace(raw.Name)
	}
	if meta.IsDefined("tls_cert_file") {
		s.relay.CertPath = strings.TrimSpace(raw.CertFile)
	}
	if meta.IsDefined("tls_key_file") {
		s.relay.KeyPath = strings.TrimSpace(raw.KeyFile)
	}
	if meta.IsDefined("frame_delay_ms") {
		if raw.FrameDelayMS < 0 {
			return fmt.Errorf("load relay config: invalid frame_delay_ms %d", raw.FrameDelayMS)
		}
		s.midi.FrameDelay = time.Duration(raw.FrameDelayMS) * time.Millisecond
	}
	return nil
}

// applyFlags overlays the flags set on the command line onto s.
func applyFlags(flags *pflag.FlagSet, s *serveSettings) {
	if flags.Changed("host") {
		s.relay.Host = host
	}
	if flags.Changed("port") {
		s.relay.Port = port
	}
	if flags.Changed("path") {
		s.relay.Path = path
	}
	if flags.Changed("midi-device") {
		s.midi.DeviceName = midiDevice
	}
	if flags.Changed("advertise") {
		s.relay.Advertise = advertise
	}
	if flags.Changed("name") {
		s.relay.InstanceName = instanceName
	}
	if flags.Changed("cert") {
		s.relay.CertPath = certPath
	}
	if flags.Changed("key") {
		s.relay.KeyPath = keyPath
	}
	if flags.Changed("frame-delay") && frameDelay >= 0 {
		s.midi.FrameDelay = time.Duration(frameDelay) * time.Millisecond
	}
}

// validate checks settings that flags and files can each get wrong.
func (s *serveSettings) validate() error {
	if (s.relay.CertPath == "") != (s.relay.KeyPath == "") {
		return fmt.Errorf("TLS needs both a certificate and a key, or neither")
	}
	if s.relay.Port < 0 || s.relay.Port > 65535 {
		return fmt.Errorf("invalid port %d", s.relay.Port)
	}
	if s.relay.Path == "" || s.relay.Path[0] != '/' {
		return fmt.Errorf("invalid path %q (must start with /)", s.relay.Path)
	}
	return nil
}
