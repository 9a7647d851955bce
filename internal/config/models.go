package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Output formats for decoded banks
const (
	FormatYAML    = "yaml"
	FormatSummary = "summary"
)

// Registry represents the entire user configuration file.
// This stores application preferences and metadata for known devices.
type Registry struct {
	Version     int                `yaml:"version"`
	Devices     map[string]*Device `yaml:"devices,omitempty"` // Keyed by MIDI port name
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// Device represents user-defined metadata for a single controller, keyed by
// the MIDI port name it appears under.
type Device struct {
	Nickname string    `yaml:"nickname,omitempty"`  // User-friendly name
	RelayURL string    `yaml:"relay_url,omitempty"` // Relay the device was last reached through
	LastSeen time.Time `yaml:"last_seen,omitempty"` // Last send or discovery time
	LastBank string    `yaml:"last_bank,omitempty"` // Name of the last bank sent
}

// Preferences represents application-wide user preferences.
// Command line flags take precedence over these values.
type Preferences struct {
	MIDIDevice      string `yaml:"midi_device,omitempty"`    // Output port name; empty selects the default device
	RelayURL        string `yaml:"relay_url,omitempty"`      // Default relay for --send
	RelayPort       int    `yaml:"relay_port"`               // Listen port for mc6-relay
	OutputFormat    string `yaml:"output_format"`            // Decode output: yaml or summary
	DiscoverTimeout int    `yaml:"discover_timeout"`         // mDNS discovery timeout in seconds
	FrameDelayMS    int    `yaml:"frame_delay_ms,omitempty"` // Pause between frames when sending
}

// DefaultPreferences returns the preferences used when none are stored.
func DefaultPreferences() *Preferences {
	return &Preferences{
		RelayPort:       8765,
		OutputFormat:    FormatYAML,
		DiscoverTimeout: 5,
	}
}

// Validate checks preference values.
func (p *Preferences) Validate() error {
	switch strings.ToLower(p.OutputFormat) {
	case "", FormatYAML, FormatSummary:
	default:
		return fmt.Errorf("invalid output_format %q (expected %s or %s)", p.OutputFormat, FormatYAML, FormatSummary)
	}
	if p.RelayPort < 0 || p.RelayPort > 65535 {
		return fmt.Errorf("invalid relay_port %d", p.RelayPort)
	}
	if p.DiscoverTimeout < 0 {
		return fmt.Errorf("invalid discover_timeout %d", p.DiscoverTimeout)
	}
	if p.FrameDelayMS < 0 {
		return fmt.Errorf("invalid frame_delay_ms %d", p.FrameDelayMS)
	}
	return nil
}

// PreferenceKeys lists the keys accepted by Set, in file order.
var PreferenceKeys = []string{"midi_device", "relay_url", "relay_port", "output_format", "discover_timeout", "frame_delay_ms"}

// Set assigns one preference from its file key and a string value.
// The result is validated; on error p is unchanged.
func (p *Preferences) Set(key, value string) error {
	next := *p

	atoi := func() (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("%s must be a number, got %q", key, value)
		}
		return n, nil
	}

	var err error
	switch key {
	case "midi_device":
		next.MIDIDevice = value
	case "relay_url":
		next.RelayURL = value
	case "relay_port":
		next.RelayPort, err = atoi()
	case "output_format":
		next.OutputFormat = strings.ToLower(value)
	case "discover_timeout":
		next.DiscoverTimeout, err = atoi()
	case "frame_delay_ms":
		next.FrameDelayMS, err = atoi()
	default:
		return fmt.Errorf("unknown preference %q (expected one of %s)", key, strings.Join(PreferenceKeys, ", "))
	}
	if err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}

	*p = next
	return nil
}

// Get returns one preference as a string.
func (p *Preferences) Get(key string) (string, error) {
	switch key {
	case "midi_device":
		return p.MIDIDevice, nil
	case "relay_url":
		return p.RelayURL, nil
	case "relay_port":
		return strconv.Itoa(p.RelayPort), nil
	case "output_format":
		return p.OutputFormat, nil
	case "discover_timeout":
		return strconv.Itoa(p.DiscoverTimeout), nil
	case "frame_delay_ms":
		return strconv.Itoa(p.FrameDelayMS), nil
	}
	return "", fmt.Errorf("unknown preference %q", key)
}

// FrameDelay returns FrameDelayMS as a duration.
func (p *Preferences) FrameDelay() time.Duration {
	return time.Duration(p.FrameDelayMS) * time.Millisecond
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     registryVersion,
		Devices:     make(map[string]*Device),
		Preferences: DefaultPreferences(),
	}
}

// GetDevice retrieves device metadata by port name.
// Returns nil if the device doesn't exist in the registry.
func (r *Registry) GetDevice(port string) *Device {
	return r.Devices[port]
}

// EnsureDevice ensures a device entry exists in the registry.
// Returns the device entry (existing or newly created).
func (r *Registry) EnsureDevice(port string) *Device {
	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}

	if device, exists := r.Devices[port]; exists {
		return device
	}

	device := &Device{}
	r.Devices[port] = device
	return device
}

// RecordSend notes that a bank was sent to a device, directly or through a relay.
func (r *Registry) RecordSend(port, bankName, relayURL string) {
	device := r.EnsureDevice(port)
	device.LastSeen = time.Now()
	device.LastBank = bankName
	if relayURL != "" {
		device.RelayURL = relayURL
	}
}

// SetDeviceNickname sets a user-friendly nickname for a device.
func (r *Registry) SetDeviceNickname(port, nickname string) {
	device := r.EnsureDevice(port)
	device.Nickname = nickname
}
