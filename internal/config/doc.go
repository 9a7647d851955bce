// Package config provides user configuration management for mc6sysex.
//
// This package manages a YAML-based configuration file that stores
// application preferences (default MIDI device, relay address, output
// format) and metadata about the controllers a bank was last sent to.
// Command line flags override stored preferences.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/mc6sysex/config.yaml or $HOME/.config/mc6sysex/config.yaml
//   - macOS: $HOME/.config/mc6sysex/config.yaml
//   - Windows: %LOCALAPPDATA%\mc6sysex\config.yaml
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	registry.Preferences.MIDIDevice = "Morningstar MC6MK2"
//	registry.RecordSend("Morningstar MC6MK2", "Live Set", "")
//
//	// Save changes atomically
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
