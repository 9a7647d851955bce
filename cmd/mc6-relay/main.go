// Mc6-relay exposes a local MC6 Mk2 MIDI port to other machines over WebSocket.
//
// The relay opens the controller's MIDI port and accepts one WebSocket client
// at a time. Each binary message from the client is one sysex frame sent to
// the controller; sysex received from the controller is forwarded back. The
// relay can advertise itself over mDNS so that 'mc6-cfg scan' finds it.
//
// Usage:
//
//	mc6-relay serve [flags]
//
// See 'mc6-relay serve --help' for available options.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/mc6sysex/internal/config"
	"github.com/muurk/mc6sysex/internal/logging"
	"github.com/muurk/mc6sysex/internal/relay"
	"github.com/muurk/mc6sysex/internal/transport"
	"github.com/muurk/mc6sysex/internal/ui"
	"github.com/muurk/mc6sysex/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mc6-relay",
	Short: "MC6 Mk2 WebSocket Relay",
	Long: `A WebSocket relay between a Morningstar MC6 Mk2 MIDI port and a remote client.

Run it on the machine the controller is plugged into, then send banks from
another machine with 'mc6-cfg encode --send --relay ws://host:8765/sysex'.

Note: For encoding and decoding banks, use the separate 'mc6-cfg' utility.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Serve command and flags
var (
	host         string
	port         int
	path         string
	midiDevice   string
	advertise    bool
	instanceName string
	logLevel     string
	frameDelay   int
	certPath     string
	keyPath      string
	configPath   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the relay server",
	Long: `Start the relay and forward sysex between one WebSocket client and the controller.

The MIDI port is chosen by --midi-device. Without it the relay picks a port
named "` + transport.DefaultDeviceName + `", or the only port present.

Only one client is served at a time; a second client is refused with
HTTP 409 until the first disconnects. Frames from the controller are
dropped while no client is connected.`,
	Example: `  # Start on the default port with the default controller
  mc6-relay serve

  # Advertise over mDNS for 'mc6-cfg scan'
  mc6-relay serve --advertise --name pedalboard

  # Serve wss:// with your own certificate
  mc6-relay serve --cert relay.crt --key relay.key

  # Read settings from a file
  mc6-relay serve --config /etc/mc6-relay.toml

  # Use a specific port and MIDI device
  mc6-relay serve --port 9000 -d "Morningstar MC6MK2 MIDI 1" --log-level debug`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&host, "host", "", "Listen address (empty = all interfaces)")
	serveCmd.Flags().IntVar(&port, "port", relay.DefaultPort, "Listen port (default from config file)")
	serveCmd.Flags().StringVar(&path, "path", relay.DefaultPath, "WebSocket endpoint path")
	serveCmd.Flags().StringVarP(&midiDevice, "midi-device", "d", "", "MIDI port name (default from config file)")
	serveCmd.Flags().BoolVar(&advertise, "advertise", false, "Advertise the relay over mDNS")
	serveCmd.Flags().StringVar(&instanceName, "name", "", "mDNS instance name (default mc6-relay-<hostname>)")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "", "Relay settings file (TOML); flags take precedence")
	serveCmd.Flags().StringVar(&certPath, "cert", "", "TLS certificate file; with --key, serves wss://")
	serveCmd.Flags().StringVar(&keyPath, "key", "", "TLS private key file")
	serveCmd.Flags().IntVar(&frameDelay, "frame-delay", -1, "Pause between frames in milliseconds (default from config file)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return err
	}

	prefs := config.DefaultPreferences()
	if reg, err := config.LoadRegistry(); err != nil {
		logging.Warn("Ignoring unreadable config file, using defaults", zap.Error(err))
	} else if err := reg.Preferences.Validate(); err != nil {
		return fmt.Errorf("config file: %w", err)
	} else {
		prefs = reg.Preferences
	}

	settings := serveSettings{
		relay: relay.Config{
			Port: prefs.RelayPort,
			Path: relay.DefaultPath,
		},
		midi: transport.MIDIConfig{
			DeviceName: prefs.MIDIDevice,
			Listen:     true,
			FrameDelay: prefs.FrameDelay(),
		},
	}
	if configPath != "" {
		if err := loadServeConfig(configPath, &settings); err != nil {
			return err
		}
	}
	applyFlags(cmd.Flags(), &settings)
	if err := settings.validate(); err != nil {
		return err
	}

	defer transport.CloseDriver()
	device, err := transport.OpenMIDI(settings.midi)
	if err != nil {
		ui.PrintFailure("Cannot open MIDI device", err, []string{
			"Check that the controller is connected and powered",
			"Run 'mc6-cfg ports' to list the available port names",
			"Pass the exact port name with --midi-device",
		})
		return err
	}
	defer device.Close()

	rc := settings.relay
	params := []ui.Detail{
		{Key: "MIDI Port", Value: device.Name()},
		{Key: "Listen", Value: fmt.Sprintf("%s:%d", displayHost(rc.Host), rc.Port)},
		{Key: "Path", Value: rc.Path},
		{Key: "TLS", Value: strconv.FormatBool(rc.TLSEnabled())},
	}
	if rc.Advertise {
		params = append(params, ui.Detail{Key: "mDNS Name", Value: rc.InstanceNameOrDefault()})
	}
	ui.PrintCommandHeader("MC6 Relay", "mc6-relay serve", params...)

	srv := relay.New(rc)
	return srv.Start(cmd.Context(), device)
}

func displayHost(h string) string {
	if h == "" {
		return "0.0.0.0"
	}
	return h
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Full("mc6-relay"))
	},
}
