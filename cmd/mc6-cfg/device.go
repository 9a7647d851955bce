package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/mc6sysex/internal/discovery"
	"github.com/muurk/mc6sysex/internal/transport"
	"github.com/muurk/mc6sysex/internal/ui"
)

// Transport flags
var (
	midiDevice  string
	relayURL    string
	frameDelay  int
	scanTimeout int
	saveRelay   bool
)

func init() {
	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(scanCmd)
}

// addSendFlags registers the flags that choose where frames are sent.
func addSendFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&midiDevice, "midi-device", "d", "",
		`MIDI port name (default "`+transport.DefaultDeviceName+`" or any solitary port)`)
	cmd.Flags().StringVar(&relayURL, "relay", "", "Send through an mc6-relay server (ws://host:port/sysex or mdns:<instance>)")
	cmd.Flags().IntVar(&frameDelay, "frame-delay", -1, "Pause between frames in milliseconds (default from config file)")
}

// sendTarget resolves flags and preferences into a transport choice.
// Flags win over preferences; an explicit --midi-device ignores a preferred relay.
type sendTarget struct {
	relayURL   string
	midiDevice string
	delay      time.Duration
}

func resolveTarget() sendTarget {
	prefs := registry.Preferences

	t := sendTarget{
		relayURL:   relayURL,
		midiDevice: midiDevice,
		delay:      prefs.FrameDelay(),
	}
	if frameDelay >= 0 {
		t.delay = time.Duration(frameDelay) * time.Millisecond
	}
	if t.relayURL == "" && t.midiDevice == "" {
		t.relayURL = prefs.RelayURL
	}
	if t.midiDevice == "" {
		t.midiDevice = prefs.MIDIDevice
	}
	return t
}

// sendBank sends frames to the controller and records the send in the config file.
func sendBank(ctx context.Context, bankName string, frames [][]byte) error {
	target := resolveTarget()

	var sender transport.Sender
	var port string
	progress := ui.NewFrameProgress("Sending", len(frames))

	if target.relayURL != "" {
		url, err := resolveRelayURL(ctx, target.relayURL)
		if err != nil {
			ui.PrintFailure("Relay not found", err, []string{
				"Check that mc6-relay serve --advertise is running",
				"Run 'mc6-cfg scan' to list the advertised instance names",
			})
			return err
		}
		target.relayURL = url

		ui.PrintCommandHeader("Send to relay", "mc6-cfg --relay",
			ui.Detail{Key: "Relay", Value: target.relayURL},
			ui.Detail{Key: "Frames", Value: strconv.Itoa(len(frames))},
		)
		client, err := transport.DialRelay(ctx, transport.RelayConfig{
			URL:        target.relayURL,
			FrameDelay: target.delay,
			Progress:   progress.Update,
		})
		if err != nil {
			ui.PrintFailure("Relay unreachable", err, []string{
				"Check that mc6-relay serve is running on the remote machine",
				"Run 'mc6-cfg scan' to discover relays on the network",
			})
			return err
		}
		sender, port = client, target.relayURL
	} else {
		defer transport.CloseDriver()
		midiPort, err := transport.OpenMIDI(transport.MIDIConfig{
			DeviceName: target.midiDevice,
			FrameDelay: target.delay,
			Progress:   progress.Update,
		})
		if err != nil {
			ui.PrintFailure("MIDI device unavailable", err, []string{
				"Check that the controller is connected over USB",
				"Run 'mc6-cfg ports' to list available ports",
				"Pass --midi-device with the exact port name",
			})
			return err
		}
		sender, port = midiPort, midiPort.Name()
	}
	defer sender.Close()

	if err := sender.Send(ctx, frames); err != nil {
		ui.PrintFailure("Send failed", err, nil)
		return err
	}

	registry.RecordSend(port, strings.TrimSpace(bankName), target.relayURL)
	saveRegistry()

	ui.PrintSuccess("Frames sent",
		ui.Detail{Key: "Target", Value: port},
		ui.Detail{Key: "Frames", Value: strconv.Itoa(len(frames))},
	)
	return nil
}

// relayInstancePrefix selects a relay by its mDNS instance name, e.g. mdns:pedalboard
const relayInstancePrefix = "mdns:"

// resolveRelayURL looks up mdns:<instance> relays; other URLs pass through.
func resolveRelayURL(ctx context.Context, relay string) (string, error) {
	instance, ok := strings.CutPrefix(relay, relayInstancePrefix)
	if !ok {
		return relay, nil
	}

	scanner := discovery.NewScanner()
	if t := registry.Preferences.DiscoverTimeout; t > 0 {
		scanner.Timeout = time.Duration(t) * time.Second
	}

	var found *discovery.Relay
	err := ui.RunWithSpinner("Looking for relay "+instance, scanner.Timeout.String(), func() error {
		var err error
		found, err = scanner.WaitForRelay(ctx, instance)
		return err
	})
	if err != nil {
		return "", err
	}
	return found.URL(), nil
}

// portsCmd lists MIDI ports
var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI input and output ports",
	Long: `List the MIDI ports visible to this machine.

Without --midi-device, sends go to the first output whose name starts with
"` + transport.DefaultDeviceName + `", or to the only output present.`,
	Args: cobra.NoArgs,
	RunE: runPorts,
}

func runPorts(cmd *cobra.Command, args []string) error {
	defer transport.CloseDriver()
	ports := transport.ListPorts()

	if len(ports.Inputs) == 0 && len(ports.Outputs) == 0 {
		ui.PrintWarning("No MIDI ports found", []string{
			"Check that the controller is connected over USB",
		})
		return nil
	}

	fmt.Println(ui.RenderTable([]string{"Direction", "Port"}, portRows(ports)))
	return nil
}

func portRows(ports transport.Ports) [][]string {
	rows := make([][]string, 0, len(ports.Inputs)+len(ports.Outputs))
	for _, name := range ports.Outputs {
		rows = append(rows, []string{"out", name})
	}
	for _, name := range ports.Inputs {
		rows = append(rows, []string{"in", name})
	}
	return rows
}

// scanCmd discovers relays on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for mc6-relay servers on the network",
	Long: `Scan for relays using mDNS/DNS-SD discovery.

Relays started with 'mc6-relay serve --advertise' are listed with their
websocket URL. With --save and exactly one relay found, its URL becomes the
default target for --send.`,
	Example: `  # Scan with the configured timeout
  mc6-cfg scan

  # Scan for 10 seconds and remember the relay found
  mc6-cfg scan --timeout 10 --save`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 0, "Scan timeout in seconds (default from config file)")
	scanCmd.Flags().BoolVar(&saveRelay, "save", false, "Store the relay URL as the default send target")
}

func runScan(cmd *cobra.Command, args []string) error {
	timeout := scanTimeout
	if timeout <= 0 {
		timeout = registry.Preferences.DiscoverTimeout
	}
	duration := time.Duration(timeout) * time.Second

	var relays []*discovery.Relay
	err := ui.RunWithSpinner("Scanning for relays", duration.String(), func() error {
		var err error
		relays, err = discovery.ScanForRelays(cmd.Context(), duration)
		return err
	})
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(relays) == 0 {
		ui.PrintWarning("No relays found", []string{
			"Ensure mc6-relay serve --advertise is running",
			"Verify both machines are on the same network segment",
			"Try increasing --timeout for slower networks",
			"Use --relay with the URL directly if discovery fails",
		})
		return nil
	}

	fmt.Println(ui.RenderTable([]string{"Instance", "URL", "Version"}, relayRows(relays)))

	for _, r := range relays {
		device := registry.EnsureDevice(r.URL())
		device.RelayURL = r.URL()
		device.LastSeen = r.DiscoveredAt
		if device.Nickname == "" {
			device.Nickname = r.Instance
		}
	}
	if saveRelay {
		if len(relays) != 1 {
			return fmt.Errorf("found %d relays, --save needs exactly one", len(relays))
		}
		registry.Preferences.RelayURL = relays[0].URL()
		ui.PrintSuccess("Default relay saved", ui.Detail{Key: "Relay", Value: relays[0].URL()})
	}
	saveRegistry()
	return nil
}

func relayRows(relays []*discovery.Relay) [][]string {
	rows := make([][]string, 0, len(relays))
	for _, r := range relays {
		rows = append(rows, []string{r.Instance, r.URL(), r.Version()})
	}
	return rows
}
