package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/muurk/mc6sysex/internal/config"
	"github.com/muurk/mc6sysex/internal/ui"
)

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configNicknameCmd)
	rootCmd.AddCommand(configCmd)
}

// configCmd groups the preference subcommands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change stored preferences",
	Long: `Show or change the preferences stored in the mc6sysex config file.

Keys: midi_device, relay_url, relay_port, output_format, discover_timeout,
frame_delay_ms. Command line flags always take precedence.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the config file path and contents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(registry)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}

		fmt.Printf("# %s\n%s", path, data)
		if rows := deviceRows(registry.Devices); len(rows) > 0 {
			fmt.Println()
			fmt.Println(ui.RenderTable([]string{"Port / Relay", "Nickname", "Last Bank", "Last Seen"}, rows))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:     "set <key> <value>",
	Short:   "Set one preference",
	Example: `  mc6-cfg config set midi_device "Morningstar MC6MK2 MIDI 1"
  mc6-cfg config set frame_delay_ms 20`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := registry.Preferences.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := registry.Save(); err != nil {
			return err
		}
		ui.PrintSuccess("Preference saved", ui.Detail{Key: args[0], Value: args[1]})
		return nil
	},
}

var configNicknameCmd = &cobra.Command{
	Use:     "nickname <port> <name>",
	Short:   "Name a MIDI port or relay",
	Example: `  mc6-cfg config nickname "Morningstar MC6MK2" pedalboard`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry.SetDeviceNickname(args[0], args[1])
		if err := registry.Save(); err != nil {
			return err
		}
		ui.PrintSuccess("Nickname saved", ui.Detail{Key: args[0], Value: args[1]})
		return nil
	},
}

// deviceRows lists known devices sorted by port name.
func deviceRows(devices map[string]*config.Device) [][]string {
	names := make([]string, 0, len(devices))
	for name := range devices {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		d := devices[name]
		seen := ""
		if !d.LastSeen.IsZero() {
			seen = d.LastSeen.Format(time.DateTime)
		}
		rows = append(rows, []string{name, d.Nickname, d.LastBank, seen})
	}
	return rows
}
