// Mc6-cfg converts Morningstar MC6 Mk2 bank configurations between YAML and
// sysex, and sends them to a controller.
//
// Banks are described in YAML and encoded into the 18-frame sysex sequence
// the controller accepts. Dumps captured from the controller decode back to
// YAML. Frames can be sent over a local MIDI port or through an mc6-relay
// server on another machine.
//
// Usage:
//
//	mc6-cfg [command] [flags]
//
// See 'mc6-cfg --help' for available commands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/mc6sysex/internal/config"
	"github.com/muurk/mc6sysex/internal/logging"
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

var logLevel string

// registry holds user preferences, loaded before every command
var registry *config.Registry

var rootCmd = &cobra.Command{
	Use:   "mc6-cfg",
	Short: "Morningstar MC6 Mk2 Configuration Utility",
	Long: `A utility for building and inspecting Morningstar MC6 Mk2 bank configurations.

Encodes YAML bank files into sysex, decodes sysex dumps back into YAML, and
sends banks to a controller over MIDI or through an mc6-relay server.

Preferences (default MIDI device, relay URL, output format) are read from
the config file; command line flags take precedence.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Initialize(logLevel); err != nil {
			return err
		}

		reg, err := config.LoadRegistry()
		if err != nil {
			logging.Warn("Ignoring unreadable config file, using defaults", zap.Error(err))
			reg = config.NewRegistry()
		}
		if err := reg.Preferences.Validate(); err != nil {
			return fmt.Errorf("config file: %w", err)
		}
		registry = reg
		return nil
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level (debug, info, warn, error); defaults to $"+logging.LogLevelEnvVar)

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Full("mc6-cfg"))
	},
}

// saveRegistry persists preference and device changes. Failures are logged only.
func saveRegistry() {
	if registry == nil {
		return
	}
	if err := registry.Save(); err != nil {
		logging.Warn("Failed to save config file", zap.Error(err))
	}
}
