// Frisquet-connect talks to a Frisquet boiler over its 868 MHz radio
// protocol.
//
// It pairs as a Connect gateway, an outside temperature probe or a room
// satellite, reads the boiler clock and sensors, writes the area 1 program,
// reports an outside temperature taken from Home Assistant, and decodes the
// traffic of an existing Connect box. The radio is reached through a Heltec
// board running the bridge firmware, either on a serial port or through an
// MQTT broker.
//
// Usage:
//
//	frisquet-connect [command] [flags]
//
// See 'frisquet-connect --help' for available commands.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/frisquet/internal/logging"
	"github.com/muurk/frisquet/internal/metrics"
	"github.com/muurk/frisquet/internal/version"
)

// errReported marks a failure already rendered in an error box.
var errReported = errors.New("command failed")

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// Global flags
var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "frisquet-connect",
	Short: "Frisquet boiler radio client",
	Long: `A client for the 868 MHz radio protocol of Frisquet boilers.

Pair once with 'frisquet-connect pair', then query or drive the boiler.
Pairing identifiers and the request id sequence are stored in the
configuration file and updated after every command.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Initialize(logLevel); err != nil {
			return err
		}
		metrics.RegisterMetrics()
		return nil
	},
	Example: `  # Pair as a Connect gateway (boiler in association mode)
  frisquet-connect pair connect

  # Read the boiler clock and temperatures
  frisquet-connect date
  frisquet-connect sensors

  # Decode the traffic of an existing Connect box and record it
  frisquet-connect promiscuous --capture-dir ./captures

  # Report the Home Assistant temperature every 3 minutes
  frisquet-connect run --metrics-addr :9100`,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (.yaml, .yml or .toml; default $XDG_CONFIG_HOME/frisquet/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); silent by default")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("frisquet-connect %s\n", version.Full())
		if info := version.Get(); !info.Time.IsZero() {
			fmt.Printf("built from a commit of %s\n", info.Time.Format(time.DateOnly))
		}
	},
}
