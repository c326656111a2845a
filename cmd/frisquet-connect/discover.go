package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/muurk/frisquet/internal/config"
	"github.com/muurk/frisquet/internal/datasource"
	"github.com/muurk/frisquet/internal/discovery"
	"github.com/muurk/frisquet/internal/rf/mqtt"
	"github.com/muurk/frisquet/internal/ui"
)

var (
	discoverTimeout time.Duration
	discoverSave    bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find MQTT brokers and Home Assistant on the local network",
	Long: `Browse mDNS for MQTT brokers and Home Assistant instances and print
the matching configuration sections.

With --save the first broker and instance found fill the mqtt and
home_assistant sections when they are not configured yet.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		a.printer.PrintHeader("DISCOVERY", cmd.CommandPath(), ui.D("Timeout", discoverTimeout))

		ctx, stop := signalContext()
		defer stop()

		scanner := discovery.NewScanner()
		scanner.Timeout = discoverTimeout
		services, err := scanner.ScanAll(ctx)
		if err != nil {
			return a.fail("DISCOVERY FAILED", err)
		}
		if len(services) == 0 {
			a.printer.PrintWarning("NOTHING FOUND",
				ui.D("Hint", "check that the broker or Home Assistant advertises over mDNS"))
			return nil
		}

		var details []ui.Detail
		for _, svc := range services {
			details = append(details, ui.D(svc.Kind.String(), svc))
		}
		a.printer.PrintSuccess(fmt.Sprintf("FOUND %d SERVICES", len(services)), details...)

		suggested := suggestConfig(services)
		snippet, err := yaml.Marshal(struct {
			MQTT          *mqtt.Config       `yaml:"mqtt,omitempty"`
			HomeAssistant *datasource.Config `yaml:"home_assistant,omitempty"`
		}{suggested.MQTT, suggested.HomeAssistant})
		if err == nil {
			a.printer.Println(strings.TrimSpace(string(snippet)))
			a.printer.Newline()
		}

		if !discoverSave {
			return nil
		}
		if a.cfg.MQTT == nil {
			a.cfg.MQTT = suggested.MQTT
		}
		if a.cfg.HomeAssistant == nil {
			a.cfg.HomeAssistant = suggested.HomeAssistant
		}
		if err := a.save(); err != nil {
			return a.fail("CONFIGURATION NOT SAVED", err)
		}
		a.printer.PrintSuccess("CONFIGURATION UPDATED", ui.D("Path", a.cfg.Path()))
		return nil
	},
}

func init() {
	discoverCmd.Flags().DurationVar(&discoverTimeout, "timeout", discovery.DefaultScanTimeout, "How long to browse")
	discoverCmd.Flags().BoolVar(&discoverSave, "save", false, "Fill missing mqtt and home_assistant sections")

	rootCmd.AddCommand(discoverCmd)
}

// suggestConfig builds the transport and temperature source sections from
// the first broker and Home Assistant instance found.
func suggestConfig(services []*discovery.Service) *config.Config {
	suggested := &config.Config{}
	for _, svc := range services {
		switch svc.Kind {
		case discovery.KindMQTT:
			if suggested.MQTT == nil {
				suggested.MQTT = &mqtt.Config{
					Host:     svc.IP,
					Port:     svc.Port,
					ClientID: "frisquet-connect",
					CmdTopic: "frisquet/cmd",
					LstTopic: "frisquet/lst",
				}
			}
		case discovery.KindHomeAssistant:
			if suggested.HomeAssistant == nil {
				suggested.HomeAssistant = &datasource.Config{
					Host:     svc.HomeAssistantURL(),
					EntityID: "sensor.outside_temperature",
				}
			}
		}
	}
	return suggested
}
