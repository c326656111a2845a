package ui

import (
	"github.com/muurk/frisquet/internal/datasource"
	"github.com/muurk/frisquet/internal/protocol"
)

// Troubleshooting returns tips for a command failure.
func Troubleshooting(err error) []string {
	switch {
	case protocol.IsTimeout(err):
		return []string{
			"Check that the radio is powered and within range of the boiler",
			"Check that the association in the config file is current (pair again if needed)",
		}
	case protocol.IsType(err, protocol.ErrTypeConfig):
		return []string{
			"Run 'frisquet-connect pair' to create the missing identifiers",
			"Check the config file path given with --config",
		}
	case protocol.IsType(err, protocol.ErrTypeTransport):
		return []string{
			"Check the serial port or MQTT broker settings",
			"Make sure no other process is using the radio",
		}
	case protocol.IsType(err, protocol.ErrTypeProtocol):
		return []string{
			"Another device may be pairing at the same time; retry",
		}
	case datasource.IsType(err, datasource.ErrTypeAuth):
		return []string{"Create a new long-lived access token in Home Assistant"}
	case datasource.IsType(err, datasource.ErrTypeNetwork), datasource.IsType(err, datasource.ErrTypeHTTP):
		return []string{"Check home_assistant.host and home_assistant.entity_id"}
	}
	return nil
}
