// Package config manages the Frisquet Connect configuration file.
//
// The file holds the identifiers obtained by pairing (network id,
// association id and the request id sequence), the radio transport settings,
// the Home Assistant temperature source and the program of area 1. The
// request id is written back after every exchange, so the file is both
// configuration and state.
//
// # Configuration File Location
//
// Unless --config names another file, the configuration is stored in:
//   - Linux: $XDG_CONFIG_HOME/frisquet/config.yaml or $HOME/.config/frisquet/config.yaml
//   - macOS: $HOME/.config/frisquet/config.yaml
//   - Windows: %LOCALAPPDATA%\frisquet\config.yaml
//
// The format follows the extension: .yaml/.yml or .toml.
//
// # Usage Example
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	assoc, err := cfg.Association(connect.EntityConnect)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// ... run an exchange, then persist the advanced request id
//	cfg.SetAssociation(connect.EntityConnect, assoc)
//	if err := cfg.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// Save is protected by a mutex and writes atomically through a temporary
// file and a rename.
package config
