package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/muurk/frisquet/internal/connect"
	"github.com/muurk/frisquet/internal/protocol"
	"github.com/muurk/frisquet/internal/schedule"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if !strings.Contains(configDir, "frisquet") {
		t.Errorf("GetConfigDir() = %v, should contain 'frisquet'", configDir)
	}

	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("macOS config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestGetConfigDirXDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG only applies on linux")
	}
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if configPath != "/tmp/xdg/frisquet/config.yaml" {
		t.Errorf("GetConfigPath() = %v, want /tmp/xdg/frisquet/config.yaml", configPath)
	}
}

const sampleYAML = `version: 1
frisquet:
  network_id: "12345678"
  association_id: "12"
  request_id: "d8"
sonde:
  network_id: "12345678"
  association_id: ba
  request_id: "40"
  send_init: true
serial:
  port: /dev/ttyUSB0
  speed: 115200
home_assistant:
  host: http://ha.local:8123
  token: secret
  entity_id: weather.home
  temperature_field: temperature
area1:
  mode: auto
  comfort: 20.5
  reduced: 17
  frost: 8
  schedule:
    monday:
      - timeframe: 06h00-08h30
        mode: comfort
    sunday:
      - timeframe: 08h00-00h00
        mode: comfort
sonde_interval: 3m
metrics_addr: ":9100"
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	cfg, err := Load(writeFile(t, "config.yaml", sampleYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	assoc, err := cfg.Association(connect.EntityConnect)
	if err != nil {
		t.Fatalf("Association() error = %v", err)
	}
	want := protocol.Association{NetworkID: [4]byte{0x12, 0x34, 0x56, 0x78}, AssociationID: 0x12, RequestID: 0xd8}
	if *assoc != want {
		t.Errorf("Association() = %+v, want %+v", *assoc, want)
	}

	sonde, err := cfg.Association(connect.EntitySonde)
	if err != nil {
		t.Fatalf("Association(sonde) error = %v", err)
	}
	if sonde.AssociationID != 0xba || sonde.RequestID != 0x40 {
		t.Errorf("sonde association = %+v", sonde)
	}
	if !cfg.SondeInitPending() {
		t.Error("SondeInitPending() = false, want true")
	}

	if cfg.Serial == nil || cfg.Serial.Port != "/dev/ttyUSB0" || cfg.Serial.Speed != 115200 {
		t.Errorf("Serial = %+v", cfg.Serial)
	}
	if cfg.HomeAssistant == nil || cfg.HomeAssistant.EntityID != "weather.home" {
		t.Errorf("HomeAssistant = %+v", cfg.HomeAssistant)
	}
	if cfg.SondeInterval != 3*time.Minute {
		t.Errorf("SondeInterval = %v, want 3m", cfg.SondeInterval)
	}
	if cfg.MetricsAddr != ":9100" {
		t.Errorf("MetricsAddr = %q", cfg.MetricsAddr)
	}

	p, err := cfg.Area1.Program()
	if err != nil {
		t.Fatalf("Program() error = %v", err)
	}
	if p.Mode != protocol.ModeAuto || p.Comfort != 20.5 {
		t.Errorf("Program() = %+v", p)
	}
	if !p.Week[time.Monday].IsComfort(schedule.Slot(8, 0)) || p.Week[time.Monday].IsComfort(schedule.Slot(8, 30)) {
		t.Errorf("monday = %s, want comfort 06h00-08h30", p.Week[time.Monday])
	}
	if !p.Week[time.Sunday].IsComfort(47) {
		t.Errorf("sunday = %s, want comfort until midnight", p.Week[time.Sunday])
	}
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Version != 1 || cfg.Path() != path {
		t.Errorf("Load() = %+v", cfg)
	}

	_, err = cfg.Association(connect.EntityConnect)
	if !protocol.IsType(err, protocol.ErrTypeConfig) {
		t.Errorf("Association() error = %v, want config error", err)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"bad extension", "config.json", "{}"},
		{"bad version", "config.yaml", "version: 2\n"},
		{"bad network id", "config.yaml", "version: 1\nfrisquet:\n  network_id: \"1234\"\n"},
		{"bad hex byte", "config.yaml", "version: 1\nfrisquet:\n  request_id: zz\n"},
		{"bad toml", "config.toml", "version = "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeFile(t, tt.file, tt.content)); err == nil {
				t.Error("Load() error = nil, want failure")
			}
		})
	}
}

func TestMissingIdentifiers(t *testing.T) {
	cfg, err := Load(writeFile(t, "config.yaml", "version: 1\nfrisquet:\n  network_id: \"12345678\"\n  association_id: \"12\"\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	_, err = cfg.Association(connect.EntityConnect)
	if err == nil || !strings.Contains(err.Error(), "frisquet.request_id") {
		t.Errorf("Association() error = %v, want missing frisquet.request_id", err)
	}

	_, err = cfg.Association(connect.EntitySatelliteZ2)
	if err == nil || !strings.Contains(err.Error(), "satellites.z2") {
		t.Errorf("Association(z2) error = %v, want missing satellites.z2", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			cfg := New(path)
			assoc := &protocol.Association{NetworkID: [4]byte{0xde, 0xad, 0x00, 0x01}, AssociationID: 0x83, RequestID: 0x00}
			cfg.SetAssociation(connect.EntitySonde, assoc)
			cfg.MarkSondeInit(true)
			cfg.SetAssociation(connect.EntitySatelliteZ3, assoc)
			cfg.MetricsAddr = ":9100"

			if err := cfg.Save(); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
				t.Error("temporary file left behind")
			}

			loaded, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			for _, e := range []connect.Entity{connect.EntitySonde, connect.EntitySatelliteZ3} {
				got, err := loaded.Association(e)
				if err != nil {
					t.Fatalf("Association(%v) error = %v", e, err)
				}
				if *got != *assoc {
					t.Errorf("Association(%v) = %+v, want %+v", e, *got, *assoc)
				}
			}
			if !loaded.SondeInitPending() {
				t.Error("SondeInitPending() = false after round trip")
			}
			if loaded.MetricsAddr != ":9100" {
				t.Errorf("MetricsAddr = %q", loaded.MetricsAddr)
			}
		})
	}
}

func TestSaveYAMLHeader(t *testing.T) {
	cfg := New(filepath.Join(t.TempDir(), "config.yml"))
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	data, err := os.ReadFile(cfg.Path())
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.HasPrefix(string(data), "# Frisquet Connect configuration") {
		t.Errorf("saved file lacks header:\n%s", data)
	}
}

func TestAreaProgramErrors(t *testing.T) {
	area := &Area{
		Mode:    "turbo",
		Comfort: 31,
		Reduced: 17,
		Frost:   8.2,
		Schedule: Schedule{
			Tuesday: []schedule.Entry{{Timeframe: "25h00-26h00", Mode: "comfort"}},
		},
	}
	_, err := area.Program()
	if err == nil {
		t.Fatal("Program() error = nil")
	}
	for _, want := range []string{"area1.mode", "area1.schedule.tuesday", "area1.comfort", "area1.frost"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Program() error = %v, missing %s", err, want)
		}
	}

	var missing *Area
	if _, err := missing.Program(); !protocol.IsType(err, protocol.ErrTypeConfig) {
		t.Errorf("nil Area Program() error = %v, want config error", err)
	}
}
