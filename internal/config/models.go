package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/muurk/frisquet/internal/connect"
	"github.com/muurk/frisquet/internal/datasource"
	"github.com/muurk/frisquet/internal/protocol"
	"github.com/muurk/frisquet/internal/rf/mqtt"
	"github.com/muurk/frisquet/internal/rf/serial"
	"github.com/muurk/frisquet/internal/schedule"
)

// Config is the whole configuration file.
type Config struct {
	Version       int                `yaml:"version" toml:"version"`
	Frisquet      *Association       `yaml:"frisquet,omitempty" toml:"frisquet,omitempty"`
	Sonde         *Sonde             `yaml:"sonde,omitempty" toml:"sonde,omitempty"`
	Satellites    *Satellites        `yaml:"satellites,omitempty" toml:"satellites,omitempty"`
	Serial        *serial.Config     `yaml:"serial,omitempty" toml:"serial,omitempty"`
	MQTT          *mqtt.Config       `yaml:"mqtt,omitempty" toml:"mqtt,omitempty"`
	HomeAssistant *datasource.Config `yaml:"home_assistant,omitempty" toml:"home_assistant,omitempty"`
	Area1         *Area              `yaml:"area1,omitempty" toml:"area1,omitempty"`
	SondeInterval time.Duration      `yaml:"sonde_interval,omitempty" toml:"sonde_interval,omitempty"`
	MetricsAddr   string             `yaml:"metrics_addr,omitempty" toml:"metrics_addr,omitempty"`

	path string
}

// New creates an empty configuration bound to path.
func New(path string) *Config {
	return &Config{Version: 1, path: path}
}

// Path returns the file the configuration is saved to.
func (c *Config) Path() string {
	return c.path
}

// NetworkID is a 4-byte network id stored as 8 hex digits.
type NetworkID [4]byte

func (n NetworkID) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(n[:])), nil
}

func (n *NetworkID) UnmarshalText(text []byte) error {
	b, err := hex.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("invalid network id %q: %w", text, err)
	}
	if len(b) != len(n) {
		return fmt.Errorf("invalid network id %q: want %d bytes, got %d", text, len(n), len(b))
	}
	copy(n[:], b)
	return nil
}

// HexByte is a single byte stored as 2 hex digits.
type HexByte byte

func (h HexByte) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString([]byte{byte(h)})), nil
}

func (h *HexByte) UnmarshalText(text []byte) error {
	b, err := hex.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("invalid hex byte %q: %w", text, err)
	}
	if len(b) != 1 {
		return fmt.Errorf("invalid hex byte %q: want 1 byte, got %d", text, len(b))
	}
	*h = HexByte(b[0])
	return nil
}

// Association holds the identifiers obtained by pairing.
type Association struct {
	NetworkID     *NetworkID `yaml:"network_id,omitempty" toml:"network_id,omitempty"`
	AssociationID *HexByte   `yaml:"association_id,omitempty" toml:"association_id,omitempty"`
	RequestID     *HexByte   `yaml:"request_id,omitempty" toml:"request_id,omitempty"`
}

// Protocol returns the association for a session. Every identifier must be
// present; section names the config section in the error.
func (a *Association) Protocol(section string) (*protocol.Association, error) {
	if a == nil {
		return nil, protocol.NewConfigError("missing required config: %s", section)
	}
	switch {
	case a.NetworkID == nil:
		return nil, protocol.NewConfigError("missing required config: %s.network_id", section)
	case a.AssociationID == nil:
		return nil, protocol.NewConfigError("missing required config: %s.association_id", section)
	case a.RequestID == nil:
		return nil, protocol.NewConfigError("missing required config: %s.request_id", section)
	}
	return &protocol.Association{
		NetworkID:     *a.NetworkID,
		AssociationID: byte(*a.AssociationID),
		RequestID:     byte(*a.RequestID),
	}, nil
}

// Update copies the identifiers of assoc.
func (a *Association) Update(assoc *protocol.Association) {
	networkID := NetworkID(assoc.NetworkID)
	associationID := HexByte(assoc.AssociationID)
	requestID := HexByte(assoc.RequestID)
	a.NetworkID = &networkID
	a.AssociationID = &associationID
	a.RequestID = &requestID
}

// Sonde is the association of the emulated probe.
type Sonde struct {
	Association `yaml:",inline"`
	// SendInit requests the init exchange before the next report. Set after
	// pairing, cleared once the boiler acknowledged it.
	SendInit *bool `yaml:"send_init,omitempty" toml:"send_init,omitempty"`
}

// Satellites holds the associations of the emulated thermostats.
type Satellites struct {
	Z1 *Association `yaml:"z1,omitempty" toml:"z1,omitempty"`
	Z2 *Association `yaml:"z2,omitempty" toml:"z2,omitempty"`
	Z3 *Association `yaml:"z3,omitempty" toml:"z3,omitempty"`
}

// section returns the config path of an entity's association.
func section(e connect.Entity) string {
	switch e {
	case connect.EntitySonde:
		return "sonde"
	case connect.EntitySatelliteZ1:
		return "satellites.z1"
	case connect.EntitySatelliteZ2:
		return "satellites.z2"
	case connect.EntitySatelliteZ3:
		return "satellites.z3"
	default:
		return "frisquet"
	}
}

// Association returns the persisted association of an entity.
func (c *Config) Association(e connect.Entity) (*protocol.Association, error) {
	var a *Association
	switch e {
	case connect.EntityConnect:
		a = c.Frisquet
	case connect.EntitySonde:
		if c.Sonde != nil {
			a = &c.Sonde.Association
		}
	default:
		if c.Satellites != nil {
			a = *c.satellite(e)
		}
	}
	return a.Protocol(section(e))
}

// SetAssociation stores the association of an entity. A new probe
// association also requests the init exchange.
func (c *Config) SetAssociation(e connect.Entity, assoc *protocol.Association) {
	switch e {
	case connect.EntityConnect:
		if c.Frisquet == nil {
			c.Frisquet = &Association{}
		}
		c.Frisquet.Update(assoc)
	case connect.EntitySonde:
		if c.Sonde == nil {
			c.Sonde = &Sonde{}
		}
		c.Sonde.Update(assoc)
	default:
		if c.Satellites == nil {
			c.Satellites = &Satellites{}
		}
		slot := c.satellite(e)
		if *slot == nil {
			*slot = &Association{}
		}
		(*slot).Update(assoc)
	}
}

// MarkSondeInit sets or clears the probe's pending init exchange.
func (c *Config) MarkSondeInit(pending bool) {
	if c.Sonde == nil {
		c.Sonde = &Sonde{}
	}
	c.Sonde.SendInit = &pending
}

// SondeInitPending reports whether the probe init exchange is still due.
func (c *Config) SondeInitPending() bool {
	return c.Sonde != nil && c.Sonde.SendInit != nil && *c.Sonde.SendInit
}

func (c *Config) satellite(e connect.Entity) **Association {
	switch e {
	case connect.EntitySatelliteZ2:
		return &c.Satellites.Z2
	case connect.EntitySatelliteZ3:
		return &c.Satellites.Z3
	default:
		return &c.Satellites.Z1
	}
}

// Area is the configured program of area 1.
type Area struct {
	Mode    string  `yaml:"mode" toml:"mode"`
	Boost   bool    `yaml:"boost,omitempty" toml:"boost,omitempty"`
	Comfort float64 `yaml:"comfort" toml:"comfort"`
	Reduced float64 `yaml:"reduced" toml:"reduced"`
	Frost   float64 `yaml:"frost" toml:"frost"`
	// ComfortOverride forces the current tier through a derogation.
	ComfortOverride *bool    `yaml:"comfort_override,omitempty" toml:"comfort_override,omitempty"`
	Schedule        Schedule `yaml:"schedule" toml:"schedule"`
}

// Schedule lists the comfort timeframes of each weekday.
type Schedule struct {
	Monday    []schedule.Entry `yaml:"monday,omitempty" toml:"monday,omitempty"`
	Tuesday   []schedule.Entry `yaml:"tuesday,omitempty" toml:"tuesday,omitempty"`
	Wednesday []schedule.Entry `yaml:"wednesday,omitempty" toml:"wednesday,omitempty"`
	Thursday  []schedule.Entry `yaml:"thursday,omitempty" toml:"thursday,omitempty"`
	Friday    []schedule.Entry `yaml:"friday,omitempty" toml:"friday,omitempty"`
	Saturday  []schedule.Entry `yaml:"saturday,omitempty" toml:"saturday,omitempty"`
	Sunday    []schedule.Entry `yaml:"sunday,omitempty" toml:"sunday,omitempty"`
}

type scheduleDay struct {
	weekday time.Weekday
	entries []schedule.Entry
}

func (s Schedule) days() []scheduleDay {
	return []scheduleDay{
		{time.Monday, s.Monday},
		{time.Tuesday, s.Tuesday},
		{time.Wednesday, s.Wednesday},
		{time.Thursday, s.Thursday},
		{time.Friday, s.Friday},
		{time.Saturday, s.Saturday},
		{time.Sunday, s.Sunday},
	}
}

// Program validates the area and builds its program. All invalid values are
// reported together.
func (a *Area) Program() (*schedule.Program, error) {
	if a == nil {
		return nil, protocol.NewConfigError("missing required config: area1")
	}

	var errs []error
	mode, err := protocol.ParseMode(a.Mode)
	if err != nil {
		errs = append(errs, fmt.Errorf("area1.mode: %w", err))
		mode = protocol.ModeAuto
	}

	p := &schedule.Program{
		Mode:            mode,
		Boost:           a.Boost,
		Comfort:         a.Comfort,
		Reduced:         a.Reduced,
		Frost:           a.Frost,
		ComfortOverride: a.ComfortOverride,
	}

	for _, d := range a.Schedule.days() {
		day, err := schedule.BuildDay(d.entries)
		if err != nil {
			errs = append(errs, fmt.Errorf("area1.schedule.%s: %w", strings.ToLower(d.weekday.String()), err))
			continue
		}
		p.Week.Set(d.weekday, day)
	}

	for _, err := range p.Validate() {
		errs = append(errs, fmt.Errorf("area1.%w", err))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return p, nil
}
