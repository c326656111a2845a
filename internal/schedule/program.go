package schedule

import (
	"fmt"

	"github.com/muurk/frisquet/internal/protocol"
)

// Program is the validated program of one area.
type Program struct {
	Mode    protocol.Mode
	Boost   bool
	Comfort float64
	Reduced float64
	Frost   float64

	// ComfortOverride forces the current tier (derogation) when set.
	ComfortOverride *bool

	Week Week
}

// Validate checks every setpoint and the mode.
// Returns a slice of validation errors (empty if valid).
func (p *Program) Validate() []error {
	var errs []error
	for _, sp := range []struct {
		name  string
		value float64
	}{
		{"comfort", p.Comfort},
		{"reduced", p.Reduced},
		{"frost", p.Frost},
	} {
		if _, err := EncodeSetpoint(sp.value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sp.name, err))
		}
	}
	switch p.Mode {
	case protocol.ModeAuto, protocol.ModeComfort, protocol.ModeReduced, protocol.ModeFrost:
	default:
		errs = append(errs, protocol.NewConfigError("invalid mode byte 0x%02x", byte(p.Mode)))
	}
	return errs
}

// CurrentComfort resolves whether the area is in comfort at the boiler time
// now: the schedule decides in auto mode, otherwise only comfort mode is.
func (p *Program) CurrentComfort(now *protocol.DateBody) (bool, error) {
	if p.Mode != protocol.ModeAuto {
		return p.Mode == protocol.ModeComfort, nil
	}
	return p.Week.IsComfort(now.DayOfWeek(), now.HourOfDay(), now.MinuteOfHour())
}

// AreaBody builds the program write body for the boiler time now.
func (p *Program) AreaBody(now *protocol.DateBody) (*protocol.AreaBody, error) {
	if errs := p.Validate(); len(errs) > 0 {
		return nil, errs[0]
	}
	comfort, err := p.CurrentComfort(now)
	if err != nil {
		return nil, err
	}
	if p.ComfortOverride != nil {
		comfort = *p.ComfortOverride
	}

	body := protocol.NewAreaBody()
	body.Comfort, _ = EncodeSetpoint(p.Comfort)
	body.Reduced, _ = EncodeSetpoint(p.Reduced)
	body.Frost, _ = EncodeSetpoint(p.Frost)
	body.Mode = p.Mode
	body.Flags.Boost = p.Boost
	body.Flags.Derogation = p.ComfortOverride != nil
	body.Flags.Comfort = comfort
	for i, d := range p.Week {
		body.Days[i] = d
	}
	return body, nil
}
