// Package schedule encodes the weekly heating program of an area: setpoint
// bytes, half-hour comfort masks and the auto-mode comfort lookup.
package schedule

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/muurk/frisquet/internal/protocol"
)

// SlotsPerDay is the number of half-hour slots in a day mask.
const SlotsPerDay = 48

// Setpoint limits in degrees Celsius
const (
	MinSetpoint  = 5.0
	MaxSetpoint  = 30.5
	SetpointStep = 0.5
)

// EncodeSetpoint converts a temperature to its wire byte: round(v*10) - 50.
// Only 5.0 to 30.5 in 0.5 steps is accepted.
func EncodeSetpoint(celsius float64) (byte, error) {
	if math.IsNaN(celsius) || celsius < MinSetpoint || celsius > MaxSetpoint {
		return 0, protocol.NewConfigError("setpoint %.1f out of range (%.1f-%.1f)", celsius, MinSetpoint, MaxSetpoint)
	}
	halves := celsius / SetpointStep
	if math.Abs(halves-math.Round(halves)) > 1e-9 {
		return 0, protocol.NewConfigError("setpoint %v is not a multiple of %.1f", celsius, SetpointStep)
	}
	return byte(math.Round(celsius*10) - 50), nil
}

// DecodeSetpoint converts a setpoint byte back to degrees.
func DecodeSetpoint(b byte) float64 {
	return float64(int(b)+50) / 10
}

// TimeIndex returns the half-hour slot of a "HHhMM" time ("12h30" is 25).
// Minutes must be 00 or 30.
func TimeIndex(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), "h")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return 0, protocol.NewConfigError("invalid time %q (want HHhMM)", s)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, protocol.NewConfigError("invalid hour in %q", s)
	}
	switch mm {
	case "00":
		return hour * 2, nil
	case "30":
		return hour*2 + 1, nil
	default:
		return 0, protocol.NewConfigError("invalid minutes in %q (want 00 or 30)", s)
	}
}

// ParseTimeframe parses "HHhMM-HHhMM" into a half-open slot range.
// An end of "00h00" means the end of the day (slot 48).
func ParseTimeframe(s string) (start, end int, err error) {
	from, to, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, protocol.NewConfigError("invalid timeframe %q (want HHhMM-HHhMM)", s)
	}
	if start, err = TimeIndex(from); err != nil {
		return 0, 0, err
	}
	if end, err = TimeIndex(to); err != nil {
		return 0, 0, err
	}
	if end == 0 {
		end = SlotsPerDay
	}
	if end < start {
		return 0, 0, protocol.NewConfigError("timeframe %q ends before it starts", s)
	}
	return start, end, nil
}

// Slot returns the half-hour slot containing hour:minute.
func Slot(hour, minute int) int {
	return hour*2 + minute/30
}

// Day is a 48-slot comfort mask; slot n is bit n%8 of byte n/8.
type Day [6]byte

// IsComfort reports whether slot is marked comfort.
func (d Day) IsComfort(slot int) bool {
	if slot < 0 || slot >= SlotsPerDay {
		return false
	}
	return d[slot/8]&(1<<(slot%8)) != 0
}

// SetComfort marks the slots [start, end) as comfort.
func (d *Day) SetComfort(start, end int) {
	for n := max(start, 0); n < min(end, SlotsPerDay); n++ {
		d[n/8] |= 1 << (n % 8)
	}
}

func (d Day) String() string {
	return protocol.FormatDay(d)
}

// Entry is one configured (timeframe, mode) pair of a day.
type Entry struct {
	Timeframe string `yaml:"timeframe" toml:"timeframe"`
	Mode      string `yaml:"mode" toml:"mode"`
}

// BuildDay builds a day mask from its entries. Only comfort entries set
// bits; reduced is the default and any other mode is rejected.
func BuildDay(entries []Entry) (Day, error) {
	var d Day
	for _, e := range entries {
		start, end, err := ParseTimeframe(e.Timeframe)
		if err != nil {
			return Day{}, err
		}
		switch strings.ToLower(strings.TrimSpace(e.Mode)) {
		case "comfort":
			d.SetComfort(start, end)
		case "reduced":
		default:
			return Day{}, protocol.NewConfigError("invalid mode %q for timeframe %s (want comfort or reduced)", e.Mode, e.Timeframe)
		}
	}
	return d, nil
}

// Week holds the seven day masks indexed by time.Weekday (Sunday first,
// matching the area body order).
type Week [7]Day

// DayOf returns the mask for a boiler weekday (1 = Monday .. 7 = Sunday).
func (w Week) DayOf(weekday int) (Day, error) {
	if weekday < 1 || weekday > 7 {
		return Day{}, protocol.NewConfigError("invalid weekday %d", weekday)
	}
	return w[time.Weekday(weekday%7)], nil
}

// IsComfort resolves the auto-mode tier for a boiler weekday and time.
func (w Week) IsComfort(weekday, hour, minute int) (bool, error) {
	d, err := w.DayOf(weekday)
	if err != nil {
		return false, err
	}
	return d.IsComfort(Slot(hour, minute)), nil
}

// Set stores a day mask under its time.Weekday.
func (w *Week) Set(day time.Weekday, d Day) {
	w[day] = d
}

// String renders the week Monday first.
func (w Week) String() string {
	var b strings.Builder
	for i := 1; i <= 7; i++ {
		day := time.Weekday(i % 7)
		fmt.Fprintf(&b, "%-9s %s\n", day, w[day])
	}
	return b.String()
}
