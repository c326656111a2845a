package protocol

import (
	"fmt"
	"math"
	"strings"
)

// BCD decodes a packed binary-coded decimal byte (0x25 -> 25).
func BCD(b byte) int {
	return int(b>>4)*10 + int(b&0x0f)
}

// ToBCD encodes 0..99 as packed binary-coded decimal.
func ToBCD(v int) byte {
	return byte((v/10)%10)<<4 | byte(v%10)
}

// Mode is the area operating mode selector byte.
type Mode byte

const (
	ModeAuto    Mode = 0x05
	ModeComfort Mode = 0x06
	ModeReduced Mode = 0x07
	ModeFrost   Mode = 0x08
)

// ParseMode maps a configuration keyword to its mode byte.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto":
		return ModeAuto, nil
	case "comfort":
		return ModeComfort, nil
	case "reduced":
		return ModeReduced, nil
	case "frost":
		return ModeFrost, nil
	default:
		return 0, NewConfigError("unknown mode %q (want auto, comfort, reduced or frost)", s)
	}
}

func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeComfort:
		return "comfort"
	case ModeReduced:
		return "reduced"
	case ModeFrost:
		return "frost"
	default:
		return fmt.Sprintf("unknown(0x%02x)", byte(m))
	}
}

// Celsius converts a signed tenth-of-degree reading to degrees.
func Celsius(tenths int16) float64 {
	return float64(tenths) / 10
}

// Tenths converts degrees to a signed tenth-of-degree reading, rounding to
// the nearest tenth.
func Tenths(celsius float64) (int16, error) {
	v := math.Round(celsius * 10)
	if math.IsNaN(v) || v < math.MinInt16 || v > math.MaxInt16 {
		return 0, NewConfigError("temperature %v out of range", celsius)
	}
	return int16(v), nil
}
