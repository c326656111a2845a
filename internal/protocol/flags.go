package protocol

import "fmt"

// AreaFlags is the bit-packed status byte of the area/program body.
//
// Layout, most significant bit first:
//
//	bit 7     Reserved1   always written 0
//	bit 6     Boost
//	bits 5-4  Reserved2   written 0 (the controller has been seen sending 2)
//	bits 3-2  Reserved3   written 1
//	bit 1     Derogation  temporary override of the schedule is active
//	bit 0     Comfort     current tier is comfort (reduced when clear)
type AreaFlags struct {
	Reserved1  bool
	Boost      bool
	Reserved2  uint8 // 2 bits
	Reserved3  uint8 // 2 bits
	Derogation bool
	Comfort    bool
}

// Reserved values this client writes.
const (
	AreaReserved2Default = 0
	AreaReserved3Default = 1
)

// DefaultAreaFlags returns flags with the reserved fields set to the values
// this client writes.
func DefaultAreaFlags() AreaFlags {
	return AreaFlags{Reserved2: AreaReserved2Default, Reserved3: AreaReserved3Default}
}

// Pack encodes the flags into their wire byte.
func (f AreaFlags) Pack() byte {
	var b byte
	if f.Reserved1 {
		b |= 1 << 7
	}
	if f.Boost {
		b |= 1 << 6
	}
	b |= (f.Reserved2 & 0x03) << 4
	b |= (f.Reserved3 & 0x03) << 2
	if f.Derogation {
		b |= 1 << 1
	}
	if f.Comfort {
		b |= 1
	}
	return b
}

// UnpackAreaFlags decodes the wire byte.
func UnpackAreaFlags(b byte) AreaFlags {
	return AreaFlags{
		Reserved1:  b&(1<<7) != 0,
		Boost:      b&(1<<6) != 0,
		Reserved2:  (b >> 4) & 0x03,
		Reserved3:  (b >> 2) & 0x03,
		Derogation: b&(1<<1) != 0,
		Comfort:    b&1 != 0,
	}
}

func (f AreaFlags) String() string {
	return fmt.Sprintf("boost=%t derogation=%t comfort=%t reserved=%d/%d/%d",
		f.Boost, f.Derogation, f.Comfort, b2i(f.Reserved1), f.Reserved2, f.Reserved3)
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
