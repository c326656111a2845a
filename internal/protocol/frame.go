package protocol

import (
	"fmt"
)

// Frame header constants
const (
	HeaderSize = 7 // length, to, from, association id, request id, control, msg type

	// lengthOffset is the difference between the length field and the body size:
	// the length byte counts the six header bytes that follow it.
	lengthOffset = HeaderSize - 1

	// MaxBodySize is the largest body a one-byte length field can describe.
	MaxBodySize = 0xff - lengthOffset
)

// Known addresses
const (
	AddrSatelliteZ1 = 0x08
	AddrSatelliteZ2 = 0x09
	AddrSatelliteZ3 = 0x0a
	AddrSonde       = 0x20 // External temperature probe
	AddrConnect     = 0x7e // Heating-control gateway (this client)
	AddrBoiler      = 0x80 // Central boiler hub
)

// Control values
const (
	ControlRequest       = 0x01
	ControlAnnounce      = 0x02
	ControlProgramWrite  = 0x08
	ControlReplyFlag     = 0x80 // Set on replies: reply control = request control + 0x80
	ControlAnnounceReply = ControlAnnounce + ControlReplyFlag
)

// Message types
const (
	MsgTypeRead        = 0x03 // Register read (date, sensors, data1, data3)
	MsgTypeCommand     = 0x17 // Generic command (program write, boiler status, data4, sonde)
	MsgTypeAssociation = 0x41 // Pairing announce and reply
	MsgTypeSondeInit   = 0x43 // External probe initialisation
)

// Metadata is the fixed 7-byte frame header.
type Metadata struct {
	Length        byte // Body length + 6
	ToAddr        byte
	FromAddr      byte
	AssociationID byte
	RequestID     byte
	Control       byte
	MsgType       byte
}

// NewMetadata builds a header for a body of bodyLen bytes.
func NewMetadata(from, to, associationID, requestID, control, msgType byte, bodyLen int) (Metadata, error) {
	if bodyLen < 0 || bodyLen > MaxBodySize {
		return Metadata{}, fmt.Errorf("body too large: %d bytes (max %d)", bodyLen, MaxBodySize)
	}
	return Metadata{
		Length:        byte(bodyLen + lengthOffset),
		ToAddr:        to,
		FromAddr:      from,
		AssociationID: associationID,
		RequestID:     requestID,
		Control:       control,
		MsgType:       msgType,
	}, nil
}

// BodyLen returns the body length announced by the header.
func (m Metadata) BodyLen() int {
	return int(m.Length) - lengthOffset
}

// IsReply reports whether the control byte carries the reply flag.
func (m Metadata) IsReply() bool {
	return m.Control&ControlReplyFlag != 0
}

// MarshalBinary encodes the header.
func (m Metadata) MarshalBinary() ([]byte, error) {
	return m.appendTo(make([]byte, 0, HeaderSize)), nil
}

func (m Metadata) appendTo(b []byte) []byte {
	return append(b, m.Length, m.ToAddr, m.FromAddr, m.AssociationID, m.RequestID, m.Control, m.MsgType)
}

// String renders the header the way frames are shown in logs:
// "(len) from > to [assoc|req] control type".
func (m Metadata) String() string {
	return fmt.Sprintf("(%02x) 0x%02x > 0x%02x [%02x|%02x] %02x %02x",
		m.Length, m.FromAddr, m.ToAddr, m.AssociationID, m.RequestID, m.Control, m.MsgType)
}

// DecodeMetadata parses the header from the first seven bytes of frame.
// Only the size is checked; use Decode for a fully validated frame.
func DecodeMetadata(frame []byte) (Metadata, error) {
	if len(frame) < HeaderSize {
		return Metadata{}, NewDecodeError(
			fmt.Sprintf("frame too short: %d bytes (header needs %d)", len(frame), HeaderSize), frame)
	}
	return Metadata{
		Length:        frame[0],
		ToAddr:        frame[1],
		FromAddr:      frame[2],
		AssociationID: frame[3],
		RequestID:     frame[4],
		Control:       frame[5],
		MsgType:       frame[6],
	}, nil
}

// Encode serializes header then body. The header length is recomputed from
// the encoded body so callers may pass a zero Length.
func Encode(meta Metadata, body Body) ([]byte, error) {
	data, err := body.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s body: %w", body.Kind(), err)
	}
	if len(data) > MaxBodySize {
		return nil, fmt.Errorf("body too large: %d bytes (max %d)", len(data), MaxBodySize)
	}
	meta.Length = byte(len(data) + lengthOffset)

	frame := meta.appendTo(make([]byte, 0, HeaderSize+len(data)))
	return append(frame, data...), nil
}

// Decode parses a complete frame into its header and the caller-chosen body.
//
// It fails with a decode error when the frame is shorter than a header, when
// the length field disagrees with the bytes actually received, when the body
// does not fit or when the body's Validate contract fails.
func Decode(frame []byte, body Body) (Metadata, error) {
	meta, err := DecodeMetadata(frame)
	if err != nil {
		return Metadata{}, err
	}
	if int(meta.Length) != len(frame)-1 {
		return meta, NewDecodeError(
			fmt.Sprintf("length field 0x%02x disagrees with frame size %d", meta.Length, len(frame)), frame)
	}
	if err := body.UnmarshalBinary(frame[HeaderSize:]); err != nil {
		return meta, &Error{
			Type:    ErrTypeDecode,
			Message: fmt.Sprintf("failed to decode %s body", body.Kind()),
			Payload: frame[HeaderSize:],
			Err:     err,
		}
	}
	if err := body.Validate(); err != nil {
		return meta, &Error{
			Type:    ErrTypeDecode,
			Message: fmt.Sprintf("%s body assertion failed", body.Kind()),
			Payload: frame[HeaderSize:],
			Err:     err,
		}
	}
	return meta, nil
}
