package protocol

import (
	"fmt"

	"github.com/muurk/frisquet/internal/logging"
	"github.com/muurk/frisquet/internal/rf"
)

// Register query signatures sent to the boiler.
var (
	sigDateQuery    = [4]byte{0xa0, 0x2b, 0x00, 0x04}
	sigSensorsQuery = [4]byte{0x79, 0xe0, 0x00, 0x1c}
	sigData1Query   = [4]byte{0x79, 0xfc, 0x00, 0x1c}
	sigData3Query   = [4]byte{0x7a, 0x34, 0x00, 0x1c}
	sigData4Query   = [11]byte{0xa0, 0xf0, 0x00, 0x15, 0x9c, 0x40, 0x00, 0x01, 0x02, 0x00, 0x00}

	// SigProgramWrite prefixes an area program write (a1540018).
	SigProgramWrite = [4]byte{0xa1, 0x54, 0x00, 0x18}
	// SigBoilerStatus prefixes a boiler status command (a0f00015).
	SigBoilerStatus = [4]byte{0xa0, 0xf0, 0x00, 0x15}

	sondeTemperatureHeader = [9]byte{0x9c, 0x54, 0x00, 0x04, 0xa0, 0x29, 0x00, 0x01, 0x02}
)

// DateQuery returns the body that asks the boiler for its clock.
func DateQuery() *Command { return &Command{Data: append([]byte(nil), sigDateQuery[:]...)} }

// SensorsQuery returns the body that asks for the temperature snapshot.
func SensorsQuery() *Command { return &Command{Data: append([]byte(nil), sigSensorsQuery[:]...)} }

// Data1Query returns the body that asks for the first register dump.
func Data1Query() *Command { return &Command{Data: append([]byte(nil), sigData1Query[:]...)} }

// Data3Query returns the body that asks for the third register dump.
func Data3Query() *Command { return &Command{Data: append([]byte(nil), sigData3Query[:]...)} }

// Data4Query returns the data4 command body (sent as a 0x17 command).
func Data4Query() *Command { return &Command{Data: append([]byte(nil), sigData4Query[:]...)} }

// IsDateQuery and friends classify a raw body as one of the known queries.
func IsDateQuery(body []byte) bool    { return string(body) == string(sigDateQuery[:]) }
func IsSensorsQuery(body []byte) bool { return string(body) == string(sigSensorsQuery[:]) }
func IsData1Query(body []byte) bool   { return string(body) == string(sigData1Query[:]) }
func IsData3Query(body []byte) bool   { return string(body) == string(sigData3Query[:]) }

// NewAreaBody returns a program write body with the signature, echo and
// length already set. Setpoints, mode, flags and days are left to the caller.
func NewAreaBody() *AreaBody {
	return &AreaBody{
		Cmd:    SigProgramWrite,
		Cmd2:   SigProgramWrite,
		Length: AreaLength,
		Flags:  DefaultAreaFlags(),
	}
}

// NewSondeInit returns the probe initialisation body.
func NewSondeInit() *SondeInit {
	return &SondeInit{}
}

// NewSondeTemperature returns a probe report for celsius degrees.
func NewSondeTemperature(celsius float64) (*SondeTemperature, error) {
	tenths, err := Tenths(celsius)
	if err != nil {
		return nil, err
	}
	return &SondeTemperature{Data: sondeTemperatureHeader, Temperature: tenths}, nil
}

// SendCmd encodes a frame and transmits it, logging the outgoing frame.
func SendCmd(t rf.Transport, from, to, associationID, requestID, control, msgType byte, body Body) error {
	meta := Metadata{
		ToAddr:        to,
		FromAddr:      from,
		AssociationID: associationID,
		RequestID:     requestID,
		Control:       control,
		MsgType:       msgType,
	}
	frame, err := Encode(meta, body)
	if err != nil {
		return &Error{Type: ErrTypeConfig, Message: fmt.Sprintf("failed to encode %s frame", body.Kind()), Err: err}
	}

	meta.Length = frame[0]
	logging.LogFrame("send", meta.String(), frame)

	if err := t.Send(frame); err != nil {
		return NewTransportError("send failed", err)
	}
	return nil
}

// Filter reports whether the frame header carries exactly the given source,
// destination, association and request ids. Frames too short to hold a header
// never match.
func Filter(frame []byte, from, to, associationID, requestID byte) bool {
	meta, err := DecodeMetadata(frame)
	if err != nil {
		return false
	}
	return meta.FromAddr == from &&
		meta.ToAddr == to &&
		meta.AssociationID == associationID &&
		meta.RequestID == requestID
}
