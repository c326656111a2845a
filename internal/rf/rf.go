// Package rf defines the radio transport contract used by the protocol engine.
//
// A transport moves whole frames (header + body, no framing bytes) between the
// host and the radio. Two adapters exist: a line-based serial adapter for the
// Heltec SX1262 bridge firmware (package rf/serial) and a JSON-over-MQTT
// adapter (package rf/mqtt). Tests use the scripted transport in rf/rftest.
//
// Transports are not safe for concurrent use. A single command owns the
// transport for its whole duration.
package rf

import (
	"errors"
	"time"
)

// BroadcastNetworkID is the network id the radio listens on while pairing.
var BroadcastNetworkID = []byte{0xff, 0xff, 0xff, 0xff}

// ErrTimeout is returned by RecvTimeout when nothing arrived before the deadline.
// Adapters may wrap it; callers test with errors.Is.
var ErrTimeout = errors.New("timed out waiting on receive operation")

// ErrClosed is returned once a transport has been closed or has no more data.
var ErrClosed = errors.New("transport closed")

// Transport is the capability set the protocol engine needs from a radio link.
type Transport interface {
	// SetNetworkID selects the 4-byte network (sync word) the radio uses.
	SetNetworkID(networkID []byte) error
	// Recv blocks until a frame is received.
	Recv() ([]byte, error)
	// RecvTimeout blocks until a frame is received or timeout elapses, in
	// which case an error matching ErrTimeout is returned.
	RecvTimeout(timeout time.Duration) ([]byte, error)
	// Send transmits a frame.
	Send(frame []byte) error
	// Sleep puts the radio into low-power mode until the next command.
	Sleep() error
}
