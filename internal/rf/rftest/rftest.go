// Package rftest provides a scripted rf.Transport for tests.
package rftest

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/muurk/frisquet/internal/rf"
)

// Event is one scripted receive outcome.
type Event struct {
	Frame   []byte
	Timeout bool
	Err     error
}

// Transport replays scripted events and records everything sent.
//
// Recv skips timeout events (a blocking receive never times out) and returns
// rf.ErrClosed once the script is exhausted. RecvTimeout returns rf.ErrTimeout
// for timeout events and also once the script is exhausted, which lets tests
// model "silence".
type Transport struct {
	Events     []Event
	Sent       [][]byte
	NetworkIDs [][]byte
	Timeouts   []time.Duration
	Sleeps     int

	// OnSend, when set, is called after each Send with the sent frame.
	// It may append to Events to script replies.
	OnSend func(t *Transport, frame []byte)
}

var _ rf.Transport = (*Transport)(nil)

// New returns a transport that will deliver the given frames in order.
func New(frames ...[]byte) *Transport {
	t := &Transport{}
	for _, f := range frames {
		t.Push(f)
	}
	return t
}

// Push appends a frame to the script.
func (t *Transport) Push(frame []byte) {
	t.Events = append(t.Events, Event{Frame: frame})
}

// PushHex appends a hex-encoded frame to the script. It panics on invalid hex.
func (t *Transport) PushHex(s string) {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(fmt.Sprintf("rftest: invalid hex %q: %v", s, err))
	}
	t.Push(b)
}

// PushTimeout appends a receive timeout to the script.
func (t *Transport) PushTimeout() {
	t.Events = append(t.Events, Event{Timeout: true})
}

// PushError appends a transport failure to the script.
func (t *Transport) PushError(err error) {
	t.Events = append(t.Events, Event{Err: err})
}

func (t *Transport) next() (Event, bool) {
	if len(t.Events) == 0 {
		return Event{}, false
	}
	ev := t.Events[0]
	t.Events = t.Events[1:]
	return ev, true
}

func (t *Transport) SetNetworkID(networkID []byte) error {
	t.NetworkIDs = append(t.NetworkIDs, append([]byte(nil), networkID...))
	return nil
}

func (t *Transport) Recv() ([]byte, error) {
	for {
		ev, ok := t.next()
		if !ok {
			return nil, rf.ErrClosed
		}
		switch {
		case ev.Err != nil:
			return nil, ev.Err
		case ev.Timeout:
			continue
		default:
			return ev.Frame, nil
		}
	}
}

func (t *Transport) RecvTimeout(timeout time.Duration) ([]byte, error) {
	t.Timeouts = append(t.Timeouts, timeout)
	ev, ok := t.next()
	if !ok || ev.Timeout {
		return nil, rf.ErrTimeout
	}
	if ev.Err != nil {
		return nil, ev.Err
	}
	return ev.Frame, nil
}

func (t *Transport) Send(frame []byte) error {
	t.Sent = append(t.Sent, append([]byte(nil), frame...))
	if t.OnSend != nil {
		t.OnSend(t, frame)
	}
	return nil
}

func (t *Transport) Sleep() error {
	t.Sleeps++
	return nil
}

// SentHex returns the sent frames hex-encoded.
func (t *Transport) SentHex() []string {
	out := make([]string, len(t.Sent))
	for i, f := range t.Sent {
		out[i] = hex.EncodeToString(f)
	}
	return out
}
