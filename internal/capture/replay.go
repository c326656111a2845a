package capture

import (
	"fmt"
	"os"
	"time"

	"github.com/muurk/frisquet/internal/logging"
	"github.com/muurk/frisquet/internal/rf"
)

// Replay is a read-only rf.Transport serving the frames of a capture in
// order. Once exhausted, receives return rf.ErrClosed. Sent frames are
// dropped.
type Replay struct {
	frames  [][]byte
	pos     int
	dropped int
}

var _ rf.Transport = (*Replay)(nil)

// NewReplay creates a replay transport over frames.
func NewReplay(frames [][]byte) *Replay {
	return &Replay{frames: frames}
}

// OpenReplay loads a capture file.
func OpenReplay(path string) (*Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture: %w", err)
	}
	defer func() { _ = f.Close() }()

	frames, err := ReadFrames(f)
	if err != nil {
		return nil, err
	}
	return NewReplay(frames), nil
}

// Len returns the number of frames not yet served.
func (r *Replay) Len() int {
	return len(r.frames) - r.pos
}

func (r *Replay) SetNetworkID([]byte) error { return nil }

func (r *Replay) Send(frame []byte) error {
	r.dropped++
	logging.Debug("Replay dropped outgoing frame", logging.Hex("frame", frame))
	return nil
}

// Dropped returns the number of frames sent to the replay.
func (r *Replay) Dropped() int {
	return r.dropped
}

func (r *Replay) Sleep() error { return nil }

func (r *Replay) Recv() ([]byte, error) {
	if r.pos >= len(r.frames) {
		return nil, rf.ErrClosed
	}
	frame := r.frames[r.pos]
	r.pos++
	return frame, nil
}

func (r *Replay) RecvTimeout(time.Duration) ([]byte, error) {
	return r.Recv()
}
