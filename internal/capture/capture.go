// Package capture records sniffed traffic as JSON Lines and replays it.
//
// Each line of a capture file is one Record. Files are named
// capture-YYYYMMDD-HHMMSS.jsonl after the time the recorder was opened.
package capture

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/muurk/frisquet/internal/connect"
	"github.com/muurk/frisquet/internal/logging"
	"go.uber.org/zap"
)

// Record is one captured frame.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	Num       int       `json:"num"`
	Direction string    `json:"direction"`
	Header    string    `json:"header"`
	Signature string    `json:"signature"`
	Kind      string    `json:"kind"`
	Body      any       `json:"body,omitempty"`
	FrameHex  string    `json:"frame_hex"`
	Error     string    `json:"error,omitempty"`
}

// NewRecord builds the record of an observation.
func NewRecord(num int, obs *connect.Observation) Record {
	rec := Record{
		Timestamp: obs.Time,
		Num:       num,
		Direction: obs.Direction(),
		Header:    obs.Meta.String(),
		Signature: obs.Signature.String(),
		FrameHex:  hex.EncodeToString(obs.Frame),
	}
	if obs.Body != nil {
		rec.Kind = obs.Body.Kind().String()
		rec.Body = obs.Body
	}
	if obs.Err != nil {
		rec.Error = obs.Err.Error()
	}
	return rec
}

// Recorder appends observations to a capture file.
type Recorder struct {
	path string
	file *os.File
	w    *bufio.Writer
	num  int
}

// NewRecorder creates dir if needed and opens a new capture file in it.
func NewRecorder(dir string) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create capture directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("capture-%s.jsonl", time.Now().Format("20060102-150405")))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture file: %w", err)
	}
	logging.Info("Recording capture", zap.String("filename", path))
	return &Recorder{path: path, file: f, w: bufio.NewWriter(f)}, nil
}

// Path returns the capture file path.
func (r *Recorder) Path() string {
	return r.path
}

// Record appends obs. Failures are logged; capture never stops sniffing.
func (r *Recorder) Record(obs *connect.Observation) {
	r.num++
	data, err := json.Marshal(NewRecord(r.num, obs))
	if err != nil {
		logging.Error("Failed to marshal capture record", zap.Error(err))
		return
	}
	if _, err := r.w.Write(append(data, '\n')); err != nil {
		logging.Error("Failed to write capture record",
			zap.String("filename", r.path),
			zap.Error(err),
		)
		return
	}
	if err := r.w.Flush(); err != nil {
		logging.Error("Failed to flush capture file", zap.String("filename", r.path), zap.Error(err))
	}
}

// Close flushes and closes the capture file.
func (r *Recorder) Close() error {
	if err := r.w.Flush(); err != nil {
		_ = r.file.Close()
		return err
	}
	return r.file.Close()
}

// ReadFrames reads the frames of a capture. Lines that are not records or
// carry no decodable frame are logged and skipped.
func ReadFrames(r io.Reader) ([][]byte, error) {
	var frames [][]byte
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(text, &rec); err != nil {
			logging.Warn("Skipping malformed capture line", zap.Int("line", line), zap.Error(err))
			continue
		}
		frame, err := hex.DecodeString(rec.FrameHex)
		if err != nil || len(frame) == 0 {
			logging.Warn("Skipping capture line without frame", zap.Int("line", line))
			continue
		}
		frames = append(frames, frame)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read capture: %w", err)
	}
	return frames, nil
}
