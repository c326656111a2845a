package serial

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/muurk/frisquet/internal/rf"
)

// fakePort returns one scripted chunk per Read and (0, nil) once drained,
// like a port whose read timeout expired.
type fakePort struct {
	chunks  [][]byte
	written bytes.Buffer
	eof     bool
}

func (p *fakePort) Read(b []byte) (int, error) {
	if len(p.chunks) == 0 {
		if p.eof {
			return 0, io.EOF
		}
		return 0, nil
	}
	n := copy(b, p.chunks[0])
	p.chunks = p.chunks[1:]
	return n, nil
}

func (p *fakePort) Write(b []byte) (int, error) { return p.written.Write(b) }
func (p *fakePort) Close() error                { return nil }

func TestCommands(t *testing.T) {
	port := &fakePort{}
	c := New(port)

	if err := c.SetNetworkID([]byte{0x12, 0x34, 0x56, 0x78}); err != nil {
		t.Fatalf("SetNetworkID() error = %v", err)
	}
	if err := c.Send([]byte{0x06, 0x80, 0x20, 0x20, 0x94, 0x82, 0x41}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if err := c.Sleep(); err != nil {
		t.Fatalf("Sleep() error = %v", err)
	}

	want := "NID: 12345678\nCMD: 06802020948241\nSLP:\n"
	if got := port.written.String(); got != want {
		t.Errorf("written = %q, want %q", got, want)
	}
}

func TestRecvSplitsLines(t *testing.T) {
	port := &fakePort{chunks: [][]byte{
		[]byte("0620802094"),
		[]byte("8241\r\nnot hex\r\n0f7e80"),
		[]byte("12d88103082304051131172803\n"),
	}}
	c := New(port)

	first, err := c.Recv()
	if err != nil {
		t.Fatalf("Recv() error = %v", err)
	}
	if !bytes.Equal(first, []byte{0x06, 0x20, 0x80, 0x20, 0x94, 0x82, 0x41}) {
		t.Errorf("first frame = %x", first)
	}
	second, err := c.Recv()
	if err != nil {
		t.Fatalf("Recv() error = %v", err)
	}
	if len(second) != 16 || second[4] != 0xd8 {
		t.Errorf("second frame = %x", second)
	}

	if got := port.written.String(); got != "LST:\n" {
		t.Errorf("written = %q, want a single LST", got)
	}
}

func TestListenAfterSend(t *testing.T) {
	port := &fakePort{chunks: [][]byte{[]byte("06802020948241\n"), []byte("06802020948241\n")}}
	c := New(port)

	if _, err := c.Recv(); err != nil {
		t.Fatalf("Recv() error = %v", err)
	}
	if err := c.Send([]byte{0x01}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if _, err := c.Recv(); err != nil {
		t.Fatalf("Recv() error = %v", err)
	}

	want := "LST:\nCMD: 01\nLST:\n"
	if got := port.written.String(); got != want {
		t.Errorf("written = %q, want %q", got, want)
	}
}

func TestRecvTimeout(t *testing.T) {
	c := New(&fakePort{})
	start := time.Unix(0, 0)
	calls := 0
	c.now = func() time.Time {
		calls++
		return start.Add(time.Duration(calls) * 4 * time.Millisecond)
	}

	_, err := c.RecvTimeout(20 * time.Millisecond)
	if !errors.Is(err, rf.ErrTimeout) {
		t.Errorf("RecvTimeout() error = %v, want rf.ErrTimeout", err)
	}
}

func TestRecvClosedPort(t *testing.T) {
	c := New(&fakePort{eof: true})
	if _, err := c.Recv(); !errors.Is(err, rf.ErrClosed) {
		t.Errorf("Recv() error = %v, want rf.ErrClosed", err)
	}
}
