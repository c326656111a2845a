// Package serial implements rf.Transport over the serial link of a Heltec
// radio running the frisquet bridge firmware.
//
// The firmware speaks a line protocol:
//
//	NID: <hex>   select the network id
//	CMD: <hex>   transmit a frame
//	LST:         listen; received frames are printed as hex lines
//	SLP:         put the radio to sleep
package serial

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/muurk/frisquet/internal/logging"
	"github.com/muurk/frisquet/internal/rf"
	goserial "go.bug.st/serial"
	"go.uber.org/zap"
)

// ReadTimeout is the port read timeout; it paces the receive loop.
const ReadTimeout = 10 * time.Millisecond

// Config holds the serial port settings
type Config struct {
	Port  string `yaml:"port" toml:"port"`
	Speed int    `yaml:"speed" toml:"speed"`
}

type mode int

const (
	modeIdle mode = iota
	modeListen
	modeSleep
)

// Client is a serial rf.Transport.
type Client struct {
	port    io.ReadWriteCloser
	buf     []byte
	packets [][]byte
	mode    mode
	now     func() time.Time
}

var _ rf.Transport = (*Client)(nil)

// Open opens the serial port described by cfg.
func Open(cfg Config) (*Client, error) {
	port, err := goserial.Open(cfg.Port, &goserial.Mode{
		BaudRate: cfg.Speed,
		DataBits: 8,
		Parity:   goserial.NoParity,
		StopBits: goserial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Port, err)
	}
	if err := port.SetReadTimeout(ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", cfg.Port, err)
	}
	logging.Info("Serial port opened", zap.String("port", cfg.Port), zap.Int("speed", cfg.Speed))
	return New(port), nil
}

// New wraps an already open port. Reads must return (0, nil) when nothing
// arrived within the port's read timeout.
func New(port io.ReadWriteCloser) *Client {
	return &Client{port: port, now: time.Now}
}

// Close closes the port.
func (c *Client) Close() error {
	return c.port.Close()
}

func (c *Client) command(format string, args ...any) error {
	line := fmt.Sprintf(format, args...)
	if _, err := io.WriteString(c.port, line); err != nil {
		return fmt.Errorf("serial write failed: %w", err)
	}
	if d, ok := c.port.(interface{ Drain() error }); ok {
		if err := d.Drain(); err != nil {
			return fmt.Errorf("serial drain failed: %w", err)
		}
	}
	return nil
}

func (c *Client) SetNetworkID(networkID []byte) error {
	c.mode = modeIdle
	return c.command("NID: %s\n", hex.EncodeToString(networkID))
}

func (c *Client) Send(frame []byte) error {
	c.mode = modeIdle
	return c.command("CMD: %s\n", hex.EncodeToString(frame))
}

func (c *Client) Sleep() error {
	c.mode = modeSleep
	return c.command("SLP:\n")
}

func (c *Client) Recv() ([]byte, error) {
	for {
		frame, err := c.tryRecv()
		if err != nil || frame != nil {
			return frame, err
		}
	}
}

func (c *Client) RecvTimeout(timeout time.Duration) ([]byte, error) {
	deadline := c.now().Add(timeout)
	for {
		frame, err := c.tryRecv()
		if err != nil || frame != nil {
			return frame, err
		}
		if c.now().After(deadline) {
			return nil, rf.ErrTimeout
		}
	}
}

// tryRecv returns a queued frame or performs one read. It switches the radio
// to listen mode first if needed.
func (c *Client) tryRecv() ([]byte, error) {
	if frame := c.pop(); frame != nil {
		return frame, nil
	}

	if c.mode != modeListen {
		if err := c.command("LST:\n"); err != nil {
			return nil, err
		}
		c.mode = modeListen
	}

	var chunk [512]byte
	n, err := c.port.Read(chunk[:])
	if errors.Is(err, io.EOF) {
		return nil, rf.ErrClosed
	}
	if err != nil {
		return nil, fmt.Errorf("serial read failed: %w", err)
	}
	c.feed(chunk[:n])
	return c.pop(), nil
}

// feed splits input into lines and queues those that decode as hex.
func (c *Client) feed(data []byte) {
	for _, b := range data {
		switch b {
		case '\r':
		case '\n':
			line := bytes.TrimSpace(c.buf)
			if frame, err := hex.DecodeString(string(line)); err != nil {
				logging.Debug("Ignoring serial line", zap.ByteString("line", line))
			} else if len(frame) > 0 {
				logging.LogFrame("recv", "serial", frame)
				c.packets = append(c.packets, frame)
			}
			c.buf = c.buf[:0]
		default:
			c.buf = append(c.buf, b)
		}
	}
}

func (c *Client) pop() []byte {
	if len(c.packets) == 0 {
		return nil
	}
	frame := c.packets[0]
	c.packets = c.packets[1:]
	return frame
}
