// Package mqtt implements rf.Transport through an MQTT broker relaying a
// remote radio bridge.
//
// Commands are published as JSON objects on the command topic; received
// frames arrive on the listen topic as {"data": "<hex>"}.
package mqtt

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/muurk/frisquet/internal/logging"
	"github.com/muurk/frisquet/internal/rf"
	"go.uber.org/zap"
)

const (
	keepAlive      = 20 * time.Second
	connectTimeout = 10 * time.Second
	queueSize      = 64
)

// Config holds the broker settings
type Config struct {
	Host     string `yaml:"host" toml:"host"`
	Port     int    `yaml:"port" toml:"port"`
	Username string `yaml:"username,omitempty" toml:"username,omitempty"`
	Password string `yaml:"password,omitempty" toml:"password,omitempty"`
	ClientID string `yaml:"client_id" toml:"client_id"`
	CmdTopic string `yaml:"cmd_topic" toml:"cmd_topic"`
	LstTopic string `yaml:"lst_topic" toml:"lst_topic"`
}

// Broker returns the broker URL.
func (c Config) Broker() string {
	return fmt.Sprintf("tcp://%s:%d", c.Host, c.Port)
}

// Command is a message published on the command topic.
type Command struct {
	Type      string `json:"type"`
	NetworkID string `json:"network_id,omitempty"`
	Payload   string `json:"payload,omitempty"`
}

// Received is a message read from the listen topic.
type Received struct {
	Data string `json:"data"`
}

// publisher is the part of the broker connection the transport needs.
type publisher interface {
	publish(topic string, payload []byte) error
	close()
}

type pahoPublisher struct {
	client paho.Client
}

func (p pahoPublisher) publish(topic string, payload []byte) error {
	token := p.client.Publish(topic, 0, false, payload)
	token.Wait()
	return token.Error()
}

func (p pahoPublisher) close() {
	p.client.Disconnect(250)
}

// Client is an MQTT rf.Transport.
type Client struct {
	pub      publisher
	cmdTopic string
	frames   chan []byte
	done     chan struct{}
	once     sync.Once
}

var _ rf.Transport = (*Client)(nil)

// Dial connects to the broker and subscribes to the listen topic.
func Dial(cfg Config) (*Client, error) {
	c := newClient(nil, cfg.CmdTopic)

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker()).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetKeepAlive(keepAlive).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetOnConnectHandler(func(client paho.Client) {
			logging.Info("Connected to MQTT broker", zap.String("broker", cfg.Broker()))
			token := client.Subscribe(cfg.LstTopic, 0, func(_ paho.Client, msg paho.Message) {
				c.deliver(msg.Payload())
			})
			if token.Wait() && token.Error() != nil {
				logging.Error("Failed to subscribe", zap.String("topic", cfg.LstTopic), zap.Error(token.Error()))
			}
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logging.Warn("MQTT connection lost", zap.Error(err))
		})

	client := paho.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Broker(), token.Error())
	}
	c.pub = pahoPublisher{client: client}
	return c, nil
}

func newClient(pub publisher, cmdTopic string) *Client {
	return &Client{pub: pub, cmdTopic: cmdTopic, frames: make(chan []byte, queueSize), done: make(chan struct{})}
}

// Close disconnects from the broker. Pending and later receives fail with
// rf.ErrClosed.
func (c *Client) Close() error {
	c.once.Do(func() {
		close(c.done)
		c.pub.close()
	})
	return nil
}

// deliver decodes a listen topic message and queues its frame. Malformed
// messages are dropped, as are frames arriving while the queue is full.
func (c *Client) deliver(payload []byte) {
	var msg Received
	if err := json.Unmarshal(payload, &msg); err != nil {
		logging.Debug("Ignoring malformed MQTT message", zap.ByteString("payload", payload))
		return
	}
	frame, err := hex.DecodeString(msg.Data)
	if err != nil || len(frame) == 0 {
		logging.Debug("Ignoring MQTT message without frame", zap.String("data", msg.Data))
		return
	}
	logging.LogFrame("recv", "mqtt", frame)
	select {
	case c.frames <- frame:
	default:
		logging.Warn("Dropping frame, receive queue full")
	}
}

func (c *Client) command(cmd Command) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	if err := c.pub.publish(c.cmdTopic, payload); err != nil {
		return fmt.Errorf("failed to publish %s command: %w", cmd.Type, err)
	}
	return nil
}

func (c *Client) SetNetworkID(networkID []byte) error {
	return c.command(Command{Type: "set_network_id", NetworkID: hex.EncodeToString(networkID)})
}

func (c *Client) Send(frame []byte) error {
	return c.command(Command{Type: "send", Payload: hex.EncodeToString(frame)})
}

func (c *Client) Sleep() error {
	return c.command(Command{Type: "sleep"})
}

func (c *Client) Recv() ([]byte, error) {
	if err := c.command(Command{Type: "listen"}); err != nil {
		return nil, err
	}
	select {
	case frame := <-c.frames:
		return frame, nil
	case <-c.done:
		return nil, rf.ErrClosed
	}
}

func (c *Client) RecvTimeout(timeout time.Duration) ([]byte, error) {
	if err := c.command(Command{Type: "listen"}); err != nil {
		return nil, err
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case frame := <-c.frames:
		return frame, nil
	case <-timer.C:
		return nil, rf.ErrTimeout
	case <-c.done:
		return nil, rf.ErrClosed
	}
}
