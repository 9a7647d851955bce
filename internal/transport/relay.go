package transport

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/gorilla/websocket"
	"github.com/muurk/mc6sysex/internal/logging"
	"github.com/muurk/mc6sysex/internal/protocol"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a frame to the relay
	writeWait = 10 * time.Second

	// DefaultMaxRetries bounds dial attempts after the first
	DefaultMaxRetries = 5

	// DefaultHandshakeTimeout bounds one websocket handshake
	DefaultHandshakeTimeout = 5 * time.Second

	// sessionHeader names the relay session in the upgrade response
	sessionHeader = "X-Mc6-Session"
)

// RelayConfig describes how to reach a relay server.
type RelayConfig struct {
	// URL is the websocket endpoint, e.g. ws://10.0.0.2:8765/sysex
	URL string

	// MaxRetries bounds redials after a failed first attempt. Zero uses DefaultMaxRetries,
	// a negative value disables retries.
	MaxRetries int

	// HandshakeTimeout bounds each dial. Zero uses DefaultHandshakeTimeout.
	HandshakeTimeout time.Duration

	// FrameDelay is the pause between consecutive frames of one Send.
	FrameDelay time.Duration

	// InitialInterval overrides the first backoff interval.
	InitialInterval time.Duration

	// Progress, when set, is called after each frame is sent.
	Progress ProgressFunc
}

type relayMessage struct {
	frame []byte
	err   error
}

// RelayClient sends frames to a relay server, one binary websocket message per frame.
// Frames the relay forwards from the device are available through Receive.
type RelayClient struct {
	config RelayConfig
	conn   *websocket.Conn

	writeMu   sync.Mutex
	incoming  chan relayMessage
	closed    chan struct{}
	closeOnce sync.Once
}

// DialRelay connects to the relay at config.URL, retrying with exponential backoff.
func DialRelay(ctx context.Context, config RelayConfig) (*RelayClient, error) {
	u, err := url.Parse(config.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid relay URL %q: %w", config.URL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("invalid relay URL %q: scheme must be ws or wss", config.URL)
	}

	handshake := config.HandshakeTimeout
	if handshake == 0 {
		handshake = DefaultHandshakeTimeout
	}
	dialer := websocket.Dialer{HandshakeTimeout: handshake}

	var conn *websocket.Conn
	var session string
	attempt := 0
	operation := func() error {
		attempt++
		c, resp, err := dialer.DialContext(ctx, config.URL, nil)
		if err != nil {
			logging.Warn("Relay dial failed",
				zap.String("url", config.URL),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return err
		}
		conn = c
		session = resp.Header.Get(sessionHeader)
		return nil
	}

	if err := backoff.Retry(operation, relayBackOff(ctx, config)); err != nil {
		return nil, fmt.Errorf("failed to connect to relay %s after %d attempts: %w", config.URL, attempt, err)
	}

	logging.LogConnection(config.URL, "relay_connected")
	if session != "" {
		logging.Debug("Relay session", zap.String("session", session))
	}

	c := &RelayClient{
		config:   config,
		conn:     conn,
		incoming: make(chan relayMessage, receiveBuffer),
		closed:   make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func relayBackOff(ctx context.Context, config RelayConfig) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	if config.InitialInterval > 0 {
		exp.InitialInterval = config.InitialInterval
	}

	retries := config.MaxRetries
	if retries == 0 {
		retries = DefaultMaxRetries
	}
	if retries < 0 {
		return backoff.WithContext(&backoff.StopBackOff{}, ctx)
	}

	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)
}

func (c *RelayClient) readLoop() {
	defer close(c.incoming)
	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.closed:
				return
			default:
			}
			select {
			case c.incoming <- relayMessage{err: err}:
			case <-c.closed:
			}
			return
		}

		logging.LogWebSocketMessage(c.config.URL, "received", msgType, data)
		if msgType != websocket.BinaryMessage {
			continue
		}

		select {
		case c.incoming <- relayMessage{frame: data}:
		case <-c.closed:
			return
		}
	}
}

// Send validates every frame, then writes them in order.
func (c *RelayClient) Send(ctx context.Context, frames [][]byte) error {
	for i, frame := range frames {
		if _, err := protocol.ParseFrame(frame); err != nil {
			return fmt.Errorf("frame %d: %w", i+1, err)
		}
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	for i, frame := range frames {
		select {
		case <-c.closed:
			return ErrClosed
		default:
		}

		if i > 0 {
			if err := pause(ctx, c.config.FrameDelay); err != nil {
				return err
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		deadline := time.Now().Add(writeWait)
		if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
			deadline = d
		}
		if err := c.conn.SetWriteDeadline(deadline); err != nil {
			return err
		}

		logging.LogFrame(logging.DirectionOut, frame)
		if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			return fmt.Errorf("failed to send frame %d to relay: %w", i+1, err)
		}
		c.config.Progress.report(i+1, len(frames))
	}

	logging.Info("Sent frames to relay",
		zap.String("url", c.config.URL),
		zap.Int("frames", len(frames)),
	)
	return nil
}

// Receive returns the next frame the relay forwarded from the device.
func (c *RelayClient) Receive(ctx context.Context) ([]byte, error) {
	select {
	case <-c.closed:
		return nil, ErrClosed
	default:
	}

	select {
	case msg, ok := <-c.incoming:
		if !ok {
			return nil, ErrClosed
		}
		if msg.err != nil {
			return nil, fmt.Errorf("relay connection lost: %w", msg.err)
		}
		logging.LogFrame(logging.DirectionIn, msg.frame)
		return msg.frame, nil
	case <-c.closed:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close sends a close message and closes the connection.
func (c *RelayClient) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)

		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()

		err = c.conn.Close()
		logging.LogConnection(c.config.URL, "relay_closed")
	})
	return err
}
