package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/mc6sysex/internal/logging"
	"github.com/muurk/mc6sysex/internal/protocol"
	"github.com/muurk/mc6sysex/internal/transport"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. A preset frame is 156 bytes.
	maxMessageSize = 8192

	// SessionHeader carries the relay session ID in the upgrade response
	SessionHeader = "X-Mc6-Session"
)

// client is the websocket connection currently attached to the relay.
type client struct {
	id         string
	conn       *websocket.Conn
	remoteAddr string

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(id string, conn *websocket.Conn, remoteAddr string) *client {
	return &client{
		id:         id,
		conn:       conn,
		remoteAddr: remoteAddr,
		done:       make(chan struct{}),
	}
}

// serve reads frames from the client and forwards valid ones to the device
// until the client disconnects or ctx ends.
func (c *client) serve(ctx context.Context, device transport.Sender) error {
	logging.LogConnection(c.remoteAddr, "websocket_upgraded")
	logging.Info("Relay session started", zap.String("session", c.id), zap.String("remote_addr", c.remoteAddr))
	defer func() {
		c.close()
		logging.LogConnection(c.remoteAddr, "websocket_closed")
		logging.Info("Relay session ended", zap.String("session", c.id))
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return err
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go c.pingLoop()

	messageNum := 0
	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return nil
			default:
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Info("Client closed connection", zap.String("remote_addr", c.remoteAddr))
				return nil
			}
			return fmt.Errorf("read failed: %w", err)
		}

		messageNum++
		logging.LogWebSocketMessage(c.remoteAddr, "received", msgType, data)

		if msgType != websocket.BinaryMessage {
			logging.Warn("Ignoring non-binary message",
				zap.String("remote_addr", c.remoteAddr),
				zap.Int("message_num", messageNum),
			)
			continue
		}

		if _, err := protocol.ParseFrame(data); err != nil {
			logging.Warn("Dropping invalid frame from client",
				zap.String("remote_addr", c.remoteAddr),
				zap.Int("message_num", messageNum),
				zap.String("error", protocol.GetShortErrorMessage(err)),
			)
			logging.LogRawBytes("Invalid frame", data)
			continue
		}

		if err := device.Send(ctx, [][]byte{data}); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to forward frame %d to device: %w", messageNum, err)
		}
	}
}

// send writes one device frame to the client.
func (c *client) send(frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	logging.LogWebSocketMessage(c.remoteAddr, "sent", websocket.BinaryMessage, frame)
	return nil
}

func (c *client) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.writeMu.Unlock()
			if err != nil {
				logging.Debug("Ping failed", zap.String("remote_addr", c.remoteAddr), zap.Error(err))
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "relay closing"),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		_ = c.conn.Close()
	})
}
