// Package gateway implements the WebSocket client for the pairing gateway
// and the session backend built on top of it.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nextlevelbuilder/pairlink/internal/bus"
	"github.com/nextlevelbuilder/pairlink/internal/config"
	"github.com/nextlevelbuilder/pairlink/pkg/protocol"
)

const (
	// maxMessageSize is the maximum allowed WebSocket message size (512KB).
	maxMessageSize = 512 * 1024

	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second

	// Dedupe window for redelivered events after a reconnect.
	dedupeTTL     = 20 * time.Minute
	dedupeMaxSize = 1024
)

// ErrClosed is returned for calls on a closed client.
var ErrClosed = errors.New("gateway: connection closed")

// RPCError is a gateway-reported request failure.
type RPCError struct {
	Code    string
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("gateway: %s (%s)", e.Message, e.Code)
}

// Client is a WebSocket connection to the pairing gateway. It multiplexes
// RPC calls over the connection and fans pushed status events out on a
// StatusBus.
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	bus    *bus.StatusBus
	dedupe *bus.DedupeCache

	mu      sync.Mutex
	pending map[string]chan *protocol.ResponseFrame

	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to the gateway, performs the connect handshake, and starts
// the read and write pumps.
func Dial(ctx context.Context, cfg config.GatewayConfig) (*Client, error) {
	host := cfg.Host
	if host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	u := url.URL{Scheme: "ws", Host: fmt.Sprintf("%s:%d", host, cfg.Port), Path: "/ws"}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("connect to gateway at %s: %w", u.String(), err)
	}

	c := &Client{
		conn:    conn,
		send:    make(chan []byte, 64),
		bus:     bus.New(),
		dedupe:  bus.NewDedupeCache(dedupeTTL, dedupeMaxSize),
		pending: make(map[string]chan *protocol.ResponseFrame),
		done:    make(chan struct{}),
	}
	go c.writePump()
	go c.readPump()

	token, err := ResolveToken(cfg)
	if err != nil {
		c.Close()
		return nil, err
	}
	connectParams, _ := json.Marshal(map[string]interface{}{
		"token":    token,
		"protocol": protocol.ProtocolVersion,
	})
	if _, err := c.Call(ctx, protocol.MethodConnect, connectParams); err != nil {
		c.Close()
		return nil, fmt.Errorf("connect handshake: %w", err)
	}
	return c, nil
}

// Call sends an RPC request and waits for its response.
func (c *Client) Call(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error) {
	id := uuid.NewString()
	ch := make(chan *protocol.ResponseFrame, 1)

	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	data, err := json.Marshal(protocol.RequestFrame{
		Type:   protocol.FrameTypeRequest,
		ID:     id,
		Method: method,
		Params: params,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", method, err)
	}

	select {
	case c.send <- data:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, ErrClosed
	}

	select {
	case resp := <-ch:
		if !resp.OK {
			code, msg := protocol.ErrInternal, "unknown error"
			if resp.Error != nil {
				code, msg = resp.Error.Code, resp.Error.Message
			}
			return nil, &RPCError{Code: code, Message: msg}
		}
		return resp.Payload, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, ErrClosed
	}
}

// Bus returns the status event bus for this connection.
func (c *Client) Bus() *bus.StatusBus { return c.bus }

// Close shuts down the connection. Pending calls fail with ErrClosed.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		c.conn.Close()
	})
}

// readPump reads frames from the WebSocket connection.
func (c *Client) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("gateway read error", "error", err)
			}
			return
		}

		// Reset read deadline on activity
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		c.handleFrame(data)
	}
}

// writePump writes frames and pings to the WebSocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return

		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.Close()
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}

// handleFrame parses and dispatches a single frame.
func (c *Client) handleFrame(data []byte) {
	frameType, err := protocol.ParseFrameType(data)
	if err != nil {
		slog.Warn("gateway sent invalid frame", "error", err)
		return
	}

	switch frameType {
	case protocol.FrameTypeResponse:
		var resp protocol.ResponseFrame
		if err := json.Unmarshal(data, &resp); err != nil {
			slog.Warn("malformed response frame", "error", err)
			return
		}
		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		c.mu.Unlock()
		if !ok {
			slog.Debug("response for unknown request", "id", resp.ID)
			return
		}
		select {
		case ch <- &resp:
		default:
		}

	case protocol.FrameTypeEvent:
		var ev protocol.EventFrame
		if err := json.Unmarshal(data, &ev); err != nil {
			slog.Warn("malformed event frame", "error", err)
			return
		}
		c.handleEvent(ev)

	default:
		slog.Warn("unexpected frame type", "type", frameType)
	}
}

// handleEvent filters, dedupes, and broadcasts a pushed event.
func (c *Client) handleEvent(ev protocol.EventFrame) {
	if !bus.IsStatusEvent(ev.Event) {
		return
	}
	if c.dedupe.IsDuplicate(fmt.Sprintf("%s/%d", ev.Event, ev.Seq)) {
		slog.Debug("dropping redelivered event", "event", ev.Event, "seq", ev.Seq)
		return
	}
	c.bus.Broadcast(bus.Event{Name: ev.Event, Seq: ev.Seq})
}
