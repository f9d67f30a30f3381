package kernel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
)

// ErrConnectionClosed is returned by Execute after Close.
var ErrConnectionClosed = errors.New("kernel connection closed")

// readBuffer bounds how far the reader may run ahead of the consumer
// before inbound messages are dropped.
const readBuffer = 256

// wireMessage is the outbound envelope for a submission.
type wireMessage struct {
	Header       Header         `json:"header"`
	ParentHeader Header         `json:"parent_header"`
	Metadata     map[string]any `json:"metadata"`
	Content      map[string]any `json:"content"`
	Channel      string         `json:"channel,omitempty"`
}

// DialConfig configures a websocket kernel connection.
type DialConfig struct {
	// URL is the kernel's message channel endpoint.
	// Required.
	URL string

	// Token is an optional bearer token sent on the handshake.
	Token string

	// Logger is an optional logger for connection events.
	Logger *slog.Logger
}

// WSConnection is a Connection over a websocket message channel.
type WSConnection struct {
	conn    *websocket.Conn
	session string
	msgs    chan Message
	closed  atomic.Bool
	logger  *slog.Logger
	dropped atomic.Uint64
}

// Dial opens a websocket connection to a kernel and starts reading its
// message stream.
func Dial(ctx context.Context, cfg DialConfig) (*WSConnection, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("kernel URL is required")
	}

	opts := &websocket.DialOptions{}
	if cfg.Token != "" {
		opts.HTTPHeader = map[string][]string{
			"Authorization": {"token " + cfg.Token},
		}
	}

	conn, _, err := websocket.Dial(ctx, cfg.URL, opts)
	if err != nil {
		return nil, fmt.Errorf("dial kernel %s: %w", cfg.URL, err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c := &WSConnection{
		conn:    conn,
		session: uuid.NewString(),
		msgs:    make(chan Message, readBuffer),
		logger:  logger,
	}
	go c.readLoop()
	return c, nil
}

// Execute submits code over the connection and returns the submission's
// message id.
func (c *WSConnection) Execute(ctx context.Context, code string) (string, error) {
	if c.closed.Load() {
		return "", ErrConnectionClosed
	}

	msgID := uuid.NewString()
	msg := wireMessage{
		Header: Header{
			MsgID:   msgID,
			MsgType: MsgTypeExecuteRequest,
			Session: c.session,
		},
		Metadata: map[string]any{},
		Content: map[string]any{
			"code":          code,
			"silent":        false,
			"store_history": false,
		},
		Channel: "shell",
	}
	if err := wsjson.Write(ctx, c.conn, msg); err != nil {
		return "", fmt.Errorf("submit execution: %w", err)
	}
	return msgID, nil
}

// Messages yields inbound kernel messages in arrival order.
func (c *WSConnection) Messages() <-chan Message {
	return c.msgs
}

// Close shuts down the websocket and the Messages channel.
func (c *WSConnection) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.conn.Close(websocket.StatusNormalClosure, "gateway shutdown")
}

// Dropped reports how many inbound messages were discarded because the
// consumer fell behind.
func (c *WSConnection) Dropped() uint64 {
	return c.dropped.Load()
}

func (c *WSConnection) readLoop() {
	defer close(c.msgs)
	for {
		var msg Message
		if err := wsjson.Read(context.Background(), c.conn, &msg); err != nil {
			if !c.closed.Load() {
				c.logger.Debug("kernel read loop ended", "session", c.session, "error", err)
			}
			return
		}
		select {
		case c.msgs <- msg:
		default:
			c.dropped.Add(1)
			c.logger.Warn("kernel message dropped, consumer behind",
				"session", c.session, "msg_type", msg.Header.MsgType)
		}
	}
}
