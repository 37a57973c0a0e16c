package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/dekkerglen/dr4ft/pkg/types"
)

const outboxSize = 32

// conn adapts a websocket to the game.Conn contract: buffered outbox the
// writer goroutine drains, closed exactly once. A player whose outbox
// fills up is treated as gone, the same policy the lobby applies.
type conn struct {
	out    chan types.ServerMessage
	done   chan struct{}
	once   sync.Once
	logger *zap.Logger
}

func newConn(logger *zap.Logger) *conn {
	return &conn{
		out:    make(chan types.ServerMessage, outboxSize),
		done:   make(chan struct{}),
		logger: logger,
	}
}

func (c *conn) Send(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error("marshal event", zap.String("event", event), zap.Error(err))
		return
	}
	select {
	case c.out <- types.ServerMessage{Type: event, Data: data}:
	case <-c.done:
	default:
		// Outbox full: the client is not consuming. Drop the connection.
		c.Close()
	}
}

func (c *conn) Err(msg string) {
	c.Send("error", msg)
}

func (c *conn) Close() {
	c.once.Do(func() { close(c.done) })
}

func (c *conn) closed() <-chan struct{} { return c.done }
