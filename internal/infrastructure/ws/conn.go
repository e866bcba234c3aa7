package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// connWrapper serializes writes; gorilla allows only one concurrent writer.
type connWrapper struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func newConnWrapper(conn *websocket.Conn) *connWrapper {
	return &connWrapper{conn: conn}
}

func (c *connWrapper) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *connWrapper) Close() error {
	return c.conn.Close()
}
