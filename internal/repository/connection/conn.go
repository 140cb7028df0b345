package connection

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Conn serializes writes to a websocket connection. gorilla/websocket allows
// at most one concurrent writer, but broadcasts run on whichever client's
// reader goroutine triggered the mutation, so writes to the same connection
// can arrive from several goroutines at once.
type Conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

func (c *Conn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.ws.WriteJSON(v)
}

func (c *Conn) Close() error {
	return c.ws.Close()
}
