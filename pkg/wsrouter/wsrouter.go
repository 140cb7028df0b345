package wsrouter

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// HandlerFunc receives the raw payload only. The connection is deliberately
// not exposed: replies must go through whatever write-serialized handle the
// caller put in ctx, never the bare conn this router reads from.
type HandlerFunc func(ctx context.Context, payload json.RawMessage)

// WSRouter dispatches incoming websocket messages to handlers by message type.
type WSRouter struct {
	routes map[string]HandlerFunc
}

func New() *WSRouter {
	return &WSRouter{routes: make(map[string]HandlerFunc)}
}

func (r *WSRouter) Handle(messageType string, handler HandlerFunc) {
	r.routes[messageType] = handler
}

// ServeConn reads messages from conn until it fails, dispatching each one.
// Messages with an unknown type are dropped.
func (r *WSRouter) ServeConn(ctx context.Context, conn *websocket.Conn) error {
	defer conn.Close()

	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}

		if handler, exists := r.routes[msg.Type]; exists {
			handler(ctx, msg.Payload)
		}
	}
}
