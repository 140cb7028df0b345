package controller

import (
	"context"

	"github.com/jamqueue/server/internal/repository/connection"
	"github.com/jamqueue/server/internal/repository/queue"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// broadcast writes the message to every conn. A failed write only logs; the
// reader loop owns closing broken connections.
func (c controller) broadcast(ctx context.Context, conns []*connection.Conn, out *Output) {
	for _, conn := range conns {
		if err := conn.WriteJSON(out); err != nil {
			c.logger.DebugContext(ctx, "failed to write to conn", "error", err)
		}
	}
}

func (c controller) writeToConn(ctx context.Context, conn *connection.Conn, out *Output) {
	if conn == nil {
		return
	}
	if err := conn.WriteJSON(out); err != nil {
		c.logger.DebugContext(ctx, "failed to write to conn", "error", err)
	}
}

func (c controller) broadcastQueueUpdated(ctx context.Context, conns []*connection.Conn, snapshot queue.Snapshot) {
	c.broadcast(ctx, conns, &Output{
		Type:    "queue-updated",
		Payload: snapshot,
	})
}
