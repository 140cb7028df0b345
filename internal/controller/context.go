package controller

import (
	"context"

	"github.com/jamqueue/server/internal/repository/connection"
)

type contextKey int

const (
	clientIdCtxKey contextKey = iota
	connCtxKey
)

func (c controller) getClientIdFromCtx(ctx context.Context) string {
	clientId, ok := ctx.Value(clientIdCtxKey).(string)
	if !ok {
		return ""
	}

	return clientId
}

// getConnFromCtx returns the sender's write-serialized connection handle.
func (c controller) getConnFromCtx(ctx context.Context) *connection.Conn {
	conn, ok := ctx.Value(connCtxKey).(*connection.Conn)
	if !ok {
		return nil
	}

	return conn
}
