package controller

import (
	"context"
	"net/http"

	"github.com/jamqueue/server/internal/repository/connection"
	"github.com/jamqueue/server/internal/service/jukebox"
)

func (c controller) serveWS(w http.ResponseWriter, r *http.Request) {
	role := connection.RoleListener
	if r.URL.Query().Get("role") == string(connection.RoleDisplay) {
		role = connection.RoleDisplay
	}

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	// every write from here on goes through the serialized handle
	wsConn := connection.NewConn(conn)

	connectResp, err := c.jukeboxService.Connect(r.Context(), &jukebox.ConnectParams{
		Conn: wsConn,
		Role: role,
	})
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to connect client", "error", err)
		wsConn.Close()
		return
	}
	defer c.disconnect(r.Context(), connectResp.ClientId)

	c.writeToConn(r.Context(), wsConn, &Output{
		Type:    "queue-updated",
		Payload: connectResp.Snapshot,
	})

	ctx := context.WithValue(r.Context(), clientIdCtxKey, connectResp.ClientId)
	ctx = context.WithValue(ctx, connCtxKey, wsConn)
	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		c.logger.DebugContext(r.Context(), "conn closed", "client_id", connectResp.ClientId, "error", err)
	}
}

func (c controller) disconnect(ctx context.Context, clientId string) {
	if err := c.jukeboxService.Disconnect(ctx, &jukebox.DisconnectParams{ClientId: clientId}); err != nil {
		c.logger.WarnContext(ctx, "failed to disconnect client", "error", err)
	}
}
