package jukebox

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/google/uuid"
	"github.com/jamqueue/server/internal/repository/connection"
	"github.com/jamqueue/server/internal/repository/queue"
)

type ConnectParams struct {
	Conn *connection.Conn
	Role connection.Role
}

type ConnectResponse struct {
	ClientId string
	Snapshot queue.Snapshot
}

// Connect registers an observer. The returned snapshot must be written to the
// connection before any broadcast can reach it.
func (s *service) Connect(ctx context.Context, params *ConnectParams) (ConnectResponse, error) {
	clientId := uuid.NewString()

	if err := s.connRepo.Add(params.Conn, clientId, params.Role); err != nil {
		return ConnectResponse{}, fmt.Errorf("failed to add connection: %w", err)
	}

	s.logger.InfoContext(ctx, "client connected", "client_id", clientId, "role", params.Role)

	return ConnectResponse{
		ClientId: clientId,
		Snapshot: s.queueRepo.Snapshot(),
	}, nil
}

type DisconnectParams struct {
	ClientId string
}

// Disconnect drops the connection; the admin role is revoked automatically if
// the leaving client held it.
func (s *service) Disconnect(ctx context.Context, params *DisconnectParams) error {
	wasAdmin, err := s.connRepo.RemoveByClientId(params.ClientId)
	if err != nil {
		return fmt.Errorf("failed to remove connection: %w", err)
	}

	s.logger.InfoContext(ctx, "client disconnected", "client_id", params.ClientId, "was_admin", wasAdmin)

	return nil
}

type AdminLoginParams struct {
	SenderId string
	Password string
}

type AdminLoginResponse struct {
	Success bool
	// ReplacedConn is the previous holder's connection, nil when the role was
	// vacant or the sender already held it.
	ReplacedConn *connection.Conn
}

// AdminLogin grants the admin role on a matching secret. Last writer wins:
// a second successful login silently replaces the previous holder, who is
// reported back so the caller can notify them.
func (s *service) AdminLogin(ctx context.Context, params *AdminLoginParams) (AdminLoginResponse, error) {
	if !s.VerifyAdminSecret(params.Password) {
		s.logger.InfoContext(ctx, "admin login rejected", "client_id", params.SenderId)
		return AdminLoginResponse{Success: false}, nil
	}

	previousId, err := s.connRepo.SetAdmin(params.SenderId)
	if err != nil {
		return AdminLoginResponse{}, fmt.Errorf("failed to set admin: %w", err)
	}

	s.logger.InfoContext(ctx, "admin logged in", "client_id", params.SenderId, "replaced", previousId)

	resp := AdminLoginResponse{Success: true}
	if previousId != "" {
		if conn, err := s.connRepo.GetConn(previousId); err == nil {
			resp.ReplacedConn = conn
		}
	}

	return resp, nil
}

func (s *service) VerifyAdminSecret(password string) bool {
	if s.secret == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(password), []byte(s.secret)) == 1
}
