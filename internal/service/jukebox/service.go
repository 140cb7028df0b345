package jukebox

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jamqueue/server/internal/repository/connection"
	"github.com/jamqueue/server/internal/repository/queue"
	"github.com/jamqueue/server/internal/resolver/youtube"
	"github.com/jamqueue/server/pkg/monoclock"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidVolume    = errors.New("volume must be between 0 and 100")
)

type iQueueRepo interface {
	Enqueue(song queue.Song) error
	Remove(timestamp int64) error
	Reorder(timestamps []int64) error
	PromoteHead() (queue.Song, error)
	CommitMedia(timestamp int64, videoId, videoTitle string) error
	ClearSlot(timestamp int64) error
	Current() *queue.Song
	Snapshot() queue.Snapshot
}

type iConnRepo interface {
	Add(conn *connection.Conn, clientId string, role connection.Role) error
	RemoveByClientId(clientId string) (bool, error)
	GetClientId(conn *connection.Conn) (string, error)
	GetConn(clientId string) (*connection.Conn, error)
	GetConns() []*connection.Conn
	GetConnsByRole(role connection.Role) []*connection.Conn
	SetAdmin(clientId string) (string, error)
	IsAdmin(clientId string) bool
	GetAdminConn() (*connection.Conn, error)
}

type iResolver interface {
	Resolve(ctx context.Context, title, artist string, durationMs int) (youtube.Media, error)
}

type iGenerator interface {
	Next() int64
}

type Config struct {
	Secret     string
	QueueLimit int
}

type service struct {
	queueRepo  iQueueRepo
	connRepo   iConnRepo
	resolver   iResolver
	generator  iGenerator
	logger     *slog.Logger
	secret     string
	queueLimit int
}

func NewService(queueRepo iQueueRepo, connRepo iConnRepo, resolver iResolver, cfg *Config, logger *slog.Logger) *service {
	return &service{
		queueRepo:  queueRepo,
		connRepo:   connRepo,
		resolver:   resolver,
		generator:  monoclock.New(),
		logger:     logger,
		secret:     cfg.Secret,
		queueLimit: cfg.QueueLimit,
	}
}

// SnapshotResponse carries the state to broadcast and the conns to push it to.
type SnapshotResponse struct {
	Snapshot queue.Snapshot
	Conns    []*connection.Conn
}

func (s *service) snapshotResponse() SnapshotResponse {
	return SnapshotResponse{
		Snapshot: s.queueRepo.Snapshot(),
		Conns:    s.connRepo.GetConns(),
	}
}
