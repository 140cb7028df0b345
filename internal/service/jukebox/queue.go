package jukebox

import (
	"context"

	"github.com/jamqueue/server/internal/repository/queue"
)

type AddSongParams struct {
	TrackId    string
	Title      string
	Artist     string
	Album      string
	CoverArt   string
	DurationMs int
	Explicit   bool
	AddedBy    string
}

// AddSong appends a submission to the queue and starts playback if the slot
// is free. Open to every connection; only the queue cap can reject it, and the
// repo enforces that cap atomically.
func (s *service) AddSong(ctx context.Context, params *AddSongParams) (SnapshotResponse, error) {
	song := queue.Song{
		Id:         params.TrackId,
		Title:      params.Title,
		Artist:     params.Artist,
		Album:      params.Album,
		CoverArt:   params.CoverArt,
		DurationMs: params.DurationMs,
		Explicit:   params.Explicit,
		AddedBy:    params.AddedBy,
		Timestamp:  s.generator.Next(),
	}
	if err := s.queueRepo.Enqueue(song); err != nil {
		return SnapshotResponse{}, err
	}

	s.logger.InfoContext(ctx, "song added",
		"title", song.Title,
		"artist", song.Artist,
		"added_by", song.AddedBy,
		"timestamp", song.Timestamp,
	)

	s.promoteNext(ctx)

	return s.snapshotResponse(), nil
}

type RemoveSongParams struct {
	SenderId  string
	Timestamp int64
}

// RemoveSong drops a song by identity, wherever it lives: pending queue,
// playing slot, or a slot still resolving. Unknown timestamps are a benign
// no-op so stale admin views cannot corrupt state.
func (s *service) RemoveSong(ctx context.Context, params *RemoveSongParams) (SnapshotResponse, error) {
	if !s.connRepo.IsAdmin(params.SenderId) {
		return SnapshotResponse{}, ErrPermissionDenied
	}

	if err := s.queueRepo.Remove(params.Timestamp); err != nil {
		if err := s.queueRepo.ClearSlot(params.Timestamp); err == nil {
			s.promoteNext(ctx)
		} else {
			s.logger.DebugContext(ctx, "remove of unknown song ignored", "timestamp", params.Timestamp)
		}
	}

	return s.snapshotResponse(), nil
}

type ReorderQueueParams struct {
	SenderId   string
	Timestamps []int64
}

// ReorderQueue applies a full replacement order. A stale order (set mismatch
// against the live queue) is ignored entirely rather than partially applied.
func (s *service) ReorderQueue(ctx context.Context, params *ReorderQueueParams) (SnapshotResponse, error) {
	if !s.connRepo.IsAdmin(params.SenderId) {
		return SnapshotResponse{}, ErrPermissionDenied
	}

	if err := s.queueRepo.Reorder(params.Timestamps); err != nil {
		s.logger.InfoContext(ctx, "stale reorder ignored", "error", err)
	}

	return s.snapshotResponse(), nil
}
