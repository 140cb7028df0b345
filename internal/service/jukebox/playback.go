package jukebox

import (
	"context"
)

// promoteNext drains the queue head-first until a song resolves or nothing is
// left. Each iteration consumes one queued item, so the loop is bounded by the
// queue length; the attempts cap is a backstop against a pathologically bad
// queue. Resolution failures skip the item silently, never surfacing to
// clients.
//
// The resolver call is the only suspension point in the whole state machine.
// CommitMedia re-validates slot identity after it: a song removed while its
// resolution was in flight fails the commit and the loop moves on without
// touching whatever replaced it.
func (s *service) promoteNext(ctx context.Context) {
	for attempts := 0; attempts <= s.queueLimit; attempts++ {
		song, err := s.queueRepo.PromoteHead()
		if err != nil {
			// slot occupied or queue exhausted, either way we are done
			return
		}

		media, err := s.resolver.Resolve(ctx, song.Title, song.Artist, song.DurationMs)
		if err != nil {
			s.logger.InfoContext(ctx, "no media found, skipping song",
				"title", song.Title,
				"artist", song.Artist,
				"error", err,
			)
			s.queueRepo.ClearSlot(song.Timestamp)
			continue
		}

		if err := s.queueRepo.CommitMedia(song.Timestamp, media.Id, media.Title); err != nil {
			s.logger.DebugContext(ctx, "slot changed during resolution",
				"title", song.Title,
				"error", err,
			)
			continue
		}

		s.logger.InfoContext(ctx, "now playing",
			"title", song.Title,
			"artist", song.Artist,
			"video_id", media.Id,
		)
		return
	}
}

type EndSongParams struct {
	// Timestamp identifies the slot content the sender saw end. A stale
	// timestamp makes the signal a no-op instead of double-advancing.
	Timestamp int64
}

func (s *service) EndSong(ctx context.Context, params *EndSongParams) (SnapshotResponse, error) {
	if err := s.queueRepo.ClearSlot(params.Timestamp); err != nil {
		s.logger.DebugContext(ctx, "stale song-ended signal ignored", "timestamp", params.Timestamp)
		return s.snapshotResponse(), nil
	}

	s.promoteNext(ctx)

	return s.snapshotResponse(), nil
}

type SkipSongParams struct {
	SenderId string
}

func (s *service) SkipSong(ctx context.Context, params *SkipSongParams) (SnapshotResponse, error) {
	if !s.connRepo.IsAdmin(params.SenderId) {
		return SnapshotResponse{}, ErrPermissionDenied
	}

	current := s.queueRepo.Current()
	if current == nil || current.VideoId == nil {
		// nothing playing, or the slot is mid-resolution and will settle on
		// its own; skipping here would double-advance
		return s.snapshotResponse(), nil
	}

	if err := s.queueRepo.ClearSlot(current.Timestamp); err == nil {
		s.promoteNext(ctx)
	}

	return s.snapshotResponse(), nil
}
