package inmemory

import (
	"slices"
	"sync"

	"github.com/jamqueue/server/internal/repository/queue"
)

// repo holds the pending queue and the single playback slot. The slot and the
// queue never contain the same timestamp: PromoteHead moves a song out of the
// queue and into the slot in one critical section.
type repo struct {
	queue []queue.Song
	slot  *queue.Song
	limit int
	mu    sync.RWMutex
}

func NewRepo(limit int) *repo {
	return &repo{
		queue: []queue.Song{},
		limit: limit,
	}
}

// Enqueue appends a fully-formed song to the tail. The caller must have
// assigned the timestamp already. The cap is checked inside the critical
// section so concurrent adds cannot overshoot it.
func (r *repo) Enqueue(song queue.Song) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.queue) >= r.limit {
		return queue.ErrQueueLimitReached
	}

	r.queue = append(r.queue, song)
	return nil
}

// Remove deletes the queued song with the given timestamp. Returns
// queue.ErrSongNotFound if no such song is queued; stale references are the
// caller's business to tolerate.
func (r *repo) Remove(timestamp int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, song := range r.queue {
		if song.Timestamp == timestamp {
			r.queue = append(r.queue[:i], r.queue[i+1:]...)
			return nil
		}
	}

	return queue.ErrSongNotFound
}

// Reorder replaces the queue order with the given sequence of timestamps.
// The set must match the current queue exactly, otherwise the queue is left
// untouched and queue.ErrStaleOrder is returned. Partial reorders are never
// applied.
func (r *repo) Reorder(timestamps []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(timestamps) != len(r.queue) {
		return queue.ErrStaleOrder
	}

	byTimestamp := make(map[int64]queue.Song, len(r.queue))
	for _, song := range r.queue {
		byTimestamp[song.Timestamp] = song
	}

	reordered := make([]queue.Song, 0, len(timestamps))
	for _, ts := range timestamps {
		song, ok := byTimestamp[ts]
		if !ok {
			return queue.ErrStaleOrder
		}
		reordered = append(reordered, song)
		delete(byTimestamp, ts)
	}

	r.queue = reordered
	return nil
}

// PromoteHead moves the head of the queue into the playback slot and returns
// it. Fails with queue.ErrSlotOccupied while any song (resolving or playing)
// holds the slot, and queue.ErrQueueIsEmpty when there is nothing to promote.
func (r *repo) PromoteHead() (queue.Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.slot != nil {
		return queue.Song{}, queue.ErrSlotOccupied
	}
	if len(r.queue) == 0 {
		return queue.Song{}, queue.ErrQueueIsEmpty
	}

	song := r.queue[0]
	r.queue = r.queue[1:]
	r.slot = &song

	return song, nil
}

// CommitMedia attaches the resolved media id to the slot, but only if the slot
// still holds the song with the given timestamp. Returns
// queue.ErrSlotIsChanged otherwise; the caller must not treat its song as
// promoted in that case.
func (r *repo) CommitMedia(timestamp int64, videoId, videoTitle string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.slot == nil || r.slot.Timestamp != timestamp {
		return queue.ErrSlotIsChanged
	}

	r.slot.VideoId = &videoId
	r.slot.YoutubeTitle = videoTitle

	return nil
}

// ClearSlot empties the playback slot if it still holds the song with the
// given timestamp. Returns queue.ErrSlotIsChanged otherwise, which makes
// repeated song-ended signals for a stale slot harmless.
func (r *repo) ClearSlot(timestamp int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.slot == nil || r.slot.Timestamp != timestamp {
		return queue.ErrSlotIsChanged
	}

	r.slot = nil
	return nil
}

// Current returns a copy of the slot content, or nil when nothing is playing
// or resolving.
func (r *repo) Current() *queue.Song {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.slot == nil {
		return nil
	}

	song := *r.slot
	return &song
}

func (r *repo) Length() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.queue)
}

// Snapshot returns a copy of the full state for broadcasting.
func (r *repo) Snapshot() queue.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := queue.Snapshot{
		Queue: slices.Clone(r.queue),
	}
	if r.slot != nil {
		song := *r.slot
		snapshot.CurrentlyPlaying = &song
	}

	return snapshot
}
