package queue

import "errors"

var (
	ErrSongNotFound      = errors.New("song not found")
	ErrStaleOrder        = errors.New("reorder does not match current queue")
	ErrSlotOccupied      = errors.New("playback slot is occupied")
	ErrQueueIsEmpty      = errors.New("queue is empty")
	ErrSlotIsChanged     = errors.New("playback slot has changed identity")
	ErrQueueLimitReached = errors.New("queue limit reached")
)

// Song is a queued track. Timestamp is assigned once at insertion and is the
// song's identity everywhere; VideoId stays nil until media resolution commits.
type Song struct {
	Id           string  `json:"id"`
	Title        string  `json:"title"`
	Artist       string  `json:"artist"`
	Album        string  `json:"album,omitempty"`
	CoverArt     string  `json:"coverArt,omitempty"`
	DurationMs   int     `json:"duration_ms"`
	Explicit     bool    `json:"explicit"`
	AddedBy      string  `json:"addedBy"`
	Timestamp    int64   `json:"timestamp"`
	VideoId      *string `json:"videoId"`
	YoutubeTitle string  `json:"youtubeTitle,omitempty"`
}

// Snapshot is the full state pushed to every observer on every mutation.
type Snapshot struct {
	Queue            []Song `json:"queue"`
	CurrentlyPlaying *Song  `json:"currentlyPlaying"`
}
