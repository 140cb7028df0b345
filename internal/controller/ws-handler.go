package controller

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jamqueue/server/internal/repository/queue"
	"github.com/jamqueue/server/internal/service/jukebox"
)

// logWSError maps service errors to log levels. Unauthorized privileged
// commands are dropped without a reply so probing reveals nothing.
func (c controller) logWSError(ctx context.Context, action string, err error) {
	if errors.Is(err, jukebox.ErrPermissionDenied) {
		c.logger.DebugContext(ctx, "unauthorized command dropped", "action", action)
		return
	}

	c.logger.WarnContext(ctx, "failed to handle message", "action", action, "error", err)
}

type AddSongInput struct {
	Id         string `json:"id"`
	Title      string `json:"title" validate:"required"`
	Artist     string `json:"artist" validate:"required"`
	Album      string `json:"album"`
	CoverArt   string `json:"coverArt"`
	DurationMs int    `json:"duration_ms"`
	Explicit   bool   `json:"explicit"`
	AddedBy    string `json:"addedBy"`
}

func (c controller) handleAddSong(ctx context.Context, payload json.RawMessage) {
	var input AddSongInput
	if err := json.Unmarshal(payload, &input); err != nil {
		c.logger.DebugContext(ctx, "malformed add-song payload", "error", err)
		return
	}

	if validationErrors, ok := c.validate.Validate(input); !ok {
		c.logger.DebugContext(ctx, "invalid add-song payload", "errors", validationErrors)
		return
	}

	addSongResp, err := c.jukeboxService.AddSong(ctx, &jukebox.AddSongParams{
		TrackId:    input.Id,
		Title:      input.Title,
		Artist:     input.Artist,
		Album:      input.Album,
		CoverArt:   input.CoverArt,
		DurationMs: input.DurationMs,
		Explicit:   input.Explicit,
		AddedBy:    input.AddedBy,
	})
	if err != nil {
		if errors.Is(err, queue.ErrQueueLimitReached) {
			c.logger.InfoContext(ctx, "add-song rejected, queue full", "title", input.Title)
			return
		}
		c.logWSError(ctx, "add-song", err)
		return
	}

	c.broadcastQueueUpdated(ctx, addSongResp.Conns, addSongResp.Snapshot)
}

type SongEndedInput struct {
	Timestamp int64 `json:"timestamp"`
}

func (c controller) handleSongEnded(ctx context.Context, payload json.RawMessage) {
	var input SongEndedInput
	if err := json.Unmarshal(payload, &input); err != nil {
		c.logger.DebugContext(ctx, "malformed song-ended payload", "error", err)
		return
	}

	endSongResp, err := c.jukeboxService.EndSong(ctx, &jukebox.EndSongParams{
		Timestamp: input.Timestamp,
	})
	if err != nil {
		c.logWSError(ctx, "song-ended", err)
		return
	}

	c.broadcastQueueUpdated(ctx, endSongResp.Conns, endSongResp.Snapshot)
}

func (c controller) handleAdminLogin(ctx context.Context, payload json.RawMessage) {
	var password string
	if err := json.Unmarshal(payload, &password); err != nil {
		c.logger.DebugContext(ctx, "malformed admin-login payload", "error", err)
		return
	}

	loginResp, err := c.jukeboxService.AdminLogin(ctx, &jukebox.AdminLoginParams{
		SenderId: c.getClientIdFromCtx(ctx),
		Password: password,
	})
	if err != nil {
		c.logWSError(ctx, "admin-login", err)
		return
	}

	senderConn := c.getConnFromCtx(ctx)
	if !loginResp.Success {
		c.writeToConn(ctx, senderConn, &Output{Type: "admin-auth-fail"})
		return
	}

	c.writeToConn(ctx, senderConn, &Output{Type: "admin-auth-success"})
	if loginResp.ReplacedConn != nil {
		c.writeToConn(ctx, loginResp.ReplacedConn, &Output{Type: "admin-auth-revoked"})
	}
}

func (c controller) handleSkipSong(ctx context.Context, payload json.RawMessage) {
	skipResp, err := c.jukeboxService.SkipSong(ctx, &jukebox.SkipSongParams{
		SenderId: c.getClientIdFromCtx(ctx),
	})
	if err != nil {
		c.logWSError(ctx, "admin-skip-song", err)
		return
	}

	c.broadcastQueueUpdated(ctx, skipResp.Conns, skipResp.Snapshot)
}

type RemoveSongInput struct {
	Timestamp int64 `json:"timestamp"`
}

func (c controller) handleRemoveSong(ctx context.Context, payload json.RawMessage) {
	var input RemoveSongInput
	if err := json.Unmarshal(payload, &input); err != nil {
		c.logger.DebugContext(ctx, "malformed admin-remove-song payload", "error", err)
		return
	}

	removeResp, err := c.jukeboxService.RemoveSong(ctx, &jukebox.RemoveSongParams{
		SenderId:  c.getClientIdFromCtx(ctx),
		Timestamp: input.Timestamp,
	})
	if err != nil {
		c.logWSError(ctx, "admin-remove-song", err)
		return
	}

	c.broadcastQueueUpdated(ctx, removeResp.Conns, removeResp.Snapshot)
}

type ReorderQueueInput struct {
	Timestamps []int64 `json:"timestamps" validate:"required"`
}

func (c controller) handleReorderQueue(ctx context.Context, payload json.RawMessage) {
	var input ReorderQueueInput
	if err := json.Unmarshal(payload, &input); err != nil {
		c.logger.DebugContext(ctx, "malformed admin-reorder-queue payload", "error", err)
		return
	}

	reorderResp, err := c.jukeboxService.ReorderQueue(ctx, &jukebox.ReorderQueueParams{
		SenderId:   c.getClientIdFromCtx(ctx),
		Timestamps: input.Timestamps,
	})
	if err != nil {
		c.logWSError(ctx, "admin-reorder-queue", err)
		return
	}

	c.broadcastQueueUpdated(ctx, reorderResp.Conns, reorderResp.Snapshot)
}

func (c controller) handleTogglePause(ctx context.Context, payload json.RawMessage) {
	controlResp, err := c.jukeboxService.TogglePause(ctx, &jukebox.TogglePauseParams{
		SenderId: c.getClientIdFromCtx(ctx),
	})
	if err != nil {
		c.logWSError(ctx, "admin-toggle-pause", err)
		return
	}

	c.broadcast(ctx, controlResp.Conns, &Output{
		Type:    "player-control",
		Payload: map[string]any{"action": "toggle-pause"},
	})
}

func (c controller) handleSetVolume(ctx context.Context, payload json.RawMessage) {
	var volume int
	if err := json.Unmarshal(payload, &volume); err != nil {
		c.logger.DebugContext(ctx, "malformed admin-set-volume payload", "error", err)
		return
	}

	volumeResp, err := c.jukeboxService.SetVolume(ctx, &jukebox.SetVolumeParams{
		SenderId: c.getClientIdFromCtx(ctx),
		Volume:   volume,
	})
	if err != nil {
		if errors.Is(err, jukebox.ErrInvalidVolume) {
			c.logger.DebugContext(ctx, "admin-set-volume out of range", "volume", volume)
			return
		}
		c.logWSError(ctx, "admin-set-volume", err)
		return
	}

	c.broadcast(ctx, volumeResp.Conns, &Output{
		Type:    "player-set-volume",
		Payload: volumeResp.Volume,
	})
}

func (c controller) handleForceReload(ctx context.Context, payload json.RawMessage) {
	controlResp, err := c.jukeboxService.ForceReload(ctx, &jukebox.ForceReloadParams{
		SenderId: c.getClientIdFromCtx(ctx),
	})
	if err != nil {
		c.logWSError(ctx, "admin-force-reload", err)
		return
	}

	c.broadcast(ctx, controlResp.Conns, &Output{Type: "player-force-reload"})
}

func (c controller) handleToggleKaraoke(ctx context.Context, payload json.RawMessage) {
	controlResp, err := c.jukeboxService.ToggleKaraoke(ctx, &jukebox.ToggleKaraokeParams{
		SenderId: c.getClientIdFromCtx(ctx),
	})
	if err != nil {
		c.logWSError(ctx, "admin-toggle-karaoke", err)
		return
	}

	c.broadcast(ctx, controlResp.Conns, &Output{Type: "player-toggle-karaoke"})
}

func (c controller) handlePlayerStateChange(ctx context.Context, payload json.RawMessage) {
	var state int
	if err := json.Unmarshal(payload, &state); err != nil {
		c.logger.DebugContext(ctx, "malformed player-state-change payload", "error", err)
		return
	}

	relayResp, err := c.jukeboxService.RelayPlayerState(ctx, &jukebox.RelayPlayerStateParams{
		State: state,
	})
	if err != nil {
		// no admin connected, telemetry has nowhere to go
		c.logger.DebugContext(ctx, "player state dropped", "error", err)
		return
	}

	c.writeToConn(ctx, relayResp.AdminConn, &Output{
		Type:    "admin-status-update",
		Payload: relayResp.State,
	})
}
