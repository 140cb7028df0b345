package controller

import (
	"github.com/jamqueue/server/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()

	// queue
	mux.Handle("add-song", c.handleAddSong)
	mux.Handle("song-ended", c.handleSongEnded)

	// admin
	mux.Handle("admin-login", c.handleAdminLogin)
	mux.Handle("admin-skip-song", c.handleSkipSong)
	mux.Handle("admin-remove-song", c.handleRemoveSong)
	mux.Handle("admin-reorder-queue", c.handleReorderQueue)
	mux.Handle("admin-toggle-pause", c.handleTogglePause)
	mux.Handle("admin-set-volume", c.handleSetVolume)
	mux.Handle("admin-force-reload", c.handleForceReload)
	mux.Handle("admin-toggle-karaoke", c.handleToggleKaraoke)

	// player telemetry
	mux.Handle("player-state-change", c.handlePlayerStateChange)

	return mux
}
