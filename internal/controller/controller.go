package controller

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jamqueue/server/internal/provider/lyrics"
	"github.com/jamqueue/server/internal/provider/spotify"
	"github.com/jamqueue/server/internal/service/jukebox"
	"github.com/jamqueue/server/pkg/validator"
	"github.com/jamqueue/server/pkg/wsrouter"
)

type iJukeboxService interface {
	Connect(context.Context, *jukebox.ConnectParams) (jukebox.ConnectResponse, error)
	Disconnect(context.Context, *jukebox.DisconnectParams) error
	AddSong(context.Context, *jukebox.AddSongParams) (jukebox.SnapshotResponse, error)
	EndSong(context.Context, *jukebox.EndSongParams) (jukebox.SnapshotResponse, error)
	SkipSong(context.Context, *jukebox.SkipSongParams) (jukebox.SnapshotResponse, error)
	RemoveSong(context.Context, *jukebox.RemoveSongParams) (jukebox.SnapshotResponse, error)
	ReorderQueue(context.Context, *jukebox.ReorderQueueParams) (jukebox.SnapshotResponse, error)
	AdminLogin(context.Context, *jukebox.AdminLoginParams) (jukebox.AdminLoginResponse, error)
	TogglePause(context.Context, *jukebox.TogglePauseParams) (jukebox.ControlResponse, error)
	SetVolume(context.Context, *jukebox.SetVolumeParams) (jukebox.SetVolumeResponse, error)
	ForceReload(context.Context, *jukebox.ForceReloadParams) (jukebox.ControlResponse, error)
	ToggleKaraoke(context.Context, *jukebox.ToggleKaraokeParams) (jukebox.ControlResponse, error)
	RelayPlayerState(context.Context, *jukebox.RelayPlayerStateParams) (jukebox.RelayPlayerStateResponse, error)
	VerifyAdminSecret(password string) bool
}

type iSearchProvider interface {
	SearchTracks(ctx context.Context, query string) ([]spotify.Track, error)
}

type iLyricsProvider interface {
	GetLyrics(ctx context.Context, trackName, artistName string) (lyrics.Result, error)
}

type controller struct {
	jukeboxService iJukeboxService
	searchProvider iSearchProvider
	lyricsProvider iLyricsProvider
	upgrader       websocket.Upgrader
	validate       *validator.Validator
	wsmux          *wsrouter.WSRouter
	logger         *slog.Logger
}

func NewController(jukeboxService iJukeboxService, searchProvider iSearchProvider, lyricsProvider iLyricsProvider, logger *slog.Logger) *controller {
	c := &controller{
		jukeboxService: jukeboxService,
		searchProvider: searchProvider,
		lyricsProvider: lyricsProvider,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		validate: validator.NewValidator(),
		logger:   logger,
	}
	c.wsmux = c.getWSRouter()

	return c
}

func (c controller) generateTimeBasedId() string {
	return fmt.Sprintf("%s-%s", time.Now().Format("15:04:05.000"), strconv.Itoa(int(time.Now().UnixNano()%1000)))
}
