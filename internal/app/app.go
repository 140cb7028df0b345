package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jamqueue/server/internal/controller"
	"github.com/jamqueue/server/internal/provider/lyrics"
	"github.com/jamqueue/server/internal/provider/spotify"
	connInmemory "github.com/jamqueue/server/internal/repository/connection/inmemory"
	queueInmemory "github.com/jamqueue/server/internal/repository/queue/inmemory"
	"github.com/jamqueue/server/internal/resolver/youtube"
	"github.com/jamqueue/server/internal/service/jukebox"
	"github.com/jamqueue/server/pkg/ctxlogger"
	"github.com/jamqueue/server/pkg/redisclient"
)

type AppConfig struct {
	Secret              string `json:"-"`
	Host                string `json:"host"`
	Port                int    `json:"port"`
	LogLevel            string `json:"log_level"`
	QueueLimit          int    `json:"queue_limit"`
	RedisHost           string `json:"redis_host"`
	RedisPort           int    `json:"redis_port"`
	RedisPassword       string `json:"-"`
	SpotifyClientId     string `json:"-"`
	SpotifyClientSecret string `json:"-"`
	YoutubeAPIKey       string `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.QueueLimit < 1 {
		return fmt.Errorf("queue limit must be greater than 0")
	}
	if cfg.Secret == "" {
		return fmt.Errorf("admin secret must be set")
	}
	if cfg.SpotifyClientId == "" || cfg.SpotifyClientSecret == "" {
		return fmt.Errorf("spotify credentials must be set")
	}
	if cfg.YoutubeAPIKey == "" {
		return fmt.Errorf("youtube api key must be set")
	}
	return nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		log.Fatal(err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	logger := slog.New(&h)

	rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rc.Close()

	queueRepo := queueInmemory.NewRepo(cfg.QueueLimit)
	connectionRepo := connInmemory.NewRepo()
	resolver := youtube.NewResolver(&youtube.Config{APIKey: cfg.YoutubeAPIKey})
	jukeboxService := jukebox.NewService(queueRepo, connectionRepo, resolver, &jukebox.Config{
		Secret:     cfg.Secret,
		QueueLimit: cfg.QueueLimit,
	}, logger)
	searchProvider := spotify.NewClient(&spotify.Config{
		ClientId:     cfg.SpotifyClientId,
		ClientSecret: cfg.SpotifyClientSecret,
	}, rc)
	lyricsProvider := lyrics.NewClient(&lyrics.Config{}, rc)

	controller := controller.NewController(jukeboxService, searchProvider, lyricsProvider, logger)
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: controller.Mux()}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
