package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jamqueue/server/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	secret = configVar[string]{
		envKey:       "SERVER_SECRET",
		flagKey:      "secret",
		defaultValue: "",
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 8080,
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	queueLimit = configVar[int]{
		envKey:       "SERVER_QUEUE_LIMIT",
		flagKey:      "queue-limit",
		defaultValue: 25,
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
	spotifyClientId = configVar[string]{
		envKey:       "SPOTIFY_CLIENT_ID",
		flagKey:      "spotify-client-id",
		defaultValue: "",
	}
	spotifyClientSecret = configVar[string]{
		envKey:       "SPOTIFY_CLIENT_SECRET",
		flagKey:      "spotify-client-secret",
		defaultValue: "",
	}
	youtubeAPIKey = configVar[string]{
		envKey:       "YOUTUBE_API_KEY",
		flagKey:      "youtube-api-key",
		defaultValue: "",
	}
)

func loadAppConfig() *app.AppConfig {
	pflag.String(secret.flagKey, secret.defaultValue, "Admin secret")
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.Int(queueLimit.flagKey, queueLimit.defaultValue, "Maximum number of songs in the queue")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.String(spotifyClientId.flagKey, spotifyClientId.defaultValue, "Spotify client id")
	pflag.String(spotifyClientSecret.flagKey, spotifyClientSecret.defaultValue, "Spotify client secret")
	pflag.String(youtubeAPIKey.flagKey, youtubeAPIKey.defaultValue, "YouTube Data API key")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(secret.flagKey, secret.envKey)
	viper.BindEnv(host.flagKey, host.envKey)
	viper.BindEnv(port.flagKey, port.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(queueLimit.flagKey, queueLimit.envKey)
	viper.BindEnv(redisHost.flagKey, redisHost.envKey)
	viper.BindEnv(redisPort.flagKey, redisPort.envKey)
	viper.BindEnv(redisPassword.flagKey, redisPassword.envKey)
	viper.BindEnv(spotifyClientId.flagKey, spotifyClientId.envKey)
	viper.BindEnv(spotifyClientSecret.flagKey, spotifyClientSecret.envKey)
	viper.BindEnv(youtubeAPIKey.flagKey, youtubeAPIKey.envKey)

	viper.SetDefault(secret.flagKey, secret.defaultValue)
	viper.SetDefault(host.flagKey, host.defaultValue)
	viper.SetDefault(port.flagKey, port.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)
	viper.SetDefault(queueLimit.flagKey, queueLimit.defaultValue)
	viper.SetDefault(redisHost.flagKey, redisHost.defaultValue)
	viper.SetDefault(redisPort.flagKey, redisPort.defaultValue)
	viper.SetDefault(redisPassword.flagKey, redisPassword.defaultValue)
	viper.SetDefault(spotifyClientId.flagKey, spotifyClientId.defaultValue)
	viper.SetDefault(spotifyClientSecret.flagKey, spotifyClientSecret.defaultValue)
	viper.SetDefault(youtubeAPIKey.flagKey, youtubeAPIKey.defaultValue)

	return &app.AppConfig{
		Secret:              viper.GetString(secret.flagKey),
		Host:                viper.GetString(host.flagKey),
		Port:                viper.GetInt(port.flagKey),
		LogLevel:            viper.GetString(logLevel.flagKey),
		QueueLimit:          viper.GetInt(queueLimit.flagKey),
		RedisHost:           viper.GetString(redisHost.flagKey),
		RedisPort:           viper.GetInt(redisPort.flagKey),
		RedisPassword:       viper.GetString(redisPassword.flagKey),
		SpotifyClientId:     viper.GetString(spotifyClientId.flagKey),
		SpotifyClientSecret: viper.GetString(spotifyClientSecret.flagKey),
		YoutubeAPIKey:       viper.GetString(youtubeAPIKey.flagKey),
	}
}

func main() {
	godotenv.Load()

	ctx := context.Background()

	appConfig := loadAppConfig()
	if err := appConfig.Validate(); err != nil {
		log.Fatal(err)
	}

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
