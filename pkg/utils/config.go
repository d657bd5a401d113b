package utils

import (
	"os"
	"strconv"
	"time"
)

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTDuration time.Duration
}

func LoadAuthConfig() AuthConfig {
	secret := os.Getenv("ANIMEHUB_JWT_SECRET")
	if secret == "" {
		// dev default (change for demo / production)
		secret = "dev-secret-change-me"
	}

	issuer := os.Getenv("ANIMEHUB_JWT_ISSUER")
	if issuer == "" {
		issuer = "animehub"
	}

	return AuthConfig{
		JWTSecret:   secret,
		JWTIssuer:   issuer,
		JWTDuration: time.Duration(envInt("ANIMEHUB_JWT_TTL_HOURS", 24)) * time.Hour,
	}
}

// StreamConfig controls the catalog feed consumer.
type StreamConfig struct {
	FeedURL        string
	QueueSize      int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// A connection that streams at least this long resets the backoff
	// to InitialBackoff.
	ResetAfter time.Duration
}

func LoadStreamConfig() StreamConfig {
	url := os.Getenv("ANIMEHUB_FEED_URL")
	if url == "" {
		url = "ws://127.0.0.1:7070/ws"
	}
	return StreamConfig{
		FeedURL:        url,
		QueueSize:      envInt("ANIMEHUB_STREAM_QUEUE", 64),
		InitialBackoff: envDuration("ANIMEHUB_STREAM_BACKOFF", time.Second),
		MaxBackoff:     envDuration("ANIMEHUB_STREAM_BACKOFF_MAX", time.Minute),
		ResetAfter:     envDuration("ANIMEHUB_STREAM_RESET_AFTER", 30*time.Second),
	}
}

// DispatchConfig controls the notification workers and the dedup window.
type DispatchConfig struct {
	Workers      int
	DedupTTL     time.Duration
	TrimInterval time.Duration
	DrainGrace   time.Duration
}

func LoadDispatchConfig() DispatchConfig {
	return DispatchConfig{
		Workers:      envInt("ANIMEHUB_DISPATCH_WORKERS", 4),
		DedupTTL:     envDuration("ANIMEHUB_DEDUP_TTL", 24*time.Hour),
		TrimInterval: envDuration("ANIMEHUB_DEDUP_TRIM_INTERVAL", 10*time.Minute),
		DrainGrace:   envDuration("ANIMEHUB_DRAIN_GRACE", 10*time.Second),
	}
}

// DiscordConfig wires the chat delivery client.
type DiscordConfig struct {
	BaseURL  string
	BotToken string
	Attempts uint
}

func LoadDiscordConfig() DiscordConfig {
	base := os.Getenv("ANIMEHUB_DISCORD_API")
	if base == "" {
		base = "https://discord.com/api/v10"
	}
	return DiscordConfig{
		BaseURL:  base,
		BotToken: os.Getenv("DISCORD_BOT_TOKEN"),
		Attempts: uint(envInt("ANIMEHUB_DISCORD_ATTEMPTS", 5)),
	}
}

// SyncConfig controls how often the subscription index polls the change log.
type SyncConfig struct {
	Interval    time.Duration
	MaxFailures int
}

func LoadSyncConfig() SyncConfig {
	return SyncConfig{
		Interval:    envDuration("ANIMEHUB_SYNC_INTERVAL", 15*time.Second),
		MaxFailures: envInt("ANIMEHUB_SYNC_MAX_FAILURES", 20),
	}
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
