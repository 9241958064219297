package config

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config captures everything the bot needs from its environment. The variable
// names match the .env file the bot has always shipped with.
type Config struct {
	Token       string // Discord bot token (TOKEN)
	DatabaseURL string // PostgreSQL DSN (DATABASE_URL)
	Store       string // "postgres" or "memory" (STORE_BACKEND)

	GuildID       string // GUILD_ID
	ListChannelID string // LIST_CHANNEL_ID
	CategoryID    string // CLASSES_CATEGORY_ID
	ModRoleID     string // MOD_ROLE_ID
	ReactEmoji    string // REACT_EMOJI, "name:id" for a custom emoji
	AdminID       string // ADMIN_ID

	OpsAddr     string        // health + metrics listen address (OPS_ADDR)
	ImportDelay time.Duration // pause between provisioned courses (IMPORT_DELAY)
}

// FromEnv builds a Config from environment variables so main stays lean.
// A .env file in the working directory is loaded first when present; real
// environment variables win over it.
func FromEnv() (Config, error) {
	// Missing .env is fine, env vars can be set by other means.
	_ = godotenv.Load()

	cfg := Config{
		Token:         os.Getenv("TOKEN"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Store:         getenvDefault("STORE_BACKEND", "postgres"),
		GuildID:       os.Getenv("GUILD_ID"),
		ListChannelID: os.Getenv("LIST_CHANNEL_ID"),
		CategoryID:    os.Getenv("CLASSES_CATEGORY_ID"),
		ModRoleID:     os.Getenv("MOD_ROLE_ID"),
		ReactEmoji:    os.Getenv("REACT_EMOJI"),
		AdminID:       os.Getenv("ADMIN_ID"),
		OpsAddr:       getenvDefault("OPS_ADDR", ":9090"),
		ImportDelay:   1500 * time.Millisecond,
	}

	if raw := os.Getenv("IMPORT_DELAY"); raw != "" {
		delay, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, errors.New("IMPORT_DELAY is not a valid duration")
		}
		cfg.ImportDelay = delay
	}

	if cfg.Token == "" {
		return Config{}, errors.New("TOKEN is required")
	}
	if cfg.Store == "postgres" && cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required with the postgres store")
	}

	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
