// Package config loads Gmail OAuth credentials from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// API endpoints used by the Gmail adapter.
const (
	GmailAPIBaseURL = "https://gmail.googleapis.com/gmail/v1"
	OAuthTokenURL   = "https://oauth2.googleapis.com/token"
)

const defaultTokenExpiry = 600 * time.Second

// Config holds the OAuth credentials for the Gmail account.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	// AccessToken is optional; empty forces a refresh on first use.
	AccessToken string
	// TokenExpiry is how long an externally supplied access token is trusted.
	TokenExpiry time.Duration
}

// FromEnv builds a Config from environment variables, loading a .env file first
// if one is present. envFile overrides the default .env lookup; DOTENV_PATH is
// honored as well for parity with existing deployments.
func FromEnv(envFile string) (*Config, error) {
	switch {
	case envFile != "":
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("godotenv.Load failed: %w", err)
		}
	case os.Getenv("DOTENV_PATH") != "":
		if err := godotenv.Load(os.Getenv("DOTENV_PATH")); err != nil {
			return nil, fmt.Errorf("godotenv.Load failed: %w", err)
		}
	default:
		// Best effort, a missing .env is fine.
		_ = godotenv.Load()
	}

	cfg := &Config{
		ClientID:     os.Getenv("GMAIL_CLIENT_ID"),
		ClientSecret: os.Getenv("GMAIL_CLIENT_SECRET"),
		RefreshToken: os.Getenv("GMAIL_REFRESH_TOKEN"),
		AccessToken:  os.Getenv("GMAIL_ACCESS_TOKEN"),
		TokenExpiry:  tokenExpiryFromEnv(),
	}

	for name, val := range map[string]string{
		"GMAIL_CLIENT_ID":     cfg.ClientID,
		"GMAIL_CLIENT_SECRET": cfg.ClientSecret,
		"GMAIL_REFRESH_TOKEN": cfg.RefreshToken,
	} {
		if val == "" {
			return nil, fmt.Errorf("missing required environment variable %s", name)
		}
	}

	return cfg, nil
}

func tokenExpiryFromEnv() time.Duration {
	raw := os.Getenv("TOKEN_EXPIRY_SECONDS")
	if raw == "" {
		return defaultTokenExpiry
	}

	secs, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return defaultTokenExpiry
	}

	return time.Duration(secs) * time.Second
}
