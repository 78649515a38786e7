/*
Package configs is responsible for loading and parsing the application's configuration settings.

It configures server parameters by reading operating system environment variables,
including the running environment, port, CORS allowed origins, the MongoDB
connection, and the session cookie parameters.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig contains all configuration parameters required for the application to run.
// All configuration values are loaded from environment variables.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int

	// Security Settings
	AllowedOrigins []string

	// Session Settings
	SessionCookie string
	// SessionMaxAge of zero means sessions never expire on their own;
	// only an explicit logout ends them.
	SessionMaxAge time.Duration

	// Relay Settings
	MessageBlockSize int

	// Document Store Settings
	MongoURL string
	MongoDB  string
}

const (
	// DefaultSessionCookie is the name of the session cookie when SESSION_COOKIE is unset.
	DefaultSessionCookie = "groupchat-session"

	// DefaultSessionMaxAgeMs matches the original deployment's ten-minute session window.
	DefaultSessionMaxAgeMs = 600000

	// DefaultMessageBlockSize is the number of messages batched into one conversation block.
	DefaultMessageBlockSize = 10
)

// LoadConfig reads and parses the application configuration from environment variables.
// It provides default values for each configuration item and performs necessary
// type conversions and validation. It returns a pointer to the AppConfig struct
// and any error encountered.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Server Settings ---
	// Environment
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	// Port
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT environment variable: %w", err)
	}
	cfg.Port = port

	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.Port, 1024, 65535)
	}

	// --- Security Settings ---
	// AllowedOrigins
	originsStr := os.Getenv("ALLOWED_ORIGINS")
	if originsStr != "" {
		origins := strings.Split(originsStr, ",")
		for _, origin := range origins {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	} else {
		cfg.AllowedOrigins = []string{}
	}

	// --- Session Settings ---
	cfg.SessionCookie = os.Getenv("SESSION_COOKIE")
	if cfg.SessionCookie == "" {
		cfg.SessionCookie = DefaultSessionCookie
	}

	maxAgeStr := os.Getenv("SESSION_MAX_AGE_MS")
	if maxAgeStr == "" {
		maxAgeStr = strconv.Itoa(DefaultSessionMaxAgeMs)
	}
	maxAgeMs, err := strconv.Atoi(maxAgeStr)
	if err != nil || maxAgeMs < 0 {
		return nil, fmt.Errorf("invalid SESSION_MAX_AGE_MS environment variable: %q", maxAgeStr)
	}
	cfg.SessionMaxAge = time.Duration(maxAgeMs) * time.Millisecond

	// --- Relay Settings ---
	blockSizeStr := os.Getenv("MESSAGE_BLOCK_SIZE")
	if blockSizeStr == "" {
		blockSizeStr = strconv.Itoa(DefaultMessageBlockSize)
	}
	blockSize, err := strconv.Atoi(blockSizeStr)
	if err != nil || blockSize < 1 {
		return nil, fmt.Errorf("invalid MESSAGE_BLOCK_SIZE environment variable: %q", blockSizeStr)
	}
	cfg.MessageBlockSize = blockSize

	// --- Document Store Settings ---
	cfg.MongoURL = os.Getenv("MONGO_URL")
	if cfg.MongoURL == "" {
		if cfg.Environment == "development" {
			cfg.MongoURL = "mongodb://127.0.0.1:27017"
		} else {
			return nil, fmt.Errorf("MONGO_URL environment variable is required in %s environment", cfg.Environment)
		}
	}

	cfg.MongoDB = os.Getenv("MONGO_DB")
	if cfg.MongoDB == "" {
		cfg.MongoDB = "groupchat"
	}

	return cfg, nil
}
