// Package config loads client configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the client configuration.
type Config struct {
	Port              int           // UI bridge listen port
	LogLevel          string        //
	LogFormat         string        //
	RPCURL            string        // ledger RPC endpoint
	RelayURL          string        // matchmaking relay websocket endpoint
	ContractID        string        // game contract identity
	NetworkPassphrase string        //
	PollInterval      time.Duration // ledger poll cadence
	DataPath          string        // local SQLite file for login + history
	Username          string        // display name sent to the relay
}

// Load loads the configuration from environment variables.
func Load() (*Config, error) {
	// Load .env if present; real env vars are fine too.
	_ = godotenv.Load()

	if err := ValidateEnv(); err != nil {
		return nil, err
	}

	cfg := &Config{
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "text"),
		RPCURL:            os.Getenv("RPC_URL"),
		RelayURL:          os.Getenv("RELAY_URL"),
		ContractID:        os.Getenv("CONTRACT_ID"),
		NetworkPassphrase: getEnv("NETWORK_PASSPHRASE", "Test SDF Network ; September 2015"),
		DataPath:          getEnv("DATA_PATH", "farkle.db"),
		Username:          getEnv("USERNAME", "anonymous"),
	}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT value: %w", err)
	}
	cfg.Port = port

	intervalStr := getEnv("POLL_INTERVAL_MS", "1500")
	intervalMs, err := strconv.Atoi(intervalStr)
	if err != nil || intervalMs <= 0 {
		return nil, fmt.Errorf("invalid POLL_INTERVAL_MS value %q", intervalStr)
	}
	cfg.PollInterval = time.Duration(intervalMs) * time.Millisecond

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
