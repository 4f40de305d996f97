package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// legacyEnv holds the variable names the service historically used.
// They apply first so the canonical names win when both are set.
type legacyEnv struct {
	Port                 string `env:"PORT"`
	MongoDBConnectString string `env:"MONGO_DB_CONNECT_STRING"`
}

// parseEnv loads dotenvPath (if it exists) into the process environment
// without overriding variables that are already set, then overlays the
// environment onto config.
func parseEnv(config *Config, dotenvPath string) error {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	}

	var legacy legacyEnv
	if err := env.Parse(&legacy); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	setString(&config.HTTPAddr, legacy.Port)
	setString(&config.DatabaseDSN, legacy.MongoDBConnectString)

	if err := env.Parse(config); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
