// Package config assembles the server configuration from defaults, an
// optional JSON or YAML file, a .env file, the environment and command-line
// flags, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/listings/internal/flagx"
)

const (
	ImageStorageS3    = "s3"
	ImageStorageLocal = "local"

	LogBackendZap  = "zap"
	LogBackendSlog = "slog"
)

// Config holds runtime settings for the listings server.
//
// DatabaseDSN selects the storage backend by scheme (mongodb://,
// postgres://, memory://). SecretKey signs session tokens with HS256.
// The S3 fields are only consulted when ImageStorage is "s3".
type Config struct {
	HTTPAddr                    string        `env:"SERVER_ADDRESS"`
	DatabaseDSN                 string        `env:"DATABASE_DSN"`
	DatabaseName                string        `env:"DATABASE_NAME"`
	SecretKey                   string        `env:"JWT_SECRET_PHRASE"`
	AccessTokenValidityDuration time.Duration `env:"TOKEN_TTL"`
	BcryptCost                  int           `env:"BCRYPT_COST"`
	CORSOrigin                  string        `env:"CORS_ORIGIN"`
	ImageStorage                string        `env:"IMAGE_STORAGE"`
	ImagesDir                   string        `env:"IMAGES_DIR"`
	PublicBaseURL               string        `env:"PUBLIC_BASE_URL"`
	S3Bucket                    string        `env:"AWS_BUCKET_NAME"`
	S3Region                    string        `env:"AWS_BUCKET_REGION"`
	S3RootUser                  string        `env:"AWS_ACCESS_KEY"`
	S3RootPassword              string        `env:"AWS_SECRET_KEY"`
	S3BaseEndpoint              string        `env:"AWS_ENDPOINT"`
	AccessLogPath               string        `env:"ACCESS_LOG_PATH"`
	LogBackend                  string        `env:"LOG_BACKEND"`
	ShutdownTimeout             time.Duration `env:"SHUTDOWN_TIMEOUT"`
}

// LoadDefaults populates Config with values that are safe to run with
// locally. Secrets and the database DSN have no default.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.DatabaseName = "listings"
	c.AccessTokenValidityDuration = time.Hour
	c.BcryptCost = 12
	c.ImageStorage = ImageStorageS3
	c.ImagesDir = "images"
	c.AccessLogPath = "access.log"
	c.LogBackend = LogBackendZap
	c.ShutdownTimeout = 10 * time.Second
}

// LoadConfig builds the configuration from the process arguments and
// environment and validates it.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:], ".env")
}

func load(args []string, dotenvPath string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path := flagx.ConfigFileFlag(args); path != "" {
		if err := parseFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := parseEnv(cfg, dotenvPath); err != nil {
		return nil, err
	}

	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}

	cfg.HTTPAddr = normalizeAddr(cfg.HTTPAddr)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalizeAddr turns a bare port ("4000") into a listen address.
func normalizeAddr(addr string) string {
	if addr != "" && !strings.Contains(addr, ":") {
		return ":" + addr
	}
	return addr
}

// Validate reports every missing or malformed setting at once.
func (c *Config) Validate() error {
	var errs []error

	require := func(v, name string) {
		if strings.TrimSpace(v) == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
		}
	}

	require(c.HTTPAddr, "server address")
	require(c.DatabaseDSN, "database DSN")
	require(c.SecretKey, "JWT secret")
	require(c.CORSOrigin, "CORS origin")

	switch c.ImageStorage {
	case ImageStorageS3:
		require(c.S3Bucket, "S3 bucket")
		require(c.S3Region, "S3 region")
		require(c.S3RootUser, "S3 access key")
		require(c.S3RootPassword, "S3 secret key")
	case ImageStorageLocal:
		require(c.ImagesDir, "images directory")
	default:
		errs = append(errs, fmt.Errorf("unknown image storage %q", c.ImageStorage))
	}

	switch c.LogBackend {
	case LogBackendZap, LogBackendSlog:
	default:
		errs = append(errs, fmt.Errorf("unknown log backend %q", c.LogBackend))
	}

	if c.AccessTokenValidityDuration <= 0 {
		errs = append(errs, errors.New("token validity must be positive"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("bcrypt cost %d out of range [4, 31]", c.BcryptCost))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
