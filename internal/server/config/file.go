package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/listings/internal/timex"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config for config files. Durations go through
// timex.Duration so both "1h" and integer nanoseconds are accepted.
type fileConfig struct {
	HTTPAddr                    string         `json:"http_addr" yaml:"http_addr"`
	DatabaseDSN                 string         `json:"database_dsn" yaml:"database_dsn"`
	DatabaseName                string         `json:"database_name" yaml:"database_name"`
	SecretKey                   string         `json:"secret_key" yaml:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	BcryptCost                  int            `json:"bcrypt_cost" yaml:"bcrypt_cost"`
	CORSOrigin                  string         `json:"cors_origin" yaml:"cors_origin"`
	ImageStorage                string         `json:"image_storage" yaml:"image_storage"`
	ImagesDir                   string         `json:"images_dir" yaml:"images_dir"`
	PublicBaseURL               string         `json:"public_base_url" yaml:"public_base_url"`
	S3Bucket                    string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region                    string         `json:"s3_region" yaml:"s3_region"`
	S3RootUser                  string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	AccessLogPath               string         `json:"access_log_path" yaml:"access_log_path"`
	LogBackend                  string         `json:"log_backend" yaml:"log_backend"`
	ShutdownTimeout             timex.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// parseFile overlays the non-empty values of a .json, .yaml or .yml file.
func parseFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &fileConfig{}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, c)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		return fmt.Errorf("unsupported config file extension %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.DatabaseName, c.DatabaseName)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.CORSOrigin, c.CORSOrigin)
	setString(&config.ImageStorage, c.ImageStorage)
	setString(&config.ImagesDir, c.ImagesDir)
	setString(&config.PublicBaseURL, c.PublicBaseURL)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.AccessLogPath, c.AccessLogPath)
	setString(&config.LogBackend, c.LogBackend)

	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.ShutdownTimeout.Duration > 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	if c.BcryptCost > 0 {
		config.BcryptCost = c.BcryptCost
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
