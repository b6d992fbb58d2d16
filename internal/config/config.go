package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"DWH_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"DWH_DB_MAX_CONNS" default:"4"`
	AutoMigrate bool   `envconfig:"DWH_AUTO_MIGRATE" default:"true"`

	// SourcePath is a local directory or an s3://bucket/prefix URL holding the CSV extracts.
	SourcePath        string `envconfig:"SOURCE_PATH" required:"true"`
	SourceS3Endpoint  string `envconfig:"SOURCE_S3_ENDPOINT" default:""`
	SourceS3Region    string `envconfig:"SOURCE_S3_REGION" default:"eu-central-1"`
	SourceS3AccessKey string `envconfig:"SOURCE_S3_ACCESS_KEY" default:""`
	SourceS3SecretKey string `envconfig:"SOURCE_S3_SECRET_KEY" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("DWH_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("DWH_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DWH_DB_MIN_CONNS (%d) cannot exceed DWH_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if strings.TrimSpace(c.SourcePath) == "" {
		return fmt.Errorf("SOURCE_PATH is required")
	}
	if c.SourceIsS3() {
		if strings.TrimSpace(c.SourceS3AccessKey) == "" || strings.TrimSpace(c.SourceS3SecretKey) == "" {
			return fmt.Errorf("SOURCE_S3_ACCESS_KEY and SOURCE_S3_SECRET_KEY are required for s3 source paths")
		}
		if strings.TrimSpace(c.SourceS3Region) == "" {
			return fmt.Errorf("SOURCE_S3_REGION is required for s3 source paths")
		}
	}
	return nil
}

// SourceIsS3 reports whether SOURCE_PATH points at an object store bucket.
func (c *Config) SourceIsS3() bool {
	if c == nil {
		return false
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(c.SourcePath)), "s3://")
}
