package config

import (
	"fmt"
	"time"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverBolt     = "bbolt"

	BackupTargetFile = "file"
	BackupTargetS3   = "s3"
)

// Config holds runtime settings for the vault.
type Config struct {
	StorageDriver   string
	DatabaseDSN     string
	SessionValidity time.Duration
	LogLevel        string

	BackupTarget   string
	BackupDir      string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.StorageDriver = DriverSQLite
	c.DatabaseDSN = "mima.db"
	c.SessionValidity = 30 * time.Minute
	c.LogLevel = "info"
	c.BackupTarget = BackupTargetFile
	c.BackupDir = "backups"
	c.S3Region = "us-east-1"
}

// Validate rejects combinations the application cannot start with.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case DriverSQLite, DriverPostgres, DriverBolt:
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("database dsn is empty")
	}
	if c.SessionValidity <= 0 {
		return fmt.Errorf("session validity must be positive, got %s", c.SessionValidity)
	}
	switch c.BackupTarget {
	case BackupTargetFile:
		if c.BackupDir == "" {
			return fmt.Errorf("backup dir is empty")
		}
	case BackupTargetS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("s3 bucket is empty")
		}
	default:
		return fmt.Errorf("unknown backup target %q", c.BackupTarget)
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

// Load is LoadConfig with a malformed config file or flag reported as an
// error instead of a panic.
func Load() (cfg *Config, err error) {
	defer func() {
		if p := recover(); p != nil {
			cfg, err = nil, fmt.Errorf("load config: %v", p)
		}
	}()
	return LoadConfig(), nil
}
