package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/mima/internal/flagx"
	"github.com/dmitrijs2005/mima/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer and
// zero-value fields that are absent from the file leave the current Config
// value untouched.
type JsonConfig struct {
	StorageDriver   string          `json:"storage_driver"`
	DatabaseDSN     string          `json:"database_dsn"`
	SessionValidity *timex.Duration `json:"session_validity"`
	LogLevel        string          `json:"log_level"`

	BackupTarget   string `json:"backup_target"`
	BackupDir      string `json:"backup_dir"`
	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`
	S3AccessKey    string `json:"s3_access_key"`
	S3SecretKey    string `json:"s3_secret_key"`
}

// parseJson overlays cfg with values loaded from the file named by -c or
// -config. Without either flag it does nothing. Read or decode failures
// panic; Load turns the panic into an error.
func parseJson(cfg *Config) {
	path := flagx.ConfigPath(os.Args[1:])
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setIf(&cfg.StorageDriver, jc.StorageDriver)
	setIf(&cfg.DatabaseDSN, jc.DatabaseDSN)
	if jc.SessionValidity != nil {
		cfg.SessionValidity = jc.SessionValidity.Duration
	}
	setIf(&cfg.LogLevel, jc.LogLevel)
	setIf(&cfg.BackupTarget, jc.BackupTarget)
	setIf(&cfg.BackupDir, jc.BackupDir)
	setIf(&cfg.S3Bucket, jc.S3Bucket)
	setIf(&cfg.S3Region, jc.S3Region)
	setIf(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	setIf(&cfg.S3AccessKey, jc.S3AccessKey)
	setIf(&cfg.S3SecretKey, jc.S3SecretKey)
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
