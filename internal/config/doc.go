// Package config loads runtime configuration for the mima vault CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-s string   storage driver: sqlite, postgres or bbolt
//	-d string   database DSN (file path for sqlite/bbolt, URL for postgres)
//	-t int      session validity (minutes)
//	-l string   log level: debug, info, warn, error
//	-b string   backup target: file or s3
//	-o string   backup directory for the file target
//
// # JSON schema
//
// Durations use timex.Duration, so they may be strings like "30m" or integer
// nanoseconds:
//
//	{
//	  "storage_driver": "sqlite",
//	  "database_dsn": "mima.db",
//	  "session_validity": "30m",
//	  "log_level": "info",
//	  "backup_target": "s3",
//	  "s3_bucket": "mima-backups",
//	  "s3_region": "us-east-1",
//	  "s3_base_endpoint": "http://127.0.0.1:9000",
//	  "s3_access_key": "minioadmin",
//	  "s3_secret_key": "minioadmin"
//	}
//
// S3 credentials are accepted only from the JSON file so they never show up
// in the process list.
package config
