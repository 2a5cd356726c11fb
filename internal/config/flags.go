package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/mima/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
// Arguments belonging to other loaders (-c/-config) are filtered out first.
// A malformed value panics.
func parseFlags(cfg *Config) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.StorageDriver, "s", cfg.StorageDriver, "storage driver (sqlite, postgres, bbolt)")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	validity := fs.Int("t", int(cfg.SessionValidity.Minutes()), "session validity (in minutes)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.BackupTarget, "b", cfg.BackupTarget, "backup target (file, s3)")
	fs.StringVar(&cfg.BackupDir, "o", cfg.BackupDir, "backup directory for the file target")

	if err := flagx.ParseKnown(fs, os.Args[1:]); err != nil {
		panic(err)
	}

	cfg.SessionValidity = time.Duration(*validity) * time.Minute
}
