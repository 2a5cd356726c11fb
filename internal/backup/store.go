package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/mima/internal/config"
	"github.com/dmitrijs2005/mima/internal/filex"
)

// Store receives finished backup documents.
type Store interface {
	Put(ctx context.Context, name string, data []byte) error
}

// NewStore builds the store selected by cfg.BackupTarget.
func NewStore(cfg *config.Config) (Store, error) {
	switch cfg.BackupTarget {
	case config.BackupTargetFile:
		return NewFileStore(cfg.BackupDir), nil
	case config.BackupTargetS3:
		return NewS3Store(S3Options{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
		})
	default:
		return nil, fmt.Errorf("unknown backup target %q", cfg.BackupTarget)
	}
}

// FileStore writes backups into a local directory, readable by the owner only.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid backup name %q", name)
	}
	dir, err := filex.EnsureDir(s.dir)
	if err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	path := filepath.Join(dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}
