package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const metaSuffix = ".meta"

// FilesystemBackend keeps objects as files under a data directory. The content
// type of each object lives in a "<file>.meta" sidecar.
type FilesystemBackend struct {
	dataDir string
}

func NewFilesystemBackend(dataDir string) (*FilesystemBackend, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}
	return &FilesystemBackend{dataDir: dataDir}, nil
}

// Put writes temp file -> fsync -> rename, so readers never see a partial object.
func (b *FilesystemBackend) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fullPath, err := b.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return "", fmt.Errorf("failed to create namespace directory: %w", err)
	}

	if contentType != "" {
		if err := writeAtomic(fullPath+metaSuffix, []byte(contentType)); err != nil {
			return "", err
		}
	}
	if err := writeAtomic(fullPath, data); err != nil {
		os.Remove(fullPath + metaSuffix)
		return "", err
	}

	return key, nil
}

func (b *FilesystemBackend) Get(ctx context.Context, key string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fullPath, err := b.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	obj := &Object{Data: data}
	if meta, err := os.ReadFile(fullPath + metaSuffix); err == nil {
		obj.ContentType = strings.TrimSpace(string(meta))
	}
	return obj, nil
}

func (b *FilesystemBackend) path(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	if strings.HasSuffix(key, metaSuffix) {
		return "", ErrInvalidKey
	}
	return filepath.Join(b.dataDir, filepath.FromSlash(key)), nil
}

func writeAtomic(fullPath string, data []byte) error {
	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("fsync failed: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("atomic rename failed: %w", err)
	}
	return nil
}
