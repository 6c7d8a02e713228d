package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/trackfield/pkg/logger"
	"github.com/okian/trackfield/pkg/metrics"
)

const (
	defaultFileMode = 0o644
	dirMode         = 0o755
)

var _ Store = (*FileStore)(nil)

// FileStore keeps one document per file. Writes go through a temporary file
// in the same directory and a rename, so a crash never leaves a torn file.
type FileStore struct {
	log      logger.Logger
	fileMode os.FileMode
}

// NewFileStore creates a FileStore.
func NewFileStore(opts ...Option) *FileStore {
	s := &FileStore{log: logger.Nop(), fileMode: defaultFileMode}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save writes v to path atomically, creating parent directories.
func (s *FileStore) Save(ctx context.Context, path string, v any) error {
	start := time.Now()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, s.fileMode); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}

	metrics.RecordDocumentWrite(documentKind(path), float64(time.Since(start).Milliseconds()))
	s.log.Debug(ctx, "document saved", logger.String("path", path), logger.Int("bytes", len(data)))
	return nil
}

// Load reads path into v.
func (s *FileStore) Load(ctx context.Context, path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCorrupt, path, err)
	}
	return nil
}

// Exists reports whether path holds a regular file.
func (s *FileStore) Exists(ctx context.Context, path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.Mode().IsRegular(), nil
}

// documentKind labels metrics by file name: "current_competition",
// "WaypointRace" and so on.
func documentKind(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
