package object

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/AIS170/SENG3011-OMEGA/internal/storage"
	"github.com/AIS170/SENG3011-OMEGA/pkg/logger"
)

// FSStore is a filesystem-rooted ObjectStore. Buckets map to
// directories under the root; keys are flat file names within a
// bucket, matching how the ingestion pipeline names its uploads.
type FSStore struct {
	root string
}

func NewFSStore(root string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create object store root: %w", err)
	}

	logger.Info("Filesystem object store initialized", zap.String("root", root))

	return &FSStore{root: root}, nil
}

func (s *FSStore) path(bucket, key string) string {
	return filepath.Join(s.root, bucket, key)
}

func (s *FSStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(bucket, key))
	if os.IsNotExist(err) {
		return nil, storage.ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

func (s *FSStore) Put(ctx context.Context, bucket, key string, data []byte) error {
	dir := filepath.Join(s.root, bucket)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	if err := os.WriteFile(s.path(bucket, key), data, 0644); err != nil {
		return fmt.Errorf("failed to write object %s/%s: %w", bucket, key, err)
	}

	logger.Debug("Object stored", zap.String("bucket", bucket), zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}

// Delete removes an object. Deleting an absent key is not an error.
func (s *FSStore) Delete(ctx context.Context, bucket, key string) error {
	err := os.Remove(s.path(bucket, key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete object %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *FSStore) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, bucket))
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list bucket %s: %w", bucket, err)
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), prefix) {
			keys = append(keys, e.Name())
		}
	}
	sort.Strings(keys)
	return keys, nil
}
