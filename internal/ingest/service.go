package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/AIS170/SENG3011-OMEGA/internal/dataset"
	"github.com/AIS170/SENG3011-OMEGA/internal/metrics"
	"github.com/AIS170/SENG3011-OMEGA/internal/storage"
	"github.com/AIS170/SENG3011-OMEGA/pkg/logger"
)

// Service is the collection side of cold storage: raw CSV blobs go in
// under the per-kind key convention that the retrieval side later
// joins on. The retrieval path itself never writes cold objects.
type Service struct {
	objects storage.ObjectStore
	buckets map[dataset.Kind]string
	clock   func() time.Time
}

func NewService(objects storage.ObjectStore, buckets map[dataset.Kind]string) *Service {
	return &Service{
		objects: objects,
		buckets: buckets,
		clock:   time.Now,
	}
}

// StoreRaw writes one raw CSV blob for (username, kind, name) and
// returns the cold-storage key it was stored under. An empty date
// defaults to today for kinds whose key carries one.
func (s *Service) StoreRaw(ctx context.Context, username string, kind dataset.Kind, name, date string, data []byte) (string, error) {
	if date == "" && kind.Dated() {
		date = s.clock().UTC().Format("2006-01-02")
	}
	key := kind.ObjectKey(username, name, date)
	bucket := s.buckets[kind]

	if err := s.objects.Put(ctx, bucket, key, data); err != nil {
		return "", fmt.Errorf("failed to store raw dataset: %w", err)
	}

	metrics.ObjectsIngested.WithLabelValues(string(kind)).Inc()
	logger.Info("Raw dataset stored",
		zap.String("username", username),
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.Int("bytes", len(data)),
	)
	return key, nil
}

// DeleteRaw removes one cold object. Idempotent: deleting an absent
// key succeeds.
func (s *Service) DeleteRaw(ctx context.Context, username string, kind dataset.Kind, name, date string) error {
	if date == "" && kind.Dated() {
		date = s.clock().UTC().Format("2006-01-02")
	}
	key := kind.ObjectKey(username, name, date)

	if err := s.objects.Delete(ctx, s.buckets[kind], key); err != nil {
		return fmt.Errorf("failed to delete raw dataset: %w", err)
	}

	logger.Info("Raw dataset deleted", zap.String("username", username), zap.String("key", key))
	return nil
}

// ListRaw returns the user's cold-storage keys for a kind, scanning
// the kind's bucket by the user's key prefix.
func (s *Service) ListRaw(ctx context.Context, username string, kind dataset.Kind) ([]string, error) {
	prefix := username + "#"
	if kind == dataset.KindNews {
		prefix = username + "_"
	}

	keys, err := s.objects.List(ctx, s.buckets[kind], prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list raw datasets: %w", err)
	}
	return keys, nil
}
