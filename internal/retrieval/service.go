package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/AIS170/SENG3011-OMEGA/internal/dataset"
	"github.com/AIS170/SENG3011-OMEGA/internal/metrics"
	"github.com/AIS170/SENG3011-OMEGA/internal/storage"
	"github.com/AIS170/SENG3011-OMEGA/pkg/logger"
)

// Service orchestrates dataset retrieval between cold object storage
// and the warm per-user cache. Each call is an independent
// request-scoped unit of work; there are no internal retries.
type Service struct {
	cache     *Cache
	objects   storage.ObjectStore
	buckets   map[dataset.Kind]string
	formatter *Formatter
	clock     func() time.Time
}

func NewService(records storage.RecordStore, objects storage.ObjectStore, buckets map[dataset.Kind]string) *Service {
	return &Service{
		cache:     NewCache(records),
		objects:   objects,
		buckets:   buckets,
		formatter: NewFormatter(),
		clock:     time.Now,
	}
}

// Register creates an empty cache record for a new username.
func (s *Service) Register(ctx context.Context, username string) error {
	if err := s.cache.CreateUser(ctx, username); err != nil {
		return err
	}

	metrics.UsersRegistered.Inc()
	logger.Info("User registered", zap.String("username", username))
	return nil
}

// Retrieve returns the normalized dataset for (username, kind, name),
// populating the cache from cold storage on first access. asOfDate is
// only meaningful for kinds whose cold key carries a date; when empty
// it defaults to today, matching how the ingestion side names files.
func (s *Service) Retrieve(ctx context.Context, username string, kind dataset.Kind, name, asOfDate string) (*Envelope, error) {
	start := s.clock()
	filename := kind.Filename(name)
	bucket := s.buckets[kind]

	found, events, _, err := s.cache.Lookup(ctx, username, filename)
	if err != nil {
		metrics.RetrievalTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if found {
		metrics.CacheHits.WithLabelValues(string(kind)).Inc()
		metrics.RetrievalTotal.WithLabelValues("hit").Inc()
		metrics.RetrievalDuration.WithLabelValues(string(kind)).Observe(s.clock().Sub(start).Seconds())

		logger.Debug("Dataset served from cache",
			zap.String("username", username),
			zap.String("filename", filename),
		)
		return s.formatter.Format(bucket, name, events, kind), nil
	}

	metrics.CacheMisses.WithLabelValues(string(kind)).Inc()

	envelope, err := s.populate(ctx, username, kind, name, asOfDate, filename, bucket)
	if err != nil {
		metrics.RetrievalTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.RetrievalTotal.WithLabelValues("miss").Inc()
	metrics.RetrievalDuration.WithLabelValues(string(kind)).Observe(s.clock().Sub(start).Seconds())
	return envelope, nil
}

// populate runs the miss path: cold fetch, normalize, cache append,
// re-read. A losing append (another writer populated the same filename
// first) is benign; both callers converge on the stored content.
func (s *Service) populate(ctx context.Context, username string, kind dataset.Kind, name, asOfDate, filename, bucket string) (*Envelope, error) {
	date := asOfDate
	if date == "" && kind.Dated() {
		date = s.clock().UTC().Format("2006-01-02")
	}
	key := kind.ObjectKey(username, name, date)

	raw, err := s.objects.Get(ctx, bucket, key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, fmt.Errorf("%w: no object %q in bucket %q", ErrDatasetNotFoundUpstream, key, bucket)
	}
	if err != nil {
		return nil, wrapStore("cold fetch", err)
	}
	metrics.ColdPulls.WithLabelValues(string(kind)).Inc()

	events, err := dataset.Normalize(kind, name, string(raw))
	if err != nil {
		return nil, err
	}

	entry := dataset.Entry{Filename: filename, DatasetName: name, Events: events}
	err = s.cache.Append(ctx, username, entry)
	if errors.Is(err, ErrDatasetAlreadyExists) {
		metrics.PopulateRaces.Inc()
		logger.Warn("Concurrent writer populated dataset first",
			zap.String("username", username),
			zap.String("filename", filename),
		)
	} else if err != nil {
		return nil, err
	}

	// Re-read so the response matches the canonical stored
	// representation, including after a lost race.
	found, events, _, err := s.cache.Lookup(ctx, username, filename)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &StoreError{Op: "re-read", Err: fmt.Errorf("dataset %q missing after populate", filename)}
	}

	logger.Info("Dataset populated from cold storage",
		zap.String("username", username),
		zap.String("filename", filename),
		zap.Int("events", len(events)),
	)
	return s.formatter.Format(bucket, name, events, kind), nil
}

// Delete removes a cached dataset by filename. Cold storage keeps the
// raw object; only the warm copy goes away.
func (s *Service) Delete(ctx context.Context, username, filename string) error {
	if err := s.cache.Remove(ctx, username, filename); err != nil {
		return err
	}

	metrics.DatasetsDeleted.Inc()
	logger.Info("Dataset deleted",
		zap.String("username", username),
		zap.String("filename", filename),
	)
	return nil
}

// List returns the filenames of the user's cached datasets in
// retrieval order.
func (s *Service) List(ctx context.Context, username string) ([]string, error) {
	return s.cache.ListAll(ctx, username)
}
