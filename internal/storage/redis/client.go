package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/AIS170/SENG3011-OMEGA/internal/dataset"
	"github.com/AIS170/SENG3011-OMEGA/internal/storage"
	"github.com/AIS170/SENG3011-OMEGA/pkg/logger"
)

// maxTxAttempts bounds optimistic-lock contention on a single user's
// record. Contention only happens when the same user mutates the same
// record concurrently.
const maxTxAttempts = 3

// Client is the Redis-backed RecordStore: one JSON value per username,
// mutated under WATCH so appends stay conditional on the filename
// being absent.
type Client struct {
	client *redis.Client
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis record store initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func recordKey(username string) string {
	return fmt.Sprintf("user:%s", username)
}

func (c *Client) GetRecord(ctx context.Context, username string) (*dataset.Record, error) {
	data, err := c.client.Get(ctx, recordKey(username)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	record := &dataset.Record{Username: username}
	if err := json.Unmarshal(data, &record.Datasets); err != nil {
		return nil, fmt.Errorf("failed to decode datasets for %q: %w", username, err)
	}
	return record, nil
}

func (c *Client) CreateRecord(ctx context.Context, username string) error {
	created, err := c.client.SetNX(ctx, recordKey(username), "[]", 0).Result()
	if err != nil {
		return fmt.Errorf("failed to create record: %w", err)
	}
	if !created {
		return storage.ErrRecordExists
	}

	logger.Debug("User record created", zap.String("username", username))
	return nil
}

func (c *Client) AppendEntry(ctx context.Context, username string, entry dataset.Entry) error {
	return c.mutateDatasets(ctx, username, func(entries []dataset.Entry) ([]dataset.Entry, error) {
		for _, e := range entries {
			if e.Filename == entry.Filename {
				return nil, storage.ErrEntryExists
			}
		}
		return append(entries, entry), nil
	})
}

func (c *Client) RemoveEntryAt(ctx context.Context, username string, index int) error {
	return c.mutateDatasets(ctx, username, func(entries []dataset.Entry) ([]dataset.Entry, error) {
		if index < 0 || index >= len(entries) {
			return nil, storage.ErrIndexOutOfRange
		}
		return append(entries[:index], entries[index+1:]...), nil
	})
}

// mutateDatasets rewrites a user's dataset list under WATCH so the
// duplicate check and the write are one conditional operation.
func (c *Client) mutateDatasets(ctx context.Context, username string, mutate func([]dataset.Entry) ([]dataset.Entry, error)) error {
	key := recordKey(username)

	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return storage.ErrRecordNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read record: %w", err)
		}

		var entries []dataset.Entry
		if err := json.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("failed to decode datasets for %q: %w", username, err)
		}

		entries, err = mutate(entries)
		if err != nil {
			return err
		}
		if entries == nil {
			entries = []dataset.Entry{}
		}

		encoded, err := json.Marshal(entries)
		if err != nil {
			return fmt.Errorf("failed to encode datasets: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, 0)
			return nil
		})
		return err
	}

	var err error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err = c.client.Watch(ctx, txn, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
		logger.Debug("Record transaction contention, reapplying",
			zap.String("username", username),
			zap.Int("attempt", attempt+1),
		)
	}
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("failed to update record after %d attempts: %w", maxTxAttempts, err)
	}
	return err
}
