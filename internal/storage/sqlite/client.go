package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/AIS170/SENG3011-OMEGA/internal/dataset"
	"github.com/AIS170/SENG3011-OMEGA/internal/storage"
	"github.com/AIS170/SENG3011-OMEGA/pkg/logger"
)

// Client is the default RecordStore: one row per username with the
// dataset list serialized as JSON. Mutations run inside immediate
// transactions with an in-transaction duplicate re-check, which gives
// the conditional-write behavior the append race relies on.
type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=5000&_txlock=immediate", dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err = db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite record store initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS user_records (
		username TEXT PRIMARY KEY,
		datasets TEXT NOT NULL DEFAULT '[]',
		created_at INTEGER NOT NULL
	);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) GetRecord(ctx context.Context, username string) (*dataset.Record, error) {
	var raw string
	err := c.db.QueryRowContext(ctx,
		`SELECT datasets FROM user_records WHERE username = ?`, username,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	record := &dataset.Record{Username: username}
	if err := json.Unmarshal([]byte(raw), &record.Datasets); err != nil {
		return nil, fmt.Errorf("failed to decode datasets for %q: %w", username, err)
	}
	return record, nil
}

func (c *Client) CreateRecord(ctx context.Context, username string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO user_records (username, datasets, created_at) VALUES (?, '[]', ?)`,
		username, time.Now().Unix(),
	)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return storage.ErrRecordExists
	}
	if err != nil {
		return fmt.Errorf("failed to create record: %w", err)
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

// mutateDatasets rewrites a user's dataset list atomically. The read
// and the conditional check happen inside the same write transaction.
func (c *Client) mutateDatasets(ctx context.Context, username string, mutate func([]dataset.Entry) ([]dataset.Entry, error)) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx,
		`SELECT datasets FROM user_records WHERE username = ?`, username,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrRecordNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read datasets: %w", err)
	}

	var entries []dataset.Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
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

	if _, err := tx.ExecContext(ctx,
		`UPDATE user_records SET datasets = ? WHERE username = ?`, string(encoded), username,
	); err != nil {
		return fmt.Errorf("failed to update datasets: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
