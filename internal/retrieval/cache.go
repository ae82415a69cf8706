package retrieval

import (
	"context"
	"errors"

	"github.com/AIS170/SENG3011-OMEGA/internal/dataset"
	"github.com/AIS170/SENG3011-OMEGA/internal/storage"
)

// Cache mediates the per-user dataset records: lookup by filename,
// append-if-absent, remove, list. It owns the mapping from store
// sentinels to the user-facing error taxonomy.
type Cache struct {
	store storage.RecordStore
}

func NewCache(store storage.RecordStore) *Cache {
	return &Cache{store: store}
}

// CreateUser creates an empty-datasets record for a new username.
func (c *Cache) CreateUser(ctx context.Context, username string) error {
	err := c.store.CreateRecord(ctx, username)
	if errors.Is(err, storage.ErrRecordExists) {
		return ErrUserAlreadyExists
	}
	return wrapStore("create user", err)
}

// Lookup finds a cached dataset by filename. A registered user without
// the dataset yields found=false and index -1; an unregistered user is
// ErrUserNotFound.
func (c *Cache) Lookup(ctx context.Context, username, filename string) (bool, []dataset.Event, int, error) {
	record, err := c.store.GetRecord(ctx, username)
	if errors.Is(err, storage.ErrRecordNotFound) {
		return false, nil, -1, ErrUserNotFound
	}
	if err != nil {
		return false, nil, -1, wrapStore("lookup dataset", err)
	}

	idx := record.IndexOf(filename)
	if idx < 0 {
		return false, nil, -1, nil
	}
	return true, record.Datasets[idx].Events, idx, nil
}

// Append adds one complete dataset entry to the user's record. The
// filename must be absent: a duplicate is ErrDatasetAlreadyExists,
// whether caught by the lookup here or by the store's conditional
// write when another writer slips in between.
func (c *Cache) Append(ctx context.Context, username string, entry dataset.Entry) error {
	found, _, _, err := c.Lookup(ctx, username, entry.Filename)
	if err != nil {
		return err
	}
	if found {
		return ErrDatasetAlreadyExists
	}

	err = c.store.AppendEntry(ctx, username, entry)
	if errors.Is(err, storage.ErrEntryExists) {
		return ErrDatasetAlreadyExists
	}
	if errors.Is(err, storage.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return wrapStore("append dataset", err)
}

// Remove deletes the cached dataset with the given filename,
// preserving the order of the rest.
func (c *Cache) Remove(ctx context.Context, username, filename string) error {
	found, _, idx, err := c.Lookup(ctx, username, filename)
	if err != nil {
		return err
	}
	if !found {
		return ErrDatasetNotFound
	}

	err = c.store.RemoveEntryAt(ctx, username, idx)
	if errors.Is(err, storage.ErrIndexOutOfRange) {
		return ErrDatasetNotFound
	}
	if errors.Is(err, storage.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return wrapStore("remove dataset", err)
}

// ListAll returns the filenames of every dataset the user has
// retrieved, in retrieval order.
func (c *Cache) ListAll(ctx context.Context, username string) ([]string, error) {
	record, err := c.store.GetRecord(ctx, username)
	if errors.Is(err, storage.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, wrapStore("list datasets", err)
	}

	filenames := make([]string, 0, len(record.Datasets))
	for _, e := range record.Datasets {
		filenames = append(filenames, e.Filename)
	}
	return filenames, nil
}
