package storage

import (
	"context"
	"errors"

	"github.com/AIS170/SENG3011-OMEGA/internal/dataset"
)

var (
	// ErrRecordNotFound: no record exists for the username.
	ErrRecordNotFound = errors.New("user record not found")

	// ErrRecordExists: creation attempted over an existing record.
	ErrRecordExists = errors.New("user record already exists")

	// ErrEntryExists: conditional append rejected a duplicate filename.
	ErrEntryExists = errors.New("dataset entry already exists")

	// ErrIndexOutOfRange: removal index does not name an entry.
	ErrIndexOutOfRange = errors.New("dataset index out of range")

	// ErrObjectNotFound: no object under the requested key.
	ErrObjectNotFound = errors.New("object not found")
)

// RecordStore holds one record per username. Implementations must make
// AppendEntry conditional on the entry's filename being absent, so two
// racing first-fetches cannot both insert the same dataset.
type RecordStore interface {
	GetRecord(ctx context.Context, username string) (*dataset.Record, error)
	CreateRecord(ctx context.Context, username string) error
	AppendEntry(ctx context.Context, username string, entry dataset.Entry) error
	RemoveEntryAt(ctx context.Context, username string, index int) error
	Close() error
}

// ObjectStore is the cold side: raw blobs written by the ingestion
// pipeline, read-only to the retrieval path. Delete is idempotent.
type ObjectStore interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, data []byte) error
	Delete(ctx context.Context, bucket, key string) error
	List(ctx context.Context, bucket, prefix string) ([]string, error)
}
