package retrieval

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/AIS170/SENG3011-OMEGA/pkg/logger"
)

var (
	// ErrUserNotFound: no cache record exists for the username; the
	// caller must register first.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists: registration attempted for a taken username.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrDatasetAlreadyExists: a dataset with the same filename is
	// already cached for the user. Recovered internally when two
	// first-fetches race; surfaced on a direct duplicate push.
	ErrDatasetAlreadyExists = errors.New("dataset already exists for user")

	// ErrDatasetNotFoundUpstream: cold storage has no object for the
	// requested dataset; the ingestion side never collected it.
	ErrDatasetNotFoundUpstream = errors.New("dataset not found in cold storage")

	// ErrDatasetNotFound: deletion targeted a dataset the user never
	// retrieved.
	ErrDatasetNotFound = errors.New("dataset not found for user")
)

// StoreError wraps an underlying store transport failure. Callers see
// it as an internal error; the underlying code is logged at wrap time.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store access failed during %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// wrapStore classifies a store failure, logging the underlying code
// before surfacing it. Taxonomy errors pass through untouched.
func wrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrUserAlreadyExists) ||
		errors.Is(err, ErrDatasetAlreadyExists) ||
		errors.Is(err, ErrDatasetNotFound) {
		return err
	}

	logger.Error("Store access error",
		zap.String("op", op),
		zap.String("code", err.Error()),
	)
	return &StoreError{Op: op, Err: err}
}
