package storage

import (
	"github.com/kpiotrowski/spizarka/internal/types"
)

// Storage is the interface for all record output backends.
type Storage interface {
	// Store persists a batch of product records.
	Store(records []types.ProductRecord) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}
