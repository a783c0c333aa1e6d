// Package storage persists completed chat exchanges so they can be listed and
// replayed later.
package storage

import (
	"context"
)

// DefaultListLimit is used when List is called with a non-positive limit by
// callers that want a bounded page.
const DefaultListLimit = 20

// Driver defines the interface for persisting and retrieving exchanges in a
// storage backend.
type Driver interface {
	// Put stores an exchange. Storing an ID that already exists replaces it.
	Put(ctx context.Context, ex *Exchange) error

	// Get retrieves an exchange by ID. It returns a NotFoundError when no
	// exchange has that ID.
	Get(ctx context.Context, id string) (*Exchange, error)

	// List returns up to limit exchanges, newest first. A limit of zero or
	// less returns every exchange.
	List(ctx context.Context, limit int) ([]*Exchange, error)

	// Count returns the number of stored exchanges.
	Count(ctx context.Context) (int, error)

	// Close closes the store and releases any resources.
	Close() error
}
