// Package inmemory is a storage.Driver that keeps exchanges in a map. History
// is lost when the process exits.
package inmemory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/papercomputeco/ollamaui/pkg/storage"
)

// Driver implements storage.Driver using an in-memory map.
type Driver struct {
	// mu guards exchanges
	mu sync.RWMutex

	// exchanges maps exchange ID to a private copy of the exchange
	exchanges map[string]*storage.Exchange
}

// NewDriver creates a new in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		exchanges: make(map[string]*storage.Exchange),
	}
}

// Put stores a copy of ex, replacing any exchange with the same ID.
func (d *Driver) Put(_ context.Context, ex *storage.Exchange) error {
	if ex == nil {
		return errors.New("cannot store nil exchange")
	}
	if ex.ID == "" {
		return errors.New("cannot store exchange without an id")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	stored := *ex
	d.exchanges[ex.ID] = &stored
	return nil
}

// Get retrieves an exchange by ID.
func (d *Driver) Get(_ context.Context, id string) (*storage.Exchange, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ex, ok := d.exchanges[id]
	if !ok {
		return nil, storage.NotFoundError{ID: id}
	}

	out := *ex
	return &out, nil
}

// List returns up to limit exchanges, newest first.
func (d *Driver) List(_ context.Context, limit int) ([]*storage.Exchange, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*storage.Exchange, 0, len(d.exchanges))
	for _, ex := range d.exchanges {
		cp := *ex
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// Count returns the number of stored exchanges.
func (d *Driver) Count(_ context.Context) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.exchanges), nil
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}
