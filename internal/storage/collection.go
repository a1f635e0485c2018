package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	jsoniter "github.com/json-iterator/go"

	"github.com/starford/laguz/internal/apperr"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Collection is a named, typed view over the Store. Load returns an
// empty slice on any read or decode failure (the collection is treated
// as empty, not as an error) and surfaces the underlying failure
// through a diagnostic log line and a failure counter.
type Collection[T any] struct {
	name  string
	store *Store
	log   *slog.Logger

	mu           sync.Mutex
	loadFailures atomic.Int64
}

// NewCollection creates a typed collection over the store.
func NewCollection[T any](store *Store, name string, log *slog.Logger) *Collection[T] {
	if log == nil {
		log = slog.Default()
	}
	return &Collection[T]{name: name, store: store, log: log}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string {
	return c.name
}

// Load reads and decodes the whole collection. A missing file is an
// empty collection; a corrupt file is also an empty collection, with
// the failure recorded as a diagnostic.
func (c *Collection[T]) Load() []T {
	data, err := c.store.Read(c.name)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.loadFailures.Add(1)
			c.log.Warn("collection read failed, treating as empty",
				slog.String("collection", c.name),
				slog.String("error", err.Error()))
		}
		return []T{}
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		c.loadFailures.Add(1)
		c.log.Warn("collection decode failed, treating as empty",
			slog.String("collection", c.name),
			slog.String("error", err.Error()))
		return []T{}
	}
	if items == nil {
		items = []T{}
	}
	return items
}

// Save serializes the full collection and overwrites the durable file.
func (c *Collection[T]) Save(items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.name, apperr.ErrPersistence)
	}
	if err := c.store.Write(c.name, data); err != nil {
		c.log.Error("collection write failed",
			slog.String("collection", c.name),
			slog.String("error", err.Error()))
		return fmt.Errorf("write %s: %w", c.name, apperr.ErrPersistence)
	}
	return nil
}

// Mutate runs fn over the loaded items and persists the result, holding
// the collection lock across the whole read-modify-write span. When fn
// returns an error nothing is written.
func (c *Collection[T]) Mutate(fn func(items []T) ([]T, error)) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := fn(c.Load())
	if err != nil {
		return nil, err
	}
	if err := c.Save(items); err != nil {
		return nil, err
	}
	return items, nil
}

// LoadFailures returns how many reads were silently degraded to an
// empty collection since startup.
func (c *Collection[T]) LoadFailures() int64 {
	return c.loadFailures.Load()
}
