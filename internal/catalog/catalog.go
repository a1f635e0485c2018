// Package catalog is the typed book view over the collection store.
package catalog

import (
	"strings"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/storage"
)

// Catalog wraps the books collection.
type Catalog struct {
	col *storage.Collection[models.Book]
}

// New creates a Catalog over the given collection.
func New(col *storage.Collection[models.Book]) *Catalog {
	return &Catalog{col: col}
}

// Filter narrows List results. Search matches title or author by
// case-insensitive substring; Genre matches exactly, case-insensitive;
// Available matches the flag when non-nil.
type Filter struct {
	Search    string
	Genre     string
	Available *bool
}

func (f Filter) matches(b models.Book) bool {
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(b.Title), q) &&
			!strings.Contains(strings.ToLower(b.Author), q) {
			return false
		}
	}
	if f.Genre != "" && !strings.EqualFold(b.Genre, f.Genre) {
		return false
	}
	if f.Available != nil && b.Available != *f.Available {
		return false
	}
	return true
}

// List returns all books matching the filter.
func (c *Catalog) List(f Filter) []models.Book {
	books := c.col.Load()
	out := make([]models.Book, 0, len(books))
	for _, b := range books {
		if f.matches(b) {
			out = append(out, b)
		}
	}
	return out
}

// FindByID returns the book with the given id.
func (c *Catalog) FindByID(id int) (*models.Book, error) {
	for _, b := range c.col.Load() {
		if b.ID == id {
			return &b, nil
		}
	}
	return nil, apperr.ErrBookNotFound
}

// Add assigns the next id and persists the new book. New books start
// available.
func (c *Catalog) Add(b models.Book) (models.Book, error) {
	_, err := c.col.Mutate(func(books []models.Book) ([]models.Book, error) {
		b.ID = nextID(books)
		b.Available = true
		return append(books, b), nil
	})
	if err != nil {
		return models.Book{}, err
	}
	return b, nil
}

// Patch carries optional book field updates. Availability is absent on
// purpose: only the lending engine may flip it.
type Patch struct {
	Title         *string
	Author        *string
	Genre         *string
	PublishedYear *int
	ISBN          *string
}

// Update applies a patch to the book with the given id and persists
// the collection.
func (c *Catalog) Update(id int, p Patch) (models.Book, error) {
	var updated models.Book
	_, err := c.col.Mutate(func(books []models.Book) ([]models.Book, error) {
		for i := range books {
			if books[i].ID != id {
				continue
			}
			if p.Title != nil {
				books[i].Title = *p.Title
			}
			if p.Author != nil {
				books[i].Author = *p.Author
			}
			if p.Genre != nil {
				books[i].Genre = *p.Genre
			}
			if p.PublishedYear != nil {
				books[i].PublishedYear = *p.PublishedYear
			}
			if p.ISBN != nil {
				books[i].ISBN = *p.ISBN
			}
			updated = books[i]
			return books, nil
		}
		return nil, apperr.ErrBookNotFound
	})
	if err != nil {
		return models.Book{}, err
	}
	return updated, nil
}

// Delete removes a book from the catalog. Ledger history referencing
// the book is left intact; freed ids are not reissued unless the
// deleted book held the highest id.
func (c *Catalog) Delete(id int) error {
	_, err := c.col.Mutate(func(books []models.Book) ([]models.Book, error) {
		for i := range books {
			if books[i].ID == id {
				return append(books[:i], books[i+1:]...), nil
			}
		}
		return nil, apperr.ErrBookNotFound
	})
	return err
}

// SetAvailability flips the availability flag and persists the
// catalog. Called only by the lending engine.
func (c *Catalog) SetAvailability(id int, available bool) (models.Book, error) {
	var updated models.Book
	_, err := c.col.Mutate(func(books []models.Book) ([]models.Book, error) {
		for i := range books {
			if books[i].ID == id {
				books[i].Available = available
				updated = books[i]
				return books, nil
			}
		}
		return nil, apperr.ErrBookNotFound
	})
	if err != nil {
		return models.Book{}, err
	}
	return updated, nil
}

// LoadFailures reports degraded reads of the books collection.
func (c *Catalog) LoadFailures() int64 {
	return c.col.LoadFailures()
}

func nextID(books []models.Book) int {
	max := 0
	for _, b := range books {
		if b.ID > max {
			max = b.ID
		}
	}
	return max + 1
}
