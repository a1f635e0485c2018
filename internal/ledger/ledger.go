// Package ledger is the typed borrow-record view over the collection store.
package ledger

import (
	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/storage"
)

// Ledger wraps the borrowing-history collection. Records are appended
// and closed, never deleted.
type Ledger struct {
	col *storage.Collection[models.BorrowRecord]
}

// New creates a Ledger over the given collection.
func New(col *storage.Collection[models.BorrowRecord]) *Ledger {
	return &Ledger{col: col}
}

// ListAll returns every record in ledger order.
func (l *Ledger) ListAll() []models.BorrowRecord {
	return l.col.Load()
}

// ByUser returns all records, open and closed, for one member.
func (l *Ledger) ByUser(userID int) []models.BorrowRecord {
	all := l.col.Load()
	out := make([]models.BorrowRecord, 0, len(all))
	for _, r := range all {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out
}

// FindOpen returns the first record matching both ids with status
// borrowed. At most one should exist per book; if prior corruption
// left more, the first in ledger order wins.
func (l *Ledger) FindOpen(userID, bookID int) (*models.BorrowRecord, error) {
	for _, r := range l.col.Load() {
		if r.UserID == userID && r.BookID == bookID && r.Open() {
			return &r, nil
		}
	}
	return nil, apperr.ErrNoOpenBorrow
}

// OpenByBook returns the open record for a book regardless of member,
// or nil when the book is not out.
func (l *Ledger) OpenByBook(bookID int) *models.BorrowRecord {
	for _, r := range l.col.Load() {
		if r.BookID == bookID && r.Open() {
			return &r
		}
	}
	return nil
}

// Append assigns the next id and persists the new record.
func (l *Ledger) Append(r models.BorrowRecord) (models.BorrowRecord, error) {
	_, err := l.col.Mutate(func(all []models.BorrowRecord) ([]models.BorrowRecord, error) {
		r.ID = nextID(all)
		return append(all, r), nil
	})
	if err != nil {
		return models.BorrowRecord{}, err
	}
	return r, nil
}

// Close marks a record returned, stamping the return date. Borrow and
// due dates are left untouched.
func (l *Ledger) Close(id int, returnDate models.Date) (models.BorrowRecord, error) {
	var closed models.BorrowRecord
	_, err := l.col.Mutate(func(all []models.BorrowRecord) ([]models.BorrowRecord, error) {
		for i := range all {
			if all[i].ID == id {
				all[i].Status = models.StatusReturned
				rd := returnDate
				all[i].ReturnDate = &rd
				closed = all[i]
				return all, nil
			}
		}
		return nil, apperr.ErrNoOpenBorrow
	})
	if err != nil {
		return models.BorrowRecord{}, err
	}
	return closed, nil
}

// LoadFailures reports degraded reads of the history collection.
func (l *Ledger) LoadFailures() int64 {
	return l.col.LoadFailures()
}

func nextID(all []models.BorrowRecord) int {
	max := 0
	for _, r := range all {
		if r.ID > max {
			max = r.ID
		}
	}
	return max + 1
}
