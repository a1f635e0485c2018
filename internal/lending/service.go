// Package lending implements the transaction engine that mutates book
// availability and borrow history together. It is the sole writer
// allowed to break and restore the availability/open-record invariant;
// every collaborator must go through it rather than flipping book
// availability or ledger status directly.
package lending

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/audit"
	"github.com/starford/laguz/internal/catalog"
	"github.com/starford/laguz/internal/ledger"
	"github.com/starford/laguz/internal/members"
	"github.com/starford/laguz/internal/models"
)

// EventFunc receives a lending event kind ("lending.borrowed" or
// "lending.returned") and its payload after a successful operation.
type EventFunc func(kind string, data map[string]any)

// BorrowResult is returned by a successful Borrow.
type BorrowResult struct {
	Record models.BorrowRecord `json:"record"`
	Book   models.Book         `json:"book"`
	Member models.Member       `json:"user"`
}

// ReturnResult is returned by a successful Return.
type ReturnResult struct {
	Record models.BorrowRecord `json:"record"`
	Book   models.Book         `json:"book"`
}

// Service orchestrates the catalog, directory, and ledger. A single
// mutex serializes Borrow and Return so their read-modify-write cycles
// over the two collections cannot interleave and lose updates.
type Service struct {
	mu      sync.Mutex
	books   *catalog.Catalog
	members *members.Directory
	records *ledger.Ledger

	trail   *audit.Log // optional
	publish EventFunc  // optional
	log     *slog.Logger
	today   func() models.Date
}

// Option configures the lending service.
type Option func(*Service)

// WithAudit records every engine operation in the audit trail.
func WithAudit(trail *audit.Log) Option {
	return func(s *Service) { s.trail = trail }
}

// WithEvents publishes an event after each successful operation.
func WithEvents(fn EventFunc) Option {
	return func(s *Service) { s.publish = fn }
}

// WithClock overrides the current-date source, for tests.
func WithClock(today func() models.Date) Option {
	return func(s *Service) { s.today = today }
}

// New creates the lending service.
func New(books *catalog.Catalog, dir *members.Directory, records *ledger.Ledger, opts ...Option) *Service {
	s := &Service{
		books:   books,
		members: dir,
		records: records,
		log:     slog.Default(),
		today:   models.Today,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Borrow checks the member and book, marks the book unavailable, and
// appends an open borrow record due in thirty days. Preconditions are
// validated in order and the first failure wins, before any mutation.
func (s *Service) Borrow(_ context.Context, userID, bookID int) (*BorrowResult, error) {
	if userID <= 0 || bookID <= 0 {
		return nil, apperr.ErrInvalidRequest
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	member, err := s.members.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if !member.Active {
		return nil, apperr.ErrMemberInactive
	}
	book, err := s.books.FindByID(bookID)
	if err != nil {
		return nil, err
	}
	if !book.Available {
		return nil, apperr.ErrBookUnavailable
	}

	updated, err := s.books.SetAvailability(bookID, false)
	if err != nil {
		s.record("borrow", userID, bookID, 0, err)
		return nil, fmt.Errorf("persist catalog: %w", err)
	}

	borrowDate := s.today()
	rec, err := s.records.Append(models.BorrowRecord{
		UserID:     userID,
		BookID:     bookID,
		BorrowDate: borrowDate,
		DueDate:    borrowDate.AddDays(models.LoanPeriodDays),
		ReturnDate: nil,
		Status:     models.StatusBorrowed,
	})
	if err != nil {
		// The catalog write already landed: book is marked unavailable
		// with no open record. Surface the inconsistency, do not hide it.
		s.log.Error("ledger write failed after catalog update, collections are inconsistent",
			slog.Int("user_id", userID),
			slog.Int("book_id", bookID),
			slog.String("error", err.Error()))
		s.record("borrow", userID, bookID, 0, err)
		return nil, fmt.Errorf("persist ledger: %w", err)
	}

	s.record("borrow", userID, bookID, rec.ID, nil)
	s.emit("lending.borrowed", rec)
	return &BorrowResult{Record: rec, Book: updated, Member: *member}, nil
}

// Return closes the open borrow record for the member/book pair and
// marks the book available again. The closed record keeps its borrow
// and due dates and becomes immutable.
func (s *Service) Return(_ context.Context, userID, bookID int) (*ReturnResult, error) {
	if userID <= 0 || bookID <= 0 {
		return nil, apperr.ErrInvalidRequest
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.books.FindByID(bookID); err != nil {
		return nil, err
	}
	open, err := s.records.FindOpen(userID, bookID)
	if err != nil {
		return nil, err
	}

	updated, err := s.books.SetAvailability(bookID, true)
	if err != nil {
		s.record("return", userID, bookID, open.ID, err)
		return nil, fmt.Errorf("persist catalog: %w", err)
	}

	closed, err := s.records.Close(open.ID, s.today())
	if err != nil {
		s.log.Error("ledger write failed after catalog update, collections are inconsistent",
			slog.Int("user_id", userID),
			slog.Int("book_id", bookID),
			slog.Int("record_id", open.ID),
			slog.String("error", err.Error()))
		s.record("return", userID, bookID, open.ID, err)
		return nil, fmt.Errorf("persist ledger: %w", err)
	}

	s.record("return", userID, bookID, closed.ID, nil)
	s.emit("lending.returned", closed)
	return &ReturnResult{Record: closed, Book: updated}, nil
}

func (s *Service) record(op string, userID, bookID, recordID int, opErr error) {
	if s.trail == nil {
		return
	}
	outcome := "ok"
	if opErr != nil {
		outcome = apperr.Code(opErr)
	}
	if err := s.trail.Record(audit.Entry{
		Op:       op,
		UserID:   userID,
		BookID:   bookID,
		RecordID: recordID,
		Outcome:  outcome,
	}); err != nil {
		s.log.Warn("audit record failed", slog.String("error", err.Error()))
	}
}

func (s *Service) emit(kind string, rec models.BorrowRecord) {
	if s.publish == nil {
		return
	}
	s.publish(kind, map[string]any{
		"recordId": rec.ID,
		"userId":   rec.UserID,
		"bookId":   rec.BookID,
		"status":   rec.Status,
	})
}
