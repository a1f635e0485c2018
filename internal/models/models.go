// Package models defines the domain types for Laguz.
package models

// Borrow record statuses.
const (
	StatusBorrowed = "borrowed"
	StatusReturned = "returned"
)

// LoanPeriodDays is the number of calendar days between borrow and due date.
const LoanPeriodDays = 30

// Collection names as stored on disk.
const (
	CollectionBooks   = "books"
	CollectionMembers = "members"
	CollectionHistory = "borrowingHistory"
)

// Book is a catalog entry. Available is false exactly while one open
// borrow record references this book; only the lending engine flips it.
type Book struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	Genre         string `json:"genre"`
	PublishedYear int    `json:"publishedYear,omitempty"`
	ISBN          string `json:"isbn,omitempty"`
	Available     bool   `json:"available"`
}

// Member is a directory entry. JoinDate is assigned at creation and
// never mutated afterwards; Active gates borrowing.
type Member struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	MembershipType string `json:"membershipType"`
	JoinDate       Date   `json:"joinDate"`
	Active         bool   `json:"active"`
}

// BorrowRecord is a ledger entry. A record is created in the borrowed
// state and is immutable once returned; records are never deleted.
type BorrowRecord struct {
	ID         int    `json:"id"`
	UserID     int    `json:"userId"`
	BookID     int    `json:"bookId"`
	BorrowDate Date   `json:"borrowDate"`
	DueDate    Date   `json:"dueDate"`
	ReturnDate *Date  `json:"returnDate"`
	Status     string `json:"status"`
}

// Open reports whether the record is still outstanding.
func (r BorrowRecord) Open() bool {
	return r.Status == StatusBorrowed
}
