package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/laguz/internal/models"
)

// LendingRequest is the body of POST /borrow/borrow and /borrow/return.
type LendingRequest struct {
	UserID int `json:"userId"`
	BookID int `json:"bookId"`
}

// Validate checks that both ids are present and positive.
func (r LendingRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required, validation.Min(1)),
		validation.Field(&r.BookID, validation.Required, validation.Min(1)),
	)
}

// CreateBookRequest is the body of POST /books.
type CreateBookRequest struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	Genre         string `json:"genre"`
	PublishedYear int    `json:"publishedYear"`
	ISBN          string `json:"isbn"`
}

// Validate checks the required catalog fields.
func (r CreateBookRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required),
		validation.Field(&r.Author, validation.Required),
		validation.Field(&r.PublishedYear, validation.Min(0)),
	)
}

// UpdateBookRequest is the body of PUT /books/{id}. Only provided
// fields are applied; availability is engine-owned and not accepted here.
type UpdateBookRequest struct {
	Title         *string `json:"title"`
	Author        *string `json:"author"`
	Genre         *string `json:"genre"`
	PublishedYear *int    `json:"publishedYear"`
	ISBN          *string `json:"isbn"`
}

// CreateMemberRequest is the body of POST /users.
type CreateMemberRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	MembershipType string `json:"membershipType"`
}

// Validate checks the required member fields.
func (r CreateMemberRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Email, validation.Required),
	)
}

// UpdateMemberRequest is the body of PUT /users/{id}. JoinDate is
// immutable and deliberately not accepted.
type UpdateMemberRequest struct {
	Name           *string `json:"name"`
	Email          *string `json:"email"`
	MembershipType *string `json:"membershipType"`
	Active         *bool   `json:"active"`
}

// MemberHistoryResponse is the data payload of GET /users/{id}/history.
type MemberHistoryResponse struct {
	User             models.Member         `json:"user"`
	BorrowingHistory []models.BorrowRecord `json:"borrowingHistory"`
}
