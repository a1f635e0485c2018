// Package apperr defines the lending error taxonomy and its stable wire codes.
package apperr

import "errors"

var (
	ErrInvalidRequest  = errors.New("user id and book id are required")
	ErrMemberNotFound  = errors.New("member not found")
	ErrBookNotFound    = errors.New("book not found")
	ErrMemberInactive  = errors.New("member account is not active")
	ErrBookUnavailable = errors.New("book is not available for borrowing")
	ErrNoOpenBorrow    = errors.New("no active borrowing record found for this book and member")
	ErrPersistence     = errors.New("durable write did not complete")
)

// Code returns the stable reason code for an error, suitable for API
// responses and audit entries. Unknown errors map to "INTERNAL".
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "INVALID_REQUEST"
	case errors.Is(err, ErrMemberNotFound):
		return "MEMBER_NOT_FOUND"
	case errors.Is(err, ErrBookNotFound):
		return "BOOK_NOT_FOUND"
	case errors.Is(err, ErrMemberInactive):
		return "MEMBER_INACTIVE"
	case errors.Is(err, ErrBookUnavailable):
		return "BOOK_UNAVAILABLE"
	case errors.Is(err, ErrNoOpenBorrow):
		return "NO_OPEN_BORROW"
	case errors.Is(err, ErrPersistence):
		return "PERSISTENCE_FAILURE"
	default:
		return "INTERNAL"
	}
}
