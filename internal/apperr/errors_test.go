package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestCode(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{ErrInvalidRequest, "INVALID_REQUEST"},
		{ErrMemberNotFound, "MEMBER_NOT_FOUND"},
		{ErrBookNotFound, "BOOK_NOT_FOUND"},
		{ErrMemberInactive, "MEMBER_INACTIVE"},
		{ErrBookUnavailable, "BOOK_UNAVAILABLE"},
		{ErrNoOpenBorrow, "NO_OPEN_BORROW"},
		{ErrPersistence, "PERSISTENCE_FAILURE"},
		{errors.New("boom"), "INTERNAL"},
	}
	for _, tc := range cases {
		if got := Code(tc.err); got != tc.want {
			t.Errorf("Code(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestCodeSeesThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("persist ledger: %w", ErrPersistence)
	if got := Code(wrapped); got != "PERSISTENCE_FAILURE" {
		t.Errorf("Code(wrapped) = %q", got)
	}
}
