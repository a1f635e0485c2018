package api

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// BorrowHistory handles GET /api/borrow/history.
//
//	@Summary		Get the full borrowing history
//	@Tags			borrow
//	@Produce		json
//	@Success		200	{object}	response
//	@Security		BearerAuth
//	@Router			/borrow/history [get]
func (h *Handler) BorrowHistory(w http.ResponseWriter, r *http.Request) {
	history := h.records.ListAll()
	okList(w, len(history), history)
}

// Borrow handles POST /api/borrow/borrow.
//
//	@Summary		Borrow a book
//	@Tags			borrow
//	@Accept			json
//	@Produce		json
//	@Param			body	body		LendingRequest	true	"Member and book ids"
//	@Success		200		{object}	response
//	@Failure		400		{object}	response
//	@Failure		404		{object}	response
//	@Security		BearerAuth
//	@Router			/borrow/borrow [post]
func (h *Handler) Borrow(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeLendingRequest(w, r)
	if !ok {
		return
	}
	result, err := h.engine.Borrow(r.Context(), req.UserID, req.BookID)
	if err != nil {
		writeError(w, err)
		return
	}
	okMessage(w, "Book borrowed successfully", result)
}

// Return handles POST /api/borrow/return.
//
//	@Summary		Return a borrowed book
//	@Tags			borrow
//	@Accept			json
//	@Produce		json
//	@Param			body	body		LendingRequest	true	"Member and book ids"
//	@Success		200		{object}	response
//	@Failure		400		{object}	response
//	@Failure		404		{object}	response
//	@Security		BearerAuth
//	@Router			/borrow/return [post]
func (h *Handler) Return(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeLendingRequest(w, r)
	if !ok {
		return
	}
	result, err := h.engine.Return(r.Context(), req.UserID, req.BookID)
	if err != nil {
		writeError(w, err)
		return
	}
	okMessage(w, "Book returned successfully", result)
}

// AuditRecent handles GET /api/audit.
//
//	@Summary		List recent audited lending operations
//	@Tags			audit
//	@Produce		json
//	@Param			limit	query		int	false	"Max entries"
//	@Success		200		{object}	response
//	@Security		BearerAuth
//	@Router			/audit [get]
func (h *Handler) AuditRecent(w http.ResponseWriter, r *http.Request) {
	if h.trail == nil {
		okList(w, 0, []any{})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.trail.Recent(limit)
	if err != nil {
		writeError(w, err)
		return
	}
	okList(w, len(entries), entries)
}

func decodeLendingRequest(w http.ResponseWriter, r *http.Request) (LendingRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req LendingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body")
		return req, false
	}
	if err := req.Validate(); err != nil {
		fail(w, http.StatusBadRequest, "INVALID_REQUEST", "User ID and Book ID are required")
		return req, false
	}
	return req, true
}
