package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Catalog.
	r.Get("/books", h.ListBooks)
	r.Post("/books", h.CreateBook)
	r.Get("/books/{id}", h.GetBook)
	r.Put("/books/{id}", h.UpdateBook)
	r.Delete("/books/{id}", h.DeleteBook)

	// Members.
	r.Get("/users", h.ListMembers)
	r.Post("/users", h.CreateMember)
	r.Get("/users/{id}", h.GetMember)
	r.Put("/users/{id}", h.UpdateMember)
	r.Get("/users/{id}/history", h.MemberHistory)

	// Lending.
	r.Get("/borrow/history", h.BorrowHistory)
	r.Post("/borrow/borrow", h.Borrow)
	r.Post("/borrow/return", h.Return)

	// Audit trail.
	r.Get("/audit", h.AuditRecent)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
