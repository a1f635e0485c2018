package api

import (
	"encoding/json"
	"net/http"

	"github.com/starford/laguz/internal/catalog"
	"github.com/starford/laguz/internal/models"
)

// ListBooks handles GET /api/books.
//
//	@Summary		List books with optional filtering
//	@Tags			books
//	@Produce		json
//	@Param			search		query		string	false	"Substring match on title or author"
//	@Param			genre		query		string	false	"Exact genre match (case-insensitive)"
//	@Param			available	query		bool	false	"Filter by availability"
//	@Success		200			{object}	response
//	@Security		BearerAuth
//	@Router			/books [get]
func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := catalog.Filter{
		Search: q.Get("search"),
		Genre:  q.Get("genre"),
	}
	if raw := q.Get("available"); raw != "" {
		avail := raw == "true"
		f.Available = &avail
	}
	books := h.books.List(f)
	okList(w, len(books), books)
}

// GetBook handles GET /api/books/{id}.
//
//	@Summary		Get a single book by id
//	@Tags			books
//	@Produce		json
//	@Param			id	path		int	true	"Book id"
//	@Success		200	{object}	response
//	@Failure		404	{object}	response
//	@Security		BearerAuth
//	@Router			/books/{id} [get]
func (h *Handler) GetBook(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		fail(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid book id")
		return
	}
	book, err := h.books.FindByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	okData(w, http.StatusOK, book)
}

// CreateBook handles POST /api/books.
//
//	@Summary		Add a new book to the catalog
//	@Tags			books
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateBookRequest	true	"Book to add"
//	@Success		201		{object}	response
//	@Failure		400		{object}	response
//	@Security		BearerAuth
//	@Router			/books [post]
func (h *Handler) CreateBook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		fail(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	book, err := h.books.Add(toBook(req))
	if err != nil {
		writeError(w, err)
		return
	}
	h.publish("book.created", map[string]any{"bookId": book.ID})
	okData(w, http.StatusCreated, book)
}

// UpdateBook handles PUT /api/books/{id}.
//
//	@Summary		Update catalog fields of a book
//	@Tags			books
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int					true	"Book id"
//	@Param			body	body		UpdateBookRequest	true	"Fields to update"
//	@Success		200		{object}	response
//	@Failure		404		{object}	response
//	@Security		BearerAuth
//	@Router			/books/{id} [put]
func (h *Handler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		fail(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid book id")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req UpdateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body")
		return
	}
	book, err := h.books.Update(id, catalog.Patch{
		Title:         req.Title,
		Author:        req.Author,
		Genre:         req.Genre,
		PublishedYear: req.PublishedYear,
		ISBN:          req.ISBN,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	h.publish("book.updated", map[string]any{"bookId": book.ID})
	okData(w, http.StatusOK, book)
}

// DeleteBook handles DELETE /api/books/{id}.
//
//	@Summary		Remove a book from the catalog
//	@Tags			books
//	@Produce		json
//	@Param			id	path		int	true	"Book id"
//	@Success		200	{object}	response
//	@Failure		404	{object}	response
//	@Security		BearerAuth
//	@Router			/books/{id} [delete]
func (h *Handler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		fail(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid book id")
		return
	}
	if err := h.books.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	h.publish("book.deleted", map[string]any{"bookId": id})
	okMessage(w, "Book deleted successfully", nil)
}

func toBook(req CreateBookRequest) models.Book {
	return models.Book{
		Title:         req.Title,
		Author:        req.Author,
		Genre:         req.Genre,
		PublishedYear: req.PublishedYear,
		ISBN:          req.ISBN,
	}
}
