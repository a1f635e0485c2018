package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/laguz/internal/audit"
	"github.com/starford/laguz/internal/catalog"
	"github.com/starford/laguz/internal/ledger"
	"github.com/starford/laguz/internal/lending"
	"github.com/starford/laguz/internal/members"
)

// Publisher receives change events from the facade (book.*, member.*).
// Satisfied by *sse.Broker.
type Publisher interface {
	PublishChange(kind string, data map[string]any)
}

// Handler holds API route handlers.
type Handler struct {
	books   *catalog.Catalog
	members *members.Directory
	records *ledger.Ledger
	engine  *lending.Service
	trail   *audit.Log // optional
	events  Publisher  // optional
}

// NewHandler creates a new Handler. trail and events may be nil.
func NewHandler(books *catalog.Catalog, dir *members.Directory, records *ledger.Ledger, engine *lending.Service, trail *audit.Log, events Publisher) *Handler {
	return &Handler{
		books:   books,
		members: dir,
		records: records,
		engine:  engine,
		trail:   trail,
		events:  events,
	}
}

func (h *Handler) publish(kind string, data map[string]any) {
	if h.events != nil {
		h.events.PublishChange(kind, data)
	}
}

// idParam extracts and validates the {id} URL parameter.
func idParam(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
