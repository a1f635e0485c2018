package api

import (
	"encoding/json"
	"net/http"

	"github.com/starford/laguz/internal/members"
	"github.com/starford/laguz/internal/models"
)

// ListMembers handles GET /api/users.
//
//	@Summary		List members with optional filtering
//	@Tags			users
//	@Produce		json
//	@Param			membershipType	query		string	false	"Exact membership type match (case-insensitive)"
//	@Param			active			query		bool	false	"Filter by active flag"
//	@Success		200				{object}	response
//	@Security		BearerAuth
//	@Router			/users [get]
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := members.Filter{MembershipType: q.Get("membershipType")}
	if raw := q.Get("active"); raw != "" {
		active := raw == "true"
		f.Active = &active
	}
	all := h.members.List(f)
	okList(w, len(all), all)
}

// GetMember handles GET /api/users/{id}.
//
//	@Summary		Get a single member by id
//	@Tags			users
//	@Produce		json
//	@Param			id	path		int	true	"Member id"
//	@Success		200	{object}	response
//	@Failure		404	{object}	response
//	@Security		BearerAuth
//	@Router			/users/{id} [get]
func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		fail(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid member id")
		return
	}
	m, err := h.members.FindByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	okData(w, http.StatusOK, m)
}

// MemberHistory handles GET /api/users/{id}/history.
//
//	@Summary		Get a member's borrowing history
//	@Tags			users
//	@Produce		json
//	@Param			id	path		int	true	"Member id"
//	@Success		200	{object}	response
//	@Failure		404	{object}	response
//	@Security		BearerAuth
//	@Router			/users/{id}/history [get]
func (h *Handler) MemberHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		fail(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid member id")
		return
	}
	m, err := h.members.FindByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	okData(w, http.StatusOK, MemberHistoryResponse{
		User:             *m,
		BorrowingHistory: h.records.ByUser(id),
	})
}

// CreateMember handles POST /api/users.
//
//	@Summary		Register a new member
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateMemberRequest	true	"Member to register"
//	@Success		201		{object}	response
//	@Failure		400		{object}	response
//	@Security		BearerAuth
//	@Router			/users [post]
func (h *Handler) CreateMember(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		fail(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	m, err := h.members.Add(models.Member{
		Name:           req.Name,
		Email:          req.Email,
		MembershipType: req.MembershipType,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	h.publish("member.created", map[string]any{"userId": m.ID})
	okData(w, http.StatusCreated, m)
}

// UpdateMember handles PUT /api/users/{id}.
//
//	@Summary		Update a member's profile or subscription
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int					true	"Member id"
//	@Param			body	body		UpdateMemberRequest	true	"Fields to update"
//	@Success		200		{object}	response
//	@Failure		404		{object}	response
//	@Security		BearerAuth
//	@Router			/users/{id} [put]
func (h *Handler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		fail(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid member id")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req UpdateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body")
		return
	}
	m, err := h.members.Update(id, members.Patch{
		Name:           req.Name,
		Email:          req.Email,
		MembershipType: req.MembershipType,
		Active:         req.Active,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	h.publish("member.updated", map[string]any{"userId": m.ID})
	okData(w, http.StatusOK, m)
}
