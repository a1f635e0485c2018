// Package members is the typed member view over the collection store.
package members

import (
	"strings"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/storage"
)

// Directory wraps the members collection.
type Directory struct {
	col *storage.Collection[models.Member]
}

// New creates a Directory over the given collection.
func New(col *storage.Collection[models.Member]) *Directory {
	return &Directory{col: col}
}

// Filter narrows List results. MembershipType matches exactly,
// case-insensitive; Active matches the flag when non-nil.
type Filter struct {
	MembershipType string
	Active         *bool
}

func (f Filter) matches(m models.Member) bool {
	if f.MembershipType != "" && !strings.EqualFold(m.MembershipType, f.MembershipType) {
		return false
	}
	if f.Active != nil && m.Active != *f.Active {
		return false
	}
	return true
}

// List returns all members matching the filter.
func (d *Directory) List(f Filter) []models.Member {
	all := d.col.Load()
	out := make([]models.Member, 0, len(all))
	for _, m := range all {
		if f.matches(m) {
			out = append(out, m)
		}
	}
	return out
}

// FindByID returns the member with the given id.
func (d *Directory) FindByID(id int) (*models.Member, error) {
	for _, m := range d.col.Load() {
		if m.ID == id {
			return &m, nil
		}
	}
	return nil, apperr.ErrMemberNotFound
}

// Add assigns the next id, stamps the join date, and persists the new
// member. New members start active.
func (d *Directory) Add(m models.Member) (models.Member, error) {
	_, err := d.col.Mutate(func(all []models.Member) ([]models.Member, error) {
		m.ID = nextID(all)
		m.JoinDate = models.Today()
		m.Active = true
		return append(all, m), nil
	})
	if err != nil {
		return models.Member{}, err
	}
	return m, nil
}

// Patch carries optional member field updates. JoinDate is immutable
// and therefore absent.
type Patch struct {
	Name           *string
	Email          *string
	MembershipType *string
	Active         *bool
}

// Update applies a patch to the member with the given id and persists
// the collection.
func (d *Directory) Update(id int, p Patch) (models.Member, error) {
	var updated models.Member
	_, err := d.col.Mutate(func(all []models.Member) ([]models.Member, error) {
		for i := range all {
			if all[i].ID != id {
				continue
			}
			if p.Name != nil {
				all[i].Name = *p.Name
			}
			if p.Email != nil {
				all[i].Email = *p.Email
			}
			if p.MembershipType != nil {
				all[i].MembershipType = *p.MembershipType
			}
			if p.Active != nil {
				all[i].Active = *p.Active
			}
			updated = all[i]
			return all, nil
		}
		return nil, apperr.ErrMemberNotFound
	})
	if err != nil {
		return models.Member{}, err
	}
	return updated, nil
}

// LoadFailures reports degraded reads of the members collection.
func (d *Directory) LoadFailures() int64 {
	return d.col.LoadFailures()
}

func nextID(all []models.Member) int {
	max := 0
	for _, m := range all {
		if m.ID > max {
			max = m.ID
		}
	}
	return max + 1
}
