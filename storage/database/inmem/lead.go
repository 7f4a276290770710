package inmemdb

import (
	"context"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/lead"
)

type leadRepository struct {
	db *leadTable
}

var _ lead.Repository = (*leadRepository)(nil)

func NewLeadRepository(db *DB) lead.Repository {
	return &leadRepository{db: db.lead}
}

func (repo *leadRepository) CreateLead(_ context.Context, l lead.Lead, _ ...core.DBExecutor) (lead.Lead, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	l.ID = newID()
	repo.db.table[l.ID] = l
	return l, nil
}

func (repo *leadRepository) QueryLeads(_ context.Context, filter *lead.QueryFilter, _ ...core.DBExecutor) ([]lead.Lead, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var leads []lead.Lead
	for _, l := range repo.db.table {
		if filter == nil || matchLead(l, filter) {
			leads = append(leads, l)
		}
	}
	sortItems(leads, []core.DBOrdering{{Field: "created_at"}}, func(a, b lead.Lead, _ string) int {
		return cmpTime(a.CreatedAt, b.CreatedAt)
	})
	return leads, nil
}

func matchLead(l lead.Lead, filter *lead.QueryFilter) bool {
	if filter.SetID != "" && l.SetID != filter.SetID {
		return false
	}
	if filter.Search != "" && !(containsFold(l.Name, filter.Search) || containsFold(l.Email, filter.Search)) {
		return false
	}
	if !filter.CreatedFrom.IsZero() && l.CreatedAt.Before(filter.CreatedFrom) {
		return false
	}
	if !filter.CreatedTo.IsZero() && l.CreatedAt.After(filter.CreatedTo) {
		return false
	}
	return true
}
