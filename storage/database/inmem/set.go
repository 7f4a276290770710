package inmemdb

import (
	"context"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/flashcard"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/lms"
)

type setRepository struct {
	db *setTable
}

var _ flashcard.Repository = (*setRepository)(nil)

func NewSetRepository(db *DB) flashcard.Repository {
	return &setRepository{db: db.set}
}

func (repo *setRepository) CreateSet(_ context.Context, s flashcard.Set, _ ...core.DBExecutor) (flashcard.Set, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	s.ID = newID()
	s = copySet(s)
	repo.db.table[s.ID] = &s
	return copySet(s), nil
}

func (repo *setRepository) GetSetByID(_ context.Context, id string, _ ...core.DBExecutor) (flashcard.Set, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.table[id]; ok {
		return copySet(*s), nil
	}
	return flashcard.Set{}, flashcard.ErrNotFound
}

func (repo *setRepository) QuerySets(
	_ context.Context,
	filter *flashcard.QueryFilter,
	orderings []core.DBOrdering,
	_ ...core.DBExecutor,
) ([]flashcard.Set, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var sets []flashcard.Set
	for _, s := range repo.db.table {
		if filter == nil || matchSet(*s, filter) {
			sets = append(sets, copySet(*s))
		}
	}

	orderings = core.FilterOrderings(orderings, flashcard.OrderingFields...)
	orderings = append(orderings, core.DBOrdering{Field: "created_at"})
	sortItems(sets, orderings, compareSets)
	return sets, nil
}

func matchSet(s flashcard.Set, filter *flashcard.QueryFilter) bool {
	if filter.Search != "" && !(containsFold(s.Title, filter.Search) || containsFold(s.Description, filter.Search)) {
		return false
	}
	if filter.AuthorID != "" && s.AuthorID != filter.AuthorID {
		return false
	}
	if filter.Status != "" && s.Status != filter.Status {
		return false
	}
	if len(filter.IDs) > 0 && !hasString(filter.IDs, s.ID) {
		return false
	}
	return true
}

func compareSets(a, b flashcard.Set, field string) int {
	switch field {
	case "title":
		return cmpString(a.Title, b.Title)
	case "status":
		return cmpString(a.Status, b.Status)
	case "updated_at":
		return cmpTime(a.UpdatedAt, b.UpdatedAt)
	}
	return cmpTime(a.CreatedAt, b.CreatedAt)
}

func (repo *setRepository) CountSets(_ context.Context, _ ...core.DBExecutor) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.db.table), nil
}

func (repo *setRepository) UpdateSet(_ context.Context, s flashcard.Set, _ ...core.DBExecutor) (flashcard.Set, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[s.ID]
	if !ok {
		return flashcard.Set{}, flashcard.ErrNotFound
	}
	s.AuthorID = orig.AuthorID
	s.CreatedAt = orig.CreatedAt
	s.Locked = false
	s = copySet(s)
	repo.db.table[s.ID] = &s
	return copySet(s), nil
}

func (repo *setRepository) DeleteSet(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return flashcard.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

func (repo *setRepository) QuerySetIDsLinkedTo(_ context.Context, unit lms.Unit, _ ...core.DBExecutor) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var ids []string
	for _, s := range repo.db.table {
		if !s.IsPublished() {
			continue
		}
		linked := s.CourseIDs
		if unit.Kind == lms.UnitLesson {
			linked = s.LessonIDs
		}
		if hasString(linked, unit.ID) {
			ids = append(ids, s.ID)
		}
	}
	return ids, nil
}

func copySet(s flashcard.Set) flashcard.Set {
	if s.Cards != nil {
		s.Cards = append(make([]flashcard.Card, 0, len(s.Cards)), s.Cards...)
	}
	s.CourseIDs = copyStrings(s.CourseIDs)
	s.LessonIDs = copyStrings(s.LessonIDs)
	return s
}
