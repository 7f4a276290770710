package inmemdb

import (
	"context"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/progress"
)

type completionRepository struct {
	db *completionTable
}

var _ progress.Repository = (*completionRepository)(nil)

func NewCompletionRepository(db *DB) progress.Repository {
	return &completionRepository{db: db.completion}
}

func (repo *completionRepository) UpsertCompletion(_ context.Context, c progress.Completion, _ ...core.DBExecutor) (progress.Completion, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[completionKey{userID: c.UserID, setID: c.SetID}] = c
	return c, nil
}

func (repo *completionRepository) GetCompletion(_ context.Context, userID, setID string, _ ...core.DBExecutor) (progress.Completion, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.table[completionKey{userID: userID, setID: setID}]; ok {
		return c, nil
	}
	return progress.Completion{}, progress.ErrNotFound
}

func (repo *completionRepository) QueryCompletions(_ context.Context, filter progress.QueryFilter, _ ...core.DBExecutor) ([]progress.Completion, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var completions []progress.Completion
	for key, c := range repo.db.table {
		if filter.UserID != "" && key.userID != filter.UserID {
			continue
		}
		if len(filter.SetIDs) > 0 && !hasString(filter.SetIDs, key.setID) {
			continue
		}
		completions = append(completions, c)
	}
	sortItems(completions, []core.DBOrdering{{Field: "completed_at"}}, func(a, b progress.Completion, _ string) int {
		return cmpTime(a.CompletedAt, b.CompletedAt)
	})
	return completions, nil
}

func (repo *completionRepository) DeleteCompletionsBySet(_ context.Context, setID string, _ ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var n int
	for key := range repo.db.table {
		if key.setID == setID {
			delete(repo.db.table, key)
			n++
		}
	}
	return n, nil
}

