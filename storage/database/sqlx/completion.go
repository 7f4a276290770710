package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/progress"
)

const completionColumns = `user_id, set_id, accuracy, completed, completed_at`

type completionRow struct {
	UserID      string    `db:"user_id"`
	SetID       string    `db:"set_id"`
	Accuracy    float64   `db:"accuracy"`
	Completed   bool      `db:"completed"`
	CompletedAt null.Time `db:"completed_at"`
}

func (row completionRow) unboil() progress.Completion {
	return progress.Completion{
		UserID:      row.UserID,
		SetID:       row.SetID,
		Accuracy:    row.Accuracy,
		Completed:   row.Completed,
		CompletedAt: row.CompletedAt.Time.UTC(),
	}
}

type completionRepository struct {
	repo
}

var _ progress.Repository = (*completionRepository)(nil) // interface compliance check

func NewCompletionRepository(exec core.DBExecutor) progress.Repository {
	return &completionRepository{repo{exec: exec}}
}

func (repo *completionRepository) UpsertCompletion(ctx context.Context, c progress.Completion, exec ...core.DBExecutor) (progress.Completion, error) {
	row := completionRow{
		UserID:      c.UserID,
		SetID:       c.SetID,
		Accuracy:    c.Accuracy,
		Completed:   c.Completed,
		CompletedAt: null.NewTime(c.CompletedAt.UTC(), !c.CompletedAt.IsZero()),
	}
	_, err := repo.getExec(exec).NamedExecContext(ctx, `
		INSERT INTO completion (`+completionColumns+`)
		VALUES (:user_id, :set_id, :accuracy, :completed, :completed_at)
		ON CONFLICT (user_id, set_id) DO UPDATE
		SET accuracy = EXCLUDED.accuracy, completed = EXCLUDED.completed, completed_at = EXCLUDED.completed_at`,
		row)
	if err != nil {
		return progress.Completion{}, errors.Wrap(err, "upserting completion")
	}
	return row.unboil(), nil
}

func (repo *completionRepository) GetCompletion(ctx context.Context, userID, setID string, exec ...core.DBExecutor) (progress.Completion, error) {
	exe := repo.getExec(exec)
	var row completionRow
	query := exe.Rebind(`SELECT ` + completionColumns + ` FROM completion WHERE user_id::text = ? AND set_id::text = ?`)
	if err := exe.GetContext(ctx, &row, query, userID, setID); err != nil {
		if err == sql.ErrNoRows {
			return progress.Completion{}, progress.ErrNotFound
		}
		return progress.Completion{}, errors.Wrap(err, "finding completion")
	}
	return row.unboil(), nil
}

func (repo *completionRepository) QueryCompletions(ctx context.Context, filter progress.QueryFilter, exec ...core.DBExecutor) ([]progress.Completion, error) {
	exe := repo.getExec(exec)
	w := &where{}
	if filter.UserID != "" {
		w.add("user_id::text = ?", filter.UserID)
	}
	if len(filter.SetIDs) > 0 {
		w.add("set_id::text = ANY (?)", pq.StringArray(filter.SetIDs))
	}
	query, args := w.build(exe, `SELECT `+completionColumns+` FROM completion`, []core.DBOrdering{{Field: "completed_at"}})

	var rows []completionRow
	if err := exe.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying completions")
	}
	completions := make([]progress.Completion, 0, len(rows))
	for _, row := range rows {
		completions = append(completions, row.unboil())
	}
	return completions, nil
}

func (repo *completionRepository) DeleteCompletionsBySet(ctx context.Context, setID string, exec ...core.DBExecutor) (int, error) {
	exe := repo.getExec(exec)
	res, err := exe.ExecContext(ctx, exe.Rebind(`DELETE FROM completion WHERE set_id::text = ?`), setID)
	if err != nil {
		return 0, errors.Wrap(err, "deleting completions")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "counting deleted completions")
	}
	return int(n), nil
}

