package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/lead"
)

const leadColumns = `id, set_id, name, email, created_at`

type leadRow struct {
	ID        string      `db:"id"`
	SetID     null.String `db:"set_id"`
	Name      string      `db:"name"`
	Email     string      `db:"email"`
	CreatedAt time.Time   `db:"created_at"`
}

type leadRepository struct {
	repo
}

var _ lead.Repository = (*leadRepository)(nil) // interface compliance check

func NewLeadRepository(exec core.DBExecutor) lead.Repository {
	return &leadRepository{repo{exec: exec}}
}

func (repo *leadRepository) CreateLead(ctx context.Context, l lead.Lead, exec ...core.DBExecutor) (lead.Lead, error) {
	l.ID = uuid.New().String()
	l.CreatedAt = l.CreatedAt.UTC()
	row := leadRow{
		ID:        l.ID,
		SetID:     null.NewString(l.SetID, l.SetID != ""),
		Name:      l.Name,
		Email:     l.Email,
		CreatedAt: l.CreatedAt,
	}
	_, err := repo.getExec(exec).NamedExecContext(ctx, `
		INSERT INTO lead (`+leadColumns+`) VALUES (:id, :set_id, :name, :email, :created_at)`,
		row)
	if err != nil {
		return lead.Lead{}, errors.Wrap(err, "inserting lead")
	}
	return l, nil
}

func (repo *leadRepository) QueryLeads(ctx context.Context, filter *lead.QueryFilter, exec ...core.DBExecutor) ([]lead.Lead, error) {
	exe := repo.getExec(exec)
	w := &where{}

	if filter != nil {
		if filter.SetID != "" {
			w.add("set_id::text = ?", filter.SetID)
		}
		if filter.Search != "" {
			val := likeArg(filter.Search)
			w.add("name ILIKE ? OR email ILIKE ?", val, val)
		}
		if !filter.CreatedFrom.IsZero() {
			w.add("created_at >= ?", filter.CreatedFrom.UTC())
		}
		if !filter.CreatedTo.IsZero() {
			w.add("created_at <= ?", filter.CreatedTo.UTC())
		}
	}
	query, args := w.build(exe, `SELECT `+leadColumns+` FROM lead`, []core.DBOrdering{{Field: "created_at"}})

	var rows []leadRow
	if err := exe.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying leads")
	}
	leads := make([]lead.Lead, 0, len(rows))
	for _, row := range rows {
		leads = append(leads, lead.Lead{
			ID:        row.ID,
			SetID:     row.SetID.String,
			Name:      row.Name,
			Email:     row.Email,
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return leads, nil
}
