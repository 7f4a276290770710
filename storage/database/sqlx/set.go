package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/flashcard"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/lms"
)

const setColumns = `id, author_id, title, description, cards, status, visibility, course_ids, lesson_ids, created_at, updated_at`

type setRow struct {
	ID          string         `db:"id"`
	AuthorID    null.String    `db:"author_id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	Cards       types.JSONText `db:"cards"`
	Status      string         `db:"status"`
	Visibility  string         `db:"visibility"`
	CourseIDs   pq.StringArray `db:"course_ids"`
	LessonIDs   pq.StringArray `db:"lesson_ids"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

type setRepository struct {
	repo
}

var _ flashcard.Repository = (*setRepository)(nil) // interface compliance check

func NewSetRepository(exec core.DBExecutor) flashcard.Repository {
	return &setRepository{repo{exec: exec}}
}

func nonNil(ids []string) pq.StringArray {
	if ids == nil {
		return pq.StringArray{}
	}
	return ids
}

func (setRepository) boil(s flashcard.Set) (setRow, error) {
	cards := s.Cards
	if cards == nil {
		cards = []flashcard.Card{}
	}
	raw, err := json.Marshal(cards)
	if err != nil {
		return setRow{}, errors.Wrap(err, "encoding cards")
	}
	return setRow{
		ID:          s.ID,
		AuthorID:    null.NewString(s.AuthorID, s.AuthorID != ""),
		Title:       s.Title,
		Description: s.Description,
		Cards:       raw,
		Status:      s.Status,
		Visibility:  string(s.Visibility.Normalize()),
		CourseIDs:   nonNil(s.CourseIDs),
		LessonIDs:   nonNil(s.LessonIDs),
		CreatedAt:   s.CreatedAt.UTC(),
		UpdatedAt:   s.UpdatedAt.UTC(),
	}, nil
}

func (setRepository) unboil(row setRow) (flashcard.Set, error) {
	var cards []flashcard.Card
	if err := row.Cards.Unmarshal(&cards); err != nil {
		return flashcard.Set{}, errors.Wrapf(err, "decoding cards of set %s", row.ID)
	}
	return flashcard.Set{
		ID:          row.ID,
		AuthorID:    row.AuthorID.String,
		Title:       row.Title,
		Description: row.Description,
		Cards:       cards,
		Status:      row.Status,
		Visibility:  lms.Visibility(row.Visibility).Normalize(),
		CourseIDs:   row.CourseIDs,
		LessonIDs:   row.LessonIDs,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}, nil
}

// trapNoRowsErr maps psql "no rows" err to flashcard.ErrNotFound
func (setRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return flashcard.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo *setRepository) CreateSet(ctx context.Context, s flashcard.Set, exec ...core.DBExecutor) (flashcard.Set, error) {
	s.ID = uuid.New().String()
	row, err := repo.boil(s)
	if err != nil {
		return flashcard.Set{}, err
	}
	_, err = repo.getExec(exec).NamedExecContext(ctx, `
		INSERT INTO flashcard_set (`+setColumns+`)
		VALUES (:id, :author_id, :title, :description, :cards, :status, :visibility, :course_ids, :lesson_ids, :created_at, :updated_at)`,
		row)
	if err != nil {
		return flashcard.Set{}, errors.Wrap(err, "inserting flashcard set")
	}
	return repo.unboil(row)
}

func (repo *setRepository) GetSetByID(ctx context.Context, id string, exec ...core.DBExecutor) (flashcard.Set, error) {
	if _, err := uuid.Parse(id); err != nil {
		return flashcard.Set{}, flashcard.ErrNotFound
	}
	exe := repo.getExec(exec)
	var row setRow
	if err := exe.GetContext(ctx, &row, exe.Rebind(`SELECT `+setColumns+` FROM flashcard_set WHERE id = ?`), id); err != nil {
		return flashcard.Set{}, repo.trapNoRowsErr(err, "finding flashcard set")
	}
	return repo.unboil(row)
}

func (repo *setRepository) QuerySets(
	ctx context.Context,
	filter *flashcard.QueryFilter,
	orderings []core.DBOrdering,
	exec ...core.DBExecutor,
) ([]flashcard.Set, error) {
	exe := repo.getExec(exec)
	w := &where{}

	if filter != nil {
		if filter.Search != "" {
			val := likeArg(filter.Search)
			w.add("title ILIKE ? OR description ILIKE ?", val, val)
		}
		if filter.AuthorID != "" {
			w.add("author_id::text = ?", filter.AuthorID)
		}
		if filter.Status != "" {
			w.add("status = ?", filter.Status)
		}
		if len(filter.IDs) > 0 {
			if err := w.in("id::text", filter.IDs); err != nil {
				return nil, errors.Wrap(err, "filtering flashcard sets")
			}
		}
	}

	orderings = core.FilterOrderings(orderings, flashcard.OrderingFields...)
	orderings = append(orderings, core.DBOrdering{Field: "created_at"})
	query, args := w.build(exe, `SELECT `+setColumns+` FROM flashcard_set`, orderings)

	var rows []setRow
	if err := exe.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying flashcard sets")
	}
	sets := make([]flashcard.Set, 0, len(rows))
	for _, row := range rows {
		s, err := repo.unboil(row)
		if err != nil {
			return nil, err
		}
		sets = append(sets, s)
	}
	return sets, nil
}

func (repo *setRepository) CountSets(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	var n int
	if err := repo.getExec(exec).GetContext(ctx, &n, `SELECT COUNT(*) FROM flashcard_set`); err != nil {
		return 0, errors.Wrap(err, "counting flashcard sets")
	}
	return n, nil
}

func (repo *setRepository) UpdateSet(ctx context.Context, s flashcard.Set, exec ...core.DBExecutor) (flashcard.Set, error) {
	row, err := repo.boil(s)
	if err != nil {
		return flashcard.Set{}, err
	}
	exe := repo.getExec(exec)
	query, args, err := exe.BindNamed(`
		UPDATE flashcard_set
		SET title = :title, description = :description, cards = :cards, status = :status, visibility = :visibility,
			course_ids = :course_ids, lesson_ids = :lesson_ids, updated_at = :updated_at
		WHERE id = :id
		RETURNING `+setColumns, row)
	if err != nil {
		return flashcard.Set{}, errors.Wrap(err, "binding flashcard set")
	}

	var updated setRow
	if err = exe.GetContext(ctx, &updated, query, args...); err != nil {
		return flashcard.Set{}, repo.trapNoRowsErr(err, "updating flashcard set")
	}
	return repo.unboil(updated)
}

func (repo *setRepository) DeleteSet(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if _, err := uuid.Parse(id); err != nil {
		return flashcard.ErrNotFound
	}
	exe := repo.getExec(exec)
	res, err := exe.ExecContext(ctx, exe.Rebind(`DELETE FROM flashcard_set WHERE id = ?`), id)
	if err != nil {
		return errors.Wrap(err, "deleting flashcard set")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return flashcard.ErrNotFound
	}
	return nil
}

// QuerySetIDsLinkedTo leaves out drafts: they cannot be completed.
func (repo *setRepository) QuerySetIDsLinkedTo(ctx context.Context, unit lms.Unit, exec ...core.DBExecutor) ([]string, error) {
	column := "course_ids"
	if unit.Kind == lms.UnitLesson {
		column = "lesson_ids"
	}
	exe := repo.getExec(exec)

	var ids []string
	query := exe.Rebind(`SELECT id FROM flashcard_set WHERE ` + column + ` @> ARRAY[?]::text[] AND status = ? ORDER BY created_at`)
	if err := exe.SelectContext(ctx, &ids, query, unit.ID, flashcard.StatusPublished); err != nil {
		return nil, errors.Wrapf(err, "querying sets linked to %s %s", unit.Kind, unit.ID)
	}
	return ids, nil
}
