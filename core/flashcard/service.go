package flashcard

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/pkg/errors"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/lms"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/plan"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/progress"
)

type (
	Repository interface {
		CreateSet(ctx context.Context, s Set, exec ...core.DBExecutor) (Set, error)
		GetSetByID(ctx context.Context, id string, exec ...core.DBExecutor) (Set, error)
		// QuerySets applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Set.Title or Set.Description.
		QuerySets(ctx context.Context, filter *QueryFilter, orderings []core.DBOrdering, exec ...core.DBExecutor) ([]Set, error)
		CountSets(ctx context.Context, exec ...core.DBExecutor) (int, error)
		// UpdateSet saves every field of s but ID, AuthorID & CreatedAt.
		UpdateSet(ctx context.Context, s Set, exec ...core.DBExecutor) (Set, error)
		DeleteSet(ctx context.Context, id string, exec ...core.DBExecutor) error
		// QuerySetIDsLinkedTo returns the IDs of the sets linked to unit.
		QuerySetIDsLinkedTo(ctx context.Context, unit lms.Unit, exec ...core.DBExecutor) ([]string, error)
	}

	Service struct {
		repo     Repository
		progress *progress.Service
		gate     plan.Gate
	}
)

var _ lms.ContentLinks = (*Service)(nil)

func NewService(repo Repository, progressSvc *progress.Service, gate plan.Gate) *Service {
	return &Service{repo: repo, progress: progressSvc, gate: gate}
}

// Create saves a new set. Free installations are limited to plan.FreeSetLimit sets.
func (svc *Service) Create(ctx context.Context, authorID string, ns NewSet) (Set, error) {
	if !svc.gate.Allows(plan.UnlimitedSets) {
		n, err := svc.repo.CountSets(ctx)
		if err != nil {
			return Set{}, errors.Wrap(err, "counting sets")
		}
		if n >= plan.FreeSetLimit {
			return Set{}, plan.ErrPremiumRequired
		}
	}

	now := NowFunc().UTC()
	s := Set{
		AuthorID:    authorID,
		Title:       ns.Title,
		Description: ns.Description,
		Cards:       ns.Cards,
		Status:      ns.Status,
		Visibility:  ns.Visibility.Normalize(),
		CourseIDs:   ns.CourseIDs,
		LessonIDs:   ns.LessonIDs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if s.Status == "" {
		s.Status = StatusDraft
	}
	return svc.repo.CreateSet(ctx, s)
}

func (svc *Service) Get(ctx context.Context, id string) (Set, error) {
	return svc.repo.GetSetByID(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, orderings []core.DBOrdering) ([]Set, error) {
	return svc.repo.QuerySets(ctx, filter, orderings)
}

func (svc *Service) Update(ctx context.Context, id string, us UpdateSet) (Set, error) {
	s, err := svc.repo.GetSetByID(ctx, id)
	if err != nil {
		return Set{}, err
	}
	s.Title = us.Title
	s.Description = us.Description
	s.Cards = us.Cards
	if us.Status != "" {
		s.Status = us.Status
	}
	s.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateSet(ctx, s)
}

// SetAccess overwrites the visibility & LMS links of a set.
func (svc *Service) SetAccess(ctx context.Context, id string, access SetAccess) (Set, error) {
	s, err := svc.repo.GetSetByID(ctx, id)
	if err != nil {
		return Set{}, err
	}
	s.Visibility = access.Visibility.Normalize()
	s.CourseIDs = access.CourseIDs
	s.LessonIDs = access.LessonIDs
	s.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateSet(ctx, s)
}

// Delete removes a set along with the completions recorded on it.
func (svc *Service) Delete(ctx context.Context, id string) error {
	if err := svc.progress.DeleteForSet(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteSet(ctx, id)
}

func (svc *Service) ItemsLinkedTo(ctx context.Context, unit lms.Unit) ([]string, error) {
	return svc.repo.QuerySetIDsLinkedTo(ctx, unit)
}

var exportHeader = []string{"set_id", "title", "status", "visibility", "question", "answer"}

// Export writes the cards of the sets matching filter as CSV, one row per card.
func (svc *Service) Export(ctx context.Context, w io.Writer, filter *QueryFilter) error {
	if err := svc.gate.Require(plan.BulkExport); err != nil {
		return err
	}
	sets, err := svc.repo.QuerySets(ctx, filter, []core.DBOrdering{{Field: "created_at", Ascending: true}})
	if err != nil {
		return errors.Wrap(err, "querying sets")
	}

	cw := csv.NewWriter(w)
	if err = cw.Write(exportHeader); err != nil {
		return errors.Wrap(err, "writing csv header")
	}
	for _, s := range sets {
		for _, c := range s.Cards {
			if err = cw.Write([]string{s.ID, s.Title, s.Status, string(s.Visibility.Normalize()), c.Question, c.Answer}); err != nil {
				return errors.Wrap(err, "writing csv row")
			}
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing csv")
}
