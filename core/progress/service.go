package progress

import (
	"context"

	"github.com/pkg/errors"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
)

type (
	Repository interface {
		// UpsertCompletion inserts c or replaces the completion stored for (c.UserID, c.SetID).
		UpsertCompletion(ctx context.Context, c Completion, exec ...core.DBExecutor) (Completion, error)
		GetCompletion(ctx context.Context, userID, setID string, exec ...core.DBExecutor) (Completion, error)
		QueryCompletions(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Completion, error)
		DeleteCompletionsBySet(ctx context.Context, setID string, exec ...core.DBExecutor) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record upserts a completed attempt of userID on setID.
func (svc *Service) Record(ctx context.Context, userID, setID string, accuracy float64) (Completion, error) {
	c := Completion{
		UserID:      userID,
		SetID:       setID,
		Accuracy:    ClampAccuracy(accuracy),
		Completed:   true,
		CompletedAt: NowFunc().UTC(),
	}
	c, err := svc.repo.UpsertCompletion(ctx, c)
	return c, errors.Wrap(err, "upserting completion")
}

func (svc *Service) Get(ctx context.Context, userID, setID string) (Completion, error) {
	return svc.repo.GetCompletion(ctx, userID, setID)
}

func (svc *Service) ForUser(ctx context.Context, userID string) ([]Completion, error) {
	return svc.repo.QueryCompletions(ctx, QueryFilter{UserID: userID})
}

// ForUserOn returns the completed attempts of userID among setIDs.
func (svc *Service) ForUserOn(ctx context.Context, userID string, setIDs []string) ([]Completion, error) {
	if len(setIDs) == 0 {
		return nil, nil
	}
	completions, err := svc.repo.QueryCompletions(ctx, QueryFilter{UserID: userID, SetIDs: setIDs})
	if err != nil {
		return nil, err
	}
	done := completions[:0]
	for _, c := range completions {
		if c.Completed {
			done = append(done, c)
		}
	}
	return done, nil
}

func (svc *Service) Report(ctx context.Context, setID string) (SetReport, error) {
	completions, err := svc.repo.QueryCompletions(ctx, QueryFilter{SetIDs: []string{setID}})
	if err != nil {
		return SetReport{}, errors.Wrap(err, "querying completions")
	}
	report := SetReport{SetID: setID, Learners: len(completions)}
	for _, c := range completions {
		if c.Accuracy > report.BestAccuracy {
			report.BestAccuracy = c.Accuracy
		}
	}
	report.AverageAccuracy = MeanAccuracy(completions)
	return report, nil
}

func (svc *Service) DeleteForSet(ctx context.Context, setID string) error {
	_, err := svc.repo.DeleteCompletionsBySet(ctx, setID)
	return errors.Wrap(err, "deleting completions")
}
