package flashcard_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Faiver55/skylearn-flashcards-sub001/core/flashcard"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/lms"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/plan"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/progress"
	"github.com/Faiver55/skylearn-flashcards-sub001/storage/database/inmem"
	"github.com/Faiver55/skylearn-flashcards-sub001/testutil"
)

type fixture struct {
	svc         *flashcard.Service
	repo        flashcard.Repository
	completions progress.Repository
}

func newFixture(tier plan.Tier) fixture {
	db := inmemdb.Open()
	completions := inmemdb.NewCompletionRepository(db)
	repo := inmemdb.NewSetRepository(db)
	return fixture{
		svc:         flashcard.NewService(repo, progress.NewService(completions), plan.Gate{Tier: tier}),
		repo:        repo,
		completions: completions,
	}
}

func newSet(title string) flashcard.NewSet {
	return flashcard.NewSet{
		Title: title,
		Cards: []flashcard.Card{{Question: "Q", Answer: "A"}},
	}
}

func TestNewSet_Validate(t *testing.T) {
	validate, _ := testutil.NewValidator()

	tests := []struct {
		name    string
		ns      flashcard.NewSet
		wantErr bool
	}{
		{name: "defaults", ns: newSet(" Capitals ")},
		{name: "blank title", ns: newSet("   "), wantErr: true},
		{name: "no cards", ns: flashcard.NewSet{Title: "T"}, wantErr: true},
		{name: "blank answer", ns: flashcard.NewSet{Title: "T", Cards: []flashcard.Card{{Question: "Q", Answer: " "}}}, wantErr: true},
		{name: "unknown visibility", ns: func() flashcard.NewSet { ns := newSet("T"); ns.Visibility = "friends"; return ns }(), wantErr: true},
		{name: "unknown status", ns: func() flashcard.NewSet { ns := newSet("T"); ns.Status = "archived"; return ns }(), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ns.Validate(validate)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "Capitals", tt.ns.Title)
			require.Equal(t, flashcard.StatusDraft, tt.ns.Status)
			require.Equal(t, lms.VisibilityAll, tt.ns.Visibility)
		})
	}
}

func TestService_Create_freeLimit(t *testing.T) {
	ctx := context.Background()

	free := newFixture(plan.TierFree)
	for i := 0; i < plan.FreeSetLimit; i++ {
		_, err := free.svc.Create(ctx, "author", newSet("set"))
		require.NoError(t, err)
	}
	_, err := free.svc.Create(ctx, "author", newSet("one too many"))
	require.Equal(t, plan.ErrPremiumRequired, err)

	premium := newFixture(plan.TierPremium)
	for i := 0; i <= plan.FreeSetLimit; i++ {
		_, err = premium.svc.Create(ctx, "author", newSet("set"))
		require.NoError(t, err)
	}
}

func TestService_SetAccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(plan.TierFree)
	validate, _ := testutil.NewValidator()

	ns := newSet("Capitals")
	ns.Status = flashcard.StatusPublished
	s, err := f.svc.Create(ctx, "author", ns)
	require.NoError(t, err)
	require.Equal(t, lms.VisibilityAll, s.Visibility)

	access := flashcard.SetAccess{Visibility: " Enrolled ", CourseIDs: []string{" 12 ", ""}, LessonIDs: []string{"7"}}
	require.NoError(t, access.Validate(validate))
	s, err = f.svc.SetAccess(ctx, s.ID, access)
	require.NoError(t, err)
	require.Equal(t, lms.VisibilityEnrolled, s.Visibility)
	require.Equal(t, []string{"12"}, s.CourseIDs)

	item := s.ContentItem()
	require.Equal(t, []lms.Unit{{ID: "12", Kind: lms.UnitCourse}, {ID: "7", Kind: lms.UnitLesson}}, item.Units())

	// drafts are never linked
	draft, err := f.svc.Create(ctx, "author", newSet("Rivers"))
	require.NoError(t, err)
	_, err = f.svc.SetAccess(ctx, draft.ID, access)
	require.NoError(t, err)

	ids, err := f.svc.ItemsLinkedTo(ctx, lms.Unit{ID: "7", Kind: lms.UnitLesson})
	require.NoError(t, err)
	require.Equal(t, []string{s.ID}, ids)
	ids, err = f.svc.ItemsLinkedTo(ctx, lms.Unit{ID: "7", Kind: lms.UnitCourse})
	require.NoError(t, err)
	require.Empty(t, ids)

	// content updates keep the access policy
	updated, err := f.svc.Update(ctx, s.ID, flashcard.UpdateSet{Title: "Cities", Cards: s.Cards})
	require.NoError(t, err)
	require.Equal(t, lms.VisibilityEnrolled, updated.Visibility)
	require.Equal(t, s.Status, updated.Status)

	_, err = f.svc.SetAccess(ctx, "unknown", access)
	require.Equal(t, flashcard.ErrNotFound, err)
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(plan.TierFree)
	s, err := f.svc.Create(ctx, "author", newSet("Capitals"))
	require.NoError(t, err)
	_, err = progress.NewService(f.completions).Record(ctx, "learner", s.ID, 90)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, s.ID))
	_, err = f.svc.Get(ctx, s.ID)
	require.Equal(t, flashcard.ErrNotFound, err)
	_, err = f.completions.GetCompletion(ctx, "learner", s.ID)
	require.Equal(t, progress.ErrNotFound, err)
}

func TestService_Export(t *testing.T) {
	ctx := context.Background()

	var buf bytes.Buffer
	require.Equal(t, plan.ErrPremiumRequired, newFixture(plan.TierFree).svc.Export(ctx, &buf, nil))

	f := newFixture(plan.TierPremium)
	ns := newSet("Capitals")
	ns.Cards = append(ns.Cards, flashcard.Card{Question: "France, capital?", Answer: "Paris"})
	s, err := f.svc.Create(ctx, "author", ns)
	require.NoError(t, err)

	require.NoError(t, f.svc.Export(ctx, &buf, nil))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, []string{"set_id", "title", "status", "visibility", "question", "answer"}, records[0])
	require.Equal(t, []string{s.ID, "Capitals", "draft", "all", "France, capital?", "Paris"}, records[2])
}
