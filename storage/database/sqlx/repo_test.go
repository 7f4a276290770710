package sqlxrepos_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/flashcard"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/lead"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/lms"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/option"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/progress"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/user"
	"github.com/Faiver55/skylearn-flashcards-sub001/storage/database"
	"github.com/Faiver55/skylearn-flashcards-sub001/storage/database/sqlx"
)

// openTx runs each test in a transaction that is rolled back on cleanup.
func openTx(t *testing.T) *sqlx.Tx {
	t.Helper()
	if os.Getenv("SQLX_INTEGRATION") != "1" {
		t.Skip("set SQLX_INTEGRATION=1 to run PostgreSQL integration tests")
	}

	conf := core.NewConfig()
	require.NoError(t, database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback() })
	return tx
}

func createUser(t *testing.T, repo user.Repository, tx *sqlx.Tx, uname string, roles ...string) user.User {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	usr, err := repo.CreateUser(context.Background(), user.User{
		Name:      uname,
		Username:  uname,
		Email:     uname + "@example.com",
		IsActive:  true,
		Roles:     roles,
		CreatedAt: now,
		UpdatedAt: now,
	}, tx)
	require.NoError(t, err)
	return usr
}

func TestUserRepository(t *testing.T) {
	tx := openTx(t)
	ctx := context.Background()
	repo := sqlxrepos.NewUserRepository(tx)

	jane := createUser(t, repo, tx, "jane", user.RoleAdmin)
	joe := createUser(t, repo, tx, "joe", user.RoleLearner)

	require.Equal(t, user.ErrUsernameExists, repo.CheckUsernameUniqueness(ctx, "jane", "other@example.com", "", tx))
	require.Equal(t, user.ErrEmailExists, repo.CheckUsernameUniqueness(ctx, "other", "joe@example.com", "", tx))
	require.NoError(t, repo.CheckUsernameUniqueness(ctx, "jane", "jane@example.com", jane.ID, tx))

	got, err := repo.GetUserByUsernameOrEmail(ctx, "joe@example.com", tx)
	require.NoError(t, err)
	require.Equal(t, joe.ID, got.ID)

	_, err = repo.GetUserByID(ctx, "not-a-uuid", tx)
	require.Equal(t, user.ErrNotFound, err)

	admins, err := repo.QueryUsers(ctx, &user.QueryFilter{Roles: []string{"admin"}}, nil, tx)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	require.Equal(t, jane.ID, admins[0].ID)

	inactive := false
	joe.Name = "Joe Doe"
	joe.Roles = nil
	updated, err := repo.UpdateUser(ctx, joe, &inactive, tx)
	require.NoError(t, err)
	require.Equal(t, "Joe Doe", updated.Name)
	require.False(t, updated.IsActive)
	require.Equal(t, []string{user.RoleLearner}, []string(updated.Roles))

	require.NoError(t, repo.DeleteUsersByID(ctx, []string{jane.ID, joe.ID}, tx))
	_, err = repo.GetUserByEmail(ctx, "jane@example.com", tx)
	require.Equal(t, user.ErrNotFound, err)
}

func TestSetAndCompletionRepositories(t *testing.T) {
	tx := openTx(t)
	ctx := context.Background()
	author := createUser(t, sqlxrepos.NewUserRepository(tx), tx, "author", user.RoleAuthor)
	sets := sqlxrepos.NewSetRepository(tx)
	completions := sqlxrepos.NewCompletionRepository(tx)

	now := time.Now().UTC()
	set, err := sets.CreateSet(ctx, flashcard.Set{
		AuthorID:   author.ID,
		Title:      "Capitals",
		Cards:      []flashcard.Card{{Question: "France?", Answer: "Paris"}},
		Status:     flashcard.StatusPublished,
		Visibility: lms.VisibilityEnrolled,
		CourseIDs:  []string{"12"},
		CreatedAt:  now,
		UpdatedAt:  now,
	}, tx)
	require.NoError(t, err)

	_, err = sets.CreateSet(ctx, flashcard.Set{
		AuthorID:   author.ID,
		Title:      "Rivers",
		Cards:      []flashcard.Card{{Question: "France?", Answer: "Seine"}},
		Status:     flashcard.StatusDraft,
		Visibility: lms.VisibilityEnrolled,
		CourseIDs:  []string{"12"},
		CreatedAt:  now,
		UpdatedAt:  now,
	}, tx)
	require.NoError(t, err)

	linked, err := sets.QuerySetIDsLinkedTo(ctx, lms.Unit{ID: "12", Kind: lms.UnitCourse}, tx)
	require.NoError(t, err)
	require.Equal(t, []string{set.ID}, linked)
	linked, err = sets.QuerySetIDsLinkedTo(ctx, lms.Unit{ID: "12", Kind: lms.UnitLesson}, tx)
	require.NoError(t, err)
	require.Empty(t, linked)

	found, err := sets.QuerySets(ctx, &flashcard.QueryFilter{Search: "capit", IDs: []string{set.ID}}, nil, tx)
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, set.Cards, found[0].Cards)

	for _, acc := range []float64{60, 95} {
		_, err = completions.UpsertCompletion(ctx, progress.Completion{
			UserID: author.ID, SetID: set.ID, Accuracy: acc, Completed: true, CompletedAt: now,
		}, tx)
		require.NoError(t, err)
	}
	all, err := completions.QueryCompletions(ctx, progress.QueryFilter{SetIDs: []string{set.ID}}, tx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, 95.0, all[0].Accuracy)

	n, err := completions.DeleteCompletionsBySet(ctx, set.ID, tx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.NoError(t, sets.DeleteSet(ctx, set.ID, tx))
	require.Equal(t, flashcard.ErrNotFound, sets.DeleteSet(ctx, set.ID, tx))
}

func TestLeadRepositoryAndOptionStore(t *testing.T) {
	tx := openTx(t)
	ctx := context.Background()

	leads := sqlxrepos.NewLeadRepository(tx)
	_, err := leads.CreateLead(ctx, lead.Lead{Name: "Ann", Email: "ann@example.com", CreatedAt: time.Now()}, tx)
	require.NoError(t, err)
	found, err := leads.QueryLeads(ctx, &lead.QueryFilter{Search: "ANN"}, tx)
	require.NoError(t, err)
	require.Len(t, found, 1)

	store := sqlxrepos.NewOptionStore(tx)
	_, err = store.GetOption(ctx, "missing")
	require.Equal(t, option.ErrNotFound, err)
	require.NoError(t, store.SetOption(ctx, "k", []byte(`{"a":1}`)))
	require.NoError(t, store.SetOption(ctx, "k", []byte(`{"a":2}`)))
	val, err := store.GetOption(ctx, "k")
	require.NoError(t, err)
	require.JSONEq(t, `{"a":2}`, string(val))
	require.NoError(t, store.DeleteOption(ctx, "k"))
}
