// Package testutil holds the helpers shared by the test suites.
package testutil

import (
	"context"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/flashcard"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/lms"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/user"
)

// NewValidator returns a validator with every app validator registered, as the API does.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)
	flashcard.RegisterValidators(validate, translator)
	return validate, translator
}

// NewConfig returns a test mode configuration.
func NewConfig() *core.Config {
	conf := &core.Config{
		Debug:                     true,
		TestMode:                  true,
		Env:                       "TEST",
		AppName:                   "Flashcards Test",
		SecretKey:                 "test-secret-key",
		FrontendBaseURL:           "http://localhost:8080",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		OwnerEmail:                "owner@example.com",
	}
	conf.DefaultFromEmail.Name = "Flashcards"
	conf.DefaultFromEmail.Address = "noreply@example.com"
	conf.Server.JWTExpirationDelta = time.Hour
	conf.Server.JWTRefreshExpirationDelta = time.Hour
	conf.License.Tier = "free"
	return conf
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

// CreateSet stores a published set with a single card, restricted by visibility to the given courses.
func CreateSet(
	t *testing.T,
	repo flashcard.Repository,
	authorID, title string,
	visibility lms.Visibility,
	courseIDs []string,
	createdAt ...time.Time,
) flashcard.Set {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	s, err := repo.CreateSet(context.Background(), flashcard.Set{
		AuthorID:   authorID,
		Title:      title,
		Cards:      []flashcard.Card{{Question: title + "?", Answer: title + "!"}},
		Status:     flashcard.StatusPublished,
		Visibility: visibility,
		CourseIDs:  courseIDs,
		CreatedAt:  tstamp,
		UpdatedAt:  tstamp,
	})
	if err != nil {
		t.Fatalf("createSet() failed: %v", err)
	}
	return s
}
