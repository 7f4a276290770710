// Package lead captures the contact details viewers leave on flashcard sets
// and forwards them to the configured e-mail marketing providers.
package lead

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound = errors.New("lead not found")
)

type Lead struct {
	ID        string    `json:"id"`
	SetID     string    `json:"set_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// NewLead contains information needed to capture a new Lead.
type NewLead struct {
	SetID string `json:"set_id" validate:"required"`
	Name  string `json:"name" validate:"max=200"`
	Email string `json:"email" validate:"required,email"`
}

func (nl *NewLead) Validate(validate *validator.Validate) error {
	nl.SetID = core.CleanString(nl.SetID)
	nl.Name = core.CleanString(nl.Name)
	nl.Email = core.CleanString(nl.Email, true /* lower */)
	return validate.Struct(nl)
}

type QueryFilter struct {
	SetID       string    `query:"set"`
	Search      string    `query:"search"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.SetID == "" && qf.Search == "" && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.SetID = core.CleanString(qf.SetID)
	qf.Search = core.CleanString(qf.Search)
}
