// Package flashcard manages flashcard sets: question/answer cards that may be linked
// to courses & lessons of an external LMS.
package flashcard

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/lms"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound = errors.New("flashcard set not found")
)

type Card struct {
	Question string `json:"question" validate:"notblank,max=1000"`
	Answer   string `json:"answer" validate:"notblank,max=2000"`
}

type Set struct {
	ID          string         `json:"id"`
	AuthorID    string         `json:"author_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Cards       []Card         `json:"cards"`
	Status      string         `json:"status"`
	Visibility  lms.Visibility `json:"visibility"`
	CourseIDs   []string       `json:"course_ids"`
	LessonIDs   []string       `json:"lesson_ids"`
	CreatedAt   time.Time      `json:"created_at"` // UTC
	UpdatedAt   time.Time      `json:"updated_at"` // UTC

	// Locked sets are listed to viewers without access, without their cards.
	Locked bool `json:"locked,omitempty"`
}

// ContentItem is the view of s the LMS resolver & forwarder work with.
func (s Set) ContentItem() lms.ContentItem {
	return lms.ContentItem{
		ID:         s.ID,
		Visibility: s.Visibility,
		CourseIDs:  s.CourseIDs,
		LessonIDs:  s.LessonIDs,
	}
}

func (s Set) IsPublished() bool { return s.Status == StatusPublished }

// Lock returns a copy of s stripped of its cards.
func (s Set) Lock() Set {
	s.Cards = nil
	s.Locked = true
	return s
}

// NewSet contains information needed to create a new Set.
type NewSet struct {
	Title       string         `json:"title" validate:"notblank,max=200"`
	Description string         `json:"description" validate:"max=5000"`
	Cards       []Card         `json:"cards" validate:"required,min=1,max=500,dive"`
	Status      string         `json:"status" validate:"omitempty,oneof=draft published"`
	Visibility  lms.Visibility `json:"visibility" validate:"visibility"`
	CourseIDs   []string       `json:"course_ids" validate:"omitempty,max=50"`
	LessonIDs   []string       `json:"lesson_ids" validate:"omitempty,max=50"`
}

func (ns *NewSet) Validate(validate *validator.Validate) error {
	ns.Title = core.CleanString(ns.Title)
	ns.Description = core.CleanString(ns.Description)
	ns.Status = core.CleanString(ns.Status, true /* lower */)
	if ns.Status == "" {
		ns.Status = StatusDraft
	}
	ns.Visibility = lms.Visibility(core.CleanString(string(ns.Visibility), true /* lower */)).Normalize()
	ns.CourseIDs = core.CleanStrings(ns.CourseIDs)
	ns.LessonIDs = core.CleanStrings(ns.LessonIDs)
	cleanCards(ns.Cards)
	return validate.Struct(ns)
}

// UpdateSet replaces the content of an existing Set. Its LMS access is changed through SetAccess.
type UpdateSet struct {
	Title       string `json:"title" validate:"notblank,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Cards       []Card `json:"cards" validate:"required,min=1,max=500,dive"`
	Status      string `json:"status" validate:"omitempty,oneof=draft published"`
}

func (us *UpdateSet) Validate(orig Set, validate *validator.Validate) error {
	us.Title = core.CleanString(us.Title)
	us.Description = core.CleanString(us.Description)
	us.Status = core.CleanString(us.Status, true /* lower */)
	if us.Status == "" {
		us.Status = orig.Status
	}
	cleanCards(us.Cards)
	return validate.Struct(us)
}

// SetAccess is the LMS access policy of a Set: its visibility & the courses and lessons it is linked to.
type SetAccess struct {
	Visibility lms.Visibility `json:"visibility" validate:"visibility"`
	CourseIDs  []string       `json:"course_ids" validate:"omitempty,max=50"`
	LessonIDs  []string       `json:"lesson_ids" validate:"omitempty,max=50"`
}

func (sa *SetAccess) Validate(validate *validator.Validate) error {
	sa.Visibility = lms.Visibility(core.CleanString(string(sa.Visibility), true /* lower */)).Normalize()
	sa.CourseIDs = core.CleanStrings(sa.CourseIDs)
	sa.LessonIDs = core.CleanStrings(sa.LessonIDs)
	return validate.Struct(sa)
}

// OrderingFields are the fields sets can be sorted on.
var OrderingFields = []string{"title", "status", "created_at", "updated_at"}

type QueryFilter struct {
	Search   string   `query:"search"`
	AuthorID string   `query:"author"`
	Status   string   `query:"status"`
	IDs      []string `query:"id"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.AuthorID == "" && qf.Status == "" && qf.IDs == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.AuthorID = core.CleanString(qf.AuthorID)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	qf.IDs = core.CleanStrings(qf.IDs)
}

func cleanCards(cards []Card) {
	for i := range cards {
		cards[i].Question = core.CleanString(cards[i].Question)
		cards[i].Answer = core.CleanString(cards[i].Answer)
	}
}
