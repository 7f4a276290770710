// Package progress tracks per-user study progress on flashcard sets.
package progress

import (
	"errors"
	"math"
	"time"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound = errors.New("completion not found")
)

// Completion is unique per (UserID, SetID): a later record for the same key replaces the earlier one.
type Completion struct {
	UserID      string    `json:"user_id" db:"user_id"`
	SetID       string    `json:"set_id" db:"set_id"`
	Accuracy    float64   `json:"accuracy" db:"accuracy"` // 0.0 - 100.0
	Completed   bool      `json:"completed" db:"completed"`
	CompletedAt time.Time `json:"completed_at" db:"completed_at"` // UTC
}

type QueryFilter struct {
	UserID string
	SetIDs []string
}

func (qf QueryFilter) IsEmpty() bool {
	return qf.UserID == "" && len(qf.SetIDs) == 0
}

// SetReport summarizes the completions recorded on one set.
type SetReport struct {
	SetID           string  `json:"set_id"`
	Learners        int     `json:"learners"`
	AverageAccuracy float64 `json:"average_accuracy"`
	BestAccuracy    float64 `json:"best_accuracy"`
}

// ClampAccuracy bounds acc to [0, 100]; NaN counts as 0.
func ClampAccuracy(acc float64) float64 {
	switch {
	case math.IsNaN(acc), acc < 0:
		return 0
	case acc > 100:
		return 100
	}
	return acc
}

// MeanAccuracy returns the mean accuracy of completions, 0 if there are none.
func MeanAccuracy(completions []Completion) float64 {
	if len(completions) == 0 {
		return 0
	}
	var sum float64
	for _, c := range completions {
		sum += c.Accuracy
	}
	return sum / float64(len(completions))
}
