package lms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/option"
)

const (
	SettingsKey = "lms_settings"

	DefaultRequiredAccuracy = 80.0
)

// Settings is the installation-wide LMS integration configuration.
type Settings struct {
	Enabled               bool    `json:"enabled"`
	RequiredAccuracy      float64 `json:"required_accuracy"` // 0 - 100
	AutoComplete          bool    `json:"auto_complete"`
	GradeSubmission       bool    `json:"grade_submission"`
	ProgressTracking      bool    `json:"progress_tracking"`
	EnrollmentRestriction bool    `json:"enrollment_restriction"`
}

func DefaultSettings() Settings {
	return Settings{
		RequiredAccuracy: DefaultRequiredAccuracy,
		AutoComplete:     true,
		ProgressTracking: true,
	}
}

// Normalize repairs an out of range RequiredAccuracy to the default rather than rejecting it.
func (s Settings) Normalize() Settings {
	s.RequiredAccuracy = NormalizeAccuracy(s.RequiredAccuracy)
	return s
}

// NormalizeAccuracy returns acc if it is within [0, 100], DefaultRequiredAccuracy otherwise.
func NormalizeAccuracy(acc float64) float64 {
	if math.IsNaN(acc) || acc < 0 || acc > 100 {
		return DefaultRequiredAccuracy
	}
	return acc
}

// Checkbox is true when its input is present, false when it is absent.
// Any present value but "0", "false", "off" & "no" checks it.
type Checkbox bool

func (c *Checkbox) UnmarshalParam(param string) error {
	*c = Checkbox(isChecked(param))
	return nil
}

func (c *Checkbox) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*c = Checkbox(b)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*c = n != 0
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = Checkbox(isChecked(s))
		return nil
	}
	*c = false
	return nil
}

func isChecked(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "off", "no":
		return false
	}
	return true
}

// Percent accepts numbers & numeric strings. Unparsable input decodes to NaN, which Normalize repairs.
type Percent float64

func (p *Percent) UnmarshalParam(param string) error {
	*p = parsePercent(param)
	return nil
}

func (p *Percent) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*p = Percent(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = parsePercent(s)
		return nil
	}
	*p = Percent(math.NaN())
	return nil
}

func parsePercent(s string) Percent {
	n, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	if err != nil {
		return Percent(math.NaN())
	}
	return Percent(n)
}

// SettingsForm is a candidate Settings as submitted by a checkbox-style form (JSON or form-encoded).
type SettingsForm struct {
	Enabled               Checkbox `json:"enabled" form:"enabled"`
	RequiredAccuracy      *Percent `json:"required_accuracy" form:"required_accuracy"`
	AutoComplete          Checkbox `json:"auto_complete" form:"auto_complete"`
	GradeSubmission       Checkbox `json:"grade_submission" form:"grade_submission"`
	ProgressTracking      Checkbox `json:"progress_tracking" form:"progress_tracking"`
	EnrollmentRestriction Checkbox `json:"enrollment_restriction" form:"enrollment_restriction"`
}

// Settings returns the normalized Settings. A missing RequiredAccuracy gets the default.
func (f SettingsForm) Settings() Settings {
	acc := DefaultRequiredAccuracy
	if f.RequiredAccuracy != nil {
		acc = float64(*f.RequiredAccuracy)
	}
	return Settings{
		Enabled:               bool(f.Enabled),
		RequiredAccuracy:      acc,
		AutoComplete:          bool(f.AutoComplete),
		GradeSubmission:       bool(f.GradeSubmission),
		ProgressTracking:      bool(f.ProgressTracking),
		EnrollmentRestriction: bool(f.EnrollmentRestriction),
	}.Normalize()
}

// SettingsStore persists the Settings singleton, overwriting it wholesale on save.
type SettingsStore struct {
	store  option.Store
	logger core.Logger
}

func NewSettingsStore(store option.Store, logger core.Logger) *SettingsStore {
	return &SettingsStore{store: store, logger: logger}
}

// Load returns the stored settings, or the defaults if nothing was stored yet.
// A stored value that does not decode is logged and replaced by the defaults.
// Only failures to read the store are returned.
func (ss *SettingsStore) Load(ctx context.Context) (Settings, error) {
	raw, err := ss.store.GetOption(ctx, SettingsKey)
	if err != nil {
		if errors.Cause(err) == option.ErrNotFound {
			return DefaultSettings(), nil
		}
		return DefaultSettings(), errors.Wrap(err, "loading lms settings")
	}

	settings := DefaultSettings()
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err = dec.Decode(&settings); err != nil {
		ss.logger.Warn(fmt.Sprintf("decoding lms settings, using defaults: %v", err), err)
		return DefaultSettings(), nil
	}
	return settings.Normalize(), nil
}

// Save normalizes the candidate and stores it. Only persistence failures are returned.
func (ss *SettingsStore) Save(ctx context.Context, candidate SettingsForm) (Settings, error) {
	settings := candidate.Settings()
	if err := option.SetJSON(ctx, ss.store, SettingsKey, settings); err != nil {
		return Settings{}, errors.Wrap(err, "saving lms settings")
	}
	return settings, nil
}
