package lms_test

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/lms"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/option"
	"github.com/Faiver55/skylearn-flashcards-sub001/storage/database/inmem"
)

func TestSettingsStore_Load_defaults(t *testing.T) {
	store := lms.NewSettingsStore(inmemdb.NewOptionStore(inmemdb.Open()), core.NopLogger{})

	settings, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, lms.Settings{
		Enabled:               false,
		RequiredAccuracy:      80,
		AutoComplete:          true,
		GradeSubmission:       false,
		ProgressTracking:      true,
		EnrollmentRestriction: false,
	}, settings)
}

func TestSettingsStore_Save_requiredAccuracy(t *testing.T) {
	ctx := context.Background()
	store := lms.NewSettingsStore(inmemdb.NewOptionStore(inmemdb.Open()), core.NopLogger{})
	pct := func(v float64) *lms.Percent { p := lms.Percent(v); return &p }

	tests := []struct {
		name string
		acc  *lms.Percent
		want float64
	}{
		{"missing", nil, 80},
		{"in range", pct(65), 65},
		{"lower bound", pct(0), 0},
		{"upper bound", pct(100), 100},
		{"negative", pct(-1), 80},
		{"above 100", pct(100.5), 80},
		{"way above", pct(1000), 80},
		{"NaN", pct(math.NaN()), 80},
		{"infinite", pct(math.Inf(1)), 80},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saved, err := store.Save(ctx, lms.SettingsForm{Enabled: true, RequiredAccuracy: tt.acc})
			if err != nil {
				t.Fatalf("Save() failed: %v", err)
			}
			if saved.RequiredAccuracy != tt.want {
				t.Errorf("saved RequiredAccuracy = %v; want %v", saved.RequiredAccuracy, tt.want)
			}
			loaded, err := store.Load(ctx)
			if err != nil {
				t.Fatalf("Load() failed: %v", err)
			}
			if loaded != saved {
				t.Errorf("Load() = %+v; want %+v", loaded, saved)
			}
		})
	}
}

func TestSettingsForm_checkboxes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want lms.Settings
	}{
		{
			name: "absent means false",
			body: `{}`,
			want: lms.Settings{RequiredAccuracy: 80},
		},
		{
			name: "booleans",
			body: `{"enabled": true, "auto_complete": true, "grade_submission": false, "progress_tracking": true, "required_accuracy": 75}`,
			want: lms.Settings{Enabled: true, RequiredAccuracy: 75, AutoComplete: true, ProgressTracking: true},
		},
		{
			name: "checkbox values",
			body: `{"enabled": "on", "grade_submission": "1", "enrollment_restriction": "yes", "auto_complete": "off", "required_accuracy": "90"}`,
			want: lms.Settings{Enabled: true, RequiredAccuracy: 90, GradeSubmission: true, EnrollmentRestriction: true},
		},
		{
			name: "garbage accuracy",
			body: `{"enabled": 1, "required_accuracy": "lots"}`,
			want: lms.Settings{Enabled: true, RequiredAccuracy: 80},
		},
		{
			name: "percent string",
			body: `{"required_accuracy": "70%"}`,
			want: lms.Settings{RequiredAccuracy: 70},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var form lms.SettingsForm
			require.NoError(t, json.Unmarshal([]byte(tt.body), &form))
			require.Equal(t, tt.want, form.Settings())
		})
	}
}

func TestSettingsForm_params(t *testing.T) {
	var (
		form lms.SettingsForm
		acc  lms.Percent
	)
	require.NoError(t, form.Enabled.UnmarshalParam("on"))
	require.NoError(t, form.AutoComplete.UnmarshalParam(""))
	require.NoError(t, acc.UnmarshalParam("101"))
	form.RequiredAccuracy = &acc

	require.Equal(t, lms.Settings{Enabled: true, RequiredAccuracy: 80}, form.Settings())
}

func TestSettingsStore_Load_repairsStoredValue(t *testing.T) {
	ctx := context.Background()
	opts := inmemdb.NewOptionStore(inmemdb.Open())
	require.NoError(t, option.SetJSON(ctx, opts, lms.SettingsKey, map[string]interface{}{
		"enabled":           true,
		"required_accuracy": 250,
	}))

	settings, err := lms.NewSettingsStore(opts, core.NopLogger{}).Load(ctx)
	require.NoError(t, err)
	require.True(t, settings.Enabled)
	require.Equal(t, 80.0, settings.RequiredAccuracy)
}

func TestSettingsStore_Load_malformed(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `not json`},
		{"truncated", `{"enabled": "yes"`},
		{"wrong type", `{"enabled": true, "required_accuracy": "ninety"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := inmemdb.NewOptionStore(inmemdb.Open())
			require.NoError(t, opts.SetOption(ctx, lms.SettingsKey, []byte(tt.raw)))

			settings, err := lms.NewSettingsStore(opts, core.NopLogger{}).Load(ctx)
			require.NoError(t, err)
			require.Equal(t, lms.DefaultSettings(), settings)
		})
	}
}
