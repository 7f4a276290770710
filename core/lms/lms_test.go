package lms_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/Faiver55/skylearn-flashcards-sub001/core/lms"
)

var errUnreachable = fmt.Errorf("connection refused")

// fakeAdapter answers from its enrolled & completed sets (keyed by unit ID) and counts its calls.
type fakeAdapter struct {
	name      string
	enrolled  map[string]bool
	completed map[string]bool
	err       error

	mu     sync.Mutex
	checks int
	marked []lms.Unit
	grades map[string]float64
}

func newFakeAdapter(name string) *fakeAdapter {
	return &fakeAdapter{
		name:      name,
		enrolled:  make(map[string]bool),
		completed: make(map[string]bool),
		grades:    make(map[string]float64),
	}
}

func (a *fakeAdapter) Name() string { return a.name }

func (a *fakeAdapter) CheckEnrolled(_ context.Context, _ string, unit lms.Unit) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.checks++
	if a.err != nil {
		return false, a.err
	}
	return a.enrolled[unit.ID], nil
}

func (a *fakeAdapter) CheckCompleted(_ context.Context, _ string, unit lms.Unit) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.checks++
	if a.err != nil {
		return false, a.err
	}
	return a.completed[unit.ID], nil
}

func (a *fakeAdapter) MarkComplete(_ context.Context, _ string, unit lms.Unit) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.marked = append(a.marked, unit)
	return nil
}

func (a *fakeAdapter) RecordGrade(_ context.Context, _ string, unit lms.Unit, accuracy float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.grades[unit.ID] = accuracy
	return nil
}

func (a *fakeAdapter) active() lms.Active { return lms.Active{Name: a.name, Adapter: a} }

// fakeProbe reports its LMS as active when its version is set.
type fakeProbe struct {
	version string
	err     error
}

func (p fakeProbe) Detect(context.Context) (lms.Descriptor, error) {
	if p.err != nil {
		return lms.Descriptor{}, p.err
	}
	return lms.Descriptor{Version: p.version, Active: p.version != ""}, nil
}

// fakeLinks maps unit IDs to linked content item IDs.
type fakeLinks map[string][]string

func (l fakeLinks) ItemsLinkedTo(_ context.Context, unit lms.Unit) ([]string, error) {
	return l[unit.ID], nil
}

func enabledSettings() lms.Settings {
	s := lms.DefaultSettings()
	s.Enabled = true
	return s
}
