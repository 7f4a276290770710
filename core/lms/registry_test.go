package lms_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/lms"
)

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	learndash := newFakeAdapter(lms.LearnDash)
	tutor := newFakeAdapter(lms.TutorLMS)

	tests := []struct {
		name         string
		integrations []lms.Integration
		wantAll      []lms.Descriptor
		wantActive   []string
	}{
		{
			name:    "none supported",
			wantAll: []lms.Descriptor{},
		},
		{
			name: "none active",
			integrations: []lms.Integration{
				{Name: lms.LearnDash, Probe: fakeProbe{}, Adapter: learndash},
				{Name: lms.TutorLMS, Probe: fakeProbe{err: errUnreachable}, Adapter: tutor},
			},
			wantAll: []lms.Descriptor{{Name: lms.LearnDash}, {Name: lms.TutorLMS}},
		},
		{
			name: "both active",
			integrations: []lms.Integration{
				{Name: lms.LearnDash, Probe: fakeProbe{version: "v2"}, Adapter: learndash},
				{Name: lms.TutorLMS, Probe: fakeProbe{version: "v1"}, Adapter: tutor},
			},
			wantAll: []lms.Descriptor{
				{Name: lms.LearnDash, Version: "v2", Active: true},
				{Name: lms.TutorLMS, Version: "v1", Active: true},
			},
			wantActive: []string{lms.LearnDash, lms.TutorLMS},
		},
		{
			name: "priority order kept",
			integrations: []lms.Integration{
				{Name: lms.TutorLMS, Probe: fakeProbe{version: "v1"}, Adapter: tutor},
				{Name: lms.LearnDash, Probe: fakeProbe{version: "v2"}, Adapter: learndash},
			},
			wantAll: []lms.Descriptor{
				{Name: lms.TutorLMS, Version: "v1", Active: true},
				{Name: lms.LearnDash, Version: "v2", Active: true},
			},
			wantActive: []string{lms.TutorLMS, lms.LearnDash},
		},
		{
			name: "missing adapter",
			integrations: []lms.Integration{
				{Name: lms.LearnDash, Probe: fakeProbe{version: "v2"}},
				{Name: lms.TutorLMS, Probe: fakeProbe{version: "v1"}, Adapter: tutor},
			},
			wantAll: []lms.Descriptor{
				{Name: lms.LearnDash},
				{Name: lms.TutorLMS, Version: "v1", Active: true},
			},
			wantActive: []string{lms.TutorLMS},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := lms.NewRegistry(core.NopLogger{}, tt.integrations...)

			if all := reg.Integrations(ctx); !reflect.DeepEqual(all, tt.wantAll) {
				t.Errorf("Integrations() = %+v; want %+v", all, tt.wantAll)
			}

			var detected []string
			for _, desc := range reg.Detect(ctx) {
				if !desc.Active {
					t.Errorf("Detect() returned inactive %s", desc.Name)
				}
				detected = append(detected, desc.Name)
			}
			if !reflect.DeepEqual(detected, tt.wantActive) {
				t.Errorf("Detect() = %v; want %v", detected, tt.wantActive)
			}

			var resolved []string
			for _, a := range reg.Resolve(ctx) {
				if a.Adapter == nil {
					t.Errorf("Resolve() returned %s without adapter", a.Name)
				}
				resolved = append(resolved, a.Name)
			}
			if !reflect.DeepEqual(resolved, tt.wantActive) {
				t.Errorf("Resolve() = %v; want %v", resolved, tt.wantActive)
			}
		})
	}
}
