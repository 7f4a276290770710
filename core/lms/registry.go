package lms

import (
	"context"
	"fmt"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
)

type (
	// Adapter bridges our completion/visibility model to one external LMS.
	Adapter interface {
		Name() string
		CheckEnrolled(ctx context.Context, userID string, unit Unit) (bool, error)
		CheckCompleted(ctx context.Context, userID string, unit Unit) (bool, error)
		MarkComplete(ctx context.Context, userID string, unit Unit) error
	}

	// GradeRecorder is implemented by adapters that can also store the grade obtained on a unit.
	GradeRecorder interface {
		RecordGrade(ctx context.Context, userID string, unit Unit, accuracy float64) error
	}

	// Probe inspects the environment for one LMS.
	Probe interface {
		Detect(ctx context.Context) (Descriptor, error)
	}

	// ContentLinks lists the content items linked to an LMS unit.
	ContentLinks interface {
		ItemsLinkedTo(ctx context.Context, unit Unit) ([]string, error)
	}

	Integration struct {
		Name    string
		Probe   Probe
		Adapter Adapter
	}

	// Active is an integration found active by a detection pass.
	Active struct {
		Name    string
		Adapter Adapter
	}
)

// Registry is the closed, ordered list of supported integrations.
// The registration order is the priority order used by the Resolver and the Forwarder.
type Registry struct {
	integrations []Integration
	logger       core.Logger
}

func NewRegistry(logger core.Logger, integrations ...Integration) *Registry {
	return &Registry{integrations: integrations, logger: logger}
}

// Integrations probes every supported LMS and reports its current state.
func (r *Registry) Integrations(ctx context.Context) []Descriptor {
	descs := make([]Descriptor, 0, len(r.integrations))
	for _, in := range r.integrations {
		descs = append(descs, r.detect(ctx, in))
	}
	return descs
}

// Detect returns the descriptors of the active LMS only. No LMS found is not an error.
func (r *Registry) Detect(ctx context.Context) []Descriptor {
	var active []Descriptor
	for _, desc := range r.Integrations(ctx) {
		if desc.Active {
			active = append(active, desc)
		}
	}
	return active
}

// Resolve returns the adapters of the active LMS, in priority order.
func (r *Registry) Resolve(ctx context.Context) []Active {
	var active []Active
	for _, in := range r.integrations {
		if desc := r.detect(ctx, in); desc.Active {
			active = append(active, Active{Name: in.Name, Adapter: in.Adapter})
		}
	}
	return active
}

func (r *Registry) detect(ctx context.Context, in Integration) Descriptor {
	if in.Probe == nil || in.Adapter == nil {
		return Descriptor{Name: in.Name}
	}
	desc, err := in.Probe.Detect(ctx)
	if err != nil {
		r.logger.Warn(fmt.Sprintf("%s: detection failed: %v", in.Name, err), err)
		return Descriptor{Name: in.Name}
	}
	desc.Name = in.Name
	return desc
}
