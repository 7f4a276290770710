package lms

import (
	"context"
	"fmt"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
)

// Resolver decides whether a viewer may see a content item.
type Resolver struct {
	logger core.Logger
}

func NewResolver(logger core.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// HasAccess evaluates, in order:
//  1. the integration is disabled or no LMS is active: allowed
//  2. the viewer is an admin: allowed
//  3. the item is visible to all: allowed
//  4. the item is not linked to any course or lesson: allowed
//  5. the viewer is anonymous: denied
//  6. the first active adapter granting access on any linked unit: allowed
//
// Otherwise access is denied. An adapter failing to answer abstains.
func (r *Resolver) HasAccess(ctx context.Context, item ContentItem, viewer Viewer, settings Settings, active []Active) bool {
	if !settings.Enabled || len(active) == 0 {
		return true
	}
	if viewer.IsAdmin {
		return true
	}
	vis := item.Visibility.Normalize()
	if vis == VisibilityAll {
		return true
	}
	if !item.IsLinked() {
		return true
	}
	if viewer.IsAnonymous() {
		return false
	}

	units := item.Units()
	for _, a := range active {
		for _, unit := range units {
			if r.satisfies(ctx, a, vis, viewer.ID, unit) {
				return true
			}
		}
	}
	return false
}

func (r *Resolver) satisfies(ctx context.Context, a Active, vis Visibility, userID string, unit Unit) bool {
	var (
		ok  bool
		err error
	)
	switch vis {
	case VisibilityEnrolled:
		ok, err = a.Adapter.CheckEnrolled(ctx, userID, unit)
	case VisibilityCompleted:
		ok, err = a.Adapter.CheckCompleted(ctx, userID, unit)
	default:
		return false
	}
	if err != nil {
		r.logger.Warn(fmt.Sprintf("%s: checking %s %s %s for user %s: %v", a.Name, vis, unit.Kind, unit.ID, userID, err), err)
		return false
	}
	return ok
}
