package lms

import (
	"context"
	"fmt"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/progress"
)

// Forwarder records study completions and propagates them to the active LMS.
type Forwarder struct {
	progress *progress.Service
	links    ContentLinks
	logger   core.Logger
}

func NewForwarder(progressSvc *progress.Service, links ContentLinks, logger core.Logger) *Forwarder {
	return &Forwarder{progress: progressSvc, links: links, logger: logger}
}

// RecordCompletion always records the completion locally, then, if progress tracking is on,
// checks every unit the item is linked to with every active adapter.
// A unit is marked complete in the LMS once the user completed all the items linked to it
// with a mean accuracy reaching settings.RequiredAccuracy.
// LMS failures are logged and never returned.
func (fw *Forwarder) RecordCompletion(
	ctx context.Context, item ContentItem, userID string, accuracy float64, settings Settings, active []Active,
) (progress.Completion, error) {
	completion, err := fw.progress.Record(ctx, userID, item.ID, accuracy)
	if err != nil {
		return completion, err
	}

	if !settings.Enabled || !settings.ProgressTracking || len(active) == 0 {
		return completion, nil
	}
	for _, a := range active {
		for _, unit := range item.Units() {
			fw.forward(ctx, a, unit, userID, settings)
		}
	}
	return completion, nil
}

func (fw *Forwarder) forward(ctx context.Context, a Active, unit Unit, userID string, settings Settings) {
	linked, err := fw.links.ItemsLinkedTo(ctx, unit)
	if err != nil {
		fw.logger.Error(fmt.Sprintf("%s: listing items linked to %s %s: %v", a.Name, unit.Kind, unit.ID, err), err)
		return
	}
	if len(linked) == 0 {
		return
	}

	completions, err := fw.progress.ForUserOn(ctx, userID, linked)
	if err != nil {
		fw.logger.Error(fmt.Sprintf("%s: querying completions of user %s: %v", a.Name, userID, err), err)
		return
	}
	if len(completions) < len(linked) {
		return
	}
	mean := progress.MeanAccuracy(completions)

	if settings.GradeSubmission {
		if gr, ok := a.Adapter.(GradeRecorder); ok {
			if err = gr.RecordGrade(ctx, userID, unit, mean); err != nil {
				fw.logger.Error(fmt.Sprintf("%s: recording grade of user %s on %s %s: %v", a.Name, userID, unit.Kind, unit.ID, err), err)
			}
		}
	}

	if mean < settings.RequiredAccuracy || !settings.AutoComplete {
		return
	}
	if err = a.Adapter.MarkComplete(ctx, userID, unit); err != nil {
		fw.logger.Error(fmt.Sprintf("%s: completing %s %s for user %s: %v", a.Name, unit.Kind, unit.ID, userID, err), err)
		return
	}
	fw.logger.Info(fmt.Sprintf("%s: %s %s completed by user %s", a.Name, unit.Kind, unit.ID, userID))
}
