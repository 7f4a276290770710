// Package learndash integrates LearnDash through its ldlms/v2 REST API.
package learndash

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/lms"
	"github.com/Faiver55/skylearn-flashcards-sub001/services/lms"
	"github.com/Faiver55/skylearn-flashcards-sub001/services/restapi"
)

const (
	namespace = "/wp-json/ldlms/v2"
	version   = "v2"

	statusCompleted = "completed"
)

type Adapter struct {
	client *restapi.Client
	users  *lmssvc.Directory
}

var (
	_ lms.Adapter = (*Adapter)(nil)
	_ lms.Probe   = (*Adapter)(nil)
)

// New returns the LearnDash adapter; it stays inactive while conf.BaseURL is empty.
func New(conf core.LearnDashConfig, timeout time.Duration, users lmssvc.UserFinder) *Adapter {
	var client *restapi.Client
	if conf.BaseURL != "" {
		client = restapi.New(conf.BaseURL, timeout, map[string]string{
			"Authorization": restapi.BasicAuth(conf.Username, conf.AppPassword),
		})
	}
	return &Adapter{client: client, users: lmssvc.NewDirectory(users, client)}
}

// Integration registers the adapter as its own probe.
func (a *Adapter) Integration() lms.Integration {
	return lms.Integration{Name: lms.LearnDash, Probe: a, Adapter: a}
}

func (a *Adapter) Name() string { return lms.LearnDash }

func (a *Adapter) Detect(ctx context.Context) (lms.Descriptor, error) {
	desc := lms.Descriptor{Name: lms.LearnDash}
	if a.client == nil {
		return desc, nil
	}
	if err := a.client.Get(ctx, namespace, nil, nil); err != nil {
		if restapi.IsStatus(err, http.StatusNotFound) {
			return desc, nil
		}
		return desc, err
	}
	desc.Version = version
	desc.Active = true
	return desc, nil
}

func (a *Adapter) CheckEnrolled(ctx context.Context, userID string, unit lms.Unit) (bool, error) {
	wpID, err := a.wordPressID(ctx, userID)
	if err != nil || wpID == "" {
		return false, err
	}
	courseID, err := a.courseOf(ctx, unit)
	if err != nil {
		return false, err
	}

	var courses []struct {
		ID int `json:"id"`
	}
	if err = a.client.Get(ctx, namespace+"/users/"+wpID+"/courses", map[string]string{"per_page": "100"}, &courses); err != nil {
		return false, errors.Wrap(err, "listing user courses")
	}
	for _, c := range courses {
		if strconv.Itoa(c.ID) == courseID {
			return true, nil
		}
	}
	return false, nil
}

func (a *Adapter) CheckCompleted(ctx context.Context, userID string, unit lms.Unit) (bool, error) {
	wpID, err := a.wordPressID(ctx, userID)
	if err != nil || wpID == "" {
		return false, err
	}

	if unit.Kind == lms.UnitCourse {
		var progress struct {
			Status string `json:"progress_status"`
		}
		if err = a.client.Get(ctx, namespace+"/users/"+wpID+"/course-progress/"+unit.ID, nil, &progress); err != nil {
			if restapi.IsStatus(err, http.StatusNotFound) {
				return false, nil
			}
			return false, errors.Wrap(err, "getting course progress")
		}
		return progress.Status == statusCompleted, nil
	}

	courseID, err := a.courseOf(ctx, unit)
	if err != nil {
		return false, err
	}
	var steps []struct {
		Step   int    `json:"step"`
		Status string `json:"step_status"`
	}
	if err = a.client.Get(ctx, namespace+"/users/"+wpID+"/course-progress/"+courseID+"/steps", nil, &steps); err != nil {
		if restapi.IsStatus(err, http.StatusNotFound) {
			return false, nil
		}
		return false, errors.Wrap(err, "getting course steps progress")
	}
	for _, s := range steps {
		if strconv.Itoa(s.Step) == unit.ID {
			return s.Status == statusCompleted, nil
		}
	}
	return false, nil
}

func (a *Adapter) MarkComplete(ctx context.Context, userID string, unit lms.Unit) error {
	wpID, err := a.wordPressID(ctx, userID)
	if err != nil {
		return err
	}
	if wpID == "" {
		return errors.Wrapf(lmssvc.ErrUnknownUser, "user %s", userID)
	}

	body := map[string]string{"status": statusCompleted}
	path := namespace + "/users/" + wpID + "/course-progress/" + unit.ID
	if unit.Kind == lms.UnitLesson {
		courseID, err := a.courseOf(ctx, unit)
		if err != nil {
			return err
		}
		path = namespace + "/users/" + wpID + "/course-progress/" + courseID + "/steps/" + unit.ID
	}
	return errors.Wrap(a.client.PostJSON(ctx, path, body, nil), "updating progress")
}

// wordPressID returns "" without error for users unknown to WordPress: they are enrolled nowhere.
func (a *Adapter) wordPressID(ctx context.Context, userID string) (string, error) {
	if a.client == nil {
		return "", errors.New("learndash is not configured")
	}
	wpID, err := a.users.WordPressID(ctx, userID)
	if err == lmssvc.ErrUnknownUser {
		return "", nil
	}
	return wpID, err
}

// courseOf returns the course a lesson belongs to; a course is its own.
func (a *Adapter) courseOf(ctx context.Context, unit lms.Unit) (string, error) {
	if unit.Kind == lms.UnitCourse {
		return unit.ID, nil
	}
	var lesson struct {
		Course int `json:"course"`
	}
	if err := a.client.Get(ctx, namespace+"/sfwd-lessons/"+unit.ID, nil, &lesson); err != nil {
		return "", errors.Wrapf(err, "getting lesson %s", unit.ID)
	}
	if lesson.Course == 0 {
		return "", errors.Errorf("lesson %s is in no course", unit.ID)
	}
	return strconv.Itoa(lesson.Course), nil
}
