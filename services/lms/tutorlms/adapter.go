// Package tutorlms integrates Tutor LMS through its tutor/v1 REST API.
package tutorlms

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
	namespace = "/wp-json/tutor/v1"
	version   = "v1"
)

type Adapter struct {
	client *restapi.Client
	users  *lmssvc.Directory
}

var (
	_ lms.Adapter       = (*Adapter)(nil)
	_ lms.GradeRecorder = (*Adapter)(nil)
	_ lms.Probe         = (*Adapter)(nil)
)

// response wraps every Tutor LMS API payload.
type response[T any] struct {
	Code string `json:"code"`
	Data T      `json:"data"`
}

// New returns the Tutor LMS adapter; it stays inactive while conf.BaseURL is empty.
func New(conf core.TutorLMSConfig, timeout time.Duration, users lmssvc.UserFinder) *Adapter {
	var client *restapi.Client
	if conf.BaseURL != "" {
		client = restapi.New(conf.BaseURL, timeout, map[string]string{
			"Authorization": restapi.BasicAuth(conf.APIKey, conf.APISecret),
		})
	}
	return &Adapter{client: client, users: lmssvc.NewDirectory(users, client)}
}

// Integration registers the adapter as its own probe.
func (a *Adapter) Integration() lms.Integration {
	return lms.Integration{Name: lms.TutorLMS, Probe: a, Adapter: a}
}

func (a *Adapter) Name() string { return lms.TutorLMS }

func (a *Adapter) Detect(ctx context.Context) (lms.Descriptor, error) {
	desc := lms.Descriptor{Name: lms.TutorLMS}
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

	var res response[struct {
		Enrolled bool `json:"enrolled"`
	}]
	query := map[string]string{"user_id": wpID, "course_id": courseID}
	if err = a.client.Get(ctx, namespace+"/enrollments", query, &res); err != nil {
		return false, errors.Wrap(err, "checking enrollment")
	}
	return res.Data.Enrolled, nil
}

func (a *Adapter) CheckCompleted(ctx context.Context, userID string, unit lms.Unit) (bool, error) {
	wpID, err := a.wordPressID(ctx, userID)
	if err != nil || wpID == "" {
		return false, err
	}

	var res response[struct {
		Completed bool `json:"completed"`
	}]
	path, query := completionEndpoint(wpID, unit)
	if err = a.client.Get(ctx, path, query, &res); err != nil {
		return false, errors.Wrap(err, "checking completion")
	}
	return res.Data.Completed, nil
}

func (a *Adapter) MarkComplete(ctx context.Context, userID string, unit lms.Unit) error {
	wpID, err := a.requireWordPressID(ctx, userID)
	if err != nil {
		return err
	}
	path, body := completionEndpoint(wpID, unit)
	return errors.Wrap(a.client.PostJSON(ctx, path, body, nil), "completing")
}

// RecordGrade stores accuracy as the grade obtained by the user on unit.
func (a *Adapter) RecordGrade(ctx context.Context, userID string, unit lms.Unit, accuracy float64) error {
	wpID, err := a.requireWordPressID(ctx, userID)
	if err != nil {
		return err
	}
	body := map[string]interface{}{
		"user_id":       wpID,
		unitKey(unit):   unit.ID,
		"grade":         strconv.FormatFloat(accuracy, 'f', 2, 64),
		"grade_type":    "percentage",
		"grade_context": "flashcards",
	}
	return errors.Wrap(a.client.PostJSON(ctx, namespace+"/grades", body, nil), "recording grade")
}

func completionEndpoint(wpID string, unit lms.Unit) (string, map[string]string) {
	params := map[string]string{"user_id": wpID, unitKey(unit): unit.ID}
	if unit.Kind == lms.UnitLesson {
		return namespace + "/lesson-completion", params
	}
	return namespace + "/course-completion", params
}

func unitKey(unit lms.Unit) string {
	if unit.Kind == lms.UnitLesson {
		return "lesson_id"
	}
	return "course_id"
}

// wordPressID returns "" without error for users unknown to WordPress: they are enrolled nowhere.
func (a *Adapter) wordPressID(ctx context.Context, userID string) (string, error) {
	if a.client == nil {
		return "", errors.New("tutor lms is not configured")
	}
	wpID, err := a.users.WordPressID(ctx, userID)
	if err == lmssvc.ErrUnknownUser {
		return "", nil
	}
	return wpID, err
}

func (a *Adapter) requireWordPressID(ctx context.Context, userID string) (string, error) {
	wpID, err := a.wordPressID(ctx, userID)
	if err == nil && wpID == "" {
		err = errors.Wrapf(lmssvc.ErrUnknownUser, "user %s", userID)
	}
	return wpID, err
}

// courseOf returns the course a lesson belongs to; a course is its own.
func (a *Adapter) courseOf(ctx context.Context, unit lms.Unit) (string, error) {
	if unit.Kind == lms.UnitCourse {
		return unit.ID, nil
	}
	var res response[struct {
		CourseID int `json:"course_id"`
	}]
	if err := a.client.Get(ctx, namespace+"/lessons/"+unit.ID, nil, &res); err != nil {
		return "", errors.Wrapf(err, "getting lesson %s", unit.ID)
	}
	if res.Data.CourseID == 0 {
		return "", errors.Errorf("lesson %s is in no course", unit.ID)
	}
	return strconv.Itoa(res.Data.CourseID), nil
}
