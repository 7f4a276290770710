// Package lms bridges flashcard sets to external Learning Management Systems:
// it detects which ones are available, gates set visibility on enrollment or completion
// and forwards study completions so that linked units get completed in the LMS.
package lms

// Supported LMS, in priority order.
const (
	LearnDash = "LearnDash"
	TutorLMS  = "TutorLMS"
)

type Visibility string

const (
	VisibilityAll       Visibility = "all"
	VisibilityEnrolled  Visibility = "enrolled"
	VisibilityCompleted Visibility = "completed"
)

var Visibilities = []Visibility{VisibilityAll, VisibilityEnrolled, VisibilityCompleted}

// Normalize maps the unset visibility to VisibilityAll.
func (v Visibility) Normalize() Visibility {
	if v == "" {
		return VisibilityAll
	}
	return v
}

func (v Visibility) IsValid() bool {
	switch v.Normalize() {
	case VisibilityAll, VisibilityEnrolled, VisibilityCompleted:
		return true
	}
	return false
}

type UnitKind string

const (
	UnitCourse UnitKind = "course"
	UnitLesson UnitKind = "lesson"
)

// Unit is a course or a lesson of an external LMS.
type Unit struct {
	ID   string   `json:"id"`
	Kind UnitKind `json:"kind"`
}

// ContentItem is the LMS view of a flashcard set.
type ContentItem struct {
	ID         string
	Visibility Visibility
	CourseIDs  []string
	LessonIDs  []string
}

// Units lists the linked courses, then the linked lessons.
func (item ContentItem) Units() []Unit {
	units := make([]Unit, 0, len(item.CourseIDs)+len(item.LessonIDs))
	for _, id := range item.CourseIDs {
		units = append(units, Unit{ID: id, Kind: UnitCourse})
	}
	for _, id := range item.LessonIDs {
		units = append(units, Unit{ID: id, Kind: UnitLesson})
	}
	return units
}

func (item ContentItem) IsLinked() bool {
	return len(item.CourseIDs)+len(item.LessonIDs) > 0
}

// Viewer is whoever requests a content item. Anonymous viewers have an empty ID.
type Viewer struct {
	ID      string
	IsAdmin bool
}

func (v Viewer) IsAnonymous() bool { return v.ID == "" }

// Descriptor is a point-in-time detection snapshot of an LMS. It is never persisted.
type Descriptor struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Active  bool   `json:"active"`
}
