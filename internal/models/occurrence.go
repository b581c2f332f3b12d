package models

import "fmt"

// OccurrenceKind discriminates recurring from one-off occurrences.
type OccurrenceKind string

const (
	OccurrenceKindScheduled OccurrenceKind = "scheduled"
	OccurrenceKindExtra     OccurrenceKind = "extra"
)

// OccurrenceKey identifies one concrete class session. It is implemented only by
// ScheduledKey and ExtraKey.
type OccurrenceKey interface {
	Kind() OccurrenceKind
	String() string
	sealed()
}

// ScheduledKey is the identity of a template generated occurrence on a given day.
type ScheduledKey struct {
	TemplateID string
	Date       Date
}

func (ScheduledKey) Kind() OccurrenceKind { return OccurrenceKindScheduled }
func (k ScheduledKey) String() string {
	return fmt.Sprintf("template %s on %s", k.TemplateID, k.Date)
}
func (ScheduledKey) sealed() {}

// ExtraKey is the identity of a one-off extra class.
type ExtraKey struct {
	ExtraID string
}

func (ExtraKey) Kind() OccurrenceKind { return OccurrenceKindExtra }
func (k ExtraKey) String() string     { return fmt.Sprintf("extra class %s", k.ExtraID) }
func (ExtraKey) sealed()              {}

// OccurrenceView is what callers render for one class of a day. It carries the
// identifiers needed to mark the same occurrence again.
type OccurrenceView struct {
	Kind         OccurrenceKind   `json:"kind"`
	CourseID     string           `json:"course_id"`
	CourseName   string           `json:"course_name"`
	TemplateID   *string          `json:"template_id,omitempty"`
	ExtraID      *string          `json:"extra_id,omitempty"`
	AttendanceID *string          `json:"attendance_id,omitempty"`
	Date         Date             `json:"date"`
	StartTime    ClockTime        `json:"start_time"`
	EndTime      ClockTime        `json:"end_time"`
	Status       AttendanceStatus `json:"status"`
}

// Key rebuilds the occurrence identity of the view.
func (v OccurrenceView) Key() OccurrenceKey {
	if v.Kind == OccurrenceKindExtra && v.ExtraID != nil {
		return ExtraKey{ExtraID: *v.ExtraID}
	}
	templateID := ""
	if v.TemplateID != nil {
		templateID = *v.TemplateID
	}
	return ScheduledKey{TemplateID: templateID, Date: v.Date}
}

// ClassOfDay pairs an occurrence with its course's running counts.
type ClassOfDay struct {
	Occurrence OccurrenceView   `json:"occurrence"`
	Counts     AttendanceCounts `json:"counts"`
}
