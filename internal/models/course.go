package models

import "time"

// Course is a subject tracked against a required attendance percentage.
type Course struct {
	ID                 string     `db:"id" json:"id"`
	Name               string     `db:"name" json:"name"`
	RequiredPercentage float64    `db:"required_percentage" json:"required_percentage"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
	Templates          []Template `db:"-" json:"templates,omitempty"`
}

// Template is a weekly schedule slot of a course.
type Template struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	Weekday   Weekday   `db:"weekday" json:"weekday"`
	StartTime ClockTime `db:"start_time" json:"start_time"`
	EndTime   ClockTime `db:"end_time" json:"end_time"`
	Active    bool      `db:"included_in_schedule" json:"included_in_schedule"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// WeekdaySlot is an active template joined with its course name.
type WeekdaySlot struct {
	Template
	CourseName string `db:"course_name" json:"course_name"`
}

// ExtraClass is a one-off session outside the weekly schedule.
type ExtraClass struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	Date      Date      `db:"class_date" json:"date"`
	StartTime ClockTime `db:"start_time" json:"start_time"`
	EndTime   ClockTime `db:"end_time" json:"end_time"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// DatedExtra is an extra class joined with its course name.
type DatedExtra struct {
	ExtraClass
	CourseName string `db:"course_name" json:"course_name"`
}

// CourseOverview lists a course alongside its running counts.
type CourseOverview struct {
	Course
	Counts AttendanceCounts `json:"counts"`
}

// TemplateHeld counts the occurrences one template produced in a span.
type TemplateHeld struct {
	TemplateID string  `json:"template_id"`
	Weekday    Weekday `json:"weekday"`
	Count      int     `json:"count"`
}

// ClassesHeld totals the sessions a course had between two dates inclusive.
type ClassesHeld struct {
	CourseID    string         `json:"course_id"`
	From        Date           `json:"from"`
	To          Date           `json:"to"`
	Scheduled   int            `json:"scheduled"`
	Extra       int            `json:"extra"`
	Total       int            `json:"total"`
	PerTemplate []TemplateHeld `json:"per_template"`
}
