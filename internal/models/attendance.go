package models

import (
	"fmt"
	"strings"
	"time"
)

// AttendanceStatus is the closed set of states an occurrence can be in.
type AttendanceStatus string

const (
	AttendanceStatusPresent   AttendanceStatus = "Present"
	AttendanceStatusAbsent    AttendanceStatus = "Absent"
	AttendanceStatusCancelled AttendanceStatus = "Cancelled"
	AttendanceStatusUnset     AttendanceStatus = "Unset"
)

// AttendanceStatuses lists every status in display order.
var AttendanceStatuses = []AttendanceStatus{
	AttendanceStatusPresent,
	AttendanceStatusAbsent,
	AttendanceStatusCancelled,
	AttendanceStatusUnset,
}

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusCancelled, AttendanceStatusUnset:
		return true
	default:
		return false
	}
}

// ParseAttendanceStatus accepts any casing of a status name.
func ParseAttendanceStatus(raw string) (AttendanceStatus, error) {
	for _, status := range AttendanceStatuses {
		if strings.EqualFold(strings.TrimSpace(raw), string(status)) {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown attendance status %q", raw)
}

// AttendanceRecord is the single ledger row for one occurrence.
// Exactly one of (TemplateID, OccurrenceDate) and ExtraID is set.
type AttendanceRecord struct {
	ID             string           `db:"id" json:"id"`
	TemplateID     *string          `db:"template_id" json:"template_id,omitempty"`
	OccurrenceDate *Date            `db:"occurrence_date" json:"occurrence_date,omitempty"`
	ExtraID        *string          `db:"extra_id" json:"extra_id,omitempty"`
	Status         AttendanceStatus `db:"status" json:"status"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updated_at"`
}

// NewAttendanceRecord builds an unsaved record for key.
func NewAttendanceRecord(key OccurrenceKey, status AttendanceStatus) *AttendanceRecord {
	record := &AttendanceRecord{Status: status}
	switch k := key.(type) {
	case ScheduledKey:
		templateID := k.TemplateID
		date := k.Date
		record.TemplateID = &templateID
		record.OccurrenceDate = &date
	case ExtraKey:
		extraID := k.ExtraID
		record.ExtraID = &extraID
	}
	return record
}

// Key returns the occurrence identity the record belongs to.
func (r AttendanceRecord) Key() (OccurrenceKey, error) {
	switch {
	case r.TemplateID != nil && r.OccurrenceDate != nil && r.ExtraID == nil:
		return ScheduledKey{TemplateID: *r.TemplateID, Date: *r.OccurrenceDate}, nil
	case r.ExtraID != nil && r.TemplateID == nil && r.OccurrenceDate == nil:
		return ExtraKey{ExtraID: *r.ExtraID}, nil
	default:
		return nil, fmt.Errorf("attendance record %s links to neither exactly one template occurrence nor one extra class", r.ID)
	}
}

// AttendanceCounts summarises a course's ledger against its threshold.
type AttendanceCounts struct {
	Present            int     `json:"present"`
	Absent             int     `json:"absent"`
	Cancelled          int     `json:"cancelled"`
	Unset              int     `json:"unset"`
	Percent            float64 `json:"percent"`
	RequiredPercentage float64 `json:"required_percentage"`
}

// BelowRequirement reports whether the running percentage misses the threshold.
func (c AttendanceCounts) BelowRequirement() bool {
	return c.Percent < c.RequiredPercentage
}

// StatusCount is one grouped row of the ledger for a course.
type StatusCount struct {
	Status AttendanceStatus `db:"status"`
	Count  int              `db:"count"`
}

// AttendanceHistoryRow is one decided or pending occurrence in a course's history.
type AttendanceHistoryRow struct {
	Kind      OccurrenceKind   `db:"kind" json:"kind"`
	Date      Date             `db:"occurrence_date" json:"date"`
	StartTime ClockTime        `db:"start_time" json:"start_time"`
	EndTime   ClockTime        `db:"end_time" json:"end_time"`
	Status    AttendanceStatus `db:"status" json:"status"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}
