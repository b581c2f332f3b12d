package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker/internal/dto"
	"github.com/noah-isme/attendance-tracker/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
)

func TestDayServiceUnmarkedMonday(t *testing.T) {
	stack := newTestStack(t)
	course := stack.createMaths(t)

	classes, err := stack.days.ClassesFor(context.Background(), jan6)
	require.NoError(t, err)
	require.Len(t, classes, 1)

	view := classes[0].Occurrence
	assert.Equal(t, models.OccurrenceKindScheduled, view.Kind)
	assert.Equal(t, course.ID, view.CourseID)
	assert.Equal(t, "Maths", view.CourseName)
	require.NotNil(t, view.TemplateID)
	assert.Equal(t, course.Templates[0].ID, *view.TemplateID)
	assert.Nil(t, view.AttendanceID)
	assert.Equal(t, models.AttendanceStatusUnset, view.Status)
	assert.Equal(t, 100.0, classes[0].Counts.Percent)
	assert.Equal(t, 75.0, classes[0].Counts.RequiredPercentage)
	assert.Equal(t, models.ScheduledKey{TemplateID: course.Templates[0].ID, Date: jan6}, view.Key())
}

func TestDayServiceShowsRecordedStatus(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()
	course := stack.createMaths(t)

	record, err := stack.attendance.SetStatus(ctx, models.ScheduledKey{TemplateID: course.Templates[0].ID, Date: jan6}, models.AttendanceStatusAbsent)
	require.NoError(t, err)

	classes, err := stack.days.ClassesFor(ctx, jan6)
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, models.AttendanceStatusAbsent, classes[0].Occurrence.Status)
	require.NotNil(t, classes[0].Occurrence.AttendanceID)
	assert.Equal(t, record.ID, *classes[0].Occurrence.AttendanceID)
	assert.Equal(t, 0.0, classes[0].Counts.Percent)

	next, err := stack.days.ClassesFor(ctx, jan13)
	require.NoError(t, err)
	require.Len(t, next, 1)
	assert.Equal(t, models.AttendanceStatusUnset, next[0].Occurrence.Status)
}

func TestDayServiceCancelledExtraClass(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()
	course := stack.createMaths(t)

	extra, err := stack.courses.AddExtraClass(ctx, course.ID, dto.ExtraClassRequest{Date: "2025-01-07", StartTime: "14:00", EndTime: "15:00"})
	require.NoError(t, err)

	before, err := stack.attendance.Counts(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, before.Unset)

	_, err = stack.attendance.SetStatus(ctx, models.ExtraKey{ExtraID: extra.ID}, models.AttendanceStatusCancelled)
	require.NoError(t, err)

	classes, err := stack.days.ClassesFor(ctx, jan7)
	require.NoError(t, err)
	require.Len(t, classes, 1)
	view := classes[0].Occurrence
	assert.Equal(t, models.OccurrenceKindExtra, view.Kind)
	require.NotNil(t, view.ExtraID)
	assert.Equal(t, extra.ID, *view.ExtraID)
	assert.NotNil(t, view.AttendanceID)
	assert.Equal(t, models.AttendanceStatusCancelled, view.Status)
	assert.Equal(t, models.AttendanceCounts{Cancelled: 1, Percent: before.Percent, RequiredPercentage: 75}, classes[0].Counts)
}

func TestDayServiceOrdersByStartDescendingWithStableTies(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	course, err := stack.courses.CreateCourse(ctx, dto.CreateCourseRequest{
		Name:               "Physics",
		RequiredPercentage: 80,
		Slots: []dto.SlotRequest{
			slot(models.Monday, "09:00", "10:00"),
			slot(models.Monday, "11:00", "12:00"),
			slot(models.Monday, "09:00", "09:45"),
			slot(models.Tuesday, "13:00", "14:00"),
		},
	})
	require.NoError(t, err)
	extra, err := stack.courses.AddExtraClass(ctx, course.ID, dto.ExtraClassRequest{Date: "2025-01-06", StartTime: "09:00", EndTime: "09:30"})
	require.NoError(t, err)

	classes, err := stack.days.ClassesFor(ctx, jan6)
	require.NoError(t, err)
	require.Len(t, classes, 4)

	ids := make([]string, 0, len(classes))
	for i, class := range classes {
		if i > 0 {
			assert.GreaterOrEqual(t, int(classes[i-1].Occurrence.StartTime), int(class.Occurrence.StartTime))
		}
		if class.Occurrence.TemplateID != nil {
			ids = append(ids, *class.Occurrence.TemplateID)
		} else {
			ids = append(ids, *class.Occurrence.ExtraID)
		}
	}
	assert.Equal(t, []string{course.Templates[1].ID, course.Templates[0].ID, course.Templates[2].ID, extra.ID}, ids)
}

func TestDayServiceKeepsCreationOrderForBackToBackExtras(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()
	course := stack.createMaths(t)

	var want []string
	for i := 0; i < 8; i++ {
		extra, err := stack.courses.AddExtraClass(ctx, course.ID, dto.ExtraClassRequest{Date: "2025-01-07", StartTime: "14:00", EndTime: "15:00"})
		require.NoError(t, err)
		want = append(want, extra.ID)
	}

	classes, err := stack.days.ClassesFor(ctx, models.NewDate(2025, time.January, 7))
	require.NoError(t, err)
	require.Len(t, classes, len(want))
	got := make([]string, 0, len(classes))
	for _, class := range classes {
		require.NotNil(t, class.Occurrence.ExtraID)
		got = append(got, *class.Occurrence.ExtraID)
	}
	assert.Equal(t, want, got)
}

func TestDayServiceRoundTripOneOccurrencePerDate(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	slots := make([]dto.SlotRequest, 0, 7)
	for w := models.Monday; w <= models.Sunday; w++ {
		slots = append(slots, slot(w, "08:00", "09:00"))
	}
	course, err := stack.courses.CreateCourse(ctx, dto.CreateCourseRequest{Name: "Daily", RequiredPercentage: 60, Slots: slots})
	require.NoError(t, err)

	for i := 0; i < 7; i++ {
		date := jan6.AddDays(i)
		classes, err := stack.days.ClassesFor(ctx, date)
		require.NoError(t, err)
		require.Len(t, classes, 1, "date %s", date)
		require.NotNil(t, classes[0].Occurrence.TemplateID)
		assert.Equal(t, course.Templates[date.Weekday()].ID, *classes[0].Occurrence.TemplateID)
		assert.True(t, classes[0].Occurrence.Date.Equal(date))
	}
}

func TestDayServiceSkipsDeactivatedSlotsAndEmptyDays(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()
	course := stack.createMaths(t)

	classes, err := stack.days.ClassesFor(ctx, models.NewDate(2025, time.January, 8))
	require.NoError(t, err)
	assert.Empty(t, classes)

	inactive := false
	_, err = stack.courses.SetTemplateActive(ctx, course.Templates[0].ID, dto.SetTemplateActiveRequest{Active: &inactive})
	require.NoError(t, err)

	classes, err = stack.days.ClassesFor(ctx, jan6)
	require.NoError(t, err)
	assert.Empty(t, classes)
}

func TestDayServiceRequiresDate(t *testing.T) {
	stack := newTestStack(t)
	_, err := stack.days.ClassesFor(context.Background(), models.Date{})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}
