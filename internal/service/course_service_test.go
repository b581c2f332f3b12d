package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker/internal/dto"
	"github.com/noah-isme/attendance-tracker/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
)

func TestCourseServiceCreateCourseValidation(t *testing.T) {
	svc := NewCourseService(nil, nil, nil, nil, nil, nil, nil)
	ctx := context.Background()

	cases := map[string]dto.CreateCourseRequest{
		"missing name":         {RequiredPercentage: 75},
		"blank name":           {Name: "   ", RequiredPercentage: 75},
		"zero threshold":       {Name: "Maths", RequiredPercentage: 0},
		"negative threshold":   {Name: "Maths", RequiredPercentage: -5},
		"threshold above 100":  {Name: "Maths", RequiredPercentage: 100.5},
		"start equals end":     {Name: "Maths", RequiredPercentage: 75, Slots: []dto.SlotRequest{slot(models.Monday, "09:00", "09:00")}},
		"start after end":      {Name: "Maths", RequiredPercentage: 75, Slots: []dto.SlotRequest{slot(models.Monday, "10:00", "09:00")}},
		"weekday out of range": {Name: "Maths", RequiredPercentage: 75, Slots: []dto.SlotRequest{slot(models.Weekday(7), "09:00", "10:00")}},
		"negative weekday":     {Name: "Maths", RequiredPercentage: 75, Slots: []dto.SlotRequest{slot(models.Weekday(-1), "09:00", "10:00")}},
		"missing weekday":      {Name: "Maths", RequiredPercentage: 75, Slots: []dto.SlotRequest{{StartTime: "09:00", EndTime: "10:00"}}},
		"malformed time":       {Name: "Maths", RequiredPercentage: 75, Slots: []dto.SlotRequest{slot(models.Monday, "9am", "10:00")}},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateCourse(ctx, req)
			require.Error(t, err)
			assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation), err.Error())
		})
	}
}

func TestCourseServiceCreateAndGetCourse(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	created, err := stack.courses.CreateCourse(ctx, dto.CreateCourseRequest{
		Name:               "  Chemistry ",
		RequiredPercentage: 100,
		Slots: []dto.SlotRequest{
			slot(models.Thursday, "13:00", "14:30"),
			slot(models.Saturday, "08:00", "09:00"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Chemistry", created.Name)

	loaded, err := stack.courses.GetCourse(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, loaded.RequiredPercentage)
	require.Len(t, loaded.Templates, 2)
	assert.Equal(t, models.Thursday, loaded.Templates[0].Weekday)
	assert.Equal(t, models.NewClockTime(13, 0), loaded.Templates[0].StartTime)
	assert.Equal(t, models.NewClockTime(14, 30), loaded.Templates[0].EndTime)
	assert.True(t, loaded.Templates[1].Active)

	_, err = stack.courses.GetCourse(ctx, "missing")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestCourseServiceUpdateCourse(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()
	course := stack.createMaths(t)

	threshold := 60.0
	updated, err := stack.courses.UpdateCourse(ctx, course.ID, dto.UpdateCourseRequest{RequiredPercentage: &threshold})
	require.NoError(t, err)
	assert.Equal(t, "Maths", updated.Name)
	assert.Equal(t, 60.0, updated.RequiredPercentage)

	counts, err := stack.attendance.Counts(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 60.0, counts.RequiredPercentage)

	name := "Applied Maths"
	updated, err = stack.courses.UpdateCourse(ctx, course.ID, dto.UpdateCourseRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Applied Maths", updated.Name)

	tooHigh := 150.0
	_, err = stack.courses.UpdateCourse(ctx, course.ID, dto.UpdateCourseRequest{RequiredPercentage: &tooHigh})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))

	_, err = stack.courses.UpdateCourse(ctx, "missing", dto.UpdateCourseRequest{Name: &name})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestCourseServiceDeleteCourseCascades(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()
	course := stack.createMaths(t)
	key := models.ScheduledKey{TemplateID: course.Templates[0].ID, Date: jan6}

	_, err := stack.attendance.SetStatus(ctx, key, models.AttendanceStatusPresent)
	require.NoError(t, err)
	extra, err := stack.courses.AddExtraClass(ctx, course.ID, dto.ExtraClassRequest{Date: "2025-01-07", StartTime: "14:00", EndTime: "15:00"})
	require.NoError(t, err)

	require.NoError(t, stack.courses.DeleteCourse(ctx, course.ID))

	assert.Zero(t, stack.recordCount(t, key))
	assert.Zero(t, stack.recordCount(t, models.ExtraKey{ExtraID: extra.ID}))

	classes, err := stack.days.ClassesFor(ctx, jan6)
	require.NoError(t, err)
	assert.Empty(t, classes)

	_, err = stack.attendance.Counts(ctx, course.ID)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))

	err = stack.courses.DeleteCourse(ctx, course.ID)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestCourseServiceAddTemplate(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()
	course := stack.createMaths(t)

	tpl, err := stack.courses.AddTemplate(ctx, course.ID, slot(models.Tuesday, "10:00", "11:00"))
	require.NoError(t, err)
	assert.Equal(t, course.ID, tpl.CourseID)
	assert.True(t, tpl.Active)

	classes, err := stack.days.ClassesFor(ctx, jan7)
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, tpl.ID, *classes[0].Occurrence.TemplateID)

	_, err = stack.courses.AddTemplate(ctx, "missing", slot(models.Tuesday, "10:00", "11:00"))
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))

	_, err = stack.courses.AddTemplate(ctx, course.ID, slot(models.Tuesday, "11:00", "10:00"))
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}

func TestCourseServiceSetTemplateActiveMissing(t *testing.T) {
	stack := newTestStack(t)
	active := true
	_, err := stack.courses.SetTemplateActive(context.Background(), "missing", dto.SetTemplateActiveRequest{Active: &active})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))

	_, err = stack.courses.SetTemplateActive(context.Background(), "missing", dto.SetTemplateActiveRequest{})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}

func TestCourseServiceAddExtraClassValidation(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()
	course := stack.createMaths(t)

	_, err := stack.courses.AddExtraClass(ctx, course.ID, dto.ExtraClassRequest{Date: "2025-02-30", StartTime: "14:00", EndTime: "15:00"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))

	_, err = stack.courses.AddExtraClass(ctx, course.ID, dto.ExtraClassRequest{Date: "2025-01-07", StartTime: "15:00", EndTime: "14:00"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))

	_, err = stack.courses.AddExtraClass(ctx, "missing", dto.ExtraClassRequest{Date: "2025-01-07", StartTime: "14:00", EndTime: "15:00"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestCourseServiceSeed(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	course, created, err := stack.courses.Seed(ctx)
	require.NoError(t, err)
	require.True(t, created)
	assert.Equal(t, SampleCourseName, course.Name)
	assert.Equal(t, 75.0, course.RequiredPercentage)
	require.Len(t, course.Templates, 3)
	assert.Equal(t, models.Monday, course.Templates[0].Weekday)
	assert.Equal(t, models.Wednesday, course.Templates[2].Weekday)

	_, created, err = stack.courses.Seed(ctx)
	require.NoError(t, err)
	assert.False(t, created)
}
