package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker/internal/dto"
	"github.com/noah-isme/attendance-tracker/internal/models"
	"github.com/noah-isme/attendance-tracker/internal/repository"
	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
)

var courseRowColumns = []string{"id", "name", "required_percentage", "created_at", "updated_at"}

func newMockedServices(t *testing.T) (*AttendanceService, *ReportService, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	db := sqlx.NewDb(raw, "sqlmock")

	courseRepo := repository.NewCourseRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	extraRepo := repository.NewExtraClassRepository(db)
	attendance := NewAttendanceService(db, courseRepo, OccurrenceLookup{Templates: templateRepo, Extras: extraRepo}, repository.NewAttendanceRepository(db), nil, nil)
	reports := NewReportService(db, courseRepo, templateRepo, extraRepo, attendance, nil)
	return attendance, reports, mock
}

func TestOverviewsReadInsideOneTransaction(t *testing.T) {
	_, reports, mock := newMockedServices(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM courses ORDER BY name")).
		WillReturnRows(sqlmock.NewRows(courseRowColumns).
			AddRow("course-1", "Maths", 75.0, now, now).
			AddRow("course-2", "Physics", 80.0, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY a.status")).
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("Present", 3).AddRow("Absent", 1))
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY a.status")).
		WithArgs("course-2").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}))
	mock.ExpectCommit()

	overviews, err := reports.Overviews(context.Background())
	require.NoError(t, err)
	require.Len(t, overviews, 2)
	assert.Equal(t, 75.0, overviews[0].Counts.Percent)
	assert.Equal(t, 100.0, overviews[1].Counts.Percent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOverviewsRollBackOnFailedRead(t *testing.T) {
	_, reports, mock := newMockedServices(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM courses ORDER BY name")).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := reports.Overviews(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInternal.Code))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountsReadInsideOneTransaction(t *testing.T) {
	attendance, _, mock := newMockedServices(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM courses WHERE id = ?")).
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows(courseRowColumns).AddRow("course-1", "Maths", 75.0, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY a.status")).
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("Cancelled", 2))
	mock.ExpectCommit()

	counts, err := attendance.Counts(context.Background(), "course-1")
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceCounts{Cancelled: 2, Percent: 100, RequiredPercentage: 75}, *counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassesHeldReadsInsideOneTransaction(t *testing.T) {
	_, reports, mock := newMockedServices(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM courses WHERE id = ?")).
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows(courseRowColumns).AddRow("course-1", "Maths", 75.0, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM templates t")).
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "course_id", "weekday", "start_time", "end_time", "included_in_schedule", "created_at"}).
			AddRow("tpl-1", "course-1", 0, "09:00", "10:00", true, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM extra_classes")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectCommit()

	held, err := reports.ClassesHeld(context.Background(), "course-1", dto.ClassesHeldQuery{From: "2025-01-06", To: "2025-01-19"})
	require.NoError(t, err)
	assert.Equal(t, 2, held.Scheduled)
	assert.Equal(t, 3, held.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
