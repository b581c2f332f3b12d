package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker/internal/models"
)

func TestExtraClassRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExtraClassRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT created_at FROM extra_classes ORDER BY created_at DESC LIMIT 1")).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO extra_classes (id, course_id, class_date, start_time, end_time, created_at)")).
		WithArgs(sqlmock.AnyArg(), "course-1", "2025-01-07", "14:00", "15:00", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	extra := &models.ExtraClass{
		CourseID:  "course-1",
		Date:      models.NewDate(2025, time.January, 7),
		StartTime: models.NewClockTime(14, 0),
		EndTime:   models.NewClockTime(15, 0),
	}
	require.NoError(t, repo.Create(context.Background(), nil, extra))
	assert.NotEmpty(t, extra.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExtraClassRepositoryCreateStampsAfterNewestExtra(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExtraClassRepository(db)
	newest := time.Now().UTC().Truncate(time.Microsecond).Add(time.Minute)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT created_at FROM extra_classes ORDER BY created_at DESC LIMIT 1")).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(newest))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO extra_classes")).
		WithArgs(sqlmock.AnyArg(), "course-1", "2025-01-07", "14:00", "15:00", timeArg{want: newest.Add(time.Microsecond)}).
		WillReturnResult(sqlmock.NewResult(1, 1))

	extra := &models.ExtraClass{
		CourseID:  "course-1",
		Date:      models.NewDate(2025, time.January, 7),
		StartTime: models.NewClockTime(14, 0),
		EndTime:   models.NewClockTime(15, 0),
	}
	require.NoError(t, repo.Create(context.Background(), nil, extra))
	assert.True(t, extra.CreatedAt.After(newest))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExtraClassRepositoryExtrasOn(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExtraClassRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("JOIN courses c ON c.id = e.course_id")).
		WithArgs("2025-01-07").
		WillReturnRows(sqlmock.NewRows([]string{"id", "course_id", "class_date", "start_time", "end_time", "created_at", "course_name"}).
			AddRow("extra-1", "course-1", "2025-01-07", "14:00", "15:00", time.Now(), "Maths"))

	extras, err := repo.ExtrasOn(context.Background(), nil, models.NewDate(2025, time.January, 7))
	require.NoError(t, err)
	require.Len(t, extras, 1)
	assert.Equal(t, models.NewDate(2025, time.January, 7), extras[0].Date)
	assert.Equal(t, "Maths", extras[0].CourseName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExtraClassRepositoryCountInRange(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExtraClassRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM extra_classes WHERE course_id = ? AND class_date >= ? AND class_date <= ?")).
		WithArgs("course-1", "2025-01-01", "2025-01-31").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	total, err := repo.CountInRange(context.Background(), nil, "course-1", models.NewDate(2025, time.January, 1), models.NewDate(2025, time.January, 31))
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}
