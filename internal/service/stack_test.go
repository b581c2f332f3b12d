package service

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker/internal/dto"
	"github.com/noah-isme/attendance-tracker/internal/models"
	"github.com/noah-isme/attendance-tracker/internal/repository"
	"github.com/noah-isme/attendance-tracker/pkg/config"
	"github.com/noah-isme/attendance-tracker/pkg/database"
)

type testStack struct {
	db         *sqlx.DB
	ledger     *repository.AttendanceRepository
	courses    *CourseService
	attendance *AttendanceService
	days       *DayService
	reports    *ReportService
	metrics    *MetricsService
}

// newTestStack wires every service against a migrated in-memory SQLite database.
func newTestStack(t *testing.T) *testStack {
	t.Helper()
	db, err := database.NewSQLite(config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))

	courseRepo := repository.NewCourseRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	extraRepo := repository.NewExtraClassRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	metrics := NewMetricsService()
	attendance := NewAttendanceService(db, courseRepo, OccurrenceLookup{Templates: templateRepo, Extras: extraRepo}, attendanceRepo, nil, nil).WithMetrics(metrics)

	return &testStack{
		db:         db,
		ledger:     attendanceRepo,
		courses:    NewCourseService(db, courseRepo, templateRepo, extraRepo, attendanceRepo, nil, nil),
		attendance: attendance,
		days:       NewDayService(db, courseRepo, templateRepo, extraRepo, attendance, nil),
		reports:    NewReportService(db, courseRepo, templateRepo, extraRepo, attendance, nil),
		metrics:    metrics,
	}
}

// recordCount counts the ledger rows stored for key.
func (s *testStack) recordCount(t *testing.T, key models.OccurrenceKey) int {
	t.Helper()
	var (
		query string
		args  []interface{}
	)
	switch k := key.(type) {
	case models.ScheduledKey:
		query = `SELECT COUNT(*) FROM attendance WHERE template_id = ? AND occurrence_date = ?`
		args = []interface{}{k.TemplateID, k.Date}
	case models.ExtraKey:
		query = `SELECT COUNT(*) FROM attendance WHERE extra_id = ?`
		args = []interface{}{k.ExtraID}
	default:
		t.Fatalf("unsupported occurrence key %T", key)
	}
	var total int
	require.NoError(t, s.db.GetContext(context.Background(), &total, s.db.Rebind(query), args...))
	return total
}

func weekdayPtr(w models.Weekday) *int {
	v := int(w)
	return &v
}

func slot(w models.Weekday, start, end string) dto.SlotRequest {
	return dto.SlotRequest{Weekday: weekdayPtr(w), StartTime: start, EndTime: end}
}

// createMaths stores the course used by most scenarios: 75% required, one
// Monday slot from 09:00 to 10:00.
func (s *testStack) createMaths(t *testing.T) *models.Course {
	t.Helper()
	course, err := s.courses.CreateCourse(context.Background(), dto.CreateCourseRequest{
		Name:               "Maths",
		RequiredPercentage: 75,
		Slots:              []dto.SlotRequest{slot(models.Monday, "09:00", "10:00")},
	})
	require.NoError(t, err)
	require.Len(t, course.Templates, 1)
	return course
}
