package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker/internal/dto"
	"github.com/noah-isme/attendance-tracker/internal/models"
	"github.com/noah-isme/attendance-tracker/pkg/export"
)

type reportCourseRepository interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Course, error)
	List(ctx context.Context, exec sqlx.ExtContext) ([]models.Course, error)
}

type reportTemplateRepository interface {
	ListByCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) ([]models.Template, error)
}

type reportExtraRepository interface {
	CountInRange(ctx context.Context, exec sqlx.ExtContext, courseID string, from, to models.Date) (int, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ReportService builds read-only summaries across courses.
type ReportService struct {
	db         txProvider
	courses    reportCourseRepository
	templates  reportTemplateRepository
	extras     reportExtraRepository
	attendance *AttendanceService
	logger     *zap.Logger
	now        func() time.Time
}

// NewReportService constructs the report service.
func NewReportService(db txProvider, courses reportCourseRepository, templates reportTemplateRepository, extras reportExtraRepository, attendance *AttendanceService, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		db:         db,
		courses:    courses,
		templates:  templates,
		extras:     extras,
		attendance: attendance,
		logger:     logger,
		now:        time.Now,
	}
}

// Overviews lists every course with its counts, ordered by name.
func (s *ReportService) Overviews(ctx context.Context) ([]models.CourseOverview, error) {
	var overviews []models.CourseOverview
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		courses, err := s.courses.List(ctx, tx)
		if err != nil {
			return internalError(err, "failed to list courses")
		}
		overviews = make([]models.CourseOverview, 0, len(courses))
		for i := range courses {
			counts, err := s.attendance.countsFor(ctx, tx, &courses[i])
			if err != nil {
				return err
			}
			overviews = append(overviews, models.CourseOverview{Course: courses[i], Counts: *counts})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return overviews, nil
}

// ClassesHeld counts the sessions a course had between two dates inclusive.
// Missing bounds default to the course creation day and today.
func (s *ReportService) ClassesHeld(ctx context.Context, courseID string, query dto.ClassesHeldQuery) (*models.ClassesHeld, error) {
	var held *models.ClassesHeld
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		course, err := s.findCourse(ctx, tx, courseID)
		if err != nil {
			return err
		}

		from := models.DateOf(course.CreatedAt)
		if query.From != "" {
			if from, err = models.ParseDate(query.From); err != nil {
				return validationError(err, "invalid from date")
			}
		}
		to := models.DateOf(s.now().UTC())
		if query.To != "" {
			if to, err = models.ParseDate(query.To); err != nil {
				return validationError(err, "invalid to date")
			}
		}
		if to.Before(from) {
			return validationError(nil, "from must not be after to")
		}

		templates, err := s.templates.ListByCourse(ctx, tx, courseID)
		if err != nil {
			return internalError(err, "failed to load course slots")
		}
		held = &models.ClassesHeld{CourseID: courseID, From: from, To: to, PerTemplate: []models.TemplateHeld{}}
		for _, tpl := range templates {
			if !tpl.Active {
				continue
			}
			count := CountInRange(tpl, from, to)
			held.PerTemplate = append(held.PerTemplate, models.TemplateHeld{TemplateID: tpl.ID, Weekday: tpl.Weekday, Count: count})
			held.Scheduled += count
		}
		if held.Extra, err = s.extras.CountInRange(ctx, tx, courseID, from, to); err != nil {
			return internalError(err, "failed to count extra classes")
		}
		held.Total = held.Scheduled + held.Extra
		return nil
	})
	if err != nil {
		return nil, err
	}
	return held, nil
}

// Export renders a course's attendance history in the requested format.
func (s *ReportService) Export(ctx context.Context, courseID, format string) (*ExportFile, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, validationError(err, "invalid export format")
	}
	var (
		course  *models.Course
		counts  *models.AttendanceCounts
		history []models.AttendanceHistoryRow
	)
	err = withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var err error
		if course, err = s.findCourse(ctx, tx, courseID); err != nil {
			return err
		}
		if counts, err = s.attendance.countsFor(ctx, tx, course); err != nil {
			return err
		}
		history, err = s.attendance.historyFor(ctx, tx, courseID)
		return err
	})
	if err != nil {
		return nil, err
	}

	table := export.Table{
		Title: fmt.Sprintf("%s attendance", course.Name),
		Summary: []string{
			fmt.Sprintf("Present %d, Absent %d, Cancelled %d, Unset %d", counts.Present, counts.Absent, counts.Cancelled, counts.Unset),
			fmt.Sprintf("Attendance %.1f%% (required %.1f%%)", counts.Percent, counts.RequiredPercentage),
		},
		Headers: []string{"date", "weekday", "start", "end", "kind", "status"},
		Rows:    make([][]string, 0, len(history)),
	}
	for _, row := range history {
		table.Rows = append(table.Rows, []string{
			row.Date.String(),
			row.Date.Weekday().String(),
			row.StartTime.String(),
			row.EndTime.String(),
			string(row.Kind),
			string(row.Status),
		})
	}

	payload, err := export.RendererFor(f).Render(table)
	if err != nil {
		return nil, internalError(err, "failed to render export")
	}

	s.logger.Info("attendance exported", zap.String("course_id", courseID), zap.String("format", string(f)), zap.Int("rows", len(table.Rows)))
	return &ExportFile{
		Filename:    fmt.Sprintf("%s-attendance.%s", slug(course.Name), f.Extension()),
		ContentType: f.ContentType(),
		Payload:     payload,
	}, nil
}

func (s *ReportService) findCourse(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, exec, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFoundError("course not found")
		}
		return nil, internalError(err, "failed to load course")
	}
	return course, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slug(name string) string {
	s := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if s == "" {
		return "course"
	}
	return s
}
