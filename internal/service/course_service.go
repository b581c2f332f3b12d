package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker/internal/dto"
	"github.com/noah-isme/attendance-tracker/internal/models"
)

type courseRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, course *models.Course) error
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Course, error)
	List(ctx context.Context, exec sqlx.ExtContext) ([]models.Course, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, exec sqlx.ExtContext, course *models.Course) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id string) error
}

type templateRepository interface {
	CreateBatch(ctx context.Context, exec sqlx.ExtContext, templates []models.Template) error
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Template, error)
	ListByCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) ([]models.Template, error)
	SetActive(ctx context.Context, exec sqlx.ExtContext, id string, active bool) error
}

type extraClassRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, extra *models.ExtraClass) error
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ExtraClass, error)
	CountInRange(ctx context.Context, exec sqlx.ExtContext, courseID string, from, to models.Date) (int, error)
}

type attendanceRepository interface {
	Upsert(ctx context.Context, exec sqlx.ExtContext, record *models.AttendanceRecord) (*models.AttendanceRecord, error)
	Insert(ctx context.Context, exec sqlx.ExtContext, record *models.AttendanceRecord) error
	FindByKey(ctx context.Context, exec sqlx.ExtContext, key models.OccurrenceKey) (*models.AttendanceRecord, error)
	StatusCounts(ctx context.Context, exec sqlx.ExtContext, courseID string) ([]models.StatusCount, error)
	History(ctx context.Context, exec sqlx.ExtContext, courseID string) ([]models.AttendanceHistoryRow, error)
}

// SampleCourseName names the course created by Seed.
const SampleCourseName = "Sample Course"

// CourseService manages courses, their weekly slots and extra classes.
type CourseService struct {
	db         txProvider
	courses    courseRepository
	templates  templateRepository
	extras     extraClassRepository
	attendance attendanceRepository
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewCourseService constructs the course service.
func NewCourseService(db txProvider, courses courseRepository, templates templateRepository, extras extraClassRepository, attendance attendanceRepository, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{
		db:         db,
		courses:    courses,
		templates:  templates,
		extras:     extras,
		attendance: attendance,
		validator:  registerValidations(validate),
		logger:     logger,
	}
}

// CreateCourse stores a course and its slots atomically.
func (s *CourseService) CreateCourse(ctx context.Context, req dto.CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid course payload")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationError(nil, "course name is required")
	}

	templates := make([]models.Template, 0, len(req.Slots))
	for _, slot := range req.Slots {
		tpl, err := templateFromSlot(slot)
		if err != nil {
			return nil, err
		}
		templates = append(templates, tpl)
	}

	course := &models.Course{Name: name, RequiredPercentage: req.RequiredPercentage}
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.courses.Create(ctx, tx, course); err != nil {
			return internalError(err, "failed to create course")
		}
		for i := range templates {
			templates[i].CourseID = course.ID
		}
		if err := s.templates.CreateBatch(ctx, tx, templates); err != nil {
			return internalError(err, "failed to create course slots")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	course.Templates = templates

	s.logger.Info("course created", zap.String("course_id", course.ID), zap.String("name", course.Name), zap.Int("slots", len(templates)))
	return course, nil
}

// GetCourse returns a course with every slot, active or not.
func (s *CourseService) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.findCourse(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	templates, err := s.templates.ListByCourse(ctx, nil, id)
	if err != nil {
		return nil, internalError(err, "failed to load course slots")
	}
	course.Templates = templates
	return course, nil
}

// UpdateCourse edits the name and threshold of a course.
func (s *CourseService) UpdateCourse(ctx context.Context, id string, req dto.UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid course payload")
	}

	var course *models.Course
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var err error
		course, err = s.findCourse(ctx, tx, id)
		if err != nil {
			return err
		}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return validationError(nil, "course name is required")
			}
			course.Name = name
		}
		if req.RequiredPercentage != nil {
			course.RequiredPercentage = *req.RequiredPercentage
		}
		if err := s.courses.Update(ctx, tx, course); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return notFoundError("course not found")
			}
			return internalError(err, "failed to update course")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("course updated", zap.String("course_id", id))
	return course, nil
}

// DeleteCourse removes a course with its slots, extra classes and attendance.
func (s *CourseService) DeleteCourse(ctx context.Context, id string) error {
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.courses.Delete(ctx, tx, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return notFoundError("course not found")
			}
			return internalError(err, "failed to delete course")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("course deleted", zap.String("course_id", id))
	return nil
}

// AddTemplate appends a weekly slot to an existing course.
func (s *CourseService) AddTemplate(ctx context.Context, courseID string, req dto.SlotRequest) (*models.Template, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid slot payload")
	}
	tpl, err := templateFromSlot(req)
	if err != nil {
		return nil, err
	}
	tpl.CourseID = courseID

	err = withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := s.findCourse(ctx, tx, courseID); err != nil {
			return err
		}
		batch := []models.Template{tpl}
		if err := s.templates.CreateBatch(ctx, tx, batch); err != nil {
			return internalError(err, "failed to create slot")
		}
		tpl = batch[0]
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("slot added", zap.String("course_id", courseID), zap.String("template_id", tpl.ID), zap.Stringer("weekday", tpl.Weekday))
	return &tpl, nil
}

// SetTemplateActive includes or excludes a slot from the weekly schedule.
// Attendance already recorded against the slot is kept.
func (s *CourseService) SetTemplateActive(ctx context.Context, templateID string, req dto.SetTemplateActiveRequest) (*models.Template, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid slot payload")
	}

	var tpl *models.Template
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.templates.SetActive(ctx, tx, templateID, *req.Active); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return notFoundError("slot not found")
			}
			return internalError(err, "failed to update slot")
		}
		var err error
		tpl, err = s.templates.FindByID(ctx, tx, templateID)
		if err != nil {
			return internalError(err, "failed to load slot")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("slot toggled", zap.String("template_id", templateID), zap.Bool("active", tpl.Active))
	return tpl, nil
}

// AddExtraClass stores a one-off session together with its Unset attendance record.
func (s *CourseService) AddExtraClass(ctx context.Context, courseID string, req dto.ExtraClassRequest) (*models.ExtraClass, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid extra class payload")
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		return nil, validationError(err, "invalid extra class date")
	}
	start, end, err := parseSpan(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	extra := &models.ExtraClass{CourseID: courseID, Date: date, StartTime: start, EndTime: end}
	err = withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := s.findCourse(ctx, tx, courseID); err != nil {
			return err
		}
		if err := s.extras.Create(ctx, tx, extra); err != nil {
			return internalError(err, "failed to create extra class")
		}
		record := models.NewAttendanceRecord(models.ExtraKey{ExtraID: extra.ID}, models.AttendanceStatusUnset)
		if err := s.attendance.Insert(ctx, tx, record); err != nil {
			return internalError(err, "failed to create extra class attendance")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("extra class added", zap.String("course_id", courseID), zap.String("extra_id", extra.ID), zap.Stringer("date", extra.Date))
	return extra, nil
}

// Seed creates the sample course when storage holds no course yet. It reports
// whether anything was written.
func (s *CourseService) Seed(ctx context.Context) (*models.Course, bool, error) {
	total, err := s.courses.Count(ctx)
	if err != nil {
		return nil, false, internalError(err, "failed to count courses")
	}
	if total > 0 {
		return nil, false, nil
	}

	weekday := func(w models.Weekday) *int {
		v := int(w)
		return &v
	}
	course, err := s.CreateCourse(ctx, dto.CreateCourseRequest{
		Name:               SampleCourseName,
		RequiredPercentage: 75,
		Slots: []dto.SlotRequest{
			{Weekday: weekday(models.Monday), StartTime: "09:00", EndTime: "10:00"},
			{Weekday: weekday(models.Tuesday), StartTime: "10:00", EndTime: "11:00"},
			{Weekday: weekday(models.Wednesday), StartTime: "11:00", EndTime: "12:00"},
		},
	})
	if err != nil {
		return nil, false, err
	}
	return course, true, nil
}

func (s *CourseService) findCourse(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, exec, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFoundError("course not found")
		}
		return nil, internalError(err, "failed to load course")
	}
	return course, nil
}

func templateFromSlot(slot dto.SlotRequest) (models.Template, error) {
	if slot.Weekday == nil || !models.Weekday(*slot.Weekday).Valid() {
		return models.Template{}, validationError(nil, "weekday must be between 0 (Monday) and 6 (Sunday)")
	}
	start, end, err := parseSpan(slot.StartTime, slot.EndTime)
	if err != nil {
		return models.Template{}, err
	}
	return models.Template{
		Weekday:   models.Weekday(*slot.Weekday),
		StartTime: start,
		EndTime:   end,
		Active:    true,
	}, nil
}

func parseSpan(rawStart, rawEnd string) (models.ClockTime, models.ClockTime, error) {
	start, err := models.ParseClockTime(rawStart)
	if err != nil {
		return 0, 0, validationError(err, "invalid start time")
	}
	end, err := models.ParseClockTime(rawEnd)
	if err != nil {
		return 0, 0, validationError(err, "invalid end time")
	}
	if start >= end {
		return 0, 0, validationError(nil, "start time must be before end time")
	}
	return start, end, nil
}
