package service

import (
	"context"
	"sort"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker/internal/models"
)

type dayTemplateReader interface {
	TemplatesForWeekday(ctx context.Context, exec sqlx.ExtContext, weekday models.Weekday) ([]models.WeekdaySlot, error)
}

type dayExtraReader interface {
	ExtrasOn(ctx context.Context, exec sqlx.ExtContext, date models.Date) ([]models.DatedExtra, error)
}

// DayService assembles the classes of one calendar day.
type DayService struct {
	db         txProvider
	courses    courseReader
	templates  dayTemplateReader
	extras     dayExtraReader
	attendance *AttendanceService
	logger     *zap.Logger
}

// NewDayService constructs the day assembler.
func NewDayService(db txProvider, courses courseReader, templates dayTemplateReader, extras dayExtraReader, attendance *AttendanceService, logger *zap.Logger) *DayService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DayService{db: db, courses: courses, templates: templates, extras: extras, attendance: attendance, logger: logger}
}

// ClassesFor lists every scheduled and extra class held on date with its
// course's running counts, latest start first. Classes starting at the same
// time keep scheduled-before-extra insertion order.
func (s *DayService) ClassesFor(ctx context.Context, date models.Date) ([]models.ClassOfDay, error) {
	if date.IsZero() {
		return nil, validationError(nil, "date is required")
	}

	var classes []models.ClassOfDay
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		slots, err := s.templates.TemplatesForWeekday(ctx, tx, date.Weekday())
		if err != nil {
			return internalError(err, "failed to load scheduled classes")
		}
		extras, err := s.extras.ExtrasOn(ctx, tx, date)
		if err != nil {
			return internalError(err, "failed to load extra classes")
		}

		views := make([]models.OccurrenceView, 0, len(slots)+len(extras))
		for _, slot := range slots {
			views = append(views, scheduledView(slot, date))
		}
		for _, extra := range extras {
			views = append(views, extraView(extra))
		}
		for i := range views {
			record, err := s.attendance.recordFor(ctx, tx, views[i].Key())
			if err != nil {
				return err
			}
			if record != nil {
				id := record.ID
				views[i].AttendanceID = &id
				views[i].Status = record.Status
			}
		}

		counts := make(map[string]models.AttendanceCounts)
		classes = make([]models.ClassOfDay, 0, len(views))
		for _, view := range views {
			c, ok := counts[view.CourseID]
			if !ok {
				course, err := s.courses.FindByID(ctx, tx, view.CourseID)
				if err != nil {
					return internalError(err, "failed to load course")
				}
				computed, err := s.attendance.countsFor(ctx, tx, course)
				if err != nil {
					return err
				}
				c = *computed
				counts[view.CourseID] = c
			}
			classes = append(classes, models.ClassOfDay{Occurrence: view, Counts: c})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(classes, func(i, j int) bool {
		return classes[i].Occurrence.StartTime > classes[j].Occurrence.StartTime
	})

	s.logger.Debug("classes assembled", zap.Stringer("date", date), zap.Int("count", len(classes)))
	return classes, nil
}

func scheduledView(slot models.WeekdaySlot, date models.Date) models.OccurrenceView {
	templateID := slot.ID
	return models.OccurrenceView{
		Kind:       models.OccurrenceKindScheduled,
		CourseID:   slot.CourseID,
		CourseName: slot.CourseName,
		TemplateID: &templateID,
		Date:       date,
		StartTime:  slot.StartTime,
		EndTime:    slot.EndTime,
		Status:     models.AttendanceStatusUnset,
	}
}

func extraView(extra models.DatedExtra) models.OccurrenceView {
	extraID := extra.ID
	return models.OccurrenceView{
		Kind:       models.OccurrenceKindExtra,
		CourseID:   extra.CourseID,
		CourseName: extra.CourseName,
		ExtraID:    &extraID,
		Date:       extra.Date,
		StartTime:  extra.StartTime,
		EndTime:    extra.EndTime,
		Status:     models.AttendanceStatusUnset,
	}
}
