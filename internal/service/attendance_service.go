package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker/internal/dto"
	"github.com/noah-isme/attendance-tracker/internal/models"
	"github.com/noah-isme/attendance-tracker/internal/repository"
	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
)

type courseReader interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Course, error)
}

type occurrenceReader interface {
	FindTemplate(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Template, error)
	FindExtra(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ExtraClass, error)
}

type statusRecorder interface {
	RecordStatusChange(kind models.OccurrenceKind, status models.AttendanceStatus)
}

// OccurrenceLookup adapts the template and extra class repositories to a single reader.
type OccurrenceLookup struct {
	Templates interface {
		FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Template, error)
	}
	Extras interface {
		FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ExtraClass, error)
	}
}

// FindTemplate loads a template by id.
func (l OccurrenceLookup) FindTemplate(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Template, error) {
	return l.Templates.FindByID(ctx, exec, id)
}

// FindExtra loads an extra class by id.
func (l OccurrenceLookup) FindExtra(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ExtraClass, error) {
	return l.Extras.FindByID(ctx, exec, id)
}

// AttendanceService is the attendance ledger and the per-course aggregator.
// Reads and writes always go to storage; nothing is cached in between.
type AttendanceService struct {
	db          txProvider
	courses     courseReader
	occurrences occurrenceReader
	ledger      attendanceRepository
	validator   *validator.Validate
	logger      *zap.Logger
	metrics     statusRecorder
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(db txProvider, courses courseReader, occurrences occurrenceReader, ledger attendanceRepository, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		db:          db,
		courses:     courses,
		occurrences: occurrences,
		ledger:      ledger,
		validator:   registerValidations(validate),
		logger:      logger,
	}
}

// WithMetrics attaches a recorder notified after every committed status change.
func (s *AttendanceService) WithMetrics(recorder statusRecorder) *AttendanceService {
	s.metrics = recorder
	return s
}

// SetStatusFromRequest decodes an API payload into an occurrence key and records the status.
func (s *AttendanceService) SetStatusFromRequest(ctx context.Context, req dto.SetStatusRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid attendance payload")
	}
	status, err := models.ParseAttendanceStatus(req.Status)
	if err != nil {
		return nil, validationError(err, "invalid attendance status")
	}

	var key models.OccurrenceKey
	switch models.OccurrenceKind(req.Kind) {
	case models.OccurrenceKindScheduled:
		date, err := models.ParseDate(req.Date)
		if err != nil {
			return nil, validationError(err, "invalid occurrence date")
		}
		key = models.ScheduledKey{TemplateID: req.TemplateID, Date: date}
	case models.OccurrenceKindExtra:
		key = models.ExtraKey{ExtraID: req.ExtraID}
	default:
		return nil, validationError(nil, "unknown occurrence kind")
	}
	return s.SetStatus(ctx, key, status)
}

// SetStatus records status for one occurrence. Repeating the call overwrites the
// stored status and never creates a second record. Deactivated slots may still
// be marked.
func (s *AttendanceService) SetStatus(ctx context.Context, key models.OccurrenceKey, status models.AttendanceStatus) (*models.AttendanceRecord, error) {
	if !status.Valid() {
		return nil, validationError(nil, fmt.Sprintf("unknown attendance status %q", status))
	}
	if key == nil {
		return nil, validationError(nil, "occurrence is required")
	}

	var stored *models.AttendanceRecord
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.checkOccurrence(ctx, tx, key); err != nil {
			return err
		}
		var err error
		stored, err = s.ledger.Upsert(ctx, tx, models.NewAttendanceRecord(key, status))
		if err != nil {
			return internalError(err, "failed to record attendance")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordStatusChange(key.Kind(), status)
	}
	s.logger.Info("attendance recorded", zap.Stringer("occurrence", key), zap.String("status", string(status)))
	return stored, nil
}

// InsertRecord writes a record only when the occurrence has none yet.
func (s *AttendanceService) InsertRecord(ctx context.Context, key models.OccurrenceKey, status models.AttendanceStatus) (*models.AttendanceRecord, error) {
	if !status.Valid() {
		return nil, validationError(nil, fmt.Sprintf("unknown attendance status %q", status))
	}
	if key == nil {
		return nil, validationError(nil, "occurrence is required")
	}

	record := models.NewAttendanceRecord(key, status)
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.checkOccurrence(ctx, tx, key); err != nil {
			return err
		}
		if err := s.ledger.Insert(ctx, tx, record); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "attendance already recorded for this class")
			}
			return internalError(err, "failed to record attendance")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// recordFor returns the stored record of key, or nil when the occurrence is unmarked.
func (s *AttendanceService) recordFor(ctx context.Context, exec sqlx.ExtContext, key models.OccurrenceKey) (*models.AttendanceRecord, error) {
	record, err := s.ledger.FindByKey(ctx, exec, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, internalError(err, "failed to load attendance")
	}
	return record, nil
}

// Counts tallies a course's ledger. Percent is 100 while nothing has been
// marked Present or Absent.
func (s *AttendanceService) Counts(ctx context.Context, courseID string) (*models.AttendanceCounts, error) {
	var counts *models.AttendanceCounts
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		course, err := s.loadCourse(ctx, tx, courseID)
		if err != nil {
			return err
		}
		counts, err = s.countsFor(ctx, tx, course)
		return err
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (s *AttendanceService) loadCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, exec, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFoundError("course not found")
		}
		return nil, internalError(err, "failed to load course")
	}
	return course, nil
}

func (s *AttendanceService) countsFor(ctx context.Context, exec sqlx.ExtContext, course *models.Course) (*models.AttendanceCounts, error) {
	rows, err := s.ledger.StatusCounts(ctx, exec, course.ID)
	if err != nil {
		return nil, internalError(err, "failed to count attendance")
	}
	counts, err := tally(rows)
	if err != nil {
		s.logger.Error("corrupt attendance ledger", zap.String("course_id", course.ID), zap.Error(err))
		return nil, internalError(err, "attendance ledger holds an unknown status")
	}
	counts.RequiredPercentage = course.RequiredPercentage
	return &counts, nil
}

// History lists a course's recorded occurrences, newest first.
func (s *AttendanceService) History(ctx context.Context, courseID string) ([]models.AttendanceHistoryRow, error) {
	var rows []models.AttendanceHistoryRow
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := s.loadCourse(ctx, tx, courseID); err != nil {
			return err
		}
		var err error
		rows, err = s.historyFor(ctx, tx, courseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *AttendanceService) historyFor(ctx context.Context, exec sqlx.ExtContext, courseID string) ([]models.AttendanceHistoryRow, error) {
	rows, err := s.ledger.History(ctx, exec, courseID)
	if err != nil {
		return nil, internalError(err, "failed to load attendance history")
	}
	return rows, nil
}

func (s *AttendanceService) checkOccurrence(ctx context.Context, exec sqlx.ExtContext, key models.OccurrenceKey) error {
	switch k := key.(type) {
	case models.ScheduledKey:
		if k.Date.IsZero() {
			return validationError(nil, "occurrence date is required")
		}
		tpl, err := s.occurrences.FindTemplate(ctx, exec, k.TemplateID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return notFoundError("slot not found")
			}
			return internalError(err, "failed to load slot")
		}
		if k.Date.Weekday() != tpl.Weekday {
			return validationError(nil, fmt.Sprintf("%s is a %s but the slot is on %s", k.Date, k.Date.Weekday(), tpl.Weekday))
		}
		return nil
	case models.ExtraKey:
		if _, err := s.occurrences.FindExtra(ctx, exec, k.ExtraID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return notFoundError("extra class not found")
			}
			return internalError(err, "failed to load extra class")
		}
		return nil
	default:
		return validationError(nil, "unsupported occurrence")
	}
}

// tally folds grouped ledger rows into counts. An unknown status is an error.
func tally(rows []models.StatusCount) (models.AttendanceCounts, error) {
	var counts models.AttendanceCounts
	for _, row := range rows {
		switch row.Status {
		case models.AttendanceStatusPresent:
			counts.Present += row.Count
		case models.AttendanceStatusAbsent:
			counts.Absent += row.Count
		case models.AttendanceStatusCancelled:
			counts.Cancelled += row.Count
		case models.AttendanceStatusUnset:
			counts.Unset += row.Count
		default:
			return models.AttendanceCounts{}, fmt.Errorf("unknown attendance status %q", row.Status)
		}
	}
	counts.Percent = percentage(counts.Present, counts.Absent)
	return counts, nil
}

func percentage(present, absent int) float64 {
	decided := present + absent
	if decided == 0 {
		return 100
	}
	return 100 * float64(present) / float64(decided)
}
