package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/attendance-tracker/internal/models"
)

const attendanceColumns = `id, template_id, occurrence_date, extra_id, status, created_at, updated_at`

// AttendanceRepository is the ledger of attendance status per occurrence.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Upsert inserts the record or, when its occurrence already has one, overwrites
// the stored status. The returned row is the single record of the occurrence.
func (r *AttendanceRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	key, err := record.Key()
	if err != nil {
		return nil, err
	}
	target := pick(r.db, exec)
	stamp(record)

	conflict := `(template_id, occurrence_date)`
	if key.Kind() == models.OccurrenceKindExtra {
		conflict = `(extra_id)`
	}
	query := target.Rebind(`INSERT INTO attendance (` + attendanceColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT ` + conflict + `
DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at`)

	if _, err := target.ExecContext(ctx, query, record.ID, record.TemplateID, record.OccurrenceDate, record.ExtraID, record.Status, record.CreatedAt, record.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert attendance for %s: %w", key, err)
	}
	stored, err := r.FindByKey(ctx, target, key)
	if err != nil {
		return nil, fmt.Errorf("reload attendance for %s: %w", key, err)
	}
	return stored, nil
}

// Insert writes a new record and fails with ErrDuplicate when the occurrence
// already has one.
func (r *AttendanceRepository) Insert(ctx context.Context, exec sqlx.ExtContext, record *models.AttendanceRecord) error {
	key, err := record.Key()
	if err != nil {
		return err
	}
	target := pick(r.db, exec)
	stamp(record)

	query := target.Rebind(`INSERT INTO attendance (` + attendanceColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if _, err := target.ExecContext(ctx, query, record.ID, record.TemplateID, record.OccurrenceDate, record.ExtraID, record.Status, record.CreatedAt, record.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert attendance for %s: %w", key, ErrDuplicate)
		}
		return fmt.Errorf("insert attendance for %s: %w", key, err)
	}
	return nil
}

// FindByKey returns the record of an occurrence or sql.ErrNoRows.
func (r *AttendanceRepository) FindByKey(ctx context.Context, exec sqlx.ExtContext, key models.OccurrenceKey) (*models.AttendanceRecord, error) {
	target := pick(r.db, exec)
	var (
		query string
		args  []interface{}
	)
	switch k := key.(type) {
	case models.ScheduledKey:
		query = `SELECT ` + attendanceColumns + ` FROM attendance WHERE template_id = ? AND occurrence_date = ?`
		args = []interface{}{k.TemplateID, k.Date}
	case models.ExtraKey:
		query = `SELECT ` + attendanceColumns + ` FROM attendance WHERE extra_id = ?`
		args = []interface{}{k.ExtraID}
	default:
		return nil, fmt.Errorf("unsupported occurrence key %T", key)
	}
	var record models.AttendanceRecord
	if err := sqlx.GetContext(ctx, target, &record, target.Rebind(query), args...); err != nil {
		return nil, err
	}
	return &record, nil
}

// StatusCounts groups a course's ledger rows by status, following both
// template and extra class links.
func (r *AttendanceRepository) StatusCounts(ctx context.Context, exec sqlx.ExtContext, courseID string) ([]models.StatusCount, error) {
	target := pick(r.db, exec)
	query := target.Rebind(`SELECT a.status, COUNT(*) AS count
FROM attendance a
LEFT JOIN templates t ON t.id = a.template_id
LEFT JOIN extra_classes e ON e.id = a.extra_id
WHERE COALESCE(t.course_id, e.course_id) = ?
GROUP BY a.status`)
	var rows []models.StatusCount
	if err := sqlx.SelectContext(ctx, target, &rows, query, courseID); err != nil {
		return nil, fmt.Errorf("attendance status counts: %w", err)
	}
	return rows, nil
}

// History lists a course's ledger rows with their session times, newest first.
func (r *AttendanceRepository) History(ctx context.Context, exec sqlx.ExtContext, courseID string) ([]models.AttendanceHistoryRow, error) {
	target := pick(r.db, exec)
	queries := []string{
		`SELECT 'scheduled' AS kind, a.occurrence_date, t.start_time, t.end_time, a.status, a.updated_at
FROM attendance a
JOIN templates t ON t.id = a.template_id
WHERE t.course_id = ?`,
		`SELECT 'extra' AS kind, e.class_date AS occurrence_date, e.start_time, e.end_time, a.status, a.updated_at
FROM attendance a
JOIN extra_classes e ON e.id = a.extra_id
WHERE e.course_id = ?`,
	}

	var rows []models.AttendanceHistoryRow
	for _, query := range queries {
		var part []models.AttendanceHistoryRow
		if err := sqlx.SelectContext(ctx, target, &part, target.Rebind(query), courseID); err != nil {
			return nil, fmt.Errorf("attendance history: %w", err)
		}
		rows = append(rows, part...)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.After(rows[j].Date)
		}
		return rows[i].StartTime > rows[j].StartTime
	})
	return rows, nil
}

func stamp(record *models.AttendanceRecord) {
	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
}
