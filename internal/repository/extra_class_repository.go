package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/attendance-tracker/internal/models"
)

const extraColumns = `e.id, e.course_id, e.class_date, e.start_time, e.end_time, e.created_at`

// ExtraClassRepository persists one-off class sessions.
type ExtraClassRepository struct {
	db *sqlx.DB
}

// NewExtraClassRepository constructs the repository.
func NewExtraClassRepository(db *sqlx.DB) *ExtraClassRepository {
	return &ExtraClassRepository{db: db}
}

// Create inserts an extra class.
func (r *ExtraClassRepository) Create(ctx context.Context, exec sqlx.ExtContext, extra *models.ExtraClass) error {
	target := pick(r.db, exec)
	if extra.ID == "" {
		extra.ID = uuid.NewString()
	}
	if extra.CreatedAt.IsZero() {
		stamp, err := nextCreatedAt(ctx, target, "extra_classes")
		if err != nil {
			return err
		}
		extra.CreatedAt = stamp
	}
	query := target.Rebind(`INSERT INTO extra_classes (id, course_id, class_date, start_time, end_time, created_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if _, err := target.ExecContext(ctx, query, extra.ID, extra.CourseID, extra.Date, extra.StartTime, extra.EndTime, extra.CreatedAt); err != nil {
		return fmt.Errorf("create extra class: %w", err)
	}
	return nil
}

// FindByID returns a single extra class.
func (r *ExtraClassRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ExtraClass, error) {
	target := pick(r.db, exec)
	query := target.Rebind(`SELECT ` + extraColumns + ` FROM extra_classes e WHERE e.id = ?`)
	var extra models.ExtraClass
	if err := sqlx.GetContext(ctx, target, &extra, query, id); err != nil {
		return nil, err
	}
	return &extra, nil
}

// ExtrasOn returns the extra classes held on date joined with their course
// name, in insertion order.
func (r *ExtraClassRepository) ExtrasOn(ctx context.Context, exec sqlx.ExtContext, date models.Date) ([]models.DatedExtra, error) {
	target := pick(r.db, exec)
	query := target.Rebind(`SELECT ` + extraColumns + `, c.name AS course_name
FROM extra_classes e
JOIN courses c ON c.id = e.course_id
WHERE e.class_date = ?
ORDER BY e.created_at ASC, e.id ASC`)
	var extras []models.DatedExtra
	if err := sqlx.SelectContext(ctx, target, &extras, query, date); err != nil {
		return nil, fmt.Errorf("list extra classes: %w", err)
	}
	return extras, nil
}

// CountInRange counts a course's extra classes between from and to inclusive.
func (r *ExtraClassRepository) CountInRange(ctx context.Context, exec sqlx.ExtContext, courseID string, from, to models.Date) (int, error) {
	target := pick(r.db, exec)
	query := target.Rebind(`SELECT COUNT(*) FROM extra_classes WHERE course_id = ? AND class_date >= ? AND class_date <= ?`)
	var total int
	if err := sqlx.GetContext(ctx, target, &total, query, courseID, from, to); err != nil {
		return 0, fmt.Errorf("count extra classes: %w", err)
	}
	return total, nil
}
