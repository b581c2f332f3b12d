package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/attendance-tracker/internal/models"
)

const templateColumns = `t.id, t.course_id, t.weekday, t.start_time, t.end_time, t.included_in_schedule, t.created_at`

// TemplateRepository persists weekly schedule slots.
type TemplateRepository struct {
	db *sqlx.DB
}

// NewTemplateRepository builds repository.
func NewTemplateRepository(db *sqlx.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// CreateBatch inserts templates in order. Creation timestamps are staggered
// after the newest stored template so listing by created_at reproduces
// insertion order.
func (r *TemplateRepository) CreateBatch(ctx context.Context, exec sqlx.ExtContext, templates []models.Template) error {
	if len(templates) == 0 {
		return nil
	}
	target := pick(r.db, exec)
	base, err := nextCreatedAt(ctx, target, "templates")
	if err != nil {
		return err
	}
	query := target.Rebind(`INSERT INTO templates (id, course_id, weekday, start_time, end_time, included_in_schedule, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`)
	for i := range templates {
		tpl := &templates[i]
		if tpl.ID == "" {
			tpl.ID = uuid.NewString()
		}
		if tpl.CreatedAt.IsZero() {
			tpl.CreatedAt = base.Add(time.Duration(i) * time.Microsecond)
		}
		if _, err := target.ExecContext(ctx, query, tpl.ID, tpl.CourseID, int(tpl.Weekday), tpl.StartTime, tpl.EndTime, tpl.Active, tpl.CreatedAt); err != nil {
			return fmt.Errorf("create template: %w", err)
		}
	}
	return nil
}

// FindByID returns a template regardless of its active flag.
func (r *TemplateRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Template, error) {
	target := pick(r.db, exec)
	query := target.Rebind(`SELECT ` + templateColumns + ` FROM templates t WHERE t.id = ?`)
	var tpl models.Template
	if err := sqlx.GetContext(ctx, target, &tpl, query, id); err != nil {
		return nil, err
	}
	return &tpl, nil
}

// ListByCourse returns every template of a course in insertion order.
func (r *TemplateRepository) ListByCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) ([]models.Template, error) {
	target := pick(r.db, exec)
	query := target.Rebind(`SELECT ` + templateColumns + ` FROM templates t WHERE t.course_id = ? ORDER BY t.created_at ASC, t.id ASC`)
	var templates []models.Template
	if err := sqlx.SelectContext(ctx, target, &templates, query, courseID); err != nil {
		return nil, fmt.Errorf("list templates by course: %w", err)
	}
	return templates, nil
}

// TemplatesForWeekday returns the active templates of a weekday joined with
// their course name, in insertion order.
func (r *TemplateRepository) TemplatesForWeekday(ctx context.Context, exec sqlx.ExtContext, weekday models.Weekday) ([]models.WeekdaySlot, error) {
	target := pick(r.db, exec)
	query := target.Rebind(`SELECT ` + templateColumns + `, c.name AS course_name
FROM templates t
JOIN courses c ON c.id = t.course_id
WHERE t.weekday = ? AND t.included_in_schedule = ?
ORDER BY t.created_at ASC, t.id ASC`)
	var slots []models.WeekdaySlot
	if err := sqlx.SelectContext(ctx, target, &slots, query, int(weekday), true); err != nil {
		return nil, fmt.Errorf("list templates for weekday: %w", err)
	}
	return slots, nil
}

// SetActive flips the included_in_schedule flag. sql.ErrNoRows signals a missing template.
func (r *TemplateRepository) SetActive(ctx context.Context, exec sqlx.ExtContext, id string, active bool) error {
	target := pick(r.db, exec)
	query := target.Rebind(`UPDATE templates SET included_in_schedule = ? WHERE id = ?`)
	res, err := target.ExecContext(ctx, query, active, id)
	if err != nil {
		return fmt.Errorf("set template active: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
