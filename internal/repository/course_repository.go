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

// CourseRepository persists courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Create inserts a course, assigning id and timestamps when missing.
func (r *CourseRepository) Create(ctx context.Context, exec sqlx.ExtContext, course *models.Course) error {
	target := pick(r.db, exec)
	now := time.Now().UTC()
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now

	query := target.Rebind(`INSERT INTO courses (id, name, required_percentage, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`)
	if _, err := target.ExecContext(ctx, query, course.ID, course.Name, course.RequiredPercentage, course.CreatedAt, course.UpdatedAt); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// FindByID returns a course without its templates.
func (r *CourseRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Course, error) {
	target := pick(r.db, exec)
	query := target.Rebind(`SELECT id, name, required_percentage, created_at, updated_at FROM courses WHERE id = ?`)
	var course models.Course
	if err := sqlx.GetContext(ctx, target, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// List returns every course ordered by name.
func (r *CourseRepository) List(ctx context.Context, exec sqlx.ExtContext) ([]models.Course, error) {
	target := pick(r.db, exec)
	const query = `SELECT id, name, required_percentage, created_at, updated_at FROM courses ORDER BY name ASC, created_at ASC`
	var courses []models.Course
	if err := sqlx.SelectContext(ctx, target, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// Count returns the number of stored courses.
func (r *CourseRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM courses`); err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}
	return total, nil
}

// Update stores the editable fields of a course. sql.ErrNoRows signals a missing course.
func (r *CourseRepository) Update(ctx context.Context, exec sqlx.ExtContext, course *models.Course) error {
	target := pick(r.db, exec)
	course.UpdatedAt = time.Now().UTC()
	query := target.Rebind(`UPDATE courses SET name = ?, required_percentage = ?, updated_at = ? WHERE id = ?`)
	res, err := target.ExecContext(ctx, query, course.Name, course.RequiredPercentage, course.UpdatedAt, course.ID)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a course together with its templates, extra classes and
// every attendance record linked to them.
func (r *CourseRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	target := pick(r.db, exec)
	statements := []struct {
		label string
		query string
	}{
		{"template attendance", `DELETE FROM attendance WHERE template_id IN (SELECT id FROM templates WHERE course_id = ?)`},
		{"extra attendance", `DELETE FROM attendance WHERE extra_id IN (SELECT id FROM extra_classes WHERE course_id = ?)`},
		{"templates", `DELETE FROM templates WHERE course_id = ?`},
		{"extra classes", `DELETE FROM extra_classes WHERE course_id = ?`},
	}
	for _, stmt := range statements {
		if _, err := target.ExecContext(ctx, target.Rebind(stmt.query), id); err != nil {
			return fmt.Errorf("delete course %s: %w", stmt.label, err)
		}
	}
	res, err := target.ExecContext(ctx, target.Rebind(`DELETE FROM courses WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
