package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// nextCreatedAt returns a creation stamp strictly after the newest created_at
// in table, at the microsecond precision every supported store keeps. Rows are
// listed by created_at, so this keeps listing order equal to insertion order
// even when two inserts land in the same microsecond.
func nextCreatedAt(ctx context.Context, target sqlx.ExtContext, table string) (time.Time, error) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	var latest time.Time
	err := sqlx.GetContext(ctx, target, &latest, `SELECT created_at FROM `+table+` ORDER BY created_at DESC LIMIT 1`)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return now, nil
	case err != nil:
		return time.Time{}, fmt.Errorf("latest %s timestamp: %w", table, err)
	}

	latest = latest.UTC().Truncate(time.Microsecond)
	if now.After(latest) {
		return now, nil
	}
	return latest.Add(time.Microsecond), nil
}
