package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dota-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// SubjectRepository stores tracked subjects keyed by (group, subject).
// Rating writes go through CompareAndSetRating so overlapping pollers cannot
// overwrite each other's baseline.
type SubjectRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewSubjectRepository(sqlDB *sql.DB, logger zerolog.Logger) *SubjectRepository {
	return &SubjectRepository{db: sqlDB, logger: logger}
}

const subjectColumns = `group_id, subject_id, last_rating, notifications_enabled, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubject(row rowScanner) (*domain.TrackedSubject, error) {
	var s domain.TrackedSubject
	if err := row.Scan(&s.GroupID, &s.SubjectID, &s.LastRating, &s.NotificationsEnabled, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SubjectRepository) Get(ctx context.Context, groupID string, subjectID int64) (*domain.TrackedSubject, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+subjectColumns+` FROM tracked_subjects WHERE group_id = ? AND subject_id = ?`,
		groupID, subjectID)

	subject, err := scanSubject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("subject %d in group %s: %w", subjectID, groupID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subject %d: %w", subjectID, err)
	}
	return subject, nil
}

// Upsert stores the subject, overwriting any previous registration in the
// same group, and appends change to the rating history in the same
// transaction when non-nil.
func (r *SubjectRepository) Upsert(ctx context.Context, subject *domain.TrackedSubject, change *domain.RatingChange) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO tracked_subjects (`+subjectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (group_id, subject_id) DO UPDATE SET
			last_rating = excluded.last_rating,
			notifications_enabled = excluded.notifications_enabled,
			updated_at = excluded.updated_at`,
		subject.GroupID, subject.SubjectID, subject.LastRating, subject.NotificationsEnabled, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert subject %d: %w", subject.SubjectID, err)
	}

	if change != nil {
		if err := insertRatingChange(ctx, tx, change); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit subject %d: %w", subject.SubjectID, err)
	}

	r.logger.Debug().
		Str("group_id", subject.GroupID).
		Int64("subject_id", subject.SubjectID).
		Int("rating", subject.LastRating).
		Msg("subject stored")
	return nil
}

// CompareAndSetRating replaces the stored rating only if it still equals
// expected. It reports false when another writer got there first or the
// subject was removed.
func (r *SubjectRepository) CompareAndSetRating(ctx context.Context, groupID string, subjectID int64, expected, next int, change *domain.RatingChange) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE tracked_subjects
		SET last_rating = ?, updated_at = ?
		WHERE group_id = ? AND subject_id = ? AND last_rating = ?`,
		next, time.Now().UTC(), groupID, subjectID, expected)
	if err != nil {
		return false, fmt.Errorf("failed to update rating for subject %d: %w", subjectID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		r.logger.Debug().
			Str("group_id", groupID).
			Int64("subject_id", subjectID).
			Int("expected", expected).
			Msg("rating changed concurrently, skipping write")
		return false, nil
	}

	if change != nil {
		if err := insertRatingChange(ctx, tx, change); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit rating for subject %d: %w", subjectID, err)
	}
	return true, nil
}

func (r *SubjectRepository) ListGroups(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT group_id FROM tracked_subjects ORDER BY group_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// ListByGroup returns the group's subjects in registration order. With
// enabledOnly set, subjects that muted notifications are left out.
func (r *SubjectRepository) ListByGroup(ctx context.Context, groupID string, enabledOnly bool) ([]domain.TrackedSubject, error) {
	query := `SELECT ` + subjectColumns + ` FROM tracked_subjects WHERE group_id = ?`
	if enabledOnly {
		query += ` AND notifications_enabled = 1`
	}
	query += ` ORDER BY created_at, subject_id`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects for group %s: %w", groupID, err)
	}
	defer rows.Close()

	var subjects []domain.TrackedSubject
	for rows.Next() {
		s, err := scanSubject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subject: %w", err)
		}
		subjects = append(subjects, *s)
	}
	return subjects, rows.Err()
}

func (r *SubjectRepository) Delete(ctx context.Context, groupID string, subjectID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM tracked_subjects WHERE group_id = ? AND subject_id = ?`, groupID, subjectID)
	if err != nil {
		return fmt.Errorf("failed to delete subject %d: %w", subjectID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("subject %d in group %s: %w", subjectID, groupID, domain.ErrNotFound)
	}
	return nil
}

// ToggleNotifications flips the flag and returns its new value.
func (r *SubjectRepository) ToggleNotifications(ctx context.Context, groupID string, subjectID int64) (bool, error) {
	var enabled bool
	err := r.db.QueryRowContext(ctx, `
		UPDATE tracked_subjects
		SET notifications_enabled = NOT notifications_enabled, updated_at = ?
		WHERE group_id = ? AND subject_id = ?
		RETURNING notifications_enabled`,
		time.Now().UTC(), groupID, subjectID).Scan(&enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("subject %d in group %s: %w", subjectID, groupID, domain.ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("failed to toggle notifications for subject %d: %w", subjectID, err)
	}
	return enabled, nil
}
