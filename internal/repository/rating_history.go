package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dota-tracker/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type RatingHistoryRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewRatingHistoryRepository(sqlDB *sql.DB, logger zerolog.Logger) *RatingHistoryRepository {
	return &RatingHistoryRepository{db: sqlDB, logger: logger}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertRatingChange(ctx context.Context, q execer, change *domain.RatingChange) error {
	if change.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate nanoid: %w", err)
		}
		change.ID = id
	}
	// created_at is compared as text, so every row is stored in UTC.
	if change.CreatedAt.IsZero() {
		change.CreatedAt = time.Now()
	}
	change.CreatedAt = change.CreatedAt.UTC()

	_, err := q.ExecContext(ctx, `
		INSERT INTO rating_history (id, group_id, subject_id, old_rating, new_rating, old_tier, new_tier, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		change.ID, change.GroupID, change.SubjectID, change.OldRating, change.NewRating,
		change.OldTier, change.NewTier, string(change.Source), change.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert rating history: %w", err)
	}
	return nil
}

// ListBySubject returns the newest changes first.
func (r *RatingHistoryRepository) ListBySubject(ctx context.Context, groupID string, subjectID int64, limit int) ([]domain.RatingChange, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, group_id, subject_id, old_rating, new_rating, old_tier, new_tier, source, created_at
		FROM rating_history
		WHERE group_id = ? AND subject_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`,
		groupID, subjectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list rating history for subject %d: %w", subjectID, err)
	}
	defer rows.Close()

	var result []domain.RatingChange
	for rows.Next() {
		var c domain.RatingChange
		var source string
		if err := rows.Scan(&c.ID, &c.GroupID, &c.SubjectID, &c.OldRating, &c.NewRating,
			&c.OldTier, &c.NewTier, &source, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating history: %w", err)
		}
		c.Source = domain.RatingChangeSource(source)
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	r.logger.Debug().Int64("subject_id", subjectID).Int("count", len(result)).Msg("rating history loaded")
	return result, nil
}
