package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/wordvault/pkg/models"
)

// ReviewLogRepository persists one row per completed rating. The log
// feeds the history view and the daily-limit suggestion.
type ReviewLogRepository struct {
	db *sqlx.DB
}

// NewReviewLogRepository creates a new repository instance.
func NewReviewLogRepository(db *sqlx.DB) *ReviewLogRepository {
	return &ReviewLogRepository{db: db}
}

// Append records a completed rating.
func (r *ReviewLogRepository) Append(ctx context.Context, entry *models.ReviewLogEntry) error {
	query := r.db.Rebind(`
		INSERT INTO review_log (word_id, session_id, rating, time_spent_ms, reviewed_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	res, err := r.db.ExecContext(ctx, query,
		entry.WordID, entry.SessionID, entry.Rating, entry.TimeSpentMs, entry.ReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append review log: %v", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

// BySession returns the log of one session, oldest first.
func (r *ReviewLogRepository) BySession(ctx context.Context, sessionID string) ([]models.ReviewLogEntry, error) {
	var entries []models.ReviewLogEntry
	query := r.db.Rebind("SELECT * FROM review_log WHERE session_id = ? ORDER BY reviewed_at")
	if err := r.db.SelectContext(ctx, &entries, query, sessionID); err != nil {
		return nil, fmt.Errorf("failed to get session log: %v", err)
	}
	return entries, nil
}

// Recent returns the latest entries across all sessions, newest first.
func (r *ReviewLogRepository) Recent(ctx context.Context, limit int) ([]models.ReviewLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []models.ReviewLogEntry
	query := r.db.Rebind("SELECT * FROM review_log ORDER BY reviewed_at DESC LIMIT ?")
	if err := r.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("failed to get recent log: %v", err)
	}
	return entries, nil
}

// DailyActivity summarizes recent reviewing for the limit suggestion:
// how much of the daily limit got done on average, and how long a
// day's reviewing takes.
type DailyActivity struct {
	Days           int
	CompletionRate float64 // mean reviews-per-day divided by the daily limit
	AvgTimeMinutes float64 // mean total review time per active day
}

// Activity aggregates the last N days of the log against the given
// daily limit. Days with no reviews count as zero completion.
func (r *ReviewLogRepository) Activity(ctx context.Context, days, dailyLimit int, now time.Time) (DailyActivity, error) {
	if days <= 0 {
		days = 7
	}
	sinceMs := now.AddDate(0, 0, -days).UnixMilli()

	var row struct {
		Reviews     int   `db:"reviews"`
		TotalTimeMs int64 `db:"total_time_ms"`
	}
	query := r.db.Rebind(`
		SELECT COUNT(*) AS reviews, COALESCE(SUM(time_spent_ms), 0) AS total_time_ms
		FROM review_log WHERE reviewed_at >= ?
	`)
	if err := r.db.GetContext(ctx, &row, query, sinceMs); err != nil {
		return DailyActivity{}, fmt.Errorf("failed to aggregate review activity: %v", err)
	}

	activity := DailyActivity{Days: days}
	perDay := float64(row.Reviews) / float64(days)
	if dailyLimit > 0 {
		activity.CompletionRate = perDay / float64(dailyLimit)
	}
	activity.AvgTimeMinutes = float64(row.TotalTimeMs) / float64(days) / 60000.0
	return activity, nil
}

// RetentionCounts returns successful and total review counts since the
// given time, for the retention rate shown on the stats view.
func (r *ReviewLogRepository) RetentionCounts(ctx context.Context, sinceMs int64) (successful, total int, err error) {
	var row struct {
		Successful int `db:"successful"`
		Total      int `db:"total"`
	}
	query := r.db.Rebind(`
		SELECT
			COALESCE(SUM(CASE WHEN rating IN ('good', 'easy') THEN 1 ELSE 0 END), 0) AS successful,
			COUNT(*) AS total
		FROM review_log WHERE reviewed_at >= ?
	`)
	if err := r.db.GetContext(ctx, &row, query, sinceMs); err != nil {
		return 0, 0, fmt.Errorf("failed to aggregate retention: %v", err)
	}
	return row.Successful, row.Total, nil
}
