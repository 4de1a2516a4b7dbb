package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/wordvault/pkg/models"
)

// SettingsRepository persists the single settings row.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository creates a new repository instance.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the saved settings, or the defaults when nothing has
// been saved yet.
func (r *SettingsRepository) Get(ctx context.Context) (models.Settings, error) {
	var settings models.Settings
	err := r.db.GetContext(ctx, &settings, `
		SELECT review_strength, daily_review_limit, prioritize_difficult,
			notify_enabled, notify_start_hour, notify_end_hour
		FROM settings WHERE id = 1
	`)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultSettings(), nil
	}
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to get settings: %v", err)
	}
	return settings, nil
}

// Save writes the settings row, creating it on first save.
func (r *SettingsRepository) Save(ctx context.Context, settings models.Settings) error {
	query := r.db.Rebind(`
		INSERT INTO settings (id, review_strength, daily_review_limit, prioritize_difficult,
			notify_enabled, notify_start_hour, notify_end_hour)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			review_strength = excluded.review_strength,
			daily_review_limit = excluded.daily_review_limit,
			prioritize_difficult = excluded.prioritize_difficult,
			notify_enabled = excluded.notify_enabled,
			notify_start_hour = excluded.notify_start_hour,
			notify_end_hour = excluded.notify_end_hour
	`)
	_, err := r.db.ExecContext(ctx, query,
		settings.ReviewStrength, settings.DailyReviewLimit, settings.PrioritizeDifficult,
		settings.NotifyEnabled, settings.NotifyStartHour, settings.NotifyEndHour,
	)
	if err != nil {
		return fmt.Errorf("failed to save settings: %v", err)
	}
	return nil
}
