package models

// Settings holds the per-user preferences that influence scheduling
// and reminders. Stored as a single row; there is one reviewing user
// per installation.
type Settings struct {
	ReviewStrength      ReviewStrength `json:"review_strength" db:"review_strength"`
	DailyReviewLimit    int            `json:"daily_review_limit" db:"daily_review_limit"`
	PrioritizeDifficult bool           `json:"prioritize_difficult" db:"prioritize_difficult"`
	NotifyEnabled       bool           `json:"notify_enabled" db:"notify_enabled"`
	NotifyStartHour     int            `json:"notify_start_hour" db:"notify_start_hour"` // 0-23
	NotifyEndHour       int            `json:"notify_end_hour" db:"notify_end_hour"`     // 0-23
}

// DefaultSettings returns the settings applied before the user has
// saved anything.
func DefaultSettings() Settings {
	return Settings{
		ReviewStrength:      StrengthStandard,
		DailyReviewLimit:    20,
		PrioritizeDifficult: false,
		NotifyEnabled:       true,
		NotifyStartHour:     9,
		NotifyEndHour:       21,
	}
}
