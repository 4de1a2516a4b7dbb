package models

import "time"

// WordStatus describes where a word sits in its learning lifecycle.
type WordStatus string

const (
	// StatusLearning marks words in active rotation.
	StatusLearning WordStatus = "learning"
	// StatusLearned marks words graduated out of the review queue.
	StatusLearned WordStatus = "learned"
	// StatusDeleted marks words removed by the user but kept for history.
	StatusDeleted WordStatus = "deleted"
)

// WordEntry represents a vocabulary item being memorized
type WordEntry struct {
	ID           string       `json:"id" db:"id"`
	Text         string       `json:"text" db:"text"`
	Language     string       `json:"language" db:"language"`
	Definition   string       `json:"definition" db:"definition"`
	PartOfSpeech string       `json:"part_of_speech" db:"part_of_speech"`
	Context      string       `json:"context" db:"context"` // Sentence the word was captured from
	Status       WordStatus   `json:"status" db:"status"`
	AddedAt      int64        `json:"added_at" db:"added_at"`
	Review       ReviewRecord `json:"review"`
}

// ReviewRecord holds the per-word scheduling state. It is replaced
// wholesale on every rating, never partially updated.
type ReviewRecord struct {
	DueAt          int64   `json:"due_at" db:"due_at"` // Unix ms; due iff <= now
	IntervalDays   int     `json:"interval_days" db:"interval_days"`
	Ease           float64 `json:"ease" db:"ease"` // Bounded to [1.3, 2.5]
	Streak         int     `json:"streak" db:"streak"`
	LastReviewedAt *int64  `json:"last_reviewed_at" db:"last_reviewed_at"` // nil before first review
	ReviewCount    int     `json:"review_count" db:"review_count"`
}

// NewReviewRecord returns the scheduling state for a freshly added word:
// due immediately, default ease, nothing reviewed yet.
func NewReviewRecord(now time.Time) ReviewRecord {
	return ReviewRecord{
		DueAt:        now.UnixMilli(),
		IntervalDays: 0,
		Ease:         2.5,
		Streak:       0,
		ReviewCount:  0,
	}
}
