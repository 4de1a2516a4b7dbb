package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/wordvault/pkg/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("database: not found")

// WordRepository handles database operations for vault entries. It
// satisfies the review scheduler's store interface.
type WordRepository struct {
	db *sqlx.DB
}

// NewWordRepository creates a new repository instance.
func NewWordRepository(db *sqlx.DB) *WordRepository {
	return &WordRepository{db: db}
}

// wordRow is the flat database shape of a word entry. Review state
// lives in the same row; the split into a nested record happens here.
type wordRow struct {
	ID             string  `db:"id"`
	Text           string  `db:"text"`
	Language       string  `db:"language"`
	Definition     string  `db:"definition"`
	PartOfSpeech   string  `db:"part_of_speech"`
	Context        string  `db:"context"`
	Status         string  `db:"status"`
	AddedAt        int64   `db:"added_at"`
	DueAt          int64   `db:"due_at"`
	IntervalDays   int     `db:"interval_days"`
	Ease           float64 `db:"ease"`
	Streak         int     `db:"streak"`
	LastReviewedAt *int64  `db:"last_reviewed_at"`
	ReviewCount    int     `db:"review_count"`
}

func (row *wordRow) toModel() models.WordEntry {
	return models.WordEntry{
		ID:           row.ID,
		Text:         row.Text,
		Language:     row.Language,
		Definition:   row.Definition,
		PartOfSpeech: row.PartOfSpeech,
		Context:      row.Context,
		Status:       models.WordStatus(row.Status),
		AddedAt:      row.AddedAt,
		Review: models.ReviewRecord{
			DueAt:          row.DueAt,
			IntervalDays:   row.IntervalDays,
			Ease:           row.Ease,
			Streak:         row.Streak,
			LastReviewedAt: row.LastReviewedAt,
			ReviewCount:    row.ReviewCount,
		},
	}
}

func newWordRow(w *models.WordEntry) wordRow {
	return wordRow{
		ID:             w.ID,
		Text:           w.Text,
		Language:       w.Language,
		Definition:     w.Definition,
		PartOfSpeech:   w.PartOfSpeech,
		Context:        w.Context,
		Status:         string(w.Status),
		AddedAt:        w.AddedAt,
		DueAt:          w.Review.DueAt,
		IntervalDays:   w.Review.IntervalDays,
		Ease:           w.Review.Ease,
		Streak:         w.Review.Streak,
		LastReviewedAt: w.Review.LastReviewedAt,
		ReviewCount:    w.Review.ReviewCount,
	}
}

// Get returns a single entry by ID.
func (r *WordRepository) Get(ctx context.Context, id string) (*models.WordEntry, error) {
	var row wordRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind("SELECT * FROM words WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get word: %v", err)
	}
	word := row.toModel()
	return &word, nil
}

// Put inserts or replaces an entry. Review state is written in the
// same statement so a rating persists atomically.
func (r *WordRepository) Put(ctx context.Context, word *models.WordEntry) error {
	row := newWordRow(word)
	query := r.db.Rebind(`
		INSERT INTO words (id, text, language, definition, part_of_speech, context, status,
			added_at, due_at, interval_days, ease, streak, last_reviewed_at, review_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			text = excluded.text,
			language = excluded.language,
			definition = excluded.definition,
			part_of_speech = excluded.part_of_speech,
			context = excluded.context,
			status = excluded.status,
			added_at = excluded.added_at,
			due_at = excluded.due_at,
			interval_days = excluded.interval_days,
			ease = excluded.ease,
			streak = excluded.streak,
			last_reviewed_at = excluded.last_reviewed_at,
			review_count = excluded.review_count
	`)
	_, err := r.db.ExecContext(ctx, query,
		row.ID, row.Text, row.Language, row.Definition, row.PartOfSpeech, row.Context, row.Status,
		row.AddedAt, row.DueAt, row.IntervalDays, row.Ease, row.Streak, row.LastReviewedAt, row.ReviewCount,
	)
	if err != nil {
		return fmt.Errorf("failed to save word: %v", err)
	}
	return nil
}

// ByStatus returns all entries with the given status.
func (r *WordRepository) ByStatus(ctx context.Context, status models.WordStatus) ([]models.WordEntry, error) {
	var rows []wordRow
	query := r.db.Rebind("SELECT * FROM words WHERE status = ? ORDER BY added_at")
	if err := r.db.SelectContext(ctx, &rows, query, string(status)); err != nil {
		return nil, fmt.Errorf("failed to get words by status: %v", err)
	}
	return toModels(rows), nil
}

// All returns every entry that is not soft-deleted.
func (r *WordRepository) All(ctx context.Context) ([]models.WordEntry, error) {
	var rows []wordRow
	query := r.db.Rebind("SELECT * FROM words WHERE status != ? ORDER BY added_at")
	if err := r.db.SelectContext(ctx, &rows, query, string(models.StatusDeleted)); err != nil {
		return nil, fmt.Errorf("failed to get words: %v", err)
	}
	return toModels(rows), nil
}

// Due returns active entries whose due time has passed, soonest first.
// A limit of 0 means no limit.
func (r *WordRepository) Due(ctx context.Context, nowMs int64, limit int) ([]models.WordEntry, error) {
	var rows []wordRow
	query := "SELECT * FROM words WHERE status != ? AND due_at <= ? ORDER BY due_at"
	args := []interface{}{string(models.StatusDeleted), nowMs}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get due words: %v", err)
	}
	return toModels(rows), nil
}

// Search matches entries by text or definition, case-insensitive.
func (r *WordRepository) Search(ctx context.Context, term string) ([]models.WordEntry, error) {
	var rows []wordRow
	pattern := "%" + term + "%"
	query := r.db.Rebind(`
		SELECT * FROM words
		WHERE status != ? AND (LOWER(text) LIKE LOWER(?) OR LOWER(definition) LIKE LOWER(?))
		ORDER BY text
	`)
	if err := r.db.SelectContext(ctx, &rows, query, string(models.StatusDeleted), pattern, pattern); err != nil {
		return nil, fmt.Errorf("failed to search words: %v", err)
	}
	return toModels(rows), nil
}

// Delete removes an entry permanently. Callers that want the entry to
// stay recoverable should flip its status to deleted via Put instead.
func (r *WordRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM words WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete word: %v", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByStatus reports how many entries hold each status.
func (r *WordRepository) CountByStatus(ctx context.Context) (map[models.WordStatus]int, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	err := r.db.SelectContext(ctx, &rows, "SELECT status, COUNT(*) AS count FROM words GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to count words: %v", err)
	}
	counts := make(map[models.WordStatus]int, len(rows))
	for _, row := range rows {
		counts[models.WordStatus(row.Status)] = row.Count
	}
	return counts, nil
}

func toModels(rows []wordRow) []models.WordEntry {
	words := make([]models.WordEntry, len(rows))
	for i := range rows {
		words[i] = rows[i].toModel()
	}
	return words
}
