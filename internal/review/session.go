package review

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/example/wordvault/internal/srs"
	"github.com/example/wordvault/pkg/models"
)

// Status is the session lifecycle state.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// Mode selects which words a session draws from.
type Mode string

const (
	// ModeLearning reviews words in active rotation, due ones first.
	ModeLearning Mode = "learning"
	// ModeTest quizzes only words already marked learned.
	ModeTest Mode = "test"
	// ModeQuick reviews due words across statuses, hardest first.
	ModeQuick Mode = "quick"
)

// Sentinel errors callers branch on. A start with no candidates is a
// reported condition, distinct from a session that ended normally.
var (
	ErrNoWordsAvailable  = errors.New("review: no words available for session")
	ErrSessionInProgress = errors.New("review: a session is already in progress")
	ErrSessionNotActive  = errors.New("review: session is not active")
	ErrUnknownMode       = errors.New("review: unknown session mode")
)

// WordStore is the storage collaborator. Reads after writes are assumed
// consistent within the process; there is no optimistic concurrency.
type WordStore interface {
	Get(ctx context.Context, id string) (*models.WordEntry, error)
	Put(ctx context.Context, word *models.WordEntry) error
	ByStatus(ctx context.Context, status models.WordStatus) ([]models.WordEntry, error)
	Delete(ctx context.Context, id string) error
}

// ReviewLogger persists one entry per completed rating. Optional; a nil
// logger disables history.
type ReviewLogger interface {
	Append(ctx context.Context, entry *models.ReviewLogEntry) error
}

// ReviewedWord is one completed rating within the session.
type ReviewedWord struct {
	Word        models.WordEntry `json:"word"`
	Rating      models.Rating    `json:"rating"`
	TimeSpentMs int64            `json:"time_spent_ms"`
	Timestamp   int64            `json:"timestamp"`
}

// SessionStats are aggregates derived from the reviewed log on demand.
// They are never stored, so they cannot drift from the log.
type SessionStats struct {
	TotalWords      int     `json:"total_words"`
	ReviewedCount   int     `json:"reviewed_count"`
	CorrectCount    int     `json:"correct_count"`
	AverageRating   float64 `json:"average_rating"`
	TotalTimeSpent  int64   `json:"total_time_spent_ms"`
	CompletionRate  float64 `json:"completion_rate"`
	RetentionInSess float64 `json:"session_retention"`
}

// modeConfig fixes the selection policy per mode. Shuffling and
// priority ordering are mutually exclusive.
type modeConfig struct {
	statuses            []models.WordStatus
	dueFirst            bool // order due words ahead of the rest
	dueOnly             bool // drop words not yet due
	prioritizeDifficult bool // priority score ordering, no shuffle
	shuffle             bool
}

var modeConfigs = map[Mode]modeConfig{
	ModeLearning: {
		statuses: []models.WordStatus{models.StatusLearning},
		dueFirst: true,
		shuffle:  true,
	},
	ModeTest: {
		statuses: []models.WordStatus{models.StatusLearned},
		shuffle:  true,
	},
	ModeQuick: {
		statuses:            []models.WordStatus{models.StatusLearning, models.StatusLearned},
		dueOnly:             true,
		prioritizeDifficult: true,
	},
}

// Scheduler runs one review session at a time through the
// idle -> active <-> paused -> completed -> idle lifecycle. It is not
// safe for concurrent use; the caller serializes access.
type Scheduler struct {
	store    WordStore
	logger   ReviewLogger
	calc     *srs.Calculator
	strength models.ReviewStrength
	rng      *rand.Rand
	now      func() time.Time

	// overrides the per-mode config when the user prefers hard-first
	prioritizeDifficult bool

	sessionID string
	status    Status
	mode      Mode
	startedAt time.Time
	endedAt   time.Time
	words     []models.WordEntry
	index     int
	flipped   bool
	reviewed  []ReviewedWord
}

// Option tweaks a Scheduler at construction.
type Option func(*Scheduler)

// WithRand replaces the random source used for shuffling. Tests pass a
// seeded source.
func WithRand(rng *rand.Rand) Option {
	return func(s *Scheduler) { s.rng = rng }
}

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithLogger sets the review history sink.
func WithLogger(logger ReviewLogger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// WithPrioritizeDifficult makes every mode rank candidates by priority
// score instead of shuffling, per the user's settings flag.
func WithPrioritizeDifficult() Option {
	return func(s *Scheduler) { s.prioritizeDifficult = true }
}

// NewScheduler creates an idle session scheduler over the given store.
func NewScheduler(store WordStore, calc *srs.Calculator, strength models.ReviewStrength, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:    store,
		calc:     calc,
		strength: strength,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
		status:   StatusIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status returns the current lifecycle state.
func (s *Scheduler) Status() Status { return s.status }

// Mode returns the mode of the running or last session.
func (s *Scheduler) Mode() Mode { return s.mode }

// SessionID returns the id of the running or last session.
func (s *Scheduler) SessionID() string { return s.sessionID }

// Start loads candidates for the mode, orders and truncates them to
// count, and activates the session. With zero candidates the scheduler
// stays idle and reports ErrNoWordsAvailable.
func (s *Scheduler) Start(ctx context.Context, mode Mode, count int) error {
	if s.status != StatusIdle {
		return ErrSessionInProgress
	}

	words, err := s.selectWords(ctx, mode, count)
	if err != nil {
		return err
	}
	if len(words) == 0 {
		return ErrNoWordsAvailable
	}

	s.sessionID = uuid.NewString()
	s.status = StatusActive
	s.mode = mode
	s.startedAt = s.now()
	s.endedAt = time.Time{}
	s.words = words
	s.index = 0
	s.flipped = false
	s.reviewed = nil

	log.Printf("review: started %s session %s with %d words", mode, s.sessionID, len(words))
	return nil
}

// selectWords applies the mode's selection policy against the store.
func (s *Scheduler) selectWords(ctx context.Context, mode Mode, count int) ([]models.WordEntry, error) {
	cfg, ok := modeConfigs[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	if s.prioritizeDifficult {
		cfg.prioritizeDifficult = true
		cfg.shuffle = false
	}

	var candidates []models.WordEntry
	for _, status := range cfg.statuses {
		words, err := s.store.ByStatus(ctx, status)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s words: %v", status, err)
		}
		candidates = append(candidates, words...)
	}

	nowMs := s.now().UnixMilli()
	if cfg.dueOnly {
		kept := candidates[:0]
		for _, w := range candidates {
			if w.Review.DueAt <= nowMs {
				kept = append(kept, w)
			}
		}
		candidates = kept
	}

	switch {
	case cfg.prioritizeDifficult:
		// Higher score first; stable so equal scores keep insertion order.
		sort.SliceStable(candidates, func(i, j int) bool {
			return s.wordPriority(candidates[i], nowMs) > s.wordPriority(candidates[j], nowMs)
		})
	case cfg.dueFirst:
		// Due ahead of not-due, soonest due first, ties by insertion order.
		sort.SliceStable(candidates, func(i, j int) bool {
			di, dj := candidates[i].Review.DueAt <= nowMs, candidates[j].Review.DueAt <= nowMs
			if di != dj {
				return di
			}
			if di {
				return candidates[i].Review.DueAt < candidates[j].Review.DueAt
			}
			return false
		})
	case cfg.shuffle:
		// Without a ranking the cut would always keep the same prefix,
		// so shuffle first to draw a uniform random subset.
		s.shuffleWords(candidates)
	}

	if count > 0 && len(candidates) > count {
		candidates = candidates[:count]
	}

	if cfg.shuffle && cfg.dueFirst {
		// The due ordering decided who made the batch; now randomize
		// presentation within it.
		s.shuffleWords(candidates)
	}
	return candidates, nil
}

func (s *Scheduler) shuffleWords(words []models.WordEntry) {
	s.rng.Shuffle(len(words), func(i, j int) {
		words[i], words[j] = words[j], words[i]
	})
}

// wordPriority scores how urgently a word needs review. Overdue and
// poorly retained words float up; mastered words sink.
func (s *Scheduler) wordPriority(word models.WordEntry, nowMs int64) float64 {
	var priority float64
	switch word.Status {
	case models.StatusLearning:
		priority += 60
	case models.StatusLearned:
		priority += 40
	}

	daysOverdue := float64(nowMs-word.Review.DueAt) / float64(24*60*60*1000)
	if daysOverdue > 0 {
		if bump := daysOverdue * 10; bump < 50 {
			priority += bump
		} else {
			priority += 50
		}
	}

	priority += 10

	if word.Review.ReviewCount > 0 {
		successRate := float64(word.Review.Streak) / float64(word.Review.ReviewCount)
		priority -= successRate * 20
	}
	return priority
}

// Current returns the word under review, or nil outside an active or
// paused session.
func (s *Scheduler) Current() *models.WordEntry {
	if s.status != StatusActive && s.status != StatusPaused {
		return nil
	}
	if s.index >= len(s.words) {
		return nil
	}
	word := s.words[s.index]
	return &word
}

// Words returns the fixed session batch.
func (s *Scheduler) Words() []models.WordEntry {
	out := make([]models.WordEntry, len(s.words))
	copy(out, s.words)
	return out
}

// Index returns the cursor position in the session batch.
func (s *Scheduler) Index() int { return s.index }

// FlipCard toggles the presentation flag on the current card. It is
// not a lifecycle transition.
func (s *Scheduler) FlipCard() {
	if s.status == StatusActive {
		s.flipped = !s.flipped
	}
}

// Flipped reports whether the current card is showing its back.
func (s *Scheduler) Flipped() bool { return s.flipped }

// Rate applies the rating to the current word: the calculator produces
// the next record, the store persists it, the session log grows one
// entry, and the cursor advances. If persistence fails nothing is
// applied and the cursor stays put so the caller can retry. Rating the
// last word completes the session.
func (s *Scheduler) Rate(ctx context.Context, rating models.Rating, timeSpent time.Duration) error {
	if s.status != StatusActive {
		return ErrSessionNotActive
	}
	if !rating.Valid() {
		return fmt.Errorf("review: invalid rating %q", rating)
	}

	now := s.now()
	word := s.words[s.index]
	updated := s.calc.MarkReviewed(word, rating, s.strength, now)

	if err := s.store.Put(ctx, &updated); err != nil {
		log.Printf("review: failed to persist rating for word %s: %v", word.ID, err)
		return fmt.Errorf("failed to save review result: %v", err)
	}

	if s.logger != nil {
		entry := &models.ReviewLogEntry{
			WordID:      word.ID,
			SessionID:   s.sessionID,
			Rating:      rating,
			TimeSpentMs: timeSpent.Milliseconds(),
			ReviewedAt:  now.UnixMilli(),
		}
		if err := s.logger.Append(ctx, entry); err != nil {
			// History is best-effort; the rating itself is already applied.
			log.Printf("review: failed to log review of word %s: %v", word.ID, err)
		}
	}

	s.reviewed = append(s.reviewed, ReviewedWord{
		Word:        updated,
		Rating:      rating,
		TimeSpentMs: timeSpent.Milliseconds(),
		Timestamp:   now.UnixMilli(),
	})
	s.flipped = false

	if s.index == len(s.words)-1 {
		s.complete()
		return nil
	}
	s.index++
	return nil
}

// Pause suspends an active session. Calling it from any other state is
// a safe no-op.
func (s *Scheduler) Pause() {
	if s.status == StatusActive {
		s.status = StatusPaused
	}
}

// Resume reactivates a paused session. No-op elsewhere.
func (s *Scheduler) Resume() {
	if s.status == StatusPaused {
		s.status = StatusActive
	}
}

// End finalizes an active or paused session early.
func (s *Scheduler) End() {
	if s.status == StatusActive || s.status == StatusPaused {
		s.complete()
	}
}

func (s *Scheduler) complete() {
	s.status = StatusCompleted
	s.endedAt = s.now()
	log.Printf("review: session %s completed, %d/%d words reviewed",
		s.sessionID, len(s.reviewed), len(s.words))
}

// Reset clears a completed session back to idle.
func (s *Scheduler) Reset() {
	if s.status != StatusCompleted {
		return
	}
	s.sessionID = ""
	s.status = StatusIdle
	s.mode = ""
	s.startedAt = time.Time{}
	s.endedAt = time.Time{}
	s.words = nil
	s.index = 0
	s.flipped = false
	s.reviewed = nil
}

// Reviewed returns a copy of the per-rating session log.
func (s *Scheduler) Reviewed() []ReviewedWord {
	out := make([]ReviewedWord, len(s.reviewed))
	copy(out, s.reviewed)
	return out
}

// Stats derives the session aggregates from the reviewed log.
func (s *Scheduler) Stats() SessionStats {
	stats := SessionStats{
		TotalWords:    len(s.words),
		ReviewedCount: len(s.reviewed),
	}
	if len(s.reviewed) == 0 {
		return stats
	}

	var ratingSum int
	var retained int
	for _, r := range s.reviewed {
		ratingSum += r.Rating.Score()
		stats.TotalTimeSpent += r.TimeSpentMs
		if r.Rating.IsSuccess() {
			stats.CorrectCount++
		}
		if r.Word.Review.Streak > 0 {
			retained++
		}
	}
	stats.AverageRating = float64(ratingSum) / float64(len(s.reviewed))
	stats.CompletionRate = float64(len(s.reviewed)) / float64(len(s.words))
	stats.RetentionInSess = float64(retained) / float64(len(s.reviewed))
	return stats
}
