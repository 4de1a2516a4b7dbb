package review

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/example/wordvault/internal/srs"
	"github.com/example/wordvault/pkg/models"
)

// memStore is an in-memory WordStore double. failPuts makes every Put
// fail to exercise the rollback path.
type memStore struct {
	words    map[string]models.WordEntry
	order    []string
	failPuts bool
	puts     int
}

func newMemStore(words ...models.WordEntry) *memStore {
	s := &memStore{words: make(map[string]models.WordEntry)}
	for _, w := range words {
		s.words[w.ID] = w
		s.order = append(s.order, w.ID)
	}
	return s
}

func (s *memStore) Get(_ context.Context, id string) (*models.WordEntry, error) {
	w, ok := s.words[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &w, nil
}

func (s *memStore) Put(_ context.Context, word *models.WordEntry) error {
	if s.failPuts {
		return errors.New("storage unavailable")
	}
	if _, ok := s.words[word.ID]; !ok {
		s.order = append(s.order, word.ID)
	}
	s.words[word.ID] = *word
	s.puts++
	return nil
}

func (s *memStore) ByStatus(_ context.Context, status models.WordStatus) ([]models.WordEntry, error) {
	var out []models.WordEntry
	for _, id := range s.order {
		if w := s.words[id]; w.Status == status {
			out = append(out, w)
		}
	}
	return out, nil
}

func (s *memStore) Delete(_ context.Context, id string) error {
	delete(s.words, id)
	return nil
}

type memLogger struct {
	entries []models.ReviewLogEntry
}

func (l *memLogger) Append(_ context.Context, entry *models.ReviewLogEntry) error {
	l.entries = append(l.entries, *entry)
	return nil
}

func word(id string, status models.WordStatus, dueAt int64) models.WordEntry {
	return models.WordEntry{
		ID:     id,
		Text:   id,
		Status: status,
		Review: models.ReviewRecord{DueAt: dueAt, Ease: 2.5},
	}
}

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func testScheduler(store WordStore, opts ...Option) *Scheduler {
	calc := srs.NewCalculatorWithSource(rand.NewSource(1))
	base := []Option{
		WithRand(rand.New(rand.NewSource(1))),
		WithClock(fixedClock(1_000_000)),
	}
	return NewScheduler(store, calc, models.StrengthStandard, append(base, opts...)...)
}

func TestStartWithNoWordsStaysIdle(t *testing.T) {
	s := testScheduler(newMemStore())

	err := s.Start(context.Background(), ModeTest, 10)
	if !errors.Is(err, ErrNoWordsAvailable) {
		t.Fatalf("err = %v, want ErrNoWordsAvailable", err)
	}
	if s.Status() != StatusIdle {
		t.Errorf("status = %s, want idle", s.Status())
	}
}

func TestStartWhileActiveRejected(t *testing.T) {
	store := newMemStore(word("a", models.StatusLearning, 0))
	s := testScheduler(store)

	if err := s.Start(context.Background(), ModeLearning, 5); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Start(context.Background(), ModeLearning, 5); !errors.Is(err, ErrSessionInProgress) {
		t.Errorf("second start err = %v, want ErrSessionInProgress", err)
	}
}

func TestUnknownModeRejected(t *testing.T) {
	s := testScheduler(newMemStore(word("a", models.StatusLearning, 0)))
	if err := s.Start(context.Background(), Mode("cram"), 5); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("err = %v, want ErrUnknownMode", err)
	}
}

func TestLearningModeSelectsLearningStatusOnly(t *testing.T) {
	store := newMemStore(
		word("l1", models.StatusLearning, 0),
		word("done", models.StatusLearned, 0),
		word("l2", models.StatusLearning, 0),
	)
	s := testScheduler(store)

	if err := s.Start(context.Background(), ModeLearning, 10); err != nil {
		t.Fatalf("start: %v", err)
	}
	for _, w := range s.Words() {
		if w.Status != models.StatusLearning {
			t.Errorf("word %s has status %s in learning mode", w.ID, w.Status)
		}
	}
	if len(s.Words()) != 2 {
		t.Errorf("got %d words, want 2", len(s.Words()))
	}
}

func TestTestModeSelectsLearnedOnly(t *testing.T) {
	store := newMemStore(
		word("l1", models.StatusLearning, 0),
		word("done1", models.StatusLearned, 0),
		word("done2", models.StatusLearned, 0),
	)
	s := testScheduler(store)

	if err := s.Start(context.Background(), ModeTest, 10); err != nil {
		t.Fatalf("start: %v", err)
	}
	for _, w := range s.Words() {
		if w.Status != models.StatusLearned {
			t.Errorf("word %s has status %s in test mode", w.ID, w.Status)
		}
	}
}

func TestLearningModeTruncationKeepsDueWords(t *testing.T) {
	// Clock at 1_000_000ms: two words due, two far in the future. The
	// due ones must survive truncation to 2 whatever the shuffle does.
	store := newMemStore(
		word("future1", models.StatusLearning, 2_000_000),
		word("due1", models.StatusLearning, 500),
		word("future2", models.StatusLearning, 3_000_000),
		word("due2", models.StatusLearning, 100),
	)
	s := testScheduler(store)

	if err := s.Start(context.Background(), ModeLearning, 2); err != nil {
		t.Fatalf("start: %v", err)
	}
	got := map[string]bool{}
	for _, w := range s.Words() {
		got[w.ID] = true
	}
	if !got["due1"] || !got["due2"] {
		t.Errorf("truncation dropped due words, kept %v", got)
	}
}

func TestQuickModeDueOnlyAndPriorityOrdered(t *testing.T) {
	dayMs := int64(24 * 60 * 60 * 1000)
	nowMs := int64(10 * dayMs)
	store := newMemStore(
		// learned, barely due: 40 + ~0 + 10 = ~50
		word("learned-due", models.StatusLearned, nowMs-1),
		// learning, 3 days overdue: 60 + 30 + 10 = 100
		word("overdue", models.StatusLearning, nowMs-3*dayMs),
		// learning, not due: excluded entirely
		word("future", models.StatusLearning, nowMs+dayMs),
	)
	s := testScheduler(store, WithClock(fixedClock(nowMs)))

	if err := s.Start(context.Background(), ModeQuick, 10); err != nil {
		t.Fatalf("start: %v", err)
	}
	words := s.Words()
	if len(words) != 2 {
		t.Fatalf("got %d words, want 2 (not-due excluded)", len(words))
	}
	if words[0].ID != "overdue" || words[1].ID != "learned-due" {
		t.Errorf("priority order = [%s, %s], want [overdue, learned-due]", words[0].ID, words[1].ID)
	}
}

func TestPriorityPenalizesMasteredWords(t *testing.T) {
	s := testScheduler(newMemStore())
	nowMs := int64(1_000_000)

	fresh := word("fresh", models.StatusLearning, nowMs)
	mastered := word("mastered", models.StatusLearning, nowMs)
	mastered.Review.ReviewCount = 10
	mastered.Review.Streak = 10

	if s.wordPriority(fresh, nowMs) <= s.wordPriority(mastered, nowMs) {
		t.Errorf("mastered word should score below a fresh one")
	}
	// Penalty is exactly (streak/reviewCount)*20.
	diff := s.wordPriority(fresh, nowMs) - s.wordPriority(mastered, nowMs)
	if math.Abs(diff-20) > 1e-9 {
		t.Errorf("penalty = %.2f, want 20", diff)
	}
}

func TestRateAdvancesAndCompletes(t *testing.T) {
	store := newMemStore(
		word("a", models.StatusLearning, 0),
		word("b", models.StatusLearning, 0),
	)
	logger := &memLogger{}
	s := testScheduler(store, WithLogger(logger))

	if err := s.Start(context.Background(), ModeLearning, 10); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := s.Rate(context.Background(), models.RatingGood, 5*time.Second); err != nil {
		t.Fatalf("rate 1: %v", err)
	}
	if s.Status() != StatusActive || s.Index() != 1 {
		t.Errorf("after first rating: status=%s index=%d", s.Status(), s.Index())
	}

	if err := s.Rate(context.Background(), models.RatingEasy, 3*time.Second); err != nil {
		t.Fatalf("rate 2: %v", err)
	}
	if s.Status() != StatusCompleted {
		t.Errorf("after last rating: status=%s, want completed", s.Status())
	}

	if len(s.Reviewed()) != 2 {
		t.Fatalf("reviewed log has %d entries, want 2", len(s.Reviewed()))
	}
	if len(logger.entries) != 2 {
		t.Errorf("persisted log has %d entries, want 2", len(logger.entries))
	}
	if store.puts != 2 {
		t.Errorf("store saw %d puts, want 2", store.puts)
	}

	// The persisted records must carry the calculator's output.
	for _, id := range []string{"a", "b"} {
		w, err := store.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("get %s: %v", id, err)
		}
		if w.Review.ReviewCount != 1 {
			t.Errorf("word %s review count = %d, want 1", id, w.Review.ReviewCount)
		}
	}
}

func TestReviewedNeverExceedsSessionSize(t *testing.T) {
	store := newMemStore(word("a", models.StatusLearning, 0))
	s := testScheduler(store)

	if err := s.Start(context.Background(), ModeLearning, 10); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Rate(context.Background(), models.RatingGood, time.Second); err != nil {
		t.Fatalf("rate: %v", err)
	}
	// Session completed; further ratings must be rejected.
	if err := s.Rate(context.Background(), models.RatingGood, time.Second); !errors.Is(err, ErrSessionNotActive) {
		t.Errorf("rating after completion err = %v, want ErrSessionNotActive", err)
	}
	if len(s.Reviewed()) > len(s.Words()) {
		t.Errorf("reviewed %d > session size %d", len(s.Reviewed()), len(s.Words()))
	}
}

func TestPersistenceFailureLeavesSessionUnchanged(t *testing.T) {
	store := newMemStore(
		word("a", models.StatusLearning, 0),
		word("b", models.StatusLearning, 0),
	)
	s := testScheduler(store)

	if err := s.Start(context.Background(), ModeLearning, 10); err != nil {
		t.Fatalf("start: %v", err)
	}

	store.failPuts = true
	current := s.Current().ID
	err := s.Rate(context.Background(), models.RatingGood, time.Second)
	if err == nil {
		t.Fatal("expected error from failing store")
	}

	if s.Index() != 0 {
		t.Errorf("cursor advanced to %d despite failed persist", s.Index())
	}
	if s.Current().ID != current {
		t.Errorf("current word changed despite failed persist")
	}
	if len(s.Reviewed()) != 0 {
		t.Errorf("reviewed log grew despite failed persist")
	}

	// Retry succeeds once storage recovers.
	store.failPuts = false
	if err := s.Rate(context.Background(), models.RatingGood, time.Second); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if s.Index() != 1 {
		t.Errorf("cursor = %d after retry, want 1", s.Index())
	}
}

func TestInvalidRatingRejected(t *testing.T) {
	store := newMemStore(word("a", models.StatusLearning, 0))
	s := testScheduler(store)
	if err := s.Start(context.Background(), ModeLearning, 10); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Rate(context.Background(), models.Rating("meh"), time.Second); err == nil {
		t.Error("expected rejection of unknown rating")
	}
	if s.Index() != 0 || len(s.Reviewed()) != 0 {
		t.Error("invalid rating must not mutate the session")
	}
}

func TestPauseResumeLifecycle(t *testing.T) {
	store := newMemStore(word("a", models.StatusLearning, 0))
	s := testScheduler(store)

	// Pause/resume are no-ops outside their source states.
	s.Pause()
	if s.Status() != StatusIdle {
		t.Errorf("pause from idle moved status to %s", s.Status())
	}
	s.Resume()
	if s.Status() != StatusIdle {
		t.Errorf("resume from idle moved status to %s", s.Status())
	}

	if err := s.Start(context.Background(), ModeLearning, 10); err != nil {
		t.Fatalf("start: %v", err)
	}
	s.Pause()
	if s.Status() != StatusPaused {
		t.Errorf("status = %s, want paused", s.Status())
	}
	if err := s.Rate(context.Background(), models.RatingGood, time.Second); !errors.Is(err, ErrSessionNotActive) {
		t.Errorf("rating while paused err = %v, want ErrSessionNotActive", err)
	}
	s.Resume()
	if s.Status() != StatusActive {
		t.Errorf("status = %s, want active", s.Status())
	}
}

func TestEndAndReset(t *testing.T) {
	store := newMemStore(
		word("a", models.StatusLearning, 0),
		word("b", models.StatusLearning, 0),
	)
	s := testScheduler(store)

	if err := s.Start(context.Background(), ModeLearning, 10); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Rate(context.Background(), models.RatingEasy, time.Second); err != nil {
		t.Fatalf("rate: %v", err)
	}
	s.End()
	if s.Status() != StatusCompleted {
		t.Errorf("status = %s, want completed", s.Status())
	}

	// Reset only applies to completed sessions.
	s.Reset()
	if s.Status() != StatusIdle {
		t.Errorf("status = %s, want idle", s.Status())
	}
	if s.SessionID() != "" || len(s.Words()) != 0 || len(s.Reviewed()) != 0 {
		t.Error("reset left session fields populated")
	}
}

func TestStatsDerivedFromReviewedLog(t *testing.T) {
	store := newMemStore(
		word("a", models.StatusLearning, 0),
		word("b", models.StatusLearning, 0),
		word("c", models.StatusLearning, 0),
	)
	s := testScheduler(store)

	if err := s.Start(context.Background(), ModeLearning, 10); err != nil {
		t.Fatalf("start: %v", err)
	}
	ratings := []models.Rating{models.RatingAgain, models.RatingGood, models.RatingEasy}
	for _, r := range ratings {
		if err := s.Rate(context.Background(), r, 2*time.Second); err != nil {
			t.Fatalf("rate %s: %v", r, err)
		}
	}

	stats := s.Stats()
	if stats.ReviewedCount != 3 {
		t.Errorf("reviewed count = %d, want 3", stats.ReviewedCount)
	}
	if stats.CorrectCount != 2 {
		t.Errorf("correct count = %d, want 2 (good+easy)", stats.CorrectCount)
	}
	// Mean of scores 1, 3, 4.
	want := (1.0 + 3.0 + 4.0) / 3.0
	if math.Abs(stats.AverageRating-want) > 1e-9 {
		t.Errorf("average rating = %.4f, want %.4f", stats.AverageRating, want)
	}
	if stats.TotalTimeSpent != 6000 {
		t.Errorf("total time = %dms, want 6000", stats.TotalTimeSpent)
	}
	if math.Abs(stats.CompletionRate-1.0) > 1e-9 {
		t.Errorf("completion rate = %.2f, want 1.0", stats.CompletionRate)
	}
}

func TestFlipCardPresentationOnly(t *testing.T) {
	store := newMemStore(word("a", models.StatusLearning, 0))
	s := testScheduler(store)
	if err := s.Start(context.Background(), ModeLearning, 10); err != nil {
		t.Fatalf("start: %v", err)
	}

	s.FlipCard()
	if !s.Flipped() {
		t.Error("flip did not show the back")
	}
	if s.Status() != StatusActive {
		t.Errorf("flip changed status to %s", s.Status())
	}
	s.FlipCard()
	if s.Flipped() {
		t.Error("second flip did not toggle back")
	}
}

func TestPrioritizeDifficultOverridesShuffle(t *testing.T) {
	dayMs := int64(24 * 60 * 60 * 1000)
	nowMs := int64(10 * dayMs)
	store := newMemStore(
		word("due-now", models.StatusLearning, nowMs),
		word("overdue", models.StatusLearning, nowMs-2*dayMs),
		word("very-overdue", models.StatusLearning, nowMs-5*dayMs),
	)
	s := testScheduler(store, WithClock(fixedClock(nowMs)), WithPrioritizeDifficult())

	if err := s.Start(context.Background(), ModeLearning, 10); err != nil {
		t.Fatalf("start: %v", err)
	}
	words := s.Words()
	if len(words) != 3 {
		t.Fatalf("got %d words, want 3", len(words))
	}
	// Shuffle is suppressed; most overdue comes first by priority score.
	want := []string{"very-overdue", "overdue", "due-now"}
	for i, id := range want {
		if words[i].ID != id {
			t.Errorf("words[%d] = %s, want %s", i, words[i].ID, id)
		}
	}
}

func TestTestModeDrawsUniformSubset(t *testing.T) {
	var all []models.WordEntry
	for _, id := range []string{"w0", "w1", "w2", "w3", "w4", "w5", "w6", "w7", "w8", "w9"} {
		all = append(all, word(id, models.StatusLearned, 0))
	}

	seen := make(map[string]bool)
	for seed := int64(0); seed < 50; seed++ {
		store := newMemStore(all...)
		s := testScheduler(store, WithRand(rand.New(rand.NewSource(seed))))

		if err := s.Start(context.Background(), ModeTest, 3); err != nil {
			t.Fatalf("seed %d start: %v", seed, err)
		}
		for _, w := range s.Words() {
			seen[w.ID] = true
		}
	}

	// Every candidate should make the batch under some seed; a fixed
	// prefix would only ever show the first three.
	for _, w := range all {
		if !seen[w.ID] {
			t.Errorf("word %s never selected across 50 seeds", w.ID)
		}
	}
}
