package srs

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/example/wordvault/pkg/models"
)

// Ease factor boundaries. Ease never leaves this range, whatever the
// rating history.
const (
	MinEase = 1.3
	MaxEase = 2.5
)

// Interval boundaries in days.
const (
	MinIntervalDays = 1
	MaxIntervalDays = 365
)

const dayMs = 24 * 60 * 60 * 1000

// strengthMultipliers scales interval growth per review strength.
var strengthMultipliers = map[models.ReviewStrength]float64{
	models.StrengthGentle:   0.8,
	models.StrengthStandard: 1.0,
	models.StrengthIntense:  1.3,
}

// StrengthMultiplier returns the interval multiplier for a strength
// profile, defaulting to standard for unknown values.
func StrengthMultiplier(s models.ReviewStrength) float64 {
	if m, ok := strengthMultipliers[s]; ok {
		return m
	}
	return 1.0
}

// Calculator computes next-review schedules. It holds no state beyond
// its random source; concurrent callers should use separate instances,
// since rand.Rand is not safe for parallel use.
type Calculator struct {
	rng *rand.Rand
}

// NewCalculator creates a calculator with a time-seeded random source.
func NewCalculator() *Calculator {
	return &Calculator{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewCalculatorWithSource creates a calculator using the given source.
// Tests pass a fixed seed to make interval jitter reproducible.
func NewCalculatorWithSource(src rand.Source) *Calculator {
	return &Calculator{rng: rand.New(src)}
}

// NextReview computes the scheduling state that follows one rating.
// The input record is read only; the caller replaces the stored record
// with the returned one wholesale.
func (c *Calculator) NextReview(record models.ReviewRecord, rating models.Rating, strength models.ReviewStrength, now time.Time) models.ReviewRecord {
	mult := StrengthMultiplier(strength)

	newEase := record.Ease
	newStreak := record.Streak
	var newInterval int

	// The interval always grows from the ease as it stood before this
	// rating; ease adjustments apply afterwards.
	switch rating {
	case models.RatingAgain:
		newStreak = 0
		newInterval = 0 // review immediately
		newEase = math.Max(MinEase, newEase-0.2)

	case models.RatingHard:
		if newStreak = record.Streak - 1; newStreak < 0 {
			newStreak = 0
		}
		newInterval = c.computeInterval(record.IntervalDays, record.Ease*0.6, mult)
		newEase = math.Max(MinEase, newEase-0.15)

	case models.RatingGood:
		newStreak = record.Streak + 1
		newInterval = c.computeInterval(record.IntervalDays, record.Ease, mult)
		if newStreak > 3 {
			newEase = math.Min(MaxEase, newEase+0.05)
		}

	case models.RatingEasy:
		newStreak = record.Streak + 1
		newInterval = c.computeInterval(record.IntervalDays, record.Ease*1.3, mult)
		newEase = math.Min(MaxEase, newEase+0.15)

	default:
		// Unknown ratings are a programming error upstream.
		panic(fmt.Sprintf("srs: unknown rating %q", rating))
	}

	reviewedAt := now.UnixMilli()
	return models.ReviewRecord{
		DueAt:          reviewedAt + int64(newInterval)*dayMs,
		IntervalDays:   newInterval,
		Ease:           newEase,
		Streak:         newStreak,
		LastReviewedAt: &reviewedAt,
		ReviewCount:    record.ReviewCount + 1,
	}
}

// computeInterval derives the next interval in days from the previous
// one and the effective ease.
func (c *Calculator) computeInterval(prevInterval int, effectiveEase, strengthMultiplier float64) int {
	if prevInterval == 0 {
		// First successful review: next day.
		return maxInt(1, int(math.Round(1*strengthMultiplier)))
	}
	if prevInterval == 1 {
		// Second review: about a week out.
		return maxInt(2, int(math.Round(6*strengthMultiplier)))
	}

	base := float64(prevInterval) * effectiveEase * strengthMultiplier

	// +-10% jitter so words reviewed together stop landing on the same
	// future day. Deliberate load smoothing, not noise.
	jitter := 0.9 + c.rng.Float64()*0.2
	interval := int(math.Round(base * jitter))

	if interval < MinIntervalDays {
		return MinIntervalDays
	}
	if interval > MaxIntervalDays {
		return MaxIntervalDays
	}
	return interval
}

// IsDue reports whether a word is eligible for review at the given time.
func IsDue(word models.WordEntry, now time.Time) bool {
	return word.Status == models.StatusLearning && word.Review.DueAt <= now.UnixMilli()
}

// WordsDue filters words due for review, oldest overdue first. The sort
// is stable so equal due dates keep insertion order. A limit of 0 means
// no limit.
func WordsDue(words []models.WordEntry, now time.Time, limit int) []models.WordEntry {
	due := make([]models.WordEntry, 0, len(words))
	for _, w := range words {
		if IsDue(w, now) {
			due = append(due, w)
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].Review.DueAt < due[j].Review.DueAt
	})

	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due
}

// Stats aggregates the learning state of a word collection. Averages
// cover learning-status words only.
type Stats struct {
	TotalWords    int     `json:"total_words"`
	LearningWords int     `json:"learning_words"`
	LearnedWords  int     `json:"learned_words"`
	DueWords      int     `json:"due_words"`
	AverageEase   float64 `json:"average_ease"`
	AverageStreak float64 `json:"average_streak"`
}

// CalculateStats computes collection-level statistics at the given time.
// An empty learning set yields zero averages, not an error.
func CalculateStats(words []models.WordEntry, now time.Time) Stats {
	var s Stats
	s.TotalWords = len(words)

	nowMs := now.UnixMilli()
	var totalEase, totalStreak float64
	for _, w := range words {
		switch w.Status {
		case models.StatusLearning:
			s.LearningWords++
			totalEase += w.Review.Ease
			totalStreak += float64(w.Review.Streak)
			if w.Review.DueAt <= nowMs {
				s.DueWords++
			}
		case models.StatusLearned:
			s.LearnedWords++
		}
	}

	if s.LearningWords > 0 {
		s.AverageEase = totalEase / float64(s.LearningWords)
		s.AverageStreak = totalStreak / float64(s.LearningWords)
	}
	return s
}

// Prediction is the hypothetical outcome of one rating, used for
// previewing the four choices before the user commits.
type Prediction struct {
	Rating       models.Rating `json:"rating"`
	DueAt        int64         `json:"due_at"`
	IntervalDays int           `json:"interval_days"`
}

// PredictReviewDates projects the record through all four ratings
// without mutating it or touching storage.
func (c *Calculator) PredictReviewDates(record models.ReviewRecord, strength models.ReviewStrength, now time.Time) []Prediction {
	predictions := make([]Prediction, 0, len(models.Ratings))
	for _, rating := range models.Ratings {
		result := c.NextReview(record, rating, strength, now)
		predictions = append(predictions, Prediction{
			Rating:       rating,
			DueAt:        result.DueAt,
			IntervalDays: result.IntervalDays,
		})
	}
	return predictions
}

// RetentionRate is the fraction of reviewed words whose current streak
// is positive. Words never reviewed do not count; no reviewed words
// yields 0.
func RetentionRate(words []models.WordEntry) float64 {
	var reviewed, retained int
	for _, w := range words {
		if w.Review.ReviewCount == 0 {
			continue
		}
		reviewed++
		if w.Review.Streak > 0 {
			retained++
		}
	}
	if reviewed == 0 {
		return 0
	}
	return float64(retained) / float64(reviewed)
}

// SuggestDailyLimit nudges the daily review limit from recent session
// performance: +20% (cap 50) when the user finishes fast and completely,
// -20% (floor 10) when they struggle. The two-sided thresholds carry no
// oscillation guard.
func SuggestDailyLimit(currentLimit int, completionRate float64, averageTimeMinutes float64) int {
	if completionRate > 0.9 && averageTimeMinutes < 15 {
		return minInt(50, int(math.Round(float64(currentLimit)*1.2)))
	}
	if completionRate < 0.7 || averageTimeMinutes > 25 {
		return maxInt(10, int(math.Round(float64(currentLimit)*0.8)))
	}
	return currentLimit
}

// MarkReviewed returns a copy of the word with the rating applied to
// its review record.
func (c *Calculator) MarkReviewed(word models.WordEntry, rating models.Rating, strength models.ReviewStrength, now time.Time) models.WordEntry {
	word.Review = c.NextReview(word.Review, rating, strength, now)
	return word
}

// DaysUntilDue returns whole days until the word comes due, negative
// when overdue.
func DaysUntilDue(record models.ReviewRecord, now time.Time) int {
	msUntil := record.DueAt - now.UnixMilli()
	return int(math.Ceil(float64(msUntil) / float64(dayMs)))
}

// FormatInterval renders an interval in days as a short human label.
func FormatInterval(days int) string {
	switch {
	case days == 0:
		return "now"
	case days == 1:
		return "1 day"
	case days < 30:
		return fmt.Sprintf("%d days", days)
	case days < 365:
		return fmt.Sprintf("%d months", int(math.Round(float64(days)/30)))
	default:
		return fmt.Sprintf("%d years", int(math.Round(float64(days)/365)))
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
