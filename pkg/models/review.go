package models

// Rating is the user's judgement of one recall attempt. Exactly one
// rating is consumed per review event; ratings are not reversible.
type Rating string

const (
	// RatingAgain means total failure to recall.
	RatingAgain Rating = "again"
	// RatingHard means partial success with difficulty.
	RatingHard Rating = "hard"
	// RatingGood means standard success.
	RatingGood Rating = "good"
	// RatingEasy means effortless recall.
	RatingEasy Rating = "easy"
)

// Ratings lists all ratings in ascending order of success.
var Ratings = []Rating{RatingAgain, RatingHard, RatingGood, RatingEasy}

// Score maps a rating onto a 1-4 scale for session averages.
func (r Rating) Score() int {
	switch r {
	case RatingAgain:
		return 1
	case RatingHard:
		return 2
	case RatingGood:
		return 3
	case RatingEasy:
		return 4
	}
	return 0
}

// IsSuccess reports whether a rating counts as a correct recall.
// Hard is partial success and does not count.
func (r Rating) IsSuccess() bool {
	return r == RatingGood || r == RatingEasy
}

// Valid reports whether r is one of the four known ratings.
func (r Rating) Valid() bool {
	switch r {
	case RatingAgain, RatingHard, RatingGood, RatingEasy:
		return true
	}
	return false
}

// ReviewStrength is the user's global pacing profile. It scales interval
// growth uniformly and never touches per-word ease.
type ReviewStrength string

const (
	// StrengthGentle slows interval growth (x0.8).
	StrengthGentle ReviewStrength = "gentle"
	// StrengthStandard is the neutral profile (x1.0).
	StrengthStandard ReviewStrength = "standard"
	// StrengthIntense speeds interval growth (x1.3).
	StrengthIntense ReviewStrength = "intense"
)

// ReviewLogEntry records one completed rating for statistics.
type ReviewLogEntry struct {
	ID          int64  `json:"id" db:"id"`
	WordID      string `json:"word_id" db:"word_id"`
	SessionID   string `json:"session_id" db:"session_id"`
	Rating      Rating `json:"rating" db:"rating"`
	TimeSpentMs int64  `json:"time_spent_ms" db:"time_spent_ms"`
	ReviewedAt  int64  `json:"reviewed_at" db:"reviewed_at"`
}
