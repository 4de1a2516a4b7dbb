package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/example/wordvault/internal/review"
	"github.com/example/wordvault/pkg/models"
)

// sessionView is the wire shape of the session state.
type sessionView struct {
	Status    review.Status      `json:"status"`
	Mode      review.Mode        `json:"mode,omitempty"`
	SessionID string             `json:"session_id,omitempty"`
	Index     int                `json:"index"`
	Total     int                `json:"total"`
	Current   *models.WordEntry  `json:"current,omitempty"`
	Flipped   bool               `json:"flipped"`
	Reviewed  int                `json:"reviewed"`
}

func (s *Server) viewLocked() sessionView {
	if s.session == nil {
		return sessionView{Status: review.StatusIdle}
	}
	return sessionView{
		Status:    s.session.Status(),
		Mode:      s.session.Mode(),
		SessionID: s.session.SessionID(),
		Index:     s.session.Index(),
		Total:     len(s.session.Words()),
		Current:   s.session.Current(),
		Flipped:   s.session.Flipped(),
		Reviewed:  len(s.session.Reviewed()),
	}
}

func (s *Server) sessionState(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	view := s.viewLocked()
	s.mu.Unlock()
	respondWithJSON(w, http.StatusOK, view)
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Mode  review.Mode `json:"mode"`
		Count int         `json:"count"`
	}
	if err := decodeJSON(r, &input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		switch s.session.Status() {
		case review.StatusActive, review.StatusPaused:
			respondWithError(w, http.StatusConflict, "A session is already in progress")
			return
		}
	}

	settings, err := s.settings.Get(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get settings")
		return
	}
	if input.Count <= 0 {
		input.Count = settings.DailyReviewLimit
	}

	opts := []review.Option{review.WithLogger(s.logs)}
	if settings.PrioritizeDifficult {
		opts = append(opts, review.WithPrioritizeDifficult())
	}
	session := review.NewScheduler(s.words, s.calc, settings.ReviewStrength, opts...)
	if err := session.Start(r.Context(), input.Mode, input.Count); err != nil {
		switch {
		case errors.Is(err, review.ErrNoWordsAvailable):
			respondWithError(w, http.StatusConflict, "No words available for this mode")
		case errors.Is(err, review.ErrUnknownMode):
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Unknown mode %q", input.Mode))
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to start session")
		}
		return
	}
	s.session = session
	respondWithJSON(w, http.StatusCreated, s.viewLocked())
}

func (s *Server) flipCard(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil || s.session.Status() != review.StatusActive {
		respondWithError(w, http.StatusConflict, "No active session")
		return
	}
	s.session.FlipCard()
	respondWithJSON(w, http.StatusOK, s.viewLocked())
}

func (s *Server) rateCard(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Rating      models.Rating `json:"rating"`
		TimeSpentMs int64         `json:"time_spent_ms"`
	}
	if err := decodeJSON(r, &input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		respondWithError(w, http.StatusConflict, "No active session")
		return
	}
	err := s.session.Rate(r.Context(), input.Rating, time.Duration(input.TimeSpentMs)*time.Millisecond)
	if err != nil {
		switch {
		case errors.Is(err, review.ErrSessionNotActive):
			respondWithError(w, http.StatusConflict, "No active session")
		case !input.Rating.Valid():
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Unknown rating %q", input.Rating))
		default:
			// Persistence failed; the card stays put so the client can retry.
			respondWithError(w, http.StatusInternalServerError, "Failed to record rating")
		}
		return
	}
	respondWithJSON(w, http.StatusOK, s.viewLocked())
}

func (s *Server) pauseSession(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		s.session.Pause()
	}
	respondWithJSON(w, http.StatusOK, s.viewLocked())
}

func (s *Server) resumeSession(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		s.session.Resume()
	}
	respondWithJSON(w, http.StatusOK, s.viewLocked())
}

func (s *Server) endSession(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		s.session.End()
	}
	respondWithJSON(w, http.StatusOK, s.viewLocked())
}

func (s *Server) resetSession(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		s.session.Reset()
	}
	respondWithJSON(w, http.StatusOK, s.viewLocked())
}

func (s *Server) sessionStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		respondWithJSON(w, http.StatusOK, review.SessionStats{})
		return
	}
	respondWithJSON(w, http.StatusOK, s.session.Stats())
}
