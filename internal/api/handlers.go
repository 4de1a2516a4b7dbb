package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/example/wordvault/internal/database"
	"github.com/example/wordvault/internal/srs"
	"github.com/example/wordvault/pkg/models"
)

// wordInput is the request payload for creating or updating an entry.
type wordInput struct {
	Text         string `json:"text"`
	Language     string `json:"language"`
	Definition   string `json:"definition"`
	PartOfSpeech string `json:"part_of_speech"`
	Context      string `json:"context"`
	Status       string `json:"status"`
}

func (s *Server) listWords(w http.ResponseWriter, r *http.Request) {
	var (
		words []models.WordEntry
		err   error
	)
	if status := r.URL.Query().Get("status"); status != "" {
		words, err = s.words.ByStatus(r.Context(), models.WordStatus(status))
	} else {
		words, err = s.words.All(r.Context())
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list words")
		return
	}
	respondWithJSON(w, http.StatusOK, words)
}

func (s *Server) createWord(w http.ResponseWriter, r *http.Request) {
	var input wordInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	input.Text = strings.TrimSpace(input.Text)
	if input.Text == "" {
		respondWithError(w, http.StatusBadRequest, "Word text is required")
		return
	}
	if input.Language == "" {
		input.Language = "en"
	}

	// Missing definitions are filled from the dictionary, best effort.
	if input.Definition == "" && s.dict != nil {
		if def, err := s.dict.Lookup(r.Context(), input.Text); err == nil {
			input.Definition = def.Definition
			if input.PartOfSpeech == "" {
				input.PartOfSpeech = def.PartOfSpeech
			}
			if input.Context == "" {
				input.Context = def.Example
			}
		}
	}

	now := time.Now()
	word := models.WordEntry{
		ID:           uuid.NewString(),
		Text:         input.Text,
		Language:     input.Language,
		Definition:   input.Definition,
		PartOfSpeech: input.PartOfSpeech,
		Context:      input.Context,
		Status:       models.StatusLearning,
		AddedAt:      now.UnixMilli(),
		Review:       models.NewReviewRecord(now),
	}
	if err := s.words.Put(r.Context(), &word); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to save word")
		return
	}
	respondWithJSON(w, http.StatusCreated, word)
}

func (s *Server) getWord(w http.ResponseWriter, r *http.Request) {
	word, err := s.words.Get(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, database.ErrNotFound) {
		respondWithError(w, http.StatusNotFound, "Word not found")
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get word")
		return
	}
	respondWithJSON(w, http.StatusOK, word)
}

func (s *Server) updateWord(w http.ResponseWriter, r *http.Request) {
	word, err := s.words.Get(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, database.ErrNotFound) {
		respondWithError(w, http.StatusNotFound, "Word not found")
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get word")
		return
	}

	var input wordInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	// Content fields update; review state only changes through ratings.
	if input.Text != "" {
		word.Text = strings.TrimSpace(input.Text)
	}
	if input.Language != "" {
		word.Language = input.Language
	}
	word.Definition = input.Definition
	word.PartOfSpeech = input.PartOfSpeech
	word.Context = input.Context
	if input.Status != "" {
		status := models.WordStatus(input.Status)
		if status != models.StatusLearning && status != models.StatusLearned && status != models.StatusDeleted {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Unknown status %q", input.Status))
			return
		}
		word.Status = status
	}

	if err := s.words.Put(r.Context(), word); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to save word")
		return
	}
	respondWithJSON(w, http.StatusOK, word)
}

func (s *Server) deleteWord(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	// Default is a soft delete so the entry stays recoverable;
	// ?hard=true removes the row.
	if r.URL.Query().Get("hard") == "true" {
		err := s.words.Delete(r.Context(), id)
		if errors.Is(err, database.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Word not found")
			return
		}
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to delete word")
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
		return
	}

	word, err := s.words.Get(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		respondWithError(w, http.StatusNotFound, "Word not found")
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get word")
		return
	}
	word.Status = models.StatusDeleted
	if err := s.words.Put(r.Context(), word); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to delete word")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) dueWords(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}
	words, err := s.words.Due(r.Context(), time.Now().UnixMilli(), limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get due words")
		return
	}
	respondWithJSON(w, http.StatusOK, words)
}

func (s *Server) searchWords(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("q"))
	if term == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameter q is required")
		return
	}
	words, err := s.words.Search(r.Context(), term)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to search words")
		return
	}
	respondWithJSON(w, http.StatusOK, words)
}

func (s *Server) wordPredictions(w http.ResponseWriter, r *http.Request) {
	word, err := s.words.Get(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, database.ErrNotFound) {
		respondWithError(w, http.StatusNotFound, "Word not found")
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get word")
		return
	}
	settings, err := s.settings.Get(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get settings")
		return
	}
	predictions := s.calc.PredictReviewDates(word.Review, settings.ReviewStrength, time.Now())
	respondWithJSON(w, http.StatusOK, predictions)
}

func (s *Server) vaultStats(w http.ResponseWriter, r *http.Request) {
	words, err := s.words.All(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get words")
		return
	}
	counts, err := s.words.CountByStatus(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to count words")
		return
	}
	stats := srs.CalculateStats(words, time.Now())
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"stats":          stats,
		"retention_rate": srs.RetentionRate(words),
		"status_counts":  counts,
		"total_words":    len(words),
	})
}

func (s *Server) lookupWord(w http.ResponseWriter, r *http.Request) {
	def, err := s.dict.Lookup(r.Context(), mux.Vars(r)["word"])
	if err != nil {
		respondWithError(w, http.StatusNotFound, fmt.Sprintf("Lookup failed: %v", err))
		return
	}
	respondWithJSON(w, http.StatusOK, def)
}

func (s *Server) importWords(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "A file upload named 'file' is required")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".csv" && ext != ".xlsx" {
		respondWithError(w, http.StatusBadRequest, "Only .csv and .xlsx files are supported")
		return
	}

	tmp, err := os.CreateTemp("", "import-*"+ext)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to save upload")
		return
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		respondWithError(w, http.StatusInternalServerError, "Failed to save upload")
		return
	}
	tmp.Close()

	config := importConfig(tmp.Name())
	result, err := s.importer.ImportWords(r.Context(), config)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Import failed: %v", err))
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.settings.Get(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get settings")
		return
	}
	respondWithJSON(w, http.StatusOK, settings)
}

func (s *Server) saveSettings(w http.ResponseWriter, r *http.Request) {
	var settings models.Settings
	if err := decodeJSON(r, &settings); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	switch settings.ReviewStrength {
	case models.StrengthGentle, models.StrengthStandard, models.StrengthIntense:
	default:
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Unknown review strength %q", settings.ReviewStrength))
		return
	}
	if settings.DailyReviewLimit < 1 {
		respondWithError(w, http.StatusBadRequest, "Daily review limit must be positive")
		return
	}
	if settings.NotifyStartHour < 0 || settings.NotifyStartHour > 23 ||
		settings.NotifyEndHour < 0 || settings.NotifyEndHour > 23 {
		respondWithError(w, http.StatusBadRequest, "Notify hours must be between 0 and 23")
		return
	}
	if err := s.settings.Save(r.Context(), settings); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to save settings")
		return
	}
	respondWithJSON(w, http.StatusOK, settings)
}

func (s *Server) suggestLimit(w http.ResponseWriter, r *http.Request) {
	settings, err := s.settings.Get(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get settings")
		return
	}
	activity, err := s.logs.Activity(r.Context(), 7, settings.DailyReviewLimit, time.Now())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to aggregate activity")
		return
	}
	suggested := srs.SuggestDailyLimit(settings.DailyReviewLimit, activity.CompletionRate, activity.AvgTimeMinutes)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"current_limit":    settings.DailyReviewLimit,
		"suggested_limit":  suggested,
		"completion_rate":  activity.CompletionRate,
		"avg_time_minutes": activity.AvgTimeMinutes,
	})
}
