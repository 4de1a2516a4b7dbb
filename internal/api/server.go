package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"github.com/example/wordvault/internal/database"
	"github.com/example/wordvault/internal/dictionary"
	"github.com/example/wordvault/internal/excel"
	"github.com/example/wordvault/internal/game"
	"github.com/example/wordvault/internal/review"
	"github.com/example/wordvault/internal/srs"
)

// Server holds the handlers for the REST API and the game socket.
// Session handlers run under one mutex: the review session is a
// single state machine and concurrent requests must not interleave.
type Server struct {
	words    *database.WordRepository
	settings *database.SettingsRepository
	logs     *database.ReviewLogRepository
	dict     *dictionary.Client
	importer *excel.Importer
	calc     *srs.Calculator
	hub      *game.Hub

	mu      sync.Mutex
	session *review.Scheduler
}

// NewServer wires the handlers to their collaborators.
func NewServer(words *database.WordRepository, settings *database.SettingsRepository,
	logs *database.ReviewLogRepository, dict *dictionary.Client) *Server {
	return &Server{
		words:    words,
		settings: settings,
		logs:     logs,
		dict:     dict,
		importer: excel.NewImporter(words),
		calc:     srs.NewCalculator(),
		hub:      game.NewHub(),
	}
}

// Router builds the full route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/words", s.listWords).Methods("GET")
	api.HandleFunc("/words", s.createWord).Methods("POST")
	api.HandleFunc("/words/due", s.dueWords).Methods("GET")
	api.HandleFunc("/words/search", s.searchWords).Methods("GET")
	api.HandleFunc("/words/{id}", s.getWord).Methods("GET")
	api.HandleFunc("/words/{id}", s.updateWord).Methods("PUT")
	api.HandleFunc("/words/{id}", s.deleteWord).Methods("DELETE")
	api.HandleFunc("/words/{id}/predictions", s.wordPredictions).Methods("GET")
	api.HandleFunc("/stats", s.vaultStats).Methods("GET")
	api.HandleFunc("/lookup/{word}", s.lookupWord).Methods("GET")
	api.HandleFunc("/import", s.importWords).Methods("POST")

	api.HandleFunc("/settings", s.getSettings).Methods("GET")
	api.HandleFunc("/settings", s.saveSettings).Methods("PUT")
	api.HandleFunc("/settings/suggest-limit", s.suggestLimit).Methods("GET")

	api.HandleFunc("/session", s.sessionState).Methods("GET")
	api.HandleFunc("/session/start", s.startSession).Methods("POST")
	api.HandleFunc("/session/flip", s.flipCard).Methods("POST")
	api.HandleFunc("/session/rate", s.rateCard).Methods("POST")
	api.HandleFunc("/session/pause", s.pauseSession).Methods("POST")
	api.HandleFunc("/session/resume", s.resumeSession).Methods("POST")
	api.HandleFunc("/session/end", s.endSession).Methods("POST")
	api.HandleFunc("/session/reset", s.resetSession).Methods("POST")
	api.HandleFunc("/session/stats", s.sessionStats).Methods("GET")

	r.HandleFunc("/ws/game", game.ServeWS(s.hub))
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	return r
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func importConfig(path string) excel.ImportConfig {
	config := excel.DefaultImportConfig()
	config.FilePath = path
	return config
}
