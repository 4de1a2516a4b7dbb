package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/wordvault/internal/database"
	"github.com/example/wordvault/internal/dictionary"
	"github.com/example/wordvault/pkg/models"
)

func newTestServer(t *testing.T) (*Server, *database.WordRepository) {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite3", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// Dictionary pointed at a dead endpoint: creation falls back to
	// whatever the client sends, lookups of covered words still work.
	dict := dictionary.NewWithURL("http://127.0.0.1:0")

	words := database.NewWordRepository(db)
	server := NewServer(words, database.NewSettingsRepository(db), database.NewReviewLogRepository(db), dict)
	return server, words
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func seedWord(t *testing.T, words *database.WordRepository, id, text string, status models.WordStatus, due time.Time) models.WordEntry {
	t.Helper()
	word := models.WordEntry{
		ID:      id,
		Text:    text,
		Status:  status,
		AddedAt: due.UnixMilli(),
		Review:  models.NewReviewRecord(due),
	}
	if err := words.Put(context.Background(), &word); err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
	return word
}

func TestWordLifecycle(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	rec := doJSON(t, router, "POST", "/api/words", wordInput{
		Text: " ephemeral ", Definition: "lasting a very short time", PartOfSpeech: "adjective",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created models.WordEntry
	decodeBody(t, rec, &created)
	if created.ID == "" || created.Text != "ephemeral" || created.Status != models.StatusLearning {
		t.Errorf("created = %+v", created)
	}
	if created.Review.Ease != 2.5 || created.Review.ReviewCount != 0 {
		t.Errorf("created review record = %+v", created.Review)
	}

	rec = doJSON(t, router, "GET", "/api/words/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec = doJSON(t, router, "PUT", "/api/words/"+created.ID, wordInput{
		Definition: "short-lived", Status: "learned",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}
	var updated models.WordEntry
	decodeBody(t, rec, &updated)
	if updated.Definition != "short-lived" || updated.Status != models.StatusLearned {
		t.Errorf("updated = %+v", updated)
	}
	if updated.Review != created.Review {
		t.Errorf("update changed review state: %+v", updated.Review)
	}

	// Default delete is soft: the word keeps its row under deleted status.
	rec = doJSON(t, router, "DELETE", "/api/words/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doJSON(t, router, "GET", "/api/words?status=deleted", nil)
	var deleted []models.WordEntry
	decodeBody(t, rec, &deleted)
	if len(deleted) != 1 {
		t.Errorf("deleted words = %+v, want 1", deleted)
	}

	rec = doJSON(t, router, "DELETE", "/api/words/"+created.ID+"?hard=true", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("hard delete status = %d", rec.Code)
	}
	rec = doJSON(t, router, "GET", "/api/words/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after hard delete = %d, want 404", rec.Code)
	}
}

func TestWordValidation(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	if rec := doJSON(t, router, "POST", "/api/words", wordInput{Text: "   "}); rec.Code != http.StatusBadRequest {
		t.Errorf("blank word status = %d, want 400", rec.Code)
	}
	if rec := doJSON(t, router, "GET", "/api/words/missing", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing word status = %d, want 404", rec.Code)
	}

	seedWord(t, server.words, "w1", "test", models.StatusLearning, time.Now())
	if rec := doJSON(t, router, "PUT", "/api/words/w1", wordInput{Status: "archived"}); rec.Code != http.StatusBadRequest {
		t.Errorf("bad status update = %d, want 400", rec.Code)
	}
}

func TestDueAndSearch(t *testing.T) {
	server, words := newTestServer(t)
	router := server.Router()
	now := time.Now()

	seedWord(t, words, "w1", "apple", models.StatusLearning, now.Add(-time.Hour))
	seedWord(t, words, "w2", "banana", models.StatusLearning, now.Add(48*time.Hour))

	rec := doJSON(t, router, "GET", "/api/words/due", nil)
	var due []models.WordEntry
	decodeBody(t, rec, &due)
	if len(due) != 1 || due[0].ID != "w1" {
		t.Errorf("due = %+v, want [w1]", due)
	}

	rec = doJSON(t, router, "GET", "/api/words/search?q=BANA", nil)
	var found []models.WordEntry
	decodeBody(t, rec, &found)
	if len(found) != 1 || found[0].ID != "w2" {
		t.Errorf("search = %+v, want [w2]", found)
	}

	if rec := doJSON(t, router, "GET", "/api/words/search", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("empty search status = %d, want 400", rec.Code)
	}
	if rec := doJSON(t, router, "GET", "/api/words/due?limit=bad", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", rec.Code)
	}
}

func TestSettingsEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	rec := doJSON(t, router, "GET", "/api/settings", nil)
	var settings models.Settings
	decodeBody(t, rec, &settings)
	if settings != models.DefaultSettings() {
		t.Errorf("initial settings = %+v, want defaults", settings)
	}

	settings.ReviewStrength = models.StrengthGentle
	settings.DailyReviewLimit = 15
	if rec := doJSON(t, router, "PUT", "/api/settings", settings); rec.Code != http.StatusOK {
		t.Fatalf("save settings status = %d, body %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, router, "GET", "/api/settings", nil)
	var saved models.Settings
	decodeBody(t, rec, &saved)
	if saved != settings {
		t.Errorf("saved settings = %+v, want %+v", saved, settings)
	}

	bad := settings
	bad.ReviewStrength = "extreme"
	if rec := doJSON(t, router, "PUT", "/api/settings", bad); rec.Code != http.StatusBadRequest {
		t.Errorf("bad strength status = %d, want 400", rec.Code)
	}
	bad = settings
	bad.NotifyEndHour = 24
	if rec := doJSON(t, router, "PUT", "/api/settings", bad); rec.Code != http.StatusBadRequest {
		t.Errorf("bad hour status = %d, want 400", rec.Code)
	}
}

func TestSuggestLimitEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	rec := doJSON(t, router, "GET", "/api/settings/suggest-limit", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("suggest status = %d", rec.Code)
	}
	var out struct {
		CurrentLimit   int `json:"current_limit"`
		SuggestedLimit int `json:"suggested_limit"`
	}
	decodeBody(t, rec, &out)
	if out.CurrentLimit != 20 {
		t.Errorf("current limit = %d, want 20", out.CurrentLimit)
	}
	// Empty log means zero completion, which argues for a lower limit.
	if out.SuggestedLimit != 16 {
		t.Errorf("suggested limit = %d, want 16", out.SuggestedLimit)
	}
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	server, words := newTestServer(t)
	router := server.Router()
	now := time.Now()

	for i := 0; i < 3; i++ {
		seedWord(t, words, fmt.Sprintf("w%d", i), fmt.Sprintf("word%d", i), models.StatusLearning, now.Add(-time.Hour))
	}

	// Idle before any session exists.
	rec := doJSON(t, router, "GET", "/api/session", nil)
	var view sessionView
	decodeBody(t, rec, &view)
	if view.Status != "idle" {
		t.Errorf("initial status = %s, want idle", view.Status)
	}

	rec = doJSON(t, router, "POST", "/api/session/start", map[string]interface{}{"mode": "learning", "count": 2})
	if rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d, body %s", rec.Code, rec.Body.String())
	}
	decodeBody(t, rec, &view)
	if view.Status != "active" || view.Total != 2 || view.Current == nil {
		t.Errorf("started view = %+v", view)
	}

	// A second start while active is rejected.
	rec = doJSON(t, router, "POST", "/api/session/start", map[string]interface{}{"mode": "learning"})
	if rec.Code != http.StatusConflict {
		t.Errorf("double start status = %d, want 409", rec.Code)
	}

	rec = doJSON(t, router, "POST", "/api/session/flip", nil)
	decodeBody(t, rec, &view)
	if !view.Flipped {
		t.Error("flip did not mark the card flipped")
	}

	rec = doJSON(t, router, "POST", "/api/session/rate", map[string]interface{}{"rating": "good", "time_spent_ms": 4000})
	if rec.Code != http.StatusOK {
		t.Fatalf("rate status = %d, body %s", rec.Code, rec.Body.String())
	}
	decodeBody(t, rec, &view)
	if view.Index != 1 || view.Reviewed != 1 || view.Flipped {
		t.Errorf("view after rating = %+v", view)
	}

	if rec := doJSON(t, router, "POST", "/api/session/rate", map[string]interface{}{"rating": "amazing"}); rec.Code != http.StatusBadRequest {
		t.Errorf("bad rating status = %d, want 400", rec.Code)
	}

	// Pause blocks rating until resume.
	doJSON(t, router, "POST", "/api/session/pause", nil)
	if rec := doJSON(t, router, "POST", "/api/session/rate", map[string]interface{}{"rating": "good"}); rec.Code != http.StatusConflict {
		t.Errorf("rate while paused status = %d, want 409", rec.Code)
	}
	doJSON(t, router, "POST", "/api/session/resume", nil)

	rec = doJSON(t, router, "POST", "/api/session/rate", map[string]interface{}{"rating": "easy", "time_spent_ms": 2000})
	decodeBody(t, rec, &view)
	if view.Status != "completed" {
		t.Errorf("status after final rating = %s, want completed", view.Status)
	}

	rec = doJSON(t, router, "GET", "/api/session/stats", nil)
	var stats struct {
		ReviewedCount  int     `json:"reviewed_count"`
		CompletionRate float64 `json:"completion_rate"`
	}
	decodeBody(t, rec, &stats)
	if stats.ReviewedCount != 2 || stats.CompletionRate != 1.0 {
		t.Errorf("session stats = %+v, want 2 reviewed at full completion", stats)
	}

	doJSON(t, router, "POST", "/api/session/reset", nil)
	rec = doJSON(t, router, "GET", "/api/session", nil)
	decodeBody(t, rec, &view)
	if view.Status != "idle" || view.Total != 0 {
		t.Errorf("view after reset = %+v", view)
	}
}

func TestSessionStartWithNothingToReview(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	rec := doJSON(t, router, "POST", "/api/session/start", map[string]interface{}{"mode": "learning"})
	if rec.Code != http.StatusConflict {
		t.Errorf("start with empty vault status = %d, want 409", rec.Code)
	}
	rec = doJSON(t, router, "GET", "/api/session", nil)
	var view sessionView
	decodeBody(t, rec, &view)
	if view.Status != "idle" {
		t.Errorf("status after failed start = %s, want idle", view.Status)
	}

	rec = doJSON(t, router, "POST", "/api/session/start", map[string]interface{}{"mode": "cram"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown mode status = %d, want 400", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	rec := doJSON(t, server.Router(), "GET", "/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d", rec.Code)
	}
}
