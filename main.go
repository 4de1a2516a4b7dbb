package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/wordvault/internal/api"
	"github.com/example/wordvault/internal/config"
	"github.com/example/wordvault/internal/database"
	"github.com/example/wordvault/internal/dictionary"
	"github.com/example/wordvault/internal/notify"
	"github.com/example/wordvault/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(database.Config{Driver: cfg.DBDriver, DSN: cfg.DBDSN})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	words := database.NewWordRepository(db)
	settings := database.NewSettingsRepository(db)
	logs := database.NewReviewLogRepository(db)

	dict := dictionary.New()
	if cfg.DictionaryURL != "" {
		dict = dictionary.NewWithURL(cfg.DictionaryURL)
	}

	server := api.NewServer(words, settings, logs, dict)

	// Review reminders need a Telegram token; without one the vault
	// still works, just silently.
	if cfg.SchedulerEnabled && cfg.TelegramToken != "" {
		notifier, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Fatalf("Failed to create notifier: %v", err)
		}
		reminders := scheduler.New(notifier, words, settings)
		reminders.Start()
		defer reminders.Stop()
	} else {
		log.Println("Review reminders disabled")
	}

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	sig := <-sigChan
	log.Printf("Received signal: %v", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("Server stopped")
}
