package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/wordvault/pkg/models"
)

// Notifier sends a review reminder.
type Notifier interface {
	SendReminder(count int) error
}

// DueCounter reports how many words are due right now, capped at the
// provided limit.
type DueCounter interface {
	Due(ctx context.Context, nowMs int64, limit int) ([]models.WordEntry, error)
}

// SettingsSource returns the current user settings.
type SettingsSource interface {
	Get(ctx context.Context) (models.Settings, error)
}

// Scheduler runs the hourly reminder check. Reminders go out only
// inside the user's configured waking window, and never mention more
// words than the daily limit.
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	words     DueCounter
	settings  SettingsSource
	now       func() time.Time
}

// New creates a new scheduler instance.
func New(notifier Notifier, words DueCounter, settings SettingsSource) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.Local),
		notifier:  notifier,
		words:     words,
		settings:  settings,
		now:       time.Now,
	}
}

// Start begins running all scheduled tasks in the background.
func (s *Scheduler) Start() {
	s.scheduler.Every(1).Hour().Do(s.checkAndSendReminder)
	s.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) checkAndSendReminder() {
	if err := s.RunCheck(context.Background()); err != nil {
		log.Printf("scheduler: reminder check failed: %v", err)
	}
}

// RunCheck performs one reminder check immediately. Exposed so an API
// call can trigger it outside the hourly cadence.
func (s *Scheduler) RunCheck(ctx context.Context) error {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return err
	}
	if !settings.NotifyEnabled {
		return nil
	}

	now := s.now()
	hour := now.Hour()
	if hour < settings.NotifyStartHour || hour > settings.NotifyEndHour {
		log.Printf("scheduler: hour %d outside notify window %d-%d, skipping",
			hour, settings.NotifyStartHour, settings.NotifyEndHour)
		return nil
	}

	due, err := s.words.Due(ctx, now.UnixMilli(), settings.DailyReviewLimit)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}
	return s.notifier.SendReminder(len(due))
}
