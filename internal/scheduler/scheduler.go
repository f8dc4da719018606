// Package scheduler provides scheduling for reminders and recurring jobs.
//
// One-shot reminders run on in-process timers; recurring jobs (such as the
// daily briefing) use cron expressions.
package scheduler

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Reminder is one confirmed, scheduled reminder.
type Reminder struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Description    string    `json:"description"`
	DueAt          time.Time `json:"due_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// FireFunc is invoked when a reminder comes due.
type FireFunc func(Reminder)

type reminderEntry struct {
	timer    *time.Timer
	reminder Reminder
}

// ReminderScheduler runs one-shot reminders on in-process timers.
type ReminderScheduler struct {
	mu      sync.RWMutex
	entries map[string]*reminderEntry
	fire    FireFunc
}

// NewReminderScheduler creates a scheduler delivering due reminders to fire.
func NewReminderScheduler(fire FireFunc) *ReminderScheduler {
	return &ReminderScheduler{
		entries: make(map[string]*reminderEntry),
		fire:    fire,
	}
}

// Schedule registers a reminder and arms its timer. Reminders already past
// due fire immediately.
func (s *ReminderScheduler) Schedule(conversationID, description string, dueAt time.Time) (Reminder, error) {
	if description == "" {
		return Reminder{}, fmt.Errorf("reminder description required")
	}
	rem := Reminder{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Description:    description,
		DueAt:          dueAt,
		CreatedAt:      time.Now().UTC(),
	}

	delay := time.Until(dueAt)
	if delay < 0 {
		slog.Warn("ReminderScheduler.Schedule: due time is in the past, firing immediately", "id", rem.ID)
		go s.fire(rem)
		return rem, nil
	}

	timer := time.AfterFunc(delay, func() {
		slog.Debug("ReminderScheduler: reminder due", "id", rem.ID, "description", rem.Description)
		s.fire(rem)
		s.mu.Lock()
		delete(s.entries, rem.ID)
		s.mu.Unlock()
	})

	s.mu.Lock()
	s.entries[rem.ID] = &reminderEntry{timer: timer, reminder: rem}
	s.mu.Unlock()

	slog.Info("ReminderScheduler.Schedule succeeded", "id", rem.ID, "dueAt", dueAt, "delay", delay)
	return rem, nil
}

// Cancel stops a scheduled reminder by ID. Cancelling an unknown ID is a
// no-op.
func (s *ReminderScheduler) Cancel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[id]; ok {
		entry.timer.Stop()
		delete(s.entries, id)
		slog.Debug("ReminderScheduler.Cancel succeeded", "id", id)
	}
}

// Active returns the reminders still waiting to fire.
func (s *ReminderScheduler) Active() []Reminder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reminders := make([]Reminder, 0, len(s.entries))
	for _, entry := range s.entries {
		reminders = append(reminders, entry.reminder)
	}
	return reminders
}

// Stop cancels every pending reminder.
func (s *ReminderScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, entry := range s.entries {
		entry.timer.Stop()
		delete(s.entries, id)
	}
	slog.Info("ReminderScheduler stopped all reminders")
}

// CronScheduler provides cron-based recurring job scheduling.
type CronScheduler struct {
	cron *cron.Cron
}

// NewCronScheduler creates and starts a cron scheduler.
func NewCronScheduler() *CronScheduler {
	// Use standard 5-field cron parser (min, hour, dom, month, dow) and enable recovery
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	c.Start()
	return &CronScheduler{cron: c}
}

// AddJob schedules a task using the provided cron expression.
// It returns an error if the expression is invalid.
func (s *CronScheduler) AddJob(expr string, task func()) error {
	_, err := s.cron.AddFunc(expr, task)
	return err
}

// Stop stops the cron scheduler and waits for running jobs to finish.
func (s *CronScheduler) Stop() {
	s.cron.Stop()
}
