package scheduler

import (
	"sync"
	"testing"
	"time"
)

func TestReminderSchedulerFires(t *testing.T) {
	fired := make(chan Reminder, 1)
	s := NewReminderScheduler(func(r Reminder) { fired <- r })
	defer s.Stop()

	rem, err := s.Schedule("conv-1", "Call mom", time.Now().Add(20*time.Millisecond))
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	if rem.ID == "" {
		t.Fatal("expected generated reminder ID")
	}

	select {
	case got := <-fired:
		if got.Description != "Call mom" || got.ConversationID != "conv-1" {
			t.Errorf("fired reminder = %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reminder never fired")
	}
}

func TestReminderSchedulerCancel(t *testing.T) {
	var mu sync.Mutex
	count := 0
	s := NewReminderScheduler(func(Reminder) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	defer s.Stop()

	rem, err := s.Schedule("conv-1", "Never happens", time.Now().Add(50*time.Millisecond))
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	s.Cancel(rem.ID)

	if got := len(s.Active()); got != 0 {
		t.Errorf("active reminders = %d, want 0 after cancel", got)
	}

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if count != 0 {
		t.Errorf("cancelled reminder fired %d times", count)
	}
}

func TestReminderSchedulerPastDueFiresImmediately(t *testing.T) {
	fired := make(chan Reminder, 1)
	s := NewReminderScheduler(func(r Reminder) { fired <- r })
	defer s.Stop()

	if _, err := s.Schedule("conv-1", "Already late", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("past-due reminder never fired")
	}
}

func TestReminderSchedulerRequiresDescription(t *testing.T) {
	s := NewReminderScheduler(func(Reminder) {})
	defer s.Stop()

	if _, err := s.Schedule("conv-1", "", time.Now().Add(time.Minute)); err == nil {
		t.Error("expected error for empty description")
	}
}

func TestCronSchedulerAddJob(t *testing.T) {
	s := NewCronScheduler()
	defer s.Stop()

	// Should add a valid cron job without error
	if err := s.AddJob("* * * * *", func() {}); err != nil {
		t.Errorf("Expected no error adding job, got %v", err)
	}
	if err := s.AddJob("not a cron expr", func() {}); err == nil {
		t.Error("expected error for invalid cron expression")
	}
}
