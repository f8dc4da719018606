package notify

import (
	"context"
	"testing"
)

func TestValidateAndCanonicalizeRecipient(t *testing.T) {
	l := NewLogSender()

	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"User@Example.COM", "user@example.com", false},
		{"  ravi@voxa.dev ", "ravi@voxa.dev", false},
		{"not-an-email", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := l.ValidateAndCanonicalizeRecipient(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ValidateAndCanonicalizeRecipient(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ValidateAndCanonicalizeRecipient(%q) errored: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ValidateAndCanonicalizeRecipient(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLogSenderRecords(t *testing.T) {
	l := NewLogSender()
	if err := l.Send(context.Background(), "Ravi@Voxa.dev", "Reminder", "Call mom"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	sent := l.Sent()
	if len(sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(sent))
	}
	if sent[0].To != "ravi@voxa.dev" || sent[0].Subject != "Reminder" {
		t.Errorf("sent[0] = %+v", sent[0])
	}
}

func TestLogSenderRejectsBadRecipient(t *testing.T) {
	l := NewLogSender()
	if err := l.Send(context.Background(), "nope", "s", "b"); err == nil {
		t.Error("expected error for invalid recipient")
	}
	if len(l.Sent()) != 0 {
		t.Error("invalid send must not be recorded")
	}
}

func TestNewSMTPSenderRequiresHostAndFrom(t *testing.T) {
	if _, err := NewSMTPSender(SMTPOpts{}); err == nil {
		t.Error("expected error without host/from")
	}
	s, err := NewSMTPSender(SMTPOpts{Host: "smtp.example.com", From: "voxa@example.com"})
	if err != nil {
		t.Fatalf("NewSMTPSender failed: %v", err)
	}
	if s.opts.Port != "587" {
		t.Errorf("default port = %q, want 587", s.opts.Port)
	}
}
