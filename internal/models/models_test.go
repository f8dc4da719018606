package models

import (
	"strings"
	"testing"
	"time"
)

func TestIsValidIntentTag(t *testing.T) {
	valid := []IntentTag{
		IntentClarify, IntentFactual, IntentLiveSearch, IntentLocalSearch,
		IntentInformationalSearch, IntentSetReminder, IntentPlayVideo,
		IntentSendEmail, IntentEscalateMedium, IntentAutonomousPlan,
		IntentEscalatePowerful,
	}
	for _, tag := range valid {
		if !IsValidIntentTag(tag) {
			t.Errorf("expected %q to be valid", tag)
		}
	}
	for _, tag := range []IntentTag{"", "search", "FACTUAL", "greeting"} {
		if IsValidIntentTag(tag) {
			t.Errorf("expected %q to be invalid", tag)
		}
	}
}

func TestTurnRequestValidate(t *testing.T) {
	cases := []struct {
		name    string
		req     TurnRequest
		wantErr error
	}{
		{"valid", TurnRequest{Query: "hello", ConversationID: "c1"}, nil},
		{"empty query", TurnRequest{ConversationID: "c1"}, ErrEmptyQuery},
		{"empty conversation", TurnRequest{Query: "hello"}, ErrEmptyConversationID},
		{"too long", TurnRequest{Query: strings.Repeat("a", MaxQueryLength+1), ConversationID: "c1"}, ErrQueryTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.req.Validate(); err != tc.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestSessionMessageValidate(t *testing.T) {
	msg := SessionMessage{SessionID: "s1", Role: RoleUser, Content: "hi"}
	if err := msg.Validate(); err != nil {
		t.Errorf("expected valid message, got %v", err)
	}

	msg.Role = "system"
	if err := msg.Validate(); err != ErrInvalidMessageRole {
		t.Errorf("expected ErrInvalidMessageRole, got %v", err)
	}

	msg.Role = RoleAssistant
	msg.Content = ""
	if err := msg.Validate(); err != ErrEmptyMessageContent {
		t.Errorf("expected ErrEmptyMessageContent, got %v", err)
	}
}

func TestParsedTaskComplete(t *testing.T) {
	at := time.Now().UTC()
	if !(ParsedTask{Description: "Call mom", ScheduledAt: &at}).Complete() {
		t.Error("expected task with description and time to be complete")
	}
	if (ParsedTask{Description: "Call mom"}).Complete() {
		t.Error("expected task without time to be incomplete")
	}
	if (ParsedTask{ScheduledAt: &at}).Complete() {
		t.Error("expected task without description to be incomplete")
	}
}

func TestTierOrderCoversAllTiers(t *testing.T) {
	if len(TierOrder) != 4 {
		t.Fatalf("expected 4 tiers in order, got %d", len(TierOrder))
	}
	seen := map[Tier]bool{}
	for _, tier := range TierOrder {
		if !IsValidTier(tier) {
			t.Errorf("tier %q in TierOrder is not valid", tier)
		}
		if seen[tier] {
			t.Errorf("tier %q appears twice in TierOrder", tier)
		}
		seen[tier] = true
	}
}
