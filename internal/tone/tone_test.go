package tone

import (
	"strings"
	"testing"

	"github.com/voxa-labs/voxa/internal/models"
)

func TestPolishStripsFormalBoilerplate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{
			"Based on what you told me, you live in Hyderabad.",
			"You live in Hyderabad. 😊",
		},
		{
			"I am here to assist you. The capital is Paris.",
			"The capital is Paris. 😊",
		},
		{
			"It is wonderful to hear from you!",
			"Great to hear from you! 😊",
		},
	}
	for _, tc := range cases {
		if got := Polish(tc.in, models.IntentFactual); got != tc.want {
			t.Errorf("Polish(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPolishNormalizesSpacing(t *testing.T) {
	got := Polish("the answer   is  42 .", models.IntentInformationalSearch)
	if got != "The answer is 42." {
		t.Errorf("Polish = %q", got)
	}
}

func TestPolishDedupesTerminalPunctuation(t *testing.T) {
	got := Polish("Done!!!", models.IntentSetReminder)
	if got != "Done!" {
		t.Errorf("Polish = %q", got)
	}
}

func TestPolishSimplifiesWords(t *testing.T) {
	got := Polish("Currently it is raining, however it will clear up.", models.IntentInformationalSearch)
	if strings.Contains(got, "Currently") || strings.Contains(got, "however") {
		t.Errorf("formal words survived: %q", got)
	}
}

func TestPolishEmojiOnlyForFriendlyIntents(t *testing.T) {
	if got := Polish("Paris is the capital of France.", models.IntentFactual); !HasEmoji(got) {
		t.Errorf("factual response should gain an emoji: %q", got)
	}
	if got := Polish("Here are the results.", models.IntentLiveSearch); HasEmoji(got) {
		t.Errorf("live_search response should stay emoji-free: %q", got)
	}
}

func TestPolishNeverDoublesEmoji(t *testing.T) {
	in := "Hey! 😊"
	got := Polish(in, models.IntentFactual)
	if strings.Count(got, "😊") != 1 {
		t.Errorf("emoji duplicated: %q", got)
	}
}

func TestPolishContextualEmoji(t *testing.T) {
	got := Polish("It will be sunny tomorrow", models.IntentFactual)
	if !strings.Contains(got, "☀️") {
		t.Errorf("expected weather emoji: %q", got)
	}
	if strings.Contains(got, "😊") {
		t.Errorf("only one emoji expected: %q", got)
	}
}

func TestGuidelinesIncludesProfile(t *testing.T) {
	guide := Guidelines(models.UserProfile{
		Name:      "Ravi",
		Location:  "Hyderabad",
		Interests: []string{"cricket", "movies", "cooking", "chess"},
	})
	for _, want := range []string{"Ravi", "Hyderabad", "cricket, movies, cooking", "KEEP IT SHORT"} {
		if !strings.Contains(guide, want) {
			t.Errorf("guidelines missing %q", want)
		}
	}
	if strings.Contains(guide, "chess") {
		t.Error("interests should be capped at three")
	}
}

func TestGuidelinesDefaults(t *testing.T) {
	guide := Guidelines(models.UserProfile{})
	for _, want := range []string{"Not yet shared", "Getting to know them", "Unknown"} {
		if !strings.Contains(guide, want) {
			t.Errorf("guidelines missing default %q", want)
		}
	}
}
