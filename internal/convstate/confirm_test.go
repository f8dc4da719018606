package convstate

import "testing"

func TestIsConfirmation(t *testing.T) {
	confirmations := []string{
		"yes", "Yes", "  yeah  ", "sure", "ok", "go ahead",
		"create it", "please schedule it", "sounds good", "that works",
		"yes please", "book it",
	}
	for _, q := range confirmations {
		if !IsConfirmation(q) {
			t.Errorf("expected %q to be a confirmation", q)
		}
	}
}

func TestDirectConfirmationsRequireExactMatch(t *testing.T) {
	// "yes" only counts as a direct affirmative when it is the whole query.
	if IsConfirmation("yesterday was fun") {
		t.Error("'yesterday was fun' should not be a confirmation")
	}
}

func TestIsRejection(t *testing.T) {
	rejected := []string{"no", "nope", "cancel", "never mind", "not now", "forget it", "changed my mind"}
	for _, q := range rejected {
		if !IsRejection(q) {
			t.Errorf("expected %q to be a rejection", q)
		}
	}
	if IsRejection("sounds good") {
		t.Error("'sounds good' should not be a rejection")
	}
}

// The phrase tables must never classify the same query both ways; an
// ambiguous reply has to fall through to a re-ask.
func TestConfirmationAndRejectionDisjoint(t *testing.T) {
	all := [][]string{directConfirmations, actionConfirmations, positiveConfirmations}
	for _, set := range all {
		for _, phrase := range set {
			if IsRejection(phrase) {
				t.Errorf("confirmation phrase %q also classifies as rejection", phrase)
			}
		}
	}
	for _, phrase := range rejections {
		if IsConfirmation(phrase) {
			t.Errorf("rejection phrase %q also classifies as confirmation", phrase)
		}
	}
}

func TestUnclearReplyIsNeither(t *testing.T) {
	for _, q := range []string{"hmm", "maybe", "what time is it"} {
		if IsConfirmation(q) || IsRejection(q) {
			t.Errorf("expected %q to be neither confirmation nor rejection", q)
		}
	}
}
