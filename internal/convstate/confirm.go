package convstate

import "strings"

// directConfirmations match only as the entire (normalized) query.
var directConfirmations = []string{
	"yes", "yeah", "yep", "yup", "sure", "ok", "okay", "fine",
	"correct", "right", "exactly", "perfect", "absolutely",
	"go ahead", "proceed", "please", "do it", "yes please",
}

// actionConfirmations match anywhere in the query.
var actionConfirmations = []string{
	"create it", "make it", "set it", "do it", "schedule it",
	"add it", "confirm", "please do", "go for it", "create",
	"make", "set", "schedule", "add", "save it", "book it",
}

// positiveConfirmations match anywhere in the query.
var positiveConfirmations = []string{
	"sounds good", "looks good", "that's right", "that's correct",
	"all good", "perfect timing", "that works", "works for me",
	"good", "great", "awesome", "nice",
}

// rejections match anywhere in the query.
var rejections = []string{
	"no", "nope", "nah", "cancel", "stop", "never mind", "nevermind",
	"don't", "not now", "later", "forget it", "skip", "abort",
	"no thanks", "not really", "changed my mind", "not interested",
}

// IsConfirmation reports whether the query affirms a proposed action.
// Direct affirmatives must match the whole query; action and positive
// phrases match as substrings.
func IsConfirmation(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))

	for _, phrase := range directConfirmations {
		if q == phrase {
			return true
		}
	}
	for _, phrase := range actionConfirmations {
		if strings.Contains(q, phrase) {
			return true
		}
	}
	for _, phrase := range positiveConfirmations {
		if strings.Contains(q, phrase) {
			return true
		}
	}
	return false
}

// IsRejection reports whether the query cancels a proposed action.
func IsRejection(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	for _, phrase := range rejections {
		if strings.Contains(q, phrase) {
			return true
		}
	}
	return false
}
