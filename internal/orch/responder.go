package orch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/voxa-labs/voxa/internal/models"
)

// Generator is the slice of the GenAI client the orchestrator needs.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// TaskResponder composes confirmation and success messages for reminders.
// It asks the model for a fresh phrasing each time and falls back to fixed
// templates when generation fails.
type TaskResponder struct {
	gen Generator
	now func() time.Time
}

// NewTaskResponder creates a responder over the given generator.
func NewTaskResponder(gen Generator) *TaskResponder {
	return &TaskResponder{gen: gen, now: time.Now}
}

// urgencyLabel buckets how soon the task is due.
func urgencyLabel(minutesUntil int) string {
	switch {
	case minutesUntil < 5:
		return "EXTREMELY URGENT"
	case minutesUntil < 15:
		return "URGENT"
	case minutesUntil < 60:
		return "SOON"
	case minutesUntil < 240:
		return "MODERATE"
	default:
		return "RELAXED"
	}
}

// timeDescription renders when the task fires relative to now.
func timeDescription(now, due time.Time) string {
	minutesUntil := int(due.Sub(now).Minutes())
	switch {
	case minutesUntil < 60:
		return fmt.Sprintf("%s (in %d minute%s)", due.Format("3:04 PM"), minutesUntil, pluralSuffix(minutesUntil))
	case due.YearDay() == now.YearDay() && due.Year() == now.Year():
		return "today at " + due.Format("3:04 PM")
	case due.Sub(now) < 48*time.Hour:
		return "tomorrow at " + due.Format("3:04 PM")
	default:
		return "on " + due.Format("January 2 at 3:04 PM")
	}
}

func pluralSuffix(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// classifyTaskType buckets the task so the prompt can match its tone.
func classifyTaskType(description string) string {
	d := strings.ToLower(description)
	groups := []struct {
		kind  string
		words []string
	}{
		{"sleep/wake", []string{"sleep", "wake", "alarm", "bed", "nap"}},
		{"meeting", []string{"meeting", "call", "zoom", "conference", "interview"}},
		{"fitness", []string{"gym", "workout", "exercise", "run", "fitness", "yoga"}},
		{"education", []string{"college", "class", "school", "lecture", "study", "exam"}},
		{"meal", []string{"eat", "lunch", "dinner", "breakfast", "food", "meal"}},
		{"health", []string{"medicine", "pill", "medication", "doctor", "appointment"}},
		{"celebration", []string{"birthday", "anniversary", "party", "event", "celebration"}},
	}
	for _, g := range groups {
		for _, w := range g.words {
			if strings.Contains(d, w) {
				return g.kind
			}
		}
	}
	return "general"
}

// Confirmation builds the "should I set this?" message for a pending task.
func (r *TaskResponder) Confirmation(ctx context.Context, task models.PendingTask, profile models.UserProfile) string {
	now := r.now().UTC()
	minutesUntil := int(task.ScheduledAt.Sub(now).Minutes())
	urgency := urgencyLabel(minutesUntil)
	display := timeDescription(now, task.ScheduledAt)
	taskType := classifyTaskType(task.Description)

	var namePart string
	if profile.Name != "" {
		namePart = "- User's name: " + profile.Name + "\n"
	}
	prompt := fmt.Sprintf(`You are a friendly, creative AI assistant confirming a reminder. Be NATURAL and VARIED.

CONTEXT:
- Task: %q
- When: %s
- Task type: %s
- Urgency: %s
%s
YOUR MISSION:
Generate a SHORT, natural confirmation message that:
1. Sounds like a real person talking (NOT robotic!)
2. Matches the urgency (urgent = energetic, relaxed = chill)
3. Shows the EXACT time clearly
4. Adds 1-2 relevant emojis naturally
5. Ends with a casual confirmation ("Sound good?", "Cool?", "Ready?")
6. MAX 2 short sentences

BAD EXAMPLES (don't do this):
- "I'll create a reminder for..."
- "Reminder has been set for..."
- Any formal or robotic phrasing

Now generate YOUR unique, natural confirmation:`,
		task.Description, display, taskType, urgency, namePart)

	out, err := r.gen.Generate(ctx,
		"You are creative and casual. Write like texting a friend. Be brief, natural, and unique every time.",
		prompt)
	if err != nil {
		slog.Warn("TaskResponder.Confirmation: generation failed, using fallback", "error", err)
		return fallbackConfirmation(task.Description, display, urgency)
	}
	return tidyGenerated(out)
}

// Success builds the "it's scheduled" message after the user confirms.
func (r *TaskResponder) Success(ctx context.Context, task models.PendingTask, profile models.UserProfile) string {
	now := r.now().UTC()
	display := timeDescription(now, task.ScheduledAt)
	taskType := classifyTaskType(task.Description)

	var namePart string
	if profile.Name != "" {
		namePart = "- User's name: " + profile.Name + "\n"
	}
	prompt := fmt.Sprintf(`You are a friendly AI assistant confirming a task was successfully scheduled. Be NATURAL and ENCOURAGING.

CONTEXT:
- Task: %q
- Reminder fires: %s
- Task type: %s
%s
YOUR MISSION:
Generate a SHORT, encouraging success message that:
1. Sounds genuinely excited and supportive (NOT corporate!)
2. Confirms the EXACT time clearly
3. Uses 1-2 relevant emojis
4. MAX 2-3 short sentences

BAD EXAMPLES (don't do this):
- "Reminder has been created successfully"
- "Your task is scheduled"
- Any formal or boring corporate speak

Now generate YOUR unique, encouraging message:`,
		task.Description, display, taskType, namePart)

	out, err := r.gen.Generate(ctx,
		"You are enthusiastic and supportive. Write like cheering on a friend. Be brief and natural.",
		prompt)
	if err != nil {
		slog.Warn("TaskResponder.Success: generation failed, using fallback", "error", err)
		return fallbackSuccess(task.Description, display, taskType)
	}
	return tidyGenerated(out)
}

// fallbackConfirmation picks a canned phrasing keyed off the task text so
// repeated failures still vary a little.
func fallbackConfirmation(description, display, urgency string) string {
	var templates []string
	switch urgency {
	case "EXTREMELY URGENT", "URGENT":
		templates = []string{
			"Got it! I'll buzz you at %s for '%s'. Ready? 🚀",
			"Quick! Reminder set for %s - '%s'. Sound good? ⚡",
			"On it! You'll get pinged %s about '%s'. Cool? 🎯",
		}
	case "SOON":
		templates = []string{
			"Perfect! I'll remind you at %s for '%s'. Good? ✨",
			"You got it! Reminder at %s - '%s'. Alright? 👍",
			"Sure thing! I'll ping you %s about '%s'. Ready? 🔔",
		}
	default:
		templates = []string{
			"All set! Reminder scheduled for %s - '%s'. Sound good? 📅",
			"Perfect! I'll remind you at %s for '%s'. Cool? ✅",
			"Done! You'll get a reminder %s about '%s'. Alright? 💫",
		}
	}
	return fmt.Sprintf(templates[len(description)%len(templates)], display, description)
}

func fallbackSuccess(description, display, taskType string) string {
	emojiByType := map[string]string{
		"sleep/wake":  "😴",
		"meeting":     "📅",
		"fitness":     "💪",
		"education":   "🎓",
		"meal":        "🍽️",
		"health":      "💊",
		"celebration": "🎉",
	}
	emoji, ok := emojiByType[taskType]
	if !ok {
		emoji = "✨"
	}
	templates := []string{
		"Done! %s Reminder coming %s. You're all set! 🎯",
		"Perfect! %s I'll remind you %s. All locked in! ✨",
		"You got it! %s Reminder at %s. Ready! 🚀",
	}
	return fmt.Sprintf(templates[len(description)%len(templates)], emoji, display)
}

// tidyGenerated cleans model output: wrapping quotes go, terminal
// punctuation is guaranteed.
func tidyGenerated(s string) string {
	out := strings.TrimSpace(s)
	out = strings.Trim(out, `"'`)
	out = strings.TrimSpace(out)
	if out == "" {
		return out
	}
	last, _ := utf8.DecodeLastRuneInString(out)
	if !strings.ContainsRune(".!?", last) && last <= 0x2000 {
		out += "!"
	}
	return out
}
