// Package taskparse extracts reminder tasks from natural language.
//
// It layers deterministic extractors by precedence: relative offsets ("in 5
// minutes"), explicit clock times with AM/PM, 24-hour times, bare hours with
// an AM/PM heuristic, day-keyword defaults ("tonight"), and finally a lenient
// date-layout fallback. All resolved instants are UTC.
package taskparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/voxa-labs/voxa/internal/models"
)

// taskVerbs are the action words that signal a task request.
var taskVerbs = []string{
	"remind", "tell", "notify", "alert", "ping", "wake", "call",
	"text", "message", "email", "alarm", "schedule", "book",
	"remember", "don't forget", "note", "jot down", "set", "create",
}

var (
	reInMinutes = regexp.MustCompile(`in\s+(\d+)\s*(?:minutes|minute|mins|min|m)(?:\s|$)`)
	reInHours   = regexp.MustCompile(`in\s+(\d+)\s*(?:hours|hour|hrs|hr|h)(?:\s|$)`)
	reInDays    = regexp.MustCompile(`in\s+(\d+)\s*(?:days|day|d)(?:\s|$)`)

	reAt12Hr         = regexp.MustCompile(`at\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)`)
	re12HrStandalone = regexp.MustCompile(`(\d{1,2})(?::(\d{2}))?\s*(am|pm)(?:\s|$)`)

	reAt24Hr         = regexp.MustCompile(`at\s+(\d{1,2}):(\d{2})`)
	re24HrStandalone = regexp.MustCompile(`(\d{1,2}):(\d{2})`)

	// Bare hour: ':' after the digits fails the trailing class, so "at 5:30"
	// never matches here.
	reAtHourOnly = regexp.MustCompile(`at\s+(\d{1,2})(?:\s|$)`)

	reDayOfWeek = regexp.MustCompile(`(monday|tuesday|wednesday|thursday|friday|saturday|sunday)`)
	reNextWeek  = regexp.MustCompile(`next\s+week`)
)

// timeSignals are all patterns that count as a time mention for task detection.
var timeSignals = []*regexp.Regexp{
	reInMinutes, reInHours, reInDays,
	reAt12Hr, re12HrStandalone,
	reAt24Hr, re24HrStandalone,
	reAtHourOnly,
	regexp.MustCompile(`tomorrow`),
	regexp.MustCompile(`today`),
	regexp.MustCompile(`tonight`),
	reNextWeek,
	regexp.MustCompile(`this\s+evening`),
	regexp.MustCompile(`this\s+morning`),
	regexp.MustCompile(`this\s+afternoon`),
	reDayOfWeek,
}

// verbPhrasePatterns strip leading task-verb phrasing from a description.
var verbPhrasePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:remind|tell|notify|alert|ping|wake|call|text|message)\s+(?:me\s+)?(?:to\s+)?`),
	regexp.MustCompile(`(?i)^(?:set\s+)?(?:a\s+)?(?:reminder|alarm|task|notification)\s+(?:to\s+)?(?:for\s+)?`),
	regexp.MustCompile(`(?i)^(?:don't\s+forget\s+to\s+)`),
	regexp.MustCompile(`(?i)^(?:remember\s+to\s+)`),
	regexp.MustCompile(`(?i)^(?:schedule\s+(?:a\s+)?(?:reminder\s+)?(?:to\s+)?)`),
	regexp.MustCompile(`(?i)^(?:create\s+(?:a\s+)?(?:reminder\s+)?(?:to\s+)?)`),
}

var (
	dayKeywords       = []string{"tomorrow", "today", "tonight", "this evening", "this morning", "this afternoon"}
	reFillerWords     = regexp.MustCompile(`\b(me|to|about)\b`)
	rePrepositions    = regexp.MustCompile(`\s+(?:at|in|on)(?:\s+|$)`)
	reMultiSpace      = regexp.MustCompile(`\s+`)
	verbBoundaryRegex = buildVerbRegexps()
)

func buildVerbRegexps() []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(taskVerbs))
	for _, v := range taskVerbs {
		out = append(out, regexp.MustCompile(`\b`+regexp.QuoteMeta(v)+`\b`))
	}
	return out
}

// fuzzyLayouts are tried, longest first, over the query remainder when no
// structured pattern matched.
var fuzzyLayouts = []string{
	"Jan 2 2006 3:04 pm",
	"Jan 2 3:04 pm",
	"January 2 2006",
	"January 2",
	"Jan 2 2006",
	"Jan 2",
	"2 Jan 2006",
	"2 Jan",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006",
}

// Parser extracts tasks and schedule times from free-form queries.
type Parser struct {
	now func() time.Time
}

// Option configures a Parser.
type Option func(*Parser)

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) { p.now = now }
}

// NewParser creates a Parser using UTC wall-clock time.
func NewParser(opts ...Option) *Parser {
	p := &Parser{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IsTaskQuery reports whether the query looks like a request to create a
// task or reminder.
func (p *Parser) IsTaskQuery(query string) bool {
	q := strings.ToLower(query)

	for _, re := range verbBoundaryRegex {
		if re.MatchString(q) {
			return true
		}
	}

	// A time mention plus an action indicator is treated as a task even
	// without an explicit verb.
	for _, re := range timeSignals {
		if re.MatchString(q) {
			for _, indicator := range []string{"me", "to", "about", "for"} {
				if strings.Contains(q, indicator) {
					return true
				}
			}
			break
		}
	}

	return strings.Contains(q, "tomorrow") || strings.Contains(q, "tonight")
}

// timeResult is the internal outcome of time extraction.
type timeResult struct {
	at         *time.Time
	display    string
	matched    string
	confidence float64
}

// ParseTask extracts a task description and schedule time from the query.
// When no time can be resolved the result has a nil ScheduledAt, zero
// confidence and NeedsClarification set.
func (p *Parser) ParseTask(query string) models.ParsedTask {
	tr := p.extractTime(query)
	desc := extractDescription(query, tr.matched)

	task := models.ParsedTask{
		Description: desc,
		Confidence:  tr.confidence,
	}
	if tr.at == nil {
		task.NeedsClarification = true
		return task
	}
	task.ScheduledAt = tr.at
	task.TimeDisplay = tr.display
	task.Matched = tr.matched
	return task
}

func (p *Parser) extractTime(query string) timeResult {
	q := strings.ToLower(query)
	now := p.now()

	// Relative offsets first, they are the most common and unambiguous.
	if m := reInMinutes.FindStringSubmatch(q); m != nil {
		n, _ := strconv.Atoi(m[1])
		at := now.Add(time.Duration(n) * time.Minute)
		return timeResult{&at, fmt.Sprintf("in %d %s", n, plural(n, "minute")), strings.TrimSpace(m[0]), 1.0}
	}
	if m := reInHours.FindStringSubmatch(q); m != nil {
		n, _ := strconv.Atoi(m[1])
		at := now.Add(time.Duration(n) * time.Hour)
		return timeResult{&at, fmt.Sprintf("in %d %s", n, plural(n, "hour")), strings.TrimSpace(m[0]), 1.0}
	}
	if m := reInDays.FindStringSubmatch(q); m != nil {
		n, _ := strconv.Atoi(m[1])
		at := now.AddDate(0, 0, n)
		return timeResult{&at, fmt.Sprintf("in %d %s", n, plural(n, "day")), strings.TrimSpace(m[0]), 1.0}
	}

	// Day qualifiers adjust whatever absolute time follows.
	dayOffset := 0
	hourOverride := -1
	dayKeyword := ""
	switch {
	case strings.Contains(q, "tomorrow"):
		dayOffset = 1
		dayKeyword = "tomorrow"
	case strings.Contains(q, "tonight"):
		hourOverride = 21
		dayKeyword = "tonight"
	case strings.Contains(q, "today"):
		dayKeyword = "today"
	case strings.Contains(q, "this evening"):
		hourOverride = 18
	case strings.Contains(q, "this morning"):
		hourOverride = 8
	case strings.Contains(q, "this afternoon"):
		hourOverride = 14
	}

	// Explicit 12-hour clock time.
	m := reAt12Hr.FindStringSubmatch(q)
	if m == nil {
		m = re12HrStandalone.FindStringSubmatch(q)
	}
	if m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		period := m[3]
		if period == "pm" && hour != 12 {
			hour += 12
		} else if period == "am" && hour == 12 {
			hour = 0
		}

		at := atClock(now, hour, minute).AddDate(0, 0, dayOffset)
		if at.Before(now) && dayOffset == 0 {
			at = at.AddDate(0, 0, 1)
		}

		display := fmt.Sprintf("%s:%02d %s", m[1], minute, strings.ToUpper(period))
		if dayKeyword != "" {
			display = dayKeyword + " at " + display
		}
		return timeResult{&at, display, strings.TrimSpace(m[0]), 1.0}
	}

	// 24-hour clock time.
	m = reAt24Hr.FindStringSubmatch(q)
	if m == nil {
		m = re24HrStandalone.FindStringSubmatch(q)
	}
	if m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])

		at := atClock(now, hour, minute).AddDate(0, 0, dayOffset)
		if at.Before(now) && dayOffset == 0 {
			at = at.AddDate(0, 0, 1)
		}

		display := clockDisplay(hour, minute)
		if dayKeyword != "" {
			display = dayKeyword + " at " + display
		}
		return timeResult{&at, display, strings.TrimSpace(m[0]), 0.95}
	}

	// Bare hour needs an AM/PM guess: 1-7 defaults to PM, 8-11 to AM, with
	// surrounding keywords overriding the guess.
	if m := reAtHourOnly.FindStringSubmatch(q); m != nil {
		hour, _ := strconv.Atoi(m[1])
		switch {
		case hour >= 1 && hour <= 7:
			if !strings.Contains(q, "morning") && !strings.Contains(q, "am") {
				hour += 12
			}
		case hour >= 8 && hour <= 11:
			if strings.Contains(q, "pm") || strings.Contains(q, "evening") || strings.Contains(q, "night") {
				hour += 12
			}
		}

		at := atClock(now, hour, 0).AddDate(0, 0, dayOffset)
		if at.Before(now) && dayOffset == 0 {
			at = at.AddDate(0, 0, 1)
		}

		display := clockDisplay(hour, 0)
		if dayKeyword != "" {
			display = dayKeyword + " at " + display
		}
		return timeResult{&at, display, strings.TrimSpace(m[0]), 0.75}
	}

	// A day keyword alone ("tonight") supplies its default hour.
	if hourOverride >= 0 {
		at := atClock(now, hourOverride, 0).AddDate(0, 0, dayOffset)
		if at.Before(now) {
			at = at.AddDate(0, 0, 1)
		}

		keyword := dayKeyword
		if keyword == "" {
			keyword = "today"
		}
		matched := dayKeyword
		if matched == "" {
			matched = "tonight"
		}
		return timeResult{&at, keyword + " at " + clockDisplay(hourOverride, 0), matched, 0.8}
	}

	if tr := p.fuzzyTime(q, now); tr != nil {
		return *tr
	}

	return timeResult{}
}

// fuzzyTime strips task phrasing and tries lenient date layouts over the rest.
func (p *Parser) fuzzyTime(q string, now time.Time) *timeResult {
	remainder := q
	for _, verb := range taskVerbs {
		remainder = strings.ReplaceAll(remainder, verb, "")
	}
	remainder = reFillerWords.ReplaceAllString(remainder, "")
	remainder = strings.TrimSpace(reMultiSpace.ReplaceAllString(remainder, " "))
	if remainder == "" {
		return nil
	}

	for _, layout := range fuzzyLayouts {
		parsed, err := time.Parse(layout, remainder)
		if err != nil {
			continue
		}
		at := normalizeFuzzy(parsed, now, layout)
		if at.Before(now) && sameDate(at, now) {
			at = at.AddDate(0, 0, 1)
		}
		return &timeResult{&at, at.Format("Jan 2 at 3:04 PM"), remainder, 0.6}
	}
	return nil
}

// normalizeFuzzy fills in the year (and defaults) a layout left unspecified.
func normalizeFuzzy(parsed, now time.Time, layout string) time.Time {
	year := parsed.Year()
	if !strings.Contains(layout, "2006") {
		year = now.Year()
	}
	return time.Date(year, parsed.Month(), parsed.Day(), parsed.Hour(), parsed.Minute(), 0, 0, time.UTC)
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func atClock(now time.Time, hour, minute int) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
}

func clockDisplay(hour, minute int) string {
	displayHour := hour % 12
	if displayHour == 0 {
		displayHour = 12
	}
	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", displayHour, minute, period)
}

func plural(n int, unit string) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}

// extractDescription derives the task description by removing verb phrasing,
// the matched time substring, and day keywords from the query.
func extractDescription(query, matchedTime string) string {
	desc := strings.TrimSpace(query)

	for _, re := range verbPhrasePatterns {
		desc = re.ReplaceAllString(desc, "")
	}

	if matchedTime != "" {
		desc = strings.TrimSpace(strings.ReplaceAll(desc, matchedTime, " "))
	}

	for _, keyword := range dayKeywords {
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(keyword) + `\b`)
		desc = re.ReplaceAllString(desc, "")
	}

	desc = rePrepositions.ReplaceAllString(desc, " ")
	desc = strings.TrimSpace(reMultiSpace.ReplaceAllString(desc, " "))
	desc = strings.Trim(desc, ".,!?")

	if desc == "" {
		return "Task"
	}
	runes := []rune(desc)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
