// Package contextres resolves multi-turn conversation context.
//
// It detects follow-up queries, extracts entities (location, time, category)
// with gazetteer expansion, merges clarification answers back into the
// original query, and decides when a query needs a clarification before it
// can be answered.
package contextres

import (
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/voxa-labs/voxa/internal/models"
)

// Context is the per-conversation working memory the resolver keeps between
// turns. Unlike the TTL facets in convstate it lives in process memory.
type Context struct {
	PendingClarification *models.Clarification
	LastIntent           models.IntentTag
	Entities             map[string]string
	LastQuery            string
	LastResponse         string
	QueryHistory         []string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// followupPrefixes mark a query as continuing the previous topic.
var followupPrefixes = []string{
	"and ", "also ", "what about ", "how about ",
	"there", "that", "it", "yes", "no", "ok", "sure",
}

// locationAbbrev expands common city abbreviations and neighborhoods.
var locationAbbrev = map[string]string{
	"hyd":           "Hyderabad",
	"blr":           "Bangalore",
	"blore":         "Bangalore",
	"mum":           "Mumbai",
	"del":           "Delhi",
	"chn":           "Chennai",
	"kol":           "Kolkata",
	"pune":          "Pune",
	"narayanaguda":  "Narayanaguda, Hyderabad",
	"banjara hills": "Banjara Hills, Hyderabad",
	"hitech city":   "Hitech City, Hyderabad",
	"koramangala":   "Koramangala, Bangalore",
	"whitefield":    "Whitefield, Bangalore",
}

// shortAbbrev are the abbreviation keys checked as substrings inside a query.
var shortAbbrev = []string{"hyd", "blr", "blore", "mum", "del", "chn", "kol"}

// cities maps lowercase city mentions to canonical names, checked in order.
var cities = []struct{ key, name string }{
	{"mumbai", "Mumbai"},
	{"delhi", "Delhi"},
	{"bangalore", "Bangalore"},
	{"bengaluru", "Bangalore"},
	{"hyderabad", "Hyderabad"},
	{"chennai", "Chennai"},
	{"kolkata", "Kolkata"},
	{"pune", "Pune"},
	{"ahmedabad", "Ahmedabad"},
	{"jaipur", "Jaipur"},
	{"surat", "Surat"},
	{"lucknow", "Lucknow"},
	{"kanpur", "Kanpur"},
	{"nagpur", "Nagpur"},
	{"indore", "Indore"},
	{"thane", "Thane"},
	{"bhopal", "Bhopal"},
	{"visakhapatnam", "Visakhapatnam"},
	{"pimpri", "Pimpri-Chinchwad"},
	{"patna", "Patna"},
	{"vadodara", "Vadodara"},
	{"ghaziabad", "Ghaziabad"},
	{"ludhiana", "Ludhiana"},
}

var timeKeywords = []string{"tomorrow", "today", "tonight", "morning", "evening", "afternoon", "now", "later"}

// categories maps a local-search category to its trigger keywords, checked in order.
var categories = []struct {
	name     string
	keywords []string
}{
	{"restaurant", []string{"restaurant", "food", "eat", "dining", "cafe"}},
	{"hotel", []string{"hotel", "stay", "accommodation"}},
	{"shopping", []string{"shop", "mall", "store", "market"}},
	{"hospital", []string{"hospital", "clinic", "doctor", "medical"}},
	{"movie", []string{"movie", "cinema", "theater", "film"}},
	{"gym", []string{"gym", "fitness", "workout"}},
	{"park", []string{"park", "garden"}},
}

// Resolver keeps per-conversation context and applies the merge rules.
type Resolver struct {
	mu       sync.Mutex
	contexts map[string]*Context
	now      func() time.Time
}

// NewResolver creates an empty Resolver.
func NewResolver() *Resolver {
	return &Resolver{
		contexts: make(map[string]*Context),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Context returns the working memory for a conversation, creating it if new.
// The returned snapshot is a copy; mutate through Update.
func (r *Resolver) Context(conversationID string) Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.contexts[conversationID]; ok {
		return *c
	}
	return Context{Entities: map[string]string{}, CreatedAt: r.now()}
}

// Update applies a mutation to the conversation context under the lock.
func (r *Resolver) Update(conversationID string, fn func(*Context)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contexts[conversationID]
	if !ok {
		c = &Context{Entities: map[string]string{}, CreatedAt: r.now()}
		r.contexts[conversationID] = c
	}
	fn(c)
	c.UpdatedAt = r.now()
}

// Clear drops the conversation context entirely.
func (r *Resolver) Clear(conversationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.contexts, conversationID)
}

// IsFollowup reports whether the query continues the previous conversation
// rather than starting a new topic.
func (r *Resolver) IsFollowup(query string, ctx Context) bool {
	if ctx.PendingClarification != nil {
		return true
	}
	if len(strings.Fields(query)) <= 2 && ctx.LastQuery != "" {
		return true
	}
	q := strings.ToLower(query)
	for _, prefix := range followupPrefixes {
		if strings.HasPrefix(q, prefix) {
			return true
		}
	}
	return false
}

// ExtractEntities pulls location, time, and category entities from the query,
// falling back to the previous turn's location when none is mentioned.
func (r *Resolver) ExtractEntities(query string, ctx Context) map[string]string {
	entities := map[string]string{}
	q := strings.ToLower(query)

	if loc := extractLocation(q, ctx); loc != "" {
		entities["location"] = loc
	}
	for _, keyword := range timeKeywords {
		if strings.Contains(q, keyword) {
			entities["time"] = keyword
			break
		}
	}
	if cat := extractCategory(q); cat != "" {
		entities["category"] = cat
	}
	return entities
}

// MergeWithContext rewrites the query using the pending clarification or the
// previous topic so downstream stages see a self-contained question.
func (r *Resolver) MergeWithContext(query string, ctx Context) string {
	if ctx.PendingClarification != nil {
		clar := ctx.PendingClarification
		switch clar.Type {
		case models.ClarificationLocation:
			location := extractLocation(strings.ToLower(query), Context{})
			if location == "" {
				location = ExpandLocation(strings.TrimSpace(query))
			}
			merged := clar.OriginalQuery + " in " + location
			slog.Info("Resolver.MergeWithContext: merged clarification", "query", query, "merged", merged)
			return merged
		case models.ClarificationDetails:
			merged := clar.OriginalQuery + " " + query
			slog.Info("Resolver.MergeWithContext: merged details", "query", query, "merged", merged)
			return merged
		}
	}

	if r.IsFollowup(query, ctx) {
		q := strings.ToLower(query)
		if idx := strings.Index(q, "what about"); idx >= 0 {
			newSubject := strings.TrimSpace(strings.Replace(q, "what about", "", 1))
			newSubject = strings.TrimRight(newSubject, "?")
			newSubject = strings.TrimSpace(newSubject)
			if newSubject != "" && ctx.LastQuery != "" {
				merged := ctx.LastQuery
				if oldLoc := ctx.Entities["location"]; oldLoc != "" {
					merged = strings.ReplaceAll(merged, strings.ToLower(oldLoc), newSubject)
				} else if fields := strings.Fields(ctx.LastQuery); len(fields) > 0 {
					merged = fields[0] + " " + newSubject
				}
				slog.Info("Resolver.MergeWithContext: merged follow-up", "query", query, "merged", merged)
				return merged
			}
		}
	}

	return query
}

// NeedsClarification decides whether the query must be clarified before it
// can be answered, returning the question to ask.
func (r *Resolver) NeedsClarification(query string, intent models.IntentTag, entities map[string]string) *models.Clarification {
	if intent == models.IntentLocalSearch && entities["location"] == "" {
		return r.newClarification(models.ClarificationLocation, query,
			"Sure! To find that near you, could you please tell me your location?")
	}

	if intent == models.IntentLiveSearch && strings.Contains(strings.ToLower(query), "weather") && entities["location"] == "" {
		return r.newClarification(models.ClarificationLocation, query,
			"Which city's weather would you like to know?")
	}

	if len(strings.Fields(query)) < 2 && intent != models.IntentFactual && intent != models.IntentClarify {
		return r.newClarification(models.ClarificationDetails, query,
			"Could you provide more details about what you're looking for?")
	}

	return nil
}

func (r *Resolver) newClarification(ct models.ClarificationType, query, question string) *models.Clarification {
	return &models.Clarification{
		Type:          ct,
		OriginalQuery: query,
		Question:      question,
		CreatedAt:     r.now(),
	}
}

// ExpandLocation turns abbreviations into canonical place names and
// title-cases everything else.
func ExpandLocation(location string) string {
	key := strings.ToLower(strings.TrimSpace(location))
	if full, ok := locationAbbrev[key]; ok {
		return full
	}
	return titleCase(location)
}

func titleCase(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	for i, f := range fields {
		runes := []rune(f)
		runes[0] = unicode.ToUpper(runes[0])
		fields[i] = string(runes)
	}
	return strings.Join(fields, " ")
}

func extractLocation(q string, ctx Context) string {
	// Explicit "in <place>" / "at <place>" markers take precedence.
	for _, marker := range []string{" in ", " at "} {
		if idx := strings.Index(q, marker); idx >= 0 {
			place := strings.TrimSpace(q[idx+len(marker):])
			if place != "" {
				return ExpandLocation(place)
			}
		}
	}

	if city := findCity(q); city != "" {
		return city
	}

	if prev := ctx.Entities["location"]; prev != "" {
		slog.Debug("contextres: using location from context", "location", prev)
		return prev
	}
	return ""
}

func findCity(q string) string {
	for _, abbrev := range shortAbbrev {
		if strings.Contains(q, abbrev) {
			return locationAbbrev[abbrev]
		}
	}
	for _, city := range cities {
		if strings.Contains(q, city.key) {
			return city.name
		}
	}
	return ""
}

func extractCategory(q string) string {
	for _, category := range categories {
		for _, keyword := range category.keywords {
			if strings.Contains(q, keyword) {
				return category.name
			}
		}
	}
	return ""
}
