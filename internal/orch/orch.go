// Package orch runs conversational turns: task detection, pending-task
// confirmation, context resolution, intent classification, routed
// execution, and session persistence, streamed as server-sent events.
package orch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/voxa-labs/voxa/internal/contextres"
	"github.com/voxa-labs/voxa/internal/convstate"
	"github.com/voxa-labs/voxa/internal/intent"
	"github.com/voxa-labs/voxa/internal/models"
	"github.com/voxa-labs/voxa/internal/router"
	"github.com/voxa-labs/voxa/internal/scheduler"
	"github.com/voxa-labs/voxa/internal/search"
	"github.com/voxa-labs/voxa/internal/session"
	"github.com/voxa-labs/voxa/internal/taskparse"
	"github.com/voxa-labs/voxa/internal/tone"
)

// Canned turn messages.
const (
	turnErrorMessage     = "I encountered an error processing your request. Please try again."
	scheduleErrorMessage = "Hmm, something went wrong scheduling that. Mind trying again? 🤔"
	rejectMessage        = "No problem! I've cancelled the reminder. 👍"
	defaultClarifyAsk    = "Can you provide more details?"
	streamChunkWords     = 3
)

// Classifier resolves a query to an intent.
type Classifier interface {
	Classify(ctx context.Context, query string, hint intent.Hint) (models.Intent, error)
}

// Router picks tiers and executes generation with fallback.
type Router interface {
	Route(query string, tag models.IntentTag) models.RouteDecision
	ExecuteWithFallback(ctx context.Context, prompt string, start models.Tier) (router.Result, error)
}

// Searcher runs web and live-data lookups.
type Searcher interface {
	Search(ctx context.Context, query string, kind search.Kind, location string) (search.Response, error)
}

// ReminderService schedules confirmed reminders.
type ReminderService interface {
	Schedule(conversationID, description string, dueAt time.Time) (scheduler.Reminder, error)
}

// Mailer delivers user-requested emails.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Deps carries everything the orchestrator composes.
type Deps struct {
	Parser     *taskparse.Parser
	States     *convstate.Store
	Resolver   *contextres.Resolver
	Classifier Classifier
	Router     Router
	Searcher   Searcher
	Sessions   session.Store
	Reminders  ReminderService
	Generator  Generator
	Mailer     Mailer
	Profile    models.UserProfile
}

// Orchestrator is the turn state machine.
type Orchestrator struct {
	parser     *taskparse.Parser
	states     *convstate.Store
	resolver   *contextres.Resolver
	classifier Classifier
	router     Router
	searcher   Searcher
	sessions   session.Store
	reminders  ReminderService
	gen        Generator
	mailer     Mailer
	responder  *TaskResponder
	profile    models.UserProfile
}

// New wires an Orchestrator from its dependencies.
func New(deps Deps) *Orchestrator {
	return &Orchestrator{
		parser:     deps.Parser,
		states:     deps.States,
		resolver:   deps.Resolver,
		classifier: deps.Classifier,
		router:     deps.Router,
		searcher:   deps.Searcher,
		sessions:   deps.Sessions,
		reminders:  deps.Reminders,
		gen:        deps.Generator,
		mailer:     deps.Mailer,
		responder:  NewTaskResponder(deps.Generator),
		profile:    deps.Profile,
	}
}

// HandleTurn runs one conversational turn in its own goroutine. The
// returned channel closes when the turn finishes; cancelling ctx stops the
// stream.
func (o *Orchestrator) HandleTurn(ctx context.Context, req models.TurnRequest) <-chan models.StreamEvent {
	events := make(chan models.StreamEvent)
	go func() {
		defer close(events)
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Orchestrator.HandleTurn: panic recovered", "panic", r, "conversationID", req.ConversationID)
				o.stream(ctx, events, turnErrorMessage)
			}
		}()

		if err := req.Validate(); err != nil {
			o.emit(ctx, events, models.StreamEvent{Event: models.EventError, Data: err.Error()})
			return
		}
		o.runTurn(ctx, req, events)
	}()
	return events
}

func (o *Orchestrator) runTurn(ctx context.Context, req models.TurnRequest, events chan<- models.StreamEvent) {
	query := req.Query
	convID := req.ConversationID
	slog.Info("Orchestrator.runTurn: handling query", "conversationID", convID)

	// Task detection comes before everything else so any phrasing of a
	// reminder is caught, whatever the classifier would have said.
	if o.parser.IsTaskQuery(query) {
		parsed := o.parser.ParseTask(query)
		slog.Debug("Orchestrator.runTurn: task parsed",
			"description", parsed.Description, "display", parsed.TimeDisplay, "confidence", parsed.Confidence)
		if parsed.Complete() {
			pending := models.PendingTask{
				Description: parsed.Description,
				ScheduledAt: parsed.ScheduledAt.UTC(),
				TimeDisplay: parsed.TimeDisplay,
				Confidence:  parsed.Confidence,
				CreatedAt:   time.Now().UTC(),
			}
			o.states.SavePendingTask(ctx, convID, pending)
			o.stream(ctx, events, o.responder.Confirmation(ctx, pending, o.profile))
			return
		}
	}

	// Pending-task confirmation gate.
	if pending, ok := o.states.PendingTask(ctx, convID); ok {
		switch {
		case convstate.IsConfirmation(query):
			if _, err := o.reminders.Schedule(convID, pending.Description, pending.ScheduledAt); err != nil {
				// Keep the pending task so another "yes" can retry.
				slog.Error("Orchestrator.runTurn: reminder scheduling failed", "error", err, "conversationID", convID)
				o.stream(ctx, events, scheduleErrorMessage)
				return
			}
			o.states.ClearPendingTask(ctx, convID)
			o.stream(ctx, events, o.responder.Success(ctx, pending, o.profile))
			return
		case convstate.IsRejection(query):
			o.states.ClearPendingTask(ctx, convID)
			o.stream(ctx, events, rejectMessage)
			return
		default:
			msg := fmt.Sprintf("I'm not sure if you want me to create this reminder:\n\n"+
				"**Task:** %s\n**Time:** %s\n\n"+
				"Please say **'yes'** to confirm or **'no'** to cancel.",
				pending.Description, pending.TimeDisplay)
			o.stream(ctx, events, msg)
			return
		}
	}

	// Context resolution: merge follow-ups, extract entities.
	cctx := o.resolver.Context(convID)
	merged := query
	if o.resolver.IsFollowup(query, cctx) {
		merged = o.resolver.MergeWithContext(query, cctx)
		slog.Info("Orchestrator.runTurn: merged follow-up", "original", query, "merged", merged)
	}
	entities := o.resolver.ExtractEntities(merged, cctx)

	// Intent classification with the personal and topical context hint.
	hint := intent.Hint{PersonalFacts: personalFacts(o.profile)}
	if topic, ok := o.states.LastTopic(ctx, convID); ok {
		hint.LastTopic = &topic
	}
	in, err := o.classifier.Classify(ctx, merged, hint)
	if err != nil {
		// The classifier returns a safe default even when it errors.
		slog.Warn("Orchestrator.runTurn: classification degraded", "error", err, "fallback", in.Tag)
	}
	params := make(map[string]string, len(in.Parameters)+len(entities))
	for k, v := range in.Parameters {
		params[k] = v
	}
	for k, v := range entities {
		params[k] = v
	}
	slog.Info("Orchestrator.runTurn: intent classified", "intent", in.Tag, "confidence", in.Confidence)

	// Clarification gate.
	if clar := o.resolver.NeedsClarification(merged, in.Tag, entities); clar != nil && cctx.PendingClarification == nil {
		o.resolver.Update(convID, func(c *contextres.Context) {
			c.PendingClarification = clar
			c.LastQuery = merged
			c.LastIntent = in.Tag
		})
		o.stream(ctx, events, tone.Polish(clar.Question, models.IntentClarify))
		return
	}
	o.resolver.Update(convID, func(c *contextres.Context) {
		if c.PendingClarification != nil && len(entities) > 0 {
			c.PendingClarification = nil
		}
		c.LastQuery = merged
		c.LastIntent = in.Tag
		c.Entities = entities
		c.QueryHistory = append(c.QueryHistory, merged)
	})

	// Execute the intent on the routed tier.
	decision := o.router.Route(merged, in.Tag)
	slog.Info("Orchestrator.runTurn: routing", "tier", decision.Tier, "reasoning", decision.Reasoning)
	response := o.execute(ctx, merged, in.Tag, params, decision.Tier)

	response = tone.Polish(response, in.Tag)
	o.persistTurn(ctx, convID, req.Query, merged, response, in, params, entities)
	o.stream(ctx, events, response)
}

// execute dispatches the classified intent to its handler. Handlers never
// return raw errors; failures become apologetic text.
func (o *Orchestrator) execute(ctx context.Context, query string, tag models.IntentTag, params map[string]string, tier models.Tier) string {
	switch tag {
	case models.IntentClarify:
		if q := params["question"]; q != "" {
			return q
		}
		return defaultClarifyAsk

	case models.IntentFactual:
		return o.handleFactual(ctx, query, tier)

	case models.IntentLiveSearch:
		return o.handleSearch(ctx, paramOr(params, "query", query), search.KindLive, params["location"],
			"Sorry, I encountered an error fetching live data. Please try again! 🔄")

	case models.IntentLocalSearch:
		return o.handleSearch(ctx, paramOr(params, "query", query), search.KindLocal, params["location"],
			"Sorry, I encountered an error searching local results. Please try again! 🔄")

	case models.IntentInformationalSearch:
		return o.handleSearch(ctx, paramOr(params, "query", query), search.KindGeneral, params["location"],
			"Sorry, I encountered an error performing the search.")

	case models.IntentPlayVideo:
		return o.handleVideo(ctx, paramOr(params, "video_query", query))

	case models.IntentSendEmail:
		return o.handleEmail(ctx, params)

	case models.IntentSetReminder:
		// The parser owns reminder creation; landing here means no time
		// could be extracted.
		return "I'd love to set that reminder! When should I remind you?"

	case models.IntentAutonomousPlan:
		return o.handleGenerated(ctx, planningPrompt(query), tier,
			"Sorry, I encountered an error creating the plan. Please try again! 📋")

	case models.IntentEscalatePowerful:
		return o.handleGenerated(ctx, analysisPrompt(query), tier,
			"Sorry, I encountered an error performing the analysis. Please try again! 🔍")

	default:
		// escalate_medium and anything unexpected: general generation with
		// the personality guidelines.
		return o.handleGenerated(ctx, generalPrompt(query, o.profile), tier, turnErrorMessage)
	}
}

// handleFactual answers greetings directly and routes everything else
// through generation on the fast tier.
func (o *Orchestrator) handleFactual(ctx context.Context, query string, tier models.Tier) string {
	if isGreeting(query) {
		if o.profile.Name != "" {
			return fmt.Sprintf("Hey %s! 😊 How can I help you today?", o.profile.Name)
		}
		return "Hey! 😊 How can I help?"
	}
	return o.handleGenerated(ctx, generalPrompt(query, o.profile), tier, turnErrorMessage)
}

func (o *Orchestrator) handleSearch(ctx context.Context, query string, kind search.Kind, location, apology string) string {
	resp, err := o.searcher.Search(ctx, query, kind, location)
	if err != nil {
		slog.Warn("Orchestrator.handleSearch: search failed", "kind", kind, "error", err)
		if resp.Formatted != "" {
			return resp.Formatted
		}
		return apology
	}
	return resp.Formatted
}

func (o *Orchestrator) handleVideo(ctx context.Context, query string) string {
	resp, err := o.searcher.Search(ctx, query+" site:youtube.com", search.KindGeneral, "")
	if err != nil || len(resp.Results) == 0 {
		return "I couldn't find any videos for that search."
	}
	results := resp.Results
	if len(results) > 3 {
		results = results[:3]
	}
	var b strings.Builder
	b.WriteString("Here are some videos I found:\n\n")
	for i, v := range results {
		fmt.Fprintf(&b, "%d. **%s**\n   🔗 %s\n\n", i+1, v.Title, v.Link)
	}
	return b.String()
}

func (o *Orchestrator) handleEmail(ctx context.Context, params map[string]string) string {
	recipient := params["recipient_email"]
	subject := params["subject"]
	body := params["body"]
	if recipient == "" || subject == "" || body == "" {
		return "I need the recipient's email, subject, and body to send an email. Can you provide those?"
	}
	if o.mailer == nil {
		return "Email isn't set up yet, so I can't send that. Sorry!"
	}
	if err := o.mailer.Send(ctx, recipient, subject, body); err != nil {
		slog.Error("Orchestrator.handleEmail: send failed", "error", err)
		return fmt.Sprintf("❌ Failed to send email to %s. Please check the email address and try again.", recipient)
	}
	return fmt.Sprintf("✅ Email sent successfully to %s!", recipient)
}

func (o *Orchestrator) handleGenerated(ctx context.Context, prompt string, tier models.Tier, apology string) string {
	res, err := o.router.ExecuteWithFallback(ctx, prompt, tier)
	if err != nil {
		slog.Error("Orchestrator.handleGenerated: all tiers failed", "error", err)
		return apology
	}
	return res.Text
}

// persistTurn saves topic state and the session exchange. Storage trouble
// degrades the turn to stateless, never fails it.
func (o *Orchestrator) persistTurn(ctx context.Context, convID, originalQuery, merged, response string, in models.Intent, params, entities map[string]string) {
	topic := entities["category"]
	if topic == "" {
		topic = firstWords(merged, 4)
	}
	o.states.SaveLastTopic(ctx, convID, models.TopicState{
		Topic:           topic,
		Entities:        entities,
		Query:           merged,
		ResponsePreview: response,
	})
	o.resolver.Update(convID, func(c *contextres.Context) {
		c.LastResponse = response
	})

	if _, err := o.sessions.EnsureSession(convID, ""); err != nil {
		slog.Warn("Orchestrator.persistTurn: could not ensure session", "error", err, "conversationID", convID)
		return
	}
	meta := models.MessageMetadata{Intent: in.Tag, Confidence: in.Confidence, Parameters: params}
	if err := o.sessions.AddMessage(models.SessionMessage{
		SessionID: convID,
		Role:      models.RoleUser,
		Content:   originalQuery,
		Metadata:  meta,
	}); err != nil {
		slog.Warn("Orchestrator.persistTurn: could not save user message", "error", err)
	}
	if err := o.sessions.AddMessage(models.SessionMessage{
		SessionID: convID,
		Role:      models.RoleAssistant,
		Content:   response,
		Metadata:  models.MessageMetadata{Intent: in.Tag},
	}); err != nil {
		slog.Warn("Orchestrator.persistTurn: could not save assistant message", "error", err)
	}

	// First exchange names the session.
	if sess, err := o.sessions.Session(convID); err == nil && sess != nil && sess.MessageCount == 2 {
		if err := o.sessions.AutoTitle(convID, originalQuery); err != nil {
			slog.Debug("Orchestrator.persistTurn: could not auto-title", "error", err)
		}
	}
}

// stream emits text as small word chunks for a progressive feel.
func (o *Orchestrator) stream(ctx context.Context, events chan<- models.StreamEvent, text string) {
	words := strings.Fields(text)
	for i := 0; i < len(words); i += streamChunkWords {
		end := i + streamChunkWords
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.Join(words[i:end], " ")
		if end < len(words) {
			chunk += " "
		}
		if !o.emit(ctx, events, models.StreamEvent{Event: models.EventTextChunk, Data: chunk}) {
			return
		}
	}
}

func (o *Orchestrator) emit(ctx context.Context, events chan<- models.StreamEvent, ev models.StreamEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// ---- prompt builders and helpers ----

func generalPrompt(query string, profile models.UserProfile) string {
	return tone.Guidelines(profile) + "\n\nUser's question: " + query
}

func planningPrompt(query string) string {
	return `You are an expert AI planner. Create a detailed, actionable plan for the user's goal.
Break down the goal into clear steps, provide timelines, and include helpful tips.

User's Goal: ` + query + `

Provide a comprehensive plan with:
1. Overview and objectives
2. Step-by-step action items
3. Timeline/milestones
4. Tips and considerations
5. Resources needed`
}

func analysisPrompt(query string) string {
	return `You are an expert analyst with deep knowledge across multiple domains.
Provide a thorough, well-researched analysis of the user's question.

User's Question: ` + query + `

Provide:
1. Comprehensive analysis
2. Multiple perspectives
3. Data and evidence
4. Practical insights
5. Clear conclusions`
}

var greetings = []string{"hi", "hello", "hey", "yo", "good morning", "good afternoon", "good evening", "what's up", "sup"}

func isGreeting(query string) bool {
	q := strings.ToLower(strings.TrimRight(strings.TrimSpace(query), "!. "))
	if len(strings.Fields(q)) > 4 {
		return false
	}
	for _, g := range greetings {
		if q == g || strings.HasPrefix(q, g+" ") {
			return true
		}
	}
	return false
}

func personalFacts(profile models.UserProfile) []string {
	var facts []string
	if profile.Name != "" {
		facts = append(facts, "Name: "+profile.Name)
	}
	if profile.Location != "" {
		facts = append(facts, "Location: "+profile.Location)
	}
	if len(profile.Interests) > 0 {
		facts = append(facts, "Interests: "+strings.Join(profile.Interests, ", "))
	}
	return facts
}

func paramOr(params map[string]string, key, fallback string) string {
	if v := params[key]; v != "" {
		return v
	}
	return fallback
}

func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
