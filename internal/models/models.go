// Package models defines the core data structures for voxa.
//
// It includes the closed intent taxonomy, parsed task and conversation state
// types, routing decisions, and the stream event envelope shared across modules.
package models

import (
	"errors"
	"time"
)

// IntentTag identifies one of the closed set of intents the classifier may emit.
type IntentTag string

const (
	// IntentClarify asks the user a follow-up question before answering.
	IntentClarify IntentTag = "clarify"
	// IntentFactual answers simple factual questions and greetings.
	IntentFactual IntentTag = "factual"
	// IntentLiveSearch fetches real-time data (weather, stocks, scores, news).
	IntentLiveSearch IntentTag = "live_search"
	// IntentLocalSearch finds places near a location.
	IntentLocalSearch IntentTag = "local_search"
	// IntentInformationalSearch answers research-style questions with web results.
	IntentInformationalSearch IntentTag = "informational_search"
	// IntentSetReminder creates a scheduled reminder.
	IntentSetReminder IntentTag = "set_reminder"
	// IntentPlayVideo finds a video to play.
	IntentPlayVideo IntentTag = "play_video"
	// IntentSendEmail composes and sends an email.
	IntentSendEmail IntentTag = "send_email"
	// IntentEscalateMedium handles moderately complex reasoning.
	IntentEscalateMedium IntentTag = "escalate_medium"
	// IntentAutonomousPlan produces a multi-step plan.
	IntentAutonomousPlan IntentTag = "autonomous_plan"
	// IntentEscalatePowerful handles deep analysis on the strongest model.
	IntentEscalatePowerful IntentTag = "escalate_powerful"
)

// Error variables for better error handling and testability
var (
	ErrEmptyQuery            = errors.New("query cannot be empty")
	ErrEmptyConversationID   = errors.New("conversation_id cannot be empty")
	ErrInvalidIntentTag      = errors.New("invalid intent tag")
	ErrQueryTooLong          = errors.New("query exceeds maximum length")
	ErrEmptyTopic            = errors.New("topic snippet cannot be empty")
	ErrInvalidClarification  = errors.New("invalid clarification type")
	ErrEmptySessionID        = errors.New("session id cannot be empty")
	ErrInvalidMessageRole    = errors.New("invalid message role")
	ErrEmptyMessageContent   = errors.New("message content cannot be empty")
	ErrMessageContentTooLong = errors.New("message content exceeds maximum length")
)

// Validation constants for input validation
const (
	// MaxQueryLength defines the maximum allowed length for a user query.
	MaxQueryLength = 4096
	// MaxMessageContentLength defines the maximum allowed length for a stored message.
	MaxMessageContentLength = 65536
	// ResponsePreviewLength is how much of an assistant response the topic state keeps.
	ResponsePreviewLength = 200
	// AutoTitleLength is the maximum session title derived from the first message.
	AutoTitleLength = 50
)

// IsValidIntentTag checks if the given intent tag belongs to the closed set.
func IsValidIntentTag(tag IntentTag) bool {
	switch tag {
	case IntentClarify, IntentFactual, IntentLiveSearch, IntentLocalSearch,
		IntentInformationalSearch, IntentSetReminder, IntentPlayVideo,
		IntentSendEmail, IntentEscalateMedium, IntentAutonomousPlan,
		IntentEscalatePowerful:
		return true
	default:
		return false
	}
}

// Intent is a classified user intent with any parameters the classifier extracted.
type Intent struct {
	Tag        IntentTag         `json:"intent"`
	Confidence float64           `json:"confidence,omitempty"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

// Valid reports whether the intent carries a tag from the closed set.
func (i Intent) Valid() bool {
	return IsValidIntentTag(i.Tag)
}

// Param returns a named parameter or empty string when absent.
func (i Intent) Param(key string) string {
	if i.Parameters == nil {
		return ""
	}
	return i.Parameters[key]
}

// ParsedTask is the result of natural-language task extraction.
//
// Invariant: ScheduledAt == nil implies Confidence == 0 and NeedsClarification.
type ParsedTask struct {
	Description        string     `json:"description"`
	ScheduledAt        *time.Time `json:"scheduled_at,omitempty"`
	TimeDisplay        string     `json:"time_display,omitempty"`
	Matched            string     `json:"matched,omitempty"` // the time substring that matched
	Confidence         float64    `json:"confidence"`
	NeedsClarification bool       `json:"needs_clarification"`
}

// Complete reports whether the task has both a description and a resolved time.
func (p ParsedTask) Complete() bool {
	return p.Description != "" && p.ScheduledAt != nil
}

// PendingTask is a parsed task awaiting user confirmation.
type PendingTask struct {
	Description string    `json:"description"`
	ScheduledAt time.Time `json:"scheduled_at"` // UTC instant
	TimeDisplay string    `json:"time_display"`
	Confidence  float64   `json:"confidence"`
	CreatedAt   time.Time `json:"created_at"`
}

// TopicState captures what the previous turn was about, for follow-up resolution.
type TopicState struct {
	Topic           string            `json:"topic"`
	Entities        map[string]string `json:"entities,omitempty"`
	Query           string            `json:"query"`
	ResponsePreview string            `json:"response_preview,omitempty"`
	Timestamp       time.Time         `json:"timestamp"`
}

// ClarificationType identifies what kind of information a clarification asks for.
type ClarificationType string

const (
	// ClarificationLocation asks where the user means.
	ClarificationLocation ClarificationType = "location"
	// ClarificationDetails asks for more detail about a vague query.
	ClarificationDetails ClarificationType = "details"
	// ClarificationConfirmation asks for a yes/no on a proposed action.
	ClarificationConfirmation ClarificationType = "confirmation"
)

// IsValidClarificationType checks if the given clarification type is supported.
func IsValidClarificationType(ct ClarificationType) bool {
	switch ct {
	case ClarificationLocation, ClarificationDetails, ClarificationConfirmation:
		return true
	default:
		return false
	}
}

// Clarification is a stored question the assistant asked and is waiting on.
type Clarification struct {
	Type          ClarificationType `json:"type"`
	OriginalQuery string            `json:"original_query"`
	Question      string            `json:"question"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Tier identifies a model capability tier for routing.
type Tier string

const (
	// TierFast is the cheapest, lowest-latency tier.
	TierFast Tier = "fast"
	// TierBalanced trades some speed for quality.
	TierBalanced Tier = "balanced"
	// TierPowerful is for complex reasoning.
	TierPowerful Tier = "powerful"
	// TierPremium is the last-resort, highest-capability tier.
	TierPremium Tier = "premium"
)

// TierOrder is the fixed fallback walk order across tiers.
var TierOrder = []Tier{TierFast, TierBalanced, TierPowerful, TierPremium}

// IsValidTier checks if the given tier is one of the four routing tiers.
func IsValidTier(t Tier) bool {
	switch t {
	case TierFast, TierBalanced, TierPowerful, TierPremium:
		return true
	default:
		return false
	}
}

// Complexity classifies how demanding a query is, independent of intent.
type Complexity string

const (
	// ComplexitySimple covers short lookups and yes/no questions.
	ComplexitySimple Complexity = "simple"
	// ComplexityMedium covers explanations and comparisons.
	ComplexityMedium Complexity = "medium"
	// ComplexityComplex covers analysis and evaluation.
	ComplexityComplex Complexity = "complex"
	// ComplexityCreative covers open-ended generation.
	ComplexityCreative Complexity = "creative"
)

// RouteDecision is the router's choice of tier for a query.
type RouteDecision struct {
	Tier      Tier   `json:"tier"`
	Provider  string `json:"provider,omitempty"`
	Model     string `json:"model,omitempty"`
	Reasoning string `json:"reasoning"`
}

// StreamEventType identifies a server-sent event emitted during a turn.
type StreamEventType string

const (
	// EventTextChunk carries a piece of assistant response text.
	EventTextChunk StreamEventType = "text_chunk"
	// EventError carries a user-safe error message.
	EventError StreamEventType = "error"
	// EventStreamComplete marks the end of an isolated agent stream.
	EventStreamComplete StreamEventType = "stream_complete"
)

// StreamEvent is one frame of the turn output stream.
type StreamEvent struct {
	Event StreamEventType `json:"event"`
	Data  string          `json:"data,omitempty"`
}

// TurnRequest is the payload for one conversational turn.
type TurnRequest struct {
	Query          string `json:"query"`
	ConversationID string `json:"conversation_id"`
}

// Validate performs validation on a TurnRequest.
func (r *TurnRequest) Validate() error {
	if r.Query == "" {
		return ErrEmptyQuery
	}
	if len(r.Query) > MaxQueryLength {
		return ErrQueryTooLong
	}
	if r.ConversationID == "" {
		return ErrEmptyConversationID
	}
	return nil
}

// SnippetRequest is the payload for the isolated snippet agent.
type SnippetRequest struct {
	Question string `json:"question"`
	Snippet  string `json:"snippet"`
}

// Validate performs validation on a SnippetRequest.
func (r *SnippetRequest) Validate() error {
	if r.Question == "" {
		return ErrEmptyQuery
	}
	return nil
}

// MessageRole identifies who authored a session message.
type MessageRole string

const (
	// RoleUser marks a message written by the user.
	RoleUser MessageRole = "user"
	// RoleAssistant marks a message written by the assistant.
	RoleAssistant MessageRole = "assistant"
)

// IsValidMessageRole checks if the given role is supported.
func IsValidMessageRole(role MessageRole) bool {
	switch role {
	case RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// MessageMetadata is the structured annotation stored with each session message.
type MessageMetadata struct {
	Intent     IntentTag         `json:"intent,omitempty"`
	Confidence float64           `json:"confidence,omitempty"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

// SessionMessage is one persisted message in a conversation session.
type SessionMessage struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Role      MessageRole     `json:"role"`
	Content   string          `json:"content"`
	Metadata  MessageMetadata `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Validate performs validation on a SessionMessage before persisting it.
func (m *SessionMessage) Validate() error {
	if m.SessionID == "" {
		return ErrEmptySessionID
	}
	if !IsValidMessageRole(m.Role) {
		return ErrInvalidMessageRole
	}
	if m.Content == "" {
		return ErrEmptyMessageContent
	}
	if len(m.Content) > MaxMessageContentLength {
		return ErrMessageContentTooLong
	}
	return nil
}

// Session is a persisted conversation with derived metadata.
type Session struct {
	ID           string    `json:"id"`
	Title        string    `json:"title,omitempty"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SearchResult is one normalized hit from any search provider.
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

// UserProfile carries the personal facts the classifier and tone layers use.
type UserProfile struct {
	Name      string   `json:"name,omitempty"`
	Location  string   `json:"location,omitempty"`
	Interests []string `json:"interests,omitempty"`
}

// APIStatus represents the status field of an API response.
type APIStatus string

const (
	// APIStatusOK indicates a successful API operation.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates a failed API operation.
	APIStatusError APIStatus = "error"
)

// APIResponse is the standard JSON envelope for non-streaming endpoints.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}
