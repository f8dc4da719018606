// Package orch runs conversational turns: task detection, pending-task
// confirmation, context resolution, intent classification, routed
// execution, and session persistence, streamed as server-sent events.
//
// This file implements the isolated snippet agent: a single-shot answer
// grounded only in a user-provided snippet, with no conversation state.
package orch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/voxa-labs/voxa/internal/models"
)

const snippetSystemPrompt = "You are a focused AI expert. Answer the user's question based *only* on the provided snippet. " +
	"Be concise and direct. If the snippet does not contain the answer, say so."

const snippetFallbackPrefix = "I'm having trouble processing your request right now. Here's what I can tell you about your snippet: "

// HandleSnippet answers a question about a snippet in isolation. The stream
// always ends with a stream_complete event, even when generation fails.
func (o *Orchestrator) HandleSnippet(ctx context.Context, req models.SnippetRequest) <-chan models.StreamEvent {
	events := make(chan models.StreamEvent)
	go func() {
		defer close(events)
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Orchestrator.HandleSnippet: panic recovered", "panic", r)
				o.emit(ctx, events, models.StreamEvent{Event: models.EventStreamComplete})
			}
		}()

		if err := req.Validate(); err != nil {
			o.emit(ctx, events, models.StreamEvent{Event: models.EventError, Data: err.Error()})
			o.emit(ctx, events, models.StreamEvent{Event: models.EventStreamComplete})
			return
		}

		prompt := fmt.Sprintf("Snippet:\n%s\n\nQuestion: %s", req.Snippet, req.Question)
		answer, err := o.gen.Generate(ctx, snippetSystemPrompt, prompt)
		if err != nil {
			slog.Warn("Orchestrator.HandleSnippet: generation failed", "error", err)
			answer = snippetFallbackPrefix + truncateSnippet(req.Snippet, 100)
		}
		o.stream(ctx, events, answer)
		o.emit(ctx, events, models.StreamEvent{Event: models.EventStreamComplete})
	}()
	return events
}

func truncateSnippet(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
