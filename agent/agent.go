// Package agent runs the autonomous coding loop: send the conversation to
// the model, execute requested tools, feed results back, repeat until the
// model answers with plain text or a limit is hit. Progress is reported as a
// stream of events through a caller-provided sink.
package agent

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/m4xw311/codewright/errors"
	"github.com/m4xw311/codewright/llm"
	"github.com/m4xw311/codewright/session"
	"github.com/m4xw311/codewright/store"
	"github.com/m4xw311/codewright/tools"
)

const DefaultMaxIterations = 50

// Agent drives one session. It is not safe for concurrent ProcessMessage
// calls; a transport runs one message at a time per session.
type Agent struct {
	sessionID     string
	client        llm.Client
	executor      *tools.Executor
	store         store.Store
	catalog       []tools.Definition
	history       []session.Message
	maxIterations int
}

// New creates an agent for an existing session record. A zero maxIterations
// selects the default cap.
func New(sessionID string, client llm.Client, executor *tools.Executor, st store.Store, catalog []tools.Definition, maxIterations int) *Agent {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Agent{
		sessionID:     sessionID,
		client:        client,
		executor:      executor,
		store:         st,
		catalog:       catalog,
		maxIterations: maxIterations,
	}
}

func (a *Agent) SessionID() string      { return a.sessionID }
func (a *Agent) Provider() llm.Provider { return a.client.Provider() }
func (a *Agent) ModelName() string      { return a.client.Model() }

// History returns a copy of the in-memory conversation history.
func (a *Agent) History() []session.Message {
	out := make([]session.Message, len(a.history))
	copy(out, a.history)
	return out
}

// SetModelProvider switches the backend mid-session. The conversation
// history carries over unchanged; the session record is updated so a resume
// picks the same backend.
func (a *Agent) SetModelProvider(ctx context.Context, client llm.Client) error {
	a.client = client
	sess, err := a.store.GetSession(ctx, a.sessionID)
	if err != nil {
		return err
	}
	sess.Provider = string(client.Provider())
	sess.Model = client.Model()
	return a.store.UpdateSession(ctx, sess)
}

// LoadFromSession rehydrates the in-memory history from storage. Only plain
// user and assistant text turns are restored; tool activity is not replayed
// into the history.
func (a *Agent) LoadFromSession(ctx context.Context) error {
	messages, err := a.store.GetMessages(ctx, a.sessionID)
	if err != nil {
		return errors.Wrapf(err, "failed to load session %s", a.sessionID)
	}
	a.history = nil
	for _, msg := range messages {
		if msg.Role != session.RoleUser && msg.Role != session.RoleAssistant {
			continue
		}
		text := msg.Text()
		if text == "" {
			continue
		}
		a.history = append(a.history, session.TextMessage(msg.Role, text))
	}
	return nil
}

// ProcessMessage runs the loop for one user message, emitting events to the
// sink as they happen. Model failures and loop exhaustion end the run with a
// terminal error event and an "error" session status; they are not returned
// as Go errors.
func (a *Agent) ProcessMessage(ctx context.Context, userMessage string, sink Sink) error {
	userMsg := session.TextMessage(session.RoleUser, userMessage)
	if err := a.store.AddMessage(ctx, a.sessionID, userMsg); err != nil {
		return errors.Wrapf(err, "failed to persist user message")
	}
	a.history = append(a.history, userMsg)

	sink(Event{
		Type:          EventModelInfo,
		ModelProvider: string(a.client.Provider()),
		ModelName:     a.client.Model(),
	})

	for iteration := 1; iteration <= a.maxIterations; iteration++ {
		slog.Debug("agent iteration", "session", a.sessionID, "iteration", iteration, "max", a.maxIterations)

		resp, err := a.client.Chat(ctx, a.history, a.catalog, SystemPrompt)
		if err != nil {
			slog.Error("model call failed", "session", a.sessionID, "iteration", iteration, "err", err)
			sink(Event{Type: EventError, Error: err.Error()})
			a.setStatus(ctx, store.StatusError)
			return nil
		}

		if len(resp.ToolCalls) == 0 {
			assistantMsg := session.TextMessage(session.RoleAssistant, resp.Content)
			if err := a.store.AddMessage(ctx, a.sessionID, assistantMsg); err != nil {
				slog.Warn("failed to persist assistant message", "session", a.sessionID, "err", err)
			}
			a.history = append(a.history, assistantMsg)

			if resp.Content != "" {
				sink(Event{Type: EventResponse, Content: resp.Content})
			}
			sink(Event{Type: EventComplete})
			a.setStatus(ctx, store.StatusCompleted)
			return nil
		}

		// Text alongside tool calls is intermediate reasoning, not the answer.
		if resp.Content != "" {
			sink(Event{Type: EventThinking, Content: resp.Content})
		}

		a.history = append(a.history, session.AssistantMessage(resp.Content, resp.ToolCalls))

		results := make([]session.Block, 0, len(resp.ToolCalls))
		for _, call := range resp.ToolCalls {
			sink(Event{Type: EventToolUse, Tool: call.Name, Input: call.Args})

			start := time.Now()
			result := a.executor.Execute(ctx, call.Name, call.Args)
			duration := time.Since(start).Milliseconds()
			serialized := tools.Serialize(result)

			a.logToolExecution(ctx, call, serialized, result.OK(), duration)

			sink(Event{Type: EventToolResult, Tool: call.Name, Result: result})
			results = append(results, session.ToolResultBlock(call.ToolCallID, serialized))
		}
		a.history = append(a.history, session.Message{Role: session.RoleUser, Blocks: results})
	}

	slog.Warn("iteration cap reached", "session", a.sessionID, "max", a.maxIterations)
	sink(Event{
		Type:  EventError,
		Error: "Maximum iterations reached. The task may be too complex or the agent is stuck in a loop.",
	})
	a.setStatus(ctx, store.StatusError)
	return nil
}

func (a *Agent) logToolExecution(ctx context.Context, call session.ToolCall, result string, success bool, durationMs int64) {
	input, err := json.Marshal(call.Args)
	if err != nil {
		input = []byte("{}")
	}
	exec := &store.ToolExecution{
		ID:              uuid.NewString(),
		SessionID:       a.sessionID,
		ToolName:        call.Name,
		Input:           string(input),
		Result:          result,
		Success:         success,
		ExecutionTimeMs: durationMs,
	}
	if err := a.store.LogToolExecution(ctx, exec); err != nil {
		slog.Warn("failed to log tool execution", "session", a.sessionID, "tool", call.Name, "err", err)
	}
}

func (a *Agent) setStatus(ctx context.Context, status string) {
	sess, err := a.store.GetSession(ctx, a.sessionID)
	if err != nil {
		slog.Warn("failed to load session for status update", "session", a.sessionID, "err", err)
		return
	}
	sess.Status = status
	if err := a.store.UpdateSession(ctx, sess); err != nil {
		slog.Warn("failed to update session status", "session", a.sessionID, "err", err)
	}
}
