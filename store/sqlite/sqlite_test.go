package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m4xw311/codewright/session"
	"github.com/m4xw311/codewright/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess := &store.Session{
		ID:          "sess-1",
		UserID:      "u1",
		ProjectPath: "/work/project",
		Provider:    "anthropic",
		Model:       "claude-3-5-sonnet-20241022",
	}
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if sess.Status != store.StatusActive {
		t.Errorf("Expected default active status, got %s", sess.Status)
	}

	got, err := s.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.Provider != "anthropic" || got.ProjectPath != "/work/project" {
		t.Errorf("Session fields lost: %+v", got)
	}

	got.Status = store.StatusError
	if err := s.UpdateSession(ctx, got); err != nil {
		t.Fatalf("UpdateSession failed: %v", err)
	}
	got, _ = s.GetSession(ctx, "sess-1")
	if got.Status != store.StatusError {
		t.Errorf("Status not persisted: %s", got.Status)
	}

	if _, err := s.GetSession(ctx, "missing"); err == nil {
		t.Error("Expected error for missing session")
	} else if !strings.Contains(err.Error(), "session not found") {
		t.Errorf("Unexpected error: %v", err)
	}

	if err := s.UpdateSession(ctx, &store.Session{ID: "missing"}); err == nil {
		t.Error("Expected error updating missing session")
	}

	sessions, err := s.GetAllSessions(ctx)
	if err != nil {
		t.Fatalf("GetAllSessions failed: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != "sess-1" {
		t.Errorf("Unexpected sessions: %+v", sessions)
	}
}

func TestMessageRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateSession(ctx, &store.Session{ID: "sess-1"}); err != nil {
		t.Fatal(err)
	}

	msgs := []session.Message{
		session.TextMessage(session.RoleUser, "hello"),
		session.AssistantMessage("checking", []session.ToolCall{
			{ToolCallID: "t1", Name: "read_file", Args: map[string]interface{}{"file_path": "go.mod"}},
		}),
		{Role: session.RoleUser, Blocks: []session.Block{
			session.ToolResultBlock("t1", `{"success":true}`),
		}},
	}
	for _, msg := range msgs {
		if err := s.AddMessage(ctx, "sess-1", msg); err != nil {
			t.Fatalf("AddMessage failed: %v", err)
		}
	}

	got, err := s.GetMessages(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(got))
	}
	if got[0].Text() != "hello" {
		t.Errorf("First message lost: %+v", got[0])
	}
	calls := got[1].ToolCalls()
	if len(calls) != 1 || calls[0].ToolCallID != "t1" || calls[0].Args["file_path"] != "go.mod" {
		t.Errorf("Tool call blocks did not round-trip: %+v", calls)
	}
	results := got[2].ToolResults()
	if len(results) != 1 || results[0].ToolUseID != "t1" {
		t.Errorf("Tool result blocks did not round-trip: %+v", results)
	}
}

func TestToolExecutionLog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateSession(ctx, &store.Session{ID: "sess-1"}); err != nil {
		t.Fatal(err)
	}
	execs := []*store.ToolExecution{
		{ID: "e1", SessionID: "sess-1", ToolName: "read_file", Input: `{"file_path":"a"}`, Result: `{"success":true}`, Success: true, ExecutionTimeMs: 4},
		{ID: "e2", SessionID: "sess-1", ToolName: "bash_command", Input: `{"command":"rm -rf /"}`, Result: `{"success":false}`, Success: false, ExecutionTimeMs: 0},
	}
	for _, e := range execs {
		if err := s.LogToolExecution(ctx, e); err != nil {
			t.Fatalf("LogToolExecution failed: %v", err)
		}
	}

	got, err := s.GetToolExecutions(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetToolExecutions failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 executions, got %d", len(got))
	}
	if got[0].ToolName != "read_file" || !got[0].Success {
		t.Errorf("First execution mismatch: %+v", got[0])
	}
	if got[1].ToolName != "bash_command" || got[1].Success {
		t.Errorf("Second execution mismatch: %+v", got[1])
	}
}
