// Package store defines persistence for agent sessions: the conversation
// transcript, session lifecycle state, and a log of every tool execution.
package store

import (
	"context"
	"time"

	"github.com/m4xw311/codewright/session"
)

// Session statuses.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusError     = "error"
)

// Session is the persisted record of one agent conversation.
type Session struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId,omitempty"`
	ProjectPath string    `json:"projectPath,omitempty"`
	Provider    string    `json:"modelProvider"`
	Model       string    `json:"modelName"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ToolExecution is one logged tool run within a session.
type ToolExecution struct {
	ID              string    `json:"id"`
	SessionID       string    `json:"session_id"`
	ToolName        string    `json:"tool_name"`
	Input           string    `json:"input"`
	Result          string    `json:"result"`
	Success         bool      `json:"success"`
	ExecutionTimeMs int64     `json:"execution_time_ms"`
	CreatedAt       time.Time `json:"created_at"`
}

// Store persists sessions, their transcripts, and tool execution logs.
// Implementations must be safe for concurrent use.
type Store interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	UpdateSession(ctx context.Context, s *Session) error
	GetAllSessions(ctx context.Context) ([]*Session, error)

	AddMessage(ctx context.Context, sessionID string, msg session.Message) error
	GetMessages(ctx context.Context, sessionID string) ([]session.Message, error)

	LogToolExecution(ctx context.Context, exec *ToolExecution) error
	GetToolExecutions(ctx context.Context, sessionID string) ([]*ToolExecution, error)

	Close() error
}
