// Package memory is an in-memory Store for tests and throwaway sessions.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m4xw311/codewright/errors"
	"github.com/m4xw311/codewright/session"
	"github.com/m4xw311/codewright/store"
)

type Store struct {
	mu         sync.RWMutex
	sessions   map[string]*store.Session
	messages   map[string][]session.Message
	executions map[string][]*store.ToolExecution
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		sessions:   map[string]*store.Session{},
		messages:   map[string][]session.Message{},
		executions: map[string][]*store.ToolExecution{},
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) CreateSession(ctx context.Context, sess *store.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; ok {
		return errors.New("session already exists: %s", sess.ID)
	}
	now := time.Now().UTC()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	sess.UpdatedAt = now
	if sess.Status == "" {
		sess.Status = store.StatusActive
	}
	cp := *sess
	s.sessions[sess.ID] = &cp
	return nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*store.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, errors.New("session not found: %s", id)
	}
	cp := *sess
	return &cp, nil
}

func (s *Store) UpdateSession(ctx context.Context, sess *store.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; !ok {
		return errors.New("session not found: %s", sess.ID)
	}
	sess.UpdatedAt = time.Now().UTC()
	cp := *sess
	s.sessions[sess.ID] = &cp
	return nil
}

func (s *Store) GetAllSessions(ctx context.Context) ([]*store.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*store.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		cp := *sess
		out = append(out, &cp)
	}
	// Newest first, matching the SQLite ordering.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.After(out[i].CreatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (s *Store) AddMessage(ctx context.Context, sessionID string, msg session.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[sessionID] = append(s.messages[sessionID], msg)
	return nil
}

func (s *Store) GetMessages(ctx context.Context, sessionID string) ([]session.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[sessionID]
	out := make([]session.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *Store) LogToolExecution(ctx context.Context, exec *store.ToolExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if exec.CreatedAt.IsZero() {
		exec.CreatedAt = time.Now().UTC()
	}
	cp := *exec
	s.executions[exec.SessionID] = append(s.executions[exec.SessionID], &cp)
	return nil
}

func (s *Store) GetToolExecutions(ctx context.Context, sessionID string) ([]*store.ToolExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	execs := s.executions[sessionID]
	out := make([]*store.ToolExecution, 0, len(execs))
	for _, e := range execs {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}
