// Package sqlite persists sessions in a SQLite database. Message blocks are
// stored as JSON so any block shape round-trips exactly; tool activity is
// recorded separately in the tool_executions table.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/m4xw311/codewright/errors"
	"github.com/m4xw311/codewright/session"
	"github.com/m4xw311/codewright/store"
)

type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// New opens (or creates) a SQLite database at the given path and runs
// migrations.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite")
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "migrate")
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL DEFAULT '',
		project_path TEXT NOT NULL DEFAULT '',
		model_provider TEXT NOT NULL DEFAULT '',
		model_name TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'active',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		blocks TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, id);

	CREATE TABLE IF NOT EXISTS tool_executions (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		tool_name TEXT NOT NULL,
		input TEXT NOT NULL DEFAULT '{}',
		result TEXT NOT NULL DEFAULT '{}',
		success INTEGER NOT NULL DEFAULT 0,
		execution_time_ms INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_tool_executions_session ON tool_executions(session_id, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) CreateSession(ctx context.Context, sess *store.Session) error {
	now := time.Now().UTC()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	sess.UpdatedAt = now
	if sess.Status == "" {
		sess.Status = store.StatusActive
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, project_path, model_provider, model_name, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.UserID, sess.ProjectPath, sess.Provider, sess.Model,
		sess.Status, sess.CreatedAt, sess.UpdatedAt,
	)
	return err
}

func (s *Store) GetSession(ctx context.Context, id string) (*store.Session, error) {
	sess := &store.Session{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, project_path, model_provider, model_name, status, created_at, updated_at
		 FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.UserID, &sess.ProjectPath, &sess.Provider, &sess.Model,
		&sess.Status, &sess.CreatedAt, &sess.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.New("session not found: %s", id)
	}
	return sess, err
}

func (s *Store) UpdateSession(ctx context.Context, sess *store.Session) error {
	sess.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET user_id=?, project_path=?, model_provider=?, model_name=?, status=?, updated_at=? WHERE id=?`,
		sess.UserID, sess.ProjectPath, sess.Provider, sess.Model, sess.Status, sess.UpdatedAt, sess.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return errors.New("session not found: %s", sess.ID)
	}
	return nil
}

func (s *Store) GetAllSessions(ctx context.Context) ([]*store.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, project_path, model_provider, model_name, status, created_at, updated_at
		 FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*store.Session
	for rows.Next() {
		sess := &store.Session{}
		if err := rows.Scan(&sess.ID, &sess.UserID, &sess.ProjectPath,
			&sess.Provider, &sess.Model, &sess.Status,
			&sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func (s *Store) AddMessage(ctx context.Context, sessionID string, msg session.Message) error {
	blocks, err := json.Marshal(msg.Blocks)
	if err != nil {
		return errors.Wrapf(err, "marshal message blocks")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO messages (session_id, role, blocks, created_at) VALUES (?, ?, ?, ?)`,
		sessionID, msg.Role, string(blocks), time.Now().UTC(),
	)
	return err
}

func (s *Store) GetMessages(ctx context.Context, sessionID string) ([]session.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, blocks FROM messages WHERE session_id=? ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []session.Message
	for rows.Next() {
		var role, blocksJSON string
		if err := rows.Scan(&role, &blocksJSON); err != nil {
			return nil, err
		}
		var blocks []session.Block
		if err := json.Unmarshal([]byte(blocksJSON), &blocks); err != nil {
			return nil, errors.Wrapf(err, "unmarshal message blocks")
		}
		messages = append(messages, session.Message{Role: role, Blocks: blocks})
	}
	return messages, rows.Err()
}

func (s *Store) LogToolExecution(ctx context.Context, exec *store.ToolExecution) error {
	if exec.CreatedAt.IsZero() {
		exec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tool_executions (id, session_id, tool_name, input, result, success, execution_time_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		exec.ID, exec.SessionID, exec.ToolName, exec.Input, exec.Result,
		exec.Success, exec.ExecutionTimeMs, exec.CreatedAt,
	)
	return err
}

func (s *Store) GetToolExecutions(ctx context.Context, sessionID string) ([]*store.ToolExecution, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, tool_name, input, result, success, execution_time_ms, created_at
		 FROM tool_executions WHERE session_id=? ORDER BY created_at ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var execs []*store.ToolExecution
	for rows.Next() {
		exec := &store.ToolExecution{}
		if err := rows.Scan(&exec.ID, &exec.SessionID, &exec.ToolName, &exec.Input,
			&exec.Result, &exec.Success, &exec.ExecutionTimeMs, &exec.CreatedAt); err != nil {
			return nil, err
		}
		execs = append(execs, exec)
	}
	return execs, rows.Err()
}
