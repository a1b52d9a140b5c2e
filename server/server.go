// Package server exposes the agent over a WebSocket endpoint at /agent-ws.
// Each connection drives at most one agent; starting or resuming a session
// replaces the connection's current agent, abandoning the old one's
// in-memory state.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/m4xw311/codewright/agent"
	"github.com/m4xw311/codewright/config"
	"github.com/m4xw311/codewright/llm"
	"github.com/m4xw311/codewright/session"
	"github.com/m4xw311/codewright/store"
	"github.com/m4xw311/codewright/tools"
)

type Server struct {
	cfg      *config.Config
	env      config.Env
	store    store.Store
	executor *tools.Executor
	upgrader websocket.Upgrader
}

func New(cfg *config.Config, env config.Env, st store.Store, executor *tools.Executor) *Server {
	return &Server{
		cfg:      cfg,
		env:      env,
		store:    st,
		executor: executor,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP handler serving the WebSocket endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/agent-ws", s.handleAgentWS)
	return mux
}

// ListenAndServe blocks serving the configured address.
func (s *Server) ListenAndServe() error {
	slog.Info("listening", "addr", s.cfg.ListenAddr)
	return http.ListenAndServe(s.cfg.ListenAddr, s.Handler())
}

// inbound is the envelope for every client message. Fields beyond Type are
// populated per message type.
type inbound struct {
	Type          string `json:"type"`
	SessionID     string `json:"sessionId,omitempty"`
	UserID        string `json:"userId,omitempty"`
	ProjectPath   string `json:"projectPath,omitempty"`
	ModelProvider string `json:"modelProvider,omitempty"`
	ModelName     string `json:"modelName,omitempty"`
	Content       string `json:"content,omitempty"`
}

func (s *Server) handleAgentWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()
	slog.Info("client connected", "remote", conn.RemoteAddr())

	// All message handling happens on this goroutine, so writes to the
	// connection are naturally serialized.
	c := &connState{server: s, conn: conn, ctx: r.Context()}
	for {
		var msg inbound
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read failed", "err", err)
			}
			slog.Info("client disconnected", "remote", conn.RemoteAddr())
			return
		}
		slog.Debug("received message", "type", msg.Type)
		c.dispatch(msg)
	}
}

type connState struct {
	server *Server
	conn   *websocket.Conn
	ctx    context.Context
	agent  *agent.Agent
}

func (c *connState) dispatch(msg inbound) {
	switch msg.Type {
	case "start_session":
		c.startSession(msg)
	case "resume_session":
		c.resumeSession(msg)
	case "user_message":
		c.userMessage(msg)
	case "change_model":
		c.changeModel(msg)
	case "get_sessions":
		c.getSessions()
	case "get_session_history":
		c.getSessionHistory(msg)
	default:
		c.sendError("Unknown message type: " + msg.Type)
	}
}

func (c *connState) send(v interface{}) {
	if err := c.conn.WriteJSON(v); err != nil {
		slog.Warn("websocket write failed", "err", err)
	}
}

func (c *connState) sendError(text string) {
	c.send(map[string]string{"type": "error", "error": text})
}

func (c *connState) catalog() []tools.Definition {
	catalog := tools.Catalog()
	if c.server.cfg.GitTools {
		catalog = append(catalog, tools.GitCatalog()...)
	}
	return catalog
}

func (c *connState) newClient(provider, model string) (llm.Client, error) {
	if provider == "" {
		provider = string(llm.ProviderAnthropic)
	}
	return llm.New(c.ctx, llm.Provider(provider), model, c.server.env)
}

func (c *connState) startSession(msg inbound) {
	sess := &store.Session{
		ID:          uuid.NewString(),
		UserID:      msg.UserID,
		ProjectPath: msg.ProjectPath,
		Provider:    msg.ModelProvider,
		Model:       msg.ModelName,
		Status:      store.StatusActive,
	}
	if sess.Provider == "" {
		sess.Provider = string(llm.ProviderAnthropic)
	}
	if err := c.server.store.CreateSession(c.ctx, sess); err != nil {
		c.sendError("Failed to create session: " + err.Error())
		return
	}

	client, err := c.newClient(msg.ModelProvider, msg.ModelName)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.agent = agent.New(sess.ID, client, c.server.executor, c.server.store, c.catalog(), c.server.cfg.MaxIterations)

	c.send(map[string]string{
		"type":          "session_started",
		"sessionId":     sess.ID,
		"modelProvider": string(client.Provider()),
	})
	slog.Info("session started", "session", sess.ID, "provider", client.Provider())
}

func (c *connState) resumeSession(msg inbound) {
	if msg.SessionID == "" {
		c.sendError("Session ID required")
		return
	}
	sess, err := c.server.store.GetSession(c.ctx, msg.SessionID)
	if err != nil {
		c.sendError("Session not found")
		return
	}

	provider := msg.ModelProvider
	if provider == "" {
		provider = sess.Provider
	}
	client, err := c.newClient(provider, msg.ModelName)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	a := agent.New(sess.ID, client, c.server.executor, c.server.store, c.catalog(), c.server.cfg.MaxIterations)
	if err := a.LoadFromSession(c.ctx); err != nil {
		c.sendError(err.Error())
		return
	}
	c.agent = a

	c.send(map[string]string{
		"type":          "session_resumed",
		"sessionId":     sess.ID,
		"modelProvider": string(client.Provider()),
	})
	slog.Info("session resumed", "session", sess.ID, "provider", client.Provider())
}

func (c *connState) userMessage(msg inbound) {
	if c.agent == nil {
		c.sendError("No active session. Please start a session first.")
		return
	}
	err := c.agent.ProcessMessage(c.ctx, msg.Content, func(ev agent.Event) {
		c.send(ev)
	})
	if err != nil {
		slog.Error("message processing failed", "session", c.agent.SessionID(), "err", err)
		c.sendError(err.Error())
	}
}

func (c *connState) changeModel(msg inbound) {
	if c.agent == nil {
		c.sendError("No active session. Please start a session first.")
		return
	}
	client, err := c.newClient(msg.ModelProvider, msg.ModelName)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	if err := c.agent.SetModelProvider(c.ctx, client); err != nil {
		c.sendError(err.Error())
		return
	}
	c.send(map[string]string{
		"type":          "model_changed",
		"modelProvider": string(client.Provider()),
		"modelName":     client.Model(),
	})
	slog.Info("model changed", "session", c.agent.SessionID(), "provider", client.Provider(), "model", client.Model())
}

func (c *connState) getSessions() {
	sessions, err := c.server.store.GetAllSessions(c.ctx)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.send(map[string]interface{}{
		"type":     "sessions_list",
		"sessions": sessions,
	})
}

func (c *connState) getSessionHistory(msg inbound) {
	if msg.SessionID == "" {
		c.sendError("Session ID required")
		return
	}
	messages, err := c.server.store.GetMessages(c.ctx, msg.SessionID)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	if messages == nil {
		messages = []session.Message{}
	}
	executions, err := c.server.store.GetToolExecutions(c.ctx, msg.SessionID)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	if executions == nil {
		executions = []*store.ToolExecution{}
	}
	c.send(map[string]interface{}{
		"type":           "session_history",
		"sessionId":      msg.SessionID,
		"messages":       messages,
		"toolExecutions": executions,
	})
}
