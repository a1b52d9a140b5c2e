package server

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/m4xw311/codewright/config"
	"github.com/m4xw311/codewright/store/memory"
	"github.com/m4xw311/codewright/tools"
)

func dialTestServer(t *testing.T) *websocket.Conn {
	t.Helper()
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg := &config.Config{ProjectRoot: t.TempDir(), MaxIterations: 5, ListenAddr: ":0"}
	executor, err := tools.NewExecutor(cfg)
	if err != nil {
		t.Fatalf("NewExecutor failed: %v", err)
	}
	srv := New(cfg, config.LoadEnv(), memory.New(), executor)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	url := strings.Replace(ts.URL, "http", "ws", 1) + "/agent-ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, msg map[string]interface{}) map[string]interface{} {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	var reply map[string]interface{}
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return reply
}

func TestStartSessionAndList(t *testing.T) {
	conn := dialTestServer(t)

	reply := roundTrip(t, conn, map[string]interface{}{
		"type":        "start_session",
		"userId":      "u1",
		"projectPath": "/work",
	})
	if reply["type"] != "session_started" {
		t.Fatalf("Expected session_started, got %v", reply)
	}
	sessionID, _ := reply["sessionId"].(string)
	if sessionID == "" {
		t.Fatal("session_started missing sessionId")
	}
	if reply["modelProvider"] != "anthropic" {
		t.Errorf("Expected default anthropic provider, got %v", reply["modelProvider"])
	}

	reply = roundTrip(t, conn, map[string]interface{}{"type": "get_sessions"})
	if reply["type"] != "sessions_list" {
		t.Fatalf("Expected sessions_list, got %v", reply)
	}
	sessions, _ := reply["sessions"].([]interface{})
	if len(sessions) != 1 {
		t.Errorf("Expected 1 session, got %d", len(sessions))
	}

	reply = roundTrip(t, conn, map[string]interface{}{
		"type":      "get_session_history",
		"sessionId": sessionID,
	})
	if reply["type"] != "session_history" {
		t.Fatalf("Expected session_history, got %v", reply)
	}
	if reply["sessionId"] != sessionID {
		t.Errorf("History for wrong session: %v", reply["sessionId"])
	}
	if _, hasMessages := reply["messages"]; !hasMessages {
		t.Error("session_history missing messages")
	}
	if _, hasExecs := reply["toolExecutions"]; !hasExecs {
		t.Error("session_history missing toolExecutions")
	}
}

func TestResumeAndChangeModel(t *testing.T) {
	conn := dialTestServer(t)

	reply := roundTrip(t, conn, map[string]interface{}{"type": "start_session"})
	sessionID := reply["sessionId"].(string)

	reply = roundTrip(t, conn, map[string]interface{}{
		"type":      "resume_session",
		"sessionId": sessionID,
	})
	if reply["type"] != "session_resumed" || reply["sessionId"] != sessionID {
		t.Fatalf("Expected session_resumed for %s, got %v", sessionID, reply)
	}

	reply = roundTrip(t, conn, map[string]interface{}{
		"type":          "change_model",
		"modelProvider": "openai",
		"modelName":     "gpt-4o",
	})
	if reply["type"] != "model_changed" {
		t.Fatalf("Expected model_changed, got %v", reply)
	}
	if reply["modelProvider"] != "openai" || reply["modelName"] != "gpt-4o" {
		t.Errorf("Unexpected model info: %v", reply)
	}
}

func TestDispatchErrors(t *testing.T) {
	conn := dialTestServer(t)

	reply := roundTrip(t, conn, map[string]interface{}{"type": "resume_session"})
	if reply["type"] != "error" || reply["error"] != "Session ID required" {
		t.Errorf("Expected session id error, got %v", reply)
	}

	reply = roundTrip(t, conn, map[string]interface{}{
		"type":      "resume_session",
		"sessionId": "does-not-exist",
	})
	if reply["type"] != "error" || reply["error"] != "Session not found" {
		t.Errorf("Expected not-found error, got %v", reply)
	}

	reply = roundTrip(t, conn, map[string]interface{}{"type": "user_message", "content": "hi"})
	if reply["type"] != "error" || !strings.Contains(reply["error"].(string), "No active session") {
		t.Errorf("Expected no-session error, got %v", reply)
	}

	reply = roundTrip(t, conn, map[string]interface{}{"type": "bogus"})
	if reply["type"] != "error" || !strings.Contains(reply["error"].(string), "Unknown message type") {
		t.Errorf("Expected unknown-type error, got %v", reply)
	}
}
