package session

import "testing"

func TestTextMessage(t *testing.T) {
	msg := TextMessage(RoleUser, "Hello, world!")
	if msg.Role != RoleUser {
		t.Errorf("Expected role 'user', got '%s'", msg.Role)
	}
	if len(msg.Blocks) != 1 {
		t.Fatalf("Expected 1 block, got %d", len(msg.Blocks))
	}
	if msg.Blocks[0].Type != BlockText || msg.Blocks[0].Text != "Hello, world!" {
		t.Errorf("Unexpected block: %+v", msg.Blocks[0])
	}
}

func TestMessageText(t *testing.T) {
	msg := Message{
		Role: RoleAssistant,
		Blocks: []Block{
			TextBlock("first"),
			ToolUseBlock(ToolCall{ToolCallID: "call_1", Name: "read_file"}),
			TextBlock("second"),
		},
	}
	if got := msg.Text(); got != "first\nsecond" {
		t.Errorf("Expected joined text 'first\\nsecond', got '%s'", got)
	}
}

func TestAssistantMessage(t *testing.T) {
	calls := []ToolCall{
		{ToolCallID: "call_1", Name: "list_files", Args: map[string]interface{}{"directory": "."}},
		{ToolCallID: "call_2", Name: "read_file", Args: map[string]interface{}{"file_path": "main.go"}},
	}
	msg := AssistantMessage("Let me look around.", calls)
	if msg.Role != RoleAssistant {
		t.Errorf("Expected role 'assistant', got '%s'", msg.Role)
	}
	if len(msg.Blocks) != 3 {
		t.Fatalf("Expected 3 blocks, got %d", len(msg.Blocks))
	}
	if msg.Blocks[0].Type != BlockText {
		t.Errorf("Expected first block to be text, got %s", msg.Blocks[0].Type)
	}
	got := msg.ToolCalls()
	if len(got) != 2 {
		t.Fatalf("Expected 2 tool calls, got %d", len(got))
	}
	if got[0].ToolCallID != "call_1" || got[1].ToolCallID != "call_2" {
		t.Errorf("Tool call IDs not preserved: %+v", got)
	}

	// No text block when the response text is empty.
	msg = AssistantMessage("", calls[:1])
	if len(msg.Blocks) != 1 || msg.Blocks[0].Type != BlockToolUse {
		t.Errorf("Expected a single tool_use block, got %+v", msg.Blocks)
	}
}

func TestToolResults(t *testing.T) {
	msg := Message{
		Role: RoleUser,
		Blocks: []Block{
			ToolResultBlock("call_1", `{"success":true}`),
			ToolResultBlock("call_2", `{"success":false,"error":"nope"}`),
		},
	}
	results := msg.ToolResults()
	if len(results) != 2 {
		t.Fatalf("Expected 2 tool results, got %d", len(results))
	}
	if results[0].ToolUseID != "call_1" || results[1].ToolUseID != "call_2" {
		t.Errorf("Tool result pairing IDs not preserved: %+v", results)
	}
	if msg.Text() != "" {
		t.Errorf("Expected no text in a tool results message, got '%s'", msg.Text())
	}
}
