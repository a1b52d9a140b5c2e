package session

import "strings"

// Roles for conversation turns. The "tool results" turn is a user turn
// containing only tool_result blocks, mirroring what the providers expect.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Block types within a message.
const (
	BlockText       = "text"
	BlockToolUse    = "tool_use"
	BlockToolResult = "tool_result"
)

// Block is one typed content block inside a message. Exactly one of the
// type-specific field groups is populated, selected by Type.
type Block struct {
	Type string `json:"type"`

	// BlockText
	Text string `json:"text,omitempty"`

	// BlockToolUse
	ID    string                 `json:"id,omitempty"`
	Name  string                 `json:"name,omitempty"`
	Input map[string]interface{} `json:"input,omitempty"`

	// BlockToolResult
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

// Message is one turn of the conversation history.
type Message struct {
	Role   string  `json:"role"`
	Blocks []Block `json:"blocks"`
}

// ToolCall is a model-issued request to invoke a tool. It is produced by the
// provider adapter from one response and consumed immediately by the executor.
type ToolCall struct {
	ToolCallID string                 `json:"tool_call_id"`
	Name       string                 `json:"name"`
	Args       map[string]interface{} `json:"args"`
}

// TextMessage builds a plain-text message for the given role.
func TextMessage(role, text string) Message {
	return Message{
		Role:   role,
		Blocks: []Block{{Type: BlockText, Text: text}},
	}
}

// TextBlock builds a text content block.
func TextBlock(text string) Block {
	return Block{Type: BlockText, Text: text}
}

// ToolUseBlock builds a tool_use content block from a tool call.
func ToolUseBlock(tc ToolCall) Block {
	return Block{
		Type:  BlockToolUse,
		ID:    tc.ToolCallID,
		Name:  tc.Name,
		Input: tc.Args,
	}
}

// ToolResultBlock builds a tool_result content block answering the tool_use
// block with the given id. Content carries the serialized result envelope.
func ToolResultBlock(toolUseID, content string) Block {
	return Block{
		Type:      BlockToolResult,
		ToolUseID: toolUseID,
		Content:   content,
	}
}

// AssistantMessage builds an assistant turn from response text plus the tool
// calls the model requested, in order. Empty text contributes no block.
func AssistantMessage(text string, toolCalls []ToolCall) Message {
	var blocks []Block
	if text != "" {
		blocks = append(blocks, TextBlock(text))
	}
	for _, tc := range toolCalls {
		blocks = append(blocks, ToolUseBlock(tc))
	}
	return Message{Role: RoleAssistant, Blocks: blocks}
}

// Text returns the newline-joined text blocks of the message.
func (m Message) Text() string {
	var parts []string
	for _, b := range m.Blocks {
		if b.Type == BlockText && b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// ToolCalls returns the tool_use blocks of the message as tool calls.
func (m Message) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, b := range m.Blocks {
		if b.Type == BlockToolUse {
			calls = append(calls, ToolCall{ToolCallID: b.ID, Name: b.Name, Args: b.Input})
		}
	}
	return calls
}

// ToolResults returns the tool_result blocks of the message.
func (m Message) ToolResults() []Block {
	var results []Block
	for _, b := range m.Blocks {
		if b.Type == BlockToolResult {
			results = append(results, b)
		}
	}
	return results
}
