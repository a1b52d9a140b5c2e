package agent

// Event types, in the order a processing cycle can emit them.
const (
	EventModelInfo  = "model_info"
	EventThinking   = "thinking"
	EventToolUse    = "tool_use"
	EventToolResult = "tool_result"
	EventResponse   = "response"
	EventComplete   = "complete"
	EventError      = "error"
)

// Event is one entry in the agent's event stream. Only the fields relevant
// to the Type are populated; the zero values are omitted on the wire.
type Event struct {
	Type          string                 `json:"type"`
	Content       string                 `json:"content,omitempty"`
	Tool          string                 `json:"tool,omitempty"`
	Input         map[string]interface{} `json:"input,omitempty"`
	Result        interface{}            `json:"result,omitempty"`
	Error         string                 `json:"error,omitempty"`
	ModelProvider string                 `json:"modelProvider,omitempty"`
	ModelName     string                 `json:"modelName,omitempty"`
}

// Sink receives events synchronously, in emission order. A slow sink slows
// the loop down rather than dropping or reordering events.
type Sink func(Event)
