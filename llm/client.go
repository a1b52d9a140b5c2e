package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/m4xw311/codewright/config"
	"github.com/m4xw311/codewright/errors"
	"github.com/m4xw311/codewright/session"
	"github.com/m4xw311/codewright/tools"
)

// Provider identifies one of the supported LLM backends.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGemini    Provider = "gemini"
	ProviderBedrock   Provider = "bedrock"
)

// Default model per backend, overridable via environment or config.
const (
	DefaultAnthropicModel = "claude-3-5-sonnet-20241022"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultGeminiModel    = "gemini-2.0-flash-exp"
	DefaultBedrockModel   = "anthropic.claude-3-5-sonnet-20241022-v2:0"
)

// Response is the provider-agnostic result of one model call: the
// newline-joined text content, the tool calls in the order the model issued
// them, the backend's stop signal, and the untouched native response.
type Response struct {
	Content    string
	ToolCalls  []session.ToolCall
	StopReason string
	Raw        interface{}
}

// Client is the interface for interacting with a Large Language Model. One
// implementation exists per backend; each translates the internal history
// into its native wire format on every call and normalizes the reply back.
// Errors from the backend are returned unwrapped in meaning: the raw message
// is preserved for downstream classification.
type Client interface {
	Chat(ctx context.Context, messages []session.Message, catalog []tools.Definition, system string) (*Response, error)
	Provider() Provider
	Model() string
}

// New constructs the client for the given backend. An empty model name
// selects the backend's default, after any environment override.
func New(ctx context.Context, provider Provider, modelName string, env config.Env) (Client, error) {
	switch provider {
	case ProviderAnthropic:
		return NewAnthropicClient(ctx, pickModel(modelName, env.Anthropic.Model, DefaultAnthropicModel), env.Anthropic)
	case ProviderOpenAI:
		return NewOpenAIClient(ctx, pickModel(modelName, env.OpenAI.Model, DefaultOpenAIModel), env.OpenAI)
	case ProviderGemini:
		return NewGeminiClient(ctx, pickModel(modelName, env.Gemini.Model, DefaultGeminiModel), env.Gemini)
	case ProviderBedrock:
		return NewBedrockClient(ctx, pickModel(modelName, env.Bedrock.Model, DefaultBedrockModel), env.Bedrock)
	default:
		return nil, errors.New("unknown model provider '%s'", provider)
	}
}

func pickModel(explicit, fromEnv, fallback string) string {
	if explicit != "" {
		return explicit
	}
	if fromEnv != "" {
		return fromEnv
	}
	return fallback
}

// Mock is a scripted client for tests and offline runs. Each call to Chat
// pops the next queued response; when the queue is empty it parrots the last
// user message.
type Mock struct {
	Responses []*Response
	Err       error
	Calls     [][]session.Message
}

func (m *Mock) Chat(ctx context.Context, messages []session.Message, catalog []tools.Definition, system string) (*Response, error) {
	m.Calls = append(m.Calls, messages)
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Responses) > 0 {
		resp := m.Responses[0]
		m.Responses = m.Responses[1:]
		return resp, nil
	}
	last := ""
	if len(messages) > 0 {
		last = messages[len(messages)-1].Text()
	}
	return &Response{
		Content:    fmt.Sprintf("I am a mock model. You said: '%s'.", last),
		StopReason: "end_turn",
	}, nil
}

func (m *Mock) Provider() Provider { return "mock" }
func (m *Mock) Model() string      { return "mock" }

func joinText(texts []string) string {
	return strings.Join(texts, "\n")
}
