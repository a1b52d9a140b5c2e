package llm

import (
	"context"
	"encoding/json"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/m4xw311/codewright/config"
	"github.com/m4xw311/codewright/errors"
	"github.com/m4xw311/codewright/session"
	"github.com/m4xw311/codewright/tools"
)

// OpenAIClient talks to the OpenAI Chat Completions API. Tool activity is
// rephrased into that API's dialect: tool calls ride on the assistant
// message, tool results become role "tool" messages keyed by call ID.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(ctx context.Context, model string, env config.ProviderEnv) (*OpenAIClient, error) {
	if env.APIKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(env.APIKey)}
	if env.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(env.BaseURL))
	}
	c := openai.NewClient(opts...)
	// The &c is required, do not replace and just use c
	return &OpenAIClient{client: &c, model: model}, nil
}

func (c *OpenAIClient) Provider() Provider { return ProviderOpenAI }
func (c *OpenAIClient) Model() string      { return c.model }

func (c *OpenAIClient) Chat(ctx context.Context, messages []session.Message, catalog []tools.Definition, system string) (*Response, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: toOpenAIMessages(messages, system),
		Tools:    toOpenAITools(catalog),
	}
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, errors.Wrapf(err, "openai chat request failed")
	}
	return fromOpenAIResponse(resp)
}

// toOpenAIMessages flattens block-structured history into the Chat
// Completions shape. An assistant message carrying tool_use blocks becomes a
// single assistant message with a tool_calls array; each tool_result block
// becomes its own role "tool" message so the call/result pairing survives the
// translation.
func toOpenAIMessages(messages []session.Message, system string) []openai.ChatCompletionMessageParamUnion {
	var out []openai.ChatCompletionMessageParamUnion
	if system != "" {
		out = append(out, openai.SystemMessage(system))
	}
	for _, msg := range messages {
		if msg.Role == session.RoleAssistant {
			assistant := openai.ChatCompletionMessage{
				Role:    "assistant",
				Content: msg.Text(),
			}
			for _, b := range msg.Blocks {
				if b.Type != session.BlockToolUse {
					continue
				}
				args, err := json.Marshal(b.Input)
				if err != nil {
					args = []byte("{}")
				}
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnion{
					ID:   b.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageFunctionToolCallFunction{
						Name:      b.Name,
						Arguments: string(args),
					},
				})
			}
			out = append(out, assistant.ToParam())
			continue
		}
		results := msg.ToolResults()
		if len(results) > 0 {
			for _, b := range results {
				out = append(out, openai.ToolMessage(b.Content, b.ToolUseID))
			}
			continue
		}
		out = append(out, openai.UserMessage(msg.Text()))
	}
	return out
}

func toOpenAITools(catalog []tools.Definition) []openai.ChatCompletionToolUnionParam {
	if len(catalog) == 0 {
		return nil
	}
	var out []openai.ChatCompletionToolUnionParam
	for _, def := range catalog {
		params := openai.FunctionParameters{
			"type":       "object",
			"properties": map[string]any{},
		}
		if raw, err := json.Marshal(def.InputSchema); err == nil {
			_ = json.Unmarshal(raw, &params)
		}
		out = append(out, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        def.Name,
			Description: openai.String(def.Description),
			Parameters:  params,
		}))
	}
	return out
}

func fromOpenAIResponse(resp *openai.ChatCompletion) (*Response, error) {
	if len(resp.Choices) == 0 {
		return &Response{StopReason: "end_turn", Raw: resp}, nil
	}
	choice := resp.Choices[0]
	out := &Response{
		Content:    choice.Message.Content,
		StopReason: string(choice.FinishReason),
		Raw:        resp,
	}
	for _, tc := range choice.Message.ToolCalls {
		args := map[string]interface{}{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return nil, errors.Wrapf(err, "failed to unmarshal tool call arguments for %s", tc.Function.Name)
			}
		}
		out.ToolCalls = append(out.ToolCalls, session.ToolCall{
			ToolCallID: tc.ID,
			Name:       tc.Function.Name,
			Args:       args,
		})
	}
	return out, nil
}
