package llm

import (
	"context"
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/m4xw311/codewright/config"
	"github.com/m4xw311/codewright/errors"
	"github.com/m4xw311/codewright/session"
	"github.com/m4xw311/codewright/tools"
)

const anthropicMaxTokens = 8192

// AnthropicClient talks to the Anthropic Messages API. The internal history
// format mirrors Anthropic's content blocks, so conversion is mostly a
// field-for-field mapping.
type AnthropicClient struct {
	client anthropic.Client
	model  string
}

func NewAnthropicClient(ctx context.Context, model string, env config.ProviderEnv) (*AnthropicClient, error) {
	if env.APIKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY environment variable is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(env.APIKey)}
	if env.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(env.BaseURL))
	}
	return &AnthropicClient{
		client: anthropic.NewClient(opts...),
		model:  model,
	}, nil
}

func (c *AnthropicClient) Provider() Provider { return ProviderAnthropic }
func (c *AnthropicClient) Model() string      { return c.model }

func (c *AnthropicClient) Chat(ctx context.Context, messages []session.Message, catalog []tools.Definition, system string) (*Response, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: anthropicMaxTokens,
		Messages:  toAnthropicMessages(messages),
		Tools:     toAnthropicTools(catalog),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, errors.Wrapf(err, "anthropic chat request failed")
	}
	return fromAnthropicResponse(resp), nil
}

func toAnthropicMessages(messages []session.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		role := anthropic.MessageParamRoleUser
		if msg.Role == session.RoleAssistant {
			role = anthropic.MessageParamRoleAssistant
		}
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Blocks))
		for _, b := range msg.Blocks {
			switch b.Type {
			case session.BlockText:
				// The Messages API rejects empty text blocks.
				if b.Text == "" {
					continue
				}
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfText: &anthropic.TextBlockParam{Text: b.Text},
				})
			case session.BlockToolUse:
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfToolUse: &anthropic.ToolUseBlockParam{
						ID:    b.ID,
						Name:  b.Name,
						Input: b.Input,
					},
				})
			case session.BlockToolResult:
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfToolResult: &anthropic.ToolResultBlockParam{
						ToolUseID: b.ToolUseID,
						Content: []anthropic.ToolResultBlockParamContentUnion{
							{OfText: &anthropic.TextBlockParam{Text: b.Content}},
						},
					},
				})
			}
		}
		if len(blocks) == 0 {
			continue
		}
		out = append(out, anthropic.MessageParam{Role: role, Content: blocks})
	}
	return out
}

func toAnthropicTools(catalog []tools.Definition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(catalog))
	for _, def := range catalog {
		var schema anthropic.ToolInputSchemaParam
		if raw, err := json.Marshal(def.InputSchema); err == nil {
			_ = json.Unmarshal(raw, &schema)
		}
		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        def.Name,
				Description: anthropic.String(def.Description),
				InputSchema: schema,
			},
		})
	}
	return out
}

func fromAnthropicResponse(resp *anthropic.Message) *Response {
	out := &Response{
		StopReason: string(resp.StopReason),
		Raw:        resp,
	}
	var texts []string
	for _, block := range resp.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			texts = append(texts, b.Text)
		case anthropic.ToolUseBlock:
			args := map[string]interface{}{}
			if len(b.Input) > 0 {
				_ = json.Unmarshal(b.Input, &args)
			}
			out.ToolCalls = append(out.ToolCalls, session.ToolCall{
				ToolCallID: b.ID,
				Name:       b.Name,
				Args:       args,
			})
		}
	}
	out.Content = joinText(texts)
	return out
}
