package llm

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/m4xw311/codewright/config"
	"github.com/m4xw311/codewright/errors"
	"github.com/m4xw311/codewright/session"
	"github.com/m4xw311/codewright/tools"
)

// GeminiClient talks to the Google Gemini API. Gemini has no tool call IDs
// of its own; calls are paired to results by function name, so IDs are
// synthesized locally and results are matched back to names when rebuilding
// the native history.
type GeminiClient struct {
	model *genai.GenerativeModel
	name  string
}

func NewGeminiClient(ctx context.Context, model string, env config.ProviderEnv) (*GeminiClient, error) {
	if env.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY environment variable is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(env.APIKey))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create genai client")
	}
	return &GeminiClient{
		model: client.GenerativeModel(model),
		name:  model,
	}, nil
}

func (c *GeminiClient) Provider() Provider { return ProviderGemini }
func (c *GeminiClient) Model() string      { return c.name }

func (c *GeminiClient) Chat(ctx context.Context, messages []session.Message, catalog []tools.Definition, system string) (*Response, error) {
	c.model.Tools = toGeminiTools(catalog)
	if system != "" {
		c.model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	} else {
		c.model.SystemInstruction = nil
	}

	history := toGeminiContents(messages)
	if len(history) == 0 {
		return nil, errors.New("cannot send an empty conversation to Gemini")
	}

	// The last message is the new prompt; everything before it is history.
	last := history[len(history)-1]
	chat := c.model.StartChat()
	chat.History = history[:len(history)-1]
	resp, err := chat.SendMessage(ctx, last.Parts...)
	if err != nil {
		return nil, errors.Wrapf(err, "gemini chat request failed")
	}
	return fromGeminiResponse(resp)
}

// toGeminiContents converts block-structured history into Gemini contents.
// Assistant turns become role "model"; tool results become role "function"
// turns carrying FunctionResponse parts named after the call they answer.
func toGeminiContents(messages []session.Message) []*genai.Content {
	callNames := map[string]string{}
	var contents []*genai.Content
	for _, msg := range messages {
		role := "user"
		if msg.Role == session.RoleAssistant {
			role = "model"
		}
		var parts []genai.Part
		for _, b := range msg.Blocks {
			switch b.Type {
			case session.BlockText:
				if b.Text != "" {
					parts = append(parts, genai.Text(b.Text))
				}
			case session.BlockToolUse:
				callNames[b.ID] = b.Name
				parts = append(parts, genai.FunctionCall{
					Name: b.Name,
					Args: b.Input,
				})
			case session.BlockToolResult:
				role = "function"
				parts = append(parts, genai.FunctionResponse{
					Name:     callNames[b.ToolUseID],
					Response: map[string]interface{}{"result": b.Content},
				})
			}
		}
		if len(parts) == 0 {
			continue
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}
	return contents
}

func toGeminiTools(catalog []tools.Definition) []*genai.Tool {
	if len(catalog) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(catalog))
	for _, def := range catalog {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  toGeminiSchema(def.InputSchema),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func toGeminiSchema(s tools.Schema) *genai.Schema {
	out := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: map[string]*genai.Schema{},
		Required:   s.Required,
	}
	for name, prop := range s.Properties {
		out.Properties[name] = toGeminiProperty(prop)
	}
	return out
}

func toGeminiProperty(p tools.Property) *genai.Schema {
	out := &genai.Schema{
		Type:        geminiType(p.Type),
		Description: p.Description,
	}
	if p.Items != nil {
		out.Items = toGeminiProperty(*p.Items)
	}
	return out
}

func geminiType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeUnspecified
	}
}

func fromGeminiResponse(resp *genai.GenerateContentResponse) (*Response, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("received an empty response from Gemini")
	}
	candidate := resp.Candidates[0]
	out := &Response{
		StopReason: geminiStopReason(candidate.FinishReason),
		Raw:        resp,
	}
	var texts []string
	for _, part := range candidate.Content.Parts {
		switch v := part.(type) {
		case genai.Text:
			texts = append(texts, string(v))
		case genai.FunctionCall:
			out.ToolCalls = append(out.ToolCalls, session.ToolCall{
				ToolCallID: fmt.Sprintf("call-%s", uuid.NewString()),
				Name:       v.Name,
				Args:       v.Args,
			})
		}
	}
	out.Content = joinText(texts)
	if len(out.ToolCalls) > 0 {
		out.StopReason = "tool_use"
	}
	return out, nil
}

func geminiStopReason(r genai.FinishReason) string {
	switch r {
	case genai.FinishReasonStop:
		return "end_turn"
	case genai.FinishReasonMaxTokens:
		return "max_tokens"
	default:
		return r.String()
	}
}
