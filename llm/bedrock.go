package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/m4xw311/codewright/config"
	"github.com/m4xw311/codewright/errors"
	"github.com/m4xw311/codewright/session"
	"github.com/m4xw311/codewright/tools"
)

const bedrockMaxTokens = 4096

// BedrockClient talks to Anthropic models hosted on AWS Bedrock via
// InvokeModel. The request body is the Anthropic-on-Bedrock JSON dialect,
// assembled as plain maps since Bedrock takes an opaque payload.
type BedrockClient struct {
	client  *bedrockruntime.Client
	modelID string
}

func NewBedrockClient(ctx context.Context, modelID string, env config.ProviderEnv) (*BedrockClient, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load AWS config")
	}
	var opts []func(*bedrockruntime.Options)
	if env.BaseURL != "" {
		opts = append(opts, func(o *bedrockruntime.Options) {
			o.BaseEndpoint = aws.String(env.BaseURL)
		})
	}
	return &BedrockClient{
		client:  bedrockruntime.NewFromConfig(cfg, opts...),
		modelID: modelID,
	}, nil
}

func (c *BedrockClient) Provider() Provider { return ProviderBedrock }
func (c *BedrockClient) Model() string      { return c.modelID }

func (c *BedrockClient) Chat(ctx context.Context, messages []session.Message, catalog []tools.Definition, system string) (*Response, error) {
	body, err := bedrockRequestBody(messages, catalog, system)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build Bedrock request")
	}
	resp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to invoke Bedrock model")
	}
	return fromBedrockResponse(resp.Body)
}

func bedrockRequestBody(messages []session.Message, catalog []tools.Definition, system string) ([]byte, error) {
	request := map[string]interface{}{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        bedrockMaxTokens,
		"messages":          toBedrockMessages(messages),
	}
	if system != "" {
		request["system"] = system
	}
	if len(catalog) > 0 {
		defs := make([]map[string]interface{}, 0, len(catalog))
		for _, def := range catalog {
			defs = append(defs, map[string]interface{}{
				"name":         def.Name,
				"description":  def.Description,
				"input_schema": def.InputSchema,
			})
		}
		request["tools"] = defs
	}
	return json.Marshal(request)
}

func toBedrockMessages(messages []session.Message) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(messages))
	for _, msg := range messages {
		role := "user"
		if msg.Role == session.RoleAssistant {
			role = "assistant"
		}
		var content []map[string]interface{}
		for _, b := range msg.Blocks {
			switch b.Type {
			case session.BlockText:
				if b.Text != "" {
					content = append(content, map[string]interface{}{
						"type": "text",
						"text": b.Text,
					})
				}
			case session.BlockToolUse:
				content = append(content, map[string]interface{}{
					"type":  "tool_use",
					"id":    b.ID,
					"name":  b.Name,
					"input": b.Input,
				})
			case session.BlockToolResult:
				content = append(content, map[string]interface{}{
					"type":        "tool_result",
					"tool_use_id": b.ToolUseID,
					"content":     b.Content,
				})
			}
		}
		if len(content) == 0 {
			continue
		}
		out = append(out, map[string]interface{}{
			"role":    role,
			"content": content,
		})
	}
	return out
}

func fromBedrockResponse(body []byte) (*Response, error) {
	var response map[string]interface{}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal Bedrock response")
	}
	if errMsg, ok := response["error"]; ok {
		return nil, errors.New("Bedrock API error: %v", errMsg)
	}

	out := &Response{Raw: response}
	if sr, ok := response["stop_reason"].(string); ok {
		out.StopReason = sr
	}
	contentArray, ok := response["content"].([]interface{})
	if !ok {
		return out, nil
	}

	var texts []string
	counter := 0
	for _, item := range contentArray {
		itemMap, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		switch itemMap["type"] {
		case "text":
			if text, ok := itemMap["text"].(string); ok {
				texts = append(texts, text)
			}
		case "tool_use":
			name, ok := itemMap["name"].(string)
			if !ok {
				continue
			}
			input, ok := itemMap["input"].(map[string]interface{})
			if !ok {
				input = map[string]interface{}{}
			}
			id := fmt.Sprintf("call_%d_%s", counter, name)
			if toolID, ok := itemMap["id"].(string); ok && toolID != "" {
				id = toolID
			}
			out.ToolCalls = append(out.ToolCalls, session.ToolCall{
				ToolCallID: id,
				Name:       name,
				Args:       input,
			})
			counter++
		}
	}
	out.Content = joinText(texts)
	return out, nil
}
