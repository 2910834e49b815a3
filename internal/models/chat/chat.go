// Package chat declares the complete() contract from spec §6.3. The core
// tolerates malformed output by falling back to the default behavior
// (spec §4.3); structured extraction uses a JSON schema generated with
// google/jsonschema-go, following the teacher's utils.GenerateSchema
// pattern used for its agent tool inputs (internal/agent/tools).
package chat

import (
	"context"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
	openai "github.com/sashabaranov/go-openai"

	"github.com/Tencent/kgsearch/internal/apperr"
)

// SchemaFor generates a JSON schema for T by reflection, following the
// teacher's utils.GenerateSchema[T] pattern used for agent tool inputs.
func SchemaFor[T any]() (*jsonschema.Schema, error) {
	return jsonschema.For[T](nil)
}

// Message is one chat turn.
type Message struct {
	Role    string
	Content string
}

// Chat is the complete() contract (spec §6.3): `complete(messages, schema?)
// -> string | structured`.
type Chat interface {
	// Complete returns raw text completion.
	Complete(ctx context.Context, messages []Message) (string, error)
	// CompleteStructured asks the model to emit JSON matching schema and
	// unmarshals the result into out. Returns an error on transport failure
	// or malformed JSON; callers decide the fallback (spec §4.3).
	CompleteStructured(ctx context.Context, messages []Message, schema *jsonschema.Schema, out any) error
}

// OpenAIChat calls an OpenAI-compatible chat-completions endpoint.
type OpenAIChat struct {
	client *openai.Client
	model  string
}

// NewOpenAIChat wraps an OpenAI-compatible client.
func NewOpenAIChat(client *openai.Client, model string) *OpenAIChat {
	return &OpenAIChat{client: client, model: model}
}

func (c *OpenAIChat) Complete(ctx context.Context, messages []Message) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: toOpenAIMessages(messages),
	})
	if err != nil {
		return "", apperr.LLMTransport("complete", err)
	}
	if len(resp.Choices) == 0 {
		return "", apperr.LLMTransport("complete returned no choices", nil)
	}
	return resp.Choices[0].Message.Content, nil
}

// rawSchema adapts a pre-marshaled JSON schema document to the
// json.Marshaler interface go-openai's JSONSchema field expects.
type rawSchema []byte

func (r rawSchema) MarshalJSON() ([]byte, error) { return r, nil }

func (c *OpenAIChat) CompleteStructured(
	ctx context.Context, messages []Message, schema *jsonschema.Schema, out any,
) error {
	raw, err := schema.MarshalJSON()
	if err != nil {
		return apperr.LLMTransport("marshal structured output schema", err)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: toOpenAIMessages(messages),
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "extraction",
				Schema: rawSchema(raw),
				Strict: true,
			},
		},
	})
	if err != nil {
		return apperr.LLMTransport("complete_structured", err)
	}
	if len(resp.Choices) == 0 {
		return apperr.LLMTransport("complete_structured returned no choices", nil)
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), out); err != nil {
		return apperr.LLMTransport("complete_structured malformed json", err)
	}
	return nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return out
}
