package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// maxCompletionTokens bounds the assistant reply. Generated queries are
// short; this mostly guards against runaway output.
const maxCompletionTokens = 1024

// AnthropicGenerator implements Generator over the Anthropic Messages API.
type AnthropicGenerator struct {
	client anthropic.Client
}

// NewAnthropicGenerator creates a generator authenticated with the given
// API key.
func NewAnthropicGenerator(apiKey string) *AnthropicGenerator {
	return &AnthropicGenerator{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
	}
}

// GenerateText sends a single user message and concatenates the text blocks
// of the reply.
func (g *AnthropicGenerator) GenerateText(ctx context.Context, model, prompt string) (string, error) {
	msg, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxCompletionTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

// Compile-time check.
var _ Generator = (*AnthropicGenerator)(nil)
