// Package narrative writes short plain-language summaries of stored
// forecasts using the OpenAI chat completions API.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

var ErrNoAPIKey = errors.New("OPENAI_API_KEY not set")

type Summarizer struct {
	client openai.Client
	model  openai.ChatModel
}

// NewSummarizer returns a summarizer authenticated with apiKey. Extra options
// are passed to the client, e.g. a base URL.
func NewSummarizer(apiKey string, opts ...option.RequestOption) (*Summarizer, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Summarizer{
		client: openai.NewClient(opts...),
		model:  openai.ChatModelGPT4oMini,
	}, nil
}

func (s *Summarizer) Summarize(ctx context.Context, f Facts) (string, error) {
	prompt, err := BuildPrompt(f)
	if err != nil {
		return "", err
	}

	log.Printf("narrative: requesting summary from %s", s.model)
	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: s.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		MaxCompletionTokens: openai.Int(300),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion: no choices in response")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("chat completion: empty summary")
	}
	return text, nil
}
