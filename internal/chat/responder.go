package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Responder produces the reply for an ordinary (non-collecting) turn.
type Responder interface {
	Reply(ctx context.Context, message string) (string, error)
}

const systemPrompt = "You are a helpful assistant that speaks both English and Spanish."

// Config selects and tunes the underlying chat model.
type Config struct {
	Provider    string // "openai" (default) or "ollama"
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// ModelResponder answers turns through an eino ChatModel.
type ModelResponder struct {
	model   model.BaseChatModel
	timeout time.Duration
}

// NewModelResponder creates the configured chat model.
func NewModelResponder(ctx context.Context, config Config) (*ModelResponder, error) {
	var (
		chatModel model.BaseChatModel
		err       error
	)

	switch config.Provider {
	case "", "openai":
		maxTokens := config.MaxTokens
		temperature := config.Temperature

		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:      config.APIKey,
			BaseURL:     config.BaseURL,
			Model:       config.Model,
			MaxTokens:   &maxTokens,
			Temperature: &temperature,
		})
	case "ollama":
		chatModel, err = ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: config.BaseURL,
			Model:   config.Model,
		})
	default:
		return nil, fmt.Errorf("unknown chat provider: %s", config.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("error creating chat model: %v", err)
	}

	return &ModelResponder{model: chatModel, timeout: config.Timeout}, nil
}

// Reply forwards one message to the model. The call is bounded by the
// configured timeout so a hung provider fails the turn instead of
// blocking it forever.
func (r *ModelResponder) Reply(ctx context.Context, message string) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(message),
	}

	out, err := r.model.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("error generating chat reply: %v", err)
	}

	return strings.TrimSpace(out.Content), nil
}
