package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"

	"chatrelay/internal/model"
)

var ErrEmptyChoices = errors.New("empty llm choices")

// Completer turns a message history into a single reply.
type Completer interface {
	Complete(ctx context.Context, messages []model.ChatMessage) (string, error)
}

type ChatConfig struct {
	Endpoint   string
	APIKey     string
	APIVersion string
	Model      string
}

// AzureClient calls the chat completions endpoint of an Azure OpenAI
// deployment. The deployment is selected by ChatConfig.Model.
type AzureClient struct {
	client openai.Client
	model  string
}

func NewAzureClient(cfg ChatConfig, httpClient *http.Client) *AzureClient {
	opts := []option.RequestOption{
		azure.WithEndpoint(cfg.Endpoint, cfg.APIVersion),
		azure.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &AzureClient{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}
}

func (c *AzureClient) Complete(ctx context.Context, messages []model.ChatMessage) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: toParams(messages),
	})
	if err != nil {
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyChoices
	}
	return resp.Choices[0].Message.Content, nil
}

// toParams maps free-form roles onto the API's message kinds; anything that
// is not system or assistant is sent as a user message.
func toParams(messages []model.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			params = append(params, openai.SystemMessage(msg.Content))
		case "assistant":
			params = append(params, openai.AssistantMessage(msg.Content))
		default:
			params = append(params, openai.UserMessage(msg.Content))
		}
	}
	return params
}
