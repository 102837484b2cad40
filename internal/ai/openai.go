package ai

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/tgienger/apolo/internal/config"
	"github.com/tgienger/apolo/internal/logger"
	"github.com/tgienger/apolo/internal/models"
)

// OpenAI calls OpenAI and OpenAI-compatible chat completion endpoints,
// including Azure deployments. Images go inline as data URLs.
type OpenAI struct {
	client *openai.Client
	model  string
	label  string
}

// NewOpenAI handles OpenAI and OpenAI-compatible APIs (including custom endpoints)
func NewOpenAI(cfg config.AIConfig) *OpenAI {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAI{client: openai.NewClientWithConfig(clientConfig), model: model, label: "OpenAI"}
}

// NewAzure targets an Azure OpenAI resource; Model is the deployment name
func NewAzure(cfg config.AIConfig) *OpenAI {
	clientConfig := openai.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL)
	return &OpenAI{client: openai.NewClientWithConfig(clientConfig), model: cfg.Model, label: "Azure OpenAI"}
}

func (o *OpenAI) Name() string { return o.label }

func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    []openai.ChatCompletionMessage{userMessage(req)},
		Temperature: 0.3,
	})
	if err != nil {
		logger.Warnf("[AI] %s API error: %v", o.label, err)
		return "", fmt.Errorf("api error from %s: %w", o.label, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from %s", o.label)
	}

	content := resp.Choices[0].Message.Content
	logger.Infof("[AI] %s response length: %d chars", o.label, len(content))
	return content, nil
}

func userMessage(req Request) openai.ChatCompletionMessage {
	var images, other []models.MediaBlob
	for _, m := range req.Media {
		if isImage(m) {
			images = append(images, m)
		} else {
			other = append(other, m)
		}
	}

	text := req.Prompt + mediaNote(other)
	if len(images) == 0 {
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text}
	}

	parts := []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: text}}
	for _, m := range images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL: "data:" + m.MimeType + ";base64," + base64.StdEncoding.EncodeToString(m.Data),
			},
		})
	}
	return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, MultiContent: parts}
}
