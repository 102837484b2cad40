package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/tgienger/apolo/internal/config"
	"github.com/tgienger/apolo/internal/logger"
	"github.com/tgienger/apolo/internal/models"
)

// Ollama calls a local Ollama server. Images go inline for vision models.
type Ollama struct {
	client *api.Client
	model  string
}

// NewOllama creates an Ollama provider; BaseURL defaults to localhost
func NewOllama(cfg config.AIConfig) (*Ollama, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base url: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "llama3"
	}
	return &Ollama{client: api.NewClient(u, http.DefaultClient), model: model}, nil
}

func (o *Ollama) Name() string { return "ollama" }

func (o *Ollama) Complete(ctx context.Context, req Request) (string, error) {
	var images []api.ImageData
	var other []models.MediaBlob
	for _, m := range req.Media {
		if isImage(m) {
			images = append(images, api.ImageData(m.Data))
		} else {
			other = append(other, m)
		}
	}

	stream := false
	var content strings.Builder
	err := o.client.Chat(ctx, &api.ChatRequest{
		Model:  o.model,
		Stream: &stream,
		Messages: []api.Message{
			{Role: "user", Content: req.Prompt + mediaNote(other), Images: images},
		},
		Options: map[string]interface{}{
			"temperature": 0.3,
		},
	}, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		logger.Warnf("[AI] Ollama API error: %v", err)
		return "", fmt.Errorf("ollama api error: %w", err)
	}

	result := content.String()
	logger.Infof("[AI] Ollama response length: %d chars", len(result))
	return result, nil
}
