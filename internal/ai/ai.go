// Package ai turns project and task context into suggestions from a
// generative model. Providers wrap the vendor SDKs; Suggester owns the
// prompts and never surfaces provider failures as errors.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tgienger/apolo/internal/config"
	"github.com/tgienger/apolo/internal/models"
)

// ErrNotConfigured means no provider or API key is set up
var ErrNotConfigured = errors.New("ai provider not configured")

// Request is one completion: a prompt plus optional inline media
type Request struct {
	Prompt string
	Media  []models.MediaBlob
}

// Validate enforces the per-item media ceiling
func (r Request) Validate() error {
	for _, m := range r.Media {
		if err := m.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Provider is a text completion backend
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// New builds the provider named in cfg
func New(ctx context.Context, cfg config.AIConfig) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "none":
		return nil, ErrNotConfigured
	case "gemini":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini: %w", ErrNotConfigured)
		}
		return NewGemini(ctx, cfg)
	case "openai":
		if cfg.APIKey == "" && cfg.BaseURL == "" {
			return nil, fmt.Errorf("openai: %w", ErrNotConfigured)
		}
		return NewOpenAI(cfg), nil
	case "azure":
		if cfg.APIKey == "" || cfg.BaseURL == "" {
			return nil, fmt.Errorf("azure: %w", ErrNotConfigured)
		}
		return NewAzure(cfg), nil
	case "anthropic":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic: %w", ErrNotConfigured)
		}
		return NewAnthropic(cfg), nil
	case "ollama":
		return NewOllama(cfg)
	}
	return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
}

func isImage(m models.MediaBlob) bool {
	return strings.HasPrefix(m.MimeType, "image/")
}

// mediaNote lists media a provider cannot take inline so the model at least
// knows they exist
func mediaNote(media []models.MediaBlob) string {
	if len(media) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\nAttached files (not shown):\n")
	for _, m := range media {
		fmt.Fprintf(&b, "- %s (%s, %d bytes)\n", m.Name, m.MimeType, len(m.Data))
	}
	return b.String()
}
