package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tgienger/apolo/internal/config"
	"github.com/tgienger/apolo/internal/models"
)

var (
	png = models.MediaBlob{Name: "a.png", MimeType: "image/png", Data: []byte{0x89, 0x50}}
	pdf = models.MediaBlob{Name: "plan.pdf", MimeType: "application/pdf", Data: []byte("%PDF")}
)

func TestGemini_Complete(t *testing.T) {
	var raw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/test:generateContent") {
			http.NotFound(w, r)
			return
		}
		b, _ := io.ReadAll(r.Body)
		raw = string(b)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"- Step one"}]}}]}`)
	}))
	defer srv.Close()

	p, err := New(context.Background(), config.AIConfig{Provider: "gemini", APIKey: "k", BaseURL: srv.URL, Model: "test"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	out, err := p.Complete(context.Background(), Request{Prompt: "hello", Media: []models.MediaBlob{png, pdf}})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if out != "- Step one" {
		t.Errorf("Complete() = %q, expected %q", out, "- Step one")
	}

	// every media type goes inline
	for _, want := range []string{"hello", `"inlineData"`, "image/png", "application/pdf", base64.StdEncoding.EncodeToString(png.Data)} {
		if !strings.Contains(raw, want) {
			t.Errorf("request missing %q:\n%s", want, raw)
		}
	}
}

func TestAnthropic_Complete(t *testing.T) {
	var body struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		Messages  []struct {
			Role    string `json:"role"`
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			http.NotFound(w, r)
			return
		}
		b, _ := io.ReadAll(r.Body)
		json.Unmarshal(b, &body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"msg_1","type":"message","role":"assistant","model":"test",
			"content":[{"type":"text","text":"- Step one"}],
			"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":4}}`)
	}))
	defer srv.Close()

	p, err := New(context.Background(), config.AIConfig{Provider: "anthropic", APIKey: "k", BaseURL: srv.URL, Model: "test"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	out, err := p.Complete(context.Background(), Request{Prompt: "hello", Media: []models.MediaBlob{png}})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if out != "- Step one" {
		t.Errorf("Complete() = %q, expected %q", out, "- Step one")
	}
	if body.Model != "test" || body.MaxTokens != 1024 || len(body.Messages) != 1 {
		t.Fatalf("request = %+v", body)
	}

	// media is described in the prompt, not uploaded
	msg := body.Messages[0]
	if len(msg.Content) != 1 || msg.Content[0].Type != "text" {
		t.Fatalf("content = %+v, expected one text block", msg.Content)
	}
	if text := msg.Content[0].Text; !strings.HasPrefix(text, "hello") || !strings.Contains(text, "a.png (image/png, 2 bytes)") {
		t.Errorf("text = %q, expected the prompt and a media note", text)
	}
}

func TestOllama_Complete(t *testing.T) {
	var body struct {
		Model    string `json:"model"`
		Stream   *bool  `json:"stream"`
		Messages []struct {
			Role    string   `json:"role"`
			Content string   `json:"content"`
			Images  []string `json:"images"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		b, _ := io.ReadAll(r.Body)
		json.Unmarshal(b, &body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"model":"test","created_at":"2024-01-01T00:00:00Z",`+
			`"message":{"role":"assistant","content":"- Step one"},"done":true}`+"\n")
	}))
	defer srv.Close()

	p, err := New(context.Background(), config.AIConfig{Provider: "ollama", BaseURL: srv.URL, Model: "test"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	out, err := p.Complete(context.Background(), Request{Prompt: "hello", Media: []models.MediaBlob{png, pdf}})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if out != "- Step one" {
		t.Errorf("Complete() = %q, expected %q", out, "- Step one")
	}
	if body.Model != "test" || body.Stream == nil || *body.Stream || len(body.Messages) != 1 {
		t.Fatalf("request = %+v", body)
	}

	// images go inline, other media is described
	msg := body.Messages[0]
	if len(msg.Images) != 1 || msg.Images[0] != base64.StdEncoding.EncodeToString(png.Data) {
		t.Errorf("images = %v, expected the png only", msg.Images)
	}
	if !strings.Contains(msg.Content, "plan.pdf (application/pdf, 4 bytes)") || strings.Contains(msg.Content, "a.png") {
		t.Errorf("content = %q, expected a note for the pdf only", msg.Content)
	}
}

func TestOllama_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"model not loaded"}`)
	}))
	defer srv.Close()

	p, err := NewOllama(config.AIConfig{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewOllama() error = %v", err)
	}
	_, err = p.Complete(context.Background(), Request{Prompt: "hello"})
	if err == nil || !strings.HasPrefix(err.Error(), "ollama api error: ") {
		t.Errorf("Complete() error = %v, expected an ollama api error", err)
	}
}
