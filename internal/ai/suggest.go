package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tgienger/apolo/internal/logger"
	"github.com/tgienger/apolo/internal/models"
)

// Replies used in place of an answer when the model cannot be reached
const (
	NoProviderSuggestions = "Configure an AI provider to get suggestions."
	FailedSuggestions     = "Could not generate suggestions."
	EmptySuggestions      = "No suggestions right now."

	NoProviderAdvice = "AI provider not configured."
	FailedAdvice     = "Something went wrong while asking the advisor."
	EmptyAdvice      = "Could not generate advice."
)

// TaskContext is what the model sees about one task
type TaskContext struct {
	ProjectTitle string
	Title        string
	Description  string
	Hidden       string // free-form context the user keeps off the task card
	Media        []models.MediaBlob
}

// ProjectContext summarises a project for strategic advice
type ProjectContext struct {
	Title    string
	Subtitle string
	Tasks    []string
	Progress int
}

func (p ProjectContext) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Active project: %s", p.Title)
	if p.Subtitle != "" {
		fmt.Fprintf(&b, " (%s)", p.Subtitle)
	}
	fmt.Fprintf(&b, ". Progress: %d%%.", p.Progress)
	if len(p.Tasks) > 0 {
		fmt.Fprintf(&b, " Current tasks: %s.", strings.Join(p.Tasks, ", "))
	}
	return b.String()
}

// Suggester asks a provider for task steps and project advice. A nil
// provider is allowed and answers with the not-configured replies.
type Suggester struct {
	provider Provider
	timeout  time.Duration
}

// NewSuggester wraps p; timeout bounds each call (0 means none)
func NewSuggester(p Provider, timeout time.Duration) *Suggester {
	return &Suggester{provider: p, timeout: timeout}
}

// Configured reports whether a provider is available
func (s *Suggester) Configured() bool {
	return s != nil && s.provider != nil
}

// TaskSuggestions returns 3 to 5 next steps as a markdown bullet list
func (s *Suggester) TaskSuggestions(ctx context.Context, tc TaskContext) string {
	if !s.Configured() {
		return NoProviderSuggestions
	}
	out, err := s.complete(ctx, Request{Prompt: taskPrompt(tc), Media: tc.Media})
	if err != nil {
		logger.Warn().Err(err).Str("provider", s.provider.Name()).Msg("task suggestions failed")
		return FailedSuggestions
	}
	if strings.TrimSpace(out) == "" {
		return EmptySuggestions
	}
	return strings.TrimSpace(out)
}

// StrategicAdvice answers question about the project. extra is optional
// study material supplied by the user.
func (s *Suggester) StrategicAdvice(ctx context.Context, pc ProjectContext, question, extra string) string {
	if !s.Configured() {
		return NoProviderAdvice
	}
	out, err := s.complete(ctx, Request{Prompt: advicePrompt(pc, question, extra)})
	if err != nil {
		logger.Warn().Err(err).Str("provider", s.provider.Name()).Msg("strategic advice failed")
		return FailedAdvice
	}
	if strings.TrimSpace(out) == "" {
		return EmptyAdvice
	}
	return strings.TrimSpace(out)
}

func (s *Suggester) complete(ctx context.Context, req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.provider.Complete(ctx, req)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func taskPrompt(tc TaskContext) string {
	return fmt.Sprintf(`You are working inside one specific task.
Project: %s
Task: %s
Description: %s
Additional context (hidden): %s

GOAL:
List 3 to 5 concrete, actionable next steps that unblock or advance this task.
If there is technical context (measurements, costs), use it to be precise.
Format: simple markdown bullet list. Be brief.`,
		tc.ProjectTitle, tc.Title, orDefault(tc.Description, "No description"), orDefault(tc.Hidden, "N/A"))
}

func advicePrompt(pc ProjectContext, question, extra string) string {
	var b strings.Builder
	b.WriteString(`ROLE:
You are a senior project manager and strategy consultant focused on execution.
Give short, direct, highly actionable answers. Do not ramble.

PROJECT CONTEXT (current data):
`)
	b.WriteString(pc.String())
	b.WriteString("\n")
	if strings.TrimSpace(extra) != "" {
		b.WriteString("\nSTUDY CONTEXT (material supplied by the user):\n")
		b.WriteString(extra)
		b.WriteString("\n")
	}
	b.WriteString(`
INSTRUCTIONS:
1. Study the project context and the study context, if any.
2. Answer the user's question professionally and with a bias to action.
3. Prefer any links or specific data the user provided.

QUESTION:
`)
	b.WriteString(question)
	return b.String()
}

// Steps extracts the bullet items of a markdown list. Lines that are not
// list items are ignored; a reply with no list yields its non-empty lines.
func Steps(text string) []string {
	var steps, lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if item, ok := bullet(line); ok && item != "" {
			steps = append(steps, item)
		}
	}
	if len(steps) == 0 {
		return lines
	}
	return steps
}

func bullet(line string) (string, bool) {
	for _, p := range []string{"- [ ] ", "- ", "* ", "+ ", "• "} {
		if strings.HasPrefix(line, p) {
			return strings.TrimSpace(strings.TrimPrefix(line, p)), true
		}
	}
	// "1." or "1)"
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		return strings.TrimSpace(line[i+1:]), true
	}
	return "", false
}

// IsFallback reports whether text is one of the canned replies rather than
// an answer from the model
func IsFallback(text string) bool {
	switch text {
	case NoProviderSuggestions, FailedSuggestions, EmptySuggestions,
		NoProviderAdvice, FailedAdvice, EmptyAdvice:
		return true
	}
	return false
}
