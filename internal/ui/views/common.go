package views

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/apolo/internal/app"
	"github.com/tgienger/apolo/internal/models"
	"github.com/tgienger/apolo/internal/ordering"
	"github.com/tgienger/apolo/internal/ui/styles"
)

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// StateMsg carries a new store snapshot to the views
type StateMsg struct {
	State app.State
}

// OpDoneMsg reports the outcome of a store operation started by a view
type OpDoneMsg struct {
	Err error
}

// AnswerMsg carries an AI reply back to the view that asked
type AnswerMsg struct {
	TaskID string // empty for project advice
	Text   string
	Err    error
}

// Navigation messages handled by the app
type (
	SelectedProject struct{ ID string }
	BackToProjects  struct{}
	OpenTask        struct{ ID string }
	BackToTasks     struct{}
	SignedIn        struct{ User models.User }
	SignedOut       struct{}
)

// run performs fn off the UI goroutine and reports its error
func run(fn func() error) tea.Cmd {
	return func() tea.Msg {
		return OpDoneMsg{Err: fn()}
	}
}

// errorText turns an operation error into a line for the status bar. A failed
// write also sets the store notice, which statusLine shows first.
func errorText(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, app.ErrForbidden):
		return "Only the author can do that."
	case errors.Is(err, ordering.ErrIntoDescendant):
		return "A task cannot move inside its own subtask."
	case errors.Is(err, models.ErrMediaTooLarge):
		return "That file is larger than 10 MB."
	case errors.Is(err, context.Canceled):
		return ""
	}
	return err.Error()
}

// statusLine renders the notice, the sync spinner or nothing
func statusLine(s *styles.Styles, st app.State, message, spin string) string {
	switch {
	case st.Notice != "":
		return s.Notice.Render(st.Notice)
	case message != "":
		return s.Notice.Render(message)
	case st.Syncing:
		return s.StatusBar.Render(s.Syncing.Render(spin) + " syncing")
	}
	return ""
}

// helpBar renders key/description pairs
func helpBar(s *styles.Styles, pairs ...string) string {
	parts := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, s.HelpKey.Render(pairs[i])+" "+s.HelpDesc.Render(pairs[i+1]))
	}
	return s.Help.Render(strings.Join(parts, " • "))
}

// popup centers content in a bordered box
func popup(s *styles.Styles, content string, width, height int) string {
	contentWidth := styles.ContentWidth(width)
	centered := lipgloss.Place(contentWidth, height,
		lipgloss.Center, lipgloss.Center,
		s.FilterBar.Render(content),
	)
	return styles.CenterView(centered, width, height)
}

// renderMarkdown renders markdown for the terminal, falling back to the raw
// text when rendering fails
func renderMarkdown(content string, width int) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}

	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}

// tagList renders task tags as chips
func tagList(s *styles.Styles, tags []string) string {
	var b strings.Builder
	for _, t := range tags {
		b.WriteString(s.Tag.Render("#" + t))
	}
	return b.String()
}

// truncate shortens s to n runes with an ellipsis
func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
