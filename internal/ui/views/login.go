package views

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/apolo/internal/auth"
	"github.com/tgienger/apolo/internal/models"
	"github.com/tgienger/apolo/internal/ui/keys"
	"github.com/tgienger/apolo/internal/ui/styles"
)

// Authenticator signs a user in from a hint such as an email address
type Authenticator interface {
	SignIn(ctx context.Context, hint string) (models.User, error)
}

type signInFailedMsg struct{ err error }

// LoginView asks for an email address and signs in
type LoginView struct {
	ctx    context.Context
	auth   Authenticator
	email  textinput.Model
	styles *styles.Styles
	keys   keys.KeyMap

	width  int
	height int

	busy    bool
	loading bool
	err     string
}

// NewLoginView creates the sign-in screen. loading shows a placeholder until
// the stored session has been checked.
func NewLoginView(ctx context.Context, a Authenticator, loading bool) *LoginView {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 254
	email.Focus()

	return &LoginView{
		ctx:     ctx,
		auth:    a,
		email:   email,
		styles:  styles.NewStyles(),
		keys:    keys.DefaultKeyMap(),
		loading: loading,
	}
}

func (v *LoginView) Init() tea.Cmd {
	return textinput.Blink
}

// SetLoading toggles the session check placeholder
func (v *LoginView) SetLoading(loading bool) {
	v.loading = loading
}

func (v *LoginView) signIn() tea.Cmd {
	hint := strings.TrimSpace(v.email.Value())
	v.busy = true
	v.err = ""
	return func() tea.Msg {
		u, err := v.auth.SignIn(v.ctx, hint)
		if err != nil {
			return signInFailedMsg{err: err}
		}
		return SignedIn{User: u}
	}
}

func (v *LoginView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case signInFailedMsg:
		v.busy = false
		if errors.Is(msg.err, auth.ErrInvalidEmail) {
			v.err = "Enter a valid email address."
		} else {
			v.err = "Sign in failed: " + msg.err.Error()
		}
		return v, nil

	case SignedIn:
		v.busy = false
		v.email.Reset()
		return v, nil

	case tea.KeyMsg:
		if v.loading || v.busy {
			if msg.String() == "ctrl+c" {
				return v, tea.Quit
			}
			return v, nil
		}
		switch {
		case msg.String() == "ctrl+c", key.Matches(msg, v.keys.Back):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Enter):
			return v, v.signIn()
		}
	}

	var cmd tea.Cmd
	v.email, cmd = v.email.Update(msg)
	return v, cmd
}

func (v *LoginView) View() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	if v.loading {
		return lipgloss.Place(contentWidth, v.height, lipgloss.Center, lipgloss.Center,
			s.TitleMuted.Render("Checking session..."))
	}

	inputWidth := clamp(contentWidth-6, 20, 50)
	status := s.TitleMuted.Render("Enter: sign in • Esc: quit")
	if v.busy {
		status = s.Syncing.Render("Signing in...")
	}

	lines := []string{
		s.Title.Render("Apolo"),
		s.TitleMuted.Render("Sign in to see your projects"),
		"",
		"Email:",
		s.InputFocused.Width(inputWidth).Render(v.email.View()),
		"",
		status,
	}
	if v.err != "" {
		lines = append(lines, s.Notice.Render(v.err))
	}

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Left, lines...),
	)
	return styles.CenterView(centered, v.width, v.height)
}
