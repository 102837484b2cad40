package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/apolo/internal/models"
)

// Theme represents a color scheme for the application
type Theme struct {
	Name string

	// Base colors
	Background    lipgloss.Color
	Foreground    lipgloss.Color
	ForegroundDim lipgloss.Color

	// Accent colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color

	// Semantic colors
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	// UI element colors
	Border      lipgloss.Color
	BorderFocus lipgloss.Color
	Selection   lipgloss.Color
	Cursor      lipgloss.Color
}

// TokyoNight is the default color theme
var TokyoNight = Theme{
	Name: "Tokyo Night",

	Background:    lipgloss.Color("#1a1b26"),
	Foreground:    lipgloss.Color("#c0caf5"),
	ForegroundDim: lipgloss.Color("#565f89"),

	Primary:   lipgloss.Color("#7aa2f7"),
	Secondary: lipgloss.Color("#bb9af7"),
	Accent:    lipgloss.Color("#7dcfff"),

	Success: lipgloss.Color("#9ece6a"),
	Warning: lipgloss.Color("#e0af68"),
	Error:   lipgloss.Color("#f7768e"),
	Info:    lipgloss.Color("#7aa2f7"),

	Border:      lipgloss.Color("#3b4261"),
	BorderFocus: lipgloss.Color("#7aa2f7"),
	Selection:   lipgloss.Color("#33467c"),
	Cursor:      lipgloss.Color("#c0caf5"),
}

// Void is the default theme: indigo and pink on near-black
var Void = Theme{
	Name: "Void",

	Background:    lipgloss.Color("#050505"),
	Foreground:    lipgloss.Color("#e5e7eb"),
	ForegroundDim: lipgloss.Color("#6b7280"),

	Primary:   lipgloss.Color("#6366f1"),
	Secondary: lipgloss.Color("#8b5cf6"),
	Accent:    lipgloss.Color("#ec4899"),

	Success: lipgloss.Color("#10b981"),
	Warning: lipgloss.Color("#f59e0b"),
	Error:   lipgloss.Color("#f43f5e"),
	Info:    lipgloss.Color("#06b6d4"),

	Border:      lipgloss.Color("#27272a"),
	BorderFocus: lipgloss.Color("#6366f1"),
	Selection:   lipgloss.Color("#1e1b4b"),
	Cursor:      lipgloss.Color("#e5e7eb"),
}

// Themes lists the selectable themes by lowercase name
var Themes = map[string]Theme{
	"void":        Void,
	"tokyo-night": TokyoNight,
}

// Current holds the active theme
var Current = Void

// SetTheme switches the active theme; unknown names keep the current one
func SetTheme(name string) bool {
	t, ok := Themes[name]
	if ok {
		Current = t
	}
	return ok
}

// ProjectColors are the named color tags a project can carry
var ProjectColors = map[string]lipgloss.Color{
	"indigo":  lipgloss.Color("#6366f1"),
	"emerald": lipgloss.Color("#10b981"),
	"rose":    lipgloss.Color("#f43f5e"),
	"amber":   lipgloss.Color("#f59e0b"),
	"cyan":    lipgloss.Color("#06b6d4"),
	"violet":  lipgloss.Color("#8b5cf6"),
	"fuchsia": lipgloss.Color("#d946ef"),
}

// ColorNames is the cycle order of ProjectColors
var ColorNames = []string{"indigo", "emerald", "rose", "amber", "cyan", "violet", "fuchsia"}

// MaxWidth is the maximum content width for the app (classic terminal width)
const MaxWidth = 80

// ContentWidth returns the actual content width to use (min of terminal width and MaxWidth)
func ContentWidth(terminalWidth int) int {
	if terminalWidth > MaxWidth {
		return MaxWidth
	}
	return terminalWidth
}

// CenterView wraps content and centers it horizontally if terminal is wider than MaxWidth
func CenterView(content string, terminalWidth, terminalHeight int) string {
	if terminalWidth <= MaxWidth {
		return content
	}
	return lipgloss.Place(terminalWidth, terminalHeight,
		lipgloss.Center, lipgloss.Top,
		content,
	)
}

// Styles holds all the pre-computed styles for the UI
type Styles struct {
	// Title bar
	TitleBar   lipgloss.Style
	Title      lipgloss.Style
	TitleMuted lipgloss.Style

	// Lists
	List         lipgloss.Style
	ListItem     lipgloss.Style
	ListSelected lipgloss.Style

	// Filter bar
	FilterBar    lipgloss.Style
	FilterInput  lipgloss.Style
	FilterButton lipgloss.Style

	// Buttons
	Button        lipgloss.Style
	ButtonFocused lipgloss.Style
	ButtonPrimary lipgloss.Style

	// Tags
	Tag lipgloss.Style

	// Task item
	TaskItem      lipgloss.Style
	TaskTitle     lipgloss.Style
	TaskDone      lipgloss.Style
	TaskArchived  lipgloss.Style
	StatusPending lipgloss.Style
	StatusActive  lipgloss.Style
	StatusDone    lipgloss.Style

	// Input fields
	Input        lipgloss.Style
	InputFocused lipgloss.Style

	// Help text
	Help     lipgloss.Style
	HelpKey  lipgloss.Style
	HelpDesc lipgloss.Style

	// Status bar
	StatusBar lipgloss.Style
	Notice    lipgloss.Style
	Syncing   lipgloss.Style
}

// NewStyles creates styles based on the current theme
func NewStyles() *Styles {
	t := Current

	return &Styles{
		TitleBar: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Background(t.Background).
			Padding(0, 1).
			Bold(true),

		Title: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		TitleMuted: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),

		List: lipgloss.NewStyle().
			Padding(0, 1),

		ListItem: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Padding(0, 2),

		ListSelected: lipgloss.NewStyle().
			Foreground(t.Primary).
			Background(t.Selection).
			Padding(0, 2).
			Bold(true),

		FilterBar: lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border),

		FilterInput: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Padding(0, 1),

		FilterButton: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(0, 1),

		Button: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 2),

		ButtonFocused: lipgloss.NewStyle().
			Foreground(t.Primary).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus).
			Padding(0, 2).
			Bold(true),

		ButtonPrimary: lipgloss.NewStyle().
			Foreground(t.Background).
			Background(t.Primary).
			Padding(0, 2).
			Bold(true),

		Tag: lipgloss.NewStyle().
			Foreground(t.Accent).
			Padding(0, 1).
			MarginRight(1),

		TaskItem: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Padding(0, 2),

		TaskTitle: lipgloss.NewStyle().
			Foreground(t.Foreground),

		TaskDone: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Strikethrough(true),

		TaskArchived: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Italic(true),

		StatusPending: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),

		StatusActive: lipgloss.NewStyle().
			Foreground(t.Warning).
			Bold(true),

		StatusDone: lipgloss.NewStyle().
			Foreground(t.Success).
			Bold(true),

		Input: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),

		InputFocused: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus).
			Padding(0, 1),

		Help: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(1, 2),

		HelpKey: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		HelpDesc: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),

		StatusBar: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(0, 1),

		Notice: lipgloss.NewStyle().
			Foreground(t.Error).
			Padding(0, 1),

		Syncing: lipgloss.NewStyle().
			Foreground(t.Accent),
	}
}

// StatusMark renders the checkbox for a task status
func (s *Styles) StatusMark(st models.Status) string {
	switch st {
	case models.StatusCompleted:
		return s.StatusDone.Render("[x]")
	case models.StatusInProgress:
		return s.StatusActive.Render("[~]")
	}
	return s.StatusPending.Render("[ ]")
}

// ProjectColor resolves a project color tag: a name from ProjectColors, a
// literal color, or the theme's primary color when empty
func ProjectColor(color string) lipgloss.Color {
	if color == "" {
		return Current.Primary
	}
	if c, ok := ProjectColors[color]; ok {
		return c
	}
	return lipgloss.Color(color)
}

// RootColor gives each root task of a tree its own color
func RootColor(i int) lipgloss.Color {
	return ProjectColors[ColorNames[i%len(ColorNames)]]
}
