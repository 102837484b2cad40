package views

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/apolo/internal/app"
	"github.com/tgienger/apolo/internal/models"
	"github.com/tgienger/apolo/internal/ui/keys"
	"github.com/tgienger/apolo/internal/ui/styles"
)

type projectItem struct {
	project  models.Project
	progress int
	tasks    int
	owned    bool
}

func (i projectItem) Title() string       { return i.project.Title }
func (i projectItem) Description() string { return i.project.Subtitle }
func (i projectItem) FilterValue() string { return i.project.Title }

type projectDelegate struct {
	styles *styles.Styles
	bar    progress.Model
	width  int
}

func (d projectDelegate) Height() int                               { return 3 }
func (d projectDelegate) Spacing() int                              { return 1 }
func (d projectDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d projectDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	p, ok := item.(projectItem)
	if !ok {
		return
	}

	selected := index == m.Index()
	width := max(d.width-4, 20)

	titleStyle := d.styles.ListItem.Width(width)
	descStyle := d.styles.ListItem.Foreground(styles.Current.ForegroundDim).Width(width)
	if selected {
		titleStyle = d.styles.ListSelected.Width(width)
		descStyle = d.styles.ListSelected.Foreground(styles.Current.ForegroundDim).Width(width)
	}
	if p.project.Archived {
		titleStyle = titleStyle.Inherit(d.styles.TaskArchived)
	}

	dot := lipgloss.NewStyle().Foreground(styles.ProjectColor(p.project.Color)).Render("●")
	title := dot + " " + p.Title()
	if !p.owned {
		title += d.styles.TitleMuted.Render(" (shared)")
	}
	if p.project.Archived {
		title += d.styles.TitleMuted.Render(" (archived)")
	}

	desc := p.Description()
	if desc == "" {
		desc = fmt.Sprintf("%d tasks", p.tasks)
	}

	bar := d.bar
	bar.Width = clamp(width-12, 10, 40)
	meter := fmt.Sprintf("%s %3d%%", bar.ViewAs(float64(p.progress)/100), p.progress)

	fmt.Fprintf(w, "%s\n%s\n%s",
		titleStyle.Render(title),
		descStyle.Render(desc),
		d.styles.ListItem.Render(meter),
	)
}

// ProjectListView lists the user's projects
type ProjectListView struct {
	ctx      context.Context
	store    *app.Store
	state    app.State
	list     list.Model
	delegate *projectDelegate
	styles   *styles.Styles
	keys     keys.KeyMap
	width    int
	height   int
	spin     string
	message  string

	showArchived bool

	creating  bool
	editingID string // project being edited, empty when creating
	newName   textinput.Model
	newDesc   textinput.Model
	focusIdx  int // 0=name, 1=subtitle, 2=confirm

	profiling   bool
	profileName textinput.Model

	showNotes  bool
	noteCursor int

	joining bool
	joinID  textinput.Model

	confirmingDelete bool
	deleteTargetID   string
	deleteTargetName string

	// Help popup (shown with ? at narrow widths)
	showHelpPopup bool
}

// NewProjectListView creates the project list for store
func NewProjectListView(ctx context.Context, store *app.Store) *ProjectListView {
	s := styles.NewStyles()

	newName := textinput.New()
	newName.Placeholder = "Project name"
	newName.CharLimit = 100

	newDesc := textinput.New()
	newDesc.Placeholder = "Subtitle (optional)"
	newDesc.CharLimit = 100

	profileName := textinput.New()
	profileName.Placeholder = "Display name"
	profileName.CharLimit = 100

	joinID := textinput.New()
	joinID.Placeholder = "Project ID"
	joinID.CharLimit = 64

	delegate := &projectDelegate{
		styles: s,
		bar: progress.New(
			progress.WithSolidFill(string(styles.Current.Primary)),
			progress.WithoutPercentage(),
			progress.WithWidth(30),
		),
		width: 80,
	}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Projects"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = s.Title
	l.SetShowHelp(false)

	v := &ProjectListView{
		ctx:      ctx,
		store:    store,
		list:     l,
		delegate: delegate,
		styles:   s,
		keys:     keys.DefaultKeyMap(),
		newName:  newName,
		newDesc:  newDesc,
		joinID:   joinID,

		profileName: profileName,
	}
	v.setState(store.Snapshot())
	return v
}

func (v *ProjectListView) Init() tea.Cmd {
	return nil
}

// SetSpinner sets the frame shown while syncing
func (v *ProjectListView) SetSpinner(frame string) {
	v.spin = frame
}

func (v *ProjectListView) setState(st app.State) {
	v.state = st
	selected := ""
	if item, ok := v.list.SelectedItem().(projectItem); ok {
		selected = item.project.ID
	}

	var items []list.Item
	cursor := 0
	for _, p := range st.Projects {
		if p.Archived && !v.showArchived {
			continue
		}
		f := st.Forest(p.ID)
		if p.ID == selected {
			cursor = len(items)
		}
		items = append(items, projectItem{
			project:  p,
			progress: f.ProjectProgress(),
			tasks:    f.Len(),
			owned:    st.User != nil && p.OwnerID == st.User.ID,
		})
	}
	v.list.SetItems(items)
	if len(items) > 0 {
		v.list.Select(cursor)
	}
}

func (v *ProjectListView) selected() (models.Project, bool) {
	item, ok := v.list.SelectedItem().(projectItem)
	return item.project, ok
}

// move shifts the selected project one visible slot up or down
func (v *ProjectListView) move(dir int) tea.Cmd {
	p, ok := v.selected()
	if !ok {
		return nil
	}
	items := v.list.Items()
	next := v.list.Index() + dir
	if next < 0 || next >= len(items) {
		return nil
	}
	neighbour := items[next].(projectItem).project.ID

	to := -1
	for i, q := range v.state.Projects {
		if q.ID == neighbour {
			to = i
		}
	}
	v.list.Select(next)
	return run(func() error { return v.store.MoveProject(v.ctx, p.ID, to) })
}

func (v *ProjectListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		// Use content width (capped at MaxWidth) for internal layout
		contentWidth := styles.ContentWidth(msg.Width)
		v.delegate.width = contentWidth
		v.list.SetSize(contentWidth-4, msg.Height-7)
		return v, nil

	case StateMsg:
		v.setState(msg.State)
		return v, nil

	case OpDoneMsg:
		v.message = errorText(msg.Err)
		return v, nil

	case tea.KeyMsg:
		// Handle help popup first - any key closes it
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}

		if v.creating {
			return v.updateCreating(msg)
		}

		if v.joining {
			return v.updateJoining(msg)
		}

		if v.profiling {
			return v.updateProfile(msg)
		}

		if v.showNotes {
			return v.updateNotes(msg)
		}

		if v.list.FilterState() == list.Filtering {
			break
		}

		v.message = ""
		if v.state.Notice != "" {
			v.store.ClearNotice()
		}

		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Back):
			// Don't quit on escape in project list - only q quits
			return v, nil
		case key.Matches(msg, v.keys.New):
			v.creating = true
			v.editingID = ""
			v.focusIdx = 0
			v.newName.Reset()
			v.newDesc.Reset()
			v.updateFocus()
			return v, textinput.Blink
		case key.Matches(msg, v.keys.Edit):
			if p, ok := v.selected(); ok {
				v.creating = true
				v.editingID = p.ID
				v.focusIdx = 0
				v.newName.SetValue(p.Title)
				v.newDesc.SetValue(p.Subtitle)
				v.updateFocus()
				return v, textinput.Blink
			}
		case msg.String() == "C":
			if p, ok := v.selected(); ok {
				color := nextColor(p.Color)
				return v, run(func() error {
					return v.store.UpdateProject(v.ctx, p.ID, models.ProjectPatch{Color: models.Ptr(color)})
				})
			}
		case key.Matches(msg, v.keys.Notifications):
			v.showNotes = true
			v.noteCursor = 0
			return v, nil
		case key.Matches(msg, v.keys.Profile):
			v.profiling = true
			if v.state.User != nil {
				v.profileName.SetValue(v.state.User.Name)
			}
			v.profileName.Focus()
			return v, textinput.Blink
		case key.Matches(msg, v.keys.Join):
			v.joining = true
			v.joinID.Reset()
			v.joinID.Focus()
			return v, textinput.Blink
		case msg.String() == "?":
			v.showHelpPopup = true
			return v, nil
		case key.Matches(msg, v.keys.Filter):
			v.showArchived = !v.showArchived
			v.setState(v.state)
			return v, nil
		case key.Matches(msg, v.keys.SignOut):
			return v, func() tea.Msg { return SignedOut{} }
		case key.Matches(msg, v.keys.MoveUp):
			return v, v.move(-1)
		case key.Matches(msg, v.keys.MoveDown):
			return v, v.move(1)
		case key.Matches(msg, v.keys.Enter):
			if p, ok := v.selected(); ok {
				return v, func() tea.Msg {
					return SelectedProject{ID: p.ID}
				}
			}
		case key.Matches(msg, v.keys.Archive):
			if p, ok := v.selected(); ok {
				return v, run(func() error { return v.store.SetProjectArchived(v.ctx, p.ID, !p.Archived) })
			}
		case key.Matches(msg, v.keys.Delete):
			if p, ok := v.selected(); ok {
				if !v.state.IsOwner(p.ID) {
					v.message = "Only the owner can delete a project."
					return v, nil
				}
				v.confirmingDelete = true
				v.deleteTargetID = p.ID
				v.deleteTargetName = p.Title
				return v, nil
			}
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *ProjectListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		id := v.deleteTargetID
		return v, run(func() error { return v.store.DeleteProject(v.ctx, id) })
	case "n", "N", "esc":
		v.confirmingDelete = false
		return v, nil
	}
	return v, nil
}

func (v *ProjectListView) updateJoining(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.joining = false
		return v, nil
	case key.Matches(msg, v.keys.Enter):
		id := strings.TrimSpace(v.joinID.Value())
		v.joining = false
		if id == "" {
			return v, nil
		}
		return v, run(func() error { return v.store.JoinProject(v.ctx, id) })
	}

	var cmd tea.Cmd
	v.joinID, cmd = v.joinID.Update(msg)
	return v, cmd
}

// nextColor cycles through the named project colors
func nextColor(current string) string {
	for i, name := range styles.ColorNames {
		if name == current {
			return styles.ColorNames[(i+1)%len(styles.ColorNames)]
		}
	}
	return styles.ColorNames[0]
}

func (v *ProjectListView) updateProfile(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.profiling = false
		return v, nil
	case key.Matches(msg, v.keys.Enter):
		v.profiling = false
		name := v.profileName.Value()
		avatar := ""
		if v.state.User != nil {
			avatar = v.state.User.AvatarURL
		}
		return v, run(func() error { return v.store.UpdateProfile(v.ctx, name, avatar) })
	}

	var cmd tea.Cmd
	v.profileName, cmd = v.profileName.Update(msg)
	return v, cmd
}

func (v *ProjectListView) updateNotes(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	notes := v.state.Notifications
	switch {
	case key.Matches(msg, v.keys.Back), key.Matches(msg, v.keys.Notifications):
		v.showNotes = false
	case key.Matches(msg, v.keys.Up):
		v.noteCursor = max(v.noteCursor-1, 0)
	case key.Matches(msg, v.keys.Down):
		v.noteCursor = clamp(v.noteCursor+1, 0, max(len(notes)-1, 0))
	case key.Matches(msg, v.keys.Enter):
		if v.noteCursor < len(notes) && !notes[v.noteCursor].Read {
			id := notes[v.noteCursor].ID
			return v, run(func() error { return v.store.MarkNotificationRead(v.ctx, id) })
		}
	}
	return v, nil
}

func (v *ProjectListView) create() tea.Cmd {
	name := strings.TrimSpace(v.newName.Value())
	if name == "" {
		return nil
	}
	desc := strings.TrimSpace(v.newDesc.Value())
	v.creating = false
	if id := v.editingID; id != "" {
		patch := models.ProjectPatch{Title: models.Ptr(name), Subtitle: models.Ptr(desc)}
		return run(func() error { return v.store.UpdateProject(v.ctx, id, patch) })
	}
	return func() tea.Msg {
		p, err := v.store.AddProject(v.ctx, name, desc)
		if err != nil {
			return OpDoneMsg{Err: err}
		}
		return SelectedProject{ID: p.ID}
	}
}

func (v *ProjectListView) updateCreating(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.creating = false
		return v, nil

	case key.Matches(msg, v.keys.Save):
		return v, v.create()

	case msg.String() == "shift+tab":
		v.focusIdx = (v.focusIdx + 2) % 3
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.Tab):
		v.focusIdx = (v.focusIdx + 1) % 3
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.focusIdx < 2 {
			v.focusIdx++
			v.updateFocus()
			return v, nil
		}
		return v, v.create()
	}

	var cmd tea.Cmd
	switch v.focusIdx {
	case 0:
		v.newName, cmd = v.newName.Update(msg)
	case 1:
		v.newDesc, cmd = v.newDesc.Update(msg)
	}
	return v, cmd
}

func (v *ProjectListView) updateFocus() {
	v.newName.Blur()
	v.newDesc.Blur()
	switch v.focusIdx {
	case 0:
		v.newName.Focus()
	case 1:
		v.newDesc.Focus()
	}
}

// View renders the view
func (v *ProjectListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}

	if v.creating {
		return v.renderCreateForm()
	}

	if v.joining {
		return v.renderJoinForm()
	}

	if v.profiling {
		return v.renderProfileForm()
	}

	if v.showNotes {
		return v.renderNotifications()
	}

	if !v.state.Loaded {
		return v.styles.TitleMuted.Render("Loading...")
	}

	if len(v.list.Items()) == 0 {
		return v.renderEmpty()
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		v.renderHeader(),
		v.styles.List.Render(v.list.View()),
		statusLine(v.styles, v.state, v.message, v.spin),
		v.renderHelp(),
	)
	return styles.CenterView(content, v.width, v.height)
}

func (v *ProjectListView) renderHeader() string {
	s := v.styles
	name := ""
	if v.state.User != nil {
		name = v.state.User.Name
	}
	header := s.TitleMuted.Render(name)
	if n := v.state.UnreadCount(); n > 0 {
		header += s.Syncing.Render(fmt.Sprintf("  %d unread", n))
	}
	return header
}

func (v *ProjectListView) renderEmpty() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	hint := "Press 'n' to create your first project or 'o' to join one"
	if v.showArchived {
		hint = "Nothing here. Press 'f' to hide archived projects"
	}
	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Render("No Projects"),
		"",
		s.TitleMuted.Render(hint),
		"",
		s.ButtonPrimary.Render(" New Project "),
		"",
		statusLine(s, v.state, v.message, v.spin),
	)

	// Center within content width, then center that in terminal
	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *ProjectListView) renderCreateForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	nameStyle := s.Input
	descStyle := s.Input
	btnStyle := s.Button

	switch v.focusIdx {
	case 0:
		nameStyle = s.InputFocused
	case 1:
		descStyle = s.InputFocused
	case 2:
		btnStyle = s.ButtonFocused
	}

	// Dynamic input width based on content width
	inputWidth := clamp(contentWidth-6, 20, 50)

	heading, button := "New Project", " Create "
	if v.editingID != "" {
		heading, button = "Edit Project", " Save "
	}

	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(heading),
		"",
		"Name:",
		nameStyle.Width(inputWidth).Render(v.newName.View()),
		"",
		"Subtitle:",
		descStyle.Width(inputWidth).Render(v.newDesc.View()),
		"",
		btnStyle.Render(button),
		"",
		s.TitleMuted.Render("Tab: next • Ctrl+S: save • Esc: cancel"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *ProjectListView) renderJoinForm() string {
	s := v.styles
	inputWidth := clamp(styles.ContentWidth(v.width)-10, 20, 50)

	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Join Project"),
		"",
		s.InputFocused.Width(inputWidth).Render(v.joinID.View()),
		"",
		s.TitleMuted.Render("Enter: join • Esc: cancel"),
	)
	return popup(s, form, v.width, v.height)
}

func (v *ProjectListView) renderProfileForm() string {
	s := v.styles
	inputWidth := clamp(styles.ContentWidth(v.width)-10, 20, 50)

	email := ""
	if v.state.User != nil {
		email = v.state.User.Email
	}
	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Profile"),
		s.TitleMuted.Render(email),
		"",
		s.InputFocused.Width(inputWidth).Render(v.profileName.View()),
		"",
		s.TitleMuted.Render("Enter: save • Esc: cancel"),
	)
	return popup(s, form, v.width, v.height)
}

func (v *ProjectListView) renderNotifications() string {
	s := v.styles
	width := clamp(styles.ContentWidth(v.width)-10, 20, 60)

	lines := []string{s.Title.Render("Notifications"), ""}
	if len(v.state.Notifications) == 0 {
		lines = append(lines, s.TitleMuted.Render("Nothing new."))
	}
	for i, n := range v.state.Notifications {
		style := s.ListItem.Width(width)
		if i == v.noteCursor {
			style = s.ListSelected.Width(width)
		}
		mark := "•"
		if n.Read {
			mark = " "
		}
		when := n.CreatedAt.Local().Format("Jan 2 15:04")
		lines = append(lines, style.Render(fmt.Sprintf("%s %s  %s", mark, n.Title, s.TitleMuted.Render(when))))
		if n.Body != "" {
			lines = append(lines, s.TitleMuted.Render("    "+truncate(n.Body, width-4)))
		}
	}
	lines = append(lines, "", s.TitleMuted.Render("Enter: mark read • Esc: close"))
	return popup(s, lipgloss.JoinVertical(lipgloss.Left, lines...), v.width, v.height)
}

func (v *ProjectListView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	// At narrow widths, show hint to press ? for help
	if contentWidth > 0 && contentWidth < 50 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}
	return helpBar(v.styles,
		"↵", "open",
		"n", "new",
		"o", "join",
		"a", "archive",
		"d", "del",
		"?", "more",
	)
}

func (v *ProjectListView) renderHelpPopup() string {
	s := v.styles

	helpItems := []string{
		s.HelpKey.Render("↵") + "      open project",
		s.HelpKey.Render("n") + "      new project",
		s.HelpKey.Render("e") + "      edit project",
		s.HelpKey.Render("C") + "      cycle color",
		s.HelpKey.Render("o") + "      join a shared project",
		s.HelpKey.Render("a") + "      archive / restore",
		s.HelpKey.Render("f") + "      show archived",
		s.HelpKey.Render("K/J") + "    move up / down",
		s.HelpKey.Render("d") + "      delete project",
		s.HelpKey.Render("b") + "      notifications",
		s.HelpKey.Render("p") + "      profile",
		s.HelpKey.Render("L") + "      sign out",
		s.HelpKey.Render("q") + "      quit",
		"",
		s.TitleMuted.Render("Press any key to close"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, helpItems...)...,
	)
	return popup(s, content, v.width, v.height)
}

func (v *ProjectListView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Project?"),
		"",
		s.TitleMuted.Render(fmt.Sprintf("%q and all of its tasks will be removed.", v.deleteTargetName)),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}
