package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/apolo/internal/app"
	"github.com/tgienger/apolo/internal/models"
	"github.com/tgienger/apolo/internal/ordering"
	"github.com/tgienger/apolo/internal/tree"
	"github.com/tgienger/apolo/internal/ui/keys"
	"github.com/tgienger/apolo/internal/ui/styles"
)

// row is one visible line of the task tree
type row struct {
	task        models.Task
	depth       int
	root        int // index of the row's top-level task, used for its color
	hasChildren bool
	progress    int
}

// visibleRows flattens f depth-first, skipping children of collapsed tasks
// and, when hideCompleted is set, completed tasks with their subtrees
func visibleRows(f *tree.Forest, hideCompleted bool) []row {
	var rows []row
	root := -1
	f.Walk(func(t models.Task, depth int) bool {
		if hideCompleted && t.Completed() {
			return false
		}
		if depth == 0 {
			root++
		}
		kids := len(f.ChildIDs(t.ID))
		rows = append(rows, row{
			task:        t,
			depth:       depth,
			root:        root,
			hasChildren: kids > 0,
			progress:    f.Progress(t.ID),
		})
		return t.Expanded
	})
	return rows
}

// TaskListView shows the task tree of the active project
type TaskListView struct {
	ctx    context.Context
	store  *app.Store
	state  app.State
	rows   []row
	styles *styles.Styles
	keys   keys.KeyMap
	bar    progress.Model

	width   int
	height  int
	spin    string
	message string

	cursor  int
	scrollY int

	searching   bool
	searchInput textinput.Model

	hideCompleted bool

	// Task creation/editing
	editing      bool
	editingNew   bool
	editParentID string
	editID       string
	editTitle    textinput.Model
	editDesc     textarea.Model
	editContext  textarea.Model
	editFocusIdx int // 0=title, 1=desc, 2=context, 3=save

	// Delete confirmation
	confirmingDelete bool
	deleteTargetID   string
	deleteTargetName string

	// Project advice
	asking     bool
	askBusy    bool
	askInput   textinput.Model
	advice     string
	showAdvice bool

	// Help popup (shown with ? at narrow widths)
	showHelpPopup bool
}

// NewTaskListView creates the tree view over the store's active project
func NewTaskListView(ctx context.Context, store *app.Store) *TaskListView {
	s := styles.NewStyles()

	search := textinput.New()
	search.Placeholder = "Search tasks..."
	search.CharLimit = 100

	editTitle := textinput.New()
	editTitle.Placeholder = "Task title"
	editTitle.CharLimit = 200

	editDesc := textarea.New()
	editDesc.Placeholder = "Description"
	editDesc.CharLimit = 2000
	editDesc.SetWidth(50)
	editDesc.SetHeight(3)
	editDesc.ShowLineNumbers = false

	editContext := textarea.New()
	editContext.Placeholder = "Context for the AI assistant (not shown on the card)"
	editContext.CharLimit = 5000
	editContext.SetWidth(50)
	editContext.SetHeight(4)
	editContext.ShowLineNumbers = false

	ask := textinput.New()
	ask.Placeholder = "What should we focus on next?"
	ask.CharLimit = 500

	v := &TaskListView{
		ctx:         ctx,
		store:       store,
		styles:      s,
		keys:        keys.DefaultKeyMap(),
		searchInput: search,
		editTitle:   editTitle,
		editDesc:    editDesc,
		editContext: editContext,
		askInput:    ask,
		bar: progress.New(
			progress.WithSolidFill(string(styles.Current.Primary)),
			progress.WithoutPercentage(),
			progress.WithWidth(20),
		),
	}
	v.setState(store.Snapshot())
	return v
}

func (v *TaskListView) Init() tea.Cmd {
	return nil
}

// SetSpinner sets the frame shown while syncing
func (v *TaskListView) SetSpinner(frame string) {
	v.spin = frame
}

func (v *TaskListView) setState(st app.State) {
	current := v.currentID()
	v.state = st
	v.rows = visibleRows(st.Visible(), v.hideCompleted)
	v.selectID(current)
}

// selectID moves the cursor to the row of id, keeping it in range otherwise
func (v *TaskListView) selectID(id string) {
	for i, r := range v.rows {
		if r.task.ID == id {
			v.cursor = i
			v.ensureVisible()
			return
		}
	}
	v.cursor = clamp(v.cursor, 0, max(len(v.rows)-1, 0))
	v.ensureVisible()
}

func (v *TaskListView) currentID() string {
	if v.cursor >= 0 && v.cursor < len(v.rows) {
		return v.rows[v.cursor].task.ID
	}
	return ""
}

func (v *TaskListView) current() (row, bool) {
	if v.cursor >= 0 && v.cursor < len(v.rows) {
		return v.rows[v.cursor], true
	}
	return row{}, false
}

// siblings returns the ordered ids sharing id's parent in the full forest
func (v *TaskListView) siblings(id string) (parent string, ids []string, index int) {
	f := v.state.Forest(v.state.ActiveProjectID)
	parent, _ = f.Parent(id)
	ids = f.ChildIDs(parent)
	for i, s := range ids {
		if s == id {
			return parent, ids, i
		}
	}
	return parent, ids, -1
}

// move drops the task under the cursor relative to a neighbour
func (v *TaskListView) move(id, target string, p ordering.Placement) tea.Cmd {
	if target == "" {
		return nil
	}
	return run(func() error { return v.store.MoveTask(v.ctx, id, target, p) })
}

func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		inputWidth := clamp(styles.ContentWidth(msg.Width)-10, 20, 60)
		v.editDesc.SetWidth(inputWidth)
		v.editContext.SetWidth(inputWidth)
		v.ensureVisible()
		return v, nil

	case StateMsg:
		v.setState(msg.State)
		return v, nil

	case OpDoneMsg:
		v.message = errorText(msg.Err)
		return v, nil

	case AnswerMsg:
		if msg.TaskID != "" {
			return v, nil
		}
		v.askBusy = false
		v.asking = false
		v.advice = msg.Text
		v.showAdvice = true
		return v, nil

	case tea.KeyMsg:
		// Handle help popup first - any key closes it
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		if v.showAdvice {
			v.showAdvice = false
			return v, nil
		}

		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}

		if v.editing {
			return v.updateEditing(msg)
		}

		if v.asking {
			return v.updateAsking(msg)
		}

		if v.searching {
			return v.updateSearching(msg)
		}

		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *TaskListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v.message = ""
	if v.state.Notice != "" {
		v.store.ClearNotice()
	}
	cur, ok := v.current()

	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		if v.state.Search != "" {
			v.searchInput.Reset()
			v.store.SetSearch("")
			return v, nil
		}
		return v, func() tea.Msg { return BackToProjects{} }

	case msg.String() == "?":
		v.showHelpPopup = true
		return v, nil

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.rows)-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Search):
		v.searching = true
		v.searchInput.SetValue(v.state.Search)
		v.searchInput.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.ShowCompleted):
		v.hideCompleted = !v.hideCompleted
		v.setState(v.state)
		return v, nil

	case key.Matches(msg, v.keys.New):
		v.startNewTask("")
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Advice):
		v.asking = true
		v.askInput.Reset()
		v.askInput.Focus()
		return v, textinput.Blink
	}

	if !ok {
		return v, nil
	}
	id := cur.task.ID

	switch {
	case key.Matches(msg, v.keys.Enter):
		return v, func() tea.Msg { return OpenTask{ID: id} }

	case key.Matches(msg, v.keys.Toggle):
		return v, run(func() error { return v.store.ToggleTaskStatus(v.ctx, id) })

	case key.Matches(msg, v.keys.Expand):
		if cur.hasChildren && !cur.task.Expanded {
			return v, run(func() error { return v.store.ToggleExpand(v.ctx, id) })
		}

	case key.Matches(msg, v.keys.Collapse):
		if cur.hasChildren && cur.task.Expanded && v.state.Search == "" {
			return v, run(func() error { return v.store.ToggleExpand(v.ctx, id) })
		}
		if parent, _, _ := v.siblings(id); parent != "" {
			v.selectID(parent)
		}

	case key.Matches(msg, v.keys.AddChild):
		v.startNewTask(id)
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Edit):
		v.startEditTask(cur.task)
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Delete):
		v.confirmingDelete = true
		v.deleteTargetID = id
		v.deleteTargetName = cur.task.Title
		return v, nil

	case key.Matches(msg, v.keys.MoveUp):
		_, ids, i := v.siblings(id)
		if i > 0 {
			return v, v.move(id, ids[i-1], ordering.Before)
		}

	case key.Matches(msg, v.keys.MoveDown):
		_, ids, i := v.siblings(id)
		if i >= 0 && i < len(ids)-1 {
			return v, v.move(id, ids[i+1], ordering.After)
		}

	case key.Matches(msg, v.keys.Indent):
		_, ids, i := v.siblings(id)
		if i > 0 {
			return v, v.move(id, ids[i-1], ordering.Inside)
		}

	case key.Matches(msg, v.keys.Outdent):
		if parent, _, _ := v.siblings(id); parent != "" {
			return v, v.move(id, parent, ordering.After)
		}
	}

	return v, nil
}

func (v *TaskListView) updateSearching(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.searching = false
		v.searchInput.Blur()
		v.searchInput.Reset()
		v.store.SetSearch("")
		return v, nil
	case key.Matches(msg, v.keys.Enter), msg.String() == "down":
		v.searching = false
		v.searchInput.Blur()
		return v, nil
	}

	var cmd tea.Cmd
	v.searchInput, cmd = v.searchInput.Update(msg)
	v.store.SetSearch(v.searchInput.Value())
	return v, cmd
}

func (v *TaskListView) updateAsking(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if v.askBusy {
		return v, nil
	}
	switch {
	case key.Matches(msg, v.keys.Back):
		v.asking = false
		return v, nil
	case key.Matches(msg, v.keys.Enter):
		question := strings.TrimSpace(v.askInput.Value())
		if question == "" {
			return v, nil
		}
		v.askBusy = true
		return v, func() tea.Msg {
			text, err := v.store.Advice(v.ctx, question, "")
			return AnswerMsg{Text: text, Err: err}
		}
	}

	var cmd tea.Cmd
	v.askInput, cmd = v.askInput.Update(msg)
	return v, cmd
}

func (v *TaskListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		id := v.deleteTargetID
		return v, run(func() error { return v.store.DeleteTask(v.ctx, id) })
	case "n", "N", "esc":
		v.confirmingDelete = false
		return v, nil
	}
	return v, nil
}

func (v *TaskListView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.editing = false
		return v, nil

	case key.Matches(msg, v.keys.Save):
		return v, v.saveTask()

	case msg.String() == "shift+tab":
		v.editFocusIdx = (v.editFocusIdx + 3) % 4
		v.updateEditFocus()
		return v, nil

	case key.Matches(msg, v.keys.Tab):
		v.editFocusIdx = (v.editFocusIdx + 1) % 4
		v.updateEditFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		// Enter adds newlines in the text areas
		switch v.editFocusIdx {
		case 0:
			v.editFocusIdx = 1
			v.updateEditFocus()
			return v, nil
		case 3:
			return v, v.saveTask()
		}
	}

	var cmd tea.Cmd
	switch v.editFocusIdx {
	case 0:
		v.editTitle, cmd = v.editTitle.Update(msg)
	case 1:
		v.editDesc, cmd = v.editDesc.Update(msg)
	case 2:
		v.editContext, cmd = v.editContext.Update(msg)
	}
	return v, cmd
}

func (v *TaskListView) ensureVisible() {
	visibleItems := max(v.height-12, 1)

	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visibleItems {
		v.scrollY = v.cursor - visibleItems + 1
	}
}

func (v *TaskListView) startNewTask(parentID string) {
	v.editing = true
	v.editingNew = true
	v.editParentID = parentID
	v.editID = ""
	v.editFocusIdx = 0
	v.editTitle.Reset()
	v.editDesc.Reset()
	v.editContext.Reset()
	v.updateEditFocus()
}

func (v *TaskListView) startEditTask(task models.Task) {
	v.editing = true
	v.editingNew = false
	v.editID = task.ID
	v.editFocusIdx = 0
	v.editTitle.SetValue(task.Title)
	v.editDesc.SetValue(task.Description)
	v.editContext.SetValue(task.AIContext)
	v.updateEditFocus()
}

func (v *TaskListView) updateEditFocus() {
	v.editTitle.Blur()
	v.editDesc.Blur()
	v.editContext.Blur()
	switch v.editFocusIdx {
	case 0:
		v.editTitle.Focus()
	case 1:
		v.editDesc.Focus()
	case 2:
		v.editContext.Focus()
	}
}

func (v *TaskListView) saveTask() tea.Cmd {
	title := strings.TrimSpace(v.editTitle.Value())
	if title == "" {
		return nil
	}
	desc := strings.TrimSpace(v.editDesc.Value())
	hidden := strings.TrimSpace(v.editContext.Value())
	v.editing = false

	if !v.editingNew {
		id := v.editID
		patch := models.TaskPatch{
			Title:       models.Ptr(title),
			Description: models.Ptr(desc),
			AIContext:   models.Ptr(hidden),
		}
		return run(func() error { return v.store.UpdateTask(v.ctx, id, patch) })
	}

	projectID, parentID := v.state.ActiveProjectID, v.editParentID
	return run(func() error {
		t, err := v.store.AddTask(v.ctx, projectID, parentID, title)
		if err != nil {
			return err
		}
		if desc == "" && hidden == "" {
			return nil
		}
		patch := models.TaskPatch{}
		if desc != "" {
			patch.Description = models.Ptr(desc)
		}
		if hidden != "" {
			patch.AIContext = models.Ptr(hidden)
		}
		return v.store.UpdateTask(v.ctx, t.ID, patch)
	})
}

func (v *TaskListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	if v.showAdvice {
		return v.renderAdvice()
	}

	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}

	if v.editing {
		return v.renderEditForm()
	}

	if v.asking {
		return v.renderAsk()
	}

	var b strings.Builder

	// Header with project title, progress and search
	b.WriteString(v.renderHeader())
	b.WriteString("\n\n")

	b.WriteString(v.renderTaskList())

	b.WriteString("\n")
	if line := statusLine(v.styles, v.state, v.message, v.spin); line != "" {
		b.WriteString(line + "\n")
	}
	b.WriteString(v.renderHelp())

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TaskListView) renderHeader() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	project, _ := v.state.ActiveProject()
	color := lipgloss.NewStyle().Foreground(styles.ProjectColor(project.Color))
	title := color.Render("● ") + s.Title.Render(project.Title)
	if v.hideCompleted {
		title += s.FilterButton.Render("[open only]")
	}

	f := v.state.Forest(project.ID)
	pct := f.ProjectProgress()
	bar := v.bar
	bar.Width = clamp(contentWidth-30, 10, 30)
	meter := fmt.Sprintf("%s %d%%", bar.ViewAs(float64(pct)/100), pct)

	lines := []string{s.TitleBar.Render(title)}
	if project.Subtitle != "" {
		lines = append(lines, s.TitleMuted.Render(project.Subtitle))
	}
	lines = append(lines, meter)

	searchStyle := s.FilterInput
	if v.searching {
		searchStyle = s.InputFocused
	}
	if v.searching || v.state.Search != "" {
		searchWidth := clamp(contentWidth-8, 10, 40)
		lines = append(lines, searchStyle.Width(searchWidth).Render(v.searchInput.View()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (v *TaskListView) renderTaskList() string {
	s := v.styles

	if len(v.rows) == 0 {
		if v.state.Search != "" {
			return s.TitleMuted.Render("No tasks match the search.")
		}
		return s.TitleMuted.Render("No tasks. Press 'n' to create one.")
	}

	visibleItems := max(v.height-12, 1)
	endIdx := min(v.scrollY+visibleItems, len(v.rows))

	var items []string
	for i := v.scrollY; i < endIdx; i++ {
		items = append(items, v.renderTaskItem(v.rows[i], i == v.cursor && !v.searching))
	}
	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func (v *TaskListView) renderTaskItem(r row, selected bool) string {
	s := v.styles
	width := max(styles.ContentWidth(v.width)-4, 20)

	edge := lipgloss.NewStyle().Foreground(styles.RootColor(r.root)).Render("│")

	glyph := " "
	if r.hasChildren {
		glyph = "▸"
		if r.task.Expanded {
			glyph = "▾"
		}
	}

	titleStyle := s.TaskTitle
	if r.task.Completed() {
		titleStyle = s.TaskDone
	}

	indent := strings.Repeat("  ", r.depth)
	suffix := ""
	if r.hasChildren {
		suffix = s.TitleMuted.Render(fmt.Sprintf(" %d%%", r.progress))
	}
	if len(r.task.Tags) > 0 {
		suffix += " " + tagList(s, r.task.Tags)
	}
	room := max(width-lipgloss.Width(indent)-10-lipgloss.Width(suffix), 8)

	line := fmt.Sprintf("%s %s%s %s %s%s",
		edge, indent, glyph, s.StatusMark(r.task.Status),
		titleStyle.Render(truncate(r.task.Title, room)), suffix)

	itemStyle := s.TaskItem.Width(width)
	if selected {
		itemStyle = s.ListSelected.Width(width)
	}
	return itemStyle.Render(line)
}

func (v *TaskListView) renderEditForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	titleStyle := s.Input
	descStyle := s.Input
	ctxStyle := s.Input
	btnStyle := s.Button

	switch v.editFocusIdx {
	case 0:
		titleStyle = s.InputFocused
	case 1:
		descStyle = s.InputFocused
	case 2:
		ctxStyle = s.InputFocused
	case 3:
		btnStyle = s.ButtonFocused
	}

	inputWidth := clamp(contentWidth-6, 20, 64)

	heading := "Edit Task"
	if v.editingNew {
		heading = "New Task"
		if v.editParentID != "" {
			if parent, ok := v.state.Forest(v.state.ActiveProjectID).Find(v.editParentID); ok {
				heading = "New Subtask of " + truncate(parent.Title, 30)
			}
		}
	}

	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(heading),
		"",
		"Title:",
		titleStyle.Width(inputWidth).Render(v.editTitle.View()),
		"",
		"Description:",
		descStyle.Width(inputWidth).Render(v.editDesc.View()),
		"",
		"AI context:",
		ctxStyle.Width(inputWidth).Render(v.editContext.View()),
		"",
		btnStyle.Render(" Save "),
		"",
		s.TitleMuted.Render("Tab: next • Ctrl+S: save • Esc: cancel"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderAsk() string {
	s := v.styles
	inputWidth := clamp(styles.ContentWidth(v.width)-10, 20, 60)

	status := s.TitleMuted.Render("Enter: ask • Esc: cancel")
	if v.askBusy {
		status = s.Syncing.Render("Thinking...")
	}
	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Ask the advisor"),
		"",
		s.InputFocused.Width(inputWidth).Render(v.askInput.View()),
		"",
		status,
	)
	return popup(s, content, v.width, v.height)
}

func (v *TaskListView) renderAdvice() string {
	s := v.styles
	width := styles.ContentWidth(v.width) - 8
	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Advice"),
		"",
		renderMarkdown(v.advice, width),
		"",
		s.TitleMuted.Render("Press any key to close"),
	)
	return styles.CenterView(s.FilterBar.Render(content), v.width, v.height)
}

func (v *TaskListView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	// At narrow widths, show hint to press ? for help
	if contentWidth > 0 && contentWidth < 60 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}
	return helpBar(v.styles,
		"space", "done",
		"↵", "open",
		"n", "new",
		"s", "subtask",
		"/", "search",
		"?", "more",
	)
}

func (v *TaskListView) renderHelpPopup() string {
	s := v.styles

	helpItems := []string{
		s.HelpKey.Render("↑/↓") + "      navigate",
		s.HelpKey.Render("space") + "    toggle done",
		s.HelpKey.Render("↵") + "        open task",
		s.HelpKey.Render("→/←") + "      expand / collapse",
		s.HelpKey.Render("n") + "        new task",
		s.HelpKey.Render("s") + "        new subtask",
		s.HelpKey.Render("e") + "        edit task",
		s.HelpKey.Render("d") + "        delete task",
		s.HelpKey.Render("K/J") + "      move up / down",
		s.HelpKey.Render(">/<") + "      indent / outdent",
		s.HelpKey.Render("/") + "        search",
		s.HelpKey.Render("c") + "        hide completed",
		s.HelpKey.Render("A") + "        ask the advisor",
		s.HelpKey.Render("esc") + "      back to projects",
		s.HelpKey.Render("q") + "        quit",
		"",
		s.TitleMuted.Render("Press any key to close"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, helpItems...)...,
	)
	return popup(s, content, v.width, v.height)
}

func (v *TaskListView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Task?"),
		"",
		s.TitleMuted.Render(fmt.Sprintf("%q and its subtasks will be removed.", truncate(v.deleteTargetName, 40))),
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
