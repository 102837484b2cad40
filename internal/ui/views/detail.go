package views

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/apolo/internal/ai"
	"github.com/tgienger/apolo/internal/app"
	"github.com/tgienger/apolo/internal/models"
	"github.com/tgienger/apolo/internal/ui/keys"
	"github.com/tgienger/apolo/internal/ui/styles"
)

type entryKind int

const (
	entryActivity entryKind = iota
	entryAttachment
	entryMedia
)

// entry is a selectable line of the detail view
type entry struct {
	kind entryKind
	id   string // activity/attachment id, or media name
	own  bool   // a comment written by the current user
	line int    // line offset in the rendered body
}

// attachmentKind guesses the kind of an attachment from its URL
func attachmentKind(raw string) models.AttachmentKind {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg":
		return models.AttachmentImage
	case ".pdf", ".doc", ".docx", ".txt", ".md", ".odt":
		return models.AttachmentDocument
	case ".mp3", ".wav", ".ogg", ".m4a":
		return models.AttachmentAudio
	case ".mp4", ".mov", ".webm", ".mkv":
		return models.AttachmentVideo
	}
	return models.AttachmentLink
}

// TaskDetailView shows one task with its history and attachments
type TaskDetailView struct {
	ctx    context.Context
	store  *app.Store
	state  app.State
	task   models.Task
	found  bool
	styles *styles.Styles
	keys   keys.KeyMap
	body   viewport.Model

	width   int
	height  int
	spin    string
	message string

	entries []entry
	cursor  int

	// Comment add/edit
	commenting   bool
	commentEdit  string // activity id being edited, empty for a new comment
	commentInput textarea.Model

	// Link attachment
	attaching  bool
	attachName textinput.Model
	attachURL  textinput.Model
	attachIdx  int // 0=name, 1=url

	// Media for the AI context
	addingMedia bool
	mediaPath   textinput.Model

	suggesting bool

	// Help popup (shown with ? at narrow widths)
	showHelpPopup bool
}

// NewTaskDetailView creates the detail view over the store's active task
func NewTaskDetailView(ctx context.Context, store *app.Store) *TaskDetailView {
	comment := textarea.New()
	comment.Placeholder = "Add a comment..."
	comment.CharLimit = 2000
	comment.SetWidth(50)
	comment.SetHeight(3)
	comment.ShowLineNumbers = false

	name := textinput.New()
	name.Placeholder = "Name"
	name.CharLimit = 100

	link := textinput.New()
	link.Placeholder = "https://..."
	link.CharLimit = 2000

	media := textinput.New()
	media.Placeholder = "Path to a file (max 10 MB)"
	media.CharLimit = 1000

	v := &TaskDetailView{
		ctx:          ctx,
		store:        store,
		styles:       styles.NewStyles(),
		keys:         keys.DefaultKeyMap(),
		body:         viewport.New(80, 20),
		commentInput: comment,
		attachName:   name,
		attachURL:    link,
		mediaPath:    media,
	}
	v.setState(store.Snapshot())
	return v
}

func (v *TaskDetailView) Init() tea.Cmd {
	return nil
}

// SetSpinner sets the frame shown while syncing
func (v *TaskDetailView) SetSpinner(frame string) {
	v.spin = frame
}

func (v *TaskDetailView) setState(st app.State) {
	v.state = st
	v.task, v.found = st.ActiveTask()
	v.renderBody()
}

func (v *TaskDetailView) author(id string) string {
	if u, ok := v.state.UserByID(id); ok && u.Name != "" {
		return u.Name
	}
	if v.state.User != nil && v.state.User.ID == id {
		return v.state.User.Name
	}
	return "someone"
}

// renderBody rebuilds the scrollable content and the selectable entries
func (v *TaskDetailView) renderBody() {
	s := v.styles
	width := max(styles.ContentWidth(v.width)-6, 20)
	t := v.task

	var lines []string
	add := func(block string) {
		lines = append(lines, strings.Split(block, "\n")...)
	}

	selected := ""
	if v.cursor >= 0 && v.cursor < len(v.entries) {
		selected = v.entries[v.cursor].id
	}
	v.entries = v.entries[:0]
	mark := func(e entry, text string) {
		e.line = len(lines)
		style := s.ListItem
		if e.id == selected || (selected == "" && len(v.entries) == 0) {
			style = s.ListSelected
		}
		v.entries = append(v.entries, e)
		add(style.Width(width).Render(text))
	}

	if t.Description != "" {
		add(renderMarkdown(t.Description, width))
		add("")
	}
	if t.AIContext != "" {
		add(s.TitleMuted.Render("AI context: " + truncate(strings.ReplaceAll(t.AIContext, "\n", " "), width-12)))
		add("")
	}
	if t.SuggestedSteps != "" {
		add(s.Title.Render("Suggested steps"))
		add(renderMarkdown(t.SuggestedSteps, width))
		add("")
	}

	if len(t.Attachments) > 0 {
		add(s.Title.Render("Attachments"))
		for _, a := range t.Attachments {
			mark(entry{kind: entryAttachment, id: a.ID},
				fmt.Sprintf("[%s] %s  %s", a.Kind, a.Name, s.TitleMuted.Render(truncate(a.URL, 40))))
		}
		add("")
	}

	if len(t.AIMedia) > 0 {
		add(s.Title.Render("AI media"))
		for _, m := range t.AIMedia {
			mark(entry{kind: entryMedia, id: m.Name},
				fmt.Sprintf("%s  %s", m.Name, s.TitleMuted.Render(fmt.Sprintf("%s, %d KB", m.MimeType, len(m.Data)/1024))))
		}
		add("")
	}

	add(s.Title.Render("Activity"))
	if len(t.Activity) == 0 {
		add(s.TitleMuted.Render("No activity yet."))
	}
	// Newest first
	for i := len(t.Activity) - 1; i >= 0; i-- {
		a := t.Activity[i]
		own := a.Kind == models.ActivityComment && v.state.User != nil && a.CreatedBy == v.state.User.ID
		when := a.Timestamp.Local().Format("Jan 2 15:04")
		text := fmt.Sprintf("%s %s: %s", s.TitleMuted.Render(when), v.author(a.CreatedBy), a.Content)
		if a.Kind != models.ActivityComment {
			text = s.TitleMuted.Render(fmt.Sprintf("%s %s: %s", when, v.author(a.CreatedBy), a.Content))
		}
		mark(entry{kind: entryActivity, id: a.ID, own: own}, text)
	}

	v.cursor = 0
	for i, e := range v.entries {
		if e.id == selected {
			v.cursor = i
		}
	}
	v.body.SetContent(strings.Join(lines, "\n"))
	v.follow()
}

// follow scrolls the body so the selected entry is visible
func (v *TaskDetailView) follow() {
	if v.cursor < 0 || v.cursor >= len(v.entries) {
		return
	}
	line := v.entries[v.cursor].line
	switch {
	case line < v.body.YOffset:
		v.body.SetYOffset(line)
	case line >= v.body.YOffset+v.body.Height:
		v.body.SetYOffset(line - v.body.Height + 1)
	}
}

func (v *TaskDetailView) selected() (entry, bool) {
	if v.cursor >= 0 && v.cursor < len(v.entries) {
		return v.entries[v.cursor], true
	}
	return entry{}, false
}

func (v *TaskDetailView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(msg.Width)
		v.body.Width = contentWidth - 2
		v.body.Height = max(msg.Height-10, 3)
		v.commentInput.SetWidth(clamp(contentWidth-10, 20, 60))
		v.renderBody()
		return v, nil

	case StateMsg:
		v.setState(msg.State)
		return v, nil

	case OpDoneMsg:
		v.message = errorText(msg.Err)
		return v, nil

	case AnswerMsg:
		if msg.TaskID != v.task.ID {
			return v, nil
		}
		v.suggesting = false
		if ai.IsFallback(msg.Text) {
			v.message = msg.Text
		}
		return v, nil

	case tea.KeyMsg:
		// Handle help popup first - any key closes it
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		if v.commenting {
			return v.updateCommenting(msg)
		}

		if v.attaching {
			return v.updateAttaching(msg)
		}

		if v.addingMedia {
			return v.updateAddingMedia(msg)
		}

		return v.updateNormal(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		v.body, cmd = v.body.Update(msg)
		return v, cmd
	}

	return v, nil
}

func (v *TaskDetailView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v.message = ""
	if v.state.Notice != "" {
		v.store.ClearNotice()
	}
	id := v.task.ID

	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		return v, func() tea.Msg { return BackToTasks{} }

	case msg.String() == "?":
		v.showHelpPopup = true
		return v, nil

	case msg.String() == "pgup", msg.String() == "pgdown":
		var cmd tea.Cmd
		v.body, cmd = v.body.Update(msg)
		return v, cmd

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.renderBody()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.entries)-1 {
			v.cursor++
			v.renderBody()
		}
		return v, nil
	}

	if !v.found {
		return v, nil
	}

	switch {
	case key.Matches(msg, v.keys.Toggle):
		return v, run(func() error { return v.store.ToggleTaskStatus(v.ctx, id) })

	case key.Matches(msg, v.keys.Comment):
		v.commenting = true
		v.commentEdit = ""
		v.commentInput.Reset()
		v.commentInput.Focus()
		return v, textarea.Blink

	case key.Matches(msg, v.keys.Edit):
		e, ok := v.selected()
		if !ok || e.kind != entryActivity {
			return v, nil
		}
		if !e.own {
			v.message = errorText(app.ErrForbidden)
			return v, nil
		}
		for _, a := range v.task.Activity {
			if a.ID == e.id {
				v.commentInput.SetValue(a.Content)
			}
		}
		v.commenting = true
		v.commentEdit = e.id
		v.commentInput.Focus()
		return v, textarea.Blink

	case key.Matches(msg, v.keys.Delete):
		e, ok := v.selected()
		if !ok {
			return v, nil
		}
		switch e.kind {
		case entryActivity:
			if !e.own {
				v.message = errorText(app.ErrForbidden)
				return v, nil
			}
			return v, run(func() error { return v.store.DeleteActivity(v.ctx, id, e.id) })
		case entryAttachment:
			return v, run(func() error { return v.store.DeleteAttachment(v.ctx, id, e.id) })
		case entryMedia:
			return v, run(func() error { return v.store.RemoveMedia(v.ctx, id, e.id) })
		}

	case key.Matches(msg, v.keys.Attach):
		v.attaching = true
		v.attachIdx = 0
		v.attachName.Reset()
		v.attachURL.Reset()
		v.attachName.Focus()
		v.attachURL.Blur()
		return v, textinput.Blink

	case msg.String() == "m":
		v.addingMedia = true
		v.mediaPath.Reset()
		v.mediaPath.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Suggest):
		if v.suggesting {
			return v, nil
		}
		v.suggesting = true
		return v, func() tea.Msg {
			text, err := v.store.SuggestSteps(v.ctx, id)
			return AnswerMsg{TaskID: id, Text: text, Err: err}
		}
	}

	return v, nil
}

func (v *TaskDetailView) updateCommenting(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.commenting = false
		v.commentInput.Blur()
		return v, nil

	case key.Matches(msg, v.keys.Save):
		content := strings.TrimSpace(v.commentInput.Value())
		v.commenting = false
		v.commentInput.Blur()
		id, edit := v.task.ID, v.commentEdit
		if edit != "" {
			return v, run(func() error { return v.store.UpdateActivity(v.ctx, id, edit, content) })
		}
		return v, run(func() error { return v.store.AddActivity(v.ctx, id, content) })
	}

	var cmd tea.Cmd
	v.commentInput, cmd = v.commentInput.Update(msg)
	return v, cmd
}

func (v *TaskDetailView) updateAttaching(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.attaching = false
		return v, nil

	case key.Matches(msg, v.keys.Tab), msg.String() == "shift+tab":
		v.attachIdx = 1 - v.attachIdx
		v.attachName.Blur()
		v.attachURL.Blur()
		if v.attachIdx == 0 {
			v.attachName.Focus()
		} else {
			v.attachURL.Focus()
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter), key.Matches(msg, v.keys.Save):
		link := strings.TrimSpace(v.attachURL.Value())
		if link == "" {
			return v, nil
		}
		name := strings.TrimSpace(v.attachName.Value())
		if name == "" {
			name = path.Base(link)
		}
		v.attaching = false
		id := v.task.ID
		return v, run(func() error {
			_, err := v.store.AddAttachment(v.ctx, id, name, attachmentKind(link), link)
			return err
		})
	}

	var cmd tea.Cmd
	if v.attachIdx == 0 {
		v.attachName, cmd = v.attachName.Update(msg)
	} else {
		v.attachURL, cmd = v.attachURL.Update(msg)
	}
	return v, cmd
}

func (v *TaskDetailView) updateAddingMedia(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.addingMedia = false
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		p := strings.TrimSpace(v.mediaPath.Value())
		if p == "" {
			return v, nil
		}
		v.addingMedia = false
		id := v.task.ID
		return v, run(func() error {
			info, err := os.Stat(p)
			if err != nil {
				return err
			}
			if info.Size() > models.MaxMediaBytes {
				return fmt.Errorf("%s: %w", filepath.Base(p), models.ErrMediaTooLarge)
			}
			data, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			return v.store.AddMedia(v.ctx, id, models.MediaBlob{
				Name:     filepath.Base(p),
				MimeType: http.DetectContentType(data),
				Data:     data,
			})
		})
	}

	var cmd tea.Cmd
	v.mediaPath, cmd = v.mediaPath.Update(msg)
	return v, cmd
}

func (v *TaskDetailView) View() string {
	s := v.styles

	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	if !v.found {
		return styles.CenterView(s.TitleMuted.Render("This task no longer exists. Press esc to go back."), v.width, v.height)
	}

	if v.attaching {
		return v.renderAttachForm()
	}

	if v.addingMedia {
		inputWidth := clamp(styles.ContentWidth(v.width)-10, 20, 60)
		return popup(s, lipgloss.JoinVertical(lipgloss.Left,
			s.Title.Render("Add AI media"),
			"",
			s.InputFocused.Width(inputWidth).Render(v.mediaPath.View()),
			"",
			s.TitleMuted.Render("Enter: add • Esc: cancel"),
		), v.width, v.height)
	}

	var b strings.Builder
	b.WriteString(v.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(v.body.View())
	b.WriteString("\n")

	if v.commenting {
		heading := "New comment"
		if v.commentEdit != "" {
			heading = "Edit comment (empty deletes it)"
		}
		b.WriteString(s.TitleMuted.Render(heading) + "\n")
		b.WriteString(s.InputFocused.Render(v.commentInput.View()) + "\n")
		b.WriteString(s.TitleMuted.Render("Ctrl+S: save • Esc: cancel"))
		return styles.CenterView(b.String(), v.width, v.height)
	}

	line := statusLine(s, v.state, v.message, v.spin)
	if v.suggesting {
		line = s.Syncing.Render(v.spin + " asking for next steps")
	}
	if line != "" {
		b.WriteString(line + "\n")
	}
	b.WriteString(v.renderHelp())
	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TaskDetailView) renderHeader() string {
	s := v.styles
	t := v.task

	title := s.TaskTitle.Bold(true).Render(t.Title)
	if t.Completed() {
		title = s.TaskDone.Render(t.Title)
	}

	var crumbs []string
	f := v.state.Forest(t.ProjectID)
	ancestors := f.Ancestors(t.ID)
	for i := len(ancestors) - 1; i >= 0; i-- {
		if a, ok := f.Find(ancestors[i]); ok {
			crumbs = append(crumbs, truncate(a.Title, 20))
		}
	}
	if p, ok := v.state.Project(t.ProjectID); ok {
		crumbs = append([]string{p.Title}, crumbs...)
	}

	meta := fmt.Sprintf("%s by %s", t.CreatedAt.Local().Format("Jan 2, 2006"), v.author(t.CreatedBy))
	if kids := f.ChildIDs(t.ID); len(kids) > 0 {
		meta += fmt.Sprintf(" • %d subtasks, %d%% done", len(kids), f.Progress(t.ID))
	}

	lines := []string{
		s.TitleBar.Render(s.TitleMuted.Render(strings.Join(crumbs, " › "))),
		s.StatusMark(t.Status) + " " + title,
		s.TitleMuted.Render(meta),
	}
	if len(t.Tags) > 0 {
		lines = append(lines, tagList(s, t.Tags))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (v *TaskDetailView) renderAttachForm() string {
	s := v.styles
	inputWidth := clamp(styles.ContentWidth(v.width)-10, 20, 60)

	nameStyle, urlStyle := s.InputFocused, s.Input
	if v.attachIdx == 1 {
		nameStyle, urlStyle = s.Input, s.InputFocused
	}
	return popup(s, lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Attach link"),
		"",
		"Name:",
		nameStyle.Width(inputWidth).Render(v.attachName.View()),
		"URL:",
		urlStyle.Width(inputWidth).Render(v.attachURL.View()),
		"",
		s.TitleMuted.Render("Tab: next • Enter: attach • Esc: cancel"),
	), v.width, v.height)
}

func (v *TaskDetailView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	if contentWidth > 0 && contentWidth < 60 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}
	return helpBar(v.styles,
		"space", "done",
		"c", "comment",
		"i", "ai steps",
		"a", "attach",
		"esc", "back",
		"?", "more",
	)
}

func (v *TaskDetailView) renderHelpPopup() string {
	s := v.styles

	helpItems := []string{
		s.HelpKey.Render("↑/↓") + "      select entry",
		s.HelpKey.Render("pgup/dn") + "  scroll",
		s.HelpKey.Render("space") + "    toggle done",
		s.HelpKey.Render("c") + "        comment",
		s.HelpKey.Render("e") + "        edit your comment",
		s.HelpKey.Render("d") + "        delete selected entry",
		s.HelpKey.Render("a") + "        attach a link",
		s.HelpKey.Render("m") + "        add media for the AI",
		s.HelpKey.Render("i") + "        suggest next steps",
		s.HelpKey.Render("esc") + "      back to tasks",
		"",
		s.TitleMuted.Render("Press any key to close"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, helpItems...)...,
	)
	return popup(s, content, v.width, v.height)
}
