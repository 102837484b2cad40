package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tgienger/apolo/internal/app"
	"github.com/tgienger/apolo/internal/auth"
	"github.com/tgienger/apolo/internal/logger"
	"github.com/tgienger/apolo/internal/ui/styles"
	"github.com/tgienger/apolo/internal/ui/views"
)

// Currently active view
type View int

const (
	ViewLogin View = iota
	ViewProjects
	ViewTasks
	ViewTask
)

type sessionReadyMsg struct{}

type projectOpenedMsg struct {
	id  string
	err error
}

type App struct {
	ctx     context.Context
	store   *app.Store
	gateway *auth.Gateway

	changed     chan struct{}
	unsubscribe func()

	spinner  spinner.Model
	spinning bool

	currentView View
	login       *views.LoginView
	projectList *views.ProjectListView
	taskList    *views.TaskListView
	taskDetail  *views.TaskDetailView
	width       int
	height      int
}

// NewApp creates the application. The gateway's sign-in changes are expected
// to reach the store through its OnChange hook.
func NewApp(ctx context.Context, store *app.Store, gateway *auth.Gateway) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.NewStyles().Syncing

	a := &App{
		ctx:         ctx,
		store:       store,
		gateway:     gateway,
		changed:     make(chan struct{}, 1),
		spinner:     sp,
		currentView: ViewLogin,
		login:       views.NewLoginView(ctx, gateway, true),
		projectList: views.NewProjectListView(ctx, store),
	}
	a.unsubscribe = store.Subscribe(func(app.State) {
		select {
		case a.changed <- struct{}{}:
		default:
		}
	})
	return a
}

// Close stops listening to the store
func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.login.Init(),
		a.waitForChange,
		func() tea.Msg {
			a.gateway.Init(a.ctx)
			return sessionReadyMsg{}
		},
	)
}

// waitForChange delivers the next store snapshot
func (a *App) waitForChange() tea.Msg {
	select {
	case <-a.changed:
		return views.StateMsg{State: a.store.Snapshot()}
	case <-a.ctx.Done():
		return nil
	}
}

func (a *App) resize() tea.Cmd {
	return func() tea.Msg {
		return tea.WindowSizeMsg{Width: a.width, Height: a.height}
	}
}

// landing picks the first view after sign-in: the restored project or the list
func (a *App) landing() tea.Cmd {
	st := a.store.Snapshot()
	if st.User == nil {
		a.currentView = ViewLogin
		return nil
	}
	if _, ok := st.ActiveProject(); ok {
		return a.openTasks()
	}
	a.currentView = ViewProjects
	return a.resize()
}

func (a *App) openTasks() tea.Cmd {
	a.currentView = ViewTasks
	a.taskList = views.NewTaskListView(a.ctx, a.store)
	return tea.Batch(a.taskList.Init(), a.resize())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Keep every live view sized; switching views reuses them
		a.login.Update(msg)
		a.projectList.Update(msg)
		if a.taskList != nil {
			a.taskList.Update(msg)
		}
		if a.taskDetail != nil {
			a.taskDetail.Update(msg)
		}
		return a, nil

	case sessionReadyMsg:
		a.login.SetLoading(false)
		return a, a.landing()

	case views.SignedIn:
		a.login.Update(msg)
		return a, a.landing()

	case views.SignedOut:
		return a, func() tea.Msg {
			a.gateway.SignOut()
			return nil
		}

	case views.StateMsg:
		cmds := []tea.Cmd{a.waitForChange}
		st := msg.State
		if st.Syncing && !a.spinning {
			a.spinning = true
			cmds = append(cmds, a.spinner.Tick)
		}
		a.broadcast(msg)
		if st.User == nil && a.currentView != ViewLogin && !a.gateway.Loading() {
			a.currentView = ViewLogin
			a.taskList, a.taskDetail = nil, nil
		}
		return a, tea.Batch(cmds...)

	case spinner.TickMsg:
		if !a.store.Snapshot().Syncing {
			a.spinning = false
			a.setSpinner("")
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		a.setSpinner(a.spinner.View())
		return a, cmd

	case views.SelectedProject:
		id := msg.ID
		return a, func() tea.Msg {
			return projectOpenedMsg{id: id, err: a.store.SetActiveProject(a.ctx, id)}
		}

	case projectOpenedMsg:
		if msg.err != nil {
			logger.Warn().Err(msg.err).Str("project", msg.id).Msg("open project")
			return a, nil
		}
		return a, a.openTasks()

	case views.BackToProjects:
		a.currentView = ViewProjects
		a.taskList = nil
		return a, tea.Batch(
			func() tea.Msg {
				return views.OpDoneMsg{Err: a.store.SetActiveProject(a.ctx, "")}
			},
			a.resize(),
		)

	case views.OpenTask:
		if err := a.store.SetActiveTask(msg.ID); err != nil {
			return a, nil
		}
		a.currentView = ViewTask
		a.taskDetail = views.NewTaskDetailView(a.ctx, a.store)
		return a, tea.Batch(a.taskDetail.Init(), a.resize())

	case views.BackToTasks:
		a.store.SetActiveTask("")
		a.currentView = ViewTasks
		a.taskDetail = nil
		if a.taskList == nil {
			return a, a.openTasks()
		}
		return a, nil

	case views.AnswerMsg:
		// Answers may arrive after the asking view was left
		if a.taskList != nil {
			a.taskList.Update(msg)
		}
		if a.taskDetail != nil {
			a.taskDetail.Update(msg)
		}
		return a, nil
	}

	var cmd tea.Cmd
	switch a.currentView {
	case ViewLogin:
		_, cmd = a.login.Update(msg)
	case ViewProjects:
		_, cmd = a.projectList.Update(msg)
	case ViewTasks:
		if a.taskList != nil {
			_, cmd = a.taskList.Update(msg)
		}
	case ViewTask:
		if a.taskDetail != nil {
			_, cmd = a.taskDetail.Update(msg)
		}
	}

	return a, cmd
}

func (a *App) broadcast(msg views.StateMsg) {
	a.projectList.Update(msg)
	if a.taskList != nil {
		a.taskList.Update(msg)
	}
	if a.taskDetail != nil {
		a.taskDetail.Update(msg)
	}
}

func (a *App) setSpinner(frame string) {
	a.projectList.SetSpinner(frame)
	if a.taskList != nil {
		a.taskList.SetSpinner(frame)
	}
	if a.taskDetail != nil {
		a.taskDetail.SetSpinner(frame)
	}
}

func (a *App) View() string {
	switch a.currentView {
	case ViewLogin:
		return a.login.View()
	case ViewTasks:
		if a.taskList != nil {
			return a.taskList.View()
		}
	case ViewTask:
		if a.taskDetail != nil {
			return a.taskDetail.View()
		}
	}
	return a.projectList.View()
}
