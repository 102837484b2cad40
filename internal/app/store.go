// Package app is the client's state container. Every user intent is applied
// to local state at once as a pending patch, written to the remote store,
// and then confirmed or rolled back by refetching server truth.
package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tgienger/apolo/internal/ai"
	"github.com/tgienger/apolo/internal/logger"
	"github.com/tgienger/apolo/internal/models"
	"github.com/tgienger/apolo/internal/realtime"
	"github.com/tgienger/apolo/internal/tree"
)

var (
	// ErrNotSignedIn is returned by operations that need a user
	ErrNotSignedIn = errors.New("not signed in")
	// ErrForbidden is returned when the user may not perform the operation
	ErrForbidden = errors.New("not allowed")
	// ErrUnknown is returned for ids that are not in the local state
	ErrUnknown = errors.New("unknown project or task")
)

// NotificationLimit is how many recent notifications a reload fetches
const NotificationLimit = 20

// Remote is the row store that holds the server truth
type Remote interface {
	ListProjects(ctx context.Context, userID string) ([]models.Project, error)
	ListTasks(ctx context.Context, projectIDs []string) ([]models.Task, error)
	ListProfiles(ctx context.Context) ([]models.User, error)
	ListNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, error)

	InsertProject(ctx context.Context, p models.Project) error
	UpdateProject(ctx context.Context, id string, patch models.ProjectPatch) error
	DeleteProject(ctx context.Context, id string) error
	AddMember(ctx context.Context, m models.Member) error

	InsertTask(ctx context.Context, t models.Task) error
	UpdateTask(ctx context.Context, id string, patch models.TaskPatch) error
	DeleteTask(ctx context.Context, id string) error
	AppendActivity(ctx context.Context, taskID string, a models.ActivityLog) error
	UpdateActivity(ctx context.Context, taskID, activityID, content string) error
	DeleteActivity(ctx context.Context, taskID, activityID string) error
	AppendAttachment(ctx context.Context, taskID string, a models.Attachment) error
	DeleteAttachment(ctx context.Context, taskID, attachmentID string) error

	UpsertProfile(ctx context.Context, u models.User) error
	MarkNotificationRead(ctx context.Context, id string) error
}

// Feed delivers row change events per table
type Feed interface {
	Subscribe(table string, filter realtime.Filter, fn func(realtime.Event)) func()
}

// Settings persists small client preferences
type Settings interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// Options tune a Store
type Options struct {
	// RefetchOnSuccess reloads server truth after every successful write
	// instead of trusting the optimistic state.
	RefetchOnSuccess bool
	Suggester        *ai.Suggester
	Settings         Settings
}

const lastProjectKey = "last_project_id"

// Pending describes a patch that has been applied locally but not yet
// confirmed by the remote store
type Pending struct {
	Seq    uint64
	Intent string
}

type patch struct {
	Pending
	apply reducer
}

// Store owns State and runs every mutation through the optimistic protocol.
// It is safe for concurrent use.
type Store struct {
	remote Remote
	opts   Options
	log    zerolog.Logger

	mu      sync.Mutex
	state   State
	pending []patch
	// confirmed is server truth from the last reload with every write the
	// remote store accepted since folded in
	confirmed State
	seq       uint64
	listeners map[int]func(State)
	nextID    int
}

// NewStore creates a store with empty state
func NewStore(remote Remote, opts Options) *Store {
	return &Store{
		remote:    remote,
		opts:      opts,
		log:       logger.With("store"),
		state:     State{Forests: map[string]*tree.Forest{}},
		listeners: map[int]func(State){},
	}
}

// Snapshot returns the current state
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PendingPatches lists the writes still in flight, oldest first
func (s *Store) PendingPatches() []Pending {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Pending, len(s.pending))
	for i, p := range s.pending {
		out[i] = p.Pending
	}
	return out
}

// Subscribe calls fn with every new state. The returned function
// unregisters it.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// update applies fn to the state under the lock and notifies listeners
func (s *Store) update(fn func(State) State) State {
	s.mu.Lock()
	s.state = fn(s.state)
	st := s.state
	fns := make([]func(State), 0, len(s.listeners))
	for _, l := range s.listeners {
		fns = append(fns, l)
	}
	s.mu.Unlock()

	for _, l := range fns {
		l(st)
	}
	return st
}

// begin applies r optimistically and records it as pending
func (s *Store) begin(intent string, r reducer) uint64 {
	var seq uint64
	s.update(func(st State) State {
		s.seq++
		seq = s.seq
		s.pending = append(s.pending, patch{Pending: Pending{Seq: seq, Intent: intent}, apply: r})
		st = r(st)
		st.Syncing = true
		return st
	})
	s.log.Debug().Uint64("seq", seq).Str("intent", intent).Msg("optimistic patch applied")
	return seq
}

// finish settles patch seq. A failed write drops the patch's effect by
// rebuilding state from the confirmed base, sets the notice and refetches; a
// successful one is folded into the base and refetches only in strict mode.
func (s *Store) finish(ctx context.Context, seq uint64, intent string, err error) error {
	s.update(func(st State) State {
		i := slices.IndexFunc(s.pending, func(p patch) bool { return p.Seq == seq })
		if i < 0 {
			return st
		}
		p := s.pending[i]
		s.pending = slices.Delete(s.pending, i, i+1)
		if err == nil {
			s.confirmed = p.apply(s.confirmed)
			st.Syncing = len(s.pending) > 0
			return st
		}
		return s.replay(st, s.confirmed)
	})

	if err != nil {
		s.log.Error().Err(err).Uint64("seq", seq).Str("intent", intent).Msg("remote write failed")
		notice := fmt.Sprintf("Could not %s. Showing the latest saved data.", intent)
		if rerr := s.Reload(ctx); rerr != nil {
			s.log.Warn().Err(rerr).Msg("refetch after failed write")
			notice = fmt.Sprintf("Could not %s. The change was undone, but saved data could not be refreshed.", intent)
		}
		s.update(func(st State) State {
			st.Notice = notice
			return st
		})
		return err
	}
	if s.opts.RefetchOnSuccess {
		if rerr := s.Reload(ctx); rerr != nil {
			s.log.Warn().Err(rerr).Msg("refetch after write")
		}
	}
	return nil
}

// replay rebuilds the server data of st from base and applies the pending
// patches on top. Selections, search and notice are kept from st.
func (s *Store) replay(st, base State) State {
	next := base
	next.ActiveProjectID = st.ActiveProjectID
	next.ActiveTaskID = st.ActiveTaskID
	next.Search = st.Search
	next.Notice = st.Notice
	for _, p := range s.pending {
		next = p.apply(next)
	}
	if _, ok := next.Project(next.ActiveProjectID); !ok {
		next.ActiveProjectID = ""
		next.ActiveTaskID = ""
	}
	if _, ok := next.ActiveTask(); !ok {
		next.ActiveTaskID = ""
	}
	next.Syncing = len(s.pending) > 0
	return next
}

// commit runs one intent through the protocol
func (s *Store) commit(ctx context.Context, intent string, r reducer, write func(context.Context) error) error {
	seq := s.begin(intent, r)
	return s.finish(ctx, seq, intent, write(ctx))
}

// Reload replaces state with server truth for the current user and replays
// the patches still pending on top of it. A failed read leaves the state as
// it was.
func (s *Store) Reload(ctx context.Context) error {
	user := s.Snapshot().User
	if user == nil {
		return ErrNotSignedIn
	}

	projects, err := s.remote.ListProjects(ctx, user.ID)
	if err != nil {
		s.log.Error().Err(err).Msg("reload projects")
		return fmt.Errorf("reload: %w", err)
	}
	ids := make([]string, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	tasks, err := s.remote.ListTasks(ctx, ids)
	if err != nil {
		s.log.Error().Err(err).Msg("reload tasks")
		return fmt.Errorf("reload: %w", err)
	}
	users, err := s.remote.ListProfiles(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("reload profiles")
		return fmt.Errorf("reload: %w", err)
	}
	notes, err := s.remote.ListNotifications(ctx, user.ID, NotificationLimit)
	if err != nil {
		s.log.Error().Err(err).Msg("reload notifications")
		return fmt.Errorf("reload: %w", err)
	}

	byProject := map[string][]models.Task{}
	for _, t := range tasks {
		byProject[t.ProjectID] = append(byProject[t.ProjectID], t)
	}
	forests := make(map[string]*tree.Forest, len(projects))
	for _, p := range projects {
		forests[p.ID] = tree.Build(byProject[p.ID])
	}
	sortProjects(projects)

	s.update(func(st State) State {
		if st.User == nil || st.User.ID != user.ID {
			return st
		}
		base := State{
			User:          st.User,
			Users:         users,
			Projects:      projects,
			Forests:       forests,
			Notifications: notes,
			Loaded:        true,
		}
		if me := slices.IndexFunc(users, func(u models.User) bool { return u.ID == user.ID }); me >= 0 {
			cur := *st.User
			cur.Name, cur.AvatarURL = users[me].Name, users[me].AvatarURL
			base.User = &cur
		}
		s.confirmed = base
		return s.replay(st, base)
	})
	s.log.Debug().Int("projects", len(projects)).Int("tasks", len(tasks)).Msg("reloaded")
	return nil
}

// SetUser switches the signed-in user. nil clears all state; otherwise the
// user's data is fetched and the last opened project is restored.
func (s *Store) SetUser(ctx context.Context, u *models.User) error {
	s.update(func(st State) State {
		s.pending = nil
		next := State{Forests: map[string]*tree.Forest{}}
		if u != nil {
			cp := *u
			next.User = &cp
		}
		s.confirmed = next
		return next
	})
	if u == nil {
		return nil
	}
	if err := s.Reload(ctx); err != nil {
		return err
	}

	if s.opts.Settings != nil {
		last, err := s.opts.Settings.GetSetting(ctx, lastProjectKey)
		if err != nil {
			s.log.Warn().Err(err).Msg("read last project")
		}
		if last != "" {
			s.update(func(st State) State {
				if _, ok := st.Project(last); ok {
					st.ActiveProjectID = last
				}
				return st
			})
		}
	}
	return nil
}

func (s *Store) currentUser() (models.User, error) {
	st := s.Snapshot()
	if st.User == nil {
		return models.User{}, ErrNotSignedIn
	}
	return *st.User, nil
}
