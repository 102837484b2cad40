package app

import (
	"slices"

	"github.com/tgienger/apolo/internal/models"
	"github.com/tgienger/apolo/internal/tree"
)

// State is everything the client shows. It is a value: reducers return a
// modified copy and never write through to the maps or slices of the input.
type State struct {
	User          *models.User
	Users         []models.User
	Projects      []models.Project // ordered by Position, then newest first
	Forests       map[string]*tree.Forest
	Notifications []models.Notification

	ActiveProjectID string
	ActiveTaskID    string
	Search          string

	// Notice is a message for the user about the last failed write
	Notice  string
	Syncing bool
	Loaded  bool
}

// Project returns the project with the given id
func (s State) Project(id string) (models.Project, bool) {
	i := slices.IndexFunc(s.Projects, func(p models.Project) bool { return p.ID == id })
	if i < 0 {
		return models.Project{}, false
	}
	return s.Projects[i], true
}

// ActiveProject returns the selected project
func (s State) ActiveProject() (models.Project, bool) {
	return s.Project(s.ActiveProjectID)
}

// Forest returns the task forest of a project; never nil
func (s State) Forest(projectID string) *tree.Forest {
	if f := s.Forests[projectID]; f != nil {
		return f
	}
	return tree.New()
}

// Visible is the active project's forest with the search applied
func (s State) Visible() *tree.Forest {
	return s.Forest(s.ActiveProjectID).Search(s.Search)
}

// LocateTask finds which project holds taskID
func (s State) LocateTask(taskID string) (string, models.Task, bool) {
	if f := s.Forests[s.ActiveProjectID]; f != nil {
		if t, ok := f.Find(taskID); ok {
			return s.ActiveProjectID, t, true
		}
	}
	for pid, f := range s.Forests {
		if t, ok := f.Find(taskID); ok {
			return pid, t, true
		}
	}
	return "", models.Task{}, false
}

// ActiveTask returns the selected task
func (s State) ActiveTask() (models.Task, bool) {
	_, t, ok := s.LocateTask(s.ActiveTaskID)
	return t, ok
}

// UserByID looks up a known profile
func (s State) UserByID(id string) (models.User, bool) {
	i := slices.IndexFunc(s.Users, func(u models.User) bool { return u.ID == id })
	if i < 0 {
		return models.User{}, false
	}
	return s.Users[i], true
}

// UnreadCount is the number of unread notifications
func (s State) UnreadCount() int {
	n := 0
	for _, note := range s.Notifications {
		if !note.Read {
			n++
		}
	}
	return n
}

// IsOwner reports whether the current user owns the project
func (s State) IsOwner(projectID string) bool {
	p, ok := s.Project(projectID)
	return ok && s.User != nil && p.OwnerID == s.User.ID
}

func (s State) projectKeys() []float64 {
	keys := make([]float64, len(s.Projects))
	for i, p := range s.Projects {
		keys[i] = p.Position
	}
	return keys
}
