package app

import (
	"maps"
	"slices"

	"github.com/tgienger/apolo/internal/cascade"
	"github.com/tgienger/apolo/internal/models"
	"github.com/tgienger/apolo/internal/tree"
)

// A reducer is a pure state transition. Every reducer here can be applied
// twice with the same result as once, because pending ones are replayed on
// top of each refetch.
type reducer func(State) State

func identity(s State) State { return s }

func sortProjects(ps []models.Project) {
	slices.SortStableFunc(ps, func(a, b models.Project) int {
		switch {
		case a.Position < b.Position:
			return -1
		case a.Position > b.Position:
			return 1
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

func withForest(s State, projectID string, f *tree.Forest) State {
	forests := maps.Clone(s.Forests)
	if forests == nil {
		forests = map[string]*tree.Forest{}
	}
	forests[projectID] = f
	s.Forests = forests
	return s
}

func onForest(projectID string, fn func(*tree.Forest) *tree.Forest) reducer {
	return func(s State) State {
		f, ok := s.Forests[projectID]
		if !ok {
			return s
		}
		next := fn(f)
		if next == f {
			return s
		}
		return withForest(s, projectID, next)
	}
}

func onTask(projectID, taskID string, fn func(models.Task) models.Task) reducer {
	return onForest(projectID, func(f *tree.Forest) *tree.Forest {
		return f.Update(taskID, fn)
	})
}

func insertProject(p models.Project) reducer {
	return func(s State) State {
		if _, ok := s.Project(p.ID); ok {
			return s
		}
		ps := append(slices.Clip(s.Projects), p)
		sortProjects(ps)
		s.Projects = ps
		if _, ok := s.Forests[p.ID]; !ok {
			s = withForest(s, p.ID, tree.New())
		}
		return s
	}
}

func patchProject(id string, patch models.ProjectPatch) reducer {
	return func(s State) State {
		i := slices.IndexFunc(s.Projects, func(p models.Project) bool { return p.ID == id })
		if i < 0 {
			return s
		}
		ps := slices.Clone(s.Projects)
		ps[i] = patch.Apply(ps[i])
		sortProjects(ps)
		s.Projects = ps
		return s
	}
}

func removeProject(id string) reducer {
	return func(s State) State {
		s.Projects = slices.DeleteFunc(slices.Clone(s.Projects), func(p models.Project) bool { return p.ID == id })
		if _, ok := s.Forests[id]; ok {
			forests := maps.Clone(s.Forests)
			delete(forests, id)
			s.Forests = forests
		}
		if s.ActiveProjectID == id {
			s.ActiveProjectID = ""
			s.ActiveTaskID = ""
		}
		return s
	}
}

func insertTask(t models.Task) reducer {
	return onForest(t.ProjectID, func(f *tree.Forest) *tree.Forest {
		return f.InsertChild(t.ParentID, t)
	})
}

func patchTask(projectID, taskID string, patch models.TaskPatch) reducer {
	return onTask(projectID, taskID, patch.Apply)
}

func removeTask(projectID, taskID string) reducer {
	return func(s State) State {
		s = onForest(projectID, func(f *tree.Forest) *tree.Forest { return f.Remove(taskID) })(s)
		if _, _, ok := s.LocateTask(s.ActiveTaskID); !ok {
			s.ActiveTaskID = ""
		}
		return s
	}
}

// placement is one task's resolved location after a move
type placement struct {
	id       string
	parentID string
	index    int
	key      float64
}

func moveTasks(projectID string, moves []placement) reducer {
	return onForest(projectID, func(f *tree.Forest) *tree.Forest {
		for _, m := range moves {
			if cur, ok := f.Parent(m.id); ok && cur != m.parentID {
				f = f.Move(m.id, m.parentID, m.index)
			}
			key := m.key
			f = f.Update(m.id, func(t models.Task) models.Task {
				t.Position = key
				return t
			})
		}
		return f
	})
}

func applyCascade(projectID string, changes []cascade.Change) reducer {
	return onForest(projectID, func(f *tree.Forest) *tree.Forest {
		return cascade.Apply(f, changes)
	})
}

func appendActivity(projectID, taskID string, entry models.ActivityLog) reducer {
	return onTask(projectID, taskID, func(t models.Task) models.Task {
		if slices.ContainsFunc(t.Activity, func(a models.ActivityLog) bool { return a.ID == entry.ID }) {
			return t
		}
		t.Activity = append(slices.Clip(t.Activity), entry)
		return t
	})
}

func editActivity(projectID, taskID, entryID, content string) reducer {
	return onTask(projectID, taskID, func(t models.Task) models.Task {
		i := slices.IndexFunc(t.Activity, func(a models.ActivityLog) bool { return a.ID == entryID })
		if i < 0 {
			return t
		}
		t.Activity = slices.Clone(t.Activity)
		t.Activity[i].Content = content
		return t
	})
}

func dropActivity(projectID, taskID, entryID string) reducer {
	return onTask(projectID, taskID, func(t models.Task) models.Task {
		t.Activity = slices.DeleteFunc(slices.Clone(t.Activity), func(a models.ActivityLog) bool { return a.ID == entryID })
		return t
	})
}

func appendAttachment(projectID, taskID string, att models.Attachment) reducer {
	return onTask(projectID, taskID, func(t models.Task) models.Task {
		if slices.ContainsFunc(t.Attachments, func(a models.Attachment) bool { return a.ID == att.ID }) {
			return t
		}
		t.Attachments = append(slices.Clip(t.Attachments), att)
		return t
	})
}

func dropAttachment(projectID, taskID, attID string) reducer {
	return onTask(projectID, taskID, func(t models.Task) models.Task {
		t.Attachments = slices.DeleteFunc(slices.Clone(t.Attachments), func(a models.Attachment) bool { return a.ID == attID })
		return t
	})
}

func markRead(id string) reducer {
	return func(s State) State {
		i := slices.IndexFunc(s.Notifications, func(n models.Notification) bool { return n.ID == id })
		if i < 0 || s.Notifications[i].Read {
			return s
		}
		ns := slices.Clone(s.Notifications)
		ns[i].Read = true
		s.Notifications = ns
		return s
	}
}

func setProfile(u models.User) reducer {
	return func(s State) State {
		if s.User != nil && s.User.ID == u.ID {
			cur := *s.User
			cur.Name, cur.AvatarURL = u.Name, u.AvatarURL
			s.User = &cur
		}
		i := slices.IndexFunc(s.Users, func(x models.User) bool { return x.ID == u.ID })
		users := slices.Clone(s.Users)
		if i < 0 {
			users = append(users, u)
		} else {
			users[i] = u
		}
		s.Users = users
		return s
	}
}

func chain(rs ...reducer) reducer {
	return func(s State) State {
		for _, r := range rs {
			s = r(s)
		}
		return s
	}
}
