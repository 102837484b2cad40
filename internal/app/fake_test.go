package app

import (
	"context"
	"slices"
	"sync"

	"github.com/tgienger/apolo/internal/ai"
	"github.com/tgienger/apolo/internal/db"
	"github.com/tgienger/apolo/internal/models"
)

var _ Remote = (*db.DB)(nil)

// fakeRemote is an in-memory Remote. Methods named in fail return that
// error; hook runs before every write without holding the lock.
type fakeRemote struct {
	mu       sync.Mutex
	projects map[string]models.Project
	members  map[string][]string
	tasks    map[string]models.Task
	profiles map[string]models.User
	notes    []models.Notification
	fail     map[string]error
	writes   []string
	hook     func(method string)
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		projects: map[string]models.Project{},
		members:  map[string][]string{},
		tasks:    map[string]models.Task{},
		profiles: map[string]models.User{},
		fail:     map[string]error{},
	}
}

func (r *fakeRemote) write(method string) error {
	r.mu.Lock()
	hook := r.hook
	r.mu.Unlock()
	if hook != nil {
		hook(method)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, method)
	return r.fail[method]
}

func (r *fakeRemote) task(id string) models.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tasks[id]
}

func (r *fakeRemote) count(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, w := range r.writes {
		if w == method {
			n++
		}
	}
	return n
}

func (r *fakeRemote) ListProjects(ctx context.Context, userID string) ([]models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail["ListProjects"]; err != nil {
		return nil, err
	}
	var out []models.Project
	for _, p := range r.projects {
		if p.OwnerID == userID || slices.Contains(r.members[p.ID], userID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeRemote) ListTasks(ctx context.Context, projectIDs []string) ([]models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Task
	for _, t := range r.tasks {
		if slices.Contains(projectIDs, t.ProjectID) {
			t.Activity = slices.Clone(t.Activity)
			t.Attachments = slices.Clone(t.Attachments)
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeRemote) ListProfiles(ctx context.Context) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, u := range r.profiles {
		out = append(out, u)
	}
	return out, nil
}

func (r *fakeRemote) ListNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for _, n := range r.notes {
		if n.UserID == userID && len(out) < limit {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeRemote) InsertProject(ctx context.Context, p models.Project) error {
	if err := r.write("InsertProject"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[p.ID] = p
	return nil
}

func (r *fakeRemote) UpdateProject(ctx context.Context, id string, patch models.ProjectPatch) error {
	if err := r.write("UpdateProject"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return db.ErrNotFound
	}
	r.projects[id] = patch.Apply(p)
	return nil
}

func (r *fakeRemote) DeleteProject(ctx context.Context, id string) error {
	if err := r.write("DeleteProject"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.projects, id)
	for tid, t := range r.tasks {
		if t.ProjectID == id {
			delete(r.tasks, tid)
		}
	}
	return nil
}

func (r *fakeRemote) AddMember(ctx context.Context, m models.Member) error {
	if err := r.write("AddMember"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[m.ProjectID]; !ok {
		return db.ErrNotFound
	}
	if slices.Contains(r.members[m.ProjectID], m.UserID) {
		return db.ErrAlreadyMember
	}
	r.members[m.ProjectID] = append(r.members[m.ProjectID], m.UserID)
	return nil
}

func (r *fakeRemote) InsertTask(ctx context.Context, t models.Task) error {
	if err := r.write("InsertTask"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[t.ID] = t
	return nil
}

func (r *fakeRemote) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) error {
	if err := r.write("UpdateTask"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return db.ErrNotFound
	}
	r.tasks[id] = patch.Apply(t)
	return nil
}

func (r *fakeRemote) DeleteTask(ctx context.Context, id string) error {
	if err := r.write("DeleteTask"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	gone := []string{id}
	for len(gone) > 0 {
		cur := gone[0]
		gone = gone[1:]
		delete(r.tasks, cur)
		for tid, t := range r.tasks {
			if t.ParentID == cur {
				gone = append(gone, tid)
			}
		}
	}
	return nil
}

func (r *fakeRemote) mutateTask(method, id string, fn func(*models.Task) error) error {
	if err := r.write(method); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return db.ErrNotFound
	}
	if err := fn(&t); err != nil {
		return err
	}
	r.tasks[id] = t
	return nil
}

func (r *fakeRemote) AppendActivity(ctx context.Context, taskID string, a models.ActivityLog) error {
	return r.mutateTask("AppendActivity", taskID, func(t *models.Task) error {
		t.Activity = append(slices.Clone(t.Activity), a)
		return nil
	})
}

func (r *fakeRemote) UpdateActivity(ctx context.Context, taskID, activityID, content string) error {
	return r.mutateTask("UpdateActivity", taskID, func(t *models.Task) error {
		i := slices.IndexFunc(t.Activity, func(a models.ActivityLog) bool { return a.ID == activityID })
		if i < 0 {
			return db.ErrNotFound
		}
		t.Activity = slices.Clone(t.Activity)
		t.Activity[i].Content = content
		return nil
	})
}

func (r *fakeRemote) DeleteActivity(ctx context.Context, taskID, activityID string) error {
	return r.mutateTask("DeleteActivity", taskID, func(t *models.Task) error {
		t.Activity = slices.DeleteFunc(slices.Clone(t.Activity), func(a models.ActivityLog) bool { return a.ID == activityID })
		return nil
	})
}

func (r *fakeRemote) AppendAttachment(ctx context.Context, taskID string, a models.Attachment) error {
	return r.mutateTask("AppendAttachment", taskID, func(t *models.Task) error {
		t.Attachments = append(slices.Clone(t.Attachments), a)
		return nil
	})
}

func (r *fakeRemote) DeleteAttachment(ctx context.Context, taskID, attachmentID string) error {
	return r.mutateTask("DeleteAttachment", taskID, func(t *models.Task) error {
		t.Attachments = slices.DeleteFunc(slices.Clone(t.Attachments), func(a models.Attachment) bool { return a.ID == attachmentID })
		return nil
	})
}

func (r *fakeRemote) UpsertProfile(ctx context.Context, u models.User) error {
	if err := r.write("UpsertProfile"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[u.ID] = u
	return nil
}

func (r *fakeRemote) MarkNotificationRead(ctx context.Context, id string) error {
	if err := r.write("MarkNotificationRead"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.notes {
		if r.notes[i].ID == id {
			r.notes[i].Read = true
			return nil
		}
	}
	return db.ErrNotFound
}

type stubProvider struct {
	reply string
	err   error
}

func (p stubProvider) Name() string { return "stub" }

func (p stubProvider) Complete(ctx context.Context, req ai.Request) (string, error) {
	return p.reply, p.err
}
