package app

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/tgienger/apolo/internal/ai"
	"github.com/tgienger/apolo/internal/config"
	"github.com/tgienger/apolo/internal/db"
	"github.com/tgienger/apolo/internal/models"
	"github.com/tgienger/apolo/internal/ordering"
	"github.com/tgienger/apolo/internal/realtime"
	"github.com/tgienger/apolo/internal/tree"
)

var ana = models.User{ID: "u1", Name: "Ana", Email: "ana@example.com"}

// seed fills r with project p1 owned by ana:
//
//	A (pending)
//	├── B (completed)
//	└── C (pending)
//	D (pending)
func seed(r *fakeRemote) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r.profiles[ana.ID] = ana
	r.projects["p1"] = models.Project{ID: "p1", Title: "House", OwnerID: ana.ID, Position: 1000, CreatedAt: at}
	for _, t := range []models.Task{
		{ID: "A", Title: "Paint", Status: models.StatusPending, Position: 1000},
		{ID: "B", ParentID: "A", Title: "Buy paint", Status: models.StatusCompleted, Position: 1000},
		{ID: "C", ParentID: "A", Title: "Tape edges", Status: models.StatusPending, Position: 2000},
		{ID: "D", Title: "Garden", Status: models.StatusPending, Position: 2000},
	} {
		t.ProjectID = "p1"
		t.CreatedAt = at
		t.Expanded = true
		t.CreatedBy = ana.ID
		r.tasks[t.ID] = t
	}
}

func newTestStore(t *testing.T, opts Options) (*Store, *fakeRemote) {
	t.Helper()
	r := newFakeRemote()
	seed(r)
	s := NewStore(r, opts)
	if err := s.SetUser(context.Background(), &ana); err != nil {
		t.Fatalf("SetUser() error = %v", err)
	}
	return s, r
}

func refetched(t *testing.T, r *fakeRemote, projectID string) *tree.Forest {
	t.Helper()
	rows, err := r.ListTasks(context.Background(), []string{projectID})
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	return tree.Build(rows)
}

func TestSetUser_LoadsServerTruth(t *testing.T) {
	s, _ := newTestStore(t, Options{})
	st := s.Snapshot()

	if !st.Loaded || st.User == nil || st.User.ID != ana.ID {
		t.Fatalf("state = %+v, expected loaded for ana", st)
	}
	if len(st.Projects) != 1 || st.Forest("p1").Len() != 4 {
		t.Errorf("loaded %d projects and %d tasks, expected 1 and 4", len(st.Projects), st.Forest("p1").Len())
	}
	if got := st.Forest("p1").ChildIDs("A"); !slices.Equal(got, []string{"B", "C"}) {
		t.Errorf("children of A = %v, expected [B C]", got)
	}

	if err := s.SetUser(context.Background(), nil); err != nil {
		t.Fatalf("SetUser(nil) error = %v", err)
	}
	if st := s.Snapshot(); st.User != nil || len(st.Projects) != 0 {
		t.Errorf("state after sign out = %+v, expected empty", st)
	}
	if err := s.Reload(context.Background()); !errors.Is(err, ErrNotSignedIn) {
		t.Errorf("Reload() signed out error = %v, expected ErrNotSignedIn", err)
	}
}

func TestAddTask_WriteFailureReconciles(t *testing.T) {
	s, r := newTestStore(t, Options{})
	r.fail["InsertTask"] = errors.New("network down")

	var sawOptimistic bool
	s.Subscribe(func(st State) {
		if st.Forest("p1").Len() == 5 {
			sawOptimistic = true
		}
	})

	_, err := s.AddTask(context.Background(), "p1", "A", "Sand walls")
	if err == nil {
		t.Fatal("AddTask() returned no error")
	}
	if !sawOptimistic {
		t.Error("the new task was never shown before the write failed")
	}

	st := s.Snapshot()
	if !strings.Contains(st.Notice, "Could not add task") {
		t.Errorf("Notice = %q, expected a failure message", st.Notice)
	}
	if got, want := st.Forest("p1").Rows(), refetched(t, r, "p1").Rows(); !reflect.DeepEqual(got, want) {
		t.Errorf("forest = %v, expected refetched %v", got, want)
	}
	if len(s.PendingPatches()) != 0 || st.Syncing {
		t.Errorf("pending = %v, syncing = %v, expected none", s.PendingPatches(), st.Syncing)
	}

	s.ClearNotice()
	if s.Snapshot().Notice != "" {
		t.Error("ClearNotice() left the notice")
	}
}

func TestAddTask_WriteAndRefetchFail(t *testing.T) {
	s, r := newTestStore(t, Options{})
	before := s.Snapshot().Forest("p1").Rows()
	r.fail["InsertTask"] = errors.New("network down")
	r.fail["ListProjects"] = errors.New("network down")

	if _, err := s.AddTask(context.Background(), "p1", "A", "Ghost"); err == nil {
		t.Fatal("AddTask() returned no error")
	}

	st := s.Snapshot()
	if got := st.Forest("p1").Rows(); !reflect.DeepEqual(got, before) {
		t.Errorf("forest = %v, expected the confirmed %v", got, before)
	}
	if len(s.PendingPatches()) != 0 || st.Syncing {
		t.Errorf("pending = %v, syncing = %v, expected none", s.PendingPatches(), st.Syncing)
	}
	if !strings.Contains(st.Notice, "Could not add task") || strings.Contains(st.Notice, "latest saved data") {
		t.Errorf("Notice = %q, expected a failure without claiming a refresh", st.Notice)
	}
}

func TestFailedWrite_KeepsEarlierConfirmedWrites(t *testing.T) {
	s, r := newTestStore(t, Options{})

	kept, err := s.AddTask(context.Background(), "p1", "", "Roof")
	if err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	r.fail["InsertTask"] = errors.New("network down")
	r.fail["ListProjects"] = errors.New("network down")
	if _, err := s.AddTask(context.Background(), "p1", "", "Ghost"); err == nil {
		t.Fatal("AddTask() returned no error")
	}

	f := s.Snapshot().Forest("p1")
	if _, ok := f.Find(kept.ID); !ok {
		t.Error("confirmed task disappeared after a later write failed")
	}
	if f.Len() != 5 {
		t.Errorf("tasks = %d, expected 5", f.Len())
	}
}

func TestAddTask_Succeeds(t *testing.T) {
	s, r := newTestStore(t, Options{})

	task, err := s.AddTask(context.Background(), "p1", "A", "Sand walls")
	if err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	if task.Position != 3000 {
		t.Errorf("Position = %v, expected 3000", task.Position)
	}
	if len(task.Activity) != 1 || task.Activity[0].Kind != models.ActivityCreation {
		t.Errorf("Activity = %+v, expected one creation entry", task.Activity)
	}
	if got := s.Snapshot().Forest("p1").ChildIDs("A"); !slices.Equal(got, []string{"B", "C", task.ID}) {
		t.Errorf("children of A = %v", got)
	}
	if _, ok := r.tasks[task.ID]; !ok {
		t.Error("task was not written")
	}

	if _, err := s.AddTask(context.Background(), "p1", "missing", "x"); !errors.Is(err, ErrUnknown) {
		t.Errorf("AddTask(unknown parent) error = %v, expected ErrUnknown", err)
	}
	if _, err := s.AddTask(context.Background(), "p1", "", "  "); err == nil {
		t.Error("AddTask(blank title) returned no error")
	}
}

func TestReload_ReplaysPendingPatches(t *testing.T) {
	s, r := newTestStore(t, Options{})

	// a reload that lands while the insert is in flight must keep the task
	var during int
	r.hook = func(method string) {
		if method == "InsertTask" {
			if err := s.Reload(context.Background()); err != nil {
				t.Errorf("Reload() error = %v", err)
			}
			during = s.Snapshot().Forest("p1").Len()
		}
	}
	if _, err := s.AddTask(context.Background(), "p1", "", "Roof"); err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	if during != 5 {
		t.Errorf("tasks visible during reload = %d, expected 5", during)
	}
	if got := s.Snapshot().Forest("p1").Len(); got != 5 {
		t.Errorf("tasks after write = %d, expected 5", got)
	}
}

func TestReducers_Idempotent(t *testing.T) {
	s, _ := newTestStore(t, Options{})
	base := s.Snapshot()

	task := models.Task{ID: "E", ProjectID: "p1", ParentID: "D", Title: "Weed", Position: 1000}
	entry := models.ActivityLog{ID: "a1", Kind: models.ActivityComment, Content: "hi"}
	for name, r := range map[string]reducer{
		"insertTask":     insertTask(task),
		"insertProject":  insertProject(models.Project{ID: "p2", Title: "Car"}),
		"appendActivity": appendActivity("p1", "B", entry),
		"removeTask":     removeTask("p1", "C"),
		"moveTasks":      moveTasks("p1", []placement{{id: "D", parentID: "A", index: 0, key: 0}}),
		"markRead":       markRead("n1"),
	} {
		once := r(base)
		twice := r(once)
		if !reflect.DeepEqual(once.Forest("p1").Rows(), twice.Forest("p1").Rows()) ||
			!reflect.DeepEqual(once.Projects, twice.Projects) {
			t.Errorf("%s applied twice differs from once", name)
		}
	}

	if base.Forest("p1").Len() != 4 {
		t.Error("reducers modified the input state")
	}
}

func TestRefetchOnSuccess(t *testing.T) {
	for _, strict := range []bool{false, true} {
		s, r := newTestStore(t, Options{RefetchOnSuccess: strict})
		// another writer adds a project while ours is saved
		r.hook = func(method string) {
			if method == "InsertProject" {
				r.mu.Lock()
				r.projects["other"] = models.Project{ID: "other", Title: "Other", OwnerID: ana.ID, Position: 5000}
				r.mu.Unlock()
			}
		}
		if _, err := s.AddProject(context.Background(), "Car", ""); err != nil {
			t.Fatalf("AddProject() error = %v", err)
		}

		want := 2
		if strict {
			want = 3
		}
		if got := len(s.Snapshot().Projects); got != want {
			t.Errorf("strict=%v: %d projects, expected %d", strict, got, want)
		}
	}
}

func TestAddProject_PlacedFirst(t *testing.T) {
	s, _ := newTestStore(t, Options{})
	p, err := s.AddProject(context.Background(), "Car", "repairs")
	if err != nil {
		t.Fatalf("AddProject() error = %v", err)
	}
	if p.Position != 0 {
		t.Errorf("Position = %v, expected 0", p.Position)
	}
	if got := s.Snapshot().Projects[0].ID; got != p.ID {
		t.Errorf("first project = %s, expected %s", got, p.ID)
	}
	if s.Snapshot().Forest(p.ID).Len() != 0 {
		t.Error("new project has tasks")
	}
}

func TestToggleTaskStatus_PersistsCascade(t *testing.T) {
	s, r := newTestStore(t, Options{})
	ctx := context.Background()

	if err := s.ToggleTaskStatus(ctx, "C"); err != nil {
		t.Fatalf("ToggleTaskStatus() error = %v", err)
	}
	f := s.Snapshot().Forest("p1")
	for _, id := range []string{"A", "B", "C"} {
		if task, _ := f.Find(id); !task.Completed() {
			t.Errorf("local %s = %s, expected completed", id, task.Status)
		}
		if !r.task(id).Completed() {
			t.Errorf("remote %s = %s, expected completed", id, r.task(id).Status)
		}
	}
	if d, _ := f.Find("D"); d.Completed() {
		t.Error("unrelated root D was completed")
	}
	// B was already completed, so only C and A are written
	if got := r.count("UpdateTask"); got != 2 {
		t.Errorf("UpdateTask calls = %d, expected 2", got)
	}
	c, _ := f.Find("C")
	if n := len(c.Activity); n != 1 || c.Activity[0].Kind != models.ActivityStatusChange {
		t.Errorf("C activity = %+v, expected one status change", c.Activity)
	}

	if err := s.ToggleTaskStatus(ctx, "C"); err != nil {
		t.Fatalf("ToggleTaskStatus() back error = %v", err)
	}
	f = s.Snapshot().Forest("p1")
	a, _ := f.Find("A")
	b, _ := f.Find("B")
	if a.Completed() || !b.Completed() {
		t.Errorf("after toggling back A = %s, B = %s, expected pending and completed", a.Status, b.Status)
	}
	if r.task("A").Completed() {
		t.Error("remote A still completed")
	}
}

func TestToggleTaskStatus_PartialFailureRefetches(t *testing.T) {
	s, r := newTestStore(t, Options{})
	r.fail["UpdateTask"] = errors.New("permission denied")

	if err := s.ToggleTaskStatus(context.Background(), "C"); err == nil {
		t.Fatal("ToggleTaskStatus() returned no error")
	}
	st := s.Snapshot()
	if st.Notice == "" {
		t.Error("Notice is empty")
	}
	if c, _ := st.Forest("p1").Find("C"); c.Completed() {
		t.Error("optimistic status survived the failed write")
	}
}

func TestMoveTask(t *testing.T) {
	tests := []struct {
		name     string
		dragged  string
		target   string
		p        ordering.Placement
		parent   string
		children []string
		key      float64
	}{
		{"before sibling", "C", "B", ordering.Before, "A", []string{"C", "B"}, 0},
		{"inside", "D", "A", ordering.Inside, "A", []string{"D", "B", "C"}, 0},
		{"promote to root", "B", "D", ordering.After, "", []string{"A", "D", "B"}, 3000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, r := newTestStore(t, Options{})
			if err := s.MoveTask(context.Background(), tt.dragged, tt.target, tt.p); err != nil {
				t.Fatalf("MoveTask() error = %v", err)
			}
			f := s.Snapshot().Forest("p1")
			if got := f.ChildIDs(tt.parent); !slices.Equal(got, tt.children) {
				t.Errorf("children of %q = %v, expected %v", tt.parent, got, tt.children)
			}
			remote := r.task(tt.dragged)
			if remote.ParentID != tt.parent || remote.Position != tt.key {
				t.Errorf("remote %s = parent %q key %v, expected %q %v", tt.dragged, remote.ParentID, remote.Position, tt.parent, tt.key)
			}
			if got := refetched(t, r, "p1").ChildIDs(tt.parent); !slices.Equal(got, tt.children) {
				t.Errorf("refetched children of %q = %v, expected %v", tt.parent, got, tt.children)
			}
		})
	}
}

func TestMoveTask_Rejected(t *testing.T) {
	s, r := newTestStore(t, Options{})
	ctx := context.Background()

	if err := s.MoveTask(ctx, "A", "A", ordering.Inside); err != nil {
		t.Errorf("MoveTask(self) error = %v, expected nil", err)
	}
	if err := s.MoveTask(ctx, "A", "B", ordering.Inside); !errors.Is(err, ordering.ErrIntoDescendant) {
		t.Errorf("MoveTask(into descendant) error = %v, expected ErrIntoDescendant", err)
	}
	if err := s.MoveTask(ctx, "nope", "A", ordering.Before); !errors.Is(err, ErrUnknown) {
		t.Errorf("MoveTask(unknown) error = %v, expected ErrUnknown", err)
	}
	if n := len(r.writes); n != 0 {
		t.Errorf("rejected moves wrote %d times", n)
	}
}

func TestMoveTask_RenumbersWhenKeysExhausted(t *testing.T) {
	r := newFakeRemote()
	r.profiles[ana.ID] = ana
	r.projects["p1"] = models.Project{ID: "p1", Title: "Tight", OwnerID: ana.ID}
	for _, task := range []models.Task{
		{ID: "a", Position: 1},
		{ID: "b", Position: math.Nextafter(1, 2)},
		{ID: "c", Position: 5},
	} {
		task.ProjectID = "p1"
		r.tasks[task.ID] = task
	}
	s := NewStore(r, Options{})
	if err := s.SetUser(context.Background(), &ana); err != nil {
		t.Fatalf("SetUser() error = %v", err)
	}

	if err := s.MoveTask(context.Background(), "c", "b", ordering.Before); err != nil {
		t.Fatalf("MoveTask() error = %v", err)
	}
	if got := s.Snapshot().Forest("p1").RootIDs(); !slices.Equal(got, []string{"a", "c", "b"}) {
		t.Errorf("roots = %v, expected [a c b]", got)
	}
	for id, want := range map[string]float64{"a": 1000, "c": 2000, "b": 3000} {
		if got := r.task(id).Position; got != want {
			t.Errorf("remote %s key = %v, expected %v", id, got, want)
		}
	}
}

func TestMoveProject(t *testing.T) {
	s, r := newTestStore(t, Options{})
	ctx := context.Background()
	p2, err := s.AddProject(ctx, "Car", "")
	if err != nil {
		t.Fatalf("AddProject() error = %v", err)
	}

	if err := s.MoveProject(ctx, p2.ID, 1); err != nil {
		t.Fatalf("MoveProject() error = %v", err)
	}
	ps := s.Snapshot().Projects
	if ps[0].ID != "p1" || ps[1].ID != p2.ID {
		t.Errorf("order = %s, %s, expected p1 first", ps[0].ID, ps[1].ID)
	}
	if got := r.projects[p2.ID].Position; got != 2000 {
		t.Errorf("remote key = %v, expected 2000", got)
	}
}

func TestProjectOperations(t *testing.T) {
	s, r := newTestStore(t, Options{})
	ctx := context.Background()

	if err := s.UpdateProject(ctx, "p1", models.ProjectPatch{Title: models.Ptr("Home")}); err != nil {
		t.Fatalf("UpdateProject() error = %v", err)
	}
	if p, _ := s.Snapshot().Project("p1"); p.Title != "Home" || r.projects["p1"].Title != "Home" {
		t.Errorf("title = %q, remote %q, expected Home", p.Title, r.projects["p1"].Title)
	}

	if err := s.SetProjectArchived(ctx, "p1", true); err != nil {
		t.Fatalf("SetProjectArchived() error = %v", err)
	}
	if !r.projects["p1"].Archived {
		t.Error("project not archived remotely")
	}

	// a project shared with ana by someone else
	r.projects["p9"] = models.Project{ID: "p9", Title: "Shared", OwnerID: "u2"}
	r.members["p9"] = []string{ana.ID}
	s.Reload(ctx)
	if err := s.DeleteProject(ctx, "p9"); !errors.Is(err, ErrForbidden) {
		t.Errorf("DeleteProject(not owner) error = %v, expected ErrForbidden", err)
	}

	s.SetActiveProject(ctx, "p1")
	if err := s.DeleteProject(ctx, "p1"); err != nil {
		t.Fatalf("DeleteProject() error = %v", err)
	}
	st := s.Snapshot()
	if _, ok := st.Project("p1"); ok || st.ActiveProjectID != "" {
		t.Errorf("deleted project still present or active: %+v", st.ActiveProjectID)
	}
	if len(r.tasks) != 0 {
		t.Errorf("%d tasks left remotely, expected 0", len(r.tasks))
	}
}

func TestJoinProject(t *testing.T) {
	s, r := newTestStore(t, Options{})
	ctx := context.Background()
	r.projects["p9"] = models.Project{ID: "p9", Title: "Shared", OwnerID: "u2"}

	if err := s.JoinProject(ctx, "p9"); err != nil {
		t.Fatalf("JoinProject() error = %v", err)
	}
	st := s.Snapshot()
	if _, ok := st.Project("p9"); !ok || st.ActiveProjectID != "p9" {
		t.Errorf("joined project not loaded and selected")
	}

	if err := s.JoinProject(ctx, "p9"); err != nil {
		t.Fatalf("JoinProject() twice error = %v", err)
	}
	if got := s.Snapshot().Notice; !strings.Contains(got, "already a member") {
		t.Errorf("Notice = %q, expected already a member", got)
	}

	if err := s.JoinProject(ctx, "missing"); err == nil {
		t.Error("JoinProject(missing) returned no error")
	}
}

func TestDeleteTask_RemovesSubtree(t *testing.T) {
	s, r := newTestStore(t, Options{})
	s.SetActiveProject(context.Background(), "p1")
	s.SetActiveTask("B")

	if err := s.DeleteTask(context.Background(), "A"); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	st := s.Snapshot()
	if got := st.Forest("p1").Len(); got != 1 {
		t.Errorf("tasks left = %d, expected 1", got)
	}
	if st.ActiveTaskID != "" {
		t.Errorf("ActiveTaskID = %q, expected cleared", st.ActiveTaskID)
	}
	if len(r.tasks) != 1 {
		t.Errorf("remote tasks = %d, expected 1", len(r.tasks))
	}
}

func TestUpdateTask_IgnoresStructuralFields(t *testing.T) {
	s, r := newTestStore(t, Options{})
	err := s.UpdateTask(context.Background(), "C", models.TaskPatch{
		Title:    models.Ptr("Tape all edges"),
		ParentID: models.Ptr(""),
		Status:   models.Ptr(models.StatusCompleted),
	})
	if err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	c := r.task("C")
	if c.Title != "Tape all edges" || c.ParentID != "A" || c.Completed() {
		t.Errorf("remote C = %+v", c)
	}

	if err := s.ToggleExpand(context.Background(), "A"); err != nil {
		t.Fatalf("ToggleExpand() error = %v", err)
	}
	if r.task("A").Expanded {
		t.Error("A still expanded remotely")
	}
}

func TestActivity_OnlyAuthorEdits(t *testing.T) {
	s, r := newTestStore(t, Options{})
	ctx := context.Background()

	if err := s.AddActivity(ctx, "B", "looks good"); err != nil {
		t.Fatalf("AddActivity() error = %v", err)
	}
	b := r.task("B")
	if len(b.Activity) != 1 {
		t.Fatalf("activity = %+v, expected one comment", b.Activity)
	}
	id := b.Activity[0].ID

	if err := s.UpdateActivity(ctx, "B", id, "looks great"); err != nil {
		t.Fatalf("UpdateActivity() error = %v", err)
	}
	if got := r.task("B").Activity[0].Content; got != "looks great" {
		t.Errorf("content = %q, expected looks great", got)
	}

	// entries written by someone else cannot be touched
	r.mu.Lock()
	other := r.tasks["B"]
	other.Activity = append(other.Activity, models.ActivityLog{ID: "x", Kind: models.ActivityComment, CreatedBy: "u2"})
	r.tasks["B"] = other
	r.mu.Unlock()
	s.Reload(ctx)
	if err := s.DeleteActivity(ctx, "B", "x"); !errors.Is(err, ErrForbidden) {
		t.Errorf("DeleteActivity(other author) error = %v, expected ErrForbidden", err)
	}

	if err := s.DeleteActivity(ctx, "B", id); err != nil {
		t.Fatalf("DeleteActivity() error = %v", err)
	}
	if got := len(r.task("B").Activity); got != 1 {
		t.Errorf("remote activity = %d entries, expected 1", got)
	}
}

func TestAttachmentsAndMedia(t *testing.T) {
	s, r := newTestStore(t, Options{})
	ctx := context.Background()

	att, err := s.AddAttachment(ctx, "C", "plan.pdf", models.AttachmentDocument, "https://example.com/plan.pdf")
	if err != nil {
		t.Fatalf("AddAttachment() error = %v", err)
	}
	c := r.task("C")
	if len(c.Attachments) != 1 || len(c.Activity) != 1 || c.Activity[0].Kind != models.ActivityAttachment {
		t.Errorf("remote C = %d attachments, activity %+v", len(c.Attachments), c.Activity)
	}
	if err := s.DeleteAttachment(ctx, "C", att.ID); err != nil {
		t.Fatalf("DeleteAttachment() error = %v", err)
	}
	if len(r.task("C").Attachments) != 0 {
		t.Error("attachment not removed")
	}

	big := models.MediaBlob{Name: "big.mov", Data: make([]byte, models.MaxMediaBytes+1)}
	if err := s.AddMedia(ctx, "C", big); !errors.Is(err, models.ErrMediaTooLarge) {
		t.Errorf("AddMedia(big) error = %v, expected ErrMediaTooLarge", err)
	}
	img := models.MediaBlob{Name: "wall.png", MimeType: "image/png", Data: []byte{1, 2, 3}}
	if err := s.AddMedia(ctx, "C", img); err != nil {
		t.Fatalf("AddMedia() error = %v", err)
	}
	if err := s.AddMedia(ctx, "C", img); err != nil {
		t.Fatalf("AddMedia() again error = %v", err)
	}
	if got := len(r.task("C").AIMedia); got != 1 {
		t.Errorf("media items = %d, expected 1", got)
	}
	if err := s.RemoveMedia(ctx, "C", "wall.png"); err != nil {
		t.Fatalf("RemoveMedia() error = %v", err)
	}
	if got := len(r.task("C").AIMedia); got != 0 {
		t.Errorf("media items = %d, expected 0", got)
	}
}

func TestSuggestSteps(t *testing.T) {
	ctx := context.Background()

	s, r := newTestStore(t, Options{Suggester: ai.NewSuggester(stubProvider{reply: "- Buy tape\n- Clean walls"}, time.Second)})
	got, err := s.SuggestSteps(ctx, "C")
	if err != nil {
		t.Fatalf("SuggestSteps() error = %v", err)
	}
	c := r.task("C")
	if c.SuggestedSteps != got || len(c.Activity) != 1 || c.Activity[0].Kind != models.ActivityAISuggestion {
		t.Errorf("remote C = steps %q, activity %+v", c.SuggestedSteps, c.Activity)
	}

	s, r = newTestStore(t, Options{Suggester: ai.NewSuggester(stubProvider{err: errors.New("quota")}, time.Second)})
	got, err = s.SuggestSteps(ctx, "C")
	if err != nil || got != ai.FailedSuggestions {
		t.Errorf("SuggestSteps() = %q, %v, expected the apology", got, err)
	}
	if r.task("C").SuggestedSteps != "" || len(r.writes) != 0 {
		t.Error("a fallback reply was stored")
	}

	s, _ = newTestStore(t, Options{})
	if got, _ := s.SuggestSteps(ctx, "C"); got != ai.NoProviderSuggestions {
		t.Errorf("SuggestSteps() without provider = %q", got)
	}
	s.SetActiveProject(ctx, "p1")
	if got, _ := s.Advice(ctx, "What first?", ""); got != ai.NoProviderAdvice {
		t.Errorf("Advice() without provider = %q", got)
	}
}

func TestProfileAndNotifications(t *testing.T) {
	s, r := newTestStore(t, Options{})
	ctx := context.Background()
	r.notes = []models.Notification{{ID: "n1", UserID: ana.ID, Title: "Joined"}, {ID: "n2", UserID: "u2"}}
	s.Reload(ctx)

	if got := s.Snapshot().UnreadCount(); got != 1 {
		t.Errorf("UnreadCount() = %d, expected 1", got)
	}
	if err := s.MarkNotificationRead(ctx, "n1"); err != nil {
		t.Fatalf("MarkNotificationRead() error = %v", err)
	}
	if got := s.Snapshot().UnreadCount(); got != 0 {
		t.Errorf("UnreadCount() after read = %d, expected 0", got)
	}

	if err := s.UpdateProfile(ctx, "Ana B", "https://example.com/a.png"); err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if st := s.Snapshot(); st.User.Name != "Ana B" || r.profiles[ana.ID].Name != "Ana B" {
		t.Errorf("name = %q, remote %q, expected Ana B", st.User.Name, r.profiles[ana.ID].Name)
	}
}

func TestSelections(t *testing.T) {
	s, _ := newTestStore(t, Options{})
	ctx := context.Background()

	if err := s.SetActiveProject(ctx, "nope"); !errors.Is(err, ErrUnknown) {
		t.Errorf("SetActiveProject(unknown) error = %v", err)
	}
	s.SetActiveProject(ctx, "p1")
	s.SetSearch("tape")
	st := s.Snapshot()
	if got := st.Visible().Len(); got != 2 {
		t.Errorf("visible tasks = %d, expected 2 (A and C)", got)
	}
	if err := s.SetActiveTask("C"); err != nil {
		t.Fatalf("SetActiveTask() error = %v", err)
	}
	if task, ok := s.Snapshot().ActiveTask(); !ok || task.ID != "C" {
		t.Errorf("ActiveTask() = %v, %v", task.ID, ok)
	}

	stats := s.Stats()
	if stats.Projects != 1 || stats.Tasks != 4 || stats.Completed != 1 {
		t.Errorf("Stats() = %+v", stats)
	}
	if got := stats.PerProject[0].Progress; got != 25 {
		t.Errorf("progress = %d, expected 25", got)
	}
}

func TestReconciler_ReloadsOnChangeEvent(t *testing.T) {
	s, r := newTestStore(t, Options{})
	hub := realtime.New(4)
	defer hub.Close()

	rec := NewReconciler(s, hub, config.SyncConfig{})
	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer rec.Stop()
	rec.Watch(ana.ID)

	r.mu.Lock()
	r.tasks["E"] = models.Task{ID: "E", ProjectID: "p1", Title: "Roof", Position: 3000}
	r.mu.Unlock()
	hub.Publish(realtime.Event{Table: "tasks", Op: realtime.OpInsert, ID: "E"})

	deadline := time.Now().Add(2 * time.Second)
	for s.Snapshot().Forest("p1").Len() != 5 {
		if time.Now().After(deadline) {
			t.Fatal("change event did not trigger a reload")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := rec.Start(context.Background()); err == nil {
		t.Error("second Start() returned no error")
	}
}

func TestStore_SQLite(t *testing.T) {
	ctx := context.Background()
	d, err := db.Open(filepath.Join(t.TempDir(), "apolo.db"), nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { d.Close() })
	if err := d.UpsertProfile(ctx, ana); err != nil {
		t.Fatalf("UpsertProfile() error = %v", err)
	}

	s := NewStore(d, Options{RefetchOnSuccess: true, Settings: d})
	if err := s.SetUser(ctx, &ana); err != nil {
		t.Fatalf("SetUser() error = %v", err)
	}
	p, err := s.AddProject(ctx, "House", "")
	if err != nil {
		t.Fatalf("AddProject() error = %v", err)
	}
	walls, err := s.AddTask(ctx, p.ID, "", "Walls")
	if err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	paint, err := s.AddTask(ctx, p.ID, walls.ID, "Buy paint")
	if err != nil {
		t.Fatalf("AddTask(child) error = %v", err)
	}
	if err := s.ToggleTaskStatus(ctx, paint.ID); err != nil {
		t.Fatalf("ToggleTaskStatus() error = %v", err)
	}
	if err := s.SetActiveProject(ctx, p.ID); err != nil {
		t.Fatalf("SetActiveProject() error = %v", err)
	}

	// a fresh client sees the same data and reopens the project
	fresh := NewStore(d, Options{Settings: d})
	if err := fresh.SetUser(ctx, &ana); err != nil {
		t.Fatalf("SetUser() error = %v", err)
	}
	st := fresh.Snapshot()
	if st.ActiveProjectID != p.ID {
		t.Errorf("ActiveProjectID = %q, expected %q", st.ActiveProjectID, p.ID)
	}
	f := st.Forest(p.ID)
	if got := f.Progress(walls.ID); got != 100 {
		t.Errorf("Progress(walls) = %d, expected 100", got)
	}
	if w, _ := f.Find(walls.ID); !w.Completed() {
		t.Error("parent was not completed by the cascade")
	}
}
