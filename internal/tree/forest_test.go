package tree

import (
	"slices"
	"testing"
	"time"

	"github.com/tgienger/apolo/internal/models"
)

func task(id, parent string, pos float64, status models.Status) models.Task {
	return models.Task{
		ID:        id,
		ParentID:  parent,
		Title:     "Task " + id,
		Position:  pos,
		Status:    status,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// sample builds:
//
//	A
//	├── B (completed)
//	└── C (completed)
//	D
//	└── E
//	    └── F
func sample() *Forest {
	return Build([]models.Task{
		task("C", "A", 2000, models.StatusCompleted),
		task("A", "", 1000, models.StatusPending),
		task("B", "A", 1000, models.StatusCompleted),
		task("D", "", 2000, models.StatusPending),
		task("E", "D", 1000, models.StatusPending),
		task("F", "E", 1000, models.StatusPending),
	})
}

func TestBuild_OrdersSiblingsByPosition(t *testing.T) {
	f := sample()

	if got := f.RootIDs(); !slices.Equal(got, []string{"A", "D"}) {
		t.Errorf("RootIDs() = %v, expected [A D]", got)
	}
	if got := f.ChildIDs("A"); !slices.Equal(got, []string{"B", "C"}) {
		t.Errorf("ChildIDs(A) = %v, expected [B C]", got)
	}
	if f.Len() != 6 {
		t.Errorf("Len() = %d, expected 6", f.Len())
	}
}

func TestBuild_TiesBrokenByCreatedAt(t *testing.T) {
	early := task("late", "", 1000, models.StatusPending)
	early.CreatedAt = early.CreatedAt.Add(time.Hour)
	f := Build([]models.Task{early, task("first", "", 1000, models.StatusPending)})

	if got := f.RootIDs(); !slices.Equal(got, []string{"first", "late"}) {
		t.Errorf("RootIDs() = %v, expected [first late]", got)
	}
}

func TestBuild_OrphansBecomeRoots(t *testing.T) {
	f := Build([]models.Task{
		task("A", "", 1000, models.StatusPending),
		task("X", "missing", 2000, models.StatusPending),
	})

	if got := f.RootIDs(); !slices.Equal(got, []string{"A", "X"}) {
		t.Errorf("RootIDs() = %v, expected [A X]", got)
	}
	x, _ := f.Find("X")
	if x.ParentID != "" {
		t.Errorf("X.ParentID = %q, expected root", x.ParentID)
	}
}

func TestBuild_BreaksCycles(t *testing.T) {
	f := Build([]models.Task{
		task("A", "B", 1000, models.StatusPending),
		task("B", "A", 2000, models.StatusPending),
		task("C", "C", 3000, models.StatusPending),
	})

	if f.Len() != 3 {
		t.Fatalf("Len() = %d, expected 3", f.Len())
	}
	if got := len(f.Rows()); got != 3 {
		t.Errorf("Rows() visited %d tasks, expected 3", got)
	}
	if got := f.RootIDs(); !slices.Equal(got, []string{"A", "C"}) {
		t.Errorf("RootIDs() = %v, expected [A C]", got)
	}
	if p, _ := f.Parent("B"); p != "A" {
		t.Errorf("Parent(B) = %q, expected A", p)
	}
}

func TestBuild_CutsLoopNotTail(t *testing.T) {
	// C hangs off the A/B loop and must stay under A
	f := Build([]models.Task{
		task("C", "A", 1000, models.StatusPending),
		task("A", "B", 2000, models.StatusPending),
		task("B", "A", 3000, models.StatusPending),
	})

	if got := f.RootIDs(); !slices.Equal(got, []string{"A"}) {
		t.Errorf("RootIDs() = %v, expected [A]", got)
	}
	if got := f.ChildIDs("A"); !slices.Equal(got, []string{"C", "B"}) {
		t.Errorf("ChildIDs(A) = %v, expected [C B]", got)
	}
	if got := len(f.Rows()); got != 3 {
		t.Errorf("Rows() visited %d tasks, expected 3", got)
	}
}

func TestFind_AfterRemove(t *testing.T) {
	f := sample()
	g := f.Remove("D")

	for _, id := range []string{"D", "E", "F"} {
		if _, ok := g.Find(id); ok {
			t.Errorf("Find(%s) after Remove(D) found a task", id)
		}
		if _, ok := f.Find(id); !ok {
			t.Errorf("Remove changed the original forest: %s missing", id)
		}
	}
	if got := g.RootIDs(); !slices.Equal(got, []string{"A"}) {
		t.Errorf("RootIDs() = %v, expected [A]", got)
	}
}

func TestRemove_Unknown(t *testing.T) {
	f := sample()
	if g := f.Remove("nope"); g != f {
		t.Error("Remove of an unknown id returned a new forest")
	}
}

func TestUpdate_Composes(t *testing.T) {
	f := sample()
	rename := func(t models.Task) models.Task { t.Title = "renamed"; return t }
	describe := func(t models.Task) models.Task { t.Description = "details"; return t }

	a := f.Update("E", rename).Update("E", describe)
	b := f.Update("E", func(t models.Task) models.Task { return describe(rename(t)) })

	ea, _ := a.Find("E")
	eb, _ := b.Find("E")
	if ea.Title != eb.Title || ea.Description != eb.Description {
		t.Errorf("Update composition = %+v, expected %+v", ea, eb)
	}
	orig, _ := f.Find("E")
	if orig.Title != "Task E" {
		t.Errorf("original Title = %q, expected unchanged", orig.Title)
	}
}

func TestUpdate_KeepsIdentity(t *testing.T) {
	f := sample()
	g := f.Update("B", func(t models.Task) models.Task {
		t.ID = "Z"
		t.ParentID = "D"
		return t
	})
	b, ok := g.Find("B")
	if !ok || b.ParentID != "A" {
		t.Errorf("Update changed identity: %+v", b)
	}
}

func TestUpdate_ResortsOnPosition(t *testing.T) {
	g := sample().Update("B", func(t models.Task) models.Task { t.Position = 3000; return t })
	if got := g.ChildIDs("A"); !slices.Equal(got, []string{"C", "B"}) {
		t.Errorf("ChildIDs(A) = %v, expected [C B]", got)
	}
}

func TestInsertChild_ExpandsParent(t *testing.T) {
	f := sample()
	g := f.InsertChild("D", task("G", "", 3000, models.StatusPending))

	d, _ := g.Find("D")
	if !d.Expanded {
		t.Error("parent not expanded after InsertChild")
	}
	if got := g.ChildIDs("D"); !slices.Equal(got, []string{"E", "G"}) {
		t.Errorf("ChildIDs(D) = %v, expected [E G]", got)
	}
	if got := f.ChildIDs("D"); !slices.Equal(got, []string{"E"}) {
		t.Errorf("original ChildIDs(D) = %v, expected [E]", got)
	}
}

func TestInsertChild_NoOps(t *testing.T) {
	f := sample()
	if g := f.InsertChild("missing", task("G", "", 0, models.StatusPending)); g != f {
		t.Error("InsertChild under a missing parent changed the forest")
	}
	if g := f.InsertChild("", task("A", "", 0, models.StatusPending)); g != f {
		t.Error("InsertChild of an existing id changed the forest")
	}
}

func TestInsertChild_EmptyForest(t *testing.T) {
	g := New().InsertChild("", task("A", "", 1000, models.StatusPending))
	if got := g.RootIDs(); !slices.Equal(got, []string{"A"}) {
		t.Errorf("RootIDs() = %v, expected [A]", got)
	}
}

func TestMove(t *testing.T) {
	f := sample()

	g := f.Move("F", "", 0)
	if got := g.RootIDs(); !slices.Equal(got, []string{"F", "A", "D"}) {
		t.Errorf("RootIDs() = %v, expected [F A D]", got)
	}
	if got := g.ChildIDs("E"); len(got) != 0 {
		t.Errorf("ChildIDs(E) = %v, expected empty", got)
	}

	if h := f.Move("D", "F", 0); h != f {
		t.Error("Move under a descendant was not refused")
	}
	if h := f.Move("D", "D", 0); h != f {
		t.Error("Move under itself was not refused")
	}
}

func TestAncestorsAndDescendants(t *testing.T) {
	f := sample()
	if got := f.Ancestors("F"); !slices.Equal(got, []string{"E", "D"}) {
		t.Errorf("Ancestors(F) = %v, expected [E D]", got)
	}
	if got := f.Descendants("D"); !slices.Equal(got, []string{"E", "F"}) {
		t.Errorf("Descendants(D) = %v, expected [E F]", got)
	}
	if !f.IsAncestor("D", "F") || f.IsAncestor("A", "F") {
		t.Error("IsAncestor gave the wrong answer")
	}
}

func TestCounts(t *testing.T) {
	total, done := sample().Counts()
	if total != 6 || done != 2 {
		t.Errorf("Counts() = %d, %d, expected 6, 2", total, done)
	}
}

func TestNilForest(t *testing.T) {
	var f *Forest
	if f.Len() != 0 || f.Has("A") || len(f.Rows()) != 0 || f.ProjectProgress() != 0 {
		t.Error("nil forest is not empty")
	}
	if f.Search("x") != nil {
		t.Error("Search on nil forest returned a forest")
	}
}
