// Package cascade propagates a task's completion toggle through its tree.
package cascade

import (
	"github.com/tgienger/apolo/internal/models"
	"github.com/tgienger/apolo/internal/tree"
)

// Change is one task status transition produced by a toggle
type Change struct {
	ID   string
	From models.Status
	To   models.Status
}

// Changed reports whether the change alters the stored status
func (c Change) Changed() bool {
	return c.From != c.To
}

// Toggle flips id between pending and completed. The new status is pushed
// down to every descendant; each ancestor then becomes completed exactly when
// all of its children are, stopping at the first ancestor that already holds
// the computed status. The toggled task comes first, followed by descendants
// depth-first and then ancestors nearest first. Descendant entries are
// returned even when their status does not change.
func Toggle(f *tree.Forest, id string) []Change {
	t, ok := f.Find(id)
	if !ok {
		return nil
	}
	to := models.StatusCompleted
	if t.Completed() {
		to = models.StatusPending
	}

	changes := []Change{{ID: id, From: t.Status, To: to}}
	next := map[string]models.Status{id: to}
	for _, d := range f.Descendants(id) {
		n, _ := f.Find(d)
		changes = append(changes, Change{ID: d, From: n.Status, To: to})
		next[d] = to
	}

	for _, a := range f.Ancestors(id) {
		anc, _ := f.Find(a)
		status := models.StatusCompleted
		for _, c := range f.Children(a) {
			s, ok := next[c.ID]
			if !ok {
				s = c.Status
			}
			if s != models.StatusCompleted {
				status = models.StatusPending
				break
			}
		}
		if status == anc.Status {
			break
		}
		changes = append(changes, Change{ID: a, From: anc.Status, To: status})
		next[a] = status
	}
	return changes
}

// Apply returns f with every change's status set
func Apply(f *tree.Forest, changes []Change) *tree.Forest {
	for _, c := range changes {
		if !c.Changed() {
			continue
		}
		to := c.To
		f = f.Update(c.ID, func(t models.Task) models.Task {
			t.Status = to
			return t
		})
	}
	return f
}

// Effective drops the entries that leave a task's status as it was
func Effective(changes []Change) []Change {
	var out []Change
	for _, c := range changes {
		if c.Changed() {
			out = append(out, c)
		}
	}
	return out
}
