// Package tree holds a project's tasks as an arena: nodes keyed by id with
// explicit parent and ordered child-id lists.
//
// A *Forest is immutable. Every mutating method returns a new forest built by
// copy-on-write; the receiver and any task values previously read from it are
// never altered, so callers can compare forests by identity to detect change.
package tree

import (
	"slices"
	"sort"

	"github.com/tgienger/apolo/internal/models"
)

// root is the parent key of top-level tasks in the child index.
const root = ""

type Forest struct {
	nodes    map[string]models.Task
	children map[string][]string
	parent   map[string]string
}

// New returns an empty forest
func New() *Forest {
	return &Forest{
		nodes:    map[string]models.Task{},
		children: map[string][]string{},
		parent:   map[string]string{},
	}
}

// Build reconstructs a forest from flat task rows. Rows whose parent cannot
// be resolved become roots. Siblings are ordered by Position, then CreatedAt.
// A parent chain that loops back on itself is cut by promoting the first node
// of the loop met while walking up from an unreachable row, so traversal
// always terminates and rows hanging off the loop keep their parent.
func Build(rows []models.Task) *Forest {
	f := New()
	for _, t := range rows {
		if t.ID == "" {
			continue
		}
		f.nodes[t.ID] = t
	}

	for _, t := range rows {
		if _, ok := f.nodes[t.ID]; !ok {
			continue
		}
		p := t.ParentID
		if _, ok := f.nodes[p]; !ok || p == t.ID {
			p = root
		}
		f.parent[t.ID] = p
	}

	// Anything not reachable from the roots sits on a parent cycle.
	for {
		reach := f.reachable()
		if len(reach) == len(f.nodes) {
			break
		}
		start := ""
		for _, t := range rows {
			if _, seen := reach[t.ID]; !seen {
				if _, ok := f.nodes[t.ID]; ok {
					start = t.ID
					break
				}
			}
		}
		f.parent[f.loopNode(start)] = root
	}

	for id, p := range f.parent {
		f.children[p] = append(f.children[p], id)
		t := f.nodes[id]
		if p != t.ParentID {
			t.ParentID = p
			f.nodes[id] = t
		}
	}
	for p := range f.children {
		f.sortChildren(p)
	}
	return f
}

// loopNode follows parent links from id until a node repeats and returns it.
// id must not be reachable from the roots.
func (f *Forest) loopNode(id string) string {
	seen := map[string]struct{}{}
	for {
		if _, ok := seen[id]; ok {
			return id
		}
		seen[id] = struct{}{}
		id = f.parent[id]
	}
}

func (f *Forest) reachable() map[string]struct{} {
	// Children lists are not built yet, so invert the parent map.
	kids := map[string][]string{}
	for id, p := range f.parent {
		kids[p] = append(kids[p], id)
	}
	seen := map[string]struct{}{}
	stack := slices.Clone(kids[root])
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		stack = append(stack, kids[id]...)
	}
	return seen
}

func (f *Forest) sortChildren(p string) {
	ids := f.children[p]
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := f.nodes[ids[i]], f.nodes[ids[j]]
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// clone makes a shallow copy whose maps can be edited without touching f.
// Child slices stay shared and must be replaced, never appended in place.
func (f *Forest) clone() *Forest {
	return &Forest{
		nodes:    maps(f.nodes),
		children: maps(f.children),
		parent:   maps(f.parent),
	}
}

func maps[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Len returns the number of tasks in the forest
func (f *Forest) Len() int {
	if f == nil {
		return 0
	}
	return len(f.nodes)
}

// Find returns the task with the given id
func (f *Forest) Find(id string) (models.Task, bool) {
	if f == nil {
		return models.Task{}, false
	}
	t, ok := f.nodes[id]
	return t, ok
}

// Has reports whether id is in the forest
func (f *Forest) Has(id string) bool {
	_, ok := f.Find(id)
	return ok
}

// RootIDs returns the ordered ids of top-level tasks
func (f *Forest) RootIDs() []string {
	return f.ChildIDs(root)
}

// Roots returns the ordered top-level tasks
func (f *Forest) Roots() []models.Task {
	return f.Children(root)
}

// ChildIDs returns the ordered ids of id's children; "" means the roots
func (f *Forest) ChildIDs(id string) []string {
	if f == nil {
		return nil
	}
	return slices.Clone(f.children[id])
}

// Children returns the ordered children of id; "" means the roots
func (f *Forest) Children(id string) []models.Task {
	if f == nil {
		return nil
	}
	ids := f.children[id]
	out := make([]models.Task, 0, len(ids))
	for _, c := range ids {
		out = append(out, f.nodes[c])
	}
	return out
}

// Parent returns id's parent ("" for a root) and whether id exists
func (f *Forest) Parent(id string) (string, bool) {
	if f == nil {
		return "", false
	}
	p, ok := f.parent[id]
	return p, ok
}

// Ancestors returns id's ancestors, nearest first
func (f *Forest) Ancestors(id string) []string {
	var out []string
	p, ok := f.Parent(id)
	for ok && p != root {
		out = append(out, p)
		p, ok = f.Parent(p)
	}
	return out
}

// Descendants returns every task below id in depth-first order
func (f *Forest) Descendants(id string) []string {
	if !f.Has(id) {
		return nil
	}
	var out []string
	var walk func(string)
	walk = func(n string) {
		for _, c := range f.children[n] {
			out = append(out, c)
			walk(c)
		}
	}
	walk(id)
	return out
}

// IsAncestor reports whether ancestor lies on id's path to the root
func (f *Forest) IsAncestor(ancestor, id string) bool {
	for _, a := range f.Ancestors(id) {
		if a == ancestor {
			return true
		}
	}
	return false
}

// Walk visits tasks depth-first in sibling order. Returning false from fn
// skips the task's children.
func (f *Forest) Walk(fn func(t models.Task, depth int) bool) {
	if f == nil {
		return
	}
	var walk func(string, int)
	walk = func(p string, depth int) {
		for _, id := range f.children[p] {
			if fn(f.nodes[id], depth) {
				walk(id, depth+1)
			}
		}
	}
	walk(root, 0)
}

// Rows flattens the forest depth-first
func (f *Forest) Rows() []models.Task {
	out := make([]models.Task, 0, f.Len())
	f.Walk(func(t models.Task, _ int) bool {
		out = append(out, t)
		return true
	})
	return out
}

// Update replaces the task id with fn(task). The id and parent of the task
// cannot be changed through fn; use Move for reparenting.
func (f *Forest) Update(id string, fn func(models.Task) models.Task) *Forest {
	t, ok := f.Find(id)
	if !ok {
		return f
	}
	next := fn(t)
	next.ID = t.ID
	next.ParentID = t.ParentID

	out := f.clone()
	out.nodes[id] = next
	if next.Position != t.Position {
		out.children[f.parent[id]] = slices.Clone(out.children[f.parent[id]])
		out.sortChildren(f.parent[id])
	}
	return out
}

// InsertChild appends t to parentID's children and expands the parent.
// parentID "" appends a root. Unknown parents and ids already present leave
// the forest unchanged.
func (f *Forest) InsertChild(parentID string, t models.Task) *Forest {
	if f == nil {
		f = New()
	}
	if t.ID == "" || f.Has(t.ID) {
		return f
	}
	if parentID != root && !f.Has(parentID) {
		return f
	}

	out := f.clone()
	t.ParentID = parentID
	out.nodes[t.ID] = t
	out.parent[t.ID] = parentID
	out.children[parentID] = append(slices.Clip(out.children[parentID]), t.ID)

	if parentID != root {
		p := out.nodes[parentID]
		p.Expanded = true
		out.nodes[parentID] = p
	}
	return out
}

// Remove deletes id and its whole subtree
func (f *Forest) Remove(id string) *Forest {
	if !f.Has(id) {
		return f
	}
	out := f.clone()
	p := f.parent[id]
	out.children[p] = slices.DeleteFunc(slices.Clone(out.children[p]), func(c string) bool { return c == id })
	if p == root && len(out.children[p]) == 0 {
		delete(out.children, p)
	}

	for _, d := range append(f.Descendants(id), id) {
		delete(out.nodes, d)
		delete(out.parent, d)
		delete(out.children, d)
	}
	return out
}

// Move detaches id and inserts it into parentID's children at index.
// Moving a task under itself or one of its descendants is refused.
func (f *Forest) Move(id, parentID string, index int) *Forest {
	if !f.Has(id) {
		return f
	}
	if parentID != root && (!f.Has(parentID) || parentID == id || f.IsAncestor(id, parentID)) {
		return f
	}

	out := f.clone()
	old := f.parent[id]
	out.children[old] = slices.DeleteFunc(slices.Clone(out.children[old]), func(c string) bool { return c == id })

	kids := slices.Clone(out.children[parentID])
	index = max(0, min(index, len(kids)))
	out.children[parentID] = slices.Insert(kids, index, id)
	out.parent[id] = parentID

	t := out.nodes[id]
	t.ParentID = parentID
	out.nodes[id] = t

	if parentID != root {
		p := out.nodes[parentID]
		p.Expanded = true
		out.nodes[parentID] = p
	}
	return out
}

// Counts returns the number of tasks and how many of them are completed
func (f *Forest) Counts() (total, completed int) {
	f.Walk(func(t models.Task, _ int) bool {
		total++
		if t.Completed() {
			completed++
		}
		return true
	})
	return total, completed
}
