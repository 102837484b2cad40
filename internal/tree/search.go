package tree

import (
	"math"
	"strings"

	"github.com/tgienger/apolo/internal/models"
)

// Search returns the part of the forest that matches query: tasks whose title
// or description contains it case-insensitively, plus every ancestor of such a
// task. Kept tasks are expanded so matches are visible. An empty query returns
// f itself.
func (f *Forest) Search(query string) *Forest {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || f == nil {
		return f
	}

	keep := map[string]bool{}
	var visit func(id string) bool
	visit = func(id string) bool {
		t := f.nodes[id]
		hit := matches(t, q)
		for _, c := range f.children[id] {
			if visit(c) {
				hit = true
			}
		}
		if hit {
			keep[id] = true
		}
		return hit
	}
	for _, id := range f.children[root] {
		visit(id)
	}

	out := New()
	for id := range keep {
		t := f.nodes[id]
		t.Expanded = true
		out.nodes[id] = t
		out.parent[id] = f.parent[id]
	}
	for p, ids := range f.children {
		if p != root && !keep[p] {
			continue
		}
		var kept []string
		for _, id := range ids {
			if keep[id] {
				kept = append(kept, id)
			}
		}
		if len(kept) > 0 {
			out.children[p] = kept
		}
	}
	return out
}

func matches(t models.Task, q string) bool {
	return strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.Description), q)
}

// Progress returns the completion percentage of id: 0 or 100 for a leaf,
// otherwise the rounded mean of its children's progress. Rounding never
// reports 100 unless the task and its whole subtree are completed.
func (f *Forest) Progress(id string) int {
	if !f.Has(id) {
		return 0
	}
	return f.progress(id)
}

func (f *Forest) progress(id string) int {
	kids := f.children[id]
	if len(kids) == 0 {
		if f.nodes[id].Completed() {
			return 100
		}
		return 0
	}
	sum := 0
	for _, c := range kids {
		sum += f.progress(c)
	}
	return f.clamp(id, mean(sum, len(kids)))
}

// ProjectProgress is the rounded mean of the roots' progress, 0 when empty
func (f *Forest) ProjectProgress() int {
	if f == nil || len(f.children[root]) == 0 {
		return 0
	}
	sum := 0
	for _, id := range f.children[root] {
		sum += f.progress(id)
	}
	p := mean(sum, len(f.children[root]))
	if p == 100 {
		for _, t := range f.nodes {
			if !t.Completed() {
				return 99
			}
		}
	}
	return p
}

func mean(sum, n int) int {
	return int(math.Round(float64(sum) / float64(n)))
}

func (f *Forest) clamp(id string, p int) int {
	if p < 100 {
		return p
	}
	if !f.nodes[id].Completed() {
		return 99
	}
	for _, d := range f.Descendants(id) {
		if !f.nodes[d].Completed() {
			return 99
		}
	}
	return 100
}
