package app

// ProjectStats summarises one project
type ProjectStats struct {
	ID        string
	Title     string
	Archived  bool
	Tasks     int
	Completed int
	Progress  int
}

// Stats summarises everything the user can see
type Stats struct {
	Projects   int
	Tasks      int
	Completed  int
	Unread     int
	PerProject []ProjectStats
}

// Stats computes totals and per-project progress from s
func (s State) Stats() Stats {
	out := Stats{Projects: len(s.Projects), Unread: s.UnreadCount()}
	for _, p := range s.Projects {
		f := s.Forest(p.ID)
		total, done := f.Counts()
		out.Tasks += total
		out.Completed += done
		out.PerProject = append(out.PerProject, ProjectStats{
			ID:        p.ID,
			Title:     p.Title,
			Archived:  p.Archived,
			Tasks:     total,
			Completed: done,
			Progress:  f.ProjectProgress(),
		})
	}
	return out
}

// Stats computes statistics over the current state
func (s *Store) Stats() Stats {
	return s.Snapshot().Stats()
}
