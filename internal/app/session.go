package app

import (
	"context"
	"strings"
)

// UpdateProfile changes the current user's display name and avatar
func (s *Store) UpdateProfile(ctx context.Context, name, avatarURL string) error {
	user, err := s.currentUser()
	if err != nil {
		return err
	}
	user.Name = strings.TrimSpace(name)
	if user.Name == "" {
		user.Name = user.Email
	}
	user.AvatarURL = strings.TrimSpace(avatarURL)
	return s.commit(ctx, "update profile", setProfile(user), func(ctx context.Context) error {
		return s.remote.UpsertProfile(ctx, user)
	})
}

// MarkNotificationRead marks one notification as read
func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	return s.commit(ctx, "update notification", markRead(id), func(ctx context.Context) error {
		return s.remote.MarkNotificationRead(ctx, id)
	})
}

// SetActiveProject selects a project and remembers it for the next start;
// "" returns to the project list. The selected task and search are cleared.
func (s *Store) SetActiveProject(ctx context.Context, id string) error {
	if id != "" {
		if _, ok := s.Snapshot().Project(id); !ok {
			return ErrUnknown
		}
	}
	s.update(func(st State) State {
		st.ActiveProjectID = id
		st.ActiveTaskID = ""
		st.Search = ""
		return st
	})
	if s.opts.Settings != nil {
		if err := s.opts.Settings.SetSetting(ctx, lastProjectKey, id); err != nil {
			s.log.Warn().Err(err).Msg("save last project")
		}
	}
	return nil
}

// SetActiveTask selects a task for the detail view; "" clears it
func (s *Store) SetActiveTask(id string) error {
	if id != "" {
		if _, _, ok := s.Snapshot().LocateTask(id); !ok {
			return ErrUnknown
		}
	}
	s.update(func(st State) State {
		st.ActiveTaskID = id
		return st
	})
	return nil
}

// SetSearch filters the active project's tasks
func (s *Store) SetSearch(query string) {
	s.update(func(st State) State {
		st.Search = query
		return st
	})
}

// ClearNotice dismisses the last error notice
func (s *Store) ClearNotice() {
	s.update(func(st State) State {
		st.Notice = ""
		return st
	})
}
