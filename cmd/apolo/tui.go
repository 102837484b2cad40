package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tgienger/apolo/internal/app"
	"github.com/tgienger/apolo/internal/logger"
	"github.com/tgienger/apolo/internal/models"
	"github.com/tgienger/apolo/internal/ui"
)

func runTUI(ctx context.Context, configPath string) error {
	e, err := setup(ctx, configPath)
	if err != nil {
		return err
	}
	defer e.Close()

	rec := app.NewReconciler(e.store, e.db, e.cfg.Sync)
	e.gateway.OnChange(func(u *models.User) {
		if u == nil {
			rec.Watch("")
			return
		}
		rec.Watch(u.ID)
	})
	if err := rec.Start(ctx); err != nil {
		return err
	}
	defer rec.Stop()

	application := ui.NewApp(ctx, e.store, e.gateway)
	defer application.Close()

	p := tea.NewProgram(application, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running application: %w", err)
	}
	logger.Info().Msg("bye")
	return nil
}
