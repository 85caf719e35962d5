package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytboxd/internal/shared"
	"github.com/desertthunder/ytboxd/internal/tasks"
	"github.com/desertthunder/ytboxd/internal/ui"
)

// TUI launches the interactive library browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.openLibrary(cmd, true)
	if err != nil {
		return err
	}
	defer lib.Close()

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/ytboxd-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	// The sync binding only works with a stored credential.
	var engine tasks.SyncEngine
	if _, err := lib.creds.GetByUserID(lib.user.ID()); err == nil {
		engine = r.buildEngine(lib)
	}

	model := ui.New(ctx, lib.user.ID(), lib.videos, lib.playlists, lib.tags, engine)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
