package main

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotx/internal/shared"
	"github.com/desertthunder/spotx/internal/ui"
	"github.com/urfave/cli/v3"
)

// Player launches the interactive terminal player.
func (r *Runner) Player(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCredentials(); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := filepath.Join(shared.ConfigDir(), "player.log")
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, r.player, r.events)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running player: %w", err)
	}

	return nil
}
