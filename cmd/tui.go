package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ifcmat/internal/models"
	"github.com/desertthunder/ifcmat/internal/repositories"
	"github.com/desertthunder/ifcmat/internal/shared"
	"github.com/desertthunder/ifcmat/internal/ui"
	"github.com/urfave/cli/v3"
)

const historyLimit = 50

// TUI launches the interactive terminal UI for the upload and extraction workflow.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	if err := r.authenticate(ctx, r.config.Credentials); err != nil {
		return err
	}

	opts := ui.Options{Workflow: r.workflowOptions(""), OpenFile: r.openFile}
	if !cmd.Bool("no-history") {
		db, repo, err := r.openHistory()
		if err != nil {
			r.logger.Warn("run history disabled", "error", err)
		} else {
			defer db.Close()
			opts.Workflow.Recorder = repositories.NewHistoryRecorder(repo)
			opts.History = func() ([]*models.Run, error) {
				return repo.List(map[string]any{"limit": historyLimit})
			}
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := ui.NewModel(ctx, r.workflowBackend(), opts)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
