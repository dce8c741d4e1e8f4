package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/ifcmat/internal/formatter"
	"github.com/desertthunder/ifcmat/internal/models"
	"github.com/desertthunder/ifcmat/internal/shared"
	"github.com/urfave/cli/v3"
)

// runSummary is the JSON shape of a history entry.
type runSummary struct {
	ID            string `json:"id"`
	Sequence      int    `json:"sequence"`
	FileName      string `json:"file_name"`
	FileSize      int64  `json:"file_size"`
	Stage         string `json:"stage"`
	MaterialCount int    `json:"material_count"`
	CSVPath       string `json:"csv_path,omitempty"`
	ErrorKind     string `json:"error_kind,omitempty"`
	ErrorMessage  string `json:"error_message,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func summarize(run *models.Run) runSummary {
	return runSummary{
		ID:            run.ID(),
		Sequence:      run.Sequence(),
		FileName:      run.FileName,
		FileSize:      run.FileSize,
		Stage:         string(run.Stage),
		MaterialCount: run.MaterialCount,
		CSVPath:       run.CSVPath,
		ErrorKind:     run.ErrorKind,
		ErrorMessage:  run.ErrorMessage,
		CreatedAt:     run.CreatedAt().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// HistoryList prints recorded runs, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	db, repo, err := r.openHistory()
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := repo.List(map[string]any{
		"stage": cmd.String("stage"),
		"limit": int(cmd.Int("limit")),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := make([]runSummary, len(runs))
		for i, run := range runs {
			out[i] = summarize(run)
		}
		return r.writeJSON(out, true)
	}

	if len(runs) == 0 {
		return r.writePlain("No runs recorded.\n")
	}

	r.writePlainHeader(fmt.Sprintf("Runs (%d)", len(runs)))
	for _, run := range runs {
		r.writePlain("#%-4d %-10s %-32s %10s  %s\n",
			run.Sequence(), run.Stage, run.FileName, shared.FormatBytes(run.FileSize),
			run.CreatedAt().Format("2006-01-02 15:04"))
		if run.ErrorMessage != "" {
			r.writePlain("      %s: %s\n", run.ErrorKind, run.ErrorMessage)
		}
	}
	return nil
}

// HistoryShow prints one run and its extracted materials.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	run, err := r.lookupRun(cmd.StringArg("sequence"))
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Run #%d: %s", run.Sequence(), run.FileName))
	r.writePlain("ID:        %s\n", run.ID())
	r.writePlain("Stage:     %s\n", run.Stage)
	r.writePlain("Size:      %s\n", shared.FormatBytes(run.FileSize))
	r.writePlain("Created:   %s\n", run.CreatedAt().Format("2006-01-02 15:04:05"))
	if run.CSVPath != "" {
		r.writePlain("CSV:       %s\n", run.CSVPath)
	}
	if run.ErrorMessage != "" {
		r.writePlain("Error:     %s (%s)\n", run.ErrorMessage, run.ErrorKind)
	}

	if run.Materials.Empty() {
		return r.writePlainln("No materials recorded.")
	}
	r.writePlain("\n")
	return r.writeMaterials(run.Materials, cmd.String("format"))
}

// HistoryExport writes a recorded run's materials to --output.
func (r *Runner) HistoryExport(ctx context.Context, cmd *cli.Command) error {
	run, err := r.lookupRun(cmd.StringArg("sequence"))
	if err != nil {
		return err
	}
	if run.Materials.Empty() {
		return fmt.Errorf("%w: run #%d has no materials", shared.ErrNoMaterials, run.Sequence())
	}

	path, err := formatter.WriteExport(run.Materials, cmd.String("format"), cmd.String("output"))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Exported %d materials to %s\n", run.Materials.Len(), path)
}

func (r *Runner) lookupRun(arg string) (*models.Run, error) {
	if arg == "" {
		return nil, fmt.Errorf("%w: run sequence is required", shared.ErrMissingArgument)
	}
	sequence, err := strconv.Atoi(arg)
	if err != nil || sequence <= 0 {
		return nil, fmt.Errorf("%w: run sequence must be a positive number (got %q)", shared.ErrInvalidArgument, arg)
	}

	db, repo, err := r.openHistory()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return repo.GetBySequence(sequence)
}
