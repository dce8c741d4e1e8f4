package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/desertthunder/ifcmat/internal/formatter"
	"github.com/desertthunder/ifcmat/internal/models"
	"github.com/desertthunder/ifcmat/internal/repositories"
	"github.com/desertthunder/ifcmat/internal/shared"
	"github.com/desertthunder/ifcmat/internal/workflow"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

const (
	stageUpload   = "upload"
	stageProcess  = "process"
	stageDownload = "download"
)

// Run uploads the file argument, extracts its materials and saves the CSV export.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("file")
	if path == "" {
		return fmt.Errorf("%w: file path is required", shared.ErrMissingArgument)
	}

	until := strings.ToLower(cmd.String("until"))
	switch until {
	case stageUpload, stageProcess, stageDownload:
	default:
		return fmt.Errorf("%w: --until must be upload, process or download (got %q)", shared.ErrInvalidArgument, until)
	}

	if err := r.authenticate(ctx, r.config.Credentials); err != nil {
		return err
	}

	opts := r.workflowOptions(cmd.String("dir"))
	opts.Notify = r.logNotice
	if !cmd.Bool("no-history") {
		db, recorder, err := r.historyRecorder()
		if err != nil {
			r.logger.Warn("run history disabled", "error", err)
		} else {
			defer db.Close()
			opts.Recorder = recorder
		}
	}

	loop := workflow.NewLoop(ctx, r.workflowBackend(), opts)
	defer loop.Close()
	ctrl := loop.Controller()

	if err := ctrl.SelectPath(path); err != nil {
		return err
	}

	bar := r.newUploadBar(ctrl.Session().File)
	loop.Watch = func(_ workflow.Msg, s workflow.Session) {
		if bar != nil && s.Stage == workflow.Uploading {
			bar.set(s.Progress)
		}
	}

	s, err := r.step(ctx, loop, ctrl.Submit)
	if bar != nil {
		bar.finish(s.Progress >= 100)
	}
	if err != nil {
		return err
	}
	if until == stageUpload {
		return r.writePlain("✓ Uploaded %s\n", s.File.Name)
	}

	if s, err = r.step(ctx, loop, ctrl.Process); err != nil {
		return err
	}
	if err := r.writeMaterials(s.Materials, cmd.String("format")); err != nil {
		return err
	}
	if until == stageProcess || s.Materials.Empty() {
		return nil
	}

	if s, err = r.step(ctx, loop, ctrl.Download); err != nil {
		return err
	}
	if err := r.writePlain("✓ Saved %s\n", s.SavedPath); err != nil {
		return err
	}

	if cmd.Bool("open") {
		if err := r.openFile(s.SavedPath); err != nil {
			r.logger.Warn("could not open CSV", "path", s.SavedPath, "error", err)
		}
	}
	return nil
}

// step starts one controller action and waits until its call settles.
//
// A failed stage is reported through the session's last error.
func (r *Runner) step(ctx context.Context, loop *workflow.Loop, action func() (workflow.Task, error)) (workflow.Session, error) {
	ctrl := loop.Controller()
	task, err := action()
	if err != nil {
		return ctrl.Session(), err
	}
	before := ctrl.Session().LastError

	loop.Start(task)
	s, err := loop.Await(ctx, workflow.Settled)
	if err != nil {
		return s, err
	}
	if s.LastError != nil && s.LastError != before {
		return s, s.LastError
	}
	return s, nil
}

func (r *Runner) writeMaterials(list models.MaterialList, format string) error {
	if format == "" || format == "table" {
		return r.writePlain("%s\n", formatter.NewTable(list).Render())
	}

	data, err := formatter.Export(list, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// logNotice mirrors workflow notices into the log.
func (r *Runner) logNotice(n workflow.Notice) {
	switch n.Level {
	case workflow.LevelError:
		r.logger.Error(n.Text, "kind", n.Kind)
	case workflow.LevelWarning:
		r.logger.Warn(n.Text)
	default:
		r.logger.Info(n.Text)
	}
}

func (r *Runner) historyRecorder() (*sql.DB, workflow.Recorder, error) {
	db, repo, err := r.openHistory()
	if err != nil {
		return nil, nil, err
	}
	return db, repositories.NewHistoryRecorder(repo), nil
}

// uploadBar renders upload percent on a terminal.
type uploadBar struct {
	bar *progressbar.ProgressBar
}

// newUploadBar returns nil unless status output is an interactive terminal.
func (r *Runner) newUploadBar(file *models.UploadFile) *uploadBar {
	f, ok := r.status.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil
	}
	return newUploadBar(f, file)
}

func newUploadBar(w io.Writer, file *models.UploadFile) *uploadBar {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetDescription(fmt.Sprintf("Uploading %s (%s)", file.Name, shared.FormatBytes(file.Size))),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
	)
	return &uploadBar{bar: bar}
}

func (b *uploadBar) set(pct float64) {
	_ = b.bar.Set(int(pct))
}

func (b *uploadBar) finish(ok bool) {
	if ok {
		_ = b.bar.Finish()
		return
	}
	_ = b.bar.Exit()
}
