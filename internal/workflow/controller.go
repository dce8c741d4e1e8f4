package workflow

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ifcmat/internal/models"
	"github.com/desertthunder/ifcmat/internal/shared"
)

const (
	DefaultMaxUploadSize int64 = 200 << 20
	DefaultSettleDelay         = 500 * time.Millisecond
)

// CSVFileName is the fixed name of the saved export.
const CSVFileName = "material_list.csv"

// Options configures a [Controller].
type Options struct {
	MaxUploadSize int64
	Extension     string
	SettleDelay   time.Duration
	Progress      shared.ProgressConfig

	Saver    Saver
	Recorder Recorder
	Logger   *log.Logger

	// Dispatch delivers progress messages to the loop. It must not block.
	Dispatch func(Msg)

	// Notify receives every user-visible notice.
	Notify func(Notice)

	// NewReporter overrides the strategy chosen from Progress and the backend capability.
	NewReporter func() Reporter
}

// OptionsFromConfig maps the upload, progress and download sections of cfg.
func OptionsFromConfig(cfg *shared.Config) Options {
	return Options{
		MaxUploadSize: cfg.Upload.MaxSize,
		Extension:     cfg.Upload.Extension,
		SettleDelay:   cfg.Upload.SettleDelay,
		Progress:      cfg.Progress,
		Saver:         DirSaver{Dir: cfg.Download.Dir},
	}
}

// Controller drives one [Session] through upload, extraction and export.
//
// All methods must be called from the same goroutine (the host loop).
type Controller struct {
	backend  Backend
	opts     Options
	logger   *log.Logger
	session  Session
	reporter Reporter
}

// NewController creates a controller in the Idle stage.
func NewController(backend Backend, opts Options) *Controller {
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = DefaultMaxUploadSize
	}
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}
	if opts.Saver == nil {
		opts.Saver = DirSaver{Dir: "."}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.NewReporter == nil {
		capable := backend.SupportsProgress()
		progress, logger := opts.Progress, opts.Logger
		opts.NewReporter = func() Reporter { return NewReporter(progress, capable, logger) }
	}

	return &Controller{backend: backend, opts: opts, logger: opts.Logger}
}

// Session returns a snapshot of the current session.
func (c *Controller) Session() Session {
	s := c.session
	s.Materials = c.session.Materials.Clone()
	return s
}

// Controls returns the actions enabled for the current session.
func (c *Controller) Controls() Controls { return ControlsFor(c.session) }

// SelectPath stats path and selects it.
func (c *Controller) SelectPath(path string) error {
	if !c.Controls().Submit {
		return disabled("select")
	}

	path = strings.TrimSpace(path)
	if path == "" {
		f := Validation(shared.ErrNoFileSelected, "Please select a file.")
		c.notify(failureNotice(f))
		return f
	}

	file, err := models.NewUploadFile(path)
	if err != nil {
		f := Validation(fmt.Errorf("%w: %v", shared.ErrNoFileSelected, err), "Cannot read %s.", path)
		c.notify(failureNotice(f))
		return f
	}
	return c.Select(file)
}

// Select makes file the pending upload. Selecting after any progress resets the session first.
func (c *Controller) Select(file *models.UploadFile) error {
	if !c.Controls().Submit {
		return disabled("select")
	}
	if c.session.Stage != Idle {
		c.reset()
	}
	c.session.File = file
	return nil
}

// Submit validates the selected file locally and starts the upload.
//
// A validation failure is returned as a [Failure] with [KindLocalValidation]; the stage
// is left unchanged and no Task is produced.
func (c *Controller) Submit() (Task, error) {
	if !c.Controls().Submit {
		return nil, disabled("submit")
	}

	file := c.session.File
	if f := c.validate(file); f != nil {
		c.logger.Debug("upload rejected locally", "reason", f.Err)
		c.notify(failureNotice(f))
		return nil, f
	}

	c.stopReporter()
	attempt := c.nextAttempt()
	c.session.Stage = Uploading
	c.session.Progress = 0
	c.session.Materials = nil
	c.session.ResultVisible = false
	c.session.LastError = nil
	c.session.Message = ""
	c.session.SavedPath = ""
	c.session.RunID = ""

	reporter := c.opts.NewReporter()
	c.reporter = reporter
	reporter.Start(func(pct float64) { c.dispatch(ProgressMsg{Attempt: attempt, Percent: pct}) })

	c.logger.Info("uploading", "file", file.Name, "size", shared.FormatBytes(file.Size), "attempt", attempt)

	backend := c.backend
	return func(ctx context.Context) (msg Msg) {
		defer reporter.Stop()
		defer func() {
			if r := recover(); r != nil {
				msg = UploadDoneMsg{Attempt: attempt, Err: panicError(r)}
			}
		}()

		res, err := backend.Upload(ctx, file, reporter.Observe)
		return UploadDoneMsg{Attempt: attempt, Result: res, Err: err}
	}, nil
}

// Process starts server-side extraction of the uploaded file.
func (c *Controller) Process() (Task, error) {
	if !c.Controls().Process {
		return nil, disabled("process")
	}

	attempt := c.nextAttempt()
	c.session.Stage = Processing
	c.session.ProcessBusy = true
	c.session.Materials = nil
	c.session.ResultVisible = false
	c.session.LastError = nil

	c.logger.Info("processing", "attempt", attempt)

	backend := c.backend
	return func(ctx context.Context) (msg Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = ProcessDoneMsg{Attempt: attempt, Err: panicError(r)}
			}
		}()

		res, err := backend.Process(ctx)
		return ProcessDoneMsg{Attempt: attempt, Result: res, Err: err}
	}, nil
}

// Download fetches the CSV export and hands it to the configured [Saver].
func (c *Controller) Download() (Task, error) {
	if !c.Controls().Download {
		return nil, disabled("download")
	}
	if c.session.Materials.Empty() {
		return nil, Validation(shared.ErrNoMaterials, "There are no materials to export.")
	}

	attempt := c.nextAttempt()
	c.session.Downloading = true

	c.logger.Info("downloading", "attempt", attempt)

	backend, saver, name := c.backend, c.opts.Saver, CSVFileName
	return func(ctx context.Context) (msg Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = DownloadDoneMsg{Attempt: attempt, Err: panicError(r)}
			}
		}()

		artifact, err := backend.Download(ctx)
		if err != nil {
			return DownloadDoneMsg{Attempt: attempt, Err: err}
		}
		defer artifact.Release()

		path, err := saver.Save(name, artifact)
		if err != nil {
			return DownloadDoneMsg{Attempt: attempt, Err: err}
		}
		return DownloadDoneMsg{Attempt: attempt, Path: path, Size: artifact.Size()}
	}, nil
}

// Reset returns to Idle, discarding the file, materials and last error.
func (c *Controller) Reset() error {
	if !c.Controls().Reset {
		return disabled("reset")
	}
	c.reset()
	c.logger.Debug("session reset")
	return nil
}

// Close stops any running progress reporter. Pending Tasks resolve to stale messages.
func (c *Controller) Close() {
	c.stopReporter()
}

// Update applies msg and returns a follow-up Task, if any.
//
// Messages issued under a superseded attempt are ignored.
func (c *Controller) Update(msg Msg) Task {
	if msg == nil {
		return nil
	}
	if msg.attempt() != c.session.Attempt {
		c.logger.Debug("dropping stale message", "type", fmt.Sprintf("%T", msg), "attempt", msg.attempt(), "current", c.session.Attempt)
		return nil
	}

	switch m := msg.(type) {
	case ProgressMsg:
		if c.session.Stage == Uploading && c.session.Progress < 100 && m.Percent > c.session.Progress {
			c.session.Progress = min(m.Percent, advisoryCeiling)
		}
	case UploadDoneMsg:
		return c.finishUpload(m)
	case SettledMsg:
		if c.session.Stage == Uploading && c.session.Progress == 100 {
			c.session.Stage = Uploaded
		}
	case ProcessDoneMsg:
		c.finishProcess(m)
	case DownloadDoneMsg:
		c.finishDownload(m)
	}
	return nil
}

func (c *Controller) finishUpload(m UploadDoneMsg) Task {
	c.stopReporter()
	if c.session.Stage != Uploading {
		return nil
	}

	err := m.Err
	if err == nil && m.Result == nil {
		err = fmt.Errorf("%w: empty upload response", shared.ErrInvalidResponse)
	}
	if err != nil {
		f := Classify(err, "Upload failed.")
		c.session.Progress = 0
		c.fail(Idle, f)
		c.recordUpload(f)
		return nil
	}

	c.session.Progress = 100
	c.session.Message = m.Result.Message
	if m.Result.Message != "" {
		c.notify(successNotice(m.Result.Message))
	} else {
		c.notify(successNotice(fmt.Sprintf("Uploaded %s.", c.session.File.Name)))
	}
	c.recordUpload(nil)
	c.logger.Info("upload complete", "file", c.session.File.Name)

	if c.opts.SettleDelay == 0 {
		c.session.Stage = Uploaded
		return nil
	}
	return settle(m.Attempt, c.opts.SettleDelay)
}

func (c *Controller) finishProcess(m ProcessDoneMsg) {
	c.session.ProcessBusy = false
	if c.session.Stage != Processing {
		return
	}

	err := m.Err
	if err == nil && m.Result == nil {
		err = fmt.Errorf("%w: empty extraction response", shared.ErrInvalidResponse)
	}
	if err != nil {
		f := Classify(err, "Extraction failed.")
		c.fail(Uploaded, f)
		c.record("process", c.opts.Recorder != nil, func() error {
			return c.opts.Recorder.RecordProcess(c.session.RunID, nil, f)
		})
		return
	}

	c.session.Stage = Processed
	c.session.Materials = m.Result.Materials.Clone()
	c.session.ResultVisible = true
	c.session.Message = m.Result.Message

	switch {
	case m.Result.Message != "":
		c.notify(successNotice(m.Result.Message))
	case c.session.Materials.Empty():
		c.notify(Notice{Level: LevelWarning, Text: "No materials were found in the model."})
	default:
		c.notify(successNotice(fmt.Sprintf("Extracted %d materials.", c.session.Materials.Len())))
	}

	materials := c.session.Materials
	c.record("process", c.opts.Recorder != nil, func() error {
		return c.opts.Recorder.RecordProcess(c.session.RunID, materials, nil)
	})
	c.logger.Info("extraction complete", "materials", materials.Len())
}

func (c *Controller) finishDownload(m DownloadDoneMsg) {
	c.session.Downloading = false

	if m.Err != nil {
		f := Classify(m.Err, "Download failed.")
		c.session.LastError = f
		c.notify(failureNotice(f))
		c.logger.Error("download failed", "kind", f.Kind, "err", m.Err)
		c.record("download", c.opts.Recorder != nil, func() error {
			return c.opts.Recorder.RecordDownload(c.session.RunID, "", f)
		})
		return
	}

	if c.session.Stage == Processed {
		c.session.Stage = DownloadReady
	}
	c.session.LastError = nil
	c.session.SavedPath = m.Path
	c.notify(successNotice(fmt.Sprintf("Saved %s.", m.Path)))
	c.record("download", c.opts.Recorder != nil, func() error {
		return c.opts.Recorder.RecordDownload(c.session.RunID, m.Path, nil)
	})
	c.logger.Info("download saved", "path", m.Path, "size", shared.FormatBytes(int64(m.Size)))
}

// fail moves the session to Error, remembering prior as the last good stage.
func (c *Controller) fail(prior Stage, f *Failure) {
	c.session.PriorStage = prior
	c.session.Stage = Error
	c.session.LastError = f
	c.notify(failureNotice(f))
	c.logger.Error("stage failed", "prior", prior, "kind", f.Kind, "err", f.Err)
}

func (c *Controller) validate(file *models.UploadFile) *Failure {
	if file == nil || file.Size == 0 {
		return Validation(shared.ErrNoFileSelected, "Please select a file.")
	}
	if file.Size > c.opts.MaxUploadSize {
		return Validation(shared.ErrFileTooLarge, "%s is too large (%s, limit %s).",
			file.Name, shared.FormatBytes(file.Size), shared.FormatBytes(c.opts.MaxUploadSize))
	}
	if ext := c.opts.Extension; ext != "" && !strings.EqualFold(filepath.Ext(file.Name), ext) {
		return Validation(shared.ErrUnsupportedFile, "Only %s files can be uploaded.", ext)
	}
	return nil
}

func (c *Controller) reset() {
	c.stopReporter()
	attempt := c.nextAttempt()
	c.session = Session{Attempt: attempt}
}

func (c *Controller) nextAttempt() int {
	c.session.Attempt++
	return c.session.Attempt
}

func (c *Controller) stopReporter() {
	if c.reporter != nil {
		c.reporter.Stop()
		c.reporter = nil
	}
}

func (c *Controller) dispatch(msg Msg) {
	if c.opts.Dispatch != nil {
		c.opts.Dispatch(msg)
	}
}

func (c *Controller) notify(n Notice) {
	if c.opts.Notify != nil {
		c.opts.Notify(n)
	}
}

func (c *Controller) recordUpload(f *Failure) {
	if c.opts.Recorder == nil {
		return
	}
	id, err := c.opts.Recorder.RecordUpload(c.session.File, f)
	if err != nil {
		c.logger.Warn("failed to record upload", "err", err)
		return
	}
	c.session.RunID = id
}

func (c *Controller) record(stage string, enabled bool, fn func() error) {
	if !enabled || c.session.RunID == "" {
		return
	}
	if err := fn(); err != nil {
		c.logger.Warn("failed to record run", "stage", stage, "err", err)
	}
}

func settle(attempt int, d time.Duration) Task {
	return func(ctx context.Context) Msg {
		timer := time.NewTimer(d)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
		}
		return SettledMsg{Attempt: attempt}
	}
}

func disabled(action string) error {
	return fmt.Errorf("%w: %s", shared.ErrControlDisabled, action)
}

func panicError(r any) error {
	return fmt.Errorf("%w: unexpected failure: %v", shared.ErrAPIRequest, r)
}
