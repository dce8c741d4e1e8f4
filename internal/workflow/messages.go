package workflow

import (
	"context"

	"github.com/desertthunder/ifcmat/internal/models"
	"github.com/desertthunder/ifcmat/internal/services"
)

// Task is a unit of work run off-loop by the host. It always returns a Msg.
type Task func(ctx context.Context) Msg

// Msg is a result fed back into [Controller.Update].
type Msg interface {
	attempt() int
}

// ProgressMsg carries an advisory upload percentage.
type ProgressMsg struct {
	Attempt int
	Percent float64
}

// UploadDoneMsg is the outcome of the upload call.
type UploadDoneMsg struct {
	Attempt int
	Result  *services.UploadResponse
	Err     error
}

// SettledMsg ends the settle delay after a successful upload.
type SettledMsg struct {
	Attempt int
}

// ProcessDoneMsg is the outcome of the extraction call.
type ProcessDoneMsg struct {
	Attempt int
	Result  *services.ProcessResponse
	Err     error
}

// DownloadDoneMsg is the outcome of the export call and the save.
type DownloadDoneMsg struct {
	Attempt int
	Path    string
	Size    int
	Err     error
}

func (m ProgressMsg) attempt() int     { return m.Attempt }
func (m UploadDoneMsg) attempt() int   { return m.Attempt }
func (m SettledMsg) attempt() int      { return m.Attempt }
func (m ProcessDoneMsg) attempt() int  { return m.Attempt }
func (m DownloadDoneMsg) attempt() int { return m.Attempt }

// Backend is the remote extraction service.
type Backend interface {
	Upload(ctx context.Context, file *models.UploadFile, onProgress func(sent, total int64)) (*services.UploadResponse, error)
	Process(ctx context.Context) (*services.ProcessResponse, error)
	Download(ctx context.Context) (*models.Artifact, error)

	// SupportsProgress reports whether Upload invokes onProgress with byte counts.
	SupportsProgress() bool
}

// Recorder is notified of stage outcomes. Errors are logged and never affect the workflow.
type Recorder interface {
	RecordUpload(file *models.UploadFile, failure *Failure) (runID string, err error)
	RecordProcess(runID string, materials models.MaterialList, failure *Failure) error
	RecordDownload(runID string, path string, failure *Failure) error
}
