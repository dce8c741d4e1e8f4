package workflow

import "github.com/desertthunder/ifcmat/internal/models"

// Stage is one phase of the linear workflow.
type Stage int

const (
	Idle Stage = iota
	Uploading
	Uploaded
	Processing
	Processed
	DownloadReady
	Error
)

func (s Stage) String() string {
	switch s {
	case Idle:
		return "idle"
	case Uploading:
		return "uploading"
	case Uploaded:
		return "uploaded"
	case Processing:
		return "processing"
	case Processed:
		return "processed"
	case DownloadReady:
		return "download-ready"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// reached reports whether s is a non-error stage at or beyond target.
func (s Stage) reached(target Stage) bool {
	return s != Error && s >= target
}

// Session is the single active workflow instance.
type Session struct {
	Stage Stage

	// File is the selected upload, present from selection until the session returns to Idle.
	File *models.UploadFile

	// Progress is the upload indicator in percent.
	Progress float64

	Materials     models.MaterialList
	ResultVisible bool

	// ProcessBusy drives the processing spinner.
	ProcessBusy bool
	Downloading bool

	// PriorStage is the last good stage before entering Error.
	PriorStage Stage
	LastError  *Failure

	// Message is the last server-supplied message.
	Message   string
	SavedPath string
	RunID     string
	Attempt   int
}

// InFlight reports whether a remote call or the settle delay is outstanding.
func (s Session) InFlight() bool {
	return s.Stage == Uploading || s.Stage == Processing || s.Downloading
}

// Controls is the enablement of each user action for a session.
type Controls struct {
	Submit   bool
	Process  bool
	Download bool
	Reset    bool

	// ProcessBusy marks the process control as disabled because extraction is running.
	ProcessBusy bool
}

// ControlsFor derives the enabled actions from s.
//
// | stage                   | submit | process           | download            |
// |-------------------------|--------|-------------------|---------------------|
// | Idle                    | yes    | no                | no                  |
// | Uploading               | no     | no                | no                  |
// | Uploaded                | yes    | yes               | no                  |
// | Processing              | no     | no (busy)         | no                  |
// | Processed/DownloadReady | yes    | yes               | yes                 |
// | Error                   | yes    | prior ≥ Uploaded  | materials present   |
//
// A download in flight disables everything.
func ControlsFor(s Session) Controls {
	c := Controls{ProcessBusy: s.ProcessBusy}
	if s.InFlight() {
		return c
	}

	c.Submit = true
	c.Reset = true

	switch s.Stage {
	case Uploaded:
		c.Process = true
	case Processed, DownloadReady:
		c.Process = true
		c.Download = !s.Materials.Empty()
	case Error:
		c.Process = s.PriorStage.reached(Uploaded)
		c.Download = !s.Materials.Empty()
	}
	return c
}
