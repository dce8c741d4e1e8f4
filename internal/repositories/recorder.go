package repositories

import (
	"github.com/desertthunder/ifcmat/internal/models"
	"github.com/desertthunder/ifcmat/internal/workflow"
)

// HistoryRecorder implements [workflow.Recorder] using [RunRepository].
//
// An upload creates the run; later stages update it in place.
type HistoryRecorder struct {
	repo *RunRepository
}

var _ workflow.Recorder = (*HistoryRecorder)(nil)

// NewHistoryRecorder creates a new HistoryRecorder with the given repository
func NewHistoryRecorder(repo *RunRepository) *HistoryRecorder {
	return &HistoryRecorder{repo: repo}
}

func (h *HistoryRecorder) RecordUpload(file *models.UploadFile, failure *workflow.Failure) (string, error) {
	run := models.NewRun(0, file.Name, file.Size)
	if failure != nil {
		run.Stage = models.RunFailed
		run.ErrorKind = failure.Kind.String()
		run.ErrorMessage = failure.Error()
	}

	if err := h.repo.Create(run); err != nil {
		return "", err
	}
	return run.ID(), nil
}

func (h *HistoryRecorder) RecordProcess(runID string, materials models.MaterialList, failure *workflow.Failure) error {
	if failure != nil {
		return h.repo.MarkFailed(runID, failure.Kind.String(), failure.Error())
	}
	if materials == nil {
		materials = models.MaterialList{}
	}
	return h.repo.MarkProcessed(runID, materials)
}

func (h *HistoryRecorder) RecordDownload(runID, path string, failure *workflow.Failure) error {
	if failure != nil {
		return h.repo.SetError(runID, failure.Kind.String(), failure.Error())
	}
	return h.repo.MarkDownloaded(runID, path)
}
