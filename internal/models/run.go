package models

import (
	"fmt"
	"time"
)

// RunStage is the furthest stage a persisted run reached.
type RunStage string

const (
	RunUploaded   RunStage = "uploaded"
	RunProcessed  RunStage = "processed"
	RunDownloaded RunStage = "downloaded"
	RunFailed     RunStage = "failed"
)

// Run is one workflow run kept in the local history.
type Run struct {
	id            string
	sequence      int
	FileName      string
	FileSize      int64
	Stage         RunStage
	Materials     MaterialList
	MaterialCount int
	CSVPath       string
	ErrorKind     string
	ErrorMessage  string
	createdAt     time.Time
	updatedAt     time.Time
	deletedAt     *time.Time
}

var _ Model = (*Run)(nil)

// NewRun creates a run for an uploaded file.
func NewRun(sequence int, fileName string, fileSize int64) *Run {
	now := time.Now()
	return &Run{
		sequence:  sequence,
		FileName:  fileName,
		FileSize:  fileSize,
		Stage:     RunUploaded,
		createdAt: now,
		updatedAt: now,
	}
}

func (r *Run) ID() string            { return r.id }
func (r *Run) Sequence() int         { return r.sequence }
func (r *Run) CreatedAt() time.Time  { return r.createdAt }
func (r *Run) UpdatedAt() time.Time  { return r.updatedAt }
func (r *Run) DeletedAt() *time.Time { return r.deletedAt }

func (r *Run) SetID(id string)           { r.id = id }
func (r *Run) SetSequence(seq int)       { r.sequence = seq }
func (r *Run) SetCreatedAt(t time.Time)  { r.createdAt = t }
func (r *Run) SetUpdatedAt(t time.Time)  { r.updatedAt = t }
func (r *Run) SetDeletedAt(t *time.Time) { r.deletedAt = t }

// Validate checks required fields.
func (r *Run) Validate() error {
	if r.FileName == "" {
		return fmt.Errorf("file name is required")
	}
	if r.FileSize < 0 {
		return fmt.Errorf("file size must not be negative")
	}
	switch r.Stage {
	case RunUploaded, RunProcessed, RunDownloaded, RunFailed:
	default:
		return fmt.Errorf("unknown run stage %q", r.Stage)
	}
	return nil
}
