// package backend provides a scriptable extraction backend for workflow tests.
//
// It lives apart from the shared testing helpers so that the services
// package can use those helpers in its own tests.
package backend

import (
	"context"
	"sync"

	"github.com/desertthunder/ifcmat/internal/models"
	"github.com/desertthunder/ifcmat/internal/services"
	tu "github.com/desertthunder/ifcmat/internal/testing"
)

// Mock is a test double for the extraction backend.
//
// Nil funcs fall back to successful responses. Call counters are safe for concurrent use.
type Mock struct {
	UploadFunc   func(ctx context.Context, file *models.UploadFile, onProgress func(sent, total int64)) (*services.UploadResponse, error)
	ProcessFunc  func(ctx context.Context) (*services.ProcessResponse, error)
	DownloadFunc func(ctx context.Context) (*models.Artifact, error)
	Progress     bool

	mu            sync.Mutex
	uploadCalls   int
	processCalls  int
	downloadCalls int
}

func (m *Mock) Upload(ctx context.Context, file *models.UploadFile, onProgress func(sent, total int64)) (*services.UploadResponse, error) {
	m.mu.Lock()
	m.uploadCalls++
	m.mu.Unlock()

	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, file, onProgress)
	}
	if onProgress != nil {
		onProgress(file.Size, file.Size)
	}
	return &services.UploadResponse{Success: true, Message: "OK"}, nil
}

func (m *Mock) Process(ctx context.Context) (*services.ProcessResponse, error) {
	m.mu.Lock()
	m.processCalls++
	m.mu.Unlock()

	if m.ProcessFunc != nil {
		return m.ProcessFunc(ctx)
	}
	return &services.ProcessResponse{Success: true, Materials: tu.SampleMaterials()}, nil
}

func (m *Mock) Download(ctx context.Context) (*models.Artifact, error) {
	m.mu.Lock()
	m.downloadCalls++
	m.mu.Unlock()

	if m.DownloadFunc != nil {
		return m.DownloadFunc(ctx)
	}
	return models.NewArtifact("material_list.csv", "text/csv", []byte("name,element_type\nBeam1,beam\n")), nil
}

func (m *Mock) SupportsProgress() bool { return m.Progress }

// Calls returns how many times each endpoint was invoked.
func (m *Mock) Calls() (upload, process, download int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uploadCalls, m.processCalls, m.downloadCalls
}
