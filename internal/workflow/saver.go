package workflow

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/ifcmat/internal/models"
	"github.com/desertthunder/ifcmat/internal/shared"
)

// Saver persists a downloaded artifact under name and returns where it was written.
type Saver interface {
	Save(name string, artifact *models.Artifact) (string, error)
}

// DirSaver writes artifacts into Dir, replacing any existing file atomically.
type DirSaver struct {
	Dir string
}

func (s DirSaver) Save(name string, artifact *models.Artifact) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("%w: file name %q", shared.ErrInvalidArgument, name)
	}
	if artifact == nil || artifact.Released() {
		return "", fmt.Errorf("%w: artifact has no payload", shared.ErrInvalidResponse)
	}

	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+"-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to set permissions on %s: %w", name, err)
	}
	if _, err := tmp.Write(artifact.Bytes()); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}

	dest := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", name, err)
	}

	if abs, err := filepath.Abs(dest); err == nil {
		dest = abs
	}
	return dest, nil
}
