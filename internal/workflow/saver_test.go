package workflow

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/desertthunder/ifcmat/internal/models"
	"github.com/desertthunder/ifcmat/internal/shared"
	tu "github.com/desertthunder/ifcmat/internal/testing"
)

func TestDirSaver(t *testing.T) {
	t.Run("writes and replaces", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "exports")
		s := DirSaver{Dir: dir}

		for _, content := range []string{"first\n", "second\n"} {
			path, err := s.Save(CSVFileName, models.NewArtifact("x.csv", "text/csv", []byte(content)))
			if err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			if got := tu.MustReadFile(t, path); got != content {
				t.Errorf("expected %q, got %q", content, got)
			}
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 {
			t.Errorf("expected only the CSV to remain, got %d entries", len(entries))
		}
	})

	t.Run("saved file is world readable", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("unix permission bits")
		}
		path, err := DirSaver{Dir: t.TempDir()}.Save(CSVFileName, models.NewArtifact("x.csv", "text/csv", []byte("a\n")))
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if mode := info.Mode().Perm(); mode != 0644 {
			t.Errorf("expected mode 0644, got %#o", mode)
		}
	})

	t.Run("rejects paths as names", func(t *testing.T) {
		s := DirSaver{Dir: t.TempDir()}
		_, err := s.Save("../escape.csv", models.NewArtifact("x", "", []byte("a")))
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("rejects released artifacts", func(t *testing.T) {
		a := models.NewArtifact("x", "", []byte("a"))
		a.Release()
		_, err := DirSaver{Dir: t.TempDir()}.Save(CSVFileName, a)
		if !errors.Is(err, shared.ErrInvalidResponse) {
			t.Errorf("expected ErrInvalidResponse, got %v", err)
		}
	})
}
