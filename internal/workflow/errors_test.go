package workflow

import (
	"errors"
	"fmt"
	"testing"

	"github.com/desertthunder/ifcmat/internal/services"
	"github.com/desertthunder/ifcmat/internal/shared"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		fallback string
		kind     Kind
		message  string
		sentinel error
	}{
		{
			name:     "server message wins",
			err:      &services.APIError{Op: "process", Message: "no elements", Err: shared.ErrRejected},
			fallback: "Extraction failed.",
			kind:     KindApplication,
			message:  "no elements",
			sentinel: shared.ErrRejected,
		},
		{
			name:     "fallback without server message",
			err:      &services.APIError{Op: "download", StatusCode: 500, Err: shared.ErrUnexpectedStatus},
			fallback: "Download failed.",
			kind:     KindTransport,
			message:  "Download failed.",
			sentinel: shared.ErrUnexpectedStatus,
		},
		{
			name:     "protocol",
			err:      fmt.Errorf("%w: truncated", shared.ErrInvalidResponse),
			fallback: "Upload failed.",
			kind:     KindProtocol,
			message:  "Upload failed.",
			sentinel: shared.ErrInvalidResponse,
		},
		{
			name:    "unknown errors are transport",
			err:     errors.New("dial tcp: connection refused"),
			kind:    KindTransport,
			message: "dial tcp: connection refused",
		},
		{
			name:     "validation sentinel",
			err:      fmt.Errorf("%w: empty", shared.ErrNoFileSelected),
			fallback: "Please select a file.",
			kind:     KindLocalValidation,
			message:  "Please select a file.",
			sentinel: shared.ErrNoFileSelected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Classify(tt.err, tt.fallback)
			if f.Kind != tt.kind {
				t.Errorf("expected kind %v, got %v", tt.kind, f.Kind)
			}
			if f.Error() != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, f.Error())
			}
			if tt.sentinel != nil && !errors.Is(f, tt.sentinel) {
				t.Errorf("expected failure to wrap %v", tt.sentinel)
			}
		})
	}

	t.Run("nil", func(t *testing.T) {
		if Classify(nil, "x") != nil {
			t.Error("expected nil failure")
		}
	})

	t.Run("existing failure is kept", func(t *testing.T) {
		orig := Validation(shared.ErrFileTooLarge, "too big")
		if got := Classify(fmt.Errorf("wrapped: %w", orig), "other"); got != orig {
			t.Errorf("expected the original failure, got %+v", got)
		}
	})
}

func TestStageAndKindStrings(t *testing.T) {
	if Processed.String() != "processed" || Stage(42).String() != "unknown" {
		t.Error("unexpected stage names")
	}
	if KindProtocol.String() != "protocol" || Kind(0).String() != "unknown" {
		t.Error("unexpected kind names")
	}
	if LevelWarning.String() != "warning" || Level(9).String() != "info" {
		t.Error("unexpected level names")
	}
}
