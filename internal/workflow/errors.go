package workflow

import (
	"errors"
	"fmt"

	"github.com/desertthunder/ifcmat/internal/services"
	"github.com/desertthunder/ifcmat/internal/shared"
)

// Kind classifies a [Failure].
type Kind int

const (
	KindLocalValidation Kind = iota + 1
	KindTransport
	KindProtocol
	KindApplication
)

func (k Kind) String() string {
	switch k {
	case KindLocalValidation:
		return "validation"
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindApplication:
		return "application"
	default:
		return "unknown"
	}
}

// Failure is the tagged outcome of a failed stage.
type Failure struct {
	Kind    Kind
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Message != "" {
		return f.Message
	}
	if f.Err != nil {
		return f.Err.Error()
	}
	return f.Kind.String() + " failure"
}

func (f *Failure) Unwrap() error { return f.Err }

// Validation builds a local validation failure.
func Validation(err error, format string, args ...any) *Failure {
	return &Failure{Kind: KindLocalValidation, Message: fmt.Sprintf(format, args...), Err: err}
}

// Classify converts err into a [Failure] for the given stage. fallback is used when no
// more specific message is available.
//
// A server-supplied message is preferred over the fallback.
func Classify(err error, fallback string) *Failure {
	if err == nil {
		return nil
	}

	var f *Failure
	if errors.As(err, &f) {
		return f
	}

	out := &Failure{Kind: classifyKind(err), Err: err}

	var apiErr *services.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.Message != "":
		out.Message = apiErr.Message
	case fallback != "":
		out.Message = fallback
	default:
		out.Message = err.Error()
	}
	return out
}

func classifyKind(err error) Kind {
	switch {
	case errors.Is(err, shared.ErrNoFileSelected),
		errors.Is(err, shared.ErrFileTooLarge),
		errors.Is(err, shared.ErrUnsupportedFile):
		return KindLocalValidation
	case errors.Is(err, shared.ErrInvalidResponse):
		return KindProtocol
	case errors.Is(err, shared.ErrRejected), errors.Is(err, shared.ErrNoMaterials):
		return KindApplication
	default:
		return KindTransport
	}
}

// Level is the severity of a [Notice].
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notice is one user-visible notification.
type Notice struct {
	Level Level
	Text  string

	// Kind is set for error notices.
	Kind Kind
}

func infoNotice(text string) Notice    { return Notice{Level: LevelInfo, Text: text} }
func successNotice(text string) Notice { return Notice{Level: LevelSuccess, Text: text} }

func failureNotice(f *Failure) Notice {
	return Notice{Level: LevelError, Text: f.Error(), Kind: f.Kind}
}
