package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")

	// Local validation errors (never reach the network)
	ErrNoFileSelected  = fmt.Errorf("no file selected")
	ErrFileTooLarge    = fmt.Errorf("file too large")
	ErrUnsupportedFile = fmt.Errorf("unsupported file type")

	// Backend errors
	ErrAPIRequest       = fmt.Errorf("API request failed")
	ErrUnexpectedStatus = fmt.Errorf("unexpected HTTP status")
	ErrInvalidResponse  = fmt.Errorf("invalid response body")
	ErrRejected         = fmt.Errorf("request rejected by server")

	// Workflow errors
	ErrControlDisabled = fmt.Errorf("control is disabled")
	ErrNoMaterials     = fmt.Errorf("no materials extracted")
	ErrRunNotFound     = fmt.Errorf("run not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
