package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/ifcmat/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "ifcmat",
		Usage:    "Upload IFC models, extract material lists and export them as CSV",
		Version:  "0.1.0",
		Flags:    runner.globalFlags(),
		Before:   runner.configure,
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
