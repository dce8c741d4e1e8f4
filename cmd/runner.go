package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ifcmat/internal/repositories"
	"github.com/desertthunder/ifcmat/internal/services"
	"github.com/desertthunder/ifcmat/internal/shared"
	"github.com/desertthunder/ifcmat/internal/workflow"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	client     *services.Client
	backend    workflow.Backend
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	status     io.Writer
	openFile   func(path string) error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	// Backend replaces the HTTP client built from Config.
	Backend    workflow.Backend
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	// Status receives progress bars; defaults to stderr.
	Status   io.Writer
	OpenFile func(path string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Status == nil {
		opts.Status = os.Stderr
	}
	if opts.OpenFile == nil {
		opts.OpenFile = shared.OpenFile
	}

	r := &Runner{
		configPath: opts.ConfigPath,
		backend:    opts.Backend,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		status:     opts.Status,
		openFile:   opts.OpenFile,
	}
	r.apply(opts.Config)
	return r
}

// apply installs config and rebuilds the backend client from it.
func (r *Runner) apply(config *shared.Config) {
	r.config = config
	r.logger.SetLevel(shared.ParseLogLevel(config.Log.Level))
	r.client = services.NewClient(services.ClientOpts{
		BaseURL:    config.Server.BaseURL,
		HTTPClient: r.httpClient,
		Timeout:    config.Server.Timeout,
		FieldName:  config.Upload.FieldName,
		LoginPath:  config.Server.LoginPath,
		Logger:     r.logger,
	})
}

func (r *Runner) globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug logging",
		},
		&cli.StringFlag{
			Name:  "server",
			Usage: "Override server.base_url",
		},
	}
}

// configure loads the configuration named by --config before any command runs.
//
// A missing file is only an error when the flag was given explicitly.
func (r *Runner) configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")

	var (
		config *shared.Config
		err    error
	)
	if cmd.IsSet("config") {
		config, err = shared.LoadConfig(path)
	} else {
		config, err = shared.LoadOrDefault(path)
	}
	if err != nil {
		return ctx, err
	}

	if server := cmd.String("server"); server != "" {
		config.Server.BaseURL = server
	}

	r.configPath = path
	r.apply(config)
	if cmd.Bool("verbose") {
		r.logger.SetLevel(log.DebugLevel)
	}
	return ctx, nil
}

// SetLogger replaces the logger used by commands and the backend client.
func (r *Runner) SetLogger(logger *log.Logger) {
	level := r.logger.GetLevel()
	r.logger = logger
	r.apply(r.config)
	r.logger.SetLevel(level)
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, loginCommand, runCommand, historyCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// workflowBackend returns the injected backend or the HTTP client.
func (r *Runner) workflowBackend() workflow.Backend {
	if r.backend != nil {
		return r.backend
	}
	return r.client
}

// workflowOptions maps the config onto controller options with an optional download dir override.
func (r *Runner) workflowOptions(dir string) workflow.Options {
	opts := workflow.OptionsFromConfig(r.config)
	if dir != "" {
		opts.Saver = workflow.DirSaver{Dir: dir}
	}
	opts.Logger = r.logger
	return opts
}

// openHistory opens the run history and returns its repository.
func (r *Runner) openHistory() (*sql.DB, *repositories.RunRepository, error) {
	db, err := shared.OpenHistory(r.config.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history: %w", err)
	}
	return db, repositories.NewRunRepository(db), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
