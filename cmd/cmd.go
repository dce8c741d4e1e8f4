// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand initializes the configuration file and run history database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml if missing, then initialize the history database",
		Action: r.Setup,
	}
}

// loginCommand checks credentials against the backend.
func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Verify backend credentials (form login or a copied browser cURL command)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "username",
				Aliases: []string{"u"},
				Usage:   "Backend username (defaults to credentials.username)",
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Backend password (defaults to credentials.password)",
			},
			&cli.StringFlag{
				Name:  "curl-file",
				Usage: "Path to a file containing a cURL command with the session cookie",
			},
		},
		Action: r.Login,
	}
}

// runCommand drives the full upload, extraction and export pipeline without the TUI.
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Upload an IFC file, extract its materials and save the CSV export",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "file"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "until",
				Usage: "Stop after this stage: upload, process or download",
				Value: stageDownload,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Material list output: table, csv, markdown, text or json",
				Value:   "table",
			},
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"o"},
				Usage:   "Directory for the CSV export (defaults to download.dir)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the saved CSV with the default application",
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not record the run in the history database",
			},
		},
		Action: r.Run,
	}
}

// historyCommand lists and re-exports recorded runs.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect recorded runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent runs, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to return",
						Value: 20,
					},
					&cli.StringFlag{
						Name:  "stage",
						Usage: "Only runs in this stage (uploaded, processed, downloaded, failed)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:  "show",
				Usage: "Show a run and its extracted materials",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "sequence"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Material list output: table, csv, markdown, text or json",
						Value:   "table",
					},
				},
				Action: r.HistoryShow,
			},
			{
				Name:  "export",
				Usage: "Write a recorded run's materials to a file",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "sequence"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: csv, markdown, text or json",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "Output file path",
						Required: true,
					},
				},
				Action: r.HistoryExport,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for the interactive workflow.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive upload and extraction TUI",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not record runs in the history database",
			},
		},
		Action: r.TUI,
	}
}
