// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// configFlag is shared by every command that touches the database.
func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand handles setup operations for database and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles Google authorization.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Google authorization",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Sign in with Google and store the credential",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show the stored credential and its expiry",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthStatus,
			},
		},
	}
}

// syncCommand runs the full library sync.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "sync",
		Usage:  "Mirror playlists, liked and watch-later videos into the local library",
		Flags:  []cli.Flag{configFlag()},
		Action: r.SyncRun,
	}
}

// tagsCommand handles tag operations on the local library.
func tagsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tags",
		Aliases: []string{"tag"},
		Usage:   "Tag and annotate videos",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List tags",
				Flags:  []cli.Flag{configFlag()},
				Action: r.TagsList,
			},
			{
				Name:  "add",
				Usage: "Tag a video, creating the tag if needed",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "video"},
					&cli.StringArg{Name: "name"},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.TagsAdd,
			},
			{
				Name:    "remove",
				Aliases: []string{"rm"},
				Usage:   "Remove a tag from a video",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "video"},
					&cli.StringArg{Name: "name"},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.TagsRemove,
			},
			{
				Name:  "note",
				Usage: "Set the note on a video",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "video"},
					&cli.StringArg{Name: "text"},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.TagsNote,
			},
			{
				Name:  "export",
				Usage: "Export a tag's videos to CSV, Markdown or plain text",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: csv, markdown or text",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path (default: derived from the tag name)",
					},
				},
				Action: r.TagsExport,
			},
		},
	}
}

// snapshotCommand handles the Drive snapshot of the tag layer.
func snapshotCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "snapshot",
		Usage: "Back up and restore tags via Google Drive",
		Commands: []*cli.Command{
			{
				Name:   "save",
				Usage:  "Export tags, links and notes to Drive",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SnapshotSave,
			},
			{
				Name:   "load",
				Usage:  "Import tags, links and notes from Drive",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SnapshotLoad,
			},
		},
	}
}

// serveCommand starts the local HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Serve the library over a local HTTP API",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for interactive browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive library browser",
		Flags:   []cli.Flag{configFlag()},
		Action:  r.TUI,
	}
}
