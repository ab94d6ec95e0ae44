package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/stash/internal/config"
	"github.com/hpungsan/stash/internal/errors"
	"github.com/hpungsan/stash/internal/ops"
	"github.com/hpungsan/stash/internal/project"
	"github.com/hpungsan/stash/internal/store"
	"github.com/hpungsan/stash/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(st *store.Store, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "stash",
		Usage:   "Project context sync store",
		Version: Version,
		Commands: []*cli.Command{
			serveCmd(st, cfg),
			syncCmd(st),
			getCmd(st),
			listCmd(st),
			historyCmd(st),
			deleteCmd(st),
			exportCmd(st, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// serveCmd creates the serve command.
func serveCmd(st *store.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Aliases: []string{"b"}, Usage: "Bind address (default from config)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Port (default from config)"},
		},
		Action: func(c *cli.Context) error {
			bind := cfg.Bind
			if c.IsSet("bind") {
				bind = c.String("bind")
			}
			port := cfg.Port
			if c.IsSet("port") {
				port = c.Int("port")
			}

			srv := web.NewServer(st, cfg, bind, port)
			return web.Run(srv)
		},
	}
}

// syncCmd creates the sync command.
func syncCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:      "sync",
		Usage:     "Save context for a project (claude_md may be piped via stdin)",
		ArgsUsage: "<project>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "summary", Aliases: []string{"s"}, Usage: "Session summary (also records a history entry)"},
			&cli.StringFlag{Name: "metadata", Aliases: []string{"m"}, Usage: "Metadata as a JSON value"},
			&cli.StringFlag{Name: "files", Usage: "File snapshot as a JSON object keyed by path"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("project name is required"))
			}

			var payload project.Payload

			if c.IsSet("summary") {
				s := c.String("summary")
				payload.Summary = &s
			}

			// Piped stdin becomes the instruction document.
			if stdinHasData() {
				text, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				if text != "" {
					payload.ClaudeMD = &text
				}
			}

			if c.IsSet("metadata") {
				raw := json.RawMessage(c.String("metadata"))
				if !json.Valid(raw) {
					return outputError(errors.NewInvalidRequest("metadata must be valid JSON"))
				}
				payload.Metadata = raw
			}

			if c.IsSet("files") {
				var files map[string]json.RawMessage
				if err := json.Unmarshal([]byte(c.String("files")), &files); err != nil {
					return outputError(errors.NewInvalidRequest("files must be a JSON object"))
				}
				payload.Files = files
			}

			output, err := ops.Sync(context.Background(), st, ops.SyncInput{
				Project: c.Args().First(),
				Payload: payload,
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// getCmd creates the get command.
func getCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Retrieve a project's stored context",
		ArgsUsage: "<project>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "files", Usage: "Include the file snapshot"},
			&cli.IntFlag{Name: "history", Usage: "Include up to N recent history entries"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("project name is required"))
			}

			output, err := ops.Get(context.Background(), st, ops.GetInput{
				Project:        c.Args().First(),
				IncludeFiles:   c.Bool("files"),
				IncludeHistory: c.Int("history"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// listCmd creates the list command.
func listCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List all projects, most recently updated first",
		Action: func(c *cli.Context) error {
			output, err := ops.List(context.Background(), st)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// historyCmd creates the history command.
func historyCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:      "history",
		Usage:     "List a project's recorded write snapshots, newest first",
		ArgsUsage: "<project>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum entries to return (default 20, max 100)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("project name is required"))
			}

			output, err := ops.History(context.Background(), st, ops.HistoryInput{
				Project: c.Args().First(),
				Limit:   c.Int("limit"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a project's record and its entire history",
		ArgsUsage: "<project>",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("project name is required"))
			}

			output, err := ops.Delete(context.Background(), st, ops.DeleteInput{
				Project: c.Args().First(),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(st *store.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export every project and its retained history to a file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.stash/exports/projects-<timestamp>.jsonl)"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "Export format: jsonl|html"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(context.Background(), st, cfg, ops.ExportInput{
				Path:   c.String("path"),
				Format: ops.ExportFormat(c.String("format")),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if sErr, ok := err.(*errors.StashError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", sErr.Code, sErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
