package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aretw0/tabnotes/pkg/core"
)

func parseID(arg string) (core.NoteID, error) {
	n, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid note id %q", arg)
	}
	return core.NoteID(n), nil
}

func newNewCmd(g *globalFlags) *cobra.Command {
	var title, markdown string

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a note and print its id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := g.open(slog.Default())
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			svc := app.Service()
			current, err := svc.Load(ctx)
			if err != nil {
				return fmt.Errorf("failed to load notes: %w", err)
			}
			id, next, err := svc.NewNote(ctx, current)
			if err != nil {
				return err
			}

			patch := core.Patch{}
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("markdown") {
				patch.Markdown = &markdown
			}
			if _, err := svc.Edit(ctx, next, id, patch); err != nil {
				return err
			}

			outf(cmd, "%d\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Note title")
	cmd.Flags().StringVar(&markdown, "markdown", "", "Note body")
	return cmd
}

func newReadCmd(g *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "read <id>",
		Short: "Print a note",
		Long:  `Print the markdown body of a note, or the whole note as JSON with --json.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			app, _, err := g.open(slog.Default())
			if err != nil {
				return err
			}
			defer app.Close()

			store, err := app.Store().Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load notes: %w", err)
			}
			note, ok := store[id]
			if !ok {
				return fmt.Errorf("%w: %d", core.ErrNoteNotFound, id)
			}

			if asJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(listEntry{ID: id, Title: note.Title, Markdown: note.Markdown, TimeLastModified: note.TimeLastModified})
			}
			outf(cmd, "%s", note.Markdown)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	return cmd
}

func newWriteCmd(g *globalFlags) *cobra.Command {
	var title, markdown string
	var fromStdin bool

	cmd := &cobra.Command{
		Use:   "write <id>",
		Short: "Update the title or body of a note",
		Long: `Update a note in place. Open windows on the same store pick the change up
immediately. Other notes are written back as last loaded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			patch := core.Patch{}
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			switch {
			case fromStdin && cmd.Flags().Changed("markdown"):
				return fmt.Errorf("--markdown and --stdin are mutually exclusive")
			case fromStdin:
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				body := string(data)
				patch.Markdown = &body
			case cmd.Flags().Changed("markdown"):
				patch.Markdown = &markdown
			}
			if patch.Empty() {
				return fmt.Errorf("nothing to write: pass --title, --markdown or --stdin")
			}

			app, _, err := g.open(slog.Default())
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			current, err := app.Service().Load(ctx)
			if err != nil {
				return fmt.Errorf("failed to load notes: %w", err)
			}
			if _, err := app.Service().Edit(ctx, current, id, patch); err != nil {
				return err
			}
			slog.Debug("note written", "id", int64(id))
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&markdown, "markdown", "", "New body")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read the new body from stdin")
	return cmd
}
