package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/aretw0/tabnotes/internal/render"
	"github.com/aretw0/tabnotes/pkg/core"
)

// listEntry is the JSON form of a note in `list --json`.
type listEntry struct {
	ID               core.NoteID `json:"id"`
	Title            string      `json:"title"`
	Markdown         string      `json:"markdown"`
	TimeLastModified int64       `json:"timeLastModified"`
}

func newListCmd(g *globalFlags) *cobra.Command {
	var asJSON bool
	var previewLength int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the notes of the store, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := g.open(slog.Default())
			if err != nil {
				return err
			}
			defer app.Close()

			store, err := app.Store().Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load notes: %w", err)
			}

			if asJSON {
				entries := make([]listEntry, 0, len(store))
				for _, id := range store.IDs() {
					n := store[id]
					entries = append(entries, listEntry{ID: id, Title: n.Title, Markdown: n.Markdown, TimeLastModified: n.TimeLastModified})
				}
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(entries)
			}

			t := table.New().
				Border(lipgloss.HiddenBorder()).
				BorderTop(false).
				BorderBottom(false).
				Headers("ID", "MODIFIED", "TITLE", "PREVIEW")
			for _, card := range render.Cards(store, time.Now(), previewLength) {
				t.Row(strconv.FormatInt(int64(card.ID), 10), card.Modified, card.Title, card.Preview)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	cmd.Flags().IntVar(&previewLength, "preview", render.DefaultPreviewLength, "Preview length in characters")
	return cmd
}
