package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func newStatusCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the state of the store components as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := g.open(slog.Default())
			if err != nil {
				return err
			}
			defer app.Close()

			if _, err := app.Store().Load(cmd.Context()); err != nil {
				return fmt.Errorf("failed to load notes: %w", err)
			}

			data, err := json.MarshalIndent(app.State(), "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal state: %w", err)
			}
			outf(cmd, "%s\n", data)
			return nil
		},
	}
}
