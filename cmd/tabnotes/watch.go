package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/tabnotes"
	"github.com/aretw0/tabnotes/pkg/adapters/lifecycle"
	"github.com/aretw0/tabnotes/pkg/core"
)

func newWatchCmd(g *globalFlags) *cobra.Command {
	var pattern string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print notes as they are created or modified",
		Long: `Watch the store and print one line per created or modified note until
interrupted. Writes from any process sharing the store are reported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			extra := []tabnotes.Option{
				tabnotes.WithWatcherErrorHandler(func(err error) {
					slog.Warn("watcher error", "error", err)
				}),
			}
			if pattern != "" {
				extra = append(extra, tabnotes.WithWatchPattern(pattern))
			}

			app, _, err := g.open(slog.Default(), extra...)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			source := lifecycle.NewSource(app.Store(), func(e core.Event) {
				slog.Warn("dropping watch event, output is behind", "event", e.String())
			})
			if err := source.Start(ctx); err != nil {
				return err
			}

			slog.Info("watching", "root", app.Root(), "key", app.Store().Key())
			for e := range source.Events() {
				line := e.String()
				if ne, ok := e.(core.Event); ok {
					line = fmt.Sprintf("%s\t%s", line, time.UnixMilli(ne.Timestamp).Format(time.RFC3339))
				}
				outf(cmd, "%s\n", line)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", "", "Only react to files matching this glob (fs backend)")
	return cmd
}
