package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/tabnotes"
	"github.com/aretw0/tabnotes/internal/platform"
	"github.com/aretw0/tabnotes/internal/tui"
)

// globalFlags are shared by every command.
type globalFlags struct {
	verbose     bool
	store       string
	backend     string
	key         string
	noDevSafety bool
}

// NewRootCmd builds the tabnotes command tree. Without a subcommand it starts
// the terminal UI.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "tabnotes",
		Short: "Quick notes in your terminal, synced across every open window",
		Long: `tabnotes keeps a collection of markdown notes in a store directory.
Every window opened on the same store sees the others' edits as they are saved.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if g.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(platform.NewLogger(cmd.ErrOrStderr(), level))
		},
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, g)
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&g.verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVarP(&g.store, "store", "s", "", "Store root (default: nearest directory with .tabnotes/, else $HOME)")
	flags.StringVar(&g.backend, "backend", "", "Storage backend: fs, sqlite or memory")
	flags.StringVar(&g.key, "key", "", "Storage key of the notes store (default local:notes)")
	flags.BoolVar(&g.noDevSafety, "no-dev-safety", false, "Use the real store path under go run")

	cmd.AddCommand(
		newListCmd(g),
		newNewCmd(g),
		newReadCmd(g),
		newWriteCmd(g),
		newWatchCmd(g),
		newStatusCmd(g),
		newVersionCmd(),
	)
	return cmd
}

// storeRoot returns the --store flag or the discovered default root.
func (g *globalFlags) storeRoot() (string, error) {
	if g.store != "" {
		return g.store, nil
	}
	root, err := platform.DefaultRoot()
	if err != nil {
		return "", fmt.Errorf("failed to locate store: %w", err)
	}
	return root, nil
}

// open loads the store config and opens the store. Flags override the file.
func (g *globalFlags) open(logger *slog.Logger, extra ...tabnotes.Option) (*tabnotes.App, platform.Config, error) {
	root, err := g.storeRoot()
	if err != nil {
		return nil, platform.Config{}, err
	}
	cfg, err := platform.LoadConfig(root)
	if err != nil {
		return nil, cfg, err
	}

	opts := append(cfg.Options(), tabnotes.WithLogger(logger))
	if g.backend != "" {
		opts = append(opts, tabnotes.WithAdapter(g.backend))
	}
	if g.key != "" {
		opts = append(opts, tabnotes.WithStoreKey(g.key))
	}
	if g.noDevSafety {
		opts = append(opts, tabnotes.WithDevSafety(false))
	}
	opts = append(opts, extra...)

	app, err := tabnotes.Open(root, opts...)
	if err != nil {
		return nil, cfg, fmt.Errorf("failed to open store: %w", err)
	}
	return app, cfg, nil
}

func runTUI(cmd *cobra.Command, g *globalFlags) error {
	root, err := g.storeRoot()
	if err != nil {
		return err
	}
	cfg, err := platform.LoadConfig(root)
	if err != nil {
		return err
	}
	level, _ := cfg.LogLevel()
	if g.verbose {
		level = slog.LevelDebug
	}

	// The terminal belongs to the UI; logs go to the store's log file.
	logFile, err := platform.OpenLogFile(tabnotes.ResolveStorePath(root, tabnotes.IsDevRun() && !g.noDevSafety), time.Now())
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger := platform.NewLogger(logFile, level)

	app, cfg, err := g.open(logger)
	if err != nil {
		return err
	}
	defer app.Close()

	logger.Info("tui started", "root", app.Root())
	return tui.Run(cmd.Context(), app.Store(), tui.Config{
		Logger:    logger,
		Preview:   cfg.UI.Preview,
		ListWidth: cfg.UI.ListWidth,
	})
}

func outf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
