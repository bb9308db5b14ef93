package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aretw0/tabnotes/pkg/core"
)

// Run starts the TUI on the terminal and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, repo core.Repository, cfg Config) error {
	m := New(ctx, repo, cfg)
	defer m.shell.Unmount()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
