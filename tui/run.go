package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wricardo/haunted-board/game/service"
)

// Run plays the level list in the terminal until the player quits or ctx is done
func Run(ctx context.Context, svc service.PuzzleService) error {
	m, err := NewModel(ctx, svc)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if fm, ok := final.(Model); ok && fm.sessionID != "" {
		_ = svc.DeleteSession(context.Background(), fm.sessionID)
	}
	return err
}
