package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wricardo/haunted-board/game/engine"
	"github.com/wricardo/haunted-board/game/service"
)

var (
	activeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	targetStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	disabledStyle = lipgloss.NewStyle().Faint(true)
	currentStyle  = lipgloss.NewStyle().Bold(true)
)

// RenderBoard draws the board as fixed-width 3-char cells with column and row
// rulers. The cursor is bracketed, the active occupant highlighted and valid
// destinations marked: '*' on an empty cell, colored glyph on an occupant.
func RenderBoard(state *engine.GameState, cursor engine.Position) string {
	if state == nil {
		return ""
	}
	b := state.Board
	targets := make(map[engine.Position]bool, len(state.ValidMoves))
	for _, mv := range state.ValidMoves {
		targets[mv.To] = true
	}

	var sb strings.Builder
	sb.WriteString("   ")
	for c := 0; c < b.Width(); c++ {
		sb.WriteString(fmt.Sprintf("%2d ", c))
	}
	sb.WriteString("\n")

	for r := 0; r < b.Height(); r++ {
		sb.WriteString(fmt.Sprintf("%2d ", r))
		for c := 0; c < b.Width(); c++ {
			p := engine.Position{Row: r, Col: c}
			active := state.Active != nil && *state.Active == p
			sb.WriteString(cell(b.At(p), p == cursor, active, targets[p]))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// cell returns a fixed-width 3-char cell
func cell(c engine.Cell, isCursor, active, target bool) string {
	glyph := string(c.Glyph())
	switch {
	case active:
		glyph = activeStyle.Render(glyph)
	case target && c.IsEmpty():
		glyph = targetStyle.Render("*")
	case target:
		glyph = targetStyle.Render(glyph)
	case c.IsDisabled():
		glyph = disabledStyle.Render(glyph)
	}

	if isCursor {
		return "[" + glyph + "]"
	}
	return " " + glyph + " "
}

// RenderLevels lists the levels with their best star rating
func RenderLevels(levels []*service.LevelInfo, selected int) string {
	if len(levels) == 0 {
		return "no levels found"
	}
	var sb strings.Builder
	for i, l := range levels {
		marker := "  "
		if i == selected {
			marker = "> "
		}
		line := fmt.Sprintf("%s%-10s %-20s %dx%d  target %-2d %s",
			marker, l.LevelID, l.Name, l.Width, l.Height, l.MinMoves, stars(l.Stars))
		if i == selected {
			line = currentStyle.Render(line)
		}
		sb.WriteString(line)
		if i < len(levels)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
