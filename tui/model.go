package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wricardo/haunted-board/game/engine"
	"github.com/wricardo/haunted-board/game/service"
)

type mode int

const (
	modeNormal mode = iota
	modeInput
)

type screen int

const (
	screenLevels screen = iota
	screenPlay
)

const maxLogLines = 200

// Model is the bubbletea model of the terminal client
type Model struct {
	ctx context.Context
	svc service.PuzzleService

	screen   screen
	m        mode
	input    textinput.Model
	logLines []string

	levels    []*service.LevelInfo
	selected  int
	sessionID string
	state     *engine.GameState
	cursor    engine.Position

	width  int
	height int
}

// NewModel loads the level list and starts on the level screen
func NewModel(ctx context.Context, svc service.PuzzleService) (Model, error) {
	ti := textinput.New()
	ti.Placeholder = "load level-3 | bulk 1,1 2,2 | next | history"
	ti.Prompt = ": "
	ti.CharLimit = 200
	ti.Width = 60

	m := Model{
		ctx:   ctx,
		svc:   svc,
		m:     modeNormal,
		input: ti,
		logLines: []string{
			"ready (enter to play, : for commands, q to quit)",
		},
	}
	if err := m.refreshLevels(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = min(80, max(30, m.width-4))
		return m, nil

	case tea.KeyMsg:
		if m.m == modeInput {
			return m.updateInput(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case ":", "i":
			m.m = modeInput
			m.input.SetValue("")
			m.input.Focus()
			return m, nil
		}
		if m.screen == screenLevels {
			m.updateLevels(msg)
		} else {
			m.updatePlay(msg)
		}
		return m, nil
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.m = modeNormal
		m.input.Blur()
		return m, nil
	case "enter":
		line := strings.TrimSpace(m.input.Value())
		m.input.SetValue("")
		m.m = modeNormal
		m.input.Blur()
		if line != "" {
			m.execCommand(line)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateLevels(msg tea.KeyMsg) {
	switch msg.String() {
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.levels)-1 {
			m.selected++
		}
	case "enter", " ":
		if len(m.levels) > 0 {
			m.startLevel(m.levels[m.selected].LevelID)
		}
	case "r":
		if err := m.refreshLevels(); err != nil {
			m.appendLog(fmt.Sprintf("refresh failed: %v", err))
		}
	}
}

func (m *Model) updatePlay(msg tea.KeyMsg) {
	switch msg.String() {
	case "up", "k":
		m.moveCursor(-1, 0)
	case "down", "j":
		m.moveCursor(1, 0)
	case "left", "h":
		m.moveCursor(0, -1)
	case "right", "l":
		m.moveCursor(0, 1)
	case "enter", " ":
		m.act()
	case "r":
		m.reset()
	case "n":
		m.next()
	case "esc", "b":
		m.leave()
	}
}

func (m *Model) execCommand(line string) {
	m.appendLog("> " + line)
	fields := strings.Fields(line)

	switch fields[0] {
	case "load":
		if len(fields) != 2 {
			m.appendLog("usage: load <level-id>")
			return
		}
		m.startLevel(fields[1])
	case "bulk":
		if m.sessionID == "" {
			m.appendLog("no level in play")
			return
		}
		moves, err := parsePositions(fields[1:])
		if err != nil {
			m.appendLog(err.Error())
			return
		}
		m.bulk(moves)
	case "next":
		m.next()
	case "reset":
		m.reset()
	case "history":
		m.history()
	case "levels":
		m.leave()
	default:
		m.appendLog(fmt.Sprintf("unknown command: %s", fields[0]))
	}
}

func (m *Model) refreshLevels() error {
	infos, err := m.svc.ListLevels(m.ctx)
	if err != nil {
		return err
	}
	m.levels = infos
	if m.selected >= len(infos) {
		m.selected = max(0, len(infos)-1)
	}
	return nil
}

func (m *Model) startLevel(levelID string) {
	info, err := m.svc.CreateSession(m.ctx, levelID)
	if err != nil {
		m.appendLog(fmt.Sprintf("load failed: %v", err))
		return
	}
	m.dropSession()

	m.sessionID = info.ID
	m.state = info.GameState
	m.screen = screenPlay
	m.cursor = firstOccupant(info.GameState)
	for i, l := range m.levels {
		if l.LevelID == info.LevelID {
			m.selected = i
		}
	}
	m.appendLog(fmt.Sprintf("level %s: choose a starting occupant", info.LevelID))
}

func (m *Model) act() {
	if m.state == nil {
		return
	}
	if m.state.GameOver {
		m.appendLog("game over: r to reset, n for the next level")
		return
	}

	var (
		result *service.MoveResult
		err    error
	)
	if m.choosingStart() {
		result, err = m.svc.Select(m.ctx, m.sessionID, m.cursor)
	} else {
		result, err = m.svc.Move(m.ctx, m.sessionID, m.cursor, false)
	}
	if err != nil {
		m.appendLog(fmt.Sprintf("error: %v", err))
		return
	}

	m.state = result.GameState
	if !result.Success {
		m.appendLog("refused: " + result.Message)
		return
	}
	m.appendLog(result.Message)
	m.afterPlay()
}

func (m *Model) bulk(moves []engine.Position) {
	result, err := m.svc.BulkMove(m.ctx, m.sessionID, moves, false)
	if err != nil {
		m.appendLog(fmt.Sprintf("error: %v", err))
		return
	}
	m.state = result.GameState
	m.appendLog(fmt.Sprintf("executed %d/%d moves, remaining %d -> %d",
		result.MovesExecuted, result.RequestedMoves, result.StartRemaining, result.EndRemaining))
	if result.StoppedReason != "" {
		m.appendLog(fmt.Sprintf("stopped on move %d: %s", result.StoppedOnMove, result.StoppedReason))
	}
	if m.state != nil && m.state.Active != nil {
		m.cursor = *m.state.Active
	}
	m.afterPlay()
}

func (m *Model) afterPlay() {
	if m.state == nil {
		return
	}
	switch {
	case m.state.Won:
		m.appendLog(fmt.Sprintf("solved in %d moves %s (n: next level)", m.state.CurrentMovesCount, stars(m.state.Stars)))
		_ = m.refreshLevels()
	case m.state.Stuck:
		m.appendLog("stuck: r to reset")
	}
}

func (m *Model) reset() {
	if m.sessionID == "" {
		return
	}
	state, err := m.svc.Reset(m.ctx, m.sessionID)
	if err != nil {
		m.appendLog(fmt.Sprintf("reset failed: %v", err))
		return
	}
	m.state = state
	m.cursor = firstOccupant(state)
	m.appendLog("board reset")
}

func (m *Model) next() {
	if m.state == nil {
		return
	}
	info, err := m.svc.NextLevel(m.ctx, m.state.LevelID)
	if errors.Is(err, service.ErrNoNextLevel) {
		m.appendLog("that was the last level")
		return
	}
	if err != nil {
		m.appendLog(fmt.Sprintf("next level failed: %v", err))
		return
	}
	m.startLevel(info.LevelID)
}

func (m *Model) history() {
	if m.sessionID == "" {
		m.appendLog("no level in play")
		return
	}
	resp, err := m.svc.GetMoveHistory(m.ctx, m.sessionID, service.HistoryOptions{Page: 1, Limit: 10, Order: "desc"})
	if err != nil {
		m.appendLog(fmt.Sprintf("history failed: %v", err))
		return
	}
	if len(resp.Moves) == 0 {
		m.appendLog("no moves yet")
		return
	}
	for _, e := range resp.Moves {
		m.appendLog(fmt.Sprintf("#%d %s %s %s->%s remaining %d", e.MoveNumber, e.Piece, e.Kind, e.From, e.To, e.Remaining))
	}
}

func (m *Model) leave() {
	m.dropSession()
	m.screen = screenLevels
	if err := m.refreshLevels(); err != nil {
		m.appendLog(fmt.Sprintf("refresh failed: %v", err))
	}
}

func (m *Model) dropSession() {
	if m.sessionID == "" {
		return
	}
	_ = m.svc.DeleteSession(m.ctx, m.sessionID)
	m.sessionID = ""
	m.state = nil
}

func (m *Model) moveCursor(dr, dc int) {
	if m.state == nil {
		return
	}
	next := engine.Position{Row: m.cursor.Row + dr, Col: m.cursor.Col + dc}
	if m.state.Board.InBounds(next) {
		m.cursor = next
	}
}

func (m *Model) appendLog(s string) {
	if s == "" {
		return
	}
	m.logLines = append(m.logLines, s)
	if len(m.logLines) > maxLogLines {
		m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
	}
}

func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)
	boxWidth := max(20, m.width-2)

	var header, body string
	if m.screen == screenPlay && m.state != nil {
		header = titleStyle.Render(fmt.Sprintf("Haunted Board  %s  remaining:%d  moves:%d/%d",
			m.state.LevelName, m.state.Remaining, m.state.CurrentMovesCount, m.state.MinMoves))
		body = RenderBoard(m.state, m.cursor) + "\n" + m.state.Message
	} else {
		header = titleStyle.Render("Haunted Board  levels")
		body = RenderLevels(m.levels, m.selected)
	}

	logHeight := max(5, m.height-lipgloss.Height(body)-8)
	logStart := max(0, len(m.logLines)-logHeight)
	logBox := boxStyle.Width(boxWidth).Height(logHeight).Render(strings.Join(m.logLines[logStart:], "\n"))

	var inputLine string
	if m.m == modeInput {
		inputLine = m.input.View()
	} else if m.screen == screenPlay {
		inputLine = "arrows move  enter select/move  r reset  n next  esc levels  : command"
	} else {
		inputLine = "arrows choose  enter play  r refresh  : command  q quit"
	}
	inputBox := boxStyle.Width(boxWidth).Render(inputLine)

	return header + "\n" + boxStyle.Render(body) + "\n" + logBox + "\n" + inputBox + "\n"
}

// parsePositions reads "row,col" pairs
func parsePositions(args []string) ([]engine.Position, error) {
	if len(args) == 0 {
		return nil, errors.New("usage: bulk <row,col> [row,col ...]")
	}
	moves := make([]engine.Position, 0, len(args))
	for _, arg := range args {
		parts := strings.Split(arg, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("bad position %q, expected row,col", arg)
		}
		row, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, fmt.Errorf("bad row in %q", arg)
		}
		col, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("bad col in %q", arg)
		}
		moves = append(moves, engine.Position{Row: row, Col: col})
	}
	return moves, nil
}

// choosingStart reports whether enter on the cursor picks a starting occupant
// rather than moving the active one. Only possible before the first move.
func (m *Model) choosingStart() bool {
	if m.state.Active == nil {
		return true
	}
	if m.state.CurrentMovesCount > 0 || !m.state.Board.At(m.cursor).HasPiece() {
		return false
	}
	_, isTarget := m.state.FindMove(m.cursor)
	return !isTarget
}

func firstOccupant(state *engine.GameState) engine.Position {
	if state == nil {
		return engine.Position{}
	}
	if state.Active != nil {
		return *state.Active
	}
	for r := 0; r < state.Board.Height(); r++ {
		for c := 0; c < state.Board.Width(); c++ {
			p := engine.Position{Row: r, Col: c}
			if state.Board.At(p).HasPiece() {
				return p
			}
		}
	}
	return engine.Position{}
}

func stars(n int) string {
	n = min(3, max(0, n))
	return strings.Repeat("★", n) + strings.Repeat("☆", 3-n)
}
