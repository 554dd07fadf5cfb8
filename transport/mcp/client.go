package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/haunted-board/game/engine"
	"github.com/wricardo/haunted-board/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Haunted Board",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Haunted Board - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Move the active occupant around the board and eliminate the others until a
single occupant remains. Each move either relocates it to an empty cell or
acts on another occupant (capture, push, explosion, absorb).

AVAILABLE TOOLS:
- create_session / list_sessions / get_session: session management
- game_state: board, active occupant and its legal destinations
- select_piece: choose the starting occupant (only before the first move)
- move: move the active occupant to a destination - requires intent explanation
- bulk_move: several destinations in order - requires intent explanation
- reset_game, move_history
- list_levels, next_level, progress, list_pieces
- piece_moves: legal destinations for any occupant of an arbitrary board
- describe_cell: details about one cell
- game_instructions: full rules for every piece

Coordinates are {row, col}, zero-based, row 0 at the top.

NOTE: The 'intent' parameter on move/bulk_move tools serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func coordinateProperty(name string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": fmt.Sprintf("Zero-based %s", name),
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session on a level (defaults to the first level)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"level_id": map[string]interface{}{
					"type":        "string",
					"description": "Level identifier, e.g. level-3 (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board, the active occupant and its legal destinations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "select_piece",
		Description: "Choose which occupant starts. Only allowed before the first move of an attempt.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"row":        coordinateProperty("row"),
				"col":        coordinateProperty("column"),
			},
			Required: []string{"session_id", "row", "col"},
		},
	}, c.handleSelect)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Move the active occupant to one of its legal destinations",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"row":        coordinateProperty("destination row"),
				"col":        coordinateProperty("destination column"),
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this move (serves as a rubber duck to help explain your reasoning)",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset before moving",
				},
			},
			Required: []string{"session_id", "row", "col"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_move",
		Description: fmt.Sprintf("Execute up to %d destinations in sequence, stopping at the first refused move", engine.MaxBulkMoves),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"moves": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"row": map[string]interface{}{"type": "integer"},
							"col": map[string]interface{}{"type": "integer"},
						},
						"required": []string{"row", "col"},
					},
					"description": "Destinations in order",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this sequence of moves (serves as a rubber duck to help explain your reasoning)",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset before moving",
				},
			},
			Required: []string{"session_id", "moves"},
		},
	}, c.handleBulkMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Restore the level's starting board",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get move history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	// Levels and rules
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_levels",
		Description: "List the available levels with their best star rating",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListLevels)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "next_level",
		Description: "Get the level that follows the given one",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"level_id": map[string]interface{}{
					"type":        "string",
					"description": "Level identifier",
				},
			},
			Required: []string{"level_id"},
		},
	}, c.handleNextLevel)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "progress",
		Description: "Show completed levels, stars and the current level",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleProgress)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_pieces",
		Description: "List every piece type with its glyph and movement",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListPieces)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "piece_moves",
		Description: "Compute the legal destinations of an occupant on an arbitrary board without touching any session. Useful for planning.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"layout": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Board rows as glyphs: '.' empty, '#' disabled, one letter per piece",
				},
				"row": coordinateProperty("row"),
				"col": coordinateProperty("column"),
			},
			Required: []string{"layout", "row", "col"},
		},
	}, c.handlePieceMoves)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get comprehensive game instructions and rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Get detailed information about a specific cell: its occupant, how that piece moves and whether the active occupant can reach it.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"row":        coordinateProperty("row"),
				"col":        coordinateProperty("column"),
			},
			Required: []string{"session_id", "row", "col"},
		},
	}, c.handleDescribeCell)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// intArg reads a JSON number argument
func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

func positionArgs(args map[string]interface{}) (engine.Position, error) {
	row, okRow := intArg(args, "row")
	col, okCol := intArg(args, "col")
	if !okRow || !okCol {
		return engine.Position{}, fmt.Errorf("row and col are required integers")
	}
	return engine.Position{Row: row, Col: col}, nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	levelID, _ := args["level_id"].(string)

	body := map[string]string{}
	if levelID != "" {
		body["level_id"] = levelID
	}

	var session service.SessionInfo
	err := c.apiCall("POST", "/api/sessions", body, &session)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nLevel: %s\n\n%s", session.ID, session.LevelID, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	err := c.apiCall("GET", "/api/sessions", nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		status := "in progress"
		if s.GameState != nil {
			switch {
			case s.GameState.Won:
				status = "won"
			case s.GameState.Stuck:
				status = "stuck"
			}
		}
		fmt.Fprintf(&b, "- %s (Level: %s, %s, Created: %s)\n",
			s.ID, s.LevelID, status, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	err := c.apiCall("GET", sessionPath(sessionID, ""), nil, &session)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var state engine.GameState
	err := c.apiCall("GET", sessionPath(sessionID, "/state"), nil, &state)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleSelect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	pos, err := positionArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.MoveResult
	if err := c.apiCall("POST", sessionPath(sessionID, "/select"), pos, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	reset, _ := args["reset"].(bool)

	intent, _ := args["intent"].(string)

	// Intent parameter serves as rubber duck debugging - it is never sent to the server
	_ = intent

	to, err := positionArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := map[string]interface{}{
		"to":    to,
		"reset": reset,
	}

	var result service.MoveResult
	if err := c.apiCall("POST", sessionPath(sessionID, "/move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

// parseMoves accepts {row,col} objects as well as [row,col] pairs
func parseMoves(raw []interface{}) ([]engine.Position, error) {
	moves := make([]engine.Position, 0, len(raw))
	for i, m := range raw {
		switch v := m.(type) {
		case map[string]interface{}:
			pos, err := positionArgs(v)
			if err != nil {
				return nil, fmt.Errorf("move %d: %v", i+1, err)
			}
			moves = append(moves, pos)
		case []interface{}:
			if len(v) != 2 {
				return nil, fmt.Errorf("move %d: expected [row, col]", i+1)
			}
			row, okRow := v[0].(float64)
			col, okCol := v[1].(float64)
			if !okRow || !okCol {
				return nil, fmt.Errorf("move %d: expected [row, col]", i+1)
			}
			moves = append(moves, engine.Position{Row: int(row), Col: int(col)})
		default:
			return nil, fmt.Errorf("move %d: expected {row, col}", i+1)
		}
	}
	return moves, nil
}

func (c *Client) handleBulkMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	movesRaw, _ := args["moves"].([]interface{})
	reset, _ := args["reset"].(bool)

	intent, _ := args["intent"].(string)
	_ = intent

	moves, err := parseMoves(movesRaw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := map[string]interface{}{
		"moves": moves,
		"reset": reset,
	}

	var result service.BulkMoveResult
	if err := c.apiCall("POST", sessionPath(sessionID, "/bulk-move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkMoveResult(sessionID, &result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}

	err := c.apiCall("POST", sessionPath(sessionID, "/reset"), nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	params := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		params.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		params.Set("limit", fmt.Sprint(limit))
	}

	var history service.HistoryResponse
	err := c.apiCall("GET", sessionPath(sessionID, "/history?"+params.Encode()), nil, &history)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Also fetch current attempt from live state
	var session service.SessionInfo
	if err := c.apiCall("GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultText(formatHistory(&history)), nil
	}

	result := formatHistory(&history)
	result += "\n" + formatCurrentAttempt(session.GameState)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListLevels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var infos []service.LevelInfo
	if err := c.apiCall("GET", "/api/levels", nil, &infos); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Levels:\n\n")
	for _, info := range infos {
		fmt.Fprintf(&b, "• %s: %s\n  Board: %dx%d, Pieces: %d, Target: %d moves %s\n\n",
			info.LevelID, info.Name, info.Width, info.Height, info.Pieces, info.MinMoves, formatStars(info.Stars))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleNextLevel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	levelID, _ := arguments(request)["level_id"].(string)

	var info service.LevelInfo
	if err := c.apiCall("GET", "/api/levels/"+url.PathEscape(levelID)+"/next", nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Next level: %s (%s)", info.LevelID, info.Name)), nil
}

func (c *Client) handleProgress(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var summary service.ProgressSummary
	if err := c.apiCall("GET", "/api/progress", nil, &summary); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatProgress(&summary)), nil
}

func (c *Client) handleListPieces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var pieces []service.PieceInfo
	if err := c.apiCall("GET", "/api/pieces", nil, &pieces); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Pieces:\n\n")
	for _, p := range pieces {
		fmt.Fprintf(&b, "%s %s %s (%s, %s)\n  %s\n", p.Glyph, p.Emoji, p.Name, p.Geometry, p.Capture, p.Description)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handlePieceMoves(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	from, err := positionArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rawLayout, _ := args["layout"].([]interface{})
	layout := make([]string, 0, len(rawLayout))
	for _, row := range rawLayout {
		if s, ok := row.(string); ok {
			layout = append(layout, s)
		}
	}

	var response struct {
		Piece engine.PieceType `json:"piece"`
		Moves []engine.Move    `json:"moves"`
	}
	body := map[string]interface{}{"layout": layout, "from": from}
	if err := c.apiCall("POST", "/api/engine/moves", body, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(response.Moves) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("%s at %s has no legal destinations", response.Piece, from)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s at %s can reach: %s", response.Piece, from, formatMoves(response.Moves))), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var b strings.Builder
	b.WriteString(`👻 Haunted Board - Complete Instructions

GAME OBJECTIVE:
Reduce the board to a single occupant. You control one occupant at a time;
each move relocates it to an empty cell or acts on another occupant.

HOW A TURN WORKS:
• The attempt starts with the first ghost in reading order as the active occupant
• Before the first move you may pick a different starting occupant (select_piece)
• After that the occupant that moved stays active; you cannot switch
• Only destinations listed in valid_moves are legal
• If the active occupant has no legal destination and more than one occupant
  remains, the attempt is stuck: reset and try another line

COORDINATES:
• {row, col}, zero-based, row 0 at the top
• '#' cells are disabled: nothing can stand on or cross them
• '.' cells are empty

STARS:
• 3 stars for matching the level target, 2 for up to two moves over, otherwise 1

GLYPH LEGEND:
`)
	for _, rule := range engine.Rules() {
		fmt.Fprintf(&b, "  %c = %s %s: %s\n", rule.Glyph, rule.Emoji, rule.Name, rule.Description)
	}
	b.WriteString(`
STRATEGY:
• Count occupants: every capture removes one, explosions can remove several,
  and plain moves to empty cells remove none
• Leave the awkward pieces for last; a lone piece in a corner can strand you
• Use piece_moves to test a plan on a copy of the board before committing
• Use bulk_move once you have a complete line

Good luck clearing the haunted board! 🎃`)

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	pos, err := positionArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state engine.GameState
	if err := c.apiCall("GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if !state.Board.InBounds(pos) {
		return mcp.NewToolResultError(fmt.Sprintf("Coordinates %s are out of bounds. Board is %d rows by %d columns (rows 0-%d, columns 0-%d)",
			pos, state.Board.Height(), state.Board.Width(), state.Board.Height()-1, state.Board.Width()-1)), nil
	}

	return mcp.NewToolResultText(describeCell(&state, pos)), nil
}

func describeCell(state *engine.GameState, pos engine.Position) string {
	cell := state.Board.At(pos)

	var b strings.Builder
	fmt.Fprintf(&b, "Cell at %s:\n━━━━━━━━━━━━━━━━━━━━━━━━\nGlyph: %c\n", pos, cell.Glyph())

	switch {
	case cell.IsDisabled():
		b.WriteString("Type: Disabled\nNothing can stand on or pass through this cell.\n")
	case cell.IsEmpty():
		b.WriteString("Type: Empty\n")
	default:
		fmt.Fprintf(&b, "Occupant: %s\n", cell.Piece)
		if rule, ok := engine.RuleFor(cell.Piece); ok {
			fmt.Fprintf(&b, "Moves: %s\n", rule.Description)
		}
		if state.Board.Occupants() > 1 {
			if moves, err := engine.Generate(state.Board, pos, cell.Piece); err == nil {
				if len(moves) == 0 {
					b.WriteString("From here: no legal destinations\n")
				} else {
					fmt.Fprintf(&b, "From here: %s\n", formatMoves(moves))
				}
			}
		}
	}

	if state.Active != nil && *state.Active == pos {
		b.WriteString("\nThis is the active occupant.\n")
	} else if m, ok := state.FindMove(pos); ok {
		fmt.Fprintf(&b, "\nThe active %s can move here (%s).\n", state.ActivePiece, m)
	} else if state.Active != nil {
		fmt.Fprintf(&b, "\nThe active %s cannot move here.\n", state.ActivePiece)
	}
	return b.String()
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	kind := ""
	if session.TestPlay {
		kind = " (test play)"
	}
	return fmt.Sprintf("Session: %s%s\nLevel: %s\nCreated: %s\n\n%s",
		session.ID, kind, session.LevelID,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

// formatBoard renders glyph rows with coordinate rulers; the active occupant is bracketed
func formatBoard(board engine.Board, active *engine.Position) string {
	if board.Width() == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("    ")
	for col := 0; col < board.Width(); col++ {
		fmt.Fprintf(&b, "%2d ", col)
	}
	b.WriteString("\n")

	for row, line := range board.Layout() {
		fmt.Fprintf(&b, "%2d  ", row)
		for col, glyph := range []rune(line) {
			if active != nil && active.Row == row && active.Col == col {
				fmt.Fprintf(&b, "[%c]", glyph)
			} else {
				fmt.Fprintf(&b, " %c ", glyph)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatMoves(moves []engine.Move) string {
	parts := make([]string, len(moves))
	for i, m := range moves {
		parts[i] = m.String()
	}
	return strings.Join(parts, " ")
}

func formatStars(n int) string {
	if n <= 0 {
		return ""
	}
	if n > 3 {
		n = 3
	}
	return strings.Repeat("★", n) + strings.Repeat("☆", 3-n)
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var result strings.Builder

	// Header (include cumulative total moves)
	active := "none"
	if state.Active != nil {
		active = fmt.Sprintf("%s at %s", state.ActivePiece, *state.Active)
	}
	fmt.Fprintf(&result, "Level: %s | Active: %s | Remaining: %d | Moves: %d (target %d) | Total: %d\n\n",
		state.LevelID, active, state.Remaining, state.CurrentMovesCount, state.MinMoves, state.TotalMoves)

	result.WriteString(formatBoard(state.Board, state.Active))

	if len(state.ValidMoves) > 0 {
		fmt.Fprintf(&result, "\nValid moves: %s\n", formatMoves(state.ValidMoves))
	}

	// Status
	switch {
	case state.Won:
		fmt.Fprintf(&result, "\n🎉 VICTORY! %s", formatStars(state.Stars))
	case state.Stuck:
		result.WriteString("\n💀 STUCK: reset to try again")
	}

	if state.Message != "" {
		fmt.Fprintf(&result, "\nMessage: %s", state.Message)
	}

	return result.String()
}

func formatStep(s *service.StepInfo) string {
	line := fmt.Sprintf("Step %d: %s %s→%s %s remaining=%d", s.Idx, s.Piece, s.From, s.To, s.Kind, s.Remaining)
	if s.Captured != engine.NoPiece {
		line += fmt.Sprintf(" captured=%s", s.Captured)
	}
	if s.Eliminated > 1 {
		line += fmt.Sprintf(" eliminated=%d", s.Eliminated)
	}
	if s.Victory {
		line += " victory"
	}
	return line + "\n"
}

func formatAttempt(a *service.AttemptInfo) string {
	return fmt.Sprintf("Refused: %s holds %s (%s)\n", a.To, a.Cell, a.Reason)
}

func formatMoveResult(result *service.MoveResult) string {
	response := ""
	if result.Success {
		response = "✓ Move successful\n"
	} else {
		response = "✗ Move failed\n"
		if result.Message != "" {
			response += result.Message + "\n"
		}
	}

	if result.Step != nil {
		response += formatStep(result.Step)
	}

	if result.AttemptedTo != nil {
		response += formatAttempt(result.AttemptedTo)
	}

	if len(result.Events) > 0 {
		response += "Events:\n"
		for _, event := range result.Events {
			response += fmt.Sprintf("- %s: %s\n", event.Type, event.Message)
		}
	}

	response += "\n" + formatGameState(result.GameState)
	return response
}

func formatBulkMoveResult(sessionID string, result *service.BulkMoveResult) string {
	var b strings.Builder

	levelID := ""
	if result.GameState != nil {
		levelID = result.GameState.LevelID
	}
	fmt.Fprintf(&b, "Session: %s • Level: %s\n", sessionID, levelID)

	fmt.Fprintf(&b, "Executed %d/%d moves • Remaining %d → %d\n",
		result.MovesExecuted, result.RequestedMoves, result.StartRemaining, result.EndRemaining)
	if result.Truncated {
		fmt.Fprintf(&b, "Truncated to %d moves\n", result.Limit)
	}
	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "Stopped on move %d: %s (%s)\n", result.StoppedOnMove, result.StoppedReason, result.StopReasonCode)
	}
	if result.AttemptedTo != nil {
		b.WriteString(formatAttempt(result.AttemptedTo))
	}

	if len(result.Steps) > 0 {
		b.WriteString("\nSteps (this call):\n")
		for i := range result.Steps {
			b.WriteString(formatStep(&result.Steps[i]))
		}
	}

	if len(result.Events) > 0 {
		b.WriteString("\nEvents:\n")
		for _, event := range result.Events {
			fmt.Fprintf(&b, "- %s: %s\n", event.Type, event.Message)
		}
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatHistoryEntry(num int, entry engine.MoveHistoryEntry) string {
	line := fmt.Sprintf("%d. %s %s→%s %s", num, entry.Piece, entry.From, entry.To, entry.Kind)
	if entry.Captured != engine.NoPiece {
		line += " x" + entry.Captured.String()
	}
	return fmt.Sprintf("%s [Remaining: %d]\n", line, entry.Remaining)
}

func formatHistory(history *service.HistoryResponse) string {
	result := fmt.Sprintf("Move History (Page %d/%d) • Total (cumulative): %d\n\n",
		history.Page, history.TotalPages, history.TotalMoves)

	for _, move := range history.Moves {
		result += formatHistoryEntry(move.MoveNumber, move)
	}

	return result
}

func formatCurrentAttempt(state *engine.GameState) string {
	if state == nil {
		return "Current Attempt: unavailable"
	}
	header := fmt.Sprintf("Current Attempt • Moves: %d\n\n", state.CurrentMovesCount)
	if len(state.CurrentMoves) == 0 {
		return header + "(no moves in current attempt)"
	}
	var b strings.Builder
	b.WriteString(header)
	for i, move := range state.CurrentMoves {
		b.WriteString(formatHistoryEntry(i+1, move))
	}
	return b.String()
}

func formatProgress(summary *service.ProgressSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Completed levels: %d • Stars: %d • Current level index: %d\n\n",
		summary.Completed, summary.TotalStars, summary.CurrentLevelIndex)
	ids := make([]string, 0, len(summary.Levels))
	for id := range summary.Levels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		p := summary.Levels[id]
		fmt.Fprintf(&b, "- %s: best %d moves %s\n", id, p.BestMoves, formatStars(p.Stars))
	}
	return b.String()
}
