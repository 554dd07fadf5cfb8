package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/wricardo/haunted-board/game/engine"
	"github.com/wricardo/haunted-board/game/levels"
	"github.com/wricardo/haunted-board/game/service"
	"github.com/wricardo/haunted-board/game/session"
	"github.com/wricardo/haunted-board/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.PuzzleService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil.
func NewServer(puzzleService service.PuzzleService, hub *websocket.Hub) *Server {
	s := &Server{
		service: puzzleService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Session management (literal paths before the {id} pattern)
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/test", s.handleCreateTestSession).Methods("POST")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Game operations
	api.HandleFunc("/sessions/{id}/state", s.handleGetGameState).Methods("GET")
	api.HandleFunc("/sessions/{id}/select", s.handleSelect).Methods("POST")
	api.HandleFunc("/sessions/{id}/move", s.handleMove).Methods("POST")
	api.HandleFunc("/sessions/{id}/bulk-move", s.handleBulkMove).Methods("POST")
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods("POST")
	api.HandleFunc("/sessions/{id}/history", s.handleGetHistory).Methods("GET")

	// Levels
	api.HandleFunc("/levels", s.handleListLevels).Methods("GET")
	api.HandleFunc("/levels", s.handleSaveLevel).Methods("POST")
	api.HandleFunc("/levels/{id}", s.handleGetLevel).Methods("GET")
	api.HandleFunc("/levels/{id}", s.handleDeleteLevel).Methods("DELETE")
	api.HandleFunc("/levels/{id}/next", s.handleNextLevel).Methods("GET")

	// Progress and rules
	api.HandleFunc("/progress", s.handleGetProgress).Methods("GET")
	api.HandleFunc("/pieces", s.handleListPieces).Methods("GET")

	// Stateless rule engine
	api.HandleFunc("/engine/moves", s.handleEngineMoves).Methods("POST")
	api.HandleFunc("/engine/apply", s.handleEngineApply).Methods("POST")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusFor maps service errors onto HTTP status codes
func statusFor(err error, fallback int) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, levels.ErrLevelNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNoNextLevel):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidLevel), errors.Is(err, levels.ErrInvalidLevel),
		errors.Is(err, service.ErrLevelRequired), errors.Is(err, session.ErrInvalidSessionID),
		errors.Is(err, engine.ErrMalformedBoard):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrInvalidPrecondition):
		return http.StatusUnprocessableEntity
	}
	return fallback
}

// broadcast publishes the state, and the events when present, to the session's watchers
func (s *Server) broadcast(sessionID string, state *engine.GameState, events []service.GameEvent) {
	if s.hub == nil || state == nil {
		return
	}
	s.hub.BroadcastToSession(sessionID, state)
	if len(events) > 0 {
		s.hub.BroadcastEvent(sessionID, websocket.EventGameEvents, events)
	}
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LevelID string `json:"level_id,omitempty"`
	}

	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	session, err := s.service.CreateSession(r.Context(), req.LevelID)
	if err != nil {
		respondError(w, statusFor(err, http.StatusInternalServerError), err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleCreateTestSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Level *engine.Level `json:"level"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := s.service.CreateTestSession(r.Context(), req.Level)
	if err != nil {
		respondError(w, statusFor(err, http.StatusInternalServerError), err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	if levelID := query.Get("level"); levelID != "" {
		filtered := sessions[:0]
		for _, sess := range sessions {
			if sess.LevelID == levelID {
				filtered = append(filtered, sess)
			}
		}
		sessions = filtered
	}
	total := len(sessions)

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	limit := len(sessions)
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			limit = l
		}
	}
	sessions = sessions[:limit]

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	session, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondError(w, statusFor(err, http.StatusNotFound), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondError(w, statusFor(err, http.StatusNotFound), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Game Operation Handlers

func (s *Server) handleGetGameState(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.GetGameState(r.Context(), sessionID)
	if err != nil {
		respondError(w, statusFor(err, http.StatusNotFound), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var pos engine.Position
	if err := json.NewDecoder(r.Body).Decode(&pos); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.Select(r.Context(), sessionID, pos)
	if err != nil {
		respondError(w, statusFor(err, http.StatusInternalServerError), err.Error())
		return
	}

	if result.Success {
		s.broadcast(sessionID, result.GameState, result.Events)
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		To    *engine.Position `json:"to"`
		Reset bool             `json:"reset,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.To == nil {
		respondError(w, http.StatusBadRequest, "Destination 'to' is required")
		return
	}

	result, err := s.service.Move(r.Context(), sessionID, *req.To, req.Reset)
	if err != nil {
		respondError(w, statusFor(err, http.StatusInternalServerError), err.Error())
		return
	}

	if result.Success || req.Reset {
		s.broadcast(sessionID, result.GameState, result.Events)
	}

	// Compact server log for observability
	if step := result.Step; step != nil {
		log.Printf("[MOVE] session=%s %s %s->%s kind=%s remaining=%d status=OK",
			sessionID, step.Piece, step.From, step.To, step.Kind, step.Remaining)
	} else if a := result.AttemptedTo; a != nil {
		log.Printf("[MOVE] session=%s REJECTED attempt=%s cell=%s reason=%s",
			sessionID, a.To, a.Cell, a.Reason)
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleBulkMove(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Moves []engine.Position `json:"moves"`
		Reset bool              `json:"reset,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.BulkMove(r.Context(), sessionID, req.Moves, req.Reset)
	if err != nil {
		respondError(w, statusFor(err, http.StatusInternalServerError), err.Error())
		return
	}

	if result.MovesExecuted > 0 || req.Reset {
		s.broadcast(sessionID, result.GameState, result.Events)
	}

	stop := result.StopReasonCode
	if stop == "" {
		stop = "none"
	}
	log.Printf("[BULK] session=%s exec=%d/%d stop=%s remaining=%d->%d",
		sessionID, result.MovesExecuted, result.RequestedMoves, stop, result.StartRemaining, result.EndRemaining)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.Reset(r.Context(), sessionID)
	if err != nil {
		respondError(w, statusFor(err, http.StatusNotFound), err.Error())
		return
	}

	s.broadcast(sessionID, state, []service.GameEvent{{
		Type:      service.EventReset,
		Message:   "Level reset to its starting board",
		Timestamp: time.Now(),
	}})

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Game reset successfully",
		"state":   state,
	})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	opts := service.HistoryOptions{
		Page:  1,
		Limit: 20,
		Order: "desc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}

	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	history, err := s.service.GetMoveHistory(r.Context(), sessionID, opts)
	if err != nil {
		respondError(w, statusFor(err, http.StatusNotFound), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// Level Handlers

func (s *Server) handleListLevels(w http.ResponseWriter, r *http.Request) {
	infos, err := s.service.ListLevels(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, infos)
}

func (s *Server) handleGetLevel(w http.ResponseWriter, r *http.Request) {
	// Accept file names as ids
	levelID := strings.TrimSuffix(mux.Vars(r)["id"], ".json")

	level, err := s.service.LoadLevel(r.Context(), levelID)
	if err != nil {
		respondError(w, statusFor(err, http.StatusNotFound), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, level)
}

func (s *Server) handleNextLevel(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.NextLevel(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, statusFor(err, http.StatusInternalServerError), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleSaveLevel(w http.ResponseWriter, r *http.Request) {
	var level engine.Level
	if err := json.NewDecoder(r.Body).Decode(&level); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if level.ID == "" {
		respondError(w, http.StatusBadRequest, "Level id is required")
		return
	}

	if err := s.service.SaveLevel(r.Context(), &level); err != nil {
		respondError(w, statusFor(err, http.StatusInternalServerError), fmt.Sprintf("Failed to save level: %v", err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "Level saved successfully",
		"level_id": level.ID,
	})
}

func (s *Server) handleDeleteLevel(w http.ResponseWriter, r *http.Request) {
	levelID := mux.Vars(r)["id"]

	if err := s.service.DeleteLevel(r.Context(), levelID); err != nil {
		respondError(w, statusFor(err, http.StatusInternalServerError), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Level %s deleted", levelID),
	})
}

// Progress and rules

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	summary, err := s.service.GetProgress(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleListPieces(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.service.ListPieces(r.Context()))
}

// Stateless engine handlers

// boardRequest carries a board either as JSON rows or as glyph layout rows
type boardRequest struct {
	Board  *engine.Board `json:"board,omitempty"`
	Layout []string      `json:"layout,omitempty"`
}

func (br boardRequest) resolve() (engine.Board, error) {
	if br.Board != nil {
		return *br.Board, br.Board.Validate()
	}
	if len(br.Layout) > 0 {
		return engine.ParseLayout(br.Layout)
	}
	return engine.Board{}, fmt.Errorf("%w: board or layout is required", engine.ErrMalformedBoard)
}

func (s *Server) handleEngineMoves(w http.ResponseWriter, r *http.Request) {
	var req struct {
		boardRequest
		From engine.Position `json:"from"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	board, err := req.resolve()
	if err != nil {
		respondError(w, statusFor(err, http.StatusBadRequest), err.Error())
		return
	}

	piece := board.At(req.From).Piece
	moves, err := engine.Generate(board, req.From, piece)
	if err != nil {
		respondError(w, statusFor(err, http.StatusBadRequest), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"piece": piece,
		"from":  req.From,
		"moves": moves,
	})
}

func (s *Server) handleEngineApply(w http.ResponseWriter, r *http.Request) {
	var req struct {
		boardRequest
		Active engine.Position `json:"active"`
		To     engine.Position `json:"to"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	board, err := req.resolve()
	if err != nil {
		respondError(w, statusFor(err, http.StatusBadRequest), err.Error())
		return
	}

	moves, err := engine.Generate(board, req.Active, board.At(req.Active).Piece)
	if err != nil {
		respondError(w, statusFor(err, http.StatusBadRequest), err.Error())
		return
	}

	var move *engine.Move
	for i := range moves {
		if moves[i].To == req.To {
			move = &moves[i]
			break
		}
	}
	if move == nil {
		respondError(w, http.StatusUnprocessableEntity, fmt.Sprintf("%v: %s cannot reach %s", engine.ErrIllegalMove, req.Active, req.To))
		return
	}

	result, err := engine.Apply(board, req.Active, *move)
	if err != nil {
		respondError(w, statusFor(err, http.StatusBadRequest), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"move":   move,
		"result": result,
		"won":    engine.IsWon(result.Board),
		"layout": result.Board.Layout(),
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}
	if s.hub == nil {
		http.Error(w, "WebSocket updates are disabled", http.StatusServiceUnavailable)
		return
	}

	// Verify session exists
	if _, err := s.service.GetSession(context.Background(), sessionID); err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, sessionID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
