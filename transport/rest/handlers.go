package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rocketscienceinc/tictactoe-history/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-history/internal/entity"
	"github.com/rocketscienceinc/tictactoe-history/internal/view"
	"github.com/rocketscienceinc/tictactoe-history/transport/session"
)

type uGame interface {
	GetOrCreateGame(ctx context.Context, sessionID string) (*entity.Game, error)
	PlayMove(ctx context.Context, sessionID string, cell int) (*entity.Game, error)
	JumpTo(ctx context.Context, sessionID string, move int) (*entity.Game, error)
	Reset(ctx context.Context, sessionID string) (*entity.Game, error)
	EndSession(ctx context.Context, sessionID string) error
}

// valid bodies are a few dozen bytes
const maxBodySize = 4 << 10

type moveRequest struct {
	Cell *int `json:"cell"`
}

type jumpRequest struct {
	Move *int `json:"move"`
}

type response struct {
	Game  *view.Game `json:"game,omitempty"`
	Error string     `json:"error,omitempty"`
}

type handlers struct {
	logger     *slog.Logger
	uGame      uGame
	sessionTTL time.Duration
}

// NewRouter wires the game API. Every request is bound to the session in
// the session cookie, which is created on first contact.
func NewRouter(logger *slog.Logger, uGame uGame, sessionTTL time.Duration) http.Handler {
	h := &handlers{
		logger:     logger.With("component", "rest"),
		uGame:      uGame,
		sessionTTL: sessionTTL,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/ping", h.ping)
	r.Route("/api/game", func(r chi.Router) {
		r.Get("/", h.getGame)
		r.Delete("/", h.endSession)
		r.Post("/moves", h.playMove)
		r.Post("/jump", h.jumpTo)
		r.Post("/reset", h.reset)
	})

	return r
}

func (that *handlers) getGame(w http.ResponseWriter, r *http.Request) {
	sessionID := session.Ensure(w, r, that.sessionTTL)

	game, err := that.uGame.GetOrCreateGame(r.Context(), sessionID)
	that.writeGame(w, r, game, err)
}

func (that *handlers) playMove(w http.ResponseWriter, r *http.Request) {
	sessionID := session.Ensure(w, r, that.sessionTTL)

	var req moveRequest
	if !that.decode(w, r, &req) {
		return
	}

	if req.Cell == nil {
		that.writeJSON(w, http.StatusBadRequest, response{Error: "cell is required"})
		return
	}

	game, err := that.uGame.PlayMove(r.Context(), sessionID, *req.Cell)
	that.writeGame(w, r, game, err)
}

func (that *handlers) jumpTo(w http.ResponseWriter, r *http.Request) {
	sessionID := session.Ensure(w, r, that.sessionTTL)

	var req jumpRequest
	if !that.decode(w, r, &req) {
		return
	}

	if req.Move == nil {
		that.writeJSON(w, http.StatusBadRequest, response{Error: "move is required"})
		return
	}

	game, err := that.uGame.JumpTo(r.Context(), sessionID, *req.Move)
	that.writeGame(w, r, game, err)
}

func (that *handlers) reset(w http.ResponseWriter, r *http.Request) {
	sessionID := session.Ensure(w, r, that.sessionTTL)

	game, err := that.uGame.Reset(r.Context(), sessionID)
	that.writeGame(w, r, game, err)
}

func (that *handlers) endSession(w http.ResponseWriter, r *http.Request) {
	sessionID := session.Ensure(w, r, that.sessionTTL)

	err := that.uGame.EndSession(r.Context(), sessionID)
	switch {
	case err == nil, errors.Is(err, apperror.ErrGameNotFound):
		w.WriteHeader(http.StatusNoContent)
	default:
		that.logger.Error("failed to end session", "error", err, "request_id", middleware.GetReqID(r.Context()))
		that.writeJSON(w, http.StatusInternalServerError, response{Error: "failed to end session"})
	}
}

// decode reads a size-limited JSON body into v and answers the request
// itself when that fails.
func (that *handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		that.writeJSON(w, http.StatusRequestEntityTooLarge, response{Error: "request body is too large"})
		return false
	}

	that.writeJSON(w, http.StatusBadRequest, response{Error: "invalid request body"})

	return false
}

// writeGame answers with the game view. Rejected moves and jumps still carry
// the unchanged game so the client can redraw it.
func (that *handlers) writeGame(w http.ResponseWriter, r *http.Request, game *entity.Game, err error) {
	if err == nil {
		that.writeJSON(w, http.StatusOK, response{Game: view.NewGame(game)})
		return
	}

	if apperror.IsRejected(err) && game != nil {
		that.writeJSON(w, rejectionStatus(err), response{Game: view.NewGame(game), Error: err.Error()})
		return
	}

	that.logger.Error("request failed", "error", err, "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()))
	that.writeJSON(w, http.StatusInternalServerError, response{Error: "internal error"})
}

func rejectionStatus(err error) int {
	if errors.Is(err, apperror.ErrInvalidIndex) {
		return http.StatusUnprocessableEntity
	}

	return http.StatusConflict
}

func (that *handlers) writeJSON(w http.ResponseWriter, status int, body response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
