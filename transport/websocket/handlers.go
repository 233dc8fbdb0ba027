package websocket

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-history/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-history/internal/entity"
	"github.com/rocketscienceinc/tictactoe-history/internal/view"
)

var (
	errCellRequired = errors.New("cell is required")
	errMoveRequired = errors.New("move is required")
)

func (that *Server) handleState(ctx context.Context, sessionID string, _ *RequestPayload) (*entity.Game, error) {
	return that.uGame.GetOrCreateGame(ctx, sessionID)
}

func (that *Server) handlePlay(ctx context.Context, sessionID string, payload *RequestPayload) (*entity.Game, error) {
	if payload.Cell == nil {
		return nil, errCellRequired
	}

	return that.uGame.PlayMove(ctx, sessionID, *payload.Cell)
}

func (that *Server) handleJump(ctx context.Context, sessionID string, payload *RequestPayload) (*entity.Game, error) {
	if payload.Move == nil {
		return nil, errMoveRequired
	}

	return that.uGame.JumpTo(ctx, sessionID, *payload.Move)
}

func (that *Server) handleReset(ctx context.Context, sessionID string, _ *RequestPayload) (*entity.Game, error) {
	return that.uGame.Reset(ctx, sessionID)
}

// gameResponse renders the state after a handler ran. Rejected moves and
// jumps still carry the unchanged game.
func (that *Server) gameResponse(log *slog.Logger, action string, game *entity.Game, err error) Response {
	switch {
	case err == nil:
		return Response{Action: action, Payload: ResponsePayload{Game: view.NewGame(game)}}
	case apperror.IsRejected(err) && game != nil:
		return Response{Action: action, Payload: ResponsePayload{Game: view.NewGame(game), Error: err.Error()}}
	case errors.Is(err, errCellRequired), errors.Is(err, errMoveRequired):
		return errorResponse(action, err.Error())
	default:
		log.Error("failed to process message", "action", action, "error", err)
		return errorResponse(action, "internal error")
	}
}
