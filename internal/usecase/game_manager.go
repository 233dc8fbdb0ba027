package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-history/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-history/internal/entity"
	"github.com/rocketscienceinc/tictactoe-history/internal/tictactoe"
)

var ErrEmptySession = errors.New("session id is empty")

// UpdateFunc is told about every accepted change to a session's game.
// ctx is the context of the call that made the change.
type UpdateFunc func(ctx context.Context, sessionID string, game *entity.Game)

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
}

// GameManager runs one game per session on top of a game repository.
// Calls for the same session are serialised.
type GameManager struct {
	logger   *slog.Logger
	gameRepo gameRepo
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sessionLock

	subsMu      sync.RWMutex
	subscribers []UpdateFunc
}

type sessionLock struct {
	sync.Mutex
	refs int
}

func NewGameManager(logger *slog.Logger, gameRepo gameRepo) *GameManager {
	return &GameManager{
		logger:   logger.With("component", "game_manager"),
		gameRepo: gameRepo,
		now:      time.Now,
		locks:    make(map[string]*sessionLock),
	}
}

// Subscribe registers fn for every accepted change. fn runs while the
// session is locked, so updates of one session arrive in order.
func (that *GameManager) Subscribe(fn UpdateFunc) {
	that.subsMu.Lock()
	defer that.subsMu.Unlock()

	that.subscribers = append(that.subscribers, fn)
}

// GetOrCreateGame returns the session's game, starting one on first contact.
func (that *GameManager) GetOrCreateGame(ctx context.Context, sessionID string) (*entity.Game, error) {
	if sessionID == "" {
		return nil, ErrEmptySession
	}

	unlock := that.lock(sessionID)
	defer unlock()

	game, err := that.getOrCreateGame(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return game, nil
}

// PlayMove places the current mark on cell.
func (that *GameManager) PlayMove(ctx context.Context, sessionID string, cell int) (*entity.Game, error) {
	return that.apply(ctx, sessionID, "PlayMove", func(controller *tictactoe.GameController) error {
		return controller.PlayMove(cell)
	})
}

// JumpTo views an earlier snapshot of the round.
func (that *GameManager) JumpTo(ctx context.Context, sessionID string, move int) (*entity.Game, error) {
	return that.apply(ctx, sessionID, "JumpTo", func(controller *tictactoe.GameController) error {
		return controller.JumpTo(move)
	})
}

// Reset starts a new round while keeping the scores.
func (that *GameManager) Reset(ctx context.Context, sessionID string) (*entity.Game, error) {
	return that.apply(ctx, sessionID, "Reset", func(controller *tictactoe.GameController) error {
		controller.Reset()
		return nil
	})
}

// EndSession drops the session's game together with its scores.
func (that *GameManager) EndSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrEmptySession
	}

	unlock := that.lock(sessionID)
	defer unlock()

	if err := that.gameRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}

	that.logger.Info("session ended", "session", sessionID)

	// the next request starts over, so listeners see a fresh game
	that.notify(ctx, sessionID, entity.NewGame(sessionID))

	return nil
}

// apply loads the game, runs op on it and stores the result. A rejected op
// returns the unchanged game along with the error and writes nothing.
func (that *GameManager) apply(
	ctx context.Context,
	sessionID, method string,
	op func(controller *tictactoe.GameController) error,
) (*entity.Game, error) {
	if sessionID == "" {
		return nil, ErrEmptySession
	}

	log := that.logger.With("method", method, "session", sessionID)

	unlock := that.lock(sessionID)
	defer unlock()

	game, err := that.getOrCreateGame(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	scoresBefore := game.Scores

	controller := tictactoe.NewGameController(game)
	if err = op(controller); err != nil {
		log.Debug("operation rejected", "error", err)
		return game, err
	}

	game.UpdatedAt = that.now()
	if err = that.updateGame(ctx, game); err != nil {
		return nil, err
	}

	outcome := game.CurrentOutcome()
	log.Debug("game updated", "current_move", game.CurrentMove, "outcome", outcome.String())

	if game.Scores != scoresBefore {
		log.Info("round finished", "outcome", outcome.String(), "scores", game.Scores)
	}

	that.notify(ctx, sessionID, game)

	return game, nil
}

func (that *GameManager) notify(ctx context.Context, sessionID string, game *entity.Game) {
	that.subsMu.RLock()
	defer that.subsMu.RUnlock()

	for _, fn := range that.subscribers {
		fn(ctx, sessionID, game)
	}
}

func (that *GameManager) getOrCreateGame(ctx context.Context, sessionID string) (*entity.Game, error) {
	game, err := that.gameRepo.GetByID(ctx, sessionID)
	if errors.Is(err, apperror.ErrGameNotFound) {
		return that.createGame(ctx, sessionID)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	if err = game.Validate(); err != nil {
		that.logger.Error("stored game is invalid", "session", sessionID, "error", err)
		return nil, err
	}

	return game, nil
}

func (that *GameManager) createGame(ctx context.Context, sessionID string) (*entity.Game, error) {
	game := entity.NewGame(sessionID)
	game.UpdatedAt = that.now()

	if err := that.updateGame(ctx, game); err != nil {
		return nil, err
	}

	that.logger.Info("game created", "session", sessionID)

	return game, nil
}

func (that *GameManager) updateGame(ctx context.Context, game *entity.Game) error {
	if err := that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}

	return nil
}

// lock acquires the session's mutex and returns its release func.
func (that *GameManager) lock(sessionID string) func() {
	that.mu.Lock()
	l, ok := that.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		that.locks[sessionID] = l
	}
	l.refs++
	that.mu.Unlock()

	l.Lock()

	return func() {
		l.Unlock()

		that.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(that.locks, sessionID)
		}
		that.mu.Unlock()
	}
}
