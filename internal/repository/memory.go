package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/rocketscienceinc/tictactoe-history/internal/entity"
)

type memoryGame struct {
	games *ttlcache.Cache[string, []byte]
}

// NewMemoryGameRepository keeps games in process memory. Games are stored
// encoded so callers never share a *entity.Game with the store. Expired
// games are swept in the background until ctx is canceled.
func NewMemoryGameRepository(ctx context.Context, ttl time.Duration) GameRepository {
	return newMemoryGameRepository(ctx, ttl)
}

func newMemoryGameRepository(ctx context.Context, ttl time.Duration) *memoryGame {
	games := ttlcache.New[string, []byte](
		ttlcache.WithTTL[string, []byte](ttl),
		// reads do not extend a session, same as the redis store
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	)

	go games.Start()
	go func() {
		<-ctx.Done()
		games.Stop()
	}()

	return &memoryGame{games: games}
}

func (that *memoryGame) CreateOrUpdate(_ context.Context, game *entity.Game) error {
	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	that.games.Set(gameKey(game.ID), gameJSON, ttlcache.DefaultTTL)

	return nil
}

func (that *memoryGame) GetByID(_ context.Context, id string) (*entity.Game, error) {
	item := that.games.Get(gameKey(id))
	if item == nil {
		return nil, ErrGameNotFound
	}

	var existingGame entity.Game
	if err := json.Unmarshal(item.Value(), &existingGame); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return &existingGame, nil
}

func (that *memoryGame) DeleteByID(_ context.Context, id string) error {
	key := gameKey(id)
	if that.games.Get(key) == nil {
		return ErrGameNotFound
	}

	that.games.Delete(key)

	return nil
}
