package rest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rocketscienceinc/tictactoe-history/internal/repository"
	"github.com/rocketscienceinc/tictactoe-history/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-history/internal/view"
	"github.com/rocketscienceinc/tictactoe-history/transport/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type client struct {
	t       *testing.T
	handler http.Handler
	cookie  *http.Cookie
}

func newClient(t *testing.T) *client {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	manager := usecase.NewGameManager(logger, repository.NewMemoryGameRepository(ctx, time.Hour))

	return &client{
		t:       t,
		handler: NewRouter(logger, manager, time.Hour),
	}
}

func (that *client) do(method, path, body string) (int, response) {
	that.t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if that.cookie != nil {
		req.AddCookie(that.cookie)
	}

	rr := httptest.NewRecorder()
	that.handler.ServeHTTP(rr, req)

	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == session.CookieName {
			that.cookie = cookie
		}
	}

	var resp response
	if rr.Body.Len() > 0 {
		require.NoError(that.t, json.Unmarshal(rr.Body.Bytes(), &resp))
	}

	return rr.Code, resp
}

func (that *client) play(cells ...int) *view.Game {
	that.t.Helper()

	var resp response
	for _, cell := range cells {
		var code int
		code, resp = that.do(http.MethodPost, "/api/game/moves", `{"cell":`+strconv.Itoa(cell)+`}`)
		require.Equal(that.t, http.StatusOK, code, "cell %d: %s", cell, resp.Error)
	}

	return resp.Game
}

func TestPing(t *testing.T) {
	c := newClient(t)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rr := httptest.NewRecorder()
	c.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "pong", rr.Body.String())
}

func TestGetGame(t *testing.T) {
	// Given: a client without a session
	c := newClient(t)

	// When: fetching the game
	code, resp := c.do(http.MethodGet, "/api/game", "")

	// Then: a fresh game is rendered and a session cookie is set
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, c.cookie)
	assert.Equal(t, "X TURN", resp.Game.StatusText)
	assert.Equal(t, []view.Move{{Move: 0, Description: "Click on board to game start", Current: true}}, resp.Game.Moves)
}

func TestPlayMove(t *testing.T) {
	t.Run("X wins and is scored", func(t *testing.T) {
		c := newClient(t)

		game := c.play(0, 1, 3, 4, 6)

		assert.Equal(t, "Winner: X", game.StatusText)
		assert.Equal(t, "finished", game.Status)
		assert.Equal(t, view.Scores{X: 1}, game.Scores)
		assert.Len(t, game.Moves, 6)
	})

	t.Run("Occupied cell returns the unchanged game", func(t *testing.T) {
		// Given: X has played cell 0
		c := newClient(t)
		c.play(0)

		// When: O plays cell 0
		code, resp := c.do(http.MethodPost, "/api/game/moves", `{"cell":0}`)

		// Then: 409 with the current state
		assert.Equal(t, http.StatusConflict, code)
		assert.Contains(t, resp.Error, "cell is already occupied")
		require.NotNil(t, resp.Game)
		assert.Equal(t, "O", resp.Game.Turn)
		assert.Len(t, resp.Game.Moves, 2)
	})

	t.Run("Finished game returns 409", func(t *testing.T) {
		c := newClient(t)
		c.play(0, 1, 3, 4, 6)

		code, resp := c.do(http.MethodPost, "/api/game/moves", `{"cell":8}`)

		assert.Equal(t, http.StatusConflict, code)
		assert.Contains(t, resp.Error, "game is already finished")
		assert.Equal(t, view.Scores{X: 1}, resp.Game.Scores)
	})

	t.Run("Out of range cell returns 422", func(t *testing.T) {
		c := newClient(t)

		code, resp := c.do(http.MethodPost, "/api/game/moves", `{"cell":9}`)

		assert.Equal(t, http.StatusUnprocessableEntity, code)
		require.NotNil(t, resp.Game)
		assert.Len(t, resp.Game.Moves, 1)
	})

	t.Run("Missing cell returns 400", func(t *testing.T) {
		c := newClient(t)

		code, resp := c.do(http.MethodPost, "/api/game/moves", `{}`)

		assert.Equal(t, http.StatusBadRequest, code)
		assert.Nil(t, resp.Game)
	})

	t.Run("Malformed body returns 400", func(t *testing.T) {
		c := newClient(t)

		code, _ := c.do(http.MethodPost, "/api/game/moves", `{"cell":`)

		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("Oversized body returns 413", func(t *testing.T) {
		// Given: a body far past the limit
		c := newClient(t)
		body := `{"pad":"` + strings.Repeat("x", 2*maxBodySize) + `","cell":4}`

		// When: posting it
		code, resp := c.do(http.MethodPost, "/api/game/moves", body)

		// Then: it is refused and nothing was played
		assert.Equal(t, http.StatusRequestEntityTooLarge, code)
		assert.Nil(t, resp.Game)

		_, resp = c.do(http.MethodGet, "/api/game", "")
		assert.Equal(t, "", resp.Game.Board[4])
	})
}

func TestJumpTo(t *testing.T) {
	t.Run("Views a past snapshot and branches from it", func(t *testing.T) {
		// Given: X has won
		c := newClient(t)
		c.play(0, 1, 3, 4, 6)

		// When: jumping to move 2
		code, resp := c.do(http.MethodPost, "/api/game/jump", `{"move":2}`)

		// Then: the snapshot is shown without re-scoring
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, []string{"X", "O", "", "", "", "", "", "", ""}, resp.Game.Board)
		assert.Equal(t, "X TURN", resp.Game.StatusText)
		assert.Equal(t, view.Scores{X: 1}, resp.Game.Scores)
		assert.True(t, resp.Game.Moves[2].Current)

		// When: X plays from there
		game := c.play(5)

		// Then: the old continuation is gone
		assert.Len(t, game.Moves, 4)
		assert.Equal(t, 3, game.CurrentMove)
	})

	t.Run("Out of range move returns 422", func(t *testing.T) {
		c := newClient(t)

		code, resp := c.do(http.MethodPost, "/api/game/jump", `{"move":3}`)

		assert.Equal(t, http.StatusUnprocessableEntity, code)
		assert.Equal(t, 0, resp.Game.CurrentMove)
	})
}

func TestReset(t *testing.T) {
	// Given: a won round and a started one
	c := newClient(t)
	c.play(0, 1, 3, 4, 6)
	c.do(http.MethodPost, "/api/game/reset", "")
	c.play(4)

	// When: resetting
	code, resp := c.do(http.MethodPost, "/api/game/reset", "")

	// Then: the board is empty and the scores are kept
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, resp.Game.Moves, 1)
	assert.Equal(t, view.Scores{X: 1}, resp.Game.Scores)
}

func TestEndSession(t *testing.T) {
	// Given: a session with a scored round
	c := newClient(t)
	c.play(0, 1, 3, 4, 6)

	// When: ending the session
	code, _ := c.do(http.MethodDelete, "/api/game", "")

	// Then: the next request starts from zero
	require.Equal(t, http.StatusNoContent, code)

	_, resp := c.do(http.MethodGet, "/api/game", "")
	assert.Equal(t, view.Scores{}, resp.Game.Scores)
}

func TestSessionsAreIsolated(t *testing.T) {
	c := newClient(t)
	c.play(4)

	other := &client{t: t, handler: c.handler}
	_, resp := other.do(http.MethodGet, "/api/game", "")

	assert.Equal(t, "", resp.Game.Board[4])
}
