package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-history/internal/entity"
	"github.com/rocketscienceinc/tictactoe-history/internal/view"
	"github.com/rocketscienceinc/tictactoe-history/transport/session"
)

const (
	shutdownTimeout = 5 * time.Second
	writeTimeout    = 5 * time.Second

	// valid messages are a few dozen bytes
	maxMessageSize = 4 << 10
)

type uGame interface {
	GetOrCreateGame(ctx context.Context, sessionID string) (*entity.Game, error)
	PlayMove(ctx context.Context, sessionID string, cell int) (*entity.Game, error)
	JumpTo(ctx context.Context, sessionID string, move int) (*entity.Game, error)
	Reset(ctx context.Context, sessionID string) (*entity.Game, error)
}

// client is one socket. gorilla allows a single writer at a time, so every
// write goes through send.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (that *client) send(response Response) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err := that.conn.WriteJSON(response); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	return nil
}

type originKey struct{}

type handlerFunc func(ctx context.Context, sessionID string, payload *RequestPayload) (*entity.Game, error)

type Server struct {
	logger     *slog.Logger
	uGame      uGame
	sessionTTL time.Duration

	upgrader websocket.Upgrader
	handlers map[string]handlerFunc

	mu      sync.Mutex
	clients map[string]map[*client]struct{}
}

func New(logger *slog.Logger, uGame uGame, sessionTTL time.Duration) *Server {
	server := &Server{
		logger:     logger.With("component", "websocket"),
		uGame:      uGame,
		sessionTTL: sessionTTL,

		// the board is served from the HTTP port, so every upgrade is cross-origin
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		handlers: make(map[string]handlerFunc),
		clients:  make(map[string]map[*client]struct{}),
	}

	server.handlers[actionState] = server.handleState
	server.handlers[actionPlay] = server.handlePlay
	server.handlers[actionJump] = server.handleJump
	server.handlers[actionReset] = server.handleReset

	return server
}

// Handler serves the socket endpoint at /ws.
func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.upgradeToWebSocket)

	return mux
}

// Start - starts WebSocket server and stops it when ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection and serves its messages.
func (that *Server) upgradeToWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := session.Ensure(w, r, that.sessionTTL)
	log := that.logger.With("method", "upgradeToWebSocket", "session", sessionID)

	// the upgrader writes its own response, so the session cookie is passed on
	responseHeader := http.Header{"Set-Cookie": w.Header().Values("Set-Cookie")}

	conn, err := that.upgrader.Upgrade(w, r, responseHeader)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	conn.SetReadLimit(maxMessageSize)

	c := &client{conn: conn}
	that.register(sessionID, c)
	defer that.unregister(sessionID, c)

	ctx, cancel := context.WithCancel(context.WithValue(r.Context(), originKey{}, c))
	defer cancel()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	log.Info("WebSocket connection established")

	if err = that.handleMessages(ctx, c, sessionID); err != nil {
		log.Error("error handling messages", "error", err)
		return
	}

	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
}

// handleMessages - answers every client message until the client leaves.
func (that *Server) handleMessages(ctx context.Context, c *client, sessionID string) error {
	for {
		typ, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || ctx.Err() != nil {
				return nil
			}

			return fmt.Errorf("failed to read message: %w", err)
		}

		response := that.processMessage(ctx, sessionID, typ, data)

		if err = c.send(response); err != nil {
			return err
		}
	}
}

// Broadcast pushes game to every socket of the session except the one
// whose request produced the change, which gets the state as its reply.
func (that *Server) Broadcast(ctx context.Context, sessionID string, game *entity.Game) {
	origin, _ := ctx.Value(originKey{}).(*client)

	that.mu.Lock()
	targets := make([]*client, 0, len(that.clients[sessionID]))
	for c := range that.clients[sessionID] {
		if c != origin {
			targets = append(targets, c)
		}
	}
	that.mu.Unlock()

	if len(targets) == 0 {
		return
	}

	response := Response{Action: actionUpdate, Payload: ResponsePayload{Game: view.NewGame(game)}}
	for _, c := range targets {
		if err := c.send(response); err != nil {
			that.logger.Debug("failed to push update", "session", sessionID, "error", err)
		}
	}
}

func (that *Server) register(sessionID string, c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.clients[sessionID] == nil {
		that.clients[sessionID] = make(map[*client]struct{})
	}
	that.clients[sessionID][c] = struct{}{}
}

func (that *Server) unregister(sessionID string, c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.clients[sessionID], c)
	if len(that.clients[sessionID]) == 0 {
		delete(that.clients, sessionID)
	}
}

func (that *Server) processMessage(ctx context.Context, sessionID string, typ int, data []byte) Response {
	log := that.logger.With("method", "processMessage", "session", sessionID)

	if typ != websocket.TextMessage {
		return errorResponse(actionError, "only text messages are supported")
	}

	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		log.Debug("failed to unmarshal message", "error", err)
		return errorResponse(actionError, "invalid message")
	}

	handler, ok := that.handlers[message.Action]
	if !ok {
		return errorResponse(message.Action, fmt.Sprintf("unknown action %q", message.Action))
	}

	var payload RequestPayload
	if len(message.Payload) > 0 {
		if err := json.Unmarshal(message.Payload, &payload); err != nil {
			return errorResponse(message.Action, "invalid payload")
		}
	}

	game, err := handler(ctx, sessionID, &payload)

	return that.gameResponse(log, message.Action, game, err)
}
