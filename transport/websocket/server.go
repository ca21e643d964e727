package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/gridgames/tictactoe-server/internal/monitor"
	"github.com/gridgames/tictactoe-server/internal/router"
)

// gameRouter maps inbound participant events to addressed outbound events.
type gameRouter interface {
	HandleJoin(participantID, roomID string) []router.Outbound
	HandleMove(participantID, roomID string, cell int) []router.Outbound
	HandleRestart(participantID, roomID string) []router.Outbound
	HandleDisconnect(participantID string) []router.Outbound
}

type Server struct {
	logger  *slog.Logger
	router  gameRouter
	metrics *monitor.Metrics

	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client
}

func New(logger *slog.Logger, gameRouter gameRouter, metrics *monitor.Metrics) *Server {
	return &Server{
		logger:  logger,
		router:  gameRouter,
		metrics: metrics,

		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},

		clients: make(map[string]*client),
	}
}

// Start - starts the WebSocket server and blocks until the listener fails
// or ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.serveWS)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// serveWS - upgrades the connection, assigns the ephemeral participant
// identifier and runs the read loop until the connection dies.
func (that *Server) serveWS(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "serveWS")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	participant := newClient(uuid.NewString(), conn)

	that.mu.Lock()
	that.clients[participant.id] = participant
	that.mu.Unlock()

	that.metrics.ConnectedClients.Inc()
	log.Info("participant connected", "participantID", participant.id)

	go participant.writePump()
	that.readLoop(participant)
}

// readLoop - processes inbound messages one at a time until the
// connection closes, then runs the disconnect sweep.
func (that *Server) readLoop(participant *client) {
	log := that.logger.With("method", "readLoop", "participantID", participant.id)

	defer that.dropClient(participant)

	participant.conn.SetReadLimit(maxMessageSize)
	_ = participant.conn.SetReadDeadline(time.Now().Add(pongWait))
	participant.conn.SetPongHandler(func(string) error {
		return participant.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := participant.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("connection closed unexpectedly", "error", err)
			}
			return
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		that.dispatch(participant, &message)
	}
}

// dispatch - routes one inbound message to the game router and delivers
// whatever events come back. Malformed payloads and unknown actions are
// logged and skipped; the connection stays open.
func (that *Server) dispatch(participant *client, message *Message) {
	log := that.logger.With("method", "dispatch", "participantID", participant.id, "action", message.Action)

	switch message.Action {
	case router.ActionJoin:
		var payload JoinPayload
		if err := json.Unmarshal(message.Payload, &payload); err != nil {
			log.Error("failed to unmarshal payload", "error", err)
			return
		}

		that.deliver(that.router.HandleJoin(participant.id, payload.RoomID))
	case router.ActionMove:
		var payload MovePayload
		if err := json.Unmarshal(message.Payload, &payload); err != nil {
			log.Error("failed to unmarshal payload", "error", err)
			return
		}

		that.deliver(that.router.HandleMove(participant.id, payload.RoomID, payload.Index))
	case router.ActionRestart:
		var payload RestartPayload
		if err := json.Unmarshal(message.Payload, &payload); err != nil {
			log.Error("failed to unmarshal payload", "error", err)
			return
		}

		that.deliver(that.router.HandleRestart(participant.id, payload.RoomID))
	default:
		log.Info("unknown action ignored")
	}
}

// deliver - fans addressed events out to their recipients' send queues.
func (that *Server) deliver(outs []router.Outbound) {
	log := that.logger.With("method", "deliver")

	for _, out := range outs {
		data, err := json.Marshal(out.Event)
		if err != nil {
			log.Error("failed to marshal event", "action", out.Event.Action, "error", err)
			continue
		}

		for _, recipientID := range out.Recipients {
			that.mu.RLock()
			recipient, ok := that.clients[recipientID]
			that.mu.RUnlock()

			if !ok {
				log.Debug("recipient not connected", "participantID", recipientID)
				continue
			}

			if !recipient.enqueue(data) {
				log.Debug("event dropped, send queue unavailable", "participantID", recipientID)
			}
		}
	}
}

// dropClient - unregisters the connection and tells the router its
// participant is gone.
func (that *Server) dropClient(participant *client) {
	that.mu.Lock()
	delete(that.clients, participant.id)
	that.mu.Unlock()

	participant.close()

	that.metrics.ConnectedClients.Dec()
	that.logger.Info("participant disconnected", "participantID", participant.id)

	that.deliver(that.router.HandleDisconnect(participant.id))
}
