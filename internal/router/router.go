package router

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gridgames/tictactoe-server/internal/apperror"
	"github.com/gridgames/tictactoe-server/internal/entity"
	"github.com/gridgames/tictactoe-server/internal/monitor"
	"github.com/gridgames/tictactoe-server/internal/room"
)

const archiveTimeout = 5 * time.Second

// Archive records finished matches. May be nil, in which case results are
// not kept.
type Archive interface {
	Save(ctx context.Context, result *entity.MatchResult) error
}

// Router maps inbound participant events to room operations and the
// resulting transitions to outbound events. It holds no game state of its
// own; every invariant lives in the room package.
type Router struct {
	logger  *slog.Logger
	rooms   *room.Store
	archive Archive
	metrics *monitor.Metrics
}

func New(logger *slog.Logger, rooms *room.Store, archive Archive, metrics *monitor.Metrics) *Router {
	return &Router{
		logger:  logger,
		rooms:   rooms,
		archive: archive,
		metrics: metrics,
	}
}

// HandleJoin - resolves or creates the room and adds the participant.
// A full room answers the caller alone; a join that completes the pair
// additionally starts the game for both.
func (that *Router) HandleJoin(participantID, roomID string) []Outbound {
	log := that.logger.With("method", "HandleJoin", "roomID", roomID, "participantID", participantID)

	var result *room.JoinResult
	var err error

	// The last leave may close a room between lookup and join; retry gets
	// a fresh one from the store.
	for {
		result, err = that.rooms.GetOrCreate(roomID).Join(participantID)
		if !errors.Is(err, apperror.ErrRoomClosed) {
			break
		}
	}

	if errors.Is(err, apperror.ErrRoomFull) {
		log.Info("join rejected, room is full")
		return []Outbound{direct(participantID, Event{Action: EventRoomFull})}
	}

	that.metrics.OpenRooms.Set(float64(that.rooms.Len()))

	out := []Outbound{direct(participantID, Event{
		Action: EventGameJoined,
		Payload: GameJoinedPayload{
			RoomID:      roomID,
			Symbol:      result.Mark,
			Board:       result.Board,
			CurrentTurn: result.Turn,
			Players:     result.Players,
		},
	})}

	if result.Started {
		out = append(out, broadcast(result.Participants, Event{
			Action: EventGameStart,
			Payload: BoardStatePayload{
				Board:       result.Board,
				CurrentTurn: result.Turn,
			},
		}))
	}

	log.Info("participant joined", "players", result.Players)

	return out
}

// HandleMove - applies a move. Every illegal move is dropped without a
// reply or a state change; the caller simply sees nothing happen.
func (that *Router) HandleMove(participantID, roomID string, cell int) []Outbound {
	log := that.logger.With("method", "HandleMove", "roomID", roomID, "participantID", participantID)

	match, ok := that.rooms.Get(roomID)
	if !ok {
		log.Debug("move for unknown room dropped")
		return nil
	}

	result, err := match.Move(participantID, cell)
	if err != nil {
		log.Debug("move rejected", "cell", cell, "error", err)
		return nil
	}

	that.metrics.Moves.Inc()

	if result.Finished {
		that.metrics.GamesFinished.Inc()
		that.archiveResult(roomID, result)

		log.Info("game over", "winner", result.Winner)

		return []Outbound{broadcast(result.Participants, Event{
			Action: EventGameOver,
			Payload: GameOverPayload{
				Board:  result.Board,
				Winner: result.Winner,
			},
		})}
	}

	return []Outbound{broadcast(result.Participants, Event{
		Action: EventBoardUpdate,
		Payload: BoardStatePayload{
			Board:       result.Board,
			CurrentTurn: result.Turn,
		},
	})}
}

// HandleRestart - force-restarts the room regardless of its state.
// Unknown rooms are dropped silently; a join is the only way to create one.
func (that *Router) HandleRestart(participantID, roomID string) []Outbound {
	log := that.logger.With("method", "HandleRestart", "roomID", roomID, "participantID", participantID)

	match, ok := that.rooms.Get(roomID)
	if !ok {
		log.Debug("restart for unknown room dropped")
		return nil
	}

	result := match.Restart()

	log.Info("game restarted")

	return []Outbound{broadcast(result.Participants, Event{
		Action: EventGameRestart,
		Payload: BoardStatePayload{
			Board:       result.Board,
			CurrentTurn: result.Turn,
		},
	})}
}

// HandleDisconnect - sweeps every room for the departed participant,
// removes them, notifies whoever remains, and deletes rooms left empty.
func (that *Router) HandleDisconnect(participantID string) []Outbound {
	log := that.logger.With("method", "HandleDisconnect", "participantID", participantID)

	var out []Outbound

	that.rooms.ForEach(func(match *room.Room) {
		result := match.Leave(participantID)
		if !result.Left {
			return
		}

		if result.Empty {
			that.rooms.Remove(match.ID())
			log.Info("room deleted", "roomID", match.ID())
			return
		}

		log.Info("participant left room", "roomID", match.ID())

		out = append(out, broadcast(result.Remaining, Event{Action: EventPlayerDisconnected}))
	})

	that.metrics.OpenRooms.Set(float64(that.rooms.Len()))

	return out
}

// archiveResult - records the finished match in the background. Failures
// are logged and forgotten; the archive never blocks or fails gameplay.
func (that *Router) archiveResult(roomID string, result *room.MoveResult) {
	if that.archive == nil {
		return
	}

	record := &entity.MatchResult{
		RoomID:     roomID,
		Board:      result.Board,
		Winner:     result.Winner,
		Players:    result.Participants,
		FinishedAt: time.Now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()

		if err := that.archive.Save(ctx, record); err != nil {
			that.logger.Error("failed to archive match result", "roomID", roomID, "error", err)
		}
	}()
}
