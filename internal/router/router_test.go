package router

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridgames/tictactoe-server/internal/entity"
	"github.com/gridgames/tictactoe-server/internal/monitor"
	"github.com/gridgames/tictactoe-server/internal/room"
)

type fakeArchive struct {
	saved chan *entity.MatchResult
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{saved: make(chan *entity.MatchResult, 1)}
}

func (that *fakeArchive) Save(_ context.Context, result *entity.MatchResult) error {
	that.saved <- result
	return nil
}

func newTestRouter(t *testing.T, archive Archive) (*Router, *monitor.Metrics) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := monitor.NewMetrics(prometheus.NewRegistry())

	return New(logger, room.NewStore(), archive, metrics), metrics
}

func TestRouter_HandleJoin(t *testing.T) {
	t.Run("First join answers the caller alone", func(t *testing.T) {
		// Given: a fresh router
		rt, _ := newTestRouter(t, nil)

		// When: A joins room abc
		outs := rt.HandleJoin("A", "abc")

		// Then: A alone receives gameJoined with X, an empty board and the turn
		require.Len(t, outs, 1)
		assert.Equal(t, []string{"A"}, outs[0].Recipients)
		assert.Equal(t, EventGameJoined, outs[0].Event.Action)

		payload, ok := outs[0].Event.Payload.(GameJoinedPayload)
		require.True(t, ok)
		assert.Equal(t, "abc", payload.RoomID)
		assert.Equal(t, entity.MarkX, payload.Symbol)
		assert.Equal(t, entity.Board{}, payload.Board)
		assert.Equal(t, "A", payload.CurrentTurn)
		assert.Equal(t, 1, payload.Players)
	})

	t.Run("Second join also starts the game for both", func(t *testing.T) {
		// Given: a room with A in it
		rt, _ := newTestRouter(t, nil)
		rt.HandleJoin("A", "abc")

		// When: B joins
		outs := rt.HandleJoin("B", "abc")

		// Then: B gets gameJoined with O, and both get gameStart with A's turn
		require.Len(t, outs, 2)

		joined := outs[0]
		assert.Equal(t, []string{"B"}, joined.Recipients)
		joinedPayload, ok := joined.Event.Payload.(GameJoinedPayload)
		require.True(t, ok)
		assert.Equal(t, entity.MarkO, joinedPayload.Symbol)
		assert.Equal(t, 2, joinedPayload.Players)

		start := outs[1]
		assert.Equal(t, EventGameStart, start.Event.Action)
		assert.ElementsMatch(t, []string{"A", "B"}, start.Recipients)
		startPayload, ok := start.Event.Payload.(BoardStatePayload)
		require.True(t, ok)
		assert.Equal(t, "A", startPayload.CurrentTurn)
	})

	t.Run("Refilling a room after a departure restarts the pair", func(t *testing.T) {
		// Given: a mid-game room where A moved and then disconnected
		rt, _ := newTestRouter(t, nil)
		rt.HandleJoin("A", "abc")
		rt.HandleJoin("B", "abc")
		require.Len(t, rt.HandleMove("A", "abc", 0), 1)
		rt.HandleDisconnect("A")

		// When: C joins the room B is waiting in
		outs := rt.HandleJoin("C", "abc")

		// Then: C gets gameJoined and both get gameStart, with the turn
		// still B's
		require.Len(t, outs, 2)

		joinedPayload, ok := outs[0].Event.Payload.(GameJoinedPayload)
		require.True(t, ok)
		assert.Equal(t, entity.MarkX, joinedPayload.Symbol)
		assert.Equal(t, "B", joinedPayload.CurrentTurn)

		start := outs[1]
		assert.Equal(t, EventGameStart, start.Event.Action)
		assert.ElementsMatch(t, []string{"B", "C"}, start.Recipients)
		startPayload, ok := start.Event.Payload.(BoardStatePayload)
		require.True(t, ok)
		assert.Equal(t, "B", startPayload.CurrentTurn)
		assert.Equal(t, entity.MarkX, startPayload.Board[0])
	})

	t.Run("Join to a full room answers roomFull to the caller only", func(t *testing.T) {
		// Given: a full room
		rt, _ := newTestRouter(t, nil)
		rt.HandleJoin("A", "abc")
		rt.HandleJoin("B", "abc")

		// When: C joins
		outs := rt.HandleJoin("C", "abc")

		// Then: C alone receives roomFull, no board exposure
		require.Len(t, outs, 1)
		assert.Equal(t, []string{"C"}, outs[0].Recipients)
		assert.Equal(t, EventRoomFull, outs[0].Event.Action)
		assert.Nil(t, outs[0].Event.Payload)
	})

	t.Run("Join tracks the open rooms gauge", func(t *testing.T) {
		rt, metrics := newTestRouter(t, nil)

		rt.HandleJoin("A", "abc")
		rt.HandleJoin("B", "def")

		assert.InDelta(t, 2, testutil.ToFloat64(metrics.OpenRooms), 0)
	})
}

func TestRouter_HandleMove(t *testing.T) {
	t.Run("Accepted move broadcasts the board update", func(t *testing.T) {
		// Given: an active game
		rt, metrics := newTestRouter(t, nil)
		rt.HandleJoin("A", "abc")
		rt.HandleJoin("B", "abc")

		// When: A plays cell 0
		outs := rt.HandleMove("A", "abc", 0)

		// Then: both participants receive boardUpdate with B's turn
		require.Len(t, outs, 1)
		assert.Equal(t, EventBoardUpdate, outs[0].Event.Action)
		assert.ElementsMatch(t, []string{"A", "B"}, outs[0].Recipients)

		payload, ok := outs[0].Event.Payload.(BoardStatePayload)
		require.True(t, ok)
		assert.Equal(t, entity.MarkX, payload.Board[0])
		assert.Equal(t, "B", payload.CurrentTurn)

		assert.InDelta(t, 1, testutil.ToFloat64(metrics.Moves), 0)
	})

	t.Run("Illegal moves produce no events and no state change", func(t *testing.T) {
		// Given: an active game
		rt, metrics := newTestRouter(t, nil)
		rt.HandleJoin("A", "abc")
		rt.HandleJoin("B", "abc")

		// When: every kind of illegal move is tried
		assert.Nil(t, rt.HandleMove("B", "abc", 0))     // out of turn
		assert.Nil(t, rt.HandleMove("A", "abc", 9))     // out of range
		assert.Nil(t, rt.HandleMove("A", "missing", 0)) // unknown room

		// Then: nothing was counted and A can still make the first move
		assert.InDelta(t, 0, testutil.ToFloat64(metrics.Moves), 0)
		outs := rt.HandleMove("A", "abc", 0)
		require.Len(t, outs, 1)
	})

	t.Run("Winning move broadcasts gameOver and archives the result", func(t *testing.T) {
		// Given: an active game one move from an X win
		archive := newFakeArchive()
		rt, metrics := newTestRouter(t, archive)
		rt.HandleJoin("A", "abc")
		rt.HandleJoin("B", "abc")
		for _, move := range []struct {
			player string
			cell   int
		}{
			{"A", 0}, {"B", 4}, {"A", 1}, {"B", 3},
		} {
			require.Len(t, rt.HandleMove(move.player, "abc", move.cell), 1)
		}

		// When: A completes the top row
		outs := rt.HandleMove("A", "abc", 2)

		// Then: gameOver broadcasts the final board with X as the winner
		require.Len(t, outs, 1)
		assert.Equal(t, EventGameOver, outs[0].Event.Action)
		assert.ElementsMatch(t, []string{"A", "B"}, outs[0].Recipients)

		payload, ok := outs[0].Event.Payload.(GameOverPayload)
		require.True(t, ok)
		assert.Equal(t, entity.MarkX, payload.Winner)
		assert.Equal(t, entity.Board{
			entity.MarkX, entity.MarkX, entity.MarkX,
			entity.MarkO, entity.MarkO, "",
			"", "", "",
		}, payload.Board)

		assert.InDelta(t, 1, testutil.ToFloat64(metrics.GamesFinished), 0)

		// And: the result reaches the archive
		select {
		case record := <-archive.saved:
			assert.Equal(t, "abc", record.RoomID)
			assert.Equal(t, entity.MarkX, record.Winner)
			assert.Len(t, record.Players, 2)
		case <-time.After(time.Second):
			t.Fatal("match result never reached the archive")
		}
	})

	t.Run("Draw broadcasts gameOver with the draw winner", func(t *testing.T) {
		// Given: an active game one move from a full board
		rt, _ := newTestRouter(t, nil)
		rt.HandleJoin("A", "abc")
		rt.HandleJoin("B", "abc")
		for _, move := range []struct {
			player string
			cell   int
		}{
			{"A", 0}, {"B", 1}, {"A", 2},
			{"B", 4}, {"A", 3}, {"B", 5},
			{"A", 7}, {"B", 6},
		} {
			require.Len(t, rt.HandleMove(move.player, "abc", move.cell), 1)
		}

		// When: A fills the last cell
		outs := rt.HandleMove("A", "abc", 8)

		// Then: the winner is "draw"
		require.Len(t, outs, 1)
		payload, ok := outs[0].Event.Payload.(GameOverPayload)
		require.True(t, ok)
		assert.Equal(t, entity.ResultDraw, payload.Winner)
	})
}

func TestRouter_HandleRestart(t *testing.T) {
	t.Run("Restart broadcasts the reset board", func(t *testing.T) {
		// Given: a finished game
		rt, _ := newTestRouter(t, nil)
		rt.HandleJoin("A", "abc")
		rt.HandleJoin("B", "abc")
		for _, move := range []struct {
			player string
			cell   int
		}{
			{"A", 0}, {"B", 4}, {"A", 1}, {"B", 3}, {"A", 2},
		} {
			rt.HandleMove(move.player, "abc", move.cell)
		}

		// When: the game restarts
		outs := rt.HandleRestart("B", "abc")

		// Then: both participants receive the empty board with A's turn
		require.Len(t, outs, 1)
		assert.Equal(t, EventGameRestart, outs[0].Event.Action)
		assert.ElementsMatch(t, []string{"A", "B"}, outs[0].Recipients)

		payload, ok := outs[0].Event.Payload.(BoardStatePayload)
		require.True(t, ok)
		assert.Equal(t, entity.Board{}, payload.Board)
		assert.Equal(t, "A", payload.CurrentTurn)
	})

	t.Run("Restart for an unknown room is dropped", func(t *testing.T) {
		rt, _ := newTestRouter(t, nil)

		assert.Nil(t, rt.HandleRestart("A", "missing"))
	})
}

func TestRouter_HandleDisconnect(t *testing.T) {
	t.Run("Disconnect notifies the remaining participant", func(t *testing.T) {
		// Given: an active game
		rt, _ := newTestRouter(t, nil)
		rt.HandleJoin("A", "abc")
		rt.HandleJoin("B", "abc")

		// When: A disconnects
		outs := rt.HandleDisconnect("A")

		// Then: B receives playerDisconnected and the room survives
		require.Len(t, outs, 1)
		assert.Equal(t, EventPlayerDisconnected, outs[0].Event.Action)
		assert.Equal(t, []string{"B"}, outs[0].Recipients)

		// And: B's moves still follow the normal turn rule
		assert.Nil(t, rt.HandleMove("B", "abc", 0))
	})

	t.Run("Last disconnect deletes the room", func(t *testing.T) {
		// Given: a room with a single participant
		rt, metrics := newTestRouter(t, nil)
		rt.HandleJoin("A", "abc")

		// When: A disconnects
		outs := rt.HandleDisconnect("A")

		// Then: nobody is notified and the room is gone
		assert.Empty(t, outs)
		assert.InDelta(t, 0, testutil.ToFloat64(metrics.OpenRooms), 0)

		// And: a later join starts over with a fresh room
		rejoined := rt.HandleJoin("A", "abc")
		require.Len(t, rejoined, 1)
		payload, ok := rejoined[0].Event.Payload.(GameJoinedPayload)
		require.True(t, ok)
		assert.Equal(t, 1, payload.Players)
		assert.Equal(t, entity.MarkX, payload.Symbol)
	})

	t.Run("Disconnect of an unknown participant does nothing", func(t *testing.T) {
		rt, _ := newTestRouter(t, nil)
		rt.HandleJoin("A", "abc")

		assert.Empty(t, rt.HandleDisconnect("ghost"))
	})
}
