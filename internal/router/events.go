package router

import "github.com/gridgames/tictactoe-server/internal/entity"

// Inbound actions accepted from participants.
const (
	ActionJoin    = "join"
	ActionMove    = "move"
	ActionRestart = "restartGame"
)

// Outbound event names.
const (
	EventGameJoined         = "gameJoined"
	EventRoomFull           = "roomFull"
	EventGameStart          = "gameStart"
	EventBoardUpdate        = "boardUpdate"
	EventGameOver           = "gameOver"
	EventGameRestart        = "gameRestart"
	EventPlayerDisconnected = "playerDisconnected"
)

// Event is one outbound message: an action name plus its payload.
type Event struct {
	Action  string `json:"action"`
	Payload any    `json:"payload,omitempty"`
}

// Outbound couples an event with the participants it must reach. The
// transport delivers it to every recipient still connected and drops the
// rest; delivery is fire-and-forget.
type Outbound struct {
	Recipients []string
	Event      Event
}

// GameJoinedPayload is the direct reply to a successful join.
type GameJoinedPayload struct {
	RoomID      string       `json:"roomId"`
	Symbol      string       `json:"symbol"`
	Board       entity.Board `json:"board"`
	CurrentTurn string       `json:"currentTurn"`
	Players     int          `json:"players"`
}

// BoardStatePayload carries the grid and the turn holder; used by
// gameStart, boardUpdate and gameRestart.
type BoardStatePayload struct {
	Board       entity.Board `json:"board"`
	CurrentTurn string       `json:"currentTurn"`
}

// GameOverPayload carries the final grid and the winner mark, or "draw".
type GameOverPayload struct {
	Board  entity.Board `json:"board"`
	Winner string       `json:"winner"`
}

func direct(participantID string, event Event) Outbound {
	return Outbound{
		Recipients: []string{participantID},
		Event:      event,
	}
}

func broadcast(players []*entity.Participant, event Event) Outbound {
	recipients := make([]string, len(players))
	for i, player := range players {
		recipients[i] = player.ID
	}

	return Outbound{
		Recipients: recipients,
		Event:      event,
	}
}
