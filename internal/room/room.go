package room

import (
	"sync"

	"github.com/gridgames/tictactoe-server/internal/apperror"
	"github.com/gridgames/tictactoe-server/internal/entity"
)

const (
	StatusWaiting  = "waiting"
	StatusActive   = "active"
	StatusFinished = "finished"
)

const maxParticipants = 2

// Room is one match: board, participants in join order, turn pointer and
// terminal result. Every operation locks the room, so Join/Move/Restart/Leave
// on the same room never interleave while different rooms proceed
// independently.
//
// Room identifiers are caller-supplied and guessable; two unrelated callers
// picking the same identifier end up in the same match.
type Room struct {
	id string

	mu      sync.Mutex
	players []*entity.Participant
	board   entity.Board
	turn    string
	status  string
	winner  string
	closed  bool
}

func New(id string) *Room {
	return &Room{
		id:     id,
		status: StatusWaiting,
	}
}

func (that *Room) ID() string {
	return that.id
}

// Closed - reports whether the last participant has left. A closed room
// never accepts another join; the store replaces it instead.
func (that *Room) Closed() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.closed
}

// JoinResult is the state snapshot returned to a joining participant.
type JoinResult struct {
	Mark         string
	Board        entity.Board
	Turn         string
	Players      int
	Started      bool
	Participants []*entity.Participant
}

// Join - adds a participant, assigning the next available mark. The first
// joiner gets X and the first turn; the second joiner gets O and starts
// the game.
func (that *Room) Join(participantID string) (*JoinResult, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return nil, apperror.ErrRoomClosed
	}

	if len(that.players) >= maxParticipants {
		return nil, apperror.ErrRoomFull
	}

	player := &entity.Participant{
		ID:   participantID,
		Mark: that.availableMark(),
	}
	that.players = append(that.players, player)

	// Only a vacant turn pointer is claimed: the first joiner of a fresh
	// room, or a game stalled with no legal mover. A live turn belongs to
	// whoever already holds it.
	if player.Mark == entity.MarkX && that.turn == "" {
		that.turn = player.ID
	}

	started := false
	if len(that.players) == maxParticipants {
		if that.status == StatusWaiting {
			that.status = StatusActive
		}
		started = true
	}

	return &JoinResult{
		Mark:         player.Mark,
		Board:        that.board,
		Turn:         that.turn,
		Players:      len(that.players),
		Started:      started,
		Participants: that.participants(),
	}, nil
}

// MoveResult is the state snapshot after an accepted move.
type MoveResult struct {
	Board        entity.Board
	Turn         string
	Finished     bool
	Winner       string
	Participants []*entity.Participant
}

// Move - writes the mover's mark into cell and evaluates the board. Turn
// advancement and terminal detection happen in one step under the room
// lock; callers never observe an intermediate state.
func (that *Room) Move(participantID string, cell int) (*MoveResult, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	switch that.status {
	case StatusWaiting:
		return nil, apperror.ErrGameIsNotStarted
	case StatusFinished:
		return nil, apperror.ErrGameFinished
	}

	mover := that.findPlayer(participantID)
	if mover == nil || that.turn != participantID {
		return nil, apperror.ErrNotYourTurn
	}

	if cell < 0 || cell >= len(that.board) {
		return nil, apperror.ErrInvalidCell
	}

	if that.board[cell] != entity.EmptyCell {
		return nil, apperror.ErrCellOccupied
	}

	that.board[cell] = mover.Mark

	switch winner := that.board.Winner(); {
	case winner != entity.EmptyCell:
		that.status = StatusFinished
		that.winner = winner
		that.turn = ""
	case that.board.IsFull():
		that.status = StatusFinished
		that.winner = entity.ResultDraw
		that.turn = ""
	default:
		that.turn = that.opponentID(participantID)
	}

	return &MoveResult{
		Board:        that.board,
		Turn:         that.turn,
		Finished:     that.status == StatusFinished,
		Winner:       that.winner,
		Participants: that.participants(),
	}, nil
}

// RestartResult is the state snapshot after a restart.
type RestartResult struct {
	Board        entity.Board
	Turn         string
	Participants []*entity.Participant
}

// Restart - clears the board and the terminal result and hands the first
// turn back to the earliest joiner still present. Marks never change after
// the initial join. Valid in any state, including mid-game.
func (that *Room) Restart() *RestartResult {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.board = entity.Board{}
	that.winner = ""
	that.turn = ""

	if len(that.players) > 0 {
		that.turn = that.players[0].ID
	}

	if len(that.players) == maxParticipants {
		that.status = StatusActive
	} else {
		that.status = StatusWaiting
	}

	return &RestartResult{
		Board:        that.board,
		Turn:         that.turn,
		Participants: that.participants(),
	}
}

// LeaveResult reports who is left to notify after a departure.
type LeaveResult struct {
	Left      bool
	Empty     bool
	Remaining []*entity.Participant
}

// Leave - removes the participant if present. The turn pointer is left
// untouched: there is no auto-forfeit, and a remaining participant whose
// opponent held the turn simply waits. An emptied room closes for good.
func (that *Room) Leave(participantID string) *LeaveResult {
	that.mu.Lock()
	defer that.mu.Unlock()

	idx := -1
	for i, player := range that.players {
		if player.ID == participantID {
			idx = i
			break
		}
	}

	if idx == -1 {
		return &LeaveResult{}
	}

	that.players = append(that.players[:idx], that.players[idx+1:]...)

	if len(that.players) == 0 {
		that.closed = true
		return &LeaveResult{Left: true, Empty: true}
	}

	return &LeaveResult{
		Left:      true,
		Remaining: that.participants(),
	}
}

// Status - returns the current lifecycle state.
func (that *Room) Status() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.status
}

// Turn - returns the identifier of the participant allowed to move next.
func (that *Room) Turn() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.turn
}

// Board - returns a copy of the current grid.
func (that *Room) Board() entity.Board {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.board
}

// availableMark - returns the mark no current participant holds.
// Join order decides on an empty room; after a departure the vacated mark
// is reassigned so each mark has exactly one holder.
func (that *Room) availableMark() string {
	for _, player := range that.players {
		if player.Mark == entity.MarkX {
			return entity.MarkO
		}
	}

	return entity.MarkX
}

func (that *Room) findPlayer(participantID string) *entity.Participant {
	for _, player := range that.players {
		if player.ID == participantID {
			return player
		}
	}

	return nil
}

// opponentID - returns the other participant's identifier, or empty if the
// opponent already left. An empty turn pointer stalls the game until a
// restart, which matches the no-auto-forfeit policy.
func (that *Room) opponentID(participantID string) string {
	for _, player := range that.players {
		if player.ID != participantID {
			return player.ID
		}
	}

	return ""
}

// participants - copies the player list for use outside the lock.
func (that *Room) participants() []*entity.Participant {
	players := make([]*entity.Participant, len(that.players))
	copy(players, that.players)

	return players
}
