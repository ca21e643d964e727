package entity

import "time"

// MatchResult is the record of a finished match kept in the archive.
// It is written once, after the terminal broadcast; live room state
// never touches the archive.
type MatchResult struct {
	RoomID     string         `json:"room_id"`
	Board      Board          `json:"board"`
	Winner     string         `json:"winner"`
	Players    []*Participant `json:"players"`
	FinishedAt time.Time      `json:"finished_at"`
}
