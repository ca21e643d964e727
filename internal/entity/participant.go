package entity

// Participant is one connected player inside a room. The ID is the
// ephemeral per-connection identifier assigned by the transport.
type Participant struct {
	ID   string `json:"id"`
	Mark string `json:"mark"`
}
