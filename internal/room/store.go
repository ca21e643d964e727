package room

import "sync"

// Store owns every live room in the process, keyed by the caller-supplied
// room identifier. The store lock only covers map membership; gameplay
// operations run under the per-room lock.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewStore() *Store {
	return &Store{
		rooms: make(map[string]*Room),
	}
}

// GetOrCreate - returns the room registered under id, creating and
// registering an empty one if absent. A room closed by its last leave is
// replaced with a fresh one, never resurrected.
func (that *Store) GetOrCreate(id string) *Room {
	that.mu.Lock()
	defer that.mu.Unlock()

	if existing, ok := that.rooms[id]; ok && !existing.Closed() {
		return existing
	}

	created := New(id)
	that.rooms[id] = created

	return created
}

// Get - looks up a room without creating one.
func (that *Store) Get(id string) (*Room, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	existing, ok := that.rooms[id]

	return existing, ok
}

// Remove - drops the entry for id once its room has closed. No-op if the
// id is absent or the slot was already taken over by a fresh room.
func (that *Store) Remove(id string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	existing, ok := that.rooms[id]
	if !ok || !existing.Closed() {
		return
	}

	delete(that.rooms, id)
}

// ForEach - visits every registered room. The store lock is released
// before fn runs, so fn may take room locks and call Remove.
func (that *Store) ForEach(fn func(*Room)) {
	that.mu.RLock()
	snapshot := make([]*Room, 0, len(that.rooms))
	for _, existing := range that.rooms {
		snapshot = append(snapshot, existing)
	}
	that.mu.RUnlock()

	for _, existing := range snapshot {
		fn(existing)
	}
}

// Len - returns the number of registered rooms.
func (that *Store) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.rooms)
}
