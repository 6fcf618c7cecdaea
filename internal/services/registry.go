package services

import (
	"context"
	"log"
	"sort"
	"sync"

	"github.com/adi-253/Talkie/relay/internal/models"
)

// MemoryRegistry tracks which display names are present in which rooms.
// A room exists only while it has at least one participant.
type MemoryRegistry struct {
	mu    sync.RWMutex
	rooms map[string]*participantSet
}

// participantSet keeps names unique and in the order they first joined.
type participantSet struct {
	order []string
	index map[string]struct{}
}

// NewMemoryRegistry creates an empty in-process registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{rooms: make(map[string]*participantSet)}
}

// Add records username in roomID, creating the room if needed. Adding a name
// that is already present changes nothing.
func (r *MemoryRegistry) Add(_ context.Context, roomID, username string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.rooms[roomID]
	if !ok {
		set = &participantSet{index: make(map[string]struct{})}
		r.rooms[roomID] = set
		log.Printf("[Registry] Room %s created", roomID)
	}
	if _, exists := set.index[username]; !exists {
		set.index[username] = struct{}{}
		set.order = append(set.order, username)
	}
	return set.list(), nil
}

// Remove drops username from roomID and deletes the room once it is empty.
// removed reports whether the name was present.
func (r *MemoryRegistry) Remove(_ context.Context, roomID, username string) (bool, []string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.rooms[roomID]
	if !ok {
		return false, []string{}, nil
	}
	if _, exists := set.index[username]; !exists {
		return false, set.list(), nil
	}

	delete(set.index, username)
	for i, name := range set.order {
		if name == username {
			set.order = append(set.order[:i], set.order[i+1:]...)
			break
		}
	}

	if len(set.order) == 0 {
		delete(r.rooms, roomID)
		log.Printf("[Registry] Room %s is now empty, removed", roomID)
		return true, []string{}, nil
	}
	return true, set.list(), nil
}

// List returns the participants of roomID, or an empty list if the room does not exist.
func (r *MemoryRegistry) List(_ context.Context, roomID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.rooms[roomID]
	if !ok {
		return []string{}, nil
	}
	return set.list(), nil
}

// Rooms returns every live room with its participants, ordered by room id.
func (r *MemoryRegistry) Rooms(_ context.Context) ([]models.RoomInfoResponse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]models.RoomInfoResponse, 0, len(r.rooms))
	for roomID, set := range r.rooms {
		rooms = append(rooms, models.RoomInfoResponse{RoomID: roomID, Participants: set.list()})
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].RoomID < rooms[j].RoomID })
	return rooms, nil
}

func (s *participantSet) list() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
