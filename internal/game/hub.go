package game

import (
	"fmt"
	"log"
	"sync"
)

// Hub is the registry of active rooms. Matches share nothing, so room
// lookup is the only synchronized step; everything after proceeds on
// the room's own lock.
type Hub struct {
	mu     sync.Mutex
	rooms  map[string]*Room
	nextID int
}

// NewHub creates an empty room registry.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]*Room)}
}

// FindOrCreateRoom returns a room with a free seat, creating one when
// every existing room is full.
func (h *Hub) FindOrCreateRoom() *Room {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, room := range h.rooms {
		if room.PlayerCount() < 2 {
			return room
		}
	}

	h.nextID++
	room := NewRoom(fmt.Sprintf("room_%d", h.nextID))
	h.rooms[room.ID] = room
	log.Printf("game: created %s", room.ID)
	return room
}

// RemoveRoom tears a room down once it is empty.
func (h *Hub) RemoveRoom(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[id]; ok {
		delete(h.rooms, id)
		log.Printf("game: removed %s", id)
	}
}

// RoomCount returns the number of live rooms.
func (h *Hub) RoomCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}
