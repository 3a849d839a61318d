// Package runtime coordinates connections, rooms, fan-out, and pulse
// timers. It orchestrates the presence system without containing
// business logic or transport code.
package runtime

import (
	"sync"

	"github.com/Bitcomethub/Somnus/contract"
	"github.com/Bitcomethub/Somnus/domain"
)

type Set map[domain.ConnectionID]struct{}

// Registry owns the three shared maps of the presence core: the session
// directory (connection -> sink), the membership map (room -> members),
// and the reverse index (connection -> rooms) that makes the disconnect
// cascade cheap. All mutation goes through the hub loop, the lock only
// guards concurrent readers (stats, debug inspector).
type Registry struct {
	mu          sync.RWMutex
	Sessions    map[domain.ConnectionID]contract.EventSink
	RoomMembers map[domain.RoomID]Set
	ConnRooms   map[domain.ConnectionID]map[domain.RoomID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		Sessions:    make(map[domain.ConnectionID]contract.EventSink),
		RoomMembers: make(map[domain.RoomID]Set),
		ConnRooms:   make(map[domain.ConnectionID]map[domain.RoomID]struct{}),
	}
}

// Connect registers a live connection with an empty membership set.
func (r *Registry) Connect(conn domain.ConnectionID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Sessions[conn] = sink
	r.ConnRooms[conn] = make(map[domain.RoomID]struct{})
}

// Disconnect removes the connection from every room it had joined and
// discards its session. It returns the affected rooms so the caller can
// run the same presence/timer effects as an explicit leave from each.
// Disconnecting an unknown connection returns nil.
func (r *Registry) Disconnect(conn domain.ConnectionID) []domain.RoomID {
	r.mu.Lock()
	defer r.mu.Unlock()

	joined, ok := r.ConnRooms[conn]
	if !ok {
		return nil
	}

	var affected []domain.RoomID
	for room := range joined {
		if members, exists := r.RoomMembers[room]; exists {
			delete(members, conn)
			if len(members) == 0 {
				delete(r.RoomMembers, room)
			}
		}
		affected = append(affected, room)
	}

	delete(r.ConnRooms, conn)
	delete(r.Sessions, conn)
	return affected
}

// Join adds the connection to the room, creating the room on demand.
// It reports the resulting count, whether this was the room's first
// member, and whether the membership actually changed (a repeated join
// is idempotent and reports changed=false).
func (r *Registry) Join(conn domain.ConnectionID, room domain.RoomID) (count int, first bool, changed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	joined, known := r.ConnRooms[conn]
	if !known {
		// Connection raced its own disconnect. Silent no-op.
		return 0, false, false
	}

	members, exists := r.RoomMembers[room]
	if !exists {
		members = make(Set)
		r.RoomMembers[room] = members
	}

	if _, already := members[conn]; already {
		return len(members), false, false
	}

	members[conn] = struct{}{}
	joined[room] = struct{}{}
	return len(members), len(members) == 1, true
}

// Leave removes the connection from the room. It reports the remaining
// count, whether the room just became empty (and was deleted), and
// whether anything changed.
func (r *Registry) Leave(conn domain.ConnectionID, room domain.RoomID) (count int, last bool, changed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, exists := r.RoomMembers[room]
	if !exists {
		return 0, false, false
	}
	if _, present := members[conn]; !present {
		return len(members), false, false
	}

	delete(members, conn)
	if joined, known := r.ConnRooms[conn]; known {
		delete(joined, room)
	}

	// If no one is left in the room, remove the room entry entirely
	if len(members) == 0 {
		delete(r.RoomMembers, room)
		return 0, true, true
	}
	return len(members), false, true
}

func (r *Registry) Count(room domain.RoomID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.RoomMembers[room])
}

// SinksForRoom retrieves all active delivery channels for a room,
// skipping the excluded connections. It performs a two-step lookup:
// membership first, then session resolution, so a connection joined to
// several rooms still has a single sink managed in one place.
// Returns nil if the room doesn't exist or has no members.
func (r *Registry) SinksForRoom(room domain.RoomID, exclude ...domain.ConnectionID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.RoomMembers[room]
	if !ok {
		return nil
	}

	var activeSinks []contract.EventSink
	for conn := range members {
		if excluded(conn, exclude) {
			continue
		}
		if sink, exists := r.Sessions[conn]; exists {
			activeSinks = append(activeSinks, sink)
		}
	}
	return activeSinks
}

// AllSinks returns the sink of every live connection, joined or not.
// Used only for global signals.
func (r *Registry) AllSinks() []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sinks := make([]contract.EventSink, 0, len(r.Sessions))
	for _, sink := range r.Sessions {
		sinks = append(sinks, sink)
	}
	return sinks
}

// Occupancies snapshots every live room with its current count.
func (r *Registry) Occupancies() []domain.Occupancy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	occs := make([]domain.Occupancy, 0, len(r.RoomMembers))
	for room, members := range r.RoomMembers {
		occs = append(occs, domain.Occupancy{Room: room, Count: len(members)})
	}
	return occs
}

func excluded(conn domain.ConnectionID, exclude []domain.ConnectionID) bool {
	for _, e := range exclude {
		if e == conn {
			return true
		}
	}
	return false
}
