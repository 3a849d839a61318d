// Package projection builds local read models from observed events.
// Handles ordering and aggregation only; it never emits events back
// into the hub.
package projection

import (
	"context"
	"sync"

	"github.com/Bitcomethub/Somnus/domain"
	"github.com/Bitcomethub/Somnus/domain/event"
)

// OccupancyBoard holds the last announced count per room. It is a
// permanent hub sink, so it observes every presence event without
// touching the registry.
type OccupancyBoard struct {
	mu     sync.RWMutex
	counts map[domain.RoomID]int
}

func NewOccupancyBoard() *OccupancyBoard {
	return &OccupancyBoard{counts: make(map[domain.RoomID]int)}
}

func (b *OccupancyBoard) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.ShieldCount:
		b.record(evt.Room(), evt.Count)
	case event.RoomCount:
		b.record(evt.Room(), evt.Count)
	}
	return nil
}

func (b *OccupancyBoard) record(room domain.RoomID, count int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if count == 0 {
		delete(b.counts, room)
		return
	}
	b.counts[room] = count
}

// Snapshot lists every room with its last announced occupancy.
func (b *OccupancyBoard) Snapshot() []domain.Occupancy {
	b.mu.RLock()
	defer b.mu.RUnlock()

	occs := make([]domain.Occupancy, 0, len(b.counts))
	for room, count := range b.counts {
		occs = append(occs, domain.Occupancy{Room: room, Count: count})
	}
	return occs
}
