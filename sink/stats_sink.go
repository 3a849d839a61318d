// Package sink provides permanent event sinks attached to the hub's
// fan-out, intended for observability and side effects, never for core
// presence logic.
package sink

import (
	"context"
	"sync"

	"github.com/Bitcomethub/Somnus/domain/event"
)

// StatsSink counts produced events by wire name. Cheap enough to sit on
// the hot path; the viewer and debug inspector read the totals.
type StatsSink struct {
	mu     sync.RWMutex
	totals map[string]uint64
}

func NewStatsSink() *StatsSink {
	return &StatsSink{totals: make(map[string]uint64)}
}

func (s *StatsSink) Consume(_ context.Context, e event.DomainEvent) error {
	s.mu.Lock()
	s.totals[e.Name()]++
	s.mu.Unlock()
	return nil
}

func (s *StatsSink) Totals() map[string]uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]uint64, len(s.totals))
	for name, n := range s.totals {
		out[name] = n
	}
	return out
}
