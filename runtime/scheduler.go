package runtime

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/Bitcomethub/Somnus/contract"
	"github.com/Bitcomethub/Somnus/domain"
	"github.com/Bitcomethub/Somnus/observability"
)

const (
	// Pulse amplitude simulates breathing/audio analysis, uniform in [0.8, 1.4).
	pulseFloor = 0.8
	pulseSpan  = 0.6
)

// PulseScheduler owns every pulse-timer lifecycle transition. The hub
// invokes OnFirstMember/OnLastMember on membership transitions; nothing
// else may start or stop a room timer. Each running room holds exactly
// one ticker goroutine that feeds PulseCommands back into the hub loop,
// so a tick can never mutate room state concurrently with a leave.
type PulseScheduler struct {
	log      *slog.Logger
	stats    *observability.PresenceStats
	interval time.Duration

	mu      sync.Mutex
	hub     contract.IHub
	handles map[domain.RoomID]chan struct{}
}

func NewPulseScheduler(log *slog.Logger, stats *observability.PresenceStats, interval time.Duration) *PulseScheduler {
	return &PulseScheduler{
		log:      log,
		stats:    stats,
		interval: interval,
		handles:  make(map[domain.RoomID]chan struct{}),
	}
}

// Bind wires the hub after construction (hub and scheduler reference
// each other, the hub side is set once at boot).
func (s *PulseScheduler) Bind(hub contract.IHub) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hub = hub
}

// OnFirstMember transitions the room STOPPED -> RUNNING. Only sleep
// rooms carry a pulse; other kinds are accepted and ignored so the
// membership manager keeps a single lifecycle code path for every room.
// Starting an already-running room is a no-op, which guards against
// duplicate timers when join events race.
func (s *PulseScheduler) OnFirstMember(room domain.RoomID) {
	if room.Kind() != domain.KindSleep {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, running := s.handles[room]; running {
		return
	}

	stop := make(chan struct{})
	s.handles[room] = stop
	s.stats.PulseStarted()
	s.log.Info("Starting pulse", "room", room, "interval", s.interval)

	go s.tickLoop(room, stop)
}

// OnLastMember transitions the room RUNNING -> STOPPED synchronously:
// the handle is cleared before this returns, so no new tick can be
// produced for the room afterwards. A tick already queued behind the
// last leave is dropped by the hub because the room entry is gone.
func (s *PulseScheduler) OnLastMember(room domain.RoomID) {
	s.mu.Lock()
	stop, running := s.handles[room]
	if running {
		delete(s.handles, room)
	}
	s.mu.Unlock()

	if !running {
		return
	}
	close(stop)
	s.stats.PulseStopped()
	s.log.Info("Stopped pulse", "room", room)
}

func (s *PulseScheduler) Active(room domain.RoomID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, running := s.handles[room]
	return running
}

// StopAll cancels every running timer. Used on shutdown only; regular
// stops go through OnLastMember.
func (s *PulseScheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for room, stop := range s.handles {
		close(stop)
		delete(s.handles, room)
		s.stats.PulseStopped()
	}
}

func (s *PulseScheduler) tickLoop(room domain.RoomID, stop <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			hub := s.hub
			s.mu.Unlock()
			if hub == nil {
				continue
			}
			hub.Enqueue(domain.PulseCommand{
				Room:      room,
				Amplitude: pulseFloor + rand.Float64()*pulseSpan,
			})
		}
	}
}
