// Package observability aggregates live counters for the presence core.
// Counters are atomic so transports, the hub loop, and the schedulers
// can report without contending on a lock.
package observability

import (
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// PresenceSnapshot aggregates all metrics for the debug inspector and
// the viewer CLI.
type PresenceSnapshot struct {
	// --- PRESENCE METRICS ---
	OpenConnections int64  `json:"open_connections"`
	ActiveRooms     int64  `json:"active_rooms"`
	ActivePulses    int64  `json:"active_pulses"`
	Joins           uint64 `json:"joins"`
	Leaves          uint64 `json:"leaves"`

	// --- FAN-OUT METRICS ---
	EventsFanned      uint64 `json:"events_fanned"`
	PulsesEmitted     uint64 `json:"pulses_emitted"`
	DroppedDeliveries uint64 `json:"dropped_deliveries"`
	DroppedCommands   uint64 `json:"dropped_commands"`
	MalformedPayloads uint64 `json:"malformed_payloads"`

	// --- SYSTEM METRICS ---
	AllocMemMb  uint64    `json:"alloc_mem_mb"`
	NumGC       uint32    `json:"num_gc"`
	QueueLength int       `json:"queue_length"`
	QueueCap    int       `json:"queue_cap"`
	CPUPercent  float64   `json:"cpu_percent"`
	RSSBytes    uint64    `json:"rss_bytes"`
	CapturedAt  time.Time `json:"captured_at"`
}

// PresenceStats gathers the realtime telemetry of the process.
type PresenceStats struct {
	log *slog.Logger

	openConnections atomic.Int64
	activeRooms     atomic.Int64
	activePulses    atomic.Int64

	joins             atomic.Uint64
	leaves            atomic.Uint64
	eventsFanned      atomic.Uint64
	pulsesEmitted     atomic.Uint64
	droppedDeliveries atomic.Uint64
	droppedCommands   atomic.Uint64
	malformedPayloads atomic.Uint64

	mu         sync.RWMutex
	queueLen   int
	queueCap   int
	cpuPercent float64
	rssBytes   uint64
}

func NewPresenceStats(log *slog.Logger) *PresenceStats {
	return &PresenceStats{log: log}
}

func (s *PresenceStats) ConnectionOpened() { s.openConnections.Add(1) }
func (s *PresenceStats) ConnectionClosed() { s.openConnections.Add(-1) }
func (s *PresenceStats) RoomCreated()      { s.activeRooms.Add(1) }
func (s *PresenceStats) RoomDeleted()      { s.activeRooms.Add(-1) }
func (s *PresenceStats) PulseStarted()     { s.activePulses.Add(1) }
func (s *PresenceStats) PulseStopped()     { s.activePulses.Add(-1) }

func (s *PresenceStats) Joined()          { s.joins.Add(1) }
func (s *PresenceStats) Left()            { s.leaves.Add(1) }
func (s *PresenceStats) EventFanned()     { s.eventsFanned.Add(1) }
func (s *PresenceStats) PulseEmitted()    { s.pulsesEmitted.Add(1) }
func (s *PresenceStats) DeliveryDropped() { s.droppedDeliveries.Add(1) }
func (s *PresenceStats) CommandDropped()  { s.droppedCommands.Add(1) }
func (s *PresenceStats) PayloadRejected() { s.malformedPayloads.Add(1) }

// ReportQueue is fed by the channel capacity worker.
func (s *PresenceStats) ReportQueue(length, capacity int) {
	s.mu.Lock()
	s.queueLen = length
	s.queueCap = capacity
	s.mu.Unlock()
}

// ReportSelf is fed by the health monitoring worker.
func (s *PresenceStats) ReportSelf(cpuPercent float64, rssBytes uint64) {
	s.mu.Lock()
	s.cpuPercent = cpuPercent
	s.rssBytes = rssBytes
	s.mu.Unlock()
}

// GetLatest captures a consistent snapshot. Memory figures are read
// from the Go runtime at call time.
func (s *PresenceStats) GetLatest() PresenceSnapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	s.mu.RLock()
	queueLen, queueCap := s.queueLen, s.queueCap
	cpu, rss := s.cpuPercent, s.rssBytes
	s.mu.RUnlock()

	return PresenceSnapshot{
		OpenConnections:   s.openConnections.Load(),
		ActiveRooms:       s.activeRooms.Load(),
		ActivePulses:      s.activePulses.Load(),
		Joins:             s.joins.Load(),
		Leaves:            s.leaves.Load(),
		EventsFanned:      s.eventsFanned.Load(),
		PulsesEmitted:     s.pulsesEmitted.Load(),
		DroppedDeliveries: s.droppedDeliveries.Load(),
		DroppedCommands:   s.droppedCommands.Load(),
		MalformedPayloads: s.malformedPayloads.Load(),
		AllocMemMb:        mem.Alloc / 1024 / 1024,
		NumGC:             mem.NumGC,
		QueueLength:       queueLen,
		QueueCap:          queueCap,
		CPUPercent:        cpu,
		RSSBytes:          rss,
		CapturedAt:        time.Now().UTC(),
	}
}

// AsMap flattens the snapshot for the debug inspector stats table.
func (s *PresenceStats) AsMap() map[string]any {
	snap := s.GetLatest()
	return map[string]any{
		"open_connections":   snap.OpenConnections,
		"active_rooms":       snap.ActiveRooms,
		"active_pulses":      snap.ActivePulses,
		"joins":              snap.Joins,
		"leaves":             snap.Leaves,
		"events_fanned":      snap.EventsFanned,
		"pulses_emitted":     snap.PulsesEmitted,
		"dropped_deliveries": snap.DroppedDeliveries,
		"dropped_commands":   snap.DroppedCommands,
		"malformed_payloads": snap.MalformedPayloads,
		"alloc_mem_mb":       snap.AllocMemMb,
		"num_gc":             snap.NumGC,
		"queue":              snap.QueueLength,
	}
}
