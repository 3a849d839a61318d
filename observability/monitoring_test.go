package observability

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSnapshotReflectsCounters(t *testing.T) {
	req := require.New(t)
	stats := NewPresenceStats(slog.Default())

	// Given a handful of lifecycle events
	stats.ConnectionOpened()
	stats.ConnectionOpened()
	stats.ConnectionClosed()
	stats.RoomCreated()
	stats.PulseStarted()
	stats.Joined()
	stats.Joined()
	stats.Left()
	stats.EventFanned()
	stats.CommandDropped()
	stats.PayloadRejected()

	// When a snapshot is captured
	snap := stats.GetLatest()

	// Then every counter carries its own tally
	req.Equal(int64(1), snap.OpenConnections)
	req.Equal(int64(1), snap.ActiveRooms)
	req.Equal(int64(1), snap.ActivePulses)
	req.Equal(uint64(2), snap.Joins)
	req.Equal(uint64(1), snap.Leaves)
	req.Equal(uint64(1), snap.EventsFanned)
	req.Equal(uint64(1), snap.DroppedCommands)
	req.Equal(uint64(1), snap.MalformedPayloads)
	req.False(snap.CapturedAt.IsZero())
}

func TestReportedGaugesSurviveSnapshot(t *testing.T) {
	req := require.New(t)
	stats := NewPresenceStats(slog.Default())

	stats.ReportQueue(12, 256)
	stats.ReportSelf(3.5, 128*1024*1024)

	snap := stats.GetLatest()
	req.Equal(12, snap.QueueLength)
	req.Equal(256, snap.QueueCap)
	req.Equal(3.5, snap.CPUPercent)
	req.Equal(uint64(128*1024*1024), snap.RSSBytes)
}

func TestCountersUnderConcurrentReporters(t *testing.T) {
	req := require.New(t)
	stats := NewPresenceStats(slog.Default())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				stats.EventFanned()
			}
		}()
	}
	wg.Wait()

	req.Equal(uint64(10000), stats.GetLatest().EventsFanned)
}

func TestAsMapMirrorsTheSnapshot(t *testing.T) {
	req := require.New(t)
	stats := NewPresenceStats(slog.Default())

	stats.Joined()
	stats.PulseEmitted()

	m := stats.AsMap()
	req.Equal(uint64(1), m["joins"])
	req.Equal(uint64(1), m["pulses_emitted"])
	req.Contains(m, "alloc_mem_mb")
}
