package sink

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Bitcomethub/Somnus/domain"
	"github.com/Bitcomethub/Somnus/domain/event"
)

func TestStatsSinkCountsByEventName(t *testing.T) {
	req := require.New(t)
	s := NewStatsSink()
	ctx := context.Background()

	// Given a mix of events
	req.NoError(s.Consume(ctx, event.ShieldCount{Mode: "office", Count: 1}))
	req.NoError(s.Consume(ctx, event.ShieldCount{Mode: "office", Count: 2}))
	req.NoError(s.Consume(ctx, event.SyncPulse{Target: domain.SleepRoom("a"), Amplitude: 1.0}))

	// Then totals are keyed by wire name
	totals := s.Totals()
	req.Equal(uint64(2), totals["shield_count"])
	req.Equal(uint64(1), totals["sync_pulse"])
}

func TestStatsSinkTotalsReturnsACopy(t *testing.T) {
	req := require.New(t)
	s := NewStatsSink()

	req.NoError(s.Consume(context.Background(), event.SyncPause{Target: domain.SleepRoom("a")}))

	// Given a caller mutating the returned map
	totals := s.Totals()
	totals["sync_pause"] = 99

	// Then the sink's own state is untouched
	req.Equal(uint64(1), s.Totals()["sync_pause"])
}

func TestStatsSinkUnderConcurrentWrites(t *testing.T) {
	req := require.New(t)
	s := NewStatsSink()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = s.Consume(ctx, event.PartnerLeftQuietly{Target: domain.SleepRoom("a")})
			}
		}()
	}
	wg.Wait()

	req.Equal(uint64(800), s.Totals()["partner_left_quietly"])
}
