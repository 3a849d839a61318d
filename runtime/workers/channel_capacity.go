package workers

import (
	"context"
	"log/slog"
	"reflect"
	"time"

	"github.com/Bitcomethub/Somnus/observability"
)

type NamedChannel struct {
	Name    string
	Channel any
}

// ChannelCapacityWorker periodically reports the hub queue capacity and
// length. Reading len(channel) and cap(channel) is non-blocking, so
// this won't interfere with the hub loop. Metrics are sampled
// periodically; a missed sample is fine.
type ChannelCapacityWorker struct {
	log            *slog.Logger
	channels       []NamedChannel
	stats          *observability.PresenceStats
	metricInterval time.Duration
}

func NewChannelCapacityWorker(log *slog.Logger, channels []NamedChannel,
	stats *observability.PresenceStats, metricInterval time.Duration) *ChannelCapacityWorker {
	return &ChannelCapacityWorker{
		log: log, channels: channels,
		stats:          stats,
		metricInterval: metricInterval,
	}
}

func (w ChannelCapacityWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping capacity sampling")
			return nil
		case <-ticker.C:
			for _, nc := range w.channels {
				v := reflect.ValueOf(nc.Channel)
				// Verify if this is a channel
				if v.Kind() != reflect.Chan {
					w.log.Error("Provided object is not a channel", "name", nc.Name)
					continue
				}
				w.stats.ReportQueue(v.Len(), v.Cap())
			}
		}
	}
}
