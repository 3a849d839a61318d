package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"github.com/Bitcomethub/Somnus/observability"
)

// HealthWorker samples the process's own CPU and memory figures and
// feeds them into the presence stats for the debug inspector.
type HealthWorker struct {
	log      *slog.Logger
	stats    *observability.PresenceStats
	interval time.Duration
}

func NewHealthWorker(log *slog.Logger, stats *observability.PresenceStats, interval time.Duration) *HealthWorker {
	return &HealthWorker{log: log, stats: stats, interval: interval}
}

// Run executes the main loop of the worker, collecting health metrics (CPU, RAM) at each interval.
func (w *HealthWorker) Run(ctx context.Context) error {
	w.log.Info("Starting health monitoring worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, err := getSelfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}
			w.stats.ReportSelf(cpu, rss)
			w.log.Debug("Self stats", "cpu_percent", cpu, "rss_bytes", rss)
		}
	}
}

// getSelfStats retrieves technical metrics (Memory and CPU) for the given process.
func getSelfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
