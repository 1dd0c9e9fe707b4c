package ffmpeg

import (
	"context"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// ProcessStats contains resource usage statistics for an ffmpeg process.
type ProcessStats struct {
	PID           int       `json:"pid"`
	CPUPercent    float64   `json:"cpu_percent"`
	MemoryRSSMB   float64   `json:"memory_rss_mb"`
	MemoryPercent float64   `json:"memory_percent"`
	StartedAt     time.Time `json:"started_at"`
	Duration      time.Duration `json:"duration"`
	LastUpdated   time.Time `json:"last_updated"`
}

// ProcessMonitor periodically samples resource usage of an ffmpeg process
// via gopsutil. Sampling stops silently once the process exits.
type ProcessMonitor struct {
	pid       int
	startedAt time.Time
	interval  time.Duration

	mu    sync.RWMutex
	stats ProcessStats

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewProcessMonitor creates a monitor for the given pid.
func NewProcessMonitor(pid int) *ProcessMonitor {
	ctx, cancel := context.WithCancel(context.Background())
	return &ProcessMonitor{
		pid:       pid,
		startedAt: time.Now(),
		interval:  time.Second,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start begins sampling in the background.
func (pm *ProcessMonitor) Start() {
	pm.wg.Add(1)
	go pm.loop()
}

// Stop halts sampling and waits for the sampler to exit.
func (pm *ProcessMonitor) Stop() {
	pm.cancel()
	pm.wg.Wait()
}

// Stats returns the most recent sample.
func (pm *ProcessMonitor) Stats() ProcessStats {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.stats
}

func (pm *ProcessMonitor) loop() {
	defer pm.wg.Done()

	proc, err := process.NewProcess(int32(pm.pid))
	if err != nil {
		return
	}

	ticker := time.NewTicker(pm.interval)
	defer ticker.Stop()

	pm.sample(proc)
	for {
		select {
		case <-pm.ctx.Done():
			return
		case <-ticker.C:
			pm.sample(proc)
		}
	}
}

func (pm *ProcessMonitor) sample(proc *process.Process) {
	now := time.Now()

	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.stats.PID = pm.pid
	pm.stats.StartedAt = pm.startedAt
	pm.stats.Duration = now.Sub(pm.startedAt)
	pm.stats.LastUpdated = now

	if cpu, err := proc.CPUPercent(); err == nil {
		pm.stats.CPUPercent = cpu
	}
	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		pm.stats.MemoryRSSMB = float64(mem.RSS) / (1024 * 1024)
	}
	if pct, err := proc.MemoryPercent(); err == nil {
		pm.stats.MemoryPercent = float64(pct)
	}
}
