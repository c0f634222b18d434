package workers

import (
	"context"
	"log"
	"sync"
	"time"
)

// StaleReaper removes listings whose broadcast has ended
type StaleReaper interface {
	ReapStale(ctx context.Context) (int, error)
}

// LivestreamReaper periodically deletes listings left behind by broadcasters
// who disconnected without stopping.
type LivestreamReaper struct {
	reaper   StaleReaper
	interval time.Duration
	ticker   *time.Ticker
	stopChan chan bool
	stopOnce sync.Once

	mu       sync.Mutex
	lastRun  time.Time
	reaped   int
	failures int
}

// NewLivestreamReaper creates a new livestream reaper
func NewLivestreamReaper(reaper StaleReaper, interval time.Duration) *LivestreamReaper {
	return &LivestreamReaper{
		reaper:   reaper,
		interval: interval,
		stopChan: make(chan bool),
	}
}

// Start begins the periodic reap
func (w *LivestreamReaper) Start(ctx context.Context) {
	w.ticker = time.NewTicker(w.interval)

	log.Printf("🧹 Starting livestream reaper (checking every %v)", w.interval)

	// Run an initial pass immediately
	go w.RunOnce(ctx)

	go func() {
		for {
			select {
			case <-ctx.Done():
				log.Printf("🛑 Livestream reaper stopping due to context cancellation")
				return
			case <-w.stopChan:
				log.Printf("🛑 Livestream reaper stopping")
				return
			case <-w.ticker.C:
				w.RunOnce(ctx)
			}
		}
	}()
}

// RunOnce reaps stale listings once
func (w *LivestreamReaper) RunOnce(ctx context.Context) {
	reaped, err := w.reaper.ReapStale(ctx)

	w.mu.Lock()
	w.lastRun = time.Now()
	w.reaped += reaped
	if err != nil {
		w.failures++
	}
	w.mu.Unlock()

	if err != nil {
		log.Printf("❌ Error reaping livestreams: %v", err)
		return
	}
	if reaped > 0 {
		log.Printf("🧹 Removed %d stale livestream(s)", reaped)
	}
}

// Stop stops the worker
func (w *LivestreamReaper) Stop() {
	w.stopOnce.Do(func() {
		if w.ticker != nil {
			w.ticker.Stop()
		}
		close(w.stopChan)
		log.Printf("✅ Livestream reaper stopped")
	})
}

// GetStats returns reaper statistics
func (w *LivestreamReaper) GetStats() *ReapStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return &ReapStats{
		Interval: w.interval.String(),
		LastRun:  w.lastRun,
		Reaped:   w.reaped,
		Failures: w.failures,
	}
}

// ReapStats holds livestream reaper statistics
type ReapStats struct {
	Interval string    `json:"interval"`
	LastRun  time.Time `json:"last_run"`
	Reaped   int       `json:"reaped"`
	Failures int       `json:"failures"`
}
