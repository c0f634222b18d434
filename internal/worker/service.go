package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"golivehub/internal/workers"
)

// WorkerService manages background workers for the application
type WorkerService struct {
	sessionSweeper   *workers.SessionSweeper
	livestreamReaper *workers.LivestreamReaper
	ctx              context.Context
	cancel           context.CancelFunc
	startedAt        time.Time
	running          bool
	mu               sync.RWMutex
}

// NewWorkerService creates a new worker service. Either worker may be nil
// when its upstream platform is not configured.
func NewWorkerService(sessionSweeper *workers.SessionSweeper, livestreamReaper *workers.LivestreamReaper) *WorkerService {
	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerService{
		sessionSweeper:   sessionSweeper,
		livestreamReaper: livestreamReaper,
		ctx:              ctx,
		cancel:           cancel,
		running:          false,
	}
}

// Start starts all background workers
func (ws *WorkerService) Start() error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.running {
		return nil // Already running
	}

	log.Println("Starting background workers...")

	if ws.sessionSweeper != nil {
		ws.sessionSweeper.Start(ws.ctx)
	}
	if ws.livestreamReaper != nil {
		ws.livestreamReaper.Start(ws.ctx)
	}

	ws.running = true
	ws.startedAt = time.Now()
	log.Println("Background workers started successfully")

	return nil
}

// Stop stops all background workers
func (ws *WorkerService) Stop() {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if !ws.running {
		return // Not running
	}

	log.Println("Stopping background workers...")

	// Cancel context to signal all workers to stop
	ws.cancel()
	if ws.sessionSweeper != nil {
		ws.sessionSweeper.Stop()
	}
	if ws.livestreamReaper != nil {
		ws.livestreamReaper.Stop()
	}

	ws.running = false
	log.Println("Background workers stopped")
}

// IsRunning returns whether the worker service is currently running
func (ws *WorkerService) IsRunning() bool {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.running
}

// GetStatus returns the current status of the worker service
func (ws *WorkerService) GetStatus() map[string]interface{} {
	ws.mu.RLock()
	defer ws.mu.RUnlock()

	status := map[string]interface{}{
		"running":         ws.running,
		"session_sweeper": ws.sessionSweeper != nil,
		"stale_reaper":    ws.livestreamReaper != nil,
	}
	if ws.running {
		status["uptime"] = time.Since(ws.startedAt).Round(time.Second).String()
	}

	if ws.sessionSweeper != nil {
		status["sessions"] = ws.sessionSweeper.GetStats()
	}
	if ws.livestreamReaper != nil {
		status["livestreams"] = ws.livestreamReaper.GetStats()
	}

	return status
}
