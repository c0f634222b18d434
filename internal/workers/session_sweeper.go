package workers

import (
	"context"
	"log"
	"sync"
	"time"

	"golivehub/internal/realtime"
	"golivehub/internal/services"
)

// SessionSource lists the sessions with an open push connection
type SessionSource interface {
	Sessions() []realtime.SessionRef
}

// SessionPolicy enforces the single-session policy for one session
type SessionPolicy interface {
	Enforce(ctx context.Context, userID, sessionID string) (*services.Verdict, error)
}

// SessionSweeper periodically re-enforces the single-session policy for
// every connected session, catching sign-ins that happened on devices
// without an open socket.
type SessionSweeper struct {
	sessions SessionSource
	policy   SessionPolicy
	interval time.Duration
	ticker   *time.Ticker
	stopChan chan bool
	stopOnce sync.Once

	mu        sync.Mutex
	lastSweep time.Time
	swept     int
	signedOut int
}

// NewSessionSweeper creates a new session sweeper
func NewSessionSweeper(sessions SessionSource, policy SessionPolicy, interval time.Duration) *SessionSweeper {
	return &SessionSweeper{
		sessions: sessions,
		policy:   policy,
		interval: interval,
		stopChan: make(chan bool),
	}
}

// Start begins the periodic sweep
func (w *SessionSweeper) Start(ctx context.Context) {
	w.ticker = time.NewTicker(w.interval)

	log.Printf("🔄 Starting session sweeper (checking every %v)", w.interval)

	go func() {
		for {
			select {
			case <-ctx.Done():
				log.Printf("🛑 Session sweeper stopping due to context cancellation")
				return
			case <-w.stopChan:
				log.Printf("🛑 Session sweeper stopping")
				return
			case <-w.ticker.C:
				w.Sweep(ctx)
			}
		}
	}()
}

// Sweep enforces the policy once for every connected session
func (w *SessionSweeper) Sweep(ctx context.Context) {
	refs := w.sessions.Sessions()
	signedOut := 0
	for _, ref := range refs {
		if ctx.Err() != nil {
			return
		}
		verdict, err := w.policy.Enforce(ctx, ref.UserID, ref.SessionID)
		if err != nil {
			log.Printf("❌ Error enforcing session %s: %v", ref.SessionID, err)
			continue
		}
		if verdict.Superseded {
			signedOut++
		}
		signedOut += len(verdict.Revoked)
	}

	w.mu.Lock()
	w.lastSweep = time.Now()
	w.swept += len(refs)
	w.signedOut += signedOut
	w.mu.Unlock()

	if signedOut > 0 {
		log.Printf("🔒 Session sweep signed out %d session(s)", signedOut)
	}
}

// Stop stops the worker
func (w *SessionSweeper) Stop() {
	w.stopOnce.Do(func() {
		if w.ticker != nil {
			w.ticker.Stop()
		}
		close(w.stopChan)
		log.Printf("✅ Session sweeper stopped")
	})
}

// GetStats returns sweep counters
func (w *SessionSweeper) GetStats() *SweepStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return &SweepStats{
		Interval:  w.interval.String(),
		LastSweep: w.lastSweep,
		Swept:     w.swept,
		SignedOut: w.signedOut,
	}
}

// SweepStats holds session sweeper statistics
type SweepStats struct {
	Interval  string    `json:"interval"`
	LastSweep time.Time `json:"last_sweep"`
	Swept     int       `json:"swept"`
	SignedOut int       `json:"signed_out"`
}
