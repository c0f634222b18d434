package client

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"golivehub/internal/realtime"
)

// SessionWatcher signs a tab out once another sign-in supersedes its
// session. Notices arrive over the push channel; while the channel is down
// the watcher polls the enforcement endpoint instead.
type SessionWatcher struct {
	client       *Client
	sessionID    string
	pollInterval time.Duration
	onSuperseded func(reason string)

	connected atomic.Bool
	fired     sync.Once
}

// NewSessionWatcher creates a watcher for sessionID. onSuperseded runs at
// most once.
func NewSessionWatcher(client *Client, sessionID string, pollInterval time.Duration, onSuperseded func(reason string)) *SessionWatcher {
	return &SessionWatcher{
		client:       client,
		sessionID:    sessionID,
		pollInterval: pollInterval,
		onSuperseded: onSuperseded,
	}
}

// Connected reports whether the push channel is up
func (w *SessionWatcher) Connected() bool {
	return w.connected.Load()
}

// Run watches until ctx is cancelled or the session is superseded
func (w *SessionWatcher) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Enforce once up front, which also revokes older sessions
	if w.check(ctx) {
		return
	}

	sub := realtime.NewSubscriber(w.client.SocketURL(), w.client.Token(), w.sessionID)
	sub.OnState = func(connected bool) { w.connected.Store(connected) }

	done := make(chan struct{})
	go func() {
		defer close(done)
		sub.Run(ctx, func(event realtime.Event) bool {
			if event.Type == realtime.EventSuperseded {
				w.supersede(event.Reason)
				cancel()
				return false
			}
			return true
		})
	}()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			<-done
			return
		case <-ticker.C:
			if w.Connected() {
				continue
			}
			if w.check(ctx) {
				cancel()
			}
		}
	}
}

// check polls the enforcement endpoint and reports whether the session is over
func (w *SessionWatcher) check(ctx context.Context) bool {
	verdict, err := w.client.EnforceSession(ctx, w.sessionID)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("Session check failed: %v", err)
		}
		return false
	}
	if verdict.Superseded {
		w.supersede(verdict.Reason)
		return true
	}
	return false
}

func (w *SessionWatcher) supersede(reason string) {
	w.fired.Do(func() {
		if w.onSuperseded != nil {
			w.onSuperseded(reason)
		}
	})
}
