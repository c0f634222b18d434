package services

import (
	"context"
	"fmt"
	"log"
	"sort"

	"golivehub/internal/identity"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// SessionDirectory lists and revokes identity provider sessions
type SessionDirectory interface {
	ListSessions(ctx context.Context, userID string) ([]identity.Session, error)
	RevokeSession(ctx context.Context, sessionID string) error
}

// SupersessionNotifier pushes sign-out notices to connected tabs
type SupersessionNotifier interface {
	NotifySuperseded(sessionID, reason string) int
}

// Reasons a session is told to sign out
const (
	ReasonNewerSession = "a newer session is active"
	ReasonInactive     = "session is no longer active"
	ReasonRevoked      = "session was revoked by a newer sign-in"
)

// Verdict is the outcome of enforcing the single-session policy
type Verdict struct {
	SessionID  string   `json:"session_id"`
	Superseded bool     `json:"superseded"`
	Reason     string   `json:"reason,omitempty"`
	Revoked    []string `json:"revoked"`
}

// SessionEnforcer keeps one signed-in session per user: the most recently
// active one wins, the others are revoked and notified.
type SessionEnforcer struct {
	directory SessionDirectory
	notifier  SupersessionNotifier
	inFlight  singleflight.Group
}

// NewSessionEnforcer creates a new SessionEnforcer. notifier may be nil.
func NewSessionEnforcer(directory SessionDirectory, notifier SupersessionNotifier) *SessionEnforcer {
	return &SessionEnforcer{directory: directory, notifier: notifier}
}

// Enforce applies the policy from the point of view of sessionID, which must
// be one of userID's sessions. Concurrent calls for the same user and session
// share one run.
func (e *SessionEnforcer) Enforce(ctx context.Context, userID, sessionID string) (*Verdict, error) {
	if userID == "" || sessionID == "" {
		return nil, invalid("session_id", "user and session are required")
	}

	result, err, _ := e.inFlight.Do(userID+"/"+sessionID, func() (interface{}, error) {
		return e.enforce(ctx, userID, sessionID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Verdict), nil
}

func (e *SessionEnforcer) enforce(ctx context.Context, userID, sessionID string) (*Verdict, error) {
	sessions, err := e.directory.ListSessions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	// Ended sessions stay listed, so an unknown id is never the caller's
	if !containsSession(sessions, sessionID) {
		return nil, fmt.Errorf("%w: %s", ErrForeignSession, sessionID)
	}

	verdict := &Verdict{SessionID: sessionID, Revoked: []string{}}

	active := make([]identity.Session, 0, len(sessions))
	for _, session := range sessions {
		if session.IsActive() {
			active = append(active, session)
		}
	}

	sort.SliceStable(active, func(i, j int) bool {
		return active[i].LastActiveAt > active[j].LastActiveAt
	})
	if !containsSession(active, sessionID) {
		e.supersede(verdict, ReasonInactive)
		return verdict, nil
	}
	if active[0].ID != sessionID {
		e.supersede(verdict, ReasonNewerSession)
		return verdict, nil
	}

	others := make([]string, 0, len(active)-1)
	for _, session := range active[1:] {
		others = append(others, session.ID)
	}
	verdict.Revoked = e.revoke(ctx, others)
	return verdict, nil
}

// OwnsSession reports whether sessionID is one of userID's sessions
func (e *SessionEnforcer) OwnsSession(ctx context.Context, userID, sessionID string) (bool, error) {
	sessions, err := e.directory.ListSessions(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to list sessions: %w", err)
	}
	return containsSession(sessions, sessionID), nil
}

func (e *SessionEnforcer) supersede(verdict *Verdict, reason string) {
	verdict.Superseded = true
	verdict.Reason = reason
	if e.notifier != nil {
		e.notifier.NotifySuperseded(verdict.SessionID, reason)
	}
}

// revoke signs out every id, best effort, and returns the ones that succeeded
func (e *SessionEnforcer) revoke(ctx context.Context, ids []string) []string {
	revoked := make([]bool, len(ids))

	var g errgroup.Group
	g.SetLimit(4)
	for i, id := range ids {
		g.Go(func() error {
			if err := e.directory.RevokeSession(ctx, id); err != nil {
				log.Printf("⚠️  Failed to revoke session %s: %v", id, err)
				return nil
			}
			revoked[i] = true
			return nil
		})
	}
	g.Wait()

	out := []string{}
	for i, id := range ids {
		if !revoked[i] {
			continue
		}
		out = append(out, id)
		if e.notifier != nil {
			e.notifier.NotifySuperseded(id, ReasonRevoked)
		}
	}
	return out
}

func containsSession(sessions []identity.Session, id string) bool {
	for _, session := range sessions {
		if session.ID == id {
			return true
		}
	}
	return false
}
