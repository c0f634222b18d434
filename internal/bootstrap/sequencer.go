// Package bootstrap runs the sign-in sequence of a client session: it waits
// for a bearer token, builds a client bound to it, loads the viewer's profile
// and decides whether onboarding is required before the feed unlocks.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golivehub/internal/client"
	"golivehub/internal/models"
	"golivehub/internal/onboarding"
)

// State is a step of the bootstrap sequence
type State int

const (
	Unauthenticated State = iota
	TokenPending
	ClientReady
	ProfileLoading
	Onboarding
	InterestSelection
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case TokenPending:
		return "token_pending"
	case ClientReady:
		return "client_ready"
	case ProfileLoading:
		return "profile_loading"
	case Onboarding:
		return "onboarding"
	case InterestSelection:
		return "interest_selection"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Settled reports whether the sequence has stopped and waits for the viewer
func (s State) Settled() bool {
	return s == Onboarding || s == InterestSelection || s == Ready || s == Failed
}

var (
	// ErrNoIdentity is returned when Restart is called before Run
	ErrNoIdentity = errors.New("no identity session")
	// ErrWrongState is returned when a form is submitted in a state that does not show it
	ErrWrongState = errors.New("form not expected in current state")
	// ErrSignedOut is returned when the viewer signs out while the sequence runs
	ErrSignedOut = errors.New("signed out during bootstrap")
)

// Identity is the signed-in identity provider session
type Identity struct {
	UserID    string
	SessionID string
	Mail      string
	ImageURL  string
}

// TokenSource hands out the current bearer token. An empty token means the
// identity provider has not issued one yet.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns itself
type StaticToken string

// Token returns the token
func (t StaticToken) Token(ctx context.Context) (string, error) {
	return string(t), nil
}

// API is the part of the backend the sequence and onboarding forms use
type API interface {
	GetUserData(ctx context.Context, value, field string) (*models.User, error)
	SetUserData(ctx context.Context, profile client.Profile) (*models.User, error)
	SetUserInterests(ctx context.Context, userID string, interests []string) (*models.User, error)
	GetLivestreams(ctx context.Context) ([]models.Livestream, error)
}

// ClientFactory builds an API handle bound to token
type ClientFactory func(token string) API

// SessionGuard runs while the sequence is Ready and stops when ctx ends
type SessionGuard func(ctx context.Context, api API, identity Identity)

// Snapshot is a consistent view of the sequencer
type Snapshot struct {
	State       State
	Profile     *models.User
	Livestreams []models.Livestream
	Err         error
}

// Sequencer drives the bootstrap state machine of one client session
type Sequencer struct {
	tokens        TokenSource
	newClient     ClientFactory
	retryInterval time.Duration
	guard         SessionGuard
	onTransition  func(from, to State)

	runMu sync.Mutex // serializes Run, Restart and form submissions

	mu          sync.RWMutex
	state       State
	identity    *Identity
	api         API
	profile     *models.User
	livestreams []models.Livestream
	err         error
	stopGuard   context.CancelFunc
}

// Option configures a Sequencer
type Option func(*Sequencer)

// WithRetryInterval sets the wait before asking for a token again
func WithRetryInterval(d time.Duration) Option {
	return func(s *Sequencer) { s.retryInterval = d }
}

// WithSessionGuard starts guard whenever the sequence reaches Ready
func WithSessionGuard(guard SessionGuard) Option {
	return func(s *Sequencer) { s.guard = guard }
}

// WithTransitionHook calls fn on every state change
func WithTransitionHook(fn func(from, to State)) Option {
	return func(s *Sequencer) { s.onTransition = fn }
}

// New creates a new Sequencer
func New(tokens TokenSource, factory ClientFactory, opts ...Option) *Sequencer {
	s := &Sequencer{
		tokens:        tokens,
		newClient:     factory,
		retryInterval: 500 * time.Millisecond,
		state:         Unauthenticated,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run starts the sequence for identity and returns once it settles or ctx ends
func (s *Sequencer) Run(ctx context.Context, identity Identity) (State, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.mu.Lock()
	s.identity = &identity
	s.mu.Unlock()

	return s.run(ctx)
}

// Restart tears the session down and runs the whole sequence again for the
// same identity
func (s *Sequencer) Restart(ctx context.Context) (State, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	return s.run(ctx)
}

// SignOut drops the client handle and returns to Unauthenticated. A sequence
// still running stops at its next step instead of settling.
func (s *Sequencer) SignOut() {
	s.mu.Lock()
	s.identity = nil
	s.mu.Unlock()
	s.reset()
}

// Snapshot returns the current state and loaded data
func (s *Sequencer) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	livestreams := make([]models.Livestream, len(s.livestreams))
	copy(livestreams, s.livestreams)
	return Snapshot{
		State:       s.state,
		Profile:     s.profile,
		Livestreams: livestreams,
		Err:         s.err,
	}
}

// State returns the current state
func (s *Sequencer) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Client returns the API handle, or nil before ClientReady
func (s *Sequencer) Client() API {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.api
}

// Registration returns the registration form prefilled from the identity session
func (s *Sequencer) Registration() onboarding.RegistrationForm {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return onboarding.RegistrationForm{}
	}
	return onboarding.Prefill(s.identity.UserID, s.identity.Mail, s.identity.ImageURL)
}

// SubmitRegistration writes the profile and restarts the sequence. The
// identity fields of form are taken from the session, not the caller.
func (s *Sequencer) SubmitRegistration(ctx context.Context, form onboarding.RegistrationForm) (State, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	api, identity, err := s.formContext(Onboarding)
	if err != nil {
		return s.State(), err
	}

	form.UserID = identity.UserID
	form.Mail = identity.Mail
	form.ImageURL = identity.ImageURL
	if err := form.Validate(); err != nil {
		return s.State(), err
	}

	if _, err := api.SetUserData(ctx, client.Profile{
		UserID:      form.UserID,
		UserName:    form.UserName,
		ImageURL:    form.ImageURL,
		Mail:        form.Mail,
		DateOfBirth: form.DateOfBirth,
	}); err != nil {
		return s.State(), fmt.Errorf("failed to register: %w", err)
	}

	return s.run(ctx)
}

// SubmitInterests writes the interest set and restarts the sequence
func (s *Sequencer) SubmitInterests(ctx context.Context, interests []string) (State, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	api, identity, err := s.formContext(InterestSelection)
	if err != nil {
		return s.State(), err
	}
	if err := onboarding.ValidateInterests(interests); err != nil {
		return s.State(), err
	}

	if _, err := api.SetUserInterests(ctx, identity.UserID, interests); err != nil {
		return s.State(), fmt.Errorf("failed to save interests: %w", err)
	}

	return s.run(ctx)
}

func (s *Sequencer) formContext(want State) (API, Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != want || s.api == nil || s.identity == nil {
		return nil, Identity{}, fmt.Errorf("%w: %s", ErrWrongState, s.state)
	}
	return s.api, *s.identity, nil
}

// run executes the sequence from Unauthenticated; runMu must be held
func (s *Sequencer) run(ctx context.Context) (State, error) {
	s.reset()

	s.mu.RLock()
	identity := s.identity
	s.mu.RUnlock()
	if identity == nil {
		return Unauthenticated, ErrNoIdentity
	}

	if !s.advance(TokenPending, nil) {
		return Unauthenticated, ErrSignedOut
	}
	token, err := s.awaitToken(ctx)
	if err != nil {
		return s.State(), err
	}

	api := s.newClient(token)
	if !s.whileSignedIn(func() { s.api = api }) {
		return Unauthenticated, ErrSignedOut
	}
	if !s.advance(ClientReady, nil) || !s.advance(ProfileLoading, nil) {
		return Unauthenticated, ErrSignedOut
	}

	profile, err := api.GetUserData(ctx, identity.UserID, "user_id")
	if err != nil {
		log.Printf("Failed to load profile of %s: %v", identity.UserID, err)
		if !s.advance(Failed, err) {
			return Unauthenticated, ErrSignedOut
		}
		return Failed, err
	}
	if profile != nil {
		profile.Normalize()
	}

	if !s.whileSignedIn(func() { s.profile = profile }) {
		return Unauthenticated, ErrSignedOut
	}

	var next State
	switch onboarding.Decide(profile) {
	case onboarding.StepRegistration:
		next = Onboarding
	case onboarding.StepInterestSelection:
		next = InterestSelection
	default:
		s.loadLivestreams(ctx, api)
		next = Ready
	}
	if !s.advance(next, nil) {
		return Unauthenticated, ErrSignedOut
	}
	if next == Ready {
		s.startGuard(api, *identity)
	}
	return next, nil
}

// awaitToken asks for a token until one is issued. Empty tokens and token
// errors are retried on the next tick until ctx ends or the viewer signs out.
func (s *Sequencer) awaitToken(ctx context.Context) (string, error) {
	for {
		token, err := s.tokens.Token(ctx)
		if err == nil && token != "" {
			return token, nil
		}
		if err != nil {
			log.Printf("Token fetch failed, retrying: %v", err)
		}
		if !s.whileSignedIn(func() {}) {
			return "", ErrSignedOut
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.retryInterval):
		}
	}
}

func (s *Sequencer) loadLivestreams(ctx context.Context, api API) {
	livestreams, err := api.GetLivestreams(ctx)
	if err != nil {
		log.Printf("Failed to load livestreams: %v", err)
		return
	}
	s.whileSignedIn(func() { s.livestreams = livestreams })
}

func (s *Sequencer) startGuard(api API, identity Identity) {
	if s.guard == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	if !s.whileSignedIn(func() { s.stopGuard = cancel }) {
		cancel()
		return
	}
	go s.guard(ctx, api, identity)
}

// reset stops the guard and clears everything derived from the token
func (s *Sequencer) reset() {
	s.mu.Lock()
	stop := s.stopGuard
	s.stopGuard = nil
	s.api = nil
	s.profile = nil
	s.livestreams = nil
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
	s.transition(Unauthenticated, nil)
}

// whileSignedIn runs fn under the lock unless the viewer has signed out
func (s *Sequencer) whileSignedIn(fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return false
	}
	fn()
	return true
}

// advance moves to the next state unless the viewer has signed out
func (s *Sequencer) advance(to State, err error) bool {
	s.mu.Lock()
	if s.identity == nil {
		s.mu.Unlock()
		return false
	}
	from := s.state
	s.state = to
	s.err = err
	hook := s.onTransition
	s.mu.Unlock()

	if hook != nil && from != to {
		hook(from, to)
	}
	return true
}

func (s *Sequencer) transition(to State, err error) {
	s.mu.Lock()
	from := s.state
	s.state = to
	s.err = err
	hook := s.onTransition
	s.mu.Unlock()

	if hook != nil && from != to {
		hook(from, to)
	}
}
