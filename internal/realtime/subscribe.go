package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// Subscriber listens for events of one session on a server's websocket endpoint
type Subscriber struct {
	URL            string // ws(s)://host/ws/session
	Token          string
	SessionID      string
	ReconnectDelay time.Duration
	OnState        func(connected bool) // Optional, called on connect and disconnect
	dialer         *websocket.Dialer
}

// NewSubscriber creates a new Subscriber
func NewSubscriber(wsURL, token, sessionID string) *Subscriber {
	return &Subscriber{
		URL:            wsURL,
		Token:          token,
		SessionID:      sessionID,
		ReconnectDelay: 5 * time.Second,
		dialer:         websocket.DefaultDialer,
	}
}

// Run delivers events to handle until ctx is cancelled or handle returns
// false. Dropped connections are re-established after ReconnectDelay.
func (s *Subscriber) Run(ctx context.Context, handle func(Event) bool) error {
	for {
		stop, err := s.connectAndListen(ctx, handle)
		if stop {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("Session socket error: %v. Reconnecting in %s...", err, s.ReconnectDelay)

		select {
		case <-time.After(s.ReconnectDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Subscriber) connectAndListen(ctx context.Context, handle func(Event) bool) (bool, error) {
	endpoint, err := url.Parse(s.URL)
	if err != nil {
		return false, fmt.Errorf("invalid socket url: %w", err)
	}
	query := endpoint.Query()
	query.Set("session_id", s.SessionID)
	endpoint.RawQuery = query.Encode()

	header := http.Header{}
	if s.Token != "" {
		header.Set("Authorization", "Bearer "+s.Token)
	}

	conn, _, err := s.dialer.DialContext(ctx, endpoint.String(), header)
	if err != nil {
		return false, fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	s.setState(true)
	defer s.setState(false)

	// Unblock ReadMessage when ctx ends
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		_, message, err := conn.ReadMessage()
		if err != nil {
			return false, fmt.Errorf("failed to read message: %w", err)
		}

		var event Event
		if err := json.Unmarshal(message, &event); err != nil {
			log.Printf("Error decoding session event: %v", err)
			continue
		}
		if !handle(event) {
			return true, nil
		}
	}
}

func (s *Subscriber) setState(connected bool) {
	if s.OnState != nil {
		s.OnState(connected)
	}
}
