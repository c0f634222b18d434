package bootstrap

import (
	"context"
	"time"

	"golivehub/internal/client"
)

// HTTPClients builds API handles against the backend at baseURL
func HTTPClients(baseURL string) ClientFactory {
	return func(token string) API {
		return client.NewClient(baseURL, token)
	}
}

// SingleSession returns a guard that signs the sequencer out once another
// sign-in supersedes the session. Only HTTP clients can be watched; other
// API handles are left unguarded.
func SingleSession(s *Sequencer, pollInterval time.Duration, onSuperseded func(reason string)) SessionGuard {
	return func(ctx context.Context, api API, identity Identity) {
		c, ok := api.(*client.Client)
		if !ok || identity.SessionID == "" {
			return
		}

		watcher := client.NewSessionWatcher(c, identity.SessionID, pollInterval, func(reason string) {
			s.SignOut()
			if onSuperseded != nil {
				onSuperseded(reason)
			}
		})
		watcher.Run(ctx)
	}
}
