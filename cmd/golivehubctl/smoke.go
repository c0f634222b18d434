package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"golivehub/internal/bootstrap"

	"github.com/spf13/cobra"
)

var smokeOpts struct {
	url       string
	token     string
	userID    string
	sessionID string
	mail      string
	watch     time.Duration
}

var smokeCmd = &cobra.Command{
	Use:   "smoke",
	Short: "Sign in against a running server and report where the app would land",
	Long: `smoke runs the session bootstrap sequence against --url with the given
bearer token and prints the resulting state. With --watch it then keeps the
session guarded and reports if a newer sign-in supersedes it.`,
	RunE: runSmoke,
}

func init() {
	f := smokeCmd.Flags()
	f.StringVar(&smokeOpts.url, "url", "http://localhost:8080", "server base URL")
	f.StringVar(&smokeOpts.token, "token", "", "bearer token of the signed-in user")
	f.StringVar(&smokeOpts.userID, "user-id", "", "identity provider user id")
	f.StringVar(&smokeOpts.sessionID, "session-id", "", "identity provider session id")
	f.StringVar(&smokeOpts.mail, "mail", "", "mail address used to prefill registration")
	f.DurationVar(&smokeOpts.watch, "watch", 0, "keep the session guarded for this long once ready")
	_ = smokeCmd.MarkFlagRequired("token")
	_ = smokeCmd.MarkFlagRequired("user-id")

	rootCmd.AddCommand(smokeCmd)
}

func runSmoke(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	superseded := make(chan string, 1)

	var seq *bootstrap.Sequencer
	seq = bootstrap.New(
		bootstrap.StaticToken(smokeOpts.token),
		bootstrap.HTTPClients(smokeOpts.url),
		bootstrap.WithTransitionHook(func(from, to bootstrap.State) {
			log.Printf("🔄 %s -> %s", from, to)
		}),
		bootstrap.WithSessionGuard(func(ctx context.Context, api bootstrap.API, identity bootstrap.Identity) {
			bootstrap.SingleSession(seq, 5*time.Second, func(reason string) {
				superseded <- reason
			})(ctx, api, identity)
		}),
	)

	identity := bootstrap.Identity{
		UserID:    smokeOpts.userID,
		SessionID: smokeOpts.sessionID,
		Mail:      smokeOpts.mail,
	}

	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	state, err := seq.Run(runCtx, identity)
	cancel()
	if err != nil {
		return fmt.Errorf("bootstrap ended in %s: %w", state, err)
	}

	snap := seq.Snapshot()
	log.Printf("✅ Landed in %s", state)
	if snap.Profile != nil {
		log.Printf("👤 %s, %d interests, following %d", snap.Profile.UserName, len(snap.Profile.Interests), len(snap.Profile.Following))
	}
	if state != bootstrap.Ready || smokeOpts.watch <= 0 {
		return nil
	}

	log.Printf("📺 %d livestreams listed, watching session for %s", len(snap.Livestreams), smokeOpts.watch)
	select {
	case reason := <-superseded:
		log.Printf("🚪 Signed out: %s", reason)
	case <-time.After(smokeOpts.watch):
		log.Println("Session still current")
	case <-ctx.Done():
	}
	seq.SignOut()
	return nil
}
