package bootstrap

import (
	"context"
	"testing"
	"time"

	"golivehub/internal/client"

	"github.com/stretchr/testify/assert"
)

func TestHTTPClients(t *testing.T) {
	api := HTTPClients("http://localhost:8080")("tok1")

	c, ok := api.(*client.Client)
	if assert.True(t, ok) {
		assert.Equal(t, "tok1", c.Token())
		assert.Equal(t, "ws://localhost:8080/ws/session", c.SocketURL())
	}
}

func TestSingleSession_SkipsUnwatchableClients(t *testing.T) {
	seq := New(StaticToken("tok1"), newFakeAPI().factory())
	guard := SingleSession(seq, time.Second, func(string) {
		t.Error("fake clients cannot be superseded")
	})

	done := make(chan struct{})
	go func() {
		guard(context.Background(), newFakeAPI(), alice)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("guard should return at once for non-HTTP clients")
	}
}
