package client

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"spotd/internal/models"
	"spotd/internal/state"
)

func TestQueue_PreservesProducerOrder(t *testing.T) {
	q := newQueue[int]()
	const n = 1000

	go func() {
		for i := 0; i < n; i++ {
			q.Send(i)
		}
	}()

	for i := 0; i < n; i++ {
		select {
		case got := <-q.out:
			if got != i {
				t.Fatalf("dequeued %d, want %d (order broken)", got, i)
			}
		case <-time.After(time.Second):
			t.Fatalf("queue stalled at item %d", i)
		}
	}
}

func TestQueue_ProducerNeverBlocks(t *testing.T) {
	q := newQueue[int]()
	done := make(chan struct{})

	go func() {
		// nothing consumes q.out; sends must still complete
		for i := 0; i < 500; i++ {
			q.Send(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("producer blocked on an unbounded queue")
	}
}

func TestScheduler_SessionGuard(t *testing.T) {
	c, rt, session := newTestClient(t)
	rt.Handle(http.MethodGet, "/v1/me", `{"id":"u1","display_name":"User"}`)
	session.Invalid = true

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.StartRequestHandler(ctx)

	c.Send(GetCurrentUser{})

	deadline := time.After(2 * time.Second)
	for c.state.CurrentUser() == nil {
		select {
		case <-deadline:
			t.Fatal("GetCurrentUser not handled")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if session.Reestablished != 1 {
		t.Errorf("session re-established %d times, want 1", session.Reestablished)
	}
}

func TestScheduler_ErrorIsolation(t *testing.T) {
	// A failing handler is logged and discarded; subsequent requests keep
	// being served and the failure surfaces as a one-line UI status.
	c, rt, _ := newTestClient(t)
	rt.Handle(http.MethodGet, "/v1/me", `{"id":"u1","display_name":"User"}`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.StartRequestHandler(ctx)

	// GetContext for a synthetic tracks id fails fast with an explicit error.
	c.Send(GetContext{ID: models.LikedTracksID})
	c.Send(GetCurrentUser{})

	deadline := time.After(2 * time.Second)
	for c.state.CurrentUser() == nil {
		select {
		case <-deadline:
			t.Fatal("request after a failed handler was not served")
		case <-time.After(5 * time.Millisecond):
		}
	}

	lastErr := ""
	deadline = time.After(2 * time.Second)
	for lastErr == "" {
		c.state.UI(func(ui *state.UIState) { lastErr = ui.LastError })
		select {
		case <-deadline:
			t.Fatal("handler failure not reported to the UI status line")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestScheduler_ConcurrentDispatch(t *testing.T) {
	// A request queued behind a burst of earlier requests is still served.
	c, rt, _ := newTestClient(t)
	rt.Handle(http.MethodGet, "/v1/me", `{"id":"u1","display_name":"User"}`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.StartRequestHandler(ctx)

	for i := 0; i < 8; i++ {
		c.Send(Search{Query: fmt.Sprintf("query-%d", i)})
	}
	c.Send(GetCurrentUser{})

	deadline := time.After(2 * time.Second)
	for c.state.CurrentUser() == nil {
		select {
		case <-deadline:
			t.Fatal("request stalled behind earlier requests")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
