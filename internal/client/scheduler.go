package client

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"spotd/internal/api"
	"spotd/internal/notify"
	"spotd/internal/shared"
	"spotd/internal/state"
)

// queue is an unbounded FIFO channel. Producers never block; bursty producers
// rely on coalescing at their own layer.
type queue[T any] struct {
	in  chan T
	out chan T
}

func newQueue[T any]() *queue[T] {
	q := &queue[T]{in: make(chan T), out: make(chan T)}
	go q.pump()
	return q
}

func (q *queue[T]) pump() {
	var pending []T
	for {
		if len(pending) == 0 {
			item, ok := <-q.in
			if !ok {
				close(q.out)
				return
			}
			pending = append(pending, item)
		}
		select {
		case item, ok := <-q.in:
			if !ok {
				for _, p := range pending {
					q.out <- p
				}
				close(q.out)
				return
			}
			pending = append(pending, item)
		case q.out <- pending[0]:
			pending = pending[1:]
		}
	}
}

// Send enqueues an item, preserving the producer's enqueue order.
func (q *queue[T]) Send(item T) { q.in <- item }

// Client multiplexes requests from the UI, the IPC listener and the watch
// loop into concurrent handlers over the remote facade and the state store.
type Client struct {
	api    *api.Client
	state  *state.State
	logger *log.Logger

	requests       *queue[Request]
	playerRequests *queue[PlayerRequest]

	notifier  notify.Notifier
	streaming *StreamingSlot

	// sessionMu serializes session re-establishment performed by the guard.
	sessionMu sync.Mutex
}

// New creates the daemon client around the remote facade and the state store.
func New(apiClient *api.Client, st *state.State, notifier notify.Notifier, logger *log.Logger) *Client {
	return &Client{
		api:            apiClient,
		state:          st,
		logger:         logger,
		requests:       newQueue[Request](),
		playerRequests: newQueue[PlayerRequest](),
		notifier:       notifier,
		streaming:      &StreamingSlot{},
	}
}

// API returns the remote facade.
func (c *Client) API() *api.Client { return c.api }

// State returns the state store.
func (c *Client) State() *state.State { return c.state }

// Send enqueues a client request.
func (c *Client) Send(req Request) { c.requests.Send(req) }

// SendPlayer enqueues a player request.
func (c *Client) SendPlayer(req PlayerRequest) { c.playerRequests.Send(req) }

// StartRequestHandler runs the scheduler until ctx is cancelled. Each request
// is dispatched to its own goroutine so one slow RPC cannot stall the next;
// a handler failure is logged and discarded.
func (c *Client) StartRequestHandler(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-c.requests.out:
			if _, ok := req.(NewStreamingConnection); ok {
				// restarting the integrated client must not race with itself,
				// handle it inline
				c.handleNewStreamingConnection(ctx)
				continue
			}
			go c.dispatch(ctx, req)
		case preq := <-c.playerRequests.out:
			go c.dispatch(ctx, Player{Request: preq})
		}
	}
}

func (c *Client) dispatch(ctx context.Context, req Request) {
	requestID := shared.GenerateID()
	logger := c.logger.With("request_id", requestID)

	if err := c.ensureSession(ctx); err != nil {
		logger.Error("failed to re-establish the session", "error", err)
		c.reportError(err)
		return
	}

	if err := c.handleRequest(ctx, req); err != nil {
		logger.Error("failed to handle client request", "request", requestName(req), "error", err)
		c.reportError(err)
	}
}

// ensureSession re-establishes an invalid session synchronously before a
// request handler runs.
func (c *Client) ensureSession(ctx context.Context) error {
	session := c.api.Session()
	if session == nil || session.Valid() {
		return nil
	}

	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()

	if session.Valid() {
		return nil
	}
	c.logger.Info("session is invalid, re-creating a new session")
	return session.Reestablish(ctx)
}

func (c *Client) reportError(err error) {
	c.state.UI(func(ui *state.UIState) {
		ui.LastError = err.Error()
	})
}
