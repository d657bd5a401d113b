package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"animehub/internal/release"
	"animehub/pkg/utils"
)

// ErrUnauthorized is returned when the feed rejects our credentials. There is
// no point reconnecting, the caller should exit and let an operator fix it.
var ErrUnauthorized = errors.New("stream: unauthorized")

// State is the connection lifecycle of the catalog stream.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateStreaming
	StateBackoff
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateBackoff:
		return "backoff"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Client consumes release announcements from the catalog feed over a
// websocket and pushes them onto a bounded queue. It reconnects on its own
// with exponential backoff; only authentication failures are fatal.
type Client struct {
	cfg    utils.StreamConfig
	dialer *websocket.Dialer

	mu    sync.Mutex
	state State
}

func New(cfg utils.StreamConfig) *Client {
	return &Client{
		cfg: cfg,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// State reports the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Run connects to the feed and delivers announcements to queue until ctx is
// cancelled or the feed rejects our credentials. Each send to queue blocks
// when the queue is full, so a slow consumer slows down reads rather than
// dropping announcements.
func (c *Client) Run(ctx context.Context, queue chan<- release.Announcement) error {
	defer c.setState(StateDisconnected)

	backoff := c.cfg.InitialBackoff
	for {
		c.setState(StateConnecting)
		conn, resp, err := c.dialer.DialContext(ctx, c.cfg.FeedURL, nil)
		if err != nil {
			if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
				return fmt.Errorf("dial %s: status %d: %w", c.cfg.FeedURL, resp.StatusCode, ErrUnauthorized)
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[stream] dial %s failed: %v (retrying in %s)", c.cfg.FeedURL, err, backoff)
			if !c.wait(ctx, backoff) {
				return ctx.Err()
			}
			backoff = c.nextBackoff(backoff)
			continue
		}

		c.setState(StateStreaming)
		log.Printf("[stream] connected to %s", c.cfg.FeedURL)
		started := time.Now()
		err = c.consume(ctx, conn, queue)
		conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// A connection that held long enough was healthy, so the next
		// outage starts from the initial delay again.
		if time.Since(started) >= c.cfg.ResetAfter {
			backoff = c.cfg.InitialBackoff
		}
		log.Printf("[stream] disconnected: %v (reconnecting in %s)", err, backoff)
		c.setState(StateBackoff)
		if !c.wait(ctx, backoff) {
			return ctx.Err()
		}
		backoff = c.nextBackoff(backoff)
	}
}

func (c *Client) consume(ctx context.Context, conn *websocket.Conn, queue chan<- release.Announcement) error {
	// ReadMessage has no context support; closing the conn unblocks it.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var ann release.Announcement
		if err := json.Unmarshal(data, &ann); err != nil {
			log.Printf("[stream] dropping malformed frame: %v", err)
			continue
		}
		if ann.Title == "" {
			// Welcome and other control frames carry no title.
			continue
		}

		select {
		case queue <- ann:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// wait sleeps for the backoff delay plus jitter. It returns false when ctx
// was cancelled while waiting.
func (c *Client) wait(ctx context.Context, backoff time.Duration) bool {
	delay := backoff
	if half := backoff / 2; half > 0 {
		delay += rand.N(half)
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Client) nextBackoff(cur time.Duration) time.Duration {
	next := cur * 2
	if next > c.cfg.MaxBackoff {
		next = c.cfg.MaxBackoff
	}
	return next
}
