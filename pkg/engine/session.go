package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"lostfound/pkg/config"
	"lostfound/pkg/logger"
	"lostfound/pkg/models"
)

// session is one open chat context. It is created by Open, owned by the
// Controller and torn down by Close, Resolve or a failed tick. The
// generation number identifies it against late responses; appliedSeq
// orders fetches within it.
type session struct {
	lostItemID  string
	foundItemID string
	lostOwnerID int64
	canResolve  bool

	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}

	nextSeq    uint64
	appliedSeq uint64

	canonical    []models.Message
	placeholders []Bubble
}

// Controller owns the single active chat session. All methods are safe
// for concurrent use; mu guards the session pointer and render state,
// opMu serializes whole lifecycle transitions (stop, install, start) so
// two racing Opens cannot orphan a running poll loop.
type Controller struct {
	api    API
	cache  *ItemCache
	render Renderer

	userID      int64
	interval    time.Duration
	mediaPrefix string

	opMu sync.Mutex

	mu   sync.Mutex
	gen  uint64
	sess *session
}

// NewController wires a session controller for one authenticated user.
func NewController(api API, render Renderer, cache *ItemCache, userID int64, cfg config.ClientConfig) *Controller {
	return &Controller{
		api:         api,
		cache:       cache,
		render:      render,
		userID:      userID,
		interval:    cfg.MessageInterval(),
		mediaPrefix: cfg.MediaPrefixOrDefault(),
	}
}

// Open opens the chat session for a lost/found pair. Any previously open
// session is fully stopped first; the old poll goroutine has exited
// before the new one starts. Open performs one synchronous message fetch
// so the caller sees the conversation immediately, then starts the
// periodic loop. Both items must resolve through the cache or no session
// is created.
func (c *Controller) Open(ctx context.Context, lostItemID, foundItemID string) error {
	lost, err := c.cache.GetByID(ctx, lostItemID)
	if err != nil {
		return fmt.Errorf("lost item %s: %w", lostItemID, err)
	}
	if _, err := c.cache.GetByID(ctx, foundItemID); err != nil {
		return fmt.Errorf("found item %s: %w", foundItemID, err)
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.stopCurrent()

	loopCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.gen++
	s := &session{
		lostItemID:  lostItemID,
		foundItemID: foundItemID,
		lostOwnerID: lost.UserID,
		canResolve:  lost.UserID == c.userID && lost.ItemStatus != models.ItemStatusResolved,
		gen:         c.gen,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
	c.sess = s
	c.mu.Unlock()

	// The open-time fetch surfaces through the return value alone; the
	// periodic loop only starts on success.
	seq := atomic.AddUint64(&s.nextSeq, 1)
	msgs, err := c.api.Messages(ctx, lostItemID, foundItemID)
	if err != nil {
		// The loop goroutine never started; release anyone waiting on
		// this session.
		c.mu.Lock()
		if c.sess == s {
			c.sess = nil
		}
		c.mu.Unlock()
		cancel()
		close(s.done)
		return err
	}
	c.applyCanonical(s, seq, msgs)

	go c.run(loopCtx, s)
	logger.Debug("session_opened", "gen", s.gen, "lost", lostItemID, "found", foundItemID)
	return nil
}

// Close stops the active session's poll loop and waits for it to exit.
// Closing when nothing is open is a no-op.
func (c *Controller) Close() {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.stopCurrent()
}

// stopCurrent detaches the current session under the lock, then cancels
// and waits outside it. Detaching first means any in-flight tick sees a
// stale generation and discards its response.
func (c *Controller) stopCurrent() {
	c.mu.Lock()
	s := c.sess
	c.sess = nil
	c.mu.Unlock()
	if s == nil {
		return
	}
	s.cancel()
	<-s.done
	logger.Debug("session_closed", "lost", s.lostItemID, "found", s.foundItemID)
}

// IsOpen reports whether a session is currently open.
func (c *Controller) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess != nil
}

// Session returns the open pair. ok is false when no session is open.
func (c *Controller) Session() (lostItemID, foundItemID string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return "", "", false
	}
	return c.sess.lostItemID, c.sess.foundItemID, true
}

// CanResolve reports whether the resolve affordance applies: only the
// lost-item owner of a not-yet-resolved item gets it.
func (c *Controller) CanResolve() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess != nil && c.sess.canResolve
}

// Resolve confirms or rejects the open session's match. On success the
// session always closes, and the caller's refresh hook runs exactly
// once; a failing hook cannot keep the session open. On failure the
// session stays open and untouched.
func (c *Controller) Resolve(ctx context.Context, action string, refresh func() error) error {
	c.mu.Lock()
	s := c.sess
	c.mu.Unlock()
	if s == nil {
		return ErrNoActiveSession
	}

	msg, err := c.api.ResolveChat(ctx, c.userID, s.lostItemID, s.foundItemID, action)
	if err != nil {
		return err
	}

	c.cache.Invalidate(s.lostItemID)
	c.cache.Invalidate(s.foundItemID)
	c.opMu.Lock()
	c.stopCurrent()
	c.opMu.Unlock()
	c.render.toast(msg, true)

	if refresh != nil {
		if err := refresh(); err != nil {
			logger.Warn("resolve_refresh_failed", "error", err)
		}
	}
	return nil
}
