package engine

import (
	"context"
	"sync"
	"time"

	"lostfound/pkg/config"
	"lostfound/pkg/logger"
	"lostfound/pkg/models"
)

// NotificationRouter polls the user's notifications on its own clock,
// independent of any chat session. Each fetch fully replaces the
// rendered list and recomputes the unread badge. Failures on this path
// are logged, never toasted.
type NotificationRouter struct {
	api      API
	render   Renderer
	userID   int64
	interval time.Duration

	// open is invoked when an actionable notification is clicked.
	open func(ctx context.Context, lostItemID, foundItemID string) error

	mu      sync.Mutex
	list    []models.Notification
	unread  int
	pending map[int64]struct{}
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewNotificationRouter wires a router for one authenticated user. open
// receives the related pair when an actionable notification is clicked;
// typically Controller.Open.
func NewNotificationRouter(api API, render Renderer, userID int64, cfg config.ClientConfig,
	open func(ctx context.Context, lostItemID, foundItemID string) error) *NotificationRouter {
	return &NotificationRouter{
		api:      api,
		render:   render,
		userID:   userID,
		interval: cfg.NotificationInterval(),
		open:     open,
	}
}

// Start fetches once immediately, then polls at the configured
// interval until Stop. Calling Start again first stops the previous
// loop, so at most one runs.
func (nr *NotificationRouter) Start(ctx context.Context) {
	nr.Stop()

	loopCtx, cancel := context.WithCancel(ctx)
	nr.mu.Lock()
	nr.cancel = cancel
	nr.done = make(chan struct{})
	done := nr.done
	nr.mu.Unlock()

	nr.Refresh(loopCtx)

	go func() {
		defer close(done)
		ticker := time.NewTicker(nr.interval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				nr.Refresh(loopCtx)
			}
		}
	}()
}

// Stop halts the poll loop and waits for it to exit.
func (nr *NotificationRouter) Stop() {
	nr.mu.Lock()
	cancel, done := nr.cancel, nr.done
	nr.cancel, nr.done = nil, nil
	nr.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Refresh fetches the batch, fully replaces the list and recomputes the
// badge as the count of unread entries in the batch. A fetch failure
// leaves the previous render in place.
func (nr *NotificationRouter) Refresh(ctx context.Context) {
	list, err := nr.api.Notifications(ctx, nr.userID)
	if err != nil {
		logger.Warn("notification_fetch_failed", "error", err)
		return
	}
	unread := 0
	for _, n := range list {
		if !n.IsRead {
			unread++
		}
	}
	nr.mu.Lock()
	nr.list = list
	nr.unread = unread
	nr.mu.Unlock()
	nr.render.notifications(list, unread)
}

// Unread returns the current badge count.
func (nr *NotificationRouter) Unread() int {
	nr.mu.Lock()
	defer nr.mu.Unlock()
	return nr.unread
}

// MarkAsRead marks one notification read. Idempotent: when local state
// already shows it read, or a mark for the same id is already in
// flight, no request is issued. On success the local entry flips and
// the badge decrements by one, floored at zero. On failure the entry
// stays unread and the error is only logged.
func (nr *NotificationRouter) MarkAsRead(ctx context.Context, id int64) error {
	nr.mu.Lock()
	idx := -1
	for i, n := range nr.list {
		if n.NotificationID == id {
			idx = i
			break
		}
	}
	if idx < 0 || nr.list[idx].IsRead {
		nr.mu.Unlock()
		return nil
	}
	if _, inflight := nr.pending[id]; inflight {
		nr.mu.Unlock()
		return nil
	}
	if nr.pending == nil {
		nr.pending = make(map[int64]struct{})
	}
	nr.pending[id] = struct{}{}
	nr.mu.Unlock()

	err := nr.api.MarkNotificationRead(ctx, id, nr.userID)

	nr.mu.Lock()
	delete(nr.pending, id)
	if err != nil {
		nr.mu.Unlock()
		logger.Warn("mark_read_failed", "id", id, "error", err)
		return err
	}
	for i := range nr.list {
		if nr.list[i].NotificationID == id && !nr.list[i].IsRead {
			nr.list[i].IsRead = true
			if nr.unread > 0 {
				nr.unread--
			}
		}
	}
	list, unread := nr.list, nr.unread
	nr.mu.Unlock()
	nr.render.notifications(list, unread)
	return nil
}

// Click handles a tap on a notification as one gesture: fire-and-forget
// mark-read, then for actionable kinds a session open on the related
// pair. The mark-read never blocks or fails the open.
func (nr *NotificationRouter) Click(ctx context.Context, id int64) error {
	nr.mu.Lock()
	var clicked *models.Notification
	for i := range nr.list {
		if nr.list[i].NotificationID == id {
			clicked = &nr.list[i]
			break
		}
	}
	if clicked == nil {
		nr.mu.Unlock()
		return nil
	}
	n := *clicked
	nr.mu.Unlock()

	go func() {
		_ = nr.MarkAsRead(context.Background(), id)
	}()

	if !n.Actionable() || nr.open == nil {
		return nil
	}
	return nr.open(ctx, n.RelatedItemID1, n.RelatedItemID2)
}
