package engine

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"lostfound/pkg/logger"
	"lostfound/pkg/models"
)

// run is the periodic message poll for one session. It stops the moment
// its context is cancelled; a failing tick tears the session down
// through the tick itself.
func (c *Controller) run(ctx context.Context, s *session) {
	defer close(s.done)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.tick(ctx, s); err != nil {
				return
			}
		}
	}
}

// tick issues one sequence-tagged fetch of the canonical message list
// and applies it. A fetch error fail-fast closes the owning session; no
// retry, no backoff.
func (c *Controller) tick(ctx context.Context, s *session) error {
	seq := atomic.AddUint64(&s.nextSeq, 1)
	msgs, err := c.api.Messages(ctx, s.lostItemID, s.foundItemID)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.failSession(s, err)
		return err
	}
	c.applyCanonical(s, seq, msgs)
	return nil
}

// applyCanonical replaces the rendered list with the fetched one. The
// response is discarded untouched when the session has since closed or
// switched, or when a newer-sequenced fetch already landed. A canonical
// apply drops any surviving placeholders; the fetched list is the whole
// truth.
func (c *Controller) applyCanonical(s *session, seq uint64, msgs []models.Message) {
	c.mu.Lock()
	if c.sess != s || seq <= s.appliedSeq {
		c.mu.Unlock()
		logger.Debug("stale_fetch_discarded", "gen", s.gen, "seq", seq)
		return
	}
	s.appliedSeq = seq
	s.canonical = msgs
	s.placeholders = nil
	bubbles := c.renderList(s)
	c.mu.Unlock()

	c.render.messages(bubbles)
}

// failSession closes the session owning a failed tick, once. Later
// failures from already-detached sessions are no-ops, so repeated
// in-flight errors cannot close twice.
func (c *Controller) failSession(s *session, err error) {
	c.mu.Lock()
	if c.sess != s {
		c.mu.Unlock()
		return
	}
	c.sess = nil
	c.mu.Unlock()

	s.cancel()
	logger.Warn("session_poll_failed", "lost", s.lostItemID, "found", s.foundItemID, "error", err)
	c.render.toast("connection lost, chat closed: "+err.Error(), false)
}

// renderList builds the bubble list: canonical messages followed by live
// placeholders. Caller holds c.mu.
func (c *Controller) renderList(s *session) []Bubble {
	out := make([]Bubble, 0, len(s.canonical)+len(s.placeholders))
	for _, m := range s.canonical {
		out = append(out, Bubble{
			SenderID:   m.SenderID,
			SenderName: m.SenderName,
			Content:    m.Content,
			Image:      c.isMedia(m.Content),
			SentTime:   m.SentTime,
		})
	}
	out = append(out, s.placeholders...)
	return out
}

// isMedia applies the shared prefix convention: content under the media
// prefix renders as an image, anything else is literal text.
func (c *Controller) isMedia(content string) bool {
	return strings.HasPrefix(content, c.mediaPrefix)
}
