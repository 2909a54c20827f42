package engine

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"lostfound/pkg/client"
	"lostfound/pkg/logger"
)

// SendText sends a literal text message on the open session. Text sends
// create no placeholder; the message appears with the post-send resync.
func (c *Controller) SendText(ctx context.Context, text string) error {
	if text == "" {
		return ErrEmptyMessage
	}
	return c.send(ctx, text, nil, "")
}

// SendImage sends an image on the open session. A placeholder bubble in
// uploading state appears immediately; reconciliation replaces it with
// the stored media reference or removes it, then one resync merges the
// message into canonical order. A failed send leaves the placeholder in
// its terminal failed state.
func (c *Controller) SendImage(ctx context.Context, image io.Reader, name string) error {
	if image == nil {
		return ErrEmptyMessage
	}
	data, err := io.ReadAll(image)
	if err != nil {
		return err
	}
	return c.send(ctx, "", data, name)
}

func (c *Controller) send(ctx context.Context, text string, image []byte, imageName string) error {
	if text != "" && image != nil {
		return ErrTextAndImage
	}

	c.mu.Lock()
	s := c.sess
	c.mu.Unlock()
	if s == nil {
		return ErrNoActiveSession
	}

	req := client.SendMessageRequest{
		SenderID:    c.userID,
		LostItemID:  s.lostItemID,
		FoundItemID: s.foundItemID,
		Content:     text,
	}

	localID := ""
	if image != nil {
		// Downscaling is best-effort and must never block the send.
		image = Downscale(image)
		req.ImagePath = imageName
		req.ImageReader = bytes.NewReader(image)

		localID = uuid.NewString()
		c.appendPlaceholder(s, Bubble{
			LocalID:  localID,
			SenderID: c.userID,
			Content:  imageName,
			Image:    true,
			SentTime: time.Now(),
			State:    BubbleUploading,
		})
	}

	resp, err := c.api.SendMessage(ctx, req)
	if err != nil {
		if localID != "" {
			c.markPlaceholderFailed(s, localID)
		}
		return err
	}

	if localID != "" {
		c.reconcilePlaceholder(s, localID, resp.Content)
	}

	// One extra sync so the stored message lands in canonical order. A
	// failure here tears the session down the same as any other tick.
	c.mu.Lock()
	current := c.sess == s
	c.mu.Unlock()
	if current {
		if err := c.tick(ctx, s); err != nil {
			logger.Warn("post_send_sync_failed", "error", err)
		}
	}
	return nil
}

// appendPlaceholder appends a placeholder bubble to the render list.
func (c *Controller) appendPlaceholder(s *session, b Bubble) {
	c.mu.Lock()
	if c.sess != s {
		c.mu.Unlock()
		return
	}
	s.placeholders = append(s.placeholders, b)
	bubbles := c.renderList(s)
	c.mu.Unlock()
	c.render.messages(bubbles)
}

// reconcilePlaceholder applies the send response to the placeholder
// before the resync's full-list render can land: a stored media
// reference replaces the content in place, anything else removes the
// placeholder outright.
func (c *Controller) reconcilePlaceholder(s *session, localID, content string) {
	c.mu.Lock()
	if c.sess != s {
		c.mu.Unlock()
		return
	}
	if c.isMedia(content) {
		for i := range s.placeholders {
			if s.placeholders[i].LocalID == localID {
				s.placeholders[i].Content = content
				s.placeholders[i].State = BubbleResolved
			}
		}
	} else {
		kept := s.placeholders[:0]
		for _, b := range s.placeholders {
			if b.LocalID != localID {
				kept = append(kept, b)
			}
		}
		s.placeholders = kept
	}
	bubbles := c.renderList(s)
	c.mu.Unlock()
	c.render.messages(bubbles)
}

// markPlaceholderFailed flips the placeholder to its terminal failed
// state. The canonical list is untouched; there is no retry.
func (c *Controller) markPlaceholderFailed(s *session, localID string) {
	c.mu.Lock()
	if c.sess != s {
		c.mu.Unlock()
		return
	}
	for i := range s.placeholders {
		if s.placeholders[i].LocalID == localID {
			s.placeholders[i].State = BubbleFailed
		}
	}
	bubbles := c.renderList(s)
	c.mu.Unlock()
	c.render.messages(bubbles)
}
