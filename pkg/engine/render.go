package engine

import (
	"time"

	"lostfound/pkg/models"
)

// Bubble states for optimistic image sends. Canonical messages carry an
// empty state.
const (
	BubbleUploading = "uploading"
	BubbleFailed    = "failed"
	BubbleResolved  = "resolved"
)

// Bubble is one entry of the rendered message list: either a canonical
// message from the daemon or a local placeholder for an in-flight image
// send. LocalID is set only on placeholders.
type Bubble struct {
	LocalID    string
	SenderID   int64
	SenderName string
	Content    string
	Image      bool
	SentTime   time.Time
	State      string
}

// Renderer receives plain data whenever engine state changes. Any nil
// callback is skipped, so views wire only what they show.
type Renderer struct {
	OnMessages      func(bubbles []Bubble)
	OnNotifications func(list []models.Notification, unread int)
	OnToast         func(msg string, ok bool)
}

func (r Renderer) messages(bubbles []Bubble) {
	if r.OnMessages != nil {
		r.OnMessages(bubbles)
	}
}

func (r Renderer) notifications(list []models.Notification, unread int) {
	if r.OnNotifications != nil {
		r.OnNotifications(list, unread)
	}
}

func (r Renderer) toast(msg string, ok bool) {
	if r.OnToast != nil {
		r.OnToast(msg, ok)
	}
}
