package models

import "time"

// Notification types on the wire. NewMessage and Match carry a related
// item pair and open a chat session; General only supports mark-read.
const (
	NotificationNewMessage = "new_message"
	NotificationMatch      = "match"
	NotificationGeneral    = "general"
)

// Notification is a server-owned notification for one user. The client
// only ever flips IsRead through the mark-read endpoint.
type Notification struct {
	NotificationID   int64     `json:"NotificationID"`
	NotificationType string    `json:"NotificationType"`
	Message          string    `json:"Message"`
	RelatedItemID1   string    `json:"RelatedItemID_1,omitempty"`
	RelatedItemID2   string    `json:"RelatedItemID_2,omitempty"`
	IsRead           bool      `json:"IsRead"`
	CreationTime     time.Time `json:"CreationTime"`
}

// Actionable reports whether the notification carries a chat-session
// action (a related item pair to open).
func (n Notification) Actionable() bool {
	switch n.NotificationType {
	case NotificationNewMessage, NotificationMatch:
		return n.RelatedItemID1 != "" && n.RelatedItemID2 != ""
	}
	return false
}
