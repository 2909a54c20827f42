package models

import "time"

// Message is one chat message between the reporter of a lost item and
// the reporter of a found item. The pair (LostItemID, FoundItemID)
// identifies the conversation. Content is either literal text or a
// stored media reference; there is no explicit kind field on the wire,
// the media prefix convention decides rendering.
type Message struct {
	MessageID   int64     `json:"MessageID"`
	SenderID    int64     `json:"SenderID"`
	ReceiverID  int64     `json:"ReceiverID,omitempty"`
	SenderName  string    `json:"senderName,omitempty"`
	LostItemID  string    `json:"LostItemID,omitempty"`
	FoundItemID string    `json:"FoundItemID,omitempty"`
	Content     string    `json:"Content"`
	SentTime    time.Time `json:"SentTime"`
}
