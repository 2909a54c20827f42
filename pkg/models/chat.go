package models

import "time"

// ChatSummary is one row in a user's chat list: the item pair, the
// counterpart and the most recent message.
type ChatSummary struct {
	LostItemID      string    `json:"LostItemID"`
	FoundItemID     string    `json:"FoundItemID"`
	LostItemName    string    `json:"LostItemName"`
	LostUserID      int64     `json:"LostUserID"`
	FoundUserID     int64     `json:"FoundUserID"`
	OtherUserID     int64     `json:"OtherUserID"`
	OtherUsername   string    `json:"OtherUsername"`
	LastMessage     string    `json:"LastMessage"`
	LastMessageTime time.Time `json:"LastMessageTime"`
}
