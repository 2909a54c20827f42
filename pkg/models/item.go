package models

import "time"

// Item statuses on the wire.
const (
	ItemStatusOpen     = "open"
	ItemStatusMatching = "matching"
	ItemStatusResolved = "resolved"
	ItemStatusDeleted  = "deleted"
)

// Item types on the wire.
const (
	ItemTypeLost  = "Lost"
	ItemTypeFound = "Found"
)

// Item is a lost or found report. IDs are prefixed "L"/"F" plus a
// zero-padded counter (L001, F014).
type Item struct {
	ItemID         string `json:"ItemID"`
	ItemType       string `json:"ItemType"`
	ItemName       string `json:"ItemName"`
	Description    string `json:"Description,omitempty"`
	Category       string `json:"Category,omitempty"`
	Location       string `json:"Location,omitempty"`
	ItemStatus     string `json:"ItemStatus"`
	UserID         int64  `json:"UserID"`
	PosterUsername string `json:"posterUsername,omitempty"`
	ImagePath      string `json:"ImagePath,omitempty"`
	MatchItemID    string `json:"MatchItemID,omitempty"`
	// ClaimPlaceholder marks a lost item the claim flow created only to
	// carry a conversation; rejecting the claim deletes it instead of
	// reopening it.
	ClaimPlaceholder bool      `json:"ClaimPlaceholder,omitempty"`
	CreationTime     time.Time `json:"CreationTime"`
}
