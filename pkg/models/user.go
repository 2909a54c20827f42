package models

// User is an account. PasswordHash never leaves the store; handlers
// strip it before responding.
type User struct {
	UserID       int64  `json:"UserID"`
	Username     string `json:"Username"`
	PasswordHash string `json:"PasswordHash,omitempty"`
	Role         string `json:"Role,omitempty"`
}
