// Package user defines the user record owned by the record store.
package user

import "time"

// User is an account in the store. Points is the metered balance consumed by
// generation calls; it is never negative.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Nickname     string    `json:"nickname,omitempty"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	WeChatOpenID string    `json:"-"`
	Points       int64     `json:"points"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
