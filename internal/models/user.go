package models

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FCMToken     *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PushToken returns the registered push token, or "" when none is stored.
func (u User) PushToken() string {
	if u.FCMToken == nil {
		return ""
	}
	return *u.FCMToken
}

// PasswordResetToken is a single-use token mailed to a user
type PasswordResetToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}
