// Package user provides the signed-in User domain entity.
package user

import (
	"strings"
	"time"
)

// User represents an authenticated listener.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	SignedInAt  time.Time `json:"signed_in_at"`
}

// NewUser creates a user. An empty display name falls back to the local part of the email.
func NewUser(id, email, displayName string) *User {
	if displayName == "" {
		displayName = LocalPart(email)
	}
	return &User{
		ID:          id,
		Email:       email,
		DisplayName: displayName,
		SignedInAt:  time.Now(),
	}
}

// LocalPart returns the part of an email address before '@'.
func LocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
