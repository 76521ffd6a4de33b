package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewUser(t *testing.T) {
	tests := []struct {
		name        string
		email       string
		displayName string
		expected    string
	}{
		{name: "explicit display name", email: "demo@example.com", displayName: "Demo User", expected: "Demo User"},
		{name: "falls back to local part", email: "alice@example.com", expected: "alice"},
		{name: "no at sign", email: "bob", expected: "bob"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := NewUser("user-1", tt.email, tt.displayName)
			assert.Equal(t, "user-1", u.ID)
			assert.Equal(t, tt.email, u.Email)
			assert.Equal(t, tt.expected, u.DisplayName)
			assert.False(t, u.SignedInAt.IsZero())
		})
	}
}
