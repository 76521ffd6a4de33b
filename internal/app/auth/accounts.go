package auth

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/osa030/vibeflow/internal/infra/store"
)

// account is a registered email/password pair.
type account struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

func accountKey(email string) string {
	return "accounts/" + normalizeEmail(email)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// loadAccount returns the registered account for email, or nil.
func loadAccount(ctx context.Context, st store.Store, email string) (*account, error) {
	var a account
	err := store.GetJSON(ctx, st, accountKey(email), &a)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load account")
	}
	return &a, nil
}

func saveAccount(ctx context.Context, st store.Store, a *account) error {
	return store.SetJSON(ctx, st, accountKey(a.Email), a)
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "failed to hash password")
	}
	return string(hash), nil
}

func checkPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
