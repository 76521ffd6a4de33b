// Package auth provides the sign-in state of the player.
//
// Authentication is simulated: a demo account, accounts registered on this
// device (bcrypt hashed in the store) and any other well-formed email with a
// long enough password are accepted. The signed-in user is persisted so a
// restart keeps the session.
package auth

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/vibeflow/internal/domain/user"
	"github.com/osa030/vibeflow/internal/infra/store"
)

const sessionKey = "session/user"

// DemoUserID is the fixed id of the demo account.
const DemoUserID = "demo-user-id"

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountExists      = errors.New("an account with this email already exists")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password too short")
)

// Config holds auth configuration.
type Config struct {
	DemoEmail         string
	DemoPassword      string
	MinPasswordLength int
}

// Provider tracks the signed-in user.
type Provider struct {
	mu       sync.RWMutex
	store    store.Store
	config   Config
	current  *user.User
	validate *validator.Validate

	listeners []func(*user.User)
}

// NewProvider creates a signed-out provider.
func NewProvider(st store.Store, config Config) *Provider {
	if config.MinPasswordLength <= 0 {
		config.MinPasswordLength = 6
	}
	return &Provider{
		store:    st,
		config:   config,
		validate: validator.New(),
	}
}

// OnChange registers a callback run after every sign-in and sign-out.
func (p *Provider) OnChange(fn func(*user.User)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// CurrentUser returns the signed-in user, nil when signed out.
func (p *Provider) CurrentUser() *user.User {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.current == nil {
		return nil
	}
	u := *p.current
	return &u
}

// IsAuthenticated reports whether someone is signed in.
func (p *Provider) IsAuthenticated() bool {
	return p.CurrentUser() != nil
}

// Restore reloads the persisted session, if any.
func (p *Provider) Restore(ctx context.Context) error {
	var u user.User
	err := store.GetJSON(ctx, p.store, sessionKey, &u)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		zlog.Warn().Err(err).Msg("auth: dropping unreadable session")
		_ = p.store.Delete(ctx, sessionKey)
		return nil
	}

	zlog.Info().Msgf("auth: restored session user=%s", u.ID)
	p.setCurrent(&u)
	return nil
}

// Login signs in with email and password.
func (p *Provider) Login(ctx context.Context, email, password string) (*user.User, error) {
	email = normalizeEmail(email)

	if p.config.DemoEmail != "" && email == normalizeEmail(p.config.DemoEmail) {
		if password != p.config.DemoPassword {
			return nil, ErrInvalidCredentials
		}
		return p.signIn(ctx, user.NewUser(DemoUserID, email, "Demo User"))
	}

	acct, err := loadAccount(ctx, p.store, email)
	if err != nil {
		return nil, err
	}
	if acct != nil {
		if !checkPassword(password, acct.PasswordHash) {
			return nil, ErrInvalidCredentials
		}
		return p.signIn(ctx, user.NewUser(acct.UserID, acct.Email, acct.DisplayName))
	}

	// Unknown emails are accepted as long as they look valid.
	if err := p.checkCredentials(email, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return p.signIn(ctx, user.NewUser("user-"+uuid.New().String(), email, ""))
}

// Register creates an account and signs in with it.
func (p *Provider) Register(ctx context.Context, email, password, displayName string) (*user.User, error) {
	email = normalizeEmail(email)
	if err := p.checkCredentials(email, password); err != nil {
		return nil, err
	}
	if p.config.DemoEmail != "" && email == normalizeEmail(p.config.DemoEmail) {
		return nil, ErrAccountExists
	}

	existing, err := loadAccount(ctx, p.store, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAccountExists
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	u := user.NewUser("user-"+uuid.New().String(), email, displayName)
	acct := &account{
		UserID:       u.ID,
		Email:        email,
		DisplayName:  u.DisplayName,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	if err := saveAccount(ctx, p.store, acct); err != nil {
		return nil, errors.Wrap(err, "failed to save account")
	}

	zlog.Info().Msgf("auth: registered user=%s", u.ID)
	return p.signIn(ctx, u)
}

// Logout signs out.
func (p *Provider) Logout(ctx context.Context) error {
	if err := p.store.Delete(ctx, sessionKey); err != nil {
		return errors.Wrap(err, "failed to clear session")
	}
	zlog.Info().Msg("auth: signed out")
	p.setCurrent(nil)
	return nil
}

// ResetPassword pretends to send a reset link. It never reveals whether
// the address is registered.
func (p *Provider) ResetPassword(ctx context.Context, email string) error {
	if err := p.validate.Var(email, "required,email"); err != nil {
		return ErrInvalidEmail
	}
	zlog.Info().Msgf("auth: password reset requested for %s", normalizeEmail(email))
	return nil
}

func (p *Provider) checkCredentials(email, password string) error {
	if err := p.validate.Var(email, "required,email"); err != nil {
		return ErrInvalidEmail
	}
	if len(password) < p.config.MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

func (p *Provider) signIn(ctx context.Context, u *user.User) (*user.User, error) {
	if err := store.SetJSON(ctx, p.store, sessionKey, u); err != nil {
		return nil, errors.Wrap(err, "failed to persist session")
	}
	zlog.Info().Msgf("auth: signed in user=%s", u.ID)
	p.setCurrent(u)
	return p.CurrentUser(), nil
}

func (p *Provider) setCurrent(u *user.User) {
	p.mu.Lock()
	p.current = u
	listeners := slices.Clone(p.listeners)
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(u)
	}
}
