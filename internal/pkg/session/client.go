package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/LarsBehrendt/SocialPulse/app/models"
	"github.com/LarsBehrendt/SocialPulse/app/repository"
	"github.com/LarsBehrendt/SocialPulse/internal/pkg/result"
	"github.com/LarsBehrendt/SocialPulse/internal/pkg/retry"
)

var (
	// ErrNoSession means the store answered but holds no active session
	ErrNoSession = errors.New("no active session")
	// ErrLookupTimeout means the store did not answer within the bounded wait
	ErrLookupTimeout = errors.New("session lookup timed out")
	// ErrRetryBudgetExceeded means the retry window closed without the store
	// ever erroring or producing a session
	ErrRetryBudgetExceeded = errors.New("session retry budget exceeded")
	// ErrInvalidRefreshToken means the presented refresh token matches no
	// live session of this user
	ErrInvalidRefreshToken = errors.New("refresh token is invalid or expired")
)

const defaultAttemptTimeout = 2 * time.Second

// UserProfile is what the dashboard sees of the signed-in user. When the
// profile table is unreachable it is rebuilt from access-token claims alone.
type UserProfile struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Client manages the token lifecycle for one signed-in user. It keeps a
// cached copy of the session row; the cache is only replaced after a
// successful store operation, never on failure.
type Client struct {
	userID   uint
	sessions repository.SessionRepository
	users    repository.UserRepository
	tokens   *TokenIssuer

	offline        func() bool
	attemptTimeout time.Duration

	mu      sync.Mutex
	current *models.Session
}

type ClientOption func(*Client)

// WithOfflineCheck installs a connectivity check; Refresh no-ops while it
// reports true.
func WithOfflineCheck(fn func() bool) ClientOption {
	return func(c *Client) { c.offline = fn }
}

// WithAttemptTimeout overrides the per-attempt store timeout
func WithAttemptTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.attemptTimeout = d }
}

func NewClient(sessions repository.SessionRepository, users repository.UserRepository, tokens *TokenIssuer, userID uint, opts ...ClientOption) *Client {
	c := &Client{
		userID:         userID,
		sessions:       sessions,
		users:          users,
		tokens:         tokens,
		attemptTimeout: defaultAttemptTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Current returns the cached session without touching the store
func (c *Client) Current() *models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	copied := *c.current
	return &copied
}

func (c *Client) setCurrent(s *models.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s == nil {
		c.current = nil
		return
	}
	copied := *s
	c.current = &copied
}

// LookupWithTimeout races a store fetch against a timer so an unreachable
// store cannot hang the caller indefinitely.
func (c *Client) LookupWithTimeout(ctx context.Context, timeout time.Duration) (*models.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type lookup struct {
		session *models.Session
		err     error
	}
	ch := make(chan lookup, 1)
	go func() {
		s, err := c.sessions.GetActiveByUserID(c.userID)
		ch <- lookup{session: s, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			if errors.Is(res.err, gorm.ErrRecordNotFound) {
				return nil, ErrNoSession
			}
			return nil, res.err
		}
		c.setCurrent(res.session)
		return res.session, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w after %s", ErrLookupTimeout, timeout)
	}
}

// LookupWithRetry keeps attempting LookupWithTimeout until a session appears
// or the wall-clock budget is spent. Attempts are strictly sequential with a
// linear backoff capped at 2s. This absorbs the replication window right
// after an OAuth redirect, when the session row may not be queryable yet.
func (c *Client) LookupWithRetry(ctx context.Context, maxElapsed, initialDelay time.Duration) (*models.Session, error) {
	s, err := retry.Do(ctx, retry.Config{
		MaxElapsed:   maxElapsed,
		InitialDelay: initialDelay,
	}, func(ctx context.Context) (*models.Session, error) {
		return c.LookupWithTimeout(ctx, c.attemptTimeout)
	})
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			// The store kept answering "nothing yet"; that is budget
			// exhaustion, not a store failure.
			return nil, ErrRetryBudgetExceeded
		}
		return nil, err
	}
	return s, nil
}

// Establish creates a fresh session row for the user and returns it together
// with the raw refresh token (shown to the caller exactly once).
func (c *Client) Establish(ctx context.Context, user *models.User) (*models.Session, string, error) {
	access, expiresAt, err := c.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}
	rawRefresh, refreshHash, err := GenerateRefreshToken()
	if err != nil {
		return nil, "", err
	}

	s := &models.Session{
		UserID:           user.ID,
		AccessToken:      access,
		RefreshTokenHash: refreshHash,
		ExpiresAt:        expiresAt,
	}
	if err := c.sessions.Create(s); err != nil {
		return nil, "", err
	}
	c.setCurrent(s)
	return s, rawRefresh, nil
}

// Refresh reissues the access token and extends the session expiry in place.
// The refresh token is left alone; rotating it belongs to Redeem, where the
// new raw token can actually be handed back. Failure is reported as a boolean
// so callers can degrade to logged-out behavior instead of crashing; the
// cached session is left untouched on any failure path.
func (c *Client) Refresh(ctx context.Context) bool {
	if c.offline != nil && c.offline() {
		return false
	}

	current := c.Current()
	if current == nil {
		s, err := c.LookupWithTimeout(ctx, c.attemptTimeout)
		if err != nil {
			return false
		}
		current = s
	}

	user, err := c.users.GetByID(c.userID)
	if err != nil {
		log.Warnf("session refresh: user %d lookup failed: %v", c.userID, err)
		return false
	}

	access, expiresAt, err := c.tokens.Issue(user)
	if err != nil {
		log.Warnf("session refresh: token issue failed for user %d: %v", c.userID, err)
		return false
	}

	updated := *current
	updated.AccessToken = access
	updated.ExpiresAt = expiresAt
	if err := c.sessions.Update(&updated); err != nil {
		log.Warnf("session refresh: store update failed for user %d: %v", c.userID, err)
		return false
	}

	c.setCurrent(&updated)
	return true
}

// Redeem exchanges a presented refresh token for a fresh token pair. The old
// refresh token is retired in the same store write, so each raw token redeems
// at most once. Returns the updated session and the new raw refresh token.
func (c *Client) Redeem(ctx context.Context, rawRefresh string) (*models.Session, string, error) {
	if rawRefresh == "" {
		return nil, "", ErrInvalidRefreshToken
	}

	s, err := c.sessions.GetByRefreshTokenHash(HashRefreshToken(rawRefresh))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidRefreshToken
		}
		return nil, "", err
	}
	if s.UserID != c.userID || s.IsExpired(time.Now()) {
		return nil, "", ErrInvalidRefreshToken
	}

	user, err := c.users.GetByID(c.userID)
	if err != nil {
		return nil, "", err
	}
	access, expiresAt, err := c.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}
	rawNext, hashNext, err := GenerateRefreshToken()
	if err != nil {
		return nil, "", err
	}

	updated := *s
	updated.AccessToken = access
	updated.RefreshTokenHash = hashNext
	updated.ExpiresAt = expiresAt
	if err := c.sessions.Update(&updated); err != nil {
		return nil, "", err
	}

	c.setCurrent(&updated)
	return &updated, rawNext, nil
}

// Invalidate destroys every session of the user and drops the cache
func (c *Client) Invalidate(ctx context.Context) error {
	_, err := c.sessions.DeleteByUserID(c.userID)
	if err != nil {
		return err
	}
	c.setCurrent(nil)
	return nil
}

// CurrentUser resolves the signed-in user's profile. The profile read is
// best-effort: when it fails, a minimal record derived from the access-token
// claims is returned as a degraded result instead of an error.
func (c *Client) CurrentUser(ctx context.Context) result.Result[*UserProfile] {
	s := c.Current()
	if s == nil {
		looked, err := c.LookupWithTimeout(ctx, c.attemptTimeout)
		if err != nil {
			return result.Failed[*UserProfile](err)
		}
		s = looked
	}

	user, err := c.users.GetByID(c.userID)
	if err == nil {
		return result.Ok(&UserProfile{
			ID:        user.ID,
			Name:      user.Name,
			Email:     user.Email,
			Role:      user.Role,
			AvatarURL: user.AvatarURL,
			CreatedAt: user.CreatedAt,
		})
	}

	claims, parseErr := c.tokens.Parse(s.AccessToken)
	if parseErr != nil {
		return result.Failed[*UserProfile](fmt.Errorf("profile lookup failed and token claims unreadable: %v", parseErr))
	}

	minimal := &UserProfile{
		ID:        claims.UserID(),
		Email:     claims.Email,
		Role:      claims.Role,
		CreatedAt: time.Unix(claims.UserCreatedAt, 0),
	}
	return result.Degraded(minimal, "profile enrichment unavailable", err)
}
