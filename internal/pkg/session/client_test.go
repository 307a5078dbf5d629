package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/LarsBehrendt/SocialPulse/app/models"
)

// fakeSessionRepo implements repository.SessionRepository with pluggable
// behavior per test.
type fakeSessionRepo struct {
	getActive func(userID uint) (*models.Session, error)
	getByHash func(hash string) (*models.Session, error)
	create    func(s *models.Session) error
	update    func(s *models.Session) error
	deleted   []uint
}

func (f *fakeSessionRepo) Create(s *models.Session) error {
	if f.create != nil {
		return f.create(s)
	}
	return nil
}

func (f *fakeSessionRepo) GetByID(id uint) (*models.Session, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSessionRepo) GetActiveByUserID(userID uint) (*models.Session, error) {
	if f.getActive != nil {
		return f.getActive(userID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSessionRepo) GetByRefreshTokenHash(hash string) (*models.Session, error) {
	if f.getByHash != nil {
		return f.getByHash(hash)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSessionRepo) Update(s *models.Session) error {
	if f.update != nil {
		return f.update(s)
	}
	return nil
}

func (f *fakeSessionRepo) Delete(id uint) error { return nil }

func (f *fakeSessionRepo) DeleteByUserID(userID uint) (int64, error) {
	f.deleted = append(f.deleted, userID)
	return 1, nil
}

func (f *fakeSessionRepo) DeleteExpired(cutoff time.Time) (int64, error) { return 0, nil }

func (f *fakeSessionRepo) Count() (int64, error) { return 0, nil }

// fakeUserRepo implements repository.UserRepository
type fakeUserRepo struct {
	getByID func(id uint) (*models.User, error)
}

func (f *fakeUserRepo) Create(u *models.User) error { return nil }

func (f *fakeUserRepo) GetByID(id uint) (*models.User, error) {
	if f.getByID != nil {
		return f.getByID(id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByEmail(email string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) Update(u *models.User) error            { return nil }
func (f *fakeUserRepo) Delete(id uint) error                   { return nil }
func (f *fakeUserRepo) List(o, l int) ([]models.User, error)   { return nil, nil }
func (f *fakeUserRepo) Count() (int64, error)                  { return 0, nil }

func testIssuer() *TokenIssuer {
	return NewTokenIssuer("test-secret", time.Hour)
}

func testUser() *models.User {
	return &models.User{
		ID:        7,
		Name:      "Dana",
		Email:     "dana@example.com",
		Role:      models.ROLE_USER,
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestCurrentIsNilBeforeAnyLookup(t *testing.T) {
	c := NewClient(&fakeSessionRepo{}, &fakeUserRepo{}, testIssuer(), 7)
	assert.Nil(t, c.Current())
}

func TestLookupWithTimeoutCachesResult(t *testing.T) {
	want := &models.Session{ID: 1, UserID: 7, ExpiresAt: time.Now().Add(time.Hour)}
	repo := &fakeSessionRepo{
		getActive: func(userID uint) (*models.Session, error) { return want, nil },
	}
	c := NewClient(repo, &fakeUserRepo{}, testIssuer(), 7)

	got, err := c.LookupWithTimeout(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	require.NotNil(t, c.Current())
	assert.Equal(t, want.ID, c.Current().ID)
}

func TestLookupWithTimeoutTimesOut(t *testing.T) {
	repo := &fakeSessionRepo{
		getActive: func(userID uint) (*models.Session, error) {
			time.Sleep(300 * time.Millisecond)
			return nil, gorm.ErrRecordNotFound
		},
	}
	c := NewClient(repo, &fakeUserRepo{}, testIssuer(), 7)

	start := time.Now()
	_, err := c.LookupWithTimeout(context.Background(), 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrLookupTimeout)
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestLookupWithTimeoutMapsNotFound(t *testing.T) {
	c := NewClient(&fakeSessionRepo{}, &fakeUserRepo{}, testIssuer(), 7)

	_, err := c.LookupWithTimeout(context.Background(), time.Second)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Nil(t, c.Current())
}

func TestLookupWithRetryReturnsOnFirstHit(t *testing.T) {
	attempts := 0
	want := &models.Session{ID: 3, UserID: 7, ExpiresAt: time.Now().Add(time.Hour)}
	repo := &fakeSessionRepo{
		getActive: func(userID uint) (*models.Session, error) {
			attempts++
			if attempts < 3 {
				return nil, gorm.ErrRecordNotFound
			}
			return want, nil
		},
	}
	c := NewClient(repo, &fakeUserRepo{}, testIssuer(), 7)

	got, err := c.LookupWithRetry(context.Background(), 2*time.Second, 5*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, 3, attempts, "no attempt after the session appeared")
}

func TestLookupWithRetryExhaustsBudget(t *testing.T) {
	attempts := 0
	repo := &fakeSessionRepo{
		getActive: func(userID uint) (*models.Session, error) {
			attempts++
			return nil, gorm.ErrRecordNotFound
		},
	}
	c := NewClient(repo, &fakeUserRepo{}, testIssuer(), 7)

	start := time.Now()
	_, err := c.LookupWithRetry(context.Background(), 60*time.Millisecond, 5*time.Millisecond)
	assert.ErrorIs(t, err, ErrRetryBudgetExceeded)
	// Budget plus slack for one in-flight attempt
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.GreaterOrEqual(t, attempts, 2)
}

func TestLookupWithRetrySurfacesLastStoreError(t *testing.T) {
	storeDown := errors.New("store unreachable")
	repo := &fakeSessionRepo{
		getActive: func(userID uint) (*models.Session, error) { return nil, storeDown },
	}
	c := NewClient(repo, &fakeUserRepo{}, testIssuer(), 7)

	_, err := c.LookupWithRetry(context.Background(), 40*time.Millisecond, 5*time.Millisecond)
	assert.ErrorIs(t, err, storeDown)
	assert.NotErrorIs(t, err, ErrRetryBudgetExceeded)
}

func TestRefreshReturnsFalseWhenOffline(t *testing.T) {
	cached := &models.Session{ID: 5, UserID: 7, ExpiresAt: time.Now().Add(time.Minute)}
	repo := &fakeSessionRepo{
		getActive: func(userID uint) (*models.Session, error) { return cached, nil },
		update: func(s *models.Session) error {
			t.Fatal("update must not be called while offline")
			return nil
		},
	}
	c := NewClient(repo, &fakeUserRepo{}, testIssuer(), 7,
		WithOfflineCheck(func() bool { return true }))

	_, err := c.LookupWithTimeout(context.Background(), time.Second)
	require.NoError(t, err)
	before := c.Current().ExpiresAt

	assert.False(t, c.Refresh(context.Background()))
	assert.Equal(t, before, c.Current().ExpiresAt, "cache unmodified on offline refresh")
}

func TestRefreshLeavesCacheOnStoreFailure(t *testing.T) {
	cached := &models.Session{ID: 5, UserID: 7, AccessToken: "old", ExpiresAt: time.Now().Add(time.Minute)}
	repo := &fakeSessionRepo{
		getActive: func(userID uint) (*models.Session, error) { return cached, nil },
		update:    func(s *models.Session) error { return errors.New("write failed") },
	}
	users := &fakeUserRepo{getByID: func(id uint) (*models.User, error) { return testUser(), nil }}
	c := NewClient(repo, users, testIssuer(), 7)

	_, err := c.LookupWithTimeout(context.Background(), time.Second)
	require.NoError(t, err)

	assert.False(t, c.Refresh(context.Background()))
	assert.Equal(t, "old", c.Current().AccessToken)
}

func TestRefreshUpdatesExpiryOnSuccess(t *testing.T) {
	cached := &models.Session{ID: 5, UserID: 7, AccessToken: "old", ExpiresAt: time.Now().Add(time.Minute)}
	var written *models.Session
	repo := &fakeSessionRepo{
		getActive: func(userID uint) (*models.Session, error) { return cached, nil },
		update: func(s *models.Session) error {
			written = s
			return nil
		},
	}
	users := &fakeUserRepo{getByID: func(id uint) (*models.User, error) { return testUser(), nil }}
	c := NewClient(repo, users, testIssuer(), 7)

	_, err := c.LookupWithTimeout(context.Background(), time.Second)
	require.NoError(t, err)
	before := c.Current().ExpiresAt

	assert.True(t, c.Refresh(context.Background()))
	require.NotNil(t, written)
	assert.NotEqual(t, "old", written.AccessToken)
	assert.True(t, c.Current().ExpiresAt.After(before))
	assert.Equal(t, written.RefreshTokenHash, c.Current().RefreshTokenHash)
}

func TestRefreshKeepsRefreshTokenValid(t *testing.T) {
	raw, hash, err := GenerateRefreshToken()
	require.NoError(t, err)

	cached := &models.Session{ID: 5, UserID: 7, AccessToken: "old", RefreshTokenHash: hash, ExpiresAt: time.Now().Add(time.Minute)}
	var written *models.Session
	repo := &fakeSessionRepo{
		getActive: func(userID uint) (*models.Session, error) { return cached, nil },
		update: func(s *models.Session) error {
			written = s
			return nil
		},
	}
	users := &fakeUserRepo{getByID: func(id uint) (*models.User, error) { return testUser(), nil }}
	c := NewClient(repo, users, testIssuer(), 7)

	_, err = c.LookupWithTimeout(context.Background(), time.Second)
	require.NoError(t, err)

	require.True(t, c.Refresh(context.Background()))
	require.NotNil(t, written)
	// The raw token the browser holds must still redeem after a refresh
	assert.Equal(t, HashRefreshToken(raw), written.RefreshTokenHash)
}

func TestRedeemRotatesPair(t *testing.T) {
	raw, hash, err := GenerateRefreshToken()
	require.NoError(t, err)

	stored := &models.Session{ID: 5, UserID: 7, AccessToken: "old", RefreshTokenHash: hash, ExpiresAt: time.Now().Add(time.Minute)}
	var written *models.Session
	repo := &fakeSessionRepo{
		getByHash: func(h string) (*models.Session, error) {
			if h == hash {
				return stored, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
		update: func(s *models.Session) error {
			written = s
			return nil
		},
	}
	users := &fakeUserRepo{getByID: func(id uint) (*models.User, error) { return testUser(), nil }}
	c := NewClient(repo, users, testIssuer(), 7)

	s, rawNext, err := c.Redeem(context.Background(), raw)
	require.NoError(t, err)
	require.NotNil(t, written)
	assert.NotEqual(t, raw, rawNext)
	assert.Equal(t, HashRefreshToken(rawNext), written.RefreshTokenHash)
	assert.NotEqual(t, hash, written.RefreshTokenHash, "old token retired")
	assert.NotEqual(t, "old", s.AccessToken)
	require.NotNil(t, c.Current())
	assert.Equal(t, written.RefreshTokenHash, c.Current().RefreshTokenHash)
}

func TestRedeemRejectsUnknownToken(t *testing.T) {
	c := NewClient(&fakeSessionRepo{}, &fakeUserRepo{}, testIssuer(), 7)

	_, _, err := c.Redeem(context.Background(), "never-issued")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRedeemRejectsExpiredSession(t *testing.T) {
	raw, hash, err := GenerateRefreshToken()
	require.NoError(t, err)

	stored := &models.Session{ID: 5, UserID: 7, RefreshTokenHash: hash, ExpiresAt: time.Now().Add(-time.Minute)}
	repo := &fakeSessionRepo{
		getByHash: func(h string) (*models.Session, error) { return stored, nil },
		update: func(s *models.Session) error {
			t.Fatal("expired sessions must not be rotated")
			return nil
		},
	}
	c := NewClient(repo, &fakeUserRepo{}, testIssuer(), 7)

	_, _, err = c.Redeem(context.Background(), raw)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRedeemRejectsForeignToken(t *testing.T) {
	raw, hash, err := GenerateRefreshToken()
	require.NoError(t, err)

	stored := &models.Session{ID: 5, UserID: 99, RefreshTokenHash: hash, ExpiresAt: time.Now().Add(time.Minute)}
	repo := &fakeSessionRepo{
		getByHash: func(h string) (*models.Session, error) { return stored, nil },
	}
	c := NewClient(repo, &fakeUserRepo{}, testIssuer(), 7)

	_, _, err = c.Redeem(context.Background(), raw)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestEstablishCreatesRowAndCaches(t *testing.T) {
	var created *models.Session
	repo := &fakeSessionRepo{
		create: func(s *models.Session) error {
			created = s
			return nil
		},
	}
	c := NewClient(repo, &fakeUserRepo{}, testIssuer(), 7)

	s, rawRefresh, err := c.Establish(context.Background(), testUser())
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.NotEmpty(t, rawRefresh)
	assert.Equal(t, HashRefreshToken(rawRefresh), s.RefreshTokenHash)
	assert.NotNil(t, c.Current())
}

func TestCurrentUserDegradesToClaims(t *testing.T) {
	issuer := testIssuer()
	access, expiresAt, err := issuer.Issue(testUser())
	require.NoError(t, err)

	cached := &models.Session{ID: 5, UserID: 7, AccessToken: access, ExpiresAt: expiresAt}
	repo := &fakeSessionRepo{
		getActive: func(userID uint) (*models.Session, error) { return cached, nil },
	}
	users := &fakeUserRepo{
		getByID: func(id uint) (*models.User, error) { return nil, errors.New("profile table down") },
	}
	c := NewClient(repo, users, issuer, 7)

	res := c.CurrentUser(context.Background())
	require.True(t, res.IsDegraded())
	profile := res.Value()
	require.NotNil(t, profile)
	assert.Equal(t, uint(7), profile.ID)
	assert.Equal(t, "dana@example.com", profile.Email)
	assert.Equal(t, models.ROLE_USER, profile.Role)
	assert.Empty(t, profile.Name, "minimal record has no enriched fields")
}

func TestCurrentUserFullProfile(t *testing.T) {
	issuer := testIssuer()
	access, expiresAt, err := issuer.Issue(testUser())
	require.NoError(t, err)

	cached := &models.Session{ID: 5, UserID: 7, AccessToken: access, ExpiresAt: expiresAt}
	repo := &fakeSessionRepo{
		getActive: func(userID uint) (*models.Session, error) { return cached, nil },
	}
	users := &fakeUserRepo{getByID: func(id uint) (*models.User, error) { return testUser(), nil }}
	c := NewClient(repo, users, issuer, 7)

	res := c.CurrentUser(context.Background())
	require.True(t, res.IsOk())
	assert.Equal(t, "Dana", res.Value().Name)
}

func TestCurrentUserFailsWithoutSession(t *testing.T) {
	c := NewClient(&fakeSessionRepo{}, &fakeUserRepo{}, testIssuer(), 7)

	res := c.CurrentUser(context.Background())
	assert.True(t, res.IsFailed())
	assert.ErrorIs(t, res.Err(), ErrNoSession)
}
