package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/LarsBehrendt/SocialPulse/app/models"
	"github.com/LarsBehrendt/SocialPulse/internal/pkg/env"
)

const defaultAccessTokenTTL = time.Hour

// Claims carried inside an access token. Enough to rebuild a minimal user
// record when the profile table is unreachable.
type Claims struct {
	Email         string `json:"email"`
	Role          string `json:"role"`
	UserCreatedAt int64  `json:"user_created_at"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies HS256 access tokens
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = defaultAccessTokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

func NewTokenIssuerFromEnv() *TokenIssuer {
	ttl := defaultAccessTokenTTL
	if v, err := strconv.Atoi(env.GetEnv("SESSION_TTL_MINUTES", "")); err == nil && v > 0 {
		ttl = time.Duration(v) * time.Minute
	}
	return NewTokenIssuer(env.GetEnv("APP_SECRET", ""), ttl)
}

// Issue creates a signed access token for the user and returns its expiry
func (t *TokenIssuer) Issue(user *models.User) (string, time.Time, error) {
	if len(t.secret) == 0 {
		return "", time.Time{}, errors.New("APP_SECRET is not configured")
	}

	now := time.Now()
	expiresAt := now.Add(t.ttl)
	claims := Claims{
		Email:         user.Email,
		Role:          user.Role,
		UserCreatedAt: user.CreatedAt.Unix(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse verifies a token signature and returns its claims. Expired tokens
// still parse; the caller decides whether expiry matters for its use.
func (t *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// UserID extracts the numeric subject
func (c *Claims) UserID() uint {
	id, _ := strconv.ParseUint(c.Subject, 10, 64)
	return uint(id)
}

// GenerateRefreshToken creates an opaque refresh token and its storage hash.
// Only the hash ever reaches the database.
func GenerateRefreshToken() (raw string, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	raw = hex.EncodeToString(b)
	return raw, HashRefreshToken(raw), nil
}

// HashRefreshToken returns the hex SHA-256 of a raw refresh token
func HashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
