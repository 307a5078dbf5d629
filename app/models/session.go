package models

import "time"

// Session stores the bearer-credential pair for an authenticated login.
// The raw refresh token is never persisted, only its SHA-256 hash; on refresh
// the pair is rotated in place and ExpiresAt always reflects the most recent
// successful refresh.
type Session struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"index" json:"user_id"`
	AccessToken      string    `gorm:"type:text" json:"-"`
	RefreshTokenHash string    `gorm:"uniqueIndex;type:varchar(64)" json:"-"`
	ExpiresAt        time.Time `gorm:"index" json:"expires_at"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsExpired reports whether the session must not be trusted at the given time
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// TimeToLive returns the remaining validity window, or zero when expired
func (s *Session) TimeToLive(now time.Time) time.Duration {
	if s.IsExpired(now) {
		return 0
	}
	return s.ExpiresAt.Sub(now)
}
