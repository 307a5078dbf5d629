package repository

import (
	"time"

	"github.com/LarsBehrendt/SocialPulse/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
}

// SessionRepository defines the interface for session-store operations
type SessionRepository interface {
	Create(session *models.Session) error
	GetByID(id uint) (*models.Session, error)
	// GetActiveByUserID returns the newest session for the user whose
	// expiry lies in the future.
	GetActiveByUserID(userID uint) (*models.Session, error)
	GetByRefreshTokenHash(hash string) (*models.Session, error)
	Update(session *models.Session) error
	Delete(id uint) error
	DeleteByUserID(userID uint) (int64, error)
	// DeleteExpired removes every session with expires_at strictly before
	// the cutoff and returns the number of rows removed.
	DeleteExpired(cutoff time.Time) (int64, error)
	Count() (int64, error)
}

// ConnectionRepository defines the interface for social-connection operations
type ConnectionRepository interface {
	Create(conn *models.SocialConnection) error
	GetByID(id uint) (*models.SocialConnection, error)
	GetByUUID(uuid string) (*models.SocialConnection, error)
	GetByUserID(userID uint) ([]models.SocialConnection, error)
	GetByPlatformAccount(userID uint, platform, accountID string) (*models.SocialConnection, error)
	// GetAllByAccountID resolves a platform account id to every connection
	// referencing it, across users. Used by webhook ingestion.
	GetAllByAccountID(accountID string) ([]models.SocialConnection, error)
	Update(conn *models.SocialConnection) error
	Delete(id uint) error
	CountByUserID(userID uint) (int64, error)
}

// StatsRepository defines the interface for message-analytics operations
type StatsRepository interface {
	IncrementCounts(connectionID uint, day time.Time, sent, received int64) error
	GetSummaryByUserID(userID uint) (*StatsSummary, error)
	GetDailyStats(userID uint, startDate, endDate time.Time) ([]models.DailyStats, error)
	CountByUserID(userID uint) (int64, error)
}

// StatsSummary aggregates message volume across all of a user's connections
type StatsSummary struct {
	TotalSent       int64            `json:"total_sent"`
	TotalReceived   int64            `json:"total_received"`
	PerPlatformSent map[string]int64 `json:"per_platform_sent"`
	ConnectionCount int64            `json:"connection_count"`
}
