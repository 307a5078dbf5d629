package repository

import (
	"strings"
	"time"

	"github.com/LarsBehrendt/SocialPulse/app/models"
	"gorm.io/gorm"
)

// sessionRepository implements the SessionRepository interface
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new session repository instance
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// Create creates a new session row
func (r *sessionRepository) Create(session *models.Session) error {
	return r.db.Create(session).Error
}

// GetByID retrieves a session by its ID
func (r *sessionRepository) GetByID(id uint) (*models.Session, error) {
	var session models.Session
	err := r.db.First(&session, id).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetActiveByUserID returns the newest unexpired session for the user
func (r *sessionRepository) GetActiveByUserID(userID uint) (*models.Session, error) {
	var session models.Session
	err := r.db.Where("user_id = ? AND expires_at > ?", userID, time.Now()).
		Order("created_at DESC").
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetByRefreshTokenHash resolves a hashed refresh token to its session
func (r *sessionRepository) GetByRefreshTokenHash(hash string) (*models.Session, error) {
	trimmed := strings.TrimSpace(hash)
	if trimmed == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var session models.Session
	err := r.db.Where("refresh_token_hash = ?", trimmed).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Update saves a modified session row
func (r *sessionRepository) Update(session *models.Session) error {
	return r.db.Save(session).Error
}

// Delete removes a session by its ID
func (r *sessionRepository) Delete(id uint) error {
	return r.db.Delete(&models.Session{}, id).Error
}

// DeleteByUserID removes every session of one user (sign-out everywhere)
func (r *sessionRepository) DeleteByUserID(userID uint) (int64, error) {
	res := r.db.Where("user_id = ?", userID).Delete(&models.Session{})
	return res.RowsAffected, res.Error
}

// DeleteExpired removes all sessions expired strictly before the cutoff.
// A single bulk delete; RowsAffected is the cleaned-up count.
func (r *sessionRepository) DeleteExpired(cutoff time.Time) (int64, error) {
	res := r.db.Where("expires_at < ?", cutoff).Delete(&models.Session{})
	return res.RowsAffected, res.Error
}

// Count returns the total number of session rows
func (r *sessionRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Session{}).Count(&count).Error
	return count, err
}
