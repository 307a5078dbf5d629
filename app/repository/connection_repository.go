package repository

import (
	"github.com/LarsBehrendt/SocialPulse/app/models"
	"gorm.io/gorm"
)

// connectionRepository implements the ConnectionRepository interface
type connectionRepository struct {
	db *gorm.DB
}

// NewConnectionRepository creates a new social-connection repository instance
func NewConnectionRepository(db *gorm.DB) ConnectionRepository {
	return &connectionRepository{db: db}
}

// Create creates a new connection row
func (r *connectionRepository) Create(conn *models.SocialConnection) error {
	return r.db.Create(conn).Error
}

// GetByID retrieves a connection by its ID
func (r *connectionRepository) GetByID(id uint) (*models.SocialConnection, error) {
	var conn models.SocialConnection
	err := r.db.First(&conn, id).Error
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

// GetByUUID retrieves a connection by its public UUID
func (r *connectionRepository) GetByUUID(uuid string) (*models.SocialConnection, error) {
	var conn models.SocialConnection
	err := r.db.Where("uuid = ?", uuid).First(&conn).Error
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

// GetByUserID lists all connections of one user, newest first
func (r *connectionRepository) GetByUserID(userID uint) ([]models.SocialConnection, error) {
	var conns []models.SocialConnection
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&conns).Error
	return conns, err
}

// GetByPlatformAccount finds the connection for one authorized page/account
func (r *connectionRepository) GetByPlatformAccount(userID uint, platform, accountID string) (*models.SocialConnection, error) {
	var conn models.SocialConnection
	err := r.db.Where("user_id = ? AND platform = ? AND platform_account_id = ?", userID, platform, accountID).
		First(&conn).Error
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

// GetAllByAccountID resolves a platform account id to its connections
func (r *connectionRepository) GetAllByAccountID(accountID string) ([]models.SocialConnection, error) {
	var conns []models.SocialConnection
	err := r.db.Where("platform_account_id = ?", accountID).Find(&conns).Error
	return conns, err
}

// Update saves a modified connection row
func (r *connectionRepository) Update(conn *models.SocialConnection) error {
	return r.db.Save(conn).Error
}

// Delete removes a connection by its ID
func (r *connectionRepository) Delete(id uint) error {
	return r.db.Delete(&models.SocialConnection{}, id).Error
}

// CountByUserID returns the number of connections for one user
func (r *connectionRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.SocialConnection{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
