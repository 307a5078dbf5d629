package models

import "time"

const (
	PLATFORM_FACEBOOK  = "facebook"
	PLATFORM_INSTAGRAM = "instagram"
)

// SocialConnection links a dashboard user to a page or business account they
// explicitly authorized. Rows are only ever created by the OAuth exchange flow
// and only ever removed by explicit user action; a revoked upstream token
// leaves the row stale until the user deletes it.
type SocialConnection struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UUID              string    `gorm:"uniqueIndex;type:varchar(36)" json:"uuid"`
	UserID            uint      `gorm:"index:user_platform_account,unique" json:"user_id"`
	Platform          string    `gorm:"index:user_platform_account,unique;type:varchar(50)" json:"platform" validate:"oneof=facebook instagram"`
	PlatformAccountID string    `gorm:"index:user_platform_account,unique;type:varchar(191)" json:"platform_account_id" validate:"required,max=191"`
	PageName          string    `gorm:"type:varchar(255)" json:"page_name" validate:"max=255"`
	PageAccessToken   string    `gorm:"type:text" json:"-"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
