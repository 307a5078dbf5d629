package models

import "time"

// MessageStat is one day of message volume for a connected account.
// Counters are buffered in Redis and flushed here in batches.
type MessageStat struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"index" json:"user_id"`
	ConnectionID  uint      `gorm:"index:connection_day,unique" json:"connection_id"`
	Platform      string    `gorm:"type:varchar(50)" json:"platform"`
	SentCount     int64     `gorm:"default:0" json:"sent_count"`
	ReceivedCount int64     `gorm:"default:0" json:"received_count"`
	RecordedOn    time.Time `gorm:"index:connection_day,unique;type:date" json:"recorded_on"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// DailyStats is an aggregated per-day row used by the analytics endpoints
type DailyStats struct {
	Date          string `json:"date"`
	SentCount     int64  `json:"sent_count"`
	ReceivedCount int64  `json:"received_count"`
}
