package repository

import (
	"time"

	"github.com/LarsBehrendt/SocialPulse/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// statsRepository implements the StatsRepository interface
type statsRepository struct {
	db *gorm.DB
}

// NewStatsRepository creates a new message-stats repository instance
func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db}
}

// IncrementCounts applies buffered counter deltas to one connection's daily
// row, creating it on first write. The (connection_id, recorded_on) pair is
// unique so concurrent flushes converge on a single row.
func (r *statsRepository) IncrementCounts(connectionID uint, day time.Time, sent, received int64) error {
	var conn models.SocialConnection
	if err := r.db.First(&conn, connectionID).Error; err != nil {
		return err
	}

	stat := models.MessageStat{
		UserID:        conn.UserID,
		ConnectionID:  connectionID,
		Platform:      conn.Platform,
		SentCount:     sent,
		ReceivedCount: received,
		RecordedOn:    day.Truncate(24 * time.Hour),
	}

	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "connection_id"}, {Name: "recorded_on"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"sent_count":     gorm.Expr("sent_count + ?", sent),
			"received_count": gorm.Expr("received_count + ?", received),
		}),
	}).Create(&stat).Error
}

// GetSummaryByUserID aggregates message volume across all of a user's connections
func (r *statsRepository) GetSummaryByUserID(userID uint) (*StatsSummary, error) {
	summary := &StatsSummary{PerPlatformSent: make(map[string]int64)}

	row := r.db.Model(&models.MessageStat{}).
		Select("COALESCE(SUM(sent_count), 0), COALESCE(SUM(received_count), 0)").
		Where("user_id = ?", userID).
		Row()
	if err := row.Scan(&summary.TotalSent, &summary.TotalReceived); err != nil {
		return nil, err
	}

	type platformRow struct {
		Platform  string
		SentCount int64
	}
	var perPlatform []platformRow
	if err := r.db.Model(&models.MessageStat{}).
		Select("platform, SUM(sent_count) AS sent_count").
		Where("user_id = ?", userID).
		Group("platform").
		Scan(&perPlatform).Error; err != nil {
		return nil, err
	}
	for _, p := range perPlatform {
		summary.PerPlatformSent[p.Platform] = p.SentCount
	}

	if err := r.db.Model(&models.SocialConnection{}).
		Where("user_id = ?", userID).
		Count(&summary.ConnectionCount).Error; err != nil {
		return nil, err
	}

	return summary, nil
}

// GetDailyStats returns the per-day series for the given window
func (r *statsRepository) GetDailyStats(userID uint, startDate, endDate time.Time) ([]models.DailyStats, error) {
	var stats []models.DailyStats
	err := r.db.Model(&models.MessageStat{}).
		Select("DATE_FORMAT(recorded_on, '%Y-%m-%d') AS date, SUM(sent_count) AS sent_count, SUM(received_count) AS received_count").
		Where("user_id = ? AND recorded_on BETWEEN ? AND ?", userID, startDate, endDate).
		Group("date").
		Order("date ASC").
		Scan(&stats).Error
	return stats, err
}

// CountByUserID returns the number of stat rows for one user
func (r *statsRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.MessageStat{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
