package controllers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/LarsBehrendt/SocialPulse/app/repository"
	"github.com/LarsBehrendt/SocialPulse/internal/pkg/cache"
	"github.com/LarsBehrendt/SocialPulse/internal/pkg/usercontext"
)

const (
	summaryCacheKeyFormat = "analytics:summary:%d"
	summaryCacheTTL       = 5 * time.Minute
	maxDailyWindowDays    = 90
)

// AnalyticsController serves message-volume analytics for the dashboard
type AnalyticsController struct {
	stats repository.StatsRepository
}

var analyticsController *AnalyticsController

// InitializeAnalyticsController wires the controller to the global repositories
func InitializeAnalyticsController() {
	analyticsController = NewAnalyticsController(repository.GetGlobalFactory().GetStatsRepository())
}

func NewAnalyticsController(stats repository.StatsRepository) *AnalyticsController {
	return &AnalyticsController{stats: stats}
}

// HandleAnalyticsSummary is the package-level entry used by the router
func HandleAnalyticsSummary(c *fiber.Ctx) error {
	return analyticsController.Summary(c)
}

// HandleAnalyticsDaily is the package-level entry used by the router
func HandleAnalyticsDaily(c *fiber.Ctx) error {
	return analyticsController.Daily(c)
}

// Summary returns message totals across all connections, cached in Redis
func (ac *AnalyticsController) Summary(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	cacheKey := fmt.Sprintf(summaryCacheKeyFormat, userID)

	if cached, err := cache.Get(cacheKey); err == nil && cached != "" {
		var summary repository.StatsSummary
		if err := json.Unmarshal([]byte(cached), &summary); err == nil {
			return c.Status(fiber.StatusOK).JSON(summary)
		}
	}

	summary, err := ac.stats.GetSummaryByUserID(userID)
	if err != nil {
		log.Errorf("analytics summary failed for user %d: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load analytics"})
	}

	if encoded, err := json.Marshal(summary); err == nil {
		if err := cache.Set(cacheKey, string(encoded), summaryCacheTTL); err != nil {
			log.Warnf("analytics summary cache write failed: %v", err)
		}
	}

	return c.Status(fiber.StatusOK).JSON(summary)
}

// Daily returns the per-day series for the requested window (default 30 days)
func (ac *AnalyticsController) Daily(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	days := 30
	if v, err := strconv.Atoi(c.Query("days", "30")); err == nil && v > 0 {
		days = v
	}
	if days > maxDailyWindowDays {
		days = maxDailyWindowDays
	}

	end := time.Now()
	start := end.AddDate(0, 0, -days)

	series, err := ac.stats.GetDailyStats(userID, start, end)
	if err != nil {
		log.Errorf("analytics daily failed for user %d: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load analytics"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"days":  days,
		"stats": series,
	})
}
