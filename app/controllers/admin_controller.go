package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/LarsBehrendt/SocialPulse/app/repository"
	"github.com/LarsBehrendt/SocialPulse/internal/pkg/cache"
)

const (
	userCountCacheKey = "admin:stats:user_count"
	userCountCacheTTL = time.Minute
	recentUserLimit   = 10
)

// AdminController serves operational numbers for the admin view
type AdminController struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
}

var adminController *AdminController

// InitializeAdminController wires the controller to the global repositories
func InitializeAdminController() {
	repos := repository.GetGlobalRepositories()
	adminController = NewAdminController(repos.User, repos.Session)
}

func NewAdminController(users repository.UserRepository, sessions repository.SessionRepository) *AdminController {
	return &AdminController{users: users, sessions: sessions}
}

// HandleAdminStats is the package-level entry used by the router
func HandleAdminStats(c *fiber.Ctx) error {
	return adminController.Stats(c)
}

// Stats returns account and session totals plus the latest sign-ups. The
// user count is the expensive one and is cached for a minute.
func (ac *AdminController) Stats(c *fiber.Ctx) error {
	userCount, err := cache.GetInt(userCountCacheKey)
	if err != nil {
		n, cerr := ac.users.Count()
		if cerr != nil {
			log.Errorf("admin stats: user count failed: %v", cerr)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load stats"})
		}
		userCount = int(n)
		if err := cache.Set(userCountCacheKey, userCount, userCountCacheTTL); err != nil {
			log.Warnf("admin stats: cache write failed: %v", err)
		}
	}

	sessionCount, err := ac.sessions.Count()
	if err != nil {
		log.Errorf("admin stats: session count failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load stats"})
	}

	users, err := ac.users.List(0, recentUserLimit)
	if err != nil {
		log.Errorf("admin stats: user list failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load stats"})
	}

	recent := make([]fiber.Map, 0, len(users))
	for _, u := range users {
		recent = append(recent, fiber.Map{
			"id":         u.ID,
			"name":       u.Name,
			"email":      u.Email,
			"last_login": formatTimePtr(u.LastLoginAt),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"users":        userCount,
		"sessions":     sessionCount,
		"recent_users": recent,
	})
}
