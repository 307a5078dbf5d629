package controllers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"
	"gorm.io/gorm"

	"github.com/LarsBehrendt/SocialPulse/app/models"
	"github.com/LarsBehrendt/SocialPulse/app/repository"
)

// HandleOAuthCallback completes the provider flow and logs the user in
func HandleOAuthCallback(c *fiber.Ctx) error {
	// Complete OAuth with provider and obtain unified user
	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(fmt.Sprintf("OAuth failed: %v", err))
	}

	users := repository.GetGlobalFactory().GetUserRepository()

	var appUser *models.User
	if u.Email != "" {
		appUser, err = users.GetByEmail(u.Email)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("db error: %v", err))
		}
	}

	if appUser == nil {
		// Create new user; password is a random placeholder since the model
		// requires one (not usable for password login)
		placeholder := fmt.Sprintf("oauth_%d", time.Now().UnixNano())
		hash, _ := models.HashPassword(placeholder)
		email := u.Email
		if email == "" {
			// Ensure unique, non-empty email to satisfy the unique index
			email = fmt.Sprintf("%s_%s@%s.oauth.local", u.Provider, u.UserID, u.Provider)
		}
		appUser = &models.User{
			Name:      firstNonEmpty(u.Name, u.NickName, u.Email, "User"),
			Email:     email,
			Password:  hash,
			AvatarURL: u.AvatarURL,
			Status:    models.STATUS_ACTIVE,
			Role:      models.ROLE_USER,
		}
		if err := users.Create(appUser); err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("create user failed: %v", err))
		}
	}

	// Token pair + web session
	if _, _, err := newLifecycleClient(appUser.ID).Establish(c.Context(), appUser); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("session init failed")
	}
	if err := openWebSession(c, appUser); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("session save failed")
	}

	// Update last login timestamp
	now := time.Now()
	appUser.LastLoginAt = &now
	_ = users.Update(appUser)

	return c.Redirect("/", fiber.StatusSeeOther)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
