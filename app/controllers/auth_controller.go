package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/LarsBehrendt/SocialPulse/app/models"
	"github.com/LarsBehrendt/SocialPulse/app/repository"
	"github.com/LarsBehrendt/SocialPulse/internal/pkg/hcaptcha"
	"github.com/LarsBehrendt/SocialPulse/internal/pkg/session"
	"github.com/LarsBehrendt/SocialPulse/internal/pkg/usercontext"
)

type registerRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	CaptchaToken string `json:"captcha_token"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleAuthRegister creates a dashboard account
func HandleAuthRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if hcaptcha.Enabled() {
		valid, err := hcaptcha.Verify(req.CaptchaToken)
		if err != nil || !valid {
			log.Warnf("registration captcha failed: %v", err)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "captcha validation failed"})
		}
	}

	user, err := models.CreateUser(req.Name, req.Email, req.Password)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := repository.GetGlobalFactory().GetUserRepository().Create(user); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "duplicate") {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "email is already registered"})
		}
		log.Errorf("user create failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "registration failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

// HandleAuthLogin verifies credentials, issues the token pair, and opens the
// web session used by the dashboard
func HandleAuthLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	// notice: do not inform the caller which part of the login failed
	user, err := repository.GetGlobalFactory().GetUserRepository().GetByEmail(req.Email)
	if err != nil || !user.CheckPassword(req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid credentials"})
	}
	if !user.IsActive() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "account is not active"})
	}

	client := newLifecycleClient(user.ID)
	s, rawRefresh, err := client.Establish(c.Context(), user)
	if err != nil {
		log.Errorf("session establish failed for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not establish session"})
	}

	if err := openWebSession(c, user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "session save failed"})
	}

	now := time.Now()
	user.LastLoginAt = &now
	_ = repository.GetGlobalFactory().GetUserRepository().Update(user)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"access_token":  s.AccessToken,
		"refresh_token": rawRefresh,
		"expires_at":    s.ExpiresAt.UTC().Format(time.RFC3339),
		"user":          user,
	})
}

// HandleAuthLogout invalidates the token pair and destroys the web session
func HandleAuthLogout(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	if userID != 0 {
		if err := newLifecycleClient(userID).Invalidate(c.Context()); err != nil {
			log.Warnf("session invalidate failed for user %d: %v", userID, err)
		}
	}

	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		if err := sess.Destroy(); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "logout failed"})
		}
	}

	c.Locals(usercontext.KeyFromProtected, false)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "logged out"})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// HandleAuthRefresh renews the caller's session. With a refresh_token in the
// body the whole token pair is rotated and the new raw refresh token returned;
// without one only the access token is reissued. Failure is reported as
// refreshed=false so the dashboard can degrade to a logged-out state.
func HandleAuthRefresh(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	client := newLifecycleClient(userID)

	var req refreshRequest
	_ = c.BodyParser(&req)

	if req.RefreshToken != "" {
		s, rawNext, err := client.Redeem(c.Context(), req.RefreshToken)
		if err != nil {
			if errors.Is(err, session.ErrInvalidRefreshToken) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid refresh token"})
			}
			log.Warnf("refresh token redemption failed for user %d: %v", userID, err)
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"refreshed": false})
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"refreshed":     true,
			"access_token":  s.AccessToken,
			"refresh_token": rawNext,
			"expires_at":    s.ExpiresAt.UTC().Format(time.RFC3339),
		})
	}

	refreshed := client.Refresh(c.Context())
	resp := fiber.Map{"refreshed": refreshed}
	if refreshed {
		if s := client.Current(); s != nil {
			resp["expires_at"] = s.ExpiresAt.UTC().Format(time.RFC3339)
		}
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

// HandleGetCurrentUser returns the signed-in user's profile, degraded to the
// token claims when the profile table is unreachable
func HandleGetCurrentUser(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	res := newLifecycleClient(userID).CurrentUser(c.Context())

	switch {
	case res.IsFailed():
		if errors.Is(res.Err(), session.ErrNoSession) || errors.Is(res.Err(), gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "no active session"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": res.Err().Error()})
	case res.IsDegraded():
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"user":    res.Value(),
			"warning": res.Warning(),
		})
	default:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"user": res.Value()})
	}
}

// openWebSession stores the auth markers in the Redis-backed web session
func openWebSession(c *fiber.Ctx, user *models.User) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return err
	}
	sess.Set(usercontext.AuthKey, true)
	sess.Set(usercontext.KeyUserID, user.ID)
	sess.Set(usercontext.KeyUsername, user.Name)
	sess.Set(usercontext.KeyIsAdmin, user.Role == models.ROLE_ADMIN)
	return sess.Save()
}
