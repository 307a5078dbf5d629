package controllers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/LarsBehrendt/SocialPulse/app/repository"
)

// CleanupResponse is the wire contract of the scheduled cleanup endpoint
type CleanupResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// CleanupController sweeps expired session rows. It is invoked by an
// external scheduler; re-invocation on failure is the scheduler's job.
type CleanupController struct {
	sessions repository.SessionRepository
}

var cleanupController *CleanupController

// InitializeCleanupController wires the controller to the global session repository
func InitializeCleanupController() {
	cleanupController = NewCleanupController(repository.GetGlobalFactory().GetSessionRepository())
}

func NewCleanupController(sessions repository.SessionRepository) *CleanupController {
	return &CleanupController{sessions: sessions}
}

// HandleSessionCleanup is the package-level entry used by the router
func HandleSessionCleanup(c *fiber.Ctx) error {
	return cleanupController.Cleanup(c)
}

// Cleanup deletes every session expired before a single cutoff computed once
// at invocation start. One bulk delete, no partial-failure handling needed.
func (cc *CleanupController) Cleanup(c *fiber.Ctx) error {
	cutoff := time.Now()

	count, err := cc.sessions.DeleteExpired(cutoff)
	if err != nil {
		log.Errorf("session cleanup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(CleanupResponse{
			Status:  "error",
			Message: "session cleanup failed",
			Error:   err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(CleanupResponse{
		Status:  "success",
		Message: fmt.Sprintf("Cleaned up %d expired sessions", count),
	})
}
