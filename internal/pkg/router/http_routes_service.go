package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/LarsBehrendt/SocialPulse/app/controllers"
	"github.com/LarsBehrendt/SocialPulse/internal/pkg/middleware"
)

// Service routes are called by schedulers and internal tooling, never by
// browsers. They sit behind the shared service key.
func (h HttpRouter) registerServiceRoutes(app *fiber.App) {
	internal := app.Group("/internal", middleware.ServiceKeyMiddleware())
	// Schedulers differ in the method they send, so accept any
	internal.All("/cleanup-sessions", controllers.HandleSessionCleanup)
}
