package router

import (
	"github.com/LarsBehrendt/SocialPulse/app/controllers"
	"github.com/LarsBehrendt/SocialPulse/internal/pkg/middleware"
	"github.com/LarsBehrendt/SocialPulse/internal/pkg/oauth"
	"github.com/LarsBehrendt/SocialPulse/internal/pkg/session"

	"github.com/gofiber/fiber/v2"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	// Initialize controllers with their repositories
	controllers.InitializeExchangeController()
	controllers.InitializeCleanupController()
	controllers.InitializeWebhookController()
	controllers.InitializeConnectionController()
	controllers.InitializeAnalyticsController()
	controllers.InitializeAdminController()

	h.registerPublicRoutes(app)
	h.registerServiceRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
