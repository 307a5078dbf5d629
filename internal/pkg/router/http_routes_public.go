package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/LarsBehrendt/SocialPulse/app/controllers"
	"github.com/LarsBehrendt/SocialPulse/internal/pkg/middleware"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Account endpoints (JSON)
	app.Post("/register", controllers.HandleAuthRegister)
	app.Post("/login", controllers.HandleAuthLogin)
	app.Post("/logout", middleware.RequireAuth, controllers.HandleAuthLogout)

	// Social OAuth sign-in
	app.Get("/auth/:provider", gothfiber.BeginAuthHandler)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)

	// Token exchange for the connect flow. The dashboard frontend runs on a
	// separate origin, so this route carries its own CORS policy.
	exchange := app.Group("/api/oauth", cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
	}))
	exchange.Get("/exchange", controllers.HandleOAuthExchange)

	// Platform webhooks (no auth, signature-verified in controller)
	app.Get("/webhooks/messaging", controllers.HandleWebhookVerify)
	app.Post("/webhooks/messaging", controllers.HandleWebhookReceive)
}
