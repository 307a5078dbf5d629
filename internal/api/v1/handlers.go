package apiv1

import (
	"github.com/gofiber/fiber/v2"

	// Delegate to existing controllers to keep behavior consistent
	"github.com/LarsBehrendt/SocialPulse/app/controllers"
)

// Pong is the health check response body
type Pong struct {
	Ping string `json:"ping"`
}

// ServerInterface lists every operation served on the versioned API base path
type ServerInterface interface {
	GetPing(c *fiber.Ctx) error
	GetCurrentUser(c *fiber.Ctx) error
	PostAuthRefresh(c *fiber.Ctx) error
	GetConnections(c *fiber.Ctx) error
	PostConnection(c *fiber.Ctx) error
	DeleteConnection(c *fiber.Ctx) error
	GetAnalyticsSummary(c *fiber.Ctx) error
	GetAnalyticsDaily(c *fiber.Ctx) error
}

// RegisterHandlers attaches every ServerInterface operation to the router group
func RegisterHandlers(router fiber.Router, si ServerInterface) {
	router.Get("/ping", si.GetPing)
	router.Get("/me", si.GetCurrentUser)
	router.Post("/auth/refresh", si.PostAuthRefresh)
	router.Get("/connections", si.GetConnections)
	router.Post("/connections", si.PostConnection)
	router.Delete("/connections/:uuid", si.DeleteConnection)
	router.Get("/analytics/summary", si.GetAnalyticsSummary)
	router.Get("/analytics/daily", si.GetAnalyticsDaily)
}

// APIServer implements the ServerInterface
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// GetCurrentUser returns the profile behind the active session. Security is
// enforced via the auth middleware attached in the router.
func (s *APIServer) GetCurrentUser(c *fiber.Ctx) error {
	return controllers.HandleGetCurrentUser(c)
}

// PostAuthRefresh rotates the caller's session tokens
func (s *APIServer) PostAuthRefresh(c *fiber.Ctx) error {
	return controllers.HandleAuthRefresh(c)
}

// GetConnections lists the caller's social connections
func (s *APIServer) GetConnections(c *fiber.Ctx) error {
	return controllers.HandleConnectionList(c)
}

// PostConnection stores a new page connection for the caller
func (s *APIServer) PostConnection(c *fiber.Ctx) error {
	return controllers.HandleConnectionCreate(c)
}

// DeleteConnection removes a connection by UUID. The controller reads the
// uuid from route params and enforces ownership.
func (s *APIServer) DeleteConnection(c *fiber.Ctx) error {
	return controllers.HandleConnectionDelete(c)
}

// GetAnalyticsSummary returns aggregate message volume for the caller
func (s *APIServer) GetAnalyticsSummary(c *fiber.Ctx) error {
	return controllers.HandleAnalyticsSummary(c)
}

// GetAnalyticsDaily returns the per-day message series for the caller
func (s *APIServer) GetAnalyticsDaily(c *fiber.Ctx) error {
	return controllers.HandleAnalyticsDaily(c)
}
